package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// ErrNotExist is returned by Get and Delete for unknown paths.
var ErrNotExist = errors.New("storage: file does not exist")

// AferoStore implements Store on any afero filesystem.
type AferoStore struct {
	fs afero.Fs
}

// NewAferoStore creates a store rooted at the top of fs.
func NewAferoStore(fs afero.Fs) *AferoStore {
	return &AferoStore{fs: fs}
}

// NewDiskStore creates a store rooted at dir on the OS filesystem.
func NewDiskStore(dir string) (*AferoStore, error) {
	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root %s: %w", dir, err)
	}
	return NewAferoStore(afero.NewBasePathFs(osFs, dir)), nil
}

// Save writes the reader to path, replacing any previous content. The data is
// written to a temporary file first so readers never see a partial file.
func (s *AferoStore) Save(ctx context.Context, p string, reader io.Reader) (int64, error) {
	clean, err := cleanPath(p)
	if err != nil {
		return 0, err
	}
	if err := s.fs.MkdirAll(path.Dir(clean), 0o755); err != nil {
		return 0, err
	}

	tmp := clean + ".tmp"
	f, err := s.fs.Create(tmp)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, reader)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = s.fs.Remove(tmp)
		return 0, err
	}
	if err := s.fs.Rename(tmp, clean); err != nil {
		_ = s.fs.Remove(tmp)
		return 0, err
	}
	return n, nil
}

// Delete removes a file.
func (s *AferoStore) Delete(ctx context.Context, p string) error {
	clean, err := cleanPath(p)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(clean); err != nil {
		return notExist(err)
	}
	return nil
}

// Get opens a file for reading.
func (s *AferoStore) Get(ctx context.Context, p string) (io.ReadCloser, error) {
	clean, err := cleanPath(p)
	if err != nil {
		return nil, err
	}
	f, err := s.fs.OpenFile(clean, os.O_RDONLY, 0)
	if err != nil {
		return nil, notExist(err)
	}
	return f, nil
}

// cleanPath rejects paths that would leave the store root.
func cleanPath(p string) (string, error) {
	clean := path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
	if clean == "/" || strings.Contains(p, "..") {
		return "", fmt.Errorf("storage: invalid path %q", p)
	}
	return strings.TrimPrefix(clean, "/"), nil
}

func notExist(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrNotExist, err)
	}
	return err
}
