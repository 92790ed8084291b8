package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/gorilla/sessions"
	echosession "github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/spf13/afero"
)

const (
	// CookieName is the signed cookie that holds the web session.
	CookieName = "preset-session"
	tokenKey   = "token"
)

// CookieStorage keeps the token in the request's signed session cookie.
// Save and Clear write a Set-Cookie header, so they must run before the
// response body is written.
type CookieStorage struct {
	c echo.Context
}

// NewCookieStorage binds the storage to one request.
func NewCookieStorage(c echo.Context) *CookieStorage {
	return &CookieStorage{c: c}
}

func (s *CookieStorage) session() (*sessions.Session, error) {
	sess, err := echosession.Get(CookieName, s.c)
	if sess == nil {
		return nil, fmt.Errorf("load session cookie: %w", err)
	}
	// A cookie signed with another key decodes to a fresh session plus an
	// error; treat it as logged out.
	return sess, nil
}

// Load implements TokenStorage.
func (s *CookieStorage) Load(ctx context.Context) (string, error) {
	sess, err := s.session()
	if err != nil {
		return "", err
	}
	token, _ := sess.Values[tokenKey].(string)
	return token, nil
}

// Save implements TokenStorage.
func (s *CookieStorage) Save(ctx context.Context, token string) error {
	sess, err := s.session()
	if err != nil {
		return err
	}
	sess.Values[tokenKey] = token
	return sess.Save(s.c.Request(), s.c.Response())
}

// Clear implements TokenStorage.
func (s *CookieStorage) Clear(ctx context.Context) error {
	sess, err := s.session()
	if err != nil {
		return err
	}
	if _, ok := sess.Values[tokenKey]; !ok && sess.IsNew {
		return nil
	}
	delete(sess.Values, tokenKey)
	return sess.Save(s.c.Request(), s.c.Response())
}

// FileStorage keeps the token in a file readable only by its owner.
type FileStorage struct {
	fs   afero.Fs
	path string
}

// NewFileStorage stores the token at path on fs.
func NewFileStorage(fs afero.Fs, path string) *FileStorage {
	return &FileStorage{fs: fs, path: filepath.Clean(path)}
}

// Path returns the token file location.
func (s *FileStorage) Path() string { return s.path }

// Load implements TokenStorage.
func (s *FileStorage) Load(ctx context.Context) (string, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save implements TokenStorage.
func (s *FileStorage) Save(ctx context.Context, token string) error {
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// Clear implements TokenStorage.
func (s *FileStorage) Clear(ctx context.Context) error {
	err := s.fs.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

// Watch calls onChange whenever the token file is written, created or
// removed by any process, until ctx is done. It only observes the OS
// filesystem; the parent directory must exist.
func (s *FileStorage) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create token watcher: %w", err)
	}
	// Editors and atomic writers replace the file, so watch the directory.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(s.path), err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != s.path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					slog.Debug("Token file changed", "op", event.Op.String(), "path", event.Name)
					onChange()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Error("Token file watcher error", "error", err)
			}
		}
	}()
	return nil
}
