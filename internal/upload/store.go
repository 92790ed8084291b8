package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nfrund/presetmarket/internal/storage"
)

// ErrDraftNotFound is returned for an unknown or malformed draft id.
var ErrDraftNotFound = errors.New("upload draft not found")

// DraftStore persists drafts between the two steps of the web upload flow.
type DraftStore struct {
	store storage.Store
}

// NewDraftStore keeps drafts as <id>.json files in store.
func NewDraftStore(store storage.Store) *DraftStore {
	return &DraftStore{store: store}
}

func draftPath(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", ErrDraftNotFound
	}
	return parsed.String() + ".json", nil
}

// Save writes d, assigning an id when it has none.
func (s *DraftStore) Save(ctx context.Context, d *Draft) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	p, err := draftPath(d.ID)
	if err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if _, err := s.store.Save(ctx, p, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("save draft %s: %w", d.ID, err)
	}
	return nil
}

// Load reads the draft with id.
func (s *DraftStore) Load(ctx context.Context, id string) (*Draft, error) {
	p, err := draftPath(id)
	if err != nil {
		return nil, err
	}
	rc, err := s.store.Get(ctx, p)
	if errors.Is(err, storage.ErrNotExist) {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load draft %s: %w", id, err)
	}
	defer rc.Close()

	var d Draft
	if err := json.NewDecoder(rc).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode draft %s: %w", id, err)
	}
	return &d, nil
}

// Delete removes the draft with id. Unknown drafts are ignored.
func (s *DraftStore) Delete(ctx context.Context, id string) error {
	p, err := draftPath(id)
	if err != nil {
		return nil
	}
	if err := s.store.Delete(ctx, p); err != nil && !errors.Is(err, storage.ErrNotExist) {
		return fmt.Errorf("delete draft %s: %w", id, err)
	}
	return nil
}
