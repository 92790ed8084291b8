// Package upload is the view model of the preset upload form.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/nfrund/presetmarket/internal/domain"
)

// Creator is the part of the backend client the upload form uses.
type Creator interface {
	CreatePreset(ctx context.Context, token string, p domain.NewPreset) (*domain.CreatedPreset, error)
}

// Draft is the state of the upload form. Layout is kept verbatim as read
// from the preset file.
type Draft struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Layout      json.RawMessage `json:"layout,omitempty"`
	IsPublic    bool            `json:"is_public"`
	FileName    string          `json:"file_name,omitempty"`
	// Error is the notice shown on the form, empty when there is none.
	Error string `json:"error,omitempty"`
}

// NewDraft returns an empty public draft with a fresh id.
func NewDraft() *Draft {
	return &Draft{ID: uuid.NewString(), IsPublic: true}
}

// presetFile is the shape of an exported preset file.
type presetFile struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Layout      json.RawMessage `json:"layout"`
}

// LoadFile reads a preset file. A file without a layout or one that is not
// JSON is reported through Error and leaves the form untouched. On success
// the layout is replaced, name and description are taken from the file when
// it has them, and Error is cleared.
func (d *Draft) LoadFile(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return d.fail(fmt.Errorf("%w: %v", domain.ErrUnparsableFile, err))
	}

	var f presetFile
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&f); err != nil {
		return d.fail(fmt.Errorf("%w: %v", domain.ErrUnparsableFile, err))
	}
	if !domain.HasLayout(f.Layout) {
		return d.fail(domain.ErrInvalidPresetFile)
	}

	d.Layout = append(json.RawMessage(nil), f.Layout...)
	if f.Name != nil {
		d.Name = *f.Name
	}
	if f.Description != nil {
		d.Description = *f.Description
	}
	d.Error = ""
	return nil
}

// Preset builds the request body from the form.
func (d *Draft) Preset() domain.NewPreset {
	return domain.NewPreset{
		Name:        strings.TrimSpace(d.Name),
		Description: strings.TrimSpace(d.Description),
		Layout:      d.Layout,
		IsPublic:    d.IsPublic,
	}
}

// Validate checks the form without contacting the backend.
func (d *Draft) Validate() error {
	p := d.Preset()
	return p.Validate()
}

// Submit validates the draft and creates the preset. An invalid draft never
// reaches the backend.
func (d *Draft) Submit(ctx context.Context, creator Creator, token string) (*domain.CreatedPreset, error) {
	if err := d.Validate(); err != nil {
		return nil, d.fail(err)
	}
	d.Error = ""
	created, err := creator.CreatePreset(ctx, token, d.Preset())
	if err != nil {
		return nil, d.fail(err)
	}
	return created, nil
}

func (d *Draft) fail(err error) error {
	d.Error = Message(err)
	return err
}

// Message turns an upload error into the notice shown on the form.
func Message(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidPresetFile):
		return "Invalid preset file: it has no layout."
	case errors.Is(err, domain.ErrUnparsableFile):
		return "Could not parse the file. Make sure it is valid JSON."
	case errors.Is(err, domain.ErrNameRequired):
		return "The preset name must not be empty."
	case errors.Is(err, domain.ErrLayoutRequired):
		return "Please choose a preset file first."
	case errors.Is(err, domain.ErrUnauthorized):
		return "Your session has expired. Please log in again."
	default:
		return "Upload failed: " + err.Error()
	}
}
