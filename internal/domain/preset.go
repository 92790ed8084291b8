package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validatorInstance is a package-level validator instance.
// Using a single instance caches struct information.
var validatorInstance = validator.New()

func init() {
	_ = validatorInstance.RegisterValidation("layout", validateLayout)
	_ = validatorInstance.RegisterValidation("notblank", validateNotBlank)
}

// validateLayout accepts any JSON value except an absent or null one.
func validateLayout(fl validator.FieldLevel) bool {
	raw, ok := fl.Field().Interface().(json.RawMessage)
	if !ok {
		return false
	}
	return HasLayout(raw)
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// HasLayout reports whether raw carries a layout payload.
func HasLayout(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// PresetSummary is one catalog entry.
type PresetSummary struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	Description   string    `json:"description,omitempty"`
	PreviewImage  string    `json:"preview_image,omitempty"`
	Author        Author    `json:"author"`
	DownloadCount int       `json:"download_count"`
	LikeCount     int       `json:"like_count"`
	CommentCount  int       `json:"comment_count"`
	IsLiked       bool      `json:"is_liked"`
	CreatedAt     Timestamp `json:"created_at"`
}

// ApplyLike replaces the viewer's like state with the backend's answer.
func (p *PresetSummary) ApplyLike(r LikeResult) {
	p.IsLiked = r.Liked
	p.LikeCount = r.LikeCount
}

// PresetDetail is a summary plus the opaque layout payload and ownership.
type PresetDetail struct {
	PresetSummary
	Layout    json.RawMessage `json:"layout"`
	IsOwner   bool            `json:"is_owner"`
	UpdatedAt Timestamp       `json:"updated_at"`
}

// UnmarshalJSON keeps the embedded summary from swallowing the extra fields
// and tolerates is_owner being null for anonymous viewers.
func (d *PresetDetail) UnmarshalJSON(b []byte) error {
	if err := json.Unmarshal(b, &d.PresetSummary); err != nil {
		return err
	}
	var extra struct {
		Layout    json.RawMessage `json:"layout"`
		IsOwner   *bool           `json:"is_owner"`
		UpdatedAt Timestamp       `json:"updated_at"`
	}
	if err := json.Unmarshal(b, &extra); err != nil {
		return err
	}
	d.Layout = extra.Layout
	d.IsOwner = extra.IsOwner != nil && *extra.IsOwner
	d.UpdatedAt = extra.UpdatedAt
	return nil
}

// PresetPage is one page of the catalog plus the total number of matches.
type PresetPage struct {
	Items []PresetSummary `json:"items"`
	Total int             `json:"total"`
}

// OwnPreset is an entry of the current user's preset list.
type OwnPreset struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	Description   string    `json:"description,omitempty"`
	PreviewImage  string    `json:"preview_image,omitempty"`
	DownloadCount int       `json:"download_count"`
	LikeCount     int       `json:"like_count"`
	CommentCount  int       `json:"comment_count"`
	IsPublic      bool      `json:"is_public"`
	CreatedAt     Timestamp `json:"created_at"`
}

// LikeResult is the backend's answer to a like toggle.
type LikeResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}

// Download is the result of a download request. Either SavedPath is set (the
// backend stored the file itself) or Payload holds the JSON to offer the user
// as Filename.
type Download struct {
	SavedPath string
	Filename  string
	Payload   json.RawMessage
}

// NewPreset is the body of a preset creation.
type NewPreset struct {
	Name        string          `json:"name" validate:"notblank,max=200"`
	Description string          `json:"description,omitempty" validate:"max=2000"`
	Layout      json.RawMessage `json:"layout" validate:"layout"`
	IsPublic    bool            `json:"is_public"`
}

// Validate checks the preset locally. Missing name and missing layout map to
// ErrNameRequired and ErrLayoutRequired; other violations to ErrValidation.
func (p *NewPreset) Validate() error {
	err := validatorInstance.Struct(p)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	for _, fe := range fieldErrs {
		switch fe.Field() {
		case "Name":
			if fe.Tag() == "notblank" {
				return ErrNameRequired
			}
		case "Layout":
			return ErrLayoutRequired
		}
	}
	return errors.Join(ErrValidation, err)
}

// PresetUpdate carries the fields to change on an existing preset.
type PresetUpdate struct {
	Name        *string         `json:"name,omitempty"`
	Description *string         `json:"description,omitempty"`
	Layout      json.RawMessage `json:"layout,omitempty"`
	IsPublic    *bool           `json:"is_public,omitempty"`
}

// Validate trims the name and applies the same limits as NewPreset.
func (u *PresetUpdate) Validate() error {
	if u.Name == nil && u.Description == nil && len(u.Layout) == 0 && u.IsPublic == nil {
		return ErrNoChanges
	}
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return ErrNameRequired
		}
		if err := validatorInstance.Var(name, "max=200"); err != nil {
			return errors.Join(ErrValidation, err)
		}
		u.Name = &name
	}
	if u.Description != nil {
		if err := validatorInstance.Var(*u.Description, "max=2000"); err != nil {
			return errors.Join(ErrValidation, err)
		}
	}
	return nil
}

// CreatedPreset is the backend's acknowledgement of a new preset.
type CreatedPreset struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Comment is one entry of a preset's comment thread.
type Comment struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	Author    Author    `json:"author"`
	CreatedAt Timestamp `json:"created_at"`
}
