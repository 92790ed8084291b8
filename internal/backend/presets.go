package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/nfrund/presetmarket/internal/domain"
)

// ListPresets fetches one catalog page. The token is optional; with one the
// backend fills in the viewer's like flags.
func (c *Client) ListPresets(ctx context.Context, token string, q domain.ListQuery) (*domain.PresetPage, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	sort := q.Sort
	if sort == "" {
		sort = domain.SortLatest
	}
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("sort", string(sort))
	if q.Search != "" {
		params.Set("search", q.Search)
	}

	var out domain.PresetPage
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "/presets", query: params, token: token}, &out); err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	if out.Items == nil {
		out.Items = []domain.PresetSummary{}
	}
	return &out, nil
}

// GetPreset fetches one preset with its layout. The token is optional.
func (c *Client) GetPreset(ctx context.Context, token string, id int64) (*domain.PresetDetail, error) {
	var out domain.PresetDetail
	if _, err := c.do(ctx, request{method: http.MethodGet, path: presetPath(id), token: token}, &out); err != nil {
		return nil, fmt.Errorf("get preset %d: %w", id, err)
	}
	return &out, nil
}

// ToggleLike flips the viewer's like on a preset and returns the new state.
func (c *Client) ToggleLike(ctx context.Context, token string, id int64) (domain.LikeResult, error) {
	var out domain.LikeResult
	if _, err := c.do(ctx, request{method: http.MethodPost, path: presetPath(id) + "/like", token: token}, &out); err != nil {
		return domain.LikeResult{}, fmt.Errorf("toggle like on preset %d: %w", id, err)
	}
	return out, nil
}

// CreatePreset uploads a new preset.
func (c *Client) CreatePreset(ctx context.Context, token string, p domain.NewPreset) (*domain.CreatedPreset, error) {
	var out domain.CreatedPreset
	if _, err := c.do(ctx, request{method: http.MethodPost, path: "/presets", token: token, body: p}, &out); err != nil {
		return nil, fmt.Errorf("create preset: %w", err)
	}
	return &out, nil
}

// UpdatePreset changes name, description, layout or visibility of an owned preset.
func (c *Client) UpdatePreset(ctx context.Context, token string, id int64, u domain.PresetUpdate) error {
	if _, err := c.do(ctx, request{method: http.MethodPut, path: presetPath(id), token: token, body: u}, nil); err != nil {
		return fmt.Errorf("update preset %d: %w", id, err)
	}
	return nil
}

// DeletePreset removes an owned preset. Ownership is enforced by the backend.
func (c *Client) DeletePreset(ctx context.Context, token string, id int64) error {
	if _, err := c.do(ctx, request{method: http.MethodDelete, path: presetPath(id), token: token}, nil); err != nil {
		return fmt.Errorf("delete preset %d: %w", id, err)
	}
	return nil
}

// DownloadPreset asks the backend for a preset's file. The backend either
// stores it itself and acknowledges with a path, or returns the payload.
func (c *Client) DownloadPreset(ctx context.Context, token string, id int64, slug string) (*domain.Download, error) {
	var raw json.RawMessage
	header, err := c.do(ctx, request{method: http.MethodGet, path: presetPath(id) + "/download", token: token}, &raw)
	if err != nil {
		return nil, fmt.Errorf("download preset %d: %w", id, err)
	}

	var ack struct {
		Path   string          `json:"path"`
		Preset json.RawMessage `json:"preset"`
	}
	_ = json.Unmarshal(raw, &ack)

	dl := &domain.Download{Filename: downloadFilename(header, slug, id)}
	switch {
	case ack.Path != "":
		dl.SavedPath = ack.Path
		dl.Payload = ack.Preset
	case len(ack.Preset) > 0:
		dl.Payload = ack.Preset
	default:
		dl.Payload = raw
	}
	return dl, nil
}

// MyPresets lists every preset of the token's owner, private ones included.
func (c *Client) MyPresets(ctx context.Context, token string) ([]domain.OwnPreset, error) {
	var out struct {
		Items []domain.OwnPreset `json:"items"`
	}
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "/users/me/presets", token: token}, &out); err != nil {
		return nil, fmt.Errorf("list own presets: %w", err)
	}
	return out.Items, nil
}

func presetPath(id int64) string {
	return "/presets/" + strconv.FormatInt(id, 10)
}

// downloadFilename prefers the backend's Content-Disposition filename and
// falls back to <slug>.json.
func downloadFilename(h http.Header, slug string, id int64) string {
	if cd := h.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			return params["filename"]
		}
	}
	if slug == "" {
		slug = "preset-" + strconv.FormatInt(id, 10)
	}
	return slug + ".json"
}
