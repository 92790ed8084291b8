package backend

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/nfrund/presetmarket/internal/domain"
)

// ListComments fetches the full comment thread of a preset.
func (c *Client) ListComments(ctx context.Context, token string, presetID int64) ([]domain.Comment, error) {
	var out struct {
		Items []domain.Comment `json:"items"`
	}
	if _, err := c.do(ctx, request{method: http.MethodGet, path: commentsPath(presetID), token: token}, &out); err != nil {
		return nil, fmt.Errorf("list comments of preset %d: %w", presetID, err)
	}
	if out.Items == nil {
		out.Items = []domain.Comment{}
	}
	return out.Items, nil
}

// CreateComment posts a comment on a preset.
func (c *Client) CreateComment(ctx context.Context, token string, presetID int64, content string) (*domain.Comment, error) {
	body := map[string]string{"content": content}
	var out domain.Comment
	if _, err := c.do(ctx, request{method: http.MethodPost, path: commentsPath(presetID), token: token, body: body}, &out); err != nil {
		return nil, fmt.Errorf("comment on preset %d: %w", presetID, err)
	}
	return &out, nil
}

// DeleteComment removes one of the viewer's comments.
func (c *Client) DeleteComment(ctx context.Context, token string, commentID int64) error {
	path := "/comments/" + strconv.FormatInt(commentID, 10)
	if _, err := c.do(ctx, request{method: http.MethodDelete, path: path, token: token}, nil); err != nil {
		return fmt.Errorf("delete comment %d: %w", commentID, err)
	}
	return nil
}

func commentsPath(presetID int64) string {
	return "/comments/preset/" + strconv.FormatInt(presetID, 10)
}
