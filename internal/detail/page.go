// Package detail is the view model of a single preset page with its
// comment thread.
package detail

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nfrund/presetmarket/internal/domain"
)

// Gateway is the part of the backend client the detail page uses.
type Gateway interface {
	GetPreset(ctx context.Context, token string, id int64) (*domain.PresetDetail, error)
	ListComments(ctx context.Context, token string, presetID int64) ([]domain.Comment, error)
	ToggleLike(ctx context.Context, token string, id int64) (domain.LikeResult, error)
	CreateComment(ctx context.Context, token string, presetID int64, content string) (*domain.Comment, error)
	DeleteComment(ctx context.Context, token string, commentID int64) error
	UpdatePreset(ctx context.Context, token string, id int64, u domain.PresetUpdate) error
	DeletePreset(ctx context.Context, token string, id int64) error
	DownloadPreset(ctx context.Context, token string, id int64, slug string) (*domain.Download, error)
}

// Session exposes the viewer's authentication state.
type Session interface {
	IsAuthenticated() bool
	Token() string
	Profile() *domain.Profile
}

// Page holds one preset and its comments.
type Page struct {
	id      int64
	gw      Gateway
	session Session
	logger  *slog.Logger

	mu       sync.Mutex
	preset   *domain.PresetDetail
	comments []domain.Comment
}

// NewPage creates an unloaded page for preset id.
func NewPage(id int64, gw Gateway, session Session, logger *slog.Logger) *Page {
	if logger == nil {
		logger = slog.Default()
	}
	return &Page{id: id, gw: gw, session: session, logger: logger}
}

// Load fetches the preset and its comments in parallel. A failure to load
// the preset fails the page; a failure to load comments only leaves the
// thread empty.
func (p *Page) Load(ctx context.Context) error {
	token := p.session.Token()
	var (
		preset   *domain.PresetDetail
		comments []domain.Comment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		preset, err = p.gw.GetPreset(gctx, token, p.id)
		return err
	})
	g.Go(func() error {
		list, err := p.gw.ListComments(gctx, token, p.id)
		if err != nil {
			p.logger.WarnContext(ctx, "Failed to load comments", "preset_id", p.id, "error", err)
			return nil
		}
		comments = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load preset %d: %w", p.id, err)
	}

	if comments == nil {
		comments = []domain.Comment{}
	}
	p.mu.Lock()
	p.preset = preset
	p.comments = comments
	p.mu.Unlock()
	return nil
}

// Preset returns the loaded preset, or nil.
func (p *Page) Preset() *domain.PresetDetail {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.preset == nil {
		return nil
	}
	cp := *p.preset
	return &cp
}

// Comments returns the loaded thread.
func (p *Page) Comments() []domain.Comment {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.comments)
}

// CanDelete reports whether the viewer owns the preset.
func (p *Page) CanDelete() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.preset != nil && p.preset.IsOwner && p.session.IsAuthenticated()
}

// CanDeleteComment reports whether the viewer wrote comment c.
func (p *Page) CanDeleteComment(c domain.Comment) bool {
	prof := p.session.Profile()
	return prof != nil && prof.ID == c.Author.ID
}

// ToggleLike flips the viewer's like and replaces the like fields with the
// backend's answer.
func (p *Page) ToggleLike(ctx context.Context) (domain.LikeResult, error) {
	if !p.session.IsAuthenticated() {
		return domain.LikeResult{}, domain.ErrLoginRequired
	}
	res, err := p.gw.ToggleLike(ctx, p.session.Token(), p.id)
	if err != nil {
		p.logger.WarnContext(ctx, "Like toggle failed", "preset_id", p.id, "error", err)
		return domain.LikeResult{}, err
	}
	p.mu.Lock()
	if p.preset != nil {
		p.preset.ApplyLike(res)
	}
	p.mu.Unlock()
	return res, nil
}

// AddComment posts content (trimmed) and reloads the thread and the preset's
// comment count.
func (p *Page) AddComment(ctx context.Context, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.ErrEmptyComment
	}
	if !p.session.IsAuthenticated() {
		return domain.ErrLoginRequired
	}
	if _, err := p.gw.CreateComment(ctx, p.session.Token(), p.id, content); err != nil {
		p.logger.WarnContext(ctx, "Failed to post comment", "preset_id", p.id, "error", err)
		return err
	}
	return p.Load(ctx)
}

// DeleteComment removes one of the viewer's comments and reloads the page.
func (p *Page) DeleteComment(ctx context.Context, commentID int64) error {
	if !p.session.IsAuthenticated() {
		return domain.ErrLoginRequired
	}
	if err := p.gw.DeleteComment(ctx, p.session.Token(), commentID); err != nil {
		p.logger.WarnContext(ctx, "Failed to delete comment", "comment_id", commentID, "error", err)
		return err
	}
	return p.Load(ctx)
}

// Update changes the fields set in u and reloads the preset. Like Delete it
// is refused locally for anyone but the owner.
func (p *Page) Update(ctx context.Context, u domain.PresetUpdate) error {
	if !p.session.IsAuthenticated() {
		return domain.ErrLoginRequired
	}
	if err := u.Validate(); err != nil {
		return err
	}
	if !p.CanDelete() {
		return domain.ErrNotOwner
	}
	if err := p.gw.UpdatePreset(ctx, p.session.Token(), p.id, u); err != nil {
		p.logger.WarnContext(ctx, "Failed to update preset", "preset_id", p.id, "error", err)
		return err
	}
	return p.Load(ctx)
}

// Delete removes the preset. It is only offered to the owner; the backend
// enforces ownership as well.
func (p *Page) Delete(ctx context.Context) error {
	if !p.session.IsAuthenticated() {
		return domain.ErrLoginRequired
	}
	if !p.CanDelete() {
		return domain.ErrNotOwner
	}
	if err := p.gw.DeletePreset(ctx, p.session.Token(), p.id); err != nil {
		p.logger.WarnContext(ctx, "Failed to delete preset", "preset_id", p.id, "error", err)
		return err
	}
	return nil
}

// Download fetches the preset file and then reloads the preset so the
// download count is current.
func (p *Page) Download(ctx context.Context) (*domain.Download, error) {
	p.mu.Lock()
	var slug string
	if p.preset != nil {
		slug = p.preset.Slug
	}
	p.mu.Unlock()

	dl, err := p.gw.DownloadPreset(ctx, p.session.Token(), p.id, slug)
	if err != nil {
		p.logger.WarnContext(ctx, "Download failed", "preset_id", p.id, "error", err)
		return nil, err
	}

	preset, err := p.gw.GetPreset(ctx, p.session.Token(), p.id)
	if err != nil {
		p.logger.WarnContext(ctx, "Failed to refresh preset after download", "preset_id", p.id, "error", err)
		return dl, nil
	}
	p.mu.Lock()
	p.preset = preset
	p.mu.Unlock()
	return dl, nil
}
