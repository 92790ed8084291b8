package upload

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/nfrund/presetmarket/internal/domain"
	"github.com/nfrund/presetmarket/internal/storage"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCreator struct {
	calls int
	got   domain.NewPreset
	err   error
}

func (c *countingCreator) CreatePreset(_ context.Context, _ string, p domain.NewPreset) (*domain.CreatedPreset, error) {
	c.calls++
	c.got = p
	if c.err != nil {
		return nil, c.err
	}
	return &domain.CreatedPreset{ID: 12, Name: p.Name, Slug: "x"}, nil
}

func TestLoadFile_WithoutLayout(t *testing.T) {
	d := NewDraft()
	d.Name = "kept"
	d.Description = "kept too"

	err := d.LoadFile(strings.NewReader(`{"name":"from file","description":"d"}`))
	assert.ErrorIs(t, err, domain.ErrInvalidPresetFile)
	assert.Equal(t, "kept", d.Name)
	assert.Equal(t, "kept too", d.Description)
	assert.Nil(t, d.Layout)
	assert.NotEmpty(t, d.Error)
}

func TestLoadFile_NullLayout(t *testing.T) {
	d := NewDraft()
	assert.ErrorIs(t, d.LoadFile(strings.NewReader(`{"layout":null}`)), domain.ErrInvalidPresetFile)
}

func TestLoadFile_NotJSON(t *testing.T) {
	d := NewDraft()
	d.Name = "kept"
	err := d.LoadFile(strings.NewReader(`layout: yes`))
	assert.ErrorIs(t, err, domain.ErrUnparsableFile)
	assert.Equal(t, "kept", d.Name)
	assert.Contains(t, d.Error, "valid JSON")
}

func TestLoadFile_WellFormed(t *testing.T) {
	d := NewDraft()
	d.Error = "previous failure"

	err := d.LoadFile(strings.NewReader(`{"name":"Cute","description":"pastel","layout":{"keys":[1,2,3]}}`))
	require.NoError(t, err)
	assert.Equal(t, "Cute", d.Name)
	assert.Equal(t, "pastel", d.Description)
	assert.JSONEq(t, `{"keys":[1,2,3]}`, string(d.Layout))
	assert.Empty(t, d.Error)
}

func TestLoadFile_KeepsNameWhenFileHasNone(t *testing.T) {
	d := NewDraft()
	d.Name = "typed by hand"
	require.NoError(t, d.LoadFile(strings.NewReader(`{"layout":[1]}`)))
	assert.Equal(t, "typed by hand", d.Name)
	assert.JSONEq(t, `[1]`, string(d.Layout))
}

func TestSubmit_EmptyNameMakesNoRequest(t *testing.T) {
	creator := &countingCreator{}
	d := NewDraft()
	d.Name = "   "
	d.Layout = json.RawMessage(`{"k":1}`)

	_, err := d.Submit(context.Background(), creator, "tok")
	assert.ErrorIs(t, err, domain.ErrNameRequired)
	assert.Zero(t, creator.calls)
	assert.Equal(t, "The preset name must not be empty.", d.Error)
}

func TestSubmit_MissingLayoutMakesNoRequest(t *testing.T) {
	creator := &countingCreator{}
	d := NewDraft()
	d.Name = "Cute"

	_, err := d.Submit(context.Background(), creator, "tok")
	assert.ErrorIs(t, err, domain.ErrLayoutRequired)
	assert.Zero(t, creator.calls)
}

func TestSubmit_Success(t *testing.T) {
	creator := &countingCreator{}
	d := NewDraft()
	d.Name = "  Cute  "
	d.Description = " pastel "
	d.Layout = json.RawMessage(`{"k":1}`)
	d.IsPublic = false
	d.Error = "old"

	created, err := d.Submit(context.Background(), creator, "tok")
	require.NoError(t, err)
	assert.Equal(t, int64(12), created.ID)
	assert.Equal(t, "Cute", creator.got.Name)
	assert.Equal(t, "pastel", creator.got.Description)
	assert.False(t, creator.got.IsPublic)
	assert.Empty(t, d.Error)
}

func TestSubmit_BackendFailure(t *testing.T) {
	creator := &countingCreator{err: domain.ErrTransport}
	d := NewDraft()
	d.Name = "Cute"
	d.Layout = json.RawMessage(`{}`)

	_, err := d.Submit(context.Background(), creator, "tok")
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Contains(t, d.Error, "Upload failed")
}

func TestDraftStore(t *testing.T) {
	fs := afero.NewMemMapFs()
	ds := NewDraftStore(storage.NewAferoStore(fs))
	ctx := context.Background()

	d := NewDraft()
	d.Name = "Cute"
	d.Layout = json.RawMessage(`{"k":1}`)
	require.NoError(t, ds.Save(ctx, d))

	exists, err := afero.Exists(fs, d.ID+".json")
	require.NoError(t, err)
	assert.True(t, exists)

	loaded, err := ds.Load(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.Name, loaded.Name)
	assert.JSONEq(t, `{"k":1}`, string(loaded.Layout))
	assert.True(t, loaded.IsPublic)

	require.NoError(t, ds.Delete(ctx, d.ID))
	_, err = ds.Load(ctx, d.ID)
	assert.ErrorIs(t, err, ErrDraftNotFound)

	_, err = ds.Load(ctx, "../../etc/passwd")
	assert.ErrorIs(t, err, ErrDraftNotFound)
}
