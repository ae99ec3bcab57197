package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/pradipta/geminichat/domain"
)

type fakeLister struct {
	calls  int
	models []*genai.Model
	err    error
}

func (f *fakeLister) list(ctx context.Context) ([]*genai.Model, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.models, nil
}

func geminiModels() []*genai.Model {
	return []*genai.Model{
		{Name: "models/gemini-2.5-pro", DisplayName: "Gemini 2.5 Pro"},
		{Name: "models/gemini-2.0-flash", DisplayName: " Gemini 2.0 Flash "},
		{Name: "models/gemma-3-27b-it"},
		{Name: "models/chat-bison", DisplayName: "Chat Bison"},
		{Name: "models/gemini-embedding-001", SupportedActions: []string{"embedContent"}},
	}
}

func newTestCatalog(lister *fakeLister, ttl time.Duration, allowed []string) (*ModelCatalog, *time.Time) {
	cat := NewModelCatalog(lister.list, ttl, allowed, zap.NewNop())
	now := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	cat.now = func() time.Time { return now }
	return cat, &now
}

func TestCanonicalModelID(t *testing.T) {
	assert.Equal(t, "gemini-2.5-pro", canonicalModelID("models/gemini-2.5-pro"))
	assert.Equal(t, "gemini-2.5-pro", canonicalModelID("publishers/google/models/gemini-2.5-pro"))
	assert.Equal(t, "gemini-2.5-pro", canonicalModelID("google.gemini-2.5-pro"))
	assert.Equal(t, "gemma-3-27b-it", canonicalModelID("gemma-3-27b-it"))
}

func TestModelsFiltersAndCanonicalizes(t *testing.T) {
	lister := &fakeLister{models: geminiModels()}
	cat, _ := newTestCatalog(lister, time.Minute, nil)

	models := cat.Models(context.Background(), false)

	// chat-bison has the wrong family, the embedding model cannot generate.
	assert.Equal(t, []domain.ModelDescriptor{
		{ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro"},
		{ID: "gemini-2.0-flash", Name: "Gemini 2.0 Flash"},
		{ID: "gemma-3-27b-it", Name: "gemma-3-27b-it"},
	}, models)
}

func TestModelsCachedWithinTTL(t *testing.T) {
	lister := &fakeLister{models: geminiModels()}
	cat, now := newTestCatalog(lister, time.Minute, nil)
	ctx := context.Background()

	first := cat.Models(ctx, false)
	*now = now.Add(30 * time.Second)
	second := cat.Models(ctx, false)

	assert.Equal(t, 1, lister.calls)
	assert.Equal(t, first, second)

	*now = now.Add(31 * time.Second)
	cat.Models(ctx, false)
	assert.Equal(t, 2, lister.calls)
}

func TestModelsForceRefresh(t *testing.T) {
	lister := &fakeLister{models: geminiModels()}
	cat, _ := newTestCatalog(lister, time.Minute, nil)
	ctx := context.Background()

	cat.Models(ctx, false)
	cat.Models(ctx, true)
	assert.Equal(t, 2, lister.calls)
}

func TestModelsAllowList(t *testing.T) {
	lister := &fakeLister{models: geminiModels()}
	cat, _ := newTestCatalog(lister, time.Minute, []string{"gemini-2.0-flash"})

	models := cat.Models(context.Background(), false)
	require.Len(t, models, 1)
	assert.Equal(t, "gemini-2.0-flash", models[0].ID)
}

func TestModelsErrorSentinel(t *testing.T) {
	lister := &fakeLister{err: errors.New("listing backend down")}
	cat, _ := newTestCatalog(lister, time.Minute, nil)
	ctx := context.Background()

	models := cat.Models(ctx, false)
	require.Len(t, models, 1)
	assert.Equal(t, "error", models[0].ID)
	assert.Equal(t, "Could not fetch models: listing backend down", models[0].Name)

	// A failed refresh does not poison the slot; the next call tries again.
	lister.err = nil
	lister.models = geminiModels()
	models = cat.Models(ctx, false)
	assert.Len(t, models, 3)
	assert.Equal(t, 2, lister.calls)
}
