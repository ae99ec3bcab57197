package llm

import (
	"context"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/pradipta/geminichat/domain"
)

// familyPrefixes are the model families selectable through this adapter.
var familyPrefixes = []string{"gemini-", "gemma-"}

// modelPrefixPattern strips a leading namespace path ("models/gemini-x") or
// dotted prefix ("google.gemini-x") off a raw model name.
var modelPrefixPattern = regexp.MustCompile(`^(?:.*/|[^.]*\.)`)

func canonicalModelID(name string) string {
	return strings.TrimSpace(modelPrefixPattern.ReplaceAllString(name, ""))
}

type modelLister func(ctx context.Context) ([]*genai.Model, error)

// ModelCatalog is the process-wide cache of selectable models. The slot is
// replaced atomically on refresh; the TTL check and the refresh are not
// mutually exclusive, so two concurrent callers may both refresh and the last
// writer wins, which is benign.
type ModelCatalog struct {
	mu              sync.Mutex
	entries         []domain.ModelDescriptor
	lastRefreshedAt time.Time

	ttl     time.Duration
	allowed map[string]struct{}
	list    modelLister
	now     func() time.Time
	log     *zap.Logger
}

func NewModelCatalog(list modelLister, ttl time.Duration, allowedModels []string, logger *zap.Logger) *ModelCatalog {
	var allowed map[string]struct{}
	if len(allowedModels) > 0 {
		allowed = make(map[string]struct{}, len(allowedModels))
		for _, m := range allowedModels {
			allowed[m] = struct{}{}
		}
	}
	return &ModelCatalog{
		ttl:     ttl,
		allowed: allowed,
		list:    list,
		now:     time.Now,
		log:     logger,
	}
}

// Models returns the cached list while it is fresh, otherwise refreshes it
// from the provider. A refresh failure never surfaces as an error: the caller
// gets a single sentinel descriptor carrying the failure text, and the cache
// keeps its previous contents.
func (c *ModelCatalog) Models(ctx context.Context, forceRefresh bool) []domain.ModelDescriptor {
	c.mu.Lock()
	if !forceRefresh && c.entries != nil && c.now().Sub(c.lastRefreshedAt) < c.ttl {
		cached := c.entries
		c.mu.Unlock()
		c.log.Debug("using cached model list")
		return cached
	}
	c.mu.Unlock()

	c.log.Debug("fetching models from provider")
	models, err := c.list(ctx)
	if err != nil {
		c.log.Error("could not fetch models", zap.Error(err))
		return []domain.ModelDescriptor{{ID: "error", Name: "Could not fetch models: " + err.Error()}}
	}

	var refreshed []domain.ModelDescriptor
	for _, model := range models {
		if model == nil {
			continue
		}
		if model.SupportedActions != nil && !slices.Contains(model.SupportedActions, "generateContent") {
			continue
		}
		id := canonicalModelID(model.Name)
		if !hasFamilyPrefix(id) {
			continue
		}
		if c.allowed != nil {
			if _, ok := c.allowed[id]; !ok {
				continue
			}
		}
		name := strings.TrimSpace(model.DisplayName)
		if name == "" {
			name = id
		}
		refreshed = append(refreshed, domain.ModelDescriptor{ID: id, Name: name})
	}
	if refreshed == nil {
		refreshed = []domain.ModelDescriptor{}
	}

	c.mu.Lock()
	c.entries = refreshed
	c.lastRefreshedAt = c.now()
	c.mu.Unlock()

	c.log.Debug("refreshed model catalog", zap.Int("models", len(refreshed)))
	return refreshed
}

func hasFamilyPrefix(id string) bool {
	for _, prefix := range familyPrefixes {
		if strings.HasPrefix(id, prefix) {
			return true
		}
	}
	return false
}
