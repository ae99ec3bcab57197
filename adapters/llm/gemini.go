package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/pradipta/geminichat/domain"
)

var errMissingAPIKey = errors.New("GOOGLE_API_KEY is not set. Please provide the API key in the environment variables.")

type generateFunc func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// Client is the Gemini request/response adapter: it normalizes chat input into
// provider content, builds generation parameters, performs exactly one
// generation call per request and classifies the result. It also owns the
// TTL-cached model catalog.
type Client struct {
	apiKey  string
	baseURL string
	parts   PartBuilder
	catalog *ModelCatalog
	log     *zap.Logger

	// overridable in tests
	generate generateFunc
}

type Options struct {
	APIKey        string
	BaseURL       string
	AllowedModels []string
	CacheTTL      time.Duration
	Parts         PartBuilder
}

func NewClient(opts Options, logger *zap.Logger) *Client {
	c := &Client{
		apiKey:  opts.APIKey,
		baseURL: opts.BaseURL,
		parts:   opts.Parts,
		log:     logger,
	}
	if c.parts == nil {
		c.parts = TextPartBuilder{}
	}
	c.catalog = NewModelCatalog(c.listModels, opts.CacheTTL, opts.AllowedModels, logger)
	c.generate = c.doGenerate
	return c
}

// newGenaiClient validates credentials and builds a provider client. Done per
// call rather than at construction so a missing key degrades into a chat
// message instead of failing startup.
func (c *Client) newGenaiClient(ctx context.Context) (*genai.Client, error) {
	if c.apiKey == "" {
		return nil, errMissingAPIKey
	}
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			APIVersion: "v1",
			BaseURL:    c.baseURL,
		},
	})
}

// Complete runs the request pipeline: permissive model-id preparation, content
// normalization, a no-content short-circuit, parameter assembly, a single
// generation attempt and response classification. It never returns an error;
// every failure is formatted into the text result because this feeds a chat
// surface. No retry, no deadline beyond the transport's own, no cancellation
// once the call is in flight.
func (c *Client) Complete(ctx context.Context, req domain.ChatRequest) string {
	modelID := prepareModelID(req.Model)
	c.log.Debug("using model", zap.String("model", modelID))

	contents, systemInstruction := c.prepareContent(req.Messages)
	if len(contents) == 0 {
		return "No content provided for generation."
	}
	if systemInstruction == "" {
		c.log.Debug("no system instruction provided, proceeding without it")
	}

	cfg := c.buildGenerationConfig(req, systemInstruction)

	// Dispatch the single provider call off the calling goroutine. Exactly one
	// attempt: it completes or it fails.
	type result struct {
		resp *genai.GenerateContentResponse
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		resp, err := c.generate(ctx, modelID, contents, cfg)
		ch <- result{resp, err}
	}()
	res := <-ch

	if res.err != nil {
		return c.formatError(res.err)
	}
	return Classify(res.resp)
}

func (c *Client) doGenerate(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	client, err := c.newGenaiClient(ctx)
	if err != nil {
		return nil, err
	}
	return client.Models.GenerateContent(ctx, model, contents, cfg)
}

// formatError maps the error taxonomy onto user-facing text. Nothing raised by
// the provider call crosses this boundary as an error.
func (c *Client) formatError(err error) string {
	if errors.Is(err, errMissingAPIKey) {
		c.log.Error("configuration error", zap.Error(err))
		return fmt.Sprintf("Configuration Error: %v", err)
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code >= 400 && apiErr.Code < 500:
			c.log.Error("provider client error", zap.Error(err))
			return fmt.Sprintf("Google API Client Error: %s", apiErr.Message)
		case apiErr.Code >= 500:
			c.log.Error("provider server error", zap.Error(err))
			return fmt.Sprintf("Google API Server Error: %d %s", apiErr.Code, apiErr.Message)
		default:
			c.log.Error("provider error", zap.Error(err))
			return fmt.Sprintf("Google API Error: %s", apiErr.Message)
		}
	}

	c.log.Error("unexpected pipeline failure", zap.Error(err))
	return fmt.Sprintf("An unexpected error occurred: %v", err)
}

// prepareModelID is deliberately permissive: trim and pass through. Allow-list
// enforcement lives in the model catalog, which decides what gets offered.
func prepareModelID(modelID string) string {
	return strings.TrimSpace(modelID)
}

// Models returns the selectable model list via the TTL cache.
func (c *Client) Models(ctx context.Context, forceRefresh bool) []domain.ModelDescriptor {
	return c.catalog.Models(ctx, forceRefresh)
}

func (c *Client) listModels(ctx context.Context) ([]*genai.Model, error) {
	client, err := c.newGenaiClient(ctx)
	if err != nil {
		return nil, err
	}
	var models []*genai.Model
	for model, err := range client.Models.All(ctx) {
		if err != nil {
			return nil, err
		}
		models = append(models, model)
	}
	return models, nil
}
