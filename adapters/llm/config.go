package llm

import (
	"encoding/json"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/pradipta/geminichat/domain"
)

const (
	defaultTemperature     float32 = 0.7
	defaultTopP            float32 = 1.0
	defaultTopK            float32 = 1
	defaultMaxOutputTokens int32   = 10242
)

// buildGenerationConfig assembles the provider parameters from the caller's
// request, filling defaults where the caller is silent. Tool declarations are
// attached opaquely; this adapter does not validate tool schemas.
func (c *Client) buildGenerationConfig(req domain.ChatRequest, systemInstruction string) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(defaultTemperature),
		TopP:            genai.Ptr(defaultTopP),
		TopK:            genai.Ptr(defaultTopK),
		MaxOutputTokens: defaultMaxOutputTokens,
	}
	if req.Temperature != nil {
		cfg.Temperature = req.Temperature
	}
	if req.TopP != nil {
		cfg.TopP = req.TopP
	}
	if req.TopK != nil {
		cfg.TopK = req.TopK
	}
	if req.MaxTokens != nil {
		cfg.MaxOutputTokens = *req.MaxTokens
	}

	if systemInstruction != "" {
		c.log.Debug("system instruction set", zap.String("system_instruction", truncate(systemInstruction, 100)))
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}}
	}
	if len(req.Tools) > 0 {
		cfg.Tools = c.decodeTools(req.Tools)
	}
	return cfg
}

// decodeTools forwards opaque tool declarations to the SDK types by JSON
// round-trip, without inspecting their fields. A declaration that does not
// decode is dropped with a warning rather than failing the request.
func (c *Client) decodeTools(raw []map[string]any) []*genai.Tool {
	tools := make([]*genai.Tool, 0, len(raw))
	for _, decl := range raw {
		b, err := json.Marshal(decl)
		if err != nil {
			c.log.Warn("skipping tool declaration", zap.Error(err))
			continue
		}
		var tool genai.Tool
		if err := json.Unmarshal(b, &tool); err != nil {
			c.log.Warn("skipping tool declaration", zap.Error(err))
			continue
		}
		tools = append(tools, &tool)
	}
	return tools
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
