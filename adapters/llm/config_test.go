package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/pradipta/geminichat/domain"
)

func TestBuildGenerationConfigDefaults(t *testing.T) {
	c := newTestClient()

	cfg := c.buildGenerationConfig(domain.ChatRequest{}, "")

	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.7, float64(*cfg.Temperature), 0.0001)
	require.NotNil(t, cfg.TopP)
	assert.InDelta(t, 1.0, float64(*cfg.TopP), 0.0001)
	require.NotNil(t, cfg.TopK)
	assert.InDelta(t, 1.0, float64(*cfg.TopK), 0.0001)
	assert.Equal(t, int32(10242), cfg.MaxOutputTokens)
	assert.Nil(t, cfg.SystemInstruction)
	assert.Nil(t, cfg.Tools)
}

func TestBuildGenerationConfigOverrides(t *testing.T) {
	c := newTestClient()

	cfg := c.buildGenerationConfig(domain.ChatRequest{
		Temperature: genai.Ptr(float32(0.2)),
		TopP:        genai.Ptr(float32(0.9)),
		TopK:        genai.Ptr(float32(40)),
		MaxTokens:   genai.Ptr(int32(256)),
	}, "")

	assert.InDelta(t, 0.2, float64(*cfg.Temperature), 0.0001)
	assert.InDelta(t, 0.9, float64(*cfg.TopP), 0.0001)
	assert.InDelta(t, 40.0, float64(*cfg.TopK), 0.0001)
	assert.Equal(t, int32(256), cfg.MaxOutputTokens)
}

func TestBuildGenerationConfigSystemInstruction(t *testing.T) {
	c := newTestClient()

	cfg := c.buildGenerationConfig(domain.ChatRequest{}, "be terse")

	require.NotNil(t, cfg.SystemInstruction)
	require.Len(t, cfg.SystemInstruction.Parts, 1)
	assert.Equal(t, "be terse", cfg.SystemInstruction.Parts[0].Text)
}

func TestBuildGenerationConfigToolPassthrough(t *testing.T) {
	c := newTestClient()

	cfg := c.buildGenerationConfig(domain.ChatRequest{
		Tools: []map[string]any{
			{"functionDeclarations": []any{map[string]any{"name": "lookup"}}},
			{"functionDeclarations": "not a list"}, // undecodable, dropped
		},
	}, "")

	require.Len(t, cfg.Tools, 1)
	require.Len(t, cfg.Tools[0].FunctionDeclarations, 1)
	assert.Equal(t, "lookup", cfg.Tools[0].FunctionDeclarations[0].Name)
}
