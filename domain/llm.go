package domain

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of the transcript handed to the LLM adapter. Content
// carries plain text; Parts, when non-empty, carries typed multimodal parts and
// takes precedence over Content.
type ChatMessage struct {
	Role    string        `json:"role"`
	Content string        `json:"content"`
	Parts   []ContentPart `json:"parts,omitempty"`
}

// ContentPart is one typed multimodal part. The adapter does not interpret
// Data; part construction is delegated to a PartBuilder collaborator.
type ContentPart struct {
	Type string         `json:"type"`
	Text string         `json:"text,omitempty"`
	Data map[string]any `json:"data,omitempty"`
}

// ChatRequest is the pipeline call contract. Tools is an opaque set of
// provider tool declarations passed through without validation.
type ChatRequest struct {
	Model       string           `json:"model"`
	Messages    []ChatMessage    `json:"messages"`
	Temperature *float32         `json:"temperature,omitempty"`
	TopP        *float32         `json:"top_p,omitempty"`
	TopK        *float32         `json:"top_k,omitempty"`
	MaxTokens   *int32           `json:"max_tokens,omitempty"`
	Tools       []map[string]any `json:"tools,omitempty"`
}

// ModelDescriptor is one selectable model: a canonical, prefix-stripped id and
// a display name falling back to the id.
type ModelDescriptor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Llm abstracts the hosted model provider. Complete never returns an error:
// failures are formatted into the text result, because this feeds a chat
// surface rather than an API. Models likewise degrades to a sentinel entry.
type Llm interface {
	Complete(ctx context.Context, req ChatRequest) string
	Models(ctx context.Context, forceRefresh bool) []ModelDescriptor
}
