package llm

import (
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/pradipta/geminichat/domain"
)

// PartBuilder constructs provider parts from typed multimodal content. Part
// construction is a collaborator concern: the normalizer only orders and
// filters what the builder produces.
type PartBuilder interface {
	Build(part domain.ContentPart) (*genai.Part, error)
}

// TextPartBuilder handles plain text parts and rejects everything else.
type TextPartBuilder struct{}

func (TextPartBuilder) Build(part domain.ContentPart) (*genai.Part, error) {
	if part.Type == "text" {
		return &genai.Part{Text: part.Text}, nil
	}
	return nil, fmt.Errorf("unsupported content part type %q", part.Type)
}

// prepareContent maps the ordered transcript into provider content and pulls
// out the system instruction. Exactly one system instruction is honored, the
// first; further system messages are dropped. Assistant turns become role
// "model", everything else "user". Parts the builder rejects are skipped with
// a warning, and a message left with zero parts is omitted entirely.
func (c *Client) prepareContent(messages []domain.ChatMessage) ([]*genai.Content, string) {
	systemInstruction := ""
	for _, msg := range messages {
		if msg.Role == domain.RoleSystem {
			systemInstruction = msg.Content
			break
		}
	}

	var contents []*genai.Content
	for _, msg := range messages {
		if msg.Role == domain.RoleSystem {
			continue
		}

		var parts []*genai.Part
		if len(msg.Parts) > 0 {
			for _, part := range msg.Parts {
				p, err := c.parts.Build(part)
				if err != nil {
					c.log.Warn("skipping unsupported message content", zap.String("type", part.Type), zap.Error(err))
					continue
				}
				parts = append(parts, p)
			}
		} else {
			parts = []*genai.Part{{Text: msg.Content}}
		}
		if len(parts) == 0 {
			continue
		}

		role := genai.RoleUser
		if msg.Role == domain.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}
	return contents, systemInstruction
}
