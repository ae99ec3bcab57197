package llm

import (
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const (
	markerNoCandidates = "[Blocked by safety settings or no candidates generated]"
	markerUnexpected   = "[No content generated or unexpected response structure]"
)

type outcomeKind int

const (
	outcomePromptBlocked outcomeKind = iota
	outcomeNoCandidates
	outcomeSafetyBlocked
	outcomeText
	outcomeUnexpected
)

// outcome is the closed set of response states. The raw provider response is
// decoded into it exactly once; rendering is then a pure function.
type outcome struct {
	kind        outcomeKind
	blockReason string // prompt-level block reason
	category    string // safety category of the blocking rating, may be empty
	text        string // concatenated candidate text
}

// decodeOutcome classifies a provider response. The checks run in a
// load-bearing order: prompt-level blocking first, because a blocked prompt
// can still carry an (empty) candidate list.
func decodeOutcome(resp *genai.GenerateContentResponse) outcome {
	if resp.PromptFeedback != nil &&
		resp.PromptFeedback.BlockReason != "" &&
		resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		return outcome{kind: outcomePromptBlocked, blockReason: string(resp.PromptFeedback.BlockReason)}
	}

	if len(resp.Candidates) == 0 {
		return outcome{kind: outcomeNoCandidates}
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		for _, rating := range candidate.SafetyRatings {
			if rating != nil && rating.Blocked {
				return outcome{kind: outcomeSafetyBlocked, category: string(rating.Category)}
			}
		}
		return outcome{kind: outcomeSafetyBlocked}
	}

	if candidate.Content != nil && len(candidate.Content.Parts) > 0 {
		var b strings.Builder
		hasText := false
		for _, part := range candidate.Content.Parts {
			if part != nil && part.Text != "" {
				b.WriteString(part.Text)
				hasText = true
			}
		}
		if hasText {
			return outcome{kind: outcomeText, text: b.String()}
		}
	}

	return outcome{kind: outcomeUnexpected}
}

func (o outcome) render() string {
	switch o.kind {
	case outcomePromptBlocked:
		return fmt.Sprintf("[Blocked due to Prompt Safety: %s]", o.blockReason)
	case outcomeNoCandidates:
		return markerNoCandidates
	case outcomeSafetyBlocked:
		if o.category != "" {
			return fmt.Sprintf("[Blocked by safety settings (%s)]", o.category)
		}
		return "[Blocked by safety settings]"
	case outcomeText:
		return o.text
	default:
		return markerUnexpected
	}
}

// Classify turns a raw provider response into user-facing text or one of the
// fixed block/empty markers.
func Classify(resp *genai.GenerateContentResponse) string {
	return decodeOutcome(resp).render()
}
