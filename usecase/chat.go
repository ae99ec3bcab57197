package usecase

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/pradipta/geminichat/domain"
)

// ChatService glues one user turn together: ensure the session exists, record
// the user message, run the request pipeline, record the reply. Persistence
// problems never fail the turn; the only hard error is the missing-session-id
// contract, which cannot trigger here because the upsert always yields an id.
type ChatService struct {
	sessions    *SessionService
	llm         domain.Llm
	skipPersist bool
	log         *zap.Logger
}

// ChatTurn is the outcome of one exchange. Text is always populated, with a
// formatted marker when the provider call failed or was blocked.
type ChatTurn struct {
	SessionID domain.SessionID
	Text      string
}

func NewChatService(sessions *SessionService, llm domain.Llm, skipPersist bool, logger *zap.Logger) *ChatService {
	return &ChatService{
		sessions:    sessions,
		llm:         llm,
		skipPersist: skipPersist,
		log:         logger,
	}
}

// Handle processes one user turn against an existing session id, or starts a
// new session named after the request when the id is zero.
func (s *ChatService) Handle(ctx context.Context, id domain.SessionID, sessionName string, req domain.ChatRequest) ChatTurn {
	userText := lastUserText(req.Messages)
	if sessionName == "" {
		sessionName = deriveSessionName(userText)
	}

	id = s.sessions.UpsertSession(ctx, sessionName, nil, id, nil, s.skipPersist)

	if userText != "" {
		if _, err := s.sessions.LogMessage(ctx, id, domain.RoleUser, userText, s.skipPersist); err != nil {
			s.log.Error("failed to log user message", zap.String("session_id", id.String()), zap.Error(err))
		}
	}

	text := s.llm.Complete(ctx, req)

	if _, err := s.sessions.LogMessage(ctx, id, domain.RoleAssistant, text, s.skipPersist); err != nil {
		s.log.Error("failed to log assistant message", zap.String("session_id", id.String()), zap.Error(err))
	}

	return ChatTurn{SessionID: id, Text: text}
}

func lastUserText(messages []domain.ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == domain.RoleUser && messages[i].Content != "" {
			return messages[i].Content
		}
	}
	return ""
}

// deriveSessionName labels a fresh session with the opening words of the
// conversation, the way the session list presents it.
func deriveSessionName(userText string) string {
	name := strings.TrimSpace(userText)
	if name == "" {
		return "Untitled session"
	}
	if runes := []rune(name); len(runes) > 48 {
		name = strings.TrimSpace(string(runes[:48]))
	}
	return name
}
