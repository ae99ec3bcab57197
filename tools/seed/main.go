// Command seed inserts example sessions with short transcripts, for local
// development against an empty store.
package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/pradipta/geminichat/adapters/journal"
	"github.com/pradipta/geminichat/adapters/store"
	"github.com/pradipta/geminichat/config"
	"github.com/pradipta/geminichat/domain"
	"github.com/pradipta/geminichat/usecase"
	"github.com/pradipta/geminichat/utils/log"
)

type seedSession struct {
	name     string
	data     string
	messages []domain.ChatMessage
}

var seedSessions = []seedSession{
	{
		name: "Example Session 1",
		data: `{"session_title": "Example Session 1"}`,
		messages: []domain.ChatMessage{
			{Role: domain.RoleUser, Content: "Hello!"},
			{Role: domain.RoleAssistant, Content: "Hi there!"},
		},
	},
	{
		name: "Example Session 2",
		data: `{"session_title": "Example Session 2"}`,
		messages: []domain.ChatMessage{
			{Role: domain.RoleUser, Content: "How are you?"},
			{Role: domain.RoleAssistant, Content: "I'm good, thanks!"},
		},
	},
}

func main() {
	flag.Parse()

	gotenv.Load()
	cfg := config.Load()
	logger := log.With(zap.String("tool", "seed"))

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx := context.Background()
	var st domain.SessionStore
	var err error
	if cfg.Driver == config.DriverSQLite {
		st, err = store.NewSQLite(cfg.DBPath)
	} else {
		st, err = store.NewPostgres(cfg.PostgresDSN())
	}
	if err != nil {
		logger.Fatal("failed to open session store", zap.Error(err))
	}
	defer st.Close()
	if err := st.Ping(ctx); err != nil {
		logger.Fatal("failed to connect to session store", zap.Error(err))
	}

	debugJournal, err := journal.NewFile(cfg.JournalPath)
	if err != nil {
		logger.Fatal("failed to create debug journal", zap.Error(err))
	}

	sessions := usecase.NewSessionService(st, debugJournal, logger)
	if err := sessions.EnsureSchema(ctx); err != nil {
		logger.Fatal("failed to ensure store schema", zap.Error(err))
	}

	for _, seed := range seedSessions {
		data := seed.data
		id := sessions.UpsertSession(ctx, seed.name, &data, domain.SessionID{}, nil, false)
		for _, msg := range seed.messages {
			if _, err := sessions.LogMessage(ctx, id, msg.Role, msg.Content, false); err != nil {
				logger.Fatal("failed to log seed message", zap.Error(err))
			}
		}
		fmt.Printf("Seeded session %s (%s)\n", id.String(), seed.name)
	}
}
