// Command exportmd dumps persisted sessions and their transcripts as one
// markdown file per session.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/pradipta/geminichat/adapters/store"
	"github.com/pradipta/geminichat/config"
	"github.com/pradipta/geminichat/domain"
	"github.com/pradipta/geminichat/utils/log"
)

func main() {
	outDir := flag.String("out", "data/session_exports_md", "output directory for markdown files")
	start := flag.Int("start", 0, "start index of sessions to export")
	end := flag.Int("end", -1, "end index (exclusive), -1 for all")
	flag.Parse()

	gotenv.Load()
	cfg := config.Load()
	logger := log.With(zap.String("tool", "exportmd"))

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx := context.Background()
	st, err := openStore(cfg)
	if err != nil {
		logger.Fatal("failed to open session store", zap.Error(err))
	}
	defer st.Close()
	if err := st.Ping(ctx); err != nil {
		logger.Fatal("failed to connect to session store", zap.Error(err))
	}

	sessions, err := st.ListSessions(ctx)
	if err != nil {
		logger.Fatal("failed to list sessions", zap.Error(err))
	}
	if *end < 0 || *end > len(sessions) {
		*end = len(sessions)
	}
	if *start < 0 || *start > *end {
		logger.Fatal("invalid session range", zap.Int("start", *start), zap.Int("end", *end))
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		logger.Fatal("failed to create output directory", zap.Error(err))
	}

	for _, session := range sessions[*start:*end] {
		messages, err := st.ListMessages(ctx, session.ID)
		if err != nil {
			logger.Error("failed to load messages", zap.Int64("session_id", session.ID), zap.Error(err))
			continue
		}
		path := filepath.Join(*outDir, exportFileName(session))
		if err := os.WriteFile(path, []byte(renderMarkdown(session, messages)), 0o644); err != nil {
			logger.Error("failed to write export", zap.String("path", path), zap.Error(err))
			continue
		}
		fmt.Printf("Exported session %d to %s\n", session.ID, path)
	}
}

func openStore(cfg *config.Config) (domain.SessionStore, error) {
	if cfg.Driver == config.DriverSQLite {
		return store.NewSQLite(cfg.DBPath)
	}
	return store.NewPostgres(cfg.PostgresDSN())
}

func exportFileName(session domain.SessionSummary) string {
	name := session.Name
	if name == "" {
		return fmt.Sprintf("session_%d.md", session.ID)
	}
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "/", "-")
	return name + ".md"
}

func renderMarkdown(session domain.SessionSummary, messages []domain.Message) string {
	name := session.Name
	if name == "" {
		name = "Untitled"
	}
	lines := []string{
		fmt.Sprintf("# Session: %s\n", name),
		fmt.Sprintf("- **Session ID:** %d", session.ID),
		fmt.Sprintf("- **Created:** %s", session.CreatedAt),
		fmt.Sprintf("- **Last Updated:** %s", session.UpdatedAt),
		"\n---\n",
	}
	for _, msg := range messages {
		label := "**Assistant**"
		if msg.Role == domain.RoleUser {
			label = "**User**"
		}
		delta := ""
		if msg.TimeDelta != nil {
			delta = fmt.Sprintf(" _(Δ %.1fs)_", *msg.TimeDelta)
		}
		lines = append(lines, fmt.Sprintf("- %s [%s]%s:\n\n    %s\n", label, msg.Timestamp, delta, msg.Content))
	}
	return strings.Join(lines, "\n")
}
