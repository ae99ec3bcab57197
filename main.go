package main

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	httpadapter "github.com/pradipta/geminichat/adapters/http"
	"github.com/pradipta/geminichat/adapters/journal"
	"github.com/pradipta/geminichat/adapters/llm"
	"github.com/pradipta/geminichat/adapters/store"
	"github.com/pradipta/geminichat/config"
	"github.com/pradipta/geminichat/domain"
	"github.com/pradipta/geminichat/usecase"
	"github.com/pradipta/geminichat/utils/log"
)

func main() {
	gotenv.Load()
	cfg := config.Load()
	logger := log.With(zap.String("service", "geminichat"))

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx := context.Background()

	var sessionStore domain.SessionStore
	if !cfg.SkipDB {
		var err error
		switch cfg.Driver {
		case config.DriverSQLite:
			sessionStore, err = store.NewSQLite(cfg.DBPath)
		default:
			sessionStore, err = store.NewPostgres(cfg.PostgresDSN())
		}
		if err != nil {
			logger.Fatal("failed to open session store", zap.Error(err))
		}
		if err := sessionStore.Ping(ctx); err != nil {
			logger.Fatal("failed to connect to session store", zap.Error(err))
		}
		defer sessionStore.Close()
	} else {
		logger.Info("persistence disabled, sessions are ephemeral for this run")
	}

	debugJournal, err := journal.NewFile(cfg.JournalPath)
	if err != nil {
		logger.Fatal("failed to create debug journal", zap.Error(err))
	}

	sessions := usecase.NewSessionService(sessionStore, debugJournal, logger)
	if err := sessions.EnsureSchema(ctx); err != nil {
		logger.Fatal("failed to ensure store schema", zap.Error(err))
	}

	gemini := llm.NewClient(llm.Options{
		APIKey:        cfg.GoogleAPIKey,
		BaseURL:       cfg.GoogleBaseURL,
		AllowedModels: cfg.AllowedModels,
		CacheTTL:      cfg.ModelCacheTTL,
	}, logger)

	chat := usecase.NewChatService(sessions, gemini, cfg.SkipDB, logger)
	handler := httpadapter.NewChatHandler(chat, sessions, gemini, cfg.SkipDB, logger)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.Secure())
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20)))
	e.Use(middleware.BodyLimit("10MB"))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE, echo.OPTIONS},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	api := e.Group("/api/v1")
	api.GET("/health", handler.HealthCheck)
	api.POST("/chat", handler.Chat)
	api.GET("/models", handler.Models)
	api.GET("/sessions", handler.ListSessions)
	api.POST("/sessions", handler.UpsertSession)
	api.GET("/sessions/:id", handler.LoadSession)
	api.GET("/sessions/:id/messages", handler.SessionMessages)
	api.DELETE("/sessions/:id", handler.DeleteSession)

	logger.Info("starting server", zap.String("port", cfg.Port))
	if err := e.Start(":" + cfg.Port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
