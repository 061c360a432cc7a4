package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/nexushub/virtuallab/api/handlers"
	"github.com/nexushub/virtuallab/internal/assist"
	"github.com/nexushub/virtuallab/internal/audit"
	"github.com/nexushub/virtuallab/internal/config"
	"github.com/nexushub/virtuallab/internal/db"
	"github.com/nexushub/virtuallab/internal/logging"
	"github.com/nexushub/virtuallab/internal/repository"
	"github.com/nexushub/virtuallab/internal/session"
	"github.com/nexushub/virtuallab/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Pretty)
	return cfg, nil
}

func runMigrate(path string) error {
	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer database.Close()

	log.Info().Str("module", "main").Str("path", cfg.Database.Path).Msg("database schema is up to date")
	return nil
}

func runServer(parent context.Context, path string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer database.Close()

	sessionRepo := repository.NewSessionRepository(database)
	auditRepo := repository.NewAuditRepository(database)

	sessionManager := session.NewManager(sessionRepo, session.Config{
		MaxActivePerMentor: cfg.Lab.MaxActivePerMentor,
	})

	auditWriter := audit.NewWriter(auditRepo, cfg.Lab.AuditQueue)
	defer auditWriter.Close()

	provider, err := assist.NewProvider(ctx, assist.ProviderConfig{
		Provider: cfg.AI.Provider,
		APIKey:   cfg.AI.APIKey,
		Model:    cfg.AI.Model,
		Region:   cfg.AI.Region,
		Profile:  cfg.AI.Profile,

		AccessKeyID:     cfg.AI.AccessKeyID,
		SecretAccessKey: cfg.AI.SecretAccessKey,
		GenerationOptions: assist.GenerationOptions{
			MaxTokens:   cfg.AI.MaxTokens,
			Temperature: cfg.AI.Temperature,
		},
	})
	if err != nil {
		// the lab still works without AI, every request gets the fallback answer
		log.Error().Str("module", "main").Str("provider", cfg.AI.Provider).Err(err).Msg("ai provider unavailable")
		provider = nil
	}
	broker := assist.NewBroker(provider, assist.Config{
		Timeout:  cfg.AI.Timeout,
		Counter:  sessionManager,
		DebugLog: auditWriter,
	})

	wsService := ws.NewService(sessionManager, broker, auditWriter, ws.Options{
		RolePolicy:      ws.RolePolicy(cfg.Lab.RolePolicy),
		DefaultLanguage: cfg.Lab.DefaultLanguage,
		ChatHistory:     cfg.Lab.ChatHistory,
		IdleTTL:         cfg.Lab.IdleTTL,
		ReapInterval:    cfg.Lab.ReapInterval,
	})
	// runs before auditWriter.Close so late AI results are still audited
	defer wsService.Close()

	g, gctx := errgroup.WithContext(ctx)

	wsHandler := ws.NewHandler(gctx, wsService, ws.HandlerConfig{
		MaxMessageSize: cfg.Lab.MaxMessageSize,
		SendBuffer:     cfg.Lab.SendBuffer,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: newRouter(cfg, sessionManager, wsService, broker, wsHandler),
	}

	g.Go(func() error {
		log.Info().Str("module", "main").Str("addr", srv.Addr).Str("ai_provider", broker.ProviderName()).
			Str("role_policy", cfg.Lab.RolePolicy).Msg("virtual lab broker started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return wsService.RunReaper(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Str("module", "main").Msg("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Str("module", "main").Err(err).Msg("server forced to shutdown")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Str("module", "main").Msg("server exited gracefully")
	return nil
}

func newRouter(cfg *config.Config, sessions *session.Manager, live *ws.Service, broker *assist.Broker, wsHandler *ws.Handler) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(handlers.RequestLogger())
	r.Use(handlers.CORSMiddleware(cfg.Server.AllowedOrigins))
	r.Use(handlers.IdentityMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "ok",
			"liveRooms":  live.Registry().Len(),
			"aiProvider": broker.ProviderName(),
		})
	})

	api := r.Group("/api/lab")
	{
		handlers.NewLabHandler(sessions, live, broker).RegisterRoutes(api)
		handlers.NewWebSocketHandler(wsHandler).RegisterRoutes(api)
	}

	return r
}
