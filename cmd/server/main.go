// Command server runs the classroom API: group chat with the @nate assistant
// and shared or per-student essay documents.
//
// @title                      Classroom API
// @version                    1.0
// @description                Group chat with an AI debate assistant and collaborative essay documents.
// @BasePath                   /api/v1
// @securityDefinitions.apikey SessionCookie
// @in                         cookie
// @name                       userId
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-classroom-backend/docs"
	"github.com/tbourn/go-classroom-backend/internal/assistant"
	"github.com/tbourn/go-classroom-backend/internal/config"
	httpapi "github.com/tbourn/go-classroom-backend/internal/http"
	"github.com/tbourn/go-classroom-backend/internal/observability"
	"github.com/tbourn/go-classroom-backend/internal/repo"
	"github.com/tbourn/go-classroom-backend/internal/services"
	"github.com/tbourn/go-classroom-backend/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	sysutil.SetupLogger(cfg.LogLevel, cfg.LogPretty, os.Stdout)

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return err
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(c); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	msgSvc := &services.MessageService{
		DB:          db,
		Responder:   newResponder(cfg.Assistant),
		AssistantID: cfg.Assistant.UserID,
		Mention:     cfg.Assistant.Mention,
		ContextSize: cfg.Assistant.ContextSize,
	}
	dispatcher := newDispatcher(cfg.Assistant, msgSvc.ReplyAsAssistant)
	msgSvc.Dispatcher = dispatcher
	log.Info().Str("dispatcher", assistant.DispatcherMode(dispatcher)).Bool("configured", cfg.Assistant.APIKey != "").Msg("assistant ready")

	idemSvc := &services.IdempotencyService{DB: db, TTL: cfg.IdempotencyTTL}
	go purgeIdempotency(ctx, idemSvc, cfg.IdempotencySweep)

	gin.SetMode(cfg.GinMode)
	docs.SwaggerInfo.BasePath = cfg.APIBasePath
	engine := gin.New()
	httpapi.RegisterRoutes(engine, httpapi.Deps{
		Sessions:    &services.SessionService{DB: db},
		Messages:    msgSvc,
		Documents:   &services.DocumentService{DB: db},
		Idempotency: idemSvc,
	}, cfg)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	// Queued assistant replies finish after the listener stops accepting sends.
	if err := dispatcher.Close(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("assistant dispatcher did not drain")
	}
	return nil
}

// openDatabase connects, migrates, ensures the assistant account and applies
// the roster when one is configured.
func openDatabase(ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	db, err := repo.Open(repo.Options{
		Driver:      cfg.DB.Driver,
		SQLitePath:  cfg.DB.Path,
		DatabaseURL: cfg.DB.URL,
		Tracing:     cfg.OTEL.Enabled,
	})
	if err != nil {
		return nil, err
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, err
	}
	if err := repo.EnsureAssistantUser(ctx, db, cfg.Assistant.UserID, cfg.Assistant.Name); err != nil {
		return nil, err
	}
	if cfg.RosterPath != "" {
		roster, err := repo.LoadRoster(cfg.RosterPath)
		if err != nil {
			return nil, err
		}
		if err := repo.ApplyRoster(ctx, db, roster); err != nil {
			return nil, err
		}
		log.Info().Str("path", cfg.RosterPath).Int("groups", len(roster.Groups)).Msg("roster applied")
	}
	return db, nil
}

// newResponder leaves the completer unset without an API key, so every
// mention gets the "not configured" reply.
func newResponder(a config.AssistantConfig) *assistant.Responder {
	if a.APIKey == "" {
		return &assistant.Responder{}
	}
	return &assistant.Responder{Completer: assistant.NewClient(assistant.ClientConfig{
		APIKey:      a.APIKey,
		URL:         a.URL,
		Model:       a.Model,
		MaxTokens:   a.MaxTokens,
		Temperature: a.Temperature,
		Timeout:     a.Timeout,
		Referer:     a.Referer,
		Title:       a.Title,
	}, nil)}
}

func newDispatcher(a config.AssistantConfig, h assistant.Handler) assistant.Dispatcher {
	jobTimeout := a.Timeout + 10*time.Second
	switch a.Dispatch {
	case assistant.ModeInline:
		return assistant.NewInline(h)
	case assistant.ModeAMQP:
		pool := assistant.NewPool(h, a.Workers, a.QueueSize, jobTimeout)
		return assistant.NewAMQP(assistant.AMQPConfig{
			URL:      a.AMQP.URL,
			Exchange: a.AMQP.Exchange,
			Queue:    a.AMQP.Queue,
		}, h, pool)
	default:
		return assistant.NewPool(h, a.Workers, a.QueueSize, jobTimeout)
	}
}

// purgeIdempotency deletes expired idempotency keys every interval until ctx
// is done. A zero interval disables it.
func purgeIdempotency(ctx context.Context, svc *services.IdempotencyService, every time.Duration) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := svc.Purge(ctx, now)
			if err != nil {
				log.Warn().Err(err).Msg("idempotency purge failed")
				continue
			}
			if n > 0 {
				log.Debug().Int64("deleted", n).Msg("idempotency keys purged")
			}
		}
	}
}
