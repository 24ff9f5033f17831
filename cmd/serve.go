package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/reframelab/reframe/db"
	"github.com/reframelab/reframe/internal/chat"
	"github.com/reframelab/reframe/internal/chatlog"
	"github.com/reframelab/reframe/internal/config"
	"github.com/reframelab/reframe/internal/database"
	"github.com/reframelab/reframe/internal/ollama"
	"github.com/reframelab/reframe/internal/retrieval"
	"github.com/reframelab/reframe/internal/web"
)

// Server timeout configuration. Write timeout is generous because a
// single Ollama generation can take minutes on CPU-only hosts.
const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 10 * time.Minute
	idleTimeout       = 2 * time.Minute
	shutdownTimeout   = 30 * time.Second
)

// runServe initializes and starts the web server.
func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()
	logger.Info("starting reframe server", "version", AppVersion)

	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	pool, err := database.Connect(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	client := ollama.NewClient(cfg.OllamaHost, cfg.GenerateModel, cfg.EmbedModel)

	store, err := retrieval.NewStore(pool, logger)
	if err != nil {
		return fmt.Errorf("creating retrieval store: %w", err)
	}
	engine, err := retrieval.NewEngine(client, store, cfg.TopK, cfg.ReframeLimit, logger)
	if err != nil {
		return fmt.Errorf("creating retrieval engine: %w", err)
	}
	logStore, err := chatlog.NewStore(pool, logger)
	if err != nil {
		return fmt.Errorf("creating chatlog store: %w", err)
	}
	service, err := chat.NewService(engine, client, logStore, logger)
	if err != nil {
		return fmt.Errorf("creating chat service: %w", err)
	}

	webServer, err := web.NewServer(web.ServerConfig{
		Logger:   logger,
		Analyzer: service,
	})
	if err != nil {
		return fmt.Errorf("creating web server: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           webServer.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	logger.Info("HTTP server ready",
		"addr", cfg.ListenAddr,
		"ollama", cfg.OllamaHost,
		"health", "/healthz",
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down HTTP server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTP server: %w", err)
	}
}
