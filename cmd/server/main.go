package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/Skotchmaster/authgate/internal/config"
	"github.com/Skotchmaster/authgate/internal/db"
	"github.com/Skotchmaster/authgate/internal/events"
	"github.com/Skotchmaster/authgate/internal/hash"
	"github.com/Skotchmaster/authgate/internal/httpserver"
	"github.com/Skotchmaster/authgate/internal/logging"
	"github.com/Skotchmaster/authgate/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/authgate/internal/middleware/logging"
	"github.com/Skotchmaster/authgate/internal/repo"
	"github.com/Skotchmaster/authgate/internal/search"
	"github.com/Skotchmaster/authgate/internal/service"
	"github.com/Skotchmaster/authgate/internal/tokens"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx := context.Background()

	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db_open_failed", "error", err)
		os.Exit(1)
	}
	if err := db.Migrate(gdb); err != nil {
		logger.Error("db_migrate_failed", "error", err)
		os.Exit(1)
	}

	signer, err := tokens.NewSigner(tokens.Config{
		AccessSecret:  cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	})
	if err != nil {
		logger.Error("token_signer_failed", "error", err)
		os.Exit(1)
	}

	publisher := newPublisher(cfg, logger)
	index := newIndex(ctx, cfg, logger)

	store := repo.New(gdb)
	hasher := hash.New(cfg.Argon2)

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(
		middleware.Recover(),
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}),
		middleware.Secure(),
		middleware.CORS(),
		loggingmw.RequestLogger(logger),
	)

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{Svc: &service.AuthService{
			Store:  store,
			Hasher: hasher,
			Tokens: signer,
			Events: publisher,
			Index:  index,
		}},
		UserHandler: &httpserver.UserHTTP{Svc: &service.UserService{
			Store:  store,
			Events: publisher,
			Index:  index,
		}},
		Gate:  auth.NewGate(signer),
		Ready: func(ctx context.Context) error { return db.Ping(ctx, gdb) },
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		logger.Info("http_listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting_down")
	go func() {
		<-quit
		logger.Warn("force_exit")
		os.Exit(1)
	}()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}
	shutdown(logger, gdb, publisher)
	logger.Info("shutdown_complete")
}

func newPublisher(cfg *config.Config, logger *slog.Logger) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("events_disabled", "reason", "KAFKA_BROKERS is empty")
		return events.Nop{}
	}
	logger.Info("events_enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
}

// newIndex falls back to a disabled index when the cluster is not configured
// or not reachable at startup; search then answers 501.
func newIndex(ctx context.Context, cfg *config.Config, logger *slog.Logger) search.Index {
	if cfg.Search.URL == "" {
		logger.Info("search_disabled", "reason", "ES_URL is empty")
		return search.Disabled{}
	}
	client, err := search.NewClient(cfg.Search)
	if err != nil {
		logger.Warn("search_disabled", "reason", "cannot create client", "error", err)
		return search.Disabled{}
	}
	idx := search.NewESIndex(client, cfg.Search.Index)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := idx.Ping(pingCtx); err != nil {
		logger.Warn("search_disabled", "reason", "cluster unreachable", "error", err)
		return search.Disabled{}
	}
	logger.Info("search_enabled", "index", cfg.Search.Index)
	return idx
}

func shutdown(logger *slog.Logger, gdb *gorm.DB, publisher events.Publisher) {
	if err := db.Close(gdb); err != nil {
		logger.Error("db_close_error", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Error("kafka_close_error", "error", err)
	}
}
