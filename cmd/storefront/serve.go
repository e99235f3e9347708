package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/backend"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/events"
	httpapi "github.com/andreasstove999/ecommerce-system/storefront-go/internal/http"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/localstore"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the storefront HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

type cartPublisher interface {
	httpapi.CartEventsPublisher
	Close() error
}

// storage opens local storage and the event sequence counter for the
// configured driver. The returned close func is never nil.
func storage(ctx context.Context, cfg config.Config) (localstore.Store, events.SequenceRepository, func() error, error) {
	if cfg.StorageDriver == db.Memory {
		logger.Warn("memory storage: carts and tokens are lost on restart")
		return localstore.NewMemory(), events.NewMemorySequences(), func() error { return nil }, nil
	}

	if err := db.RunMigrations(cfg.StorageDriver, cfg.StorageDSN, logger); err != nil {
		return nil, nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	conn, err := db.Open(ctx, cfg.StorageDriver, cfg.StorageDSN)
	if err != nil {
		return nil, nil, nil, err
	}
	store, err := localstore.NewSQLStore(conn, cfg.StorageDriver)
	if err != nil {
		_ = conn.Close()
		return nil, nil, nil, err
	}
	sequences, err := events.NewSequenceRepository(conn, cfg.StorageDriver)
	if err != nil {
		_ = conn.Close()
		return nil, nil, nil, err
	}
	return store, sequences, conn.Close, nil
}

func publisher(cfg config.Config, sequences events.SequenceRepository) (cartPublisher, func() error, error) {
	if cfg.RabbitMQURL == "" {
		logger.Warn("RABBITMQ_URL not set, checkout events are only logged")
		return events.LogPublisher{Logger: logger}, func() error { return nil }, nil
	}

	conn, err := events.Dial(cfg.RabbitMQURL)
	if err != nil {
		return nil, nil, err
	}
	p, err := events.NewRabbitCartEventsPublisher(conn, sequences)
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("create cart publisher: %w", err)
	}
	return p, conn.Close, nil
}

func serve(ctx context.Context, cfg config.Config) error {
	store, sequences, closeStorage, err := storage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStorage(); err != nil {
			logger.Warn("close storage", zap.Error(err))
		}
	}()

	cartPub, closeBroker, err := publisher(cfg, sequences)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeBroker(); err != nil {
			logger.Warn("close broker connection", zap.Error(err))
		}
	}()

	client, err := backend.NewClient("backend", cfg.BackendURL,
		&http.Client{Timeout: cfg.BackendTimeout},
		backend.SessionTokens{Storage: store})
	if err != nil {
		return fmt.Errorf("backend client: %w", err)
	}

	registry := cart.NewRegistry(localstore.CartPersisters(store), logger.Named("cart"))
	router := httpapi.NewRouter(httpapi.Deps{
		Logger:           logger.Named("http"),
		CORSAllowOrigins: cfg.CORSAllowOrigins,
		Cart:             httpapi.NewCartHandler(registry, cartPub, logger),
		Auth:             httpapi.NewAuthHandler(backend.NewAuthClient(client), store, logger),
		Admin:            httpapi.NewAdminHandler(backend.NewOrdersClient(client)),
		Owner:            httpapi.NewOwnerHandler(backend.NewOwnerClient(client)),
		Health: &httpapi.HealthHandler{Check: func(ctx context.Context) backend.HealthResult {
			return backend.CheckHealth(ctx, client, cfg.BackendHealthPath)
		}},
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("storefront listening",
			zap.String("addr", srv.Addr),
			zap.String("storage", string(cfg.StorageDriver)),
			zap.String("backend", cfg.BackendURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown error", zap.Error(err))
	}
	if err := cartPub.Close(); err != nil {
		logger.Warn("publisher close error", zap.Error(err))
	}
	return nil
}
