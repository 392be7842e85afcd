package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ashleighh1991/acadamy-of-curiosity/internal/api"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/catalog"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/config"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/enrollment"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/feed"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/health"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/identity"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/models"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/pairing"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/payment"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/storage"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/submission"
	"github.com/ashleighh1991/acadamy-of-curiosity/internal/sweeper"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("starting academy",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Driver,
		"payment_mode", cfg.Payment.Mode,
	)

	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	registry := health.NewRegistry(5 * time.Second)

	// Document store
	store, err := openStore(initCtx, cfg, registry)
	if err != nil {
		slog.Error("failed to open document store", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	registry.Register("storage", health.CheckerFunc(store.Ping))

	// Sessions and the partner thread bus live in Redis when it is enabled
	var (
		sessions identity.SessionStore
		bus      pairing.Bus
		memory   *identity.MemorySessionStore
	)
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()

		if err := client.Ping(initCtx).Err(); err != nil {
			slog.Error("failed to connect to redis", "address", cfg.Redis.Address, "error", err)
			os.Exit(1)
		}
		slog.Info("redis connected successfully", "address", cfg.Redis.Address)

		sessions = identity.NewRedisSessionStore(client)
		bus = pairing.NewRedisBus(client)
		registry.Register("redis", health.NewRedisChecker(client))
	} else {
		memory = identity.NewMemorySessionStore()
		sessions = memory
		bus = pairing.NewMemoryBus()
	}

	provider := identity.NewProvider(store, sessions, []byte(cfg.Auth.JWTSecret), cfg.Auth.SessionTTL)

	// Challenge catalog
	seed, err := loadCatalog(cfg.Catalog)
	if err != nil {
		slog.Error("failed to load challenge catalog", "error", err)
		os.Exit(1)
	}
	challenges := catalog.New(seed, catalog.NewStoreSource(store))

	// Payments and enrollments
	var gateway payment.Gateway
	switch cfg.Payment.Mode {
	case "http":
		gateway = payment.NewHTTPGateway(cfg.Payment.BaseURL, payment.WithTimeout(cfg.Payment.Timeout))
	default:
		slog.Warn("payments are simulated, no card is charged")
		gateway = payment.NewSimulatedGateway()
	}
	tracker := enrollment.NewTracker(store, gateway)

	// Accountability pairing
	pool, err := loadPool(cfg.Pairing)
	if err != nil {
		slog.Error("failed to load partner pool", "error", err)
		os.Exit(1)
	}
	// The service and the replier each lock their own generator
	replier := pairing.NewCannedReplier(pairing.NewRand(cfg.Pairing.Seed))
	partners := pairing.NewService(store, pool, pairing.NewRand(cfg.Pairing.Seed), replier, bus)

	// Every signed-in user gets a partner
	provider.OnChange(func(ctx context.Context, principal *models.Principal) {
		if principal == nil {
			return
		}
		if _, _, err := partners.AssignIfAbsent(ctx, principal.UID); err != nil {
			slog.Error("failed to assign partner", "user_id", principal.UID, "error", err)
		}
	})

	// Submission workflow
	policy := submission.KeepApproval
	if cfg.Workflow.ResetApprovalOnEdit {
		policy = submission.ResetApproval
	}
	submissions := submission.NewService(store, partners, tracker, challenges, policy)

	// Community feed
	community := feed.New(store)
	essays, err := feed.DefaultSeed()
	if err != nil {
		slog.Error("failed to load feed seed", "error", err)
		os.Exit(1)
	}
	if err := community.EnsureSeeded(initCtx, essays); err != nil {
		slog.Error("failed to seed feed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis expires sessions itself; in-memory ones are swept
	if memory != nil {
		sweeper.New("sessions", memory, cfg.Sweeper.Interval).Start(ctx)
	}

	// Setup HTTP server
	server := api.NewServer(cfg.Server, api.Deps{
		Identity:    provider,
		Catalog:     challenges,
		Enrollments: tracker,
		Pairing:     partners,
		Submissions: submissions,
		Feed:        community,
		Health:      registry,
	})
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 75 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Stop background workers
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("academy stopped")
}

func openStore(ctx context.Context, cfg *config.Config, registry *health.Registry) (storage.Store, error) {
	if cfg.Storage.Driver == "memory" {
		slog.Warn("using in-memory document store, data is lost on restart")
		return storage.NewMemoryStore(), nil
	}

	slog.Info("running database migrations", "dir", cfg.Database.MigrationsDir)
	if err := storage.MigrateFromDSN(ctx, cfg.Database.DSN, cfg.Database.MigrationsDir); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	store, err := storage.NewPostgresStore(ctx, storage.PostgresConfig{
		DSN:          cfg.Database.DSN,
		MaxOpenConns: int32(cfg.Database.MaxOpenConns),
		MaxIdleConns: int32(cfg.Database.MaxIdleConns),
	})
	if err != nil {
		return nil, err
	}
	slog.Info("database connected successfully")

	checker, err := health.NewPostgresChecker(cfg.Database.DSN)
	if err != nil {
		store.Close()
		return nil, err
	}
	registry.Register("postgres", checker)
	return store, nil
}

func loadCatalog(cfg config.CatalogConfig) (*catalog.Loader, error) {
	if cfg.SeedFile == "" {
		return catalog.DefaultLoader()
	}
	loader := catalog.NewLoader()
	if err := loader.LoadFromFile(cfg.SeedFile); err != nil {
		return nil, err
	}
	slog.Info("loaded challenge catalog", "path", cfg.SeedFile, "challenges", len(loader.List()))
	return loader, nil
}

func loadPool(cfg config.PairingConfig) (*pairing.Pool, error) {
	if cfg.PoolFile == "" {
		return pairing.DefaultPool()
	}
	return pairing.LoadPool(cfg.PoolFile)
}
