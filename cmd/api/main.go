package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/baharkarakas/point-wallet/internal/api"
	"github.com/baharkarakas/point-wallet/internal/config"
	"github.com/baharkarakas/point-wallet/internal/db"
	"github.com/baharkarakas/point-wallet/internal/locks"
	"github.com/baharkarakas/point-wallet/internal/logger"
	"github.com/baharkarakas/point-wallet/internal/metrics"
	repo "github.com/baharkarakas/point-wallet/internal/repository"
	"github.com/baharkarakas/point-wallet/internal/repository/memory"
	"github.com/baharkarakas/point-wallet/internal/repository/postgres"
	"github.com/baharkarakas/point-wallet/internal/services"
	"github.com/baharkarakas/point-wallet/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("exit", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	registry := locks.NewRegistry(locks.WithEviction(cfg.LockEviction))
	wp := worker.NewPool(cfg.BatchWorkers, cfg.BatchWorkers*4)
	defer wp.Stop()

	svc := services.NewPointService(repos, registry, log, services.WithPool(wp))

	metrics.Init(func() float64 { return float64(registry.Len()) })
	r := api.NewRouter(cfg, svc, log)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server starting", "port", cfg.HTTPPort, "store", cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (repo.Repositories, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		t := memory.NewTables(memory.WithLatency(cfg.StoreLatencyMin, cfg.StoreLatencyMax))
		return t.Repositories(), func() {}, nil
	case config.BackendPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, int32(cfg.BatchWorkers*2))
		if err != nil {
			return repo.Repositories{}, nil, fmt.Errorf("db connect: %w", err)
		}
		if cfg.Migrate {
			if err := db.RunMigrations(ctx, pool); err != nil {
				pool.Close()
				return repo.Repositories{}, nil, fmt.Errorf("migrations: %w", err)
			}
			log.Info("migrations applied")
		}
		return postgres.NewRepositories(pool), pool.Close, nil
	default:
		return repo.Repositories{}, nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
}
