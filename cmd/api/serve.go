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

	"github.com/geocoder89/eventrest/internal/accounts"
	"github.com/geocoder89/eventrest/internal/auth"
	"github.com/geocoder89/eventrest/internal/cache"
	"github.com/geocoder89/eventrest/internal/config"
	"github.com/geocoder89/eventrest/internal/db"
	httpx "github.com/geocoder89/eventrest/internal/http"
	"github.com/geocoder89/eventrest/internal/http/handlers"
	"github.com/geocoder89/eventrest/internal/observability"
	"github.com/geocoder89/eventrest/internal/repo/cached"
	"github.com/geocoder89/eventrest/internal/repo/memory"
	"github.com/geocoder89/eventrest/internal/repo/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if servePort != 0 {
			cfg.Port = servePort
		}
		return runServer(cfg)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides PORT)")
}

type storage struct {
	events   cached.EventsStore
	accounts accounts.Store
	refresh  handlers.RefreshTokenStore
	checks   map[string]handlers.PingFunc
	close    func()
}

// openStorage picks the backing stores for cfg.StorageDriver.
func openStorage(ctx context.Context, cfg config.Config, log *slog.Logger, prom *observability.Prom) (storage, error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		log.Warn("using in-memory storage; data is lost on restart")
		return storage{
			events:   memory.NewEventsRepo(),
			accounts: memory.NewAccountsRepo(),
			refresh:  memory.NewRefreshTokensRepo(),
			checks:   map[string]handlers.PingFunc{},
			close:    func() {},
		}, nil

	case config.StoragePostgres:
		if cfg.MigrateOnStart {
			if err := db.MigrateUp(cfg.DBURL); err != nil {
				return storage{}, err
			}
			log.Info("migrations applied")
		}

		pool, err := db.NewPool(ctx, cfg.DBURL, cfg.DBMaxConns)
		if err != nil {
			return storage{}, err
		}

		return storage{
			events:   postgres.NewEventsRepo(pool, prom),
			accounts: postgres.NewAccountsRepo(pool, prom),
			refresh:  postgres.NewRefreshTokensRepo(pool, prom),
			checks: map[string]handlers.PingFunc{
				"db": pool.Ping,
			},
			close: pool.Close,
		}, nil

	default:
		return storage{}, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
}

func runServer(cfg config.Config) error {
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName: "eventrest",
		Env:         cfg.Env,
		Endpoint:    cfg.OTelEndpoint,
	})
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		sctx, scancel := config.WithTimeout(5 * time.Second)
		defer scancel()
		_ = shutdownTracer(sctx)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	store, err := openStorage(ctx, cfg, log, prom)
	if err != nil {
		return err
	}
	defer store.close()

	var eventCache cache.Store = cache.New(cfg.CacheTTL)
	if cfg.RedisAddr != "" {
		rs := cache.NewRedisStore(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheTTL,
		})
		defer func() { _ = rs.Close() }()

		if err := rs.Ping(ctx); err != nil {
			log.Warn("redis unreachable at startup, cache will miss until it recovers", "addr", cfg.RedisAddr, "err", err)
		}
		store.checks["redis"] = rs.Ping
		eventCache = rs
	}

	svc := accounts.NewService(store.accounts)
	if err := db.EnsureDefaultAccounts(ctx, svc, cfg); err != nil {
		return err
	}

	router := httpx.NewRouter(log, cfg, httpx.Deps{
		Events:        cached.NewEventsRepo(store.events, eventCache, log),
		Accounts:      svc,
		RefreshTokens: store.refresh,
		Tokens:        auth.NewManager(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL()),
		Prom:          prom,
		Checks:        store.checks,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "storage", cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-stop:
	}
	log.Info("server shutting down")

	sctx, scancel := config.WithTimeout(10 * time.Second)
	defer scancel()

	if err := srv.Shutdown(sctx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
		return err
	}

	log.Info("shutdown complete")
	return nil
}
