// jobmate-alerts-service
//
// Saved job alerts: users describe the postings they care about, and every
// time the job list changes the service matches new postings against the
// enabled rules and notifies each (job, rule) pair once.
//
// Exposes a REST API and an AlertsService gRPC API for rule management,
// notification history and ad-hoc matching. Matches are delivered as in-app
// toasts, as push messages published to Redis (EVENT_PUSH_NOTIFICATION) when
// the user granted permission, and as simulated email records.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"jobmate/alerts-service/internal/alerts"
	"jobmate/alerts-service/internal/api"
	"jobmate/alerts-service/internal/config"
	"jobmate/alerts-service/internal/db"
	"jobmate/alerts-service/internal/events"
	"jobmate/alerts-service/internal/grpcserver"
	"jobmate/alerts-service/internal/jobsource"
	"jobmate/alerts-service/internal/logger"
	"jobmate/alerts-service/internal/metrics"
	"jobmate/alerts-service/internal/notify"
	"jobmate/alerts-service/internal/provider"
	"jobmate/alerts-service/internal/scheduler"
	"jobmate/alerts-service/internal/storage"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[alerts-service] Config error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[alerts-service] Logger error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics.Init()

	// ── Redis ────────────────────────────────────────────────────────────────
	var rdb *redis.Client
	if cfg.NeedsRedis() {
		log.Info("connecting to Redis")
		rdb, err = db.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
		log.Info("redis connected")
	}

	// ── Storage ──────────────────────────────────────────────────────────────
	port, closeStorage, err := openStorage(ctx, cfg, rdb, log)
	if err != nil {
		log.Fatal("storage", zap.String("backend", cfg.StorageBackend), zap.Error(err))
	}
	defer closeStorage()

	// ── Domain ───────────────────────────────────────────────────────────────
	bus := events.NewBus(log.Named("events"))
	if cfg.EventsRedis {
		bridge := events.NewRedisBridge(rdb, bus, log.Named("events"))
		stopForward := bridge.Forward(ctx)
		defer stopForward()
		go bridge.Listen(ctx)
	}

	opts := []alerts.Option{alerts.WithLogger(log.Named("alerts"))}
	rules := alerts.NewRuleStore(port, bus, opts...)
	history := alerts.NewHistoryStore(port, bus, opts...)

	pushSupported := cfg.PushEnabled && rdb != nil
	perms := notify.NewPermissionStore(port, pushSupported)
	var pusher notify.Pusher
	if pushSupported {
		pusher = notify.NewRedisPusher(rdb)
	}
	matcher := alerts.NewMatcher(rules, history, perms, pusher, opts...)
	inbox := notify.NewInbox()

	source := jobsource.New(cfg.JobsAPIBase, log.Named("jobsource"))
	prov := provider.New(source, matcher, inbox, bus, log.Named("provider"))
	go prov.Start(ctx)

	var sched *scheduler.Scheduler
	if cfg.MatchInterval > 0 {
		sched = scheduler.New(prov, cfg.MatchInterval, log.Named("scheduler"))
		if err := sched.Start(ctx); err != nil {
			log.Fatal("scheduler", zap.Error(err))
		}
	}

	// ── gRPC server ──────────────────────────────────────────────────────────
	gs, hs := grpcserver.NewGRPCServer(grpcserver.NewServer(rules, history, matcher, inbox), log.Named("grpc"))
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		log.Fatal("grpc listen", zap.Error(err))
	}
	go func() {
		log.Info("gRPC listening", zap.String("port", cfg.GRPCPort))
		if err := gs.Serve(lis); err != nil {
			log.Error("gRPC server error", zap.Error(err))
		}
	}()

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/metrics", promhttp.Handler())

	h := api.NewHandler(api.Deps{
		Rules:       rules,
		History:     history,
		Matcher:     matcher,
		Permissions: perms,
		Inbox:       inbox,
		Bus:         bus,
		Log:         log.Named("api"),
	})
	h.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      api.Instrument(mux, log.Named("http")),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP listening", zap.String("version", version), zap.String("port", cfg.Port),
			zap.String("storage", cfg.StorageBackend), zap.Bool("push", pushSupported))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	hs.Shutdown()
	cancel()
	if sched != nil {
		sched.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown error", zap.Error(err))
	}
	gs.GracefulStop()
	log.Info("stopped")
}

// openStorage builds the configured storage port and its cleanup.
func openStorage(ctx context.Context, cfg *config.Config, rdb *redis.Client, log *zap.Logger) (storage.Port, func(), error) {
	noop := func() {}
	switch cfg.StorageBackend {
	case config.BackendRedis:
		return storage.NewRedis(rdb, "alerts:"), noop, nil

	case config.BackendPostgres:
		log.Info("connecting to PostgreSQL")
		pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		pg := storage.NewPostgres(pool)
		if err := pg.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Info("postgres connected")
		return pg, pool.Close, nil

	case config.BackendSQLite:
		sqlDB, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		lite, err := storage.NewSQLite(ctx, sqlDB)
		if err != nil {
			sqlDB.Close()
			return nil, nil, err
		}
		log.Info("sqlite opened", zap.String("path", cfg.SQLitePath))
		return lite, func() { lite.Close() }, nil

	default:
		log.Warn("using in-memory storage; alerts and history are lost on restart")
		return storage.NewMemory(), noop, nil
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "alerts-service",
		"version": version,
	})
}
