package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadsync-platform/internal/audit"
	"leadsync-platform/internal/auth"
	"leadsync-platform/internal/calls"
	"leadsync-platform/internal/callsource"
	"leadsync-platform/internal/config"
	"leadsync-platform/internal/database"
	"leadsync-platform/internal/httpapi"
	"leadsync-platform/internal/leads"
	"leadsync-platform/internal/reporting"
	"leadsync-platform/internal/syncer"
	"leadsync-platform/pkg/logger"
	"leadsync-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Local development convenience; deployed environments inject real env.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.NewMigrator(db).Run(rootCtx); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	// Redis backs the advisory run lock and the last-synced marker. The
	// pipeline degrades to unlocked runs without it, so startup survives
	// an unreachable cache.
	var rdb *redis.Client
	rdb, err = utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Warn("redis unavailable, running without sync lock", "err", err)
		rdb = nil
	} else {
		defer rdb.Close()
	}

	sourceClient := callsource.New(cfg.CallSource, cfg.Sync, nil)

	callRepo := calls.NewPostgresRepo(db)
	leadRepo := leads.NewPostgresRepo(db)
	auditSvc := audit.NewService(audit.NewPostgresRepo(db))

	reconciler := leads.NewReconciler(leadRepo, callRepo, auditSvc)
	syncSvc := syncer.NewService(sourceClient, calls.NewUpserter(callRepo), callRepo, reconciler, rdb, cfg.Sync.MaxRecords)

	statusSvc := reporting.NewService(callRepo, func(ctx context.Context) (time.Time, error) {
		return utils.LastSynced(ctx, rdb)
	})

	h := httpapi.Handlers{
		Auth:   authManager,
		Sync:   syncSvc,
		Status: statusSvc,
		Cfg:    cfg.Sync,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, h, auth.RequireAccessToken(authManager), cfg.Sync.CronSecret, db, rdb)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Backfills replay whole months; give them room before the
		// server cuts the response off.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
