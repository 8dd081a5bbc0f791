package main

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "kemdeholo/internal/adapters/http_server"
	"kemdeholo/internal/adapters/observability"
	redisad "kemdeholo/internal/adapters/redis"
	"kemdeholo/internal/app"
	"kemdeholo/internal/shared"
	mysqlrepo "kemdeholo/internal/storage/mysql"
	"kemdeholo/internal/storage/orm"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "api")

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	store, err := orm.Open(db, log.Logger, cfg.AppEnv == "dev")
	if err != nil {
		log.Fatal().Err(err).Msg("gorm open failed")
	}
	if err := store.AutoMigrate(); err != nil {
		log.Fatal().Err(err).Msg("auto-migrate inscriptions failed")
	}

	// deps
	rdb := redisad.NewClient(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer rdb.Close()
	repo := mysqlrepo.New(db)
	cache := redisad.New(rdb)
	signals := redisad.NewSignals(rdb, cfg.SignalChannel)

	q := app.NewQueryService(repo, cache, cfg.CacheTTL)
	c := app.NewSubmissionService(repo, store, cache, signals, cfg.Location,
		app.WithAutoApprove(cfg.AutoApprove))

	// http
	srv := server.New(cfg.SubmitRPS)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Q: q, C: c, Signals: signals, Loc: cfg.Location})

	// Cancelled on shutdown so open signal streams end.
	base, stopStreams := context.WithCancel(context.Background())
	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		BaseContext:       func(net.Listener) context.Context { return base },
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	httpSrv.RegisterOnShutdown(stopStreams)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("tz", cfg.Location.String()).Msg("site listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
		return
	}
	log.Info().Msg("server stopped")
}
