// Package app wires the pontoon server runtime: config, logging, the game
// registry, HTTP routes and the watch gateway.
package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"pontoon/cmd/internal/game"
	"pontoon/cmd/internal/gameapi"
	"pontoon/cmd/internal/history"
	"pontoon/cmd/internal/invite"
	"pontoon/cmd/internal/realtime"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Store is a small app-level lifecycle abstraction.
// It exists to allow DB-backed resources to be closed gracefully.
type Store interface {
	Close(ctx context.Context) error
}

// nopStore is used for in-memory store mode.
type nopStore struct{}

func (nopStore) Close(_ context.Context) error { return nil }

// App is the pontoon server runtime: it owns the game registry, the
// invitation service, the result archive and the HTTP wiring around them.
type App struct {
	cfg Config
	log Logger

	store Store

	dbPool    *pgxpool.Pool
	dbEnabled bool

	games   *game.Registry
	invites *invite.Service
	archive history.Store

	hub   *realtime.Hub
	watch *realtime.WatchGateway

	api         *gameapi.Handler
	metricsReg  *prometheus.Registry
	metricsHTTP http.Handler
}

// New constructs a fully wired App instance from config and logger.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	st, dbPool, dbEnabled, archive, err := newStore(context.Background(), cfg, log)
	if err != nil {
		return nil, err
	}

	games := game.NewRegistry(log)
	invites, err := invite.NewService(log, games)
	if err != nil {
		_ = st.Close(context.Background())
		return nil, err
	}

	hub := realtime.NewHub(log)
	watch := realtime.NewWatchGateway(log, hub, games)

	metricsReg := prometheus.NewRegistry()
	metricsReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	api, err := gameapi.NewHandler(log, games, invites, archive, hub, gameapi.NewMetrics(metricsReg))
	if err != nil {
		_ = st.Close(context.Background())
		return nil, err
	}

	return &App{
		cfg:         cfg,
		log:         log,
		store:       st,
		dbPool:      dbPool,
		dbEnabled:   dbEnabled,
		games:       games,
		invites:     invites,
		archive:     archive,
		hub:         hub,
		watch:       watch,
		api:         api,
		metricsReg:  metricsReg,
		metricsHTTP: promhttp.HandlerFor(metricsReg, promhttp.HandlerOpts{}),
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.dbEnabled, a.api, a.watch, a.metricsHTTP)

	var handler http.Handler = mux
	handler = WithCORS(handler, a.cfg, a.log)
	handler = WithSecurityHeaders(handler)
	handler = WithRequestLogging(handler, a.log)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	base := runtimeBaseURL(a.cfg.HTTPAddr)
	a.log.Info("server.start",
		"addr", a.cfg.HTTPAddr,
		"url", base,
		"ws", wsBaseURL(base)+"/ws",
		"db_enabled", a.dbEnabled,
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	if err := a.store.Close(shutdownCtx); err != nil {
		a.log.Error("store.close.fail", "err", err)
	}

	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// runtimeBaseURL turns a listen address into a URL a local client can
// actually dial (wildcard binds map to loopback).
func runtimeBaseURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return "http://" + host + ":" + port
}

// wsBaseURL converts an HTTP base URL to its WebSocket equivalent.
func wsBaseURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	default:
		return "ws://" + base
	}
}

// newStore decides between Postgres-backed result persistence and the
// in-memory archive.
func newStore(ctx context.Context, cfg Config, log Logger) (Store, *pgxpool.Pool, bool, history.Store, error) {
	if cfg.DatabaseURL == "" {
		log.Info("db.disabled.inmemory_archive")
		return nopStore{}, nil, false, history.NewMemoryStore(), nil
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return nil, nil, false, nil, err
	}

	log.Info("db.enabled.postgres_archive")

	// Ownership model:
	// - app owns pool lifecycle
	// - PostgresStore.Close() is a no-op
	archive, err := history.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return nil, nil, false, nil, err
	}

	return dbStore{pool: pool, archive: archive}, pool, true, archive, nil
}

type dbStore struct {
	pool    *pgxpool.Pool
	archive history.Store
}

func (s dbStore) Close(_ context.Context) error {
	if s.archive != nil {
		_ = s.archive.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
