// Command relayd is a small embedding server for the relay router. It
// exists as a runnable reference: env-based configuration, structured
// logging, Prometheus metrics and a response cache wired through the
// request context.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/relaykit/relay"
	"github.com/relaykit/relay/cache"
	"github.com/relaykit/relay/middleware"
)

func main() {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		slog.Error("parse config", slog.Any("error", err))
		os.Exit(1)
	}

	log := newLogger(cfg)
	slog.SetDefault(log)

	storage, err := newCacheStorage(cfg)
	if err != nil {
		log.Error("cache storage", slog.Any("error", err))
		os.Exit(1)
	}

	router := newRouter(storage)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", relay.HandlerWithLogger(router, log))

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("listening", slog.String("addr", cfg.HTTPAddr), slog.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", slog.Any("error", err))
	}
	log.Info("stopped")
}

func newLogger(cfg Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Env, "production") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func newCacheStorage(cfg Config) (cache.Storage, error) {
	if cfg.RedisURL == "" {
		return cache.NewMemoryStorage(cache.WithTTL(cfg.CacheTTL)), nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	return cache.NewRedisStorage(redis.NewClient(opts), cache.WithRedisTTL(cfg.CacheTTL)), nil
}

func newRouter(storage cache.Storage) *relay.Router {
	r := relay.New()

	// Collaborators first, so everything downstream can reach them.
	r.Use(relay.Func(func(_ *relay.Request, c *relay.Context) (*relay.Response, error) {
		cache.With(c, storage)
		return nil, nil
	}))

	r.Use(
		middleware.Recover(),
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Metrics(),
		middleware.Cache(),
	)

	r.Route("/healthz").Get(func(_ *relay.Request, _ *relay.Context) (*relay.Response, error) {
		return relay.Text(http.StatusOK, "ok"), nil
	})

	r.Route("/hello/:name").Get(func(_ *relay.Request, c *relay.Context) (*relay.Response, error) {
		return relay.JSON(http.StatusOK, map[string]string{"hello": c.Param("name")})
	})

	// Introspection endpoints live on a sub-router. The closures read from
	// the parent router, which is safe once registration is done.
	admin := relay.New()
	admin.Route("/routes").Get(func(_ *relay.Request, _ *relay.Context) (*relay.Response, error) {
		return relay.JSON(http.StatusOK, r.Routes())
	})
	admin.Route("/stats").Get(func(_ *relay.Request, _ *relay.Context) (*relay.Response, error) {
		return relay.JSON(http.StatusOK, r.Stats())
	})
	r.Mount("/admin", admin)

	return r
}
