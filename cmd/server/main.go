package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-kite-session/internal/config"
	"github.com/jrsteele09/go-kite-session/kite"
	"github.com/jrsteele09/go-kite-session/server"
	"github.com/jrsteele09/go-kite-session/sessions"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	sweepInterval     = 5 * time.Minute
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
	redisPingTimeout  = 5 * time.Second
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(c)
	displayAppname(c.GetAppName())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := newSessionStore(ctx, c)
	if err != nil {
		return err
	}
	defer closeStore()

	handler, err := server.New(c, server.Repos{Sessions: store, Kite: kite.NewClient(c)})
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- listenAndServe(httpServer)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}

	return shutdown(httpServer)
}

func setupLogging(c config.EnvConfig) {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if c.IsDev() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// newSessionStore opens the configured session store and returns a function that releases it
func newSessionStore(ctx context.Context, c config.StoreConfig) (sessions.Repo, func(), error) {
	switch c.GetSessionStore() {
	case config.StoreMemory:
		repo := sessions.NewInMemoryRepo()
		go sweepExpired(ctx, repo)
		log.Info().Msg("Using in-memory session store: sessions are lost on restart and not shared between instances")
		return repo, func() {}, nil

	case config.StoreRedis:
		opts, err := redis.ParseURL(c.GetRedisURL())
		if err != nil {
			return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)

		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
		}

		log.Info().Str("addr", opts.Addr).Str("prefix", c.GetRedisKeyPrefix()).Msg("Using Redis session store")
		return sessions.NewRedisRepo(client, c.GetRedisKeyPrefix()), func() {
			if err := client.Close(); err != nil {
				log.Err(err).Msg("Failed to close Redis client")
			}
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown SESSION_STORE %q", c.GetSessionStore())
	}
}

// sweepExpired periodically drops expired in-memory sessions that were never read again
func sweepExpired(ctx context.Context, repo *sessions.InMemoryRepo) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := repo.DeleteExpired(); n > 0 {
				log.Debug().Int("removed", n).Int("remaining", repo.Len()).Msg("Swept expired sessions")
			}
		}
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
