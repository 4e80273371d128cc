package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/jaminalder/time-travel-tic-tac-toe/internal/app"
	"github.com/jaminalder/time-travel-tic-tac-toe/internal/config"
	"github.com/jaminalder/time-travel-tic-tac-toe/internal/logging"
	"github.com/jaminalder/time-travel-tic-tac-toe/internal/store"
	"github.com/jaminalder/time-travel-tic-tac-toe/internal/web"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.yml", "path to the YAML config file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage of %s:\n", os.Args[0])
		flag.PrintDefaults()
		fmt.Fprintln(flag.CommandLine.Output(), config.Usage())
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := logging.Init(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	log := logger.With().Str("component", "server").Logger()

	st, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	svc := app.NewService(st, logger)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           web.NewServer(svc, web.Options{Logger: logger, Heartbeat: cfg.Heartbeat}),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("store", cfg.Store).Msg("starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openStore builds the configured session store and a func releasing it.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (app.Store, func(), error) {
	switch cfg.Store {
	case config.StoreRedis:
		r, err := store.NewRedis(ctx, cfg.Redis.Addr(), cfg.SessionTTL)
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}
		return r, func() {
			if err := r.Close(); err != nil {
				log.Error().Err(err).Msg("could not close redis storage")
			}
		}, nil
	default:
		m := store.NewMemory(cfg.SessionTTL)
		sweepCtx, cancel := context.WithCancel(ctx)
		go sweep(sweepCtx, m, cfg.SessionTTL, log)
		return m, cancel, nil
	}
}

func sweep(ctx context.Context, m *store.Memory, every time.Duration, log zerolog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				log.Debug().Int("sessions", n).Msg("expired sessions removed")
			}
		}
	}
}
