package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	router "github.com/dkeye/relay/internal/adapters/http"
	wsignal "github.com/dkeye/relay/internal/adapters/signal"
	"github.com/dkeye/relay/internal/app"
	"github.com/dkeye/relay/internal/config"
	"github.com/dkeye/relay/internal/metrics"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogger(cfg)

	m := metrics.NewWithRuntime(prometheus.NewRegistry())
	reg := app.NewRegistry(m)
	broker := app.NewBroker(reg, app.SimplePolicy{Kick: cfg.KickSlowConsumers}, m)
	ctl := wsignal.NewSignalWSController(ctx, broker, wsignal.Options{
		ReadLimit:       cfg.ReadLimit,
		PingPeriod:      cfg.PingPeriod,
		PongWait:        cfg.PongWait,
		WriteWait:       cfg.WriteWait,
		SendBuffer:      cfg.SendBuffer,
		MaxConnections:  cfg.MaxConnections,
		EventsPerSecond: cfg.EventsPerSecond,
		EventBurst:      cfg.EventBurst,
		Origin:          cfg.Origin,
	}, m)

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router.SetupRouter(cfg, ctl, reg, m),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("relay server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()

		// Hijacked websockets are invisible to Shutdown; close them first.
		closed := reg.CloseAll()
		log.Info().Int("connections", closed).Msg("closed connections")
		if err := ctl.Wait(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("connections did not drain")
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server error")
		os.Exit(1)
	}
	log.Info().Msg("Server exited gracefully")
}

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Release() {
		// JSON lines in production.
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}
