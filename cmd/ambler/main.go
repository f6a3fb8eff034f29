package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	slacklib "github.com/slack-go/slack"

	"github.com/gosuda/ambler/internal/action"
	"github.com/gosuda/ambler/internal/backend"
	"github.com/gosuda/ambler/internal/config"
	"github.com/gosuda/ambler/internal/engine"
	"github.com/gosuda/ambler/internal/health"
	"github.com/gosuda/ambler/internal/report"
	"github.com/gosuda/ambler/internal/selector"
	"github.com/gosuda/ambler/internal/server"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	// Initialize structured logging from environment.
	logLevel := os.Getenv("AMBLER_LOG_LEVEL")
	level, parseErr := zerolog.ParseLevel(logLevel)
	if parseErr != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logFormat := os.Getenv("AMBLER_LOG_FORMAT")
	if logFormat == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Wire the engine: backend client, selectors, executors, tracker.
	client := backend.New(cfg.API.BaseURL, cfg.Actor.Username, cfg.Actor.Password)
	tracker := health.NewTracker()
	candidates := selector.NewService(client)
	executor := action.NewExecutor(client, candidates, tracker)

	var sinks []report.Sink
	if cfg.SlackEnabled() {
		sinks = append(sinks, report.NewSlackSink(slacklib.New(cfg.Slack.BotToken), cfg.Slack.Channel))
		log.Info().Str("channel", cfg.Slack.Channel).Msg("Slack report mirror enabled")
	}

	eng := engine.New(engine.Config{
		ObserverUsername: cfg.Observer.Username,
		ActionInterval:   cfg.Schedule.ActionInterval,
	}, client, candidates, executor, tracker, sinks...)

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Status server in background goroutine.
	srv := server.New(cfg, eng)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting status server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("status server error")
		}
	}()

	// Startup authentication failure is the one fatal error class.
	if err := eng.Start(ctx); err != nil {
		return err
	}

	// Block until a shutdown signal or until the engine stops itself,
	// e.g. after a tick panic.
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case <-eng.Done():
		log.Warn().Msg("engine stopped on its own, shutting down")
	}

	eng.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}
