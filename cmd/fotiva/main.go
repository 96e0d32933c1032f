// Fotiva is the voice and text assistant of the photography studio. It
// turns spoken or typed Portuguese commands into studio actions: creating
// events through a short dialogue and navigating the studio front end.
//
// Usage:
//
//	fotiva [flags]
//	fotiva --config /path/to/fotiva.yaml
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	_ "github.com/nadzzz/fotiva/docs"
	"github.com/nadzzz/fotiva/internal/config"
	"github.com/nadzzz/fotiva/internal/dispatch"
	"github.com/nadzzz/fotiva/internal/health"
	"github.com/nadzzz/fotiva/internal/session"
	"github.com/nadzzz/fotiva/internal/studio"
	"github.com/nadzzz/fotiva/internal/transcriber"
	localstt "github.com/nadzzz/fotiva/internal/transcriber/local"
	openaistt "github.com/nadzzz/fotiva/internal/transcriber/openai"
	"github.com/nadzzz/fotiva/internal/transport"
	grpctransport "github.com/nadzzz/fotiva/internal/transport/grpc"
	httptransport "github.com/nadzzz/fotiva/internal/transport/http"
	mqtttransport "github.com/nadzzz/fotiva/internal/transport/mqtt"
	"github.com/nadzzz/fotiva/internal/tts"
	"github.com/nadzzz/fotiva/internal/tts/piper"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	showVersion := pflag.Bool("version", false, "print version and exit")
	configFile := pflag.StringP("config", "c", "", "path to config file (e.g. configs/fotiva.yaml)")
	envFile := pflag.String("env-file", ".env", "dotenv file loaded before the configuration")
	pflag.Parse()

	if *showVersion {
		fmt.Printf("fotiva %s\n", version)
		os.Exit(0)
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load env file", "file", *envFile, "error", err)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logCloser := config.SetupLogging(cfg.Logging)
	defer logCloser.Close()
	slog.Info("fotiva starting", "version", version)

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		slog.Error("fotiva failed", "error", err)
		cancel()
		logCloser.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	healthServer := health.New(cfg.Server.HealthPort)

	// Speech-to-text.
	var stt transcriber.Transcriber
	switch cfg.Transcriber.Backend {
	case "openai":
		stt = openaistt.New(cfg.Transcriber.OpenAI, cfg.Transcriber.Language)
		slog.Info("using OpenAI transcriber", "model", cfg.Transcriber.OpenAI.Model)
	case "local":
		stt = localstt.New(cfg.Transcriber.Local, cfg.Transcriber.Language)
		slog.Info("using local transcriber", "endpoint", cfg.Transcriber.Local.Endpoint)
	default:
		slog.Info("no transcriber configured, audio utterances are rejected")
	}
	if stt != nil {
		defer stt.Close()
	}

	// Text-to-speech.
	var synth tts.Synthesizer
	if cfg.TTS.Enabled {
		synth = piper.New(cfg.TTS.Piper)
		defer synth.Close()
		slog.Info("using piper synthesizer", "endpoint", cfg.TTS.Piper.Endpoint, "voice", cfg.TTS.Piper.Voice)
	}

	// Dialogue state.
	var sessions session.Store
	switch cfg.Session.Backend {
	case "redis":
		rs, err := session.NewRedis(ctx, cfg.Session.RedisURL, cfg.Session.DraftTTL)
		if err != nil {
			return err
		}
		defer rs.Close()
		healthServer.AddCheck("redis", rs.Ping)
		sessions = rs
		slog.Info("using redis session store")
	default:
		sessions = session.NewMemory(cfg.Session.DraftTTL)
		slog.Info("using in-memory session store")
	}

	backend := studio.New(cfg.Studio)

	var (
		transports []transport.Transport
		httpT      *httptransport.Transport
	)
	if cfg.Transports.GRPC.Enabled {
		transports = append(transports, grpctransport.New(cfg.Transports.GRPC.Port))
	}
	if cfg.Transports.HTTP.Enabled {
		httpT = httptransport.New(cfg.Transports.HTTP.Port, nil)
		transports = append(transports, httpT)
	}
	if cfg.Transports.MQTT.Enabled {
		transports = append(transports, mqtttransport.New(cfg.Transports.MQTT))
	}
	if len(transports) == 0 {
		return errors.New("no transports enabled, enable at least one in config")
	}

	dispatcher := dispatch.New(dispatch.Options{
		Backend:           backend,
		Sessions:          sessions,
		Transcriber:       stt,
		Synthesizer:       synth,
		Transports:        transports,
		NavigationTargets: cfg.Assistant.NavigationTargets,
		NavigationDelay:   cfg.Assistant.NavigationDelay,
		DraftTTL:          cfg.Session.DraftTTL,
		EventStatus:       cfg.Assistant.EventStatus,
		Language:          cfg.Transcriber.Language,
	})
	if httpT != nil {
		httpT.SetSessions(dispatcher)
	}

	go func() {
		if err := healthServer.ListenAndServe(ctx); err != nil {
			slog.Error("health server failed", "error", err)
		}
	}()

	var wg sync.WaitGroup
	for _, t := range transports {
		wg.Add(1)
		go func(t transport.Transport) {
			defer wg.Done()
			slog.Info("starting transport", "name", t.Name())
			if err := t.Listen(ctx, dispatcher.Handle); err != nil {
				slog.Error("transport failed", "name", t.Name(), "error", err)
			}
		}(t)
	}

	healthServer.SetReady(true)
	slog.Info("fotiva ready",
		"transports", len(transports),
		"health_port", cfg.Server.HealthPort,
		"studio", cfg.Studio.BaseURL)

	<-ctx.Done()
	slog.Info("shutdown signal received, draining...")
	healthServer.SetReady(false)

	for _, t := range transports {
		if err := t.Close(); err != nil {
			slog.Error("transport close error", "name", t.Name(), "error", err)
		}
	}

	wg.Wait()
	slog.Info("fotiva stopped")
	return nil
}
