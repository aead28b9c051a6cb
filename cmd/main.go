package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"audio-transcription-worker/internal/app"
	"audio-transcription-worker/internal/config"
	"audio-transcription-worker/internal/engine"
	"audio-transcription-worker/internal/engine/google"
	"audio-transcription-worker/internal/engine/mock"
	"audio-transcription-worker/internal/engine/openai"
	"audio-transcription-worker/internal/engine/whisper"
	"audio-transcription-worker/internal/events"
	"audio-transcription-worker/internal/fetch"
	workerhttp "audio-transcription-worker/internal/http"
	"audio-transcription-worker/internal/observability"
	"audio-transcription-worker/internal/security"
	"audio-transcription-worker/internal/service/transcription"
	"audio-transcription-worker/internal/transcribe"
)

func main() {
	// Local development convenience; production uses real env vars.
	_ = godotenv.Load()

	cfg := config.Load()
	application := app.New(cfg)
	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("Application startup failed")
	}

	eng, err := buildEngine(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.Engine.Provider).Msg("Engine initialization failed")
	}

	allowList := security.NewAllowList(cfg.Security.AllowedDomains, cfg.Security.AllowedSuffixes)
	validator := security.NewValidator(allowList)
	log.Info().
		Strs("domains", allowList.Domains()).
		Strs("suffixes", allowList.Suffixes()).
		Msg("URL allow-list loaded")

	fetcher := fetch.New(fetch.Config{
		Timeout:   cfg.Download.Timeout,
		MaxBytes:  cfg.Download.MaxBytes,
		GuardDial: cfg.Download.GuardDial,
	})

	publisher := events.New(&events.Config{
		Enabled:   cfg.Kafka.Enabled,
		Brokers:   cfg.Kafka.Brokers,
		Topic:     cfg.Kafka.Topic,
		Principal: cfg.Kafka.Principal,
	})
	defer publisher.Close()

	handler := transcription.NewHandler(
		validator,
		fetcher,
		transcribe.NewOrchestrator(eng),
		publisher,
		transcription.Defaults{
			Language: cfg.Engine.DefaultLanguage,
			Task:     cfg.Engine.DefaultTask,
		},
	)

	obsServer := observability.NewServer(":" + cfg.Service.MetricsPort)
	obsServer.Start()

	apiServer := &http.Server{
		Addr:         ":" + cfg.Service.HTTPPort,
		Handler:      workerhttp.NewRouter(handler),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Download.Timeout + 60*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", apiServer.Addr).Msg("Audio transcription worker listening")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP serve failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	if err := obsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Observability server shutdown error")
	}
	application.Shutdown()
}

// buildEngine selects the transcription engine from configuration.
func buildEngine(ctx context.Context, cfg *config.Config) (engine.Engine, error) {
	switch cfg.Engine.Provider {
	case "mock":
		return mock.New(), nil
	case "whisper":
		return whisper.New(cfg.Engine.WhisperEndpoint, cfg.Engine.WhisperModel), nil
	case "openai":
		return openai.New(cfg.Engine.OpenAIModel), nil
	case "google":
		return google.New(ctx)
	default:
		return nil, fmt.Errorf("unknown engine provider: %q", cfg.Engine.Provider)
	}
}
