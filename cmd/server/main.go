package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voiceloop/turn-engine/internal/config"
	"github.com/voiceloop/turn-engine/internal/faq"
	"github.com/voiceloop/turn-engine/internal/observability"
	"github.com/voiceloop/turn-engine/internal/session"
	"github.com/voiceloop/turn-engine/internal/verify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before the logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Int("sample_rate", cfg.SampleRate).
		Bool("barge_in", cfg.BargeInEnabled).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Turn Engine Service starting")

	faqStore, err := faq.LoadStore(cfg.FAQPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.FAQPath).Msg("FAQ store unavailable, continuing without it")
		faqStore = faq.NewStore(nil)
	} else {
		logger.Info().Int("entries", faqStore.Len()).Msg("FAQ store loaded")
	}

	users, err := verify.LoadDirectory(cfg.UsersPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.UsersPath).Msg("User directory unavailable, verification will fail closed")
		users = verify.NewDirectory(nil)
	} else {
		logger.Info().Int("users", users.Len()).Msg("User directory loaded")
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/session", session.Handler(cfg, faqStore, users))
	mux.HandleFunc("/health", observability.HealthCheckHandler())

	mux.HandleFunc("/ready", observability.ReadinessHandler(map[string]observability.HealthCheckFunc{
		"deepgram": func(ctx context.Context) (bool, error) {
			if cfg.DeepgramAPIKey == "" {
				return false, fmt.Errorf("DEEPGRAM_API_KEY not configured")
			}
			return true, nil
		},
		"cartesia": func(ctx context.Context) (bool, error) {
			if cfg.CartesiaAPIKey == "" {
				return false, fmt.Errorf("CARTESIA_API_KEY not configured")
			}
			return true, nil
		},
		"users": func(ctx context.Context) (bool, error) {
			if users.Len() == 0 {
				return false, fmt.Errorf("user directory is empty")
			}
			return true, nil
		},
	}))

	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", fmt.Sprintf("ws://localhost:%s/session", cfg.Port)).
			Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}
