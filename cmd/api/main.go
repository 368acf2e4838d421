package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/hearthly/backend/internal/config"
	"github.com/zhouzirui/hearthly/backend/internal/handler"
	"github.com/zhouzirui/hearthly/backend/internal/model/voice"
	"github.com/zhouzirui/hearthly/backend/internal/observability"
	"github.com/zhouzirui/hearthly/backend/internal/service/ai"
	"github.com/zhouzirui/hearthly/backend/internal/service/audio"
	"github.com/zhouzirui/hearthly/backend/internal/service/pipeline"
	"github.com/zhouzirui/hearthly/backend/internal/service/provider"
	"github.com/zhouzirui/hearthly/backend/internal/service/speech"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := observability.InitLogger(cfg.Log.Level, cfg.Log.Pretty)
	if envErr != nil {
		logger.Warn().Err(envErr).Msg("failed to load .env file, continuing with system environment variables only")
	}
	if cfg.OpenAI.APIKey == "" {
		logger.Warn().Msg("OPENAI_API_KEY 未配置，语音请求将返回 missing_credential")
	}

	transcoder := audio.NewTranscoder(cfg.Audio.Transcoder(), nil, observability.WithComponent(logger, "transcoder"))
	speechSvc := speech.NewService(cfg.OpenAI.Speech(), logger)

	chatModel, err := ai.NewChatModel(ctx, cfg.AI, cfg.OpenAI)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.AI.Provider).Msg("failed to create chat model")
	}
	aiSvc := ai.NewService(chatModel, cfg.AI.Temperature, logger)
	logger.Info().Str("provider", cfg.AI.Provider).Msg("AI service initialized")

	voicePipeline := pipeline.New(pipeline.Dependencies{
		Normalizer:  pipeline.FromTranscoder(transcoder),
		Transcriber: speechSvc,
		Generator:   aiSvc,
		Synthesizer: speechSvc,
	}, logger)

	catalog := ai.Catalog(func(lang voice.Language) string {
		v, err := speech.VoiceFor(lang)
		if err != nil {
			return ""
		}
		return string(v)
	})

	router := handler.NewRouter(handler.Deps{
		Processor:      voicePipeline,
		Catalog:        catalog,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		RequestTimeout: cfg.Server.RequestTimeout,
		Readiness: map[string]observability.HealthCheckFunc{
			"ffmpeg": func(context.Context) error {
				_, err := exec.LookPath(cfg.Audio.FFmpegPath)
				return err
			},
			"openai": func(context.Context) error {
				return provider.RequireKey("readiness", cfg.OpenAI.APIKey)
			},
		},
		Logger: logger,
	})

	startServer(ctx, logger, cfg.Server, router)
}

func startServer(ctx context.Context, logger zerolog.Logger, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info().Str("addr", addr).Msg("Hearthly backend listening")
	if err := runServer(ctx, srv); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
	logger.Info().Msg("server stopped")
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
