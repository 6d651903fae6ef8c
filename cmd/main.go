package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	goopenai "github.com/sashabaranov/go-openai"
	"google.golang.org/grpc"

	grpcapi "ai-speech-coach-service/internal/api/grpc"
	"ai-speech-coach-service/internal/app"
	"ai-speech-coach-service/internal/config"
	"ai-speech-coach-service/internal/events"
	httpapi "ai-speech-coach-service/internal/http"
	"ai-speech-coach-service/internal/observability"
	"ai-speech-coach-service/internal/observability/metrics"
	"ai-speech-coach-service/internal/service/analysis"
	"ai-speech-coach-service/internal/service/audio"
	"ai-speech-coach-service/internal/service/feedback"
	"ai-speech-coach-service/internal/service/llm"
	llmmock "ai-speech-coach-service/internal/service/llm/mock"
	llmopenai "ai-speech-coach-service/internal/service/llm/openai"
	"ai-speech-coach-service/internal/service/stt"
	sttgoogle "ai-speech-coach-service/internal/service/stt/google"
	sttmock "ai-speech-coach-service/internal/service/stt/mock"
	sttopenai "ai-speech-coach-service/internal/service/stt/openai"
	"ai-speech-coach-service/internal/service/transcription"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	application := app.New(cfg)
	ctx := context.Background()

	var openaiClient *goopenai.Client
	if cfg.UsesOpenAI() {
		oc := goopenai.DefaultConfig(cfg.OpenAI.APIKey)
		if cfg.OpenAI.BaseURL != "" {
			oc.BaseURL = cfg.OpenAI.BaseURL
		}
		openaiClient = goopenai.NewClientWithConfig(oc)
	}

	adapter, closeAdapter, err := newSTTAdapter(ctx, cfg, openaiClient)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.STT.Provider).Msg("Failed to create STT adapter")
	}
	defer closeAdapter()

	transcriber := transcription.NewService(adapter, newDecoder(cfg), transcription.Options{
		TempDir: cfg.Service.TempDir,
		Timeout: cfg.STT.Timeout,
	}, metrics.DefaultMetrics)

	generator := feedback.NewGenerator(newLLMClient(cfg, openaiClient), feedback.Options{
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	}, metrics.DefaultMetrics)

	// Kafka publisher for analysis outcome events
	publisher := events.New(&events.Config{
		Enabled:        cfg.Kafka.Enabled,
		Brokers:        cfg.Kafka.Brokers,
		TopicCompleted: cfg.Kafka.TopicCompleted,
		TopicFailed:    cfg.Kafka.TopicFailed,
		Principal:      cfg.Kafka.Principal,
	}, metrics.DefaultMetrics)
	defer publisher.Close()

	analyzer := analysis.NewService(transcriber, generator, publisher, nil, metrics.DefaultMetrics)

	obs := observability.NewServer(":" + cfg.Service.MetricsPort)
	obs.Start()

	httpServer := &http.Server{
		Addr:              ":" + cfg.Service.HTTPPort,
		Handler:           httpapi.NewRouter(application, analyzer),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("Starting HTTP API server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP API server failed")
		}
	}()

	lis, err := net.Listen("tcp", ":"+cfg.Service.GRPCPort)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to listen for gRPC")
	}
	// Audio travels base64 encoded inside the request message.
	maxMsg := int(cfg.Service.MaxUploadBytes)*4/3 + 1<<20
	grpcServer := grpcapi.New(analyzer, metrics.DefaultMetrics, grpc.MaxRecvMsgSize(maxMsg))
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatal().Err(err).Msg("gRPC serve failed")
		}
	}()

	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("Application start failed")
	}
	obs.SetReady(true)
	grpcServer.SetServing(true)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	application.Shutdown()
	obs.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Service.ShutdownTimeout)
	defer cancel()

	grpcServer.GracefulStop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP API server shutdown error")
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Observability server shutdown error")
	}
}

func newSTTAdapter(ctx context.Context, cfg *config.Config, client *goopenai.Client) (stt.Adapter, func(), error) {
	noop := func() {}
	switch cfg.STT.Provider {
	case config.ProviderOpenAI:
		return sttopenai.New(client, cfg.STT.Model), noop, nil
	case config.ProviderGoogle:
		gcfg := sttgoogle.DefaultConfig()
		gcfg.LanguageCode = cfg.STT.LanguageCode
		a, err := sttgoogle.New(ctx, gcfg)
		if err != nil {
			return nil, noop, err
		}
		log.Warn().Msg("Google STT accepts wav uploads only; mp3 and m4a are rejected as invalid input")
		return a, func() { _ = a.Close() }, nil
	case config.ProviderMock:
		log.Warn().Msg("Using mock STT adapter")
		return sttmock.New(), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown STT provider %q", cfg.STT.Provider)
	}
}

func newDecoder(cfg *config.Config) audio.Decoder {
	if cfg.Audio.Decoder == config.DecoderFFprobe {
		return audio.NewFFprobeDecoder(cfg.Audio.FFprobePath)
	}
	return audio.NewNativeDecoder()
}

func newLLMClient(cfg *config.Config, client *goopenai.Client) llm.Client {
	if cfg.LLM.Provider == config.ProviderMock {
		log.Warn().Msg("Using mock LLM client")
		return llmmock.EchoClient{}
	}
	return llmopenai.New(client)
}
