// Package config loads service configuration from defaults, an optional TOML
// file, an optional .env file and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Provider names accepted by the STT, LLM and decoder settings.
const (
	ProviderOpenAI  = "openai"
	ProviderGoogle  = "google"
	ProviderMock    = "mock"
	DecoderNative   = "native"
	DecoderFFprobe  = "ffprobe"
	defaultMaxBytes = 25 * 1024 * 1024
)

type Config struct {
	Service       ServiceConfig       `toml:"service"`
	STT           STTConfig           `toml:"stt"`
	LLM           LLMConfig           `toml:"llm"`
	Audio         AudioConfig         `toml:"audio"`
	OpenAI        OpenAIConfig        `toml:"openai"`
	Kafka         KafkaConfig         `toml:"kafka"`
	Observability ObservabilityConfig `toml:"observability"`
}

type ServiceConfig struct {
	Principal       string        `toml:"principal"`
	HTTPPort        string        `toml:"http_port"`
	GRPCPort        string        `toml:"grpc_port"`
	MetricsPort     string        `toml:"metrics_port"`
	MaxUploadBytes  int64         `toml:"max_upload_bytes"`
	TempDir         string        `toml:"temp_dir"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

type STTConfig struct {
	Provider     string        `toml:"provider"`
	Model        string        `toml:"model"`
	LanguageCode string        `toml:"language_code"`
	Timeout      time.Duration `toml:"timeout"`
}

type LLMConfig struct {
	Provider string        `toml:"provider"`
	Model    string        `toml:"model"`
	Timeout  time.Duration `toml:"timeout"`
}

type AudioConfig struct {
	Decoder     string `toml:"decoder"`
	FFprobePath string `toml:"ffprobe_path"`
}

type OpenAIConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

type KafkaConfig struct {
	Enabled        bool     `toml:"enabled"`
	Brokers        []string `toml:"brokers"`
	TopicCompleted string   `toml:"topic_completed"`
	TopicFailed    string   `toml:"topic_failed"`
	Principal      string   `toml:"principal"`
}

type ObservabilityConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Principal:       "svc-speech-coach",
			HTTPPort:        "8080",
			GRPCPort:        "50051",
			MetricsPort:     "9090",
			MaxUploadBytes:  defaultMaxBytes,
			ShutdownTimeout: 10 * time.Second,
		},
		STT: STTConfig{
			Provider:     ProviderOpenAI,
			Model:        "whisper-1",
			LanguageCode: "en-US",
			Timeout:      2 * time.Minute,
		},
		LLM: LLMConfig{
			Provider: ProviderOpenAI,
			Model:    "gpt-4o",
			Timeout:  2 * time.Minute,
		},
		Audio: AudioConfig{
			Decoder:     DecoderNative,
			FFprobePath: "ffprobe",
		},
		Kafka: KafkaConfig{
			TopicCompleted: "speech.analysis.completed",
			TopicFailed:    "speech.analysis.failed",
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}

// Load builds the configuration. CONFIG_FILE points at an optional TOML file,
// DOTENV_PATH (default ".env") at an optional env file whose values never
// override variables already present in the environment.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode config file %s: %w", path, err)
		}
	}

	if err := loadDotEnv(envOrDefault("DOTENV_PATH", ".env")); err != nil {
		return nil, err
	}

	cfg.Service.Principal = envOrDefault("SERVICE_PRINCIPAL", cfg.Service.Principal)
	cfg.Service.HTTPPort = envOrDefault("HTTP_PORT", cfg.Service.HTTPPort)
	cfg.Service.GRPCPort = envOrDefault("GRPC_PORT", cfg.Service.GRPCPort)
	cfg.Service.MetricsPort = envOrDefault("METRICS_PORT", cfg.Service.MetricsPort)
	cfg.Service.MaxUploadBytes = envOrDefaultInt64("MAX_UPLOAD_BYTES", cfg.Service.MaxUploadBytes)
	cfg.Service.TempDir = envOrDefault("AUDIO_TEMP_DIR", cfg.Service.TempDir)
	cfg.Service.ShutdownTimeout = envOrDefaultDuration("SHUTDOWN_TIMEOUT", cfg.Service.ShutdownTimeout)

	cfg.STT.Provider = strings.ToLower(envOrDefault("STT_PROVIDER", cfg.STT.Provider))
	cfg.STT.Model = envOrDefault("STT_MODEL", cfg.STT.Model)
	cfg.STT.LanguageCode = envOrDefault("STT_LANGUAGE_CODE", cfg.STT.LanguageCode)
	cfg.STT.Timeout = envOrDefaultDuration("STT_TIMEOUT", cfg.STT.Timeout)

	cfg.LLM.Provider = strings.ToLower(envOrDefault("LLM_PROVIDER", cfg.LLM.Provider))
	cfg.LLM.Model = envOrDefault("LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.Timeout = envOrDefaultDuration("LLM_TIMEOUT", cfg.LLM.Timeout)

	cfg.Audio.Decoder = strings.ToLower(envOrDefault("AUDIO_DECODER", cfg.Audio.Decoder))
	cfg.Audio.FFprobePath = envOrDefault("FFPROBE_PATH", cfg.Audio.FFprobePath)

	cfg.OpenAI.APIKey = envOrDefault("OPENAI_API_KEY", cfg.OpenAI.APIKey)
	cfg.OpenAI.BaseURL = envOrDefault("OPENAI_BASE_URL", cfg.OpenAI.BaseURL)

	cfg.Kafka.Enabled = envOrDefaultBool("KAFKA_ENABLED", cfg.Kafka.Enabled)
	cfg.Kafka.Brokers = envOrDefaultList("KAFKA_BROKERS", cfg.Kafka.Brokers)
	cfg.Kafka.TopicCompleted = envOrDefault("KAFKA_TOPIC_COMPLETED", cfg.Kafka.TopicCompleted)
	cfg.Kafka.TopicFailed = envOrDefault("KAFKA_TOPIC_FAILED", cfg.Kafka.TopicFailed)
	cfg.Kafka.Principal = envOrDefault("KAFKA_PRINCIPAL", cfg.Kafka.Principal)
	if cfg.Kafka.Principal == "" {
		cfg.Kafka.Principal = cfg.Service.Principal
	}

	cfg.Observability.LogLevel = strings.ToLower(envOrDefault("LOG_LEVEL", cfg.Observability.LogLevel))
	cfg.Observability.LogFormat = strings.ToLower(envOrDefault("LOG_FORMAT", cfg.Observability.LogFormat))

	return cfg, nil
}

// Validate reports settings that would make the service unusable.
func (c *Config) Validate() error {
	switch c.STT.Provider {
	case ProviderOpenAI, ProviderGoogle, ProviderMock:
	default:
		return fmt.Errorf("unknown STT provider %q", c.STT.Provider)
	}
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderMock:
	default:
		return fmt.Errorf("unknown LLM provider %q", c.LLM.Provider)
	}
	switch c.Audio.Decoder {
	case DecoderNative, DecoderFFprobe:
	default:
		return fmt.Errorf("unknown audio decoder %q", c.Audio.Decoder)
	}
	if c.UsesOpenAI() && c.OpenAI.APIKey == "" {
		return errors.New("OPENAI_API_KEY is required when an openai provider is selected")
	}
	if c.Service.MaxUploadBytes <= 0 {
		return errors.New("max upload bytes must be positive")
	}
	return nil
}

// UsesOpenAI reports whether either provider needs the OpenAI client.
func (c *Config) UsesOpenAI() bool {
	return c.STT.Provider == ProviderOpenAI || c.LLM.Provider == ProviderOpenAI
}

func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envOrDefaultList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
