package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the process-wide configuration, loaded once at startup.
type Config struct {
	Service       ServiceConfig
	Engine        EngineConfig
	Download      DownloadConfig
	Security      SecurityConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// ServiceConfig identifies the worker and its listen ports.
type ServiceConfig struct {
	Principal   string
	HTTPPort    string
	MetricsPort string
}

// EngineConfig selects and parameterizes the transcription engine.
type EngineConfig struct {
	Provider        string // mock, whisper, openai, google
	WhisperEndpoint string
	WhisperModel    string
	OpenAIModel     string
	DefaultLanguage string
	DefaultTask     string
}

// DownloadConfig bounds the media fetch step.
type DownloadConfig struct {
	Timeout   time.Duration
	MaxBytes  int64 // 0 = unlimited
	GuardDial bool  // re-validate resolved IPs at connect time
}

// SecurityConfig carries operator extensions to the URL allow-list,
// comma-separated.
type SecurityConfig struct {
	AllowedDomains  string
	AllowedSuffixes string
}

// KafkaConfig configures the completion event publisher.
type KafkaConfig struct {
	Enabled   bool
	Brokers   []string
	Topic     string
	Principal string
}

// ObservabilityConfig configures logging.
type ObservabilityConfig struct {
	LogLevel string
}

// Load reads configuration from the environment, falling back to defaults
// on missing or unparseable values.
func Load() *Config {
	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-transcription-worker")

	return &Config{
		Service: ServiceConfig{
			Principal:   principal,
			HTTPPort:    envOrDefault("HTTP_PORT", "8080"),
			MetricsPort: envOrDefault("METRICS_PORT", "9090"),
		},
		Engine: EngineConfig{
			Provider:        envOrDefault("ENGINE_PROVIDER", "mock"),
			WhisperEndpoint: envOrDefault("WHISPER_ENDPOINT", "http://localhost:8000"),
			WhisperModel:    envOrDefault("WHISPER_MODEL", "large-v3"),
			OpenAIModel:     envOrDefault("OPENAI_MODEL", "whisper-1"),
			DefaultLanguage: envOrDefault("DEFAULT_LANGUAGE", "es"),
			DefaultTask:     envOrDefault("DEFAULT_TASK", "transcribe"),
		},
		Download: DownloadConfig{
			Timeout:   envOrDefaultDuration("DOWNLOAD_TIMEOUT", 300*time.Second),
			MaxBytes:  envOrDefaultInt64("DOWNLOAD_MAX_BYTES", 0),
			GuardDial: envOrDefaultBool("DOWNLOAD_GUARD_DIAL", true),
		},
		Security: SecurityConfig{
			AllowedDomains:  os.Getenv("ALLOWED_AUDIO_DOMAINS"),
			AllowedSuffixes: os.Getenv("ALLOWED_AUDIO_SUFFIXES"),
		},
		Kafka: KafkaConfig{
			Enabled:   envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:   envOrDefaultList("KAFKA_BROKERS", nil),
			Topic:     envOrDefault("KAFKA_TOPIC_COMPLETED", "transcription.completed"),
			Principal: envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Observability: ObservabilityConfig{
			LogLevel: envOrDefault("LOG_LEVEL", "info"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		return def
	}
	return parsed
}

func envOrDefaultInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return parsed
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
