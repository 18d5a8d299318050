package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"execsummary-backend/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	Env             string
	DatabaseURL     string

	ObjectStoreType  string
	LocalStoreDir    string
	AWSRegion        string
	S3Bucket         string
	S3Prefix         string
	SSEKMSKeyID      string
	ResumePrefix     string
	ScreenshotPrefix string

	LLMProvider   string
	LLMModel      string
	LLMBaseURL    string
	LLMAPIKey     string
	LLMTimeout    time.Duration
	LLMMaxRetries int

	RabbitMQURL    string
	EventsExchange string

	SynthesisRatePerMinute float64
	SynthesisBurst         int

	ExtractTimeout    time.Duration
	ExtractRetries    int
	ExtractRetryDelay time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	if files := loadEnvFiles(".env", "cmd/.env"); len(files) > 0 {
		telemetry.Info("config.env_files_loaded", map[string]any{"files": files})
	}

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		telemetry.Warn("config.database_url_missing", map[string]any{"env": env})
	}

	provider := normalizeProvider(getEnv("LLM_PROVIDER", "openai"))

	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		Env:             env,
		DatabaseURL:     dbURL,

		ObjectStoreType:  normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:    getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:        getEnv("AWS_REGION", ""),
		S3Bucket:         getEnv("S3_BUCKET", ""),
		S3Prefix:         getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:      getEnv("SSE_KMS_KEY_ID", ""),
		ResumePrefix:     getEnv("RESUME_BUCKET_PREFIX", "resumes"),
		ScreenshotPrefix: getEnv("SCREENSHOT_BUCKET_PREFIX", "screenshots"),

		LLMProvider:   provider,
		LLMModel:      getEnv("LLM_MODEL", defaultModel(provider)),
		LLMBaseURL:    getEnv("LLM_BASE_URL", defaultBaseURL(provider)),
		LLMAPIKey:     apiKeyFor(provider),
		LLMTimeout:    time.Duration(getEnvInt("LLM_TIMEOUT_SECONDS", 120)) * time.Second,
		LLMMaxRetries: getEnvInt("LLM_MAX_RETRIES", 0),

		RabbitMQURL:    getEnv("RABBITMQ_URL", ""),
		EventsExchange: getEnv("EVENTS_EXCHANGE", "candidate_updates"),

		SynthesisRatePerMinute: getEnvFloat("SYNTHESIS_RATE_PER_MINUTE", 20),
		SynthesisBurst:         getEnvInt("SYNTHESIS_BURST", 5),

		ExtractTimeout:    time.Duration(getEnvInt("EXTRACT_TIMEOUT_SECONDS", 30)) * time.Second,
		ExtractRetries:    getEnvInt("EXTRACT_RETRIES", 2),
		ExtractRetryDelay: getEnvDuration("EXTRACT_RETRY_DELAY", time.Second),
	}
}

// IsDevLike reports whether env allows in-memory fallbacks.
func IsDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val < 0 {
		telemetry.Warn("config.invalid_int", map[string]any{"key": key, "value": raw})
		return def
	}
	return val
}

func getEnvFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil || val < 0 {
		telemetry.Warn("config.invalid_float", map[string]any{"key": key, "value": raw})
		return def
	}
	return val
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil || val < 0 {
		telemetry.Warn("config.invalid_duration", map[string]any{"key": key, "value": raw})
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	case "openrouter":
		return "openrouter"
	case "gemini", "google":
		return "gemini"
	default:
		return "none"
	}
}

func defaultModel(provider string) string {
	switch provider {
	case "openai":
		return "gpt-4o-mini"
	case "openrouter":
		return "openai/gpt-4o-mini"
	case "gemini":
		return "gemini-2.5-flash"
	default:
		return ""
	}
}

func defaultBaseURL(provider string) string {
	switch provider {
	case "openrouter":
		return "https://openrouter.ai/api/v1"
	case "openai":
		return "https://api.openai.com/v1"
	default:
		return ""
	}
}

func apiKeyFor(provider string) string {
	switch provider {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "openrouter":
		return os.Getenv("OPENROUTER_API_KEY")
	case "gemini":
		return os.Getenv("GEMINI_API_KEY")
	default:
		return ""
	}
}
