package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"nexa/internal/observability"
)

type Config struct {
	Port         string
	Env          string
	LogLevel     string
	LogFormat    string
	StageTimeout time.Duration
	CORSOrigins  []string
	LLM          LLMConfig
	Auth         AuthConfig
	Whop         WhopConfig
	Tracing      observability.TracingConfig
}

type LLMConfig struct {
	// Provider is "gemini", "openai" or "fake". The fake provider serves
	// canned responses and never touches the network.
	Provider      string
	APIKey        string
	RefineModel   string
	SpecModel     string
	GenerateModel string
	// OpenAI-compatible endpoint; one model serves every stage.
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	MaxAttempts   int
	BackoffBase   time.Duration
	RPS           float64
	Burst         int
}

type AuthConfig struct {
	Required bool
	// PublicKeyPEM verifies host platform user tokens.
	PublicKeyPEM string
	AppID        string
	CacheSize    int
}

type WhopConfig struct {
	APIKey  string
	BaseURL string
	PlanID  string
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderFake   = "fake"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", ":8080")
	v.SetDefault("APP_ENV", "local")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("STAGE_TIMEOUT", "5m")
	v.SetDefault("LLM_PROVIDER", ProviderGemini)
	v.SetDefault("LLM_MAX_ATTEMPTS", 3)
	v.SetDefault("LLM_BACKOFF_BASE", "1s")
	v.SetDefault("LLM_RPS", 0)
	v.SetDefault("LLM_BURST", 1)
	v.SetDefault("AUTH_REQUIRED", false)
	v.SetDefault("AUTH_CACHE_SIZE", 1024)
	v.SetDefault("WHOP_API_BASE_URL", "https://api.whop.com/api/v1")
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_SERVICE_NAME", "nexa-gateway")
	v.SetDefault("OTEL_SAMPLER_RATIO", 1.0)
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
}

// Load reads .env (when present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	cfg := FromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// FromViper builds a Config from an already populated viper instance.
// Defaults are applied to v first.
func FromViper(v *viper.Viper) *Config {
	setDefaults(v)
	env := strings.TrimSpace(v.GetString("APP_ENV"))
	return &Config{
		Port:         normalizePort(v.GetString("PORT")),
		Env:          env,
		LogLevel:     v.GetString("LOG_LEVEL"),
		LogFormat:    v.GetString("LOG_FORMAT"),
		StageTimeout: v.GetDuration("STAGE_TIMEOUT"),
		CORSOrigins:  splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		LLM: LLMConfig{
			Provider:      strings.ToLower(strings.TrimSpace(v.GetString("LLM_PROVIDER"))),
			APIKey:        strings.TrimSpace(v.GetString("GEMINI_API_KEY")),
			RefineModel:   v.GetString("GEMINI_REFINE_MODEL"),
			SpecModel:     v.GetString("GEMINI_SPEC_MODEL"),
			GenerateModel: v.GetString("GEMINI_GENERATE_MODEL"),
			OpenAIAPIKey:  strings.TrimSpace(v.GetString("OPENAI_API_KEY")),
			OpenAIBaseURL: strings.TrimSpace(v.GetString("OPENAI_BASE_URL")),
			OpenAIModel:   strings.TrimSpace(v.GetString("OPENAI_MODEL")),
			MaxAttempts:   v.GetInt("LLM_MAX_ATTEMPTS"),
			BackoffBase:   v.GetDuration("LLM_BACKOFF_BASE"),
			RPS:           v.GetFloat64("LLM_RPS"),
			Burst:         v.GetInt("LLM_BURST"),
		},
		Auth: AuthConfig{
			Required:     v.GetBool("AUTH_REQUIRED"),
			PublicKeyPEM: unescapeNewlines(v.GetString("WHOP_TOKEN_PUBLIC_KEY")),
			AppID:        strings.TrimSpace(v.GetString("WHOP_APP_ID")),
			CacheSize:    v.GetInt("AUTH_CACHE_SIZE"),
		},
		Whop: WhopConfig{
			APIKey:  strings.TrimSpace(v.GetString("WHOP_API_KEY")),
			BaseURL: strings.TrimRight(strings.TrimSpace(v.GetString("WHOP_API_BASE_URL")), "/"),
			PlanID:  strings.TrimSpace(v.GetString("WHOP_PLAN_ID")),
		},
		Tracing: observability.TracingConfig{
			Enabled:     v.GetBool("OTEL_ENABLED"),
			ServiceName: v.GetString("OTEL_SERVICE_NAME"),
			Environment: env,
			SampleRatio: v.GetFloat64("OTEL_SAMPLER_RATIO"),
			Endpoint:    strings.TrimSpace(v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT")),
			Insecure:    v.GetBool("OTEL_EXPORTER_OTLP_INSECURE"),
		},
	}
}

// Validate rejects combinations the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	switch c.LLM.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderFake:
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER must be one of %q, %q, %q, got %q", ProviderGemini, ProviderOpenAI, ProviderFake, c.LLM.Provider))
	}
	if c.LLM.MaxAttempts < 1 {
		errs = append(errs, errors.New("LLM_MAX_ATTEMPTS must be at least 1"))
	}
	if c.LLM.BackoffBase < 0 {
		errs = append(errs, errors.New("LLM_BACKOFF_BASE must not be negative"))
	}
	if c.StageTimeout <= 0 {
		errs = append(errs, errors.New("STAGE_TIMEOUT must be positive"))
	}
	if c.Auth.Required && c.Auth.PublicKeyPEM == "" {
		errs = append(errs, errors.New("AUTH_REQUIRED needs WHOP_TOKEN_PUBLIC_KEY"))
	}
	if c.Auth.CacheSize < 1 {
		errs = append(errs, errors.New("AUTH_CACHE_SIZE must be at least 1"))
	}
	return errors.Join(errs...)
}

func normalizePort(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || strings.Contains(p, ":") {
		return p
	}
	return ":" + p
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// unescapeNewlines lets a PEM block live on one line in .env files.
func unescapeNewlines(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `\n`, "\n"))
}
