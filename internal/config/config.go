package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AuthConfig struct {
	AccessSecret string
}

type AIConfig struct {
	Provider        string // "openai" or "ollama"
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	ExtractionModel string
	QuoteModel      string
	OllamaBaseURL   string
	OllamaModel     string
	MaxConcurrent   int
}

type PredictorConfig struct {
	ModelPath  string
	GridSearch bool
}

type FilesConfig struct {
	UploadDir     string
	MaxUploadSize int64
}

type RateLimitConfig struct {
	Enabled  bool
	Requests int
	WindowS  int
}

type QuotesConfig struct {
	ValidityDays int
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	AI          AIConfig
	Predictor   PredictorConfig
	Files       FilesConfig
	RateLimit   RateLimitConfig
	Quotes      QuotesConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		AI: AIConfig{
			Provider:        strings.ToLower(v.GetString("AI_PROVIDER")),
			OpenAIAPIKey:    v.GetString("OPENAI_API_KEY"),
			OpenAIBaseURL:   v.GetString("OPENAI_BASE_URL"),
			ExtractionModel: v.GetString("OPENAI_EXTRACTION_MODEL"),
			QuoteModel:      v.GetString("OPENAI_QUOTE_MODEL"),
			OllamaBaseURL:   v.GetString("OLLAMA_BASE_URL"),
			OllamaModel:     v.GetString("OLLAMA_MODEL"),
			MaxConcurrent:   v.GetInt("AI_MAX_CONCURRENT"),
		},
		Predictor: PredictorConfig{
			ModelPath:  v.GetString("MODEL_PATH"),
			GridSearch: v.GetBool("MODEL_GRID_SEARCH"),
		},
		Files: FilesConfig{
			UploadDir:     v.GetString("UPLOAD_DIR"),
			MaxUploadSize: v.GetInt64("MAX_UPLOAD_SIZE"),
		},
		RateLimit: RateLimitConfig{
			Enabled:  v.GetBool("RATE_LIMIT_ENABLED"),
			Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
			WindowS:  v.GetInt("RATE_LIMIT_WINDOW"),
		},
		Quotes: QuotesConfig{
			ValidityDays: v.GetInt("QUOTE_VALIDITY_DAYS"),
		},
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8000
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "openai"
	}
	if cfg.AI.ExtractionModel == "" {
		cfg.AI.ExtractionModel = "gpt-3.5-turbo"
	}
	if cfg.AI.QuoteModel == "" {
		cfg.AI.QuoteModel = "gpt-4"
	}
	if cfg.AI.OllamaBaseURL == "" {
		cfg.AI.OllamaBaseURL = "http://localhost:11434"
	}
	if cfg.AI.OllamaModel == "" {
		cfg.AI.OllamaModel = "llama2"
	}
	if cfg.AI.MaxConcurrent <= 0 {
		cfg.AI.MaxConcurrent = 4
	}
	if cfg.Predictor.ModelPath == "" {
		cfg.Predictor.ModelPath = "models/price_predictor.json"
	}
	if cfg.Files.UploadDir == "" {
		cfg.Files.UploadDir = "uploads"
	}
	if cfg.Files.MaxUploadSize == 0 {
		cfg.Files.MaxUploadSize = 10 << 20
	}
	if cfg.RateLimit.Requests == 0 {
		cfg.RateLimit.Requests = 100
	}
	if cfg.RateLimit.WindowS == 0 {
		cfg.RateLimit.WindowS = 60
	}
	if cfg.Quotes.ValidityDays == 0 {
		cfg.Quotes.ValidityDays = 30
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	switch cfg.AI.Provider {
	case "openai":
		if cfg.Environment != "test" && cfg.AI.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when AI_PROVIDER=openai")
		}
	case "ollama":
	default:
		return fmt.Errorf("unsupported AI_PROVIDER %q", cfg.AI.Provider)
	}
	return nil
}
