// Package config loads runtime configuration from defaults, an optional
// config.toml in the data directory, a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/custodia-labs/docuchat/internal/core/domain"
)

// EnvPrefix namespaces environment overrides (DOCUCHAT_LLM_PROVIDER).
const EnvPrefix = "DOCUCHAT"

// Embedding backends.
const (
	EmbeddingOllama = "ollama"
	EmbeddingOpenAI = "openai"
)

// Config is the full runtime configuration.
type Config struct {
	DataDir   string          `mapstructure:"data_dir"`
	Verbose   bool            `mapstructure:"verbose"`
	Database  DatabaseConfig  `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Chunking  ChunkingConfig  `mapstructure:"chunking"`
	OCR       OCRConfig       `mapstructure:"ocr"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// DatabaseConfig locates the Postgres database. URL wins over the parts.
type DatabaseConfig struct {
	URL          string `mapstructure:"url"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Name         string `mapstructure:"name"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// DSN returns a postgres:// connection URL.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   "/" + d.Name,
	}
	if d.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {d.SSLMode}}.Encode()
	}
	return u.String()
}

// RedisConfig enables the embedding cache when URL is set.
type RedisConfig struct {
	URL string        `mapstructure:"url"`
	TTL time.Duration `mapstructure:"ttl"`
}

// EmbeddingConfig selects and configures the embedding backend.
type EmbeddingConfig struct {
	Provider   string        `mapstructure:"provider"`
	BaseURL    string        `mapstructure:"base_url"`
	Model      string        `mapstructure:"model"`
	APIKey     string        `mapstructure:"api_key"`
	Dimensions int           `mapstructure:"dimensions"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// LLMConfig configures the completion providers.
type LLMConfig struct {
	Provider          string         `mapstructure:"provider"`
	RequestsPerSecond float64        `mapstructure:"requests_per_second"`
	Burst             int            `mapstructure:"burst"`
	Timeout           time.Duration  `mapstructure:"timeout"`
	Groq              ProviderConfig `mapstructure:"groq"`
	Cerebras          ProviderConfig `mapstructure:"cerebras"`
}

// ProviderConfig holds one provider's credentials. An empty APIKey leaves
// the provider unregistered.
type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// For returns the settings of a provider.
func (c LLMConfig) For(p domain.Provider) ProviderConfig {
	switch p {
	case domain.ProviderCerebras:
		return c.Cerebras
	default:
		return c.Groq
	}
}

// ChunkingConfig sizes chunks in characters.
type ChunkingConfig struct {
	Size    int `mapstructure:"size"`
	Overlap int `mapstructure:"overlap"`
}

// OCRConfig configures the PDF OCR fallback.
type OCRConfig struct {
	TesseractPath  string `mapstructure:"tesseract_path"`
	PdftoppmPath   string `mapstructure:"pdftoppm_path"`
	DPI            int    `mapstructure:"dpi"`
	MinNativeChars int    `mapstructure:"min_native_chars"`
}

// MetricsConfig exposes Prometheus metrics when Addr is set.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// legacyEnv maps config keys to the unprefixed variables deployments
// already set.
var legacyEnv = map[string]string{
	"llm.groq.api_key":     "GROQ_API_KEY",
	"llm.groq.model":       "GROQ_MODEL",
	"llm.cerebras.api_key": "CEREBRAS_API_KEY",
	"llm.cerebras.model":   "CEREBRAS_MODEL",
	"llm.provider":         "LLM_PROVIDER",
	"db.url":               "DATABASE_URL",
	"db.host":              "DB_HOST",
	"db.port":              "DB_PORT",
	"db.name":              "DB_NAME",
	"db.user":              "DB_USER",
	"db.password":          "DB_PASSWORD",
	"db.sslmode":           "SSLMODE",
	"ocr.tesseract_path":   "TESSERACT_PATH",
	"redis.url":            "REDIS_URL",
	"embedding.provider":   "EMBEDDING_PROVIDER",
	"embedding.base_url":   "EMBEDDING_BASE_URL",
	"embedding.model":      "EMBEDDING_MODEL",
	"embedding.api_key":    "EMBEDDING_API_KEY",
}

// DefaultDataDir returns ~/.docuchat.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".docuchat"), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("verbose", false)

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "docuchat")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 2)

	v.SetDefault("redis.ttl", 24*time.Hour)

	v.SetDefault("embedding.provider", EmbeddingOllama)
	v.SetDefault("embedding.dimensions", 384)
	v.SetDefault("embedding.timeout", 30*time.Second)

	v.SetDefault("llm.provider", string(domain.ProviderGroq))
	v.SetDefault("llm.requests_per_second", 0)
	v.SetDefault("llm.burst", 1)
	v.SetDefault("llm.timeout", 60*time.Second)

	v.SetDefault("chunking.size", 800)
	v.SetDefault("chunking.overlap", 100)

	v.SetDefault("ocr.tesseract_path", "tesseract")
	v.SetDefault("ocr.pdftoppm_path", "pdftoppm")
	v.SetDefault("ocr.dpi", 300)
	v.SetDefault("ocr.min_native_chars", 100)
}

// Load builds the configuration. dataDir may be empty for ~/.docuchat.
// A missing config.toml or .env is not an error.
func Load(dataDir string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if dataDir == "" {
		dir, err := DefaultDataDir()
		if err != nil {
			return nil, err
		}
		dataDir = dir
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	v.SetConfigFile(filepath.Join(dataDir, "config.toml"))
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.DataDir = dataDir

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail deep in the pipeline.
func (c *Config) Validate() error {
	var errs []error

	if c.Embedding.Dimensions <= 0 {
		errs = append(errs, errors.New("embedding.dimensions must be greater than zero"))
	}
	switch c.Embedding.Provider {
	case EmbeddingOllama, EmbeddingOpenAI:
	default:
		errs = append(errs, fmt.Errorf("embedding.provider must be %q or %q, got %q",
			EmbeddingOllama, EmbeddingOpenAI, c.Embedding.Provider))
	}

	if c.Chunking.Size <= 0 {
		errs = append(errs, errors.New("chunking.size must be greater than zero"))
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		errs = append(errs, errors.New("chunking.overlap must be at least zero and smaller than chunking.size"))
	}

	if domain.ParseProvider(c.LLM.Provider) == "" {
		errs = append(errs, fmt.Errorf("llm.provider %q is not supported", c.LLM.Provider))
	}
	if c.LLM.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("llm.requests_per_second cannot be negative"))
	}

	if c.OCR.DPI <= 0 {
		errs = append(errs, errors.New("ocr.dpi must be greater than zero"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, errors.Join(errs...))
	}
	return nil
}

// DefaultProvider returns the parsed default LLM provider.
func (c *Config) DefaultProvider() domain.Provider {
	return domain.ParseProvider(c.LLM.Provider)
}

// PromptDir returns the directory holding prompt templates.
func (c *Config) PromptDir() string {
	return filepath.Join(c.DataDir, "prompts")
}
