// Package config loads the service configuration from defaults, an optional
// YAML file, a .env file and LINGUA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/satriahrh/lingua/adapters/imagegen"
	"github.com/satriahrh/lingua/adapters/imagestore"
	"github.com/satriahrh/lingua/adapters/llm"
	"github.com/satriahrh/lingua/adapters/mongo"
	"github.com/satriahrh/lingua/adapters/tts"
	"github.com/satriahrh/lingua/internal/dialogue"
	"github.com/satriahrh/lingua/internal/jobs"
)

// EnvPrefix prefixes every environment variable, e.g. LINGUA_SERVER_PORT
const EnvPrefix = "LINGUA"

// Storage drivers
const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
	StorageMongo  = "mongo"
)

// Provider names shared by the AI backends
const (
	ProviderGemini     = "gemini"
	ProviderGoogle     = "google"
	ProviderElevenLabs = "elevenlabs"
	ProviderLocal      = "local"
	ProviderVader      = "vader"
	ProviderMock       = "mock"
	ProviderNone       = "none"
)

// Config is the root configuration of the service
type Config struct {
	Server    ServerConfig         `mapstructure:"server"`
	Auth      AuthConfig           `mapstructure:"auth"`
	Logging   LoggingConfig        `mapstructure:"logging"`
	Storage   StorageConfig        `mapstructure:"storage"`
	LLM       LLMConfig            `mapstructure:"llm"`
	Embedding EmbeddingConfig      `mapstructure:"embedding"`
	ImageGen  ImageGenConfig       `mapstructure:"image_gen"`
	Images    imagestore.Config    `mapstructure:"images"`
	Sentiment SentimentConfig      `mapstructure:"sentiment"`
	Speech    SpeechConfig         `mapstructure:"speech"`
	TTS       TTSConfig            `mapstructure:"tts"`
	Dialogue  dialogue.Config      `mapstructure:"dialogue"`
	Jobs      jobs.Config          `mapstructure:"jobs"`
	RateLimit RateLimitConfig      `mapstructure:"rate_limit"`
	Session   SessionCleanupConfig `mapstructure:"session"`
}

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// AuthConfig holds JWT settings
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// LoggingConfig holds structured logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// StorageConfig selects the conversation store
type StorageConfig struct {
	Driver string       `mapstructure:"driver"`
	SQLite SQLiteConfig `mapstructure:"sqlite"`
	Mongo  mongo.Config `mapstructure:"mongo"`
}

// SQLiteConfig points at the database file
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// LLMConfig selects the language model
type LLMConfig struct {
	Provider string           `mapstructure:"provider"`
	Gemini   llm.GeminiConfig `mapstructure:"gemini"`
}

// EmbeddingConfig selects the embedder used for phrase similarity
type EmbeddingConfig struct {
	Provider string `mapstructure:"provider"` // gemini or local
	Model    string `mapstructure:"model"`
}

// ImageGenConfig selects the image generator
type ImageGenConfig struct {
	Provider string                `mapstructure:"provider"`
	Imagen   imagegen.ImagenConfig `mapstructure:"imagen"`
}

// SentimentConfig selects the polarity scorer used by the greeting and closing branches
type SentimentConfig struct {
	Provider string `mapstructure:"provider"` // vader or mock
}

// SpeechConfig selects the speech recognizer
type SpeechConfig struct {
	Provider string `mapstructure:"provider"`
}

// TTSConfig selects the speech synthesizer used for voiced websocket replies
type TTSConfig struct {
	Provider   string               `mapstructure:"provider"`
	ElevenLabs tts.ElevenLabsConfig `mapstructure:"elevenlabs"`
}

// RateLimitConfig throttles per-user traffic
type RateLimitConfig struct {
	TurnsPerMinute   int `mapstructure:"turns_per_minute"`
	CreatesPerMinute int `mapstructure:"creates_per_minute"`
}

// SessionCleanupConfig controls the background session sweeper
type SessionCleanupConfig struct {
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("storage.driver", StorageSQLite)
	v.SetDefault("storage.sqlite.path", "./data/lingua.db")
	v.SetDefault("storage.mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("storage.mongo.database", "lingua")

	v.SetDefault("llm.provider", ProviderMock)
	v.SetDefault("llm.gemini.api_key", "")
	v.SetDefault("llm.gemini.model", "gemini-2.0-flash")
	v.SetDefault("llm.gemini.max_output_tokens", 200)
	v.SetDefault("llm.gemini.timeout_seconds", 30)
	v.SetDefault("embedding.provider", ProviderLocal)
	v.SetDefault("embedding.model", "text-embedding-004")
	v.SetDefault("image_gen.provider", ProviderMock)
	v.SetDefault("image_gen.imagen.model", "imagen-3.0-generate-002")
	v.SetDefault("image_gen.imagen.aspect_ratio", "1:1")
	v.SetDefault("image_gen.imagen.mime_type", "image/png")
	v.SetDefault("images.base_url", "./data/images")
	v.SetDefault("images.public_url", "")

	v.SetDefault("sentiment.provider", ProviderVader)
	v.SetDefault("speech.provider", ProviderMock)
	v.SetDefault("tts.provider", ProviderNone)
	v.SetDefault("tts.elevenlabs.api_key", "")
	v.SetDefault("tts.elevenlabs.voice_id", "")
	v.SetDefault("tts.elevenlabs.model_id", "eleven_multilingual_v2")
	v.SetDefault("tts.elevenlabs.output_format", "mp3_44100_128")

	v.SetDefault("dialogue.intent_threshold", 0.7)
	v.SetDefault("dialogue.confirmation_threshold", 0.8)
	v.SetDefault("dialogue.short_response_length", 50)
	v.SetDefault("dialogue.short_response_limit", 3)

	v.SetDefault("jobs.workers", 4)
	v.SetDefault("jobs.timeout", 2*time.Minute)
	v.SetDefault("jobs.retention", time.Hour)

	v.SetDefault("rate_limit.turns_per_minute", 40)
	v.SetDefault("rate_limit.creates_per_minute", 100)
	v.SetDefault("session.cleanup_interval", 5*time.Minute)
}

// legacyEnv keeps the unprefixed variable names deployments already use.
// The LINGUA_ name wins when both are set.
var legacyEnv = map[string]string{
	"server.port":             "PORT",
	"auth.jwt_secret":         "JWT_SECRET",
	"llm.gemini.api_key":      "GEMINI_API_KEY",
	"storage.mongo.uri":       "MONGODB_URI",
	"storage.mongo.database":  "MONGODB_DATABASE",
	"tts.elevenlabs.api_key":  "ELEVEN_LABS_API_KEY",
	"tts.elevenlabs.voice_id": "ELEVEN_LABS_VOICE_ID",
}

func bindLegacyEnv(v *viper.Viper) error {
	for key, name := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, name); err != nil {
			return fmt.Errorf("failed to bind %s: %w", name, err)
		}
	}
	return nil
}

// Load reads the configuration. If configFile is empty, lingua.yaml is
// searched in ., ./configs and /etc/lingua. A missing file is not an error.
func Load(configFile string) (*Config, error) {
	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("lingua")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/lingua")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindLegacyEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageMemory, StorageSQLite, StorageMongo:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	needsGemini := c.LLM.Provider == ProviderGemini ||
		c.Embedding.Provider == ProviderGemini ||
		c.ImageGen.Provider == ProviderGemini
	if needsGemini && c.LLM.Gemini.APIKey == "" {
		return errors.New("llm.gemini.api_key is required when a gemini provider is selected")
	}
	if c.TTS.Provider == ProviderElevenLabs && c.TTS.ElevenLabs.APIKey == "" {
		return errors.New("tts.elevenlabs.api_key is required for the elevenlabs provider")
	}
	if c.RateLimit.TurnsPerMinute < 0 || c.RateLimit.CreatesPerMinute < 0 {
		return errors.New("rate limits must not be negative")
	}
	return nil
}

// Address returns the listen address for the HTTP server
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
