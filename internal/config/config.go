package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Persona  PersonaConfig  `mapstructure:"persona"`
	Fairy    FairyConfig    `mapstructure:"fairy"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Realtime RealtimeConfig `mapstructure:"realtime"`
	Backfill BackfillConfig `mapstructure:"backfill"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

// PersonaConfig is the fixed identity of the plant fairy.
// ID must never change between deployments: every AI comment carries it.
type PersonaConfig struct {
	ID          string `mapstructure:"id"`
	Username    string `mapstructure:"username"`
	DisplayName string `mapstructure:"display_name"`
	AvatarURL   string `mapstructure:"avatar_url"`
	Bio         string `mapstructure:"bio"`
}

// FairyConfig controls the AI comment triggers.
type FairyConfig struct {
	AutoEnabled     bool          `mapstructure:"auto_enabled"`
	AutoDelay       time.Duration `mapstructure:"auto_delay"`
	WorkflowTimeout time.Duration `mapstructure:"workflow_timeout"`
	// ObservationRate is the probability [0,1] of appending an image
	// observation to a template response.
	ObservationRate float64 `mapstructure:"observation_rate"`
	Seed            int64   `mapstructure:"seed"`
}

type CacheConfig struct {
	CommentListSize int           `mapstructure:"comment_list_size"`
	CommentListTTL  time.Duration `mapstructure:"comment_list_ttl"`
}

type UploadConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

type RealtimeConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	MaxClients int  `mapstructure:"max_clients"`
}

type BackfillConfig struct {
	Workers int `mapstructure:"workers"`
	Limit   int `mapstructure:"limit"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.url", "DATABASE_URL")
	v.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	v.BindEnv("storage.access_key", "STORAGE_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "STORAGE_SECRET_KEY")
	v.BindEnv("storage.bucket", "STORAGE_BUCKET")
	v.BindEnv("storage.public_url", "STORAGE_PUBLIC_URL")
	v.BindEnv("llm.openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("llm.openai.base_url", "OPENAI_BASE_URL")
	v.BindEnv("llm.openai.model", "OPENAI_MODEL")
	v.BindEnv("llm.gemini.api_key", "GEMINI_API_KEY")
	v.BindEnv("llm.gemini.model", "GEMINI_MODEL")
	v.BindEnv("fairy.auto_delay", "FAIRY_AUTO_DELAY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/plantgram.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.dbname", "plantgram")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.bucket", "plant-images")

	v.SetDefault("llm.providers", []string{"openai"})
	v.SetDefault("llm.timeout", 10*time.Second)
	v.SetDefault("llm.max_chars", 150)
	v.SetDefault("llm.min_chars", 50)
	v.SetDefault("llm.max_tokens", 100)
	v.SetDefault("llm.temperature", 0.8)
	v.SetDefault("llm.presence_penalty", 0.6)
	v.SetDefault("llm.frequency_penalty", 0.3)
	v.SetDefault("llm.breaker_threshold", 3)
	v.SetDefault("llm.breaker_cooldown", time.Minute)
	v.SetDefault("llm.openai.client", "resty")
	v.SetDefault("llm.openai.model", "gpt-3.5-turbo")
	v.SetDefault("llm.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.gemini.model", "gemini-2.5-flash-lite")

	v.SetDefault("persona.id", DefaultPersonaID)
	v.SetDefault("persona.username", "plant_fairy")
	v.SetDefault("persona.display_name", "식물 요정")
	v.SetDefault("persona.avatar_url", "/images/plant-fairy-avatar.png")
	v.SetDefault("persona.bio", "식물을 사랑하는 모든 분들께 따뜻한 응원을 보내는 식물 요정이에요 🧚‍♀️🌱")

	v.SetDefault("fairy.auto_enabled", true)
	v.SetDefault("fairy.auto_delay", 3*time.Second)
	v.SetDefault("fairy.workflow_timeout", 20*time.Second)
	v.SetDefault("fairy.observation_rate", 0.0)
	v.SetDefault("fairy.seed", 0)

	v.SetDefault("cache.comment_list_size", 500)
	v.SetDefault("cache.comment_list_ttl", 5*time.Minute)

	v.SetDefault("upload.max_bytes", 5*1024*1024)

	v.SetDefault("realtime.enabled", true)
	v.SetDefault("realtime.max_clients", 10000)

	v.SetDefault("backfill.workers", 4)
	v.SetDefault("backfill.limit", 100)
}

// DefaultPersonaID is the well-known id of the plant fairy profile.
const DefaultPersonaID = "00000000-0000-0000-0000-000000000001"

// Validate checks invariants that cannot be expressed as defaults.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Persona.ID) == "" {
		return fmt.Errorf("persona: id is required")
	}
	if c.LLM.MaxChars <= 0 {
		return fmt.Errorf("llm: max_chars must be positive")
	}
	if c.LLM.MinChars < 0 || c.LLM.MinChars >= c.LLM.MaxChars {
		return fmt.Errorf("llm: min_chars must be in [0, max_chars)")
	}
	if c.Fairy.ObservationRate < 0 || c.Fairy.ObservationRate > 1 {
		return fmt.Errorf("fairy: observation_rate must be in [0, 1]")
	}
	if c.Fairy.WorkflowTimeout <= 0 {
		return fmt.Errorf("fairy: workflow_timeout must be positive")
	}
	if c.LLM.Timeout >= c.Fairy.WorkflowTimeout {
		return fmt.Errorf("llm: timeout (%s) must be shorter than fairy.workflow_timeout (%s)",
			c.LLM.Timeout, c.Fairy.WorkflowTimeout)
	}
	return nil
}
