package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Environment Environment     `mapstructure:"-"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Auth        AuthConfig      `mapstructure:"auth"`
	LLM         LLMConfig       `mapstructure:"llm"`
	Gemini      GeminiConfig    `mapstructure:"gemini"`
	Agent       AgentConfig     `mapstructure:"agent"`
	Storage     StorageConfig   `mapstructure:"storage"`
	Catalog     CatalogConfig   `mapstructure:"catalog"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	Log         LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	// TrustedProxies lists proxy IPs or CIDRs whose X-Forwarded-For is
	// honoured. Empty trusts none and uses the connection address.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// DSN returns the postgres connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	URL      string `mapstructure:"url"`
}

// AuthConfig configures verification of identity provider session tokens.
// ClerkPublicKey is the PEM encoded RS256 key from the Clerk dashboard.
// DevSecret enables HS256 tokens outside production for local testing.
type AuthConfig struct {
	ClerkIssuer       string   `mapstructure:"clerk_issuer"`
	ClerkPublicKey    string   `mapstructure:"clerk_public_key"`
	DevSecret         string   `mapstructure:"dev_secret"`
	AuthorizedParties []string `mapstructure:"authorized_parties"`
	WebhookSecret     string   `mapstructure:"webhook_secret"`
}

type LLMConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type AgentConfig struct {
	URL                string        `mapstructure:"url"`
	APIKey             string        `mapstructure:"api_key"`
	ImageExtractionURL string        `mapstructure:"image_extraction_url"`
	Timeout            time.Duration `mapstructure:"timeout"`
}

type StorageConfig struct {
	Bucket     string        `mapstructure:"bucket"`
	Region     string        `mapstructure:"region"`
	PresignTTL time.Duration `mapstructure:"presign_ttl"`
}

type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

type RateLimitConfig struct {
	ChatPerHour     int     `mapstructure:"chat_per_hour"`
	GeneratePerHour int     `mapstructure:"generate_per_hour"`
	PublicRPS       float64 `mapstructure:"public_rps"`
	PublicBurst     int     `mapstructure:"public_burst"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// secretKeys maps config keys to Docker secret file names. A non-empty
// secret file always wins over the environment.
var secretKeys = map[string]string{
	"database.password":     "db_password",
	"redis.password":        "redis_password",
	"auth.clerk_public_key": "clerk_public_key",
	"auth.dev_secret":       "jwt_secret",
	"auth.webhook_secret":   "clerk_webhook_secret",
	"llm.api_key":           "llm_api_key",
	"gemini.api_key":        "gemini_api_key",
	"agent.api_key":         "agent_api_key",
}

// Load reads configuration from defaults, an optional config file, the
// environment and Docker secrets, in that order.
func Load(configPath string) (*Config, error) {
	env := GetEnvironment()
	if env != Production {
		// .env is a local convenience only
		_ = godotenv.Load()
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("SOUSCHEF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	for key, name := range secretKeys {
		if secret := readSecret(name); secret != "" {
			v.Set(key, secret)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Environment = env

	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:8081", "http://localhost:19006"})
	v.SetDefault("server.trusted_proxies", []string{})

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "souschef")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.path", "souschef.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.migrations_dir", "")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.url", "")

	// AutomaticEnv only resolves keys viper already knows about
	v.SetDefault("auth.clerk_issuer", "")
	v.SetDefault("auth.clerk_public_key", "")
	v.SetDefault("auth.dev_secret", "")
	v.SetDefault("auth.authorized_parties", []string{})
	v.SetDefault("auth.webhook_secret", "")

	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "https://api.cerebras.ai/v1")
	v.SetDefault("llm.model", "llama3.1-8b")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 2048)
	v.SetDefault("llm.timeout", "60s")

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-1.5-flash")

	v.SetDefault("agent.url", "")
	v.SetDefault("agent.api_key", "")
	v.SetDefault("agent.image_extraction_url", "")
	v.SetDefault("agent.timeout", "45s")

	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.presign_ttl", "1h")

	v.SetDefault("catalog.path", "")

	v.SetDefault("rate_limit.chat_per_hour", 120)
	v.SetDefault("rate_limit.generate_per_hour", 20)
	v.SetDefault("rate_limit.public_rps", 10)
	v.SetDefault("rate_limit.public_burst", 20)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
