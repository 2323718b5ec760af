package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Firebase  FirebaseConfig  `mapstructure:"firebase"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	Env            string        `mapstructure:"env"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type StorageConfig struct {
	Backend           string        `mapstructure:"backend"`
	Bucket            string        `mapstructure:"bucket"`
	R2AccountID       string        `mapstructure:"r2_account_id"`
	R2AccessKeyID     string        `mapstructure:"r2_access_key_id"`
	R2AccessKeySecret string        `mapstructure:"r2_access_key_secret"`
	PresignTTL        time.Duration `mapstructure:"presign_ttl"`
}

type AuthConfig struct {
	Provider        string        `mapstructure:"provider"`
	JWTSecret       string        `mapstructure:"jwt_secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
	GoogleClientID  string        `mapstructure:"google_client_id"`
}

type GeminiConfig struct {
	APIKey          string `mapstructure:"api_key"`
	Model           string `mapstructure:"model"`
	MaxOutputTokens int32  `mapstructure:"max_output_tokens"`
}

type SentryConfig struct {
	DSN              string  `mapstructure:"dsn"`
	Environment      string  `mapstructure:"environment"`
	Release          string  `mapstructure:"release"`
	TracesSampleRate float64 `mapstructure:"traces_sample_rate"`
}

type FirebaseConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
}

type RateLimitConfig struct {
	AuthMax    int           `mapstructure:"auth_max"`
	AuthWindow time.Duration `mapstructure:"auth_window"`
	APIMax     int           `mapstructure:"api_max"`
	APIWindow  time.Duration `mapstructure:"api_window"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

const (
	StorageBackendR2       = "r2"
	StorageBackendFirebase = "firebase"

	AuthProviderJWT      = "jwt"
	AuthProviderFirebase = "firebase"
	AuthProviderGoogle   = "google"
)

// legacyEnv lets deployments keep the flat variable names the service used
// before the config was structured.
var legacyEnv = map[string][]string{
	"database.host":                {"DB_HOST"},
	"database.port":                {"DB_PORT"},
	"database.user":                {"DB_USERNAME"},
	"database.password":            {"DB_PASSWORD"},
	"database.name":                {"DB_NAME"},
	"redis.addr":                   {"ASYNC_BROKER_ADDRESS"},
	"storage.bucket":               {"R2_BUCKET_NAME"},
	"storage.r2_account_id":        {"R2_ACCOUNT_ID"},
	"storage.r2_access_key_id":     {"R2_ACCESS_KEY_ID"},
	"storage.r2_access_key_secret": {"R2_ACCESS_KEY_SECRET"},
	"auth.jwt_secret":              {"JWT_SECRET"},
	"auth.google_client_id":        {"GOOGLE_CLIENT_ID"},
	"gemini.api_key":               {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"sentry.dsn":                   {"SENTRY_DSN"},
	"firebase.credentials_file":    {"GOOGLE_APPLICATION_CREDENTIALS"},
	"server.env":                   {"ENV"},
	"server.port":                  {"PORT"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8083)
	v.SetDefault("server.env", "local")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 90*time.Second)
	v.SetDefault("server.request_timeout", 60*time.Second)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "wardrobe")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 300)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.backend", StorageBackendR2)
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.r2_account_id", "")
	v.SetDefault("storage.r2_access_key_id", "")
	v.SetDefault("storage.r2_access_key_secret", "")
	v.SetDefault("storage.presign_ttl", 15*time.Minute)

	v.SetDefault("auth.provider", AuthProviderJWT)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.access_token_ttl", 72*time.Hour)
	v.SetDefault("auth.refresh_token_ttl", 24*360*time.Hour)
	v.SetDefault("auth.google_client_id", "")

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("gemini.max_output_tokens", 8192)

	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "local")
	v.SetDefault("sentry.release", "virtualwardrobe@1.0.0")
	v.SetDefault("sentry.traces_sample_rate", 0.2)

	v.SetDefault("firebase.credentials_file", "")

	v.SetDefault("ratelimit.auth_max", 5)
	v.SetDefault("ratelimit.auth_window", 15*time.Minute)
	v.SetDefault("ratelimit.api_max", 100)
	v.SetDefault("ratelimit.api_window", time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load reads .env files (if any), then the environment. SERVER_PORT overrides
// server.port and so on.
func Load() (*Config, error) {
	for _, path := range []string{".env", "../.env"} {
		_ = godotenv.Load(path)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range legacyEnv {
		envs := append([]string{strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, names...)
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Auth.Provider {
	case AuthProviderJWT:
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret is required for the jwt provider")
		}
	case AuthProviderFirebase:
	case AuthProviderGoogle:
		if c.Auth.GoogleClientID == "" {
			return fmt.Errorf("auth.google_client_id is required for the google provider")
		}
	default:
		return fmt.Errorf("unknown auth provider %q", c.Auth.Provider)
	}

	switch c.Storage.Backend {
	case StorageBackendR2, StorageBackendFirebase:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if c.Gemini.APIKey == "" {
		return fmt.Errorf("gemini.api_key is required")
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// DSN is the postgres connection string for gorm.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}
