package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string        `env:"PORT,       default=8080"`
	Env       string        `env:"ENV,        default=development"`
	JWTSecret string        `env:"JWT_SECRET, required"`
	LogLevel  string        `env:"LOG_LEVEL,  default=info"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,  default=168h"`

	// AllowedOrigins lists browser origins for CORS and the live channel.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS, default=http://localhost:5173"`

	DeliveryWorkers int `env:"DELIVERY_WORKERS, default=8"`

	Mongo MongoConfig
	Redis RedisConfig
	Media MediaConfig
}

type MongoConfig struct {
	URI      string        `env:"MONGO_URI,     default=mongodb://localhost:27017"`
	Database string        `env:"MONGO_DB,      default=chat"`
	Timeout  time.Duration `env:"MONGO_TIMEOUT, default=10s"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type MediaConfig struct {
	Bucket    string `env:"MEDIA_BUCKET,     default=chat-media"`
	Region    string `env:"MEDIA_REGION,     default=us-east-1"`
	Endpoint  string `env:"MEDIA_ENDPOINT"`
	AccessKey string `env:"MEDIA_ACCESS_KEY"`
	SecretKey string `env:"MEDIA_SECRET_KEY"`
	PublicURL string `env:"MEDIA_PUBLIC_URL"`
}

// IsDevelopment reports whether the service runs in local development mode.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

func (c *Config) validate() error {
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.DeliveryWorkers <= 0 {
		return errors.New("DELIVERY_WORKERS must be positive")
	}
	if !c.IsDevelopment() && len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 bytes outside development")
	}
	return nil
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration from an arbitrary lookuper.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
