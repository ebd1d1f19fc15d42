package config

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Server  Server
	Store   Store
	Redis   Redis
	JWT     JWT
	Uploads Uploads
	Logger  Logger
}

type Server struct {
	Port        string
	Environment string
	CORSOrigins string
	// PublicBaseURL prefixes share links and uploaded object URLs.
	PublicBaseURL string
}

type Store struct {
	Driver      string
	DatabaseURL string
}

type Redis struct {
	URL string
}

type JWT struct {
	Secret string
}

type Uploads struct {
	Dir      string
	MaxBytes int64
}

type Logger struct {
	Level string
}

// Development reports whether the server runs outside production
func (c *Config) Development() bool {
	return c.Server.Environment != "production"
}

// Load reads .env (if present) and the process environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found")
	}
	return Parse(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE", StorePostgres)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("MAX_UPLOAD_BYTES", 5*1024*1024)
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	v.AutomaticEnv()
	return v
}

// Parse builds and validates a Config from v
func Parse(v *viper.Viper) (*Config, error) {
	c := &Config{
		Server: Server{
			Port:          v.GetString("PORT"),
			Environment:   v.GetString("APP_ENV"),
			CORSOrigins:   v.GetString("CORS_ORIGINS"),
			PublicBaseURL: strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		},
		Store: Store{
			Driver:      strings.ToLower(v.GetString("STORE")),
			DatabaseURL: v.GetString("DATABASE_URL"),
		},
		Redis:   Redis{URL: v.GetString("REDIS_URL")},
		JWT:     JWT{Secret: v.GetString("JWT_SECRET")},
		Uploads: Uploads{Dir: v.GetString("UPLOAD_DIR"), MaxBytes: v.GetInt64("MAX_UPLOAD_BYTES")},
		Logger:  Logger{Level: v.GetString("LOG_LEVEL")},
	}

	if c.JWT.Secret == "" {
		return nil, errors.New("JWT_SECRET environment variable is not set")
	}
	switch c.Store.Driver {
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL environment variable is not set")
		}
	case StoreMemory:
	default:
		return nil, errors.New("STORE must be postgres or memory")
	}
	if c.Uploads.MaxBytes <= 0 {
		return nil, errors.New("MAX_UPLOAD_BYTES must be positive")
	}
	return c, nil
}
