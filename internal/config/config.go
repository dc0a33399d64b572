package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/prospectbingo/bingo/backend/go-services/pkg/logger"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Web       WebConfig
	LogLevel  string
}

type ServerConfig struct {
	Port          string
	Host          string
	Environment   string
	BasePath      string
	AllowedOrigin string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	ShutdownGrace time.Duration
}

// MongoDBConfig is optional; an empty URI selects the in-memory store.
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	ConnectAttempts int
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	CacheTTL time.Duration
}

// Addr returns host:port, or "" when Redis is not configured.
func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	return r.Host + ":" + r.Port
}

type RateLimitConfig struct {
	Enabled  bool
	UseRedis bool
	RPS      float64
	Burst    int
	Window   time.Duration
}

type WebConfig struct {
	AssetURL string
	DistDir  string
}

func (s ServerConfig) Addr() string { return s.Host + ":" + s.Port }

func (s ServerConfig) IsProduction() bool {
	return strings.EqualFold(s.Environment, "production")
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(envFile())

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "5001")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("SERVER_BASE_PATH", "/")
	v.SetDefault("SERVER_ALLOWED_ORIGIN", "*")
	v.SetDefault("SERVER_READ_TIMEOUT", 30)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	v.SetDefault("SERVER_SHUTDOWN_GRACE", 10)
	v.SetDefault("MONGODB_DATABASE", "prospectbingo")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("MONGODB_CONNECT_ATTEMPTS", 5)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_CACHE_TTL", 300)
	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_USE_REDIS", false)
	v.SetDefault("RATE_LIMIT_RPS", 10.0)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("RATE_LIMIT_WINDOW", 60)
	v.SetDefault("WEB_ASSET_URL", "/assets/main.js")
	v.SetDefault("LOG_LEVEL", "info")

	cfg := &Config{
		Server: ServerConfig{
			Port:          v.GetString("SERVER_PORT"),
			Host:          v.GetString("SERVER_HOST"),
			Environment:   v.GetString("SERVER_ENVIRONMENT"),
			BasePath:      v.GetString("SERVER_BASE_PATH"),
			AllowedOrigin: v.GetString("SERVER_ALLOWED_ORIGIN"),
			ReadTimeout:   time.Duration(v.GetInt("SERVER_READ_TIMEOUT")) * time.Second,
			WriteTimeout:  time.Duration(v.GetInt("SERVER_WRITE_TIMEOUT")) * time.Second,
			ShutdownGrace: time.Duration(v.GetInt("SERVER_SHUTDOWN_GRACE")) * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:             v.GetString("MONGODB_URI"),
			Database:        v.GetString("MONGODB_DATABASE"),
			Timeout:         time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
			ConnectAttempts: v.GetInt("MONGODB_CONNECT_ATTEMPTS"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			CacheTTL: time.Duration(v.GetInt("REDIS_CACHE_TTL")) * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:  v.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis: v.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:      v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:    v.GetInt("RATE_LIMIT_BURST"),
			Window:   time.Duration(v.GetInt("RATE_LIMIT_WINDOW")) * time.Second,
		},
		Web: WebConfig{
			AssetURL: v.GetString("WEB_ASSET_URL"),
			DistDir:  v.GetString("WEB_DIST_DIR"),
		},
		LogLevel: v.GetString("LOG_LEVEL"),
	}

	if cfg.MongoDB.URI == "" {
		logger.Warnf("MONGODB_URI is not set; resources are kept in memory")
	}
	if cfg.RateLimit.UseRedis && cfg.Redis.Addr() == "" {
		logger.Warnf("RATE_LIMIT_USE_REDIS is set without REDIS_HOST; using the in-memory limiter")
		cfg.RateLimit.UseRedis = false
	}
	if cfg.Server.IsProduction() && cfg.Server.AllowedOrigin == "*" {
		logger.Warnf("SERVER_ALLOWED_ORIGIN is * in production")
	}

	return cfg, nil
}

func envFile() string {
	if p := os.Getenv("ENV_FILE"); p != "" {
		return p
	}
	return ".env"
}
