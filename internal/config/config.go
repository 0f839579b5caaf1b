package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"taskflow/internal/logger"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	AppPort     string
	AppVersion  string
	DatabaseURL string
	DevMode     bool

	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int

	LogLevel string
	LogJSON  bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Rate limits
	APIRateLimit   int
	APIRateWindow  time.Duration
	AuthRateLimit  int
	AuthRateWindow time.Duration

	CORSOrigins []string
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	_ = godotenv.Load()

	cfg, err := Parse(os.Getenv)
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}
	return cfg
}

// Parse builds a Config from getenv. Missing required values are errors.
func Parse(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		AppPort:        "8080",
		AppVersion:     "dev",
		TokenTTL:       time.Hour,
		BcryptCost:     bcrypt.DefaultCost,
		LogLevel:       "info",
		APIRateLimit:   120,
		APIRateWindow:  time.Minute,
		AuthRateLimit:  10,
		AuthRateWindow: time.Minute,
	}

	cfg.DevMode = getenv("DEV_MODE") == "true"

	cfg.DatabaseURL = getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" && !cfg.DevMode {
		return nil, errors.New("DATABASE_URL is not set")
	}

	cfg.JWTSecret = getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}

	if v := getenv("APP_PORT"); v != "" {
		cfg.AppPort = v
	}
	if v := getenv("APP_VERSION"); v != "" {
		cfg.AppVersion = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	cfg.LogJSON = getenv("LOG_JSON") == "true"

	if n := positiveInt(getenv("TOKEN_TTL_MINUTES")); n > 0 {
		cfg.TokenTTL = time.Duration(n) * time.Minute
	}
	if n := positiveInt(getenv("BCRYPT_COST")); n >= bcrypt.MinCost && n <= bcrypt.MaxCost {
		cfg.BcryptCost = n
	}

	cfg.RedisAddr = getenv("REDIS_ADDR")
	cfg.RedisPassword = getenv("REDIS_PASSWORD")
	cfg.RedisDB = positiveInt(getenv("REDIS_DB"))

	if n := positiveInt(getenv("API_RATE_LIMIT")); n > 0 {
		cfg.APIRateLimit = n
	}
	if n := positiveInt(getenv("API_RATE_WINDOW_SECONDS")); n > 0 {
		cfg.APIRateWindow = time.Duration(n) * time.Second
	}
	if n := positiveInt(getenv("AUTH_RATE_LIMIT")); n > 0 {
		cfg.AuthRateLimit = n
	}
	if n := positiveInt(getenv("AUTH_RATE_WINDOW_SECONDS")); n > 0 {
		cfg.AuthRateWindow = time.Duration(n) * time.Second
	}

	// comma separated
	if v := getenv("CORS_ORIGINS"); v != "" {
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	return cfg, nil
}

// positiveInt returns 0 for empty, malformed or negative values.
func positiveInt(v string) int {
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
