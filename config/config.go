package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var ErrMissingToken = errors.New("TUSHARE_TOKEN is required")

type Config struct {
	Token       string
	BaseURL     string
	CacheTTL    time.Duration
	CallTimeout time.Duration
	HistoryDays int
	RateLimit   float64
	LogLevel    string
	LogPretty   bool
	DBPath      string
	Addr        string
	WatchCron   string
}

// Load 读取 .env (可选) 和环境变量, 缺少 token 直接报错
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	cfg := &Config{
		Token:       getEnv("TUSHARE_TOKEN", ""),
		BaseURL:     getEnv("TUSHARE_API_URL", "http://api.tushare.pro"),
		CacheTTL:    getEnvAsDuration("TSA_CACHE_TTL", 10*time.Minute),
		CallTimeout: getEnvAsDuration("TSA_CALL_TIMEOUT", 15*time.Second),
		HistoryDays: getEnvAsInt("TSA_HISTORY_DAYS", 90),
		RateLimit:   getEnvAsFloat("TSA_RATE_LIMIT", 3),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogPretty:   getEnvAsBool("LOG_PRETTY", true),
		DBPath:      getEnv("TSA_DB", ""),
		Addr:        getEnv("TSA_ADDR", ":8080"),
		WatchCron:   getEnv("TSA_WATCH_CRON", "*/10 9-15 * * 1-5"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Token == "" {
		return ErrMissingToken
	}
	if c.HistoryDays <= 0 {
		return errors.New("TSA_HISTORY_DAYS must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
