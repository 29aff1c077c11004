package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server  ServerConfig
	Scraper ScraperConfig
	Browser BrowserConfig
	Cache   CacheConfig
	Redis   RedisConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Port            int
	Host            string
	APIKey          string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RateLimitRPS    float64
	RateLimitBurst  int
}

type ScraperConfig struct {
	MaxConcurrentRequests int
	DefaultTimeout        time.Duration
}

type BrowserConfig struct {
	Headless        bool
	ViewportWidth   int
	ViewportHeight  int
	UserAgent       string
	AcceptLanguage  string
	TimezoneID      string
	Locale          string
	BlockResources  bool
	MaxStartRetries int
}

type CacheConfig struct {
	MaxEntries int
	TTL        time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvInt("PORT", 8000),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			APIKey:          getEnv("SCRAPER_API_KEY", ""),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 90*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			RateLimitRPS:    getEnvFloat("RATE_LIMIT_RPS", 0.5),
			RateLimitBurst:  getEnvInt("RATE_LIMIT_BURST", 5),
		},
		Scraper: ScraperConfig{
			MaxConcurrentRequests: getEnvInt("MAX_CONCURRENT_REQUESTS", 2),
			DefaultTimeout:        getEnvDuration("SCRAPER_TIMEOUT", 30*time.Second),
		},
		Browser: BrowserConfig{
			Headless:        getEnvBool("BROWSER_HEADLESS", true),
			ViewportWidth:   getEnvInt("BROWSER_VIEWPORT_WIDTH", 1366),
			ViewportHeight:  getEnvInt("BROWSER_VIEWPORT_HEIGHT", 768),
			UserAgent:       getEnv("BROWSER_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
			AcceptLanguage:  getEnv("BROWSER_ACCEPT_LANGUAGE", "en-GB,en;q=0.9"),
			TimezoneID:      getEnv("BROWSER_TIMEZONE", "Europe/London"),
			Locale:          getEnv("BROWSER_LOCALE", "en-GB"),
			BlockResources:  getEnvBool("BROWSER_BLOCK_RESOURCES", true),
			MaxStartRetries: getEnvInt("BROWSER_MAX_START_RETRIES", 2),
		},
		Cache: CacheConfig{
			MaxEntries: getEnvInt("CACHE_MAX_ENTRIES", 1000),
			TTL:        getEnvDuration("CACHE_TTL", 15*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			Stream:   getEnv("REDIS_EVENT_STREAM", "scrapiee:products"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Scraper.MaxConcurrentRequests < 1 {
		return fmt.Errorf("MAX_CONCURRENT_REQUESTS must be at least 1")
	}

	if c.Scraper.DefaultTimeout < time.Second {
		return fmt.Errorf("SCRAPER_TIMEOUT must be at least 1s")
	}

	if c.Browser.MaxStartRetries < 1 {
		return fmt.Errorf("BROWSER_MAX_START_RETRIES must be at least 1")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
