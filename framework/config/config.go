package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the central typed configuration struct.
type Config struct {
	App     AppConfig
	Store   StoreConfig
	Redis   RedisConfig
	Log     LogConfig
	Metrics MetricsConfig
}

type AppConfig struct {
	Name            string
	Env             string // local | production | testing
	Debug           bool
	Port            string
	ShutdownTimeout time.Duration
}

// StoreConfig selects the cart store backing the repositories.
type StoreConfig struct {
	Driver string // memory | sqlite | redis
	DSN    string // sqlite only
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type LogConfig struct {
	Level  string // debug | info | warn | error
	Format string // json | console
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

// Load reads .env (if present) and populates a Config from environment variables.
// Call once at bootstrap: cfg := config.Load()
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	env := get("APP_ENV", "local")
	format := "console"
	if env == "production" {
		format = "json"
	}

	return &Config{
		App: AppConfig{
			Name:            get("APP_NAME", "GoShopping"),
			Env:             env,
			Debug:           envBool("APP_DEBUG", env != "production"),
			Port:            get("APP_PORT", "8000"),
			ShutdownTimeout: envDuration("APP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(get("STORE_DRIVER", "memory")),
			DSN:    get("STORE_DSN", "file:shopping.db?cache=shared"),
		},
		Redis: RedisConfig{
			Addr:     get("REDIS_ADDR", "127.0.0.1:6379"),
			Password: get("REDIS_PASSWORD", ""),
			DB:       GetInt("REDIS_DB", 0),
			Prefix:   get("REDIS_PREFIX", "shopping"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(get("LOG_LEVEL", "info")),
			Format: strings.ToLower(get("LOG_FORMAT", format)),
		},
		Metrics: MetricsConfig{
			Enabled: envBool("METRICS_ENABLED", true),
			Path:    get("METRICS_PATH", "/metrics"),
		},
	}
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool { return c.App.Env == "production" }

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string { return ":" + c.App.Port }

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	return get(key, defaultVal)
}

// GetInt returns an int env value.
func GetInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	return envBool(key, defaultVal)
}

// ── helpers ─────────────────────────────────────────────────────────────────

func get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
