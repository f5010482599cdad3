package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"task_tracker/internal/store"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	AppPort    string
	AppEnv     string
	AppVersion string

	LogLevel string
	LogJSON  bool

	Store store.Options

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Per-client API limits; zero requests disables limiting
	APIRateLimit  int
	APIRateWindow time.Duration

	CORSAllowedOrigins []string
	ShutdownTimeout    time.Duration
}

// IsProduction reports whether gin should run in release mode
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// fileConfig mirrors the optional TOML file named by CONFIG_FILE
type fileConfig struct {
	AppPort                string `toml:"app_port"`
	AppEnv                 string `toml:"app_env"`
	Version                string `toml:"version"`
	LogLevel               string `toml:"log_level"`
	LogJSON                *bool  `toml:"log_json"`
	ShutdownTimeoutSeconds int    `toml:"shutdown_timeout_seconds"`

	Store struct {
		Driver             string `toml:"driver"`
		DatabaseURL        string `toml:"database_url"`
		SQLitePath         string `toml:"sqlite_path"`
		FirestoreProjectID string `toml:"firestore_project_id"`
		CredentialsFile    string `toml:"credentials_file"`
	} `toml:"store"`

	Redis struct {
		Addr     string `toml:"addr"`
		Password string `toml:"password"`
		DB       int    `toml:"db"`
	} `toml:"redis"`

	RateLimit struct {
		Requests      *int `toml:"requests"`
		WindowSeconds int  `toml:"window_seconds"`
	} `toml:"rate_limit"`

	CORS struct {
		AllowedOrigins []string `toml:"allowed_origins"`
	} `toml:"cors"`
}

func defaults() *Config {
	return &Config{
		AppPort:            "8080",
		AppEnv:             "development",
		AppVersion:         "dev",
		LogLevel:           "info",
		Store:              store.Options{Driver: store.DriverMemory, SQLitePath: "tasks.db"},
		APIRateLimit:       100,
		APIRateWindow:      time.Minute,
		CORSAllowedOrigins: []string{"*"},
		ShutdownTimeout:    10 * time.Second,
	}
}

// Load reads defaults, then the TOML file named by CONFIG_FILE, then .env
// and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}
	if err := loadEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("loading config file %s: %w", path, err)
	}

	setString(&cfg.AppPort, fc.AppPort)
	setString(&cfg.AppEnv, fc.AppEnv)
	setString(&cfg.AppVersion, fc.Version)
	setString(&cfg.LogLevel, fc.LogLevel)
	if fc.LogJSON != nil {
		cfg.LogJSON = *fc.LogJSON
	}
	if fc.ShutdownTimeoutSeconds > 0 {
		cfg.ShutdownTimeout = time.Duration(fc.ShutdownTimeoutSeconds) * time.Second
	}

	setString(&cfg.Store.Driver, fc.Store.Driver)
	setString(&cfg.Store.DatabaseURL, fc.Store.DatabaseURL)
	setString(&cfg.Store.SQLitePath, fc.Store.SQLitePath)
	setString(&cfg.Store.FirestoreProjectID, fc.Store.FirestoreProjectID)
	setString(&cfg.Store.CredentialsFile, fc.Store.CredentialsFile)

	setString(&cfg.RedisAddr, fc.Redis.Addr)
	setString(&cfg.RedisPassword, fc.Redis.Password)
	if fc.Redis.DB > 0 {
		cfg.RedisDB = fc.Redis.DB
	}

	if fc.RateLimit.Requests != nil {
		cfg.APIRateLimit = *fc.RateLimit.Requests
	}
	if fc.RateLimit.WindowSeconds > 0 {
		cfg.APIRateWindow = time.Duration(fc.RateLimit.WindowSeconds) * time.Second
	}
	if len(fc.CORS.AllowedOrigins) > 0 {
		cfg.CORSAllowedOrigins = fc.CORS.AllowedOrigins
	}
	return nil
}

func loadEnv(cfg *Config) error {
	setString(&cfg.AppPort, os.Getenv("APP_PORT"))
	setString(&cfg.AppEnv, os.Getenv("APP_ENV"))
	setString(&cfg.AppVersion, os.Getenv("APP_VERSION"))
	setString(&cfg.LogLevel, os.Getenv("LOG_LEVEL"))
	if v := os.Getenv("LOG_JSON"); v != "" {
		cfg.LogJSON = v == "true" || v == "1"
	}

	setString(&cfg.Store.Driver, os.Getenv("STORE_DRIVER"))
	setString(&cfg.Store.DatabaseURL, os.Getenv("DATABASE_URL"))
	setString(&cfg.Store.SQLitePath, os.Getenv("SQLITE_PATH"))
	setString(&cfg.Store.FirestoreProjectID, os.Getenv("FIRESTORE_PROJECT_ID"))
	setString(&cfg.Store.CredentialsFile, os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))

	setString(&cfg.RedisAddr, os.Getenv("REDIS_ADDR"))
	setString(&cfg.RedisPassword, os.Getenv("REDIS_PASSWORD"))
	if err := setInt(&cfg.RedisDB, "REDIS_DB"); err != nil {
		return err
	}

	if err := setInt(&cfg.APIRateLimit, "API_RATE_LIMIT"); err != nil {
		return err
	}
	var seconds int
	if err := setInt(&seconds, "API_RATE_WINDOW_SECONDS"); err != nil {
		return err
	}
	if seconds > 0 {
		cfg.APIRateWindow = time.Duration(seconds) * time.Second
	}

	seconds = 0
	if err := setInt(&seconds, "SHUTDOWN_TIMEOUT_SECONDS"); err != nil {
		return err
	}
	if seconds > 0 {
		cfg.ShutdownTimeout = time.Duration(seconds) * time.Second
	}

	// Comma separated, e.g. https://a.example,https://b.example
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORSAllowedOrigins = origins
	}
	return nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case store.DriverMemory, store.DriverSQLite:
	case store.DriverPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is not set")
		}
	case store.DriverFirestore:
		if c.Store.FirestoreProjectID == "" {
			return fmt.Errorf("FIRESTORE_PROJECT_ID is not set")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Store.Driver == store.DriverSQLite && c.Store.SQLitePath == "" {
		return fmt.Errorf("SQLITE_PATH is not set")
	}
	if c.APIRateLimit < 0 {
		return fmt.Errorf("API_RATE_LIMIT must not be negative")
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s must be an integer: %w", key, err)
	}
	*dst = n
	return nil
}
