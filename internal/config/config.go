package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/signalalpha/hitbtc-go/pkg/hitbtc"
)

// Config represents the application configuration
type Config struct {
	HitBTC   HitBTCConfig   `mapstructure:"hitbtc"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// HitBTCConfig contains HitBTC API configuration
type HitBTCConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	APISecret  string        `mapstructure:"api_secret"`
	APIVersion int           `mapstructure:"api_version"` // 1 or 2
	Env        string        `mapstructure:"env"`         // live or demo
	Throttle   time.Duration `mapstructure:"throttle"`
}

// LogConfig contains logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Output string `mapstructure:"output"` // console, file, both
	File   string `mapstructure:"file"`
}

// DatabaseConfig contains PostgreSQL database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// SyncConfig contains the history sync configuration
type SyncConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	PageSize int           `mapstructure:"page_size"`
	Symbols  []string      `mapstructure:"symbols"`
	UserID   string        `mapstructure:"user_id"`
}

// MetricsConfig contains the prometheus listener configuration
type MetricsConfig struct {
	Listen string `mapstructure:"listen"`
}

// Version returns the configured API version.
func (c HitBTCConfig) Version() hitbtc.Version {
	return hitbtc.Version(c.APIVersion)
}

// Environment returns the configured API environment.
func (c HitBTCConfig) Environment() hitbtc.Environment {
	env, _ := hitbtc.ParseEnvironment(c.Env)
	return env
}

// HasCredentials reports whether trading calls can be made.
func (c HitBTCConfig) HasCredentials() bool {
	return c.APIKey != "" && c.APISecret != ""
}

// LoadDotEnv loads .env.local and .env when present. Variables already set in the
// environment win.
func LoadDotEnv() error {
	for _, file := range []string{".env.local", ".env"} {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}
	}
	return nil
}

// Load loads configuration from file and environment variables
// If configPath is empty, it will search in default locations (./configs, .)
func Load(configPath string) (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v)

	v.SetEnvPrefix("HITBTC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// the file is optional when everything comes from the environment
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configPath != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("hitbtc.api_version", 2)
	v.SetDefault("hitbtc.env", "live")
	v.SetDefault("hitbtc.throttle", "100ms")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "console")
	v.SetDefault("log.file", "logs/hitbtc.log")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "hitbtc")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("sync.interval", "1m")
	v.SetDefault("sync.page_size", 100)
	v.SetDefault("sync.symbols", []string{"ETHBTC"})
	v.SetDefault("sync.user_id", "default")

	v.SetDefault("metrics.listen", ":9090")
}

func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("hitbtc.api_key", "HITBTC_API_KEY")
	_ = v.BindEnv("hitbtc.api_secret", "HITBTC_API_SECRET", "HITBTC_SECRET_KEY")
	_ = v.BindEnv("hitbtc.api_version", "HITBTC_API_VERSION")
	_ = v.BindEnv("hitbtc.env", "HITBTC_ENV")
	_ = v.BindEnv("hitbtc.throttle", "HITBTC_THROTTLE")

	_ = v.BindEnv("log.level", "HITBTC_LOG_LEVEL", "LOG_LEVEL")
	_ = v.BindEnv("log.output", "HITBTC_LOG_OUTPUT", "LOG_OUTPUT")
	_ = v.BindEnv("log.file", "HITBTC_LOG_FILE")

	_ = v.BindEnv("database.host", "HITBTC_DB_HOST", "DB_HOST", "POSTGRES_HOST")
	_ = v.BindEnv("database.port", "HITBTC_DB_PORT", "DB_PORT", "POSTGRES_PORT")
	_ = v.BindEnv("database.user", "HITBTC_DB_USER", "DB_USER", "POSTGRES_USER")
	_ = v.BindEnv("database.password", "HITBTC_DB_PASSWORD", "DB_PASSWORD", "POSTGRES_PASSWORD")
	_ = v.BindEnv("database.dbname", "HITBTC_DB_NAME", "DB_NAME", "POSTGRES_DB")
	_ = v.BindEnv("database.sslmode", "HITBTC_DB_SSLMODE", "DB_SSLMODE")

	_ = v.BindEnv("sync.interval", "HITBTC_SYNC_INTERVAL")
	_ = v.BindEnv("sync.user_id", "HITBTC_SYNC_USER_ID")

	_ = v.BindEnv("metrics.listen", "HITBTC_METRICS_LISTEN")
}

func validate(cfg *Config) error {
	// a half configured pair is a mistake, both empty means public-only
	if (cfg.HitBTC.APIKey == "") != (cfg.HitBTC.APISecret == "") {
		return fmt.Errorf("hitbtc.api_key and hitbtc.api_secret must be set together")
	}

	if v := cfg.HitBTC.Version(); v != hitbtc.V1 && v != hitbtc.V2 {
		return fmt.Errorf("invalid hitbtc.api_version %d: must be 1 or 2", cfg.HitBTC.APIVersion)
	}

	if _, err := hitbtc.ParseEnvironment(cfg.HitBTC.Env); err != nil {
		return fmt.Errorf("invalid hitbtc.env: %w", err)
	}

	if cfg.HitBTC.Throttle < 0 {
		return fmt.Errorf("hitbtc.throttle cannot be negative")
	}

	switch cfg.Log.Output {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid log.output %q: must be console, file or both", cfg.Log.Output)
	}

	return nil
}

// ValidateSync checks the settings the sync service needs beyond what Load validates.
func ValidateSync(cfg *Config) error {
	if !cfg.HitBTC.HasCredentials() {
		return fmt.Errorf("HITBTC_API_KEY and HITBTC_API_SECRET are required for the sync service")
	}
	if cfg.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if cfg.Database.DBName == "" {
		return fmt.Errorf("database.dbname is required")
	}
	if cfg.Sync.Interval <= 0 {
		return fmt.Errorf("sync.interval must be greater than 0")
	}
	if len(cfg.Sync.Symbols) == 0 {
		return fmt.Errorf("sync.symbols cannot be empty")
	}
	return nil
}
