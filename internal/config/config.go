package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	ACS    ACSConfig    `yaml:"acs" mapstructure:"acs"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// ACSConfig configures the Census ACS API client.
type ACSConfig struct {
	Year        string   `yaml:"year" mapstructure:"year"`
	Dataset     string   `yaml:"dataset" mapstructure:"dataset"`
	BaseURL     string   `yaml:"base_url" mapstructure:"base_url"`
	APIKey      string   `yaml:"api_key" mapstructure:"api_key"`
	TimeoutSecs int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Variables   []string `yaml:"variables" mapstructure:"variables"`
}

// Timeout returns the per-request timeout.
func (c ACSConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// StoreConfig configures where the load command writes records.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Table       string `yaml:"table" mapstructure:"table"`
}

// ServerConfig configures the HTTP facade.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ACS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("acs.year", "2022")
	v.SetDefault("acs.dataset", "acs5")
	v.SetDefault("acs.base_url", "https://api.census.gov/data")
	v.SetDefault("acs.api_key", "")
	v.SetDefault("acs.timeout_secs", 30)
	v.SetDefault("acs.variables", []string{})
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "acs.db")
	v.SetDefault("store.table", "acs_records")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes are "fetch",
// "load" and "serve".
func (c *Config) Validate(mode string) error {
	var errs []string

	if strings.TrimSpace(c.ACS.Year) == "" {
		errs = append(errs, "acs.year is required")
	}
	if strings.TrimSpace(c.ACS.Dataset) == "" {
		errs = append(errs, "acs.dataset is required")
	}
	if c.ACS.TimeoutSecs < 0 {
		errs = append(errs, "acs.timeout_secs must be >= 0")
	}

	switch mode {
	case "fetch":
	case "load":
		switch c.Store.Driver {
		case "postgres", "sqlite":
		default:
			errs = append(errs, "store.driver must be postgres or sqlite")
		}
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
		if c.Store.Table == "" {
			errs = append(errs, "store.table is required")
		}
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
