package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const appName = "lazytable"

// Config holds all application configuration
type Config struct {
	Table   TableConfig   `mapstructure:"table"`
	Dates   DatesConfig   `mapstructure:"dates"`
	Views   ViewsConfig   `mapstructure:"views"`
	Records RecordsConfig `mapstructure:"records"`
	Server  ServerConfig  `mapstructure:"server"`
	Suggest SuggestConfig `mapstructure:"suggest"`
	Log     LogConfig     `mapstructure:"log"`
}

type TableConfig struct {
	Key string `mapstructure:"key"`
}

type DatesConfig struct {
	// Timezone is the IANA zone calendar days are counted in
	Timezone string `mapstructure:"timezone"`
}

type ViewsConfig struct {
	Backend string `mapstructure:"backend"` // yaml or sqlite
	Path    string `mapstructure:"path"`
}

type RecordsConfig struct {
	Source   string         `mapstructure:"source"` // memory or postgres
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
	Table    string `mapstructure:"table"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type SuggestConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	DebounceMS int  `mapstructure:"debounce_ms"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

// GetDefaults returns a Config with all default values
func GetDefaults() *Config {
	return &Config{
		Table: TableConfig{
			Key: "simple-table",
		},
		Dates: DatesConfig{
			Timezone: "UTC",
		},
		Views: ViewsConfig{
			Backend: "yaml",
			Path:    "",
		},
		Records: RecordsConfig{
			Source: "memory",
			Postgres: PostgresConfig{
				Host:    "localhost",
				Port:    5432,
				User:    "postgres",
				SSLMode: "prefer",
			},
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Suggest: SuggestConfig{
			Enabled:    true,
			DebounceMS: 300,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := GetDefaults()
	v.SetDefault("table.key", d.Table.Key)
	v.SetDefault("dates.timezone", d.Dates.Timezone)
	v.SetDefault("views.backend", d.Views.Backend)
	v.SetDefault("views.path", d.Views.Path)
	v.SetDefault("records.source", d.Records.Source)
	v.SetDefault("records.postgres.host", d.Records.Postgres.Host)
	v.SetDefault("records.postgres.port", d.Records.Postgres.Port)
	v.SetDefault("records.postgres.user", d.Records.Postgres.User)
	v.SetDefault("records.postgres.password", d.Records.Postgres.Password)
	v.SetDefault("records.postgres.database", d.Records.Postgres.Database)
	v.SetDefault("records.postgres.sslmode", d.Records.Postgres.SSLMode)
	v.SetDefault("records.postgres.table", d.Records.Postgres.Table)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("suggest.enabled", d.Suggest.Enabled)
	v.SetDefault("suggest.debounce_ms", d.Suggest.DebounceMS)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Load loads configuration. An explicit path must exist; otherwise
// config.yaml is looked up in the user config directory, "." and
// "./config", and a missing file just means defaults. LAZYTABLE_*
// environment variables override file values (LAZYTABLE_SERVER_ADDR).
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		if configDir, err := GetConfigPath(); err == nil {
			v.AddConfigPath(configDir)
		}
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix(appName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config (it's okay if file doesn't exist, we have defaults)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Views.Backend {
	case "yaml", "sqlite":
	default:
		return fmt.Errorf("views.backend must be yaml or sqlite, got %q", c.Views.Backend)
	}
	switch c.Records.Source {
	case "memory", "postgres":
	default:
		return fmt.Errorf("records.source must be memory or postgres, got %q", c.Records.Source)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location returns the zone calendar days are counted in
func (c *Config) Location() (*time.Location, error) {
	if c.Dates.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Dates.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid dates.timezone %q: %w", c.Dates.Timezone, err)
	}
	return loc, nil
}

// ViewsPath returns where saved views live, defaulting to a file in the
// user config directory named after the backend
func (c *Config) ViewsPath() (string, error) {
	if c.Views.Path != "" {
		return c.Views.Path, nil
	}
	dir, err := GetConfigPath()
	if err != nil {
		return "", err
	}
	if c.Views.Backend == "sqlite" {
		return filepath.Join(dir, "views.db"), nil
	}
	return filepath.Join(dir, "views.yaml"), nil
}

// SuggestDebounce returns the suggestion debounce delay
func (c *Config) SuggestDebounce() time.Duration {
	return time.Duration(c.Suggest.DebounceMS) * time.Millisecond
}

// GetConfigPath returns the user config directory path
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appName), nil
}
