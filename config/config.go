// Package config loads client configuration from a file and environment
// variables. Only connection and logging options live here; query shapes
// are runtime values, not configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"relmap/logging"
)

// Config holds the mapper client configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Log      logging.Config `mapstructure:"log"`
}

// DatabaseConfig holds connection parameters. DSN, when set, wins over the
// individual fields.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// FormatDSN renders the connection string for the configured driver.
func (d DatabaseConfig) FormatDSN() (string, error) {
	if d.DSN != "" {
		return d.DSN, nil
	}
	switch d.Driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			d.User, d.Password, d.Host, d.Port, d.Database), nil
	default:
		return "", fmt.Errorf("config: cannot derive DSN for driver %q, set database.dsn", d.Driver)
	}
}

// Load reads configuration with the following precedence: environment
// variables (prefix RELMAP_), then the config file at path (optional when
// empty), then defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: failed to read %q: %w", path, err)
		}
	}

	v.SetEnvPrefix("RELMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("config: failed to build decoder: %w", err)
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("config: failed to decode: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

func validate(cfg *Config) error {
	if cfg.Database.Driver == "" {
		return fmt.Errorf("config: database.driver is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Database == "" {
		return fmt.Errorf("config: one of database.dsn or database.database is required")
	}
	switch cfg.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: invalid log.level %q", cfg.Log.Level)
	}
	return nil
}
