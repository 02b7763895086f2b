// Package config loads service settings from environment variables via Viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the service needs at construction time. There are
// no process-wide singletons; the loaded struct is passed down explicitly.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`

	// DatabaseURL, when set, wins over the individual DB_* settings.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBHost      string `mapstructure:"DB_HOST"`
	DBPort      string `mapstructure:"DB_PORT"`
	DBUser      string `mapstructure:"DB_USER"`
	DBPassword  string `mapstructure:"DB_PASSWORD"`
	DBName      string `mapstructure:"DB_NAME"`
	DBSSLMode   string `mapstructure:"DB_SSLMODE"`

	// MaxPinAttempts is the wrong-PIN budget before an account locks.
	MaxPinAttempts int `mapstructure:"MAX_PIN_ATTEMPTS"`
	// LockTimeout bounds how long a unit of work waits for a row lock.
	LockTimeout time.Duration `mapstructure:"LOCK_TIMEOUT"`
}

// Load reads configuration from the environment, applying defaults for
// anything unset. It never reads a config file; a .env, if any, is loaded by
// the caller before this runs.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "bankledger")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("MAX_PIN_ATTEMPTS", 3)
	v.SetDefault("LOCK_TIMEOUT", "3s")

	// AutomaticEnv alone does not surface env values through Unmarshal, so
	// bind each key explicitly.
	for _, key := range []string{
		"SERVER_PORT", "DATABASE_URL",
		"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
		"MAX_PIN_ATTEMPTS", "LOCK_TIMEOUT",
	} {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.MaxPinAttempts <= 0 {
		cfg.MaxPinAttempts = 3
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = 3 * time.Second
	}

	return &cfg, nil
}

// GetDBConnectionString builds the lib/pq connection string.
func (c *Config) GetDBConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}
