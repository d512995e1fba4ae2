// Package config loads Splitway settings from an optional YAML file, a .env
// file and SPLITWAY_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type DataConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type CurrencyConfig struct {
	Symbol string `mapstructure:"symbol"`
}

type HistoryConfig struct {
	Limit int `mapstructure:"limit"`
}

type MetricsConfig struct {
	// Textfile is a node-exporter textfile collector path. Empty disables it.
	Textfile string `mapstructure:"textfile"`
}

// Config holds all application configuration.
type Config struct {
	Data     DataConfig     `mapstructure:"data"`
	Log      LogConfig      `mapstructure:"log"`
	Currency CurrencyConfig `mapstructure:"currency"`
	History  HistoryConfig  `mapstructure:"history"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// Load reads configuration. path may be empty, in which case splitway.yaml is
// looked up in the working directory and its absence is not an error.
// A .env file in the working directory is applied to the environment first.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetDefault("data.path", "./data/splitway.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("currency.symbol", "$")
	v.SetDefault("history.limit", 10)
	v.SetDefault("metrics.textfile", "")

	// environment overrides, e.g. SPLITWAY_DATA_PATH=/tmp/s.db
	v.SetEnvPrefix("SPLITWAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		v.SetConfigName("splitway")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.Data.Path == "" {
		return nil, fmt.Errorf("data.path must not be empty")
	}
	return &c, nil
}
