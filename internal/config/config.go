// Package config provides client configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

// Config holds client configuration values loaded from file or environment
// variables.
type Config struct {
	APIBaseURL        string `mapstructure:"API_BASE_URL"`
	RequestTimeoutSec int    `mapstructure:"REQUEST_TIMEOUT_SECONDS"`
	GeocoderURL       string `mapstructure:"GEOCODER_URL"`
	GeocodeTimeoutSec int    `mapstructure:"GEOCODE_TIMEOUT_SECONDS"`
	DefaultLocation   string `mapstructure:"DEFAULT_LOCATION"`
	OfflineStorePath  string `mapstructure:"OFFLINE_STORE_PATH"`
	NotificationsURL  string `mapstructure:"NOTIFICATIONS_WS_URL"`
	Env               string `mapstructure:"APP_ENV"`
}

// RequestTimeout returns the fixed client-side timeout applied to every
// API request.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// GeocodeTimeout returns the budget for a best-effort reverse-geocode
// lookup.
func (c *Config) GeocodeTimeout() time.Duration {
	return time.Duration(c.GeocodeTimeoutSec) * time.Second
}

// LoadConfig loads client configuration from file and environment
// variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The config file is optional; environment variables and defaults
	// cover the full set of keys.
	_ = viper.ReadInConfig()

	viper.SetDefault("API_BASE_URL", "https://tangle-asy7.onrender.com")
	viper.SetDefault("REQUEST_TIMEOUT_SECONDS", 10)
	viper.SetDefault("GEOCODER_URL", "https://nominatim.openstreetmap.org/reverse")
	viper.SetDefault("GEOCODE_TIMEOUT_SECONDS", 5)
	viper.SetDefault("DEFAULT_LOCATION", "mohali")
	viper.SetDefault("OFFLINE_STORE_PATH", "tangle-feed.db")
	viper.SetDefault("NOTIFICATIONS_WS_URL", "")
	viper.SetDefault("APP_ENV", "development")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures that required configuration values are present and
// well-formed.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return errors.New("API_BASE_URL is required")
	}
	if _, err := url.ParseRequestURI(c.APIBaseURL); err != nil {
		return fmt.Errorf("API_BASE_URL must be a valid URL: %w", err)
	}
	if c.RequestTimeoutSec <= 0 {
		return errors.New("REQUEST_TIMEOUT_SECONDS must be positive")
	}
	if c.GeocodeTimeoutSec <= 0 {
		return errors.New("GEOCODE_TIMEOUT_SECONDS must be positive")
	}
	return nil
}
