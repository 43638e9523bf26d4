package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config is the environment-driven configuration for the storefront client.
// A host override persisted in the local store takes precedence over APIHost.
type Config struct {
	Environment  string `default:"development"`
	APIHost      string `envconfig:"API_HOST" default:"http://localhost:8080"`
	StorePath    string `split_words:"true" default:"smartsale.db"`
	RedisURL     string `split_words:"true"`
	Currency     string `default:"INR"`
	PaymentKey   string `split_words:"true"`
	CallbackAddr string `split_words:"true" default:"127.0.0.1:8731"`
	PageSize     int    `split_words:"true" default:"20"`
	Sort         string `default:"name,asc"`
}

func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process("smartsale", &c); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	return &c, nil
}
