package main

import (
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// config is read from GUESTBOOK_* environment variables.
type config struct {
	URL       string `envconfig:"GUESTBOOK_URL" default:"http://localhost:8080"`
	TokenFile string `envconfig:"GUESTBOOK_TOKEN_FILE"`
	// GUESTBOOK_COLOURS enables coloured output.
	Colours bool `envconfig:"GUESTBOOK_COLOURS" default:"true"`
}

func loadConfig() (config, error) {
	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		return config{}, err
	}
	if cfg.TokenFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return config{}, err
		}
		cfg.TokenFile = filepath.Join(home, ".guestbook-token")
	}
	return cfg, nil
}
