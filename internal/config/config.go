package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// Config holds server configuration loaded from environment variables.
type Config struct {
	Host    string `env:"HOST"`
	Port    int    `env:"PORT,default=8080"`
	BaseURL string `env:"BASE_URL,default=http://localhost:8080"`

	StoreDriver string `env:"STORE_DRIVER,default=sqlite"`
	DBPath      string `env:"DB_PATH,default=guestbook.db"`
	BadgerPath  string `env:"BADGER_PATH,default=guestbook.badger"`
	MaxTopics   int    `env:"MAX_TOPICS,default=100"`

	SessionSecret string        `env:"SESSION_SECRET,required=true"`
	SessionTTL    time.Duration `env:"SESSION_TTL,default=720h"`

	GoogleClientID      string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret  string `env:"GOOGLE_CLIENT_SECRET"`
	DiscordClientID     string `env:"DISCORD_CLIENT_ID"`
	DiscordClientSecret string `env:"DISCORD_CLIENT_SECRET"`

	LogLevel        string        `env:"LOG_LEVEL,default=INFO"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}

// Load reads an optional .env file, then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnviron()
}

// FromEnviron reads configuration from the process environment only.
func FromEnviron() (Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Addr is the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c Config) validate() error {
	if len(c.SessionSecret) < 32 {
		return errors.New("SESSION_SECRET must be at least 32 bytes")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("BASE_URL %q is not an absolute URL", c.BaseURL)
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	return nil
}
