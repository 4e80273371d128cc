package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

var ErrUnknownStore = errors.New("unknown store backend")

type Config struct {
	HTTPAddr   string        `yaml:"http-addr" env:"HTTP_ADDR" env-default:":8080"`
	LogLevel   string        `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat  string        `yaml:"log-format" env:"LOG_FORMAT" env-default:"json"`
	SessionTTL time.Duration `yaml:"session-ttl" env:"SESSION_TTL" env-default:"30m"`
	Heartbeat  time.Duration `yaml:"heartbeat" env:"HEARTBEAT_INTERVAL" env-default:"15s"`
	Store      string        `yaml:"store" env:"STORE" env-default:"memory"`
	Redis      Redis         `yaml:"redis"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

// Load reads the YAML file at path, if it exists, then applies environment
// overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	var err error
	if _, statErr := os.Stat(path); path != "" && statErr == nil {
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStore, c.Store)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session-ttl must be positive, got %s", c.SessionTTL)
	}
	if c.Heartbeat <= 0 {
		return fmt.Errorf("heartbeat must be positive, got %s", c.Heartbeat)
	}
	return nil
}

// Addr is the host:port of the redis server.
func (r Redis) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// Usage describes every setting and its environment variable.
func Usage() string {
	cfg := &Config{}
	text, err := cleanenv.GetDescription(cfg, nil)
	if err != nil {
		return err.Error()
	}
	return text
}
