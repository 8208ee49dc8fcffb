package config

import (
	"fmt"
	"time"

	env "github.com/Netflix/go-env"
)

type Config struct {
	DBFile  string `env:"PULSE_DB,default=pulse.db"`
	APIAddr string `env:"API_ADDR,default=:8080"`
	OpsAddr string `env:"OPS_ADDR,default=localhost:8081"`

	VideoServiceURL string        `env:"VIDEO_SERVICE_URL"`
	VideoTimeout    time.Duration `env:"VIDEO_TIMEOUT,default=2s"`
	StoreTimeout    time.Duration `env:"STORE_TIMEOUT,default=5s"`
	TypingQuiet     time.Duration `env:"TYPING_QUIET,default=2s"`
	ParticipantTTL  time.Duration `env:"PARTICIPANT_CACHE_TTL,default=5s"`

	SendBuffer  int `env:"SEND_BUFFER,default=100"`
	HistorySize int `env:"HISTORY_SIZE,default=100"`

	LogLevel string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.TypingQuiet <= 0 {
		return fmt.Errorf("TYPING_QUIET must be greater than 0")
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be greater than 0")
	}
	if c.VideoTimeout <= 0 {
		return fmt.Errorf("VIDEO_TIMEOUT must be greater than 0")
	}
	if c.SendBuffer <= 0 {
		return fmt.Errorf("SEND_BUFFER must be greater than 0")
	}
	if c.HistorySize <= 0 {
		return fmt.Errorf("HISTORY_SIZE must be greater than 0")
	}
	return nil
}
