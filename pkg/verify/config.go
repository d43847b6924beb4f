package verify

import (
	"fmt"
	"time"
)

type Config struct {
	WaitBound       time.Duration `env:"VERIFY_WAIT_BOUND" envDefault:"2s"`
	PollInterval    time.Duration `env:"VERIFY_POLL_INTERVAL" envDefault:"10ms"`
	MaxPollInterval time.Duration `env:"VERIFY_MAX_POLL_INTERVAL" envDefault:"250ms"`
}

func DefaultConfig() Config {
	return Config{
		WaitBound:       2 * time.Second,
		PollInterval:    10 * time.Millisecond,
		MaxPollInterval: 250 * time.Millisecond,
	}
}

func (c Config) Validate() error {
	if c.WaitBound <= 0 {
		return fmt.Errorf("%w: wait bound must be positive", ErrInvalidConfig)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive", ErrInvalidConfig)
	}
	if c.MaxPollInterval < c.PollInterval {
		return fmt.Errorf("%w: max poll interval below poll interval", ErrInvalidConfig)
	}
	return nil
}
