package exporter

import (
	"errors"
	"time"
)

var (
	ErrInvalidPort  = errors.New("exporter: port must be between 1 and 65535")
	ErrInvalidLimit = errors.New("exporter: limit must be positive")

	ErrInvalidShutdownTimeout = errors.New("exporter: shutdown timeout must be positive")
)

type Config struct {
	Port            int           `env:"EXPORTER_PORT" envDefault:"9000"`
	Limit           int           `env:"EXPORTER_LIMIT" envDefault:"3000"`
	ShutdownTimeout time.Duration `env:"EXPORTER_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

func DefaultConfig() Config {
	return Config{
		Port:            9000,
		Limit:           3000,
		ShutdownTimeout: 5 * time.Second,
	}
}

func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return ErrInvalidPort
	}
	if c.Limit <= 0 {
		return ErrInvalidLimit
	}
	if c.ShutdownTimeout <= 0 {
		return ErrInvalidShutdownTimeout
	}
	return nil
}
