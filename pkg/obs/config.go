package obs

import (
	"io"
	"strings"
	"time"
)

type Config struct {
	ServiceName        string            `env:"SERVICE_NAME" envDefault:"recordwire"`
	ServiceVersion     string            `env:"SERVICE_VERSION" envDefault:"dev"`
	Environment        string            `env:"ENV" envDefault:"development"`
	OTLPEndpoint       string            `env:"OTLP_ENDPOINT" envDefault:""`
	OTLPInsecure       bool              `env:"OTLP_INSECURE" envDefault:"false"`
	OTLPTimeout        time.Duration     `env:"OTLP_TIMEOUT" envDefault:"30s"`
	TracingSampleRatio float64           `env:"TRACING_SAMPLE_RATIO" envDefault:"1.0"`
	MetricsEnabled     bool              `env:"METRICS_ENABLED" envDefault:"true"`
	MetricsPath        string            `env:"METRICS_PATH" envDefault:"/metrics"`
	LogLevel           string            `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty          bool              `env:"LOG_PRETTY" envDefault:"false"`
	ResourceAttributes map[string]string `env:"RESOURCE_ATTRIBUTES"`

	// LogOutput defaults to os.Stdout.
	LogOutput io.Writer `env:"-"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName:        "recordwire",
		ServiceVersion:     "dev",
		Environment:        "development",
		OTLPEndpoint:       "",
		OTLPInsecure:       false,
		OTLPTimeout:        30 * time.Second,
		TracingSampleRatio: 1.0,
		MetricsEnabled:     true,
		MetricsPath:        "/metrics",
		LogLevel:           "info",
		LogPretty:          false,
		ResourceAttributes: make(map[string]string),
	}
}

func (c Config) Validate() error {
	if c.ServiceName == "" {
		return ErrInvalidServiceName
	}
	if c.TracingSampleRatio < 0 || c.TracingSampleRatio > 1 {
		return ErrInvalidSampleRatio
	}
	if c.MetricsEnabled && !strings.HasPrefix(c.MetricsPath, "/") {
		return ErrInvalidMetricsPath
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}
	return nil
}
