// Package config loads every component's settings from the environment and
// an optional .env file.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/quiby-ai/recordwire/pkg/exporter"
	"github.com/quiby-ai/recordwire/pkg/obs"
	"github.com/quiby-ai/recordwire/pkg/stream"
	"github.com/quiby-ai/recordwire/pkg/transport"
	"github.com/quiby-ai/recordwire/pkg/verify"
	"github.com/spf13/viper"
)

type Config struct {
	Obs       obs.Config
	Exporter  exporter.Config
	Verify    verify.Config
	Transport transport.Config
	Stream    stream.Config

	// ExporterURL is where the verifier reads exported records from.
	ExporterURL string `env:"EXPORTER_URL" envDefault:"http://localhost:9000"`
}

func Default() Config {
	return Config{
		Obs:         obs.DefaultConfig(),
		Exporter:    exporter.DefaultConfig(),
		Verify:      verify.DefaultConfig(),
		Transport:   transport.DefaultConfig(),
		Stream:      stream.DefaultConfig(),
		ExporterURL: "http://localhost:9000",
	}
}

type options struct {
	paths  []string
	logger *obs.Logger
}

type Option func(*options)

// WithSearchPath adds a directory searched for the .env file. The working
// directory is searched when none is given.
func WithSearchPath(dir string) Option {
	return func(o *options) { o.paths = append(o.paths, dir) }
}

func WithLogger(l *obs.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Load reads .env if present, lets environment variables override it, and
// falls back to each component's defaults. The result is validated.
func Load(opts ...Option) (Config, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if len(o.paths) == 0 {
		o.paths = []string{"."}
	}
	if o.logger == nil {
		o.logger = obs.DefaultLogger()
	}

	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("dotenv")
	for _, p := range o.paths {
		v.AddConfigPath(p)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read .env: %w", err)
		}
		o.logger.Debug(context.Background(), "no .env file found, using environment only")
	}

	setDefaults(v, Default())

	cfg := Config{
		Obs: obs.Config{
			ServiceName:        v.GetString("SERVICE_NAME"),
			ServiceVersion:     v.GetString("SERVICE_VERSION"),
			Environment:        v.GetString("ENV"),
			OTLPEndpoint:       v.GetString("OTLP_ENDPOINT"),
			OTLPInsecure:       v.GetBool("OTLP_INSECURE"),
			OTLPTimeout:        v.GetDuration("OTLP_TIMEOUT"),
			TracingSampleRatio: v.GetFloat64("TRACING_SAMPLE_RATIO"),
			MetricsEnabled:     v.GetBool("METRICS_ENABLED"),
			MetricsPath:        v.GetString("METRICS_PATH"),
			LogLevel:           v.GetString("LOG_LEVEL"),
			LogPretty:          v.GetBool("LOG_PRETTY"),
			ResourceAttributes: parsePairs(v.GetString("RESOURCE_ATTRIBUTES")),
		},
		Exporter: exporter.Config{
			Port:            v.GetInt("EXPORTER_PORT"),
			Limit:           v.GetInt("EXPORTER_LIMIT"),
			ShutdownTimeout: v.GetDuration("EXPORTER_SHUTDOWN_TIMEOUT"),
		},
		Verify: verify.Config{
			WaitBound:       v.GetDuration("VERIFY_WAIT_BOUND"),
			PollInterval:    v.GetDuration("VERIFY_POLL_INTERVAL"),
			MaxPollInterval: v.GetDuration("VERIFY_MAX_POLL_INTERVAL"),
		},
		Transport: transport.Config{
			Timeout:        v.GetDuration("HTTP_TIMEOUT"),
			MaxRetries:     v.GetInt("HTTP_MAX_RETRIES"),
			BackoffInitial: v.GetDuration("HTTP_BACKOFF_INITIAL"),
			BackoffMax:     v.GetDuration("HTTP_BACKOFF_MAX"),
			UserAgent:      v.GetString("HTTP_USER_AGENT"),
		},
		Stream: stream.Config{
			Brokers:     parseList(v.GetString("KAFKA_BROKERS")),
			TopicPrefix: v.GetString("KAFKA_TOPIC_PREFIX"),
			GroupID:     v.GetString("KAFKA_GROUP_ID"),
		},
		ExporterURL: v.GetString("EXPORTER_URL"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks each component. Stream settings are only checked once
// brokers are configured.
func (c Config) Validate() error {
	var errs []error
	if err := c.Obs.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("obs: %w", err))
	}
	if err := c.Exporter.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Verify.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(c.Stream.Brokers) > 0 {
		if err := c.Stream.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.ExporterURL == "" {
		errs = append(errs, transport.ErrEmptyURL)
	}
	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper, d Config) {
	defaults := map[string]any{
		"SERVICE_NAME":              d.Obs.ServiceName,
		"SERVICE_VERSION":           d.Obs.ServiceVersion,
		"ENV":                       d.Obs.Environment,
		"OTLP_ENDPOINT":             d.Obs.OTLPEndpoint,
		"OTLP_INSECURE":             d.Obs.OTLPInsecure,
		"OTLP_TIMEOUT":              d.Obs.OTLPTimeout,
		"TRACING_SAMPLE_RATIO":      d.Obs.TracingSampleRatio,
		"METRICS_ENABLED":           d.Obs.MetricsEnabled,
		"METRICS_PATH":              d.Obs.MetricsPath,
		"LOG_LEVEL":                 d.Obs.LogLevel,
		"LOG_PRETTY":                d.Obs.LogPretty,
		"RESOURCE_ATTRIBUTES":       "",
		"EXPORTER_PORT":             d.Exporter.Port,
		"EXPORTER_LIMIT":            d.Exporter.Limit,
		"EXPORTER_SHUTDOWN_TIMEOUT": d.Exporter.ShutdownTimeout,
		"EXPORTER_URL":              d.ExporterURL,
		"VERIFY_WAIT_BOUND":         d.Verify.WaitBound,
		"VERIFY_POLL_INTERVAL":      d.Verify.PollInterval,
		"VERIFY_MAX_POLL_INTERVAL":  d.Verify.MaxPollInterval,
		"HTTP_TIMEOUT":              d.Transport.Timeout,
		"HTTP_MAX_RETRIES":          d.Transport.MaxRetries,
		"HTTP_BACKOFF_INITIAL":      d.Transport.BackoffInitial,
		"HTTP_BACKOFF_MAX":          d.Transport.BackoffMax,
		"HTTP_USER_AGENT":           d.Transport.UserAgent,
		"KAFKA_BROKERS":             "",
		"KAFKA_TOPIC_PREFIX":        d.Stream.TopicPrefix,
		"KAFKA_GROUP_ID":            d.Stream.GroupID,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

func parseList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// parsePairs reads "k1=v1,k2=v2".
func parsePairs(s string) map[string]string {
	out := make(map[string]string)
	for _, item := range parseList(s) {
		key, value, ok := strings.Cut(item, "=")
		if !ok || strings.TrimSpace(key) == "" {
			continue
		}
		out[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return out
}
