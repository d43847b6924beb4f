package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/quiby-ai/recordwire/pkg/exporter"
	"github.com/quiby-ai/recordwire/pkg/obs"
	"github.com/quiby-ai/recordwire/pkg/stream"
	"github.com/quiby-ai/recordwire/pkg/verify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, dir string) (Config, error) {
	t.Helper()
	return Load(WithSearchPath(dir), WithLogger(obs.NopLogger()))
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(t, t.TempDir())
	require.NoError(t, err)

	d := Default()
	assert.Equal(t, d.Exporter, cfg.Exporter)
	assert.Equal(t, d.Verify, cfg.Verify)
	assert.Equal(t, d.Transport, cfg.Transport)
	assert.Equal(t, d.ExporterURL, cfg.ExporterURL)
	assert.Equal(t, "recordwire", cfg.Obs.ServiceName)
	assert.Equal(t, 2*time.Second, cfg.Verify.WaitBound)
	assert.Equal(t, 9000, cfg.Exporter.Port)
	assert.Equal(t, 3000, cfg.Exporter.Limit)
	assert.Empty(t, cfg.Stream.Brokers)
	assert.Empty(t, cfg.Obs.ResourceAttributes)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SERVICE_NAME", "broker-verifier")
	t.Setenv("EXPORTER_PORT", "9100")
	t.Setenv("EXPORTER_LIMIT", "10")
	t.Setenv("VERIFY_WAIT_BOUND", "5s")
	t.Setenv("HTTP_MAX_RETRIES", "4")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("RESOURCE_ATTRIBUTES", "region=eu-west-1,cluster=ci,broken")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := load(t, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "broker-verifier", cfg.Obs.ServiceName)
	assert.Equal(t, 9100, cfg.Exporter.Port)
	assert.Equal(t, 10, cfg.Exporter.Limit)
	assert.Equal(t, 5*time.Second, cfg.Verify.WaitBound)
	assert.Equal(t, 4, cfg.Transport.MaxRetries)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Stream.Brokers)
	assert.Equal(t, map[string]string{"region": "eu-west-1", "cluster": "ci"}, cfg.Obs.ResourceAttributes)
	assert.False(t, cfg.Obs.MetricsEnabled)
}

func TestLoadDotEnvWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	content := "EXPORTER_PORT=9200\nVERIFY_POLL_INTERVAL=20ms\nLOG_LEVEL=debug\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600))

	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := load(t, dir)
	require.NoError(t, err)

	assert.Equal(t, 9200, cfg.Exporter.Port)
	assert.Equal(t, 20*time.Millisecond, cfg.Verify.PollInterval)
	assert.Equal(t, "warn", cfg.Obs.LogLevel)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr error
	}{
		{name: "exporter limit", key: "EXPORTER_LIMIT", value: "0", wantErr: exporter.ErrInvalidLimit},
		{name: "exporter shutdown timeout", key: "EXPORTER_SHUTDOWN_TIMEOUT", value: "0s", wantErr: exporter.ErrInvalidShutdownTimeout},
		{name: "wait bound", key: "VERIFY_WAIT_BOUND", value: "0s", wantErr: verify.ErrInvalidConfig},
		{name: "sample ratio", key: "TRACING_SAMPLE_RATIO", value: "2", wantErr: obs.ErrInvalidSampleRatio},
		{name: "log level", key: "LOG_LEVEL", value: "trace", wantErr: obs.ErrInvalidLogLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("KAFKA_BROKERS", "kafka:9092")
			t.Setenv(tt.key, tt.value)

			_, err := load(t, t.TempDir())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateStreamOnlyWithBrokers(t *testing.T) {
	cfg := Default()
	cfg.Stream.TopicPrefix = ""
	assert.NoError(t, cfg.Validate())

	cfg.Stream.Brokers = []string{"kafka:9092"}
	assert.ErrorIs(t, cfg.Validate(), stream.ErrNoTopicPrefix)
}

func TestParsePairs(t *testing.T) {
	assert.Equal(t, map[string]string{"a": "1", "b": ""}, parsePairs(" a = 1 ,b=, =x,junk"))
	assert.Empty(t, parsePairs(""))
}
