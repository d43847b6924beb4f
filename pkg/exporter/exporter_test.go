package exporter

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/quiby-ai/recordwire/pkg/obs"
	"github.com/quiby-ai/recordwire/pkg/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timerRecord(t *testing.T, position int64) record.Record {
	t.Helper()

	r, err := record.New(
		record.TimerValue{TargetElementID: "timer", DueDate: 1700000000000 + position, Repetitions: 1},
		record.WithIntent(record.TimerCreated),
		record.WithRecordType(record.RecordTypeEvent),
		record.WithPosition(position),
	)
	require.NoError(t, err)
	return r
}

func newTestExporter(t *testing.T, limit int, opts ...Option) *Exporter {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Limit = limit
	e, err := New(cfg, nil, append([]Option{WithLogger(obs.NopLogger())}, opts...)...)
	require.NoError(t, err)
	return e
}

func positions(records []record.Record) []int64 {
	out := make([]int64, 0, len(records))
	for _, r := range records {
		out = append(out, r.Position())
	}
	return out
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "zero port", mutate: func(c *Config) { c.Port = 0 }, wantErr: ErrInvalidPort},
		{name: "port too high", mutate: func(c *Config) { c.Port = 70000 }, wantErr: ErrInvalidPort},
		{name: "zero limit", mutate: func(c *Config) { c.Limit = 0 }, wantErr: ErrInvalidLimit},
		{name: "zero shutdown timeout", mutate: func(c *Config) { c.ShutdownTimeout = 0 }, wantErr: ErrInvalidShutdownTimeout},
		{name: "negative shutdown timeout", mutate: func(c *Config) { c.ShutdownTimeout = -time.Second }, wantErr: ErrInvalidShutdownTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				_, newErr := New(cfg, nil)
				assert.ErrorIs(t, newErr, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 3000, cfg.Limit)
	assert.Equal(t, ":9000", newTestExporter(t, 1).Addr())
}

func TestExportNewestFirst(t *testing.T) {
	e := newTestExporter(t, 10)

	for _, p := range []int64{1, 2, 3} {
		require.NoError(t, e.Export(timerRecord(t, p)))
	}

	assert.Equal(t, []int64{3, 2, 1}, positions(e.Records()))
	assert.Equal(t, 3, e.Len())
}

func TestExportDropsOldestBeyondLimit(t *testing.T) {
	e := newTestExporter(t, 3)

	for p := int64(1); p <= 5; p++ {
		require.NoError(t, e.Export(timerRecord(t, p)))
	}

	assert.Equal(t, []int64{5, 4, 3}, positions(e.Records()))
}

func TestExportRejectsUnregisteredAndEmpty(t *testing.T) {
	codec := record.NewCodec(record.NewRegistry())
	e, err := New(DefaultConfig(), codec, WithLogger(obs.NopLogger()))
	require.NoError(t, err)

	assert.ErrorIs(t, e.Export(timerRecord(t, 1)), record.ErrUnknownVariant)
	assert.ErrorIs(t, e.Export(record.Record{}), record.ErrNilValue)
	assert.Zero(t, e.Len())
}

func TestReset(t *testing.T) {
	e := newTestExporter(t, 3)
	require.NoError(t, e.Export(timerRecord(t, 1)))

	e.Reset()
	assert.Empty(t, e.Records())
}

func TestConcurrentExport(t *testing.T) {
	e := newTestExporter(t, 50)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 20 {
				_ = e.Export(timerRecord(t, int64(i*100+j)))
				_ = e.Records()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, e.Len())
}

func TestHandlerServesRecords(t *testing.T) {
	e := newTestExporter(t, 10, WithRecordMetrics(obs.RecordMetricsFromGlobal()))
	require.NoError(t, e.Export(timerRecord(t, 1)))
	require.NoError(t, e.Export(timerRecord(t, 2)))

	rec := httptest.NewRecorder()
	e.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, RecordsPath, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	got, err := record.UnmarshalList(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, positions(got))
	assert.True(t, got[0].Equal(timerRecord(t, 2)))
}

func TestHandlerEmpty(t *testing.T) {
	e := newTestExporter(t, 10)

	rec := httptest.NewRecorder()
	e.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, RecordsPath, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHandlerRoutes(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})

	tests := []struct {
		name   string
		opts   []Option
		method string
		path   string
		want   int
	}{
		{name: "unknown path", method: http.MethodGet, path: "/nope", want: http.StatusNotFound},
		{name: "wrong method", method: http.MethodPost, path: RecordsPath, want: http.StatusMethodNotAllowed},
		{name: "metrics not mounted", method: http.MethodGet, path: "/metrics", want: http.StatusNotFound},
		{name: "metrics mounted", opts: []Option{WithMetricsHandler("/metrics", metrics)}, method: http.MethodGet, path: "/metrics", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestExporter(t, 1, tt.opts...)

			rec := httptest.NewRecorder()
			e.Handler().ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestServe(t *testing.T) {
	e := newTestExporter(t, 10)
	require.NoError(t, e.Export(timerRecord(t, 7)))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + RecordsPath)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	got, err := record.UnmarshalList(body)
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, positions(got))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("exporter did not stop")
	}
}
