package exporter

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/quiby-ai/recordwire/pkg/obs"
)

const RecordsPath = "/records.json"

func (e *Exporter) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(e.requestLogger)

	r.Get(RecordsPath, e.serveRecords)
	if e.metricsHandler != nil {
		r.Method(http.MethodGet, e.metricsPath, e.metricsHandler)
	}
	return r
}

func (e *Exporter) serveRecords(w http.ResponseWriter, r *http.Request) {
	records := e.Records()

	data, err := e.codec.MarshalList(records)
	if err != nil {
		e.logger.Error(r.Context(), "failed to encode records", err, "count", len(records))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	for _, rec := range records {
		e.metrics.Encoded(r.Context(), rec.ValueType().String())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (e *Exporter) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"took_ms", time.Since(start).Milliseconds(),
		}
		switch {
		case ww.Status() >= http.StatusInternalServerError:
			e.logger.Warn(r.Context(), "request completed", append(attrs, "outcome", obs.StatusError)...)
		default:
			e.logger.Debug(r.Context(), "request completed", attrs...)
		}
	})
}
