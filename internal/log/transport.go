package log

import (
	"net/http"
	"strings"
	"time"
)

const CorrelationIDHeader = "X-Correlation-ID"

// Transport stamps outbound requests with the context's correlation ID and
// logs each round trip.
type Transport struct {
	Base   http.RoundTripper
	Logger *Logger
}

func NewTransport(base http.RoundTripper, logger *Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Base: base, Logger: logger}
}

func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	id := GetOrGenerateCorrelationID(r.Context())

	out := r.Clone(ContextWithCorrelationID(r.Context(), id))
	if out.Header.Get(CorrelationIDHeader) == "" {
		out.Header.Set(CorrelationIDHeader, id)
	}

	logger := GetLoggerInstanceFromContext(out.Context(), t.Logger)
	start := time.Now()

	resp, err := t.Base.RoundTrip(out)
	if err != nil {
		logger.Warn("HTTP request failed", "method", out.Method, "host", out.URL.Host, "path", out.URL.Path, "error", err)
		return nil, err
	}

	logger.Info("HTTP request",
		"method", out.Method,
		"host", out.URL.Host,
		"path", out.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
		"user_agent", strings.Split(out.UserAgent(), "/")[0],
	)
	return resp, nil
}
