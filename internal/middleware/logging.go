package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/akqa/lms-api/internal/metrics"
	"github.com/m1z23r/drift/pkg/drift"
)

type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.status = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.status = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// RequestLogger logs one line per request and feeds the HTTP metrics. Level
// follows the status class.
func RequestLogger(logger *slog.Logger, recorder metrics.Recorder) drift.HandlerFunc {
	return func(c *drift.Context) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: c.Response, status: http.StatusOK}
		c.Response = rec

		c.Next()

		duration := time.Since(start)
		recorder.RecordHTTPRequest(c.Request.Method, rec.status, duration)

		args := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", rec.status),
			slog.Float64("duration_ms", float64(duration.Nanoseconds())/float64(time.Millisecond)),
		}
		if session := GetSessionUser(c); session != nil {
			args = append(args, slog.String("user_id", session.ID.String()))
		}

		level := slog.LevelInfo
		if rec.status >= 500 {
			level = slog.LevelError
		} else if rec.status >= 400 {
			level = slog.LevelWarn
		}

		logger.Log(c.Request.Context(), level, "http_request", args...)
	}
}
