package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Logging registra uma linha por requisição. O nível segue o status:
// 5xx em error, 4xx em warn e sondas de /health e /ready em debug.
func Logging(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			var event *zerolog.Event
			switch {
			case status >= http.StatusInternalServerError:
				event = logger.Error()
			case status >= http.StatusBadRequest:
				event = logger.Warn()
			case r.URL.Path == "/health" || r.URL.Path == "/ready":
				event = logger.Debug()
			default:
				event = logger.Info()
			}

			event = event.Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("ip", remoteHost(r))

			if reqID := middleware.GetReqID(r.Context()); reqID != "" {
				event = event.Str("request_id", reqID)
			}
			event.Msg("requisição")
		})
	}
}
