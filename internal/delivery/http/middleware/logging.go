package middleware

import (
	"net/http"
	"time"

	"github.com/Vishaljain290502/Rydr/internal/pkg/logger"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// statusRecorder запоминает код ответа и размер тела
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += n
	return n, err
}

// LoggingMiddleware пишет одну запись на запрос
// Уровень зависит от статуса: 5xx - error, 4xx - warn, /health - debug
func LoggingMiddleware(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			fields := map[string]interface{}{
				"request_id":  chiMiddleware.GetReqID(r.Context()),
				"method":      r.Method,
				"path":        r.URL.Path,
				"route":       routePattern(r),
				"status":      rec.status,
				"duration_ms": time.Since(start).Milliseconds(),
				"bytes":       rec.bytes,
				"remote_addr": r.RemoteAddr,
			}

			switch {
			case rec.status >= http.StatusInternalServerError:
				log.Error("HTTP request", fields)
			case rec.status >= http.StatusBadRequest:
				log.Warn("HTTP request", fields)
			case r.URL.Path == "/health":
				log.Debug("HTTP request", fields)
			default:
				log.Info("HTTP request", fields)
			}
		})
	}
}

// routePattern возвращает шаблон маршрута chi, например /trips/tripDetails/{tripId}
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}
