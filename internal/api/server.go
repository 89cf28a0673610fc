// Package api provides the HTTP surface of the reconciler: the subscription
// notification listener and health checks.
package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/gatewaymesh/uddi-reconciler/internal/events"
	"github.com/gatewaymesh/uddi-reconciler/internal/uddi"
)

// maxNotificationBytes bounds inbound notification payloads.
const maxNotificationBytes = 4 << 20

// EventNotifier enqueues events for asynchronous dispatch.
type EventNotifier interface {
	NotifyEvent(ev events.Event)
}

// ServerOption configures the API server
type ServerOption func(*serverConfig)

// serverConfig holds the server configuration
type serverConfig struct {
	middlewares []func(http.Handler) http.Handler
}

// WithMiddlewares adds middleware to the server
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// NewServer creates and configures the HTTP router with the given notifier
// and options
func NewServer(notifier EventNotifier, opts ...ServerOption) *chi.Mux {
	cfg := &serverConfig{
		middlewares: []func(http.Handler) http.Handler{},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	r := chi.NewRouter()
	for _, mw := range cfg.middlewares {
		r.Use(mw)
	}

	r.Get("/health", healthHandler)
	r.Post("/notifications/{serviceID}", notificationHandler(notifier))

	return r
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// notificationHandler accepts a registry push notification and hands it to
// the coordinator. Delivery is accepted (202) once the payload decodes; the
// actual processing happens asynchronously on the worker. Registries treat
// non-2xx as delivery failure and retry, so validation failures are the
// only 4xx.
func notificationHandler(notifier EventNotifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serviceID, err := uuid.Parse(chi.URLParam(r, "serviceID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid service id")
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxNotificationBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read request body")
			return
		}

		if _, err := uddi.DecodeNotification(payload); err != nil {
			slog.Warn("Rejecting undecodable notification",
				"remote_addr", r.RemoteAddr,
				"error", err)
			writeError(w, http.StatusBadRequest, "payload is not a subscription notification")
			return
		}

		notifier.NotifyEvent(events.NotificationEvent{
			ServiceID:  serviceID,
			Payload:    payload,
			RemoteAddr: r.RemoteAddr,
		})
		w.WriteHeader(http.StatusAccepted)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
