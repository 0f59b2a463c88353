package router

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-construction-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-construction-go/internal/client"
	"github.com/ovaphlow/pitchfork/service-construction-go/internal/metrics"
	"github.com/ovaphlow/pitchfork/service-construction-go/internal/project"
	"github.com/ovaphlow/pitchfork/service-construction-go/internal/user"
	"github.com/ovaphlow/pitchfork/service-construction-go/pkg/utilities"
)

const (
	apiPrefix  = "/api/v1"
	apiVersion = "0.1.0"
)

type ctxKey int

const requestIDKey ctxKey = iota

// Deps is everything the HTTP surface needs, built once in main.
type Deps struct {
	Env         string
	CORSOrigins []string
	Logger      *zap.SugaredLogger
	Metrics     *metrics.Metrics

	Authn    *auth.Authenticator
	Auth     *auth.Handler
	Users    *user.Handler
	Clients  *client.Handler
	Projects *project.Handler
}

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

func (lrw *loggingResponseWriter) statusCode() int {
	if lrw.status == 0 {
		return http.StatusOK
	}
	return lrw.status
}

// RequestID returns the request id stored by RequestIDMiddleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// RequestIDMiddleware tags every request with a KSUID, reusing an incoming
// X-Request-ID when the caller supplies one.
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if id == "" || len(id) > 64 {
				id = utilities.NewKSUID()
			}
			w.Header().Set("X-Request-ID", id)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
		})
	}
}

// LoggingMiddleware returns a middleware that logs requests at debug level using the provided sugared logger.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			logger.Debugw("http request",
				"request_id", RequestID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", lrw.statusCode(),
				"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
				"size", lrw.size,
			)
		})
	}
}

// RecoveryMiddleware turns a handler panic into a 500 and logs it.
func RecoveryMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Errorw("panic serving request",
						"request_id", RequestID(r.Context()), "path", r.URL.Path, "panic", rec)
					utilities.WriteError(w, http.StatusInternalServerError, "internal error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// MetricsMiddleware records request count and latency per route pattern.
// It must wrap the mux directly so r.Pattern is filled in after dispatch.
func MetricsMiddleware(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			m.ObserveRequest(r.Method, r.Pattern, lrw.statusCode(), time.Since(start))
		})
	}
}

// CORSMiddleware allows the configured origins; "*" allows any origin.
func CORSMiddleware(origins []string) func(http.Handler) http.Handler {
	allowAll := slices.Contains(origins, "*")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowAll || slices.Contains(origins, origin)) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Add("Vary", "Origin")
				if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
					h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
					if req := r.Header.Get("Access-Control-Request-Headers"); req != "" {
						h.Set("Access-Control-Allow-Headers", req)
					} else {
						h.Set("Access-Control-Allow-Headers", strings.Join([]string{"Authorization", "Content-Type"}, ", "))
					}
					h.Set("Access-Control-Max-Age", "600")
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeadersMiddleware returns a middleware that sets common HTTP security headers.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Prevent MIME sniffing
			w.Header().Set("X-Content-Type-Options", "nosniff")

			// Clickjacking protection
			w.Header().Set("X-Frame-Options", "DENY")

			w.Header().Set("Referrer-Policy", "no-referrer")
			w.Header().Set("Cache-Control", "no-store")

			// API responses are JSON only
			if w.Header().Get("Content-Security-Policy") == "" {
				w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			}

			// HSTS only makes sense over TLS
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RegisterRoutes mounts HTTP handlers using the standard library's http.ServeMux.
func RegisterRoutes(d Deps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		utilities.WriteJSON(w, http.StatusOK, map[string]string{
			"message": "Construction Management API",
			"version": apiVersion,
			"health":  "/health",
			"metrics": "/metrics",
		})
	})
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		utilities.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy", "environment": d.Env})
	})
	mux.Handle("GET /metrics", d.Metrics.Handler())

	a := d.Authn

	// auth
	mux.HandleFunc("POST "+apiPrefix+"/auth/login", d.Auth.Login)
	mux.HandleFunc("POST "+apiPrefix+"/auth/register", a.Admin(d.Auth.Register))
	mux.HandleFunc("GET "+apiPrefix+"/auth/me", a.User(d.Auth.Me))

	// users
	mux.HandleFunc("PATCH "+apiPrefix+"/users/{id}", a.Admin(d.Users.Patch))

	// clients
	mux.HandleFunc("POST "+apiPrefix+"/clients", a.Admin(d.Clients.Create))
	mux.HandleFunc("GET "+apiPrefix+"/clients", a.User(d.Clients.List))
	mux.HandleFunc("GET "+apiPrefix+"/clients/{id}", a.User(d.Clients.Get))
	mux.HandleFunc("PUT "+apiPrefix+"/clients/{id}", a.Admin(d.Clients.Update))
	mux.HandleFunc("DELETE "+apiPrefix+"/clients/{id}", a.Admin(d.Clients.Delete))

	// projects
	mux.HandleFunc("POST "+apiPrefix+"/projects", a.Admin(d.Projects.Create))
	mux.HandleFunc("GET "+apiPrefix+"/projects", a.User(d.Projects.List))
	mux.HandleFunc("GET "+apiPrefix+"/projects/{id}", a.User(d.Projects.Get))
	mux.HandleFunc("PUT "+apiPrefix+"/projects/{id}", a.Admin(d.Projects.Update))
	mux.HandleFunc("DELETE "+apiPrefix+"/projects/{id}", a.Admin(d.Projects.Delete))

	var h http.Handler = mux
	h = MetricsMiddleware(d.Metrics)(h)
	h = CORSMiddleware(d.CORSOrigins)(h)
	h = SecurityHeadersMiddleware()(h)
	h = LoggingMiddleware(d.Logger)(h)
	h = RecoveryMiddleware(d.Logger)(h)
	h = RequestIDMiddleware()(h)
	return h
}
