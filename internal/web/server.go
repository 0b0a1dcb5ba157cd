package web

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vbonduro/calorigram/internal/service"
)

type Server struct {
	profiles *service.ProfileService
	meals    *service.MealService
	apiToken string
	mux      *http.ServeMux
	logger   *slog.Logger
}

// NewServer builds the JSON API. When apiToken is non-empty every route
// except the health check requires "Authorization: Bearer <apiToken>".
func NewServer(profiles *service.ProfileService, meals *service.MealService, apiToken string, logger *slog.Logger) *Server {
	s := &Server{
		profiles: profiles,
		meals:    meals,
		apiToken: apiToken,
		mux:      http.NewServeMux(),
		logger:   logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("GET /users/{uid}/profile", s.handleGetProfile)
	s.mux.HandleFunc("PUT /users/{uid}/profile", s.handleRegister)
	s.mux.HandleFunc("PUT /users/{uid}/timezone", s.handleSetTimezone)

	s.mux.HandleFunc("POST /users/{uid}/estimates", s.handleEstimateText)
	s.mux.HandleFunc("POST /users/{uid}/meals", s.handleLogTextMeal)
	s.mux.HandleFunc("POST /users/{uid}/meals/photo", s.handleLogPhotoMeal)
	s.mux.HandleFunc("DELETE /users/{uid}/meals/{id}", s.handleDeleteMeal)
	s.mux.HandleFunc("GET /users/{uid}/meals/{id}/photo", s.handleGetMealPhoto)

	s.mux.HandleFunc("GET /users/{uid}/days/today", s.handleToday)
	s.mux.HandleFunc("DELETE /users/{uid}/days/today", s.handleClearToday)
	s.mux.HandleFunc("GET /users/{uid}/days/{date}", s.handleDay)
	s.mux.HandleFunc("GET /users/{uid}/week", s.handleWeek)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.logger)
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// requireToken rejects requests without the configured bearer token.
func requireToken(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			w.Header().Set("WWW-Authenticate", `Bearer realm="calorigram"`)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(requireToken(s.apiToken, s.mux))).ServeHTTP(w, r)
}

// HTTPServer wraps the handler with the timeouts used in production. Model
// calls can take tens of seconds, so the write timeout is generous.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}
