package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"shareit/internal/config"
	"shareit/internal/metrics"
	"shareit/internal/models"
	"shareit/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Server is the core HTTP JSON API.
type Server struct {
	cfg      config.ServerConfig
	users    *service.UserService
	items    *service.ItemService
	bookings *service.BookingService
	requests *service.RequestService
	logger   *zerolog.Logger
	server   *http.Server
}

func NewServer(
	cfg config.ServerConfig,
	users *service.UserService,
	items *service.ItemService,
	bookings *service.BookingService,
	requests *service.RequestService,
	logger *zerolog.Logger,
) *Server {
	srv := &Server{
		cfg:      cfg,
		users:    users,
		items:    items,
		bookings: bookings,
		requests: requests,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", srv.handleHealth)
	mux.HandleFunc("/users", srv.handleUsers)
	mux.HandleFunc("/users/", srv.handleUserByID)
	mux.HandleFunc("/items", srv.handleItems)
	mux.HandleFunc("/items/search", srv.handleItemSearch)
	mux.HandleFunc("/items/", srv.handleItemByID)
	mux.HandleFunc("/bookings", srv.handleBookings)
	mux.HandleFunc("/bookings/owner", srv.handleBookingsOwner)
	mux.HandleFunc("/bookings/", srv.handleBookingByID)
	mux.HandleFunc("/requests", srv.handleRequests)
	mux.HandleFunc("/requests/all", srv.handleRequestsAll)
	mux.HandleFunc("/requests/", srv.handleRequestByID)

	handler := srv.loggingMiddleware(mux)

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *Server) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler возвращает корневой обработчик; используется в тестах.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", requestID)

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		metrics.IncHTTP(endpointLabel(r.URL.Path), strconv.Itoa(recorder.status))
		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

// endpointLabel ограничивает кардинальность метрик первым сегментом пути.
func endpointLabel(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if idx := strings.IndexByte(trimmed, '/'); idx > 0 {
		trimmed = trimmed[:idx]
	}
	if trimmed == "" {
		return "root"
	}
	return trimmed
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// userIDFromHeader извлекает идентификатор пользователя из доверенного
// заголовка X-Sharer-User-Id.
func userIDFromHeader(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.Header.Get(models.UserIDHeader))
	if raw == "" {
		return 0, fmt.Errorf("%s header is required", models.UserIDHeader)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s header is invalid", models.UserIDHeader)
	}
	return id, nil
}

// pathID разбирает числовой идентификатор из сегмента пути после префикса.
func pathID(path, prefix string) (int64, string, error) {
	rest := strings.TrimPrefix(path, prefix)
	var tail string
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		tail = rest[idx+1:]
		rest = rest[:idx]
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, "", fmt.Errorf("invalid id in path")
	}
	return id, tail, nil
}

// pageParams читает from/size с умолчаниями 0 и 10.
func pageParams(r *http.Request) (int, int, error) {
	from := 0
	size := models.DefaultPageSize

	if raw := r.URL.Query().Get("from"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return 0, 0, fmt.Errorf("from must be a non-negative integer")
		}
		from = v
	}
	if raw := r.URL.Query().Get("size"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			return 0, 0, fmt.Errorf("size must be a positive integer")
		}
		size = v
	}
	return from, size, nil
}

func decodeBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}
