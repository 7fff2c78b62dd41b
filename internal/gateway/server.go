package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"shareit/internal/config"
	"shareit/internal/domain"
	"shareit/internal/metrics"
	"shareit/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const maxBodySize = 1 << 20

// Server validates and rate-limits requests before they reach the core.
type Server struct {
	cfg      config.GatewayConfig
	client   *Client
	cache    domain.CacheRepository
	logger   *zerolog.Logger
	server   *http.Server
	limiters sync.Map // map[string]*rate.Limiter, запасной локальный лимитер
}

func NewServer(cfg config.GatewayConfig, client *Client, cache domain.CacheRepository, logger *zerolog.Logger) *Server {
	srv := &Server{
		cfg:    cfg,
		client: client,
		cache:  cache,
		logger: logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", srv.handleHealth)
	mux.HandleFunc("/users", srv.handleUsers)
	mux.HandleFunc("/users/", srv.handleUserByID)
	mux.HandleFunc("/items", srv.handleItems)
	mux.HandleFunc("/items/search", srv.handleForwardGet)
	mux.HandleFunc("/items/", srv.handleItemByID)
	mux.HandleFunc("/bookings", srv.handleBookings)
	mux.HandleFunc("/bookings/owner", srv.handleAuthForwardGet)
	mux.HandleFunc("/bookings/", srv.handleAuthForward)
	mux.HandleFunc("/requests", srv.handleRequests)
	mux.HandleFunc("/requests/all", srv.handleAuthForwardGet)
	mux.HandleFunc("/requests/", srv.handleAuthForwardGet)

	handler := srv.rateLimitMiddleware(srv.loggingMiddleware(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return srv
}

func (s *Server) Start() error {
	if s.server == nil {
		return fmt.Errorf("gateway server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("Gateway listening")
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

// ---- middleware ----

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		if r.Header.Get("X-Request-Id") == "" {
			r.Header.Set("X-Request-Id", uuid.NewString())
		}

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		s.logger.Info().
			Str("request_id", r.Header.Get("X-Request-Id")).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("Gateway request")
	})
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.cfg.RateLimit.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		key := clientKey(r)
		if !s.allow(r.Context(), key) {
			metrics.IncGatewayReject("rate_limit")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// allow сначала спрашивает общий счетчик в кэше; при его недоступности
// работает локальный лимитер на процесс.
func (s *Server) allow(ctx context.Context, key string) bool {
	limit := s.cfg.RateLimit.Requests
	if limit <= 0 {
		limit = models.RateLimitRequests
	}
	window := time.Duration(s.cfg.RateLimit.Window) * time.Second
	if window <= 0 {
		window = models.RateLimitWindow * time.Second
	}

	if s.cache != nil {
		allowed, err := s.cache.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			return allowed
		}
		s.logger.Warn().Err(err).Msg("Cache rate limit failed, using local limiter")
	}

	return s.localLimiter(key).Allow()
}

func (s *Server) localLimiter(key string) *rate.Limiter {
	if v, ok := s.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	rps := s.cfg.RateLimit.RPS
	if rps <= 0 {
		rps = 10
	}
	burst := s.cfg.RateLimit.Burst
	if burst <= 0 {
		burst = 5
	}

	lim := rate.NewLimiter(rate.Limit(rps), burst)
	actual, loaded := s.limiters.LoadOrStore(key, lim)
	if loaded {
		return actual.(*rate.Limiter)
	}
	return lim
}

func clientKey(r *http.Request) string {
	if userID := strings.TrimSpace(r.Header.Get(models.UserIDHeader)); userID != "" {
		return userID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}

// ---- handlers ----

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		body, ok := s.readBody(w, r)
		if !ok {
			return
		}
		var parsed userCreateBody
		if !s.parseAndValidate(w, body, &parsed, func() error { return parsed.validate() }) {
			return
		}
		s.client.Forward(w, r, body)
	case http.MethodGet:
		s.client.Forward(w, r, nil)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleUserByID(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodDelete:
		s.client.Forward(w, r, nil)
	case http.MethodPatch:
		body, ok := s.readBody(w, r)
		if !ok {
			return
		}
		var parsed userPatchBody
		if !s.parseAndValidate(w, body, &parsed, func() error { return parsed.validate() }) {
			return
		}
		s.client.Forward(w, r, body)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		if !s.requireUserHeader(w, r) {
			return
		}
		body, ok := s.readBody(w, r)
		if !ok {
			return
		}
		var parsed itemCreateBody
		if !s.parseAndValidate(w, body, &parsed, func() error { return parsed.validate() }) {
			return
		}
		s.client.Forward(w, r, body)
	case http.MethodGet:
		s.handleAuthForwardGet(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleItemByID(w http.ResponseWriter, r *http.Request) {
	if !s.requireUserHeader(w, r) {
		return
	}

	switch {
	case r.Method == http.MethodGet:
		s.client.Forward(w, r, nil)
	case r.Method == http.MethodPatch:
		body, ok := s.readBody(w, r)
		if !ok {
			return
		}
		// Частичное обновление: проверять нечего, пустые поля допустимы
		var parsed map[string]any
		if err := json.Unmarshal(body, &parsed); err != nil {
			metrics.IncGatewayReject("validation")
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		s.client.Forward(w, r, body)
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/comment"):
		body, ok := s.readBody(w, r)
		if !ok {
			return
		}
		var parsed commentCreateBody
		if !s.parseAndValidate(w, body, &parsed, func() error { return parsed.validate() }) {
			return
		}
		s.client.Forward(w, r, body)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleBookings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		if !s.requireUserHeader(w, r) {
			return
		}
		body, ok := s.readBody(w, r)
		if !ok {
			return
		}
		var parsed bookingCreateBody
		if !s.parseAndValidate(w, body, &parsed, func() error { return parsed.validate(time.Now()) }) {
			return
		}
		s.client.Forward(w, r, body)
	case http.MethodGet:
		s.handleAuthForwardGet(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleRequests(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		if !s.requireUserHeader(w, r) {
			return
		}
		body, ok := s.readBody(w, r)
		if !ok {
			return
		}
		var parsed requestCreateBody
		if !s.parseAndValidate(w, body, &parsed, func() error { return parsed.validate() }) {
			return
		}
		s.client.Forward(w, r, body)
	case http.MethodGet:
		s.handleAuthForwardGet(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleAuthForward проксирует запрос с заголовком пользователя без
// проверки тела (GET и PATCH с query-параметрами).
func (s *Server) handleAuthForward(w http.ResponseWriter, r *http.Request) {
	if !s.requireUserHeader(w, r) {
		return
	}
	s.client.Forward(w, r, nil)
}

func (s *Server) handleAuthForwardGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !s.requireUserHeader(w, r) {
		return
	}
	if !s.validPageParams(w, r) {
		return
	}
	s.client.Forward(w, r, nil)
}

// handleForwardGet проксирует публичный GET (поиск вещей).
func (s *Server) handleForwardGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !s.validPageParams(w, r) {
		return
	}
	s.client.Forward(w, r, nil)
}

// ---- helpers ----

func (s *Server) requireUserHeader(w http.ResponseWriter, r *http.Request) bool {
	raw := strings.TrimSpace(r.Header.Get(models.UserIDHeader))
	if raw == "" {
		metrics.IncGatewayReject("missing_header")
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s header is required", models.UserIDHeader))
		return false
	}
	if id, err := strconv.ParseInt(raw, 10, 64); err != nil || id <= 0 {
		metrics.IncGatewayReject("missing_header")
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s header is invalid", models.UserIDHeader))
		return false
	}
	return true
}

func (s *Server) validPageParams(w http.ResponseWriter, r *http.Request) bool {
	if raw := r.URL.Query().Get("from"); raw != "" {
		if v, err := strconv.Atoi(raw); err != nil || v < 0 {
			metrics.IncGatewayReject("validation")
			writeError(w, http.StatusBadRequest, "from must be a non-negative integer")
			return false
		}
	}
	if raw := r.URL.Query().Get("size"); raw != "" {
		if v, err := strconv.Atoi(raw); err != nil || v <= 0 {
			metrics.IncGatewayReject("validation")
			writeError(w, http.StatusBadRequest, "size must be a positive integer")
			return false
		}
	}
	return true
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return nil, false
	}
	return body, true
}

func (s *Server) parseAndValidate(w http.ResponseWriter, body []byte, dst any, validate func() error) bool {
	if err := json.Unmarshal(body, dst); err != nil {
		metrics.IncGatewayReject("validation")
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := validate(); err != nil {
		metrics.IncGatewayReject("validation")
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
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
