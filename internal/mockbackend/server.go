// Package mockbackend serves canned Project Brain responses for offline use
// and tests.
package mockbackend

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/diogo/projectbrain/internal/models"
)

// body keys accepted by each capability, in priority order
var (
	chatKeys    = []string{"message", "Msg", "query", "question"}
	extractKeys = []string{"message", "Cmd", "instruction", "query"}
)

// Server is an in-memory backend
type Server struct {
	fixtures Fixtures
	latency  time.Duration
	logger   *zap.Logger
	ingests  atomic.Int64
	router   chi.Router
}

// Option configures a Server
type Option func(*Server)

// WithFixtures replaces the built-in replies
func WithFixtures(f Fixtures) Option {
	return func(s *Server) {
		s.fixtures = f
	}
}

// WithLatency delays every capability response
func WithLatency(d time.Duration) Option {
	return func(s *Server) {
		s.latency = d
	}
}

// WithLogger logs each request
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Server with the built-in fixtures unless overridden
func New(opts ...Option) *Server {
	s := &Server{
		fixtures: DefaultFixtures(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// IngestCount returns how many ingestion requests were received
func (s *Server) IngestCount() int64 {
	return s.ingests.Load()
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleHealth)
	for _, prefix := range []string{"", "/api"} {
		r.Post(prefix+models.EndpointChat, s.handleChat)
		r.Post(prefix+models.EndpointExtract, s.handleExtract)
		r.Post(prefix+models.EndpointIngest, s.handleIngest)
	}
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Duration("elapsed", time.Since(start)))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "Online"})
}

type chatResponse struct {
	Answer  string          `json:"answer"`
	Sources []models.Source `json:"sources"`
}

type extractResponse struct {
	Data    []models.Row    `json:"data"`
	Sources []models.Source `json:"sources"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	text, ok := readText(w, r, chatKeys, "No message found. Please send JSON with 'message' key.")
	if !ok {
		return
	}
	if !s.wait(r) {
		return
	}

	resp := chatResponse{Answer: s.fixtures.DefaultAnswer, Sources: []models.Source{}}
	if f, found := match(s.fixtures.Chat, text); found {
		resp.Answer = f.Answer
		if f.Sources != nil {
			resp.Sources = f.Sources
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	text, ok := readText(w, r, extractKeys, "No command found. Please send JSON with 'message' key.")
	if !ok {
		return
	}
	if !s.wait(r) {
		return
	}

	resp := extractResponse{Data: []models.Row{}, Sources: []models.Source{}}
	if f, found := match(s.fixtures.Extract, text); found {
		if rows := f.Rows(); rows != nil {
			resp.Data = rows
		}
		if f.Sources != nil {
			resp.Sources = f.Sources
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	n := s.ingests.Add(1)
	respondJSON(w, http.StatusOK, map[string]any{"status": "ingestion started", "runs": n})
}

// wait applies the configured latency; false means the client went away
func (s *Server) wait(r *http.Request) bool {
	if s.latency <= 0 {
		return true
	}
	select {
	case <-time.After(s.latency):
		return true
	case <-r.Context().Done():
		return false
	}
}

// readText pulls the user text from the first non-empty accepted key
func readText(w http.ResponseWriter, r *http.Request, keys []string, missing string) (string, bool) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return "", false
	}
	for _, k := range keys {
		if v, ok := payload[k].(string); ok && strings.TrimSpace(v) != "" {
			return v, true
		}
	}
	respondError(w, http.StatusUnprocessableEntity, missing)
	return "", false
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}
