package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smarthealth/healthnav/internal/retrieval"
)

// ServerConfig contains the dependencies for the API server.
type ServerConfig struct {
	Logger         *slog.Logger
	Pipeline       Ingestor      // Required
	Engine         Retriever     // Required
	Assistant      Responder     // Optional: nil disables /api/v1/chat
	Pool           *pgxpool.Pool // Optional: nil disables pool checks in /ready
	ScoreThreshold float32       // Zero selects retrieval.DefaultScoreThreshold
	CORSOrigins    []string
	RateBurst      int // Rate limiter burst size per IP (0 = default 60)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates the API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Pipeline == nil {
		return nil, errors.New("intake pipeline is required")
	}
	if cfg.Engine == nil {
		return nil, errors.New("retrieval engine is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	threshold := cfg.ScoreThreshold
	if threshold == 0 {
		threshold = retrieval.DefaultScoreThreshold
	}

	ih := &intakeHandler{pipeline: cfg.Pipeline, logger: logger}
	sh := &searchHandler{engine: cfg.Engine, threshold: threshold, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/intake", ih.store)
	mux.HandleFunc("POST /api/v1/search", sh.search)

	if cfg.Assistant != nil {
		ch := &chatHandler{assistant: cfg.Assistant, logger: logger}
		mux.HandleFunc("POST /api/v1/chat", ch.send)
	}

	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newRateLimiter(1.0, burst)

	// Middleware stack, outermost first:
	//   Recovery -> RequestID -> Logging -> CORS -> RateLimit -> Routes
	// RequestID sits above Logging so request_id is available in log attrs;
	// CORS sits above RateLimit so preflight OPTIONS gets proper headers.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w)
		handler.ServeHTTP(w, r)
	})

	// Health probes bypass the middleware stack so rate limiting and CORS
	// never interfere with orchestrator checks.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", healthProbe(logger))
	topMux.Handle("GET /ready", readiness(cfg.Pool, logger))
	topMux.Handle("/", final)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
