package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"envelopes/internal/cache"
	"envelopes/internal/core"
	"envelopes/internal/services"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// appMetrics tracks application counters served by /metrics.
type appMetrics struct {
	startedAt         time.Time
	totalRequests     int64
	totalTransactions int64
	cacheHits         int64
	cacheMisses       int64
}

type Server struct {
	http.Server
	budget      *services.BudgetService
	rateLimiter *rateLimiter

	// Dashboard reads are cached per period and category until a write
	// invalidates them.
	dashboardCache *cache.LRUCache[services.DashboardView]
	summaryCache   *cache.LRUCache[core.Period]
	cacheManager   *cache.Manager

	appMetrics      *appMetrics
	securityMetrics *securityMetrics
	shutdownOnce    sync.Once
}

// NewServer configures routes and caches, returning a ready-to-run server.
func NewServer(addr string, budget *services.BudgetService, cacheSize int, cacheTTL time.Duration) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		budget:          budget,
		rateLimiter:     newRateLimiter(),
		dashboardCache:  cache.NewLRUCache[services.DashboardView](cacheSize, cacheTTL),
		summaryCache:    cache.NewLRUCache[core.Period](cacheSize, cacheTTL),
		cacheManager:    cache.NewManager(),
		appMetrics:      &appMetrics{startedAt: time.Now()},
		securityMetrics: &securityMetrics{},
	}

	s.cacheManager.Register(s.dashboardCache)
	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /periods", s.withMiddleware(s.handleListPeriods))
	mux.HandleFunc("POST /periods", s.withMiddleware(s.handleCreatePeriod))
	mux.HandleFunc("GET /periods/current", s.withMiddleware(s.handleCurrentPeriod))
	mux.HandleFunc("GET /periods/{id}/summary", s.withMiddleware(s.handlePeriodSummary))

	mux.HandleFunc("GET /envelopes", s.withMiddleware(s.handleListEnvelopes))
	mux.HandleFunc("POST /envelopes", s.withMiddleware(s.handleCreateEnvelope))
	mux.HandleFunc("DELETE /envelopes/{id}", s.withMiddleware(s.handleDeleteEnvelope))

	mux.HandleFunc("GET /transactions", s.withMiddleware(s.handleListTransactions))
	mux.HandleFunc("POST /transactions", s.withMiddleware(s.handleCreateTransaction))
	mux.HandleFunc("GET /transactions/{id}", s.withMiddleware(s.handleGetTransaction))

	mux.HandleFunc("GET /dashboard/categories", s.withMiddleware(s.handleDashboardCategories))
	mux.HandleFunc("GET /dashboard/series", s.withMiddleware(s.handleDashboardSeries))
	mux.HandleFunc("GET /dashboard/ledger", s.withMiddleware(s.handleDashboardLedger))

	return s
}

// withMiddleware adds security headers, rate limiting, and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		atomic.AddInt64(&s.appMetrics.totalRequests, 1)

		clientIP := extractClientIP(r)
		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		detectSuspiciousRequest(r, s.securityMetrics)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		// Rate limiting applies to writes only.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP, s.securityMetrics) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// invalidateViews drops cached dashboard and summary data after a write.
func (s *Server) invalidateViews() {
	s.dashboardCache.Purge()
	s.summaryCache.Purge()
}

// Shutdown stops cleanup routines and the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
