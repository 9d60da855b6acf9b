package server

import (
	"context"
	"log/slog"
	"net/http"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/handlers"
	"sales-dashboard/internal/middleware"
	"sales-dashboard/internal/services"
)

type Server struct {
	analytics    *services.Analytics
	mux          *http.ServeMux
	logger       *slog.Logger
	chartsDir    string
	apiHandlers  *handlers.APIHandlers
	sseHandlers  *handlers.SSEHandlers
	pageHandlers *handlers.PageHandlers
}

func NewServer(cfg *config.Config, analytics *services.Analytics, logger *slog.Logger) *Server {
	s := &Server{
		analytics:    analytics,
		mux:          http.NewServeMux(),
		logger:       logger,
		chartsDir:    cfg.Dashboard.ChartsDir,
		apiHandlers:  handlers.NewAPIHandlers(analytics, logger),
		sseHandlers:  handlers.NewSSEHandlers(analytics, logger, cfg.Dashboard.TableRows),
		pageHandlers: handlers.NewPageHandlers(analytics, logger),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Dashboard routes
	s.mux.HandleFunc("GET /{$}", s.pageHandlers.HandleDashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API endpoints
	s.mux.HandleFunc("GET /api/summary", s.apiHandlers.HandleSummary)
	s.mux.HandleFunc("GET /api/revenue-by-region", s.apiHandlers.HandleRevenueByRegion)
	s.mux.HandleFunc("GET /api/revenue-by-channel", s.apiHandlers.HandleRevenueByChannel)
	s.mux.HandleFunc("GET /api/monthly-revenue", s.apiHandlers.HandleMonthlyRevenue)
	s.mux.HandleFunc("GET /api/top-products", s.apiHandlers.HandleTopProducts)
	s.mux.HandleFunc("GET /api/heatmap", s.apiHandlers.HandleHeatmap)
	s.mux.HandleFunc("GET /api/options", s.apiHandlers.HandleOptions)
	s.mux.HandleFunc("GET /api/transactions", s.apiHandlers.HandleTransactions)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/refresh", s.sseHandlers.HandleRefresh)
	s.mux.HandleFunc("GET /sse/regenerate", s.sseHandlers.HandleRegenerate)
	s.mux.HandleFunc("GET /sse/reset", s.sseHandlers.HandleReset)

	// Static PNG charts rendered at startup
	if s.chartsDir != "" {
		s.mux.Handle("GET /charts/", http.StripPrefix("/charts/", http.FileServer(http.Dir(s.chartsDir))))
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// New assembles the routed, middleware-wrapped HTTP server. Stopping the
// analytics janitor and the rate limiter sweep are registered as shutdown
// hooks.
func New(cfg *config.Config, analytics *services.Analytics, logger *slog.Logger) *GracefulServer {
	srv := NewServer(cfg, analytics, logger)
	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
		middleware.Session(cfg.Security, cfg.Dashboard.SessionTTL),
	)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      middlewareChain(srv),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("shutting down analytics service")
		return analytics.Close(ctx)
	})
	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		rateLimiter.Close()
		return nil
	})

	return gracefulServer
}
