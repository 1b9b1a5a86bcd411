package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/jing2uo/tsanalyst/analysis"
	"github.com/jing2uo/tsanalyst/cache"
	"github.com/jing2uo/tsanalyst/calc"
	"github.com/jing2uo/tsanalyst/model"
)

// Analyzer analysis.Service 满足
type Analyzer interface {
	Analyze(ctx context.Context, raw string) (*analysis.Report, error)
	Search(ctx context.Context, keyword string) ([]model.BasicInfo, error)
	Series(ctx context.Context, raw string) (*calc.Series, error)
}

// History 可选, 查询持久化快照
type History interface {
	QuerySnapshots(ctx context.Context, code string, limit int) ([]model.SnapshotRecord, error)
}

type Config struct {
	Addr     string
	Log      zerolog.Logger
	Analyzer Analyzer
	Cache    *cache.Cache
	History  History
}

type Server struct {
	router   *chi.Mux
	server   *http.Server
	log      zerolog.Logger
	analyzer Analyzer
	cache    *cache.Cache
	history  History
}

func New(cfg Config) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		log:      cfg.Log.With().Str("component", "server").Logger(),
		analyzer: cfg.Analyzer,
		cache:    cfg.Cache,
		history:  cfg.History,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/classify/{code}", s.handleClassify)
		r.Get("/analysis/{code}", s.handleAnalysis)
		r.Get("/series/{code}", s.handleSeries)
		r.Get("/search", s.handleSearch)
		r.Get("/history/{code}", s.handleHistory)
		r.Get("/cache/stats", s.handleCacheStats)
		r.Delete("/cache/{code}", s.handleCacheInvalidate)
	})
}

// Handler 测试用
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
