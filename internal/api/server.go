package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lox/skyline/internal/analysis"
)

type Server struct {
	engine *analysis.Engine
	port   string
}

func NewServer(engine *analysis.Engine, port string) *Server {
	return &Server{
		engine: engine,
		port:   port,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/structures", s.handleStructures)
	mux.HandleFunc("GET /api/heights", s.handleHeights)
	mux.HandleFunc("GET /api/heights/range", s.handleHeightsRange)
	mux.HandleFunc("GET /api/bounds", s.handleBounds)
	mux.HandleFunc("GET /api/cities/average", s.handleCityAverage)
	mux.HandleFunc("GET /api/cities/count", s.handleCityCount)
	mux.HandleFunc("GET /api/cities/share", s.handleCityShare)
	mux.HandleFunc("GET /api/completions", s.handleCompletions)
	mux.HandleFunc("GET /api/locate", s.handleLocate)
	mux.Handle("GET /metrics", promhttp.Handler())
	return requestID(accessLog(mux))
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
