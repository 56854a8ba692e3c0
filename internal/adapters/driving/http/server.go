package http

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finsight-labs/reportqa-core/internal/core/ports/driving"
	"github.com/finsight-labs/reportqa-core/internal/files"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string

	// Services
	queryService  driving.QueryService
	ingestService driving.IngestService

	// Infrastructure
	fileStore   *files.Store
	redisClient Pinger // Redis health check (optional)
	db          Pinger // PostgreSQL health check (optional)
}

// Config holds server configuration
type Config struct {
	Host    string
	Port    int
	Version string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:    "0.0.0.0",
		Port:    8080,
		Version: "dev",
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	queryService driving.QueryService,
	ingestService driving.IngestService,
	fileStore *files.Store,
	redisClient Pinger, // can be nil
	db Pinger, // can be nil
) *Server {
	s := &Server{
		router:        http.NewServeMux(),
		version:       cfg.Version,
		queryService:  queryService,
		ingestService: ingestService,
		fileStore:     fileStore,
		redisClient:   redisClient,
		db:            db,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      CORS(RequestLogger(s.router)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // queries wait on the language model
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health endpoints
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Query endpoints
	s.router.HandleFunc("POST /api/v1/query", s.handleQuery)
	s.router.HandleFunc("GET /api/v1/stats", s.handleStats)
	s.router.HandleFunc("GET /api/v1/years", s.handleYears)
	s.router.HandleFunc("GET /api/v1/example-queries", s.handleExampleQueries)

	// Ingestion endpoints
	s.router.HandleFunc("POST /api/v1/ingest", s.handleIngest)
	s.router.HandleFunc("POST /api/v1/upload", s.handleUpload)

	// File endpoints
	s.router.HandleFunc("GET /api/v1/files", s.handleListFiles)
	s.router.HandleFunc("POST /api/v1/files/cleanup", s.handleCleanupFiles)
	s.router.HandleFunc("DELETE /api/v1/files/{name}", s.handleDeleteFile)
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	// Channel to listen for OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-stop
	log.Println("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the full handler chain, middleware included
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
