package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/talbenari/project_clara/internal/executor"
	"github.com/talbenari/project_clara/internal/gcal"
	"github.com/talbenari/project_clara/internal/interpreter"
)

type Server struct {
	interp     *interpreter.Interpreter
	exec       *executor.Executor
	gcalClient *gcal.Client
	loc        *time.Location
	httpSrv    *http.Server
	port       int
}

// Config holds everything the server needs. Exec and GCalClient may be nil;
// the command endpoint then interprets without touching a calendar.
type Config struct {
	Interpreter *interpreter.Interpreter
	Exec        *executor.Executor
	GCalClient  *gcal.Client
	Location    *time.Location
	Port        int
}

func New(cfg Config) *Server {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	s := &Server{
		interp:     cfg.Interpreter,
		exec:       cfg.Exec,
		gcalClient: cfg.GCalClient,
		loc:        loc,
		port:       cfg.Port,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.corsMiddleware(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("GET /health", s.handleHealthCheck)

	// Command API
	mux.HandleFunc("POST /api/command", s.handleCommand)

	// Google Calendar API
	mux.HandleFunc("GET /api/gcal/status", s.handleGCalStatus)
	mux.HandleFunc("POST /api/gcal/connect", s.handleGCalConnect)
	mux.HandleFunc("GET /oauth/callback", s.handleOAuthCallback)
	mux.HandleFunc("GET /api/events/today", s.handleListTodayEvents)
}

func (s *Server) Start() error {
	fmt.Printf("Starting HTTP server on http://localhost:%d\n", s.port)
	return s.httpSrv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// Handler returns the server's HTTP handler for testing purposes
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// corsMiddleware adds CORS headers to allow browser and mobile app requests
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		// Handle preflight requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
