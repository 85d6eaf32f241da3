// Package status exposes a minimal HTTP API for operators: health check
// and a snapshot of live device sessions.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"avlgateway/session"
)

type Server struct {
	port       int
	startedAt  time.Time
	registry   *session.Registry
	router     *mux.Router
	httpServer *http.Server
}

func New(port int, registry *session.Registry) *Server {
	s := &Server{
		port:      port,
		startedAt: time.Now(),
		registry:  registry,
		router:    mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/", s.handleIndex).Methods("GET")
}

type healthResponse struct {
	Status         string               `json:"status"`
	UptimeSeconds  int64                `json:"uptimeSeconds"`
	ActiveSessions int                  `json:"activeSessions"`
	Sessions       []session.StatusView `json:"sessions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.registry.StatusSnapshot()
	resp := healthResponse{
		Status:         "ok",
		UptimeSeconds:  int64(time.Since(s.startedAt).Seconds()),
		ActiveSessions: len(snap),
		Sessions:       snap,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.handleHealth(w, r)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.WithFields(log.Fields{"method": r.Method, "path": r.URL.Path}).Debug("status request")
		next.ServeHTTP(w, r)
	})
}

// Run serves the status API until ctx is canceled, then shuts it down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.router.Use(loggingMiddleware)
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.router,
	}

	go func() {
		<-ctx.Done()
		log.Info("status: shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	log.Infof("status: listening on port %d", s.port)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
