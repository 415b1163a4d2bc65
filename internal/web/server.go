// Package web serves the local HTTP status interface.
package web

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/co2-monitor/internal/scd4x"
	"github.com/sweeney/co2-monitor/internal/status"
)

// Server exposes daemon state over HTTP: a JSON state document, a
// liveness probe, a diagnostics view and Prometheus metrics.
type Server struct {
	tracker *status.Tracker
	srv     *http.Server
}

// New builds a Server bound to addr. The gatherer is normally the
// default Prometheus registry.
func New(addr string, tracker *status.Tracker, gatherer prometheus.Gatherer) *Server {
	s := &Server{tracker: tracker}

	router := httprouter.New()
	router.GET("/", s.handleIndex)
	router.GET("/state", s.handleState)
	router.GET("/healthz", s.handleHealthz)
	router.GET("/diag", s.handleDiag)
	router.Handler(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Serve blocks until the listener fails or Shutdown is called.
func (s *Server) Serve() error {
	log.Printf("web: listening on %s", s.srv.Addr)
	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler returns the route handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	snap := s.tracker.Snapshot()
	if snap.Health.Phase == scd4x.PhaseStale || snap.Health.Phase == scd4x.PhaseRecovering {
		http.Error(w, "sensor not ok", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok\n"))
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, stateDocument(s.tracker.Snapshot()))
}

func (s *Server) handleDiag(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, diagDocument(s.tracker.Snapshot()))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("co2-monitor\n\nGET /state   current readings and alert state\nGET /diag    counters and event journal\nGET /healthz liveness probe\nGET /metrics Prometheus metrics\n"))
}
