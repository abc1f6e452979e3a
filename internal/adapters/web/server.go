package web

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/lcalzada-xor/softapd/internal/broadcast"
	"github.com/lcalzada-xor/softapd/internal/core/softap"
)

// Server exposes the ops surface: status/dump endpoints, the event
// WebSocket and Prometheus metrics.
type Server struct {
	Addr        string
	current     func() *softap.SoftApLifecycle
	broadcaster *broadcast.Broadcaster
	srv         *http.Server
}

// NewServer creates the ops server. current returns the active
// lifecycle, or nil when no soft AP session exists.
func NewServer(addr string, current func() *softap.SoftApLifecycle, b *broadcast.Broadcaster) *Server {
	return &Server{
		Addr:        addr,
		current:     current,
		broadcaster: b,
	}
}

// Run starts the server and blocks until the listener stops.
func (s *Server) Run(ctx context.Context) error {
	r := mux.NewRouter()
	r.HandleFunc("/api/softap/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/softap/dump", s.handleDump).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWebSocket)
	r.Handle("/metrics", promhttp.Handler())

	s.srv = &http.Server{
		Addr:              s.Addr,
		Handler:           otelhttp.NewHandler(r, "softapd-ops"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Println("Ops server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Ops server shutdown error: %v", err)
		}
	}()

	log.Printf("Ops server listening on %s", s.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	l := s.current()
	if l == nil {
		json.NewEncoder(w).Encode(map[string]string{"state": "stopped"})
		return
	}
	json.NewEncoder(w).Encode(l.Status())
}

func (s *Server) handleDump(w http.ResponseWriter, r *http.Request) {
	l := s.current()
	if l == nil {
		http.Error(w, "no active soft AP session", http.StatusNotFound)
		return
	}
	var buf bytes.Buffer
	l.Dump(&buf)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write(buf.Bytes())
}
