// Package web serves the strain sensor's status page and a health check for the service
// manager.
package web

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sweeney/strain-sensor/internal/status"
)

// Server reads everything from a status.Tracker; it never touches the control loop.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	log        logrus.FieldLogger
}

// New creates a Server on addr.
func New(addr string, tracker *status.Tracker, log logrus.FieldLogger) *Server {
	s := &Server{tracker: tracker, log: log}

	mux := http.NewServeMux()
	mux.Handle("/", readOnly(http.HandlerFunc(s.handlePage)))
	mux.Handle("/index.json", readOnly(http.HandlerFunc(s.handleJSON)))
	mux.Handle("/healthz", readOnly(http.HandlerFunc(s.handleHealth)))

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the routes, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on ln.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// readOnly rejects anything but GET and HEAD and marks responses uncacheable; every page
// is a live reading.
func readOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	// Render into a buffer so a template error becomes a 500 instead of half a page.
	var buf bytes.Buffer
	if err := renderHTML(&buf, s.tracker.Snapshot()); err != nil {
		s.log.Errorf("http: render status page: %v", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(s.tracker.Snapshot()))
}

// handleHealth reports 503 until the gauge has been tared: readings before that are
// relative to an offset of zero and not worth alerting on.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	snap := s.tracker.Snapshot()
	if !snap.Calibrated {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("not calibrated\n"))
		return
	}
	w.Write([]byte("ok " + snap.Status.String() + "\n"))
}
