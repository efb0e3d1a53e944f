// Package healthsvc exposes liveness and readiness probes.
package healthsvc

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mkrupp/tasktracker/internal/infra/logging"
	http_ "github.com/mkrupp/tasktracker/internal/infra/transport/http"
)

// StatusOK and StatusUnavailable are the values reported in HealthResponse.
const (
	StatusOK          = "ok"
	StatusUnavailable = "unavailable"
)

// Pinger checks connectivity of a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse is the body returned by both probes.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// HTTPTransport serves the health endpoints.
type HTTPTransport struct {
	db      Pinger
	now     func() time.Time
	timeout time.Duration
	handler http.Handler
	log     logging.Logger
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport that reports readiness of db.
func NewHTTPTransport(db Pinger) *HTTPTransport {
	ht := &HTTPTransport{
		db:      db,
		now:     time.Now,
		timeout: 2 * time.Second,
		log:     logging.GetLogger("svc.healthsvc.http_transport"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", ht.HandleHealth)
	mux.HandleFunc("GET /ready", ht.HandleReady)
	ht.handler = mux

	return ht
}

// ServeHTTP implements http.Handler and routes:
// - GET /health: Liveness, always ok while the process serves requests
// - GET /ready: Readiness, ok only if the database answers a ping.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ht.handler.ServeHTTP(w, r)
}

// HandleHealth reports liveness.
func (ht *HTTPTransport) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = http_.WriteJSON(w, http.StatusOK, HealthResponse{Status: StatusOK, Timestamp: ht.now().UTC()})
}

// HandleReady reports readiness.
func (ht *HTTPTransport) HandleReady(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleReady(w, r)
}

func (ht *HTTPTransport) handleReady(w http.ResponseWriter, r *http.Request) (err error) {
	ctx, cancel := context.WithTimeout(r.Context(), ht.timeout)
	defer cancel()

	defer func() {
		if err != nil {
			ht.log.WarnContext(ctx, "readiness check failed", "error", err)
		}
	}()

	if err := ht.db.Ping(ctx); err != nil {
		_ = http_.WriteJSON(w, http.StatusServiceUnavailable,
			HealthResponse{Status: StatusUnavailable, Timestamp: ht.now().UTC()})

		return fmt.Errorf("ping database: %w", err)
	}

	return http_.WriteJSON(w, http.StatusOK, HealthResponse{Status: StatusOK, Timestamp: ht.now().UTC()})
}
