// Package notify receives build lifecycle events over HTTP and keeps
// the running-lock store (pkg/lockstore) in sync with what the host
// scheduler actually has in flight, so a crash-restarted arbiter can
// recompute taken locks without re-querying every promotion's feature
// parameters (SPEC_FULL §4.10).
package notify

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hashicorp/go-hclog"

	"github.com/marrowvale/lockarbiter/pkg/domain"
)

// LockStore is the subset of pkg/lockstore.Store that the receiver
// needs.
type LockStore interface {
	Store(buildID string, locks []domain.Lock) error
	Remove(buildID string) error
}

// Receiver takes build-started/build-finished notifications via HTTP
// and updates the backing lock store accordingly.
type Receiver struct {
	l     hclog.Logger
	store LockStore
}

// NewReceiver returns a receiver instance bound to store.
func NewReceiver(l hclog.Logger, store LockStore) *Receiver {
	return &Receiver{
		l:     l.Named("notify"),
		store: store,
	}
}

type startedPayload struct {
	BuildID string        `json:"buildId"`
	Locks   []domain.Lock `json:"locks"`
}

type finishedPayload struct {
	BuildID string `json:"buildId"`
}

// HTTPEntry provides the chi mountpoint for the receiver.
func (r *Receiver) HTTPEntry() chi.Router {
	rout := chi.NewRouter()
	rout.Post("/started", r.httpStarted)
	rout.Post("/finished", r.httpFinished)
	return rout
}

func (r *Receiver) httpStarted(w http.ResponseWriter, req *http.Request) {
	var p startedPayload
	if err := json.NewDecoder(req.Body).Decode(&p); err != nil {
		r.httpJSONError(w, err)
		return
	}
	if err := r.store.Store(p.BuildID, p.Locks); err != nil {
		r.l.Warn("Error persisting started-build locks", "build", p.BuildID, "err", err)
		r.httpJSONError(w, err)
		return
	}
	r.l.Trace("Recorded running locks", "build", p.BuildID, "count", len(p.Locks))
	w.WriteHeader(http.StatusOK)
}

func (r *Receiver) httpFinished(w http.ResponseWriter, req *http.Request) {
	var p finishedPayload
	if err := json.NewDecoder(req.Body).Decode(&p); err != nil {
		r.httpJSONError(w, err)
		return
	}
	if err := r.store.Remove(p.BuildID); err != nil {
		r.l.Warn("Error clearing finished-build locks", "build", p.BuildID, "err", err)
		r.httpJSONError(w, err)
		return
	}
	r.l.Trace("Cleared running locks", "build", p.BuildID)
	w.WriteHeader(http.StatusOK)
}

func (r *Receiver) httpJSONError(w http.ResponseWriter, err error) {
	enc := json.NewEncoder(w)
	w.WriteHeader(http.StatusInternalServerError)
	out := struct {
		Error string
	}{
		Error: err.Error(),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := enc.Encode(out); err != nil {
		r.l.Warn("Error encoding JSON error response")
	}
}
