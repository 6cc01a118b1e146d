package hostsim

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hashicorp/go-hclog"

	"github.com/marrowvale/lockarbiter/pkg/domain"
)

// Decider is the subset of pkg/arbiter.Arbiter the demo harness needs:
// one call per queued build, against whatever snapshot the provider
// currently holds.
type Decider interface {
	CanStart(queued *domain.BuildPromotion, running, peerQueued []*domain.BuildPromotion, emulation bool) *domain.WaitReason
}

// mutableProvider is the manual-bookkeeping surface local.Provider
// exposes on top of the read-only Provider interface. Nomad's provider
// derives its snapshot from the scheduler itself and doesn't implement
// this, so demo mode is local-only; Initialize still returns a plain
// Provider and the type assertion in NewDemo reports that plainly
// instead of panicking.
type mutableProvider interface {
	Provider
	MarkRunning(*domain.BuildPromotion)
	MarkQueued(*domain.BuildPromotion)
	MarkFinished(string)
}

// Demo drives a manually-populated Provider through the arbiter so the
// daemon has something runnable out of the box: queue a build, see it
// granted or denied against whatever's already running, mark it
// finished, repeat. It is mounted under /demo when the daemon's
// demo_mode setting is enabled.
type Demo struct {
	l        hclog.Logger
	arbiter  Decider
	provider mutableProvider
}

// NewDemo wraps p for demo-mode use. It fails if p isn't one of the
// providers that supports manual queue/finish bookkeeping (currently
// only the local provider).
func NewDemo(l hclog.Logger, arbiter Decider, p Provider) (*Demo, error) {
	mp, ok := p.(mutableProvider)
	if !ok {
		return nil, errors.New("hostsim: demo mode requires a provider with manual bookkeeping (the local provider)")
	}
	return &Demo{l: l.Named("hostsim-demo"), arbiter: arbiter, provider: mp}, nil
}

type queuePayload struct {
	ID              string            `json:"id"`
	ProjectID       string            `json:"projectId"`
	BuildTypeID     string            `json:"buildTypeId"`
	FeatureParams   map[string]string `json:"featureParams"`
	LegacyLockAttrs map[string]string `json:"legacyLockAttrs"`
}

type queueResult struct {
	Granted    bool   `json:"granted"`
	WaitReason string `json:"waitReason,omitempty"`
}

type finishPayload struct {
	ID string `json:"id"`
}

// HTTPEntry provides the chi mountpoint for the demo harness.
func (d *Demo) HTTPEntry() chi.Router {
	r := chi.NewRouter()
	r.Post("/queue", d.httpQueue)
	r.Post("/finish", d.httpFinish)
	r.Get("/state", d.httpState)
	return r
}

func (d *Demo) httpQueue(w http.ResponseWriter, req *http.Request) {
	var p queuePayload
	if err := json.NewDecoder(req.Body).Decode(&p); err != nil {
		d.httpJSONError(w, err)
		return
	}

	build := &domain.BuildPromotion{
		ID:              p.ID,
		ProjectID:       p.ProjectID,
		BuildTypeID:     p.BuildTypeID,
		FeatureParams:   p.FeatureParams,
		LegacyLockAttrs: p.LegacyLockAttrs,
	}

	running, err := d.provider.Running()
	if err != nil {
		d.httpJSONError(w, err)
		return
	}
	peerQueued, err := d.provider.PeerQueued()
	if err != nil {
		d.httpJSONError(w, err)
		return
	}

	wr := d.arbiter.CanStart(build, running, peerQueued, false)
	res := queueResult{Granted: wr == nil}
	if wr != nil {
		res.WaitReason = wr.Description
		d.provider.MarkQueued(build)
		d.l.Info("Demo build queued, waiting", "build", build.ID, "reason", wr.Description)
	} else {
		d.provider.MarkRunning(build)
		d.l.Info("Demo build granted", "build", build.ID)
	}

	d.writeJSON(w, res)
}

func (d *Demo) httpFinish(w http.ResponseWriter, req *http.Request) {
	var p finishPayload
	if err := json.NewDecoder(req.Body).Decode(&p); err != nil {
		d.httpJSONError(w, err)
		return
	}
	d.provider.MarkFinished(p.ID)
	d.l.Info("Demo build finished", "build", p.ID)
	w.WriteHeader(http.StatusOK)
}

type statePayload struct {
	Running    []*domain.BuildPromotion `json:"running"`
	PeerQueued []*domain.BuildPromotion `json:"peerQueued"`
}

func (d *Demo) httpState(w http.ResponseWriter, req *http.Request) {
	running, err := d.provider.Running()
	if err != nil {
		d.httpJSONError(w, err)
		return
	}
	peerQueued, err := d.provider.PeerQueued()
	if err != nil {
		d.httpJSONError(w, err)
		return
	}
	d.writeJSON(w, statePayload{Running: running, PeerQueued: peerQueued})
}

func (d *Demo) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		d.l.Warn("Error encoding JSON response", "error", err)
	}
}

func (d *Demo) httpJSONError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	out := struct {
		Error string
	}{
		Error: err.Error(),
	}
	if err := json.NewEncoder(w).Encode(out); err != nil {
		d.l.Warn("Error encoding JSON error response")
	}
}
