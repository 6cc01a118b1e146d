// Package local is an in-memory host scheduler provider. It exists to
// make exercising the arbiter in tests and demos easy without standing
// up Nomad, mirroring this codebase's local single-host capacity
// provider.
package local

import (
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/marrowvale/lockarbiter/pkg/domain"
	"github.com/marrowvale/lockarbiter/pkg/hostsim"
)

func init() {
	hostsim.RegisterCallback(cb)
}

func cb() {
	hostsim.RegisterFactory("local", New)
}

// Provider is an in-memory, manually-populated host scheduler stand-in.
type Provider struct {
	l hclog.Logger

	mu         sync.Mutex
	running    map[string]*domain.BuildPromotion
	peerQueued map[string]*domain.BuildPromotion
}

// New returns an empty local provider.
func New(l hclog.Logger) (hostsim.Provider, error) {
	return &Provider{
		l:          l.Named("hostsim-local"),
		running:    make(map[string]*domain.BuildPromotion),
		peerQueued: make(map[string]*domain.BuildPromotion),
	}, nil
}

// MarkRunning records that a promotion has started.
func (p *Provider) MarkRunning(b *domain.BuildPromotion) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.peerQueued, b.ID)
	p.running[b.ID] = b
}

// MarkQueued records that a promotion has been admitted to the queue
// but has not started.
func (p *Provider) MarkQueued(b *domain.BuildPromotion) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.peerQueued[b.ID] = b
}

// MarkFinished removes a promotion from both sets.
func (p *Provider) MarkFinished(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.running, id)
	delete(p.peerQueued, id)
}

// Running implements hostsim.Provider.
func (p *Provider) Running() ([]*domain.BuildPromotion, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*domain.BuildPromotion, 0, len(p.running))
	for _, b := range p.running {
		out = append(out, b)
	}
	return out, nil
}

// PeerQueued implements hostsim.Provider.
func (p *Provider) PeerQueued() ([]*domain.BuildPromotion, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*domain.BuildPromotion, 0, len(p.peerQueued))
	for _, b := range p.peerQueued {
		out = append(out, b)
	}
	return out, nil
}
