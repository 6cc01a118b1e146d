package arbiter

import (
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/marrowvale/lockarbiter/internal/keyedmutex"
	"github.com/marrowvale/lockarbiter/pkg/domain"
	"github.com/marrowvale/lockarbiter/pkg/events"
)

// ResourceResolver is the subset of pkg/registry.Registry the arbiter
// needs (spec component C1).
type ResourceResolver interface {
	AsMap(projectID string) (map[string]domain.Resource, error)
}

// LockExtractor is the subset of pkg/locks.Extractor the arbiter needs
// (spec component C2).
type LockExtractor interface {
	FromBuildPromotion(p *domain.BuildPromotion) []domain.Lock
}

// TakenLockCollector is the subset of pkg/takenlocks.Collector the
// arbiter needs (spec component C3).
type TakenLockCollector interface {
	Collect(running, peerQueued []*domain.BuildPromotion, projectID string) map[string]*domain.TakenLock
}

// AffinitySet is the subset of pkg/affinity.Set the arbiter needs
// (spec component C5).
type AffinitySet interface {
	Actualize(liveIDs map[string]struct{})
	Store(promotionID string, picks map[string]string)
	OtherAssignedValues(resourceID, excludePromotionID string) map[string]struct{}
}

// ConfigInspector is the subset of pkg/inspector.Inspector the arbiter
// needs (spec component C7).
type ConfigInspector interface {
	Inspect(p *domain.BuildPromotion) (map[domain.Lock]string, error)
}

// Arbiter is the decision core (spec component C6): given a queued
// build and a runtime snapshot, it computes unavailable locks and, on
// success, reserves any value picks it had to make.
type Arbiter struct {
	l hclog.Logger

	collector TakenLockCollector
	resolver  ResourceResolver
	extractor LockExtractor
	inspector ConfigInspector
	affinity  AffinitySet

	resourceMu *keyedmutex.Mutex

	// runtimeMu guards the two fields the configuration loader is
	// allowed to hot-swap (SPEC_FULL §4.13): resourcesInChains and the
	// event publisher. Everything else is fixed at construction.
	runtimeMu         sync.RWMutex
	resourcesInChains bool
	publisher         events.Publisher
}

// SetResourcesInChains updates the resources-in-chains feature flag in
// place, taking effect on the next CanStart call (SPEC_FULL §4.13).
func (a *Arbiter) SetResourcesInChains(enabled bool) {
	a.runtimeMu.Lock()
	defer a.runtimeMu.Unlock()
	a.resourcesInChains = enabled
}

// SetPublisher swaps the decision-event publisher in place (SPEC_FULL
// §4.13). The previous publisher is not closed here; callers that hand
// over a *events.KafkaPublisher are responsible for flushing/closing it
// themselves once it is no longer reachable.
func (a *Arbiter) SetPublisher(p events.Publisher) {
	a.runtimeMu.Lock()
	defer a.runtimeMu.Unlock()
	a.publisher = p
}

func (a *Arbiter) resourcesInChainsEnabled() bool {
	a.runtimeMu.RLock()
	defer a.runtimeMu.RUnlock()
	return a.resourcesInChains
}

func (a *Arbiter) currentPublisher() events.Publisher {
	a.runtimeMu.RLock()
	defer a.runtimeMu.RUnlock()
	return a.publisher
}
