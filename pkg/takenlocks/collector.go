// Package takenlocks implements the taken-lock collector (spec
// component C3): aggregating locks currently held by running and
// in-cycle queued builds into a per-resource tally.
package takenlocks

import (
	"github.com/hashicorp/go-hclog"

	"github.com/marrowvale/lockarbiter/pkg/domain"
	"github.com/marrowvale/lockarbiter/pkg/lockstore"
)

// Extractor is the subset of pkg/locks.Extractor the collector needs.
type Extractor interface {
	FromBuildPromotion(p *domain.BuildPromotion) []domain.Lock
	FromPersisted(m map[string]domain.Lock) []domain.Lock
}

// Collector builds the per-resource TakenLock map for one project
// scope (spec §4.3).
type Collector struct {
	l         hclog.Logger
	extractor Extractor
	store     *lockstore.Store
}

// New returns a collector. store may be nil, in which case every
// running build is tallied via extraction only (useful for tests and
// for the CLI's offline `decide` command, which has no durable store).
func New(l hclog.Logger, extractor Extractor, store *lockstore.Store) *Collector {
	return &Collector{l: l.Named("takenlocks"), extractor: extractor, store: store}
}

// Collect aggregates locks held by running builds and by the peer
// queued builds already cleared to start this cycle, restricted to
// promotions whose project id equals projectID (spec §4.3).
func (c *Collector) Collect(running, peerQueued []*domain.BuildPromotion, projectID string) map[string]*domain.TakenLock {
	result := make(map[string]*domain.TakenLock)

	for _, p := range running {
		if p.ProjectID != projectID {
			continue
		}
		c.addToTakenLocks(result, p, c.locksForRunning(p))
	}
	for _, p := range peerQueued {
		if p.ProjectID != projectID {
			continue
		}
		c.addToTakenLocks(result, p, c.extractor.FromBuildPromotion(p))
	}
	return result
}

// locksForRunning prefers the persisted record (authoritative, since
// values were chosen at grant time) and falls back to extraction from
// the promotion's parameters when no record exists or it can't be
// read (spec §4.3, §7's StorageError policy).
func (c *Collector) locksForRunning(p *domain.BuildPromotion) []domain.Lock {
	if c.store != nil && c.store.LocksStored(p.ID) {
		return c.extractor.FromPersisted(c.store.Load(p.ID))
	}
	return c.extractor.FromBuildPromotion(p)
}

func (c *Collector) addToTakenLocks(result map[string]*domain.TakenLock, p *domain.BuildPromotion, locks []domain.Lock) {
	for _, l := range locks {
		tl, ok := result[l.Name]
		if !ok {
			tl = &domain.TakenLock{ResourceName: l.Name}
			result[l.Name] = tl
		}
		tl.AddLock(p.ID, l)
	}
}
