// Package arbiter implements the decision core (spec component C6):
// the single entry point a host scheduler calls once per queued build
// per scheduling pass to ask "can this build start now?".
package arbiter

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/marrowvale/lockarbiter/internal/keyedmutex"
	"github.com/marrowvale/lockarbiter/pkg/domain"
	"github.com/marrowvale/lockarbiter/pkg/events"
	"github.com/marrowvale/lockarbiter/pkg/waitreason"
)

// New returns an Arbiter. resourcesInChains defaults to true, matching
// the host configuration flag's documented default (spec §6).
func New(l hclog.Logger, resolver ResourceResolver, extractor LockExtractor, collector TakenLockCollector, affinity AffinitySet, inspector ConfigInspector, opts ...Option) *Arbiter {
	a := &Arbiter{
		l:                 l.Named("arbiter"),
		resolver:          resolver,
		extractor:         extractor,
		collector:         collector,
		affinity:          affinity,
		inspector:         inspector,
		publisher:         events.Noop{},
		resourceMu:        keyedmutex.New(),
		resourcesInChains: true,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CanStart is the single arbitration call (spec §4.6). It never
// returns an error to the caller: every internal failure is logged and
// resolved as a silent grant, per spec §7's propagation policy
// ("blocking a build on an internal bug is worse than proceeding").
// A nil result authorizes the build to start.
func (a *Arbiter) CanStart(queued *domain.BuildPromotion, running, peerQueued []*domain.BuildPromotion, emulation bool) *domain.WaitReason {
	if queued.ProjectID == "" || queued.BuildTypeID == "" {
		a.l.Debug("Missing project id or build type, granting", "build", queued.ID)
		return nil
	}

	a.affinity.Actualize(a.liveIDs(queued, running, peerQueued))

	cfgErrs, err := a.inspector.Inspect(queued)
	if err != nil {
		a.l.Warn("Configuration inspector error, granting", "build", queued.ID, "error", err)
	} else if len(cfgErrs) > 0 {
		wr := &domain.WaitReason{Description: configErrorReason(cfgErrs)}
		a.publish(queued, false, wr.Description, nil)
		return wr
	}

	locks := a.extractor.FromBuildPromotion(queued)
	if len(locks) == 0 {
		return nil
	}

	var wr *domain.WaitReason
	if a.resourcesInChainsEnabled() && len(queued.ChainParents) > 0 {
		wr = a.chainAwareGrant(queued, running, peerQueued, locks, emulation)
	} else {
		wr = a.singleGrant(queued, running, peerQueued, locks, nil, emulation)
	}

	if wr != nil {
		a.publish(queued, false, wr.Description, nil)
	}
	return wr
}

// liveIDs is every promotion id that should survive this cycle's
// affinity pruning: the build under consideration, every running
// build, and every peer queued build already cleared to start
// (spec §4.5).
func (a *Arbiter) liveIDs(queued *domain.BuildPromotion, running, peerQueued []*domain.BuildPromotion) map[string]struct{} {
	out := map[string]struct{}{queued.ID: {}}
	for _, p := range running {
		out[p.ID] = struct{}{}
	}
	for _, p := range peerQueued {
		out[p.ID] = struct{}{}
	}
	return out
}

// singleGrant implements the single-build grant procedure of spec
// §4.6, steps 2-6. exclude, when non-nil, is the chain-aware view:
// holders whose promotion id is in exclude are subtracted from every
// taken-lock tally before the per-kind rules run (spec §4.6's
// composition rule).
func (a *Arbiter) singleGrant(p *domain.BuildPromotion, running, peerQueued []*domain.BuildPromotion, locks []domain.Lock, exclude map[string]struct{}, emulation bool) *domain.WaitReason {
	resources, err := a.resolver.AsMap(p.ProjectID)
	if err != nil {
		a.l.Warn("Resource registry error, granting", "build", p.ID, "error", err)
		return nil
	}

	resourceIDs := resourceIDsFor(locks, resources)
	a.lockResources(resourceIDs)
	defer a.unlockResources(resourceIDs)

	taken := a.collector.Collect(running, peerQueued, p.ProjectID)

	var unavailable []domain.Lock
	for _, l := range locks {
		res, ok := resources[l.Name]
		if !ok {
			// Undefined resources are the inspector's job (C7); a
			// lock the registry can't resolve here is treated as
			// already reported, never silently denied (spec §4.6
			// error paths).
			continue
		}
		tl := viewFor(taken[l.Name], l.Name, exclude)
		if !a.checkGrant(l, tl, res, p.ID) {
			unavailable = append(unavailable, l)
		}
	}

	if len(unavailable) > 0 {
		lookup := buildTypeLookup(running, peerQueued)
		return &domain.WaitReason{Description: waitreason.Format(taken, unavailable, lookup)}
	}

	picks := a.reserve(p, locks, resources, taken, exclude)
	if !emulation {
		a.affinity.Store(p.ID, picks)
		for resourceID, value := range picks {
			p.SetAttr(domain.ReservedAttrKey(resourceID), value)
		}
	}
	a.publish(p, true, "", picks)
	return nil
}

func (a *Arbiter) checkGrant(l domain.Lock, tl *domain.TakenLock, res domain.Resource, promotionID string) bool {
	switch res.Kind {
	case domain.Quoted:
		return checkQuoted(l, tl, res)
	case domain.Custom:
		others := a.affinity.OtherAssignedValues(res.ID, promotionID)
		return checkCustom(l, tl, res, others)
	default:
		return true
	}
}

func (a *Arbiter) publish(p *domain.BuildPromotion, granted bool, reason string, picks map[string]string) {
	a.currentPublisher().Publish(events.DecisionEvent{
		ID:             uuid.NewString(),
		PromotionID:    p.ID,
		ProjectID:      p.ProjectID,
		Granted:        granted,
		WaitReason:     reason,
		ReservedValues: picks,
		Timestamp:      time.Now().UTC(),
	})
}

func (a *Arbiter) lockResources(ids []string) {
	for _, id := range ids {
		a.resourceMu.Lock(id)
	}
}

func (a *Arbiter) unlockResources(ids []string) {
	for i := len(ids) - 1; i >= 0; i-- {
		a.resourceMu.Unlock(ids[i])
	}
}

// resourceIDsFor returns the sorted, de-duplicated resource ids the
// given locks resolve to. Sorting fixes a lock acquisition order
// across every call so two builds wanting overlapping resource sets
// can never deadlock against each other (spec §9: "a per-resource
// (or global) short critical section").
func resourceIDsFor(locks []domain.Lock, resources map[string]domain.Resource) []string {
	seen := make(map[string]struct{}, len(locks))
	var ids []string
	for _, l := range locks {
		res, ok := resources[l.Name]
		if !ok {
			continue
		}
		if _, dup := seen[res.ID]; dup {
			continue
		}
		seen[res.ID] = struct{}{}
		ids = append(ids, res.ID)
	}
	sort.Strings(ids)
	return ids
}

// viewFor returns tl with chain-ancestor holders subtracted, or an
// empty TakenLock if no holders exist at all yet.
func viewFor(tl *domain.TakenLock, name string, exclude map[string]struct{}) *domain.TakenLock {
	if tl == nil {
		tl = &domain.TakenLock{ResourceName: name}
	}
	if exclude == nil {
		return tl
	}
	return tl.Without(exclude)
}

func buildTypeLookup(running, peerQueued []*domain.BuildPromotion) waitreason.BuildTypeLookup {
	byID := make(map[string]string, len(running)+len(peerQueued))
	for _, p := range running {
		byID[p.ID] = p.BuildTypeID
	}
	for _, p := range peerQueued {
		byID[p.ID] = p.BuildTypeID
	}
	return func(promotionID string) (string, bool) {
		bt, ok := byID[promotionID]
		return bt, ok
	}
}

func configErrorReason(errs map[domain.Lock]string) string {
	names := make([]string, 0, len(errs))
	seen := make(map[string]struct{})
	for l := range errs {
		if _, dup := seen[l.Name]; dup {
			continue
		}
		seen[l.Name] = struct{}{}
		names = append(names, l.Name)
	}
	sort.Strings(names)
	out := "Build configuration has errors in the following locks: "
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}
