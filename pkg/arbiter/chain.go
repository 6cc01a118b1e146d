package arbiter

import "github.com/marrowvale/lockarbiter/pkg/domain"

// chainAwareGrant implements the build-chain composition rule of spec
// §4.6: a chain's already-running members don't contend with its
// still-queued members for the same locks, and the whole chain is
// walked before the build itself is evaluated. The first denial
// encountered in walk order becomes the whole build's wait reason.
func (a *Arbiter) chainAwareGrant(queued *domain.BuildPromotion, running, peerQueued []*domain.BuildPromotion, locks []domain.Lock, emulation bool) *domain.WaitReason {
	chainIDs := map[string]struct{}{queued.ID: {}}
	chainLocks := make(map[string]map[string]domain.Lock) // resource name -> promotion id -> lock, for trace visibility only
	collectChainIDs(queued, chainIDs, make(map[string]struct{}))

	if wr := a.walkChainParents(queued, running, peerQueued, chainIDs, chainLocks, emulation, make(map[string]struct{})); wr != nil {
		return wr
	}

	a.l.Trace("Resolved chain-internal locks", "build", queued.ID, "chainLocks", chainLocks)
	return a.singleGrant(queued, running, peerQueued, locks, excludeSelf(chainIDs, queued.ID), emulation)
}

// collectChainIDs gathers every promotion id reachable from p via
// ChainParents, including p itself, guarding against a malformed
// cyclic graph even though the spec describes chains as a DAG.
func collectChainIDs(p *domain.BuildPromotion, out, visited map[string]struct{}) {
	if _, seen := visited[p.ID]; seen {
		return
	}
	visited[p.ID] = struct{}{}
	out[p.ID] = struct{}{}
	for _, parent := range p.ChainParents {
		collectChainIDs(parent, out, visited)
	}
}

// walkChainParents implements spec §4.6 steps 1-3: already-running
// parents (flagged Running, or present in the running snapshot) are
// never re-evaluated and contribute any persisted locks to chainLocks for
// visibility (their exclusion from contention is achieved, for every
// member's grant check, by chainIDs being subtracted from every
// taken-lock view); still-queued parents are recursively evaluated
// with the chain-aware single-build procedure before their own
// dependents are considered.
func (a *Arbiter) walkChainParents(p *domain.BuildPromotion, running, peerQueued []*domain.BuildPromotion, chainIDs map[string]struct{}, chainLocks map[string]map[string]domain.Lock, emulation bool, visited map[string]struct{}) *domain.WaitReason {
	if _, seen := visited[p.ID]; seen {
		return nil
	}
	visited[p.ID] = struct{}{}

	for _, parent := range p.ChainParents {
		alreadyRunning := parent.Running
		for _, r := range running {
			if r.ID == parent.ID {
				alreadyRunning = true
				break
			}
		}
		if alreadyRunning {
			for _, l := range parent.PersistedLocks {
				m, ok := chainLocks[l.Name]
				if !ok {
					m = make(map[string]domain.Lock)
					chainLocks[l.Name] = m
				}
				m[parent.ID] = l
			}
			continue
		}

		if wr := a.walkChainParents(parent, running, peerQueued, chainIDs, chainLocks, emulation, visited); wr != nil {
			return wr
		}

		parentLocks := a.extractor.FromBuildPromotion(parent)
		if len(parentLocks) == 0 {
			continue
		}
		if wr := a.singleGrant(parent, running, peerQueued, parentLocks, excludeSelf(chainIDs, parent.ID), emulation); wr != nil {
			return wr
		}
	}
	return nil
}

// excludeSelf returns a copy of chainIDs without selfID: the
// chain-aware view subtracts a requester's chain ancestors from
// contention, never the requester's own (not-yet-held) lock.
func excludeSelf(chainIDs map[string]struct{}, selfID string) map[string]struct{} {
	out := make(map[string]struct{}, len(chainIDs))
	for id := range chainIDs {
		if id == selfID {
			continue
		}
		out[id] = struct{}{}
	}
	return out
}
