package arbiter

import "github.com/marrowvale/lockarbiter/pkg/domain"

// reserve implements step 6 of spec §4.6: for every desired READ on a
// Custom resource, pin down the value that was (or will be) granted
// and return it keyed by resource id, ready for affinity.Store and
// promotion attribute stamping.
func (a *Arbiter) reserve(p *domain.BuildPromotion, locks []domain.Lock, resources map[string]domain.Resource, taken map[string]*domain.TakenLock, exclude map[string]struct{}) map[string]string {
	picks := make(map[string]string)
	for _, l := range locks {
		if l.Mode != domain.Read {
			continue
		}
		res, ok := resources[l.Name]
		if !ok || res.Kind != domain.Custom {
			continue
		}
		if l.Value != "" {
			picks[res.ID] = l.Value
			continue
		}
		picks[res.ID] = a.pickFreeValue(p, res, viewFor(taken[l.Name], l.Name, exclude))
	}
	return picks
}

// pickFreeValue chooses any pool value disjoint from both the taken
// tally and this cycle's other affinity reservations. An empty result
// (ValuePickFailure, spec §7) indicates the count check above already
// passed but no free value could actually be found - a race or logic
// bug rather than expected behavior. The build still starts with an
// empty reservation; the executor may then fail visibly.
func (a *Arbiter) pickFreeValue(p *domain.BuildPromotion, res domain.Resource, tl *domain.TakenLock) string {
	taken := tl.TakenValues()
	others := a.affinity.OtherAssignedValues(res.ID, p.ID)
	for _, v := range res.Values {
		if _, held := taken[v]; held {
			continue
		}
		if _, reserved := others[v]; reserved {
			continue
		}
		return v
	}
	a.l.Warn("Value pick failure after grant check passed, stamping empty value", "resource", res.Name, "build", p.ID)
	return ""
}
