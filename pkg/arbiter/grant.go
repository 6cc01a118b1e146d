package arbiter

import "github.com/marrowvale/lockarbiter/pkg/domain"

// checkQuoted implements the Quoted-resource grant rules of spec
// §4.6.
func checkQuoted(l domain.Lock, tl *domain.TakenLock, res domain.Resource) bool {
	switch l.Mode {
	case domain.Read:
		if tl.HasWriteLocks() {
			return false
		}
		if res.IsInfinite() {
			return true
		}
		return len(tl.ReadLocks) < res.Quota
	case domain.Write:
		return !tl.HasReadLocks() && !tl.HasWriteLocks()
	default:
		return true
	}
}

// checkCustom implements the Custom-resource grant rules of spec
// §4.6. otherAssigned is this cycle's affinity picks made by every
// other promotion for this resource.
func checkCustom(l domain.Lock, tl *domain.TakenLock, res domain.Resource, otherAssigned map[string]struct{}) bool {
	switch l.Mode {
	case domain.Read:
		return checkCustomRead(l, tl, res, otherAssigned)
	case domain.Write:
		return checkCustomWrite(l, tl)
	default:
		return true
	}
}

func checkCustomRead(l domain.Lock, tl *domain.TakenLock, res domain.Resource, otherAssigned map[string]struct{}) bool {
	if tl.HasAllWriteLock() {
		return false
	}
	taken := tl.TakenValues()

	if l.Value != "" {
		if _, ok := taken[l.Value]; ok {
			return false
		}
		_, ok := otherAssigned[l.Value]
		return !ok
	}

	// ANY: grantable iff some pool value is free of both runtime
	// holders and this cycle's affinity reservations.
	for _, v := range res.Values {
		if _, held := taken[v]; held {
			continue
		}
		if _, reserved := otherAssigned[v]; reserved {
			continue
		}
		return true
	}
	return false
}

func checkCustomWrite(l domain.Lock, tl *domain.TakenLock) bool {
	if l.Value == "" {
		// "ALL" write: exclusive against every other holder.
		return !tl.HasReadLocks() && !tl.HasWriteLocks()
	}
	// Specific write: distinct specific writes on a Custom resource
	// are a deliberate exception to strict writer-exclusion (spec
	// §4.6); only collides with a holder of the same value.
	_, held := tl.TakenValues()[l.Value]
	return !held
}
