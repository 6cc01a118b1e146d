package domain

// Holder pairs a lock's value with the identity of the promotion that
// holds it. Value is empty for Quoted resources and for Custom "ALL"
// writes.
type Holder struct {
	PromotionID string
	Value       string
}

// TakenLock is the per-resource tally the collector (C3) builds before
// the arbiter evaluates a desired lock against it: every currently
// held READ and every currently held WRITE, each tagged with its
// holder so the wait-reason formatter can name build types later.
type TakenLock struct {
	ResourceName string
	ReadLocks    []Holder
	WriteLocks   []Holder
}

// HasReadLocks reports whether any build currently holds a READ.
func (t *TakenLock) HasReadLocks() bool {
	return len(t.ReadLocks) > 0
}

// HasWriteLocks reports whether any build currently holds a WRITE.
func (t *TakenLock) HasWriteLocks() bool {
	return len(t.WriteLocks) > 0
}

// HasAllWriteLock reports whether one of the write holders took the
// resource with an empty value, i.e. an "ALL" lock on a Custom
// resource. Quoted writes never carry a value, so on a Quoted
// resource any write holder makes this true.
func (t *TakenLock) HasAllWriteLock() bool {
	for _, h := range t.WriteLocks {
		if h.Value == "" {
			return true
		}
	}
	return false
}

// TakenValues returns the set of non-empty values held across both
// read and write holders, used by the Custom-resource grant rules.
func (t *TakenLock) TakenValues() map[string]struct{} {
	out := make(map[string]struct{}, len(t.ReadLocks)+len(t.WriteLocks))
	for _, h := range t.ReadLocks {
		if h.Value != "" {
			out[h.Value] = struct{}{}
		}
	}
	for _, h := range t.WriteLocks {
		if h.Value != "" {
			out[h.Value] = struct{}{}
		}
	}
	return out
}

// AddLock records one held lock against its holder's promotion id.
func (t *TakenLock) AddLock(promotionID string, lock Lock) {
	h := Holder{PromotionID: promotionID, Value: lock.Value}
	if lock.Mode == Write {
		t.WriteLocks = append(t.WriteLocks, h)
		return
	}
	t.ReadLocks = append(t.ReadLocks, h)
}

// Without returns a copy of t with holders belonging to excludeIDs
// removed, or t itself when excludeIDs is empty. This is the "chain
// view" the arbiter's chain-aware grant rule uses: taken-lock tallies
// minus the requesting promotion's chain ancestors (spec §4.6).
func (t *TakenLock) Without(excludeIDs map[string]struct{}) *TakenLock {
	if len(excludeIDs) == 0 {
		return t
	}
	out := &TakenLock{ResourceName: t.ResourceName}
	for _, h := range t.ReadLocks {
		if _, excluded := excludeIDs[h.PromotionID]; !excluded {
			out.ReadLocks = append(out.ReadLocks, h)
		}
	}
	for _, h := range t.WriteLocks {
		if _, excluded := excludeIDs[h.PromotionID]; !excluded {
			out.WriteLocks = append(out.WriteLocks, h)
		}
	}
	return out
}

// HolderPromotionIDs returns the distinct promotion ids of every
// holder, read holders first, in the order they were added. The
// wait-reason formatter maps them to build types itself, since
// TakenLock only knows promotion ids.
func (t *TakenLock) HolderPromotionIDs() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(h Holder) {
		if _, ok := seen[h.PromotionID]; ok {
			return
		}
		seen[h.PromotionID] = struct{}{}
		out = append(out, h.PromotionID)
	}
	for _, h := range t.ReadLocks {
		add(h)
	}
	for _, h := range t.WriteLocks {
		add(h)
	}
	return out
}
