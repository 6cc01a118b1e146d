// Package affinity implements the in-cycle reservation set (spec
// component C5): the process-wide memory of which custom-resource
// value each promotion picked during the current scheduling pass.
package affinity

import (
	"sync"

	"github.com/hashicorp/go-hclog"
)

// Set is the ResourceAffinity described in spec §3/§4.5: a mutable map
// from build-promotion id to (resource id -> chosen value), pruned at
// the start of each arbitration call and written to by the arbiter as
// it grants builds. Every operation is individually atomic so
// concurrent arbitration calls within one pass see a consistent view
// (spec §5's linearizability requirement).
type Set struct {
	l hclog.Logger

	mu      sync.Mutex
	entries map[string]map[string]string // promotionID -> resourceID -> value
}

// New returns an empty affinity set.
func New(l hclog.Logger) *Set {
	return &Set{
		l:       l.Named("affinity"),
		entries: make(map[string]map[string]string),
	}
}

// Actualize drops every entry whose promotion id is not in liveIDs.
// The arbiter calls it at the start of every CanStart call, before
// that call's decision is made (spec §4.5).
func (s *Set) Actualize(liveIDs map[string]struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.entries {
		if _, live := liveIDs[id]; !live {
			delete(s.entries, id)
		}
	}
}

// Store records this cycle's picks for promotionID, overwriting any
// prior entry for the same promotion (spec §4.5).
func (s *Set) Store(promotionID string, picks map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make(map[string]string, len(picks))
	for k, v := range picks {
		cp[k] = v
	}
	s.entries[promotionID] = cp
}

// OtherAssignedValues returns every value assigned to a promotion
// other than excludePromotionID for the named resource id this cycle
// (spec §4.5, §4.6's custom-read grant rule).
func (s *Set) OtherAssignedValues(resourceID, excludePromotionID string) map[string]struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]struct{})
	for promotionID, picks := range s.entries {
		if promotionID == excludePromotionID {
			continue
		}
		if v, ok := picks[resourceID]; ok {
			out[v] = struct{}{}
		}
	}
	return out
}

// Len reports how many promotions currently hold an affinity entry.
// Exposed for tests, not used by the arbiter itself.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
