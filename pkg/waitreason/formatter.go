// Package waitreason implements the wait-reason formatter (spec
// component C8): rendering the set of unavailable locks and their
// current holders into the human-readable string the scheduler
// surfaces to whoever is staring at the queue.
package waitreason

import (
	"fmt"
	"sort"
	"strings"

	"github.com/marrowvale/lockarbiter/pkg/domain"
)

// BuildTypeLookup resolves a holder's promotion id to the build-type
// id that should be named in the wait reason. Holders whose promotion
// id isn't found are simply omitted from the build-type list (this is
// expected for affinity-denied custom READs, where no running holder
// exists yet in the project - spec §4.8).
type BuildTypeLookup func(promotionID string) (buildTypeID string, ok bool)

// Format produces the single wait-reason string for a denial, per
// spec §4.8:
//
//	Build is waiting for the following resource[s] to become available: <name1> (locked by <bt1>, <bt2>), <name2>, ...
func Format(taken map[string]*domain.TakenLock, unavailable []domain.Lock, lookup BuildTypeLookup) string {
	names := uniqueSortedNames(unavailable)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, formatOne(name, taken[name], lookup))
	}

	plural := "s"
	if len(names) == 1 {
		plural = ""
	}
	return fmt.Sprintf("Build is waiting for the following resource%s to become available: %s", plural, strings.Join(parts, ", "))
}

func formatOne(name string, tl *domain.TakenLock, lookup BuildTypeLookup) string {
	if tl == nil {
		return name
	}
	btSet := make(map[string]struct{})
	for _, id := range tl.HolderPromotionIDs() {
		if bt, ok := lookup(id); ok {
			btSet[bt] = struct{}{}
		}
	}
	if len(btSet) == 0 {
		return name
	}
	bts := make([]string, 0, len(btSet))
	for bt := range btSet {
		bts = append(bts, bt)
	}
	sort.Strings(bts)
	return fmt.Sprintf("%s (locked by %s)", name, strings.Join(bts, ", "))
}

func uniqueSortedNames(locks []domain.Lock) []string {
	seen := make(map[string]struct{}, len(locks))
	var out []string
	for _, l := range locks {
		if _, ok := seen[l.Name]; ok {
			continue
		}
		seen[l.Name] = struct{}{}
		out = append(out, l.Name)
	}
	sort.Strings(out)
	return out
}
