// Package locks implements the lock extractor (spec component C2):
// turning a build's feature parameters into the set of locks it wants.
package locks

import (
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/marrowvale/lockarbiter/pkg/domain"
)

// FeatureParamName is the single feature-parameter key whose value
// holds the newline-terminated block of "name mode value" records.
const FeatureParamName = "locks-param"

const legacyPrefix = "teamcity.locks."

// Extractor reads a build promotion's declared locks. The parsing
// itself is stateless; the logger is only used to note malformed
// records, mirroring the importer's tolerant-parse style in the
// teacher's package-graph loader.
type Extractor struct {
	l hclog.Logger
}

// New returns a lock extractor.
func New(l hclog.Logger) *Extractor {
	return &Extractor{l: l.Named("locks")}
}

// FromBuildPromotion extracts a build's declared locks, preferring the
// primary feature-parameter block and falling back to the legacy
// per-key encoding when the primary block is absent (spec §4.2, §6).
// Duplicate names are collapsed, keeping the first occurrence.
func (e *Extractor) FromBuildPromotion(p *domain.BuildPromotion) []domain.Lock {
	if raw, ok := p.FeatureParams[FeatureParamName]; ok {
		return e.dedup(e.parseBlock(raw))
	}
	return e.dedup(e.fromLegacyParams(p.FeatureParams))
}

// FromPersisted builds the lock list from a persisted-record map, used
// when the collector finds an authoritative C4 record for a running
// build (spec §4.3).
func (e *Extractor) FromPersisted(m map[string]domain.Lock) []domain.Lock {
	out := make([]domain.Lock, 0, len(m))
	for _, l := range m {
		out = append(out, l)
	}
	return out
}

// parseBlock parses the newline-terminated "name<SP>mode<SP>value"
// record block (spec §4.2).
func (e *Extractor) parseBlock(raw string) []domain.Lock {
	var out []domain.Lock
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, " ", 3)
		if len(fields) < 2 {
			e.l.Warn("Malformed lock record, skipping", "line", line)
			continue
		}
		mode, ok := domain.ModeFromString(fields[1])
		if !ok {
			e.l.Warn("Unknown lock mode, skipping", "line", line, "mode", fields[1])
			continue
		}
		value := ""
		if len(fields) == 3 {
			value = fields[2]
		}
		out = append(out, domain.Lock{Name: fields[0], Mode: mode, Value: value})
	}
	return out
}

// fromLegacyParams reads locks out of opaque build-parameter keys of
// the form "teamcity.locks.readLock.<name>" / "teamcity.locks.writeLock.<name>",
// used when reading locks from a build already running whose original
// feature may no longer be reachable (spec §4.2, §6).
func (e *Extractor) fromLegacyParams(params map[string]string) []domain.Lock {
	var out []domain.Lock
	for key, value := range params {
		rest := strings.TrimPrefix(key, legacyPrefix)
		if rest == key {
			continue
		}
		parts := strings.SplitN(rest, ".", 2)
		if len(parts) != 2 {
			continue
		}
		mode, ok := domain.ModeFromString(parts[0])
		if !ok {
			continue
		}
		out = append(out, domain.Lock{Name: parts[1], Mode: mode, Value: value})
	}
	return out
}

func (e *Extractor) dedup(locks []domain.Lock) []domain.Lock {
	if len(locks) == 0 {
		return locks
	}
	seen := make(map[string]struct{}, len(locks))
	out := make([]domain.Lock, 0, len(locks))
	for _, l := range locks {
		if _, dup := seen[l.Name]; dup {
			continue
		}
		seen[l.Name] = struct{}{}
		out = append(out, l)
	}
	return out
}
