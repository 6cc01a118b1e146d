// Package inspector implements the configuration inspector (spec
// component C7): detecting locks that reference undefined or
// duplicate resources so the arbiter can short-circuit misconfigured
// builds with a clear denial instead of silently mis-deciding.
package inspector

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-hclog"

	"github.com/marrowvale/lockarbiter/pkg/domain"
)

// ErrorKind distinguishes the two configuration error kinds spec §4.7
// names.
type ErrorKind int

const (
	// UndefinedResource: a lock whose name resolves to no resource in
	// the project scope.
	UndefinedResource ErrorKind = iota
	// DuplicateName: two resources sharing a name at the same project
	// level.
	DuplicateName
)

// ConfigError is one finding against a build's lock declarations.
type ConfigError struct {
	Kind    ErrorKind
	Lock    domain.Lock
	Message string
}

// Resolver is the subset of pkg/registry.Registry the inspector needs.
type Resolver interface {
	AsMap(projectID string) (map[string]domain.Resource, error)
	OwnResources(projectID string) ([]domain.Resource, error)
}

// Extractor is the subset of pkg/locks.Extractor the inspector needs.
type Extractor interface {
	FromBuildPromotion(p *domain.BuildPromotion) []domain.Lock
}

// Inspector is the configuration inspector.
type Inspector struct {
	l         hclog.Logger
	resolver  Resolver
	extractor Extractor
}

// New returns an inspector.
func New(l hclog.Logger, resolver Resolver, extractor Extractor) *Inspector {
	return &Inspector{l: l.Named("inspector"), resolver: resolver, extractor: extractor}
}

// Inspect returns a lock -> error message mapping for every
// misconfigured lock declared by p (spec §4.7). An empty map means the
// build's lock declarations are well formed.
func (i *Inspector) Inspect(p *domain.BuildPromotion) (map[domain.Lock]string, error) {
	out := make(map[domain.Lock]string)

	own, err := i.resolver.OwnResources(p.ProjectID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]int)
	for _, r := range own {
		seen[r.Name]++
	}
	dupNames := make(map[string]struct{})
	for name, count := range seen {
		if count > 1 {
			dupNames[name] = struct{}{}
		}
	}

	resolved, err := i.resolver.AsMap(p.ProjectID)
	if err != nil {
		return nil, err
	}

	for _, l := range i.extractor.FromBuildPromotion(p) {
		if _, dup := dupNames[l.Name]; dup {
			out[l] = fmt.Sprintf("resource %q is defined more than once in project %s", l.Name, p.ProjectID)
			continue
		}
		if _, ok := resolved[l.Name]; !ok {
			out[l] = fmt.Sprintf("resource %q is not defined", l.Name)
		}
	}
	return out, nil
}

// SortedLockNames is a small helper used by callers that want a
// deterministic error report (CLI output, tests).
func SortedLockNames(errs map[domain.Lock]string) []string {
	names := make([]string, 0, len(errs))
	for l := range errs {
		names = append(names, l.Name)
	}
	sort.Strings(names)
	return names
}
