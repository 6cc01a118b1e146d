// Package registry implements the resource registry (spec component
// C1): resolving a project's effective resource set by walking its
// project path root-down and letting the nearest definition win.
package registry

import (
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/marrowvale/lockarbiter/pkg/domain"
)

// ProjectHierarchy resolves a project's path from root to leaf. It is
// an external collaborator (spec §1's project-storage is out of
// scope); the registry only consumes it.
type ProjectHierarchy interface {
	PathTo(projectID string) ([]string, error)
}

// Source loads one project's own resource definitions, uninherited.
// configrepo.Repository satisfies this.
type Source interface {
	Load(projectID string) ([]domain.Resource, error)
}

// Registry is the resource registry. It caches each project's own
// resources and recomputes the inherited view on demand; the cache is
// invalidated per project id, not wholesale, so a config-repo refresh
// that touches one project doesn't force every project to re-walk.
type Registry struct {
	l hclog.Logger

	hierarchy ProjectHierarchy
	source    Source

	mu    sync.RWMutex
	own   map[string][]domain.Resource
	ready map[string]struct{}
}

// New returns a registry backed by the given hierarchy and source.
func New(l hclog.Logger, hierarchy ProjectHierarchy, source Source) *Registry {
	return &Registry{
		l:         l.Named("registry"),
		hierarchy: hierarchy,
		source:    source,
		own:       make(map[string][]domain.Resource),
		ready:     make(map[string]struct{}),
	}
}

// Invalidate marks the cached own-resources for the given project ids
// stale, forcing the next ownResources/resolve call to reload them via
// Source; the previous copy is kept only as a fallback for a reload
// that fails. Called after a config-repo refresh (spec SPEC_FULL §4.9).
func (r *Registry) Invalidate(projectIDs []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range projectIDs {
		delete(r.ready, id)
	}
}

// OwnResources returns the resources defined at projectID only, not
// walking ancestors (spec §4.1).
func (r *Registry) OwnResources(projectID string) ([]domain.Resource, error) {
	r.mu.RLock()
	if _, ok := r.ready[projectID]; ok {
		defer r.mu.RUnlock()
		return r.own[projectID], nil
	}
	r.mu.RUnlock()

	resources, err := r.source.Load(projectID)
	if err != nil {
		r.l.Warn("Error loading own resources, serving stale cache if any", "project", projectID, "error", err)
		r.mu.RLock()
		cached, ok := r.own[projectID]
		r.mu.RUnlock()
		if ok {
			return cached, nil
		}
		return nil, err
	}

	r.mu.Lock()
	r.own[projectID] = resources
	r.ready[projectID] = struct{}{}
	r.mu.Unlock()
	return resources, nil
}

// Resolve returns the effective name -> Resource mapping for
// projectID: the project path is walked root-first, leaf-last, so a
// descendant's resource definition overrides an ancestor's
// same-named one (spec §3 invariant, §4.1). The returned map is a
// fresh snapshot, safe to iterate independently of later mutation.
func (r *Registry) Resolve(projectID string) (map[string]domain.Resource, error) {
	path, err := r.hierarchy.PathTo(projectID)
	if err != nil {
		return nil, err
	}

	out := make(map[string]domain.Resource)
	for _, id := range path {
		owned, err := r.OwnResources(id)
		if err != nil {
			r.l.Warn("Error resolving ancestor resources, continuing with what's cached", "project", id, "error", err)
			continue
		}
		for _, res := range owned {
			out[res.Name] = res
		}
	}
	return out, nil
}

// AsMap is an alias for Resolve, matching the naming the arbiter and
// inspector call it by (spec §4.1: "asMap returns the same").
func (r *Registry) AsMap(projectID string) (map[string]domain.Resource, error) {
	return r.Resolve(projectID)
}
