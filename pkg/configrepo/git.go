// Package configrepo implements the config repository (spec component
// C9): a git-backed source of per-project resource-definition files
// that feeds the resource registry (C1). The checkout/diff machinery
// here is adapted from this codebase's git source-tree manager, here
// pointed at a directory of resource YAML files instead of a package
// build tree.
package configrepo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	gitPlumbing "github.com/go-git/go-git/v5/plumbing"
	"gopkg.in/yaml.v3"

	"github.com/marrowvale/lockarbiter/pkg/domain"
)

// resourceFile is the on-disk YAML shape for one project's own
// resources (spec SPEC_FULL §3's ResourceDefinitionFile).
type resourceFile struct {
	Resources []resourceRecord `yaml:"resources"`
}

type resourceRecord struct {
	ID     string   `yaml:"id"`
	Name   string   `yaml:"name"`
	Kind   string   `yaml:"kind"`
	Quota  *int     `yaml:"quota,omitempty"`
	Values []string `yaml:"values,omitempty"`
}

// Bootstrap performs the initial clone.
func (r *Repository) Bootstrap() error {
	if r.Path == "" || r.URL == "" {
		r.l.Warn("Error in config repository, path and url must both be set to bootstrap")
		return fmt.Errorf("configrepo: path and url are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.l.Debug("Cloning config repository", "path", r.Path, "url", r.URL)
	var err error
	r.repo, err = git.PlainClone(r.Path, false, &git.CloneOptions{URL: r.URL})
	if err != nil {
		r.l.Error("Error cloning config repository", "error", err)
		return err
	}
	return nil
}

// Refresh fetches and fast-forwards to origin's default branch,
// returning the project ids whose resource-definition file changed
// (spec SPEC_FULL §4.9), so the registry can invalidate selectively
// instead of dropping its whole cache.
func (r *Repository) Refresh() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.repo == nil {
		return nil, fmt.Errorf("configrepo: not bootstrapped")
	}

	oldHead, err := r.repo.Head()
	if err != nil {
		return nil, err
	}

	if err := r.repo.Fetch(&git.FetchOptions{RemoteName: "origin"}); err != nil && err != git.NoErrAlreadyUpToDate {
		r.l.Warn("Error fetching config repository", "error", err)
		return nil, err
	}

	remoteRef, err := r.repo.Reference(gitPlumbing.NewRemoteHEADReferenceName("origin"), true)
	if err != nil {
		// Some servers don't expose a symbolic remote HEAD; fall back
		// to the local HEAD, which equals oldHead, so the checkout is
		// left as it is and no change is reported.
		remoteRef, err = r.repo.Head()
		if err != nil {
			return nil, err
		}
	}

	if oldHead.Hash() == remoteRef.Hash() {
		return nil, nil
	}

	worktree, err := r.repo.Worktree()
	if err != nil {
		return nil, err
	}
	if err := worktree.Checkout(&git.CheckoutOptions{Hash: remoteRef.Hash(), Force: true}); err != nil {
		return nil, err
	}

	oldCommit, err := r.repo.CommitObject(oldHead.Hash())
	if err != nil {
		return nil, err
	}
	newCommit, err := r.repo.CommitObject(remoteRef.Hash())
	if err != nil {
		return nil, err
	}
	patch, err := newCommit.Patch(oldCommit)
	if err != nil {
		return nil, err
	}

	changed := make(map[string]struct{})
	for _, stat := range patch.Stats() {
		base := filepath.Base(stat.Name)
		if filepath.Dir(stat.Name) != r.Dir {
			continue
		}
		if projectID, ok := strings.CutSuffix(base, ".yaml"); ok {
			changed[projectID] = struct{}{}
		}
	}

	r.cacheMu.Lock()
	for id := range changed {
		delete(r.cache, id)
	}
	r.cacheMu.Unlock()

	out := make([]string, 0, len(changed))
	for id := range changed {
		out = append(out, id)
	}
	return out, nil
}

// Load parses one project's own resource-definition file. A missing
// file means the project defines no resources of its own - not an
// error, since most projects in a hierarchy inherit everything.
func (r *Repository) Load(projectID string) ([]domain.Resource, error) {
	r.cacheMu.RLock()
	if cached, ok := r.cache[projectID]; ok {
		r.cacheMu.RUnlock()
		return cached, nil
	}
	r.cacheMu.RUnlock()

	path := filepath.Join(r.Path, r.Dir, projectID+".yaml")
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		r.cacheMu.Lock()
		r.cache[projectID] = nil
		r.cacheMu.Unlock()
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var file resourceFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		r.l.Warn("Error parsing resource definitions, treating project as having none", "project", projectID, "error", err)
		return nil, err
	}

	resources := make([]domain.Resource, 0, len(file.Resources))
	for _, rec := range file.Resources {
		res, err := recordToResource(rec, projectID)
		if err != nil {
			r.l.Warn("Skipping malformed resource record", "project", projectID, "name", rec.Name, "error", err)
			continue
		}
		resources = append(resources, res)
	}

	r.cacheMu.Lock()
	r.cache[projectID] = resources
	r.cacheMu.Unlock()
	return resources, nil
}

func recordToResource(rec resourceRecord, projectID string) (domain.Resource, error) {
	switch rec.Kind {
	case "quoted":
		quota := domain.InfiniteQuota
		if rec.Quota != nil {
			quota = *rec.Quota
		}
		return domain.NewQuotedResource(rec.ID, rec.Name, projectID, quota)
	case "custom":
		return domain.NewCustomResource(rec.ID, rec.Name, projectID, rec.Values)
	default:
		return domain.Resource{}, fmt.Errorf("configrepo: unknown resource kind %q", rec.Kind)
	}
}
