package configrepo

import (
	"sync"

	git "github.com/go-git/go-git/v5"
	"github.com/hashicorp/go-hclog"

	"github.com/marrowvale/lockarbiter/pkg/domain"
)

// Repository is a git checkout of per-project resource-definition
// files (spec SPEC_FULL §4.9). One YAML file per project id, named
// "<projectId>.yaml", lives under Dir inside the checkout.
type Repository struct {
	l hclog.Logger

	URL  string
	Path string
	Dir  string

	mu   *sync.Mutex
	repo *git.Repository

	// cache holds the last-parsed resource list per project id so a
	// Load call between Refreshes doesn't re-read the filesystem.
	cacheMu sync.RWMutex
	cache   map[string][]domain.Resource
}

// New returns a checkout manager rooted at path, cloning from url.
// dir is the subdirectory inside the checkout holding the per-project
// YAML files (e.g. "resources").
func New(l hclog.Logger, url, path, dir string) *Repository {
	return &Repository{
		l:     l.Named("configrepo"),
		URL:   url,
		Path:  path,
		Dir:   dir,
		mu:    new(sync.Mutex),
		cache: make(map[string][]domain.Resource),
	}
}
