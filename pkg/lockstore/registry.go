package lockstore

import (
	"errors"

	"github.com/hashicorp/go-hclog"
)

var (
	log hclog.Logger

	backendInits []func()

	backends map[string]BackendFactory
)

// BackendFactory constructs a Backend instance for one configured
// storage choice (bitcask, postgres, s3 - see pkg/lockstore/backend/*).
type BackendFactory func(hclog.Logger) (Backend, error)

func init() {
	backends = make(map[string]BackendFactory)
	log = hclog.L()
}

// SetLogger injects a logger into this package's backend registry, so
// factory registration and initialization log under the daemon's
// logger tree instead of the package default.
func SetLogger(l hclog.Logger) {
	log = l
}

// RegisterBackend registers a named backend factory. The first
// registration for a name wins; a later collision is logged and
// dropped rather than overwriting the existing one.
func RegisterBackend(name string, f BackendFactory) {
	if _, exists := backends[name]; exists {
		log.Warn("Backend name collision", "backend", name)
		return
	}
	backends[name] = f
	log.Info("Registered lock store backend", "backend", name)
}

// RegisterBackendInit defers a backend factory's registration until
// after config parsing and logging are set up. Each backend package's
// init() calls this instead of RegisterBackend directly, so the
// daemon controls exactly when registration happens via InitBackends.
func RegisterBackendInit(f func()) {
	backendInits = append(backendInits, f)
}

// InitBackends runs every deferred backend registration, populating
// the factory map that InitializeBackend reads from.
func InitBackends() {
	for _, f := range backendInits {
		f()
	}
}

// InitializeBackend builds the named backend, or fails if no backend
// package registered under that name was ever imported.
func InitializeBackend(name string) (Backend, error) {
	f, ok := backends[name]
	if !ok {
		log.Error("Non-existant lock store backend requested", "backend", name)
		return nil, errors.New("no backend exists with that name")
	}
	return f(log)
}
