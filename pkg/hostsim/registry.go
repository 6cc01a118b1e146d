// Package hostsim is a reference harness showing how a host scheduler
// feeds the arbiter its running/queued build snapshot (SPEC_FULL §4.12).
// It is deliberately outside the arbiter's core: CanStart only ever
// consumes plain []*domain.BuildPromotion slices, so any real scheduler
// integration can supply those however it likes. This package exists so
// the daemon has something runnable out of the box and to demonstrate
// the wiring, not because the arbiter depends on it.
package hostsim

import (
	"errors"

	"github.com/hashicorp/go-hclog"

	"github.com/marrowvale/lockarbiter/pkg/domain"
)

// Provider reports the build-promotion snapshot a host scheduler is
// currently holding: builds actually running, and builds it has
// already queued/admitted but not yet started (the peer-queued set
// the taken-lock collector tallies, spec §4.3).
type Provider interface {
	Running() ([]*domain.BuildPromotion, error)
	PeerQueued() ([]*domain.BuildPromotion, error)
}

// Factory constructs a Provider instance.
type Factory func(hclog.Logger) (Provider, error)

var (
	log hclog.Logger

	initcallbacks []func()
	factories     map[string]Factory
)

func init() {
	factories = make(map[string]Factory)
	log = hclog.L()
}

// SetLogger injects a logger into this package to allow setting up a
// logger tree.
func SetLogger(l hclog.Logger) {
	log = l
}

// RegisterFactory registers a named provider factory.
func RegisterFactory(name string, f Factory) {
	if _, exists := factories[name]; exists {
		log.Warn("Provider name collision", "provider", name)
		return
	}
	factories[name] = f
	log.Info("Registered host scheduler provider", "provider", name)
}

// RegisterCallback defers factory registration until after config
// parsing and logging are set up, matching pkg/lockstore's
// RegisterBackendInit convention.
func RegisterCallback(f func()) {
	initcallbacks = append(initcallbacks, f)
}

// DoCallbacks invokes every deferred registration.
func DoCallbacks() {
	for _, cb := range initcallbacks {
		cb()
	}
}

// Initialize builds the named provider.
func Initialize(name string) (Provider, error) {
	f, ok := factories[name]
	if !ok {
		log.Error("Non-existant host scheduler provider requested", "provider", name)
		return nil, errors.New("no provider exists with that name")
	}
	return f(log)
}
