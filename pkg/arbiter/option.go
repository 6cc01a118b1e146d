package arbiter

import (
	"github.com/hashicorp/go-hclog"

	"github.com/marrowvale/lockarbiter/pkg/events"
)

// Option configures an Arbiter at construction time, mirroring the
// functional-options shape used elsewhere in this codebase (e.g.
// pkg/http).
type Option func(*Arbiter)

// WithLogger overrides the parent logger.
func WithLogger(l hclog.Logger) Option {
	return func(a *Arbiter) {
		a.l = l.Named("arbiter")
	}
}

// WithPublisher attaches a decision-event publisher. The default is
// events.Noop.
func WithPublisher(p events.Publisher) Option {
	return func(a *Arbiter) {
		a.publisher = p
	}
}

// WithResourcesInChains sets the resources-in-chains feature flag
// (spec §4.6, §6). Default is true.
func WithResourcesInChains(enabled bool) Option {
	return func(a *Arbiter) {
		a.resourcesInChains = enabled
	}
}
