// Package daemon wires together every component into the running
// lock arbiter service: storage, the config repository, the arbiter
// core, the HTTP build-event receiver, and the decision event
// publisher. Both cmd/lockarbiterd and lockctl's serve subcommand
// build on this package so the two entrypoints can never drift.
package daemon

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/marrowvale/lockarbiter/pkg/affinity"
	"github.com/marrowvale/lockarbiter/pkg/arbiter"
	"github.com/marrowvale/lockarbiter/pkg/config"
	"github.com/marrowvale/lockarbiter/pkg/configrepo"
	"github.com/marrowvale/lockarbiter/pkg/events"
	"github.com/marrowvale/lockarbiter/pkg/hostsim"
	lahttp "github.com/marrowvale/lockarbiter/pkg/http"
	"github.com/marrowvale/lockarbiter/pkg/inspector"
	"github.com/marrowvale/lockarbiter/pkg/locks"
	"github.com/marrowvale/lockarbiter/pkg/lockstore"
	"github.com/marrowvale/lockarbiter/pkg/notify"
	"github.com/marrowvale/lockarbiter/pkg/registry"
	"github.com/marrowvale/lockarbiter/pkg/takenlocks"
)

// Service holds every wired component, exposed to the callers of
// Build (cmd/lockarbiterd and lockctl's serve subcommand). lockctl's
// offline inspect/decide commands construct their own components.
type Service struct {
	Logger   hclog.Logger
	Config   config.Config
	Arbiter  *arbiter.Arbiter
	Registry *registry.Registry
	Storage  lockstore.Backend

	httpServer *lahttp.Server
	repo       *configrepo.Repository
	stopRepo   chan struct{}
}

// buildPublisher constructs the event publisher a configuration calls
// for, used both at startup and from the hot-reload callback so the
// two construction paths can never drift.
func buildPublisher(l hclog.Logger, cfg config.Config) events.Publisher {
	if !cfg.EventBusEnabled {
		return events.Noop{}
	}
	return events.NewKafkaPublisher(l, cfg.EventBusBrokers, cfg.EventBusTopic)
}

// Build constructs a Service from a config file path without starting
// the HTTP listener.
func Build(l hclog.Logger, cfgPath string) (*Service, error) {
	loader, err := config.New(l, cfgPath)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	cfg, err := loader.Current()
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}

	lockstore.SetLogger(l)
	lockstore.InitBackends()
	backing, err := lockstore.InitializeBackend(cfg.StorageBackend)
	if err != nil {
		return nil, fmt.Errorf("initializing lock store backend %q: %w", cfg.StorageBackend, err)
	}

	store, err := lockstore.New(l, backing)
	if err != nil {
		return nil, fmt.Errorf("initializing lock store: %w", err)
	}

	repo := configrepo.New(l, cfg.ConfigRepoURL, cfg.ConfigRepoPath, cfg.ConfigRepoDir)
	if cfg.ConfigRepoURL != "" {
		if err := repo.Bootstrap(); err != nil {
			return nil, fmt.Errorf("bootstrapping config repository: %w", err)
		}
	}

	reg := registry.New(l, repo, repo)
	extractor := locks.New(l)
	collector := takenlocks.New(l, extractor, store)
	aff := affinity.New(l)
	insp := inspector.New(l, reg, extractor)

	publisher := buildPublisher(l, cfg)

	ab := arbiter.New(l, reg, extractor, collector, aff, insp,
		arbiter.WithResourcesInChains(cfg.ResourcesInChains),
		arbiter.WithPublisher(publisher))

	currentPublisher := publisher
	loader.OnChange(func(c config.Config) {
		l.Info("Applying reloaded configuration", "resourcesInChains", c.ResourcesInChains, "eventBusEnabled", c.EventBusEnabled)
		ab.SetResourcesInChains(c.ResourcesInChains)

		next := buildPublisher(l, c)
		ab.SetPublisher(next)
		if closer, ok := currentPublisher.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				l.Warn("Error closing previous event publisher", "error", err)
			}
		}
		currentPublisher = next
	})
	loader.WatchForChanges()

	srv, err := lahttp.New(l, lahttp.WithReadyCheck(func() error {
		_, err := backing.Get([]byte("readiness-probe"))
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("initializing HTTP server: %w", err)
	}
	nr := notify.NewReceiver(l, store)
	srv.Mount("/events", nr.HTTPEntry())

	if cfg.DemoMode {
		hostsim.SetLogger(l)
		hostsim.DoCallbacks()
		provider, err := hostsim.Initialize(cfg.HostProvider)
		if err != nil {
			return nil, fmt.Errorf("initializing demo host provider %q: %w", cfg.HostProvider, err)
		}
		demo, err := hostsim.NewDemo(l, ab, provider)
		if err != nil {
			return nil, fmt.Errorf("starting demo mode: %w", err)
		}
		srv.Mount("/demo", demo.HTTPEntry())
		l.Info("Demo mode enabled", "provider", cfg.HostProvider)
	}

	return &Service{
		Logger:     l,
		Config:     cfg,
		Arbiter:    ab,
		Registry:   reg,
		Storage:    backing,
		httpServer: srv,
		repo:       repo,
		stopRepo:   make(chan struct{}),
	}, nil
}

// watchConfigRepo ticks at Config.ConfigRepoRefreshInterval, fetching
// the config repository and invalidating the registry's cache for
// whatever project ids changed. Only runs when a repository URL was
// configured; otherwise Refresh has nothing to fetch.
func (s *Service) watchConfigRepo() {
	interval := s.Config.ConfigRepoRefreshInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			ids, err := s.repo.Refresh()
			if err != nil {
				s.Logger.Warn("Error refreshing config repository", "error", err)
				continue
			}
			if len(ids) > 0 {
				s.Logger.Info("Config repository changed, invalidating registry cache", "projects", ids)
				s.Registry.Invalidate(ids)
			}
		case <-s.stopRepo:
			return
		}
	}
}

// Run starts the HTTP listener and blocks until SIGINT/SIGTERM.
func (s *Service) Run() error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(s.Config.Bind)
	}()

	if s.Config.ConfigRepoURL != "" {
		go s.watchConfigRepo()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		close(s.stopRepo)
		return err
	case sigval := <-sig:
		s.Logger.Info("Shutting down", "signal", fmt.Sprint(sigval))
		close(s.stopRepo)
		return s.Storage.Close()
	}
}
