// Package nomad adapts this codebase's Nomad capacity provider into a
// hostsim.Provider: instead of dispatching builds, it reads back the
// running/pending dispatch jobs Nomad already knows about and turns
// their job metadata into build promotions the arbiter can reason
// about.
package nomad

import (
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/nomad/api"

	"github.com/marrowvale/lockarbiter/pkg/domain"
	"github.com/marrowvale/lockarbiter/pkg/hostsim"
)

const dispatchPrefix = "lockarbiter/dispatch-"

type provider struct {
	l hclog.Logger
	c *api.Client
}

func init() {
	hostsim.RegisterCallback(cb)
}

func cb() {
	hostsim.RegisterFactory("nomad", New)
}

// New returns a provider wrapping a Nomad client using the default
// environment-derived configuration (NOMAD_ADDR, NOMAD_TOKEN, etc).
func New(l hclog.Logger) (hostsim.Provider, error) {
	c, err := api.NewClient(api.DefaultConfig())
	if err != nil {
		return nil, err
	}
	return &provider{l: l.Named("hostsim-nomad"), c: c}, nil
}

// Running implements hostsim.Provider, reporting dispatch jobs Nomad
// already marked as running.
func (p *provider) Running() ([]*domain.BuildPromotion, error) {
	return p.jobsByStatus("running")
}

// PeerQueued implements hostsim.Provider, reporting dispatch jobs
// Nomad has accepted but not yet started.
func (p *provider) PeerQueued() ([]*domain.BuildPromotion, error) {
	return p.jobsByStatus("pending")
}

func (p *provider) jobsByStatus(status string) ([]*domain.BuildPromotion, error) {
	qopts := &api.QueryOptions{Prefix: dispatchPrefix}
	jobs, _, err := p.c.Jobs().List(qopts)
	if err != nil {
		return nil, err
	}

	promotions := make([]*domain.BuildPromotion, 0, len(jobs))
	for _, job := range jobs {
		if job.Type != "batch" || job.Status != status {
			continue
		}
		info, _, err := p.c.Jobs().Info(job.ID, nil)
		if err != nil {
			p.l.Warn("Error fetching job info", "job", job.ID, "err", err)
			continue
		}
		promotions = append(promotions, promotionFromMeta(info.Meta))
		p.l.Trace("Found dispatch job", "job", job.ID, "status", status)
	}
	return promotions, nil
}

func promotionFromMeta(meta map[string]string) *domain.BuildPromotion {
	b := &domain.BuildPromotion{
		ID:            meta["promotion_id"],
		ProjectID:     meta["project_id"],
		BuildTypeID:   meta["build_type_id"],
		FeatureParams: map[string]string{"locks-param": meta["locks_param"]},
		Running:       true,
	}
	return b
}
