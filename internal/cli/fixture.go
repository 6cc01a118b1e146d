package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/marrowvale/lockarbiter/pkg/domain"
)

// resourceFixture is the YAML shape for one resource in a fixture file.
type resourceFixture struct {
	ID     string   `yaml:"id"`
	Name   string   `yaml:"name"`
	Kind   string   `yaml:"kind"`
	Quota  *int     `yaml:"quota,omitempty"`
	Values []string `yaml:"values,omitempty"`
}

// promotionFixture is the YAML shape for one build promotion.
type promotionFixture struct {
	ID          string            `yaml:"id"`
	ProjectID   string            `yaml:"projectId"`
	BuildTypeID string            `yaml:"buildTypeId"`
	Locks       string            `yaml:"locks"`
	Running     bool              `yaml:"running"`
	Chain       []string          `yaml:"chainParents"`
	Attrs       map[string]string `yaml:"attrs"`
}

// buildConfigFixture is the input to `lockctl inspect`.
type buildConfigFixture struct {
	ProjectID   string            `yaml:"projectId"`
	BuildTypeID string            `yaml:"buildTypeId"`
	Locks       string            `yaml:"locks"`
	Resources   []resourceFixture `yaml:"resources"`
}

// scenarioFixture is the input to `lockctl decide`.
type scenarioFixture struct {
	Resources          []resourceFixture  `yaml:"resources"`
	Running            []promotionFixture `yaml:"running"`
	PeerQueued         []promotionFixture `yaml:"peerQueued"`
	Queued             promotionFixture   `yaml:"queued"`
	ResourcesInChains  *bool              `yaml:"resourcesInChains"`
	EmulationOnly      bool               `yaml:"emulationOnly"`
}

func loadYAML(path string, out interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading fixture %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parsing fixture %s: %w", path, err)
	}
	return nil
}

func toResources(fixtures []resourceFixture) (map[string]domain.Resource, error) {
	out := make(map[string]domain.Resource, len(fixtures))
	for _, f := range fixtures {
		var res domain.Resource
		var err error
		switch f.Kind {
		case "quoted":
			quota := domain.InfiniteQuota
			if f.Quota != nil {
				quota = *f.Quota
			}
			res, err = domain.NewQuotedResource(f.ID, f.Name, "", quota)
		case "custom":
			res, err = domain.NewCustomResource(f.ID, f.Name, "", f.Values)
		default:
			err = fmt.Errorf("unknown resource kind %q for %q", f.Kind, f.Name)
		}
		if err != nil {
			return nil, err
		}
		out[res.Name] = res
	}
	return out, nil
}

func toPromotion(f promotionFixture, byID map[string]*domain.BuildPromotion) *domain.BuildPromotion {
	p := &domain.BuildPromotion{
		ID:          f.ID,
		ProjectID:   f.ProjectID,
		BuildTypeID: f.BuildTypeID,
		Running:     f.Running,
		Attrs:       f.Attrs,
	}
	if f.Locks != "" {
		p.FeatureParams = map[string]string{"locks-param": f.Locks}
	}
	for _, parentID := range f.Chain {
		if parent, ok := byID[parentID]; ok {
			p.ChainParents = append(p.ChainParents, parent)
		}
	}
	return p
}

// fixtureResolver is an in-memory ResourceResolver/inspector.Resolver
// backed by one flat resource set, used when simulating a single
// project with no inheritance (lockctl has no project hierarchy of
// its own to walk).
type fixtureResolver struct {
	resources map[string]domain.Resource
}

func (f fixtureResolver) AsMap(string) (map[string]domain.Resource, error) {
	return f.resources, nil
}

func (f fixtureResolver) OwnResources(string) ([]domain.Resource, error) {
	out := make([]domain.Resource, 0, len(f.resources))
	for _, r := range f.resources {
		out = append(out, r)
	}
	return out, nil
}
