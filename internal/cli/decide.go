package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marrowvale/lockarbiter/pkg/affinity"
	"github.com/marrowvale/lockarbiter/pkg/arbiter"
	"github.com/marrowvale/lockarbiter/pkg/domain"
	"github.com/marrowvale/lockarbiter/pkg/inspector"
	"github.com/marrowvale/lockarbiter/pkg/locks"
	"github.com/marrowvale/lockarbiter/pkg/takenlocks"
)

var decideCmd = &cobra.Command{
	Use:   "decide <scenario.yaml>",
	Short: "Simulate one arbitration call against a fixture scenario",
	Args:  cobra.ExactArgs(1),
	RunE:  runDecide,
}

func init() {
	rootCmd.AddCommand(decideCmd)
}

func runDecide(cmd *cobra.Command, args []string) error {
	l := cliLogger(cmd)

	var scenario scenarioFixture
	if err := loadYAML(args[0], &scenario); err != nil {
		return err
	}

	resources, err := toResources(scenario.Resources)
	if err != nil {
		return err
	}

	byID := make(map[string]*domain.BuildPromotion)
	running := make([]*domain.BuildPromotion, 0, len(scenario.Running))
	for _, f := range scenario.Running {
		p := toPromotion(f, byID)
		byID[p.ID] = p
		running = append(running, p)
	}
	peerQueued := make([]*domain.BuildPromotion, 0, len(scenario.PeerQueued))
	for _, f := range scenario.PeerQueued {
		p := toPromotion(f, byID)
		byID[p.ID] = p
		peerQueued = append(peerQueued, p)
	}
	queued := toPromotion(scenario.Queued, byID)

	resolver := fixtureResolver{resources: resources}
	extractor := locks.New(l)
	collector := takenlocks.New(l, extractor, nil)
	aff := affinity.New(l)
	insp := inspector.New(l, resolver, extractor)

	resourcesInChains := true
	if scenario.ResourcesInChains != nil {
		resourcesInChains = *scenario.ResourcesInChains
	}

	ab := arbiter.New(l, resolver, extractor, collector, aff, insp,
		arbiter.WithResourcesInChains(resourcesInChains))

	wr := ab.CanStart(queued, running, peerQueued, scenario.EmulationOnly)
	if wr == nil {
		fmt.Println("granted")
		return nil
	}
	fmt.Printf("wait: %s\n", wr.Error())
	return nil
}
