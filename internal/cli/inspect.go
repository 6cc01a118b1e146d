package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marrowvale/lockarbiter/pkg/inspector"
	"github.com/marrowvale/lockarbiter/pkg/locks"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <buildconfig.yaml>",
	Short: "Run the configuration inspector against a fixture build configuration",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	l := cliLogger(cmd)

	var fixture buildConfigFixture
	if err := loadYAML(args[0], &fixture); err != nil {
		return err
	}

	resources, err := toResources(fixture.Resources)
	if err != nil {
		return err
	}

	promotion := toPromotion(promotionFixture{
		ProjectID:   fixture.ProjectID,
		BuildTypeID: fixture.BuildTypeID,
		Locks:       fixture.Locks,
	}, nil)

	extractor := locks.New(l)
	insp := inspector.New(l, fixtureResolver{resources: resources}, extractor)

	errs, err := insp.Inspect(promotion)
	if err != nil {
		return fmt.Errorf("inspection failed: %w", err)
	}
	if len(errs) == 0 {
		fmt.Println("ok: no configuration errors")
		return nil
	}

	for _, name := range inspector.SortedLockNames(errs) {
		for lock, msg := range errs {
			if lock.Name == name {
				fmt.Printf("error: %s\n", msg)
			}
		}
	}
	return nil
}
