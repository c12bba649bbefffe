package cmd

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Enroll demo identities with random descriptors",
	Long: `Enroll John Doe, Jane Smith and Test User with random descriptors.
Does nothing when the registry already holds identities.

Use --rand-seed for reproducible descriptors.`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().Int("rand-seed", 0, "Seed for the descriptor generator (0 = random)")
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	e, err := openEngine(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer e.Close()

	var rng *rand.Rand
	if s := mustGetInt(cmd, "rand-seed"); s != 0 {
		rng = rand.New(rand.NewPCG(uint64(s), uint64(s))) //nolint:gosec // demo data only
	} else {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // demo data only
	}

	seeded, err := e.registry.Seed(ctx, rng)
	if err != nil {
		return err
	}
	if len(seeded) == 0 {
		fmt.Println("Registry already has identities, nothing seeded.")
		return nil
	}
	e.saveIndex()

	for i := range seeded {
		fmt.Printf("Enrolled %s (%s)\n", seeded[i].DisplayName, seeded[i].ID)
	}
	return nil
}
