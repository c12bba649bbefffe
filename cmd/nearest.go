package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/facegate/internal/constants"
	"github.com/kozaktomas/facegate/internal/facematch"
)

var nearestCmd = &cobra.Command{
	Use:   "nearest",
	Short: "Rank the identities closest to a descriptor",
	Long: `List the k enrolled identities most similar to a probe descriptor,
regardless of any threshold. Useful for calibrating MATCH_THRESHOLD.`,
	RunE: runNearest,
}

func init() {
	rootCmd.AddCommand(nearestCmd)

	nearestCmd.Flags().String("descriptor", "", "Path to descriptor JSON file, - for stdin")
	nearestCmd.Flags().IntP("limit", "k", constants.DefaultNearestK, "Number of candidates to show")
	nearestCmd.Flags().Bool("json", false, "Output as JSON")
}

func runNearest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	descriptor, err := readDescriptor(mustGetString(cmd, "descriptor"))
	if err != nil {
		return err
	}

	e, err := openEngine(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer e.Close()

	candidates, err := e.registry.Nearest(ctx, descriptor, mustGetInt(cmd, "limit"))
	if err != nil {
		return fmt.Errorf("ranking identities: %w", err)
	}

	if mustGetBool(cmd, "json") {
		if candidates == nil {
			candidates = []facematch.Candidate{}
		}
		return outputJSON(candidates)
	}

	if len(candidates) == 0 {
		fmt.Println("Registry is empty.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tSIMILARITY\tID\tNAME")
	fmt.Fprintln(w, "----\t----------\t--\t----")
	for i := range candidates {
		fmt.Fprintf(w, "%d\t%.4f\t%s\t%s\n", i+1, candidates[i].Similarity,
			candidates[i].Identity.ID, candidates[i].Identity.DisplayName)
	}
	w.Flush()
	return nil
}
