package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/facegate/internal/facematch"
)

var compareCmd = &cobra.Command{
	Use:   "compare <descriptor-a> <descriptor-b>",
	Short: "Compute the similarity of two descriptors",
	Long: `Compare two descriptor files without touching the registry.

Prints the Euclidean distance and the similarity score used for matching
together with the match decision at the configured threshold.`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().Bool("json", false, "Output as JSON")
}

type compareOutput struct {
	Distance   float64 `json:"distance"`
	Similarity float64 `json:"similarity"`
	Threshold  float64 `json:"threshold"`
	Match      bool    `json:"match"`
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	a, err := readDescriptor(args[0])
	if err != nil {
		return err
	}
	b, err := readDescriptor(args[1])
	if err != nil {
		return err
	}

	distance, err := facematch.EuclideanDistance(a, b)
	if err != nil {
		return err
	}
	metric := facematch.Metric{Normalization: cfg.Matching.Normalization}
	similarity, err := metric.Similarity(a, b)
	if err != nil {
		return err
	}

	out := compareOutput{
		Distance:   distance,
		Similarity: similarity,
		Threshold:  cfg.Matching.Threshold,
		Match:      similarity > cfg.Matching.Threshold,
	}
	if mustGetBool(cmd, "json") {
		return outputJSON(out)
	}
	fmt.Printf("Distance:   %.4f\n", out.Distance)
	fmt.Printf("Similarity: %.4f\n", out.Similarity)
	fmt.Printf("Match:      %t (threshold %.2f)\n", out.Match, out.Threshold)
	return nil
}
