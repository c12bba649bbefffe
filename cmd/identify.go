package cmd

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/facegate/internal/facematch"
)

var identifyCmd = &cobra.Command{
	Use:   "identify",
	Short: "Find the enrolled identity matching a descriptor",
	Long: `Match a probe descriptor against the registry.

By default the match threshold comes from MATCH_THRESHOLD. With --auth the
probe goes through the authentication gate instead: detections below the
minimum confidence are rejected and AUTH_MATCH_THRESHOLD applies.

Examples:
  facegate identify --descriptor probe.json
  facegate identify --descriptor probe.json --threshold 0.7 --json
  facegate identify --descriptor probe.json --auth --confidence 0.92`,
	RunE: runIdentify,
}

func init() {
	rootCmd.AddCommand(identifyCmd)

	identifyCmd.Flags().String("descriptor", "", "Path to descriptor JSON file, - for stdin")
	identifyCmd.Flags().Float64("threshold", -1, "Similarity threshold (default from config)")
	identifyCmd.Flags().Bool("auth", false, "Run the authentication flow instead of a plain match")
	identifyCmd.Flags().Float64("confidence", 1, "Detection confidence reported by the detector (with --auth)")
	identifyCmd.Flags().Bool("json", false, "Output as JSON")
}

func runIdentify(cmd *cobra.Command, args []string) error {
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

	jsonOutput := mustGetBool(cmd, "json")
	confidence := mustGetFloat64(cmd, "confidence")
	threshold := mustGetFloat64(cmd, "threshold")
	if math.IsNaN(confidence) || math.IsNaN(threshold) {
		return errors.New("--threshold and --confidence must be numbers")
	}

	if mustGetBool(cmd, "auth") {
		outcome := facematch.NewDetectionOutcome(true, descriptor, confidence)
		result, err := e.authenticator.Authenticate(ctx, outcome)
		if err != nil {
			return fmt.Errorf("authenticating: %w", err)
		}
		if jsonOutput {
			return outputJSON(result)
		}
		fmt.Println(result.Message)
		if result.Success {
			fmt.Printf("  ID:    %s\n", result.Identity.ID)
			fmt.Printf("  Score: %.4f\n", result.Score)
		}
		return nil
	}

	if threshold < 0 {
		threshold = e.cfg.Matching.Threshold
	}

	result, err := e.matcher.FindBestMatch(ctx, descriptor, threshold)
	if err != nil {
		return fmt.Errorf("matching descriptor: %w", err)
	}

	if jsonOutput {
		return outputJSON(result)
	}
	if !result.Matched {
		fmt.Printf("No match: %s (threshold %.2f, policy %s)\n", result.Reason, threshold, e.matcher.Policy())
		return nil
	}
	fmt.Printf("Matched %s\n", result.Identity.DisplayName)
	fmt.Printf("  ID:    %s\n", result.Identity.ID)
	fmt.Printf("  Score: %.4f\n", result.Score)
	return nil
}
