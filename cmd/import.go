package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/facegate/internal/constants"
	"github.com/kozaktomas/facegate/internal/registry"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Bulk enroll identities from a YAML or JSON file",
	Long: `Enroll every identity listed in an import file.

File format:
  identities:
    - name: Jane Smith
      email: jane@example.com
      descriptor: [0.012, -0.094, ...]

Invalid entries are reported and skipped unless --strict is set, in which
case the import stops at the first failure.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().Bool("strict", false, "Stop at the first entry that fails to enroll")
	importCmd.Flags().Bool("json", false, "Output summary as JSON")
}

type importSummary struct {
	Total    int      `json:"total"`
	Enrolled int      `json:"enrolled"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	file, err := readImportFile(args[0])
	if err != nil {
		return err
	}

	e, err := openEngine(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer e.Close()

	strict := mustGetBool(cmd, "strict")
	jsonOutput := mustGetBool(cmd, "json")

	var bar *progressbar.ProgressBar
	if !jsonOutput {
		bar = progressbar.NewOptions(len(file.Identities),
			progressbar.OptionSetDescription("Importing identities"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("identities"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
		)
	}

	summary := importSummary{Total: len(file.Identities)}
	for i, entry := range file.Identities {
		_, err := e.registry.Enroll(ctx, entry.Name, entry.Email, entry.Descriptor)
		if bar != nil {
			bar.Add(1)
		}
		if err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("entry %d (%s): %v", i+1, entry.Name, err))
			if strict {
				break
			}
			continue
		}
		summary.Enrolled++
	}
	if summary.Enrolled > 0 {
		e.saveIndex()
	}

	if jsonOutput {
		if err := outputJSON(summary); err != nil {
			return err
		}
	} else {
		fmt.Printf("\nEnrolled %d of %d identities\n", summary.Enrolled, summary.Total)
		for _, msg := range summary.Errors {
			fmt.Printf("  Failed: %s\n", msg)
		}
	}

	if strict && summary.Failed > 0 {
		return fmt.Errorf("import stopped after %d failure(s)", summary.Failed)
	}
	return nil
}

func readImportFile(path string) (*registry.ImportFile, error) {
	f, err := os.Open(path) //nolint:gosec // path is supplied by the operator
	if err != nil {
		return nil, fmt.Errorf("opening import file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, constants.MaxImportFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading import file: %w", err)
	}
	if len(data) > constants.MaxImportFileSize {
		return nil, fmt.Errorf("import file exceeds %d bytes", constants.MaxImportFileSize)
	}
	return registry.ParseImportFile(data)
}
