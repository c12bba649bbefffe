package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/facegate/internal/facematch"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrolled identities",
	Long: `List all enrolled identities in enrollment order.

With --name only identities whose name matches ignoring case and
diacritics are shown, so "jan novak" finds "Jan Novák".`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().String("name", "", "Only show identities with this name")
	listCmd.Flags().Bool("json", false, "Output as JSON")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	e, err := openEngine(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer e.Close()

	var identities []facematch.Identity
	if name := mustGetString(cmd, "name"); name != "" {
		identities, err = e.registry.FindByName(ctx, name)
	} else {
		identities, err = e.registry.ListAll(ctx)
	}
	if err != nil {
		return fmt.Errorf("listing identities: %w", err)
	}

	if mustGetBool(cmd, "json") {
		if identities == nil {
			identities = []facematch.Identity{}
		}
		return outputJSON(identities)
	}

	if len(identities) == 0 {
		fmt.Println("No identities found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tENROLLED")
	fmt.Fprintln(w, "--\t----\t-----\t--------")
	for i := range identities {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", identities[i].ID, identities[i].DisplayName,
			identities[i].Email, identities[i].EnrolledAt.Format(time.RFC3339))
	}
	w.Flush()

	fmt.Printf("\nTotal: %d identities\n", len(identities))
	return nil
}
