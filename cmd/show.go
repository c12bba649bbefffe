package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one enrolled identity",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().Bool("json", false, "Output as JSON (includes the descriptor)")
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	e, err := openEngine(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer e.Close()

	identity, err := e.registry.FindByID(ctx, args[0])
	if err != nil {
		return fmt.Errorf("looking up identity: %w", err)
	}
	if identity == nil {
		return fmt.Errorf("identity %s not found", args[0])
	}

	if mustGetBool(cmd, "json") {
		return outputJSON(identity)
	}
	fmt.Printf("ID:         %s\n", identity.ID)
	fmt.Printf("Name:       %s\n", identity.DisplayName)
	if identity.Email != "" {
		fmt.Printf("Email:      %s\n", identity.Email)
	}
	fmt.Printf("Enrolled:   %s\n", identity.EnrolledAt.Format(time.RFC3339))
	fmt.Printf("Dimensions: %d\n", len(identity.Descriptor))
	return nil
}
