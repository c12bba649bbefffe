package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <name>",
	Short: "Enroll a new identity",
	Long: `Enroll a person with a reference face descriptor.

The descriptor is a JSON array of 128 numbers (or an object with a
"descriptor" field) read from --descriptor, use "-" for stdin.

Examples:
  facegate enroll "Jane Smith" --descriptor jane.json --email jane@example.com
  cat probe.json | facegate enroll "John Doe" --descriptor -`,
	Args: cobra.ExactArgs(1),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("descriptor", "", "Path to descriptor JSON file, - for stdin")
	enrollCmd.Flags().String("email", "", "Contact email stored with the identity")
	enrollCmd.Flags().Bool("json", false, "Output as JSON")
}

func runEnroll(cmd *cobra.Command, args []string) error {
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

	identity, err := e.registry.Enroll(ctx, args[0], mustGetString(cmd, "email"), descriptor)
	if err != nil {
		return fmt.Errorf("enrolling identity: %w", err)
	}
	e.saveIndex()

	if mustGetBool(cmd, "json") {
		return outputJSON(identity)
	}
	fmt.Printf("Enrolled %s (%s)\n", identity.DisplayName, identity.ID)
	return nil
}
