package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/japi/pkg/japi"
)

// NewDeleteCommand creates the delete command.
func NewDeleteCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete TYPE ID",
		Short: "Delete a resource",
		Long:  "Delete a resource by type and id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeleteCommand(args[0], args[1], force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "force deletion without confirmation")

	return cmd
}

func runDeleteCommand(typeName, resourceID string, force bool) error {
	if !force {
		_, _ = fmt.Fprintf(os.Stdout, "Really delete %s '%s'? (y/N): ", typeName, resourceID)

		var response string

		_, _ = fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			_, _ = os.Stdout.WriteString("Cancelled\n")

			return nil
		}
	}

	client, err := CreateClient()
	if err != nil {
		return err
	}

	ctx := context.Background()

	res, err := client.FindOne(ctx, japi.NewQuery(typeName).WithIDs(resourceID))
	if err != nil {
		return fmt.Errorf("failed to find %s '%s': %w", typeName, resourceID, err)
	}

	if err := client.Delete(ctx, res); err != nil {
		return fmt.Errorf("failed to delete %s '%s': %w", typeName, resourceID, err)
	}

	_, _ = fmt.Fprintf(os.Stdout, "Successfully deleted %s '%s'\n", typeName, resourceID)

	return nil
}
