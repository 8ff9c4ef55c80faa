package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/hook/pkg/hook"
)

const modulePath = "github.com/mesh-intelligence/hook"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the hook version",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "hook v%s\nmodule: %s\n", hook.Version, modulePath)
			return nil
		},
	}
}
