package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/sheetplan/pkg/sheetplan"
)

const modulePath = "github.com/mesh-intelligence/sheetplan"

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the sheetplan version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"version": sheetplan.Version, "module": modulePath})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sheetplan v%s\nmodule: %s\n", sheetplan.Version, modulePath)
			return nil
		},
	}
}
