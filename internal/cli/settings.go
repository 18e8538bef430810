package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/sheetplan/internal/sqlite"
	"github.com/mesh-intelligence/sheetplan/pkg/types"
)

func (a *app) newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and write stored application settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store *sqlite.Backend, _ types.Config) error {
				settings, err := store.Settings(cmd.Context())
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), settings)
				}
				tw := newTabWriter(cmd.OutOrStdout())
				fmt.Fprintln(tw, "KEY\tVALUE\tDESCRIPTION")
				for _, s := range settings {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Key, s.Value, s.Description)
				}
				return tw.Flush()
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print one setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store *sqlite.Backend, _ types.Config) error {
				v, err := store.GetSetting(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), map[string]string{"key": args[0], "value": v})
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store *sqlite.Backend, _ types.Config) error {
				return store.SetSetting(cmd.Context(), args[0], args[1])
			})
		},
	})
	return cmd
}
