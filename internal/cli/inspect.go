package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/sheetplan/internal/workbook"
)

func (a *app) newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>...",
		Short: "List the tables, columns, and inferred column types of files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := workbook.NewLoader(a.logger).LoadFiles(args)
			if err != nil {
				return classify(err)
			}
			infos := make([]workbook.TableInfo, 0, len(tables))
			for _, name := range workbook.SortedNames(tables) {
				infos = append(infos, workbook.Describe(tables[name]))
			}
			out := cmd.OutOrStdout()
			if a.flags.jsonMode {
				return writeJSON(out, infos)
			}
			for i, info := range infos {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintf(out, "%s (%d rows)\n", info.Name, info.Rows)
				tw := newTabWriter(out)
				fmt.Fprintln(tw, "  COL\tNAME\tTYPE\tNON-EMPTY\tSAMPLE")
				for _, c := range info.Columns {
					fmt.Fprintf(tw, "  %s\t%s\t%s\t%d\t%s\n", c.Letter, c.Name, c.Type, c.NonEmpty, c.Sample)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
