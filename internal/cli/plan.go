package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/sheetplan/internal/sqlite"
	"github.com/mesh-intelligence/sheetplan/pkg/types"
)

func (a *app) newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Create, list, and manage plans",
	}
	cmd.AddCommand(a.newPlanCreateCmd())
	cmd.AddCommand(a.newPlanListCmd())
	cmd.AddCommand(a.newPlanShowCmd())
	cmd.AddCommand(a.newPlanRenameCmd())
	cmd.AddCommand(a.newPlanDeleteCmd())
	cmd.AddCommand(a.newPlanExportCmd())
	cmd.AddCommand(a.newPlanImportCmd())
	return cmd
}

func (a *app) newPlanCreateCmd() *cobra.Command {
	var (
		description string
		tags        []string
	)
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := types.NewPlan(args[0], description)
			if err != nil {
				return userErr(err)
			}
			p.Tags = tags
			return a.withStore(func(store *sqlite.Backend, _ types.Config) error {
				if _, err := store.Save(cmd.Context(), p); err != nil {
					return err
				}
				if a.flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), p)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created plan %d %q\n", p.ID, p.Name)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "plan description")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag to attach (repeatable)")
	return cmd
}

func (a *app) newPlanListCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List plans, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store *sqlite.Backend, _ types.Config) error {
				plans, err := store.List(cmd.Context(), all)
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					if plans == nil {
						plans = []*types.FilterPlan{}
					}
					return writeJSON(cmd.OutOrStdout(), plans)
				}
				tw := newTabWriter(cmd.OutOrStdout())
				fmt.Fprintln(tw, "ID\tNAME\tRULES\tMAPPINGS\tACTIVE\tUPDATED\tTAGS")
				for _, p := range plans {
					fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%t\t%s\t%s\n", p.ID, p.Name, len(p.Rules), len(p.Mappings),
						p.IsActive, p.UpdatedAt.Local().Format("2006-01-02 15:04"), strings.Join(p.Tags, ","))
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include deleted (inactive) plans")
	return cmd
}

func (a *app) newPlanShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <plan-id>",
		Short: "Show a plan with its rules and mappings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withStore(func(store *sqlite.Backend, _ types.Config) error {
				p, err := store.Load(cmd.Context(), id)
				if err != nil {
					return err
				}
				return a.printPlan(cmd.OutOrStdout(), p)
			})
		},
	}
}

func (a *app) newPlanRenameCmd() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "rename <plan-id> <new-name>",
		Short: "Rename a plan and optionally change its description",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[1])
			if name == "" {
				return userErr(fmt.Errorf("%w: plan name must not be empty", types.ErrInvalidName))
			}
			return a.editPlan(cmd, args[0], func(p *types.FilterPlan) error {
				p.Name = name
				if cmd.Flags().Changed("description") {
					p.Description = description
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	return cmd
}

func (a *app) newPlanDeleteCmd() *cobra.Command {
	var hard bool
	cmd := &cobra.Command{
		Use:   "delete <plan-id>",
		Short: "Deactivate a plan, or remove it with --hard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withStore(func(store *sqlite.Backend, _ types.Config) error {
				verb := "deactivated"
				if hard {
					verb = "deleted"
					err = store.Delete(cmd.Context(), id)
				} else {
					err = store.SoftDelete(cmd.Context(), id)
				}
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), map[string]any{"id": id, "status": verb})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s plan %d\n", verb, id)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&hard, "hard", false, "remove the plan with its rules and mappings")
	return cmd
}

func (a *app) newPlanExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file> [plan-id...]",
		Short: "Export plans to a JSONL file (all active plans by default)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args)-1)
			for _, arg := range args[1:] {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			return a.withStore(func(store *sqlite.Backend, _ types.Config) error {
				n, err := store.Export(cmd.Context(), args[0], ids...)
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), map[string]any{"file": args[0], "exported": n})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported %d plan(s) to %s\n", n, args[0])
				return nil
			})
		},
	}
}

func (a *app) newPlanImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import plans from a file written by export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store *sqlite.Backend, _ types.Config) error {
				ids, err := store.Import(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					if ids == nil {
						ids = []int64{}
					}
					return writeJSON(cmd.OutOrStdout(), map[string]any{"file": args[0], "ids": ids})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d plan(s):", len(ids))
				for _, id := range ids {
					fmt.Fprintf(cmd.OutOrStdout(), " %d", id)
				}
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			})
		},
	}
}
