package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/sheetplan/pkg/types"
)

func (a *app) newRuleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rule",
		Short: "Add, remove, and reorder the filter rules of a plan",
	}
	cmd.AddCommand(a.newRuleAddCmd())
	cmd.AddCommand(a.newRuleRemoveCmd())
	cmd.AddCommand(a.newRuleMoveCmd())
	cmd.AddCommand(a.newRuleToggleCmd("enable", "Enable a rule", true))
	cmd.AddCommand(a.newRuleToggleCmd("disable", "Disable a rule so runs skip it", false))
	return cmd
}

func (a *app) newRuleAddCmd() *cobra.Command {
	var (
		source   string
		target   string
		where    []string
		disabled bool
	)
	cmd := &cobra.Command{
		Use:   "add <plan-id> <rule-name>",
		Short: "Append a filter rule to a plan",
		Long: `Append a filter rule. Each --where is one condition of the form
"[and|or] <column> <operator> [value]"; the first condition's connective is
ignored. A column name may contain spaces; double-quote it when it also
contains an operator word. Without --source the rule scans every loaded table.

Example:
  sheetplan rule add 1 big-orders --source orders \
    --where 'status equals active' --where 'or amount greater-than 100' \
    --where 'Unit Price > 5'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			conds := make([]types.FilterCondition, 0, len(where))
			for _, expr := range where {
				c, err := types.ParseCondition(expr)
				if err != nil {
					return userErr(err)
				}
				conds = append(conds, c)
			}
			rule, err := types.NewRule(args[1], source, target, conds...)
			if err != nil {
				return userErr(err)
			}
			rule.Enabled = !disabled
			return a.editPlan(cmd, args[0], func(p *types.FilterPlan) error {
				return p.AddRule(rule)
			})
		},
	}
	cmd.Flags().StringVarP(&source, "source", "s", "", "source table (default: every table)")
	cmd.Flags().StringVarP(&target, "target-column", "t", "", "column whose values a template receives")
	cmd.Flags().StringArrayVarP(&where, "where", "w", nil, "condition (repeatable)")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "add the rule disabled")
	return cmd
}

func (a *app) newRuleRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <plan-id> <rule-name>",
		Short: "Remove a rule from a plan",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editPlan(cmd, args[0], func(p *types.FilterPlan) error {
				return p.RemoveRuleByName(args[1])
			})
		},
	}
}

func (a *app) newRuleMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <plan-id> <rule-name> <position>",
		Short: "Move a rule to a 1-based position",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := strconv.Atoi(args[2])
			if err != nil {
				return userErr(fmt.Errorf("%w: position %q", types.ErrIndexOutOfRange, args[2]))
			}
			return a.editPlan(cmd, args[0], func(p *types.FilterPlan) error {
				for i, r := range p.Rules {
					if r.Name == args[1] {
						return p.MoveRule(i, pos-1)
					}
				}
				return fmt.Errorf("%w: rule %q", types.ErrNotFound, args[1])
			})
		},
	}
}

func (a *app) newRuleToggleCmd(verb, short string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <plan-id> <rule-name>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editPlan(cmd, args[0], func(p *types.FilterPlan) error {
				return p.SetRuleEnabled(args[1], enabled)
			})
		},
	}
}
