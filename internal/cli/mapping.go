package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/sheetplan/internal/engine"
	"github.com/mesh-intelligence/sheetplan/internal/sqlite"
	"github.com/mesh-intelligence/sheetplan/internal/workbook"
	"github.com/mesh-intelligence/sheetplan/pkg/types"
)

func (a *app) newMappingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mapping",
		Short: "Add, remove, and check the lookup mappings of a plan",
	}
	cmd.AddCommand(a.newMappingAddCmd())
	cmd.AddCommand(a.newMappingRemoveCmd())
	cmd.AddCommand(a.newMappingValidateCmd())
	return cmd
}

// mappingFlags holds the raw flag values of mapping add.
type mappingFlags struct {
	description string

	source           string
	sourceMatch      string
	sourceMatchValue string
	sourceOperator   string
	sourceValue      string
	sourceRows       string

	target           string
	targetMatch      string
	targetMatchValue string
	targetOperator   string
	targetInsert     string
	targetRows       string

	overwrite bool
}

func (f mappingFlags) spec(name string) (types.MappingSpec, error) {
	sourceRows, err := types.ParseRowRange(f.sourceRows)
	if err != nil {
		return types.MappingSpec{}, fmt.Errorf("--source-rows: %w", err)
	}
	targetRows, err := types.ParseRowRange(f.targetRows)
	if err != nil {
		return types.MappingSpec{}, fmt.Errorf("--target-rows: %w", err)
	}
	return types.MappingSpec{
		Name:                name,
		Description:         f.description,
		SourceTable:         f.source,
		SourceMatch:         f.sourceMatch,
		SourceMatchValue:    parseLiteral(f.sourceMatchValue),
		SourceMatchOperator: f.sourceOperator,
		SourceValue:         f.sourceValue,
		SourceRowRange:      sourceRows,
		TargetTable:         f.target,
		TargetMatch:         f.targetMatch,
		TargetMatchValue:    parseLiteral(f.targetMatchValue),
		TargetMatchOperator: f.targetOperator,
		TargetInsert:        f.targetInsert,
		TargetRowRange:      targetRows,
		OverwriteExisting:   f.overwrite,
	}, nil
}

func (a *app) newMappingAddCmd() *cobra.Command {
	var f mappingFlags
	cmd := &cobra.Command{
		Use:   "add <plan-id> <mapping-name>",
		Short: "Append a lookup mapping to a plan",
		Long: `Append a mapping that copies one value from a source table into the
target table. Coordinates are "A", "A5", "Sheet!A", or a column name.

Example:
  sheetplan mapping add 1 eur-rate \
    --source rates --source-match A --source-match-value EUR --source-value B \
    --target orders --target-match currency --target-match-value EUR \
    --target-insert rate`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := f.spec(args[1])
			if err != nil {
				return userErr(err)
			}
			m, err := types.NewMapping(spec)
			if err != nil {
				return userErr(err)
			}
			return a.editPlan(cmd, args[0], func(p *types.FilterPlan) error {
				return p.AddMapping(m)
			})
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.description, "description", "d", "", "mapping description")
	fl.StringVar(&f.source, "source", "", "source table")
	fl.StringVar(&f.sourceMatch, "source-match", "", "source column to match")
	fl.StringVar(&f.sourceMatchValue, "source-match-value", "", "value the source match column is compared with")
	fl.StringVar(&f.sourceOperator, "source-operator", "", "source match operator (default equals)")
	fl.StringVar(&f.sourceValue, "source-value", "", "source column holding the value to copy")
	fl.StringVar(&f.sourceRows, "source-rows", "", "source data rows, e.g. 2:40 or 5:")
	fl.StringVar(&f.target, "target", "", "target table")
	fl.StringVar(&f.targetMatch, "target-match", "", "target column to match")
	fl.StringVar(&f.targetMatchValue, "target-match-value", "", "value the target match column is compared with")
	fl.StringVar(&f.targetOperator, "target-operator", "", "target match operator (default equals)")
	fl.StringVar(&f.targetInsert, "target-insert", "", "target column that receives the value; an absent name is created as given")
	fl.StringVar(&f.targetRows, "target-rows", "", "target data rows, e.g. 1:10")
	fl.BoolVar(&f.overwrite, "overwrite", false, "replace non-empty target cells")
	for _, name := range []string{"source", "source-match", "source-value", "target", "target-match", "target-insert"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (a *app) newMappingRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <plan-id> <mapping-name>",
		Short: "Remove a mapping from a plan",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editPlan(cmd, args[0], func(p *types.FilterPlan) error {
				return p.RemoveMapping(args[1])
			})
		},
	}
}

func (a *app) newMappingValidateCmd() *cobra.Command {
	var inputs []string
	cmd := &cobra.Command{
		Use:   "validate <plan-id>",
		Short: "Check a plan's mappings against input files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			tables, err := workbook.NewLoader(a.logger).LoadFiles(inputs)
			if err != nil {
				return classify(err)
			}
			return a.withStore(func(store *sqlite.Backend, _ types.Config) error {
				p, err := store.Load(cmd.Context(), id)
				if err != nil {
					return err
				}
				problems := make(map[string][]string)
				invalid := 0
				for _, m := range p.Mappings {
					errs := engine.ValidateMapping(m, tables)
					msgs := make([]string, len(errs))
					for i, e := range errs {
						msgs[i] = e.Error()
					}
					problems[m.Name] = msgs
					if len(errs) > 0 {
						invalid++
					}
				}

				if a.flags.jsonMode {
					if err := writeJSON(cmd.OutOrStdout(), problems); err != nil {
						return err
					}
				} else {
					for _, m := range p.Mappings {
						if len(problems[m.Name]) == 0 {
							fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", m.Name)
							continue
						}
						for _, msg := range problems[m.Name] {
							fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", m.Name, msg)
						}
					}
				}
				if invalid > 0 {
					return userErr(fmt.Errorf("%d of %d mapping(s) invalid", invalid, len(p.Mappings)))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVarP(&inputs, "input", "i", nil, "input .xlsx or .csv file (repeatable)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
