package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/sheetplan/internal/engine"
	"github.com/mesh-intelligence/sheetplan/internal/paths"
	"github.com/mesh-intelligence/sheetplan/internal/sqlite"
	"github.com/mesh-intelligence/sheetplan/internal/workbook"
	"github.com/mesh-intelligence/sheetplan/pkg/types"
)

// Files written into each run directory.
const (
	resultsFile  = "results.xlsx"
	reportFile   = "report.json"
	templateFile = "template"
)

type runFlags struct {
	inputs    []string
	outputDir string
	template  string
	chained   bool
	timeout   time.Duration
}

func (a *app) newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run <plan-id>",
		Short: "Run a plan against input files",
		Long: `Run every rule and mapping of a plan against the tables loaded from the
input files. Results, a JSON execution report, and an optional filled
template are written to <output-dir>/<run-id>/.

The command exits 1 when any rule or mapping failed and 2 when the run was
interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.runPlan(cmd, id, f)
		},
	}
	cmd.Flags().StringArrayVarP(&f.inputs, "input", "i", nil, "input .xlsx or .csv file (repeatable)")
	cmd.Flags().StringVarP(&f.outputDir, "output-dir", "o", "", "directory for run outputs (default ./sheetplan-out)")
	cmd.Flags().StringVar(&f.template, "template", "", "workbook whose header receives the rule results")
	cmd.Flags().BoolVar(&f.chained, "chained", false, "apply mappings that share a target one after another")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "cancel the run after this long (0 means no limit)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func (a *app) runPlan(cmd *cobra.Command, id int64, f runFlags) error {
	loader := workbook.NewLoader(a.logger)
	tables, err := loader.LoadFiles(f.inputs)
	if err != nil {
		return classify(err)
	}
	var template *types.Table
	if f.template != "" {
		if template, err = loadTemplate(loader, f.template); err != nil {
			return classify(err)
		}
	}
	outRoot, err := paths.ResolveOutputDir(f.outputDir, a.config.GetString(cfgKeyOutputDir))
	if err != nil {
		return sysErr(fmt.Errorf("resolve output dir: %w", err))
	}

	return a.withStore(func(store *sqlite.Backend, cfg types.Config) error {
		plan, err := store.Load(cmd.Context(), id)
		if err != nil {
			return err
		}
		for _, name := range plan.RequiredTables() {
			if _, ok := tables[name]; !ok {
				a.logger.Warn("required table not loaded", zap.String("table", name))
			}
		}

		opts, err := engine.FromConfig(cfg.Engine)
		if err != nil {
			return err
		}
		runner := engine.NewRunner(append(opts, engine.WithLogger(a.logger))...)

		ctx := cmd.Context()
		if f.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, f.timeout)
			defer cancel()
		}
		run := runner.Run
		if f.chained {
			run = runner.RunChained
		}
		results, report, runErr := run(ctx, tables, plan)
		report.PlanID = plan.ID

		dir := filepath.Join(outRoot, report.RunID)
		written, err := writeRunOutputs(dir, plan, results, report, template, f.template)
		if err != nil {
			return sysErr(err)
		}

		// Record the run even when the command context is already cancelled.
		bg := context.WithoutCancel(cmd.Context())
		if err := store.SetSetting(bg, sqlite.SettingLastRunID, report.RunID); err != nil {
			return err
		}
		if err := store.SetSetting(bg, sqlite.SettingLastOutputDir, dir); err != nil {
			return err
		}

		if err := a.printReport(cmd, report, written); err != nil {
			return err
		}
		if runErr != nil {
			return sysErr(fmt.Errorf("run %s interrupted: %w", report.RunID, runErr))
		}
		if failed := report.Failed(); len(failed) > 0 {
			return userErr(fmt.Errorf("%d unit(s) failed: %s", len(failed), strings.Join(failed, ", ")))
		}
		return nil
	})
}

// loadTemplate returns the first table, by name, of a template file.
func loadTemplate(loader *workbook.Loader, path string) (*types.Table, error) {
	tables, err := loader.Load(path)
	if err != nil {
		return nil, err
	}
	names := workbook.SortedNames(tables)
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: template %s has no header row", types.ErrInvalidData, path)
	}
	return tables[names[0]], nil
}

// writeRunOutputs writes the results workbook, the report, and the filled
// template into dir, returning the paths written.
func writeRunOutputs(dir string, plan *types.FilterPlan, results types.ResultSet, report *types.ExecutionReport, template *types.Table, templatePath string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create run dir: %w", err)
	}
	var written []string
	if len(results) > 0 {
		path := filepath.Join(dir, resultsFile)
		if err := workbook.SaveAll(path, results); err != nil {
			return nil, fmt.Errorf("write results: %w", err)
		}
		written = append(written, path)
	}
	if template != nil {
		path := filepath.Join(dir, templateFile+strings.ToLower(filepath.Ext(templatePath)))
		filled := engine.FillTemplate(template, engine.TemplateColumns(plan, results))
		if err := workbook.Save(path, filled); err != nil {
			return nil, fmt.Errorf("write template: %w", err)
		}
		written = append(written, path)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	path := filepath.Join(dir, reportFile)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}
	return append(written, path), nil
}

func (a *app) printReport(cmd *cobra.Command, report *types.ExecutionReport, written []string) error {
	out := cmd.OutOrStdout()
	if a.flags.jsonMode {
		return writeJSON(out, struct {
			*types.ExecutionReport
			Files []string `json:"files"`
		}{report, written})
	}

	fmt.Fprintf(out, "run %s of plan %q finished in %s\n\n", report.RunID, report.PlanName, report.Duration().Round(time.Millisecond))
	tw := newTabWriter(out)
	fmt.Fprintln(tw, "KIND\tNAME\tOUTCOME\tROWS\tDETAIL")
	for _, r := range report.Rules {
		fmt.Fprintf(tw, "rule\t%s\t%s\t%d/%d\t%s\n", r.Name, r.Outcome, r.RowsMatched, r.RowsIn, r.Error)
	}
	for _, m := range report.Mappings {
		detail := m.Error
		if detail == "" && m.AmbiguousSource {
			detail = fmt.Sprintf("%d source rows matched, used row %d", m.SourceMatches, m.SourceRow)
		}
		fmt.Fprintf(tw, "mapping\t%s\t%s\t%d/%d\t%s\n", m.Name, m.Outcome, m.RowsWritten, m.TargetMatches, detail)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(written) > 0 {
		fmt.Fprintln(out)
		for _, p := range written {
			fmt.Fprintln(out, "wrote", p)
		}
	}
	return nil
}
