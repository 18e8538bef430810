// Shared helpers for sheetplan CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/sheetplan/internal/sqlite"
	"github.com/mesh-intelligence/sheetplan/pkg/types"
)

// withStore attaches the plan store, runs fn, and detaches. Errors returned
// by fn are classified for the exit code.
func (a *app) withStore(fn func(store *sqlite.Backend, cfg types.Config) error) error {
	cfg, err := a.storeConfig()
	if err != nil {
		return err
	}
	store := sqlite.NewBackend(a.logger)
	if err := store.Attach(cfg); err != nil {
		return sysErr(fmt.Errorf("attach store: %w", err))
	}
	defer store.Detach()
	return classify(fn(store, cfg))
}

// editPlan loads the plan named by idArg, applies edit, and saves it.
func (a *app) editPlan(cmd *cobra.Command, idArg string, edit func(p *types.FilterPlan) error) error {
	id, err := parseID(idArg)
	if err != nil {
		return err
	}
	return a.withStore(func(store *sqlite.Backend, _ types.Config) error {
		p, err := store.Load(cmd.Context(), id)
		if err != nil {
			return err
		}
		if err := edit(p); err != nil {
			return err
		}
		if _, err := store.Save(cmd.Context(), p); err != nil {
			return err
		}
		return a.printPlan(cmd.OutOrStdout(), p)
	})
}

// parseID parses a plan ID argument.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, userErr(fmt.Errorf("%w: %q", types.ErrInvalidID, s))
	}
	return id, nil
}

// parseLiteral types a flag value the way condition values are typed: a
// double-quoted value stays a string.
func parseLiteral(s string) types.Value {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return types.Str(s[1 : len(s)-1])
	}
	return types.ParseValue(s)
}

func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysErr(fmt.Errorf("marshal JSON: %w", err))
	}
	fmt.Fprintln(w, string(out))
	return nil
}

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// printPlan writes p as JSON in --json mode and as a summary otherwise.
func (a *app) printPlan(w io.Writer, p *types.FilterPlan) error {
	if a.flags.jsonMode {
		return writeJSON(w, p)
	}
	status := "active"
	if !p.IsActive {
		status = "inactive"
	}
	fmt.Fprintf(w, "ID:          %d\n", p.ID)
	fmt.Fprintf(w, "Name:        %s\n", p.Name)
	if p.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", p.Description)
	}
	if len(p.Tags) > 0 {
		fmt.Fprintf(w, "Tags:        %s\n", strings.Join(p.Tags, ", "))
	}
	fmt.Fprintf(w, "Status:      %s\n", status)
	fmt.Fprintf(w, "Updated:     %s\n", p.UpdatedAt.Local().Format("2006-01-02 15:04:05"))

	if len(p.Rules) > 0 {
		fmt.Fprintln(w, "\nRules:")
		tw := newTabWriter(w)
		fmt.Fprintln(tw, "  #\tNAME\tSOURCE\tTARGET\tENABLED\tCONDITIONS")
		for i, r := range p.Rules {
			source := r.SourceTable
			if source == "" {
				source = "*"
			}
			fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\t%t\t%s\n", i+1, r.Name, source, r.TargetColumn, r.Enabled, describeConditions(r.Conditions))
		}
		tw.Flush()
	}
	if len(p.Mappings) > 0 {
		fmt.Fprintln(w, "\nMappings:")
		tw := newTabWriter(w)
		fmt.Fprintln(tw, "  #\tNAME\tSOURCE\tTARGET\tINSERT\tOVERWRITE")
		for i, m := range p.Mappings {
			fmt.Fprintf(tw, "  %d\t%s\t%s[%s %s %s] -> %s\t%s[%s %s %s]\t%s\t%t\n", i+1, m.Name,
				m.SourceTable, m.SourceMatch, m.SourceMatchOperator, m.SourceMatchValue, m.SourceValue,
				m.TargetTable, m.TargetMatch, m.TargetMatchOperator, m.TargetMatchValue,
				m.TargetInsert, m.OverwriteExisting)
		}
		tw.Flush()
	}
	return nil
}

// describeConditions renders conditions with their connectives, e.g.
// "status equals active or amount greater-than 100".
func describeConditions(conds []types.FilterCondition) string {
	if len(conds) == 0 {
		return "(all rows)"
	}
	var b strings.Builder
	for i, c := range conds {
		if i > 0 {
			b.WriteString(" " + strings.ToLower(string(c.Logic)) + " ")
		}
		b.WriteString(c.String())
	}
	return b.String()
}
