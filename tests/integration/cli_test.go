// End-to-end tests that drive the sheetplan binary over CSV inputs.
package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain builds the sheetplan binary once before running tests.
func TestMain(m *testing.M) {
	projectRoot, err := FindProjectRoot()
	if err != nil {
		buildErr = err
		os.Exit(1)
	}
	tmpDir, err := os.MkdirTemp("", "sheetplan-test-*")
	if err != nil {
		buildErr = err
		os.Exit(1)
	}
	sheetplanBin = filepath.Join(tmpDir, "sheetplan")

	cmd := exec.Command("go", "build", "-o", sheetplanBin, "./cmd/sheetplan")
	cmd.Dir = projectRoot
	if output, err := cmd.CombinedOutput(); err != nil {
		buildErr = &BuildError{Err: err, Output: string(output)}
		os.Exit(1)
	}

	code := m.Run()
	os.RemoveAll(tmpDir)
	os.Exit(code)
}

const (
	ordersCSV = "order,region,amount,currency,fx\n" +
		"A-1,north,120,EUR,\n" +
		"A-2,south,80,USD,\n" +
		"A-3,north,300,USD,1.0\n" +
		"A-4,east,45,GBP,\n"
	ratesCSV = "code,rate\n" +
		"EUR,0.92\n" +
		"USD,1.0\n" +
		"USD,1.01\n" +
		"GBP,0.79\n"
)

func TestInit(t *testing.T) {
	env := NewTestEnv(t)
	result := env.MustRun("init")
	assert.Contains(t, result.Stdout, "initialized")
	assert.FileExists(t, filepath.Join(env.DataDir, "sheetplan.db"))

	version := env.MustRun("version")
	assert.Contains(t, version.Stdout, "sheetplan v")
}

func TestPlanLifecycle(t *testing.T) {
	env := NewTestEnv(t)
	id := env.CreatePlan("regional")
	env.MustRun("rule", "add", id, "north", "--source", "orders", "--where", "region equals north")
	env.MustRun("rule", "add", id, "large", "--source", "orders", "--where", "amount greater-or-equal 100")
	env.MustRun("rule", "move", id, "large", "1")
	env.MustRun("rule", "disable", id, "north")

	plan := ParseJSON[Plan](t, env.MustRun("--json", "plan", "show", id).Stdout)
	require.Len(t, plan.Rules, 2)
	assert.Equal(t, "large", plan.Rules[0].Name)
	assert.Equal(t, 0, plan.Rules[0].OrderIndex)
	assert.False(t, plan.Rules[1].Enabled)

	exportPath := filepath.Join(env.TempDir, "plans.jsonl")
	env.MustRun("plan", "export", exportPath)
	type record struct {
		Format string `json:"format"`
		Plan   Plan   `json:"plan"`
	}
	records := ReadJSONLFile[record](t, exportPath)
	require.Len(t, records, 1)
	assert.Equal(t, "sheetplan.plan/v1", records[0].Format)
	assert.Equal(t, "regional", records[0].Plan.Name)

	env.MustRun("plan", "delete", id)
	assert.Equal(t, 1, env.Run("plan", "show", id).ExitCode)

	imported := ParseJSON[struct {
		IDs []int64 `json:"ids"`
	}](t, env.MustRun("--json", "plan", "import", exportPath).Stdout)
	require.Len(t, imported.IDs, 1)

	plans := ParseJSON[[]Plan](t, env.MustRun("--json", "plan", "list").Stdout)
	require.Len(t, plans, 1)
	assert.Equal(t, imported.IDs[0], plans[0].ID)
	assert.Len(t, plans[0].Rules, 2)
}

func TestRunPlan(t *testing.T) {
	env := NewTestEnv(t)
	orders := env.WriteInput("orders.csv", ordersCSV)
	rates := env.WriteInput("rates.csv", ratesCSV)

	id := env.CreatePlan("fx")
	env.MustRun("rule", "add", id, "north", "--source", "orders", "--target-column", "order",
		"--where", "region equals north")
	env.MustRun("mapping", "add", id, "usd",
		"--source", "rates", "--source-match", "A", "--source-match-value", "USD", "--source-value", "B",
		"--target", "orders", "--target-match", "currency", "--target-match-value", "USD", "--target-insert", "fx")
	env.MustRun("mapping", "validate", id, "--input", orders, "--input", rates)

	report := ParseJSON[Report](t, env.MustRun("--json", "run", id, "--input", orders, "--input", rates).Stdout)
	require.Len(t, report.Rules, 1)
	assert.Equal(t, "ok", report.Rules[0].Outcome)
	assert.Equal(t, 2, report.Rules[0].RowsMatched)

	require.Len(t, report.Mappings, 1)
	m := report.Mappings[0]
	assert.Equal(t, "ok", m.Outcome)
	assert.True(t, m.AmbiguousSource, "two USD rates")
	assert.Equal(t, 1, m.RowsWritten)
	assert.Equal(t, 1, m.RowsSkipped, "A-3 already has a rate")

	runDir := filepath.Join(env.OutputDir, report.RunID)
	assert.FileExists(t, filepath.Join(runDir, "results.xlsx"))
	saved := ReadJSONFile[Report](t, filepath.Join(runDir, "report.json"))
	assert.Equal(t, report.RunID, saved.RunID)
	assert.Equal(t, "fx", saved.PlanName)

	lastRun := env.MustRun("settings", "get", "last_run_id")
	assert.Equal(t, report.RunID+"\n", lastRun.Stdout)
}

func TestRunChained(t *testing.T) {
	env := NewTestEnv(t)
	orders := env.WriteInput("orders.csv", ordersCSV)
	rates := env.WriteInput("rates.csv", ratesCSV)

	id := env.CreatePlan("chain")
	for _, code := range []string{"EUR", "GBP"} {
		env.MustRun("mapping", "add", id, "rate-"+code,
			"--source", "rates", "--source-match", "code", "--source-match-value", code, "--source-value", "rate",
			"--target", "orders", "--target-match", "currency", "--target-match-value", code, "--target-insert", "fx")
	}

	report := ParseJSON[Report](t, env.MustRun("--json", "run", id, "--chained", "--input", orders, "--input", rates).Stdout)
	require.Len(t, report.Mappings, 2)
	for _, m := range report.Mappings {
		assert.Equal(t, "ok", m.Outcome, m.Name)
		assert.Equal(t, 1, m.RowsWritten, m.Name)
	}
}

func TestExitCodes(t *testing.T) {
	env := NewTestEnv(t)
	orders := env.WriteInput("orders.csv", ordersCSV)
	id := env.CreatePlan("broken")
	env.MustRun("mapping", "add", id, "missing",
		"--source", "rates", "--source-match", "A", "--source-value", "B",
		"--target", "orders", "--target-match", "A", "--target-insert", "F")

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"failed unit", []string{"run", id, "--input", orders}, 1},
		{"unknown plan", []string{"plan", "show", "999"}, 1},
		{"bad flag", []string{"plan", "list", "--nope"}, 1},
		{"unsupported input", []string{"inspect", env.WriteInput("notes.txt", "x")}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := env.Run(tt.args...)
			assert.Equal(t, tt.code, result.ExitCode, result.Stderr)
			assert.Contains(t, result.Stderr, "sheetplan:")
		})
	}

	t.Run("unusable data dir", func(t *testing.T) {
		blocker := filepath.Join(env.TempDir, "blocker")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
		result := env.Run("--data-dir", filepath.Join(blocker, "db"), "plan", "list")
		assert.Equal(t, 2, result.ExitCode, result.Stderr)
	})
}
