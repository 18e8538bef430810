// Package integration provides CLI integration tests for sheetplan.
package integration

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	// sheetplanBin is the path to the built sheetplan binary.
	sheetplanBin string
	// buildErr captures any build error.
	buildErr error
)

// BuildError wraps a build error with output.
type BuildError struct {
	Err    error
	Output string
}

func (e *BuildError) Error() string {
	return e.Err.Error() + ": " + e.Output
}

// FindProjectRoot walks up from the working directory to the directory
// holding go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// TestEnv is an isolated environment with its own config, data, input, and
// output directories.
type TestEnv struct {
	t         *testing.T
	TempDir   string
	ConfigDir string
	DataDir   string
	InputDir  string
	OutputDir string
}

// NewTestEnv creates a new isolated test environment.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	if buildErr != nil {
		t.Fatalf("failed to build sheetplan: %v", buildErr)
	}
	if sheetplanBin == "" {
		t.Fatal("sheetplan binary not built")
	}

	tempDir := t.TempDir()
	env := &TestEnv{
		t:         t,
		TempDir:   tempDir,
		ConfigDir: filepath.Join(tempDir, "config"),
		DataDir:   filepath.Join(tempDir, "data"),
		InputDir:  filepath.Join(tempDir, "in"),
		OutputDir: filepath.Join(tempDir, "out"),
	}
	require.NoError(t, os.MkdirAll(env.ConfigDir, 0o755))
	require.NoError(t, os.MkdirAll(env.InputDir, 0o755))
	config := "backend: sqlite\nlog:\n  level: error\noutput:\n  dir: " + env.OutputDir + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(env.ConfigDir, "config.yaml"), []byte(config), 0o644))
	return env
}

// CmdResult holds the result of one sheetplan invocation.
type CmdResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Run executes sheetplan with the environment's directories.
func (e *TestEnv) Run(args ...string) CmdResult {
	e.t.Helper()
	allArgs := append([]string{"--config-dir", e.ConfigDir, "--data-dir", e.DataDir}, args...)
	cmd := exec.Command(sheetplanBin, allArgs...)
	cmd.Env = append(os.Environ(), "SHEETPLAN_LOG_LEVEL=error")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	exitCode := 0
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			e.t.Fatalf("failed to run sheetplan: %v", err)
		}
		exitCode = exitErr.ExitCode()
	}
	return CmdResult{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: exitCode}
}

// MustRun executes sheetplan and fails the test on a non-zero exit.
func (e *TestEnv) MustRun(args ...string) CmdResult {
	e.t.Helper()
	result := e.Run(args...)
	if result.ExitCode != 0 {
		e.t.Fatalf("sheetplan %v failed with exit code %d:\nstdout: %s\nstderr: %s",
			args, result.ExitCode, result.Stdout, result.Stderr)
	}
	return result
}

// WriteInput writes an input file and returns its path.
func (e *TestEnv) WriteInput(name, content string) string {
	e.t.Helper()
	path := filepath.Join(e.InputDir, name)
	require.NoError(e.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// CreatePlan creates a plan and returns its ID argument.
func (e *TestEnv) CreatePlan(name string) string {
	e.t.Helper()
	p := ParseJSON[Plan](e.t, e.MustRun("--json", "plan", "create", name).Stdout)
	require.NotZero(e.t, p.ID)
	return strconv.FormatInt(p.ID, 10)
}

// ParseJSON parses JSON output into the target type.
func ParseJSON[T any](t *testing.T, jsonStr string) T {
	t.Helper()
	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		t.Fatalf("failed to parse JSON %q: %v", jsonStr, err)
	}
	return result
}

// ReadJSONFile reads and parses a JSON file.
func ReadJSONFile[T any](t *testing.T, path string) T {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return ParseJSON[T](t, string(data))
}

// ReadJSONLFile reads a JSONL file (one JSON object per line).
func ReadJSONLFile[T any](t *testing.T, path string) []T {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var results []T
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record T
		require.NoError(t, json.Unmarshal(line, &record), "line %q", line)
		results = append(results, record)
	}
	require.NoError(t, scanner.Err())
	return results
}

// Plan is the subset of plan JSON the tests inspect.
type Plan struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
	Rules    []struct {
		Name       string `json:"name"`
		Enabled    bool   `json:"enabled"`
		OrderIndex int    `json:"order_index"`
	} `json:"rules"`
	Mappings []struct {
		Name        string `json:"name"`
		TargetTable string `json:"target_table"`
	} `json:"mappings"`
}

// Report is the subset of an execution report the tests inspect.
type Report struct {
	RunID    string `json:"run_id"`
	PlanID   int64  `json:"plan_id"`
	PlanName string `json:"plan_name"`
	Rules    []struct {
		Name        string `json:"name"`
		RowsMatched int    `json:"rows_matched"`
		Outcome     string `json:"outcome"`
	} `json:"rules"`
	Mappings []struct {
		Name            string `json:"name"`
		RowsWritten     int    `json:"rows_written"`
		RowsSkipped     int    `json:"rows_skipped"`
		AmbiguousSource bool   `json:"ambiguous_source"`
		Outcome         string `json:"outcome"`
		Error           string `json:"error"`
	} `json:"mappings"`
	Files []string `json:"files"`
}
