// Package cli implements the sheetplan command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/sheetplan/internal/logging"
	"github.com/mesh-intelligence/sheetplan/internal/paths"
	"github.com/mesh-intelligence/sheetplan/pkg/sheetplan"
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
}

// app carries the state every subcommand needs once the root command has
// resolved configuration.
type app struct {
	flags     rootFlags
	configDir string
	config    *viper.Viper
	logger    *zap.Logger
}

// NewRootCmd creates the top-level "sheetplan" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}
	root := &cobra.Command{
		Use:   "sheetplan",
		Short: "Filter and join spreadsheet data with saved plans",
		Long: "sheetplan stores plans of filter rules and lookup mappings and runs them\n" +
			"against .xlsx and .csv files.",
		Version: sheetplan.Version,
		// Errors are printed once by Run with the matching exit code.
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) { a.logger.Sync() },
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: ./.sheetplan or the user config dir)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: ./.sheetplan-db)")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(a.newVersionCmd())
	root.AddCommand(a.newInitCmd())
	root.AddCommand(a.newPlanCmd())
	root.AddCommand(a.newRuleCmd())
	root.AddCommand(a.newMappingCmd())
	root.AddCommand(a.newRunCmd())
	root.AddCommand(a.newInspectCmd())
	root.AddCommand(a.newSettingsCmd())
	return root
}

// Execute runs the CLI with the process arguments and exits with the
// resulting code. SIGINT and SIGTERM cancel the running command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// Run executes the CLI and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "sheetplan:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// setup resolves the config directory, loads config.yaml, and builds the
// logger. The version command needs none of it.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysErr(fmt.Errorf("resolve config dir: %w", err))
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Config{
		Level:    v.GetString(cfgKeyLogLevel),
		Encoding: v.GetString(cfgKeyLogEncoding),
	})
	if err != nil {
		return userErr(err)
	}
	a.configDir = configDir
	a.config = v
	a.logger = logger
	return nil
}
