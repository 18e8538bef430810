package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/sheetplan/internal/paths"
	"github.com/mesh-intelligence/sheetplan/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileBase = "config.yaml"

	cfgKeyBackend        = "backend"
	cfgKeyDataDir        = "data_dir"
	cfgKeyLogLevel       = "log.level"
	cfgKeyLogEncoding    = "log.encoding"
	cfgKeyEngineWorkers  = "engine.workers"
	cfgKeyEngineTieBreak = "engine.source_tie_break"
	cfgKeyOutputDir      = "output.dir"

	envPrefix = "SHEETPLAN"
)

// envKeys are the config keys that SHEETPLAN_<KEY> variables override, with
// dots replaced by underscores. Directory keys are resolved by the paths
// package instead.
var envKeys = []string{
	cfgKeyBackend,
	cfgKeyLogLevel,
	cfgKeyLogEncoding,
	cfgKeyEngineWorkers,
	cfgKeyEngineTieBreak,
}

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# sheetplan configuration

# Plan store backend
backend: sqlite

# Directory holding sheetplan.db (overridable by --data-dir)
# data_dir:

log:
  level: info        # debug, info, warn, error
  encoding: console  # console or json

engine:
  workers: 0               # concurrent rules and mappings; 0 means one per CPU
  source_tie_break: first  # source row used when several match: first or last

output:
  # dir:                   # where run writes results (default ./sheetplan-out)
`

// loadConfig reads config.yaml from configDir, creating the directory and a
// default file on first run. A missing config.yaml is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return nil, sysErr(fmt.Errorf("ensure config dir: %w", err))
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, sysErr(fmt.Errorf("ensure default config: %w", err))
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyLogLevel, "info")
	v.SetDefault(cfgKeyLogEncoding, "console")
	v.SetDefault(cfgKeyEngineWorkers, 0)
	v.SetDefault(cfgKeyEngineTieBreak, string(types.TieBreakFirst))
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	for _, key := range envKeys {
		if err := v.BindEnv(key, envName(key)); err != nil {
			return nil, sysErr(fmt.Errorf("bind env %s: %w", key, err))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, userErr(fmt.Errorf("read config: %w", err))
	}
	return v, nil
}

// envName returns the variable that overrides key, e.g. SHEETPLAN_LOG_LEVEL.
func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile creates a default config.yaml if the file does not
// exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileBase)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// storeConfig assembles the backend configuration from flags and
// config.yaml.
func (a *app) storeConfig() (types.Config, error) {
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, a.config.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, sysErr(fmt.Errorf("resolve data dir: %w", err))
	}
	cfg := types.Config{
		Backend: a.config.GetString(cfgKeyBackend),
		DataDir: dataDir,
		Engine: types.EngineConfig{
			Workers:        a.config.GetInt(cfgKeyEngineWorkers),
			SourceTieBreak: a.config.GetString(cfgKeyEngineTieBreak),
		},
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, userErr(fmt.Errorf("config: %w", err))
	}
	return cfg, nil
}

// effectiveWorkers reports the worker count a run will use.
func effectiveWorkers(cfg types.EngineConfig) int {
	if cfg.Workers > 0 {
		return cfg.Workers
	}
	return runtime.NumCPU()
}
