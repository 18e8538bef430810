// Package paths resolves the configuration, data, and output directories.
//
// Each directory follows a precedence chain of command-line flag, config.yaml
// value, environment variable, and finally a default. Every result is
// absolute.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// Directory names used for defaults.
const (
	DefaultConfigDirName = ".sheetplan"
	DefaultDataDirName   = ".sheetplan-db"
	DefaultOutputDirName = "sheetplan-out"
	appName              = "sheetplan"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "SHEETPLAN_CONFIG_DIR"
	EnvDataDir   = "SHEETPLAN_DATA_DIR"
	EnvOutputDir = "SHEETPLAN_OUTPUT_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	getwd         func() (string, error)
	userConfigDir func() (string, error)
}{
	getwd:         os.Getwd,
	userConfigDir: os.UserConfigDir,
}

// UserConfigDir returns the per-user configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/sheetplan (fallback ~/.config/sheetplan)
// macOS:   ~/Library/Application Support/sheetplan
// Windows: %APPDATA%/sheetplan
func UserConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName), nil
}

// ResolveConfigDir returns the configuration directory: flag >
// SHEETPLAN_CONFIG_DIR > ./.sheetplan when it exists > UserConfigDir.
func ResolveConfigDir(flag string) (string, error) {
	if dir, ok, err := firstSet(flag, os.Getenv(EnvConfigDir)); ok || err != nil {
		return dir, err
	}
	local, err := cwdJoin(DefaultConfigDirName)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(local); err == nil && info.IsDir() {
		return local, nil
	}
	return UserConfigDir()
}

// ResolveDataDir returns the directory holding the plan database: flag >
// config.yaml > SHEETPLAN_DATA_DIR > ./.sheetplan-db.
func ResolveDataDir(flag, configValue string) (string, error) {
	if dir, ok, err := firstSet(flag, configValue, os.Getenv(EnvDataDir)); ok || err != nil {
		return dir, err
	}
	return cwdJoin(DefaultDataDirName)
}

// ResolveOutputDir returns the directory that run writes result workbooks
// to: flag > config.yaml > SHEETPLAN_OUTPUT_DIR > ./sheetplan-out.
func ResolveOutputDir(flag, configValue string) (string, error) {
	if dir, ok, err := firstSet(flag, configValue, os.Getenv(EnvOutputDir)); ok || err != nil {
		return dir, err
	}
	return cwdJoin(DefaultOutputDirName)
}

// firstSet returns the first non-empty candidate made absolute.
func firstSet(candidates ...string) (string, bool, error) {
	for _, c := range candidates {
		if c != "" {
			abs, err := filepath.Abs(c)
			return abs, true, err
		}
	}
	return "", false, nil
}

func cwdJoin(name string) (string, error) {
	cwd, err := platformDir.getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, name), nil
}
