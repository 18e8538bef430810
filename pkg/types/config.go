package types

import (
	"errors"
	"fmt"
)

// Config holds backend selection and engine parameters.
type Config struct {
	Backend string       `json:"backend" yaml:"backend"`
	DataDir string       `json:"data_dir" yaml:"data_dir"`
	Engine  EngineConfig `json:"engine" yaml:"engine"`
}

// EngineConfig tunes plan execution.
type EngineConfig struct {
	// Workers bounds concurrent units; zero means one per CPU.
	Workers int `json:"workers" yaml:"workers"`
	// SourceTieBreak picks the source row when several match: first or last.
	SourceTieBreak string `json:"source_tie_break" yaml:"source_tie_break"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Config validation errors.
var (
	ErrBackendEmpty    = errors.New("backend must not be empty")
	ErrBackendUnknown  = errors.New("unknown backend")
	ErrWorkersNegative = errors.New("workers must not be negative")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return fmt.Errorf("%w: %q", ErrBackendUnknown, c.Backend)
	}
	return c.Engine.Validate()
}

// Validate checks the worker count and tie-break policy.
func (e EngineConfig) Validate() error {
	if e.Workers < 0 {
		return ErrWorkersNegative
	}
	if _, err := ParseTieBreak(e.SourceTieBreak); err != nil {
		return err
	}
	return nil
}
