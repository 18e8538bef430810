package engine

import (
	"runtime"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/sheetplan/pkg/types"
)

// defaultCheckEvery is how many rows a scan processes between cancellation
// checks.
const defaultCheckEvery = 256

type options struct {
	logger     *zap.Logger
	checkEvery int
	tieBreak   types.TieBreak
	workers    int
}

// Option configures the filter engine, mapping engine, and runner.
type Option func(*options)

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithCheckEvery sets how many rows are scanned between cancellation checks.
func WithCheckEvery(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.checkEvery = n
		}
	}
}

// WithSourceTieBreak chooses which source row a mapping uses when several
// match.
func WithSourceTieBreak(tb types.TieBreak) Option {
	return func(o *options) {
		if tb == types.TieBreakFirst || tb == types.TieBreakLast {
			o.tieBreak = tb
		}
	}
}

// WithWorkers bounds how many rules and mappings the runner executes at once.
// Zero or less means one per CPU.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger:     zap.NewNop(),
		checkEvery: defaultCheckEvery,
		tieBreak:   types.TieBreakFirst,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers <= 0 {
		o.workers = runtime.NumCPU()
	}
	return o
}

// FromConfig translates engine configuration into options.
func FromConfig(cfg types.EngineConfig) ([]Option, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tb, _ := types.ParseTieBreak(cfg.SourceTieBreak)
	return []Option{WithWorkers(cfg.Workers), WithSourceTieBreak(tb)}, nil
}
