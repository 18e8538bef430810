package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty backend returns ErrBackendEmpty",
			config:  Config{Backend: "", DataDir: "/tmp/data"},
			wantErr: ErrBackendEmpty,
		},
		{
			name:    "unknown backend returns ErrBackendUnknown",
			config:  Config{Backend: "postgres", DataDir: "/tmp/data"},
			wantErr: ErrBackendUnknown,
		},
		{
			name:   "valid sqlite config",
			config: Config{Backend: "sqlite", DataDir: "/tmp/data"},
		},
		{
			name:   "sqlite with empty DataDir is valid at config level",
			config: Config{Backend: "sqlite"},
		},
		{
			name:    "negative workers rejected",
			config:  Config{Backend: "sqlite", Engine: EngineConfig{Workers: -1}},
			wantErr: ErrWorkersNegative,
		},
		{
			name:    "unknown tie-break rejected",
			config:  Config{Backend: "sqlite", Engine: EngineConfig{SourceTieBreak: "random"}},
			wantErr: ErrInvalidTieBreak,
		},
		{
			name:   "last tie-break accepted",
			config: Config{Backend: "sqlite", Engine: EngineConfig{Workers: 4, SourceTieBreak: "LAST"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
