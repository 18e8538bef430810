package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/sheetplan/pkg/types"
)

func TestSeedSettings(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()

	v, err := b.GetSetting(ctx, SettingSchemaVersion)
	require.NoError(t, err)
	assert.Equal(t, schemaVersion, v)

	all, err := b.Settings(ctx)
	require.NoError(t, err)
	keys := make([]string, len(all))
	for i, s := range all {
		keys[i] = s.Key
		assert.NotEmpty(t, s.Description, "built-in %s has a description", s.Key)
	}
	assert.Equal(t, []string{SettingLastOutputDir, SettingLastRunID, SettingSchemaVersion}, keys)

	// Seeding twice leaves one row per key.
	require.NoError(t, seedSettings(b.db))
	again, err := b.Settings(ctx)
	require.NoError(t, err)
	assert.Len(t, again, len(all))
}

func TestSetSetting(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"overwrite built-in", SettingLastOutputDir, "/tmp/out"},
		{"new key", "theme", "dark"},
		{"empty value", "note", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, b.SetSetting(ctx, tt.key, tt.value))
			got, err := b.GetSetting(ctx, tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.value, got)
		})
	}

	all, err := b.Settings(ctx)
	require.NoError(t, err)
	for _, s := range all {
		if s.Key == SettingLastOutputDir {
			assert.NotEmpty(t, s.Description, "upsert keeps the description")
		}
	}
}

func TestSettingErrors(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()

	_, err := b.GetSetting(ctx, "missing")
	assert.ErrorIs(t, err, types.ErrSettingNotFound)

	assert.ErrorIs(t, b.SetSetting(ctx, "  ", "x"), types.ErrInvalidName)
}
