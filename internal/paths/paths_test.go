package paths

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp makes the working directory a fresh temp dir for one test.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	orig := platformDir.getwd
	platformDir.getwd = func() (string, error) { return dir, nil }
	t.Cleanup(func() { platformDir.getwd = orig })
	return dir
}

func TestUserConfigDir_Linux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux-only test")
	}

	t.Run("uses XDG_CONFIG_HOME when set", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
		got, err := UserConfigDir()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/xdg-config/sheetplan", got)
	})

	t.Run("falls back to the platform dir when XDG unset", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		orig := platformDir.userConfigDir
		platformDir.userConfigDir = func() (string, error) { return "/home/u/.config", nil }
		t.Cleanup(func() { platformDir.userConfigDir = orig })

		got, err := UserConfigDir()
		require.NoError(t, err)
		assert.Equal(t, "/home/u/.config/sheetplan", got)
	})
}

func TestUserConfigDir_Error(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	orig := platformDir.userConfigDir
	platformDir.userConfigDir = func() (string, error) { return "", errors.New("no home") }
	t.Cleanup(func() { platformDir.userConfigDir = orig })

	_, err := UserConfigDir()
	assert.Error(t, err)
}

func TestResolveConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")

	tests := []struct {
		name     string
		flag     string
		envVal   string
		makeDir  bool
		wantBase string
		wantUser bool
	}{
		{name: "flag wins over env", flag: "/explicit/config", envVal: "/env/config", wantBase: "/explicit/config"},
		{name: "env wins when flag empty", envVal: "/env/config", wantBase: "/env/config"},
		{name: "local dir when present", makeDir: true},
		{name: "user dir otherwise", wantUser: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cwd := chdirTemp(t)
			t.Setenv(EnvConfigDir, tt.envVal)
			if tt.makeDir {
				require.NoError(t, os.Mkdir(filepath.Join(cwd, DefaultConfigDirName), 0o755))
			}

			got, err := ResolveConfigDir(tt.flag)
			require.NoError(t, err)
			switch {
			case tt.wantBase != "":
				assert.Equal(t, tt.wantBase, got)
			case tt.makeDir:
				assert.Equal(t, filepath.Join(cwd, DefaultConfigDirName), got)
			case tt.wantUser && runtime.GOOS == "linux":
				assert.Equal(t, "/tmp/xdg-config/sheetplan", got)
			}
		})
	}
}

func TestResolveDataDir(t *testing.T) {
	tests := []struct {
		name          string
		flag          string
		configYAMLVal string
		envVal        string
		want          string
	}{
		{name: "flag wins over all", flag: "/flag/data", configYAMLVal: "/config/data", envVal: "/env/data", want: "/flag/data"},
		{name: "config.yaml wins over env", configYAMLVal: "/config/data", envVal: "/env/data", want: "/config/data"},
		{name: "env wins when flag and config empty", envVal: "/env/data", want: "/env/data"},
		{name: "CWD default when all empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cwd := chdirTemp(t)
			t.Setenv(EnvDataDir, tt.envVal)
			want := tt.want
			if want == "" {
				want = filepath.Join(cwd, DefaultDataDirName)
			}

			got, err := ResolveDataDir(tt.flag, tt.configYAMLVal)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestResolveOutputDir(t *testing.T) {
	cwd := chdirTemp(t)

	t.Setenv(EnvOutputDir, "")
	got, err := ResolveOutputDir("", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, DefaultOutputDirName), got)

	t.Setenv(EnvOutputDir, "/env/out")
	got, err = ResolveOutputDir("", "")
	require.NoError(t, err)
	assert.Equal(t, "/env/out", got)

	got, err = ResolveOutputDir("", "/config/out")
	require.NoError(t, err)
	assert.Equal(t, "/config/out", got)
}

func TestResolve_AbsolutePath(t *testing.T) {
	t.Setenv(EnvConfigDir, "")
	t.Setenv(EnvDataDir, "")
	t.Setenv(EnvOutputDir, "")

	tests := []struct {
		name    string
		resolve func() (string, error)
	}{
		{"relative config flag", func() (string, error) { return ResolveConfigDir("relative/path") }},
		{"relative data flag", func() (string, error) { return ResolveDataDir("relative/path", "") }},
		{"relative data config value", func() (string, error) { return ResolveDataDir("", "relative/config") }},
		{"relative output flag", func() (string, error) { return ResolveOutputDir("out", "") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.resolve()
			require.NoError(t, err)
			assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)
		})
	}
}
