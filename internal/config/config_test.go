package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err, "explicit config path must exist")

	cfg, err = LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, []string{"."}, cfg.Roots)
	assert.False(t, cfg.IgnoreTests)
	assert.False(t, cfg.PackagesOnly)
	assert.Empty(t, cfg.IgnoreNotFound)
}

func TestLoadConfig_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sourcetrace.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`roots:
  - src
  - lib
ignore_tests: true
packages_only: true
ignore_not_found:
  - pkg.optional
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"src", "lib"}, cfg.Roots)
	assert.True(t, cfg.IgnoreTests)
	assert.True(t, cfg.PackagesOnly)
	assert.Equal(t, []string{"pkg.optional"}, cfg.IgnoreNotFound)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("SOURCETRACE_IGNORE_TESTS", "true")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.True(t, cfg.IgnoreTests)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	valid := Config{Roots: []string{".", "src"}}
	assert.NoError(t, valid.Validate())

	invalid := Config{Roots: []string{".", ""}}
	assert.Error(t, invalid.Validate())
}
