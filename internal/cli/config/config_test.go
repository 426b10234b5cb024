package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ctl.yaml")
	in := &Config{DBPath: "/data/parley", Output: OutputJSON, Limit: 20}
	require.NoError(t, SaveToFile(in, path))

	out, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
}

func TestLoadRejectsBadOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output: xml\n"), 0o600))
	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoadMissingDefaultIsEmpty(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestLoadMissingExplicitPathFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
