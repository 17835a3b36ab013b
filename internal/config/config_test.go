package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)

	cfg, err := Load("taskapp", "")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(tmp, "termvault", "taskapp"), cfg.DataDir)
	require.False(t, cfg.Verbose)
}

func TestLoad_JSONOverlay(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)

	overlay := filepath.Join(tmp, "cfg.json")
	require.NoError(t, os.WriteFile(overlay, []byte(`{"data_dir":"/custom/dir","verbose":true}`), 0o600))

	cfg, err := Load("taskapp", overlay)
	require.NoError(t, err)
	require.Equal(t, "/custom/dir", cfg.DataDir)
	require.True(t, cfg.Verbose)
}

func TestLoad_PartialOverlayKeepsDefaults(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)

	overlay := filepath.Join(tmp, "cfg.json")
	require.NoError(t, os.WriteFile(overlay, []byte(`{"verbose":true}`), 0o600))

	cfg, err := Load("budgetapp", overlay)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(tmp, "termvault", "budgetapp"), cfg.DataDir)
	require.True(t, cfg.Verbose)
}

func TestLoad_BadOverlay(t *testing.T) {
	tmp := t.TempDir()
	overlay := filepath.Join(tmp, "cfg.json")
	require.NoError(t, os.WriteFile(overlay, []byte("{broken"), 0o600))

	_, err := Load("taskapp", overlay)
	require.Error(t, err)
}

func TestLoad_MissingOverlay(t *testing.T) {
	_, err := Load("taskapp", filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}
