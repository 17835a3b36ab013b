package filex

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureDir_CreatesAndIdempotent(t *testing.T) {
	tmp := t.TempDir()
	dir := filepath.Join(tmp, "a", "b")

	require.NoError(t, EnsureDir(dir))
	require.NoError(t, EnsureDir(dir))

	fi, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, fi.IsDir())
}

func TestEnsureDir_FailsIfFileWithSameNameExists(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "taken")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o600))

	err := EnsureDir(target)
	require.Error(t, err, "should fail when a file exists with the same name")
}

func TestDataDir_RespectsXDGDataHome(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)

	got, err := DataDir("taskapp")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(tmp, "termvault", "taskapp"), got)
}

func TestDataDir_FallsBackToHome(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "")
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := DataDir("budgetapp")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".local", "share", "termvault", "budgetapp"), got)
}

func TestAtomicWrite_CreatesFileAndParents(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "sub", "users.json")

	require.NoError(t, AtomicWrite(path, []byte(`{}`), 0o600))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, []byte(`{}`), got)
}

func TestAtomicWrite_ReplacesContentCompletely(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "data.csv")

	require.NoError(t, AtomicWrite(path, []byte("first version, quite long"), 0o600))
	require.NoError(t, AtomicWrite(path, []byte("second"), 0o600))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "second", string(got))
}

func TestAtomicWrite_LeavesNoTempFiles(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "data.csv")

	require.NoError(t, AtomicWrite(path, []byte("payload"), 0o600))

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}
