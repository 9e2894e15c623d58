package switches

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsUsable(t *testing.T) {
	s := Default()
	require.Greater(t, s.MaxRuns, 0)
	require.Equal(t, PruneAll, s.Prune)
}

func TestLoadYAMLOverlaysFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_runs: 3\nskr: true\n"), 0o644))

	s, err := LoadYAML(Default(), path)
	require.NoError(t, err)
	require.Equal(t, 3, s.MaxRuns)
	require.True(t, s.SKR)
	require.Equal(t, PruneAll, s.Prune, "fields absent from the file keep their default")
}

func TestLoadYAMLMissingFile(t *testing.T) {
	_, err := LoadYAML(Default(), "/nonexistent/path.yaml")
	require.Error(t, err)
}
