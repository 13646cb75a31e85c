package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitWritesJSONLines(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(dir))
	t.Cleanup(func() { _ = Close() })

	Info("submission settled", "repo", "demo", "issues", []int{3, 7})
	require.NoError(t, Close())

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	require.NoError(t, err)
	require.Contains(t, string(data), `"msg":"submission settled"`)
	require.Contains(t, string(data), `"repo":"demo"`)
}

func TestLoggerBeforeInitDiscards(t *testing.T) {
	require.NoError(t, Close())
	require.NotPanics(t, func() {
		Warn("nothing configured")
	})
}

func TestInitWithEmptyDirDiscards(t *testing.T) {
	require.NoError(t, Init(""))
	t.Cleanup(func() { _ = Close() })
	require.NotNil(t, Logger())
}
