package trbc

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const addSource = `def add(a: Integer, b: Integer) -> Integer
  a + b
end
`

const brokenSource = `def add(
`

func writeSource(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestBuildCommandWritesOutputsAlongsideSource(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := writeSource(t, dir, "add.trb", addSource)

	err := New().Run(context.Background(), []string{"trbc", "build", path})
	require.NoError(t, err)

	runtime, err := os.ReadFile(filepath.Join(dir, "add.rb"))
	require.NoError(t, err)
	assert.Contains(t, string(runtime), "def add(a, b)")

	sig, err := os.ReadFile(filepath.Join(dir, "add.rbs"))
	require.NoError(t, err)
	assert.Contains(t, string(sig), "Integer")
}

func TestBuildCommandFailsOnBrokenSource(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := writeSource(t, dir, "bad.trb", brokenSource)

	err := New().Run(context.Background(), []string{"trbc", "build", path})
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "bad.rb"))
	assert.True(t, os.IsNotExist(statErr), "a file with errors must not produce runtime output")
}

func TestCheckCommandPassesOnCleanFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := writeSource(t, dir, "add.trb", addSource)

	err := New().Run(context.Background(), []string{"trbc", "check", path})
	require.NoError(t, err)
}

func TestCheckCommandFailsOnBrokenFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := writeSource(t, dir, "bad.trb", brokenSource)

	err := New().Run(context.Background(), []string{"trbc", "check", path})
	require.Error(t, err)
}

func TestEmitCommandPrintsRuntimeToStdout(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := writeSource(t, dir, "add.trb", addSource)

	r, w, err := os.Pipe()
	require.NoError(t, err)
	origStdout := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = origStdout }()

	runErr := New().Run(context.Background(), []string{"trbc", "emit", path})
	require.NoError(t, w.Close())
	os.Stdout = origStdout
	require.NoError(t, runErr)

	buf := make([]byte, 4096)
	n, _ := r.Read(buf)
	out := string(buf[:n])
	assert.Contains(t, out, "def add(a, b)")
	assert.NotContains(t, out, "Integer")
}

func TestWatchCommandReturnsWhenContextCancelled(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := writeSource(t, dir, "add.trb", addSource)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New().Run(ctx, []string{"trbc", "watch", path})
	require.NoError(t, err)
}
