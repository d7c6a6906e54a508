package trbc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoadConfigReturnsNilWhenTrbconfigAbsent(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestLoadConfigParsesTrbconfigWhenPresent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, defaultConfigName), []byte("source:\n  include: [\".\"]\n"), 0o644))
	chdir(t, dir)

	cfg, err := loadConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, []string{".trb"}, cfg.Source.Extensions)
}

func TestLoadConfigWarnsOnUnknownKeyWithoutFailing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, defaultConfigName), []byte("source:\n  include: [\".\"]\nweird_key: 1\n"), 0o644))
	chdir(t, dir)

	cfg, err := loadConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg)
}
