package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "trbconfig.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "source:\n  include: [\".\"]\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{".trb"}, cfg.Source.Extensions)
	assert.Equal(t, Standard, cfg.Compiler.Strictness)
	assert.True(t, filepath.IsAbs(cfg.Output.RubyDir))
	assert.True(t, filepath.IsAbs(cfg.Output.RBSDir))
}

func TestLoadRejectsUnknownStrictness(t *testing.T) {
	path := writeConfig(t, "compiler:\n  strictness: reckless\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strictness")
}

func TestLoadRejectsInvalidGlob(t *testing.T) {
	path := writeConfig(t, "source:\n  exclude: [\"[\"]\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestUnknownKeysReportsExtraTopLevel(t *testing.T) {
	path := writeConfig(t, "source:\n  include: [\".\"]\nweird_key: true\n")
	unknown, err := UnknownKeys(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"weird_key"}, unknown)
}

func TestResolveSourcesFiltersByExtensionAndExclude(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.trb"), []byte(""), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.rb"), []byte(""), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "vendor"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vendor", "c.trb"), []byte(""), 0o644))

	cfg := &Config{
		Source: Source{
			Include:    []string{dir},
			Exclude:    []string{"vendor/**"},
			Extensions: []string{".trb"},
		},
	}
	files, err := cfg.ResolveSources()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(dir, "a.trb"), files[0])
}
