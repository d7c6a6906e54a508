package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trb-lang/trbc/internal/config"
	"github.com/trb-lang/trbc/internal/diag"
)

const sampleSource = `def add(a: Integer, b: Integer) -> Integer
  a + b
end
`

func TestCompileStringNeverRaisesOnParseError(t *testing.T) {
	c := New(nil)
	res := c.CompileString("bad.trb", "def add(\n")
	require.NotEmpty(t, res.Diagnostics)
	assert.Equal(t, diag.CategoryParse, res.Diagnostics[0].Category)
}

func TestCompileStringStripsTypesFromRuntime(t *testing.T) {
	c := New(nil)
	res := c.CompileString("add.trb", sampleSource)
	require.Empty(t, res.Diagnostics)
	assert.Contains(t, res.Runtime, "def add(a, b)")
	assert.NotContains(t, res.Runtime, "Integer")
	assert.Contains(t, res.Signature, "def add: (Integer, Integer) -> Integer")
}

func TestCompileFileWritesRubyAndRBSUnderOutputDirs(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "add.trb")
	require.NoError(t, os.WriteFile(srcPath, []byte(sampleSource), 0o644))

	c := New(nil)
	c.Config = nil // exercise the nil-config default output layout
	outPath, err := c.CompileFile(srcPath)
	require.NoError(t, err)
	assert.Equal(t, "add.rb", filepath.Base(outPath))

	runtime, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(runtime), "def add(a, b)")

	rbsPath := filepath.Join(filepath.Dir(outPath), "add.rbs")
	sigText, err := os.ReadFile(rbsPath)
	require.NoError(t, err)
	assert.Contains(t, string(sigText), "Integer")
}

func TestCompileFileRaisesOnMissingFile(t *testing.T) {
	c := New(nil)
	_, err := c.CompileFile(filepath.Join(t.TempDir(), "missing.trb"))
	require.Error(t, err)
	var ioErr *diag.IOError
	assert.ErrorAs(t, err, &ioErr)
}

func TestCompileToIRReturnsProgramWithoutWritingFiles(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "add.trb")
	require.NoError(t, os.WriteFile(srcPath, []byte(sampleSource), 0o644))

	c := New(nil)
	prog, err := c.CompileToIR(srcPath)
	require.NoError(t, err)
	require.Len(t, prog.Declarations, 1)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "compile_to_ir must not write any output file")
}

func TestCompileFromIRChainsOffAnExistingProgram(t *testing.T) {
	c := New(nil)
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "add.trb")
	require.NoError(t, os.WriteFile(srcPath, []byte(sampleSource), 0o644))
	prog, err := c.CompileToIR(srcPath)
	require.NoError(t, err)

	outPath, err := c.CompileFromIR(prog, filepath.Join(dir, "out.rb"))
	require.NoError(t, err)
	runtime, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(runtime), "def add(a, b)")
	assert.NotContains(t, string(runtime), "Integer")
}

func TestEmitDeclarationOmitsPrivateMembers(t *testing.T) {
	src := `class Widget
  def pub() -> Integer
    1
  end

  private

  def hidden() -> Integer
    2
  end
end
`
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "widget.trb")
	require.NoError(t, os.WriteFile(srcPath, []byte(src), 0o644))

	c := New(nil)
	declPath, err := c.EmitDeclaration(srcPath, filepath.Join(dir, "widget.d.trb"))
	require.NoError(t, err)
	out, err := os.ReadFile(declPath)
	require.NoError(t, err)
	assert.Contains(t, string(out), "def pub()")
	assert.NotContains(t, string(out), "hidden")
}

func TestLoadDeclarationResolvesFromAddedPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "list.d.trb"), []byte("class List\n  def size() -> Integer\nend\n"), 0o644))

	c := New(nil)
	c.AddDeclarationPath(dir)

	prog, err := c.LoadDeclaration("list")
	require.NoError(t, err)
	require.Len(t, prog.Declarations, 1)
}

func TestLoadDeclarationMissingIsResolutionError(t *testing.T) {
	c := New(nil)
	c.AddDeclarationPath(t.TempDir())
	_, err := c.LoadDeclaration("nope")
	require.Error(t, err)
	var re *diag.ResolutionError
	assert.ErrorAs(t, err, &re)
}

func TestNewUsesPersistentDeclCacheWhenConfigured(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{Output: config.Output{RubyDir: filepath.Join(dir, "build", "rb")}}
	cfg.Compiler.Checks.PersistentDeclCache = true

	require.NoError(t, os.WriteFile(filepath.Join(dir, "list.d.trb"), []byte("class List\n  def size() -> Integer\nend\n"), 0o644))

	c := New(cfg)
	c.AddDeclarationPath(dir)
	prog, err := c.LoadDeclaration("list")
	require.NoError(t, err)
	require.Len(t, prog.Declarations, 1)

	_, err = os.Stat(filepath.Join(dir, "build", "trbc-decls.db"))
	assert.NoError(t, err, "persistent_decl_cache should create the sqlite database under the output tree")
}
