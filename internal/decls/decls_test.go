package decls

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trb-lang/trbc/ast"
	"github.com/trb-lang/trbc/internal/diag"
)

func writeDecl(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".d.trb"), []byte(body), 0o644))
}

func TestMemCacheLoadsAndMemoizes(t *testing.T) {
	dir := t.TempDir()
	writeDecl(t, dir, "list", "class List\n  def size() -> Integer\nend\n")

	c := NewCache()
	c.AddPath(dir)

	prog1, err := c.Load("list")
	require.NoError(t, err)
	require.Len(t, prog1.Declarations, 1)

	prog2, err := c.Load("list")
	require.NoError(t, err)
	assert.Same(t, prog1, prog2, "unchanged content should return the memoized program")
}

func TestMemCacheReparsesOnContentChange(t *testing.T) {
	dir := t.TempDir()
	writeDecl(t, dir, "list", "class List\n  def size() -> Integer\nend\n")

	c := NewCache()
	c.AddPath(dir)
	prog1, err := c.Load("list")
	require.NoError(t, err)

	writeDecl(t, dir, "list", "class List\n  def size() -> Integer\n  def empty() -> boolean\nend\n")
	prog2, err := c.Load("list")
	require.NoError(t, err)
	assert.NotSame(t, prog1, prog2)
}

func TestMemCacheMissingDeclarationIsResolutionError(t *testing.T) {
	c := NewCache()
	c.AddPath(t.TempDir())
	_, err := c.Load("nope")
	require.Error(t, err)
	var re *diag.ResolutionError
	assert.ErrorAs(t, err, &re)
}

func TestMemCacheSearchesLastAddedPathFirst(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	writeDecl(t, dirA, "list", "class List\n  def size() -> Integer\nend\n")
	writeDecl(t, dirB, "list", "class List\n  def size() -> Integer\n  def empty() -> boolean\nend\n")

	c := NewCache()
	c.AddPath(dirA)
	c.AddPath(dirB)

	prog, err := c.Load("list")
	require.NoError(t, err)
	cls, ok := prog.Declarations[0].(*ast.Class)
	require.True(t, ok)
	assert.Len(t, cls.Members, 2, "dirB was added last and should win the search")
}

func TestSQLiteCacheLoadsAndPersists(t *testing.T) {
	dir := t.TempDir()
	writeDecl(t, dir, "list", "class List\n  def size() -> Integer\nend\n")

	dbPath := filepath.Join(t.TempDir(), "decls.db")
	c, err := NewSQLiteCache(dbPath)
	require.NoError(t, err)
	c.AddPath(dir)

	prog, err := c.Load("list")
	require.NoError(t, err)
	require.Len(t, prog.Declarations, 1)

	reopened, err := NewSQLiteCache(dbPath)
	require.NoError(t, err)
	reopened.AddPath(dir)
	prog2, err := reopened.Load("list")
	require.NoError(t, err)
	require.Len(t, prog2.Declarations, 1)
}
