// Package decls implements the declaration-search/import-resolution
// helper spec §6.4 names (`load_declaration`, `add_declaration_path`):
// a cache of parsed `.d.trb` declaration modules keyed by absolute path
// and content hash. With the default in-memory cache, a long-running
// watch session never re-parses an unchanged library declaration file;
// the sqlite-backed cache stores source text and re-parses it on a hit.
//
// The default Cache keeps entries in memory. When
// compiler.checks.persistent_decl_cache is enabled, NewSQLiteCache backs
// the same Cache interface with an embedded sqlite database via gorm,
// following termfx-morfx's db.Connect/db.Migrate shape (gorm.Open +
// AutoMigrate), so entries survive across process restarts.
package decls

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/trb-lang/trbc/ast"
	"github.com/trb-lang/trbc/internal/diag"
	"github.com/trb-lang/trbc/parser"
)

// Cache resolves declaration names to parsed .d.trb programs, searching
// a caller-extendable list of directories (add_declaration_path) and
// memoizing results by path + content hash (load_declaration).
type Cache interface {
	// AddPath appends dir to the search path, last-added-searched-first.
	AddPath(dir string)
	// Load resolves name (e.g. "collections/list") to a parsed
	// declaration Program, searching the configured paths for
	// "<name>.d.trb". Returns a ResolutionError if no path has it.
	Load(name string) (*ast.Program, error)
}

// memCache is the default, zero-dependency-at-runtime implementation:
// an in-memory map guarded by a mutex, safe for concurrent use across
// a watch session's repeated compiles.
type memCache struct {
	mu    sync.Mutex
	paths []string
	byKey map[string]*ast.Program // "<path>:<hash>" -> program
}

// NewCache creates the default in-memory declaration cache.
func NewCache() Cache {
	return &memCache{byKey: map[string]*ast.Program{}}
}

func (c *memCache) AddPath(dir string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = append(c.paths, dir)
}

func (c *memCache) Load(name string) (*ast.Program, error) {
	path, data, err := resolve(c.pathsSnapshot(), name)
	if err != nil {
		return nil, err
	}
	hash := contentHash(data)
	key := path + ":" + hash

	c.mu.Lock()
	if prog, ok := c.byKey[key]; ok {
		c.mu.Unlock()
		return prog, nil
	}
	c.mu.Unlock()

	prog, err := parser.Parse(path, string(data), parser.ModeStandard)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.byKey[key] = prog
	c.mu.Unlock()
	return prog, nil
}

func (c *memCache) pathsSnapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.paths...)
}

// sqliteCache persists declaration source text in an embedded database,
// one row per path together with its content hash, so entries survive
// across process restarts. Load still reads and hashes the file on every
// call to find the row; a row whose hash matches is re-parsed from its
// stored source (cheap, since .d.trb files have no bodies).
type sqliteCache struct {
	mu    sync.Mutex
	paths []string
	db    *gorm.DB
}

// NewSQLiteCache opens (creating if absent) an embedded sqlite database
// at dbPath and returns a Cache backed by it, following
// termfx-morfx/db.Connect's gorm.Open + AutoMigrate pattern with
// glebarez/sqlite's pure-Go dialector in place of cgo sqlite3.
func NewSQLiteCache(dbPath string) (Cache, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &diag.IOError{Path: dir, Err: err}
		}
	}
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("opening declaration cache %s: %w", dbPath, err)
	}
	if err := db.AutoMigrate(&entryRow{}); err != nil {
		return nil, fmt.Errorf("migrating declaration cache: %w", err)
	}
	return &sqliteCache{db: db}, nil
}

// entryRow is the gorm model backing sqliteCache: the parsed program is
// stored as its re-derivable declaration source text rather than a
// serialized AST, since ast.Program holds unexported parser state
// (none currently, but keeping the persisted shape plain text avoids
// coupling the on-disk schema to the AST's Go representation).
type entryRow struct {
	Path   string `gorm:"primaryKey"`
	Hash   string `gorm:"index"`
	Source string
}

func (c *sqliteCache) AddPath(dir string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = append(c.paths, dir)
}

func (c *sqliteCache) Load(name string) (*ast.Program, error) {
	c.mu.Lock()
	paths := append([]string{}, c.paths...)
	c.mu.Unlock()

	path, data, err := resolve(paths, name)
	if err != nil {
		return nil, err
	}
	hash := contentHash(data)

	var row entryRow
	if err := c.db.Where("path = ? AND hash = ?", path, hash).First(&row).Error; err == nil {
		return parser.Parse(path, row.Source, parser.ModeStandard)
	}

	prog, err := parser.Parse(path, string(data), parser.ModeStandard)
	if err != nil {
		return nil, err
	}
	c.db.Where("path = ?", path).Delete(&entryRow{})
	c.db.Create(&entryRow{Path: path, Hash: hash, Source: string(data)})
	return prog, nil
}

func resolve(paths []string, name string) (path string, data []byte, err error) {
	filename := name + ".d.trb"
	for i := len(paths) - 1; i >= 0; i-- {
		candidate := filepath.Join(paths[i], filename)
		if data, err := os.ReadFile(candidate); err == nil {
			return candidate, data, nil
		}
	}
	return "", nil, &diag.ResolutionError{Message: fmt.Sprintf("declaration %q not found on any configured path", name)}
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
