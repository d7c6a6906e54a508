// Package compiler implements the compiler façade (spec §4.14): a
// single object tying the lexer, parser, inferrer, constraint checker,
// optimizer, and the three emitters together into the four entry
// points a caller actually needs (compile_file, compile_string,
// compile_to_ir, compile_from_ir), plus the declaration-file publishing
// operation named in §4.13/§6.4.
//
// Grounded on rugo's own compiler.Compiler: a config-bearing struct
// exposing a handful of Compile* methods that internally thread a
// single *ast.Program through parse → resolve → generate.
package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/trb-lang/trbc/ast"
	"github.com/trb-lang/trbc/constraints"
	"github.com/trb-lang/trbc/emit/decltrb"
	"github.com/trb-lang/trbc/emit/rbs"
	"github.com/trb-lang/trbc/emit/ruby"
	"github.com/trb-lang/trbc/infer"
	"github.com/trb-lang/trbc/internal/config"
	"github.com/trb-lang/trbc/internal/decls"
	"github.com/trb-lang/trbc/internal/diag"
	"github.com/trb-lang/trbc/internal/span"
	"github.com/trb-lang/trbc/optimize"
	"github.com/trb-lang/trbc/parser"
	"github.com/trb-lang/trbc/sig"
	"github.com/trb-lang/trbc/typesys"
)

// Compiler ties the pipeline stages together under one configuration.
// A Compiler is safe to call from multiple goroutines provided each
// call compiles a distinct file or source string: every entry point
// below builds its own Registry/Inferrer/Checker per call, so no
// invocation shares mutable state with another (spec §5's parallelism
// contract).
type Compiler struct {
	Config *config.Config
	Log    zerolog.Logger

	// Decls backs LoadDeclaration/AddDeclarationPath (spec §6.4). Defaults
	// to an in-memory cache; New switches to a persistent sqlite-backed
	// one when compiler.checks.persistent_decl_cache is set.
	Decls decls.Cache

	// MaxOptimizeRounds bounds the optimizer's fixed-point loop; 0
	// means unbounded (fine for a one-shot compile_file/compile_string
	// call, but a caller driving a watch loop should set a bound).
	MaxOptimizeRounds int
}

// New constructs a Compiler over cfg. It logs to stderr through zerolog,
// with a timestamp and a component=compiler field on every line.
func New(cfg *config.Config) *Compiler {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("component", "compiler").Logger()
	return &Compiler{
		Config: cfg,
		Log:    log,
		Decls:  newDeclCache(cfg, log),
	}
}

// newDeclCache picks the declaration cache backing LoadDeclaration: a
// sqlite-backed one under the configured output tree when
// compiler.checks.persistent_decl_cache is set (surviving across a
// watch session's repeated compiles), falling back to the zero-config
// in-memory cache otherwise, or if opening the database fails.
func newDeclCache(cfg *config.Config, log zerolog.Logger) decls.Cache {
	if cfg == nil || !cfg.Compiler.Checks.PersistentDeclCache {
		return decls.NewCache()
	}
	dbPath := filepath.Join(filepath.Dir(cfg.Output.RubyDir), "trbc-decls.db")
	cache, err := decls.NewSQLiteCache(dbPath)
	if err != nil {
		log.Warn().Err(err).Str("path", dbPath).Msg("opening persistent declaration cache failed, falling back to in-memory cache")
		return decls.NewCache()
	}
	return cache
}

func (c *Compiler) strictness() (parser.Mode, infer.Mode, constraints.Mode) {
	if c.Config == nil {
		return parser.ModeStandard, infer.ModeStrict, constraints.ModeStrict
	}
	switch c.Config.Compiler.Strictness {
	case config.Strict:
		return parser.ModeStrict, infer.ModeStrict, constraints.ModeStrict
	case config.Permissive:
		return parser.ModePermissive, infer.ModePermissive, constraints.ModePermissive
	default:
		return parser.ModeStandard, infer.ModeStrict, constraints.ModeStrict
	}
}

func (c *Compiler) generateRBS() bool {
	return c.Config == nil || c.Config.Compiler.GenerateRBS
}

// Result is one compilation's full output: the runtime source, the
// signature source (empty when RBS generation is disabled), and the
// accumulated diagnostics from inference and constraint checking.
type Result struct {
	Runtime     string
	Signature   string
	Program     *ast.Program
	Diagnostics []diag.Diagnostic
}

// CompileFile reads path, runs it through the full pipeline, and writes
// the runtime (.rb) and, when enabled, signature (.rbs) output under
// the configured output directories, mirroring path's relative
// position under its source.include root when PreserveStructure is
// set. With no Config, output is written next to path. Returns the
// runtime output path. Raises on I/O errors and on a fatal parse error,
// per spec §4.14's failure semantics for file-path entry points.
func (c *Compiler) CompileFile(path string) (string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", &diag.IOError{Path: path, Err: err}
	}

	res, err := c.compile(path, string(src), true)
	if err != nil {
		return "", err
	}
	if res.hasFatalParseError {
		return "", res.parseErr
	}

	outDir := filepath.Dir(path)
	if c.Config != nil {
		outDir = c.Config.Output.RubyDir
	}
	rel := c.relativeOutputPath(path)
	rubyPath := filepath.Join(outDir, rel)
	rubyPath = rubyPath[:len(rubyPath)-len(filepath.Ext(rubyPath))] + ".rb"

	if err := writeAtomic(rubyPath, []byte(res.Runtime)); err != nil {
		return "", err
	}
	c.Log.Info().Str("input", path).Str("output", rubyPath).Msg("wrote runtime output")

	if c.generateRBS() {
		rbsDir := filepath.Dir(path)
		if c.Config != nil {
			rbsDir = c.Config.Output.RBSDir
		}
		rbsPath := filepath.Join(rbsDir, rel)
		rbsPath = rbsPath[:len(rbsPath)-len(filepath.Ext(rbsPath))] + ".rbs"
		if err := writeAtomic(rbsPath, []byte(res.Signature)); err != nil {
			return "", err
		}
		c.Log.Info().Str("input", path).Str("output", rbsPath).Msg("wrote signature output")
	}

	return rubyPath, nil
}

// relativeOutputPath mirrors path's position under the first
// source.include root it falls under, so output trees match the source
// tree when Output.PreserveStructure is set; otherwise it returns just
// the base name.
func (c *Compiler) relativeOutputPath(path string) string {
	if c.Config == nil || !c.Config.Output.PreserveStructure {
		return filepath.Base(path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Base(path)
	}
	for _, root := range c.Config.Source.Include {
		rel, err := filepath.Rel(root, abs)
		if err == nil && !strings.HasPrefix(rel, "..") {
			return rel
		}
	}
	return filepath.Base(path)
}

// CompileString runs source through the full pipeline in memory and
// never raises: syntax and type errors alike are reported in
// Result.Diagnostics, the contract the web playground relies on (spec
// §4.14).
func (c *Compiler) CompileString(file, source string) *Result {
	res, err := c.compile(file, source, false)
	if err != nil {
		// compile only returns a non-diagnostic error for I/O, which
		// cannot happen on the in-memory path; treat defensively as a
		// single diagnostic rather than panicking the caller.
		return &Result{Diagnostics: []diag.Diagnostic{{
			Severity: diag.SeverityError,
			Category: diag.CategoryIO,
			Message:  err.Error(),
		}}}
	}
	if res.hasFatalParseError {
		d := diag.Diagnostic{
			Severity: diag.SeverityError,
			File:     file,
			Category: diag.CategoryParse,
			Message:  res.parseErr.Error(),
		}
		if pe, ok := res.parseErr.(*diag.ParseError); ok {
			d.Span = pe.Span
			d.Message = pe.Message
		}
		return &Result{Diagnostics: []diag.Diagnostic{d}}
	}
	return &Result{
		Runtime:     res.Runtime,
		Signature:   res.Signature,
		Program:     res.Program,
		Diagnostics: res.Diagnostics,
	}
}

// CompileToIR parses and type-infers path without emitting anything,
// returning the resulting Program for external tooling (an LSP
// front-end, a doc generator) that wants the IR directly.
func (c *Compiler) CompileToIR(path string) (*ast.Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &diag.IOError{Path: path, Err: err}
	}
	pmode, imode, cmode := c.strictness()
	prog, err := parser.Parse(path, string(src), pmode)
	if err != nil {
		return nil, err
	}
	reg := typesys.NewRegistry()
	registerAliases(reg, prog)
	infer.InferProgram(prog, reg, imode)
	constraints.CheckProgram(prog, reg, cmode)
	return prog, nil
}

// CompileFromIR skips parsing entirely and emits prog's runtime and
// (when enabled) signature output directly to outputPath, for chaining
// a tool that already holds a Program (e.g. one produced by
// CompileToIR, possibly rewritten by an external pass). Since there is
// no original source text to preserve, runtime output always uses the
// regenerative printer.
func (c *Compiler) CompileFromIR(prog *ast.Program, outputPath string) (string, error) {
	runtime := ruby.Regenerate(prog)
	rubyPath := outputPath
	ext := filepath.Ext(rubyPath)
	if ext != ".rb" {
		rubyPath = rubyPath[:len(rubyPath)-len(ext)] + ".rb"
	}
	if err := writeAtomic(rubyPath, []byte(runtime)); err != nil {
		return "", err
	}
	if c.generateRBS() {
		sigProg := sig.Build(prog, sig.Options{IncludePrivate: true})
		rbsPath := rubyPath[:len(rubyPath)-len(".rb")] + ".rbs"
		if err := writeAtomic(rbsPath, []byte(rbs.Emit(sigProg))); err != nil {
			return "", err
		}
	}
	return rubyPath, nil
}

// EmitDeclaration renders path's public (non-private) declaration shape
// as a .d.trb document at outputPath (spec §4.13/§6.4's publishing
// operation for library type definitions).
func (c *Compiler) EmitDeclaration(path, outputPath string) (string, error) {
	prog, err := c.CompileToIR(path)
	if err != nil {
		return "", err
	}
	sigProg := sig.Build(prog, sig.Options{IncludePrivate: false})
	if err := writeAtomic(outputPath, []byte(decltrb.Emit(sigProg))); err != nil {
		return "", err
	}
	return outputPath, nil
}

// AddDeclarationPath extends the search path LoadDeclaration resolves
// names against (spec §6.4's add_declaration_path), last-added-searched-
// first, so a caller can shadow a previously added library path with a
// more specific one.
func (c *Compiler) AddDeclarationPath(path string) {
	c.Decls.AddPath(path)
}

// LoadDeclaration resolves name (e.g. "collections/list") to a parsed
// .d.trb Program (spec §6.4's load_declaration), searching the paths
// AddDeclarationPath has registered. Results are memoized by
// internal/decls per path + content hash.
func (c *Compiler) LoadDeclaration(name string) (*ast.Program, error) {
	return c.Decls.Load(name)
}

// pipelineResult is the shared internal outcome of running a source
// string through parse → infer → check → (optimize) → emit, before the
// file-based and string-based entry points diverge on failure handling.
type pipelineResult struct {
	Runtime            string
	Signature          string
	Program            *ast.Program
	Diagnostics        []diag.Diagnostic
	hasFatalParseError bool
	parseErr           error
}

func (c *Compiler) compile(file, source string, optimizeProgram bool) (*pipelineResult, error) {
	pmode, imode, cmode := c.strictness()

	prog, err := parser.Parse(file, source, pmode)
	if err != nil {
		return &pipelineResult{hasFatalParseError: true, parseErr: err}, nil
	}

	reg := typesys.NewRegistry()
	aliasErrs := registerAliases(reg, prog)

	diags := &diag.Bag{}
	for _, aerr := range aliasErrs {
		diags.Addf(diag.SeverityError, diag.CategoryResolution, span.Span{File: file}, "%s", aerr.Error())
	}
	for _, d := range infer.InferProgram(prog, reg, imode).All() {
		diags.Add(d)
	}
	for _, d := range constraints.CheckProgram(prog, reg, cmode).All() {
		diags.Add(d)
	}

	runtime := ""
	optimized := false
	if optimizeProgram && c.shouldOptimize() {
		res := optimize.Run(prog, optimize.DefaultPasses(), c.MaxOptimizeRounds)
		prog = res.Program
		optimized = len(res.Stats) > 0
		c.Log.Debug().Int("rounds", res.Rounds).Int("passes_run", len(res.Stats)).Msg("optimizer finished")
	}

	if optimized {
		runtime = ruby.Regenerate(prog)
	} else {
		runtime, err = ruby.Strip(file, source, prog)
		if err != nil {
			return nil, err
		}
	}

	signature := ""
	if c.generateRBS() {
		sigProg := sig.Build(prog, sig.Options{IncludePrivate: true})
		signature = rbs.Emit(sigProg)
	}

	return &pipelineResult{
		Runtime:     runtime,
		Signature:   signature,
		Program:     prog,
		Diagnostics: diags.Sorted(),
	}, nil
}

func (c *Compiler) shouldOptimize() bool {
	if c.Config == nil {
		return false
	}
	for _, name := range c.Config.Compiler.Experimental {
		if name == "optimize" {
			return true
		}
	}
	return false
}

// registerAliases performs the two-phase registration
// typesys.Registry requires (Declare every name, then Register each
// target) over prog's top-level type aliases, so forward references
// between aliases resolve before inference runs. Returns one error per
// alias Register rejected (a cyclic alias; duplicates cannot occur
// since prog.TypeAliases is already keyed by name).
func registerAliases(reg *typesys.Registry, prog *ast.Program) []error {
	for name := range prog.TypeAliases {
		reg.Declare(name)
	}
	var errs []error
	for name, alias := range prog.TypeAliases {
		if err := reg.Register(name, alias.Generics, alias.Target); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// writeAtomic writes data to a temporary file in path's directory, then
// renames it into place, per spec §5's "write to a temporary path, then
// rename" discipline. Output directories are created on demand; the
// temp suffix comes from google/uuid so concurrent writers targeting
// the same final path never collide on the temp name.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &diag.IOError{Path: dir, Err: err}
	}
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()))
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &diag.IOError{Path: tmp, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return &diag.IOError{Path: path, Err: err}
	}
	return nil
}
