// Package config loads trbconfig.yml, the build configuration spec §6.3
// describes: source selection, output layout, and compiler strictness.
// It follows blimu-dev-sdk-gen/internal/config's shape: read bytes,
// unmarshal, default, validate, absolutize relative directories.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/trb-lang/trbc/internal/diag"
)

// Strictness selects the compiler's tolerance mode, mirroring
// parser.Mode/infer.Mode/constraints.Mode.
type Strictness string

const (
	Strict     Strictness = "strict"
	Standard   Strictness = "standard"
	Permissive Strictness = "permissive"
)

// Source holds the input file selection settings.
type Source struct {
	Include    []string `yaml:"include"`
	Exclude    []string `yaml:"exclude"`
	Extensions []string `yaml:"extensions"`
}

// Output holds the output layout settings.
type Output struct {
	RubyDir           string `yaml:"ruby_dir"`
	RBSDir            string `yaml:"rbs_dir"`
	PreserveStructure bool   `yaml:"preserve_structure"`
	CleanBeforeBuild  bool   `yaml:"clean_before_build"`
}

// Checks holds the fine-grained check toggles under compiler.checks.*.
// Fields left unset in the YAML default to false except where noted.
type Checks struct {
	ImplicitAny         bool `yaml:"implicit_any"`
	UnusedVars          bool `yaml:"unused_vars"`
	StrictNil           bool `yaml:"strict_nil"`
	PersistentDeclCache bool `yaml:"persistent_decl_cache"`
}

// Compiler holds the strictness/emission settings.
type Compiler struct {
	Strictness            Strictness `yaml:"strictness"`
	GenerateRBS           bool       `yaml:"generate_rbs"`
	TargetLanguageVersion string     `yaml:"target_language_version"`
	Checks                Checks     `yaml:"checks"`
	Experimental          []string   `yaml:"experimental"`
}

// Config is the full trbconfig.yml document, per spec §6.3's key table.
type Config struct {
	Source   Source   `yaml:"source"`
	Output   Output   `yaml:"output"`
	Compiler Compiler `yaml:"compiler"`

	// baseDir is the directory trbconfig.yml was loaded from; relative
	// source/output paths are resolved against it.
	baseDir string
}

var knownTopLevel = map[string]bool{
	"source": true, "output": true, "compiler": true,
}

// Load reads path, unmarshals it into a Config, defaults and validates
// it, and absolutizes Source/Output directories against path's parent.
// Unknown top-level keys are ignored here rather than failing the load;
// UnknownKeys reports them separately (spec §6.3).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &diag.IOError{Path: path, Err: err}
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &diag.ConfigError{Message: fmt.Sprintf("parsing %s: %v", path, err)}
	}

	cfg.baseDir = filepath.Dir(path)
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.absolutize()
	return &cfg, nil
}

// UnknownKeys reads path, decodes it into a generic yaml.Node tree and returns the
// top-level keys Load's typed Config does not recognize, so a caller
// (the CLI) can surface them as ConfigError warnings without treating
// them as fatal.
func UnknownKeys(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &diag.IOError{Path: path, Err: err}
	}
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &diag.ConfigError{Message: fmt.Sprintf("parsing %s: %v", path, err)}
	}
	if len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, nil
	}
	mapping := root.Content[0]
	var unknown []string
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key := mapping.Content[i].Value
		if !knownTopLevel[key] {
			unknown = append(unknown, key)
		}
	}
	return unknown, nil
}

func (c *Config) applyDefaults() {
	if len(c.Source.Extensions) == 0 {
		c.Source.Extensions = []string{".trb"}
	}
	if len(c.Source.Include) == 0 {
		c.Source.Include = []string{"."}
	}
	if c.Output.RubyDir == "" {
		c.Output.RubyDir = "build/rb"
	}
	if c.Output.RBSDir == "" {
		c.Output.RBSDir = "build/rbs"
	}
	if c.Compiler.Strictness == "" {
		c.Compiler.Strictness = Standard
	}
}

func (c *Config) validate() error {
	switch c.Compiler.Strictness {
	case Strict, Standard, Permissive:
	default:
		return &diag.ConfigError{Key: "compiler.strictness", Message: fmt.Sprintf("unknown strictness %q", c.Compiler.Strictness)}
	}
	for _, pat := range append(append([]string{}, c.Source.Include...), c.Source.Exclude...) {
		if _, err := doublestar.Match(pat, "probe"); err != nil {
			return &diag.ConfigError{Key: "source.include/exclude", Message: fmt.Sprintf("invalid glob %q: %v", pat, err)}
		}
	}
	return nil
}

func (c *Config) absolutize() {
	c.Output.RubyDir = c.abs(c.Output.RubyDir)
	c.Output.RBSDir = c.abs(c.Output.RBSDir)
	for i, p := range c.Source.Include {
		c.Source.Include[i] = c.abs(p)
	}
}

func (c *Config) abs(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.baseDir, p)
}

// ResolveSources expands Source.Include against Source.Exclude using
// doublestar glob matching (spec §6.3's "patterns to skip"), returning
// every file under an include root whose extension is in
// Source.Extensions and that no exclude pattern matches.
func (c *Config) ResolveSources() ([]string, error) {
	hasExt := func(name string) bool {
		for _, ext := range c.Source.Extensions {
			if filepath.Ext(name) == ext {
				return true
			}
		}
		return false
	}
	excluded := func(rel string) bool {
		for _, pat := range c.Source.Exclude {
			if ok, _ := doublestar.Match(pat, rel); ok {
				return true
			}
		}
		return false
	}

	var out []string
	for _, root := range c.Source.Include {
		info, err := os.Stat(root)
		if err != nil {
			return nil, &diag.IOError{Path: root, Err: err}
		}
		if !info.IsDir() {
			if hasExt(root) {
				out = append(out, root)
			}
			continue
		}
		err = filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if !hasExt(p) {
				return nil
			}
			rel, relErr := filepath.Rel(root, p)
			if relErr != nil {
				rel = p
			}
			if excluded(rel) || excluded(p) {
				return nil
			}
			out = append(out, p)
			return nil
		})
		if err != nil {
			return nil, &diag.IOError{Path: root, Err: err}
		}
	}
	return out, nil
}
