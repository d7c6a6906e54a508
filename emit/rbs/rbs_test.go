package rbs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trb-lang/trbc/parser"
	"github.com/trb-lang/trbc/sig"
)

func buildSig(t *testing.T, src string) *sig.Program {
	t.Helper()
	prog, err := parser.Parse("rbs_test.trb", src, parser.ModeStandard)
	require.NoError(t, err)
	return sig.Build(prog, sig.Options{})
}

func TestEmitSimpleFunctionSignature(t *testing.T) {
	s := buildSig(t, `def add(a: Integer, b: Integer) -> Integer
  a + b
end
`)
	out := Emit(s)
	assert.Contains(t, out, "def add: (Integer, Integer) -> Integer")
}

func TestEmitPositionalAndOptionalParams(t *testing.T) {
	s := buildSig(t, `def greet(name: String, loud: Boolean = false) -> String
  name
end
`)
	out := Emit(s)
	assert.Contains(t, out, "def greet: (String, ?boolean) -> String")
}

func TestEmitOptionalTypeSugar(t *testing.T) {
	s := buildSig(t, `def find(id: Integer) -> String?
  nil
end
`)
	out := Emit(s)
	assert.Contains(t, out, "def find: (Integer) -> String?")
}

func TestEmitUnionType(t *testing.T) {
	s := buildSig(t, `def pick() -> Integer | String
  1
end
`)
	out := Emit(s)
	assert.Contains(t, out, "-> (Integer | String)")
}

func TestEmitClassWithIvarsAndMethods(t *testing.T) {
	s := buildSig(t, `class Animal
  @name: String

  def initialize(name: String)
    @name = name
  end

  def speak() -> String
    "..."
  end
end
`)
	out := Emit(s)
	assert.Contains(t, out, "class Animal")
	assert.Contains(t, out, "@name: String")
	assert.Contains(t, out, "def speak: () -> String")
	assert.Contains(t, out, "end")
}

func TestEmitInterfaceMethodsOnly(t *testing.T) {
	s := buildSig(t, `interface Greeter
  def greet(name: String) -> String
end
`)
	out := Emit(s)
	assert.Contains(t, out, "interface Greeter")
	assert.Contains(t, out, "def greet: (String) -> String")
}

func TestEmitTypeAlias(t *testing.T) {
	s := buildSig(t, `type ID = Integer | String
`)
	out := Emit(s)
	assert.Contains(t, out, "type ID = (Integer | String)")
}

func TestEmitUntypedPlaceholderInPermissiveMode(t *testing.T) {
	prog, err := parser.Parse("rbs_test.trb", "def add(a, b)\n  a + b\nend\n", parser.ModePermissive)
	require.NoError(t, err)
	s := sig.Build(prog, sig.Options{})
	out := Emit(s)
	assert.Contains(t, out, "def add: (untyped, untyped) -> untyped")
}
