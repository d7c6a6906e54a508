package decltrb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trb-lang/trbc/parser"
	"github.com/trb-lang/trbc/sig"
)

func buildDecl(t *testing.T, src string) *sig.Program {
	t.Helper()
	prog, err := parser.Parse("decltrb_test.trb", src, parser.ModeStandard)
	require.NoError(t, err)
	return sig.Build(prog, sig.Options{IncludePrivate: false})
}

func TestEmitFunctionDeclarationHasNoBody(t *testing.T) {
	s := buildDecl(t, `def add(a: Integer, b: Integer) -> Integer
  a + b
end
`)
	out := Emit(s)
	assert.Contains(t, out, "def add(a: Integer, b: Integer) -> Integer")
	assert.NotContains(t, out, "a + b")
}

func TestEmitOmitsPrivateMethods(t *testing.T) {
	s := buildDecl(t, `class Widget
  def initialize(name: String)
    @name = name
  end

  private

  def helper
    1
  end
end
`)
	out := Emit(s)
	assert.Contains(t, out, "def initialize(name: String)")
	assert.NotContains(t, out, "helper")
}

func TestEmitClassWithIvars(t *testing.T) {
	s := buildDecl(t, `class Animal
  @name: String

  def speak() -> String
    "..."
  end
end
`)
	out := Emit(s)
	assert.Contains(t, out, "class Animal")
	assert.Contains(t, out, "@name: String")
	assert.Contains(t, out, "def speak() -> String")
}

func TestEmitInterfaceDeclaration(t *testing.T) {
	s := buildDecl(t, `interface Greeter
  def greet(name: String) -> String
end
`)
	out := Emit(s)
	assert.Contains(t, out, "interface Greeter")
	assert.Contains(t, out, "def greet(name: String) -> String")
}

func TestEmitTypeAliasDeclaration(t *testing.T) {
	s := buildDecl(t, `type ID = Integer | String
`)
	out := Emit(s)
	assert.Contains(t, out, "type ID = Integer | String")
}
