package ruby

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trb-lang/trbc/parser"
)

func stripSource(t *testing.T, src string) string {
	t.Helper()
	prog, err := parser.Parse("strip_test.trb", src, parser.ModeStandard)
	require.NoError(t, err)
	out, err := Strip("strip_test.trb", src, prog)
	require.NoError(t, err)
	return out
}

func TestStripRemovesParamAndReturnTypeAnnotations(t *testing.T) {
	out := stripSource(t, "def add(a: Integer, b: Integer) -> Integer\n  a + b\nend\n")
	assert.Contains(t, out, "def add(a, b)")
	assert.Contains(t, out, "a + b")
	assert.NotContains(t, out, "Integer")
	assert.NotContains(t, out, "->")
}

func TestStripRemovesInterfaceAndTypeAliasBlocks(t *testing.T) {
	out := stripSource(t, `type ID = Integer | String

interface Greeter
  def greet(name: String) -> String
end

def hello() -> Integer
  1
end
`)
	assert.NotContains(t, out, "type ID")
	assert.NotContains(t, out, "interface Greeter")
	assert.NotContains(t, out, "Greeter")
	assert.Contains(t, out, "def hello()")
	assert.Contains(t, out, "1")
}

func TestStripRemovesClassAnnotationsAndImplementsClause(t *testing.T) {
	out := stripSource(t, `class Animal implements Greeter
  @name: String

  def initialize(name: String)
    @name = name
  end
end
`)
	assert.Contains(t, out, "class Animal")
	assert.NotContains(t, out, "implements")
	assert.NotContains(t, out, "Greeter")
	assert.Contains(t, out, "@name")
	assert.NotContains(t, out, "@name: String")
	assert.Contains(t, out, "def initialize(name)")
	assert.Contains(t, out, "@name = name")
}

func TestStripRemovesInlineDeclaredTypeAndTypeAssertion(t *testing.T) {
	out := stripSource(t, `def compute() -> Integer
  total: Integer = 1 + 2
  value = total.as(Integer)
  value
end
`)
	assert.Contains(t, out, "total = 1 + 2")
	assert.Contains(t, out, "value = total")
	assert.NotContains(t, out, ".as(")
	assert.NotContains(t, out, "total: Integer")
}

func TestStripRemovesConstantTypeAnnotation(t *testing.T) {
	out := stripSource(t, "MAX: Integer = 100\n")
	assert.Contains(t, out, "MAX = 100")
	assert.NotContains(t, out, "Integer")
}

func TestStripPreservesComments(t *testing.T) {
	out := stripSource(t, "# a helper\ndef add(a: Integer, b: Integer) -> Integer\n  a + b # sum\nend\n")
	assert.Contains(t, out, "# a helper")
	assert.Contains(t, out, "# sum")
}
