package ruby

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trb-lang/trbc/parser"
)

func regenerate(t *testing.T, src string) string {
	t.Helper()
	prog, err := parser.Parse("print_test.trb", src, parser.ModeStandard)
	require.NoError(t, err)
	return Regenerate(prog)
}

func TestRegenerateDropsTypeDeclarationsAndAnnotations(t *testing.T) {
	out := regenerate(t, `type ID = Integer | String

interface Greeter
  def greet(name: String) -> String
end

class Animal implements Greeter
  @name: String

  def initialize(name: String)
    @name = name
  end

  def speak(greeting: String) -> String
    greeting
  end
end
`)
	assert.NotContains(t, out, "type ID")
	assert.NotContains(t, out, "interface")
	assert.NotContains(t, out, "implements")
	assert.NotContains(t, out, "String")
	assert.Contains(t, out, "class Animal")
	assert.Contains(t, out, "def initialize(name)")
	assert.Contains(t, out, "@name = name")
	assert.Contains(t, out, "def speak(greeting)")
}

func TestRegeneratePrintsControlFlowAndBlocks(t *testing.T) {
	out := regenerate(t, `def classify(n: Integer) -> String
  if n > 0
    "positive"
  elsif n < 0
    "negative"
  else
    "zero"
  end
end

def sum_all(xs: Array<Integer>) -> Integer
  total = 0
  xs.each do |x|
    total = total + x
  end
  total
end
`)
	assert.Contains(t, out, "def classify(n)")
	assert.Contains(t, out, "if n > 0")
	assert.Contains(t, out, "elsif n < 0")
	assert.Contains(t, out, "else")
	assert.Contains(t, out, "xs.each do |x|")
	assert.Contains(t, out, "total = total + x")
}

func TestRegeneratePrivateVisibilityKeyword(t *testing.T) {
	out := regenerate(t, `class Widget
  def initialize(name: String)
    @name = name
  end

  private

  def helper() -> Integer
    1
  end
end
`)
	assert.Contains(t, out, "private")
	assert.Contains(t, out, "def helper()")
}
