package sig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trb-lang/trbc/ast"
	"github.com/trb-lang/trbc/parser"
)

func parseProgram(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := parser.Parse("sig_test.trb", src, parser.ModeStandard)
	require.NoError(t, err)
	return prog
}

func TestBuildFlattensTopLevelFunction(t *testing.T) {
	prog := parseProgram(t, `def add(a: Integer, b: Integer) -> Integer
  a + b
end
`)
	out := Build(prog, Options{})
	require.Len(t, out.Functions, 1)
	fn := out.Functions[0]
	assert.Equal(t, "add", fn.Name)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "a", fn.Params[0].Name)
}

func TestBuildOmitsPrivateMembersByDefault(t *testing.T) {
	prog := parseProgram(t, `class Widget
  def initialize(name: String)
    @name = name
  end

  private

  def helper
    1
  end
end
`)
	out := Build(prog, Options{IncludePrivate: false})
	require.Len(t, out.Classes, 1)
	names := make(map[string]bool)
	for _, m := range out.Classes[0].Methods {
		names[m.Name] = true
	}
	assert.True(t, names["initialize"])
	assert.False(t, names["helper"], "private method should be omitted when IncludePrivate is false")
}

func TestBuildKeepsPrivateMembersWhenRequested(t *testing.T) {
	prog := parseProgram(t, `class Widget
  def initialize(name: String)
    @name = name
  end

  private

  def helper
    1
  end
end
`)
	out := Build(prog, Options{IncludePrivate: true})
	require.Len(t, out.Classes, 1)
	names := make(map[string]bool)
	for _, m := range out.Classes[0].Methods {
		names[m.Name] = true
	}
	assert.True(t, names["helper"])
}

func TestBuildFlattensClassHierarchyFields(t *testing.T) {
	prog := parseProgram(t, `class Dog < Animal implements Greeter
  @name: String

  def speak() -> String
    "woof"
  end
end
`)
	out := Build(prog, Options{})
	require.Len(t, out.Classes, 1)
	cls := out.Classes[0]
	assert.Equal(t, "Animal", cls.Parent)
	assert.Contains(t, cls.Implements, "Greeter")
	require.Len(t, cls.IVars, 1)
	assert.Equal(t, "name", cls.IVars[0].Name)
}

func TestBuildFlattensInterfaceMethods(t *testing.T) {
	prog := parseProgram(t, `interface Greeter
  def speak() -> String
end
`)
	out := Build(prog, Options{})
	require.Len(t, out.Interfaces, 1)
	require.Len(t, out.Interfaces[0].Methods, 1)
	assert.Equal(t, "speak", out.Interfaces[0].Methods[0].Name)
}

func TestBuildFlattensTypeAlias(t *testing.T) {
	prog := parseProgram(t, `type ID = Integer | String
`)
	out := Build(prog, Options{})
	require.Len(t, out.Aliases, 1)
	assert.Equal(t, "ID", out.Aliases[0].Name)
}
