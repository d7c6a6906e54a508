package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trb-lang/trbc/ast"
)

func TestParseSimpleFunction(t *testing.T) {
	src := `def add(a: Integer, b: Integer) -> Integer
  a + b
end
`
	prog, err := Parse("add.trb", src, ModeStandard)
	require.NoError(t, err)
	require.Len(t, prog.Declarations, 1)

	fn, ok := prog.Declarations[0].(*ast.Function)
	require.True(t, ok)
	assert.Equal(t, "add", fn.Name)
	assert.Len(t, fn.Params, 2)
	assert.Equal(t, "a", fn.Params[0].Name)
	require.Len(t, fn.Body, 1)

	es, ok := fn.Body[0].(*ast.ExprStmt)
	require.True(t, ok)
	bin, ok := es.Expression.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "+", bin.Op)
}

func TestParseClassWithIvarsAndMethods(t *testing.T) {
	src := `class Animal
  @name: String

  def initialize(name: String)
    @name = name
  end

  def speak() -> String
    "..."
  end
end
`
	prog, err := Parse("animal.trb", src, ModeStandard)
	require.NoError(t, err)
	require.Len(t, prog.Declarations, 1)

	cls, ok := prog.Declarations[0].(*ast.Class)
	require.True(t, ok)
	assert.Equal(t, "Animal", cls.Name)
	require.Len(t, cls.IVars, 1)
	assert.Equal(t, "name", cls.IVars[0].Name)
	require.Len(t, cls.Members, 2)

	init, ok := cls.Members[0].Decl.(*ast.Function)
	require.True(t, ok)
	assert.True(t, init.IsInitialize())
}

func TestParseIfElsif(t *testing.T) {
	src := `def classify(n: Integer) -> String
  if n < 0
    "negative"
  elsif n == 0
    "zero"
  else
    "positive"
  end
end
`
	prog, err := Parse("classify.trb", src, ModeStandard)
	require.NoError(t, err)
	fn := prog.Declarations[0].(*ast.Function)
	ifs, ok := fn.Body[0].(*ast.IfStmt)
	require.True(t, ok)
	assert.False(t, ifs.Negated)
	require.Len(t, ifs.ElsifClauses, 1)
	assert.Equal(t, `"positive"`, ast.LastValue(ifs.ElseBody).(*ast.Literal).Value)
}

func TestParseUnlessIsNegatedIf(t *testing.T) {
	src := `def guard(ok: Boolean) -> Void
  unless ok
    raise "not ok"
  end
end
`
	prog, err := Parse("guard.trb", src, ModeStandard)
	require.NoError(t, err)
	fn := prog.Declarations[0].(*ast.Function)
	ifs, ok := fn.Body[0].(*ast.IfStmt)
	require.True(t, ok)
	assert.True(t, ifs.Negated)
}

func TestParseTypeAliasAndInterface(t *testing.T) {
	src := `type ID = String | Integer

interface Greeter
  def greet(name: String) -> String
end
`
	prog, err := Parse("types.trb", src, ModeStandard)
	require.NoError(t, err)
	require.Contains(t, prog.TypeAliases, "ID")
	require.Contains(t, prog.Interfaces, "Greeter")
	assert.Len(t, prog.Interfaces["Greeter"].Methods, 1)
}

func TestParseStringInterpolation(t *testing.T) {
	src := "def hello(name: String) -> String\n  \"hi #{name}!\"\nend\n"
	prog, err := Parse("hello.trb", src, ModeStandard)
	require.NoError(t, err)
	fn := prog.Declarations[0].(*ast.Function)
	es := fn.Body[0].(*ast.ExprStmt)
	interp, ok := es.Expression.(*ast.Interpolation)
	require.True(t, ok)
	require.Len(t, interp.Parts, 3)
	assert.Equal(t, "hi ", interp.Parts[0].Str)
	ref, ok := interp.Parts[1].Expr.(*ast.VariableRef)
	require.True(t, ok)
	assert.Equal(t, "name", ref.Name)
	assert.Equal(t, "!", interp.Parts[2].Str)
}

func TestPermissiveModeAllowsUntypedParams(t *testing.T) {
	src := `def add(a, b)
  a + b
end
`
	_, err := Parse("add.trb", src, ModeStandard)
	assert.Error(t, err, "standard mode should reject an untyped parameter")

	prog, err := Parse("add.trb", src, ModePermissive)
	require.NoError(t, err)
	fn := prog.Declarations[0].(*ast.Function)
	assert.Nil(t, fn.Params[0].Type)
}
