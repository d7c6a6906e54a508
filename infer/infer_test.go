package infer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trb-lang/trbc/ast"
	"github.com/trb-lang/trbc/parser"
	"github.com/trb-lang/trbc/typesys"
)

func inferSource(t *testing.T, src string) (*ast.Program, *Inferrer) {
	t.Helper()
	prog, err := parser.Parse("infer_test.trb", src, parser.ModeStandard)
	require.NoError(t, err)
	reg := typesys.NewRegistry()
	inf := New(reg, ModeStrict)
	inf.BuildTables(prog)
	return prog, inf
}

func TestInferImplicitReturn(t *testing.T) {
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
	prog, inf := inferSource(t, src)
	fn := prog.Declarations[0].(*ast.Function)
	got := inf.InferFunction(fn, nil)
	nt, ok := got.(*ast.NamedType)
	require.True(t, ok)
	assert.Equal(t, ast.BuiltinString, nt.Name)
}

func TestInferConstructorIsAlwaysVoid(t *testing.T) {
	src := `class Point
  @x: Integer

  def initialize(x: Integer)
    @x = x
  end
end
`
	prog, inf := inferSource(t, src)
	cls := prog.Declarations[0].(*ast.Class)
	init := cls.Members[0].Decl.(*ast.Function)
	got := inf.InferFunction(init, &ast.NamedType{Name: "Point"})
	nt, ok := got.(*ast.NamedType)
	require.True(t, ok)
	assert.Equal(t, ast.BuiltinVoid, nt.Name)
}

func TestInferFunctionUnifiesExplicitMidBodyReturnWithTail(t *testing.T) {
	src := `def f(x: Integer)
  if x > 0
    return 1
  end
  "s"
end
`
	prog, inf := inferSource(t, src)
	fn := prog.Declarations[0].(*ast.Function)
	got := inf.InferFunction(fn, nil)
	union, ok := got.(*ast.Union)
	require.True(t, ok, "expected a union of the mid-body return and the tail expression, got %T", got)

	names := make([]string, len(union.Members))
	for i, m := range union.Members {
		nt, ok := m.(*ast.NamedType)
		require.True(t, ok)
		names[i] = nt.Name
	}
	assert.ElementsMatch(t, []string{ast.BuiltinInteger, ast.BuiltinString}, names)
}

func TestInferArithmeticPromotesToFloat(t *testing.T) {
	src := `def mix(a: Integer, b: Float) -> Float
  a + b
end
`
	prog, inf := inferSource(t, src)
	fn := prog.Declarations[0].(*ast.Function)
	got := inf.InferFunction(fn, nil)
	nt, ok := got.(*ast.NamedType)
	require.True(t, ok)
	assert.Equal(t, ast.BuiltinFloat, nt.Name)
}

func TestInferMethodCallReturnTypeThroughParent(t *testing.T) {
	src := `class Animal
  def speak() -> String
    "..."
  end
end

class Dog < Animal
end

def describe(d: Dog) -> String
  d.speak()
end
`
	prog, inf := inferSource(t, src)
	var describe *ast.Function
	for _, d := range prog.Declarations {
		if fn, ok := d.(*ast.Function); ok && fn.Name == "describe" {
			describe = fn
		}
	}
	require.NotNil(t, describe)
	got := inf.InferFunction(describe, nil)
	nt, ok := got.(*ast.NamedType)
	require.True(t, ok)
	assert.Equal(t, ast.BuiltinString, nt.Name)
}

func TestInferArrayElementType(t *testing.T) {
	src := `def first(xs: [Integer]) -> Integer
  xs[0]
end
`
	prog, inf := inferSource(t, src)
	fn := prog.Declarations[0].(*ast.Function)
	got := inf.InferFunction(fn, nil)
	nt, ok := got.(*ast.NamedType)
	require.True(t, ok)
	assert.Equal(t, ast.BuiltinInteger, nt.Name)
}

func TestInferCacheIsConsistentAcrossRepeatedLookups(t *testing.T) {
	src := `def square(n: Integer) -> Integer
  n * n
end
`
	prog, inf := inferSource(t, src)
	fn := prog.Declarations[0].(*ast.Function)
	body := fn.Body[0].(*ast.ExprStmt)

	first := inf.InferExpr(body.Expression, NewEnv().WithSelf(nil))
	second, ok := inf.CachedType(body.Expression)
	require.True(t, ok)
	assert.Same(t, first, second)
}

func TestInferDeclaredReturnTypeMismatchIsRecorded(t *testing.T) {
	src := `def bad() -> Integer
  "oops"
end
`
	prog, inf := inferSource(t, src)
	fn := prog.Declarations[0].(*ast.Function)
	inf.InferFunction(fn, nil)
	assert.True(t, inf.diags.HasErrors())
}

func TestInferWhileConditionYieldsNilType(t *testing.T) {
	src := `def loop(n: Integer) -> Void
  while n > 0
    n
  end
end
`
	prog, inf := inferSource(t, src)
	fn := prog.Declarations[0].(*ast.Function)
	inf.InferFunction(fn, nil)
	assert.False(t, inf.diags.HasErrors())
}

func TestInferProgramWalksNestedClassMethods(t *testing.T) {
	src := `class Counter
  @count: Integer

  def initialize()
    @count = 0
  end

  def value() -> Integer
    @count
  end
end
`
	prog, err := parser.Parse("counter.trb", src, parser.ModeStandard)
	require.NoError(t, err)
	bag := InferProgram(prog, typesys.NewRegistry(), ModeStrict)
	assert.False(t, bag.HasErrors())
}
