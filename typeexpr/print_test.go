package typeexpr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trb-lang/trbc/ast"
	"github.com/trb-lang/trbc/parser"
	"github.com/trb-lang/trbc/typeexpr"
)

func returnTypeOf(t *testing.T, src string) ast.TypeExpr {
	t.Helper()
	prog, err := parser.Parse("print_test.trb", src, parser.ModeStandard)
	require.NoError(t, err)
	fn, ok := prog.Declarations[0].(*ast.Function)
	require.True(t, ok)
	return fn.ReturnType
}

func TestPrintRoundTripsSimpleTypes(t *testing.T) {
	cases := map[string]string{
		"def f() -> Integer\nend\n":          "Integer",
		"def f() -> String\nend\n":           "String",
		"def f() -> Array<Integer>\nend\n":   "Array<Integer>",
		"def f() -> Hash<String, Integer>\nend\n": "Hash<String, Integer>",
	}
	for src, want := range cases {
		assert.Equal(t, want, typeexpr.Print(returnTypeOf(t, src)))
	}
}

func TestPrintRendersOptionalSugar(t *testing.T) {
	got := typeexpr.Print(returnTypeOf(t, "def f() -> String?\nend\n"))
	assert.Equal(t, "String?", got)
}

func TestPrintRendersUnion(t *testing.T) {
	got := typeexpr.Print(returnTypeOf(t, "def f() -> Integer | String\nend\n"))
	assert.Equal(t, "Integer | String", got)
}

func TestPrintRendersIntersection(t *testing.T) {
	got := typeexpr.Print(returnTypeOf(t, "def f() -> Reader & Writer\nend\n"))
	assert.Equal(t, "Reader & Writer", got)
}

func TestPrintOfNilIsEmptyString(t *testing.T) {
	assert.Equal(t, "", typeexpr.Print(nil))
}
