package optimize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trb-lang/trbc/ast"
	"github.com/trb-lang/trbc/parser"
)

func parseProgram(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := parser.Parse("optimize_test.trb", src, parser.ModeStandard)
	require.NoError(t, err)
	return prog
}

func findFunction(t *testing.T, prog *ast.Program, name string) *ast.Function {
	t.Helper()
	for _, d := range prog.Declarations {
		if fn, ok := d.(*ast.Function); ok && fn.Name == name {
			return fn
		}
	}
	t.Fatalf("function %q not found", name)
	return nil
}

func exprStmtAt(t *testing.T, body []ast.Statement, i int) ast.Expr {
	t.Helper()
	require.Greater(t, len(body), i)
	es, ok := body[i].(*ast.ExprStmt)
	require.True(t, ok, "statement %d is not an ExprStmt: %T", i, body[i])
	return es.Expression
}

func TestConstantFoldIntegerArithmetic(t *testing.T) {
	prog := parseProgram(t, `def total
  1 + 2 * 3
end
`)
	result := Run(prog, []*Pass{ConstantFold()}, 10)
	fn := findFunction(t, result.Program, "total")
	lit, ok := exprStmtAt(t, fn.Body, 0).(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, ast.LitExprInteger, lit.Kind)
	assert.Equal(t, "7", lit.Value)
	assert.NotEmpty(t, result.Stats)
}

func TestConstantFoldStringConcat(t *testing.T) {
	prog := parseProgram(t, `def greeting
  "hello, " + "world"
end
`)
	result := Run(prog, []*Pass{ConstantFold()}, 10)
	fn := findFunction(t, result.Program, "greeting")
	lit, ok := exprStmtAt(t, fn.Body, 0).(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, ast.LitExprString, lit.Kind)
	assert.Equal(t, `"hello, world"`, lit.Value)
}

func TestConstantFoldLeavesNonLiteralOperandsAlone(t *testing.T) {
	prog := parseProgram(t, `def total(n: Integer)
  n + 1
end
`)
	result := Run(prog, []*Pass{ConstantFold()}, 10)
	fn := findFunction(t, result.Program, "total")
	_, ok := exprStmtAt(t, fn.Body, 0).(*ast.BinaryOp)
	assert.True(t, ok, "expected the binary op with a non-literal operand to survive folding")
}

func TestBranchFoldTrueConditionKeepsOnlyThenBody(t *testing.T) {
	prog := parseProgram(t, `def pick
  if true
    1
  else
    2
  end
end
`)
	result := Run(prog, []*Pass{BranchFold()}, 10)
	fn := findFunction(t, result.Program, "pick")
	require.Len(t, fn.Body, 1)
	lit, ok := exprStmtAt(t, fn.Body, 0).(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, "1", lit.Value)
}

func TestBranchFoldFalseConditionCascadesToElsif(t *testing.T) {
	prog := parseProgram(t, `def pick
  if false
    1
  elsif true
    2
  else
    3
  end
end
`)
	result := Run(prog, []*Pass{BranchFold()}, 10)
	fn := findFunction(t, result.Program, "pick")
	require.Len(t, fn.Body, 1)
	lit, ok := exprStmtAt(t, fn.Body, 0).(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, "2", lit.Value)
}

func TestBranchFoldFalseWhileEliminatesLoop(t *testing.T) {
	prog := parseProgram(t, `def run
  while false
    1
  end
  2
end
`)
	result := Run(prog, []*Pass{BranchFold()}, 10)
	fn := findFunction(t, result.Program, "run")
	require.Len(t, fn.Body, 1)
	lit, ok := exprStmtAt(t, fn.Body, 0).(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, "2", lit.Value)
}

func TestDeadCodeEliminateAfterReturn(t *testing.T) {
	prog := parseProgram(t, `def early
  return 1
  2
  3
end
`)
	result := Run(prog, []*Pass{DeadCodeEliminate()}, 10)
	fn := findFunction(t, result.Program, "early")
	require.Len(t, fn.Body, 1)
	_, ok := fn.Body[0].(*ast.ReturnStmt)
	assert.True(t, ok)
}

func TestDeadCodeEliminateInsideIfArm(t *testing.T) {
	prog := parseProgram(t, `def early(n: Integer)
  if n > 0
    raise "too big"
    1
  end
  2
end
`)
	result := Run(prog, []*Pass{DeadCodeEliminate()}, 10)
	fn := findFunction(t, result.Program, "early")
	ifStmt, ok := fn.Body[0].(*ast.IfStmt)
	require.True(t, ok)
	require.Len(t, ifStmt.Body, 1)
	_, ok = ifStmt.Body[0].(*ast.RaiseStmt)
	assert.True(t, ok)
}

func TestInlineTrivialAliasesSubstitutesSingleUse(t *testing.T) {
	prog := parseProgram(t, `def area
  width = 4
  width * 2
end
`)
	result := Run(prog, []*Pass{InlineTrivialAliases()}, 10)
	fn := findFunction(t, result.Program, "area")
	require.Len(t, fn.Body, 1)
	bin, ok := exprStmtAt(t, fn.Body, 0).(*ast.BinaryOp)
	require.True(t, ok)
	lit, ok := bin.Left.(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, "4", lit.Value)
}

func TestInlineTrivialAliasesSkipsReassignedVariable(t *testing.T) {
	prog := parseProgram(t, `def area
  width = 4
  width = 5
  width * 2
end
`)
	result := Run(prog, []*Pass{InlineTrivialAliases()}, 10)
	fn := findFunction(t, result.Program, "area")
	require.Len(t, fn.Body, 2)
}

func TestInlineTrivialAliasesSkipsMultipleUses(t *testing.T) {
	prog := parseProgram(t, `def area
  width = 4
  width * width
end
`)
	result := Run(prog, []*Pass{InlineTrivialAliases()}, 10)
	fn := findFunction(t, result.Program, "area")
	require.Len(t, fn.Body, 2)
}

func TestRunConvergesAcrossPassesInOneCall(t *testing.T) {
	prog := parseProgram(t, `def total
  width = 2 + 3
  width * 1
end
`)
	result := Run(prog, DefaultPasses(), 10)
	fn := findFunction(t, result.Program, "total")
	require.Len(t, fn.Body, 1)
	lit, ok := exprStmtAt(t, fn.Body, 0).(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, ast.LitExprInteger, lit.Kind)
	assert.Greater(t, result.Rounds, 1)
}

func TestRunReportsStatsPerPass(t *testing.T) {
	prog := parseProgram(t, `def total
  1 + 1
end
`)
	result := Run(prog, []*Pass{ConstantFold(), BranchFold(), DeadCodeEliminate(), InlineTrivialAliases()}, 5)
	names := make(map[string]bool)
	for _, s := range result.Stats {
		names[s.Pass] = true
	}
	assert.True(t, names["constant-fold"])
}
