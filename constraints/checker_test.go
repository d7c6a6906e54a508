package constraints

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trb-lang/trbc/ast"
	"github.com/trb-lang/trbc/parser"
	"github.com/trb-lang/trbc/typesys"
)

func checkSource(t *testing.T, src string) *Checker {
	t.Helper()
	prog, err := parser.Parse("constraints_test.trb", src, parser.ModeStandard)
	require.NoError(t, err)
	reg := typesys.NewRegistry()
	c := New(reg, ModeStrict)
	c.BuildTables(prog)
	c.CheckImplementsClauses()
	c.CheckGenericBounds(prog)
	return c
}

func TestImplementsSatisfiedByExactSignature(t *testing.T) {
	src := `interface Greeter
  def greet(name: String) -> String
end

class Person implements Greeter
  def greet(name: String) -> String
    "hi"
  end
end
`
	c := checkSource(t, src)
	assert.False(t, c.diags.HasErrors())
}

func TestImplementsMissingMethodIsReported(t *testing.T) {
	src := `interface Greeter
  def greet(name: String) -> String
end

class Person implements Greeter
end
`
	c := checkSource(t, src)
	require.True(t, c.diags.HasErrors())
}

func TestImplementsSatisfiedThroughParentClass(t *testing.T) {
	src := `interface Greeter
  def greet(name: String) -> String
end

class Animal
  def greet(name: String) -> String
    "..."
  end
end

class Dog < Animal implements Greeter
end
`
	c := checkSource(t, src)
	assert.False(t, c.diags.HasErrors())
}

func TestNominalBoundSatisfiedByInheritance(t *testing.T) {
	c := New(typesys.NewRegistry(), ModeStrict)
	c.Classes["Animal"] = &ast.Class{Name: "Animal"}
	c.Classes["Dog"] = &ast.Class{Name: "Dog", Parent: "Animal"}
	assert.True(t, c.nominallySatisfies("Dog", "Animal"))
	assert.False(t, c.nominallySatisfies("Animal", "Dog"))
}

func TestNominalBoundSatisfiedByImplements(t *testing.T) {
	c := New(typesys.NewRegistry(), ModeStrict)
	c.Interfaces["Comparable"] = &ast.Interface{Name: "Comparable"}
	c.Classes["Money"] = &ast.Class{Name: "Money", Implements: []string{"Comparable"}}
	assert.True(t, c.nominallySatisfies("Money", "Comparable"))
}

func TestGenericBoundViolationIsReported(t *testing.T) {
	src := `interface Comparable
  def compare(other: Comparable) -> Integer
end

class Box
end
`
	prog, err := parser.Parse("box.trb", src, parser.ModeStandard)
	require.NoError(t, err)
	reg := typesys.NewRegistry()
	c := New(reg, ModeStrict)
	c.BuildTables(prog)

	cls := c.Classes["Box"]
	cls.Generics = []ast.GenericParam{{Name: "T", Bound: &ast.NamedType{Name: "Comparable"}}}

	boxOfBox := &ast.NamedType{Name: "Box", Args: []ast.TypeExpr{&ast.NamedType{Name: "Box"}}}
	c.checkTypeUse(cls, boxOfBox)
	assert.True(t, c.diags.HasErrors())
}
