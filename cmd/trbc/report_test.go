package trbc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trb-lang/trbc/internal/diag"
	"github.com/trb-lang/trbc/internal/span"
)

func TestReporterPrintAllDetectsErrors(t *testing.T) {
	var buf bytes.Buffer
	rep := &reporter{out: &buf, noColor: true}

	hasErrors := rep.printAll([]diag.Diagnostic{
		{Severity: diag.SeverityWarning, Category: diag.CategoryType, Message: "unused variable x"},
		{Severity: diag.SeverityError, Category: diag.CategoryParse, Span: span.Span{File: "a.trb"}, Message: "unexpected end of input"},
	})

	assert.True(t, hasErrors)
	assert.Contains(t, buf.String(), "unused variable x")
	assert.Contains(t, buf.String(), "unexpected end of input")
}

func TestReporterPrintAllNoErrorsOnWarningsOnly(t *testing.T) {
	var buf bytes.Buffer
	rep := &reporter{out: &buf, noColor: true}

	hasErrors := rep.printAll([]diag.Diagnostic{
		{Severity: diag.SeverityWarning, Category: diag.CategoryType, Message: "implicit any"},
	})

	assert.False(t, hasErrors)
}

func TestReporterColorizesWhenNotForcedPlain(t *testing.T) {
	var buf bytes.Buffer
	rep := &reporter{out: &buf, noColor: false}
	rep.print(diag.Diagnostic{Severity: diag.SeverityError, Category: diag.CategoryParse, Message: "boom"})
	assert.Contains(t, buf.String(), "\033[31m")
}

func TestAnyErrorHelper(t *testing.T) {
	assert.True(t, anyError([]diag.Diagnostic{{Severity: diag.SeverityError}}))
	assert.False(t, anyError([]diag.Diagnostic{{Severity: diag.SeverityWarning}}))
	assert.False(t, anyError(nil))
}
