package trbc

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/trb-lang/trbc/internal/diag"
)

// reporter prints diagnostics to out, colorizing severities when out is a
// terminal and NO_COLOR is unset, mirroring the teacher's test command's
// own term.IsTerminal-gated color handling.
type reporter struct {
	out     io.Writer
	noColor bool
}

func newReporter(out *os.File) *reporter {
	noColor := os.Getenv("NO_COLOR") != ""
	if !noColor {
		noColor = !term.IsTerminal(int(out.Fd()))
	}
	return &reporter{out: out, noColor: noColor}
}

func (r *reporter) color(code, s string) string {
	if r.noColor {
		return s
	}
	return "\033[" + code + "m" + s + "\033[0m"
}

func (r *reporter) severityLabel(sev diag.Severity) string {
	switch sev {
	case diag.SeverityError:
		return r.color("31", "error")
	case diag.SeverityWarning:
		return r.color("33", "warning")
	default:
		return r.color("90", "suppressed")
	}
}

// print renders one diagnostic per line as "<span>: <severity> <category>: <message> (<hint>)".
func (r *reporter) print(d diag.Diagnostic) {
	line := fmt.Sprintf("%s: %s %s: %s", d.Span, r.severityLabel(d.Severity), d.Category, d.Message)
	if d.Hint != "" {
		line += fmt.Sprintf(" (%s)", d.Hint)
	}
	fmt.Fprintln(r.out, line)
}

// printAll renders every diagnostic in ds and returns whether any was a
// SeverityError, which callers use to decide the process exit code.
func (r *reporter) printAll(ds []diag.Diagnostic) bool {
	hasErrors := false
	for _, d := range ds {
		r.print(d)
		if d.Severity == diag.SeverityError {
			hasErrors = true
		}
	}
	return hasErrors
}
