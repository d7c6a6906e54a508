// Package optimize implements the optional IR-to-IR optimizer (spec
// §4.10): constant folding, dead-code elimination, branch folding, and
// trivial-alias inlining, each an idempotent program-to-program rewrite
// run to a fixed point (or a configured bound).
package optimize

import "github.com/trb-lang/trbc/ast"

// PassStats records how many nodes one pass rewrote or removed, per
// spec §4.10's "per-pass statistics" requirement.
type PassStats struct {
	Pass       string
	Rewritten  int
	Eliminated int
}

// Result is the outcome of running a sequence of passes to a fixed
// point: the final program and one PassStats entry per pass execution
// (a pass that runs three times to reach the fixed point contributes
// three entries).
type Result struct {
	Program *ast.Program
	Stats   []PassStats
	Rounds  int
}

// DefaultPasses returns the standard optimizer pipeline in the order
// spec §4.10 lists them.
func DefaultPasses() []*Pass {
	return []*Pass{
		ConstantFold(),
		BranchFold(),
		DeadCodeEliminate(),
		InlineTrivialAliases(),
	}
}

// Pass is one optimizer pass: a name plus a transform that rewrites a
// program and returns the PassStats of that run.
type Pass struct {
	Name      string
	transform func(prog *ast.Program) (*ast.Program, PassStats)
}

// Run applies passes to prog repeatedly until no pass reports a change
// in a full round, or maxRounds is reached (0 means unbounded — the
// caller is responsible for picking a sane bound in a watch loop).
func Run(prog *ast.Program, passes []*Pass, maxRounds int) Result {
	var stats []PassStats
	rounds := 0
	for {
		rounds++
		changedThisRound := false
		for _, p := range passes {
			next, s := p.transform(prog)
			stats = append(stats, s)
			if s.Rewritten > 0 || s.Eliminated > 0 {
				changedThisRound = true
				prog = next
			}
		}
		if !changedThisRound {
			break
		}
		if maxRounds > 0 && rounds >= maxRounds {
			break
		}
	}
	return Result{Program: prog, Stats: stats, Rounds: rounds}
}
