// graph_compiler.go - the seam between this engine and the DSL parser/
// compiler spec.md §1 names as an external collaborator: "the DSL
// parser/compiler (produces graphs)" is explicitly out of scope for this
// module. The engine only ever needs to call it as a function; it never
// parses DSL source itself.
package phonon

import "fmt"

// CompiledGraph is what a GraphCompiler hands back: a graph ready to
// Compile() and install, plus the cps the DSL program declared (used only
// to seed the clock on first swap, per spec.md §4's graph invariants).
type CompiledGraph struct {
	Graph *Graph
	CPS   float64
}

// GraphCompiler turns DSL source text into a graph. The production
// implementation lives outside this module; phonond is wired to accept
// one via dependency injection (see cmd/phonond) rather than embedding a
// parser here.
type GraphCompiler func(code string, sampleRate, blockSize int) (CompiledGraph, error)

// ErrNoCompiler is returned by a nil GraphCompiler slot so that receiving
// an UpdateGraph message without a configured compiler fails the same way
// a bad DSL program would: logged, non-fatal, previous graph kept.
var ErrNoCompiler = fmt.Errorf("graph compiler: no DSL compiler configured")
