// Package synth implements the two automaton->regex synthesis algorithms:
// state-elimination over a labelled-edge graph, and Arden's-lemma solution
// of a right-linear equation system. Both consume the automaton model
// (internal/kernel) and regex AST (internal/regexast) and produce regex
// strings; neither package depends back on synth, so data keeps flowing
// leaves-first.
package synth

import "github.com/dekarrin/langlab/internal/regexast"

// simplify is the single seam every intermediate regex passes through,
// keeping expressions small between elimination and substitution steps.
func simplify(n *regexast.Node) *regexast.Node {
	return regexast.Simplify(n)
}
