package synth

import (
	"sort"

	"github.com/dekarrin/langlab/internal/kernelerrors"
	"github.com/dekarrin/langlab/internal/regexast"
)

// Var names one unknown in a right-linear equation system.
type Var string

// Term is one summand of an equation's right-hand side: Factor alone (a
// constant contribution, when Ref is "") or Factor·Ref (a recursive
// contribution through another variable). A solved equation is a Expr whose
// every Term has Ref == "".
type Term struct {
	Factor *regexast.Node
	Ref    Var
}

// Expr is the right-hand side of one equation: a union of Terms, the
// "Aᵢⱼ·Xⱼ | Bᵢ" shape generalized to any number of terms.
type Expr []Term

// String renders the expression as regex text. Terms that still reference a
// variable render as "factor·Ref" with a middle dot so an unsolved variable
// is visually distinct from a symbol; a fully solved Expr renders as a plain
// regex.
func (e Expr) String() string {
	if len(e) == 0 {
		return "∅"
	}
	if onlyConstants(e) {
		node := e[0].Factor
		for _, t := range e[1:] {
			node = regexast.UnionOf(node, t.Factor)
		}
		return simplify(node).String()
	}

	out := ""
	for i, t := range e {
		if i > 0 {
			out += " | "
		}
		out += t.Factor.String()
		if t.Ref != "" {
			out += "·" + string(t.Ref)
		}
	}
	return out
}

func onlyConstants(e Expr) bool {
	for _, t := range e {
		if t.Ref != "" {
			return false
		}
	}
	return true
}

// SolveEquations solves a right-linear equation system: repeatedly select a
// variable (see selectNext), apply Arden's identity if its equation has a
// self-coefficient, substitute the closed form into every remaining
// equation, and iterate. Returns the solved, fully
// back-substituted form of every variable in eqs.
//
// If any self-coefficient encountered along the way is nullable, the
// returned map is still the least-fixed-point solution but is flagged by
// returning kernelerrors.ErrAmbiguousSolution as the
// returned error; callers that only care whether solving succeeded at all
// should check errors.Is(err, kernelerrors.ErrAmbiguousSolution) rather than
// treating any non-nil error as fatal.
func SolveEquations(eqs map[Var]Expr) (map[Var]Expr, error) {
	working := make(map[Var]Expr, len(eqs))
	for v, e := range eqs {
		working[v] = append(Expr(nil), e...)
	}

	solved := make(map[Var]Expr, len(eqs))
	var order []Var
	ambiguous := false

	for len(working) > 0 {
		v := selectNext(working)
		eq := working[v]
		delete(working, v)

		selfCoeff, rest := groupByVar(eq, v)
		var solution Expr
		if selfCoeff == nil {
			solution = rest
		} else {
			if regexast.Nullable(selfCoeff) {
				ambiguous = true
			}
			selfStar := simplify(regexast.StarOf(selfCoeff))
			if len(rest) == 0 {
				solution = Expr{{Factor: selfStar}}
			} else {
				solution = make(Expr, len(rest))
				for i, t := range rest {
					solution[i] = Term{Factor: simplify(regexast.Concat(selfStar, t.Factor)), Ref: t.Ref}
				}
			}
		}
		solution = coalesce(solution)
		solved[v] = solution
		order = append(order, v)

		for w, weq := range working {
			working[w] = substitute(weq, v, solution)
		}
	}

	// Back-substitution: repeatedly expand any
	// remaining variable reference in reverse elimination order until every
	// solution is purely constant. Since every Var in eqs was solved above,
	// this always reaches a fixed point within len(order) passes.
	for pass := 0; pass < len(order); pass++ {
		changed := false
		for i := len(order) - 1; i >= 0; i-- {
			v := order[i]
			expanded, didExpand := expandOnce(solved[v], solved)
			if didExpand {
				solved[v] = coalesce(expanded)
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	var err error
	if ambiguous {
		err = kernelerrors.ErrAmbiguousSolution
	}
	return solved, err
}

// groupByVar splits eq into the union of Factor across terms referencing v
// (the self-coefficient A in X = AX | C) and the remaining
// terms C. Returns a nil self-coefficient when eq has no self-reference, in
// which case Arden's lemma does not apply and eq is already its own
// solution (direct substitution).
func groupByVar(eq Expr, v Var) (*regexast.Node, Expr) {
	var selfCoeff *regexast.Node
	var rest Expr
	for _, t := range eq {
		if t.Ref == v {
			if selfCoeff == nil {
				selfCoeff = t.Factor
			} else {
				selfCoeff = simplify(regexast.UnionOf(selfCoeff, t.Factor))
			}
		} else {
			rest = append(rest, t)
		}
	}
	return selfCoeff, rest
}

// substitute replaces every term in eq that references v with v's solution,
// distributing each such term's Factor across the solution's terms
// (coeff·(⋁ᵢ sᵢ) = ⋁ᵢ (coeff·sᵢ)).
func substitute(eq Expr, v Var, solution Expr) Expr {
	var out Expr
	changed := false
	for _, t := range eq {
		if t.Ref != v {
			out = append(out, t)
			continue
		}
		changed = true
		for _, s := range solution {
			out = append(out, Term{Factor: simplify(regexast.Concat(t.Factor, s.Factor)), Ref: s.Ref})
		}
	}
	if !changed {
		return eq
	}
	return coalesce(out)
}

// expandOnce substitutes every already-solved variable referenced in eq with
// its solution, once. Used by the final back-substitution pass; reports
// whether anything was expanded so the caller can detect a fixed point.
func expandOnce(eq Expr, solved map[Var]Expr) (Expr, bool) {
	var out Expr
	changed := false
	for _, t := range eq {
		if t.Ref == "" {
			out = append(out, t)
			continue
		}
		sol, ok := solved[t.Ref]
		if !ok {
			out = append(out, t)
			continue
		}
		changed = true
		for _, s := range sol {
			out = append(out, Term{Factor: simplify(regexast.Concat(t.Factor, s.Factor)), Ref: s.Ref})
		}
	}
	return out, changed
}

// coalesce merges terms that share the same Ref (including the constant
// Ref == "" bucket) by unioning their Factor, keeping equations compact
// across substitution rounds.
func coalesce(eq Expr) Expr {
	order := []Var{}
	byRef := map[Var]*regexast.Node{}
	for _, t := range eq {
		if existing, ok := byRef[t.Ref]; ok {
			byRef[t.Ref] = simplify(regexast.UnionOf(existing, t.Factor))
		} else {
			byRef[t.Ref] = t.Factor
			order = append(order, t.Ref)
		}
	}
	out := make(Expr, len(order))
	for i, ref := range order {
		out[i] = Term{Factor: byRef[ref], Ref: ref}
	}
	return out
}

// selectNext picks the variable to resolve next, lowest variableScore first:
// an equation with an epsilon factor scores 10 lower, every term and every
// distinct referenced variable add one, and an equation that references no
// variable scores one lower. Whether an equation references its own variable
// is not part of the score. Ties break on variable name for reproducibility.
func selectNext(working map[Var]Expr) Var {
	var names []Var
	for v := range working {
		names = append(names, v)
	}
	sort.Slice(names, func(i, j int) bool {
		si, sj := variableScore(working[names[i]]), variableScore(working[names[j]])
		if si != sj {
			return si < sj
		}
		return names[i] < names[j]
	})
	return names[0]
}

func variableScore(eq Expr) int {
	score := 0
	deps := map[Var]bool{}
	hasEpsilon := false
	for _, t := range eq {
		if t.Ref != "" {
			deps[t.Ref] = true
		}
		if t.Factor.Kind == regexast.KindEpsilon {
			hasEpsilon = true
		}
	}
	if hasEpsilon {
		score -= 10
	}
	score += len(eq)
	score += len(deps)
	if len(deps) == 0 {
		score--
	}
	return score
}
