package synth

import (
	"errors"
	"testing"

	"github.com/dekarrin/langlab/internal/kernel"
	"github.com/dekarrin/langlab/internal/kernelerrors"
	"github.com/dekarrin/langlab/internal/regexast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sym(s string) *regexast.Node { return regexast.Sym(kernel.Symbol(s)) }

func word(s string) []kernel.Symbol {
	out := make([]kernel.Symbol, len(s))
	for i, r := range s {
		out[i] = kernel.Symbol(string(r))
	}
	return out
}

// equationNFA builds the automaton an equation system literally denotes:
// one state per variable plus a fresh accept state, one edge per term
// (Factor-labelled, landing on Ref's state or on accept when Ref == ""), and
// v as the lone start state. Used as an independent oracle to check that
// SolveEquations's closed forms denote the same language as the system it
// was given.
func equationNFA(eqs map[Var]Expr, v Var) kernel.Automaton {
	ids := map[Var]kernel.StateID{}
	var names []kernel.Symbol
	seen := map[kernel.Symbol]bool{}
	for name := range eqs {
		ids[name] = kernel.StateID(len(ids))
	}
	acceptID := kernel.StateID(len(ids))

	delta := map[kernel.StateID]map[kernel.Label]kernel.StateSet{}
	addEdge := func(from kernel.StateID, re *regexast.Node, to kernel.StateID) {
		frag := regexast.ToFragmentNFA(re)
		// Splice frag into delta by renumbering its states past our own
		// range, wiring frag's start/accept to from/to via silent edges.
		offset := kernel.StateID(0)
		for id := range delta {
			if id >= offset {
				offset = id + 1
			}
		}
		if offset < kernel.StateID(len(ids))+1 {
			offset = kernel.StateID(len(ids)) + 1
		}
		remap := func(id kernel.StateID) kernel.StateID { return id + offset }
		for _, q := range frag.States() {
			for _, l := range frag.Labels(q) {
				for _, t := range frag.Targets(q, l).Sorted() {
					f := remap(q)
					if delta[f] == nil {
						delta[f] = map[kernel.Label]kernel.StateSet{}
					}
					if delta[f][l] == nil {
						delta[f][l] = kernel.NewStateSet()
					}
					delta[f][l].Add(remap(t))
					if !l.Silent {
						if !seen[l.Symbol] {
							seen[l.Symbol] = true
							names = append(names, l.Symbol)
						}
					}
				}
			}
		}
		eps := kernel.SilentLabel
		if delta[from] == nil {
			delta[from] = map[kernel.Label]kernel.StateSet{}
		}
		if delta[from][eps] == nil {
			delta[from][eps] = kernel.NewStateSet()
		}
		for _, s := range frag.Start().Sorted() {
			delta[from][eps].Add(remap(s))
		}
		for _, a := range frag.Accept().Sorted() {
			f := remap(a)
			if delta[f] == nil {
				delta[f] = map[kernel.Label]kernel.StateSet{}
			}
			if delta[f][eps] == nil {
				delta[f][eps] = kernel.NewStateSet()
			}
			delta[f][eps].Add(to)
		}
	}

	for name, eq := range eqs {
		from := ids[name]
		for _, t := range eq {
			to := acceptID
			if t.Ref != "" {
				to = ids[t.Ref]
			}
			addEdge(from, t.Factor, to)
		}
	}

	start := kernel.NewStateSet(ids[v])
	accept := kernel.NewStateSet(acceptID)
	numStates := kernel.StateID(0)
	for id := range delta {
		if id >= numStates {
			numStates = id + 1
		}
	}
	if acceptID >= numStates {
		numStates = acceptID + 1
	}
	return kernel.FromParts(names, int(numStates), delta, start, accept, true, nil)
}

func regexAutomaton(t *testing.T, re string) kernel.Automaton {
	t.Helper()
	ast, err := regexast.Parse(re)
	require.NoError(t, err)
	return regexast.ToFragmentNFA(ast)
}

// TestSolveEquations_threeVariableSystem solves the system X1 = bX1 | aX2,
// X2 = bX1 | aX2 | bX3 | ε, X3 = bX1. For every Xi, the
// solved regex must accept exactly the same language as the system itself
// denotes (checked against an oracle automaton built directly from the
// equations), on all words up to a small bound.
func TestSolveEquations_threeVariableSystem(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	eqs := map[Var]Expr{
		"X1": {
			{Factor: sym("b"), Ref: "X1"},
			{Factor: sym("a"), Ref: "X2"},
		},
		"X2": {
			{Factor: sym("b"), Ref: "X1"},
			{Factor: sym("a"), Ref: "X2"},
			{Factor: sym("b"), Ref: "X3"},
			{Factor: regexast.Eps()},
		},
		"X3": {
			{Factor: sym("b"), Ref: "X1"},
		},
	}

	solved, err := SolveEquations(eqs)
	require.NoError(err)
	require.Len(solved, 3)

	alphabet := []string{"a", "b"}
	var words []string
	words = append(words, "")
	for _, a := range alphabet {
		words = append(words, a)
		for _, b := range alphabet {
			words = append(words, a+b)
			for _, c := range alphabet {
				words = append(words, a+b+c)
				for _, d := range alphabet {
					words = append(words, a+b+c+d)
				}
			}
		}
	}

	for _, v := range []Var{"X1", "X2", "X3"} {
		oracle := equationNFA(eqs, v)

		var re string
		for _, t := range solved[v] {
			require.Empty(t.Ref, "solution for %s still references %s", v, t.Ref)
			if re == "" {
				re = t.Factor.String()
			} else {
				re = "(" + re + ")|(" + t.Factor.String() + ")"
			}
		}
		require.NotEmpty(re, "solution for %s has no terms", v)

		produced := regexAutomaton(t, re)

		for _, w := range words {
			assert.Equal(
				kernel.Accepts(oracle, word(w)),
				kernel.Accepts(produced, word(w)),
				"variable %s disagreed on word %q (solution regex %s)", v, w, re,
			)
		}
	}
}

func TestSolveEquations_AmbiguousWhenSelfCoeffNullable(t *testing.T) {
	require := require.New(t)

	eqs := map[Var]Expr{
		"X": {
			{Factor: regexast.Eps(), Ref: "X"},
			{Factor: sym("a")},
		},
	}
	_, err := SolveEquations(eqs)
	require.Error(err)
	require.True(errors.Is(err, kernelerrors.ErrAmbiguousSolution))
}

func TestSolveEquations_NoSelfCoefficient(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	eqs := map[Var]Expr{
		"X": {{Factor: sym("a")}, {Factor: sym("b")}},
	}
	solved, err := SolveEquations(eqs)
	require.NoError(err)
	require.Len(solved["X"], 1)

	var re string
	for _, t := range solved["X"] {
		if re == "" {
			re = t.Factor.String()
		} else {
			re = "(" + re + ")|(" + t.Factor.String() + ")"
		}
	}
	produced := regexAutomaton(t, re)
	assert.True(kernel.Accepts(produced, word("a")))
	assert.True(kernel.Accepts(produced, word("b")))
	assert.False(kernel.Accepts(produced, word("ab")))
}

// TestAutomatonToRegex_roundTrip checks state elimination against the same
// (a|b)*abb automaton used by the position/fragment construction tests: the
// synthesized regex, rebuilt into an automaton, must accept the same
// language as the source.
func TestAutomatonToRegex_roundTrip(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	ast, err := regexast.Parse("(a|b)*abb")
	require.NoError(err)
	src := regexast.ToFragmentNFA(ast)

	re := AutomatonToRegex(src)
	require.NotEmpty(re)

	reAst, err := regexast.Parse(re)
	require.NoError(err)
	rebuilt := regexast.ToFragmentNFA(reAst)

	for _, w := range []string{"", "a", "ab", "abb", "aabb", "babb", "ababb", "abba", "bbb"} {
		assert.Equal(
			kernel.Accepts(src, word(w)),
			kernel.Accepts(rebuilt, word(w)),
			"word %q", w,
		)
	}
}

func TestAutomatonToRegex_EmptyAutomaton(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	a, err := kernel.Build([]kernel.Symbol{"a"}, []string{"q0"}, nil, []string{"q0"}, nil, false)
	require.NoError(err)

	re := AutomatonToRegex(a)
	ast, err := regexast.Parse(re)
	require.NoError(err)
	rebuilt := regexast.ToFragmentNFA(ast)

	assert.True(kernel.IsEmptyLanguage(rebuilt))
}
