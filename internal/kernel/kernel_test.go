package kernel

import (
	"context"
	"testing"

	"github.com/dekarrin/langlab/internal/kernelerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(ss ...string) [][]Symbol {
	out := make([][]Symbol, len(ss))
	for i, s := range ss {
		syms := make([]Symbol, len(s))
		for j, r := range s {
			syms[j] = Symbol(string(r))
		}
		out[i] = syms
	}
	return out
}

// TestDeterminize_preservesWords checks an NFA over {a,b} that, once
// determinized, must accept aa, abb, aabb and reject a, ab, b.
func TestDeterminize_preservesWords(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	nfa, err := Build(
		[]Symbol{"a", "b"},
		[]string{"1", "2", "3", "4"},
		[]TransitionSpec{
			{From: "1", Label: "a", To: "1"},
			{From: "1", Label: "a", To: "2"},
			{From: "2", Label: "a", To: "4"},
			{From: "2", Label: "b", To: "3"},
			{From: "3", Label: "b", To: "3"},
			{From: "3", Label: "b", To: "4"},
		},
		[]string{"1"},
		[]string{"4"},
		false,
	)
	require.NoError(err)

	dfa, trace := Determinize(nfa)
	require.True(dfa.IsDeterministic())
	assert.NotEmpty(trace.Subsets)

	for _, w := range words("aa", "abb", "aabb") {
		assert.True(Accepts(dfa, w), "expected acceptance of %v", w)
	}
	for _, w := range words("a", "ab", "b", "aba") {
		assert.False(Accepts(dfa, w), "expected rejection of %v", w)
	}
}

// TestMinimize_shrinks checks a five-state DFA that minimizes to something
// strictly smaller while preserving its language.
func TestMinimize_shrinks(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	dfa, err := Build(
		[]Symbol{"a", "b"},
		[]string{"q0", "q1", "q2", "q3", "q4"},
		[]TransitionSpec{
			{From: "q0", Label: "a", To: "q1"},
			{From: "q0", Label: "b", To: "q2"},
			{From: "q1", Label: "a", To: "q0"},
			{From: "q1", Label: "b", To: "q3"},
			{From: "q2", Label: "a", To: "q4"},
			{From: "q2", Label: "b", To: "q0"},
			{From: "q3", Label: "a", To: "q2"},
			{From: "q3", Label: "b", To: "q1"},
			{From: "q4", Label: "a", To: "q3"},
			{From: "q4", Label: "b", To: "q4"},
		},
		[]string{"q0"},
		[]string{"q2", "q4"},
		false,
	)
	require.NoError(err)
	require.True(dfa.IsComplete())

	min, err := Minimize(dfa)
	require.NoError(err)

	assert.Less(min.NumStates(), dfa.NumStates())

	checkLanguageEquivalent(t, dfa, min)
}

func TestSilentClosure_chain(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	nfa, err := Build(
		[]Symbol{"a"},
		[]string{"s0", "s1", "s2", "s3"},
		[]TransitionSpec{
			{From: "s0", Label: "ε", To: "s1"},
			{From: "s1", Label: "ε", To: "s2"},
			{From: "s0", Label: "a", To: "s3"},
		},
		[]string{"s0"},
		[]string{"s3"},
		true,
	)
	require.NoError(err)

	closure := SilentClosure(nfa, 0)
	assert.Equal(3, closure.Len())

	dfa, _ := Determinize(nfa)
	assert.True(Accepts(dfa, words("a")[0]))
	assert.False(Accepts(dfa, words("")[0]))
}

func TestComplete_Idempotent(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	dfa, err := Build(
		[]Symbol{"a"},
		[]string{"s0"},
		nil,
		[]string{"s0"},
		nil,
		false,
	)
	require.NoError(err)

	c1, err := Complete(dfa)
	require.NoError(err)
	c2, err := Complete(c1)
	require.NoError(err)

	assert.Equal(c1.NumStates(), c2.NumStates())
}

func TestPrune_EmptyLanguage(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	a, err := Build(
		[]Symbol{"a"},
		[]string{"s0", "s1"},
		[]TransitionSpec{{From: "s0", Label: "a", To: "s1"}},
		[]string{"s0"},
		nil, // no accept states reachable: empty language
		false,
	)
	require.NoError(err)

	pruned := Prune(a)
	assert.Equal(0, pruned.NumStates())
	assert.True(IsEmptyLanguage(a))
}

func TestComplement_DoubleComplementPreservesLanguage(t *testing.T) {
	require := require.New(t)

	a, err := Build(
		[]Symbol{"a", "b"},
		[]string{"s0", "s1"},
		[]TransitionSpec{
			{From: "s0", Label: "a", To: "s1"},
			{From: "s0", Label: "b", To: "s0"},
			{From: "s1", Label: "a", To: "s1"},
			{From: "s1", Label: "b", To: "s0"},
		},
		[]string{"s0"},
		[]string{"s1"},
		false,
	)
	require.NoError(err)

	c1, err := Complement(a, true)
	require.NoError(err)
	c2, err := Complement(c1, true)
	require.NoError(err)

	checkLanguageEquivalent(t, a, c2)
}

func TestProduct_Intersection(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	// a accepts strings with an even number of a's.
	evenA, err := Build(
		[]Symbol{"a", "b"},
		[]string{"e0", "e1"},
		[]TransitionSpec{
			{From: "e0", Label: "a", To: "e1"},
			{From: "e1", Label: "a", To: "e0"},
			{From: "e0", Label: "b", To: "e0"},
			{From: "e1", Label: "b", To: "e1"},
		},
		[]string{"e0"},
		[]string{"e0"},
		false,
	)
	require.NoError(err)

	// b accepts strings ending in b.
	endsB, err := Build(
		[]Symbol{"a", "b"},
		[]string{"f0", "f1"},
		[]TransitionSpec{
			{From: "f0", Label: "a", To: "f0"},
			{From: "f0", Label: "b", To: "f1"},
			{From: "f1", Label: "a", To: "f0"},
			{From: "f1", Label: "b", To: "f1"},
		},
		[]string{"f0"},
		[]string{"f1"},
		false,
	)
	require.NoError(err)

	prod, err := Product(evenA, endsB, Intersection)
	require.NoError(err)

	assert.True(Accepts(prod, words("aab")[0]))
	assert.False(Accepts(prod, words("ab")[0]))
}

// checkLanguageEquivalent verifies L(a) = L(b) via product-with-complement
// emptiness: the
// symmetric difference is empty iff the languages are equal.
func checkLanguageEquivalent(t *testing.T, a, b Automaton) {
	t.Helper()
	require := require.New(t)
	assert := assert.New(t)

	da, err := Complete(firstDeterminize(a))
	require.NoError(err)
	db, err := Complete(firstDeterminize(b))
	require.NoError(err)

	notA, err := Complement(da, true)
	require.NoError(err)
	notB, err := Complement(db, true)
	require.NoError(err)

	aOnly, err := Product(da, notB, Intersection)
	require.NoError(err)
	bOnly, err := Product(notA, db, Intersection)
	require.NoError(err)

	assert.True(IsEmptyLanguage(aOnly), "a accepts a string b rejects")
	assert.True(IsEmptyLanguage(bOnly), "b accepts a string a rejects")
}

func firstDeterminize(a Automaton) Automaton {
	if a.IsDeterministic() {
		return a
	}
	out, _ := Determinize(a)
	return out
}

func TestDeterminizeCtx_Cancelled(t *testing.T) {
	require := require.New(t)

	nfa, err := Build(
		[]Symbol{"a"},
		[]string{"s0", "s1"},
		[]TransitionSpec{{From: "s0", Label: "a", To: "s1"}},
		[]string{"s0"},
		[]string{"s1"},
		false,
	)
	require.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err = DeterminizeCtx(ctx, nfa)
	require.ErrorIs(err, kernelerrors.ErrCancelled)

	_, err = MinimizeCtx(ctx, singleSinkAutomaton([]Symbol{"a"}, true))
	require.ErrorIs(err, kernelerrors.ErrCancelled)
}
