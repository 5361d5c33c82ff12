package regexast

import (
	"testing"

	"github.com/dekarrin/langlab/internal/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func word(s string) []kernel.Symbol {
	out := make([]kernel.Symbol, len(s))
	for i, r := range s {
		out[i] = kernel.Symbol(string(r))
	}
	return out
}

// a(a|b)b via position construction recognizes exactly {aab, abb}.
func TestToPositionNFA_exactLanguage(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	ast, err := Parse("a(a|b)b")
	require.NoError(err)

	nfa := ToPositionNFA(ast)
	assert.False(nfa.AllowsSilent())

	assert.True(kernel.Accepts(nfa, word("aab")))
	assert.True(kernel.Accepts(nfa, word("abb")))
	assert.False(kernel.Accepts(nfa, word("ab")))
	assert.False(kernel.Accepts(nfa, word("aabb")))
}

// (a|b)*abb via fragment construction, determinized and minimized, yields
// a four-state DFA accepting exactly the strings over {a,b} ending in abb.
func TestToFragmentNFA_throughMinimize(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	ast, err := Parse("(a|b)*abb")
	require.NoError(err)

	nfa := ToFragmentNFA(ast)
	require.True(nfa.AllowsSilent())

	dfa, _ := kernel.Determinize(nfa)
	complete, err := kernel.Complete(dfa)
	require.NoError(err)
	min, err := kernel.Minimize(complete)
	require.NoError(err)

	assert.Equal(4, min.NumStates())

	for _, w := range []string{"abb", "aabb", "babb", "ababb"} {
		assert.True(kernel.Accepts(min, word(w)), "expected acceptance of %s", w)
	}
	for _, w := range []string{"ab", "abba", "a", ""} {
		assert.False(kernel.Accepts(min, word(w)), "expected rejection of %q", w)
	}
}

func TestFragmentAndPositionAgree(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	for _, re := range []string{"a", "ab", "a|b", "a*", "a+", "a?b", "(a|b)c*"} {
		ast, err := Parse(re)
		require.NoError(err)

		frag := ToFragmentNFA(ast)
		pos := ToPositionNFA(ast)

		for _, w := range []string{"", "a", "b", "c", "ab", "aab", "abc", "aaaa"} {
			assert.Equal(
				kernel.Accepts(frag, word(w)),
				kernel.Accepts(pos, word(w)),
				"regex %q disagreed on word %q", re, w,
			)
		}
	}
}

func TestSimplify_Idempotent(t *testing.T) {
	assert := assert.New(t)

	cases := []string{"a", "ε·a", "a|∅", "(a*)*", "(a|ε)*", "a(b|ε)"}
	for _, re := range cases {
		ast, err := Parse(re)
		if err != nil {
			continue
		}
		once := Simplify(ast)
		twice := Simplify(once)
		assert.True(equal(once, twice), "simplify not idempotent for %q: %s vs %s", re, once, twice)
	}
}

func TestParse_UnbalancedParen(t *testing.T) {
	assert := assert.New(t)
	_, err := Parse("(a|b")
	assert.Error(err)
}

func TestParse_UnrecognizedCharacter(t *testing.T) {
	assert := assert.New(t)

	for _, re := range []string{"a{2,3}", "a.b", "[ab]", "a\\b"} {
		_, err := Parse(re)
		assert.Error(err, "expected %q to be rejected", re)
	}
}

func TestSimplify_DistributesEpsilonUnion(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	ast, err := Parse("a(b|ε)")
	require.NoError(err)

	got := Simplify(ast)
	want, err := Parse("ab|a")
	require.NoError(err)
	assert.True(equal(got, want), "expected ab|a, got %s", got)

	// the rewrite must not fire when duplicating the prefix would not
	// shorten the rendered form
	ast, err = Parse("abcd(e|ε)")
	require.NoError(err)
	long := Simplify(ast)
	assert.Equal("abcd(e|ε)", long.String())
	assert.True(kernel.Accepts(ToFragmentNFA(long), word("abcde")))
	assert.True(kernel.Accepts(ToFragmentNFA(long), word("abcd")))
}
