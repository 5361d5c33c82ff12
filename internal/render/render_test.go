package render

import (
	"strings"
	"testing"

	"github.com/dekarrin/langlab/internal/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAutomaton(t *testing.T) kernel.Automaton {
	t.Helper()
	a, err := kernel.Build(
		[]kernel.Symbol{"a", "b"},
		[]string{"s0", "s1"},
		[]kernel.TransitionSpec{
			{From: "s0", Label: "a", To: "s1"},
			{From: "s1", Label: "b", To: "s0"},
		},
		[]string{"s0"},
		[]string{"s1"},
		false,
	)
	require.NoError(t, err)
	return a
}

func TestTransitionTable(t *testing.T) {
	assert := assert.New(t)
	table := TransitionTable(sampleAutomaton(t))
	assert.Contains(table, "s0")
	assert.Contains(table, "s1")
	assert.Contains(table, "->")
	assert.Contains(table, "*")
}

func TestSummary(t *testing.T) {
	assert := assert.New(t)
	s := Summary(sampleAutomaton(t))
	assert.True(strings.Contains(s, "2 states"))
	assert.True(strings.Contains(s, "deterministic"))
}
