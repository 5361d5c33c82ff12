package afile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dekarrin/langlab/internal/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_LoadSaveRoundTrip(t *testing.T) {
	assert := assert.New(t)

	a, err := kernel.Build(
		[]kernel.Symbol{"a", "b"},
		[]string{"q0", "q1"},
		[]kernel.TransitionSpec{
			{From: "q0", Label: "a", To: "q1"},
			{From: "q0", Label: "ε", To: "q1"},
			{From: "q1", Label: "b", To: "q1"},
		},
		[]string{"q0"}, []string{"q1"}, true,
	)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "machine.toml")
	require.NoError(t, Save(path, a))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(a.Alphabet(), loaded.Alphabet())
	assert.Equal(a.NumStates(), loaded.NumStates())
	assert.Equal(a.AllowsSilent(), loaded.AllowsSilent())
	assert.True(kernel.Accepts(loaded, []kernel.Symbol{"a", "b"}))
	assert.True(kernel.Accepts(loaded, nil))
	assert.False(kernel.Accepts(loaded, []kernel.Symbol{"b", "a"}))
}

func Test_Load_rejectsWrongFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "machine.toml")
	require.NoError(t, os.WriteFile(path, []byte("format = \"not-an-automaton\"\n"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "file format")
}

func Test_LoadEquations(t *testing.T) {
	assert := assert.New(t)

	content := `format = "langlab-equations"

[equations]
X1 = [["b", "X1"], ["a", "X2"]]
X2 = [["b", "X1"], ["a", "X2"], ["b", "X3"], ["ε"]]
X3 = [["b", "X1"]]
`
	path := filepath.Join(t.TempDir(), "system.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	eqs, err := LoadEquations(path)
	require.NoError(t, err)

	assert.Len(eqs, 3)
	assert.Len(eqs["X1"], 2)
	assert.Len(eqs["X2"], 4)
	assert.Equal("", string(eqs["X2"][3].Ref))
}

func Test_LoadEquations_rejectsUndefinedVariable(t *testing.T) {
	content := `format = "langlab-equations"

[equations]
X1 = [["a", "X9"]]
`
	path := filepath.Join(t.TempDir(), "system.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := LoadEquations(path)
	assert.ErrorContains(t, err, "undefined variable")
}
