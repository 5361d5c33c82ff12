package store

import (
	"context"
	"testing"

	"github.com/dekarrin/langlab/internal/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSpec() AutomatonSpec {
	return AutomatonSpec{
		Alphabet: []string{"a", "b"},
		States:   []string{"s0", "s1"},
		Transitions: []TransitionSpec{
			{From: "s0", Label: "a", To: "s1"},
			{From: "s1", Label: "b", To: "s0"},
		},
		Starts:  []string{"s0"},
		Accepts: []string{"s1"},
	}
}

func TestSpecRoundTrip(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	spec := sampleSpec()
	a, err := spec.ToAutomaton()
	require.NoError(err)

	back := ToSpec(a)
	assert.ElementsMatch(spec.Alphabet, back.Alphabet)
	assert.ElementsMatch(spec.States, back.States)
	assert.ElementsMatch(spec.Starts, back.Starts)
	assert.ElementsMatch(spec.Accepts, back.Accepts)
	assert.Equal(spec.AllowsSilent, back.AllowsSilent)

	assert.True(kernel.Accepts(a, []kernel.Symbol{"a", "b", "a"}))
	assert.False(kernel.Accepts(a, []kernel.Symbol{"a", "a"}))
}

func TestEncodeDecodeSpec(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	spec := sampleSpec()
	blob := encodeSpec(spec)
	require.NotEmpty(blob)

	decoded, err := decodeSpec(blob)
	require.NoError(err)
	assert.Equal(spec, decoded)
}

func testRepository(t *testing.T, repo AutomatonRepository) {
	t.Helper()
	ctx := context.Background()
	assert := assert.New(t)
	require := require.New(t)

	spec := sampleSpec()

	created, err := repo.Create(ctx, "evens-of-a", spec)
	require.NoError(err)
	assert.Equal("evens-of-a", created.Name)

	_, err = repo.Create(ctx, "evens-of-a", spec)
	assert.ErrorIs(err, ErrConstraintViolation)

	fetched, err := repo.GetByID(ctx, created.ID)
	require.NoError(err)
	assert.Equal(created.Name, fetched.Name)

	byName, err := repo.GetByName(ctx, "evens-of-a")
	require.NoError(err)
	assert.Equal(created.ID, byName.ID)

	all, err := repo.GetAll(ctx)
	require.NoError(err)
	assert.Len(all, 1)

	spec2 := spec
	spec2.States = append(append([]string(nil), spec.States...), "s2")
	updated, err := repo.Update(ctx, created.ID, "evens-of-a-renamed", spec2)
	require.NoError(err)
	assert.Equal("evens-of-a-renamed", updated.Name)
	assert.ElementsMatch(spec2.States, updated.Spec.States)

	deleted, err := repo.Delete(ctx, created.ID)
	require.NoError(err)
	assert.Equal(updated.Name, deleted.Name)

	_, err = repo.GetByID(ctx, created.ID)
	assert.ErrorIs(err, ErrNotFound)
}

func TestInMemoryStore(t *testing.T) {
	s := NewInMemoryStore()
	defer s.Close()
	testRepository(t, s.Automata())
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()
	testRepository(t, s.Automata())
}
