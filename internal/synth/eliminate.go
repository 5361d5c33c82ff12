package synth

import (
	"context"
	"sort"

	"github.com/dekarrin/langlab/internal/kernel"
	"github.com/dekarrin/langlab/internal/kernelerrors"
	"github.com/dekarrin/langlab/internal/regexast"
)

// AutomatonToRegex synthesizes a regular expression from a by state
// elimination over a labelled-edge graph. It works for any automaton - deterministic or not,
// silent or not - since the preparation step folds every kind of edge
// (symbol or ε) into the same regex-labelled matrix uniformly.
func AutomatonToRegex(a kernel.Automaton) string {
	out, _ := eliminateAll(context.Background(), a)
	return out
}

// AutomatonToRegexCtx is AutomatonToRegex with cooperative cancellation:
// ctx is checked once per eliminated state, and on cancellation the
// operation returns ErrCancelled with no partial output.
func AutomatonToRegexCtx(ctx context.Context, a kernel.Automaton) (string, error) {
	return eliminateAll(ctx, a)
}

func eliminateAll(ctx context.Context, a kernel.Automaton) (string, error) {
	n := a.NumStates()
	if n == 0 {
		return "∅", nil
	}

	// Fresh unique start S and accept T, placed just past the automaton's
	// own dense id range.
	start := kernel.StateID(n)
	accept := kernel.StateID(n + 1)

	r := newMatrix()

	for _, q := range a.States() {
		for _, l := range a.Labels(q) {
			var edge *regexast.Node
			if l.Silent {
				edge = regexast.Eps()
			} else {
				edge = regexast.Sym(l.Symbol)
			}
			for _, t := range a.Targets(q, l).Sorted() {
				r.union(q, t, edge)
			}
		}
	}
	for _, q := range a.Start().Sorted() {
		r.union(start, q, regexast.Eps())
	}
	for _, q := range a.Accept().Sorted() {
		r.union(q, accept, regexast.Eps())
	}

	remaining := map[kernel.StateID]bool{}
	for _, q := range a.States() {
		remaining[q] = true
	}

	for len(remaining) > 0 {
		if ctx.Err() != nil {
			return "", kernelerrors.ErrCancelled
		}

		k := pickElimination(remaining, r)
		delete(remaining, k)
		eliminate(r, k)
	}

	return simplify(r.get(start, accept)).String(), nil
}

// matrix is the elimination matrix R: R[i][j] is a regex summarizing every edge
// from i to j, ∅ if none. Parallel edges are coalesced by union as they are
// added, so the matrix never holds more than one node per (i,j) pair.
type matrix struct {
	rows map[kernel.StateID]map[kernel.StateID]*regexast.Node
}

func newMatrix() *matrix {
	return &matrix{rows: map[kernel.StateID]map[kernel.StateID]*regexast.Node{}}
}

func (m *matrix) get(i, j kernel.StateID) *regexast.Node {
	if row, ok := m.rows[i]; ok {
		if e, ok := row[j]; ok {
			return e
		}
	}
	return regexast.Empty()
}

func (m *matrix) set(i, j kernel.StateID, n *regexast.Node) {
	if m.rows[i] == nil {
		m.rows[i] = map[kernel.StateID]*regexast.Node{}
	}
	m.rows[i][j] = n
}

func (m *matrix) union(i, j kernel.StateID, n *regexast.Node) {
	existing := m.get(i, j)
	if existing.Kind == regexast.KindEmpty {
		m.set(i, j, n)
		return
	}
	m.set(i, j, simplify(regexast.UnionOf(existing, n)))
}

func (m *matrix) drop(k kernel.StateID) {
	delete(m.rows, k)
	for i := range m.rows {
		delete(m.rows[i], k)
	}
}

// eliminate removes k from the matrix, rewriting every remaining (i,j)
// pair with the update rule:
//
//	R[i][j] := R[i][j] | R[i][k]·R[k][k]*·R[k][j]
func eliminate(m *matrix, k kernel.StateID) {
	selfStar := simplify(regexast.StarOf(m.get(k, k)))

	var preds, succs []kernel.StateID
	for i := range m.rows {
		if i == k {
			continue
		}
		if _, ok := m.rows[i][k]; ok {
			preds = append(preds, i)
		}
	}
	if row, ok := m.rows[k]; ok {
		for j := range row {
			if j != k {
				succs = append(succs, j)
			}
		}
	}
	sort.Slice(preds, func(a, b int) bool { return preds[a] < preds[b] })
	sort.Slice(succs, func(a, b int) bool { return succs[a] < succs[b] })

	for _, i := range preds {
		through := simplify(regexast.Concat(m.get(i, k), selfStar))
		for _, j := range succs {
			bridged := simplify(regexast.Concat(through, m.get(k, j)))
			m.union(i, j, bridged)
		}
	}

	m.drop(k)
}

// pickElimination chooses the next state to eliminate: smallest total degree
// (in-edges plus out-edges, including the synthetic start/accept states),
// tie-broken by ascending state id so the result is reproducible even
// though the regex's exact shape depends on elimination order (its language
// does not).
func pickElimination(remaining map[kernel.StateID]bool, m *matrix) kernel.StateID {
	var ids []kernel.StateID
	for q := range remaining {
		ids = append(ids, q)
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })

	degree := func(q kernel.StateID) int {
		d := len(m.rows[q])
		for i := range m.rows {
			if i == q {
				continue
			}
			if _, ok := m.rows[i][q]; ok {
				d++
			}
		}
		return d
	}

	best := ids[0]
	bestDeg := degree(best)
	for _, q := range ids[1:] {
		if d := degree(q); d < bestDeg {
			best, bestDeg = q, d
		}
	}
	return best
}
