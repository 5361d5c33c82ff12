package kernel

import (
	"context"
	"sort"

	"github.com/dekarrin/langlab/internal/kernelerrors"
)

// DeterminizeTrace maps each state of a determinized automaton back to the
// subset of input states it represents, preserved purely as display
// metadata; state identity never depends on it.
type DeterminizeTrace struct {
	// Subsets[i] is the set of original StateIDs composing determinized
	// state i.
	Subsets []StateSet
}

// Determinize implements subset construction with silent closure. It is
// silent-closure-aware regardless of whether the input allows silent
// transitions, and keys subsets by sorted StateID rather than by a joined
// display-name string, so equality checks never depend on labels.
//
// The deterministic state set is a subset of 2^Q. D0 = Ecl(I). For each
// generated subset D and each a in Σ, D' = Ecl(union of δ(q,a) for q in D);
// empty successors are omitted, so the result is not necessarily complete.
func Determinize(a Automaton) (Automaton, DeterminizeTrace) {
	out, trace, _ := determinize(context.Background(), a)
	return out, trace
}

// DeterminizeCtx is Determinize with cooperative cancellation: ctx is
// checked once per worklist entry, and on cancellation the operation
// returns ErrCancelled with no partial output.
func DeterminizeCtx(ctx context.Context, a Automaton) (Automaton, DeterminizeTrace, error) {
	return determinize(ctx, a)
}

func determinize(ctx context.Context, a Automaton) (Automaton, DeterminizeTrace, error) {
	start := closureOf(a, a.Start())

	type pending struct {
		id     StateID
		subset StateSet
	}

	subsetToID := map[string]StateID{}
	var subsets []StateSet
	var worklist []pending

	register := func(s StateSet) StateID {
		key := s.Key()
		if id, ok := subsetToID[key]; ok {
			return id
		}
		id := StateID(len(subsets))
		subsetToID[key] = id
		subsets = append(subsets, s)
		worklist = append(worklist, pending{id: id, subset: s})
		return id
	}

	register(start)

	delta := map[StateID]map[Label]StateSet{}

	for len(worklist) > 0 {
		if ctx.Err() != nil {
			return Automaton{}, DeterminizeTrace{}, kernelerrors.ErrCancelled
		}

		cur := worklist[0]
		worklist = worklist[1:]

		for _, sym := range a.alphabet {
			moved := NewStateSet()
			for _, q := range cur.subset.Sorted() {
				moved = moved.Union(a.Targets(q, Sym(sym)))
			}
			if moved.Len() == 0 {
				continue
			}
			closed := closureOf(a, moved)
			targetID := register(closed)

			if delta[cur.id] == nil {
				delta[cur.id] = map[Label]StateSet{}
			}
			delta[cur.id][Sym(sym)] = NewStateSet(targetID)
		}
	}

	accept := NewStateSet()
	for id, subset := range subsets {
		if subset.Intersects(a.Accept()) {
			accept.Add(StateID(id))
		}
	}

	symtab := newSymbolTable()
	for _, s := range a.alphabet {
		symtab.internSymbol(s)
	}
	for i, subset := range subsets {
		symtab.internState(compositeName(a, subset, i))
	}

	out := sealed(a.Alphabet(), len(subsets), delta, NewStateSet(0), accept, false, symtab)
	return out, DeterminizeTrace{Subsets: subsets}, nil
}

// compositeName renders a subset as "{q0,q2,q5}"-style display text, used both
// as the synthetic state label and in SymbolTable. Falls back to "qN" in
// creation order if no names are available.
func compositeName(a Automaton, subset StateSet, creationIndex int) string {
	if a.symtab == nil {
		return "q" + itoa(creationIndex)
	}
	ids := subset.Sorted()
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = a.symtab.StateName(id)
	}
	sort.Strings(names)
	joined := ""
	for i, n := range names {
		if i > 0 {
			joined += ","
		}
		joined += n
	}
	return "{" + joined + "}"
}
