package kernel

import "github.com/dekarrin/langlab/internal/kernelerrors"

// CompletionReport describes what Complete did, letting a caller
// distinguish "already complete, returned unchanged" from "a sink state was
// added", which classroom-facing callers report alongside the result.
type CompletionReport struct {
	WasAlreadyComplete bool
	SinkAdded          bool
}

// Complete makes a deterministic automaton complete. The input must be
// deterministic. If some (q,a) has no target, a fresh sink state ⊥ is added
// with δ(⊥,a)=⊥ for every a, and every missing edge is redirected to it.
// Idempotent: already-complete input is returned with only its states
// possibly relabeled (never a different automaton shape).
func Complete(a Automaton) (Automaton, error) {
	out, _, err := CompleteReport(a)
	return out, err
}

// CompleteReport is Complete plus the CompletionReport convenience.
func CompleteReport(a Automaton) (Automaton, CompletionReport, error) {
	if !a.IsDeterministic() {
		return Automaton{}, CompletionReport{}, kernelerrors.ErrNotDeterministic
	}

	missing := false
	for _, q := range a.States() {
		for _, sym := range a.alphabet {
			if a.Targets(q, Sym(sym)).Len() == 0 {
				missing = true
			}
		}
	}

	if !missing {
		return a, CompletionReport{WasAlreadyComplete: true}, nil
	}

	sink := StateID(a.numStates)
	delta := map[StateID]map[Label]StateSet{}
	for q, byLabel := range a.delta {
		delta[q] = map[Label]StateSet{}
		for l, targets := range byLabel {
			delta[q][l] = targets.Copy()
		}
	}

	for _, q := range a.States() {
		for _, sym := range a.alphabet {
			l := Sym(sym)
			if a.Targets(q, l).Len() == 0 {
				if delta[q] == nil {
					delta[q] = map[Label]StateSet{}
				}
				delta[q][l] = NewStateSet(sink)
			}
		}
	}

	delta[sink] = map[Label]StateSet{}
	for _, sym := range a.alphabet {
		delta[sink][Sym(sym)] = NewStateSet(sink)
	}

	symtab := newSymbolTable()
	for _, s := range a.alphabet {
		symtab.internSymbol(s)
	}
	for _, q := range a.States() {
		symtab.internState(displayName(a, q))
	}
	symtab.internState("⊥")

	out := sealed(a.Alphabet(), a.numStates+1, delta, a.Start(), a.Accept(), false, symtab)
	return out, CompletionReport{SinkAdded: true}, nil
}

func displayName(a Automaton, q StateID) string {
	if a.symtab != nil {
		return a.symtab.StateName(q)
	}
	return syntheticName(q)
}
