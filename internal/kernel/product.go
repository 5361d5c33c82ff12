package kernel

import "github.com/dekarrin/langlab/internal/kernelerrors"

// ProductMode selects the accept-set predicate for Product.
type ProductMode int

const (
	// Intersection accepts (p,q) iff p is accepting in a and q is accepting
	// in b.
	Intersection ProductMode = iota
	// Union accepts (p,q) iff p is accepting in a or q is accepting in b.
	Union
)

// Product builds the pairwise product automaton. Both inputs must share an alphabet and
// must already be completed (so every state has a successor for every
// symbol); the product state space is Q1×Q2, encoded densely as
// p*|Q2|+q. Unreachable pairs are left in place rather than pruned eagerly —
// callers that want a minimal witness can call Prune on the result.
func Product(a, b Automaton, mode ProductMode) (Automaton, error) {
	if !sameAlphabet(a.Alphabet(), b.Alphabet()) {
		return Automaton{}, kernelerrors.ErrAlphabetMismatch
	}
	if !a.IsComplete() || !b.IsComplete() {
		return Automaton{}, kernelerrors.ErrNotComplete
	}

	n2 := b.numStates
	encode := func(p, q StateID) StateID { return StateID(int(p)*n2 + int(q)) }

	delta := map[StateID]map[Label]StateSet{}
	accept := NewStateSet()
	symtab := newSymbolTable()
	for _, s := range a.alphabet {
		symtab.internSymbol(s)
	}

	for _, p := range a.States() {
		for _, q := range b.States() {
			id := encode(p, q)
			symtab.internState(displayName(a, p) + "," + displayName(b, q))

			pAccept := a.IsAccepting(p)
			qAccept := b.IsAccepting(q)
			isAccept := false
			switch mode {
			case Intersection:
				isAccept = pAccept && qAccept
			case Union:
				isAccept = pAccept || qAccept
			}
			if isAccept {
				accept.Add(id)
			}

			delta[id] = map[Label]StateSet{}
			for _, sym := range a.alphabet {
				l := Sym(sym)
				pTargets := a.Targets(p, l)
				qTargets := b.Targets(q, l)
				if pTargets.Len() == 0 || qTargets.Len() == 0 {
					continue
				}
				var pt, qt StateID
				for t := range pTargets {
					pt = t
				}
				for t := range qTargets {
					qt = t
				}
				delta[id][l] = NewStateSet(encode(pt, qt))
			}
		}
	}

	var start StateID
	for p := range a.Start() {
		for q := range b.Start() {
			start = encode(p, q)
		}
	}

	return sealed(a.Alphabet(), a.numStates*n2, delta, NewStateSet(start), accept, false, symtab), nil
}

func sameAlphabet(a, b []Symbol) bool {
	if len(a) != len(b) {
		return false
	}
	seen := map[Symbol]bool{}
	for _, s := range a {
		seen[s] = true
	}
	for _, s := range b {
		if !seen[s] {
			return false
		}
	}
	return true
}
