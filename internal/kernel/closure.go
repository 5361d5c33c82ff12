package kernel

// SilentClosure computes Ecl(q): the least set containing q and closed
// under ε-successors. Implemented as a depth-first search with an explicit
// stack, which runs in
// O(|Q|+|δ_ε|). When the automaton does not allow silent transitions, the
// loop below still runs uniformly (there are simply no SilentLabel entries
// to find) rather than special-casing the caller.
func SilentClosure(a Automaton, q StateID) StateSet {
	return closureOf(a, NewStateSet(q))
}

// closureOf computes Ecl(S) = ⋃_{q∈S} Ecl(q) for an arbitrary starting set,
// used internally by Determinize's MOVE step.
func closureOf(a Automaton, seed StateSet) StateSet {
	closure := seed.Copy()
	stack := closure.Sorted()

	for len(stack) > 0 {
		q := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		targets := a.Targets(q, SilentLabel)
		for _, t := range targets.Sorted() {
			if !closure.Has(t) {
				closure.Add(t)
				stack = append(stack, t)
			}
		}
	}

	return closure
}
