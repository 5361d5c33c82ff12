package kernel

// reverseDelta builds the reverse transition relation once, used both by
// Prune's co-reachability pass and nowhere else (computing it lazily per call
// would make pruning quadratic in the number of distinct (from,label) pairs).
func reverseDelta(a Automaton) map[StateID]StateSet {
	rev := map[StateID]StateSet{}
	for _, q := range a.States() {
		for _, l := range a.Labels(q) {
			for _, t := range a.Targets(q, l).Sorted() {
				if rev[t] == nil {
					rev[t] = NewStateSet()
				}
				rev[t].Add(q)
			}
		}
	}
	return rev
}

// forwardReachable computes the fixed point starting from I, closing under δ
// over any label including ε.
func forwardReachable(a Automaton) StateSet {
	reached := a.Start()
	stack := reached.Sorted()

	for len(stack) > 0 {
		q := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, l := range a.Labels(q) {
			for _, t := range a.Targets(q, l).Sorted() {
				if !reached.Has(t) {
					reached.Add(t)
					stack = append(stack, t)
				}
			}
		}
	}

	return reached
}

// coReachable computes the fixed point from F backward over the reverse
// transition relation (the "productive" set).
func coReachable(a Automaton) StateSet {
	rev := reverseDelta(a)
	productive := a.Accept()
	stack := productive.Sorted()

	for len(stack) > 0 {
		q := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, p := range rev[q].Sorted() {
			if !productive.Has(p) {
				productive.Add(p)
				stack = append(stack, p)
			}
		}
	}

	return productive
}

// Prune restricts Q, δ, I, F to the useful set (forward-reachable ∩
// co-reachable). If the result has no start or no accept the automaton
// recognizes ∅ and Prune returns the canonical empty-language automaton:
// Q=∅, I=∅, F=∅.
func Prune(a Automaton) Automaton {
	useful := forwardReachable(a).Copy()
	co := coReachable(a)
	for id := range useful {
		if !co.Has(id) {
			delete(useful, id)
		}
	}

	if useful.Len() == 0 {
		return sealed(a.Alphabet(), 0, map[StateID]map[Label]StateSet{}, NewStateSet(), NewStateSet(), a.allowsSilent, nil)
	}

	newStart := intersect(a.Start(), useful)
	newAccept := intersect(a.Accept(), useful)
	if newStart.Len() == 0 || newAccept.Len() == 0 {
		return sealed(a.Alphabet(), 0, map[StateID]map[Label]StateSet{}, NewStateSet(), NewStateSet(), a.allowsSilent, nil)
	}

	// Relabel the useful states densely, preserving original relative order
	// so the result is reproducible and display-friendly.
	ordered := useful.Sorted()
	remap := make(map[StateID]StateID, len(ordered))
	for newID, oldID := range ordered {
		remap[oldID] = StateID(newID)
	}

	delta := map[StateID]map[Label]StateSet{}
	for _, oldQ := range ordered {
		for _, l := range a.Labels(oldQ) {
			for _, oldT := range a.Targets(oldQ, l).Sorted() {
				if !useful.Has(oldT) {
					continue
				}
				newQ := remap[oldQ]
				newT := remap[oldT]
				if delta[newQ] == nil {
					delta[newQ] = map[Label]StateSet{}
				}
				if delta[newQ][l] == nil {
					delta[newQ][l] = NewStateSet()
				}
				delta[newQ][l].Add(newT)
			}
		}
	}

	start := remapSet(newStart, remap)
	accept := remapSet(newAccept, remap)
	symtab := remapSymtab(a.symtab, ordered)

	return sealed(a.Alphabet(), len(ordered), delta, start, accept, a.allowsSilent, symtab)
}

func intersect(a, b StateSet) StateSet {
	out := NewStateSet()
	for id := range a {
		if b.Has(id) {
			out.Add(id)
		}
	}
	return out
}

func remapSet(s StateSet, remap map[StateID]StateID) StateSet {
	out := NewStateSet()
	for id := range s {
		out.Add(remap[id])
	}
	return out
}

// remapSymtab builds a display table for the states kept after a relabeling,
// preserving their original names where available.
func remapSymtab(old *SymbolTable, kept []StateID) *SymbolTable {
	t := newSymbolTable()
	if old != nil {
		for _, a := range old.alphabet {
			t.internSymbol(a)
		}
	}
	for _, oldID := range kept {
		name := syntheticName(oldID)
		if old != nil {
			name = old.StateName(oldID)
		}
		t.internState(name)
	}
	return t
}
