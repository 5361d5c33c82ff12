package kernel

import (
	"sort"

	"github.com/dekarrin/langlab/internal/kernelerrors"
)

// TransitionSpec is a single (from, label, to) triple as supplied to Build.
// Label is a string: either a symbol in the caller's alphabet or one of the
// accepted spellings of the silent token.
type TransitionSpec struct {
	From  string
	Label string
	To    string
}

// Automaton is the sealed, immutable tuple (Σ, Q, δ, I, F, allows_silent). It is
// only ever produced by Build or by one of the kernel's own constructors
// (Determinize, Minimize, Complement, Product, RegexToAutomaton); once
// produced it is never mutated, and every operation below returns a fresh
// value.
type Automaton struct {
	alphabet     []Symbol
	numStates    int
	delta        map[StateID]map[Label]StateSet
	start        StateSet
	accept       StateSet
	allowsSilent bool
	symtab       *SymbolTable
}

// NumStates returns |Q|.
func (a Automaton) NumStates() int { return a.numStates }

// States returns every state id, 0..NumStates()-1.
func (a Automaton) States() []StateID {
	out := make([]StateID, a.numStates)
	for i := range out {
		out[i] = StateID(i)
	}
	return out
}

// Alphabet returns Σ in the order first seen at build time.
func (a Automaton) Alphabet() []Symbol {
	out := make([]Symbol, len(a.alphabet))
	copy(out, a.alphabet)
	return out
}

// AllowsSilent reports the automaton's allows_silent flag.
func (a Automaton) AllowsSilent() bool { return a.allowsSilent }

// Start returns the start set I.
func (a Automaton) Start() StateSet { return a.start.Copy() }

// Accept returns the accept set F.
func (a Automaton) Accept() StateSet { return a.accept.Copy() }

// IsAccepting reports whether q is in F.
func (a Automaton) IsAccepting(q StateID) bool { return a.accept.Has(q) }

// SymbolTable returns the display-label table associated with this
// automaton, or nil if it was produced by an internal constructor that
// assigns only synthetic names.
func (a Automaton) SymbolTable() *SymbolTable { return a.symtab }

// Targets returns δ(q, l), which may be empty.
func (a Automaton) Targets(q StateID, l Label) StateSet {
	byLabel, ok := a.delta[q]
	if !ok {
		return NewStateSet()
	}
	set, ok := byLabel[l]
	if !ok {
		return NewStateSet()
	}
	return set.Copy()
}

// TransitionsFrom returns every (label -> targets) pair leaving q, including
// silent ones. The returned map must not be mutated by the caller.
func (a Automaton) TransitionsFrom(q StateID) map[Label]StateSet {
	return a.delta[q]
}

// Labels returns every distinct label used in δ leaving q, sorted with
// symbols before the silent label and symbols ordered alphabetically, for
// reproducible iteration.
func (a Automaton) Labels(q StateID) []Label {
	byLabel := a.delta[q]
	out := make([]Label, 0, len(byLabel))
	for l := range byLabel {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Silent != out[j].Silent {
			return !out[i].Silent
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

// IsDeterministic reports whether |I|=1, allows_silent is false, and
// |δ(q,a)|≤1 for every (q,a).
func (a Automaton) IsDeterministic() bool {
	if len(a.start) != 1 || a.allowsSilent {
		return false
	}
	for q := range a.delta {
		for l, targets := range a.delta[StateID(q)] {
			if l.Silent {
				return false
			}
			if len(targets) > 1 {
				return false
			}
		}
	}
	return true
}

// IsComplete reports whether, in addition to being deterministic,
// |δ(q,a)|=1 for every (q,a) ∈ Q×Σ.
func (a Automaton) IsComplete() bool {
	if !a.IsDeterministic() {
		return false
	}
	for _, q := range a.States() {
		for _, sym := range a.alphabet {
			if len(a.Targets(q, Sym(sym))) != 1 {
				return false
			}
		}
	}
	return true
}

// Build validates and interns a caller-supplied automaton description,
// producing a sealed Automaton or an *kernelerrors.InvalidAutomatonError.
// Labels are interned to dense ids, every
// referenced state must exist, non-silent labels must lie in Σ, |I|≥1 is
// required, and duplicate transitions are coalesced (since targets form a
// set, repeating a spec is simply a no-op union).
func Build(alphabet []Symbol, states []string, transitions []TransitionSpec, starts, accepts []string, allowsSilent bool) (Automaton, error) {
	symtab := newSymbolTable()

	alphaSet := make(map[Symbol]bool, len(alphabet))
	for _, s := range alphabet {
		if s == "" {
			return Automaton{}, kernelerrors.NewInvalidAutomaton("alphabet symbol may not be empty")
		}
		alphaSet[s] = true
		symtab.internSymbol(s)
	}

	if len(states) == 0 {
		return Automaton{}, kernelerrors.NewInvalidAutomaton("automaton must have at least one state")
	}

	known := make(map[string]bool, len(states))
	for _, name := range states {
		if known[name] {
			continue
		}
		known[name] = true
		symtab.internState(name)
	}

	delta := map[StateID]map[Label]StateSet{}
	for _, t := range transitions {
		if !known[t.From] {
			return Automaton{}, kernelerrors.NewInvalidAutomaton("transition references unknown source state " + t.From)
		}
		if !known[t.To] {
			return Automaton{}, kernelerrors.NewInvalidAutomaton("transition references unknown target state " + t.To)
		}

		var label Label
		if isEpsilonSpelling(t.Label) {
			if !allowsSilent {
				return Automaton{}, kernelerrors.NewInvalidAutomaton("silent transition present but allows_silent is false")
			}
			label = SilentLabel
		} else {
			sym := Symbol(t.Label)
			if !alphaSet[sym] {
				return Automaton{}, kernelerrors.NewInvalidAutomaton("transition label " + t.Label + " is not in the alphabet")
			}
			label = Sym(sym)
		}

		from := symtab.internState(t.From)
		to := symtab.internState(t.To)

		if delta[from] == nil {
			delta[from] = map[Label]StateSet{}
		}
		if delta[from][label] == nil {
			delta[from][label] = NewStateSet()
		}
		delta[from][label].Add(to)
	}

	if len(starts) == 0 {
		return Automaton{}, kernelerrors.NewInvalidAutomaton("start set must be non-empty")
	}
	startSet := NewStateSet()
	for _, name := range starts {
		if !known[name] {
			return Automaton{}, kernelerrors.NewInvalidAutomaton("start state " + name + " does not exist")
		}
		startSet.Add(symtab.internState(name))
	}

	acceptSet := NewStateSet()
	for _, name := range accepts {
		if !known[name] {
			return Automaton{}, kernelerrors.NewInvalidAutomaton("accept state " + name + " does not exist")
		}
		acceptSet.Add(symtab.internState(name))
	}

	return Automaton{
		alphabet:     dedupeAlphabet(alphabet),
		numStates:    len(known),
		delta:        delta,
		start:        startSet,
		accept:       acceptSet,
		allowsSilent: allowsSilent,
		symtab:       symtab,
	}, nil
}

func isEpsilonSpelling(s string) bool {
	switch s {
	case "ε", "epsilon", "Epsilon":
		return true
	default:
		return false
	}
}

func dedupeAlphabet(alphabet []Symbol) []Symbol {
	seen := map[Symbol]bool{}
	out := make([]Symbol, 0, len(alphabet))
	for _, s := range alphabet {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// FromParts builds an Automaton directly from already-validated pieces,
// bypassing Build's string-label interning. It exists for the kernel's
// sibling packages (internal/regexast's fragment and position constructors,
// internal/synth's preparation step) that assemble an Automaton
// state-by-state using a monotonic StateID counter rather than caller-given
// names. stateNames may be nil; if given, it must have exactly numStates
// entries and is used purely for display.
func FromParts(alphabet []Symbol, numStates int, delta map[StateID]map[Label]StateSet, start, accept StateSet, allowsSilent bool, stateNames []string) Automaton {
	var symtab *SymbolTable
	if stateNames != nil {
		symtab = newSymbolTable()
		for _, s := range alphabet {
			symtab.internSymbol(s)
		}
		for _, name := range stateNames {
			symtab.internState(name)
		}
	}
	return sealed(alphabet, numStates, delta, start, accept, allowsSilent, symtab)
}

// sealed constructs an Automaton directly from already-validated internal
// parts, used by internal constructors (Determinize, Minimize, Complement,
// Product, and the regex-to-automaton builders) that never need the
// string-label validation path Build performs. symtab may be nil, in which
// case StateName falls back to synthetic "qN" labels.
func sealed(alphabet []Symbol, numStates int, delta map[StateID]map[Label]StateSet, start, accept StateSet, allowsSilent bool, symtab *SymbolTable) Automaton {
	return Automaton{
		alphabet:     alphabet,
		numStates:    numStates,
		delta:        delta,
		start:        start,
		accept:       accept,
		allowsSilent: allowsSilent,
		symtab:       symtab,
	}
}
