// Package kernel implements the automaton algebra: the shared finite-automaton
// data model and the algorithmic families that operate on it (subset
// construction, partition-refinement minimization, completion, pruning,
// complementation, and product construction). The kernel is pure: every
// operation is a function from immutable inputs to a freshly allocated
// output, performs no I/O, and does no logging.
package kernel

import "sort"

// Symbol is a single token drawn from an automaton's alphabet. The empty
// string is never a valid Symbol; the silent token is represented separately
// by Label.Silent, never as a Symbol value.
type Symbol string

// StateID is the dense, interned identity of a state inside an Automaton.
// Ids are assigned by the builder in the order states are first seen and are
// stable for the lifetime of the Automaton; they carry no meaning outside it.
type StateID int

// Label is the edge annotation on a transition: either a Symbol from Σ, or
// the silent (ε) marker. Representing silence as a separate bool field
// (rather than a reserved string value) means silent-aware code paths are
// exhaustive and checked by the compiler instead of by string comparison.
type Label struct {
	Symbol Symbol
	Silent bool
}

// Sym builds a non-silent Label for the given symbol.
func Sym(s Symbol) Label { return Label{Symbol: s} }

// SilentLabel is the unique silent (ε) Label.
var SilentLabel = Label{Silent: true}

func (l Label) String() string {
	if l.Silent {
		return "ε"
	}
	return string(l.Symbol)
}

// SymbolTable interns caller-supplied string labels (state names and
// symbols) to dense ids and keeps the reverse mapping for display. It is
// produced by Build and carried alongside an Automaton purely for rendering;
// identity and equality of states never depend on it.
type SymbolTable struct {
	stateNames  []string
	stateLookup map[string]StateID
	alphabet    []Symbol
	symLookup   map[Symbol]int
}

func newSymbolTable() *SymbolTable {
	return &SymbolTable{
		stateLookup: map[string]StateID{},
		symLookup:   map[Symbol]int{},
	}
}

// internState returns the StateID for name, assigning a new one if this is
// the first time name has been seen.
func (t *SymbolTable) internState(name string) StateID {
	if id, ok := t.stateLookup[name]; ok {
		return id
	}
	id := StateID(len(t.stateNames))
	t.stateNames = append(t.stateNames, name)
	t.stateLookup[name] = id
	return id
}

// StateName returns the display label originally given for id, or a
// synthesized "qN" label if id was never interned from a caller-supplied
// name (e.g. it was produced by an internal constructor). Safe to call on a
// nil table, which some internal constructors leave behind.
func (t *SymbolTable) StateName(id StateID) string {
	if t != nil && int(id) >= 0 && int(id) < len(t.stateNames) {
		return t.stateNames[id]
	}
	return syntheticName(id)
}

func syntheticName(id StateID) string {
	return "q" + itoa(int(id))
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf []byte
	for n > 0 {
		buf = append([]byte{byte('0' + n%10)}, buf...)
		n /= 10
	}
	if neg {
		buf = append([]byte{'-'}, buf...)
	}
	return string(buf)
}

// internSymbol interns a Symbol into the alphabet ordering, used only to keep
// a stable Σ ordering available for display.
func (t *SymbolTable) internSymbol(s Symbol) {
	if _, ok := t.symLookup[s]; ok {
		return
	}
	t.symLookup[s] = len(t.alphabet)
	t.alphabet = append(t.alphabet, s)
}

// Alphabet returns the symbols known to this table in stable, first-seen
// order. Callers that need a canonical display ordering should sort the
// result with a collator (see internal/render, which uses
// golang.org/x/text/collate for this).
func (t *SymbolTable) Alphabet() []Symbol {
	out := make([]Symbol, len(t.alphabet))
	copy(out, t.alphabet)
	return out
}

func sortedStateIDs(ids map[StateID]struct{}) []StateID {
	out := make([]StateID, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
