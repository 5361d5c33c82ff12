package kernel

import "strings"

// StateSet is an immutable-in-use set of StateIDs, returned by operations
// such as SilentClosure where callers need the composite membership rather
// than a full Automaton. It is implemented as a plain map for the same
// reason a plain string set would be: set membership and union are the
// only operations that matter here, so a generic container type would add
// indirection without buying anything.
type StateSet map[StateID]struct{}

// NewStateSet builds a StateSet containing the given ids.
func NewStateSet(ids ...StateID) StateSet {
	s := make(StateSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add inserts id into the set.
func (s StateSet) Add(id StateID) { s[id] = struct{}{} }

// Has returns whether id is a member.
func (s StateSet) Has(id StateID) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of members.
func (s StateSet) Len() int { return len(s) }

// Copy returns a shallow duplicate.
func (s StateSet) Copy() StateSet {
	out := make(StateSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Union returns a new StateSet containing every id in s or o.
func (s StateSet) Union(o StateSet) StateSet {
	out := s.Copy()
	for id := range o {
		out[id] = struct{}{}
	}
	return out
}

// Sorted returns the members in ascending StateID order, used anywhere a
// canonical, reproducible iteration order is required (subset-construction
// keys, minimization block signatures).
func (s StateSet) Sorted() []StateID {
	return sortedStateIDs(s)
}

// Key returns a string uniquely identifying the set's membership, suitable
// as a map key for canonicalizing composite states (the "sorted state-id
// lists so equal subsets hash identically").
func (s StateSet) Key() string {
	ids := s.Sorted()
	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(itoa(int(id)))
	}
	return b.String()
}

// Intersects returns whether s and o share any member.
func (s StateSet) Intersects(o StateSet) bool {
	small, big := s, o
	if len(big) < len(small) {
		small, big = big, small
	}
	for id := range small {
		if big.Has(id) {
			return true
		}
	}
	return false
}
