package store

import (
	"fmt"

	"github.com/dekarrin/langlab/internal/kernel"
	"github.com/dekarrin/rezi"
)

// AutomatonSpec is the wire/storage form of a kernel.Automaton: the same
// string-labelled triples kernel.Build accepts, rather than the packed
// StateID/Label form Automaton keeps internally. Storing the builder input
// instead of the sealed value
// means a round trip through the store always goes through kernel.Build's
// validation again on load.
type AutomatonSpec struct {
	Alphabet     []string
	States       []string
	Transitions  []TransitionSpec
	Starts       []string
	Accepts      []string
	AllowsSilent bool
}

// TransitionSpec mirrors kernel.TransitionSpec field-for-field; store keeps
// its own copy so this package does not need kernel.TransitionSpec to stay
// rezi-encodable forever (a storage format should not force a core type's
// shape).
type TransitionSpec struct {
	From  string
	Label string
	To    string
}

// ToSpec flattens a built Automaton back into its builder form, the
// inverse of ToAutomaton: a plain-data value fit for encoding, with no
// interned ids.
func ToSpec(a kernel.Automaton) AutomatonSpec {
	symtab := a.SymbolTable()

	alphabet := make([]string, len(a.Alphabet()))
	for i, s := range a.Alphabet() {
		alphabet[i] = string(s)
	}

	states := make([]string, a.NumStates())
	for q := 0; q < a.NumStates(); q++ {
		states[q] = symtab.StateName(kernel.StateID(q))
	}

	var transitions []TransitionSpec
	for _, q := range a.States() {
		for _, l := range a.Labels(q) {
			label := "ε"
			if !l.Silent {
				label = string(l.Symbol)
			}
			for _, t := range a.Targets(q, l).Sorted() {
				transitions = append(transitions, TransitionSpec{
					From:  symtab.StateName(q),
					Label: label,
					To:    symtab.StateName(t),
				})
			}
		}
	}

	var starts, accepts []string
	for _, q := range a.Start().Sorted() {
		starts = append(starts, symtab.StateName(q))
	}
	for _, q := range a.Accept().Sorted() {
		accepts = append(accepts, symtab.StateName(q))
	}

	return AutomatonSpec{
		Alphabet:     alphabet,
		States:       states,
		Transitions:  transitions,
		Starts:       starts,
		Accepts:      accepts,
		AllowsSilent: a.AllowsSilent(),
	}
}

// ToAutomaton rebuilds a kernel.Automaton from its stored spec, the inverse
// of ToSpec. Re-runs kernel.Build's full validation, so a spec that was
// corrupted in storage surfaces as kernelerrors.InvalidAutomatonError rather
// than a silently wrong automaton.
func (s AutomatonSpec) ToAutomaton() (kernel.Automaton, error) {
	alphabet := make([]kernel.Symbol, len(s.Alphabet))
	for i, a := range s.Alphabet {
		alphabet[i] = kernel.Symbol(a)
	}

	transitions := make([]kernel.TransitionSpec, len(s.Transitions))
	for i, t := range s.Transitions {
		transitions[i] = kernel.TransitionSpec{From: t.From, Label: t.Label, To: t.To}
	}

	return kernel.Build(alphabet, s.States, transitions, s.Starts, s.Accepts, s.AllowsSilent)
}

// encodeSpec and decodeSpec are the binary on-disk form of a saved
// automaton, delegated entirely to rezi rather than a hand-rolled byte
// format.
func encodeSpec(s AutomatonSpec) []byte {
	return rezi.EncBinary(&s)
}

func decodeSpec(data []byte) (AutomatonSpec, error) {
	var s AutomatonSpec
	n, err := rezi.DecBinary(data, &s)
	if err != nil {
		return s, fmt.Errorf("rezi decode: %w", err)
	}
	if n != len(data) {
		return s, fmt.Errorf("rezi decode: consumed %d/%d bytes", n, len(data))
	}
	return s, nil
}

// MarshalBinary converts t into its rezi byte form.
func (t TransitionSpec) MarshalBinary() ([]byte, error) {
	var enc []byte
	enc = append(enc, rezi.EncString(t.From)...)
	enc = append(enc, rezi.EncString(t.Label)...)
	enc = append(enc, rezi.EncString(t.To)...)
	return enc, nil
}

// UnmarshalBinary fills t with the decoded contents of data, which must
// have been produced by MarshalBinary.
func (t *TransitionSpec) UnmarshalBinary(data []byte) error {
	var n int
	var err error

	t.From, n, err = rezi.DecString(data)
	if err != nil {
		return fmt.Errorf("from: %w", err)
	}
	data = data[n:]

	t.Label, n, err = rezi.DecString(data)
	if err != nil {
		return fmt.Errorf("label: %w", err)
	}
	data = data[n:]

	t.To, _, err = rezi.DecString(data)
	if err != nil {
		return fmt.Errorf("to: %w", err)
	}

	return nil
}

// MarshalBinary converts s into its rezi byte form: each string slice with
// a leading count, transitions as nested binary values.
func (s AutomatonSpec) MarshalBinary() ([]byte, error) {
	var enc []byte
	enc = append(enc, encStringSlice(s.Alphabet)...)
	enc = append(enc, encStringSlice(s.States)...)
	enc = append(enc, rezi.EncInt(len(s.Transitions))...)
	for i := range s.Transitions {
		enc = append(enc, rezi.EncBinary(s.Transitions[i])...)
	}
	enc = append(enc, encStringSlice(s.Starts)...)
	enc = append(enc, encStringSlice(s.Accepts)...)
	enc = append(enc, rezi.EncBool(s.AllowsSilent)...)
	return enc, nil
}

// UnmarshalBinary fills s with the decoded contents of data, which must
// have been produced by MarshalBinary.
func (s *AutomatonSpec) UnmarshalBinary(data []byte) error {
	var n int
	var err error

	s.Alphabet, n, err = decStringSlice(data)
	if err != nil {
		return fmt.Errorf("alphabet: %w", err)
	}
	data = data[n:]

	s.States, n, err = decStringSlice(data)
	if err != nil {
		return fmt.Errorf("states: %w", err)
	}
	data = data[n:]

	var count int
	count, n, err = rezi.DecInt(data)
	if err != nil {
		return fmt.Errorf("transition count: %w", err)
	}
	data = data[n:]
	s.Transitions = nil
	for i := 0; i < count; i++ {
		var t TransitionSpec
		n, err = rezi.DecBinary(data, &t)
		if err != nil {
			return fmt.Errorf("transition %d: %w", i, err)
		}
		data = data[n:]
		s.Transitions = append(s.Transitions, t)
	}

	s.Starts, n, err = decStringSlice(data)
	if err != nil {
		return fmt.Errorf("starts: %w", err)
	}
	data = data[n:]

	s.Accepts, n, err = decStringSlice(data)
	if err != nil {
		return fmt.Errorf("accepts: %w", err)
	}
	data = data[n:]

	s.AllowsSilent, _, err = rezi.DecBool(data)
	if err != nil {
		return fmt.Errorf("allows_silent: %w", err)
	}

	return nil
}

func encStringSlice(vals []string) []byte {
	enc := rezi.EncInt(len(vals))
	for _, v := range vals {
		enc = append(enc, rezi.EncString(v)...)
	}
	return enc
}

func decStringSlice(data []byte) ([]string, int, error) {
	count, n, err := rezi.DecInt(data)
	if err != nil {
		return nil, 0, err
	}
	consumed := n
	data = data[n:]

	var out []string
	for i := 0; i < count; i++ {
		var v string
		v, n, err = rezi.DecString(data)
		if err != nil {
			return nil, consumed, err
		}
		consumed += n
		data = data[n:]
		out = append(out, v)
	}
	return out, consumed, nil
}
