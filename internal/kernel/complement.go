package kernel

import "github.com/dekarrin/langlab/internal/kernelerrors"

// Complement returns an automaton for the complement language. The
// precondition is that the input is
// already deterministic and complete; when autoPrepare is true the caller is
// asking the kernel to determinize-then-complete first rather than reject.
// The complement is then just swapping F and Q\F.
func Complement(a Automaton, autoPrepare bool) (Automaton, error) {
	prepared := a
	if !prepared.IsDeterministic() {
		if !autoPrepare {
			return Automaton{}, kernelerrors.ErrNotDeterministic
		}
		prepared, _ = Determinize(prepared)
	}
	if !prepared.IsComplete() {
		if !autoPrepare {
			return Automaton{}, kernelerrors.ErrNotComplete
		}
		var err error
		prepared, err = Complete(prepared)
		if err != nil {
			return Automaton{}, err
		}
	}

	newAccept := NewStateSet()
	for _, q := range prepared.States() {
		if !prepared.IsAccepting(q) {
			newAccept.Add(q)
		}
	}

	return sealed(prepared.Alphabet(), prepared.numStates, prepared.delta, prepared.Start(), newAccept, false, prepared.symtab), nil
}
