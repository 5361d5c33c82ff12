// Package render pretty-prints automata and regexes for the interactive
// CLI and session: build a [][]string, hand it to rosed's InsertTableOpts,
// done. Nothing here feeds back into the kernel; it only ever reads an
// Automaton.
package render

import (
	"fmt"
	"strings"

	"github.com/dekarrin/langlab/internal/kernel"
	"github.com/dekarrin/langlab/internal/util"
	"github.com/dekarrin/rosed"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// sortedAlphabet returns Σ in collated order for display. Builders keep Σ in
// first-seen order, which is right for identity but reads scrambled in a
// table header; collation gives a locale-stable column order regardless of
// the order symbols were first mentioned in.
func sortedAlphabet(a kernel.Automaton) []kernel.Symbol {
	syms := a.Alphabet()
	strs := make([]string, len(syms))
	for i, s := range syms {
		strs[i] = string(s)
	}
	collate.New(language.Und).SortStrings(strs)
	out := make([]kernel.Symbol, len(strs))
	for i, s := range strs {
		out[i] = kernel.Symbol(s)
	}
	return out
}

// TransitionTable renders a's transition function as a text table, one row
// per state, one column per alphabet symbol plus a silent-transition column
// when a.AllowsSilent(). State rows are annotated "->" for start states and
// "*" for accepting states.
func TransitionTable(a kernel.Automaton) string {
	symtab := a.SymbolTable()
	starts := a.Start()
	accepts := a.Accept()

	alphabet := sortedAlphabet(a)

	header := []string{"state"}
	for _, s := range alphabet {
		header = append(header, string(s))
	}
	if a.AllowsSilent() {
		header = append(header, "ε")
	}

	data := [][]string{header}

	for _, q := range a.States() {
		label := symtab.StateName(q)
		if starts.Has(q) {
			label = "-> " + label
		}
		if accepts.Has(q) {
			label = "* " + label
		}
		row := []string{label}

		for _, s := range alphabet {
			row = append(row, targetCell(a, q, kernel.Sym(s), symtab))
		}
		if a.AllowsSilent() {
			row = append(row, targetCell(a, q, kernel.SilentLabel, symtab))
		}

		data = append(data, row)
	}

	return rosed.Edit("").
		InsertTableOpts(0, data, 80, rosed.Options{
			TableHeaders:             true,
			NoTrailingLineSeparators: true,
		}).
		String()
}

func targetCell(a kernel.Automaton, q kernel.StateID, l kernel.Label, symtab *kernel.SymbolTable) string {
	targets := a.Targets(q, l)
	if targets.Len() == 0 {
		return ""
	}
	names := make([]string, 0, targets.Len())
	for _, t := range targets.Sorted() {
		names = append(names, symtab.StateName(t))
	}
	return strings.Join(names, ",")
}

// Summary renders a one-line description of a, suitable for a session
// echo: state count, alphabet, and whether it is deterministic/complete.
func Summary(a kernel.Automaton) string {
	syms := sortedAlphabet(a)
	alphabet := make([]string, len(syms))
	for i, s := range syms {
		alphabet[i] = string(s)
	}

	kind := "nondeterministic"
	if a.IsDeterministic() {
		kind = "deterministic"
	}
	completeness := "incomplete"
	if a.IsComplete() {
		completeness = "complete"
	}

	return fmt.Sprintf(
		"%d states over {%s}, %s and %s",
		a.NumStates(), util.MakeTextList(alphabet), kind, completeness,
	)
}
