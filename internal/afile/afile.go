// Package afile has functions for loading and saving automaton descriptions
// and equation systems using a small TOML-based file format, so the CLI
// tools can pass automata around as files instead of retyping transition
// lists. Files are descriptions, not sealed automata; loading always runs
// the full builder validation.
package afile

import (
	"bytes"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/dekarrin/langlab/internal/kernel"
	"github.com/dekarrin/langlab/internal/regexast"
	"github.com/dekarrin/langlab/internal/store"
	"github.com/dekarrin/langlab/internal/synth"
)

// Format is the value every automaton file must carry in its top-level
// "format" key. Files with any other value are rejected before any field is
// interpreted.
const Format = "langlab-automaton"

// EquationsFormat is the format key value for equation-system files.
const EquationsFormat = "langlab-equations"

// FileInfo contains the essential information all langlab files must
// contain, read ahead of full decoding to give a better error than a field
// mismatch would.
type FileInfo struct {
	Format string `toml:"format"`
}

type transitionRec struct {
	From  string `toml:"from"`
	Label string `toml:"label"`
	To    string `toml:"to"`
}

type automatonRec struct {
	Alphabet     []string        `toml:"alphabet"`
	States       []string        `toml:"states"`
	Starts       []string        `toml:"starts"`
	Accepts      []string        `toml:"accepts"`
	AllowsSilent bool            `toml:"allows_silent"`
	Transitions  []transitionRec `toml:"transitions"`
}

type automatonFile struct {
	Format    string       `toml:"format"`
	Automaton automatonRec `toml:"automaton"`
}

type equationsFile struct {
	Format    string                `toml:"format"`
	Equations map[string][][]string `toml:"equations"`
}

// LoadSpec reads the automaton description in the file at path without
// building it. Most callers want Load; this exists for tools that persist
// the description as-is.
func LoadSpec(path string) (store.AutomatonSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return store.AutomatonSpec{}, fmt.Errorf("%s: %w", path, err)
	}

	var info FileInfo
	if err := toml.Unmarshal(data, &info); err != nil {
		return store.AutomatonSpec{}, fmt.Errorf("%s: %w", path, err)
	}
	if info.Format != Format {
		return store.AutomatonSpec{}, fmt.Errorf("%s: file format is %q, not %q", path, info.Format, Format)
	}

	var f automatonFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return store.AutomatonSpec{}, fmt.Errorf("%s: %w", path, err)
	}

	transitions := make([]store.TransitionSpec, len(f.Automaton.Transitions))
	for i, t := range f.Automaton.Transitions {
		transitions[i] = store.TransitionSpec{From: t.From, Label: t.Label, To: t.To}
	}

	return store.AutomatonSpec{
		Alphabet:     f.Automaton.Alphabet,
		States:       f.Automaton.States,
		Transitions:  transitions,
		Starts:       f.Automaton.Starts,
		Accepts:      f.Automaton.Accepts,
		AllowsSilent: f.Automaton.AllowsSilent,
	}, nil
}

// Load reads and validates the automaton in the file at path.
func Load(path string) (kernel.Automaton, error) {
	spec, err := LoadSpec(path)
	if err != nil {
		return kernel.Automaton{}, err
	}
	a, err := spec.ToAutomaton()
	if err != nil {
		return kernel.Automaton{}, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// Save writes a to the file at path in the format Load reads.
func Save(path string, a kernel.Automaton) error {
	return SaveSpec(path, store.ToSpec(a))
}

// SaveSpec writes an automaton description to the file at path.
func SaveSpec(path string, spec store.AutomatonSpec) error {
	transitions := make([]transitionRec, len(spec.Transitions))
	for i, t := range spec.Transitions {
		transitions[i] = transitionRec{From: t.From, Label: t.Label, To: t.To}
	}

	f := automatonFile{
		Format: Format,
		Automaton: automatonRec{
			Alphabet:     spec.Alphabet,
			States:       spec.States,
			Starts:       spec.Starts,
			Accepts:      spec.Accepts,
			AllowsSilent: spec.AllowsSilent,
			Transitions:  transitions,
		},
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// LoadEquations reads a right-linear equation system from the file at path.
// Each equation is a list of terms; a term is either [factor, variable] or
// [factor] for a constant contribution. Factors are regex text and are
// parsed here, so a bad factor fails at load time with its position.
func LoadEquations(path string) (map[synth.Var]synth.Expr, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var info FileInfo
	if err := toml.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if info.Format != EquationsFormat {
		return nil, fmt.Errorf("%s: file format is %q, not %q", path, info.Format, EquationsFormat)
	}

	var f equationsFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(f.Equations) == 0 {
		return nil, fmt.Errorf("%s: no equations defined", path)
	}

	eqs := make(map[synth.Var]synth.Expr, len(f.Equations))
	for v, terms := range f.Equations {
		var expr synth.Expr
		for i, term := range terms {
			if len(term) < 1 || len(term) > 2 {
				return nil, fmt.Errorf("%s: equation %s term %d: must be [factor] or [factor, variable]", path, v, i+1)
			}
			factor, err := regexast.Parse(term[0])
			if err != nil {
				return nil, fmt.Errorf("%s: equation %s term %d: %w", path, v, i+1, err)
			}
			var ref synth.Var
			if len(term) == 2 {
				if _, ok := f.Equations[term[1]]; !ok {
					return nil, fmt.Errorf("%s: equation %s term %d references undefined variable %s", path, v, i+1, term[1])
				}
				ref = synth.Var(term[1])
			}
			expr = append(expr, synth.Term{Factor: factor, Ref: ref})
		}
		eqs[synth.Var(v)] = expr
	}

	return eqs, nil
}
