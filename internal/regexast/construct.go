package regexast

import (
	"fmt"

	"github.com/dekarrin/langlab/internal/kernel"
)

// Method selects which regex-to-automaton construction ToAutomaton runs.
type Method int

const (
	// MethodFragment composes one sub-automaton per AST node, glued with
	// silent transitions. The result has exactly one start and one accept
	// state and allows silent transitions.
	MethodFragment Method = iota

	// MethodPosition builds the automaton over linearized symbol positions.
	// The result has no silent transitions.
	MethodPosition
)

func (m Method) String() string {
	switch m {
	case MethodFragment:
		return "fragment"
	case MethodPosition:
		return "position"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod converts the textual method name used on the wire and on CLI
// flags into a Method.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "fragment":
		return MethodFragment, nil
	case "position":
		return MethodPosition, nil
	default:
		return MethodFragment, fmt.Errorf("unknown construction method %q; must be \"fragment\" or \"position\"", s)
	}
}

// ToAutomaton converts a parsed regex into a nondeterministic automaton
// using the selected construction.
func ToAutomaton(n *Node, m Method) (kernel.Automaton, error) {
	switch m {
	case MethodFragment:
		return ToFragmentNFA(n), nil
	case MethodPosition:
		return ToPositionNFA(n), nil
	default:
		return kernel.Automaton{}, fmt.Errorf("unknown construction method %v", m)
	}
}
