package regexast

import "github.com/dekarrin/langlab/internal/kernel"

// fragment is a sub-automaton with exactly one start and one accept state,
// built against a shared, monotonically increasing state counter so that
// every fragment's states are disjoint. The per-node compositions (symbol,
// juxtaposition, alternation, Kleene star, plus, option) all glue their
// children with silent transitions directly against a shared delta map
// keyed by dense StateID.
type fragment struct {
	start, accept kernel.StateID
}

type builder struct {
	next     kernel.StateID
	delta    map[kernel.StateID]map[kernel.Label]kernel.StateSet
	alphabet map[kernel.Symbol]bool
	order    []kernel.Symbol
}

func newBuilder() *builder {
	return &builder{
		delta:    map[kernel.StateID]map[kernel.Label]kernel.StateSet{},
		alphabet: map[kernel.Symbol]bool{},
	}
}

func (b *builder) newState() kernel.StateID {
	id := b.next
	b.next++
	return id
}

func (b *builder) addEdge(from kernel.StateID, l kernel.Label, to kernel.StateID) {
	if b.delta[from] == nil {
		b.delta[from] = map[kernel.Label]kernel.StateSet{}
	}
	if b.delta[from][l] == nil {
		b.delta[from][l] = kernel.NewStateSet()
	}
	b.delta[from][l].Add(to)
}

func (b *builder) useSymbol(s kernel.Symbol) {
	if !b.alphabet[s] {
		b.alphabet[s] = true
		b.order = append(b.order, s)
	}
}

// build turns n into a fragment, recursing over its children.
func (b *builder) build(n *Node) fragment {
	switch n.Kind {
	case KindSymbol:
		s, t := b.newState(), b.newState()
		b.useSymbol(n.Symbol)
		b.addEdge(s, kernel.Sym(n.Symbol), t)
		return fragment{start: s, accept: t}

	case KindEpsilon:
		s, t := b.newState(), b.newState()
		b.addEdge(s, kernel.SilentLabel, t)
		return fragment{start: s, accept: t}

	case KindEmpty:
		s, t := b.newState(), b.newState()
		return fragment{start: s, accept: t}

	case KindConcat:
		l := b.build(n.Left)
		r := b.build(n.Right)
		b.addEdge(l.accept, kernel.SilentLabel, r.start)
		return fragment{start: l.start, accept: r.accept}

	case KindUnion:
		l := b.build(n.Left)
		r := b.build(n.Right)
		s, t := b.newState(), b.newState()
		b.addEdge(s, kernel.SilentLabel, l.start)
		b.addEdge(s, kernel.SilentLabel, r.start)
		b.addEdge(l.accept, kernel.SilentLabel, t)
		b.addEdge(r.accept, kernel.SilentLabel, t)
		return fragment{start: s, accept: t}

	case KindStar:
		c := b.build(n.Left)
		s, t := b.newState(), b.newState()
		b.addEdge(s, kernel.SilentLabel, c.start)
		b.addEdge(s, kernel.SilentLabel, t)
		b.addEdge(c.accept, kernel.SilentLabel, c.start)
		b.addEdge(c.accept, kernel.SilentLabel, t)
		return fragment{start: s, accept: t}

	case KindPlus:
		// Like Star, without the s->t shortcut.
		c := b.build(n.Left)
		s, t := b.newState(), b.newState()
		b.addEdge(s, kernel.SilentLabel, c.start)
		b.addEdge(c.accept, kernel.SilentLabel, c.start)
		b.addEdge(c.accept, kernel.SilentLabel, t)
		return fragment{start: s, accept: t}

	case KindOption:
		// Like Union(c, Epsilon).
		return b.build(UnionOf(n.Left, Eps()))
	}
	panic("regexast: unhandled node kind in fragment construction")
}

// ToFragmentNFA builds an automaton by fragment assembly. The
// output has exactly one start and one accept state, and allows_silent=true.
func ToFragmentNFA(n *Node) kernel.Automaton {
	b := newBuilder()
	frag := b.build(n)

	start := kernel.NewStateSet(frag.start)
	accept := kernel.NewStateSet(frag.accept)

	return kernel.FromParts(b.order, int(b.next), b.delta, start, accept, true, nil)
}
