package regexast

import "github.com/dekarrin/langlab/internal/kernel"

// posInfo memoizes nullable/first/last for a single AST node. All three are
// returned from one post-order walk, so no subtree is visited more than
// once.
type posInfo struct {
	nullable bool
	first    map[int]bool
	last     map[int]bool
}

// linearization holds everything computed by linearize: which symbol each
// position carries, and the follow sets between them.
type linearization struct {
	bySymbol []kernel.Symbol // 1-indexed; bySymbol[0] is unused
	follow   []map[int]bool  // 1-indexed
	root     posInfo
}

// Nullable reports whether n's language contains ε, following
// nullable(n). Exposed for internal/synth, which needs it to detect a
// nullable self-coefficient in Arden's lemma.
func Nullable(n *Node) bool {
	switch n.Kind {
	case KindEmpty:
		return false
	case KindEpsilon, KindStar, KindOption:
		return true
	case KindSymbol:
		return false
	case KindConcat:
		return Nullable(n.Left) && Nullable(n.Right)
	case KindUnion:
		return Nullable(n.Left) || Nullable(n.Right)
	case KindPlus:
		return Nullable(n.Left)
	}
	panic("regexast: unhandled node kind in Nullable")
}

// linearize assigns each symbol occurrence in n a unique position 1..k left
// to right and computes nullable/first/last/follow in one bottom-up walk.
func linearize(n *Node) *linearization {
	l := &linearization{
		bySymbol: []kernel.Symbol{""},
		follow:   []map[int]bool{nil},
	}
	root := l.walk(n)
	l.root = root
	return l
}

func (l *linearization) newPosition(s kernel.Symbol) int {
	l.bySymbol = append(l.bySymbol, s)
	l.follow = append(l.follow, map[int]bool{})
	return len(l.bySymbol) - 1
}

func (l *linearization) addFollow(p int, followers map[int]bool) {
	for q := range followers {
		l.follow[p][q] = true
	}
}

// walk computes posInfo for n bottom-up, assigning positions to symbol
// leaves as it goes (left to right, since Go evaluates l.walk(n.Left) before
// l.walk(n.Right) below) and populating follow sets for Concat/Star/Plus
// nodes along the way.
func (l *linearization) walk(n *Node) posInfo {
	switch n.Kind {
	case KindEpsilon:
		return posInfo{nullable: true, first: map[int]bool{}, last: map[int]bool{}}

	case KindEmpty:
		return posInfo{nullable: false, first: map[int]bool{}, last: map[int]bool{}}

	case KindSymbol:
		p := l.newPosition(n.Symbol)
		return posInfo{
			nullable: false,
			first:    map[int]bool{p: true},
			last:     map[int]bool{p: true},
		}

	case KindConcat:
		left := l.walk(n.Left)
		right := l.walk(n.Right)
		for p := range left.last {
			l.addFollow(p, right.first)
		}
		first := unionSet(left.first)
		if left.nullable {
			first = unionSets(first, right.first)
		}
		last := unionSet(right.last)
		if right.nullable {
			last = unionSets(last, left.last)
		}
		return posInfo{nullable: left.nullable && right.nullable, first: first, last: last}

	case KindUnion:
		left := l.walk(n.Left)
		right := l.walk(n.Right)
		return posInfo{
			nullable: left.nullable || right.nullable,
			first:    unionSets(left.first, right.first),
			last:     unionSets(left.last, right.last),
		}

	case KindStar:
		c := l.walk(n.Left)
		for p := range c.last {
			l.addFollow(p, c.first)
		}
		return posInfo{nullable: true, first: unionSet(c.first), last: unionSet(c.last)}

	case KindPlus:
		c := l.walk(n.Left)
		for p := range c.last {
			l.addFollow(p, c.first)
		}
		return posInfo{nullable: c.nullable, first: unionSet(c.first), last: unionSet(c.last)}

	case KindOption:
		c := l.walk(n.Left)
		return posInfo{nullable: true, first: unionSet(c.first), last: unionSet(c.last)}
	}
	panic("regexast: unhandled node kind in linearize")
}

func unionSet(s map[int]bool) map[int]bool {
	out := make(map[int]bool, len(s))
	for k := range s {
		out[k] = true
	}
	return out
}

func unionSets(a, b map[int]bool) map[int]bool {
	out := unionSet(a)
	for k := range b {
		out[k] = true
	}
	return out
}

// ToPositionNFA builds an automaton by the position-based (Glushkov)
// construction. The output has no silent transitions. States are
// {0,...,k}, where 0 is the start and k is the number of symbol positions.
func ToPositionNFA(n *Node) kernel.Automaton {
	l := linearize(n)
	k := len(l.bySymbol) - 1

	delta := map[kernel.StateID]map[kernel.Label]kernel.StateSet{}
	addEdge := func(from int, sym kernel.Symbol, to int) {
		f := kernel.StateID(from)
		lbl := kernel.Sym(sym)
		if delta[f] == nil {
			delta[f] = map[kernel.Label]kernel.StateSet{}
		}
		if delta[f][lbl] == nil {
			delta[f][lbl] = kernel.NewStateSet()
		}
		delta[f][lbl].Add(kernel.StateID(to))
	}

	alphabet := map[kernel.Symbol]bool{}
	var order []kernel.Symbol
	use := func(s kernel.Symbol) {
		if !alphabet[s] {
			alphabet[s] = true
			order = append(order, s)
		}
	}

	for p := range l.root.first {
		use(l.bySymbol[p])
		addEdge(0, l.bySymbol[p], p)
	}
	for p := 1; p <= k; p++ {
		for q := range l.follow[p] {
			use(l.bySymbol[q])
			addEdge(p, l.bySymbol[q], q)
		}
	}

	accept := kernel.NewStateSet()
	for p := range l.root.last {
		accept.Add(kernel.StateID(p))
	}
	if l.root.nullable {
		accept.Add(0)
	}

	start := kernel.NewStateSet(0)
	return kernel.FromParts(order, k+1, delta, start, accept, false, nil)
}
