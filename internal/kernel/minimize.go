package kernel

import (
	"context"
	"sort"

	"github.com/dekarrin/langlab/internal/kernelerrors"
)

// BlockID identifies an equivalence class during partition refinement.
type BlockID int

// MinimizeTrace records the partition after each refinement round, the
// classroom-facing "steps" view of how the equivalence classes formed.
type MinimizeTrace struct {
	// Partitions[i] is the partition (block id -> member states) after
	// round i. Partitions[0] is the initial {F, Q\F} split.
	Partitions []map[BlockID]StateSet
}

// Minimize implements partition-refinement minimization. The input must be
// a complete deterministic automaton. Unreachable states are pruned first
// (minimization does not recover them); blocks are identified by the
// smallest id they contain, and output states are numbered 0..k-1 in the
// order their block's representative first appears in the pruned ordering,
// so relabeling the input never changes the output shape. Dead states are
// merged into a single non-accepting sink numbered k, so the output is
// complete.
func Minimize(a Automaton) (Automaton, error) {
	out, _, err := MinimizeWithTrace(a)
	return out, err
}

// MinimizeCtx is Minimize with cooperative cancellation: ctx is checked
// once per refinement round, and on cancellation the operation returns
// ErrCancelled with no partial output.
func MinimizeCtx(ctx context.Context, a Automaton) (Automaton, error) {
	out, _, err := minimize(ctx, a)
	return out, err
}

// MinimizeWithTrace is Minimize plus the round-by-round MinimizeTrace.
func MinimizeWithTrace(a Automaton) (Automaton, MinimizeTrace, error) {
	return minimize(context.Background(), a)
}

func minimize(ctx context.Context, a Automaton) (Automaton, MinimizeTrace, error) {
	if !a.IsComplete() {
		return Automaton{}, MinimizeTrace{}, kernelerrors.ErrNotComplete
	}

	pruned := Prune(a)
	if pruned.numStates == 0 {
		// Empty language: the fixed point is a single non-accepting sink
		// looping on every symbol.
		return singleSinkAutomaton(a.Alphabet(), false), MinimizeTrace{}, nil
	}

	states := pruned.States()

	block := make(map[StateID]BlockID, len(states))
	for _, q := range states {
		if pruned.IsAccepting(q) {
			block[q] = 1
		} else {
			block[q] = 0
		}
	}

	trace := MinimizeTrace{Partitions: []map[BlockID]StateSet{snapshotPartition(block)}}

	for {
		if ctx.Err() != nil {
			return Automaton{}, MinimizeTrace{}, kernelerrors.ErrCancelled
		}

		signature := func(q StateID) string {
			var sb []byte
			for _, sym := range pruned.alphabet {
				targets := pruned.Targets(q, Sym(sym))
				var bid BlockID = -1
				for t := range targets {
					bid = block[t]
				}
				sb = append(sb, []byte(itoa(int(bid)))...)
				sb = append(sb, ',')
			}
			return string(sb)
		}

		// Group current states by (current block, transition signature).
		type key struct {
			block BlockID
			sig   string
		}
		groups := map[key][]StateID{}
		for _, q := range states {
			k := key{block: block[q], sig: signature(q)}
			groups[k] = append(groups[k], q)
		}

		if len(groups) == len(uniqueBlocks(block)) {
			break
		}

		// Reassign block ids: stable ordering by (old block, smallest member).
		type groupInfo struct {
			k       key
			members []StateID
		}
		var infos []groupInfo
		for k, members := range groups {
			infos = append(infos, groupInfo{k: k, members: members})
		}
		sort.Slice(infos, func(i, j int) bool {
			if infos[i].k.block != infos[j].k.block {
				return infos[i].k.block < infos[j].k.block
			}
			return minOf(infos[i].members) < minOf(infos[j].members)
		})

		newBlock := make(map[StateID]BlockID, len(states))
		for i, g := range infos {
			for _, q := range g.members {
				newBlock[q] = BlockID(i)
			}
		}
		block = newBlock
		trace.Partitions = append(trace.Partitions, snapshotPartition(block))
	}

	// Build output: one state per block, numbered by the order blocks'
	// smallest member appears in the pruned ordering.
	blockOf := block
	blocksSorted := uniqueBlocksSorted(blockOf, states)

	newID := make(map[BlockID]StateID, len(blocksSorted))
	for i, b := range blocksSorted {
		newID[b] = StateID(i)
	}

	delta := map[StateID]map[Label]StateSet{}
	accept := NewStateSet()
	start := NewStateSet()

	repOf := make(map[BlockID]StateID, len(blocksSorted))
	for _, q := range states {
		b := blockOf[q]
		if _, ok := repOf[b]; !ok {
			repOf[b] = q
		}
	}

	for _, b := range blocksSorted {
		rep := repOf[b]
		out := newID[b]
		delta[out] = map[Label]StateSet{}
		for _, sym := range pruned.alphabet {
			targets := pruned.Targets(rep, Sym(sym))
			for t := range targets {
				delta[out][Sym(sym)] = NewStateSet(newID[blockOf[t]])
			}
		}
		if pruned.IsAccepting(rep) {
			accept.Add(out)
		}
		if pruned.Start().Has(rep) {
			start.Add(out)
		}
	}
	// The start state's block always contains the pruned start state even if
	// rep != start; find the block containing the actual start.
	start = NewStateSet()
	for sid := range pruned.Start() {
		start.Add(newID[blockOf[sid]])
	}

	symtab := newSymbolTable()
	for _, s := range pruned.alphabet {
		symtab.internSymbol(s)
	}
	for _, b := range blocksSorted {
		symtab.internState(displayName(pruned, repOf[b]))
	}

	out := sealed(pruned.Alphabet(), len(blocksSorted), delta, start, accept, false, symtab)

	// Prune also dropped any dead states; they form one equivalence class,
	// restored here as a single sink appended after the blocks.
	out, err := Complete(out)
	if err != nil {
		return Automaton{}, MinimizeTrace{}, err
	}
	return out, trace, nil
}

func minOf(ids []StateID) StateID {
	m := ids[0]
	for _, id := range ids[1:] {
		if id < m {
			m = id
		}
	}
	return m
}

func uniqueBlocks(block map[StateID]BlockID) map[BlockID]bool {
	out := map[BlockID]bool{}
	for _, b := range block {
		out[b] = true
	}
	return out
}

func uniqueBlocksSorted(block map[StateID]BlockID, states []StateID) []BlockID {
	seen := map[BlockID]bool{}
	var order []BlockID
	for _, q := range states {
		b := block[q]
		if !seen[b] {
			seen[b] = true
			order = append(order, b)
		}
	}
	return order
}

func snapshotPartition(block map[StateID]BlockID) map[BlockID]StateSet {
	out := map[BlockID]StateSet{}
	for q, b := range block {
		if out[b] == nil {
			out[b] = NewStateSet()
		}
		out[b].Add(q)
	}
	return out
}

// singleSinkAutomaton builds the one-state automaton looping on every symbol
// used for the empty-language minimization edge case. (The empty-complement
// case, where every state accepts, needs no special path: refinement leaves a
// single accepting block.)
func singleSinkAutomaton(alphabet []Symbol, accepting bool) Automaton {
	delta := map[StateID]map[Label]StateSet{0: {}}
	for _, sym := range alphabet {
		delta[0][Sym(sym)] = NewStateSet(0)
	}
	accept := NewStateSet()
	if accepting {
		accept.Add(0)
	}
	symtab := newSymbolTable()
	for _, s := range alphabet {
		symtab.internSymbol(s)
	}
	symtab.internState("q0")
	return sealed(alphabet, 1, delta, NewStateSet(0), accept, false, symtab)
}
