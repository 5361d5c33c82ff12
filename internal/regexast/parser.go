package regexast

import (
	"unicode"

	"github.com/dekarrin/langlab/internal/kernel"
	"github.com/dekarrin/langlab/internal/kernelerrors"
)

type tokenKind int

const (
	tokAtom tokenKind = iota // symbol, ε, or ∅
	tokLParen
	tokRParen
	tokUnion
	tokStar
	tokPlus
	tokOption
	tokConcat // synthetic, never produced by the scanner directly
)

type token struct {
	kind tokenKind
	sym  kernel.Symbol // valid for tokAtom symbols
	atom *Node         // the leaf to push, for tokAtom
	pos  int
}

// Parse reads a flat string over Σ ∪ {(, ), |, *, +, ?, ε,
// ∅}, operator precedence low-to-high union < concatenation < postfix,
// parentheses group, implicit concatenation inserted by juxtaposition.
// Symbols are single letters or digits; any other character that is not an
// operator, a parenthesis, or whitespace fails with
// *kernelerrors.InvalidRegexError, as does an unbalanced parenthesis — in
// particular, extended syntax like character classes or bounded repetition
// is rejected at its first brace or bracket rather than silently read as
// literal symbols.
func Parse(text string) (*Node, error) {
	raw, err := scan(text)
	if err != nil {
		return nil, err
	}
	withConcat := insertImplicitConcat(raw)
	return shuntingYard(withConcat)
}

func scan(text string) ([]token, error) {
	var toks []token
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case '(':
			toks = append(toks, token{kind: tokLParen, pos: i})
		case ')':
			toks = append(toks, token{kind: tokRParen, pos: i})
		case '|':
			toks = append(toks, token{kind: tokUnion, pos: i})
		case '*':
			toks = append(toks, token{kind: tokStar, pos: i})
		case '+':
			toks = append(toks, token{kind: tokPlus, pos: i})
		case '?':
			toks = append(toks, token{kind: tokOption, pos: i})
		case 'ε':
			toks = append(toks, token{kind: tokAtom, atom: Eps(), pos: i})
		case '∅':
			toks = append(toks, token{kind: tokAtom, atom: Empty(), pos: i})
		default:
			if r == ' ' || r == '\t' || r == '\n' {
				continue
			}
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				return nil, kernelerrors.NewInvalidRegex(i, "unrecognized character "+string(r))
			}
			toks = append(toks, token{kind: tokAtom, sym: kernel.Symbol(string(r)), atom: Sym(kernel.Symbol(string(r))), pos: i})
		}
	}
	return toks, nil
}

// atomStarter reports whether a token can begin a new operand: a symbol-like
// atom or an opening paren.
func atomStarter(t token) bool {
	return t.kind == tokAtom || t.kind == tokLParen
}

// atomEnder reports whether a token can end an operand, making it eligible to
// be immediately followed (without an explicit operator) by another operand:
// an atom, a closing paren, or a postfix operator.
func atomEnder(t token) bool {
	return t.kind == tokAtom || t.kind == tokRParen || t.kind == tokStar || t.kind == tokPlus || t.kind == tokOption
}

func insertImplicitConcat(toks []token) []token {
	if len(toks) == 0 {
		return toks
	}
	out := make([]token, 0, len(toks)*2)
	out = append(out, toks[0])
	for i := 1; i < len(toks); i++ {
		prev := toks[i-1]
		cur := toks[i]
		if atomEnder(prev) && atomStarter(cur) {
			out = append(out, token{kind: tokConcat, pos: cur.pos})
		}
		out = append(out, cur)
	}
	return out
}

func opPrec(k tokenKind) int {
	switch k {
	case tokUnion:
		return 0
	case tokConcat:
		return 1
	case tokStar, tokPlus, tokOption:
		return 2
	default:
		return -1
	}
}

// shuntingYard runs Dijkstra's algorithm over the token stream, building the
// AST directly on an operand stack instead of an RPN intermediate, per
// the operator precedence table: union lowest, then concatenation, then
// the postfix operators.
func shuntingYard(toks []token) (*Node, error) {
	var operands []*Node
	var operators []token

	applyOp := func(op token) error {
		switch op.kind {
		case tokUnion, tokConcat:
			if len(operands) < 2 {
				return kernelerrors.NewInvalidRegex(op.pos, "operator missing operand")
			}
			r := operands[len(operands)-1]
			l := operands[len(operands)-2]
			operands = operands[:len(operands)-2]
			if op.kind == tokUnion {
				operands = append(operands, UnionOf(l, r))
			} else {
				operands = append(operands, Concat(l, r))
			}
		case tokStar, tokPlus, tokOption:
			if len(operands) < 1 {
				return kernelerrors.NewInvalidRegex(op.pos, "postfix operator missing operand")
			}
			c := operands[len(operands)-1]
			operands = operands[:len(operands)-1]
			switch op.kind {
			case tokStar:
				operands = append(operands, StarOf(c))
			case tokPlus:
				operands = append(operands, PlusOf(c))
			case tokOption:
				operands = append(operands, OptionOf(c))
			}
		}
		return nil
	}

	for _, t := range toks {
		switch t.kind {
		case tokAtom:
			operands = append(operands, t.atom)
		case tokLParen:
			operators = append(operators, t)
		case tokRParen:
			found := false
			for len(operators) > 0 {
				top := operators[len(operators)-1]
				operators = operators[:len(operators)-1]
				if top.kind == tokLParen {
					found = true
					break
				}
				if err := applyOp(top); err != nil {
					return nil, err
				}
			}
			if !found {
				return nil, kernelerrors.NewInvalidRegex(t.pos, "unbalanced parenthesis")
			}
		default: // union, concat, postfix operators
			for len(operators) > 0 {
				top := operators[len(operators)-1]
				if top.kind == tokLParen {
					break
				}
				// left-associative: pop while top has >= precedence
				if opPrec(top.kind) < opPrec(t.kind) {
					break
				}
				operators = operators[:len(operators)-1]
				if err := applyOp(top); err != nil {
					return nil, err
				}
			}
			operators = append(operators, t)
		}
	}

	for len(operators) > 0 {
		top := operators[len(operators)-1]
		operators = operators[:len(operators)-1]
		if top.kind == tokLParen {
			return nil, kernelerrors.NewInvalidRegex(top.pos, "unbalanced parenthesis")
		}
		if err := applyOp(top); err != nil {
			return nil, err
		}
	}

	if len(operands) == 0 {
		return Eps(), nil
	}
	if len(operands) != 1 {
		return nil, kernelerrors.NewInvalidRegex(0, "malformed expression")
	}
	return operands[0], nil
}
