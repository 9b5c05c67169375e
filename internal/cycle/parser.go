package cycle

import (
	"fmt"
	"strconv"
)

// parser is a hand-rolled recursive-descent parser over the mini-notation
// token stream. It deviates from canonical Tidal in three documented ways:
//
//  1. Bare ',' and '|' are accepted at the top level without an enclosing
//     '[...]', producing parallel channels / a top-level random choice.
//  2. ':' attaches attribute tokens (instrument, velocity, ...) to the
//     preceding atom; it never indexes a sample bank.
//  3. Björklund operands must be bare atoms with literal integer
//     arguments — no nested operators are allowed inside "(p,k,r)", and no
//     further suffix may follow a Euclidean suffix. "a(3,8)*2" and
//     "a(<3 2>,8)" are both rejected as parse errors.
type parser struct {
	toks   []token
	pos    int
	nextID int
	source string
}

// Parse compiles mini-notation source into a top-level stack of channels.
// Each returned *node is the root of one channel (nodeStack children when
// the source used top-level ',', a single root otherwise).
func Parse(src string) ([]*node, error) {
	toks, err := tokenize(src)
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.Source = src
		}
		return nil, err
	}
	p := &parser{toks: toks, source: src}
	root, err := p.parseStackExpr()
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.Source = src
		}
		return nil, err
	}
	if p.cur().kind != tokEOF {
		return nil, p.errorf("unexpected trailing input %q", p.cur().text)
	}
	if root.kind == nodeStack {
		return root.children, nil
	}
	return []*node{root}, nil
}

func (p *parser) cur() token  { return p.toks[p.pos] }
func (p *parser) advance()    { p.pos++ }
func (p *parser) id() int     { p.nextID++; return p.nextID }

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Col: p.cur().col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) parseStackExpr() (*node, error) {
	first, err := p.parseChoiceSeq()
	if err != nil {
		return nil, err
	}
	children := []*node{first}
	for p.cur().kind == tokComma {
		p.advance()
		next, err := p.parseChoiceSeq()
		if err != nil {
			return nil, err
		}
		children = append(children, next)
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return &node{kind: nodeStack, children: children, id: p.id()}, nil
}

func (p *parser) parseChoiceSeq() (*node, error) {
	first, err := p.parseSeq()
	if err != nil {
		return nil, err
	}
	children := []*node{first}
	for p.cur().kind == tokPipe {
		p.advance()
		next, err := p.parseSeq()
		if err != nil {
			return nil, err
		}
		children = append(children, next)
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return &node{kind: nodeChoice, children: children, id: p.id()}, nil
}

func (p *parser) parseSeq() (*node, error) {
	var children []*node
	for {
		switch p.cur().kind {
		case tokEOF, tokRBracket, tokRAngle, tokComma, tokPipe, tokRParen:
			return &node{kind: nodeGroup, children: children, id: p.id()}, nil
		case tokUnderscore:
			if len(children) == 0 {
				return nil, p.errorf("'_' elongation with no preceding step")
			}
			children[len(children)-1].weight++
			p.advance()
		default:
			term, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			children = append(children, newWeightedChild(term))
		}
	}
}

func (p *parser) parseTerm() (*node, error) {
	n, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	sawEuclid := false
	for {
		switch p.cur().kind {
		case tokStar:
			if sawEuclid {
				return nil, p.errorf("operators cannot follow a Euclidean suffix")
			}
			p.advance()
			factor, err := p.parseIntLiteral()
			if err != nil {
				return nil, err
			}
			n = &node{kind: nodeFast, child: n, factor: factor, id: p.id()}
		case tokSlash:
			if sawEuclid {
				return nil, p.errorf("operators cannot follow a Euclidean suffix")
			}
			p.advance()
			factor, err := p.parseIntLiteral()
			if err != nil {
				return nil, err
			}
			n = &node{kind: nodeSlow, child: n, factor: factor, id: p.id()}
		case tokLParen:
			if n.kind != nodeAtom && n.kind != nodeRest {
				return nil, p.errorf("Euclidean operand must be a bare step, not a group or expression")
			}
			euc, err := p.parseEuclidSuffix(n)
			if err != nil {
				return nil, err
			}
			n = euc
			sawEuclid = true
		default:
			goto attrs
		}
	}

attrs:
	for p.cur().kind == tokColon {
		p.advance()
		if p.cur().kind != tokIdent && p.cur().kind != tokNumber {
			return nil, p.errorf("expected attribute token after ':'")
		}
		n = &node{kind: nodeAttrited, child: n, attrs: append(attrsOf(n), attrToken{text: p.cur().text}), id: p.id()}
		p.advance()
	}
	return n, nil
}

func attrsOf(n *node) []attrToken {
	if n.kind == nodeAttrited {
		return n.attrs
	}
	return nil
}

func (p *parser) parseEuclidSuffix(operand *node) (*node, error) {
	// already positioned at '('
	p.advance()
	pulses, err := p.parseIntLiteral()
	if err != nil {
		return nil, err
	}
	if p.cur().kind != tokComma {
		return nil, p.errorf("expected ',' in Euclidean arguments")
	}
	p.advance()
	steps, err := p.parseIntLiteral()
	if err != nil {
		return nil, err
	}
	rotate := 0
	if p.cur().kind == tokComma {
		p.advance()
		rotate, err = p.parseIntLiteral()
		if err != nil {
			return nil, err
		}
	}
	if p.cur().kind != tokRParen {
		return nil, p.errorf("expected ')' to close Euclidean arguments")
	}
	p.advance()
	return &node{kind: nodeEuclid, child: operand, pulses: pulses, steps: steps, rotate: rotate, id: p.id()}, nil
}

func (p *parser) parseIntLiteral() (int, error) {
	if p.cur().kind != tokNumber {
		return 0, p.errorf("expected integer literal, got %q", p.cur().text)
	}
	n, err := strconv.Atoi(p.cur().text)
	if err != nil {
		return 0, p.errorf("invalid integer literal %q", p.cur().text)
	}
	p.advance()
	return n, nil
}

func (p *parser) parsePrimary() (*node, error) {
	tok := p.cur()
	switch tok.kind {
	case tokTilde:
		p.advance()
		return &node{kind: nodeRest, id: p.id()}, nil
	case tokLBracket:
		p.advance()
		inner, err := p.parseStackExpr()
		if err != nil {
			return nil, err
		}
		if p.cur().kind != tokRBracket {
			return nil, p.errorf("expected ']' to close group")
		}
		p.advance()
		return inner, nil
	case tokLAngle:
		p.advance()
		alt, err := p.parseAltBody()
		if err != nil {
			return nil, err
		}
		if p.cur().kind != tokRAngle {
			return nil, p.errorf("expected '>' to close alternation")
		}
		p.advance()
		return alt, nil
	case tokIdent, tokNumber:
		p.advance()
		return &node{kind: nodeAtom, token: tok.text, id: p.id()}, nil
	default:
		return nil, p.errorf("unexpected token %q", tok.text)
	}
}

func (p *parser) parseAltBody() (*node, error) {
	var children []*node
	for {
		switch p.cur().kind {
		case tokRAngle, tokEOF:
			if len(children) == 0 {
				return nil, p.errorf("alternation '<...>' must contain at least one step")
			}
			return &node{kind: nodeAlt, children: children, id: p.id()}, nil
		default:
			term, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			children = append(children, term)
		}
	}
}
