package query

import (
	"fmt"
	"strconv"
)

// Parse compiles a rule's query source into a RuleQuery. The source must
// contain exactly one `baseline $ { ... }` and one `current $ { ... }`
// top-level block (§4.1: "Two top-level named scopes ... are independent
// traversals").
func Parse(src string) (*RuleQuery, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}

	rq := &RuleQuery{}
	for p.peek().kind != tokEOF {
		name := p.expect(tokIdent)
		if name.err != nil {
			return nil, name.err
		}
		if _, err := p.expectTok(tokDollar); err != nil {
			return nil, err
		}
		if _, err := p.expectTok(tokLBrace); err != nil {
			return nil, err
		}
		children, err := p.parseSelectors()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectTok(tokRBrace); err != nil {
			return nil, err
		}
		if len(children) != 1 || children[0].Type != NodeEdge || children[0].Edge != "item" {
			return nil, fmt.Errorf("query: scope %q must contain exactly one top-level `item { ... }` selection", name.tok.text)
		}
		scope := &Scope{Name: name.tok.text, Root: children[0]}
		switch name.tok.text {
		case "baseline":
			if rq.Baseline != nil {
				return nil, fmt.Errorf("query: duplicate baseline scope")
			}
			rq.Baseline = scope
		case "current":
			if rq.Current != nil {
				return nil, fmt.Errorf("query: duplicate current scope")
			}
			rq.Current = scope
		default:
			return nil, fmt.Errorf("query: unknown scope %q, expected baseline or current", name.tok.text)
		}
	}

	if rq.Baseline == nil || rq.Current == nil {
		return nil, fmt.Errorf("query: must declare both a baseline and a current scope")
	}
	return rq, nil
}

func tokenize(src string) ([]token, error) {
	l := newLexer(src)
	var toks []token
	for {
		t, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, t)
		if t.kind == tokEOF {
			return toks, nil
		}
	}
}

type parser struct {
	toks []token
	pos  int
}

type expectResult struct {
	tok token
	err error
}

func (p *parser) peek() token {
	if p.pos >= len(p.toks) {
		return token{kind: tokEOF}
	}
	return p.toks[p.pos]
}

func (p *parser) advance() token {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind) expectResult {
	t := p.peek()
	if t.kind != kind {
		return expectResult{err: fmt.Errorf("query: line %d: unexpected token (wanted kind %d, got %q)", t.line, kind, t.text)}
	}
	p.advance()
	return expectResult{tok: t}
}

func (p *parser) expectTok(kind tokenKind) (token, error) {
	r := p.expect(kind)
	return r.tok, r.err
}

// parseSelectors parses the body of a `{ ... }` block: a sequence of
// NodeEdge / NodeProp / NodeRefine selectors, until the matching `}`.
func (p *parser) parseSelectors() ([]*Node, error) {
	var out []*Node
	for {
		switch p.peek().kind {
		case tokRBrace, tokEOF:
			return out, nil
		case tokEllipsis:
			node, err := p.parseRefine()
			if err != nil {
				return nil, err
			}
			out = append(out, node)
		case tokIdent:
			node, err := p.parseNamedSelector()
			if err != nil {
				return nil, err
			}
			out = append(out, node)
		default:
			t := p.peek()
			return nil, fmt.Errorf("query: line %d: unexpected token %q", t.line, t.text)
		}
	}
}

func (p *parser) parseRefine() (*Node, error) {
	p.advance() // consume '...'
	on := p.expect(tokIdent)
	if on.err != nil || on.tok.text != "on" {
		return nil, fmt.Errorf("query: line %d: expected `on` after `...`", p.peek().line)
	}
	kind := p.expect(tokIdent)
	if kind.err != nil {
		return nil, kind.err
	}
	if _, err := p.expectTok(tokLBrace); err != nil {
		return nil, err
	}
	children, err := p.parseSelectors()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectTok(tokRBrace); err != nil {
		return nil, err
	}
	return &Node{Type: NodeRefine, RefineKind: kind.tok.text, Children: children}, nil
}

// parseNamedSelector parses `name` plus any combination, in any order, of
// `{ body }`, `@fold`, `@optional`, `@transform(op)`, `@filter(op, val)`,
// `@tag`/`@tag(name)`, `@output`/`@output(name)`. A `@filter` becomes the
// fold's post-aggregation filter only when it follows `@fold` or
// `@transform`; one written before them stays a plain property filter.
func (p *parser) parseNamedSelector() (*Node, error) {
	name := p.advance() // ident already confirmed by caller's switch
	node := &Node{Type: NodeProp, Prop: name.text}
	becameEdge := false
	var pendingAggFilter *Filter

	for {
		switch p.peek().kind {
		case tokLBrace:
			p.advance()
			children, err := p.parseSelectors()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectTok(tokRBrace); err != nil {
				return nil, err
			}
			node.Children = children
			becameEdge = true
		case tokAt:
			p.advance()
			kw := p.expect(tokIdent)
			if kw.err != nil {
				return nil, kw.err
			}
			switch kw.tok.text {
			case "fold":
				node.Fold = true
				becameEdge = true
			case "optional":
				node.Optional = true
				becameEdge = true
			case "transform":
				if _, err := p.expectTok(tokLParen); err != nil {
					return nil, err
				}
				op := p.expect(tokIdent)
				if op.err != nil {
					return nil, op.err
				}
				if _, err := p.expectTok(tokRParen); err != nil {
					return nil, err
				}
				node.Transform = op.tok.text
				becameEdge = true
			case "filter":
				f, err := p.parseFilterArgs()
				if err != nil {
					return nil, err
				}
				if node.Transform != "" || node.Fold {
					pendingAggFilter = f
				} else {
					node.Filters = append(node.Filters, f)
				}
			case "tag":
				tagName := name.text
				if p.peek().kind == tokLParen {
					p.advance()
					id := p.expect(tokIdent)
					if id.err != nil {
						return nil, id.err
					}
					tagName = id.tok.text
					if _, err := p.expectTok(tokRParen); err != nil {
						return nil, err
					}
				}
				node.Tag = tagName
			case "output":
				outName := name.text
				if p.peek().kind == tokLParen {
					p.advance()
					id := p.expect(tokIdent)
					if id.err != nil {
						return nil, id.err
					}
					outName = id.tok.text
					if _, err := p.expectTok(tokRParen); err != nil {
						return nil, err
					}
				}
				node.Output = outName
			default:
				return nil, fmt.Errorf("query: line %d: unknown annotation @%s", kw.tok.line, kw.tok.text)
			}
		default:
			if becameEdge {
				node.Type = NodeEdge
				node.Edge = name.text
				node.Prop = ""
				node.FoldFilter = pendingAggFilter
			} else if pendingAggFilter != nil {
				// @filter after @transform with no block and no fold is
				// nonsensical; treat as a plain leaf filter instead.
				node.Filters = append(node.Filters, pendingAggFilter)
			}
			return node, nil
		}
	}
}

func (p *parser) parseFilterArgs() (*Filter, error) {
	if _, err := p.expectTok(tokLParen); err != nil {
		return nil, err
	}
	opTok := p.expect(tokIdent)
	if opTok.err != nil {
		return nil, opTok.err
	}
	if _, err := p.expectTok(tokComma); err != nil {
		return nil, err
	}
	operand, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectTok(tokRParen); err != nil {
		return nil, err
	}
	return &Filter{Op: Op(opTok.tok.text), Operand: operand}, nil
}

func (p *parser) parseOperand() (Operand, error) {
	switch p.peek().kind {
	case tokDollar:
		p.advance()
		id := p.expect(tokIdent)
		if id.err != nil {
			return Operand{}, id.err
		}
		return Operand{Kind: OperandArg, Name: id.tok.text}, nil
	case tokPercent:
		p.advance()
		id := p.expect(tokIdent)
		if id.err != nil {
			return Operand{}, id.err
		}
		return Operand{Kind: OperandTag, Name: id.tok.text}, nil
	case tokString:
		t := p.advance()
		return Operand{Kind: OperandLiteral, Literal: Lit{Str: t.text}}, nil
	case tokInt:
		t := p.advance()
		n, err := strconv.ParseInt(t.text, 0, 64)
		if err != nil {
			return Operand{}, fmt.Errorf("query: line %d: invalid integer literal %q: %w", t.line, t.text, err)
		}
		return Operand{Kind: OperandLiteral, Literal: Lit{Int: n, IsInt: true}}, nil
	case tokIdent:
		t := p.advance()
		switch t.text {
		case "true":
			return Operand{Kind: OperandLiteral, Literal: Lit{Bool: true, IsBool: true}}, nil
		case "false":
			return Operand{Kind: OperandLiteral, Literal: Lit{Bool: false, IsBool: true}}, nil
		default:
			return Operand{Kind: OperandLiteral, Literal: Lit{Str: t.text}}, nil
		}
	default:
		t := p.peek()
		return Operand{}, fmt.Errorf("query: line %d: expected filter operand, got %q", t.line, t.text)
	}
}
