package ast

import (
	"fmt"

	"github.com/agentic-research/garden/api"
)

// Parse reads a whole source file into an ordered sequence of root nodes.
// Parse failures abort the entire cycle (spec §7) and are reported as a
// single ParseError rather than a partial tree.
func Parse(src string) ([]*Node, *api.Error) {
	l := newLexer(src)
	var roots []*Node
	for {
		tok, err := l.next()
		if err != nil {
			return nil, api.NewError(api.ErrParse, "%s", err.Error())
		}
		if tok.kind == tokEOF {
			break
		}
		n, err := parseForm(l, tok)
		if err != nil {
			return nil, api.NewError(api.ErrParse, "%s", err.Error())
		}
		roots = append(roots, n)
	}
	return roots, nil
}

// parseForm parses one complete form given its already-lexed first token.
func parseForm(l *lexer, tok token) (*Node, error) {
	switch tok.kind {
	case tokSymbol:
		return &Node{Kind: Symbol, Line: tok.line, Snippet: tok.text, Name: tok.text}, nil
	case tokInteger:
		return &Node{Kind: Integer, Line: tok.line, Snippet: tok.text, Int: tok.num}, nil
	case tokString:
		return &Node{Kind: String, Line: tok.line, Snippet: tok.text, Str: tok.str}, nil
	case tokLParen:
		return parseList(l, tok)
	case tokRParen:
		return nil, fmt.Errorf("unexpected ')' at line %d", tok.line)
	default:
		return nil, fmt.Errorf("unexpected end of input")
	}
}

func parseList(l *lexer, open token) (*Node, error) {
	var children []*Node
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		if tok.kind == tokEOF {
			return nil, fmt.Errorf("unterminated list starting at line %d", open.line)
		}
		if tok.kind == tokRParen {
			return &Node{
				Kind:     List,
				Line:     open.line,
				Snippet:  l.src[open.start:tok.end],
				Children: children,
			}, nil
		}
		child, err := parseForm(l, tok)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
}
