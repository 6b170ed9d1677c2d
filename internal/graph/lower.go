package graph

import "github.com/agentic-research/garden/internal/ast"

// reservedHeads maps a list's first symbol to the composite Kind it lowers
// to, per spec §4.2. "let" is handled separately since its kind depends on
// arity (statement form vs. expression form).
var reservedHeads = map[string]Kind{
	"def":       KindDefinition,
	"+":         KindAddition,
	"*":         KindMultiplication,
	"http.get":  KindHTTPGet,
	"json.parse": KindJSONParse,
	"get":       KindJSONGet,
	"str.upper": KindStringUpper,
}

// Lower converts one ast.Node into a content-addressed graph.Node,
// recursively lowering children first so their ids are available when the
// parent's id is computed (children precede parents in hashing, spec
// invariant 2). Lowering never fails: an unrecognised list becomes a
// generic-call node, reported as an unknown-function error at evaluation
// time, not at lowering time (spec §4.2).
func Lower(n *ast.Node) *Node {
	meta := map[string]interface{}{"line": n.Line}

	switch n.Kind {
	case ast.Symbol:
		payload := SymbolPayload(n.Name)
		return &Node{
			ID:       ComputeID(KindSymbol, n.Snippet, payload, nil),
			Kind:     KindSymbol,
			Snippet:  n.Snippet,
			Metadata: meta,
		}
	case ast.Integer:
		payload := IntPayload(n.Int)
		return &Node{
			ID:       ComputeID(KindIntegerLiteral, n.Snippet, payload, nil),
			Kind:     KindIntegerLiteral,
			Snippet:  n.Snippet,
			Metadata: meta,
			IntValue: n.Int,
		}
	case ast.String:
		payload := TextPayload(n.Str)
		return &Node{
			ID:       ComputeID(KindStringLiteral, n.Snippet, payload, nil),
			Kind:     KindStringLiteral,
			Snippet:  n.Snippet,
			Metadata: meta,
			StrValue: n.Str,
		}
	case ast.List:
		return lowerList(n, meta)
	default:
		panic("graph: lower: unknown ast kind")
	}
}

func lowerList(n *ast.Node, meta map[string]interface{}) *Node {
	if len(n.Children) == 0 {
		return &Node{
			ID:       ComputeID(KindGenericList, n.Snippet, nil, nil),
			Kind:     KindGenericList,
			Snippet:  n.Snippet,
			Metadata: meta,
		}
	}

	children := make([]*Node, len(n.Children))
	for i, c := range n.Children {
		children[i] = Lower(c)
	}

	kind := KindGenericCall
	head := n.Children[0]
	if head.Kind == ast.Symbol {
		if head.Name == "let" {
			switch len(n.Children) {
			case 3:
				kind = KindLetStatement
			case 4:
				kind = KindLetExpression
			default:
				kind = KindGenericCall
			}
		} else if k, ok := reservedHeads[head.Name]; ok {
			kind = k
		}
	}

	return &Node{
		ID:       ComputeID(kind, n.Snippet, nil, children),
		Kind:     kind,
		Snippet:  n.Snippet,
		Children: children,
		Metadata: meta,
	}
}

// LowerAll lowers an ordered sequence of root ast.Nodes.
func LowerAll(roots []*ast.Node) []*Node {
	out := make([]*Node, len(roots))
	for i, r := range roots {
		out[i] = Lower(r)
	}
	return out
}
