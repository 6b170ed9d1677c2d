// Package graph holds Garden's central entity: the immutable,
// content-addressed Node. Nodes are built bottom-up by lower.go from the
// ast collaborator's abstract tree and identified by the structural hash
// computed in hash.go.
//
// Grounded on the teacher's internal/graph/graph.go Node struct
// (ID/Children/Properties fields), generalised from filesystem-node
// semantics to expression-node semantics.
package graph

import "fmt"

// ID is a 32-byte BLAKE3 digest identifying a Node by kind, snippet, and
// ordered child ids (spec §4.1).
type ID [32]byte

// Hex renders the full 64-character hex id.
func (id ID) Hex() string {
	return fmt.Sprintf("%x", id[:])
}

// Prefix8 renders the first 8 hex characters, used in the change report.
func (id ID) Prefix8() string {
	return id.Hex()[:8]
}

// Kind tags what a Node represents. Two groups: leaves (Symbol,
// IntegerLiteral, StringLiteral) and composites (everything else).
type Kind int

const (
	KindSymbol Kind = iota
	KindIntegerLiteral
	KindStringLiteral
	KindDefinition
	KindLetStatement
	KindLetExpression
	KindAddition
	KindMultiplication
	KindHTTPGet
	KindJSONParse
	KindJSONGet
	KindStringUpper
	KindGenericCall
	KindGenericList
)

// tag is the fixed ASCII string fed into the structural hash ahead of a
// node's payload, distinct across every Kind (spec §4.1).
func (k Kind) tag() string {
	switch k {
	case KindSymbol:
		return "sym"
	case KindIntegerLiteral:
		return "int"
	case KindStringLiteral:
		return "str"
	case KindDefinition:
		return "def"
	case KindLetStatement:
		return "let-stmt"
	case KindLetExpression:
		return "let-expr"
	case KindAddition:
		return "add"
	case KindMultiplication:
		return "mul"
	case KindHTTPGet:
		return "http-get"
	case KindJSONParse:
		return "json-parse"
	case KindJSONGet:
		return "json-get"
	case KindStringUpper:
		return "str-upper"
	case KindGenericCall:
		return "call"
	case KindGenericList:
		return "list"
	default:
		return "unknown"
	}
}

func (k Kind) String() string { return k.tag() }

// IsLeaf reports whether this Kind is a leaf (symbol or literal).
func (k Kind) IsLeaf() bool {
	switch k {
	case KindSymbol, KindIntegerLiteral, KindStringLiteral:
		return true
	default:
		return false
	}
}

// Node is the central, immutable entity of the engine (spec §3). Once
// constructed it is never mutated; it may be shared by many parents and
// across many evaluation cycles.
type Node struct {
	ID       ID
	Kind     Kind
	Snippet  string
	Children []*Node
	Metadata map[string]interface{}

	// Literal values, populated by lowering, valid only for the matching
	// leaf Kind. Kept alongside Snippet (rather than re-derived from it
	// at eval time) so the evaluator never re-parses source text.
	IntValue int64  // valid when Kind == KindIntegerLiteral
	StrValue string // valid when Kind == KindStringLiteral
}

// Line returns the node's source line, the one metadata field the engine
// itself reads; every other entry is opaque to it (spec §3).
func (n *Node) Line() int {
	if n == nil || n.Metadata == nil {
		return 0
	}
	if v, ok := n.Metadata["line"]; ok {
		if line, ok := v.(int); ok {
			return line
		}
	}
	return 0
}

// Name returns the symbol name for a KindSymbol node's head-or-leaf use,
// and is otherwise only meaningful for KindSymbol nodes.
func (n *Node) Name() string {
	return n.Snippet
}
