// Package jsast provides a lightweight syntax tree for JavaScript and
// TypeScript sources, produced by tree-sitter parsing. Node types mirror the
// tree-sitter grammar names; only named grammar nodes are retained.
package jsast

import (
	"strings"
)

// Grammar node type constants for the node shapes the analysis relies on.
const (
	TypeProgram         = "program"
	TypeImportStatement = "import_statement"
	TypeExportStatement = "export_statement"
	TypeImportClause    = "import_clause"
	TypeCallExpression  = "call_expression"
	TypeIdentifier      = "identifier"
	TypeImport          = "import"
	TypeArguments       = "arguments"
	TypeString          = "string"
	TypeStringFragment  = "string_fragment"
	TypeError           = "ERROR"
)

// Field name constants for grammar fields preserved during lowering.
const (
	FieldFunction  = "function"
	FieldArguments = "arguments"
	FieldSource    = "source"
)

// propField is the Props key under which a child's grammar field name is kept.
const propField = "field"

// Positions holds the byte and line/col offsets for a node.
// Line and column are 1-based; offsets are byte offsets into the source.
type Positions struct {
	StartLine   uint `json:"start_line,omitempty"`
	StartCol    uint `json:"start_col,omitempty"`
	StartOffset uint `json:"start_offset,omitempty"`
	EndLine     uint `json:"end_line,omitempty"`
	EndCol      uint `json:"end_col,omitempty"`
	EndOffset   uint `json:"end_offset,omitempty"`
}

// Node is one named node of the lowered syntax tree.
//
// Fields:
//
//	Type: grammar node type (e.g., "call_expression", "identifier").
//	Token: source text for leaf nodes, empty for interior nodes.
//	Props: additional properties; "field" carries the grammar field name
//	       this node occupies in its parent, when known.
//	Pos: source position info (optional).
//	Children: named child nodes in source order.
type Node struct {
	Type     string            `json:"type"`
	Token    string            `json:"token,omitempty"`
	Props    map[string]string `json:"props,omitempty"`
	Pos      *Positions        `json:"pos,omitempty"`
	Children []*Node           `json:"children,omitempty"`
}

// initialStackCap is the starting capacity for iterative traversal stacks.
const initialStackCap = 64

// Field returns the first child occupying the given grammar field, or nil.
func (targetNode *Node) Field(name string) *Node {
	for _, child := range targetNode.Children {
		if child.Props[propField] == name {
			return child
		}
	}

	return nil
}

// ChildOfType returns the first child with the given type, or nil.
func (targetNode *Node) ChildOfType(nodeType string) *Node {
	for _, child := range targetNode.Children {
		if child.Type == nodeType {
			return child
		}
	}

	return nil
}

// StringValue returns the literal value of a "string" node by concatenating
// its fragment tokens. Returns "" for any other node type. Escape sequences
// are kept verbatim.
func (targetNode *Node) StringValue() string {
	if targetNode.Type != TypeString {
		return ""
	}

	var buf strings.Builder

	for _, child := range targetNode.Children {
		if child.Type == TypeStringFragment {
			buf.WriteString(child.Token)
		}
	}

	return buf.String()
}

// VisitPreOrder visits all nodes in pre-order (node, then children
// left-to-right) using an explicit stack.
func (targetNode *Node) VisitPreOrder(visit func(*Node)) {
	if targetNode == nil {
		return
	}

	stack := make([]*Node, 0, initialStackCap)
	stack = append(stack, targetNode)

	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		visit(curr)

		for idx := len(curr.Children) - 1; idx >= 0; idx-- {
			stack = append(stack, curr.Children[idx])
		}
	}
}

// Find returns all nodes in the tree (including the root) for which
// predicate(node) is true, in pre-order.
func (targetNode *Node) Find(predicate func(*Node) bool) []*Node {
	var result []*Node

	targetNode.VisitPreOrder(func(curr *Node) {
		if predicate(curr) {
			result = append(result, curr)
		}
	})

	return result
}
