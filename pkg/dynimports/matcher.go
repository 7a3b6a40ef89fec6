package dynimports

import (
	"github.com/chunkscout/chunkscout/pkg/jsast"
)

// DefaultWrapperSource is the well-known module the deferred-import wrapper
// is imported from.
const DefaultWrapperSource = "next/dynamic"

// MatchDynamicImports walks one module's syntax tree and returns the raw
// import specifiers wrapped in calls to the module-local binding of the
// deferred-import wrapper, in source order. Matching happens in two stages:
// the wrapper's local binding name is tracked first (the wrapper may be
// renamed on import), then every call to that binding is scanned for a
// dynamic import() whose sole argument is a string literal.
func MatchDynamicImports(root *jsast.Node, wrapperSource string) []string {
	localName, ok := wrapperBinding(root, wrapperSource)
	if !ok {
		return nil
	}

	var specifiers []string

	root.VisitPreOrder(func(current *jsast.Node) {
		if !isCallTo(current, localName) {
			return
		}

		arguments := current.Field(jsast.FieldArguments)
		if arguments == nil {
			return
		}

		if specifier, found := firstImportLiteral(arguments); found {
			specifiers = append(specifiers, specifier)
		}
	})

	return specifiers
}

// wrapperBinding scans the tree's top-level import declarations for a default
// import from wrapperSource and returns the local binding name. When the
// wrapper is imported more than once, the last declaration wins.
func wrapperBinding(root *jsast.Node, wrapperSource string) (string, bool) {
	var (
		localName string
		found     bool
	)

	for _, statement := range root.Children {
		if statement.Type != jsast.TypeImportStatement {
			continue
		}

		source := statement.Field(jsast.FieldSource)
		if source == nil || source.StringValue() != wrapperSource {
			continue
		}

		clause := statement.ChildOfType(jsast.TypeImportClause)
		if clause == nil || len(clause.Children) == 0 {
			continue
		}

		// Only a default specifier binds the wrapper; namespace and named
		// imports do not.
		if first := clause.Children[0]; first.Type == jsast.TypeIdentifier {
			localName = first.Token
			found = true
		}
	}

	return localName, found
}

// isCallTo reports whether the node is a call whose callee is a plain
// identifier with the given name.
func isCallTo(node *jsast.Node, name string) bool {
	if node.Type != jsast.TypeCallExpression {
		return false
	}

	callee := node.Field(jsast.FieldFunction)

	return callee != nil && callee.Type == jsast.TypeIdentifier && callee.Token == name
}

// firstImportLiteral finds the first dynamic import() expression in the
// wrapper call's argument subtree and returns its string-literal argument.
// The scan never descends into other call expressions, and it stops at the
// first import() found whether or not its argument is a literal: a dynamic
// import inside the wrapper call is assumed non-nested, and a computed
// argument records nothing.
func firstImportLiteral(arguments *jsast.Node) (string, bool) {
	var (
		specifier string
		recorded  bool
		stopped   bool
	)

	var walk func(current *jsast.Node)

	walk = func(current *jsast.Node) {
		if stopped {
			return
		}

		if current.Type == jsast.TypeCallExpression {
			callee := current.Field(jsast.FieldFunction)
			if callee != nil && callee.Type == jsast.TypeImport {
				stopped = true
				specifier, recorded = importCallLiteral(current)
			}

			// Calls other than import() are opaque to the nested scan.
			return
		}

		for _, child := range current.Children {
			walk(child)
		}
	}

	for _, child := range arguments.Children {
		walk(child)
	}

	return specifier, recorded
}

// importCallLiteral returns the value of an import() call's first argument
// when that argument is a string literal.
func importCallLiteral(call *jsast.Node) (string, bool) {
	arguments := call.Field(jsast.FieldArguments)
	if arguments == nil || len(arguments.Children) == 0 {
		return "", false
	}

	first := arguments.Children[0]
	if first.Type != jsast.TypeString {
		return "", false
	}

	return first.StringValue(), true
}
