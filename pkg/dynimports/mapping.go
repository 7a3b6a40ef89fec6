// Package dynimports finds every call site that lazily loads another module
// through a deferred-import wrapper (e.g. the default export of
// "next/dynamic"), resolves each raw specifier to a concrete module of the
// reference graph, and folds the results into a per-origin import mapping for
// a downstream chunk-splitting stage.
package dynimports

import (
	"github.com/chunkscout/chunkscout/pkg/modgraph"
)

// ResolvedImport pairs a raw import specifier with the module it resolves to.
type ResolvedImport struct {
	// Specifier is the string literal as written in the source.
	Specifier string
	// Target is the resolved module; always a member of the graph's module
	// set.
	Target *modgraph.Module
}

// ModuleImports is the extraction result for one origin module.
type ModuleImports struct {
	Origin  *modgraph.Module
	Imports []ResolvedImport
}

// ImportMapping maps each origin module to the dynamic imports it contains.
// Keys are unique and ordered by first insertion; appending to an existing
// key concatenates, never overwrites.
type ImportMapping struct {
	order    []*modgraph.Module
	byOrigin map[*modgraph.Module][]ResolvedImport
}

// NewImportMapping creates an empty ImportMapping.
func NewImportMapping() *ImportMapping {
	return &ImportMapping{
		byOrigin: make(map[*modgraph.Module][]ResolvedImport),
	}
}

// Append adds imports under the origin key, creating the key on first sight
// and concatenating on repeats.
func (mapping *ImportMapping) Append(origin *modgraph.Module, imports ...ResolvedImport) {
	if _, ok := mapping.byOrigin[origin]; !ok {
		mapping.order = append(mapping.order, origin)
	}

	mapping.byOrigin[origin] = append(mapping.byOrigin[origin], imports...)
}

// Origins returns the origin modules in first-insertion order.
func (mapping *ImportMapping) Origins() []*modgraph.Module {
	origins := make([]*modgraph.Module, len(mapping.order))
	copy(origins, mapping.order)

	return origins
}

// ImportsOf returns the import list for an origin, or nil if absent.
func (mapping *ImportMapping) ImportsOf(origin *modgraph.Module) []ResolvedImport {
	return mapping.byOrigin[origin]
}

// Len returns the number of origin keys.
func (mapping *ImportMapping) Len() int {
	return len(mapping.order)
}
