// Package modgraph models the module reference graph of a JavaScript or
// TypeScript project: module identities, literal-path resolution, parsing of
// module sources, and enumeration of each module's direct references.
package modgraph

import (
	"path/filepath"

	"github.com/src-d/enry/v2"

	"github.com/chunkscout/chunkscout/pkg/jsast"
)

// Kind classifies what a module's source is.
type Kind int

// Module kinds.
const (
	// KindScript is a parseable JavaScript/TypeScript source.
	KindScript Kind = iota
	// KindAsset is anything else reachable through resolution (styles,
	// images, JSON, ...). Assets are graph members but are never parsed.
	KindAsset
)

// String returns the display name of the kind.
func (kind Kind) String() string {
	if kind == KindScript {
		return "script"
	}

	return "asset"
}

// scriptLanguages is the set of enry language names treated as scripts.
//
//nolint:gochecknoglobals // Static classification table.
var scriptLanguages = map[string]bool{
	"JavaScript": true,
	"TypeScript": true,
	"TSX":        true,
	"JSX":        true,
}

// Module is one compilation unit of the reference graph. Identity is the
// absolute file path; two Module pointers obtained from the same Graph are
// equal iff their paths are equal.
type Module struct {
	// Path is the absolute path of the module's source file.
	Path string
	// Kind tells whether the module is a parseable script.
	Kind Kind
}

// Dir returns the directory containing the module, used as its resolution
// context.
func (module *Module) Dir() string {
	return filepath.Dir(module.Path)
}

// detectKind classifies a file path using enry's extension-based language
// detection, falling back to the grammar table for extensions enry does not
// know (e.g. .mts/.cts).
func detectKind(path string) Kind {
	lang, ok := enry.GetLanguageByExtension(filepath.Base(path))
	if ok && scriptLanguages[lang] {
		return KindScript
	}

	if jsast.LanguageForFile(path) != "" {
		return KindScript
	}

	return KindAsset
}
