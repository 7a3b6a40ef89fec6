package modgraph

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/chunkscout/chunkscout/pkg/jsast"
)

// DefaultParseCacheSize is the default number of parse results kept in
// memory. Each module is typically parsed twice per collection (once for the
// reference scan, once for extraction), so the cache mostly serves to make
// the second access free.
const DefaultParseCacheSize = 512

// Sentinel errors for graph operations.
var (
	errNotScript     = errors.New("module is not a script")
	errEntryNotFound = errors.New("entry module not found")
)

// Stats summarizes the filesystem work a Graph has performed.
type Stats struct {
	// FilesParsed is the number of source files parsed (cache misses).
	FilesParsed int64
	// BytesParsed is the total size of parsed sources.
	BytesParsed int64
	// Modules is the number of distinct modules interned.
	Modules int
}

// Graph owns the module set of one project and answers the two questions the
// collector asks: what does a module directly reference, and what does a
// specifier resolve to. Safe for concurrent use.
type Graph struct {
	root     string
	parser   *jsast.Parser
	resolver *Resolver

	mu      sync.Mutex
	modules map[string]*Module

	parseCache *lru.Cache[string, *jsast.ParseResult]

	filesParsed atomic.Int64
	bytesParsed atomic.Int64
}

// NewGraph creates a Graph rooted at the given project directory.
func NewGraph(root string, parseCacheSize int) (*Graph, error) {
	if parseCacheSize <= 0 {
		parseCacheSize = DefaultParseCacheSize
	}

	cache, err := lru.New[string, *jsast.ParseResult](parseCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create parse cache: %w", err)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("absolutize root: %w", err)
	}

	return &Graph{
		root:       absRoot,
		parser:     jsast.NewParser(),
		resolver:   NewResolver(absRoot),
		modules:    make(map[string]*Module),
		parseCache: cache,
	}, nil
}

// Root returns the project root directory.
func (graph *Graph) Root() string {
	return graph.root
}

// EntryModule returns the interned module for an entry path, which must be an
// existing file. Relative paths are taken relative to the project root.
func (graph *Graph) EntryModule(path string) (*Module, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(graph.root, path)
	}

	path = filepath.Clean(path)
	if !isFile(path) {
		return nil, fmt.Errorf("%w: %s", errEntryNotFound, path)
	}

	return graph.intern(path), nil
}

// intern returns the canonical Module for an absolute path, creating it on
// first sight.
func (graph *Graph) intern(path string) *Module {
	graph.mu.Lock()
	defer graph.mu.Unlock()

	if module, ok := graph.modules[path]; ok {
		return module
	}

	module := &Module{Path: path, Kind: detectKind(path)}
	graph.modules[path] = module

	return module
}

// Resolve maps a specifier in the context of the origin module to a member of
// the graph's module set. The boolean is false for unresolvable specifiers.
func (graph *Graph) Resolve(origin *Module, specifier string) (*Module, bool) {
	resolved, ok := graph.resolver.Resolve(origin.Dir(), specifier)
	if !ok {
		return nil, false
	}

	return graph.intern(resolved), true
}

// ParseResult returns the module's parse result, reading and parsing the
// source on first access. Unreadable files are errors; unparsable files yield
// a parse-failure result, not an error.
func (graph *Graph) ParseResult(ctx context.Context, module *Module) (*jsast.ParseResult, error) {
	if module.Kind != KindScript {
		return nil, fmt.Errorf("%w: %s", errNotScript, module.Path)
	}

	if cached, ok := graph.parseCache.Get(module.Path); ok {
		return cached, nil
	}

	content, err := os.ReadFile(module.Path)
	if err != nil {
		return nil, fmt.Errorf("read module source: %w", err)
	}

	result, err := graph.parser.Parse(ctx, module.Path, content)
	if err != nil {
		return nil, fmt.Errorf("parse module: %w", err)
	}

	graph.filesParsed.Add(1)
	graph.bytesParsed.Add(int64(len(content)))
	graph.parseCache.Add(module.Path, result)

	return result, nil
}

// ReferencedModules returns the modules directly referenced by the given
// module, in source order, deduplicated. Asset modules and modules whose
// source failed to parse reference nothing.
func (graph *Graph) ReferencedModules(ctx context.Context, module *Module) ([]*Module, error) {
	if module.Kind != KindScript {
		return nil, nil
	}

	result, err := graph.ParseResult(ctx, module)
	if err != nil {
		return nil, err
	}

	if !result.OK {
		return nil, nil
	}

	var (
		referenced []*Module
		seen       = make(map[*Module]bool)
	)

	for _, specifier := range scanSpecifiers(result.Root) {
		target, ok := graph.Resolve(module, specifier)
		if !ok || seen[target] {
			continue
		}

		seen[target] = true
		referenced = append(referenced, target)
	}

	return referenced, nil
}

// Stats returns a snapshot of the graph's parse counters.
func (graph *Graph) Stats() Stats {
	graph.mu.Lock()
	moduleCount := len(graph.modules)
	graph.mu.Unlock()

	return Stats{
		FilesParsed: graph.filesParsed.Load(),
		BytesParsed: graph.bytesParsed.Load(),
		Modules:     moduleCount,
	}
}

// requireIdentifier is the CommonJS import function name recognized by the
// reference scan.
const requireIdentifier = "require"

// scanSpecifiers extracts every static reference specifier from a parsed
// tree: import declarations, re-exports with a source, require() calls, and
// dynamic import() calls. Order follows source appearance.
func scanSpecifiers(root *jsast.Node) []string {
	var specifiers []string

	root.VisitPreOrder(func(current *jsast.Node) {
		switch current.Type {
		case jsast.TypeImportStatement, jsast.TypeExportStatement:
			if source := current.Field(jsast.FieldSource); source != nil {
				specifiers = appendSpecifier(specifiers, source)
			}
		case jsast.TypeCallExpression:
			if spec := callSpecifier(current); spec != nil {
				specifiers = appendSpecifier(specifiers, spec)
			}
		}
	})

	return specifiers
}

// callSpecifier returns the string-literal argument of a require() or
// import() call, or nil.
func callSpecifier(call *jsast.Node) *jsast.Node {
	callee := call.Field(jsast.FieldFunction)
	if callee == nil {
		return nil
	}

	isRequire := callee.Type == jsast.TypeIdentifier && callee.Token == requireIdentifier
	isDynamicImport := callee.Type == jsast.TypeImport

	if !isRequire && !isDynamicImport {
		return nil
	}

	arguments := call.Field(jsast.FieldArguments)
	if arguments == nil || len(arguments.Children) == 0 {
		return nil
	}

	first := arguments.Children[0]
	if first.Type != jsast.TypeString {
		return nil
	}

	return first
}

func appendSpecifier(specifiers []string, stringNode *jsast.Node) []string {
	value := stringNode.StringValue()
	if value == "" {
		return specifiers
	}

	return append(specifiers, value)
}
