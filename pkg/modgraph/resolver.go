package modgraph

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// probeExtensions is the extension probing order for extensionless
// specifiers, TypeScript first so a co-located pair resolves to the source.
//
//nolint:gochecknoglobals // Static probing order.
var probeExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}

// indexBasename is the file stem probed inside directories.
const indexBasename = "index"

// nodeModulesDir is the package directory name walked up during bare
// specifier resolution.
const nodeModulesDir = "node_modules"

// packageManifest is the per-package manifest consulted for an entry file.
const packageManifest = "package.json"

// Resolver maps literal import specifiers to absolute file paths the way the
// Node.js algorithm does, restricted to literal paths: no globs, no variable
// patterns, no export-map conditions.
type Resolver struct {
	// root bounds the node_modules walk-up; resolution never escapes it.
	root string
	// extensions is the probing order for extensionless specifiers.
	extensions []string
}

// NewResolver creates a Resolver rooted at the given project directory.
func NewResolver(root string) *Resolver {
	return &Resolver{
		root:       root,
		extensions: probeExtensions,
	}
}

// packageEntry is the subset of package.json consulted during resolution.
type packageEntry struct {
	Module string `json:"module"`
	Main   string `json:"main"`
}

// Resolve maps a specifier, in the context of the importing module's
// directory, to an absolute existing file path. The boolean is false when
// nothing resolves; a plain miss is not an error.
func (resolver *Resolver) Resolve(fromDir, specifier string) (string, bool) {
	if specifier == "" || isBuiltinSpecifier(specifier) {
		return "", false
	}

	switch {
	case strings.HasPrefix(specifier, "./"), strings.HasPrefix(specifier, "../"):
		return resolver.resolvePath(filepath.Join(fromDir, specifier))
	case filepath.IsAbs(specifier):
		return resolver.resolvePath(filepath.Clean(specifier))
	default:
		return resolver.resolveBare(fromDir, specifier)
	}
}

// resolvePath probes a path candidate: the exact file, then with each known
// extension appended, then as a directory with an index file.
func (resolver *Resolver) resolvePath(candidate string) (string, bool) {
	if isFile(candidate) {
		return candidate, true
	}

	for _, ext := range resolver.extensions {
		withExt := candidate + ext
		if isFile(withExt) {
			return withExt, true
		}
	}

	if isDir(candidate) {
		return resolver.resolveDir(candidate)
	}

	return "", false
}

// resolveDir resolves a directory to its package.json entry file or an index
// file.
func (resolver *Resolver) resolveDir(dir string) (string, bool) {
	if entry, ok := resolver.manifestEntry(dir); ok {
		return entry, true
	}

	for _, ext := range resolver.extensions {
		indexFile := filepath.Join(dir, indexBasename+ext)
		if isFile(indexFile) {
			return indexFile, true
		}
	}

	return "", false
}

// manifestEntry reads dir/package.json and probes its "module" then "main"
// fields. A malformed manifest is treated as absent.
func (resolver *Resolver) manifestEntry(dir string) (string, bool) {
	raw, err := os.ReadFile(filepath.Join(dir, packageManifest))
	if err != nil {
		return "", false
	}

	var entry packageEntry

	if unmarshalErr := json.Unmarshal(raw, &entry); unmarshalErr != nil {
		return "", false
	}

	for _, field := range []string{entry.Module, entry.Main} {
		if field == "" {
			continue
		}

		if resolved, ok := resolver.resolvePath(filepath.Join(dir, field)); ok {
			return resolved, true
		}
	}

	return "", false
}

// resolveBare resolves a bare specifier by walking node_modules directories
// from fromDir up to the resolver root.
func (resolver *Resolver) resolveBare(fromDir, specifier string) (string, bool) {
	dir := fromDir

	for {
		candidate := filepath.Join(dir, nodeModulesDir, specifier)
		if resolved, ok := resolver.resolvePath(candidate); ok {
			return resolved, true
		}

		if dir == resolver.root || dir == filepath.Dir(dir) {
			return "", false
		}

		dir = filepath.Dir(dir)
	}
}

func isFile(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}

func isDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}
