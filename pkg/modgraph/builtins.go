package modgraph

import "strings"

// nodeBuiltinModules is the set of Node.js core module names. Specifiers
// naming a builtin never resolve to a file in the project and are skipped
// before any filesystem probing.
//
//nolint:gochecknoglobals // Static builtin table.
var nodeBuiltinModules = map[string]bool{
	"assert":              true,
	"async_hooks":         true,
	"buffer":              true,
	"child_process":       true,
	"cluster":             true,
	"console":             true,
	"constants":           true,
	"crypto":              true,
	"dgram":               true,
	"diagnostics_channel": true,
	"dns":                 true,
	"domain":              true,
	"events":              true,
	"fs":                  true,
	"http":                true,
	"http2":               true,
	"https":               true,
	"inspector":           true,
	"module":              true,
	"net":                 true,
	"os":                  true,
	"path":                true,
	"perf_hooks":          true,
	"process":             true,
	"punycode":            true,
	"querystring":         true,
	"readline":            true,
	"repl":                true,
	"stream":              true,
	"string_decoder":      true,
	"sys":                 true,
	"timers":              true,
	"tls":                 true,
	"trace_events":        true,
	"tty":                 true,
	"url":                 true,
	"util":                true,
	"v8":                  true,
	"vm":                  true,
	"wasi":                true,
	"worker_threads":      true,
	"zlib":                true,
}

// isBuiltinSpecifier reports whether the specifier names a Node.js builtin,
// including the "node:" prefixed form and subpath exports like "fs/promises".
func isBuiltinSpecifier(specifier string) bool {
	name := strings.TrimPrefix(specifier, "node:")

	if slash := strings.Index(name, "/"); slash >= 0 {
		name = name[:slash]
	}

	return nodeBuiltinModules[name]
}
