package jsast

import (
	"strings"
	"sync"
	"unsafe"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/alexaandru/go-sitter-forest/javascript"
	"github.com/alexaandru/go-sitter-forest/tsx"
	"github.com/alexaandru/go-sitter-forest/typescript"
)

// Language name constants.
const (
	LangJavaScript = "javascript"
	LangTypeScript = "typescript"
	LangTSX        = "tsx"
)

// languageFuncs maps language names to their tree-sitter GetLanguage functions.
//
//nolint:gochecknoglobals // Static grammar table.
var languageFuncs = map[string]func() unsafe.Pointer{
	LangJavaScript: javascript.GetLanguage,
	LangTypeScript: typescript.GetLanguage,
	LangTSX:        tsx.GetLanguage,
}

// extensionLanguages maps lowercased file extensions to language names.
// JSX shares the JavaScript grammar; .ts uses the TypeScript grammar and
// .tsx the TSX variant.
//
//nolint:gochecknoglobals // Static extension table.
var extensionLanguages = map[string]string{
	".js":  LangJavaScript,
	".jsx": LangJavaScript,
	".mjs": LangJavaScript,
	".cjs": LangJavaScript,
	".ts":  LangTypeScript,
	".mts": LangTypeScript,
	".cts": LangTypeScript,
	".tsx": LangTSX,
}

//nolint:gochecknoglobals // Process-wide grammar cache; grammars are immutable.
var languageCache sync.Map

// grammarFor returns the cached tree-sitter Language for the given language
// name, or nil if the language is not supported.
func grammarFor(name string) *sitter.Language {
	if cached, ok := languageCache.Load(name); ok {
		lang, castOK := cached.(*sitter.Language)
		if castOK {
			return lang
		}
	}

	fn, ok := languageFuncs[name]
	if !ok {
		return nil
	}

	lang := sitter.NewLanguage(fn())
	languageCache.Store(name, lang)

	return lang
}

// LanguageForFile returns the grammar language name for the given filename,
// or "" if the extension is not recognized.
func LanguageForFile(filename string) string {
	ext := strings.ToLower(getFileExtension(filename))
	if ext == "" {
		return ""
	}

	return extensionLanguages[ext]
}

// SupportedExtensions returns the lowercased extensions with a grammar.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extensionLanguages))
	for ext := range extensionLanguages {
		exts = append(exts, ext)
	}

	return exts
}

// getFileExtension returns the extension of filename including the dot.
func getFileExtension(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return ""
	}

	return filename[idx:]
}
