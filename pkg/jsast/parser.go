package jsast

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/chunkscout/chunkscout/pkg/safeconv"
)

// Sentinel errors for parser operations.
var (
	errNoFileExtension = errors.New("no file extension found")
	errNoParser        = errors.New("no parser found for extension")
	errPoolType        = errors.New("unexpected type in parser pool")
)

// ParseResult is the outcome of parsing one source file. OK is false when the
// source could not be parsed cleanly; Root is nil in that case.
type ParseResult struct {
	Root *Node
	OK   bool
}

// Parser parses JavaScript and TypeScript sources into lightweight syntax
// trees. It keeps a pool of tree-sitter parsers per language and is safe for
// concurrent use.
type Parser struct {
	pools map[string]*sync.Pool
	mu    sync.Mutex
}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{
		pools: make(map[string]*sync.Pool),
	}
}

// IsSupported returns true if the given filename maps to a known grammar.
func (parser *Parser) IsSupported(filename string) bool {
	return LanguageForFile(filename) != ""
}

// Parse parses content as the language implied by filename's extension.
// A syntactically broken source yields ParseResult{OK: false} rather than an
// error; errors are reserved for unsupported inputs and parser failures.
func (parser *Parser) Parse(ctx context.Context, filename string, content []byte) (*ParseResult, error) {
	lang := LanguageForFile(filename)
	if lang == "" {
		ext := strings.ToLower(getFileExtension(filename))
		if ext == "" {
			return nil, fmt.Errorf("%w for %s", errNoFileExtension, filename)
		}

		return nil, fmt.Errorf("%w %s", errNoParser, ext)
	}

	pool, err := parser.poolFor(lang)
	if err != nil {
		return nil, err
	}

	tsParser, ok := pool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer pool.Put(tsParser)

	tree, parseErr := tsParser.ParseString(ctx, nil, content)
	if parseErr != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, parseErr)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() {
		return &ParseResult{OK: false}, nil
	}

	lowering := &lowering{source: content}
	lowered := lowering.lower(root)

	if lowering.hasError {
		return &ParseResult{OK: false}, nil
	}

	return &ParseResult{Root: lowered, OK: true}, nil
}

// poolFor returns the parser pool for the given language, creating it on
// first use.
func (parser *Parser) poolFor(lang string) (*sync.Pool, error) {
	parser.mu.Lock()
	defer parser.mu.Unlock()

	if pool, ok := parser.pools[lang]; ok {
		return pool, nil
	}

	grammar := grammarFor(lang)
	if grammar == nil {
		return nil, fmt.Errorf("%w %s", errNoParser, lang)
	}

	pool := &sync.Pool{
		New: func() any {
			tsParser := sitter.NewParser()
			tsParser.SetLanguage(grammar)

			return tsParser
		},
	}

	parser.pools[lang] = pool

	return pool, nil
}

// fieldsForType lists the grammar fields preserved per node type during
// lowering. The field name is recorded on the child occupying it so the
// matcher can tell callees from arguments without the raw tree.
//
//nolint:gochecknoglobals // Static lowering table.
var fieldsForType = map[string][]string{
	TypeCallExpression:  {FieldFunction, FieldArguments},
	TypeImportStatement: {FieldSource},
	TypeExportStatement: {FieldSource},
}

// lowering converts a tree-sitter tree into the package's Node form,
// tracking whether any ERROR node was seen.
type lowering struct {
	source   []byte
	hasError bool
}

func (lw *lowering) lower(tsNode sitter.Node) *Node {
	nodeType := tsNode.Type()
	if nodeType == TypeError {
		lw.hasError = true
	}

	lowered := &Node{
		Type: nodeType,
		Pos:  extractPositions(tsNode),
	}

	childCount := tsNode.NamedChildCount()
	if childCount == 0 {
		lowered.Token = lw.nodeText(tsNode)

		return lowered
	}

	fieldStarts := lw.fieldStarts(tsNode, nodeType)
	lowered.Children = make([]*Node, 0, safeconv.MustUintToInt(uint(childCount)))

	for idx := range childCount {
		child := tsNode.NamedChild(idx)
		loweredChild := lw.lower(child)

		if fieldName, ok := fieldStarts[child.StartByte()]; ok {
			if loweredChild.Props == nil {
				loweredChild.Props = make(map[string]string, 1)
			}

			loweredChild.Props[propField] = fieldName
		}

		lowered.Children = append(lowered.Children, loweredChild)
	}

	return lowered
}

// fieldStarts maps the start byte of each field-occupying child to its field
// name, for the fields preserved for this node type.
func (lw *lowering) fieldStarts(tsNode sitter.Node, nodeType string) map[uint]string {
	fields := fieldsForType[nodeType]
	if len(fields) == 0 {
		return nil
	}

	starts := make(map[uint]string, len(fields))

	for _, fieldName := range fields {
		fieldNode := tsNode.ChildByFieldName(fieldName)
		if !fieldNode.IsNull() {
			starts[fieldNode.StartByte()] = fieldName
		}
	}

	return starts
}

func (lw *lowering) nodeText(tsNode sitter.Node) string {
	start := tsNode.StartByte()
	end := tsNode.EndByte()

	if end <= uint(len(lw.source)) && start <= end {
		return string(lw.source[start:end])
	}

	return ""
}

func extractPositions(tsNode sitter.Node) *Positions {
	start := tsNode.StartPoint()
	end := tsNode.EndPoint()

	return &Positions{
		StartLine:   start.Row + 1,
		StartCol:    start.Column + 1,
		StartOffset: tsNode.StartByte(),
		EndLine:     end.Row + 1,
		EndCol:      end.Column + 1,
		EndOffset:   tsNode.EndByte(),
	}
}
