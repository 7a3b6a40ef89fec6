package dynimports_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chunkscout/chunkscout/pkg/dynimports"
	"github.com/chunkscout/chunkscout/pkg/issue"
	"github.com/chunkscout/chunkscout/pkg/jsast"
	"github.com/chunkscout/chunkscout/pkg/modgraph"
)

var errDiskGone = errors.New("disk gone")

// fakeGraph is an in-memory ModuleGraph: module sources are parsed for real,
// while references and resolution follow declared tables.
type fakeGraph struct {
	parser *jsast.Parser

	mu       sync.Mutex
	modules  map[string]*modgraph.Module
	sources  map[string]string
	edges    map[string][]string
	resolves map[string]map[string]string
	parseErr map[string]error
	refCalls map[string]int
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{
		parser:   jsast.NewParser(),
		modules:  make(map[string]*modgraph.Module),
		sources:  make(map[string]string),
		edges:    make(map[string][]string),
		resolves: make(map[string]map[string]string),
		parseErr: make(map[string]error),
		refCalls: make(map[string]int),
	}
}

// module interns a script module for the path.
func (fake *fakeGraph) module(path string) *modgraph.Module {
	fake.mu.Lock()
	defer fake.mu.Unlock()

	if existing, ok := fake.modules[path]; ok {
		return existing
	}

	created := &modgraph.Module{Path: path, Kind: modgraph.KindScript}
	fake.modules[path] = created

	return created
}

// asset interns an asset module for the path.
func (fake *fakeGraph) asset(path string) *modgraph.Module {
	created := fake.module(path)
	created.Kind = modgraph.KindAsset

	return created
}

// addSource declares a module with its source text.
func (fake *fakeGraph) addSource(path, source string) *modgraph.Module {
	created := fake.module(path)

	fake.mu.Lock()
	fake.sources[path] = source
	fake.mu.Unlock()

	return created
}

// addEdge declares a direct reference between two declared modules.
func (fake *fakeGraph) addEdge(from, to string) {
	fake.mu.Lock()
	defer fake.mu.Unlock()

	fake.edges[from] = append(fake.edges[from], to)
}

// addResolve declares that a specifier resolves from the origin module.
func (fake *fakeGraph) addResolve(origin, specifier, target string) {
	fake.mu.Lock()
	defer fake.mu.Unlock()

	if fake.resolves[origin] == nil {
		fake.resolves[origin] = make(map[string]string)
	}

	fake.resolves[origin][specifier] = target
}

func (fake *fakeGraph) ReferencedModules(_ context.Context, module *modgraph.Module) ([]*modgraph.Module, error) {
	fake.mu.Lock()
	fake.refCalls[module.Path]++
	targets := fake.edges[module.Path]
	fake.mu.Unlock()

	referenced := make([]*modgraph.Module, 0, len(targets))
	for _, target := range targets {
		referenced = append(referenced, fake.module(target))
	}

	return referenced, nil
}

func (fake *fakeGraph) ParseResult(ctx context.Context, module *modgraph.Module) (*jsast.ParseResult, error) {
	fake.mu.Lock()
	failure := fake.parseErr[module.Path]
	source := fake.sources[module.Path]
	fake.mu.Unlock()

	if failure != nil {
		return nil, failure
	}

	return fake.parser.Parse(ctx, module.Path, []byte(source))
}

func (fake *fakeGraph) Resolve(origin *modgraph.Module, specifier string) (*modgraph.Module, bool) {
	fake.mu.Lock()
	target, ok := fake.resolves[origin.Path][specifier]
	fake.mu.Unlock()

	if !ok {
		return nil, false
	}

	return fake.module(target), true
}

func (fake *fakeGraph) referenceCalls(path string) int {
	fake.mu.Lock()
	defer fake.mu.Unlock()

	return fake.refCalls[path]
}

func TestExtract_NonScriptContributesNothing(t *testing.T) {
	t.Parallel()

	fake := newFakeGraph()
	logo := fake.asset("/p/logo.svg")

	extractor := dynimports.NewExtractor(fake, nil, nil, "")

	extracted, err := extractor.Extract(context.Background(), logo)
	require.NoError(t, err)
	assert.Nil(t, extracted)
}

func TestExtract_ResolvesMatchedSpecifiers(t *testing.T) {
	t.Parallel()

	fake := newFakeGraph()
	page := fake.addSource("/p/page.js", `import dynamic from 'next/dynamic';
const Widget = dynamic(() => import('./widget'));
const Chart = dynamic(() => import('./chart'));`)
	fake.addResolve("/p/page.js", "./widget", "/p/widget.js")
	fake.addResolve("/p/page.js", "./chart", "/p/chart.js")

	extractor := dynimports.NewExtractor(fake, nil, nil, "")

	extracted, err := extractor.Extract(context.Background(), page)
	require.NoError(t, err)
	require.NotNil(t, extracted)
	assert.Same(t, page, extracted.Origin)

	require.Len(t, extracted.Imports, 2)
	assert.Equal(t, "./widget", extracted.Imports[0].Specifier)
	assert.Equal(t, "/p/widget.js", extracted.Imports[0].Target.Path)
	assert.Equal(t, "./chart", extracted.Imports[1].Specifier)
	assert.Equal(t, "/p/chart.js", extracted.Imports[1].Target.Path)
}

func TestExtract_UnresolvableSpecifierIsDroppedSilently(t *testing.T) {
	t.Parallel()

	fake := newFakeGraph()
	page := fake.addSource("/p/page.js", `import dynamic from 'next/dynamic';
const Native = dynamic(() => import('./native'));
const Widget = dynamic(() => import('./widget'));`)
	fake.addResolve("/p/page.js", "./widget", "/p/widget.js")

	reporter := issue.NewCollectingReporter()
	metrics := &countingMetrics{}
	extractor := dynimports.NewExtractor(fake, reporter, metrics, "")

	extracted, err := extractor.Extract(context.Background(), page)
	require.NoError(t, err)
	require.NotNil(t, extracted)
	require.Len(t, extracted.Imports, 1)
	assert.Equal(t, "./widget", extracted.Imports[0].Specifier)
	assert.Empty(t, reporter.Issues())
	assert.Equal(t, int64(1), metrics.misses.Load())
}

func TestExtract_AllSpecifiersUnresolvableYieldsNil(t *testing.T) {
	t.Parallel()

	fake := newFakeGraph()
	page := fake.addSource("/p/page.js", `import dynamic from 'next/dynamic';
const Widget = dynamic(() => import('./widget'));`)

	extractor := dynimports.NewExtractor(fake, nil, nil, "")

	extracted, err := extractor.Extract(context.Background(), page)
	require.NoError(t, err)
	assert.Nil(t, extracted)
}

func TestExtract_NoWrapperCallsYieldsNil(t *testing.T) {
	t.Parallel()

	fake := newFakeGraph()
	page := fake.addSource("/p/page.js", `export const answer = 42;`)

	extractor := dynimports.NewExtractor(fake, nil, nil, "")

	extracted, err := extractor.Extract(context.Background(), page)
	require.NoError(t, err)
	assert.Nil(t, extracted)
}

func TestExtract_ParseFailureEmitsOneWarning(t *testing.T) {
	t.Parallel()

	fake := newFakeGraph()
	broken := fake.addSource("/p/broken.js", `import { from ;;;`)

	reporter := issue.NewCollectingReporter()
	extractor := dynimports.NewExtractor(fake, reporter, nil, "")

	extracted, err := extractor.Extract(context.Background(), broken)
	require.NoError(t, err)
	assert.Nil(t, extracted)

	issues := reporter.Issues()
	require.Len(t, issues, 1)
	assert.Equal(t, issue.SeverityWarning, issues[0].Severity)
	assert.Equal(t, "parsing", issues[0].Category)
	assert.Equal(t, "/p/broken.js", issues[0].Path)
	assert.Equal(t, "Unable to parse source file", issues[0].Title)
}

func TestExtract_CollaboratorFailurePropagates(t *testing.T) {
	t.Parallel()

	fake := newFakeGraph()
	page := fake.addSource("/p/page.js", "")
	fake.parseErr["/p/page.js"] = errDiskGone

	extractor := dynimports.NewExtractor(fake, nil, nil, "")

	_, err := extractor.Extract(context.Background(), page)
	require.ErrorIs(t, err, errDiskGone)
}

func TestExtract_CustomWrapperSource(t *testing.T) {
	t.Parallel()

	fake := newFakeGraph()
	page := fake.addSource("/p/page.js", `import defer from '@acme/defer';
const Widget = defer(() => import('./widget'));`)
	fake.addResolve("/p/page.js", "./widget", "/p/widget.js")

	extractor := dynimports.NewExtractor(fake, nil, nil, "@acme/defer")

	extracted, err := extractor.Extract(context.Background(), page)
	require.NoError(t, err)
	require.NotNil(t, extracted)
	require.Len(t, extracted.Imports, 1)
}
