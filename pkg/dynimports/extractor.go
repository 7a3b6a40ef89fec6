package dynimports

import (
	"context"
	"time"

	"github.com/chunkscout/chunkscout/pkg/issue"
	"github.com/chunkscout/chunkscout/pkg/jsast"
	"github.com/chunkscout/chunkscout/pkg/modgraph"
)

// Parse failure diagnostic constants. One such record is emitted per module
// whose source cannot be parsed; the failure is non-fatal.
const (
	categoryParsing         = "parsing"
	parseFailureTitle       = "Unable to parse source file"
	parseFailureDescription = "Failed to parse source file. This is likely due to a syntax error in the source file."
)

// ModuleGraph is the collaborator surface the extractor and collector
// consume: direct reference enumeration, parse-result access, and
// literal-path resolution. *modgraph.Graph satisfies it.
type ModuleGraph interface {
	ReferencedModules(ctx context.Context, module *modgraph.Module) ([]*modgraph.Module, error)
	ParseResult(ctx context.Context, module *modgraph.Module) (*jsast.ParseResult, error)
	Resolve(origin *modgraph.Module, specifier string) (*modgraph.Module, bool)
}

// Metrics receives collection counters. Implementations must be safe for
// concurrent use.
type Metrics interface {
	ModuleVisited(ctx context.Context)
	ParseFailure(ctx context.Context)
	ResolutionMiss(ctx context.Context)
	DynamicImportsFound(ctx context.Context, count int)
	CollectionFinished(ctx context.Context, elapsed time.Duration, err error)
}

// nopMetrics is the default Metrics sink.
type nopMetrics struct{}

func (nopMetrics) ModuleVisited(context.Context)                            {}
func (nopMetrics) ParseFailure(context.Context)                             {}
func (nopMetrics) ResolutionMiss(context.Context)                           {}
func (nopMetrics) DynamicImportsFound(context.Context, int)                 {}
func (nopMetrics) CollectionFinished(context.Context, time.Duration, error) {}

// Extractor produces one module's resolved dynamic imports.
type Extractor struct {
	graph         ModuleGraph
	reporter      issue.Reporter
	metrics       Metrics
	wrapperSource string
}

// NewExtractor creates an Extractor. A nil reporter discards diagnostics; a
// nil metrics sink discards counters; an empty wrapperSource selects
// DefaultWrapperSource.
func NewExtractor(graph ModuleGraph, reporter issue.Reporter, metrics Metrics, wrapperSource string) *Extractor {
	if reporter == nil {
		reporter = issue.Discard()
	}

	if metrics == nil {
		metrics = nopMetrics{}
	}

	if wrapperSource == "" {
		wrapperSource = DefaultWrapperSource
	}

	return &Extractor{
		graph:         graph,
		reporter:      reporter,
		metrics:       metrics,
		wrapperSource: wrapperSource,
	}
}

// Extract returns the module's resolved dynamic imports, or nil when the
// module contributes none: non-script modules, modules whose source fails to
// parse (one warning diagnostic is emitted), modules without wrapper calls,
// and modules whose specifiers all fail to resolve. Errors are reserved for
// collaborator failures (I/O below the graph) and abort the wider
// collection.
func (extractor *Extractor) Extract(ctx context.Context, module *modgraph.Module) (*ModuleImports, error) {
	if module.Kind != modgraph.KindScript {
		return nil, nil
	}

	result, err := extractor.graph.ParseResult(ctx, module)
	if err != nil {
		return nil, err
	}

	if !result.OK {
		extractor.metrics.ParseFailure(ctx)
		extractor.reporter.Report(issue.Issue{
			Severity:    issue.SeverityWarning,
			Category:    categoryParsing,
			Path:        module.Path,
			Title:       parseFailureTitle,
			Description: parseFailureDescription,
		})

		return nil, nil
	}

	specifiers := MatchDynamicImports(result.Root, extractor.wrapperSource)
	if len(specifiers) == 0 {
		return nil, nil
	}

	imports := make([]ResolvedImport, 0, len(specifiers))

	for _, specifier := range specifiers {
		// Resolution happens in the originating module's context. A
		// specifier that resolves to nothing is dropped silently: that is
		// the expected outcome for e.g. platform-guarded imports.
		target, ok := extractor.graph.Resolve(module, specifier)
		if !ok {
			extractor.metrics.ResolutionMiss(ctx)

			continue
		}

		imports = append(imports, ResolvedImport{Specifier: specifier, Target: target})
	}

	if len(imports) == 0 {
		return nil, nil
	}

	extractor.metrics.DynamicImportsFound(ctx, len(imports))

	return &ModuleImports{Origin: module, Imports: imports}, nil
}
