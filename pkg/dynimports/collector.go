package dynimports

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/chunkscout/chunkscout/pkg/issue"
	"github.com/chunkscout/chunkscout/pkg/modgraph"
)

// CollectorConfig configures a Collector.
type CollectorConfig struct {
	// WrapperSource is the module the deferred-import wrapper is imported
	// from. Empty selects DefaultWrapperSource.
	WrapperSource string

	// Workers is the number of goroutines expanding graph branches
	// concurrently. Zero or negative selects one per CPU.
	Workers int

	// Reporter receives per-module diagnostics. Nil discards them.
	Reporter issue.Reporter

	// Metrics receives collection counters. Nil discards them.
	Metrics Metrics
}

// Collector traverses the module graph reachable from an entry module,
// visiting each module exactly once, and aggregates every module's resolved
// dynamic imports into one ImportMapping.
type Collector struct {
	graph     ModuleGraph
	extractor *Extractor
	metrics   Metrics
	workers   int
}

// NewCollector creates a Collector over the given graph.
func NewCollector(graph ModuleGraph, config CollectorConfig) *Collector {
	workers := config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	metrics := config.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}

	return &Collector{
		graph:     graph,
		extractor: NewExtractor(graph, config.Reporter, metrics, config.WrapperSource),
		metrics:   metrics,
		workers:   workers,
	}
}

// Collect visits every module reachable from entry, extracts each module's
// dynamic imports, and returns the aggregated mapping. The mapping's key
// order is the order in which extraction results were observed; callers must
// not depend on a specific order beyond determinism for a fixed completion
// order. A collaborator failure aborts the whole collection and discards
// partial work.
func (collector *Collector) Collect(ctx context.Context, entry *modgraph.Module) (*ImportMapping, error) {
	start := time.Now()

	mapping, err := collector.collect(ctx, entry)

	collector.metrics.CollectionFinished(ctx, time.Since(start), err)

	if err != nil {
		return nil, err
	}

	return mapping, nil
}

//nolint:gocognit // The traversal wiring reads best as one unit.
func (collector *Collector) collect(ctx context.Context, entry *modgraph.Module) (*ImportMapping, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		firstErr error
		errOnce  sync.Once
	)

	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err

			cancel()
		})
	}

	// The visited set is the only state shared across branches; it
	// guarantees exactly-once visitation regardless of how many paths reach
	// a module.
	var (
		visitedMu sync.Mutex
		visited   = make(map[*modgraph.Module]bool)
	)

	enqueue := make(chan *modgraph.Module)
	work := make(chan *modgraph.Module)
	results := make(chan *ModuleImports)

	// pending counts scheduled modules whose visit has not finished; it
	// reaches zero exactly when no unvisited module remains.
	var pending sync.WaitGroup

	schedule := func(module *modgraph.Module) {
		visitedMu.Lock()

		if visited[module] {
			visitedMu.Unlock()

			return
		}

		visited[module] = true
		visitedMu.Unlock()

		pending.Add(1)

		select {
		case enqueue <- module:
		case <-ctx.Done():
			pending.Done()
		}
	}

	// Dispatcher: buffers the frontier so workers never block while
	// scheduling newly discovered modules.
	go func() {
		defer close(work)

		var backlog []*modgraph.Module

		in := enqueue

		for in != nil || len(backlog) > 0 {
			var (
				out  chan *modgraph.Module
				next *modgraph.Module
			)

			if len(backlog) > 0 {
				out = work
				next = backlog[0]
			}

			select {
			case module, ok := <-in:
				if !ok {
					in = nil

					continue
				}

				backlog = append(backlog, module)
			case out <- next:
				backlog = backlog[1:]
			}
		}
	}()

	var workerWG sync.WaitGroup

	workerWG.Add(collector.workers)

	for range collector.workers {
		go func() {
			defer workerWG.Done()

			for module := range work {
				collector.visit(ctx, module, schedule, results, fail)
				pending.Done()
			}
		}()
	}

	// Close the results stream once every worker has exited.
	go func() {
		workerWG.Wait()
		close(results)
	}()

	// Seed the frontier, then close the enqueue side once the traversal
	// drains. The entry is scheduled before the closer starts so pending
	// cannot reach zero early.
	schedule(entry)

	go func() {
		pending.Wait()
		close(enqueue)
	}()

	// Single-owner aggregation: this loop is the only writer of the
	// mapping, so concurrently completing extractions merge without shared
	// mutable map access.
	mapping := NewImportMapping()

	for extracted := range results {
		mapping.Append(extracted.Origin, extracted.Imports...)
	}

	if firstErr != nil {
		return nil, firstErr
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return mapping, nil
}

// visit expands one module's references into the frontier and forwards its
// extraction result, if any.
func (collector *Collector) visit(
	ctx context.Context,
	module *modgraph.Module,
	schedule func(*modgraph.Module),
	results chan<- *ModuleImports,
	fail func(error),
) {
	if ctx.Err() != nil {
		return
	}

	collector.metrics.ModuleVisited(ctx)

	referenced, err := collector.graph.ReferencedModules(ctx, module)
	if err != nil {
		fail(err)

		return
	}

	for _, reference := range referenced {
		schedule(reference)
	}

	extracted, err := collector.extractor.Extract(ctx, module)
	if err != nil {
		fail(err)

		return
	}

	if extracted == nil {
		return
	}

	select {
	case results <- extracted:
	case <-ctx.Done():
	}
}
