// Package observability provides OTel metric instruments and the Prometheus
// scrape endpoint for collection runs.
package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricModulesVisited     = "chunkscout.modules.visited.total"
	metricParseFailures      = "chunkscout.parse.failures.total"
	metricResolutionMisses   = "chunkscout.resolution.misses.total"
	metricDynamicImports     = "chunkscout.dynamic.imports.total"
	metricCollectionDuration = "chunkscout.collection.duration.seconds"

	attrStatus = "status"

	statusOK    = "ok"
	statusError = "error"
)

// durationBucketBoundaries covers 10ms to 120s; collections range from
// sub-second single-page apps to minute-scale monorepo graphs.
//
//nolint:gochecknoglobals // Static histogram layout.
var durationBucketBoundaries = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120}

// CollectorMetrics holds the OTel instruments recorded during a collection
// run. It satisfies the collector's Metrics interface.
type CollectorMetrics struct {
	modulesVisited     metric.Int64Counter
	parseFailures      metric.Int64Counter
	resolutionMisses   metric.Int64Counter
	dynamicImports     metric.Int64Counter
	collectionDuration metric.Float64Histogram
}

// NewCollectorMetrics creates the collection instruments from the given meter.
func NewCollectorMetrics(mt metric.Meter) (*CollectorMetrics, error) {
	b := newMetricBuilder(mt)

	cm := &CollectorMetrics{
		modulesVisited:     b.counter(metricModulesVisited, "Modules visited during graph traversal", "{module}"),
		parseFailures:      b.counter(metricParseFailures, "Modules whose source failed to parse", "{module}"),
		resolutionMisses:   b.counter(metricResolutionMisses, "Dynamic import specifiers that resolved to nothing", "{specifier}"),
		dynamicImports:     b.counter(metricDynamicImports, "Resolved dynamic imports found", "{import}"),
		collectionDuration: b.histogram(metricCollectionDuration, "Collection duration in seconds", "s", durationBucketBoundaries...),
	}

	if b.err != nil {
		return nil, b.err
	}

	return cm, nil
}

// ModuleVisited counts one visited module.
func (cm *CollectorMetrics) ModuleVisited(ctx context.Context) {
	cm.modulesVisited.Add(ctx, 1)
}

// ParseFailure counts one module that failed to parse.
func (cm *CollectorMetrics) ParseFailure(ctx context.Context) {
	cm.parseFailures.Add(ctx, 1)
}

// ResolutionMiss counts one dynamic import specifier that did not resolve.
func (cm *CollectorMetrics) ResolutionMiss(ctx context.Context) {
	cm.resolutionMisses.Add(ctx, 1)
}

// DynamicImportsFound counts resolved dynamic imports for one module.
func (cm *CollectorMetrics) DynamicImportsFound(ctx context.Context, count int) {
	cm.dynamicImports.Add(ctx, int64(count))
}

// CollectionFinished records a completed collection with its outcome.
func (cm *CollectorMetrics) CollectionFinished(ctx context.Context, elapsed time.Duration, err error) {
	status := statusOK
	if err != nil {
		status = statusError
	}

	cm.collectionDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String(attrStatus, status),
	))
}
