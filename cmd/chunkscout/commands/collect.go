// Package commands implements the chunkscout CLI commands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/chunkscout/chunkscout/internal/config"
	"github.com/chunkscout/chunkscout/internal/observability"
	"github.com/chunkscout/chunkscout/pkg/dynimports"
	"github.com/chunkscout/chunkscout/pkg/issue"
	"github.com/chunkscout/chunkscout/pkg/modgraph"
)

// meterName identifies the chunkscout meter within the OTel provider.
const meterName = "chunkscout"

// metricsShutdownTimeout bounds the scrape endpoint drain on exit.
const metricsShutdownTimeout = 5 * time.Second

var errNoEntry = errors.New("an entry module path is required")

// CollectCommand holds the flags for the collect command.
type CollectCommand struct {
	root          string
	output        string
	format        string
	configPath    string
	wrapperSource string
	workers       int
	noColor       bool
	showStats     bool
	serveMetrics  bool
}

// NewCollectCommand creates and configures the collect command.
func NewCollectCommand() *cobra.Command {
	cmd := &CollectCommand{}

	cobraCmd := &cobra.Command{
		Use:   "collect <entry>",
		Short: "Collect dynamic imports reachable from an entry module",
		Long: "Traverse the module graph from the entry module, find every " +
			"deferred-import wrapper call site, resolve the lazily loaded " +
			"specifiers, and print the origin -> imports mapping.",
		Args: cobra.MaximumNArgs(1),
		RunE: cmd.Run,
	}

	// Add flags
	cobraCmd.Flags().StringVarP(&cmd.root, "root", "r", ".", "Project root directory (bounds bare specifier resolution)")
	cobraCmd.Flags().StringVarP(&cmd.output, "output", "o", "", "Output file (default: stdout)")
	cobraCmd.Flags().StringVarP(&cmd.format, "format", "f", "", "Output format: text, json, or yaml")
	cobraCmd.Flags().StringVarP(&cmd.configPath, "config", "c", "", "Config file path (default: .chunkscout.yaml in CWD or $HOME)")
	cobraCmd.Flags().StringVar(&cmd.wrapperSource, "wrapper-source", "", "Module the deferred-import wrapper is imported from")
	cobraCmd.Flags().IntVarP(&cmd.workers, "workers", "w", 0, "Concurrent traversal workers (0 = one per CPU)")
	cobraCmd.Flags().BoolVar(&cmd.noColor, "no-color", false, "Disable colored output")
	cobraCmd.Flags().BoolVar(&cmd.showStats, "stats", false, "Print parse statistics after the mapping")
	cobraCmd.Flags().BoolVar(&cmd.serveMetrics, "metrics", false, "Serve a Prometheus scrape endpoint during the run")

	return cobraCmd
}

// Run executes the collect command.
func (c *CollectCommand) Run(cobraCmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return errNoEntry
	}

	cfg, err := c.loadConfig(cobraCmd)
	if err != nil {
		return err
	}

	graph, err := modgraph.NewGraph(c.root, cfg.Collector.ParseCacheSize)
	if err != nil {
		return fmt.Errorf("build module graph: %w", err)
	}

	entry, err := graph.EntryModule(args[0])
	if err != nil {
		return fmt.Errorf("locate entry module: %w", err)
	}

	ctx := cobraCmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	metrics, shutdownMetrics, err := c.setupMetrics(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdownMetrics()

	collector := dynimports.NewCollector(graph, dynimports.CollectorConfig{
		WrapperSource: cfg.Collector.WrapperSource,
		Workers:       cfg.Collector.Workers,
		Reporter:      issue.NewConsoleReporter(os.Stderr, cfg.Output.NoColor),
		Metrics:       metrics,
	})

	start := time.Now()

	mapping, err := collector.Collect(ctx, entry)
	if err != nil {
		return fmt.Errorf("collect dynamic imports: %w", err)
	}

	elapsed := time.Since(start)

	writer, closeWriter := c.createOutputWriter()
	defer closeWriter()

	renderer := newMappingRenderer(graph.Root(), cfg.Output.NoColor)

	renderErr := renderer.Render(writer, cfg.Output.Format, mapping)
	if renderErr != nil {
		return renderErr
	}

	if c.showStats {
		renderer.RenderStats(os.Stderr, graph.Stats(), elapsed)
	}

	return nil
}

// loadConfig loads the file/env configuration and layers explicit flag values
// on top.
func (c *CollectCommand) loadConfig(cobraCmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.configPath)
	if err != nil {
		return nil, err
	}

	if cobraCmd.Flags().Changed("format") {
		cfg.Output.Format = c.format
	}

	if cobraCmd.Flags().Changed("workers") {
		cfg.Collector.Workers = c.workers
	}

	if cobraCmd.Flags().Changed("wrapper-source") {
		cfg.Collector.WrapperSource = c.wrapperSource
	}

	if cobraCmd.Flags().Changed("no-color") {
		cfg.Output.NoColor = c.noColor
	}

	if cobraCmd.Flags().Changed("metrics") {
		cfg.Metrics.Enabled = c.serveMetrics
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return cfg, nil
}

// setupMetrics wires the collection instruments and, when enabled, starts the
// Prometheus scrape endpoint. The returned shutdown func is always non-nil.
func (c *CollectCommand) setupMetrics(ctx context.Context, cfg *config.Config) (dynimports.Metrics, func(), error) {
	if !cfg.Metrics.Enabled {
		return nil, func() {}, nil
	}

	provider, handler, err := observability.PrometheusHandler()
	if err != nil {
		return nil, nil, fmt.Errorf("setup metrics: %w", err)
	}

	metrics, err := observability.NewCollectorMetrics(provider.Meter(meterName))
	if err != nil {
		return nil, nil, fmt.Errorf("create collection instruments: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	server := &http.Server{
		Addr:              cfg.Metrics.Listen,
		Handler:           mux,
		ReadHeaderTimeout: metricsShutdownTimeout,
	}

	go func() {
		serveErr := server.ListenAndServe()
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "metrics endpoint: %v\n", serveErr)
		}
	}()

	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(ctx, metricsShutdownTimeout)
		defer cancel()

		_ = server.Shutdown(shutdownCtx)
		_ = provider.Shutdown(shutdownCtx)
	}

	return metrics, shutdown, nil
}

// createOutputWriter creates an output writer (stdout or file).
func (c *CollectCommand) createOutputWriter() (*os.File, func()) {
	if c.output == "" {
		return os.Stdout, func() {}
	}

	file, err := os.Create(c.output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)

		return os.Stdout, func() {}
	}

	return file, func() { _ = file.Close() }
}
