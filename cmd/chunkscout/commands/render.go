package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/chunkscout/chunkscout/internal/config"
	"github.com/chunkscout/chunkscout/pkg/dynimports"
	"github.com/chunkscout/chunkscout/pkg/modgraph"
	"github.com/chunkscout/chunkscout/pkg/safeconv"
)

// mappingRenderer renders an import mapping in one of the output formats.
// Module paths are shown relative to the project root when possible.
type mappingRenderer struct {
	root    string
	noColor bool
}

func newMappingRenderer(root string, noColor bool) *mappingRenderer {
	return &mappingRenderer{root: root, noColor: noColor}
}

// renderedImport is the serializable form of one resolved dynamic import.
type renderedImport struct {
	Specifier string `json:"specifier" yaml:"specifier"`
	Target    string `json:"target"    yaml:"target"`
}

// renderedOrigin is the serializable form of one origin and its imports.
type renderedOrigin struct {
	Origin  string           `json:"origin"  yaml:"origin"`
	Imports []renderedImport `json:"imports" yaml:"imports"`
}

// Render writes the mapping to the writer in the requested format.
func (renderer *mappingRenderer) Render(writer io.Writer, format string, mapping *dynimports.ImportMapping) error {
	entries := renderer.flatten(mapping)

	switch format {
	case config.FormatJSON:
		return renderer.renderJSON(writer, entries)
	case config.FormatYAML:
		return renderer.renderYAML(writer, entries)
	default:
		renderer.renderText(writer, entries)

		return nil
	}
}

// RenderStats writes a one-line run summary.
func (renderer *mappingRenderer) RenderStats(writer io.Writer, stats modgraph.Stats, elapsed time.Duration) {
	fmt.Fprintf(writer, "parsed %s files (%s) across %s modules in %s\n",
		humanize.Comma(stats.FilesParsed),
		humanize.Bytes(safeconv.MustInt64ToUint64(stats.BytesParsed)),
		humanize.Comma(int64(stats.Modules)),
		elapsed.Round(time.Millisecond),
	)
}

// flatten converts the mapping into render entries sorted by origin path, for
// a display order stable across runs. The mapping's own order follows result
// observation and may vary with worker scheduling.
func (renderer *mappingRenderer) flatten(mapping *dynimports.ImportMapping) []renderedOrigin {
	entries := make([]renderedOrigin, 0, mapping.Len())

	for _, origin := range mapping.Origins() {
		imports := mapping.ImportsOf(origin)

		rendered := renderedOrigin{
			Origin:  renderer.displayPath(origin.Path),
			Imports: make([]renderedImport, 0, len(imports)),
		}

		for _, imported := range imports {
			rendered.Imports = append(rendered.Imports, renderedImport{
				Specifier: imported.Specifier,
				Target:    renderer.displayPath(imported.Target.Path),
			})
		}

		entries = append(entries, rendered)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Origin < entries[j].Origin
	})

	return entries
}

// displayPath relativizes an absolute module path against the project root.
func (renderer *mappingRenderer) displayPath(path string) string {
	relative, err := filepath.Rel(renderer.root, path)
	if err != nil {
		return path
	}

	return relative
}

func (renderer *mappingRenderer) renderText(writer io.Writer, entries []renderedOrigin) {
	if len(entries) == 0 {
		fmt.Fprintln(writer, "no dynamic imports found")

		return
	}

	tbl := table.NewWriter()
	tbl.SetOutputMirror(writer)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Origin", "Specifier", "Target"})

	if renderer.noColor {
		tbl.Style().Color = table.ColorOptions{}
	} else {
		tbl.Style().Color.Header = text.Colors{text.Bold}
	}

	for _, entry := range entries {
		for idx, imported := range entry.Imports {
			origin := entry.Origin
			if idx > 0 {
				origin = ""
			}

			tbl.AppendRow(table.Row{origin, imported.Specifier, imported.Target})
		}

		tbl.AppendSeparator()
	}

	tbl.Render()
}

func (renderer *mappingRenderer) renderJSON(writer io.Writer, entries []renderedOrigin) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(entries)
	if err != nil {
		return fmt.Errorf("encode mapping as json: %w", err)
	}

	return nil
}

func (renderer *mappingRenderer) renderYAML(writer io.Writer, entries []renderedOrigin) error {
	encoder := yaml.NewEncoder(writer)
	defer encoder.Close() //nolint:errcheck // Close error duplicates Encode's.

	err := encoder.Encode(entries)
	if err != nil {
		return fmt.Errorf("encode mapping as yaml: %w", err)
	}

	return nil
}
