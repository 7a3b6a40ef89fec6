package dynimports_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chunkscout/chunkscout/pkg/dynimports"
	"github.com/chunkscout/chunkscout/pkg/issue"
	"github.com/chunkscout/chunkscout/pkg/modgraph"
)

func writeProjectFile(t *testing.T, root, name, content string) {
	t.Helper()

	path := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCollect_RealProject(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeProjectFile(t, root, "app.js", `import dynamic from 'next/dynamic';
import { render } from './pages/home';

const Widget = dynamic(() => import('./widget'));
const Chart = dynamic(() => import('./chart'));

render(Widget, Chart);
`)
	writeProjectFile(t, root, "widget.js", `export default function Widget() {}`)
	writeProjectFile(t, root, "pages/home.js", `import lazy from 'next/dynamic';

export const Hero = lazy(() => import('../components/hero'));
export const render = () => null;
`)
	writeProjectFile(t, root, "components/hero.tsx", `export default function Hero() { return <div/>; }`)

	graph, err := modgraph.NewGraph(root, 0)
	require.NoError(t, err)

	entry, err := graph.EntryModule("app.js")
	require.NoError(t, err)

	reporter := issue.NewCollectingReporter()
	collector := dynimports.NewCollector(graph, dynimports.CollectorConfig{Reporter: reporter})

	mapping, err := collector.Collect(context.Background(), entry)
	require.NoError(t, err)
	assert.Empty(t, reporter.Issues())

	// ./chart never resolves, so only the widget entry survives for app.js.
	require.Equal(t, 2, mapping.Len())

	appImports := mapping.ImportsOf(entry)
	require.Len(t, appImports, 1)
	assert.Equal(t, "./widget", appImports[0].Specifier)
	assert.Equal(t, filepath.Join(root, "widget.js"), appImports[0].Target.Path)

	home, ok := graph.Resolve(entry, "./pages/home")
	require.True(t, ok)

	homeImports := mapping.ImportsOf(home)
	require.Len(t, homeImports, 1)
	assert.Equal(t, "../components/hero", homeImports[0].Specifier)
	assert.Equal(t, filepath.Join(root, "components", "hero.tsx"), homeImports[0].Target.Path)
}

func TestCollect_RealProjectWithBrokenDependency(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeProjectFile(t, root, "app.js", `import dynamic from 'next/dynamic';
import './broken';

const Widget = dynamic(() => import('./widget'));
`)
	writeProjectFile(t, root, "broken.js", `import { from ;;;`)
	writeProjectFile(t, root, "widget.js", ``)

	graph, err := modgraph.NewGraph(root, 0)
	require.NoError(t, err)

	entry, err := graph.EntryModule("app.js")
	require.NoError(t, err)

	reporter := issue.NewCollectingReporter()
	collector := dynimports.NewCollector(graph, dynimports.CollectorConfig{Reporter: reporter})

	mapping, err := collector.Collect(context.Background(), entry)
	require.NoError(t, err)

	require.Equal(t, 1, mapping.Len())
	require.Len(t, mapping.ImportsOf(entry), 1)

	issues := reporter.Issues()
	require.Len(t, issues, 1)
	assert.Equal(t, issue.SeverityWarning, issues[0].Severity)
	assert.Equal(t, filepath.Join(root, "broken.js"), issues[0].Path)
}
