package cmd

import (
	"strings"
	"testing"

	"github.com/meysamhadeli/codoc/code_analyzer"
	"github.com/meysamhadeli/codoc/code_analyzer/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDocs(t *testing.T) *code_analyzer.DocCache {
	t.Helper()
	docs := code_analyzer.NewDocCache(t.TempDir(), ".codoc")
	docs.Put("src/config/loader.ts", &models.DocumentationArtifact{Summary: "Loads the YAML configuration file."})
	docs.Put("src/server.ts", &models.DocumentationArtifact{Summary: "Starts the HTTP server and registers routes."})
	docs.Put("tools/loader.py", &models.DocumentationArtifact{Summary: "Bulk loader for fixtures."})
	return docs
}

func TestLookupArtifact(t *testing.T) {
	docs := newTestDocs(t)

	artifact, ok := lookupArtifact(docs, "/workspace", "src/server.ts")
	require.True(t, ok)
	assert.Equal(t, "src/server.ts", artifact.Path)

	artifact, ok = lookupArtifact(docs, "/workspace", "/workspace/tools/loader.py")
	require.True(t, ok)
	assert.Equal(t, "tools/loader.py", artifact.Path)

	artifact, ok = lookupArtifact(docs, "/workspace", "loader.ts")
	require.True(t, ok)
	assert.Equal(t, "src/config/loader.ts", artifact.Path)

	_, ok = lookupArtifact(docs, "/workspace", "server")
	assert.False(t, ok)
}

func TestSearchSummaries(t *testing.T) {
	docs := newTestDocs(t)

	matches := searchSummaries(docs, "Where is the configuration loader?", 5)
	require.Len(t, matches, 2)
	assert.Equal(t, "src/config/loader.ts", matches[0].Path)
	assert.Equal(t, "tools/loader.py", matches[1].Path)

	matches = searchSummaries(docs, "loader", 1)
	assert.Len(t, matches, 1)

	assert.Empty(t, searchSummaries(docs, "is it ok?", 5))
	assert.Empty(t, searchSummaries(docs, "database migrations", 5))
}

func TestBuildTreeView(t *testing.T) {
	tree := &models.TreeNode{Name: ".", Path: ".", Type: models.NodeDirectory}
	tree.Insert("src/a.ts")
	tree.Insert("src/b.ts")
	tree.Insert("main.py")

	view := buildTreeView(tree, map[string]bool{"src/a.ts": true})

	require.Len(t, view.Children, 2)
	assert.Contains(t, view.Children[0].Text, "main.py")
	assert.Contains(t, view.Children[1].Text, "src/")
	require.Len(t, view.Children[1].Children, 2)
	assert.True(t, strings.Contains(view.Children[1].Children[0].Text, "✔"))
	assert.False(t, strings.Contains(view.Children[1].Children[1].Text, "✔"))

	assert.Equal(t, ".", buildTreeView(nil, nil).Text)
}
