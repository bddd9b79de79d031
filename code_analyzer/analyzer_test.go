package code_analyzer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testExtensions = []string{".ts", ".tsx", ".js", ".py", ".go"}

func setupWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeWorkspaceFile(t, root, "src/app.ts", "export function start(): void {}\n")
	writeWorkspaceFile(t, root, "src/generated/api.ts", "export const api = 1;\n")
	writeWorkspaceFile(t, root, "src/app.skip.ts", "export const skip = 1;\n")
	writeWorkspaceFile(t, root, "main.py", "def main():\n    pass\n")
	writeWorkspaceFile(t, root, "node_modules/lib/index.js", "module.exports = {};\n")
	writeWorkspaceFile(t, root, ".codoc/tree.json", "{}")
	writeWorkspaceFile(t, root, "README.md", "# readme\n")
	writeWorkspaceFile(t, root, "big.js", strings.Repeat("x", 2048))
	writeWorkspaceFile(t, root, ".codoc-ignore", "# generated code\ngenerated/\n*.skip.ts\n")
	return root
}

func TestCodeAnalyzer_ListFiles(t *testing.T) {
	root := setupWorkspace(t)
	analyzer, err := NewCodeAnalyzer(root, testExtensions, 1024)
	require.NoError(t, err)

	files, err := analyzer.ListFiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"main.py", "src/app.ts"}, files)
}

func TestCodeAnalyzer_ListFilesCancelled(t *testing.T) {
	root := setupWorkspace(t)
	analyzer, err := NewCodeAnalyzer(root, testExtensions, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = analyzer.ListFiles(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCodeAnalyzer_IsCandidate(t *testing.T) {
	analyzer, err := NewCodeAnalyzer(setupWorkspace(t), testExtensions, 0)
	require.NoError(t, err)

	assert.True(t, analyzer.IsCandidate("src/app.ts"))
	assert.True(t, analyzer.IsCandidate("outline.go"))
	assert.False(t, analyzer.IsCandidate("README.md"))
	assert.False(t, analyzer.IsCandidate("node_modules/lib/index.js"))
	assert.False(t, analyzer.IsCandidate("src/generated/api.ts"))
	assert.False(t, analyzer.IsCandidate("src/app.skip.ts"))
	assert.False(t, analyzer.IsCandidate("dist/bundle.min.js"))

	assert.True(t, analyzer.IsIgnoredDir("src/generated"))
	assert.True(t, analyzer.IsIgnoredDir(".codoc"))
	assert.False(t, analyzer.IsIgnoredDir("src"))
}

func TestCodeAnalyzer_ProcessFilePython(t *testing.T) {
	analyzer, err := NewCodeAnalyzer(t.TempDir(), nil, 0)
	require.NoError(t, err)

	source := "class Greeter:\n    def hello(self):\n        pass\n\n\ndef main():\n    pass\n"
	symbols, err := analyzer.ProcessFile("greeter.py", []byte(source))
	require.NoError(t, err)
	assert.Equal(t, []string{"class: Greeter", "function: hello", "function: main"}, symbols)
}

func TestCodeAnalyzer_ProcessFileTypeScript(t *testing.T) {
	analyzer, err := NewCodeAnalyzer(t.TempDir(), nil, 0)
	require.NoError(t, err)

	source := `export interface Shape {
  area(): number;
}

export class Circle implements Shape {
  area(): number {
    return 1;
  }
}

export function make(): Circle {
  return new Circle();
}
`
	symbols, err := analyzer.ProcessFile("shapes.ts", []byte(source))
	require.NoError(t, err)
	assert.Contains(t, symbols, "interface: Shape")
	assert.Contains(t, symbols, "class: Circle")
	assert.Contains(t, symbols, "method: area")
	assert.Contains(t, symbols, "function: make")
	assert.Equal(t, "interface: Shape", symbols[0])
}

func TestCodeAnalyzer_ProcessFileWithoutGrammar(t *testing.T) {
	analyzer, err := NewCodeAnalyzer(t.TempDir(), nil, 0)
	require.NoError(t, err)

	symbols, err := analyzer.ProcessFile("notes.xyz", []byte("\n\n  first line  \nsecond"))
	require.NoError(t, err)
	assert.Equal(t, []string{"first line"}, symbols)

	symbols, err = analyzer.ProcessFile("empty.xyz", []byte("\n"))
	require.NoError(t, err)
	assert.Empty(t, symbols)
}

func TestCodeAnalyzer_ScanWorkspace(t *testing.T) {
	root := setupWorkspace(t)
	analyzer, err := NewCodeAnalyzer(root, testExtensions, 1024)
	require.NoError(t, err)

	files, tree, err := analyzer.ScanWorkspace(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "main.py", files[0].RelativePath)
	assert.Equal(t, "python", files[0].Language)
	assert.Equal(t, []string{"function: main"}, files[0].Symbols)

	node := tree.Find("src/app.ts")
	require.NotNil(t, node)
	assert.Equal(t, "typescript", node.Language)
	assert.Equal(t, []string{"function: start"}, node.Symbols)
	assert.Equal(t, []string{"main.py", "src/app.ts"}, tree.FilePaths())
}
