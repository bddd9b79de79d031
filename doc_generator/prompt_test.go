package doc_generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFileType(t *testing.T) {
	tests := map[string]FileType{
		"src/a.ts":       FileTypeTypeScript,
		"src/a.mts":      FileTypeTypeScript,
		"src/App.tsx":    FileTypeTSX,
		"lib/index.js":   FileTypeJavaScript,
		"lib/index.CJS":  FileTypeJavaScript,
		"lib/Button.jsx": FileTypeJSX,
		"tools/c.py":     FileTypePython,
		"d.xyz":          FileTypeUnknown,
		"Makefile":       FileTypeUnknown,
	}

	for path, want := range tests {
		assert.Equal(t, want, DetectFileType(path), path)
	}
}

func TestConventions(t *testing.T) {
	assert.Contains(t, Conventions(FileTypeTypeScript), "TSDoc")
	assert.Contains(t, Conventions(FileTypeJavaScript), "JSDoc")
	assert.Contains(t, Conventions(FileTypePython), "docstrings")
	assert.Equal(t, Conventions(FileTypeUnknown), Conventions(FileType("Rust")))
}

func TestBuildRequest(t *testing.T) {
	request, err := BuildRequest("src/a.ts", "const x = 1;", "gpt-4o")
	require.NoError(t, err)

	assert.Equal(t, "src/a.ts", request.Path)
	assert.Equal(t, FileTypeTypeScript, request.FileType)
	assert.Equal(t, "gpt-4o", request.Model)
	assert.Contains(t, request.Prompt, "TypeScript source file")
	assert.Contains(t, request.Prompt, "## File: src/a.ts\n")
	assert.Contains(t, request.Prompt, "const x = 1;")
	assert.Contains(t, request.Prompt, Conventions(FileTypeTypeScript))
	assert.Contains(t, request.Prompt, "Summary:")
}
