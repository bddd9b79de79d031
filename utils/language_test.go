package utils

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSupportedLanguage(t *testing.T) {
	assert.Equal(t, "go", GetSupportedLanguage("main.go"))
	assert.Equal(t, "python", GetSupportedLanguage("tools/c.PY"))
	assert.Equal(t, "javascript", GetSupportedLanguage("index.mjs"))
	assert.Equal(t, "typescript", GetSupportedLanguage("a.ts"))
	assert.Equal(t, "tsx", GetSupportedLanguage("App.tsx"))
	assert.Equal(t, "", GetSupportedLanguage("d.xyz"))
}

func TestDetectLanguageFromPath(t *testing.T) {
	assert.Equal(t, "typescript", DetectLanguageFromPath("App.tsx"))
	assert.Equal(t, "python", DetectLanguageFromPath("c.py"))
	assert.Equal(t, "plaintext", DetectLanguageFromPath("notes.txt"))
}

func TestRenderCode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderCode(&buf, "def greet():\n    return 'hi'", "python", "dracula"))
	assert.Contains(t, buf.String(), "greet")

	buf.Reset()
	require.NoError(t, RenderMarkdown(&buf, "Parses the config file.", "unknown-theme"))
	assert.Contains(t, buf.String(), "config")
}
