package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDefaultIgnored(t *testing.T) {
	ignored := []string{
		".git/config",
		"node_modules/react/index.js",
		"web/dist/app.js",
		".codoc/tree.json",
		"pkg/__pycache__/x.py",
		"assets/logo.png",
		"static/app.min.js",
		"codoc-config.yml",
		"go.sum",
	}
	for _, p := range ignored {
		assert.True(t, IsDefaultIgnored(p), p)
	}

	kept := []string{
		"src/app.ts",
		"outline.go",
		"builder/index.js",
		"distance.py",
		"docs/config.yml",
	}
	for _, p := range kept {
		assert.False(t, IsDefaultIgnored(p), p)
	}
}

func TestIgnoreMatcher(t *testing.T) {
	matcher := NewIgnoreMatcher([]string{
		"# comment",
		"",
		"generated/",
		"*.spec.ts",
		"scripts/*.py",
		"  legacy.js  ",
	})

	assert.Equal(t, []string{"generated/", "*.spec.ts", "scripts/*.py", "legacy.js"}, matcher.Patterns())

	assert.True(t, matcher.Match("generated/"))
	assert.True(t, matcher.Match("generated/api.ts"))
	assert.True(t, matcher.Match("src/generated/api.ts"))
	assert.True(t, matcher.Match("src/app.spec.ts"))
	assert.True(t, matcher.Match("scripts/build.py"))
	assert.True(t, matcher.Match("lib/legacy.js"))

	assert.False(t, matcher.Match("src/app.ts"))
	assert.False(t, matcher.Match("tools/scripts/build.py"))
	assert.False(t, matcher.Match("src/generator.ts"))
}

func TestLoadIgnoreMatcher(t *testing.T) {
	dir := t.TempDir()

	empty, err := LoadIgnoreMatcher(dir)
	require.NoError(t, err)
	assert.False(t, empty.Match("anything.ts"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, IgnoreFileName), []byte("fixtures/\r\n*.snap\n"), 0644))
	matcher, err := LoadIgnoreMatcher(dir)
	require.NoError(t, err)
	assert.True(t, matcher.Match("test/fixtures/a.ts"))
	assert.True(t, matcher.Match("ui/button.snap"))
}
