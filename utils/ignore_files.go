package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IgnoreFileName is the optional per-workspace ignore file
const IgnoreFileName = ".codoc-ignore"

var defaultIgnoredNames = map[string]bool{
	".git":         true,
	".svn":         true,
	".hg":          true,
	".idea":        true,
	".vscode":      true,
	".cache":       true,
	".codoc":       true,
	"node_modules": true,
	"vendor":       true,
	"bin":          true,
	"obj":          true,
	"dist":         true,
	"build":        true,
	"out":          true,
	"__pycache__":  true,
	".venv":        true,
}

var defaultIgnoredSuffixes = []string{
	".exe", ".dll", ".so", ".log", ".bak", ".bkp", ".tmp", ".sum", ".lock",
	".min.js", ".map", ".mp3", ".wav", ".ogg", ".jpg", ".jpeg", ".png", ".gif",
	".mp4", ".mov", ".pdf", ".zip",
}

// IsDefaultIgnored reports whether any segment of a slash separated path is
// one of the built-in ignored names or the file has an ignored suffix.
func IsDefaultIgnored(relPath string) bool {
	parts := strings.Split(filepath.ToSlash(relPath), "/")
	for _, part := range parts {
		if defaultIgnoredNames[strings.ToLower(part)] {
			return true
		}
	}

	name := strings.ToLower(parts[len(parts)-1])
	if strings.HasPrefix(name, "codoc-config.") {
		return true
	}
	for _, suffix := range defaultIgnoredSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// IgnoreMatcher applies the patterns of a workspace ignore file.
type IgnoreMatcher struct {
	patterns []string
}

// LoadIgnoreMatcher reads <root>/.codoc-ignore. A missing file yields an empty matcher.
func LoadIgnoreMatcher(root string) (*IgnoreMatcher, error) {
	path := filepath.Join(root, IgnoreFileName)
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &IgnoreMatcher{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", IgnoreFileName, err)
	}
	return NewIgnoreMatcher(strings.Split(string(content), "\n")), nil
}

// NewIgnoreMatcher builds a matcher from raw lines; blanks and comments are dropped.
func NewIgnoreMatcher(lines []string) *IgnoreMatcher {
	var patterns []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	return &IgnoreMatcher{patterns: patterns}
}

// Patterns returns the active patterns
func (m *IgnoreMatcher) Patterns() []string {
	return m.patterns
}

// Match checks a slash separated relative path against the patterns.
// "dir/" ignores a directory tree, patterns without a slash match any segment.
func (m *IgnoreMatcher) Match(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	base := relPath[strings.LastIndex(relPath, "/")+1:]

	for _, pattern := range m.patterns {
		if strings.HasSuffix(pattern, "/") {
			dir := strings.TrimSuffix(pattern, "/")
			if relPath == dir || strings.HasPrefix(relPath, pattern) || strings.Contains("/"+relPath+"/", "/"+pattern) {
				return true
			}
			continue
		}
		if ok, _ := filepath.Match(pattern, relPath); ok {
			return true
		}
		if !strings.Contains(pattern, "/") {
			if ok, _ := filepath.Match(pattern, base); ok {
				return true
			}
		}
	}
	return false
}
