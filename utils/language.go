package utils

import (
	"path/filepath"
	"strings"
)

// GetSupportedLanguage maps a file path to the tree-sitter grammar used for it.
// It returns an empty string for files without a grammar.
func GetSupportedLanguage(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".go":
		return "go"
	case ".py":
		return "python"
	case ".js", ".jsx", ".mjs", ".cjs":
		return "javascript"
	case ".ts", ".mts", ".cts":
		return "typescript"
	case ".tsx":
		return "tsx"
	default:
		return ""
	}
}

// DetectLanguageFromPath returns the chroma lexer name for a file path.
func DetectLanguageFromPath(filePath string) string {
	switch GetSupportedLanguage(filePath) {
	case "tsx":
		return "typescript"
	case "":
		return "plaintext"
	default:
		return GetSupportedLanguage(filePath)
	}
}
