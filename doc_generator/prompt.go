package doc_generator

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/meysamhadeli/codoc/embed_data"
)

// FileType is the documentation flavour chosen from a file extension
type FileType string

const (
	FileTypeTypeScript FileType = "TypeScript"
	FileTypeTSX        FileType = "TSX"
	FileTypeJavaScript FileType = "JavaScript"
	FileTypeJSX        FileType = "JSX"
	FileTypePython     FileType = "Python"
	FileTypeUnknown    FileType = "Unknown"
)

// DetectFileType maps a path to one of the supported file types.
func DetectFileType(path string) FileType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".mts", ".cts":
		return FileTypeTypeScript
	case ".tsx":
		return FileTypeTSX
	case ".js", ".mjs", ".cjs":
		return FileTypeJavaScript
	case ".jsx":
		return FileTypeJSX
	case ".py":
		return FileTypePython
	default:
		return FileTypeUnknown
	}
}

var conventions = map[FileType]string{
	FileTypeTypeScript: "Use TSDoc (/** ... */) on exported functions, classes, interfaces and types, with @param and @returns tags.",
	FileTypeTSX:        "Use TSDoc (/** ... */) on components and hooks; document props with @param and describe what is rendered.",
	FileTypeJavaScript: "Use JSDoc (/** ... */) on functions and classes with @param {type} and @returns {type} tags.",
	FileTypeJSX:        "Use JSDoc (/** ... */) on components; document props with @param and describe what is rendered.",
	FileTypePython:     "Use PEP 257 docstrings (triple double quotes) for the module, classes and functions, with Args/Returns/Raises sections.",
	FileTypeUnknown:    "Use the idiomatic documentation comment style of the file's language.",
}

// Conventions returns the documentation conventions requested for a file type
func Conventions(fileType FileType) string {
	if c, ok := conventions[fileType]; ok {
		return c
	}
	return conventions[FileTypeUnknown]
}

var documentTemplate = template.Must(template.New("document_file").Parse(string(embed_data.DocumentFilePrompt)))

// GenerationRequest is what gets sent to the text generator for one file.
type GenerationRequest struct {
	Path     string
	FileType FileType
	Model    string
	Prompt   string
}

// BuildRequest renders the instruction template for path and content.
func BuildRequest(path, content, model string) (GenerationRequest, error) {
	fileType := DetectFileType(path)

	var buf bytes.Buffer
	err := documentTemplate.Execute(&buf, struct {
		FileType    FileType
		Conventions string
		Path        string
		Content     string
	}{
		FileType:    fileType,
		Conventions: Conventions(fileType),
		Path:        path,
		Content:     content,
	})
	if err != nil {
		return GenerationRequest{}, fmt.Errorf("failed to render prompt for %s: %w", path, err)
	}

	return GenerationRequest{
		Path:     path,
		FileType: fileType,
		Model:    model,
		Prompt:   buf.String(),
	}, nil
}
