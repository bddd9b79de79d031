package code_analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/meysamhadeli/codoc/code_analyzer/models"
	"github.com/meysamhadeli/codoc/embed_data"
	"github.com/meysamhadeli/codoc/utils"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// DefaultMaxFileSize skips files over 100 KB
const DefaultMaxFileSize = 100 * 1024

// CodeAnalyzer walks a workspace and extracts a symbol outline per file.
type CodeAnalyzer struct {
	Cwd         string
	extensions  map[string]bool
	maxFileSize int64
	ignore      *utils.IgnoreMatcher
}

// NewCodeAnalyzer initializes a new CodeAnalyzer. An empty extension list
// accepts every file that is not ignored.
func NewCodeAnalyzer(cwd string, extensions []string, maxFileSize int64) (*CodeAnalyzer, error) {
	ignore, err := utils.LoadIgnoreMatcher(cwd)
	if err != nil {
		return nil, err
	}
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}

	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[ext] = true
	}

	return &CodeAnalyzer{
		Cwd:         cwd,
		extensions:  exts,
		maxFileSize: maxFileSize,
		ignore:      ignore,
	}, nil
}

// IsCandidate reports whether a workspace-relative path should be documented.
func (analyzer *CodeAnalyzer) IsCandidate(relPath string) bool {
	if utils.IsDefaultIgnored(relPath) || analyzer.ignore.Match(relPath) {
		return false
	}
	if len(analyzer.extensions) == 0 {
		return true
	}
	return analyzer.extensions[strings.ToLower(filepath.Ext(relPath))]
}

// IsIgnoredDir reports whether a workspace-relative directory is skipped entirely.
func (analyzer *CodeAnalyzer) IsIgnoredDir(relPath string) bool {
	return utils.IsDefaultIgnored(relPath) || analyzer.ignore.Match(relPath+"/") || analyzer.ignore.Match(relPath)
}

// ListFiles returns candidate files in lexical walk order.
func (analyzer *CodeAnalyzer) ListFiles(ctx context.Context) ([]string, error) {
	var files []string
	err := analyzer.walk(ctx, func(relPath string, _ fs.FileInfo) error {
		files = append(files, relPath)
		return nil
	})
	return files, err
}

// ScanWorkspace reads every candidate file and returns its data together with
// the directory tree annotated with symbol outlines.
func (analyzer *CodeAnalyzer) ScanWorkspace(ctx context.Context) ([]models.FileData, *models.TreeNode, error) {
	tree := &models.TreeNode{Name: ".", Path: ".", Type: models.NodeDirectory}
	var result []models.FileData

	err := analyzer.walk(ctx, func(relPath string, _ fs.FileInfo) error {
		content, err := os.ReadFile(filepath.Join(analyzer.Cwd, filepath.FromSlash(relPath)))
		if err != nil {
			return &IOError{Op: "read", Path: relPath, Err: err}
		}

		symbols, err := analyzer.ProcessFile(relPath, content)
		if err != nil {
			return fmt.Errorf("failed to analyze %s: %w", relPath, err)
		}

		node := tree.Insert(relPath)
		node.Language = utils.GetSupportedLanguage(relPath)
		node.Symbols = symbols

		result = append(result, models.FileData{
			RelativePath: relPath,
			Code:         string(content),
			Language:     node.Language,
			Symbols:      symbols,
		})
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return result, tree, nil
}

func (analyzer *CodeAnalyzer) walk(ctx context.Context, visit func(relPath string, info fs.FileInfo) error) error {
	return filepath.WalkDir(analyzer.Cwd, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		relativePath, err := filepath.Rel(analyzer.Cwd, path)
		if err != nil {
			return err
		}
		relativePath = filepath.ToSlash(relativePath)
		if relativePath == "." {
			return nil
		}

		if d.IsDir() {
			if analyzer.IsIgnoredDir(relativePath) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || !analyzer.IsCandidate(relativePath) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("failed to get file info: %s, error: %w", relativePath, err)
		}
		if info.Size() > analyzer.maxFileSize {
			return nil
		}
		return visit(relativePath, info)
	})
}

// ProcessFile extracts a "kind: name" outline of the declarations in sourceCode.
// Files without a grammar yield their first non-empty line.
func (analyzer *CodeAnalyzer) ProcessFile(filePath string, sourceCode []byte) ([]string, error) {
	var lang *sitter.Language
	var query []byte

	switch utils.GetSupportedLanguage(filePath) {
	case "go":
		lang, query = golang.GetLanguage(), embed_data.GoQuery
	case "python":
		lang, query = python.GetLanguage(), embed_data.PythonQuery
	case "javascript":
		lang, query = javascript.GetLanguage(), embed_data.JavascriptQuery
	case "typescript":
		lang, query = typescript.GetLanguage(), embed_data.TypescriptQuery
	case "tsx":
		lang, query = tsx.GetLanguage(), embed_data.TypescriptQuery
	default:
		for _, line := range strings.Split(string(sourceCode), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				return []string{line}, nil
			}
		}
		return nil, nil
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(context.Background(), nil, sourceCode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse: %w", err)
	}
	defer tree.Close()

	queries := make(map[string]string)
	if err := json.Unmarshal(query, &queries); err != nil {
		return nil, fmt.Errorf("failed to parse query set: %w", err)
	}

	tags := make([]string, 0, len(queries))
	for tag := range queries {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	type element struct {
		offset uint32
		text   string
	}
	var elements []element

	for _, tag := range tags {
		q, err := sitter.NewQuery([]byte(queries[tag]), lang)
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s query: %w", tag, err)
		}

		cursor := sitter.NewQueryCursor()
		cursor.Exec(q, tree.RootNode())
		for {
			match, ok := cursor.NextMatch()
			if !ok {
				break
			}
			for _, capture := range match.Captures {
				elements = append(elements, element{
					offset: capture.Node.StartByte(),
					text:   fmt.Sprintf("%s: %s", tag, capture.Node.Content(sourceCode)),
				})
			}
		}
		cursor.Close()
		q.Close()
	}

	sort.SliceStable(elements, func(i, j int) bool {
		return elements[i].offset < elements[j].offset
	})
	symbols := make([]string, 0, len(elements))
	for _, e := range elements {
		symbols = append(symbols, e.text)
	}
	return symbols, nil
}
