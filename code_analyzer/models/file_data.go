package models

import (
	"sort"
	"strings"
	"time"
)

// NodeType distinguishes directories from files in the snapshot tree
type NodeType string

const (
	NodeDirectory NodeType = "directory"
	NodeFile      NodeType = "file"
)

// FileData holds the path and content of a scanned file
type FileData struct {
	RelativePath string
	Code         string
	Language     string
	Symbols      []string
}

// FileRecord is the last documented state of a single file.
// FileHash reflects the content as of the last successful generation.
type FileRecord struct {
	Path      string    `json:"path"`
	FileHash  string    `json:"file_hash"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TreeNode describes directory nesting of the workspace together with the
// symbol outline extracted for each file.
type TreeNode struct {
	Name     string      `json:"name"`
	Path     string      `json:"path"`
	Type     NodeType    `json:"type"`
	Language string      `json:"language,omitempty"`
	Symbols  []string    `json:"symbols,omitempty"`
	Children []*TreeNode `json:"children,omitempty"`
}

// Snapshot is the persisted tree: file records keyed by path plus structure.
type Snapshot struct {
	Version   string                 `json:"version"`
	RootDir   string                 `json:"root_dir"`
	UpdatedAt time.Time              `json:"updated_at"`
	Files     map[string]*FileRecord `json:"files"`
	Tree      *TreeNode              `json:"tree,omitempty"`
}

// DocumentationArtifact is the generated documentation for one file.
type DocumentationArtifact struct {
	Path         string    `json:"path"`
	Content      string    `json:"content"`
	Summary      string    `json:"summary"`
	LastUpdated  time.Time `json:"lastUpdated"`
	Hash         string    `json:"hash,omitempty"`
	FileType     string    `json:"fileType,omitempty"`
	GenerationID string    `json:"generationId,omitempty"`
}

// ProjectDocumentation aggregates the artifacts of every documented file.
type ProjectDocumentation struct {
	Version     string                            `json:"version"`
	LastUpdated time.Time                         `json:"lastUpdated"`
	Files       map[string]*DocumentationArtifact `json:"files"`
}

// NewSnapshot returns an empty snapshot rooted at rootDir.
func NewSnapshot(version, rootDir string) *Snapshot {
	return &Snapshot{
		Version: version,
		RootDir: rootDir,
		Files:   make(map[string]*FileRecord),
		Tree:    &TreeNode{Name: ".", Path: ".", Type: NodeDirectory},
	}
}

// NewProjectDocumentation returns an empty documentation aggregate.
func NewProjectDocumentation(version string) *ProjectDocumentation {
	return &ProjectDocumentation{
		Version: version,
		Files:   make(map[string]*DocumentationArtifact),
	}
}

// Insert adds a file node for relPath, creating intermediate directories.
// The returned node is the existing one when the path is already present.
func (n *TreeNode) Insert(relPath string) *TreeNode {
	parts := strings.Split(relPath, "/")
	current := n
	for i, part := range parts {
		if part == "" || part == "." {
			continue
		}
		isLeaf := i == len(parts)-1
		child := current.child(part)
		if child == nil {
			child = &TreeNode{Name: part, Path: strings.Join(parts[:i+1], "/"), Type: NodeDirectory}
			if isLeaf {
				child.Type = NodeFile
			}
			current.Children = append(current.Children, child)
			sortChildren(current.Children)
		}
		current = child
	}
	return current
}

// Find returns the node at relPath, if any.
func (n *TreeNode) Find(relPath string) *TreeNode {
	current := n
	for _, part := range strings.Split(relPath, "/") {
		if part == "" || part == "." {
			continue
		}
		if current = current.child(part); current == nil {
			return nil
		}
	}
	return current
}

// Walk visits nodes depth first in sorted child order.
func (n *TreeNode) Walk(visit func(node *TreeNode)) {
	if n == nil {
		return
	}
	visit(n)
	for _, child := range n.Children {
		child.Walk(visit)
	}
}

// FilePaths lists file paths in traversal order.
func (n *TreeNode) FilePaths() []string {
	var paths []string
	n.Walk(func(node *TreeNode) {
		if node.Type == NodeFile {
			paths = append(paths, node.Path)
		}
	})
	return paths
}

func (n *TreeNode) child(name string) *TreeNode {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func sortChildren(children []*TreeNode) {
	sort.SliceStable(children, func(i, j int) bool {
		return children[i].Name < children[j].Name
	})
}
