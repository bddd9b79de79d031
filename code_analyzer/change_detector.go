package code_analyzer

import (
	"path/filepath"
	"strings"

	"github.com/meysamhadeli/codoc/code_analyzer/models"
)

// ChangeKind classifies a file against the snapshot
type ChangeKind int

const (
	ChangeNew ChangeKind = iota
	ChangeUnchanged
	ChangeModified
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeNew:
		return "new"
	case ChangeUnchanged:
		return "unchanged"
	case ChangeModified:
		return "modified"
	default:
		return "unknown"
	}
}

// DetectChange compares currentContent with the recorded hash of filePath.
// A nil snapshot (first run) makes every file new.
func DetectChange(filePath, currentContent string, snapshot *models.Snapshot) ChangeKind {
	record, ok := lookupRecord(snapshot, filePath)
	if !ok {
		return ChangeNew
	}
	if HashContent(currentContent) != record.FileHash {
		return ChangeModified
	}
	return ChangeUnchanged
}

// IsStale reports whether filePath needs (re)generation.
func IsStale(filePath, currentContent string, snapshot *models.Snapshot) bool {
	return DetectChange(filePath, currentContent, snapshot) != ChangeUnchanged
}

// lookupRecord only matches workspace-relative paths exactly. Absolute paths
// and paths outside the workspace fall back to FindRecord's suffix matching.
func lookupRecord(snapshot *models.Snapshot, filePath string) (*models.FileRecord, bool) {
	query := normalizePath(filePath)
	if !isWorkspaceRelative(query) {
		return FindRecord(snapshot, query)
	}
	if snapshot == nil {
		return nil, false
	}
	record, ok := snapshot.Files[query]
	return record, ok
}

func isWorkspaceRelative(p string) bool {
	return !filepath.IsAbs(filepath.FromSlash(p)) && p != ".." && !strings.HasPrefix(p, "../")
}
