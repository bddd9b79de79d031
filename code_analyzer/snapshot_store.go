package code_analyzer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/meysamhadeli/codoc/code_analyzer/models"
)

const (
	// SnapshotVersion is the schema version written into tree.json
	SnapshotVersion = "1"
	snapshotFileName = "tree.json"
)

// SnapshotStore reads and writes the workspace snapshot at <root>/<stateDir>/tree.json.
type SnapshotStore struct {
	root  string
	path  string
	mutex sync.Mutex
}

// NewSnapshotStore creates a store for the given workspace root.
func NewSnapshotStore(workspaceRoot, stateDir string) *SnapshotStore {
	return &SnapshotStore{
		root: workspaceRoot,
		path: filepath.Join(workspaceRoot, stateDir, snapshotFileName),
	}
}

// Path returns the location of the snapshot file
func (s *SnapshotStore) Path() string {
	return s.path
}

// Load reads the snapshot. It returns ErrNotFound when no snapshot exists
// and ErrCorruptSnapshot when the file cannot be parsed.
func (s *SnapshotStore) Load() (*models.Snapshot, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.load()
}

func (s *SnapshotStore) load() (*models.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, &IOError{Op: "read", Path: s.path, Err: err}
	}

	var snapshot models.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptSnapshot, s.path, err)
	}
	if snapshot.Files == nil {
		snapshot.Files = make(map[string]*models.FileRecord)
	}
	if snapshot.Tree == nil {
		snapshot.Tree = &models.TreeNode{Name: ".", Path: ".", Type: models.NodeDirectory}
	}
	return &snapshot, nil
}

// loadOrInit treats a missing snapshot as a fresh one.
func (s *SnapshotStore) loadOrInit() (*models.Snapshot, error) {
	snapshot, err := s.load()
	if errors.Is(err, ErrNotFound) {
		return models.NewSnapshot(SnapshotVersion, s.root), nil
	}
	return snapshot, err
}

// Save persists the snapshot atomically.
func (s *SnapshotStore) Save(snapshot *models.Snapshot) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.save(snapshot)
}

func (s *SnapshotStore) save(snapshot *models.Snapshot) error {
	snapshot.UpdatedAt = time.Now().UTC()
	if snapshot.Version == "" {
		snapshot.Version = SnapshotVersion
	}
	return writeJSONAtomic(s.path, snapshot)
}

// SaveTree replaces the structural tree and keeps every file record.
func (s *SnapshotStore) SaveTree(tree *models.TreeNode) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	snapshot, err := s.loadOrInit()
	if err != nil {
		return err
	}
	snapshot.Tree = tree
	for path := range snapshot.Files {
		tree.Insert(path)
	}
	return s.save(snapshot)
}

// UpdateHashes recomputes the hash of every named file and commits the result.
// Untracked paths get new records. Nothing is written if any file cannot be read.
func (s *SnapshotStore) UpdateHashes(paths []string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	snapshot, err := s.loadOrInit()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, p := range paths {
		relPath := RelativePath(s.root, p)
		hash, size, err := HashFile(filepath.Join(s.root, filepath.FromSlash(relPath)))
		if err != nil {
			return err
		}
		snapshot.Files[relPath] = &models.FileRecord{
			Path:      relPath,
			FileHash:  hash,
			Size:      size,
			UpdatedAt: now,
		}
		snapshot.Tree.Insert(relPath)
	}

	return s.save(snapshot)
}

// Clear removes the snapshot file.
func (s *SnapshotStore) Clear() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return &IOError{Op: "remove", Path: s.path, Err: err}
	}
	return nil
}

// FindRecord looks up the record for path. Exact matches win; otherwise the
// first record whose path and the query share a path-segment suffix is used,
// in tree traversal order followed by untreed records in sorted order.
func FindRecord(snapshot *models.Snapshot, path string) (*models.FileRecord, bool) {
	if snapshot == nil || len(snapshot.Files) == 0 {
		return nil, false
	}

	query := normalizePath(path)
	if record, ok := snapshot.Files[query]; ok {
		return record, true
	}

	for _, candidate := range traversalOrder(snapshot) {
		if suffixMatch(candidate, query) {
			if record, ok := snapshot.Files[candidate]; ok {
				return record, true
			}
		}
	}
	return nil, false
}

func traversalOrder(snapshot *models.Snapshot) []string {
	seen := make(map[string]bool, len(snapshot.Files))
	var order []string
	for _, p := range snapshot.Tree.FilePaths() {
		if _, tracked := snapshot.Files[p]; tracked && !seen[p] {
			seen[p] = true
			order = append(order, p)
		}
	}

	var rest []string
	for p := range snapshot.Files {
		if !seen[p] {
			rest = append(rest, p)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

func suffixMatch(recordPath, query string) bool {
	if recordPath == "" || query == "" {
		return false
	}
	return strings.HasSuffix(recordPath, "/"+query) || strings.HasSuffix(query, "/"+recordPath)
}

// RelativePath converts p into a workspace-relative, slash separated path.
// Paths outside the root are returned cleaned but otherwise unchanged.
func RelativePath(root, p string) string {
	if filepath.IsAbs(p) && root != "" {
		if absRoot, err := filepath.Abs(root); err == nil {
			if rel, err := filepath.Rel(absRoot, p); err == nil && !strings.HasPrefix(rel, "..") {
				return normalizePath(rel)
			}
		}
	}
	return normalizePath(p)
}

func normalizePath(p string) string {
	p = filepath.ToSlash(filepath.Clean(p))
	return strings.TrimPrefix(p, "./")
}
