package code_analyzer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/meysamhadeli/codoc/code_analyzer/models"
)

const (
	// DocumentationVersion is the schema version written into docs.json
	DocumentationVersion = "1"
	docsFileName         = "docs.json"
)

// CacheStats tracks documentation cache lookups
type CacheStats struct {
	TotalRequests int64
	CacheHits     int64
	CacheMisses   int64
	LastResetTime time.Time
	mutex         sync.RWMutex
}

// DocCache maps file paths to their latest documentation artifact and
// persists the aggregate at <root>/<stateDir>/docs.json.
type DocCache struct {
	path  string
	doc   *models.ProjectDocumentation
	stats *CacheStats
	mutex sync.RWMutex
}

// NewDocCache creates an empty cache for the given workspace; call Load to read the store.
func NewDocCache(workspaceRoot, stateDir string) *DocCache {
	return &DocCache{
		path:  filepath.Join(workspaceRoot, stateDir, docsFileName),
		doc:   models.NewProjectDocumentation(DocumentationVersion),
		stats: &CacheStats{LastResetTime: time.Now()},
	}
}

// Path returns the location of the documentation store
func (c *DocCache) Path() string {
	return c.path
}

// ReadDocumentation parses the documentation store at path.
func ReadDocumentation(path string) (*models.ProjectDocumentation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}

	var doc models.ProjectDocumentation
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptDocumentation, path, err)
	}
	if doc.Files == nil {
		doc.Files = make(map[string]*models.DocumentationArtifact)
	}
	return &doc, nil
}

// WriteDocumentation stores doc atomically at path.
func WriteDocumentation(path string, doc *models.ProjectDocumentation) error {
	doc.LastUpdated = time.Now().UTC()
	if doc.Version == "" {
		doc.Version = DocumentationVersion
	}
	return writeJSONAtomic(path, doc)
}

// Load replaces the in-memory aggregate with the durable one. On ErrNotFound
// the cache is reset to an empty aggregate and the error is still returned.
func (c *DocCache) Load() (*models.ProjectDocumentation, error) {
	doc, err := ReadDocumentation(c.path)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.mutex.Lock()
			c.doc = models.NewProjectDocumentation(DocumentationVersion)
			c.mutex.Unlock()
		}
		return nil, err
	}

	c.mutex.Lock()
	c.doc = doc
	c.mutex.Unlock()
	return doc, nil
}

// Persist writes the in-memory aggregate to disk.
func (c *DocCache) Persist() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return WriteDocumentation(c.path, c.doc)
}

// Get returns the cached artifact for path without triggering regeneration.
func (c *DocCache) Get(path string) (*models.DocumentationArtifact, bool) {
	c.mutex.RLock()
	artifact, ok := c.doc.Files[normalizePath(path)]
	c.mutex.RUnlock()

	if !ok {
		c.recordCacheMiss()
		return nil, false
	}
	c.recordCacheHit()
	copied := *artifact
	return &copied, true
}

// Put overwrites the artifact for path.
func (c *DocCache) Put(path string, artifact *models.DocumentationArtifact) {
	key := normalizePath(path)
	copied := *artifact
	copied.Path = key

	c.mutex.Lock()
	c.doc.Files[key] = &copied
	c.mutex.Unlock()
}

// Delete drops the artifact for path from the in-memory aggregate.
func (c *DocCache) Delete(path string) {
	c.mutex.Lock()
	delete(c.doc.Files, normalizePath(path))
	c.mutex.Unlock()
}

// Paths lists documented paths in sorted order.
func (c *DocCache) Paths() []string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	paths := make([]string, 0, len(c.doc.Files))
	for p := range c.doc.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Len returns the number of documented files
func (c *DocCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.doc.Files)
}

// Clear removes the durable store and empties the cache.
func (c *DocCache) Clear() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.doc = models.NewProjectDocumentation(DocumentationVersion)
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return &IOError{Op: "remove", Path: c.path, Err: err}
	}
	return nil
}
