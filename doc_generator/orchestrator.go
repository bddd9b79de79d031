package doc_generator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/meysamhadeli/codoc/code_analyzer"
	"github.com/meysamhadeli/codoc/code_analyzer/models"
	"github.com/oklog/ulid/v2"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/pterm/pterm"
)

// TextGenerator is the external text generation collaborator.
type TextGenerator interface {
	Generate(ctx context.Context, model string, prompt string) (string, error)
}

// Status is the outcome of processing one file
type Status int

const (
	StatusSkipped Status = iota
	StatusGenerated
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSkipped:
		return "skipped"
	case StatusGenerated:
		return "generated"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// GenerationResult describes what happened to a single file.
type GenerationResult struct {
	Path     string
	Status   Status
	Change   code_analyzer.ChangeKind
	FileType FileType
	Artifact *models.DocumentationArtifact
	// Diff is a unified diff against the previous artifact content, if there was one.
	Diff string
	Err  error
}

// BatchSummary aggregates the results of a batch run.
type BatchSummary struct {
	GenerationID string
	Generated    int
	Skipped      int
	Failed       int
	Results      []GenerationResult
}

// PlanEntry is the change classification of a file without generating anything.
type PlanEntry struct {
	Path   string
	Change code_analyzer.ChangeKind
	Err    error
}

// Options configures an Orchestrator. Generator may be nil for an
// orchestrator that only plans. WriteBack replaces the source file with the
// documented content.
type Options struct {
	WorkspaceRoot string
	Model         string
	Generator     TextGenerator
	Snapshots     *code_analyzer.SnapshotStore
	Docs          *code_analyzer.DocCache
	Logger        *pterm.Logger
	WriteBack     bool
}

// Orchestrator decides which files are stale, generates their documentation
// and commits the results to the documentation cache and the snapshot store.
// Files are processed one at a time.
type Orchestrator struct {
	opts       Options
	log        *pterm.Logger
	docsLoaded bool
	now        func() time.Time
}

// NewOrchestrator validates opts and returns an orchestrator.
func NewOrchestrator(opts Options) (*Orchestrator, error) {
	if opts.Snapshots == nil || opts.Docs == nil {
		return nil, errors.New("snapshot store and documentation cache are required")
	}
	if opts.WorkspaceRoot == "" {
		opts.WorkspaceRoot = "."
	}

	logger := opts.Logger
	if logger == nil {
		logger = &pterm.DefaultLogger
	}

	return &Orchestrator{
		opts: opts,
		log:  logger,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

// Process documents a single file.
func (o *Orchestrator) Process(ctx context.Context, path string) GenerationResult {
	return o.process(ctx, path, newGenerationID())
}

// ProcessBatch processes paths in order. Per-file failures are counted and the
// batch continues; a corrupt snapshot or documentation store aborts it.
func (o *Orchestrator) ProcessBatch(ctx context.Context, paths []string) (BatchSummary, error) {
	summary := BatchSummary{GenerationID: newGenerationID()}
	o.log.Info("starting documentation batch", o.log.Args("generation_id", summary.GenerationID, "files", len(paths)))

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		result := o.process(ctx, p, summary.GenerationID)
		summary.Results = append(summary.Results, result)

		switch result.Status {
		case StatusGenerated:
			summary.Generated++
		case StatusSkipped:
			summary.Skipped++
		case StatusFailed:
			summary.Failed++
			if code_analyzer.IsFatal(result.Err) {
				o.log.Error("aborting batch", o.log.Args("path", result.Path, "error", result.Err))
				return summary, result.Err
			}
		}
	}

	o.log.Info("documentation batch finished", o.log.Args(
		"generation_id", summary.GenerationID,
		"generated", summary.Generated,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	))
	return summary, nil
}

// Plan classifies paths against the current snapshot without generating anything.
func (o *Orchestrator) Plan(paths []string) ([]PlanEntry, error) {
	snapshot, err := o.loadSnapshot()
	if err != nil {
		return nil, err
	}

	entries := make([]PlanEntry, 0, len(paths))
	for _, p := range paths {
		relPath := code_analyzer.RelativePath(o.opts.WorkspaceRoot, p)
		content, err := o.readFile(relPath)
		if err != nil {
			entries = append(entries, PlanEntry{Path: relPath, Err: err})
			continue
		}
		entries = append(entries, PlanEntry{
			Path:   relPath,
			Change: code_analyzer.DetectChange(relPath, content, snapshot),
		})
	}
	return entries, nil
}

func (o *Orchestrator) process(ctx context.Context, path string, generationID string) GenerationResult {
	relPath := code_analyzer.RelativePath(o.opts.WorkspaceRoot, path)
	result := GenerationResult{Path: relPath, FileType: DetectFileType(relPath)}

	fail := func(err error) GenerationResult {
		result.Status = StatusFailed
		result.Err = err
		o.log.Warn("documentation failed", o.log.Args("path", relPath, "error", err))
		return result
	}

	content, err := o.readFile(relPath)
	if err != nil {
		return fail(err)
	}

	snapshot, err := o.loadSnapshot()
	if err != nil {
		return fail(err)
	}

	result.Change = code_analyzer.DetectChange(relPath, content, snapshot)
	if result.Change == code_analyzer.ChangeUnchanged {
		result.Status = StatusSkipped
		o.log.Debug("file unchanged", o.log.Args("path", relPath))
		return result
	}

	if err := o.ensureDocsLoaded(); err != nil {
		return fail(err)
	}

	if o.opts.Generator == nil {
		return fail(&code_analyzer.GenerationError{Path: relPath, Err: errors.New("no text generator configured")})
	}

	request, err := BuildRequest(relPath, content, o.opts.Model)
	if err != nil {
		return fail(err)
	}

	o.log.Info("generating documentation", o.log.Args("path", relPath, "type", string(request.FileType), "change", result.Change.String()))
	raw, err := o.opts.Generator.Generate(ctx, request.Model, request.Prompt)
	if err != nil {
		return fail(&code_analyzer.GenerationError{Path: relPath, Err: err})
	}
	if strings.TrimSpace(raw) == "" {
		return fail(&code_analyzer.GenerationError{Path: relPath, Err: errors.New("empty response")})
	}

	documented, summary := splitResponse(raw)
	if strings.TrimSpace(documented) == "" {
		return fail(&code_analyzer.GenerationError{Path: relPath, Err: errors.New("response contained no content")})
	}
	if summary == "" {
		summary = DeriveSummary(documented)
	}

	finalContent := content
	wroteBack := false
	if o.opts.WriteBack && documented != content {
		if err := o.writeFile(relPath, documented); err != nil {
			return fail(err)
		}
		finalContent = documented
		wroteBack = true
	}

	artifact := &models.DocumentationArtifact{
		Path:         relPath,
		Content:      documented,
		Summary:      summary,
		LastUpdated:  o.now(),
		Hash:         code_analyzer.HashContent(finalContent),
		FileType:     string(request.FileType),
		GenerationID: generationID,
	}

	previous, hadPrevious := o.opts.Docs.Get(relPath)
	if hadPrevious && previous.Content != documented {
		result.Diff = unifiedDiff(relPath, previous.Content, documented)
	}

	undo := commitUndo{path: relPath, previous: previous, source: content, wroteBack: wroteBack}
	o.opts.Docs.Put(relPath, artifact)
	if err := o.opts.Docs.Persist(); err != nil {
		o.rollback(undo)
		return fail(err)
	}
	undo.persisted = true
	if err := o.opts.Snapshots.UpdateHashes([]string{relPath}); err != nil {
		o.rollback(undo)
		return fail(err)
	}

	result.Status = StatusGenerated
	result.Artifact = artifact
	return result
}

// commitUndo is what rollback needs to restore the state before a file was committed.
type commitUndo struct {
	path      string
	previous  *models.DocumentationArtifact
	source    string
	wroteBack bool
	persisted bool
}

// rollback restores the previous artifact (or removes the new one) and the
// original source content after a failed commit. Errors are logged, not returned.
func (o *Orchestrator) rollback(undo commitUndo) {
	if undo.previous != nil {
		o.opts.Docs.Put(undo.path, undo.previous)
	} else {
		o.opts.Docs.Delete(undo.path)
	}
	if undo.persisted {
		if err := o.opts.Docs.Persist(); err != nil {
			o.log.Warn("failed to roll back documentation store", o.log.Args("path", undo.path, "error", err))
		}
	}
	if undo.wroteBack {
		if err := o.writeFile(undo.path, undo.source); err != nil {
			o.log.Warn("failed to restore source file", o.log.Args("path", undo.path, "error", err))
		}
	}
}

func (o *Orchestrator) loadSnapshot() (*models.Snapshot, error) {
	snapshot, err := o.opts.Snapshots.Load()
	if errors.Is(err, code_analyzer.ErrNotFound) {
		return nil, nil
	}
	return snapshot, err
}

func (o *Orchestrator) ensureDocsLoaded() error {
	if o.docsLoaded {
		return nil
	}
	if _, err := o.opts.Docs.Load(); err != nil && !errors.Is(err, code_analyzer.ErrNotFound) {
		return err
	}
	o.docsLoaded = true
	return nil
}

func (o *Orchestrator) absPath(relPath string) string {
	if filepath.IsAbs(relPath) {
		return relPath
	}
	return filepath.Join(o.opts.WorkspaceRoot, filepath.FromSlash(relPath))
}

func (o *Orchestrator) readFile(relPath string) (string, error) {
	data, err := os.ReadFile(o.absPath(relPath))
	if err != nil {
		return "", &code_analyzer.IOError{Op: "read", Path: relPath, Err: err}
	}
	return string(data), nil
}

func (o *Orchestrator) writeFile(relPath, content string) error {
	path := o.absPath(relPath)
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		return &code_analyzer.IOError{Op: "write", Path: relPath, Err: err}
	}
	return nil
}

func unifiedDiff(path, before, after string) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  3,
	})
	if err != nil {
		return fmt.Sprintf("diff unavailable: %v", err)
	}
	return diff
}

func newGenerationID() string {
	return ulid.Make().String()
}
