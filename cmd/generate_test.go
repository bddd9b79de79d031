package cmd

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/meysamhadeli/codoc/code_analyzer"
	"github.com/meysamhadeli/codoc/code_analyzer/models"
	"github.com/meysamhadeli/codoc/config"
	"github.com/meysamhadeli/codoc/token_management"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGenerator documents every file except the ones listed in failing.
type stubGenerator struct {
	mutex   sync.Mutex
	calls   []string
	failing map[string]bool
}

func (g *stubGenerator) Generate(_ context.Context, _ string, prompt string) (string, error) {
	const marker = "## File: "
	rest := prompt[strings.Index(prompt, marker)+len(marker):]
	path := rest[:strings.Index(rest, "\n")]

	g.mutex.Lock()
	g.calls = append(g.calls, path)
	g.mutex.Unlock()

	if g.failing[path] {
		return "", errors.New("model unavailable")
	}
	return "```\n// Documented " + path + ".\nconst x = 1;\n```\nSummary: Documents " + path + ".", nil
}

func (g *stubGenerator) callCount() int {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return len(g.calls)
}

func newTestDependencies(t *testing.T, generator *stubGenerator) *RootDependencies {
	t.Helper()
	root := t.TempDir()
	cfg := config.DefaultConfig

	analyzer, err := code_analyzer.NewCodeAnalyzer(root, cfg.Extensions, cfg.MaxFileSize)
	require.NoError(t, err)

	return &RootDependencies{
		Cwd:             root,
		Config:          &cfg,
		Logger:          pterm.DefaultLogger.WithWriter(io.Discard),
		Analyzer:        analyzer,
		Snapshots:       code_analyzer.NewSnapshotStore(root, cfg.StateDir),
		Docs:            code_analyzer.NewDocCache(root, cfg.StateDir),
		TokenManagement: token_management.NewTokenManager(),
		Generator:       generator,
	}
}

func writeFile(t *testing.T, root, relPath, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func storedPaths(t *testing.T, root string) []string {
	t.Helper()
	docs := code_analyzer.NewDocCache(root, ".codoc")
	_, err := docs.Load()
	require.NoError(t, err)
	return docs.Paths()
}

func TestHandleGenerateCommand_FirstRunThenUnchanged(t *testing.T) {
	generator := &stubGenerator{}
	deps := newTestDependencies(t, generator)
	writeFile(t, deps.Cwd, "src/app.ts", "export const app = 1;")
	writeFile(t, deps.Cwd, "tools/run.py", "print('run')")
	writeFile(t, deps.Cwd, "README.md", "# readme")

	require.NoError(t, handleGenerateCommand(context.Background(), deps, nil, generateOptions{}))

	assert.Equal(t, []string{"src/app.ts", "tools/run.py"}, storedPaths(t, deps.Cwd))
	snapshot, err := deps.Snapshots.Load()
	require.NoError(t, err)
	assert.Contains(t, snapshot.Files, "src/app.ts")
	assert.Contains(t, snapshot.Files, "tools/run.py")
	assert.NotNil(t, snapshot.Tree.Find("src/app.ts"))

	_, err = os.Stat(filepath.Join(deps.Cwd, ".codoc", "lock"))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, handleGenerateCommand(context.Background(), deps, nil, generateOptions{all: true}))
	assert.Equal(t, 2, generator.callCount())
}

func TestHandleGenerateCommand_PerFileFailureIsNotAnError(t *testing.T) {
	generator := &stubGenerator{failing: map[string]bool{"b.ts": true}}
	deps := newTestDependencies(t, generator)
	writeFile(t, deps.Cwd, "a.ts", "const a = 1;")
	writeFile(t, deps.Cwd, "b.ts", "const b = 2;")

	err := handleGenerateCommand(context.Background(), deps, nil, generateOptions{})

	require.NoError(t, err)
	assert.Equal(t, []string{"a.ts"}, storedPaths(t, deps.Cwd))
}

func TestHandleGenerateCommand_CorruptStoreAbortsBatch(t *testing.T) {
	generator := &stubGenerator{}
	deps := newTestDependencies(t, generator)
	writeFile(t, deps.Cwd, "a.ts", "const a = 1;")
	writeFile(t, deps.Cwd, ".codoc/docs.json", "{broken")

	err := handleGenerateCommand(context.Background(), deps, nil, generateOptions{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, code_analyzer.ErrCorruptDocumentation))
	assert.Equal(t, 0, generator.callCount())
	_, statErr := os.Stat(filepath.Join(deps.Cwd, ".codoc", "lock"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestHandleGenerateCommand_LockedWorkspace(t *testing.T) {
	generator := &stubGenerator{}
	deps := newTestDependencies(t, generator)
	writeFile(t, deps.Cwd, "a.ts", "const a = 1;")

	lock, err := code_analyzer.AcquireLock(deps.Cwd, deps.Config.StateDir)
	require.NoError(t, err)
	defer lock.Release()

	err = handleGenerateCommand(context.Background(), deps, nil, generateOptions{})

	assert.True(t, errors.Is(err, code_analyzer.ErrLocked))
	assert.Equal(t, 0, generator.callCount())
}

func TestHandleGenerateCommand_DryRun(t *testing.T) {
	generator := &stubGenerator{}
	deps := newTestDependencies(t, generator)
	writeFile(t, deps.Cwd, "a.ts", "const a = 1;")

	require.NoError(t, handleGenerateCommand(context.Background(), deps, nil, generateOptions{dryRun: true}))

	assert.Equal(t, 0, generator.callCount())
	_, err := os.Stat(filepath.Join(deps.Cwd, ".codoc"))
	assert.True(t, os.IsNotExist(err))
}

func TestResolveTargets_Arguments(t *testing.T) {
	deps := newTestDependencies(t, &stubGenerator{})
	writeFile(t, deps.Cwd, "src/a.ts", "const a = 1;")
	writeFile(t, deps.Cwd, "src/nested/b.ts", "const b = 2;")
	writeFile(t, deps.Cwd, "tools/c.py", "print(3)")

	paths, err := resolveTargets(context.Background(), deps, []string{"src", filepath.Join(deps.Cwd, "tools", "c.py"), "gone.ts"}, false)

	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.ts", "src/nested/b.ts", "tools/c.py", "gone.ts"}, paths)
}

func TestResolveTargets_FullScanWithoutSnapshot(t *testing.T) {
	deps := newTestDependencies(t, &stubGenerator{})
	writeFile(t, deps.Cwd, "b.ts", "const b = 2;")
	writeFile(t, deps.Cwd, "a.py", "print(1)")
	writeFile(t, deps.Cwd, "node_modules/dep/index.js", "module.exports = {};")

	paths, err := resolveTargets(context.Background(), deps, nil, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.py", "b.ts"}, paths)

	require.NoError(t, deps.Snapshots.UpdateHashes([]string{"a.py", "b.ts"}))
	paths, err = resolveTargets(context.Background(), deps, nil, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.py", "b.ts"}, paths)
}

func TestResolveTargets_GitChangesAndPendingFiles(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}
	deps := newTestDependencies(t, &stubGenerator{})
	git := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", append([]string{"-c", "user.name=codoc", "-c", "user.email=codoc@example.com", "-c", "commit.gpgsign=false"}, args...)...)
		cmd.Dir = deps.Cwd
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}

	writeFile(t, deps.Cwd, "src/a.ts", "const a = 1;")
	writeFile(t, deps.Cwd, "b.py", "print(1)")
	writeFile(t, deps.Cwd, "d.ts", "const d = 4;")
	git("init", "-q")
	git("add", ".")
	git("commit", "-q", "-m", "init")
	require.NoError(t, deps.Snapshots.UpdateHashes([]string{"src/a.ts", "b.py"}))

	writeFile(t, deps.Cwd, "src/a.ts", "const a = 10;")
	writeFile(t, deps.Cwd, "c.ts", "const c = 3;")

	paths, err := resolveTargets(context.Background(), deps, nil, false)

	require.NoError(t, err)
	assert.Equal(t, []string{"c.ts", "src/a.ts", "d.ts"}, paths)
}

func TestBehindSnapshot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", "const a = 1;")
	writeFile(t, root, "b.ts", "const b = 2;")
	writeFile(t, root, "c.ts", "const c = 3;")

	snapshot := models.NewSnapshot(code_analyzer.SnapshotVersion, root)
	later := time.Now().Add(time.Hour)
	snapshot.Files["a.ts"] = &models.FileRecord{Path: "a.ts", Size: int64(len("const a = 1;")), UpdatedAt: later}
	snapshot.Files["b.ts"] = &models.FileRecord{Path: "b.ts", Size: int64(len("const b = 2;")), UpdatedAt: time.Now().Add(-time.Hour)}

	assert.False(t, behindSnapshot(root, "a.ts", snapshot))
	assert.True(t, behindSnapshot(root, "b.ts", snapshot))
	assert.True(t, behindSnapshot(root, "c.ts", snapshot))
}

func TestHandleRootCommand_Path(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, rootCmd.ParseFlags([]string{"--path", root}))
	t.Cleanup(func() { _ = rootCmd.ParseFlags([]string{"--path", "."}) })

	deps, err := handleRootCommand(rootCmd)

	require.NoError(t, err)
	assert.Equal(t, root, deps.Cwd)
	assert.Equal(t, ".codoc", deps.Config.StateDir)
	assert.Nil(t, deps.Generator)

	require.NoError(t, rootCmd.ParseFlags([]string{"--path", filepath.Join(root, "missing")}))
	_, err = handleRootCommand(rootCmd)
	assert.Error(t, err)
}
