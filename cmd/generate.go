package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/meysamhadeli/codoc/code_analyzer"
	"github.com/meysamhadeli/codoc/code_analyzer/models"
	"github.com/meysamhadeli/codoc/constants/lipgloss"
	"github.com/meysamhadeli/codoc/doc_generator"
	"github.com/meysamhadeli/codoc/utils"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type generateOptions struct {
	all    bool
	diff   bool
	dryRun bool
}

// generateCmd: codoc generate
var generateCmd = &cobra.Command{
	Use:   "generate [paths...]",
	Short: "Generate documentation for new and changed files.",
	Long: `The 'generate' subcommand documents every file that is new or whose content changed
since the last successful run. Without arguments it uses the files reported as changed by git together with files that
are untracked by codoc or modified since their last successful run (for example after a
failed generation). It scans the whole workspace when git is unavailable or nothing has
been documented yet. Unchanged files are skipped without contacting the AI provider.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts generateOptions
		opts.all, _ = cmd.Flags().GetBool("all")
		opts.diff, _ = cmd.Flags().GetBool("diff")
		opts.dryRun, _ = cmd.Flags().GetBool("dry-run")

		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		return handleGenerateCommand(ctx, rootDependencies, args, opts)
	},
}

func init() {
	generateCmd.Flags().BoolP("all", "a", false, "Consider every file in the workspace instead of only git changes.")
	generateCmd.Flags().Bool("diff", false, "Print a unified diff between the previous and the new documentation.")
	generateCmd.Flags().Bool("dry-run", false, "Only report which files would be documented.")

	rootCmd.AddCommand(generateCmd)
}

func handleGenerateCommand(ctx context.Context, rootDependencies *RootDependencies, args []string, opts generateOptions) error {
	orchestrator, err := rootDependencies.newOrchestrator(!opts.dryRun)
	if err != nil {
		return err
	}

	paths, err := resolveTargets(ctx, rootDependencies, args, opts.all)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Println(lipgloss.Yellow.Render("No files to document."))
		return nil
	}

	if opts.dryRun {
		entries, err := orchestrator.Plan(paths)
		if err != nil {
			return err
		}
		printPlan(entries, false)
		return nil
	}

	lock, err := code_analyzer.AcquireLock(rootDependencies.Cwd, rootDependencies.Config.StateDir)
	if err != nil {
		return err
	}
	defer releaseLock(rootDependencies.Logger, lock)

	if err := refreshTree(ctx, rootDependencies); err != nil {
		return err
	}

	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgLightBlue)).
		WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").
		WithDelay(100).WithRemoveWhenDone(true)
	spinnerGenerate, _ := spinner.Start(fmt.Sprintf("Documenting %d file(s)...", len(paths)))

	summary, batchErr := orchestrator.ProcessBatch(ctx, paths)

	spinnerGenerate.Stop()
	fmt.Print("\r")

	printBatchSummary(rootDependencies, summary, opts.diff)
	rootDependencies.TokenManagement.DisplayTokens(rootDependencies.Config.AIProviderConfig.Provider, rootDependencies.Config.AIProviderConfig.Model)

	if batchErr != nil {
		return fmt.Errorf("documentation batch aborted: %w", batchErr)
	}
	return nil
}

// resolveTargets picks the files to consider: explicit arguments first, then
// git changes plus files the snapshot has not caught up with, then a full scan.
func resolveTargets(ctx context.Context, rootDependencies *RootDependencies, args []string, all bool) ([]string, error) {
	analyzer := rootDependencies.Analyzer

	if len(args) > 0 {
		return expandArgs(ctx, rootDependencies, args)
	}
	if all {
		return analyzer.ListFiles(ctx)
	}

	snapshot, err := rootDependencies.Snapshots.Load()
	if errors.Is(err, code_analyzer.ErrNotFound) {
		rootDependencies.Logger.Debug("no snapshot yet, scanning the whole workspace")
		return analyzer.ListFiles(ctx)
	} else if err != nil {
		return nil, err
	}

	git := utils.NewGitOperations(rootDependencies.Cwd)
	if err := git.CheckGitRepo(ctx); err != nil {
		rootDependencies.Logger.Debug("git unavailable, scanning the whole workspace", rootDependencies.Logger.Args("reason", err))
		return analyzer.ListFiles(ctx)
	}

	changed, err := git.ListChangedFiles(ctx)
	if err != nil {
		rootDependencies.Logger.Warn("could not list git changes, scanning the whole workspace", rootDependencies.Logger.Args("error", err))
		return analyzer.ListFiles(ctx)
	}

	candidates, err := analyzer.ListFiles(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var paths []string
	for _, p := range changed {
		if seen[p] || !analyzer.IsCandidate(p) {
			continue
		}
		if info, err := os.Stat(filepath.Join(rootDependencies.Cwd, filepath.FromSlash(p))); err != nil || !info.Mode().IsRegular() {
			continue
		}
		seen[p] = true
		paths = append(paths, p)
	}
	for _, p := range candidates {
		if !seen[p] && behindSnapshot(rootDependencies.Cwd, p, snapshot) {
			seen[p] = true
			paths = append(paths, p)
		}
	}
	return paths, nil
}

// behindSnapshot reports files that are untracked or were touched after their
// record was committed, such as files whose last generation failed.
func behindSnapshot(root, relPath string, snapshot *models.Snapshot) bool {
	record, ok := snapshot.Files[relPath]
	if !ok {
		return true
	}
	info, err := os.Stat(filepath.Join(root, filepath.FromSlash(relPath)))
	if err != nil {
		return false
	}
	return info.Size() != record.Size || info.ModTime().After(record.UpdatedAt)
}

// expandArgs turns file and directory arguments into workspace-relative file paths.
func expandArgs(ctx context.Context, rootDependencies *RootDependencies, args []string) ([]string, error) {
	var files []string
	var candidates []string

	for _, arg := range args {
		abs := arg
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(rootDependencies.Cwd, arg)
		}
		relPath := code_analyzer.RelativePath(rootDependencies.Cwd, abs)

		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			// missing files are reported per file by the orchestrator
			files = append(files, relPath)
			continue
		}

		if candidates == nil {
			if candidates, err = rootDependencies.Analyzer.ListFiles(ctx); err != nil {
				return nil, err
			}
		}
		for _, p := range candidates {
			if relPath == "." || strings.HasPrefix(p, relPath+"/") {
				files = append(files, p)
			}
		}
	}
	return files, nil
}

// refreshTree stores the current workspace structure with symbol outlines.
func refreshTree(ctx context.Context, rootDependencies *RootDependencies) error {
	_, tree, err := rootDependencies.Analyzer.ScanWorkspace(ctx)
	if err != nil {
		return fmt.Errorf("failed to scan workspace: %w", err)
	}
	return rootDependencies.Snapshots.SaveTree(tree)
}

func releaseLock(logger *pterm.Logger, lock *code_analyzer.WorkspaceLock) {
	if err := lock.Release(); err != nil {
		logger.Warn("failed to release workspace lock", logger.Args("error", err))
	}
}

func printBatchSummary(rootDependencies *RootDependencies, summary doc_generator.BatchSummary, showDiff bool) {
	for _, result := range summary.Results {
		switch result.Status {
		case doc_generator.StatusGenerated:
			fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✔ %s (%s, %s)", result.Path, result.FileType, result.Change)))
			if showDiff && result.Diff != "" {
				if err := utils.RenderCode(os.Stdout, result.Diff, "diff", rootDependencies.Config.Theme); err != nil {
					fmt.Println(result.Diff)
				}
			}
		case doc_generator.StatusFailed:
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("✘ %s: %v", result.Path, result.Err)))
		}
	}

	counts := fmt.Sprintf("Generation %s\nGenerated: %d\nSkipped:   %d\nFailed:    %d",
		summary.GenerationID, summary.Generated, summary.Skipped, summary.Failed)
	fmt.Println(lipgloss.BoxStyle.Render(counts))
}

func printPlan(entries []doc_generator.PlanEntry, showUnchanged bool) {
	counts := make(map[code_analyzer.ChangeKind]int)
	failed := 0

	for _, entry := range entries {
		if entry.Err != nil {
			failed++
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("  error      %s: %v", entry.Path, entry.Err)))
			continue
		}
		counts[entry.Change]++
		switch entry.Change {
		case code_analyzer.ChangeNew:
			fmt.Println(lipgloss.Green.Render(fmt.Sprintf("  new        %s", entry.Path)))
		case code_analyzer.ChangeModified:
			fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("  modified   %s", entry.Path)))
		default:
			if showUnchanged {
				fmt.Println(lipgloss.Gray.Render(fmt.Sprintf("  unchanged  %s", entry.Path)))
			}
		}
	}

	fmt.Println(lipgloss.BoxStyle.Render(fmt.Sprintf("New:       %d\nModified:  %d\nUnchanged: %d\nErrors:    %d",
		counts[code_analyzer.ChangeNew], counts[code_analyzer.ChangeModified], counts[code_analyzer.ChangeUnchanged], failed)))
}
