package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/meysamhadeli/codoc/code_analyzer"
	"github.com/meysamhadeli/codoc/constants/lipgloss"
	"github.com/meysamhadeli/codoc/utils"
	"github.com/spf13/cobra"
)

// watchCmd: codoc watch
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate documentation whenever a source file changes.",
	Long: `The 'watch' subcommand keeps running and documents files as soon as they are created
or saved. Bursts of changes are collected and processed one file at a time.
Press Ctrl+C to stop.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		debounce, _ := cmd.Flags().GetDuration("debounce")
		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		return handleWatchCommand(ctx, rootDependencies, debounce)
	},
}

func init() {
	watchCmd.Flags().Duration("debounce", utils.DefaultDebounce, "Quiet period before a batch of changes is processed.")
	rootCmd.AddCommand(watchCmd)
}

func handleWatchCommand(ctx context.Context, rootDependencies *RootDependencies, debounce time.Duration) error {
	orchestrator, err := rootDependencies.newOrchestrator(true)
	if err != nil {
		return err
	}

	lock, err := code_analyzer.AcquireLock(rootDependencies.Cwd, rootDependencies.Config.StateDir)
	if err != nil {
		return err
	}
	defer releaseLock(rootDependencies.Logger, lock)

	if err := refreshTree(ctx, rootDependencies); err != nil {
		return err
	}

	analyzer := rootDependencies.Analyzer
	watcher, err := utils.NewFileWatcher(rootDependencies.Cwd, debounce, analyzer.IsIgnoredDir, analyzer.IsCandidate)
	if err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	defer watcher.Stop()

	logger := rootDependencies.Logger
	batches, err := watcher.Watch(ctx, func(err error) {
		logger.Warn("file watcher error", logger.Args("error", err))
	})
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", rootDependencies.Cwd, err)
	}

	fmt.Println(lipgloss.BoxStyle.Render(fmt.Sprintf("Watching %s\nPress Ctrl+C to stop.", rootDependencies.Cwd)))

	for batch := range batches {
		summary, err := orchestrator.ProcessBatch(ctx, batch)
		if summary.Generated > 0 || summary.Failed > 0 {
			printBatchSummary(rootDependencies, summary, false)
		}
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			return fmt.Errorf("documentation batch aborted: %w", err)
		}
	}

	fmt.Println(lipgloss.Yellow.Render("\n🔄 Exiting..."))
	rootDependencies.TokenManagement.DisplayTokens(rootDependencies.Config.AIProviderConfig.Provider, rootDependencies.Config.AIProviderConfig.Model)
	return nil
}
