package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"github.com/meysamhadeli/codoc/code_analyzer"
	"github.com/meysamhadeli/codoc/constants/lipgloss"
	"github.com/meysamhadeli/codoc/utils"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// resetCacheCmd represents the reset-cache command
var resetCacheCmd = &cobra.Command{
	Use:   "reset-cache",
	Short: "Remove the stored snapshot and documentation of the workspace",
	Long: `The 'reset-cache' command removes the snapshot and the documentation store kept in the
workspace state directory. The next 'generate' run documents every file again.
Use this command to recover from a corrupt store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		stats, _ := cmd.Flags().GetBool("stats")

		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}
		return handleResetCacheCommand(rootDependencies, force, stats)
	},
}

func init() {
	resetCacheCmd.Flags().BoolP("force", "f", false, "Force cache reset without confirmation")
	resetCacheCmd.Flags().BoolP("stats", "s", false, "Show cache statistics instead of resetting")

	rootCmd.AddCommand(resetCacheCmd)
}

func handleResetCacheCommand(rootDependencies *RootDependencies, force bool, showStats bool) error {
	if showStats {
		printCacheStats(rootDependencies)
		return nil
	}

	if !force {
		confirmed, err := utils.ConfirmPrompt("Are you sure you want to reset the documentation cache?", bufio.NewReader(os.Stdin))
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println(lipgloss.Yellow.Render("Cache reset cancelled."))
			return nil
		}
	}

	lock, err := code_analyzer.AcquireLock(rootDependencies.Cwd, rootDependencies.Config.StateDir)
	if err != nil {
		return err
	}
	defer releaseLock(rootDependencies.Logger, lock)

	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgCyan)).
		WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").
		WithDelay(100).WithRemoveWhenDone(true)
	spinnerInstance, _ := spinner.Start("Resetting documentation cache...")

	err = errors.Join(rootDependencies.Snapshots.Clear(), rootDependencies.Docs.Clear())

	spinnerInstance.Stop()
	fmt.Print("\r")
	if err != nil {
		return fmt.Errorf("error resetting cache: %w", err)
	}

	fmt.Println(lipgloss.Green.Render("✓ Documentation cache has been successfully reset!"))
	return nil
}

func printCacheStats(rootDependencies *RootDependencies) {
	fmt.Println(lipgloss.Info.Render("Cache Statistics:"))
	fmt.Printf("  State Directory: %s\n", rootDependencies.Config.StateDir)

	snapshot, err := rootDependencies.Snapshots.Load()
	switch {
	case errors.Is(err, code_analyzer.ErrNotFound):
		fmt.Println("  Snapshot: none")
	case err != nil:
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("  Snapshot: %v", err)))
	default:
		fmt.Printf("  Tracked Files: %d\n", len(snapshot.Files))
		fmt.Printf("  Snapshot Updated: %s\n", snapshot.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	}

	docs := rootDependencies.Docs
	if _, err := docs.Load(); err != nil && !errors.Is(err, code_analyzer.ErrNotFound) {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("  Documentation: %v", err)))
		return
	}
	fmt.Printf("  Documented Files: %d\n", docs.Len())
	if info, err := os.Stat(docs.Path()); err == nil {
		fmt.Printf("  Store Size: %.2f KB\n", float64(info.Size())/1024)
	}
}
