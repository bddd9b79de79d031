package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/meysamhadeli/codoc/code_analyzer"
	"github.com/meysamhadeli/codoc/constants/lipgloss"
	"github.com/meysamhadeli/codoc/utils"
	"github.com/spf13/cobra"
)

// statusCmd: codoc status
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which files are new, modified or unchanged since the last documentation run.",
	Long: `The 'status' subcommand compares every candidate file of the workspace against the
stored snapshot and lists the files that would be documented by 'generate --all'.
No AI provider is contacted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}

		orchestrator, err := rootDependencies.newOrchestrator(false)
		if err != nil {
			return err
		}

		paths, err := rootDependencies.Analyzer.ListFiles(cmd.Context())
		if err != nil {
			return err
		}
		entries, err := orchestrator.Plan(paths)
		if err != nil {
			return err
		}

		header := fmt.Sprintf("Workspace %s", rootDependencies.Cwd)
		git := utils.NewGitOperations(rootDependencies.Cwd)
		if branch, err := git.GetBranchName(cmd.Context()); err == nil {
			header += fmt.Sprintf(" (branch %s)", branch)
		}
		fmt.Println(lipgloss.Title.Render(header))
		printPlan(entries, verbose)
		printDeletedRecords(rootDependencies)
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolP("verbose", "V", false, "Also list unchanged files.")
	rootCmd.AddCommand(statusCmd)
}

// printDeletedRecords lists tracked files that no longer exist on disk.
func printDeletedRecords(rootDependencies *RootDependencies) {
	snapshot, err := rootDependencies.Snapshots.Load()
	if err != nil {
		if !errors.Is(err, code_analyzer.ErrNotFound) {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		}
		return
	}

	for _, p := range snapshot.Tree.FilePaths() {
		if _, tracked := snapshot.Files[p]; !tracked {
			continue
		}
		if _, err := os.Stat(filepath.Join(rootDependencies.Cwd, filepath.FromSlash(p))); os.IsNotExist(err) {
			fmt.Println(lipgloss.Gray.Render(fmt.Sprintf("  deleted    %s", p)))
		}
	}
}
