package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/meysamhadeli/codoc/code_analyzer"
	"github.com/meysamhadeli/codoc/config"
	"github.com/meysamhadeli/codoc/constants/lipgloss"
	"github.com/meysamhadeli/codoc/doc_generator"
	"github.com/meysamhadeli/codoc/providers"
	"github.com/meysamhadeli/codoc/token_management"
	contracts_token "github.com/meysamhadeli/codoc/token_management/contracts"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// RootDependencies holds everything a subcommand needs, built once per invocation.
// A non-nil Generator replaces the configured AI provider.
type RootDependencies struct {
	Cwd             string
	Config          *config.Config
	Logger          *pterm.Logger
	Analyzer        *code_analyzer.CodeAnalyzer
	Snapshots       *code_analyzer.SnapshotStore
	Docs            *code_analyzer.DocCache
	TokenManagement contracts_token.ITokenManagement
	Generator       doc_generator.TextGenerator
}

var rootCmd = &cobra.Command{
	Use:   "codoc",
	Short: "codoc keeps AI-generated documentation in sync with your source files.",
	Long: `codoc tracks a content hash of every source file in the workspace and regenerates
documentation only for files that are new or changed since the last run.
Running codoc without a subcommand opens the interactive documentation browser.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion, _ := cmd.Flags().GetBool("version"); showVersion {
			fmt.Println(lipgloss.BlueSky.Render(fmt.Sprintf("version: %s", config.DefaultConfig.Version)))
			return nil
		}
		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}
		return handleBrowseCommand(cmd.Context(), rootDependencies)
	},
}

// Execute runs the root command and exits with status 1 on any error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}
}

func init() {
	config.InitFlags(rootCmd)
}

// handleRootCommand resolves the workspace, loads configuration and builds the stores.
func handleRootCommand(cmd *cobra.Command) (*RootDependencies, error) {
	path, _ := cmd.Flags().GetString("path")
	cwd, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace path '%s': %w", path, err)
	}
	info, err := os.Stat(cwd)
	if err != nil {
		return nil, fmt.Errorf("workspace '%s' is not accessible: %w", cwd, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace '%s' is not a directory", cwd)
	}

	cfg, err := config.LoadConfigs(cmd.Root(), cwd)
	if err != nil {
		return nil, err
	}

	analyzer, err := code_analyzer.NewCodeAnalyzer(cwd, cfg.Extensions, cfg.MaxFileSize)
	if err != nil {
		return nil, err
	}

	return &RootDependencies{
		Cwd:             cwd,
		Config:          cfg,
		Logger:          newLogger(cfg.LogLevel),
		Analyzer:        analyzer,
		Snapshots:       code_analyzer.NewSnapshotStore(cwd, cfg.StateDir),
		Docs:            code_analyzer.NewDocCache(cwd, cfg.StateDir),
		TokenManagement: token_management.NewTokenManager(),
	}, nil
}

// newOrchestrator builds an orchestrator. With withProvider the configured chat
// provider is created, and a missing API key is reported as an error.
func (d *RootDependencies) newOrchestrator(withProvider bool) (*doc_generator.Orchestrator, error) {
	generator := d.Generator
	if withProvider && generator == nil {
		provider, err := providers.ChatProviderFactory(d.Config.AIProviderConfig, d.TokenManagement)
		if err != nil {
			return nil, err
		}
		generator = providers.NewChatGenerator(provider)
	}

	return doc_generator.NewOrchestrator(doc_generator.Options{
		WorkspaceRoot: d.Cwd,
		Model:         d.Config.AIProviderConfig.Model,
		Generator:     generator,
		Snapshots:     d.Snapshots,
		Docs:          d.Docs,
		Logger:        d.Logger,
		WriteBack:     d.Config.WriteBack,
	})
}

func newLogger(level string) *pterm.Logger {
	logLevel := pterm.LogLevelInfo
	switch strings.ToLower(level) {
	case "debug":
		logLevel = pterm.LogLevelDebug
	case "warn":
		logLevel = pterm.LogLevelWarn
	case "error":
		logLevel = pterm.LogLevelError
	}
	return pterm.DefaultLogger.WithLevel(logLevel).WithWriter(os.Stderr)
}
