package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/meysamhadeli/codoc/code_analyzer"
	"github.com/meysamhadeli/codoc/code_analyzer/models"
	"github.com/meysamhadeli/codoc/constants/lipgloss"
	"github.com/meysamhadeli/codoc/embed_data"
	"github.com/meysamhadeli/codoc/utils"
	"github.com/pterm/pterm"
)

const browseHelp = "/tree  Show the project tree\n/show <path>  Show the documentation of a file\n/chat <question>  Ask about the codebase\n/clear  Clear screen\n/help  Show this help\n/exit  Exit from codoc"

// maxChatMatches limits how many cached summaries answer a chat question
const maxChatMatches = 5

// browser is the read-only interactive view over the snapshot and documentation stores.
type browser struct {
	deps     *RootDependencies
	snapshot *models.Snapshot
}

func handleBrowseCommand(parent context.Context, rootDependencies *RootDependencies) error {
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	b := &browser{deps: rootDependencies}
	if err := b.load(ctx); err != nil {
		return err
	}

	fmt.Println(lipgloss.BoxStyle.Render("/help  Help for the documentation browser"))
	reader := bufio.NewReader(os.Stdin)
	defer b.logStats()

	for {
		userInput, err := utils.InputPromptWithContext(ctx, reader)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, utils.ErrInputClosed) {
				fmt.Println(lipgloss.Yellow.Render("\n🔄 Exiting..."))
				return nil
			}
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
			continue
		}
		if userInput == "" {
			continue
		}
		if exit := b.dispatch(userInput); exit {
			return nil
		}
	}
}

func (b *browser) logStats() {
	stats := b.deps.Docs.GetPerformanceStats()
	b.deps.Logger.Debug("documentation lookups", b.deps.Logger.Args(
		"requests", stats.TotalRequests,
		"hits", stats.CacheHits,
		"misses", stats.CacheMisses,
		"hit_rate", fmt.Sprintf("%.1f%%", stats.HitRate),
		"session", stats.Uptime.Round(time.Second).String(),
	))
}

func (b *browser) load(ctx context.Context) error {
	snapshot, err := b.deps.Snapshots.Load()
	switch {
	case errors.Is(err, code_analyzer.ErrNotFound):
		fmt.Println(lipgloss.Yellow.Render("No documentation yet. Run 'codoc generate' to create it."))
		_, tree, scanErr := b.deps.Analyzer.ScanWorkspace(ctx)
		if scanErr != nil {
			return scanErr
		}
		snapshot = models.NewSnapshot(code_analyzer.SnapshotVersion, b.deps.Cwd)
		snapshot.Tree = tree
	case err != nil:
		return err
	}
	b.snapshot = snapshot

	if _, err := b.deps.Docs.Load(); err != nil && !errors.Is(err, code_analyzer.ErrNotFound) {
		return err
	}
	return nil
}

// dispatch runs one browser command and reports whether the browser should exit.
func (b *browser) dispatch(input string) bool {
	command, argument, _ := strings.Cut(input, " ")
	argument = strings.TrimSpace(argument)

	switch command {
	case "/help":
		fmt.Println(lipgloss.BoxStyle.Render(browseHelp))
	case "/clear":
		fmt.Print("\033[2J\033[H")
	case "/exit":
		return true
	case "/tree":
		if err := pterm.DefaultTree.WithRoot(b.treeView()).Render(); err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		}
	case "/show":
		if argument == "" {
			fmt.Println(lipgloss.Yellow.Render("Usage: /show <path>"))
			return false
		}
		b.show(argument)
	case "/chat":
		if argument == "" {
			fmt.Println(lipgloss.Yellow.Render("Usage: /chat <question>"))
			return false
		}
		b.chat(argument)
	default:
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Unknown command '%s', type /help for the list of commands.", command)))
	}
	return false
}

func (b *browser) treeView() pterm.TreeNode {
	documented := make(map[string]bool)
	for _, p := range b.deps.Docs.Paths() {
		documented[p] = true
	}
	return buildTreeView(b.snapshot.Tree, documented)
}

// buildTreeView converts the snapshot tree into a pterm tree, marking documented files.
func buildTreeView(node *models.TreeNode, documented map[string]bool) pterm.TreeNode {
	if node == nil {
		return pterm.TreeNode{Text: "."}
	}

	text := node.Name
	if node.Type == models.NodeFile {
		if documented[node.Path] {
			text = lipgloss.Green.Render(text + " ✔")
		} else {
			text = lipgloss.Gray.Render(text)
		}
	} else {
		text = lipgloss.BlueSky.Render(text + "/")
	}

	view := pterm.TreeNode{Text: text}
	for _, child := range node.Children {
		view.Children = append(view.Children, buildTreeView(child, documented))
	}
	return view
}

func (b *browser) show(path string) {
	artifact, ok := lookupArtifact(b.deps.Docs, b.deps.Cwd, path)
	if !ok {
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("No documentation for '%s'.", path)))
		return
	}

	header := fmt.Sprintf("%s (%s)\nUpdated: %s", artifact.Path, artifact.FileType, artifact.LastUpdated.Local().Format("2006-01-02 15:04:05"))
	if current, err := os.ReadFile(filepath.Join(b.deps.Cwd, filepath.FromSlash(artifact.Path))); err == nil {
		if code_analyzer.IsStale(artifact.Path, string(current), b.snapshot) {
			header += "\n" + lipgloss.Yellow.Render("Source changed since this documentation was generated.")
		}
	}
	fmt.Println(lipgloss.BoxStyle.Render(header))

	if artifact.Summary != "" {
		if err := utils.RenderMarkdown(os.Stdout, artifact.Summary, b.deps.Config.Theme); err != nil {
			fmt.Println(artifact.Summary)
		}
		fmt.Println()
	}
	if err := utils.RenderCode(os.Stdout, artifact.Content, utils.DetectLanguageFromPath(artifact.Path), b.deps.Config.Theme); err != nil {
		fmt.Println(artifact.Content)
	}
}

func (b *browser) chat(question string) {
	fmt.Println(lipgloss.Info.Render(strings.TrimSpace(string(embed_data.ChatStubMessage))))

	matches := searchSummaries(b.deps.Docs, question, maxChatMatches)
	if len(matches) == 0 {
		fmt.Println(lipgloss.Gray.Render("No cached summary mentions that."))
		return
	}
	for _, artifact := range matches {
		fmt.Println(lipgloss.BlueSky.Render(artifact.Path))
		fmt.Println("  " + artifact.Summary)
	}
}

// lookupArtifact finds documentation by exact path first, then by a path
// suffix on a segment boundary, taking the first documented path in sorted order.
func lookupArtifact(docs *code_analyzer.DocCache, root string, path string) (*models.DocumentationArtifact, bool) {
	query := code_analyzer.RelativePath(root, path)
	if artifact, ok := docs.Get(query); ok {
		return artifact, true
	}
	for _, p := range docs.Paths() {
		if strings.HasSuffix(p, "/"+query) {
			return docs.Get(p)
		}
	}
	return nil, false
}

// searchSummaries ranks documented files by how many words of the question
// appear in their path or summary.
func searchSummaries(docs *code_analyzer.DocCache, question string, limit int) []*models.DocumentationArtifact {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(question)) {
		w = strings.Trim(w, "?!.,;:'\"`()")
		if len(w) > 3 {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		return nil
	}

	type scored struct {
		artifact *models.DocumentationArtifact
		score    int
	}
	var results []scored
	for _, p := range docs.Paths() {
		artifact, ok := docs.Get(p)
		if !ok {
			continue
		}
		haystack := strings.ToLower(artifact.Path + " " + artifact.Summary)
		score := 0
		for _, w := range words {
			if strings.Contains(haystack, w) {
				score++
			}
		}
		if score > 0 {
			results = append(results, scored{artifact: artifact, score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})
	if len(results) > limit {
		results = results[:limit]
	}

	matches := make([]*models.DocumentationArtifact, 0, len(results))
	for _, r := range results {
		matches = append(matches, r.artifact)
	}
	return matches
}
