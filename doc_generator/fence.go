package doc_generator

import (
	"strings"
)

const fenceToken = "```"

func isFenceLine(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), fenceToken)
}

// StripCodeFence returns the text inside a single fenced block that wraps the
// whole response. When the response is not exactly one well formed block,
// every fence delimiter (and the info string on a fence line) is removed instead.
func StripCodeFence(text string) string {
	inner, _, ok := splitFence(text)
	if ok {
		return inner
	}
	return stripFenceTokens(text)
}

// splitFence finds the first fenced block whose opening and closing lines are
// the only fence lines in text. It returns the block interior and whatever
// text surrounds the block.
func splitFence(text string) (inner string, outside string, ok bool) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	open, close := -1, -1
	for i, line := range lines {
		if !isFenceLine(line) {
			continue
		}
		switch {
		case open == -1:
			open = i
		case close == -1:
			if strings.TrimSpace(line) != fenceToken {
				return "", "", false
			}
			close = i
		default:
			return "", "", false
		}
	}
	if open == -1 || close == -1 {
		return "", "", false
	}

	var surrounding []string
	surrounding = append(surrounding, lines[:open]...)
	surrounding = append(surrounding, lines[close+1:]...)

	return strings.Join(lines[open+1:close], "\n"), strings.TrimSpace(strings.Join(surrounding, "\n")), true
}

func stripFenceTokens(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if isFenceLine(line) {
			continue
		}
		kept = append(kept, strings.ReplaceAll(line, fenceToken, ""))
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
