package doc_generator

import (
	"strings"
	"unicode/utf8"
)

const maxSummaryLength = 300

// splitResponse separates the documented file content from the summary line
// the model was asked to append after the code block.
func splitResponse(raw string) (content string, summary string) {
	if inner, outside, ok := splitFence(raw); ok {
		return inner, summaryFromText(outside)
	}

	content = stripFenceTokens(raw)
	lines := strings.Split(content, "\n")
	last := len(lines) - 1
	if s, ok := summaryLine(lines[last]); ok {
		return strings.TrimSpace(strings.Join(lines[:last], "\n")), s
	}
	return content, ""
}

func summaryFromText(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if s, ok := summaryLine(line); ok {
			return s
		}
	}
	return ""
}

func summaryLine(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < len("summary:") || !strings.EqualFold(trimmed[:len("summary:")], "summary:") {
		return "", false
	}
	return truncate(strings.TrimSpace(trimmed[len("summary:"):])), true
}

// DeriveSummary builds a description from the leading documentation comment of
// content, falling back to its first meaningful line.
func DeriveSummary(content string) string {
	lines := strings.Split(content, "\n")
	i := 0
	for i < len(lines) && (strings.TrimSpace(lines[i]) == "" || strings.HasPrefix(lines[i], "#!")) {
		i++
	}
	if i == len(lines) {
		return ""
	}

	first := strings.TrimSpace(lines[i])
	var collected []string
	switch {
	case strings.HasPrefix(first, `"""`) || strings.HasPrefix(first, "'''"):
		quote := first[:3]
		body := strings.TrimPrefix(first, quote)
		if strings.Contains(body, quote) {
			collected = append(collected, body[:strings.Index(body, quote)])
			break
		}
		collected = append(collected, body)
		for i++; i < len(lines); i++ {
			line := strings.TrimSpace(lines[i])
			if idx := strings.Index(line, quote); idx >= 0 {
				collected = append(collected, line[:idx])
				break
			}
			collected = append(collected, line)
		}
	case strings.HasPrefix(first, "/**") || strings.HasPrefix(first, "/*"):
		for ; i < len(lines); i++ {
			line := strings.TrimSpace(lines[i])
			end := strings.Contains(line, "*/")
			line = strings.TrimSuffix(strings.TrimSpace(strings.SplitN(line, "*/", 2)[0]), "*/")
			line = strings.TrimLeft(line, "/*")
			collected = append(collected, strings.TrimSpace(line))
			if end {
				break
			}
		}
	case strings.HasPrefix(first, "//") || strings.HasPrefix(first, "#"):
		marker := "#"
		if strings.HasPrefix(first, "//") {
			marker = "//"
		}
		for ; i < len(lines); i++ {
			line := strings.TrimSpace(lines[i])
			if !strings.HasPrefix(line, marker) {
				break
			}
			collected = append(collected, strings.TrimSpace(strings.TrimLeft(line, marker+"/")))
		}
	default:
		collected = append(collected, first)
	}

	var words []string
	for _, line := range collected {
		// tag lines such as @param describe details, not purpose
		if strings.HasPrefix(line, "@") {
			break
		}
		if line != "" {
			words = append(words, line)
		}
	}
	return truncate(strings.Join(words, " "))
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxSummaryLength {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:maxSummaryLength-3])) + "..."
}
