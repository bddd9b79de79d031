package utils

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
)

// RenderCode writes code highlighted for language using the given chroma style.
func RenderCode(w io.Writer, code string, language string, theme string) error {
	if !strings.HasSuffix(code, "\n") {
		code += "\n"
	}
	var buf bytes.Buffer
	if err := quick.Highlight(&buf, code, language, "terminal256", theme); err != nil {
		return fmt.Errorf("failed to highlight code: %w", err)
	}
	_, err := io.Copy(w, &buf)
	return err
}

// RenderMarkdown highlights a short markdown document such as a file summary.
func RenderMarkdown(w io.Writer, markdown string, theme string) error {
	return RenderCode(w, markdown, "markdown", theme)
}
