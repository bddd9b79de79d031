package code_analyzer

import (
	"fmt"
	"os"

	"github.com/zeebo/xxh3"
)

// HashContent returns a stable 16 character fingerprint of content.
// It is used for change detection only, not integrity.
func HashContent(content string) string {
	return fmt.Sprintf("%016x", xxh3.HashString(content))
}

// HashFile reads path and returns its fingerprint together with the file size.
func HashFile(path string) (string, int64, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", 0, &IOError{Op: "read", Path: path, Err: err}
	}
	return HashContent(string(content)), int64(len(content)), nil
}
