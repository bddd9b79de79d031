package utils

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/meysamhadeli/codoc/constants/lipgloss"
)

// ErrInputClosed is returned when the input stream reaches EOF
var ErrInputClosed = errors.New("input closed")

// InputPromptWithContext prompts the user with context cancellation support
func InputPromptWithContext(ctx context.Context, reader *bufio.Reader) (string, error) {
	inputChan := make(chan string, 1)
	errChan := make(chan error, 1)

	go func() {
		fmt.Print(lipgloss.BlueSky.Render("> "))

		userInput, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				if strings.TrimSpace(userInput) != "" {
					inputChan <- strings.TrimSpace(userInput)
					return
				}
				errChan <- ErrInputClosed
			} else {
				errChan <- fmt.Errorf("error reading input: %w", err)
			}
			return
		}
		inputChan <- strings.TrimSpace(userInput)
	}()

	select {
	case <-ctx.Done():
		fmt.Println()
		return "", ctx.Err()
	case err := <-errChan:
		return "", err
	case input := <-inputChan:
		return input, nil
	}
}

// ConfirmPrompt asks a yes/no question and returns true for y or yes.
func ConfirmPrompt(question string, reader *bufio.Reader) (bool, error) {
	fmt.Print(lipgloss.BlueSky.Render(question + " (y/N): "))
	response, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("error reading input: %w", err)
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes", nil
}
