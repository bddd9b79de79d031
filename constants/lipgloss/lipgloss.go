package lipgloss

import "github.com/charmbracelet/lipgloss"

var (
	Red     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
	Green   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD787"))
	Yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD75F"))
	BlueSky = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FAFFF"))
	Gray    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8A8A8A"))
	Info    = lipgloss.NewStyle().Foreground(lipgloss.Color("#87D7FF")).Bold(true)
	Title   = lipgloss.NewStyle().Foreground(lipgloss.Color("#AF87FF")).Bold(true)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5FAFFF")).
			Padding(0, 1)
)
