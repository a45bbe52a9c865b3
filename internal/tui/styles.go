package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// truncate shortens text to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// firstLine returns the first non-blank line of s
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

var (
	// Colors
	colorPrimary   = lipgloss.Color("#EC4899")
	colorSecondary = lipgloss.Color("#06B6D4")
	colorSuccess   = lipgloss.Color("#10B981")
	colorError     = lipgloss.Color("#EF4444")
	colorMuted     = lipgloss.Color("#6B7280")
	colorWhite     = lipgloss.Color("#F9FAFB")

	// Logo style
	styleLogo = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	// Subtitle
	styleSubtitle = lipgloss.NewStyle().
			Foreground(colorMuted)

	// Box
	styleBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)

	// Status bar
	styleStatusBar = lipgloss.NewStyle().
			Foreground(colorMuted)

	styleTitle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	styleError = lipgloss.NewStyle().
			Foreground(colorError)

	styleHint = lipgloss.NewStyle().
			Foreground(colorSecondary)

	styleTab = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)

	styleActiveTab = lipgloss.NewStyle().
			Foreground(colorWhite).
			Background(colorPrimary).
			Bold(true).
			Padding(0, 1)
)
