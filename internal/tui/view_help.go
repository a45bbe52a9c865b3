package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (a *App) renderHelp() string {
	var b strings.Builder

	// Title
	title := styleTitle.Render("Help")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, title))
	b.WriteString("\n\n")

	// Workflow
	steps := []string{
		"  1. Drop a screenshot of a soap crushing video",
		"  2. Review the tone block; edit it or regenerate",
		"     with feedback until it matches the scene",
		"  3. Approve to write Dust Core, Clay Core,",
		"     Starch Core and Cutting Soap prompts",
		"  4. Edit, refine or copy each prompt",
		"  5. New session saves the prompts to history",
	}
	stepsBox := styleBox.
		Width(56).
		Render(strings.Join(steps, "\n"))
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, stepsBox))
	b.WriteString("\n\n")

	// Commands
	commands := []string{
		"  /help, /h       Show this help",
		"  /history        Saved sessions",
		"  /templates, /t  Edit tone block and master prompts",
		"  /settings, /s   Provider and model",
		"  /quit, /q       Quit soapflow",
	}

	commandsTitle := styleSubtitle.Render("Commands (on the start screen)")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, commandsTitle))
	b.WriteString("\n")
	commandsBox := styleBox.
		Width(56).
		Render(strings.Join(commands, "\n"))
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, commandsBox))
	b.WriteString("\n\n")

	// Keyboard shortcuts
	shortcuts := []string{
		"  H / T / S     History / Templates / Settings",
		"  n             New session",
		"  w             Save prompts to a markdown file",
		"  x             Dismiss message",
		"  Esc           Go back, finish editing",
		"  ctrl+c        Quit",
	}

	shortcutsTitle := styleSubtitle.Render("Keyboard Shortcuts")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, shortcutsTitle))
	b.WriteString("\n")

	shortcutsBox := styleBox.
		Width(56).
		Render(strings.Join(shortcuts, "\n"))
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, shortcutsBox))
	b.WriteString("\n\n")

	// Instructions
	instructions := styleStatusBar.Render("[Esc] Back")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, instructions))

	return a.centerVertically(b.String())
}
