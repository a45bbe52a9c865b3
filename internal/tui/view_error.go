package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sant0-9/soapflow/internal/workflow"
)

func (a *App) handleErrorKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Regenerate), key.Matches(msg, keys.Enter):
		return a.regenerate("")
	case key.Matches(msg, keys.Back):
		return a.newSession()
	}
	return nil
}

func (a *App) renderError(st workflow.State) string {
	errMsg := st.Err
	if errMsg == "" {
		errMsg = "Unknown error"
	}
	return a.renderErrorBox(errMsg, "[r] Retry  [S] Settings  [n] New  [Esc] Back")
}

func (a *App) renderProviderError() string {
	errMsg := "Provider not configured"
	if a.state.providerError != nil {
		errMsg = a.state.providerError.Error()
	}
	return a.renderErrorBox(errMsg, "[r] Retry  [s] Setup  [Esc] Quit")
}

func (a *App) renderErrorBox(errMsg, actions string) string {
	var b strings.Builder

	// Error icon and title
	title := lipgloss.NewStyle().
		Foreground(colorError).
		Bold(true).
		Render("Something went wrong")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, title))
	b.WriteString("\n\n")

	errBox := styleBox.
		Width(min(60, a.width-4)).
		BorderForeground(colorError).
		Render(errMsg)
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, errBox))
	b.WriteString("\n\n")

	// Suggestions based on error type
	if suggestions := suggest(errMsg); len(suggestions) > 0 {
		suggBox := styleBox.
			Width(min(60, a.width-4)).
			BorderForeground(colorMuted).
			Render("Suggestions:\n" + strings.Join(suggestions, "\n"))
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, suggBox))
		b.WriteString("\n\n")
	}

	// Actions
	status := styleStatusBar.Render(actions)
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, status))

	return a.centerVertically(b.String())
}

func suggest(errMsg string) []string {
	var suggestions []string
	errLower := strings.ToLower(errMsg)

	switch {
	case strings.Contains(errLower, "api key") || strings.Contains(errLower, "401") || strings.Contains(errLower, "unauthorized") || strings.Contains(errLower, "permission"):
		suggestions = append(suggestions, "Check your API key in ~/.config/soapflow/config.yaml")
		suggestions = append(suggestions, "Or set GEMINI_API_KEY in the environment or .env")
	case strings.Contains(errLower, "timed out") || strings.Contains(errLower, "connect") || strings.Contains(errLower, "timeout"):
		suggestions = append(suggestions, "Check your internet connection")
		suggestions = append(suggestions, "Or raise request_timeout in the config")
	case strings.Contains(errLower, "ollama"):
		suggestions = append(suggestions, "Make sure Ollama is running: ollama serve")
		suggestions = append(suggestions, "And that a vision model is pulled: ollama pull llama3.2-vision")
	case strings.Contains(errLower, "rate limit") || strings.Contains(errLower, "429") || strings.Contains(errLower, "quota"):
		suggestions = append(suggestions, "You've hit the API rate limit")
		suggestions = append(suggestions, "Wait a moment and try again")
	case strings.Contains(errLower, "returned nothing"):
		suggestions = append(suggestions, "The model may have refused the image")
		suggestions = append(suggestions, "Try a cleaner screenshot or another model")
	}
	return suggestions
}
