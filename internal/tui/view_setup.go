package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sant0-9/soapflow/internal/config"
)

// startSetup reopens the provider wizard from settings or a failed connection
func (a *App) startSetup() {
	a.view = viewSetup
	a.state.setupStep = 0
	a.state.setupError = nil
	a.state.apiKeyInput.Reset()
	a.focusField(focusNone)
	for i, p := range config.Providers {
		if p.ID == a.state.config.Provider {
			a.state.selectedProvider = i
		}
	}
}

func (a *App) handleSetupKey(msg tea.KeyMsg) tea.Cmd {
	switch a.state.setupStep {
	case 0: // Provider selection
		switch msg.String() {
		case "up", "k":
			if a.state.selectedProvider > 0 {
				a.state.selectedProvider--
			}
		case "down", "j":
			if a.state.selectedProvider < len(config.Providers)-1 {
				a.state.selectedProvider++
			}
		case "esc":
			if a.state.needsSetup {
				a.quitting = true
				return tea.Quit
			}
			a.closeOverlay()
		case "enter":
			provider := config.Providers[a.state.selectedProvider]
			if provider.ID != a.state.config.Provider {
				a.state.config.APIKey = ""
				a.state.config.BaseURL = ""
			}
			a.state.config.Provider = provider.ID
			a.state.config.Model = provider.DefaultModel

			if provider.NeedsAPIKey {
				a.state.setupStep = 1
				a.state.apiKeyInput.Focus()
				return textinput.Blink
			}
			// Skip to save
			return a.finishSetup()
		}

	case 1: // API key entry
		switch msg.String() {
		case "esc":
			// Go back to provider selection
			a.state.setupStep = 0
			a.state.apiKeyInput.Reset()
			a.state.apiKeyInput.Blur()
			return nil
		case "enter":
			apiKey := strings.TrimSpace(a.state.apiKeyInput.Value())
			if apiKey == "" {
				return nil
			}
			a.state.config.APIKey = apiKey
			a.state.apiKeyInput.Blur()
			return a.finishSetup()
		}
		var cmd tea.Cmd
		a.state.apiKeyInput, cmd = a.state.apiKeyInput.Update(msg)
		return cmd
	}

	return nil
}

func (a *App) finishSetup() tea.Cmd {
	cfg := a.state.config
	return func() tea.Msg {
		if err := cfg.Save(); err != nil {
			return setupErrorMsg{err}
		}
		return setupCompleteMsg{}
	}
}

func (a *App) renderSetup() string {
	switch a.state.setupStep {
	case 0:
		return a.renderProviderSelection()
	case 1:
		return a.renderAPIKeyEntry()
	default:
		return ""
	}
}

func (a *App) renderProviderSelection() string {
	var b strings.Builder

	// Header
	header := styleLogo.Render(logo)
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, header))
	b.WriteString("\n\n")

	// Title
	title := lipgloss.NewStyle().
		Foreground(colorWhite).
		Bold(true).
		Render("Choose a vision model provider:")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, title))
	b.WriteString("\n\n")

	// Provider list
	var providerLines []string
	for i, p := range config.Providers {
		var line string
		cursor := "  "
		if i == a.state.selectedProvider {
			cursor = "> "
			line = lipgloss.NewStyle().
				Foreground(colorSecondary).
				Bold(true).
				Render(fmt.Sprintf("%s[x] %-14s %s", cursor, p.Name, p.Description))
		} else {
			line = lipgloss.NewStyle().
				Foreground(colorMuted).
				Render(fmt.Sprintf("%s[ ] %-14s %s", cursor, p.Name, p.Description))
		}
		providerLines = append(providerLines, line)
	}

	providerBox := styleBox.
		Width(56).
		Render(strings.Join(providerLines, "\n"))
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, providerBox))
	b.WriteString("\n\n")

	if a.state.setupError != nil {
		errLine := styleError.Render("Could not save config: " + a.state.setupError.Error())
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, errLine))
		b.WriteString("\n\n")
	}

	// Instructions
	instructions := styleStatusBar.Render("[j/k] Navigate  [Enter] Select  [Esc] Back")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, instructions))

	return a.centerVertically(b.String())
}

func (a *App) renderAPIKeyEntry() string {
	var b strings.Builder

	provider := config.GetProvider(a.state.config.Provider)

	// Header
	header := styleLogo.Render(logo)
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, header))
	b.WriteString("\n\n")

	// Title
	title := lipgloss.NewStyle().
		Foreground(colorWhite).
		Bold(true).
		Render(fmt.Sprintf("Enter your %s API key:", provider.Name))
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, title))
	b.WriteString("\n\n")

	// Signup link
	if provider.SignupURL != "" {
		link := styleSubtitle.Render(fmt.Sprintf("Get one at: %s", provider.SignupURL))
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, link))
		b.WriteString("\n\n")
	}

	// Input
	inputBox := styleBox.
		Width(60).
		BorderForeground(colorSecondary).
		Render(a.state.apiKeyInput.View())
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, inputBox))
	b.WriteString("\n\n")

	// Instructions
	instructions := styleStatusBar.Render("[Enter] Continue  [Esc] Back")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, instructions))

	return a.centerVertically(b.String())
}

func (a *App) centerVertically(content string) string {
	lines := strings.Count(content, "\n") + 1
	padding := (a.height - lines) / 2
	if padding < 0 {
		padding = 0
	}
	return strings.Repeat("\n", padding) + content
}
