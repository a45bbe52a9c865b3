package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sant0-9/soapflow/internal/config"
	"github.com/sant0-9/soapflow/internal/workflow"
)

// canReconnect reports whether swapping the provider would lose nothing
func (a *App) canReconnect() bool {
	return a.ctrl == nil || a.ctrl.State().Status == workflow.Idle
}

func (a *App) handleSettingsKey(msg tea.KeyMsg) tea.Cmd {
	if a.state.settingsMode == "model" {
		provider := config.GetProvider(a.state.config.Provider)
		switch {
		case key.Matches(msg, keys.Back):
			a.state.settingsMode = ""
		case key.Matches(msg, keys.Up):
			if a.state.settingsSelected > 0 {
				a.state.settingsSelected--
			}
		case key.Matches(msg, keys.Down):
			if provider != nil && a.state.settingsSelected < len(provider.Models)-1 {
				a.state.settingsSelected++
			}
		case key.Matches(msg, keys.Enter):
			if provider == nil || len(provider.Models) == 0 {
				return nil
			}
			a.state.config.Model = provider.Models[a.state.settingsSelected]
			a.state.settingsMode = ""
			if err := a.state.config.Save(); err != nil {
				a.state.hint = "Could not save config: " + err.Error()
				return nil
			}
			a.buildController()
			a.state.focus = focusNone
			a.state.pathInput.Blur()
			return a.testProvider()
		}
		return nil
	}

	switch {
	case key.Matches(msg, keys.Back):
		a.state.hint = ""
		a.closeOverlay()
	case msg.String() == "p", msg.String() == "m":
		if !a.canReconnect() {
			a.state.hint = "Start a new session before switching providers or models."
			return nil
		}
		if msg.String() == "p" {
			a.startSetup()
			return nil
		}
		a.state.settingsMode = "model"
		a.state.settingsSelected = 0
	}
	return nil
}

func (a *App) renderSettings() string {
	if a.state.settingsMode == "model" {
		return a.renderSettingsModel()
	}
	return a.renderSettingsMain()
}

func maskKey(k string) string {
	switch {
	case k == "":
		return "Not set"
	case len(k) > 8:
		return k[:4] + "****" + k[len(k)-4:]
	default:
		return "****"
	}
}

func (a *App) renderSettingsMain() string {
	var b strings.Builder

	// Title
	title := styleTitle.Render("Settings")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, title))
	b.WriteString("\n\n")

	// Current config
	cfg := a.state.config
	provider := config.GetProvider(cfg.Provider)
	providerName := cfg.Provider
	if provider != nil {
		providerName = provider.Name
	}

	historyMode := "this run only"
	if cfg.History.Persist {
		historyMode = "saved to disk"
	}
	configPath, _ := config.ConfigPath()
	logPath, _ := cfg.LogPath()

	configLines := []string{
		fmt.Sprintf("  Provider: %s", providerName),
		fmt.Sprintf("  Model:    %s", cfg.Model),
		fmt.Sprintf("  API Key:  %s", maskKey(cfg.APIKey)),
		fmt.Sprintf("  Timeout:  %s", cfg.Timeout()),
		fmt.Sprintf("  History:  %s", historyMode),
		"",
		fmt.Sprintf("  Config:   %s", configPath),
		fmt.Sprintf("  Log:      %s", logPath),
	}
	if cfg.BaseURL != "" {
		configLines = append(configLines[:3], append([]string{fmt.Sprintf("  Base URL: %s", cfg.BaseURL)}, configLines[3:]...)...)
	}

	configBox := styleBox.
		Width(min(70, a.width-4)).
		Render(strings.Join(configLines, "\n"))
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, configBox))
	b.WriteString("\n\n")

	// Actions
	actions := []string{
		"  [p] Change provider",
		"  [m] Change model",
	}
	actionsBox := styleBox.
		Width(min(70, a.width-4)).
		Render(strings.Join(actions, "\n"))
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, actionsBox))
	b.WriteString("\n\n")

	if a.state.hint != "" {
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, styleHint.Render(a.state.hint)))
		b.WriteString("\n")
	}

	// Instructions
	instructions := styleStatusBar.Render("[Esc] Back")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, instructions))

	return a.centerVertically(b.String())
}

func (a *App) renderSettingsModel() string {
	var b strings.Builder

	title := styleTitle.Render("Select Model")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, title))
	b.WriteString("\n\n")

	provider := config.GetProvider(a.state.config.Provider)
	if provider == nil {
		desc := styleSubtitle.Render("No provider selected")
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, desc))
		return a.centerVertically(b.String())
	}

	providerDesc := styleSubtitle.Render(fmt.Sprintf("Provider: %s", provider.Name))
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, providerDesc))
	b.WriteString("\n\n")

	var lines []string
	for i, model := range provider.Models {
		cursor := "  "
		if i == a.state.settingsSelected {
			cursor = "> "
		}
		// Mark current model
		current := ""
		if model == a.state.config.Model {
			current = " (current)"
		}
		line := fmt.Sprintf("%s%s%s", cursor, model, current)
		if i == a.state.settingsSelected {
			line = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true).Render(line)
		}
		lines = append(lines, line)
	}

	listBox := styleBox.
		Width(60).
		Render(strings.Join(lines, "\n"))
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, listBox))
	b.WriteString("\n\n")

	instructions := styleStatusBar.Render("[Up/Down] Navigate  [Enter] Select  [Esc] Cancel")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, instructions))

	return a.centerVertically(b.String())
}
