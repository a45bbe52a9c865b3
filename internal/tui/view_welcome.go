package tui

import (
	"github.com/charmbracelet/lipgloss"
)

const logo = `
 ███████╗ ██████╗  █████╗ ██████╗ ███████╗██╗      ██████╗ ██╗    ██╗
 ██╔════╝██╔═══██╗██╔══██╗██╔══██╗██╔════╝██║     ██╔═══██╗██║    ██║
 ███████╗██║   ██║███████║██████╔╝█████╗  ██║     ██║   ██║██║ █╗ ██║
 ╚════██║██║   ██║██╔══██║██╔═══╝ ██╔══╝  ██║     ██║   ██║██║███╗██║
 ███████║╚██████╔╝██║  ██║██║     ██║     ███████╗╚██████╔╝╚███╔███╔╝
 ╚══════╝ ╚═════╝ ╚═╝  ╚═╝╚═╝     ╚═╝     ╚══════╝ ╚═════╝  ╚══╝╚══╝
`

func (a *App) renderWelcome() string {
	// Logo
	logoRendered := styleLogo.Render(logo)

	// Subtitle
	subtitle := styleSubtitle.Render("ASMR soap prompt studio")

	// Provider status
	var provider string
	switch {
	case a.state.providerError != nil:
		provider = styleError.Render("Provider check failed: " + truncate(a.state.providerError.Error(), 60))
	case a.state.providerReady:
		provider = lipgloss.NewStyle().Foreground(colorSuccess).Render("* " + a.providerLabel())
	default:
		provider = styleSubtitle.Render(a.state.spinner.View() + " connecting to " + a.providerLabel())
	}

	// Instructions
	instructions := styleSubtitle.Render("\nDrop a video screenshot onto the terminal, or paste or type its path")

	inputBox := styleBox.
		Width(min(70, a.width-4)).
		BorderForeground(colorSecondary).
		Render(a.state.pathInput.View())

	var st string
	if a.ctrl != nil {
		st = a.statusLine(a.ctrl.State())
	}

	// Status bar
	statusBar := styleStatusBar.Render("[Enter] Analyze  /history  /templates  /settings  /help  [Esc] Quit")

	// Combine main content
	content := lipgloss.JoinVertical(
		lipgloss.Center,
		logoRendered,
		subtitle,
		provider,
		instructions,
		inputBox,
		st,
	)

	// Center content on screen (leave room for status bar)
	mainArea := lipgloss.Place(
		a.width,
		a.height-2,
		lipgloss.Center,
		lipgloss.Center,
		content,
	)

	// Status bar centered at bottom
	statusLine := lipgloss.PlaceHorizontal(a.width, lipgloss.Center, statusBar)

	return lipgloss.JoinVertical(lipgloss.Left, mainArea, statusLine)
}
