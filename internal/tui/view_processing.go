package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sant0-9/soapflow/internal/asmr"
	"github.com/sant0-9/soapflow/internal/workflow"
)

func (a *App) renderProcessing(st workflow.State) string {
	var b strings.Builder

	// Title
	titleText := "Analyzing screenshot"
	if st.Status == workflow.GeneratingPrompts {
		titleText = "Writing prompts"
	}
	title := styleTitle.Render(titleText)
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, title))
	b.WriteString("\n\n")

	// Image info
	if st.Image != nil {
		imgInfo := styleSubtitle.Render(truncate(st.Image.Name, 60) + "  " + st.Image.MimeType)
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, imgInfo))
		b.WriteString("\n\n")
	}

	var lines []string
	if st.Status == workflow.AnalyzingTone {
		lines = append(lines, fmt.Sprintf("  %s  Reading the scene: soap, surface, light, hands", a.state.spinner.View()))
	} else {
		for _, ct := range asmr.ContentTypes {
			lines = append(lines, lipgloss.NewStyle().
				Foreground(colorSecondary).
				Render(fmt.Sprintf("  %s  %s", a.state.spinner.View(), ct)))
		}
	}

	stagesBox := styleBox.
		Width(min(60, a.width-4)).
		Render(strings.Join(lines, "\n"))
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, stagesBox))
	b.WriteString("\n\n")

	msg := styleSubtitle.Render("via " + a.providerLabel())
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, msg))
	b.WriteString("\n\n")

	status := styleStatusBar.Render("[n] New session  [ctrl+c] Quit")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, status))

	return a.centerVertically(b.String())
}
