package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sant0-9/soapflow/internal/workflow"
)

func (a *App) handleReviewKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Edit):
		a.state.toneArea.SetValue(a.ctrl.State().ToneBlock)
		a.focusField(focusTone)
		return textarea.Blink
	case key.Matches(msg, keys.Regenerate):
		a.focusField(focusFeedback)
		return textinput.Blink
	case key.Matches(msg, keys.Approve), key.Matches(msg, keys.Enter):
		return a.approve()
	}
	return nil
}

func (a *App) renderReview(st workflow.State) string {
	var b strings.Builder
	width := min(90, a.width-4)

	// Title
	title := styleTitle.Render("Review the tone block")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, title))
	b.WriteString("\n")

	if st.Image != nil {
		imgInfo := styleSubtitle.Render(truncate(st.Image.Name, 60))
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, imgInfo))
	}
	b.WriteString("\n\n")

	// Tone block
	var body string
	border := colorMuted
	if a.state.focus == focusTone {
		body = a.state.toneArea.View()
		border = colorSecondary
	} else {
		body = st.ToneBlock
		lines := strings.Split(body, "\n")
		if maxLines := max(5, a.height-14); len(lines) > maxLines {
			body = strings.Join(lines[:maxLines], "\n") + "\n..."
		}
	}
	toneBox := styleBox.
		Width(width).
		BorderForeground(border).
		Render(body)
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, toneBox))
	b.WriteString("\n")

	// Regeneration feedback or progress
	switch {
	case st.Status == workflow.AnalyzingTone:
		regen := styleHint.Render(a.state.spinner.View() + " Regenerating...")
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, regen))
		b.WriteString("\n")
	case a.state.focus == focusFeedback:
		feedbackBox := styleBox.
			Width(width).
			BorderForeground(colorSecondary).
			Render(a.state.feedbackInput.View())
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, feedbackBox))
		b.WriteString("\n")
	}

	if line := a.statusLine(st); line != "" {
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, line))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	// Status bar
	var status string
	switch a.state.focus {
	case focusTone:
		status = "Editing  [Esc] Done"
	case focusFeedback:
		status = "[Enter] Regenerate  [Esc] Cancel"
	default:
		status = "[a] Approve & generate  [e] Edit  [r] Regenerate  [n] New  [H] History  [T] Templates  [?] Help"
	}
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, styleStatusBar.Render(status)))

	return a.centerVertically(b.String())
}
