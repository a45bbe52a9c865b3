package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sant0-9/soapflow/internal/asmr"
	"github.com/sant0-9/soapflow/internal/templates"
)

// Template editor rows: the tone block template, then one per content type
func templateRowCount() int {
	return 1 + len(asmr.ContentTypes)
}

func templateRowName(i int) string {
	if i == 0 {
		return "Tone block template"
	}
	return asmr.ContentTypes[i-1].String() + " master prompt"
}

func templateRowText(t templates.PromptTemplates, i int) string {
	if i == 0 {
		return t.ToneBlockTemplate
	}
	return t.MasterPrompts[asmr.ContentTypes[i-1]]
}

func (a *App) handleTemplatesKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Back):
		a.closeOverlay()
	case key.Matches(msg, keys.Up):
		if a.state.templateCursor > 0 {
			a.state.templateCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.state.templateCursor < templateRowCount()-1 {
			a.state.templateCursor++
		}
	case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
		a.state.templateArea.SetValue(templateRowText(a.templates.Current(), a.state.templateCursor))
		a.focusField(focusTemplate)
		return textarea.Blink
	case key.Matches(msg, keys.Reset):
		if _, err := a.templates.Reset(context.Background()); err != nil {
			a.state.hint = err.Error()
			return nil
		}
		a.state.hint = "Templates reset to defaults."
	}
	return nil
}

func (a *App) saveTemplate() {
	text := a.state.templateArea.Value()
	var patch templates.Patch
	if a.state.templateCursor == 0 {
		patch = templates.SetToneBlock(text)
	} else {
		patch = templates.SetMasterPrompt(asmr.ContentTypes[a.state.templateCursor-1], text)
	}
	if _, err := a.templates.Update(context.Background(), patch); err != nil {
		a.log.WithError(err).Warn("failed to save template")
		a.state.hint = err.Error()
		return
	}
	a.state.hint = templateRowName(a.state.templateCursor) + " saved."
}

func (a *App) renderTemplates() string {
	var b strings.Builder
	width := min(90, a.width-4)

	title := styleTitle.Render("Templates")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, title))
	b.WriteString("\n\n")

	current := a.templates.Current()

	if a.state.focus == focusTemplate {
		name := styleSubtitle.Render(templateRowName(a.state.templateCursor))
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, name))
		b.WriteString("\n")
		editor := styleBox.
			Width(width).
			BorderForeground(colorSecondary).
			Render(a.state.templateArea.View())
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, editor))
		b.WriteString("\n\n")
		status := styleStatusBar.Render("Editing  [Esc] Save")
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, status))
		return a.centerVertically(b.String())
	}

	var rows []string
	for i := 0; i < templateRowCount(); i++ {
		text := templateRowText(current, i)
		cursor := "  "
		style := lipgloss.NewStyle().Foreground(colorMuted)
		if i == a.state.templateCursor {
			cursor = "> "
			style = lipgloss.NewStyle().Foreground(colorSecondary).Bold(true)
		}
		line := fmt.Sprintf("%s%-28s %5d chars", cursor, templateRowName(i), len(text))
		if i > 0 && !templates.HasMarker(text) {
			line += "  no " + templates.ToneBlockMarker
		}
		rows = append(rows, style.Render(line))
	}

	listBox := styleBox.
		Width(width).
		BorderForeground(colorPrimary).
		Render(strings.Join(rows, "\n"))
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, listBox))
	b.WriteString("\n\n")

	preview := templateRowText(current, a.state.templateCursor)
	lines := strings.Split(preview, "\n")
	if maxLines := max(3, a.height-20); len(lines) > maxLines {
		lines = append(lines[:maxLines], "...")
	}
	previewBox := styleBox.
		Width(width).
		Foreground(colorMuted).
		Render(strings.Join(lines, "\n"))
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, previewBox))
	b.WriteString("\n\n")

	if a.state.hint != "" {
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, styleHint.Render(a.state.hint)))
		b.WriteString("\n")
	}

	statusBar := styleStatusBar.Render("[j/k] Navigate  [Enter] Edit  [R] Reset to defaults  [Esc] Back")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, statusBar))

	return a.centerVertically(b.String())
}
