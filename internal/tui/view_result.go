package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sant0-9/soapflow/internal/asmr"
	"github.com/sant0-9/soapflow/internal/workflow"
)

func (a *App) handleResultKey(msg tea.KeyMsg) tea.Cmd {
	st := a.ctrl.State()
	switch {
	case key.Matches(msg, keys.Tab):
		a.state.activeTab = (a.state.activeTab + 1) % len(asmr.ContentTypes)
		a.syncWorkViews()
		a.state.promptView.GotoTop()
	case key.Matches(msg, keys.ShiftTab):
		a.state.activeTab = (a.state.activeTab + len(asmr.ContentTypes) - 1) % len(asmr.ContentTypes)
		a.syncWorkViews()
		a.state.promptView.GotoTop()
	case isTabNumber(msg.String()):
		a.state.activeTab = int(msg.String()[0] - '1')
		a.syncWorkViews()
		a.state.promptView.GotoTop()
	case key.Matches(msg, keys.Copy):
		return a.copyText(st.Result.Prompts[a.activeType()])
	case key.Matches(msg, keys.Edit):
		if st.Refining && st.RefiningType == a.activeType() {
			return nil
		}
		a.state.promptArea.SetValue(st.Result.Prompts[a.activeType()])
		a.focusField(focusPrompt)
		return textarea.Blink
	case key.Matches(msg, keys.Refine):
		if st.Refining {
			a.state.hint = "Wait for the current refinement to finish."
			return nil
		}
		a.focusField(focusRefine)
		return textinput.Blink
	case key.Matches(msg, keys.Export):
		a.exportResult(st.Result, st.LoadedHistoryID)
	case key.Matches(msg, keys.Approve):
		return a.approve()
	case key.Matches(msg, keys.Regenerate):
		return a.regenerate("")
	default:
		var cmd tea.Cmd
		a.state.promptView, cmd = a.state.promptView.Update(msg)
		return cmd
	}
	return nil
}

func isTabNumber(s string) bool {
	return len(s) == 1 && s[0] >= '1' && s[0] < '1'+byte(len(asmr.ContentTypes))
}

func (a *App) renderTabs(st workflow.State) string {
	var tabs []string
	for i, ct := range asmr.ContentTypes {
		label := ct.String()
		if st.Refining && st.RefiningType == ct {
			label += " " + a.state.spinner.View()
		}
		if i == a.state.activeTab {
			tabs = append(tabs, styleActiveTab.Render(label))
		} else {
			tabs = append(tabs, styleTab.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (a *App) renderResult(st workflow.State) string {
	var b strings.Builder
	width := min(90, a.width-4)

	// Title
	titleText := "Your prompts"
	if st.LoadedHistoryID != "" {
		titleText = "Your prompts (from history)"
	}
	title := styleTitle.Render(titleText)
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, title))
	b.WriteString("\n")

	tone := styleSubtitle.Render(truncate(firstLine(st.ToneBlock), width))
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, tone))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, a.renderTabs(st)))
	b.WriteString("\n")

	// Prompt
	var body string
	border := colorPrimary
	if a.state.focus == focusPrompt {
		body = a.state.promptArea.View()
		border = colorSecondary
	} else {
		body = a.state.promptView.View()
	}
	promptBox := styleBox.
		Width(width).
		BorderForeground(border).
		Render(body)
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, promptBox))
	b.WriteString("\n")

	if a.state.focus == focusRefine {
		refineBox := styleBox.
			Width(width).
			BorderForeground(colorSecondary).
			Render(a.state.refineInput.View())
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, refineBox))
		b.WriteString("\n")
	}

	switch {
	case a.state.copied:
		copied := lipgloss.NewStyle().Foreground(colorSuccess).Render("Copied " + a.activeType().String() + " prompt to clipboard")
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, copied))
		b.WriteString("\n")
	case a.statusLine(st) != "":
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, a.statusLine(st)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	// Status bar
	var status string
	switch a.state.focus {
	case focusPrompt:
		status = "Editing  [Esc] Save"
	case focusRefine:
		status = "[Enter] Refine " + a.activeType().String() + "  [Esc] Cancel"
	default:
		status = "[tab] Switch  [c] Copy  [e] Edit  [f] Refine  [w] Save  [a] Regenerate prompts  [r] New tone  [n] New session  [H] History  [?] Help"
	}
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, styleStatusBar.Render(status)))

	return a.centerVertically(b.String())
}
