package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sant0-9/soapflow/internal/asmr"
	"github.com/sant0-9/soapflow/internal/history"
)

func (a *App) openHistory() tea.Cmd {
	a.view = viewHistory
	a.focusField(focusNone)
	a.reloadHistory()
	return nil
}

func (a *App) reloadHistory() {
	items, err := history.Newest(context.Background(), a.history)
	if err != nil {
		a.log.WithError(err).Warn("failed to list history")
		a.state.hint = "Could not read history: " + err.Error()
	}
	a.state.historyItems = items
	if a.state.historyCursor >= len(items) {
		a.state.historyCursor = max(0, len(items)-1)
	}
}

func (a *App) selectedHistory() (history.Item, bool) {
	items := a.state.historyItems
	if len(items) == 0 {
		return history.Item{}, false
	}
	return items[a.state.historyCursor], true
}

func (a *App) handleHistoryKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Back):
		a.closeOverlay()
	case key.Matches(msg, keys.Up):
		if a.state.historyCursor > 0 {
			a.state.historyCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.state.historyCursor < len(a.state.historyItems)-1 {
			a.state.historyCursor++
		}
	case key.Matches(msg, keys.Enter):
		item, ok := a.selectedHistory()
		if !ok || a.ctrl == nil {
			return nil
		}
		if err := a.ctrl.Restore(context.Background(), item.ID); err != nil {
			a.state.hint = err.Error()
			a.reloadHistory()
			return nil
		}
		a.state.hint = ""
		a.state.activeTab = 0
		a.view = viewMain
		a.syncWorkViews()
	case key.Matches(msg, keys.Delete):
		item, ok := a.selectedHistory()
		if !ok || a.ctrl == nil {
			return nil
		}
		if err := a.ctrl.DeleteHistory(context.Background(), item.ID); err != nil {
			a.state.hint = err.Error()
		}
		a.reloadHistory()
	case key.Matches(msg, keys.Export):
		item, ok := a.selectedHistory()
		if !ok {
			return nil
		}
		a.exportResult(&item.Result, item.ID)
	case isTabNumber(msg.String()):
		item, ok := a.selectedHistory()
		if !ok {
			return nil
		}
		ct := asmr.ContentTypes[msg.String()[0]-'1']
		return a.copyText(item.Result.Prompts[ct])
	}
	return nil
}

func (a *App) renderHistory() string {
	var b strings.Builder
	width := min(80, a.width-4)

	// Header
	title := styleTitle.Render("History")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, title))
	b.WriteString("\n\n")

	items := a.state.historyItems
	loaded := ""
	if a.ctrl != nil {
		loaded = a.ctrl.State().LoadedHistoryID
	}

	if len(items) == 0 {
		empty := styleBox.
			Width(width).
			Foreground(colorMuted).
			Render("No saved sessions yet.\n\nStarting a new session saves the current prompts here.")
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, empty))
	} else {
		var list strings.Builder
		maxItems := max(3, (a.height-12)/3)
		start := 0
		if a.state.historyCursor >= maxItems {
			start = a.state.historyCursor - maxItems + 1
		}
		end := min(len(items), start+maxItems)

		for i := start; i < end; i++ {
			item := items[i]
			cursor := "  "
			style := lipgloss.NewStyle().Foreground(colorMuted)
			if i == a.state.historyCursor {
				cursor = "> "
				style = lipgloss.NewStyle().Foreground(colorSecondary).Bold(true)
			}
			marker := ""
			if item.ID == loaded {
				marker = "  (open)"
			}
			list.WriteString(style.Render(fmt.Sprintf("%s%s%s", cursor, item.Time().Format("Jan 2 15:04:05"), marker)))
			list.WriteString("\n")
			list.WriteString(styleSubtitle.Render("    " + truncate(firstLine(item.Result.FinalToneBlock), width-8)))
			list.WriteString("\n\n")
		}

		listBox := styleBox.
			Width(width).
			BorderForeground(colorPrimary).
			Render(strings.TrimSpace(list.String()))
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, listBox))
	}
	b.WriteString("\n\n")

	if a.state.copied {
		copied := lipgloss.NewStyle().Foreground(colorSuccess).Render("Copied to clipboard")
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, copied))
		b.WriteString("\n")
	} else if a.state.hint != "" {
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, styleHint.Render(a.state.hint)))
		b.WriteString("\n")
	}

	// Status bar
	statusBar := styleStatusBar.Render("[j/k] Navigate  [Enter] Restore  [1-4] Copy prompt  [w] Save  [d] Delete  [Esc] Back")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, statusBar))

	return a.centerVertically(b.String())
}
