package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit     key.Binding
	Back     key.Binding
	Help     key.Binding
	Enter    key.Binding
	Up       key.Binding
	Down     key.Binding
	Tab      key.Binding
	ShiftTab key.Binding

	Edit       key.Binding
	Regenerate key.Binding
	Approve    key.Binding
	Refine     key.Binding
	Copy       key.Binding
	New        key.Binding
	History    key.Binding
	Templates  key.Binding
	Settings   key.Binding
	Delete     key.Binding
	Reset      key.Binding
	Dismiss    key.Binding
	Export     key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "submit"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("up/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("down/j", "down"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab", "right", "l"),
		key.WithHelp("tab", "next"),
	),
	ShiftTab: key.NewBinding(
		key.WithKeys("shift+tab", "left", "h"),
		key.WithHelp("shift+tab", "previous"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit"),
	),
	Regenerate: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "regenerate"),
	),
	Approve: key.NewBinding(
		key.WithKeys("a", "g"),
		key.WithHelp("a", "approve & generate"),
	),
	Refine: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "refine"),
	),
	Copy: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "copy"),
	),
	New: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new session"),
	),
	History: key.NewBinding(
		key.WithKeys("H"),
		key.WithHelp("H", "history"),
	),
	Templates: key.NewBinding(
		key.WithKeys("T"),
		key.WithHelp("T", "templates"),
	),
	Settings: key.NewBinding(
		key.WithKeys("S"),
		key.WithHelp("S", "settings"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d", "delete"),
		key.WithHelp("d", "delete"),
	),
	Reset: key.NewBinding(
		key.WithKeys("R"),
		key.WithHelp("R", "reset to defaults"),
	),
	Dismiss: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "dismiss"),
	),
	Export: key.NewBinding(
		key.WithKeys("w"),
		key.WithHelp("w", "write to file"),
	),
}
