package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/sant0-9/soapflow/internal/config"
	"github.com/sant0-9/soapflow/internal/history"
	"github.com/sant0-9/soapflow/internal/llm"
)

// focus is the text field receiving keys, if any
type focus int

const (
	focusNone focus = iota
	focusPath
	focusTone
	focusFeedback
	focusPrompt
	focusRefine
	focusTemplate
)

type state struct {
	// Config
	config     *config.Config
	needsSetup bool

	// Setup wizard state
	setupStep        int
	selectedProvider int
	apiKeyInput      textinput.Model
	setupError       error

	// Settings
	settingsMode     string
	settingsSelected int

	// Provider
	provider      llm.Provider
	providerReady bool
	providerError error

	focus focus

	// Idle: a dropped, pasted or typed image path
	pathInput textinput.Model

	// hint is a one-line notice that is not an error, like an ignored drop
	hint string

	// Review
	toneArea      textarea.Model
	feedbackInput textinput.Model

	// Result
	activeTab   int
	promptArea  textarea.Model
	refineInput textinput.Model
	promptView  viewport.Model
	copied      bool
	copySeq     int

	// History
	historyItems  []history.Item
	historyCursor int

	// Templates
	templateCursor int
	templateArea   textarea.Model

	spinner spinner.Model
}

func newState() *state {
	input := textinput.New()
	input.Placeholder = "Drop a screenshot, paste or type its path... (/help)"
	input.CharLimit = 2048
	input.Width = 60

	apiKey := textinput.New()
	apiKey.Placeholder = "Paste your API key here..."
	apiKey.EchoMode = textinput.EchoPassword
	apiKey.CharLimit = 200
	apiKey.Width = 50

	tone := textarea.New()
	tone.Placeholder = "Tone block"
	tone.ShowLineNumbers = false
	tone.CharLimit = 0

	feedback := textinput.New()
	feedback.Placeholder = "What should change? (optional)"
	feedback.CharLimit = 500
	feedback.Width = 60

	prompt := textarea.New()
	prompt.ShowLineNumbers = false
	prompt.CharLimit = 0

	refine := textinput.New()
	refine.Placeholder = "e.g. make the crumble slower, add more dust"
	refine.CharLimit = 500
	refine.Width = 60

	tpl := textarea.New()
	tpl.ShowLineNumbers = false
	tpl.CharLimit = 0

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = spin.Style.Foreground(colorPrimary)

	return &state{
		pathInput:     input,
		apiKeyInput:   apiKey,
		toneArea:      tone,
		feedbackInput: feedback,
		promptArea:    prompt,
		refineInput:   refine,
		promptView:    viewport.New(70, 20),
		templateArea:  tpl,
		spinner:       spin,
	}
}
