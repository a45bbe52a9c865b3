package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/sant0-9/soapflow/internal/asmr"
	"github.com/sant0-9/soapflow/internal/clipboard"
	"github.com/sant0-9/soapflow/internal/config"
	"github.com/sant0-9/soapflow/internal/export"
	"github.com/sant0-9/soapflow/internal/gateway"
	"github.com/sant0-9/soapflow/internal/history"
	"github.com/sant0-9/soapflow/internal/imageinput"
	"github.com/sant0-9/soapflow/internal/llm"
	"github.com/sant0-9/soapflow/internal/templates"
	"github.com/sant0-9/soapflow/internal/workflow"
)

type view int

const (
	viewMain view = iota
	viewSetup
	viewHistory
	viewTemplates
	viewSettings
	viewHelp
)

// Deps are the services the UI drives
type Deps struct {
	// Config is nil on first run, which starts the setup wizard
	Config    *config.Config
	Templates *templates.Store
	History   history.Store
	Clipboard clipboard.Writer
	Logger    logrus.FieldLogger

	// Connect builds a provider from config. Defaults to llm.NewProvider.
	Connect func(cfg *config.Config) (llm.Provider, error)
}

type App struct {
	width    int
	height   int
	view     view
	state    *state
	quitting bool

	ctrl      *workflow.Controller
	templates *templates.Store
	history   history.Store
	clip      clipboard.Writer
	log       logrus.FieldLogger
	connect   func(cfg *config.Config) (llm.Provider, error)
}

func NewApp(deps Deps) *App {
	s := newState()

	if deps.Config == nil {
		s.needsSetup = true
		s.config = config.DefaultConfig()
	} else {
		s.config = deps.Config
	}
	if deps.Connect == nil {
		deps.Connect = llm.NewProvider
	}
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}
	if deps.Clipboard == nil {
		deps.Clipboard = clipboard.System{}
	}
	if deps.History == nil {
		deps.History = history.NewMemoryStore()
	}

	a := &App{
		view:      viewMain,
		state:     s,
		templates: deps.Templates,
		history:   deps.History,
		clip:      deps.Clipboard,
		log:       deps.Logger,
		connect:   deps.Connect,
	}
	if s.needsSetup {
		a.view = viewSetup
	} else {
		a.buildController()
	}
	return a
}

// buildController wires a provider for the current config into a fresh
// controller. Failures are kept as providerError and shown on screen.
func (a *App) buildController() {
	a.state.providerReady = false
	a.state.providerError = nil

	provider, err := a.connect(a.state.config)
	if err != nil {
		a.state.providerError = err
		return
	}
	a.state.provider = provider

	gw := gateway.New(provider,
		gateway.WithTimeout(a.state.config.Timeout()),
		gateway.WithLogger(a.log),
	)
	a.ctrl = workflow.New(gw, a.templates, a.history, workflow.WithLogger(a.log))
	a.state.focus = focusPath
	a.state.pathInput.Focus()
}

func (a *App) Init() tea.Cmd {
	if a.state.needsSetup {
		return tea.Batch(tea.WindowSize(), textinput.Blink)
	}

	// Test provider connection
	return tea.Batch(
		tea.WindowSize(),
		textinput.Blink,
		a.testProvider(),
	)
}

func (a *App) testProvider() tea.Cmd {
	provider := a.state.provider
	if provider == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := provider.Ping(ctx); err != nil {
			return providerErrorMsg{err}
		}
		return providerReadyMsg{}
	}
}

type setupCompleteMsg struct{}
type setupErrorMsg struct{ error }
type providerReadyMsg struct{}
type providerErrorMsg struct{ error }

// workflowEventMsg carries a finished model call back to the event loop
type workflowEventMsg struct {
	event workflow.Event
}

type copiedClearMsg struct{ seq int }

// dispatch runs a controller request off the event loop
func (a *App) dispatch(req *workflow.Request) tea.Cmd {
	if req == nil {
		return nil
	}
	a.log.WithFields(logrus.Fields{
		"session": req.Session,
		"op":      req.Op,
	}).Debug("dispatching request")
	return tea.Batch(
		func() tea.Msg {
			return workflowEventMsg{req.Run(context.Background())}
		},
		a.state.spinner.Tick,
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a, a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resize()
		return a, nil

	case spinner.TickMsg:
		if !a.busy() {
			return a, nil
		}
		var cmd tea.Cmd
		a.state.spinner, cmd = a.state.spinner.Update(msg)
		return a, cmd

	case workflowEventMsg:
		if a.ctrl != nil && a.ctrl.Apply(msg.event) {
			a.syncWorkViews()
		}
		return a, nil

	case copiedClearMsg:
		if msg.seq == a.state.copySeq {
			a.state.copied = false
		}
		return a, nil

	case setupCompleteMsg:
		a.state.needsSetup = false
		a.state.setupError = nil
		a.view = viewMain
		a.buildController()
		return a, a.testProvider()

	case setupErrorMsg:
		a.state.setupError = msg.error
		return a, nil

	case providerReadyMsg:
		a.state.providerReady = true
		a.log.WithField("provider", a.state.provider.Name()).Info("provider ready")
		return a, textinput.Blink

	case providerErrorMsg:
		a.state.providerError = msg.error
		a.log.WithError(msg.error).Warn("provider check failed")
		return a, nil
	}

	return a, a.updateFocused(msg)
}

func (a *App) busy() bool {
	return a.ctrl != nil && a.ctrl.State().InFlight()
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, keys.Quit) {
		a.quitting = true
		return tea.Quit
	}

	if a.view == viewSetup {
		return a.handleSetupKey(msg)
	}

	if a.state.focus != focusNone {
		return a.handleFieldKey(msg)
	}

	switch a.view {
	case viewHelp:
		return a.handleOverlayKey(msg)
	case viewSettings:
		return a.handleSettingsKey(msg)
	case viewHistory:
		return a.handleHistoryKey(msg)
	case viewTemplates:
		return a.handleTemplatesKey(msg)
	}

	if a.ctrl == nil {
		return a.handleDisconnectedKey(msg)
	}

	// A paste outside a text field is treated as an image drop
	if msg.Paste {
		return a.tryImage(string(msg.Runes), true)
	}

	switch {
	case key.Matches(msg, keys.Help):
		a.view = viewHelp
		return nil
	case key.Matches(msg, keys.History):
		return a.openHistory()
	case key.Matches(msg, keys.Templates):
		a.view = viewTemplates
		return nil
	case key.Matches(msg, keys.Settings):
		a.view = viewSettings
		return nil
	case key.Matches(msg, keys.Dismiss):
		a.ctrl.DismissError()
		a.state.hint = ""
		return nil
	case key.Matches(msg, keys.New):
		return a.newSession()
	}

	switch st := a.ctrl.State(); st.Status {
	case workflow.AnalyzingTone:
		// The tone block stays editable while a regeneration runs
		if st.ToneBlock != "" && key.Matches(msg, keys.Edit) {
			a.state.toneArea.SetValue(st.ToneBlock)
			a.focusField(focusTone)
			return textarea.Blink
		}
	case workflow.ReviewTone:
		return a.handleReviewKey(msg)
	case workflow.Success:
		return a.handleResultKey(msg)
	case workflow.Error:
		return a.handleErrorKey(msg)
	case workflow.Idle:
		a.focusField(focusPath)
		return textinput.Blink
	}
	return nil
}

func (a *App) handleDisconnectedKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Back):
		a.quitting = true
		return tea.Quit
	case key.Matches(msg, keys.Settings), msg.String() == "s":
		a.startSetup()
		return nil
	case key.Matches(msg, keys.Regenerate):
		a.buildController()
		return a.testProvider()
	}
	return nil
}

func (a *App) handleOverlayKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, keys.Back) {
		a.closeOverlay()
	}
	return nil
}

func (a *App) closeOverlay() {
	a.view = viewMain
	if a.ctrl != nil && a.ctrl.State().Status == workflow.Idle {
		a.focusField(focusPath)
	}
}

// focusField moves keyboard focus to one text field
func (a *App) focusField(f focus) {
	s := a.state
	s.pathInput.Blur()
	s.toneArea.Blur()
	s.feedbackInput.Blur()
	s.promptArea.Blur()
	s.refineInput.Blur()
	s.templateArea.Blur()

	s.focus = f
	switch f {
	case focusPath:
		s.pathInput.Focus()
	case focusTone:
		s.toneArea.Focus()
	case focusFeedback:
		s.feedbackInput.Focus()
	case focusPrompt:
		s.promptArea.Focus()
	case focusRefine:
		s.refineInput.Focus()
	case focusTemplate:
		s.templateArea.Focus()
	}
}

// handleFieldKey handles enter and esc for the focused field and passes
// everything else through to it.
func (a *App) handleFieldKey(msg tea.KeyMsg) tea.Cmd {
	s := a.state
	switch s.focus {
	case focusPath:
		switch {
		case key.Matches(msg, keys.Enter):
			return a.handleInput()
		case key.Matches(msg, keys.Back):
			if s.pathInput.Value() != "" {
				s.pathInput.Reset()
				return nil
			}
			a.quitting = true
			return tea.Quit
		case msg.Paste:
			// Dropped files arrive as a paste; take them straight away
			if cmd, ok := a.tryPastedImage(string(msg.Runes)); ok {
				return cmd
			}
		}

	case focusTone:
		if key.Matches(msg, keys.Back) {
			a.ctrl.EditToneBlock(s.toneArea.Value())
			a.focusField(focusNone)
			return nil
		}

	case focusFeedback:
		switch {
		case key.Matches(msg, keys.Enter):
			feedback := strings.TrimSpace(s.feedbackInput.Value())
			s.feedbackInput.Reset()
			a.focusField(focusNone)
			return a.regenerate(feedback)
		case key.Matches(msg, keys.Back):
			s.feedbackInput.Reset()
			a.focusField(focusNone)
			return nil
		}

	case focusPrompt:
		if key.Matches(msg, keys.Back) {
			// Closing the editor without a change keeps a restored result
			// marked as already saved.
			st := a.ctrl.State()
			text := s.promptArea.Value()
			if st.Result != nil && st.Result.Prompts[a.activeType()] != text {
				if err := a.ctrl.EditPrompt(a.activeType(), text); err != nil {
					s.hint = err.Error()
				}
			}
			a.focusField(focusNone)
			a.syncWorkViews()
			return nil
		}

	case focusRefine:
		switch {
		case key.Matches(msg, keys.Enter):
			instruction := s.refineInput.Value()
			req, err := a.ctrl.Refine(a.activeType(), instruction)
			if err != nil {
				s.hint = err.Error()
				return nil
			}
			s.refineInput.Reset()
			a.focusField(focusNone)
			return a.dispatch(req)
		case key.Matches(msg, keys.Back):
			s.refineInput.Reset()
			a.focusField(focusNone)
			return nil
		}

	case focusTemplate:
		if key.Matches(msg, keys.Back) {
			a.saveTemplate()
			a.focusField(focusNone)
			return nil
		}
	}

	cmd := a.updateFocused(msg)
	if s.focus == focusTone {
		a.ctrl.EditToneBlock(s.toneArea.Value())
	}
	return cmd
}

// updateFocused forwards msg to the focused field
func (a *App) updateFocused(msg tea.Msg) tea.Cmd {
	s := a.state
	var cmd tea.Cmd
	switch {
	case a.view == viewSetup && s.setupStep == 1:
		s.apiKeyInput, cmd = s.apiKeyInput.Update(msg)
	case s.focus == focusPath:
		s.pathInput, cmd = s.pathInput.Update(msg)
	case s.focus == focusTone:
		s.toneArea, cmd = s.toneArea.Update(msg)
	case s.focus == focusFeedback:
		s.feedbackInput, cmd = s.feedbackInput.Update(msg)
	case s.focus == focusPrompt:
		s.promptArea, cmd = s.promptArea.Update(msg)
	case s.focus == focusRefine:
		s.refineInput, cmd = s.refineInput.Update(msg)
	case s.focus == focusTemplate:
		s.templateArea, cmd = s.templateArea.Update(msg)
	case a.ctrl != nil && a.ctrl.State().Status == workflow.Success:
		s.promptView, cmd = s.promptView.Update(msg)
	}
	return cmd
}

var commands = map[string]view{
	"/help":      viewHelp,
	"/h":         viewHelp,
	"/history":   viewHistory,
	"/templates": viewTemplates,
	"/t":         viewTemplates,
	"/settings":  viewSettings,
	"/s":         viewSettings,
}

func (a *App) handleInput() tea.Cmd {
	input := strings.TrimSpace(a.state.pathInput.Value())
	if input == "" {
		return nil
	}

	// Handle slash commands. Anything else, including absolute paths, is
	// taken as an image path.
	cmd := strings.ToLower(input)
	if cmd == "/quit" || cmd == "/q" {
		a.quitting = true
		return tea.Quit
	}
	if v, ok := commands[cmd]; ok {
		a.state.pathInput.Reset()
		a.focusField(focusNone)
		if v == viewHistory {
			return a.openHistory()
		}
		a.view = v
		return nil
	}

	a.state.pathInput.Reset()
	return a.tryImage(input, false)
}

// tryPastedImage selects the pasted file if it is an image. It reports
// false when the paste should be typed into the field instead.
func (a *App) tryPastedImage(payload string) (tea.Cmd, bool) {
	img, err := imageinput.FirstImage(payload)
	if err != nil {
		return nil, false
	}
	a.state.pathInput.Reset()
	return a.selectImage(img), true
}

// tryImage selects the first image in payload. Anything that is not an
// image is ignored with a hint; it never puts the workflow into an error.
func (a *App) tryImage(payload string, pasted bool) tea.Cmd {
	img, err := imageinput.FirstImage(payload)
	if err != nil {
		a.log.WithError(err).Debug("ignoring non-image input")
		switch {
		case errors.Is(err, imageinput.ErrNotImage):
			a.state.hint = "That is not an image. Drop a PNG, JPEG, WebP or GIF screenshot."
		case pasted:
			a.state.hint = "Paste ignored: no image file found."
		default:
			a.state.hint = err.Error()
		}
		return nil
	}
	return a.selectImage(img)
}

func (a *App) selectImage(img *imageinput.Image) tea.Cmd {
	a.state.hint = ""
	a.state.activeTab = 0
	a.view = viewMain
	a.focusField(focusNone)
	req := a.ctrl.SelectImage(img)
	a.syncWorkViews()
	return a.dispatch(req)
}

func (a *App) regenerate(feedback string) tea.Cmd {
	req := a.ctrl.Regenerate(feedback)
	if req == nil {
		if a.ctrl.State().Image == nil {
			a.state.hint = "No screenshot for this result. Drop a new one to regenerate."
		}
		return nil
	}
	a.state.hint = ""
	return a.dispatch(req)
}

func (a *App) approve() tea.Cmd {
	req, err := a.ctrl.Approve()
	if err != nil {
		a.state.hint = err.Error()
		return nil
	}
	a.state.hint = ""
	return a.dispatch(req)
}

func (a *App) newSession() tea.Cmd {
	item, err := a.ctrl.NewSession(context.Background())
	if err != nil {
		return nil
	}
	a.state.hint = ""
	if item != nil {
		a.state.hint = "Saved to history."
	}
	a.state.activeTab = 0
	a.focusField(focusPath)
	a.syncWorkViews()
	return textinput.Blink
}

func (a *App) copyText(text string) tea.Cmd {
	if err := a.clip.WriteText(text); err != nil {
		a.state.hint = "Copy failed: " + err.Error()
		return nil
	}
	a.state.copied = true
	a.state.copySeq++
	seq := a.state.copySeq
	return tea.Tick(2*time.Second, func(time.Time) tea.Msg {
		return copiedClearMsg{seq}
	})
}

// exportResult writes result to the export directory and reports the path
func (a *App) exportResult(result *asmr.GeneratedResult, historyID string) {
	dir, err := a.state.config.ExportDir()
	if err == nil {
		var path string
		path, err = export.WriteFile(dir, result, export.Metadata{
			HistoryID: historyID,
			Model:     a.state.config.Model,
		})
		if err == nil {
			a.log.WithField("path", path).Info("exported prompts")
			a.state.hint = "Saved to " + path
			return
		}
	}
	a.log.WithError(err).Warn("export failed")
	a.state.hint = "Export failed: " + err.Error()
}

func (a *App) activeType() asmr.ContentType {
	return asmr.ContentTypes[a.state.activeTab%len(asmr.ContentTypes)]
}

// syncWorkViews copies controller state into the widgets showing it
func (a *App) syncWorkViews() {
	if a.ctrl == nil {
		return
	}
	st := a.ctrl.State()
	if a.state.focus != focusTone {
		a.state.toneArea.SetValue(st.ToneBlock)
	}
	if st.Result != nil {
		a.state.promptView.SetContent(st.Result.Prompts[a.activeType()])
	} else {
		a.state.promptView.SetContent("")
	}
}

func (a *App) resize() {
	w := min(90, a.width-4)
	if w < 20 {
		w = 20
	}
	h := a.height - 16
	if h < 5 {
		h = 5
	}
	s := a.state
	s.toneArea.SetWidth(w - 4)
	s.toneArea.SetHeight(h)
	s.promptArea.SetWidth(w - 4)
	s.promptArea.SetHeight(h)
	s.templateArea.SetWidth(w - 4)
	s.templateArea.SetHeight(h)
	s.promptView.Width = w - 4
	s.promptView.Height = h
	s.pathInput.Width = w - 8
	s.feedbackInput.Width = w - 8
	s.refineInput.Width = w - 8
}

func (a *App) View() string {
	if a.quitting {
		return ""
	}

	switch a.view {
	case viewSetup:
		return a.renderSetup()
	case viewSettings:
		return a.renderSettings()
	case viewHelp:
		return a.renderHelp()
	case viewHistory:
		return a.renderHistory()
	case viewTemplates:
		return a.renderTemplates()
	}

	if a.ctrl == nil {
		return a.renderProviderError()
	}

	st := a.ctrl.State()
	switch st.Status {
	case workflow.AnalyzingTone:
		// The big indicator is only for the first analysis; a
		// regeneration keeps the review on screen.
		if st.ToneBlock == "" {
			return a.renderProcessing(st)
		}
		return a.renderReview(st)
	case workflow.GeneratingPrompts:
		return a.renderProcessing(st)
	case workflow.ReviewTone:
		return a.renderReview(st)
	case workflow.Success:
		return a.renderResult(st)
	case workflow.Error:
		return a.renderError(st)
	default:
		return a.renderWelcome()
	}
}

// statusLine renders the inline error or hint above the key bar
func (a *App) statusLine(st workflow.State) string {
	switch {
	case st.Err != "":
		return styleError.Render(truncate(st.Err, max(20, a.width-4))) + styleStatusBar.Render("  [x] dismiss")
	case a.state.hint != "":
		return styleHint.Render(truncate(a.state.hint, max(20, a.width-4)))
	}
	return ""
}

func (a *App) providerLabel() string {
	if a.state.config == nil {
		return ""
	}
	model := a.state.config.Model
	if model == "" {
		if p := config.GetProvider(a.state.config.Provider); p != nil {
			model = p.DefaultModel
		}
	}
	return fmt.Sprintf("%s via %s", model, a.state.config.Provider)
}
