// Package workflow drives one screenshot-to-prompts session.
//
// The Controller owns the State. Intent methods change it and, when a
// model call is needed, return a Request. The caller runs the Request off
// its event loop and passes the resulting Event to Apply. Every Request is
// tagged with the session it was issued for; events for a session that has
// since been reset or replaced are dropped.
//
// A Controller is not safe for concurrent use. Call it from one goroutine.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sant0-9/soapflow/internal/asmr"
	"github.com/sant0-9/soapflow/internal/gateway"
	"github.com/sant0-9/soapflow/internal/history"
	"github.com/sant0-9/soapflow/internal/imageinput"
	"github.com/sant0-9/soapflow/internal/templates"
)

var (
	ErrBusy             = errors.New("a request is already in progress")
	ErrNoResult         = errors.New("no generated prompts")
	ErrNothingToApprove = errors.New("nothing to approve")
	ErrEmptyInstruction = errors.New("instruction is empty")
)

// Gateway is the model-backed text generation the workflow needs
type Gateway interface {
	ExtractToneBlock(ctx context.Context, image []byte, mimeType, toneTemplate, feedback string) (string, error)
	RewriteMasterPrompt(ctx context.Context, toneBlock, masterTemplate string) (string, error)
	RefinePrompt(ctx context.Context, current, instruction string) (string, error)
}

// TemplateSource supplies the current templates
type TemplateSource interface {
	Current() templates.PromptTemplates
}

type Controller struct {
	gw      Gateway
	tpl     TemplateSource
	history history.Store

	now   func() time.Time
	newID func() string
	log   logrus.FieldLogger
	state State
}

type Option func(*Controller)

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithSessionIDs replaces the session tag generator
func WithSessionIDs(next func() string) Option {
	return func(c *Controller) { c.newID = next }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Controller) { c.log = log }
}

func New(gw Gateway, tpl TemplateSource, hist history.Store, opts ...Option) *Controller {
	c := &Controller{
		gw:      gw,
		tpl:     tpl,
		history: hist,
		now:     time.Now,
		newID:   uuid.NewString,
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.state = State{Status: Idle, Session: c.newID()}
	return c
}

// State returns a copy of the current state
func (c *Controller) State() State {
	return c.state.Clone()
}

// History exposes the store for listing
func (c *Controller) History() history.Store {
	return c.history
}

func (c *Controller) transition(to Status) {
	if c.state.Status != to {
		c.logger().WithFields(logrus.Fields{
			"from": c.state.Status,
			"to":   to,
		}).Debug("status change")
	}
	c.state.Status = to
}

func (c *Controller) logger() logrus.FieldLogger {
	return c.log.WithField("session", c.state.Session)
}

// SelectImage starts a fresh session for img and returns the extraction
// request. Anything in flight for the previous session is dropped on arrival.
func (c *Controller) SelectImage(img *imageinput.Image) *Request {
	c.state = State{
		Status:  c.state.Status,
		Image:   img,
		Session: c.newID(),
	}
	c.transition(AnalyzingTone)
	c.logger().WithField("image", img.Name).Info("image selected")
	return c.extractRequest("", false)
}

// EditToneBlock replaces the working tone block verbatim.
func (c *Controller) EditToneBlock(text string) {
	c.state.ToneBlock = text
}

// Regenerate re-runs extraction on the selected image with optional
// feedback. It returns nil and leaves the state alone when no image is
// selected or a call is already pending.
func (c *Controller) Regenerate(feedback string) *Request {
	if c.state.Image == nil {
		c.logger().Debug("regenerate ignored: no image")
		return nil
	}
	if c.state.InFlight() {
		c.logger().Debug("regenerate ignored: busy")
		return nil
	}
	c.state.Err = ""
	c.state.LoadedHistoryID = ""
	c.transition(AnalyzingTone)
	return c.extractRequest(feedback, true)
}

func (c *Controller) extractRequest(feedback string, regeneration bool) *Request {
	session := c.state.Session
	img := c.state.Image
	tpl := c.tpl.Current().ToneBlockTemplate
	gw := c.gw

	return &Request{
		Session: session,
		Op:      gateway.OpExtract,
		run: func(ctx context.Context) Event {
			text, err := gw.ExtractToneBlock(ctx, img.Data, img.MimeType, tpl, feedback)
			return ToneExtracted{
				Session:      session,
				Regeneration: regeneration,
				ToneBlock:    text,
				Err:          err,
			}
		},
	}
}

// Approve rewrites every master prompt with the current tone block. It is
// accepted from ReviewTone, and from Success to regenerate the prompts.
func (c *Controller) Approve() (*Request, error) {
	if c.state.Status != ReviewTone && c.state.Status != Success {
		return nil, ErrNothingToApprove
	}
	if c.state.Refining {
		return nil, ErrBusy
	}
	c.state.Err = ""
	c.state.LoadedHistoryID = ""
	c.transition(GeneratingPrompts)

	session := c.state.Session
	toneBlock := c.state.ToneBlock
	masters := c.tpl.Current().MasterPrompts
	gw := c.gw

	return &Request{
		Session: session,
		Op:      gateway.OpRewrite,
		run: func(ctx context.Context) Event {
			prompts, err := rewriteAll(ctx, gw, toneBlock, masters)
			return PromptsGenerated{
				Session:        session,
				Prompts:        prompts,
				FinalToneBlock: toneBlock,
				Err:            err,
			}
		},
	}, nil
}

// rewriteAll issues one rewrite per content type concurrently. The first
// failure cancels the rest and no partial map is returned.
func rewriteAll(ctx context.Context, gw Gateway, toneBlock string, masters map[asmr.ContentType]string) (map[asmr.ContentType]string, error) {
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	out := make(map[asmr.ContentType]string, len(asmr.ContentTypes))

	for _, ct := range asmr.ContentTypes {
		master := masters[ct]
		g.Go(func() error {
			text, err := gw.RewriteMasterPrompt(gctx, toneBlock, master)
			if err != nil {
				return fmt.Errorf("%s: %w", ct, err)
			}
			mu.Lock()
			out[ct] = text
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// EditPrompt replaces one prompt of the current result.
func (c *Controller) EditPrompt(ct asmr.ContentType, text string) error {
	if c.state.Result == nil {
		return ErrNoResult
	}
	if !ct.Valid() {
		return fmt.Errorf("%w: %q", templates.ErrUnknownContentType, ct)
	}
	c.state.Result.Prompts[ct] = text
	c.state.LoadedHistoryID = ""
	return nil
}

// Refine asks the model to apply instruction to one prompt.
func (c *Controller) Refine(ct asmr.ContentType, instruction string) (*Request, error) {
	if c.state.Result == nil {
		return nil, ErrNoResult
	}
	if !ct.Valid() {
		return nil, fmt.Errorf("%w: %q", templates.ErrUnknownContentType, ct)
	}
	if c.state.InFlight() {
		return nil, ErrBusy
	}
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return nil, ErrEmptyInstruction
	}

	c.state.Refining = true
	c.state.RefiningType = ct
	c.state.Err = ""
	c.state.LoadedHistoryID = ""
	c.logger().WithField("content_type", ct).Debug("refining prompt")

	session := c.state.Session
	current := c.state.Result.Prompts[ct]
	gw := c.gw

	return &Request{
		Session: session,
		Op:      gateway.OpRefine,
		run: func(ctx context.Context) Event {
			text, err := gw.RefinePrompt(ctx, current, instruction)
			return PromptRefined{Session: session, Type: ct, Text: text, Err: err}
		},
	}, nil
}

// Apply folds a completed request into the state. It reports false when
// the event was dropped as stale.
func (c *Controller) Apply(ev Event) bool {
	log := c.logger()
	if ev.session() != c.state.Session {
		log.WithField("event_session", ev.session()).Debug("dropping event for old session")
		return false
	}

	switch ev := ev.(type) {
	case ToneExtracted:
		if c.state.Status != AnalyzingTone {
			log.Debug("dropping unexpected tone block")
			return false
		}
		c.applyTone(ev)

	case PromptsGenerated:
		if c.state.Status != GeneratingPrompts {
			log.Debug("dropping unexpected prompts")
			return false
		}
		c.applyPrompts(ev)

	case PromptRefined:
		if !c.state.Refining || c.state.RefiningType != ev.Type || c.state.Result == nil {
			log.Debug("dropping unexpected refinement")
			return false
		}
		c.applyRefinement(ev)

	default:
		return false
	}
	return true
}

func (c *Controller) applyTone(ev ToneExtracted) {
	if ev.Err != nil {
		c.logger().WithError(ev.Err).Warn("tone extraction failed")
		if ev.Regeneration {
			c.state.Err = "Failed to regenerate. " + gateway.Reason(ev.Err)
		} else {
			c.state.Err = "Failed to analyze image. " + gateway.Reason(ev.Err)
		}
		if c.state.ToneBlock != "" {
			c.transition(ReviewTone)
		} else {
			c.transition(Error)
		}
		return
	}
	c.state.ToneBlock = ev.ToneBlock
	c.state.Err = ""
	c.transition(ReviewTone)
}

func (c *Controller) applyPrompts(ev PromptsGenerated) {
	if ev.Err != nil {
		c.logger().WithError(ev.Err).Warn("prompt generation failed")
		c.state.Err = "Failed to generate master prompts. " + gateway.Reason(ev.Err)
		c.transition(ReviewTone)
		return
	}
	result := &asmr.GeneratedResult{
		Prompts:        ev.Prompts,
		FinalToneBlock: ev.FinalToneBlock,
	}
	if !result.Complete() {
		c.logger().WithField("prompts", len(ev.Prompts)).Warn("prompt set incomplete")
		c.state.Err = "Failed to generate master prompts. Some content types came back empty."
		c.transition(ReviewTone)
		return
	}
	c.state.Result = result
	c.state.Err = ""
	c.transition(Success)
}

func (c *Controller) applyRefinement(ev PromptRefined) {
	c.state.Refining = false
	c.state.RefiningType = ""
	if ev.Err != nil {
		c.logger().WithError(ev.Err).WithField("content_type", ev.Type).Warn("refinement failed")
		c.state.Err = fmt.Sprintf("Failed to refine %s prompt. %s", ev.Type, gateway.Reason(ev.Err))
		return
	}
	c.state.Result.Prompts[ev.Type] = ev.Text
	c.state.Err = ""
}

// NewSession saves the current result to history unless it is an
// untouched restore, then resets to Idle. It returns the saved item, if
// any. When saving fails the state is kept so nothing is lost.
func (c *Controller) NewSession(ctx context.Context) (*history.Item, error) {
	var saved *history.Item
	if c.state.Result != nil && c.state.LoadedHistoryID == "" {
		item := history.NewItem(c.now(), c.state.Result, func(id string) bool {
			_, err := c.history.Get(ctx, id)
			return err == nil
		})
		if err := c.history.Append(ctx, item); err != nil {
			c.logger().WithError(err).Warn("saving to history failed")
			c.state.Err = "Failed to save to history. " + err.Error()
			return nil, fmt.Errorf("append history: %w", err)
		}
		c.logger().WithField("history_id", item.ID).Info("session saved")
		saved = &item
	}

	c.state = State{Status: c.state.Status, Session: c.newID()}
	c.transition(Idle)
	return saved, nil
}

// Restore loads a history item as the current result.
func (c *Controller) Restore(ctx context.Context, id string) error {
	item, err := c.history.Get(ctx, id)
	if err != nil {
		return err
	}

	c.state = State{
		Status:          c.state.Status,
		ToneBlock:       item.Result.FinalToneBlock,
		Result:          item.Result.Clone(),
		LoadedHistoryID: item.ID,
		Session:         c.newID(),
	}
	c.transition(Success)
	c.logger().WithField("history_id", id).Info("history restored")
	return nil
}

// DeleteHistory removes an item. The displayed result is left alone.
func (c *Controller) DeleteHistory(ctx context.Context, id string) error {
	if err := c.history.Remove(ctx, id); err != nil {
		return err
	}
	if c.state.LoadedHistoryID == id {
		c.state.LoadedHistoryID = ""
	}
	return nil
}

// DismissError clears the inline message
func (c *Controller) DismissError() {
	c.state.Err = ""
}
