package gateway

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sant0-9/soapflow/internal/llm"
	"github.com/sant0-9/soapflow/internal/prompts"
)

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("empty response from model")

// Error wraps every failure of a gateway call.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

const (
	OpExtract = "extract tone block"
	OpRewrite = "rewrite master prompt"
	OpRefine  = "refine prompt"
)

// Gateway turns the three text-generation needs of the workflow into
// provider calls.
type Gateway struct {
	provider llm.Provider
	model    string
	timeout  time.Duration
	log      logrus.FieldLogger
}

type Option func(*Gateway)

// WithModel overrides the provider's default model.
func WithModel(model string) Option {
	return func(g *Gateway) { g.model = model }
}

// WithTimeout bounds each call. Zero means no bound beyond the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) { g.timeout = d }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(g *Gateway) { g.log = log }
}

func New(provider llm.Provider, opts ...Option) *Gateway {
	g := &Gateway{
		provider: provider,
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ExtractToneBlock fills the tone-block template from a screenshot.
// Feedback from a previous attempt is passed through when non-empty.
func (g *Gateway) ExtractToneBlock(ctx context.Context, image []byte, mimeType, toneTemplate, feedback string) (string, error) {
	req := llm.NewRequest(g.model, prompts.StrategistRole,
		prompts.ExtractToneBlock(toneTemplate, feedback),
		llm.Image{MimeType: mimeType, Data: image})
	return g.call(ctx, OpExtract, req)
}

// RewriteMasterPrompt merges the tone block into one master prompt.
func (g *Gateway) RewriteMasterPrompt(ctx context.Context, toneBlock, masterTemplate string) (string, error) {
	req := llm.NewRequest(g.model, prompts.EngineerRole, prompts.RewriteMasterPrompt(toneBlock, masterTemplate))
	return g.call(ctx, OpRewrite, req)
}

// RefinePrompt applies a natural-language instruction to a finished prompt.
func (g *Gateway) RefinePrompt(ctx context.Context, current, instruction string) (string, error) {
	req := llm.NewRequest(g.model, prompts.EngineerRole, prompts.RefinePrompt(current, instruction))
	return g.call(ctx, OpRefine, req)
}

func (g *Gateway) call(ctx context.Context, op string, req *llm.CompletionRequest) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	log := g.log.WithFields(logrus.Fields{
		"op":       op,
		"provider": g.provider.Name(),
	})
	start := time.Now()

	resp, err := g.provider.Complete(ctx, req)
	if err != nil {
		log.WithError(err).WithField("duration", time.Since(start)).Debug("model call failed")
		return "", &Error{Op: op, Err: err}
	}

	text := strings.TrimSpace(resp.Content)
	log.WithFields(logrus.Fields{
		"duration": time.Since(start),
		"tokens":   resp.Usage.TotalTokens,
		"chars":    len(text),
	}).Debug("model call finished")

	if text == "" {
		return "", &Error{Op: op, Err: ErrEmptyResponse}
	}
	return text, nil
}

// Reason describes a failure in a few words, without the operation name.
func Reason(err error) string {
	var gerr *Error
	if errors.As(err, &gerr) {
		err = gerr.Err
	}
	switch {
	case errors.Is(err, ErrEmptyResponse):
		return "The model returned nothing."
	case errors.Is(err, context.DeadlineExceeded):
		return "The request timed out."
	case errors.Is(err, context.Canceled):
		return "The request was cancelled."
	default:
		return err.Error()
	}
}
