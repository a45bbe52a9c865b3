package workflow

import (
	"context"

	"github.com/sant0-9/soapflow/internal/asmr"
)

// Event is the completion of a Request, fed back through Controller.Apply
type Event interface {
	session() string
}

// ToneExtracted completes an extraction or regeneration
type ToneExtracted struct {
	Session      string
	Regeneration bool
	ToneBlock    string
	Err          error
}

// PromptsGenerated completes the four-way rewrite. Prompts is nil on failure.
type PromptsGenerated struct {
	Session        string
	Prompts        map[asmr.ContentType]string
	FinalToneBlock string
	Err            error
}

// PromptRefined completes a refinement of one prompt
type PromptRefined struct {
	Session string
	Type    asmr.ContentType
	Text    string
	Err     error
}

func (e ToneExtracted) session() string    { return e.Session }
func (e PromptsGenerated) session() string { return e.Session }
func (e PromptRefined) session() string    { return e.Session }

// Request is a pending model call. Run blocks, so callers execute it off
// the event loop and hand the returned Event back to Apply.
type Request struct {
	Session string
	Op      string
	run     func(ctx context.Context) Event
}

func (r *Request) Run(ctx context.Context) Event {
	return r.run(ctx)
}
