package workflow

import (
	"github.com/sant0-9/soapflow/internal/asmr"
	"github.com/sant0-9/soapflow/internal/imageinput"
)

// Status is the stage the workflow is in
type Status int

const (
	Idle Status = iota
	AnalyzingTone
	ReviewTone
	GeneratingPrompts
	Success
	Error
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case AnalyzingTone:
		return "analyzing_tone"
	case ReviewTone:
		return "review_tone"
	case GeneratingPrompts:
		return "generating_prompts"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Busy reports whether a model call owned by the status is in flight
func (s Status) Busy() bool {
	return s == AnalyzingTone || s == GeneratingPrompts
}

// State is everything the UI needs to render one session
type State struct {
	Status Status

	// Image is the selected screenshot. Nil after a history restore.
	Image *imageinput.Image

	// ToneBlock is the working copy the user reviews and edits
	ToneBlock string

	Result *asmr.GeneratedResult

	// Err is the inline message shown until the next successful action
	Err string

	// LoadedHistoryID is set right after a restore and cleared once the
	// restored result is changed, so an untouched restore is never saved twice.
	LoadedHistoryID string

	Refining     bool
	RefiningType asmr.ContentType

	// Session tags outgoing requests. It changes on every new image,
	// new session and restore.
	Session string
}

// Clone returns a copy sharing no mutable maps with s
func (s State) Clone() State {
	out := s
	out.Result = s.Result.Clone()
	if s.Image != nil {
		img := *s.Image
		out.Image = &img
	}
	return out
}

// InFlight reports whether any model call is pending
func (s State) InFlight() bool {
	return s.Status.Busy() || s.Refining
}
