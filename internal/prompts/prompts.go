package prompts

import (
	_ "embed"
	"strings"
	"text/template"
)

const (
	// StrategistRole is the system prompt for tone-block extraction
	StrategistRole = "You are an expert ASMR Content Strategist specializing in soap crushing videos."

	// EngineerRole is the system prompt for rewriting and refining
	EngineerRole = "You are an expert ASMR Prompt Engineer."

	toneBlockMarker = "{{TONE_BLOCK}}"
)

//go:embed extract_tone.md
var extractToneSource string

//go:embed rewrite_master.md
var rewriteMasterSource string

//go:embed refine.md
var refineSource string

// Master prompts contain a literal {{TONE_BLOCK}}, so the instruction
// templates use [[ ]] for their own actions.
var (
	extractTone   = mustParse("extract_tone", extractToneSource)
	rewriteMaster = mustParse("rewrite_master", rewriteMasterSource)
	refine        = mustParse("refine", refineSource)
)

func mustParse(name, src string) *template.Template {
	return template.Must(template.New(name).Delims("[[", "]]").Parse(src))
}

func render(t *template.Template, data any) string {
	var b strings.Builder
	// Templates are fixed and data is plain strings, so Execute can only
	// fail on a writer error, which strings.Builder never returns.
	_ = t.Execute(&b, data)
	return strings.TrimSpace(b.String())
}

// ExtractToneBlock builds the instruction that asks a vision model to fill
// the tone-block template from a screenshot. Feedback is optional.
func ExtractToneBlock(toneTemplate, feedback string) string {
	return render(extractTone, struct {
		Template string
		Feedback string
	}{toneTemplate, strings.TrimSpace(feedback)})
}

// RewriteMasterPrompt builds the instruction that merges a tone block into
// one master prompt.
func RewriteMasterPrompt(toneBlock, masterTemplate string) string {
	return render(rewriteMaster, struct {
		ToneBlock string
		Template  string
		Marker    string
	}{toneBlock, masterTemplate, toneBlockMarker})
}

// RefinePrompt builds the instruction for an incremental edit.
func RefinePrompt(current, instruction string) string {
	return render(refine, struct {
		Prompt      string
		Instruction string
	}{current, instruction})
}
