package asmr

import "maps"

// ContentType identifies one of the fixed video archetypes prompts are produced for
type ContentType string

const (
	DustCore    ContentType = "Dust Core"
	ClayCore    ContentType = "Clay Core"
	StarchCore  ContentType = "Starch Core"
	CuttingSoap ContentType = "Cutting Soap"
)

// ContentTypes is the closed set in display order
var ContentTypes = []ContentType{DustCore, ClayCore, StarchCore, CuttingSoap}

// Valid reports whether t is one of the known archetypes
func (t ContentType) Valid() bool {
	switch t {
	case DustCore, ClayCore, StarchCore, CuttingSoap:
		return true
	}
	return false
}

func (t ContentType) String() string {
	return string(t)
}

// GeneratedResult is the outcome of one successful generation: a final
// prompt per content type plus the tone block they were built from
type GeneratedResult struct {
	Prompts        map[ContentType]string `json:"prompts"`
	FinalToneBlock string                 `json:"finalToneBlock"`
}

// Clone returns a deep copy that shares no maps with r
func (r *GeneratedResult) Clone() *GeneratedResult {
	if r == nil {
		return nil
	}
	return &GeneratedResult{
		Prompts:        maps.Clone(r.Prompts),
		FinalToneBlock: r.FinalToneBlock,
	}
}

// Complete reports whether every content type has a prompt
func (r *GeneratedResult) Complete() bool {
	if r == nil {
		return false
	}
	for _, t := range ContentTypes {
		if _, ok := r.Prompts[t]; !ok {
			return false
		}
	}
	return len(r.Prompts) == len(ContentTypes)
}
