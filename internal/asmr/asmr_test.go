package asmr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeneratedResultCloneIsIndependent(t *testing.T) {
	orig := &GeneratedResult{
		Prompts: map[ContentType]string{
			DustCore:    "d",
			ClayCore:    "c",
			StarchCore:  "s",
			CuttingSoap: "x",
		},
		FinalToneBlock: "tone",
	}

	clone := orig.Clone()
	clone.Prompts[DustCore] = "changed"
	clone.FinalToneBlock = "other"

	assert.Equal(t, "d", orig.Prompts[DustCore])
	assert.Equal(t, "tone", orig.FinalToneBlock)
	assert.True(t, orig.Complete())
}

func TestCompleteRequiresEveryType(t *testing.T) {
	r := &GeneratedResult{Prompts: map[ContentType]string{DustCore: "d"}}
	assert.False(t, r.Complete())

	var nilResult *GeneratedResult
	assert.False(t, nilResult.Complete())
	assert.Nil(t, nilResult.Clone())
}
