package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEvaluationPrompts(t *testing.T) {
	in := Input{
		Persona:  "Name: Maya\nAge: 34\n",
		Criteria: []string{"hook_strength", "pacing"},
		AdAHint:  "Spoken audio: hello",
	}
	for _, name := range []PromptName{PromptEvaluateImage, PromptEvaluateVideo} {
		p, err := Build(name, in)
		require.NoError(t, err)
		assert.Equal(t, 1, p.Version)
		assert.Contains(t, p.Text, "Name: Maya")
		assert.Contains(t, p.Text, "hook_strength, pacing")
		assert.Contains(t, p.Text, `"ad_a_scores": { "hook_strength": 0, "pacing": 0 }`)
		assert.Contains(t, p.Text, `"criteria_names": ["hook_strength", "pacing"]`)
		assert.Contains(t, p.Text, "Extracted details for Ad A:\nSpoken audio: hello")
		assert.NotContains(t, p.Text, "Extracted details for Ad B")
	}
}

func TestBuildValidates(t *testing.T) {
	_, err := Build(PromptPersonaSynthesis, Input{Description: "  "})
	assert.Error(t, err)

	_, err = Build(PromptEvaluateText, Input{Persona: "x", Criteria: []string{"a"}, AdAText: "only one"})
	assert.Error(t, err)

	_, err = Build(PromptEnhanceAd, Input{})
	assert.Error(t, err)

	_, err = Build("nope", Input{})
	assert.Error(t, err)
}

func TestBuildEnhanceListsCriteria(t *testing.T) {
	p, err := Build(PromptEnhanceAd, Input{
		Persona:  "Name: Maya\n",
		Modality: "text",
		AdLabel:  "Ad B",
		Maintain: []CriterionScore{{Name: "brand_recall", Score: 9}},
		Improve:  []CriterionScore{{Name: "message_clarity", Score: 7}},
	})
	require.NoError(t, err)
	assert.Contains(t, p.Text, "WINNING ELEMENTS TO MAINTAIN:\n- brand recall: 9/10")
	assert.Contains(t, p.Text, "ELEMENTS TO IMPROVE:\n- message clarity: 7/10")
	assert.True(t, strings.HasPrefix(p.Text, "You are a creative director improving a text advertisement (Ad B)"))
	assert.Len(t, p.Fingerprint(), 16)
}
