package prompts

import (
	"errors"
	"strings"
)

func init() {
	register(Spec{
		Name:    PromptPersonaSynthesis,
		Version: 1,
		Validate: func(in Input) error {
			if strings.TrimSpace(in.Description) == "" {
				return errors.New("description is required")
			}
			return nil
		},
		Text: `You are a marketing research assistant. Create a detailed, realistic consumer persona from the audience description below.

Respond with ONLY a JSON object with exactly these keys:
{
  "name": "a realistic first and last name",
  "age": 30,
  "gender": "string",
  "interests": ["string"],
  "preferred_colors": ["string"],
  "tone_preference": "the communication tone this person responds to",
  "personality_traits": ["string"],
  "food_preferences": ["string"],
  "description": "two or three sentences describing this person"
}
"age" must be a whole number. Every list must be a JSON array of strings.

Description: {{.Description}}`,
	})

	evalValidate := func(in Input) error {
		if strings.TrimSpace(in.Persona) == "" {
			return errors.New("persona is required")
		}
		if len(in.Criteria) == 0 {
			return errors.New("criteria are required")
		}
		return nil
	}

	register(Spec{
		Name:     PromptEvaluateImage,
		Version:  1,
		Validate: evalValidate,
		Text: `You are evaluating two image advertisements from the point of view of this consumer:

{{.Persona}}
The first attached image is Ad A and the second attached image is Ad B.
{{- if .AdAHint}}

Extracted details for Ad A:
{{.AdAHint}}{{end}}
{{- if .AdBHint}}

Extracted details for Ad B:
{{.AdBHint}}{{end}}
` + scoringInstructions,
	})

	register(Spec{
		Name:     PromptEvaluateVideo,
		Version:  1,
		Validate: evalValidate,
		Text: `You are evaluating two video advertisements from the point of view of this consumer:

{{.Persona}}
The first attached video is Ad A and the second attached video is Ad B. Consider the opening seconds, pacing, audio and on-screen text.
{{- if .AdAHint}}

Extracted details for Ad A:
{{.AdAHint}}{{end}}
{{- if .AdBHint}}

Extracted details for Ad B:
{{.AdBHint}}{{end}}
` + scoringInstructions,
	})

	register(Spec{
		Name:    PromptEvaluateText,
		Version: 1,
		Validate: func(in Input) error {
			if err := evalValidate(in); err != nil {
				return err
			}
			if strings.TrimSpace(in.AdAText) == "" || strings.TrimSpace(in.AdBText) == "" {
				return errors.New("both ad texts are required")
			}
			return nil
		},
		Text: `You are evaluating two text advertisements from the point of view of this consumer:

{{.Persona}}
Ad A:
"""
{{.AdAText}}
"""

Ad B:
"""
{{.AdBText}}
"""
` + scoringInstructions,
	})

	register(Spec{
		Name:    PromptEnhanceAd,
		Version: 1,
		Validate: func(in Input) error {
			if strings.TrimSpace(in.AdLabel) == "" {
				return errors.New("ad label is required")
			}
			return nil
		},
		Text: `You are a creative director improving a {{.Modality}} advertisement ({{.AdLabel}}) for this target consumer:

{{.Persona}}
Previous evaluation: {{.ReportSummary}}
{{- if .Maintain}}

WINNING ELEMENTS TO MAINTAIN:
{{- range .Maintain}}
- {{human .Name}}: {{.Score}}/10
{{- end}}{{end}}
{{- if .Improve}}

ELEMENTS TO IMPROVE:
{{- range .Improve}}
- {{human .Name}}: {{.Score}}/10
{{- end}}{{end}}

Describe an enhanced version of {{.AdLabel}} that keeps its strengths and fixes its weaknesses for this consumer.
When an improvement addresses one of the criteria above, name that criterion in the sentence.

Respond with ONLY a JSON object:
{
  "enhanced_ad": {
    "description": "full description of the enhanced ad",
    "improvements": ["one sentence per concrete change"],
    "expected_impact": "how the changes should affect this consumer",
    "test_recommendations": ["how to validate the change"]
  }
}`,
	})
}

const scoringInstructions = `
Score both ads from 0 to 10 on each of these criteria: {{join .Criteria ", "}}.

Respond with ONLY a JSON object:
{
  "ad_a_scores": { {{- range $i, $c := .Criteria}}{{if $i}},{{end}} "{{$c}}": 0{{end}} },
  "ad_b_scores": { {{- range $i, $c := .Criteria}}{{if $i}},{{end}} "{{$c}}": 0{{end}} },
  "winner": "Ad A or Ad B",
  "explanation": "why the winner fits this consumer better",
  "criteria_names": [{{range $i, $c := .Criteria}}{{if $i}}, {{end}}"{{$c}}"{{end}}]
}
Scores must be whole numbers.`
