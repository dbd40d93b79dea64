package prompts

// Input is the union of fields referenced by the registered templates.
type Input struct {
	Description string

	Persona  string
	Modality string
	Criteria []string

	AdAText string
	AdBText string
	AdAHint string
	AdBHint string

	AdLabel       string
	Maintain      []CriterionScore
	Improve       []CriterionScore
	ReportSummary string
}

type CriterionScore struct {
	Name  string
	Score int
}
