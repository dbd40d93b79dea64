package ad

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EvaluationResult is one persona's verdict on an A/B pair.
type EvaluationResult struct {
	Persona       Persona  `json:"persona"`
	AdA           ScoreSet `json:"ad_a_scores"`
	AdB           ScoreSet `json:"ad_b_scores"`
	Winner        Winner   `json:"winner"`
	Explanation   string   `json:"explanation"`
	CriteriaNames []string `json:"criteria_names"`
	AdType        Modality `json:"ad_type"`
}

// AnalysisReport is a persisted evaluation. Reports are never updated.
type AnalysisReport struct {
	ID            uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	PersonaID     uuid.UUID                   `gorm:"type:uuid;not null;index" json:"persona_id"`
	Persona       *Persona                    `gorm:"foreignKey:PersonaID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	AdType        Modality                    `gorm:"not null;column:ad_type" json:"ad_type"`
	AdAScores     ScoreSet                    `gorm:"column:ad_a_scores" json:"ad_a_scores"`
	AdBScores     ScoreSet                    `gorm:"column:ad_b_scores" json:"ad_b_scores"`
	Winner        Winner                      `gorm:"not null;column:winner" json:"winner"`
	Explanation   string                      `gorm:"column:explanation" json:"explanation"`
	CriteriaNames datatypes.JSONSlice[string] `gorm:"column:criteria_names" json:"criteria_names"`
	CreatedBy     string                      `gorm:"column:created_by;index" json:"created_by,omitempty"`
	CreatedAt     time.Time                   `gorm:"not null;autoCreateTime;index" json:"created_at"`

	PersonaSummary *PersonaSummary `gorm:"-" json:"personas,omitempty"`
}

func (AnalysisReport) TableName() string { return "analysis_reports" }

func (r *AnalysisReport) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CriteriaNames == nil {
		r.CriteriaNames = datatypes.JSONSlice[string]{}
	}
	return nil
}

// Finalize recomputes both totals over the report's criteria and derives the winner.
func (r *AnalysisReport) Finalize() {
	criteria := []string(r.CriteriaNames)
	if len(criteria) == 0 {
		criteria = r.AdAScores.Criteria
		r.CriteriaNames = datatypes.JSONSlice[string](append([]string(nil), criteria...))
	}
	r.AdAScores = r.AdAScores.Restrict(criteria)
	r.AdBScores = r.AdBScores.Restrict(criteria)
	r.Winner = DecideWinner(r.AdAScores, r.AdBScores)
}

// ScoresFor returns the score set of the named ad.
func (r AnalysisReport) ScoresFor(w Winner) ScoreSet {
	if w == WinnerB {
		return r.AdBScores
	}
	return r.AdAScores
}

// ReportFromEvaluation builds the persisted form of an evaluation.
func ReportFromEvaluation(res EvaluationResult, createdBy string) *AnalysisReport {
	return &AnalysisReport{
		PersonaID:     res.Persona.ID,
		AdType:        res.AdType,
		AdAScores:     res.AdA.Clone(),
		AdBScores:     res.AdB.Clone(),
		Winner:        res.Winner,
		Explanation:   res.Explanation,
		CriteriaNames: datatypes.JSONSlice[string](append([]string(nil), res.CriteriaNames...)),
		CreatedBy:     createdBy,
	}
}

// EnhancementResult is an improved rewrite of one ad. It is not persisted.
type EnhancementResult struct {
	EnhancedContent     string             `json:"enhancedContent"`
	Explanation         string             `json:"explanation"`
	ImprovementSummary  ImprovementSummary `json:"improvementSummary"`
	TestRecommendations []string           `json:"testRecommendations"`
}

type ImprovementSummary struct {
	Improvements    []string `json:"improvements"`
	PredictedScores ScoreSet `json:"predictedScores"`
}

func itoa(n int) string { return strconv.Itoa(n) }
