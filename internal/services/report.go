package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/adpersona-backend/internal/data/repos"
	"github.com/yungbote/adpersona-backend/internal/domain/ad"
	"github.com/yungbote/adpersona-backend/internal/pkg/apperr"
	"github.com/yungbote/adpersona-backend/internal/pkg/logger"
)

// NewReport is a client-submitted evaluation to persist.
type NewReport struct {
	PersonaID     uuid.UUID   `json:"persona_id"`
	AdType        ad.Modality `json:"ad_type"`
	AdAScores     ad.ScoreSet `json:"ad_a_scores"`
	AdBScores     ad.ScoreSet `json:"ad_b_scores"`
	Winner        ad.Winner   `json:"winner"`
	Explanation   string      `json:"explanation"`
	CriteriaNames []string    `json:"criteria_names"`
}

type ReportService interface {
	List(ctx context.Context) ([]*ad.AnalysisReport, error)
	Get(ctx context.Context, id uuid.UUID) (*ad.AnalysisReport, error)
	// Create recomputes totals and the winner before storing.
	Create(ctx context.Context, in NewReport, createdBy string) (*ad.AnalysisReport, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ExportCSV(ctx context.Context, id uuid.UUID) ([]byte, error)
}

type reportService struct {
	log  *logger.Logger
	repo repos.ReportRepo
}

func NewReportService(log *logger.Logger, repo repos.ReportRepo) ReportService {
	return &reportService{log: log.With("service", "ReportService"), repo: repo}
}

func (rs *reportService) List(ctx context.Context) ([]*ad.AnalysisReport, error) {
	return rs.repo.List(ctx, nil)
}

func (rs *reportService) Get(ctx context.Context, id uuid.UUID) (*ad.AnalysisReport, error) {
	return rs.repo.GetByID(ctx, nil, id)
}

func (rs *reportService) Create(ctx context.Context, in NewReport, createdBy string) (*ad.AnalysisReport, error) {
	const op = "ReportService.Create"
	if in.PersonaID == uuid.Nil {
		return nil, apperr.InvalidInput(op, "persona_id is required")
	}
	modality, ok := ad.ParseModality(string(in.AdType))
	if !ok {
		return nil, apperr.InvalidInput(op, fmt.Sprintf("unsupported ad type %q", in.AdType))
	}
	criteria := in.CriteriaNames
	if len(criteria) == 0 {
		criteria = in.AdAScores.Criteria
	}
	if len(criteria) == 0 {
		return nil, apperr.InvalidInput(op, "criteria_names are required")
	}

	r := &ad.AnalysisReport{
		PersonaID:     in.PersonaID,
		AdType:        modality,
		AdAScores:     in.AdAScores,
		AdBScores:     in.AdBScores,
		Explanation:   strings.TrimSpace(in.Explanation),
		CriteriaNames: datatypes.JSONSlice[string](append([]string(nil), criteria...)),
		CreatedBy:     createdBy,
	}
	for label, s := range map[string]ad.ScoreSet{"ad_a_scores": in.AdAScores, "ad_b_scores": in.AdBScores} {
		for _, c := range criteria {
			if _, ok := s.Scores[c]; !ok {
				return nil, apperr.InvalidInput(op, fmt.Sprintf("%s is missing %q", label, c))
			}
		}
	}
	r.Finalize()
	if err := r.AdAScores.Validate(); err != nil {
		return nil, apperr.InvalidInput(op, "ad_a_scores: "+err.Error())
	}
	if err := r.AdBScores.Validate(); err != nil {
		return nil, apperr.InvalidInput(op, "ad_b_scores: "+err.Error())
	}
	if in.Winner != "" && in.Winner != r.Winner {
		rs.log.Info("Submitted winner replaced by recomputed totals", "submitted", string(in.Winner), "winner", string(r.Winner))
	}

	created, err := rs.repo.Create(ctx, nil, r)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (rs *reportService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := rs.repo.Delete(ctx, nil, id); err != nil {
		return err
	}
	rs.log.Info("Report deleted", "report_id", id.String())
	return nil
}

// ExportCSV renders one row per criterion plus a total row.
func (rs *reportService) ExportCSV(ctx context.Context, id uuid.UUID) ([]byte, error) {
	r, err := rs.repo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	persona := ""
	if r.PersonaSummary != nil {
		persona = r.PersonaSummary.Name
	}
	rows := [][]string{
		{"report_id", r.ID.String()},
		{"persona", persona},
		{"ad_type", string(r.AdType)},
		{"winner", string(r.Winner)},
		{"created_at", r.CreatedAt.UTC().Format("2006-01-02T15:04:05Z")},
		{},
		{"criterion", "ad_a", "ad_b"},
	}
	for _, c := range r.CriteriaNames {
		rows = append(rows, []string{ad.HumanizeCriterion(c), strconv.Itoa(r.AdAScores.Get(c)), strconv.Itoa(r.AdBScores.Get(c))})
	}
	rows = append(rows,
		[]string{"total", strconv.Itoa(r.AdAScores.Total), strconv.Itoa(r.AdBScores.Total)},
		[]string{},
		[]string{"explanation", r.Explanation},
	)
	if err := w.WriteAll(rows); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "ReportService.ExportCSV", err)
	}
	return buf.Bytes(), nil
}
