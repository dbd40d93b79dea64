package handlers

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/adpersona-backend/internal/domain/ad"
	"github.com/yungbote/adpersona-backend/internal/pkg/apperr"
	"github.com/yungbote/adpersona-backend/internal/services"
)

type fakeEvaluations struct {
	mu   sync.Mutex
	sel  services.PersonaSelector
	in   services.EvaluationInput
	seen int
	err  error
	// onEvaluate runs while the uploads still exist.
	onEvaluate func(in services.EvaluationInput)
}

func (f *fakeEvaluations) Evaluate(_ context.Context, sel services.PersonaSelector, in services.EvaluationInput) (*ad.EvaluationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sel, f.in = sel, in
	f.seen++
	if f.onEvaluate != nil {
		f.onEvaluate(in)
	}
	if f.err != nil {
		return nil, f.err
	}
	criteria := ad.DefaultCriteria(in.Modality)
	a := ad.NewScoreSet(criteria, nil)
	b := ad.NewScoreSet(criteria, nil)
	res := &ad.EvaluationResult{AdA: a, AdB: b, Winner: ad.DecideWinner(a, b), AdType: in.Modality, CriteriaNames: criteria, Explanation: "tie"}
	return res, nil
}

type fakeBatches struct {
	mu  sync.Mutex
	req services.BatchRequest
	err error
}

func (f *fakeBatches) Run(_ context.Context, req services.BatchRequest) (*services.BatchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &services.BatchResult{BatchID: req.BatchID, Items: []services.BatchItem{}}, nil
}

func (f *fakeBatches) Progress(_ context.Context, id string) (*ad.BatchProgress, error) {
	return nil, apperr.NotFound("fakeBatches.Progress", "batch "+id+" not found")
}

type fakeEnhancer struct {
	reportID uuid.UUID
	which    string
}

func (f *fakeEnhancer) Enhance(_ context.Context, reportID uuid.UUID, which string) (*ad.EnhancementResult, error) {
	f.reportID, f.which = reportID, which
	return &ad.EnhancementResult{EnhancedContent: "Brighter headline", TestRecommendations: []string{}}, nil
}

type fakeReports struct {
	services.ReportService
	csv []byte
}

func (f *fakeReports) ExportCSV(_ context.Context, id uuid.UUID) ([]byte, error) {
	return f.csv, nil
}
