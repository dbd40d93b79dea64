package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/adpersona-backend/internal/data/repos"
	"github.com/yungbote/adpersona-backend/internal/domain/ad"
	"github.com/yungbote/adpersona-backend/internal/observability"
	"github.com/yungbote/adpersona-backend/internal/pkg/apperr"
	"github.com/yungbote/adpersona-backend/internal/pkg/logger"
)

const MaxBatchPersonas = 5

type BatchRequest struct {
	PersonaIDs []uuid.UUID
	// PersonaPrompt is used only when PersonaIDs is empty.
	PersonaPrompt string
	Input         EvaluationInput
	RequestedBy   string
	// BatchID lets the caller poll progress while Run is in flight. Generated when empty.
	BatchID string
}

type BatchItem struct {
	Persona  *ad.Persona          `json:"persona"`
	Result   *ad.EvaluationResult `json:"result"`
	ReportID uuid.UUID            `json:"report_id"`
}

type BatchResult struct {
	BatchID string      `json:"batch_id"`
	Items   []BatchItem `json:"results"`
}

// BatchError reports the first failing persona of an aborted batch.
type BatchError struct {
	BatchID            string
	Index              int
	Total              int
	PersonaID          uuid.UUID
	PersonaName        string
	CompletedReportIDs []uuid.UUID
	Compensated        bool
	Err                error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch %s aborted at persona %d/%d (%s): %v", e.BatchID, e.Index+1, e.Total, e.PersonaName, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

func (e *BatchError) PublicMessage() string {
	msg := apperr.MessageOf(e.Err)
	if apperr.KindOf(e.Err) == apperr.KindInternal {
		msg = "internal error"
	}
	return fmt.Sprintf("evaluation failed for persona %d of %d (%s): %s", e.Index+1, e.Total, e.PersonaName, msg)
}

func (e *BatchError) ErrorDetails() map[string]any {
	ids := make([]string, 0, len(e.CompletedReportIDs))
	for _, id := range e.CompletedReportIDs {
		ids = append(ids, id.String())
	}
	return map[string]any{
		"batch_id":             e.BatchID,
		"persona_index":        e.Index,
		"persona_id":           e.PersonaID.String(),
		"persona_name":         e.PersonaName,
		"completed_report_ids": ids,
		"compensated":          e.Compensated,
	}
}

type BatchConfig struct {
	Concurrency int
	// Compensate deletes the reports of an aborted batch.
	Compensate bool
}

type BatchOrchestrator interface {
	Run(ctx context.Context, req BatchRequest) (*BatchResult, error)
	Progress(ctx context.Context, batchID string) (*ad.BatchProgress, error)
}

type batchOrchestrator struct {
	log       *logger.Logger
	personas  repos.PersonaRepo
	reports   repos.ReportRepo
	synth     PersonaSynthesizer
	evaluator Evaluator
	tracker   ProgressTracker
	metrics   *observability.Metrics
	cfg       BatchConfig
}

func NewBatchOrchestrator(
	log *logger.Logger,
	personas repos.PersonaRepo,
	reports repos.ReportRepo,
	synth PersonaSynthesizer,
	evaluator Evaluator,
	tracker ProgressTracker,
	metrics *observability.Metrics,
	cfg BatchConfig,
) BatchOrchestrator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.Concurrency > MaxBatchPersonas {
		cfg.Concurrency = MaxBatchPersonas
	}
	if tracker == nil {
		tracker = NewMemoryProgressTracker(0)
	}
	return &batchOrchestrator{
		log:       log.With("service", "BatchOrchestrator"),
		personas:  personas,
		reports:   reports,
		synth:     synth,
		evaluator: evaluator,
		tracker:   tracker,
		metrics:   metrics,
		cfg:       cfg,
	}
}

type evalSlot struct {
	done chan struct{}
	res  *ad.EvaluationResult
	err  error
}

var errSkipped = errors.New("evaluation skipped after an earlier failure")

// Run evaluates every persona and stores one report per persona in input order.
// The first failure in input order aborts the batch; reports stored before it are kept
// unless compensation is enabled. Run returns once every started evaluation has finished.
func (b *batchOrchestrator) Run(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	const op = "BatchOrchestrator.Run"
	ctx = context.WithoutCancel(ctx)

	if err := validateBatchRequest(op, req); err != nil {
		return nil, err
	}
	req.Input.Modality, _ = ad.ParseModality(string(req.Input.Modality))

	personas, err := b.resolvePersonas(ctx, req)
	if err != nil {
		return nil, err
	}
	n := len(personas)

	ctx, span := observability.StartSpan(ctx, "batch.run",
		attribute.Int("batch.size", n),
		attribute.String("evaluation.modality", string(req.Input.Modality)),
	)

	batchID := req.BatchID
	if batchID == "" {
		batchID = uuid.NewString()
	}
	progress := ad.BatchProgress{
		ID:        batchID,
		Modality:  req.Input.Modality,
		Total:     n,
		Status:    ad.BatchRunning,
		ReportIDs: []string{},
		CreatedBy: req.RequestedBy,
	}
	span.SetAttributes(attribute.String("batch.id", progress.ID))
	b.putProgress(ctx, progress)
	b.log.Info("Batch started", "batch_id", progress.ID, "size", n, "modality", string(req.Input.Modality), "concurrency", b.cfg.Concurrency)

	slots := make([]*evalSlot, n)
	for i := range slots {
		slots[i] = &evalSlot{done: make(chan struct{})}
	}
	var firstFailed atomic.Int64
	firstFailed.Store(int64(n))

	var g errgroup.Group
	g.SetLimit(b.cfg.Concurrency)
	var launcher sync.WaitGroup
	launcher.Add(1)
	go func() {
		defer launcher.Done()
		for i := range personas {
			g.Go(func() error {
				s := slots[i]
				defer close(s.done)
				if int64(i) > firstFailed.Load() {
					s.err = errSkipped
					return nil
				}
				s.res, s.err = b.evaluator.Evaluate(ctx, personas[i], req.Input)
				if s.err != nil {
					lowerTo(&firstFailed, int64(i))
				}
				return nil
			})
		}
	}()

	out := &BatchResult{BatchID: progress.ID, Items: make([]BatchItem, 0, n)}
	var completed []uuid.UUID
	var failure *BatchError
	for i, p := range personas {
		progress.CurrentIndex = i
		b.putProgress(ctx, progress)

		s := slots[i]
		<-s.done
		err := s.err
		var report *ad.AnalysisReport
		if err == nil {
			report = ad.ReportFromEvaluation(*s.res, req.RequestedBy)
			report.Finalize()
			report, err = b.reports.Create(ctx, nil, report)
		}
		if err != nil {
			lowerTo(&firstFailed, int64(i))
			failure = &BatchError{
				BatchID:            progress.ID,
				Index:              i,
				Total:              n,
				PersonaID:          p.ID,
				PersonaName:        p.Name,
				CompletedReportIDs: append([]uuid.UUID(nil), completed...),
				Err:                err,
			}
			break
		}
		completed = append(completed, report.ID)
		out.Items = append(out.Items, BatchItem{Persona: p, Result: s.res, ReportID: report.ID})
		progress.Completed = i + 1
		progress.ReportIDs = append(progress.ReportIDs, report.ID.String())
		b.putProgress(ctx, progress)
	}

	launcher.Wait()
	_ = g.Wait()

	if failure != nil {
		b.log.Warn("Batch aborted",
			"batch_id", progress.ID,
			"persona_index", failure.Index,
			"persona_id", failure.PersonaID.String(),
			"kind", string(apperr.KindOf(failure.Err)),
			"completed_reports", len(completed),
			"error", failure.Err,
		)
		if b.cfg.Compensate && len(completed) > 0 {
			failure.Compensated = b.compensate(ctx, progress.ID, completed)
		}
		progress.Status = ad.BatchFailed
		progress.Error = failure.PublicMessage()
		b.putProgress(ctx, progress)
		b.metrics.ObserveBatch(n, "failed")
		observability.EndSpan(span, failure)
		return nil, failure
	}

	progress.Status = ad.BatchCompleted
	progress.CurrentIndex = n
	b.putProgress(ctx, progress)
	b.metrics.ObserveBatch(n, "completed")
	b.log.Info("Batch completed", "batch_id", progress.ID, "reports", len(completed))
	observability.EndSpan(span, nil)
	return out, nil
}

func (b *batchOrchestrator) Progress(ctx context.Context, batchID string) (*ad.BatchProgress, error) {
	const op = "BatchOrchestrator.Progress"
	batchID = strings.TrimSpace(batchID)
	if batchID == "" {
		return nil, apperr.InvalidInput(op, "batch id is required")
	}
	p, err := b.tracker.Get(ctx, batchID)
	if err != nil {
		if errors.Is(err, ErrProgressNotFound) {
			return nil, apperr.NotFound(op, "batch not found")
		}
		return nil, &apperr.Error{Kind: apperr.KindStoreUnavailable, Op: op, Message: "batch progress unavailable", Cause: err}
	}
	return p, nil
}

func validateBatchRequest(op string, req BatchRequest) error {
	n := len(req.PersonaIDs)
	if n == 0 && strings.TrimSpace(req.PersonaPrompt) == "" {
		return apperr.InvalidInput(op, "select at least one persona or provide a persona prompt")
	}
	if err := CheckBatchSize(op, n); err != nil {
		return err
	}
	seen := make(map[uuid.UUID]struct{}, n)
	for _, id := range req.PersonaIDs {
		if id == uuid.Nil {
			return apperr.InvalidInput(op, "persona ids must be valid uuids")
		}
		if _, dup := seen[id]; dup {
			return apperr.InvalidInput(op, "persona "+id.String()+" is selected more than once")
		}
		seen[id] = struct{}{}
	}
	if req.BatchID != "" {
		if _, err := uuid.Parse(req.BatchID); err != nil {
			return apperr.InvalidInput(op, "batch id must be a uuid")
		}
	}
	return validateEvaluationInput(op, req.Input)
}

// CheckBatchSize rejects selections over MaxBatchPersonas. Callers that stage uploads run it first.
func CheckBatchSize(op string, n int) error {
	if n > MaxBatchPersonas {
		return apperr.InvalidInput(op, fmt.Sprintf("at most %d personas can be evaluated at once, got %d", MaxBatchPersonas, n))
	}
	return nil
}

// validateEvaluationInput checks only presence; content checks happen in the evaluator.
func validateEvaluationInput(op string, in EvaluationInput) error {
	m, ok := ad.ParseModality(string(in.Modality))
	if !ok {
		return apperr.InvalidInput(op, fmt.Sprintf("unsupported ad type %q", in.Modality))
	}
	if m == ad.ModalityText {
		if strings.TrimSpace(in.AdAText) == "" || strings.TrimSpace(in.AdBText) == "" {
			return apperr.InvalidInput(op, "both ad_a_text and ad_b_text are required")
		}
		return nil
	}
	if strings.TrimSpace(in.AdA.URI) == "" || strings.TrimSpace(in.AdB.URI) == "" {
		return apperr.InvalidInput(op, "both ad_a and ad_b files are required")
	}
	return nil
}

func (b *batchOrchestrator) resolvePersonas(ctx context.Context, req BatchRequest) ([]*ad.Persona, error) {
	const op = "BatchOrchestrator.Run"
	if len(req.PersonaIDs) == 0 {
		prompt := strings.TrimSpace(req.PersonaPrompt)
		p, err := b.synth.Synthesize(ctx, prompt)
		if err != nil {
			return nil, err
		}
		p.Description = prompt
		p.CreatedBy = req.RequestedBy
		created, err := b.personas.Create(ctx, nil, p)
		if err != nil {
			return nil, err
		}
		return []*ad.Persona{created}, nil
	}

	found, err := b.personas.GetByIDs(ctx, nil, req.PersonaIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*ad.Persona, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]*ad.Persona, 0, len(req.PersonaIDs))
	for _, id := range req.PersonaIDs {
		p, ok := byID[id]
		if !ok {
			return nil, apperr.NotFound(op, "persona not found: "+id.String())
		}
		out = append(out, p)
	}
	return out, nil
}

func (b *batchOrchestrator) compensate(ctx context.Context, batchID string, ids []uuid.UUID) bool {
	deleted, err := b.reports.DeleteByIDs(ctx, nil, ids)
	if err != nil {
		b.log.Error("Batch compensation failed; partial reports remain", "batch_id", batchID, "reports", len(ids), "error", err)
		return false
	}
	b.log.Warn("Batch compensation deleted partial reports", "batch_id", batchID, "deleted", deleted)
	return true
}

func (b *batchOrchestrator) putProgress(ctx context.Context, p ad.BatchProgress) {
	p.UpdatedAt = time.Now().UTC()
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := b.tracker.Put(ctx, p); err != nil {
		b.log.Warn("Batch progress write failed", "batch_id", p.ID, "error", err)
	}
}

func lowerTo(v *atomic.Int64, n int64) {
	for {
		cur := v.Load()
		if n >= cur || v.CompareAndSwap(cur, n) {
			return
		}
	}
}
