package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/adpersona-backend/internal/data/dberr"
	"github.com/yungbote/adpersona-backend/internal/domain/ad"
	"github.com/yungbote/adpersona-backend/internal/pkg/apperr"
	"github.com/yungbote/adpersona-backend/internal/pkg/logger"
)

type ReportRepo interface {
	Create(ctx context.Context, tx *gorm.DB, r *ad.AnalysisReport) (*ad.AnalysisReport, error)
	List(ctx context.Context, tx *gorm.DB) ([]*ad.AnalysisReport, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*ad.AnalysisReport, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (int64, error)
}

type reportRepo struct {
	db      *gorm.DB
	log     *logger.Logger
	timeout time.Duration
}

func NewReportRepo(db *gorm.DB, baseLog *logger.Logger, timeout time.Duration) ReportRepo {
	repoLog := baseLog.With("repo", "ReportRepo")
	return &reportRepo{db: db, log: repoLog, timeout: timeout}
}

func (rr *reportRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return rr.db
}

func withPersonaSummary() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "name", "description")
	}
}

func attachSummary(r *ad.AnalysisReport) {
	if r.Persona != nil {
		r.PersonaSummary = &ad.PersonaSummary{Name: r.Persona.Name, Description: r.Persona.Description}
	}
}

func (rr *reportRepo) Create(ctx context.Context, tx *gorm.DB, r *ad.AnalysisReport) (*ad.AnalysisReport, error) {
	if r == nil {
		return nil, apperr.InvalidInput("ReportRepo.Create", "report is required")
	}
	if r.PersonaID == uuid.Nil {
		return nil, apperr.InvalidInput("ReportRepo.Create", "persona_id is required")
	}
	ctx, cancel := dberr.WithTimeout(ctx, rr.timeout)
	defer cancel()

	// Persona is a read-side relation; never let Create upsert it.
	if err := rr.conn(tx).WithContext(ctx).Omit("Persona").Create(r).Error; err != nil {
		rr.log.Warn("Create report failed", "error", err, "persona_id", r.PersonaID)
		return nil, dberr.MapError("ReportRepo.Create", err)
	}
	return r, nil
}

func (rr *reportRepo) List(ctx context.Context, tx *gorm.DB) ([]*ad.AnalysisReport, error) {
	ctx, cancel := dberr.WithTimeout(ctx, rr.timeout)
	defer cancel()

	results := []*ad.AnalysisReport{}
	if err := rr.conn(tx).WithContext(ctx).
		Preload("Persona", withPersonaSummary()).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, dberr.MapError("ReportRepo.List", err)
	}
	for _, r := range results {
		attachSummary(r)
	}
	return results, nil
}

func (rr *reportRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*ad.AnalysisReport, error) {
	ctx, cancel := dberr.WithTimeout(ctx, rr.timeout)
	defer cancel()

	var r ad.AnalysisReport
	if err := rr.conn(tx).WithContext(ctx).
		Preload("Persona", withPersonaSummary()).
		Where("id = ?", id).
		First(&r).Error; err != nil {
		return nil, dberr.MapError("ReportRepo.GetByID", err)
	}
	attachSummary(&r)
	return &r, nil
}

func (rr *reportRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	ctx, cancel := dberr.WithTimeout(ctx, rr.timeout)
	defer cancel()

	res := rr.conn(tx).WithContext(ctx).
		Where("id = ?", id).
		Delete(&ad.AnalysisReport{})
	if res.Error != nil {
		return dberr.MapError("ReportRepo.Delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("ReportRepo.Delete", "report not found")
	}
	return nil
}

func (rr *reportRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	ctx, cancel := dberr.WithTimeout(ctx, rr.timeout)
	defer cancel()

	res := rr.conn(tx).WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&ad.AnalysisReport{})
	if res.Error != nil {
		return 0, dberr.MapError("ReportRepo.DeleteByIDs", res.Error)
	}
	return res.RowsAffected, nil
}
