package persona

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

type PersonaRepo interface {
	Create(ctx context.Context, tx *gorm.DB, p *ad.Persona) (*ad.Persona, error)
	List(ctx context.Context, tx *gorm.DB) ([]*ad.Persona, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*ad.Persona, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*ad.Persona, error)
	Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, patch ad.PersonaPatch) (*ad.Persona, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type personaRepo struct {
	db      *gorm.DB
	log     *logger.Logger
	timeout time.Duration
}

func NewPersonaRepo(db *gorm.DB, baseLog *logger.Logger, timeout time.Duration) PersonaRepo {
	repoLog := baseLog.With("repo", "PersonaRepo")
	return &personaRepo{db: db, log: repoLog, timeout: timeout}
}

func (r *personaRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *personaRepo) Create(ctx context.Context, tx *gorm.DB, p *ad.Persona) (*ad.Persona, error) {
	if p == nil {
		return nil, apperr.InvalidInput("PersonaRepo.Create", "persona is required")
	}
	ctx, cancel := dberr.WithTimeout(ctx, r.timeout)
	defer cancel()

	p.Normalize()
	if err := r.conn(tx).WithContext(ctx).Create(p).Error; err != nil {
		r.log.Warn("Create persona failed", "error", err)
		return nil, dberr.MapError("PersonaRepo.Create", err)
	}
	return p, nil
}

func (r *personaRepo) List(ctx context.Context, tx *gorm.DB) ([]*ad.Persona, error) {
	ctx, cancel := dberr.WithTimeout(ctx, r.timeout)
	defer cancel()

	results := []*ad.Persona{}
	if err := r.conn(tx).WithContext(ctx).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, dberr.MapError("PersonaRepo.List", err)
	}
	for _, p := range results {
		p.Normalize()
	}
	return results, nil
}

func (r *personaRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*ad.Persona, error) {
	ctx, cancel := dberr.WithTimeout(ctx, r.timeout)
	defer cancel()

	var p ad.Persona
	if err := r.conn(tx).WithContext(ctx).
		Where("id = ?", id).
		First(&p).Error; err != nil {
		return nil, dberr.MapError("PersonaRepo.GetByID", err)
	}
	p.Normalize()
	return &p, nil
}

// GetByIDs returns the personas found, in no particular order.
func (r *personaRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*ad.Persona, error) {
	results := []*ad.Persona{}
	if len(ids) == 0 {
		return results, nil
	}
	ctx, cancel := dberr.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.conn(tx).WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, dberr.MapError("PersonaRepo.GetByIDs", err)
	}
	for _, p := range results {
		p.Normalize()
	}
	return results, nil
}

func (r *personaRepo) Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, patch ad.PersonaPatch) (*ad.Persona, error) {
	updates := patch.Updates()
	if len(updates) == 0 {
		return r.GetByID(ctx, tx, id)
	}
	ctx, cancel := dberr.WithTimeout(ctx, r.timeout)
	defer cancel()

	res := r.conn(tx).WithContext(ctx).
		Model(&ad.Persona{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return nil, dberr.MapError("PersonaRepo.Update", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("PersonaRepo.Update", "persona not found")
	}
	var p ad.Persona
	if err := r.conn(tx).WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, dberr.MapError("PersonaRepo.Update", err)
	}
	p.Normalize()
	return &p, nil
}

func (r *personaRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	ctx, cancel := dberr.WithTimeout(ctx, r.timeout)
	defer cancel()

	res := r.conn(tx).WithContext(ctx).
		Where("id = ?", id).
		Delete(&ad.Persona{})
	if res.Error != nil {
		return dberr.MapError("PersonaRepo.Delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("PersonaRepo.Delete", "persona not found")
	}
	return nil
}
