package profile

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/adpersona-backend/internal/data/dberr"
	"github.com/yungbote/adpersona-backend/internal/domain/auth"
	"github.com/yungbote/adpersona-backend/internal/pkg/apperr"
	"github.com/yungbote/adpersona-backend/internal/pkg/logger"
)

type ProfileRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*auth.Profile, error)
	Upsert(ctx context.Context, tx *gorm.DB, p *auth.Profile) error
}

type profileRepo struct {
	db      *gorm.DB
	log     *logger.Logger
	timeout time.Duration
}

func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger, timeout time.Duration) ProfileRepo {
	repoLog := baseLog.With("repo", "ProfileRepo")
	return &profileRepo{db: db, log: repoLog, timeout: timeout}
}

func (r *profileRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *profileRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*auth.Profile, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperr.NotFound("ProfileRepo.GetByID", "profile not found")
	}
	ctx, cancel := dberr.WithTimeout(ctx, r.timeout)
	defer cancel()

	var p auth.Profile
	if err := r.conn(tx).WithContext(ctx).
		Where("id = ?", id).
		First(&p).Error; err != nil {
		return nil, dberr.MapError("ProfileRepo.GetByID", err)
	}
	return &p, nil
}

// Upsert creates the profile or updates its role and email.
func (r *profileRepo) Upsert(ctx context.Context, tx *gorm.DB, p *auth.Profile) error {
	if p == nil || strings.TrimSpace(p.ID) == "" {
		return apperr.InvalidInput("ProfileRepo.Upsert", "profile id is required")
	}
	if _, ok := auth.ParseRole(string(p.Role)); !ok {
		return apperr.InvalidInput("ProfileRepo.Upsert", "unknown role "+string(p.Role))
	}
	ctx, cancel := dberr.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := r.conn(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role", "email"}),
		}).
		Create(p).Error
	return dberr.MapError("ProfileRepo.Upsert", err)
}
