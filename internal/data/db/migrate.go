package db

import (
	"github.com/yungbote/adpersona-backend/internal/domain/ad"
	"github.com/yungbote/adpersona-backend/internal/domain/auth"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&auth.Profile{},
		&ad.Persona{},
		&ad.AnalysisReport{},
	)
}
