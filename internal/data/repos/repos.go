package repos

import (
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/adpersona-backend/internal/data/repos/persona"
	"github.com/yungbote/adpersona-backend/internal/data/repos/profile"
	"github.com/yungbote/adpersona-backend/internal/data/repos/report"
	"github.com/yungbote/adpersona-backend/internal/pkg/logger"
)

type PersonaRepo = persona.PersonaRepo
type ReportRepo = report.ReportRepo
type ProfileRepo = profile.ProfileRepo

func NewPersonaRepo(db *gorm.DB, baseLog *logger.Logger, timeout time.Duration) PersonaRepo {
	return persona.NewPersonaRepo(db, baseLog, timeout)
}

func NewReportRepo(db *gorm.DB, baseLog *logger.Logger, timeout time.Duration) ReportRepo {
	return report.NewReportRepo(db, baseLog, timeout)
}

func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger, timeout time.Duration) ProfileRepo {
	return profile.NewProfileRepo(db, baseLog, timeout)
}
