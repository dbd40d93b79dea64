package testutil

import (
	"context"
	"testing"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/adpersona-backend/internal/domain/ad"
	"github.com/yungbote/adpersona-backend/internal/domain/auth"
)

func SeedPersona(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *ad.Persona {
	tb.Helper()
	p := &ad.Persona{
		Name:              name,
		Age:               34,
		Gender:            "female",
		Interests:         datatypes.JSONSlice[string]{"running", "cooking"},
		PreferredColors:   datatypes.JSONSlice[string]{"green"},
		TonePreference:    "friendly",
		PersonalityTraits: datatypes.JSONSlice[string]{"curious"},
		FoodPreferences:   datatypes.JSONSlice[string]{"salads"},
		Description:       name + " is a health-conscious professional.",
		CreatedBy:         "seed",
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed persona: %v", err)
	}
	return p
}

// SeedReport stores an image report for persona with the given per-criterion scores.
func SeedReport(tb testing.TB, ctx context.Context, tx *gorm.DB, persona *ad.Persona, a, b map[string]int) *ad.AnalysisReport {
	tb.Helper()
	criteria := ad.DefaultCriteria(ad.ModalityImage)
	r := &ad.AnalysisReport{
		PersonaID:     persona.ID,
		AdType:        ad.ModalityImage,
		AdAScores:     ad.NewScoreSet(criteria, a),
		AdBScores:     ad.NewScoreSet(criteria, b),
		Explanation:   "seeded",
		CriteriaNames: datatypes.JSONSlice[string](criteria),
		CreatedBy:     "seed",
	}
	r.Finalize()
	if err := tx.WithContext(ctx).Omit("Persona").Create(r).Error; err != nil {
		tb.Fatalf("seed report: %v", err)
	}
	return r
}

func SeedProfile(tb testing.TB, ctx context.Context, tx *gorm.DB, id string, role auth.Role) *auth.Profile {
	tb.Helper()
	p := &auth.Profile{ID: id, Email: id + "@example.com", Role: role}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed profile: %v", err)
	}
	return p
}
