package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/adpersona-backend/internal/data/repos/testutil"
	"github.com/yungbote/adpersona-backend/internal/domain/ad"
	"github.com/yungbote/adpersona-backend/internal/pkg/apperr"
)

func TestReportServiceCreateRecomputes(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	p := testutil.SeedPersona(t, ctx, st.db, "Maya")
	svc := NewReportService(testutil.Logger(t), st.reports)

	var in NewReport
	body := `{"persona_id": "` + p.ID.String() + `", "ad_type": "text",
		"ad_a_scores": {"clarity": 5, "fun": 5, "total": 100},
		"ad_b_scores": {"clarity": 6, "fun": 4, "total": 0},
		"winner": "Ad B", "explanation": " tie ", "criteria_names": ["clarity", "fun"]}`
	require.NoError(t, json.Unmarshal([]byte(body), &in))

	r, err := svc.Create(ctx, in, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 10, r.AdAScores.Total)
	assert.Equal(t, 10, r.AdBScores.Total)
	assert.Equal(t, ad.WinnerA, r.Winner)
	assert.Equal(t, "tie", r.Explanation)
	assert.Equal(t, "user-1", r.CreatedBy)

	got, err := svc.Get(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PersonaSummary)
	assert.Equal(t, "Maya", got.PersonaSummary.Name)
}

func TestReportServiceCreateRejects(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	p := testutil.SeedPersona(t, ctx, st.db, "Maya")
	svc := NewReportService(testutil.Logger(t), st.reports)
	crit := []string{"clarity"}
	ok := ad.NewScoreSet(crit, map[string]int{"clarity": 5})

	tests := map[string]struct {
		in   NewReport
		kind apperr.Kind
	}{
		"no persona":        {NewReport{AdType: ad.ModalityText, AdAScores: ok, AdBScores: ok}, apperr.KindInvalidInput},
		"bad ad type":       {NewReport{PersonaID: p.ID, AdType: "radio", AdAScores: ok, AdBScores: ok}, apperr.KindInvalidInput},
		"missing criterion": {NewReport{PersonaID: p.ID, AdType: ad.ModalityText, AdAScores: ok, AdBScores: ok, CriteriaNames: []string{"clarity", "fun"}}, apperr.KindInvalidInput},
		"out of range":      {NewReport{PersonaID: p.ID, AdType: ad.ModalityText, AdAScores: ad.NewScoreSet(crit, map[string]int{"clarity": 12}), AdBScores: ok}, apperr.KindInvalidInput},
		"unknown persona":   {NewReport{PersonaID: uuid.New(), AdType: ad.ModalityText, AdAScores: ok, AdBScores: ok}, apperr.KindNotFound},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.in, "u")
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}
}

func TestReportServiceExportCSV(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	p := testutil.SeedPersona(t, ctx, st.db, "Maya, Jr.")
	r := testutil.SeedReport(t, ctx, st.db, p, map[string]int{"brand_recall": 9}, map[string]int{"brand_recall": 3})
	svc := NewReportService(testutil.Logger(t), st.reports)

	raw, err := svc.ExportCSV(ctx, r.ID)
	require.NoError(t, err)
	rd := csv.NewReader(strings.NewReader(string(raw)))
	rd.FieldsPerRecord = -1
	rows, err := rd.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"persona", "Maya, Jr."}, rows[1])
	assert.Contains(t, rows, []string{"brand recall", "9", "3"})
	assert.Contains(t, rows, []string{"total", "9", "3"})

	_, err = svc.ExportCSV(ctx, uuid.New())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
