package ad

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreSetTotalIgnoresDeclaredTotal(t *testing.T) {
	var s ScoreSet
	require.NoError(t, json.Unmarshal([]byte(`{"message_clarity": 7, "brand_recall": 9, "total": 99}`), &s))
	assert.Equal(t, []string{"message_clarity", "brand_recall"}, s.Criteria)
	assert.Equal(t, 16, s.Total)
}

func TestScoreSetRoundsNonIntegral(t *testing.T) {
	var s ScoreSet
	require.NoError(t, json.Unmarshal([]byte(`{"a": 7.5, "b": 2.4}`), &s))
	assert.Equal(t, 8, s.Get("a"))
	assert.Equal(t, 2, s.Get("b"))
	assert.Equal(t, 10, s.Total)
}

func TestScoreSetMarshalFlatAndOrdered(t *testing.T) {
	s := NewScoreSet([]string{"z_last", "a_first"}, map[string]int{"z_last": 3, "a_first": 4, "ignored": 10})
	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, `{"z_last":3,"a_first":4,"total":7}`, string(b))
}

func TestScoreSetValidate(t *testing.T) {
	ok := NewScoreSet([]string{"a"}, map[string]int{"a": 10})
	assert.NoError(t, ok.Validate())

	tooHigh := NewScoreSet([]string{"a"}, map[string]int{"a": 11})
	assert.Error(t, tooHigh.Validate())

	missing := ScoreSet{Criteria: []string{"a"}, Scores: map[string]int{}}
	assert.Error(t, missing.Validate())

	assert.Error(t, ScoreSet{}.Validate())
}

func TestScoreSetScanValue(t *testing.T) {
	in := NewScoreSet([]string{"a", "b"}, map[string]int{"a": 1, "b": 2})
	v, err := in.Value()
	require.NoError(t, err)
	var out ScoreSet
	require.NoError(t, out.Scan(v))
	assert.Equal(t, in, out)
	require.NoError(t, out.Scan([]byte(v.(string))))
	assert.Equal(t, in, out)
}

func TestDecideWinner(t *testing.T) {
	a := NewScoreSet([]string{"x"}, map[string]int{"x": 5})
	b := NewScoreSet([]string{"x"}, map[string]int{"x": 5})
	assert.Equal(t, WinnerA, DecideWinner(a, b), "ties go to Ad A")
	b.Scores["x"] = 6
	b.Recompute()
	assert.Equal(t, WinnerB, DecideWinner(a, b))
}

func TestReportFinalize(t *testing.T) {
	r := AnalysisReport{
		AdAScores:     NewScoreSet([]string{"a", "b"}, map[string]int{"a": 2, "b": 2}),
		AdBScores:     NewScoreSet([]string{"a", "b"}, map[string]int{"a": 3, "b": 3}),
		Winner:        WinnerA,
		CriteriaNames: []string{"a", "b"},
	}
	r.AdAScores.Total = 100
	r.Finalize()
	assert.Equal(t, 4, r.AdAScores.Total)
	assert.Equal(t, 6, r.AdBScores.Total)
	assert.Equal(t, WinnerB, r.Winner)
}

func TestDefaultCriteriaCopy(t *testing.T) {
	c := DefaultCriteria(ModalityText)
	require.Len(t, c, 6)
	c[0] = "changed"
	assert.Equal(t, "headline_impact", DefaultCriteria(ModalityText)[0])
}

func TestPersonaPatchUpdates(t *testing.T) {
	name := "  Maya "
	var interests []string
	u := PersonaPatch{Name: &name, Interests: &interests}.Updates()
	assert.Equal(t, "Maya", u["name"])
	assert.NotNil(t, u["interests"])
	_, hasAge := u["age"]
	assert.False(t, hasAge)
}
