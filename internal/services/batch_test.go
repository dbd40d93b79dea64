package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/adpersona-backend/internal/clients/llm"
	"github.com/yungbote/adpersona-backend/internal/data/repos/testutil"
	"github.com/yungbote/adpersona-backend/internal/domain/ad"
	"github.com/yungbote/adpersona-backend/internal/pkg/apperr"
)

const goodTextEval = `{"ad_a_scores": {"headline_impact": 8, "message_clarity": 7, "emotional_engagement": 6, "call_to_action_strength": 7, "brand_recall": 8, "persuasiveness": 7},
 "ad_b_scores": {"headline_impact": 9, "message_clarity": 9, "emotional_engagement": 9, "call_to_action_strength": 9, "brand_recall": 9, "persuasiveness": 9},
 "winner": "Ad B", "explanation": "B is bolder."}`

// byPersona answers per persona name; unnamed personas get goodTextEval.
func byPersona(answers map[string]func() (string, error)) *fakeLLM {
	return &fakeLLM{respond: func(p llm.Prompt) (string, error) {
		for name, fn := range answers {
			if strings.Contains(p.Text, "Name: "+name+"\n") {
				return fn()
			}
		}
		return goodTextEval, nil
	}}
}

type batchFixture struct {
	st       storeFixture
	personas []*ad.Persona
}

func newBatchFixture(t *testing.T, names ...string) batchFixture {
	t.Helper()
	st := newStore(t)
	f := batchFixture{st: st}
	for _, n := range names {
		f.personas = append(f.personas, testutil.SeedPersona(t, context.Background(), st.db, n))
	}
	return f
}

func (f batchFixture) ids() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(f.personas))
	for _, p := range f.personas {
		out = append(out, p.ID)
	}
	return out
}

func (f batchFixture) orchestrator(t *testing.T, ai llm.Client, cfg BatchConfig) BatchOrchestrator {
	t.Helper()
	log := testutil.Logger(t)
	eval := NewEvaluator(log, ai, nil, nil, nil, EvaluatorConfig{})
	return NewBatchOrchestrator(log, f.st.personas, f.st.reports, NewPersonaSynthesizer(log, ai, 0), eval, NewMemoryProgressTracker(0), nil, cfg)
}

func (f batchFixture) reportCount(t *testing.T) int {
	t.Helper()
	list, err := f.st.reports.List(context.Background(), nil)
	require.NoError(t, err)
	return len(list)
}

func TestBatchRunKeepsInputOrder(t *testing.T) {
	f := newBatchFixture(t, "Alice", "Bob", "Cara")
	release := make(chan struct{})
	ai := byPersona(map[string]func() (string, error){
		// Alice finishes last.
		"Alice": func() (string, error) { <-release; return goodTextEval, nil },
		"Cara":  func() (string, error) { defer close(release); return goodTextEval, nil },
	})
	b := f.orchestrator(t, ai, BatchConfig{Concurrency: 3})

	res, err := b.Run(context.Background(), BatchRequest{PersonaIDs: f.ids(), Input: textInput(), RequestedBy: "user-1"})
	require.NoError(t, err)
	require.Len(t, res.Items, 3)
	for i, item := range res.Items {
		assert.Equal(t, f.personas[i].ID, item.Persona.ID)
		assert.Equal(t, ad.WinnerB, item.Result.Winner)
		assert.NotEqual(t, uuid.Nil, item.ReportID)
	}
	assert.Equal(t, 3, f.reportCount(t))

	stored, err := f.st.reports.GetByID(context.Background(), nil, res.Items[0].ReportID)
	require.NoError(t, err)
	assert.Equal(t, "user-1", stored.CreatedBy)
	assert.Equal(t, 43, stored.AdAScores.Total)

	p, err := b.Progress(context.Background(), res.BatchID)
	require.NoError(t, err)
	assert.Equal(t, ad.BatchCompleted, p.Status)
	assert.Equal(t, 3, p.Completed)
	assert.Len(t, p.ReportIDs, 3)
}

func TestBatchAbortsAtFirstFailureInInputOrder(t *testing.T) {
	for _, concurrency := range []int{1, 3} {
		t.Run(fmt.Sprintf("concurrency=%d", concurrency), func(t *testing.T) {
			f := newBatchFixture(t, "Alice", "Bob", "Cara")
			ai := byPersona(map[string]func() (string, error){
				"Bob": func() (string, error) { return "no json here", nil },
			})
			b := f.orchestrator(t, ai, BatchConfig{Concurrency: concurrency})

			res, err := b.Run(context.Background(), BatchRequest{PersonaIDs: f.ids(), Input: textInput()})
			require.Error(t, err)
			assert.Nil(t, res)

			var be *BatchError
			require.True(t, errors.As(err, &be))
			assert.Equal(t, 1, be.Index)
			assert.Equal(t, 3, be.Total)
			assert.Equal(t, f.personas[1].ID, be.PersonaID)
			assert.Equal(t, "Bob", be.PersonaName)
			assert.Len(t, be.CompletedReportIDs, 1)
			assert.False(t, be.Compensated)
			assert.Equal(t, apperr.KindEvaluationParseFailed, apperr.KindOf(err))
			assert.Contains(t, be.PublicMessage(), "persona 2 of 3 (Bob)")

			list, lerr := f.st.reports.List(context.Background(), nil)
			require.NoError(t, lerr)
			require.Len(t, list, 1)
			assert.Equal(t, f.personas[0].ID, list[0].PersonaID)

			if concurrency == 1 {
				assert.Equal(t, 2, ai.callCount(), "later evaluations must not start")
			}

			p, perr := b.Progress(context.Background(), be.BatchID)
			require.NoError(t, perr)
			assert.Equal(t, ad.BatchFailed, p.Status)
			assert.Equal(t, 1, p.Completed)
		})
	}
}

func TestBatchLaterFailureDoesNotMaskEarlierSuccesses(t *testing.T) {
	f := newBatchFixture(t, "Alice", "Bob", "Cara")
	release := make(chan struct{})
	ai := byPersona(map[string]func() (string, error){
		"Alice": func() (string, error) { <-release; return goodTextEval, nil },
		"Cara":  func() (string, error) { defer close(release); return "", errUpstream },
	})
	b := f.orchestrator(t, ai, BatchConfig{Concurrency: 3})

	_, err := b.Run(context.Background(), BatchRequest{PersonaIDs: f.ids(), Input: textInput()})
	var be *BatchError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, 2, be.Index)
	assert.Len(t, be.CompletedReportIDs, 2)
	assert.Equal(t, apperr.KindProviderUnavailable, apperr.KindOf(err))
	assert.Equal(t, 2, f.reportCount(t))
}

func TestBatchCompensation(t *testing.T) {
	f := newBatchFixture(t, "Alice", "Bob", "Cara")
	ai := byPersona(map[string]func() (string, error){
		"Cara": func() (string, error) { return "", errUpstream },
	})
	b := f.orchestrator(t, ai, BatchConfig{Concurrency: 1, Compensate: true})

	_, err := b.Run(context.Background(), BatchRequest{PersonaIDs: f.ids(), Input: textInput()})
	var be *BatchError
	require.True(t, errors.As(err, &be))
	assert.True(t, be.Compensated)
	assert.Len(t, be.CompletedReportIDs, 2)
	assert.Zero(t, f.reportCount(t))
}

func TestBatchValidatesBeforeExternalCalls(t *testing.T) {
	f := newBatchFixture(t, "Alice")
	six := make([]uuid.UUID, 6)
	for i := range six {
		six[i] = uuid.New()
	}
	tests := []struct {
		name string
		req  BatchRequest
		kind apperr.Kind
	}{
		{name: "too many personas", req: BatchRequest{PersonaIDs: six, Input: textInput()}, kind: apperr.KindInvalidInput},
		{name: "no personas", req: BatchRequest{Input: textInput()}, kind: apperr.KindInvalidInput},
		{name: "duplicate persona", req: BatchRequest{PersonaIDs: []uuid.UUID{f.personas[0].ID, f.personas[0].ID}, Input: textInput()}, kind: apperr.KindInvalidInput},
		{name: "missing ad text", req: BatchRequest{PersonaIDs: f.ids(), Input: EvaluationInput{Modality: ad.ModalityText, AdAText: "x"}}, kind: apperr.KindInvalidInput},
		{name: "missing files", req: BatchRequest{PersonaIDs: f.ids(), Input: EvaluationInput{Modality: ad.ModalityImage}}, kind: apperr.KindInvalidInput},
		{name: "unknown persona", req: BatchRequest{PersonaIDs: []uuid.UUID{uuid.New()}, Input: textInput()}, kind: apperr.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ai := replyWith(goodTextEval)
			_, err := f.orchestrator(t, ai, BatchConfig{}).Run(context.Background(), tt.req)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
			assert.Zero(t, ai.callCount())
		})
	}
	assert.Zero(t, f.reportCount(t))
}

func TestBatchPromptFallback(t *testing.T) {
	f := newBatchFixture(t)
	ai := &fakeLLM{respond: func(p llm.Prompt) (string, error) {
		if p.Operation == "synthesize_persona" {
			return personaJSON, nil
		}
		return goodTextEval, nil
	}}
	b := f.orchestrator(t, ai, BatchConfig{})

	res, err := b.Run(context.Background(), BatchRequest{PersonaPrompt: "runners over 30", Input: textInput(), RequestedBy: "user-9"})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Maya Chen", res.Items[0].Persona.Name)
	assert.Equal(t, "runners over 30", res.Items[0].Persona.Description)

	stored, err := f.st.personas.GetByID(context.Background(), nil, res.Items[0].Persona.ID)
	require.NoError(t, err)
	assert.Equal(t, "user-9", stored.CreatedBy)
	assert.Equal(t, 2, ai.callCount())
}

func TestBatchProgressUnknown(t *testing.T) {
	f := newBatchFixture(t)
	_, err := f.orchestrator(t, replyWith(""), BatchConfig{}).Progress(context.Background(), "nope")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
