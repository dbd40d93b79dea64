package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/adpersona-backend/internal/clients/llm"
	"github.com/yungbote/adpersona-backend/internal/data/repos"
	"github.com/yungbote/adpersona-backend/internal/data/repos/testutil"
	"github.com/yungbote/adpersona-backend/internal/domain/ad"
	"github.com/yungbote/adpersona-backend/internal/domain/auth"
)

type fakeLLM struct {
	mu      sync.Mutex
	calls   []llm.Prompt
	respond func(p llm.Prompt) (string, error)
}

func replyWith(raw string) *fakeLLM {
	return &fakeLLM{respond: func(llm.Prompt) (string, error) { return raw, nil }}
}

func failWith(err error) *fakeLLM {
	return &fakeLLM{respond: func(llm.Prompt) (string, error) { return "", err }}
}

func (f *fakeLLM) Generate(ctx context.Context, p llm.Prompt) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, p)
	f.mu.Unlock()
	return f.respond(p)
}

func (f *fakeLLM) Provider() string { return "fake" }

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeLLM) lastPrompt() llm.Prompt {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return llm.Prompt{}
	}
	return f.calls[len(f.calls)-1]
}

var errUpstream = errors.New("upstream 503")

const personaJSON = `{
  "name": "Maya Chen",
  "age": 34,
  "gender": "female",
  "interests": ["running", "cooking"],
  "preferred_colors": ["green", "white"],
  "tone_preference": "warm and direct",
  "personality_traits": ["curious", "pragmatic"],
  "food_preferences": ["salads", "smoothies"],
  "description": "Maya is a busy professional who cares about healthy habits."
}`

// evalJSON renders a model evaluation over the image criteria.
func evalJSON(t *testing.T, a, b map[string]float64, winner string) string {
	t.Helper()
	body := map[string]any{
		"ad_a_scores":    a,
		"ad_b_scores":    b,
		"winner":         winner,
		"explanation":    "Ad A speaks to her routine.",
		"criteria_names": ad.DefaultCriteria(ad.ModalityImage),
	}
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(raw)
}

func uniformScores(criteria []string, v float64) map[string]float64 {
	out := make(map[string]float64, len(criteria))
	for _, c := range criteria {
		out[c] = v
	}
	return out
}

type fakeResolver struct {
	ident *auth.Identity
	err   error
}

func (f *fakeResolver) Resolve(ctx context.Context, token string) (*auth.Identity, error) {
	return f.ident, f.err
}

func (f *fakeResolver) Name() string { return "fake" }

type storeFixture struct {
	db       *gorm.DB
	personas repos.PersonaRepo
	reports  repos.ReportRepo
	profiles repos.ProfileRepo
}

func newStore(t *testing.T) storeFixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	return storeFixture{
		db:       db,
		personas: repos.NewPersonaRepo(db, log, 0),
		reports:  repos.NewReportRepo(db, log, 0),
		profiles: repos.NewProfileRepo(db, log, 0),
	}
}
