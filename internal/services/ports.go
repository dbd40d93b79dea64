package services

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/yungbote/adpersona-backend/internal/clients/redis"
	"github.com/yungbote/adpersona-backend/internal/domain/ad"
	"github.com/yungbote/adpersona-backend/internal/domain/auth"
)

// IdentityResolver maps a bearer token to an external identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*auth.Identity, error)
	Name() string
}

// ProgressTracker stores batch progress snapshots.
type ProgressTracker interface {
	Put(ctx context.Context, p ad.BatchProgress) error
	Get(ctx context.Context, id string) (*ad.BatchProgress, error)
}

// ErrProgressNotFound is returned by trackers for unknown or expired batch ids.
var ErrProgressNotFound = redis.ErrNotFound

// ArtifactRef names a stored creative.
type ArtifactRef struct {
	URI      string `json:"uri"`
	Filename string `json:"filename,omitempty"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

type ArtifactStore interface {
	Save(ctx context.Context, field, filename, mimeType string, r io.Reader) (ArtifactRef, error)
	Open(ctx context.Context, ref ArtifactRef) ([]byte, error)
	Delete(ctx context.Context, ref ArtifactRef) error
}

// Annotator produces optional prompt hints for a creative.
type Annotator interface {
	Annotate(ctx context.Context, modality ad.Modality, ref ArtifactRef, data []byte) (string, error)
}

type memoryProgress struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryProgressEntry
}

type memoryProgressEntry struct {
	p       ad.BatchProgress
	expires time.Time
}

// NewMemoryProgressTracker keeps progress in process. Entries expire after ttl.
func NewMemoryProgressTracker(ttl time.Duration) ProgressTracker {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &memoryProgress{ttl: ttl, now: time.Now, entries: map[string]memoryProgressEntry{}}
}

func (m *memoryProgress) Put(ctx context.Context, p ad.BatchProgress) error {
	p.ReportIDs = append([]string(nil), p.ReportIDs...)
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for id, e := range m.entries {
		if now.After(e.expires) {
			delete(m.entries, id)
		}
	}
	m.entries[p.ID] = memoryProgressEntry{p: p, expires: now.Add(m.ttl)}
	return nil
}

func (m *memoryProgress) Get(ctx context.Context, id string) (*ad.BatchProgress, error) {
	m.mu.RLock()
	e, ok := m.entries[id]
	m.mu.RUnlock()
	if !ok || m.now().After(e.expires) {
		return nil, ErrProgressNotFound
	}
	out := e.p
	out.ReportIDs = append([]string(nil), e.p.ReportIDs...)
	return &out, nil
}
