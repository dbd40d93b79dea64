package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/adpersona-backend/internal/domain/ad"
	"github.com/yungbote/adpersona-backend/internal/pkg/logger"
)

// ErrNotFound is returned when no progress is stored under an id.
var ErrNotFound = errors.New("batch progress not found")

type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// ProgressStore keeps batch progress as JSON values with a TTL.
type ProgressStore struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

func NewProgressStore(ctx context.Context, cfg Config, log *logger.Logger) (*ProgressStore, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return newProgressStore(rdb, cfg, log), nil
}

func newProgressStore(rdb *goredis.Client, cfg Config, log *logger.Logger) *ProgressStore {
	prefix := strings.TrimSpace(cfg.KeyPrefix)
	if prefix == "" {
		prefix = "adpersona:batch:"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ProgressStore{log: log.With("service", "RedisProgressStore"), rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *ProgressStore) key(id string) string { return s.prefix + id }

func (s *ProgressStore) Put(ctx context.Context, p ad.BatchProgress) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.key(p.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set progress: %w", err)
	}
	return nil
}

func (s *ProgressStore) Get(ctx context.Context, id string) (*ad.BatchProgress, error) {
	raw, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get progress: %w", err)
	}
	var p ad.BatchProgress
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode progress: %w", err)
	}
	return &p, nil
}

func (s *ProgressStore) Close() error { return s.rdb.Close() }
