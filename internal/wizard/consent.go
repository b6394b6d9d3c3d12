// internal/wizard/consent.go
package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"recruitment-portal/internal/models"
)

var ErrConsentNotFound = errors.New("consent session not found")

// Consent is the precondition every controller is built from.
type Consent struct {
	SessionID string
	At        time.Time
}

func (c Consent) Given() bool { return !c.At.IsZero() }

// ConsentStore keeps session-scoped consent timestamps.
type ConsentStore interface {
	Record(ctx context.Context) (*models.ConsentSession, error)
	Lookup(ctx context.Context, id string) (*models.ConsentSession, error)
}

func newConsentSession(now time.Time, ttl time.Duration) *models.ConsentSession {
	return &models.ConsentSession{
		ID:        uuid.NewString(),
		ConsentAt: now.UTC(),
		ExpiresAt: now.UTC().Add(ttl),
	}
}

type MemoryConsentStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*models.ConsentSession
	now      func() time.Time
}

func NewMemoryConsentStore(ttl time.Duration) *MemoryConsentStore {
	return &MemoryConsentStore{ttl: ttl, sessions: map[string]*models.ConsentSession{}, now: time.Now}
}

func (s *MemoryConsentStore) Record(context.Context) (*models.ConsentSession, error) {
	sess := newConsentSession(s.now(), s.ttl)
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess, nil
}

func (s *MemoryConsentStore) Lookup(_ context.Context, id string) (*models.ConsentSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrConsentNotFound
	}
	if sess.IsExpired(s.now()) {
		delete(s.sessions, id)
		return nil, ErrConsentNotFound
	}
	return sess, nil
}

// RedisConsentStore expires consent with the session TTL.
type RedisConsentStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisConsentStore(rdb redis.Cmdable, ttl time.Duration) *RedisConsentStore {
	return &RedisConsentStore{rdb: rdb, ttl: ttl}
}

func consentKey(id string) string { return "wizard:consent:" + id }

func (s *RedisConsentStore) Record(ctx context.Context) (*models.ConsentSession, error) {
	sess := newConsentSession(time.Now(), s.ttl)
	payload, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	if err := s.rdb.Set(ctx, consentKey(sess.ID), payload, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("record consent: %w", err)
	}
	return sess, nil
}

func (s *RedisConsentStore) Lookup(ctx context.Context, id string) (*models.ConsentSession, error) {
	payload, err := s.rdb.Get(ctx, consentKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrConsentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup consent: %w", err)
	}
	var sess models.ConsentSession
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, fmt.Errorf("decode consent: %w", err)
	}
	return &sess, nil
}
