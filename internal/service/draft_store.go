package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

const draftKeyPrefix = "timetable:draft:"

type draftStore interface {
	Save(ctx context.Context, draft models.TimetableDraft) error
	Get(ctx context.Context, id string) (models.TimetableDraft, bool, error)
	Delete(ctx context.Context, id string) error
}

// memoryDraftStore keeps drafts in process. Each save restarts the draft's TTL.
type memoryDraftStore struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]models.TimetableDraft
}

func newMemoryDraftStore(ttl time.Duration) *memoryDraftStore {
	return &memoryDraftStore{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]models.TimetableDraft),
	}
}

func (s *memoryDraftStore) Save(_ context.Context, draft models.TimetableDraft) error {
	draft.Schedule = draft.Schedule.Clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[draft.ID] = draft
	return nil
}

func (s *memoryDraftStore) Get(ctx context.Context, id string) (models.TimetableDraft, bool, error) {
	s.mu.RLock()
	draft, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return models.TimetableDraft{}, false, nil
	}
	if s.now().Sub(draft.UpdatedAt) > s.ttl {
		_ = s.Delete(ctx, id)
		return models.TimetableDraft{}, false, nil
	}
	draft.Schedule = draft.Schedule.Clone()
	return draft, true, nil
}

func (s *memoryDraftStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
	return nil
}

// redisDraftStore shares drafts between API replicas through the cache repository.
type redisDraftStore struct {
	repo CacheRepository
	ttl  time.Duration
}

func newRedisDraftStore(repo CacheRepository, ttl time.Duration) *redisDraftStore {
	return &redisDraftStore{repo: repo, ttl: ttl}
}

func (s *redisDraftStore) Save(ctx context.Context, draft models.TimetableDraft) error {
	return s.repo.Set(ctx, draftKeyPrefix+draft.ID, draft, s.ttl)
}

func (s *redisDraftStore) Get(ctx context.Context, id string) (models.TimetableDraft, bool, error) {
	var draft models.TimetableDraft
	if err := s.repo.Get(ctx, draftKeyPrefix+id, &draft); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return models.TimetableDraft{}, false, nil
		}
		return models.TimetableDraft{}, false, err
	}
	return draft, true, nil
}

func (s *redisDraftStore) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, draftKeyPrefix+id)
}
