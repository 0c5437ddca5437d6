package service

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/teacher-ratings-api/internal/models"
	appErrors "github.com/noah-isme/teacher-ratings-api/pkg/errors"
)

type memoryCache struct {
	items  map[string][]byte
	getErr error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string][]byte)}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = raw
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	for key := range m.items {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.items, key)
		}
	}
	return nil
}

func TestTeacherListCaching(t *testing.T) {
	f := newFixture(t)
	store := newMemoryCache()
	cache := NewCacheService(store, f.metrics, time.Minute, zap.NewNop(), true)
	writes := NewStoreLock()
	svc := NewTeacherService(f.teachers, f.ratings, cache, f.metrics, writes, validator.New(), zap.NewNop())
	ratings := NewRatingService(f.ratings, f.teachers, cache, f.metrics, writes, validator.New(), zap.NewNop())
	ctx := context.Background()

	_, err := svc.Create(ctx, createTeacherRequest("T1", "Ada"))
	require.NoError(t, err)

	first, err := svc.List(ctx, models.TeacherFilter{})
	require.NoError(t, err)
	require.Len(t, store.items, 1)

	second, err := svc.List(ctx, models.TeacherFilter{})
	require.NoError(t, err)
	assert.Equal(t, first.Total, second.Total)
	assert.Equal(t, 1.0, counterValue(t, f.metrics, "cache_lookups_total", "result", "hit"))

	_, err = ratings.Submit(ctx, SubmitRatingRequest{TeacherID: "T1", Rating: 5}, VoterEvidence{})
	require.NoError(t, err)
	assert.Empty(t, store.items)

	third, err := svc.List(ctx, models.TeacherFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, third.Teachers[0].RatingCount)
}

func TestCacheServiceToleratesFailures(t *testing.T) {
	store := newMemoryCache()
	store.getErr = errors.New("connection refused")
	cache := NewCacheService(store, nil, 0, nil, true)

	var dest map[string]string
	assert.False(t, cache.Get(context.Background(), "k", &dest))

	var disabled *CacheService
	assert.False(t, disabled.Enabled())
	assert.False(t, disabled.Get(context.Background(), "k", &dest))
	disabled.Set(context.Background(), "k", "v")
	disabled.Invalidate(context.Background(), "*")
}
