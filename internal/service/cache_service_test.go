package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/grade-portal-api/internal/models"
	appErrors "github.com/campushub/grade-portal-api/pkg/errors"
)

type cacheRepoStub struct {
	entries map[string][]byte
	deleted []string
}

func newCacheRepoStub() *cacheRepoStub {
	return &cacheRepoStub{entries: map[string][]byte{}}
}

func (s *cacheRepoStub) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := s.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *cacheRepoStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.entries[key] = raw
	return nil
}

func (s *cacheRepoStub) DeleteByPattern(ctx context.Context, pattern string) error {
	s.deleted = append(s.deleted, pattern)
	for key := range s.entries {
		delete(s.entries, key)
	}
	return nil
}

func TestCacheServiceRoundTrip(t *testing.T) {
	repo := newCacheRepoStub()
	svc := NewCacheService(repo, nil, time.Minute, nil, true)

	require.NoError(t, svc.Set(context.Background(), "k1", map[string]int{"a": 1}, 0))

	var out map[string]int
	hit, err := svc.Get(context.Background(), "k1", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, out["a"])
}

func TestCacheServiceMissIsNotAnError(t *testing.T) {
	svc := NewCacheService(newCacheRepoStub(), nil, time.Minute, nil, true)

	var out map[string]int
	hit, err := svc.Get(context.Background(), "absent", &out)
	assert.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheServiceDisabledPassesThrough(t *testing.T) {
	repo := newCacheRepoStub()
	svc := NewCacheService(repo, nil, time.Minute, nil, false)

	require.NoError(t, svc.Set(context.Background(), "k1", "v", 0))
	assert.Empty(t, repo.entries)

	hit, err := svc.Get(context.Background(), "k1", new(string))
	assert.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheServiceNilIsSafe(t *testing.T) {
	var svc *CacheService
	assert.False(t, svc.Enabled())
	hit, err := svc.Get(context.Background(), "k1", new(string))
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, svc.Set(context.Background(), "k1", "v", 0))
	assert.NoError(t, svc.Invalidate(context.Background(), "k*"))
}

func TestGradeStatisticsServedFromCache(t *testing.T) {
	repo := newCacheRepoStub()
	cacheSvc := NewCacheService(repo, nil, time.Minute, nil, true)
	gateway := &gradeGatewayStub{grades: []models.Grade{{Grade: models.GradeA, CreditHours: 3, Semester: "Fall 2024"}}}
	svc := NewGradeService(gateway, cacheSvc, nil)

	first, err := svc.GetGradeStatistics(context.Background(), "stu-1")
	require.NoError(t, err)
	second, err := svc.GetGradeStatistics(context.Background(), "stu-1")
	require.NoError(t, err)

	assert.Equal(t, 1, gateway.listCalls)
	assert.Equal(t, first.GPA, second.GPA)
}

func TestCorrectionSubmitInvalidatesSummaryCache(t *testing.T) {
	repo := newCacheRepoStub()
	cacheSvc := NewCacheService(repo, nil, time.Minute, nil, true)
	gateway := &correctionGatewayStub{}
	finder := &gradeFinderStub{grade: &models.Grade{ID: "g1", Grade: models.GradeB}}
	svc := NewCorrectionService(gateway, finder, cacheSvc, nil)

	// warm the summary cache
	_, err := svc.GetCorrectionSummary(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.NotEmpty(t, repo.entries)

	_, err = svc.SubmitGradeCorrection(context.Background(), validCorrectionRequest())
	require.NoError(t, err)
	assert.Contains(t, repo.deleted, "corrections:summary:stu-1")
}
