package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/coursehub/progress-service/internal/models"
)

func TestNewRewardService(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	mockRepo := &mockRewardRepo{}
	mockCache := &mockBalanceCache{}

	svc := NewRewardService(mockRepo, mockCache, logger)

	assert.NotNil(t, svc)
	assert.Equal(t, mockRepo, svc.repo)
	assert.Equal(t, mockCache, svc.cache)
	assert.Equal(t, logger, svc.logger)
}

func TestRewardService_Award(t *testing.T) {
	tests := []struct {
		name            string
		mockRepo        *mockRewardRepo
		expectedAwarded bool
		expectedError   bool
		expectedCreates int
	}{
		{
			name:            "first award pays",
			mockRepo:        &mockRewardRepo{},
			expectedAwarded: true,
			expectedCreates: 1,
		},
		{
			name:            "existing key short-circuits",
			mockRepo:        &mockRewardRepo{exists: true},
			expectedAwarded: false,
			expectedCreates: 0,
		},
		{
			name:            "lost insert race is a quiet no-op",
			mockRepo:        &mockRewardRepo{duplicate: true},
			expectedAwarded: false,
			expectedCreates: 0,
		},
		{
			name:          "existence check failure",
			mockRepo:      &mockRewardRepo{existsErr: errors.New("database error")},
			expectedError: true,
		},
		{
			name:          "insert failure",
			mockRepo:      &mockRewardRepo{createErr: errors.New("database error")},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := zap.NewDevelopment()
			svc := NewRewardService(tt.mockRepo, nil, logger)
			ctx := context.Background()

			awarded, err := svc.Award(ctx, 1, 50, models.RewardCategoryUnitComplete, "7", "Completed unit", nil)

			if tt.expectedError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedAwarded, awarded)
			assert.Len(t, tt.mockRepo.created, tt.expectedCreates)
		})
	}
}

func TestRewardService_Award_PopulatesTransaction(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	mockRepo := &mockRewardRepo{}
	svc := NewRewardService(mockRepo, nil, logger)

	awarded, err := svc.Award(context.Background(), 42, 25,
		models.RewardCategoryStreakMilestone, "streak-42-7-2026-08-29",
		"Kept a 7-day streak", map[string]any{"streak": 7})

	assert.NoError(t, err)
	assert.True(t, awarded)
	assert.Len(t, mockRepo.created, 1)
	tx := mockRepo.created[0]
	assert.Equal(t, 42, tx.UserID)
	assert.Equal(t, 25, tx.Amount)
	assert.Equal(t, models.RewardCategoryStreakMilestone, tx.Category)
	assert.Equal(t, "streak-42-7-2026-08-29", tx.Reference)
	assert.Equal(t, "Kept a 7-day streak", tx.Description)
}

func TestRewardService_Award_InvalidatesCache(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	mockCache := &mockBalanceCache{values: map[int]int{1: 300}}
	svc := NewRewardService(&mockRewardRepo{}, mockCache, logger)

	awarded, err := svc.Award(context.Background(), 1, 10, models.RewardCategoryContentComplete, "15", "Completed item", nil)

	assert.NoError(t, err)
	assert.True(t, awarded)
	assert.Equal(t, []int{1}, mockCache.invalidated)
	_, ok := mockCache.values[1]
	assert.False(t, ok)
}

func TestRewardService_Award_NoCacheInvalidationWhenDeduped(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	mockCache := &mockBalanceCache{values: map[int]int{1: 300}}
	svc := NewRewardService(&mockRewardRepo{exists: true}, mockCache, logger)

	awarded, err := svc.Award(context.Background(), 1, 10, models.RewardCategoryContentComplete, "15", "Completed item", nil)

	assert.NoError(t, err)
	assert.False(t, awarded)
	assert.Empty(t, mockCache.invalidated)
	assert.Equal(t, 300, mockCache.values[1])
}

// racingLedgerRepo emulates the ledger's unique key under concurrent
// inserts: the first Create for a key wins, every later one reports a
// duplicate. Safe for use from multiple goroutines.
type racingLedgerRepo struct {
	mu   sync.Mutex
	rows map[string]models.RewardTransaction
}

func (m *racingLedgerRepo) Exists(_ context.Context, userID int, category models.RewardCategory, reference string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[fmt.Sprintf("%d|%s|%s", userID, category, reference)]
	return ok, nil
}

func (m *racingLedgerRepo) Create(_ context.Context, tx *models.RewardTransaction) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fmt.Sprintf("%d|%s|%s", tx.UserID, tx.Category, tx.Reference)
	if _, ok := m.rows[key]; ok {
		return false, nil
	}
	tx.ID = len(m.rows) + 1
	m.rows[key] = *tx
	return true, nil
}

func (m *racingLedgerRepo) SumByUser(_ context.Context, userID int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum := 0
	for _, tx := range m.rows {
		if tx.UserID == userID {
			sum += tx.Amount
		}
	}
	return sum, nil
}

func (m *racingLedgerRepo) GetByUser(_ context.Context, _, _, _ int) ([]models.RewardTransaction, int, error) {
	return nil, 0, nil
}

func TestRewardService_Award_ConcurrentDuplicatesPayOnce(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	repo := &racingLedgerRepo{rows: make(map[string]models.RewardTransaction)}
	svc := NewRewardService(repo, nil, logger)

	const callers = 16
	var wg sync.WaitGroup
	var awarded atomic.Int32
	errs := make(chan error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := svc.Award(context.Background(), 1, 50,
				models.RewardCategoryUnitComplete, "7", "Completed unit", nil)
			if err != nil {
				errs <- err
				return
			}
			if ok {
				awarded.Add(1)
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), awarded.Load())
	assert.Len(t, repo.rows, 1)

	sum, err := repo.SumByUser(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, 50, sum)
}

func TestRewardService_Balance(t *testing.T) {
	tests := []struct {
		name            string
		mockRepo        *mockRewardRepo
		mockCache       *mockBalanceCache
		expectedBalance int
		expectedError   bool
	}{
		{
			name:            "cache miss falls through to ledger sum",
			mockRepo:        &mockRewardRepo{sum: 120},
			mockCache:       &mockBalanceCache{},
			expectedBalance: 120,
		},
		{
			name:            "cache hit skips the ledger",
			mockRepo:        &mockRewardRepo{sum: 999},
			mockCache:       &mockBalanceCache{values: map[int]int{1: 120}},
			expectedBalance: 120,
		},
		{
			name:            "cache read failure falls back to ledger sum",
			mockRepo:        &mockRewardRepo{sum: 120},
			mockCache:       &mockBalanceCache{getErr: errors.New("connection refused")},
			expectedBalance: 120,
		},
		{
			name:            "no cache configured",
			mockRepo:        &mockRewardRepo{sum: 120},
			expectedBalance: 120,
		},
		{
			name:          "ledger sum failure",
			mockRepo:      &mockRewardRepo{sumErr: errors.New("database error")},
			mockCache:     &mockBalanceCache{},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := zap.NewDevelopment()
			var cache BalanceCache
			if tt.mockCache != nil {
				cache = tt.mockCache
			}
			svc := NewRewardService(tt.mockRepo, cache, logger)

			balance, err := svc.Balance(context.Background(), 1)

			if tt.expectedError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedBalance, balance)
		})
	}
}

func TestRewardService_Balance_PopulatesCache(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	mockCache := &mockBalanceCache{}
	svc := NewRewardService(&mockRewardRepo{sum: 75}, mockCache, logger)

	balance, err := svc.Balance(context.Background(), 3)

	assert.NoError(t, err)
	assert.Equal(t, 75, balance)
	assert.Equal(t, 75, mockCache.values[3])
}

func TestRewardService_History(t *testing.T) {
	tests := []struct {
		name          string
		page          int
		count         int
		mockRepo      *mockRewardRepo
		expectedPage  int
		expectedCount int
		expectedError bool
	}{
		{
			name:  "returns a page",
			page:  2,
			count: 5,
			mockRepo: &mockRewardRepo{
				transactions: []models.RewardTransaction{
					{ID: 6, Amount: 10},
					{ID: 5, Amount: 50},
				},
				total: 12,
			},
			expectedPage:  2,
			expectedCount: 5,
		},
		{
			name:          "defaults applied to invalid paging",
			page:          0,
			count:         -3,
			mockRepo:      &mockRewardRepo{},
			expectedPage:  1,
			expectedCount: 10,
		},
		{
			name:          "repository error",
			page:          1,
			count:         10,
			mockRepo:      &mockRewardRepo{getErr: errors.New("database error")},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := zap.NewDevelopment()
			svc := NewRewardService(tt.mockRepo, nil, logger)

			result, err := svc.History(context.Background(), 1, tt.page, tt.count)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Nil(t, result)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedPage, result.Page)
			assert.Equal(t, tt.expectedCount, result.Count)
			assert.Equal(t, tt.mockRepo.total, result.Total)
		})
	}
}
