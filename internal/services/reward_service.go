package services

import (
	"context"
	"fmt"

	"github.com/coursehub/progress-service/internal/models"
	"go.uber.org/zap"
)

// RewardRepository defines methods for reward ledger data access
type RewardRepository interface {
	// Exists checks whether a transaction exists for the idempotency key
	//
	// "ctx" is the context for the request.
	// "userID" is the ID of the user.
	// "category" is the cause category of the reward.
	// "reference" is the cause identifier, scoped within the category.
	//
	// Returns true if a matching transaction exists and an error if any.
	Exists(ctx context.Context, userID int, category models.RewardCategory, reference string) (bool, error)
	// Create inserts a new reward transaction
	//
	// "tx" is the transaction to insert; its ID is set on success.
	// Returns false without error when the unique key over
	// (user, category, reference) rejected the insert as a duplicate.
	Create(ctx context.Context, tx *models.RewardTransaction) (bool, error)
	// SumByUser returns the sum of all transaction amounts for a user
	//
	// "userID" is the ID of the user.
	// Returns the sum and an error if any.
	SumByUser(ctx context.Context, userID int) (int, error)
	// GetByUser retrieves a page of transactions for a user, newest first
	//
	// "userID" is the ID of the user.
	// "page" is the page number to retrieve.
	// "count" is the number of items per page.
	//
	// Returns the transactions, the total count, and an error if any.
	GetByUser(ctx context.Context, userID, page, count int) ([]models.RewardTransaction, int, error)
}

// BalanceCache defines methods for the read-side balance projection
type BalanceCache interface {
	// Get retrieves a cached balance; the second value reports a hit
	Get(ctx context.Context, userID int) (int, bool, error)
	// Set stores a balance
	Set(ctx context.Context, userID, balance int) error
	// Invalidate drops the cached balance for a user
	Invalidate(ctx context.Context, userID int) error
}

// rewardService implements the reward ledger: at-most-once issuance of XP
// per (user, category, reference) triple.
type rewardService struct {
	repo   RewardRepository
	cache  BalanceCache
	logger *zap.Logger
}

// NewRewardService creates a new reward service
func NewRewardService(repo RewardRepository, cache BalanceCache, logger *zap.Logger) *rewardService {
	return &rewardService{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// Award pays a reward exactly once per (user, category, reference).
// Returns false when the reward was already paid. The existence check is an
// optimization; the unique constraint behind RewardRepository.Create is the
// actual correctness guarantee under concurrent duplicate calls.
func (s *rewardService) Award(ctx context.Context, userID, amount int, category models.RewardCategory, reference, description string, metadata map[string]any) (bool, error) {
	exists, err := s.repo.Exists(ctx, userID, category, reference)
	if err != nil {
		return false, fmt.Errorf("failed to check existing reward: %w", err)
	}
	if exists {
		return false, nil
	}

	tx := &models.RewardTransaction{
		UserID:      userID,
		Amount:      amount,
		Category:    category,
		Reference:   reference,
		Description: description,
		Metadata:    metadata,
	}

	created, err := s.repo.Create(ctx, tx)
	if err != nil {
		return false, fmt.Errorf("failed to create reward: %w", err)
	}
	if !created {
		// Lost the race against a concurrent duplicate; the other call paid.
		return false, nil
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, userID); err != nil {
			s.logger.Warn("failed to invalidate balance cache",
				zap.Int("user_id", userID),
				zap.Error(err),
			)
		}
	}

	return true, nil
}

// Balance returns the user's XP balance, served from the cache when warm
// and recomputed from the ledger sum otherwise
func (s *rewardService) Balance(ctx context.Context, userID int) (int, error) {
	if s.cache != nil {
		balance, hit, err := s.cache.Get(ctx, userID)
		if err != nil {
			s.logger.Warn("failed to read balance cache",
				zap.Int("user_id", userID),
				zap.Error(err),
			)
		} else if hit {
			return balance, nil
		}
	}

	balance, err := s.repo.SumByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to compute balance: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, userID, balance); err != nil {
			s.logger.Warn("failed to populate balance cache",
				zap.Int("user_id", userID),
				zap.Error(err),
			)
		}
	}

	return balance, nil
}

// History retrieves a page of the user's reward history
func (s *rewardService) History(ctx context.Context, userID, page, count int) (*models.RewardHistoryResponse, error) {
	if page < 1 {
		page = 1
	}
	if count < 1 {
		count = 10
	}

	transactions, total, err := s.repo.GetByUser(ctx, userID, page, count)
	if err != nil {
		return nil, fmt.Errorf("failed to get reward history: %w", err)
	}

	return &models.RewardHistoryResponse{
		Transactions: transactions,
		Total:        total,
		Page:         page,
		Count:        count,
	}, nil
}
