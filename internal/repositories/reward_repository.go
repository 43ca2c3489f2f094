package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/coursehub/progress-service/internal/models"
	"github.com/go-sql-driver/mysql"
)

// mysqlDuplicateEntry is the MySQL error number for a unique key violation
const mysqlDuplicateEntry = 1062

type rewardRepository struct {
	db *sql.DB
}

// NewRewardRepository creates a new reward repository
func NewRewardRepository(db *sql.DB) *rewardRepository {
	return &rewardRepository{
		db: db,
	}
}

// Exists checks whether a transaction already exists for the idempotency key
func (r *rewardRepository) Exists(ctx context.Context, userID int, category models.RewardCategory, reference string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM reward_transactions WHERE user_id = ? AND category = ? AND reference = ?)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, userID, category, reference).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check reward existence: %w", err)
	}

	return exists, nil
}

// Create inserts a new reward transaction. The unique key over
// (user_id, category, reference) is the exactly-once backstop: if another
// request already inserted the same key, Create returns (false, nil) and the
// ledger is left untouched.
func (r *rewardRepository) Create(ctx context.Context, tx *models.RewardTransaction) (bool, error) {
	metadata := []byte("{}")
	if tx.Metadata != nil {
		var err error
		metadata, err = json.Marshal(tx.Metadata)
		if err != nil {
			return false, fmt.Errorf("failed to marshal reward metadata: %w", err)
		}
	}

	query := `
		INSERT INTO reward_transactions (user_id, amount, category, reference, description, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		tx.UserID,
		tx.Amount,
		tx.Category,
		tx.Reference,
		tx.Description,
		metadata,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return false, nil
		}
		return false, fmt.Errorf("failed to create reward transaction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("failed to get last insert id: %w", err)
	}

	tx.ID = int(id)
	return true, nil
}

// SumByUser returns the sum of all transaction amounts for a user
func (r *rewardRepository) SumByUser(ctx context.Context, userID int) (int, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM reward_transactions WHERE user_id = ?`

	var total int
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum reward transactions: %w", err)
	}

	return total, nil
}

// GetByUser retrieves a page of transactions for a user, newest first
func (r *rewardRepository) GetByUser(ctx context.Context, userID, page, count int) ([]models.RewardTransaction, int, error) {
	countQuery := `SELECT COUNT(*) FROM reward_transactions WHERE user_id = ?`

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count reward transactions: %w", err)
	}

	query := `
		SELECT id, user_id, amount, category, reference, description, metadata, created_at
		FROM reward_transactions
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`

	offset := (page - 1) * count
	rows, err := r.db.QueryContext(ctx, query, userID, count, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get reward transactions: %w", err)
	}
	defer rows.Close()

	var transactions []models.RewardTransaction
	for rows.Next() {
		var tx models.RewardTransaction
		var metadata []byte
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Amount, &tx.Category, &tx.Reference, &tx.Description, &metadata, &tx.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan reward transaction: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &tx.Metadata); err != nil {
				return nil, 0, fmt.Errorf("failed to unmarshal reward metadata: %w", err)
			}
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate reward transactions: %w", err)
	}

	return transactions, total, nil
}
