package mysql

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/wyfcoding/merchantmetrics/internal/analytics/domain"
)

// transactionRepository 交易表只读仓储
type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository 创建交易仓储
func NewTransactionRepository(db *gorm.DB) domain.TransactionStore {
	return &transactionRepository{db: db}
}

// ListByUser 返回 [from, to) 内某用户的全部交易，按创建时间升序
func (r *transactionRepository) ListByUser(ctx context.Context, userID string, from, to time.Time) ([]*domain.Transaction, error) {
	var models []TransactionModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, from, to).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("query transactions for user %s: %w", userID, err)
	}

	txs := make([]*domain.Transaction, 0, len(models))
	for i := range models {
		txs = append(txs, toTransactionDomain(&models[i]))
	}
	return txs, nil
}
