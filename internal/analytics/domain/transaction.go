// 包 业务指标与信用评分引擎的领域模型、值对象、计算服务、仓储接口
package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus 交易状态
type TransactionStatus string

const (
	StatusPending    TransactionStatus = "pending"
	StatusCompleted  TransactionStatus = "completed"
	StatusSuccessful TransactionStatus = "successful"
	StatusSucceeded  TransactionStatus = "succeeded"
	StatusFailed     TransactionStatus = "failed"
	StatusRefunded   TransactionStatus = "refunded"
)

// TransactionType 交易类型
type TransactionType string

const (
	TypePayment      TransactionType = "payment"
	TypeRefund       TransactionType = "refund"
	TypeSubscription TransactionType = "subscription"
)

// Transaction 交易记录。对引擎而言只读：金额始终以 Currency 计价，引擎绝不修改交易。
type Transaction struct {
	ID        string
	UserID    string
	Amount    decimal.Decimal
	Currency  string
	Status    TransactionStatus
	Type      TransactionType
	CreatedAt time.Time
}

// IsSettled 判断交易是否已结算。completed/successful/succeeded 是上游网关的同义状态。
func (t *Transaction) IsSettled() bool {
	switch t.Status {
	case StatusCompleted, StatusSuccessful, StatusSucceeded:
		return true
	}
	return false
}

// TransactionStore 交易存储只读接口
type TransactionStore interface {
	// ListByUser 返回 [from, to) 内某用户的全部交易
	ListByUser(ctx context.Context, userID string, from, to time.Time) ([]*Transaction, error)
}
