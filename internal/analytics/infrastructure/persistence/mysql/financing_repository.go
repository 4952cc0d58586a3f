package mysql

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/wyfcoding/merchantmetrics/internal/analytics/domain"
)

// financingRepository 融资数据只读仓储
type financingRepository struct {
	db *gorm.DB
}

// NewFinancingRepository 创建融资数据仓储
func NewFinancingRepository(db *gorm.DB) domain.FinancingProvider {
	return &financingRepository{db: db}
}

// FetchContext 返回某用户当前有效的融资报价与贷款申请
func (r *financingRepository) FetchContext(ctx context.Context, userID string) (domain.FinancingContext, error) {
	var offerModels []FinancingOfferModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND expires_at > ?", userID, time.Now().UTC()).
		Order("expires_at ASC").
		Find(&offerModels).Error
	if err != nil {
		return domain.FinancingContext{}, fmt.Errorf("query financing offers for user %s: %w", userID, err)
	}

	var appModels []LoanApplicationModel
	err = r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&appModels).Error
	if err != nil {
		return domain.FinancingContext{}, fmt.Errorf("query loan applications for user %s: %w", userID, err)
	}

	fc := domain.FinancingContext{
		ActiveOffers: make([]domain.FinancingOffer, 0, len(offerModels)),
		Applications: make([]domain.LoanApplication, 0, len(appModels)),
	}
	for _, m := range offerModels {
		fc.ActiveOffers = append(fc.ActiveOffers, domain.FinancingOffer{
			Provider:     m.Provider,
			Type:         m.OfferType,
			Amount:       m.Amount,
			InterestRate: m.InterestRate,
			TermMonths:   m.TermMonths,
			ExpiresAt:    m.ExpiresAt,
		})
	}
	for _, m := range appModels {
		fc.Applications = append(fc.Applications, domain.LoanApplication{
			Status:          m.Status,
			RequestedAmount: m.RequestedAmount,
			CreatedAt:       m.CreatedAt,
		})
	}
	return fc, nil
}
