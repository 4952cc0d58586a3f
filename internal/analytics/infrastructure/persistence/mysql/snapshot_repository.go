package mysql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/wyfcoding/merchantmetrics/internal/analytics/domain"
)

// snapshotRepository 业务指标快照仓储
type snapshotRepository struct {
	db *gorm.DB
}

// NewSnapshotRepository 创建快照仓储
func NewSnapshotRepository(db *gorm.DB) domain.SnapshotRepository {
	return &snapshotRepository{db: db}
}

// Save 在单个事务内落库一条快照，任一字段失败则整体回滚
func (r *snapshotRepository) Save(ctx context.Context, snapshot *domain.BusinessMetricsSnapshot) error {
	model := toBusinessMetricsModel(snapshot)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(model).Error
	})
	if err != nil {
		return fmt.Errorf("insert snapshot %s: %w", snapshot.ID, err)
	}
	return nil
}

// ListLatest 按计算时间倒序返回某用户最近的快照
func (r *snapshotRepository) ListLatest(ctx context.Context, userID string, limit int) ([]*domain.BusinessMetricsSnapshot, error) {
	var models []BusinessMetricsModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("calculated_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("query snapshots for user %s: %w", userID, err)
	}

	snaps := make([]*domain.BusinessMetricsSnapshot, 0, len(models))
	for i := range models {
		snaps = append(snaps, toSnapshotDomain(&models[i]))
	}
	return snaps, nil
}

// LatestByUser 返回某用户最近一条快照
func (r *snapshotRepository) LatestByUser(ctx context.Context, userID string) (*domain.BusinessMetricsSnapshot, error) {
	var model BusinessMetricsModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("calculated_at DESC").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query latest snapshot for user %s: %w", userID, err)
	}
	return toSnapshotDomain(&model), nil
}

// ListUnscored 按计算时间升序返回 credit_score 为空的快照
func (r *snapshotRepository) ListUnscored(ctx context.Context, limit int) ([]*domain.BusinessMetricsSnapshot, error) {
	var models []BusinessMetricsModel
	err := r.db.WithContext(ctx).
		Where("credit_score IS NULL").
		Order("calculated_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("query unscored snapshots: %w", err)
	}

	snaps := make([]*domain.BusinessMetricsSnapshot, 0, len(models))
	for i := range models {
		snaps = append(snaps, toSnapshotDomain(&models[i]))
	}
	return snaps, nil
}

// SetCreditScore 回填信用评分。WHERE 带 credit_score IS NULL 守卫，
// 已有评分的行不会被覆盖，并发重复执行也只生效一次。
func (r *snapshotRepository) SetCreditScore(ctx context.Context, snapshotID string, score int, rating string) error {
	err := r.db.WithContext(ctx).
		Model(&BusinessMetricsModel{}).
		Where("snapshot_id = ? AND credit_score IS NULL", snapshotID).
		Updates(map[string]any{
			"credit_score":  score,
			"credit_rating": rating,
		}).Error
	if err != nil {
		return fmt.Errorf("backfill credit score for snapshot %s: %w", snapshotID, err)
	}
	return nil
}
