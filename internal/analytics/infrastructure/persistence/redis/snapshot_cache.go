// 包 分析服务的 Redis 缓存实现
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/wyfcoding/merchantmetrics/internal/analytics/domain"
	"github.com/wyfcoding/merchantmetrics/pkg/cache"
	"github.com/wyfcoding/merchantmetrics/pkg/logger"
)

// SnapshotCache 最近快照的 Redis 读穿缓存。缓存故障只记日志并当作未命中，
// 读写路径绝不因缓存不可用而失败。
type SnapshotCache struct {
	cache *cache.RedisCache
	ttl   time.Duration
}

// NewSnapshotCache 创建快照缓存
func NewSnapshotCache(c *cache.RedisCache, ttl time.Duration) *SnapshotCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &SnapshotCache{cache: c, ttl: ttl}
}

func snapshotKey(userID string) string {
	return fmt.Sprintf("analytics:snapshots:%s", userID)
}

// GetLatest 读取缓存的快照列表，未命中或异常返回 (nil, false)
func (sc *SnapshotCache) GetLatest(ctx context.Context, userID string) ([]*domain.BusinessMetricsSnapshot, bool) {
	var snaps []*domain.BusinessMetricsSnapshot
	if err := sc.cache.GetJSON(ctx, snapshotKey(userID), &snaps); err != nil {
		logger.Warn(ctx, "snapshot cache read failed", "user_id", userID, "error", err)
		return nil, false
	}
	if len(snaps) == 0 {
		return nil, false
	}
	return snaps, true
}

// SetLatest 缓存快照列表
func (sc *SnapshotCache) SetLatest(ctx context.Context, userID string, snapshots []*domain.BusinessMetricsSnapshot) {
	if len(snapshots) == 0 {
		return
	}
	if err := sc.cache.SetJSON(ctx, snapshotKey(userID), snapshots, sc.ttl); err != nil {
		logger.Warn(ctx, "snapshot cache write failed", "user_id", userID, "error", err)
	}
}

// Invalidate 重算后使该用户的缓存失效
func (sc *SnapshotCache) Invalidate(ctx context.Context, userID string) {
	if err := sc.cache.Delete(ctx, snapshotKey(userID)); err != nil {
		logger.Warn(ctx, "snapshot cache invalidation failed", "user_id", userID, "error", err)
	}
}
