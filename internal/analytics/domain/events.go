package domain

import "context"

// EventTypeSnapshotCalculated 快照计算完成事件类型
const EventTypeSnapshotCalculated = "analytics.snapshot.calculated"

// EventPublisher 领域事件发布接口。发布失败不回滚已落库的快照，
// 由调用方记录告警后继续。
type EventPublisher interface {
	PublishSnapshotCalculated(ctx context.Context, userID string, record map[string]any) error
}
