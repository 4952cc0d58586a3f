// 包 分析服务的 Kafka 消息发布实现
package messaging

import (
	"context"
	"fmt"

	"github.com/wyfcoding/merchantmetrics/internal/analytics/domain"
	"github.com/wyfcoding/merchantmetrics/pkg/mq"
)

// SnapshotPublisher 快照事件的 Kafka 发布者。消息 key 取 userID，
// 保证同一用户的快照事件落在同一分区、按序消费。
type SnapshotPublisher struct {
	producer *mq.KafkaProducer
	topic    string
}

// NewSnapshotPublisher 创建快照事件发布者
func NewSnapshotPublisher(producer *mq.KafkaProducer, topic string) *SnapshotPublisher {
	if topic == "" {
		topic = domain.EventTypeSnapshotCalculated
	}
	return &SnapshotPublisher{producer: producer, topic: topic}
}

// PublishSnapshotCalculated 发布快照计算完成事件
func (p *SnapshotPublisher) PublishSnapshotCalculated(ctx context.Context, userID string, record map[string]any) error {
	if err := p.producer.SendMessage(ctx, p.topic, userID, record); err != nil {
		return fmt.Errorf("publish snapshot event for user %s: %w", userID, err)
	}
	return nil
}
