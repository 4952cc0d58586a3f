// 包 分析服务的 Kafka 消费入口
package consumer

import (
	"context"
	"log/slog"

	"github.com/wyfcoding/merchantmetrics/internal/analytics/application"
	"github.com/wyfcoding/merchantmetrics/pkg/mq"
)

// paymentSyncEvent 支付同步完成事件载荷
type paymentSyncEvent struct {
	UserID       string `json:"user_id"`
	Source       string `json:"source"`
	SyncedCount  int    `json:"synced_count"`
	CompletedAt  string `json:"completed_at"`
}

// SyncEventHandler 消费支付同步完成事件并触发指标重算。
// 重算失败只记日志不重投：下一次同步事件自然会再触发一轮。
type SyncEventHandler struct {
	service *application.MetricsService
	logger  *slog.Logger
}

// NewSyncEventHandler 创建同步事件处理器
func NewSyncEventHandler(service *application.MetricsService, logger *slog.Logger) *SyncEventHandler {
	return &SyncEventHandler{service: service, logger: logger}
}

// Start 循环消费直到 ctx 取消
func (h *SyncEventHandler) Start(ctx context.Context, consumer *mq.KafkaConsumer) error {
	h.logger.Info("payment sync consumer started")
	for {
		msg, err := consumer.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				h.logger.Info("payment sync consumer stopped")
				return ctx.Err()
			}
			h.logger.Error("read payment sync event failed", "error", err)
			continue
		}
		h.handle(ctx, msg)
	}
}

func (h *SyncEventHandler) handle(ctx context.Context, msg *mq.Message) {
	var event paymentSyncEvent
	if err := msg.UnmarshalPayload(&event); err != nil {
		h.logger.Error("malformed payment sync event", "topic", msg.Topic, "error", err)
		return
	}
	if event.UserID == "" {
		h.logger.Warn("payment sync event without user_id skipped", "source", event.Source)
		return
	}

	if _, err := h.service.Recompute(ctx, event.UserID); err != nil {
		h.logger.Error("metrics recompute after payment sync failed",
			"user_id", event.UserID,
			"source", event.Source,
			"error", err,
		)
		return
	}
	h.logger.Info("metrics recomputed after payment sync",
		"user_id", event.UserID,
		"source", event.Source,
		"synced_count", event.SyncedCount,
	)
}
