package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/wyfcoding/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/merchantmetrics/internal/analytics/application"
	"github.com/wyfcoding/merchantmetrics/internal/analytics/domain"
	"github.com/wyfcoding/merchantmetrics/pkg/metrics"
)

// AnalyticsHandler 负责处理业务指标与信用评分相关的 HTTP 请求
type AnalyticsHandler struct {
	service   *application.MetricsService
	collector metrics.MetricsCollector
}

// NewAnalyticsHandler 创建 HTTP 处理器
func NewAnalyticsHandler(service *application.MetricsService, collector metrics.MetricsCollector) *AnalyticsHandler {
	return &AnalyticsHandler{service: service, collector: collector}
}

// RegisterRoutes 注册路由
func (h *AnalyticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1/analytics")
	{
		api.POST("/metrics/update", h.UpdateMetrics)
		api.GET("/metrics", h.GetBusinessMetrics)
		api.GET("/credit-score", h.GetCreditScore)
	}
}

// UpdateMetricsRequest 触发重算的请求体
type UpdateMetricsRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// UpdateMetrics 对指定用户执行一次指标重算并返回新快照
func (h *AnalyticsHandler) UpdateMetrics(c *gin.Context) {
	var req UpdateMetricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	started := time.Now()
	dto, err := h.service.Recompute(c.Request.Context(), req.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrInvariantViolation) {
			response.ErrorWithStatus(c, http.StatusUnprocessableEntity, "metrics calculation produced invalid results", "")
			return
		}
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	h.collector.RecordSnapshot(time.Since(started).Seconds())

	response.Success(c, dto)
}

// GetBusinessMetrics 查询某用户最近的指标快照
func (h *AnalyticsHandler) GetBusinessMetrics(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "user_id is required", "")
		return
	}

	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 100 {
			response.ErrorWithStatus(c, http.StatusBadRequest, "invalid limit", "")
			return
		}
		limit = parsed
	}

	snaps, err := h.service.LatestSnapshots(c.Request.Context(), userID, limit)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, snaps)
}

// GetCreditScore 按需计算某用户的当前信用评分
func (h *AnalyticsHandler) GetCreditScore(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "user_id is required", "")
		return
	}

	dto, err := h.service.CreditScore(c.Request.Context(), userID)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	h.collector.RecordCreditScore()

	response.Success(c, dto)
}
