package handler

import (
	"net/http"
	"raffle-platform/internal/middleware"
	"raffle-platform/internal/model"
	"raffle-platform/internal/queue"
	"raffle-platform/internal/service"
	"raffle-platform/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WebhookHandler 接收付款服務的結算通知；queue 為 nil 時同步處理
type WebhookHandler struct {
	service service.PurchaseService
	queue   queue.SettlementQueue
	secret  string
}

func NewWebhookHandler(service service.PurchaseService, queue queue.SettlementQueue, secret string) *WebhookHandler {
	return &WebhookHandler{service: service, queue: queue, secret: secret}
}

func (h *WebhookHandler) RegisterRoutes(routes Routes) {
	routes.Public.POST("webhooks/settlement", middleware.RequireWebhookToken(h.secret), h.Settlement)
}

func (h *WebhookHandler) Settlement(c *gin.Context) {
	var event model.SettlementEvent
	if err := BindJson(c, &event); err != nil {
		return
	}
	if !event.Status.IsValid() || event.Status == model.PurchaseStatusPending {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid settlement status",
		})
		return
	}
	if event.RequestID == "" {
		event.RequestID = uuid.NewString()
	}

	if h.queue == nil {
		purchase, err := h.service.ApplySettlement(c, &event)
		if err != nil {
			handleError(c, err, "Settlement")
			return
		}
		handleSuccess(c, purchase, http.StatusOK)
		return
	}

	if err := h.queue.PublishSettlement(c, &event); err != nil {
		handleError(c, err, "Settlement")
		return
	}

	logger.WithComponent("handler").Info("settlement queued",
		zap.String("request_id", event.RequestID),
		zap.Int("purchase_id", event.PurchaseID),
		zap.String("status", string(event.Status)),
	)
	handleSuccess(c, gin.H{"request_id": event.RequestID, "status": "queued"}, http.StatusAccepted)
}
