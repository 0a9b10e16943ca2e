package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nexfit/billing-service/internal/domain"
	"github.com/nexfit/billing-service/internal/metrics"
	"github.com/nexfit/billing-service/internal/service"
	"github.com/nexfit/billing-service/pkg/logger"
)

// webhookTokenHeader заголовок с токеном, настроенным в кабинете Asaas
const webhookTokenHeader = "asaas-access-token"

// WebhookHandler обработчик вебхуков платежной системы
type WebhookHandler struct {
	service *service.WebhookService
	metrics metrics.BillingMetrics
	log     *logger.Logger
}

// NewWebhookHandler создает новый обработчик вебхуков
func NewWebhookHandler(svc *service.WebhookService, m metrics.BillingMetrics, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: svc,
		metrics: m,
		log:     log,
	}
}

// HandleAsaasWebhook принимает событие платежной системы.
// Конфликт сверки отвечает 200: платежная система не должна ретраить
// событие, которое никогда не применится.
func (h *WebhookHandler) HandleAsaasWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.log.Error("Failed to read webhook body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	event, err := h.service.Handle(c.Request.Context(), c.GetHeader(webhookTokenHeader), payload)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidWebhookToken) {
			h.metrics.IncWebhookRejected()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid webhook token"})
			return
		}

		var conflict *domain.ReconciliationConflict
		if errors.As(err, &conflict) {
			h.metrics.IncWebhookReceived(event.Event)
			h.log.Error("Webhook reconciliation conflict: %v", conflict)
			c.JSON(http.StatusOK, gin.H{"received": true, "conflict": true})
			return
		}

		if errors.Is(err, domain.ErrPaymentNotFound) {
			// Событие о платеже, которого у нас нет; отвечаем 200, чтобы
			// платежная система не ретраила бесконечно
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}

		h.log.Error("Failed to handle webhook: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to handle webhook"})
		return
	}

	h.metrics.IncWebhookReceived(event.Event)
	c.JSON(http.StatusOK, gin.H{"received": true})
}
