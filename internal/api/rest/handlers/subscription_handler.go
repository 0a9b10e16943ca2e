package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nexfit/billing-service/internal/repository"
	"github.com/nexfit/billing-service/internal/service"
	"github.com/nexfit/billing-service/pkg/logger"
)

// SubscriptionHandler обработчик для подписок
type SubscriptionHandler struct {
	service service.SubscriptionService
	log     *logger.Logger
}

// NewSubscriptionHandler создает новый обработчик подписок
func NewSubscriptionHandler(svc service.SubscriptionService, log *logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		service: svc,
		log:     log,
	}
}

// GetSubscriptions возвращает подписки пользователя
func (h *SubscriptionHandler) GetSubscriptions(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id query parameter is required"})
		return
	}

	subs, err := h.service.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidData) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
			return
		}
		h.log.Error("Failed to get subscriptions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get subscriptions"})
		return
	}

	c.JSON(http.StatusOK, subs)
}

// GetSubscription возвращает подписку по ID
func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	id := c.Param("id")

	sub, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleSubscriptionError(c, id, err)
		return
	}

	c.JSON(http.StatusOK, sub)
}

// CancelSubscription отменяет подписку
func (h *SubscriptionHandler) CancelSubscription(c *gin.Context) {
	id := c.Param("id")

	sub, err := h.service.Cancel(c.Request.Context(), id)
	if err != nil {
		h.handleSubscriptionError(c, id, err)
		return
	}

	h.log.Info("Subscription %s cancelled via API", id)
	c.JSON(http.StatusOK, sub)
}

func (h *SubscriptionHandler) handleSubscriptionError(c *gin.Context, id string, err error) {
	switch {
	case errors.Is(err, service.ErrSubscriptionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
	case errors.Is(err, repository.ErrInvalidData):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subscription ID format"})
	default:
		h.log.Error("Subscription operation failed for %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Subscription operation failed"})
	}
}
