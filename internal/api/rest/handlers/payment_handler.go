package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nexfit/billing-service/internal/domain"
	"github.com/nexfit/billing-service/internal/repository"
	"github.com/nexfit/billing-service/internal/service"
	"github.com/nexfit/billing-service/pkg/logger"
)

// PaymentHandler обработчик для платежей
type PaymentHandler struct {
	service service.PaymentService
	log     *logger.Logger
}

// NewPaymentHandler создает новый обработчик платежей
func NewPaymentHandler(svc service.PaymentService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: svc,
		log:     log,
	}
}

// GetPayments возвращает платежи пользователя
func (h *PaymentHandler) GetPayments(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id query parameter is required"})
		return
	}

	payments, err := h.service.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidData) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
			return
		}
		h.log.Error("Failed to get payments: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get payments"})
		return
	}

	c.JSON(http.StatusOK, payments)
}

// GetPayment возвращает платеж по ID
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	id := c.Param("id")

	payment, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handlePaymentError(c, id, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// CancelPayment отменяет еще не оплаченное списание
func (h *PaymentHandler) CancelPayment(c *gin.Context) {
	id := c.Param("id")

	payment, err := h.service.Cancel(c.Request.Context(), id)
	if err != nil {
		h.handlePaymentError(c, id, err)
		return
	}

	h.log.Info("Payment %s cancelled via API", id)
	c.JSON(http.StatusOK, payment)
}

func (h *PaymentHandler) handlePaymentError(c *gin.Context, id string, err error) {
	switch {
	case errors.Is(err, domain.ErrPaymentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
	case errors.Is(err, repository.ErrInvalidData):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment ID format"})
	case errors.Is(err, domain.ErrPaymentNotPending):
		c.JSON(http.StatusConflict, gin.H{"error": "Payment is not pending"})
	default:
		h.log.Error("Payment operation failed for %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Payment operation failed"})
	}
}
