package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nexfit/billing-service/internal/domain"
	"github.com/nexfit/billing-service/internal/metrics"
	"github.com/nexfit/billing-service/internal/repository"
	"github.com/nexfit/billing-service/internal/service"
	"github.com/nexfit/billing-service/pkg/logger"
)

// CheckoutHandler обработчик оформления подписки
type CheckoutHandler struct {
	service service.CheckoutService
	metrics metrics.BillingMetrics
	log     *logger.Logger
}

// NewCheckoutHandler создает новый обработчик оформления
func NewCheckoutHandler(svc service.CheckoutService, m metrics.BillingMetrics, log *logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: svc,
		metrics: m,
		log:     log,
	}
}

// Checkout оформляет подписку и создает первое списание
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req domain.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid checkout request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	h.metrics.IncCheckoutStarted(string(req.PaymentMethod))

	result, err := h.service.Checkout(c.Request.Context(), req)
	if err != nil {
		h.handleCheckoutError(c, err)
		return
	}

	h.metrics.IncCheckoutResult(string(req.PaymentMethod), string(result.Status))
	h.metrics.ObserveChargeAmount(result.Amount, string(req.PaymentMethod))

	status := http.StatusCreated
	if !result.Success {
		// Списание отклонено платежной системой, но результат сохранен
		status = http.StatusPaymentRequired
	}
	c.JSON(status, result)
}

// handleCheckoutError преобразует ошибки оформления в HTTP статусы
func (h *CheckoutHandler) handleCheckoutError(c *gin.Context, err error) {
	var violations domain.ValidationErrors
	if errors.As(err, &violations) {
		h.log.Warn("Checkout validation failed: %v", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "Card validation failed",
			"fields": violations.Fields(),
		})
		return
	}

	// ProvisioningError оборачивает GatewayError, поэтому проверяется раньше
	var provErr *domain.ProvisioningError
	if errors.As(err, &provErr) {
		h.log.Error("Checkout provisioning error: %v", provErr)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Coach account provisioning failed, retry with the same idempotency key"})
		return
	}

	var gwErr *domain.GatewayError
	if errors.As(err, &gwErr) {
		h.log.Error("Checkout gateway error: %v", gwErr)
		if gwErr.Timeout {
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Payment gateway timed out"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Payment gateway error"})
		return
	}

	switch {
	case errors.Is(err, domain.ErrPlanNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Plan not found"})
	case errors.Is(err, domain.ErrCoachNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Coach not found"})
	case errors.Is(err, domain.ErrModalidadeNotCovered):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Plan does not cover the requested modalidade"})
	case errors.Is(err, domain.ErrPriceNotConfigured):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Plan has no price for the requested period"})
	case errors.Is(err, domain.ErrUnknownTier):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Coach has an unknown commission tier"})
	case errors.Is(err, domain.ErrCardRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Credit card data required"})
	case errors.Is(err, domain.ErrCheckoutInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "Checkout with this idempotency key is already in progress"})
	case errors.Is(err, repository.ErrInvalidData):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid identifier format"})
	default:
		h.log.Error("Checkout failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Checkout failed"})
	}
}
