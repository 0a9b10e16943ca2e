package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nexfit/billing-service/internal/domain"
	"github.com/nexfit/billing-service/internal/repository"
	"github.com/nexfit/billing-service/pkg/logger"
)

// PlanHandler обработчик для планов
type PlanHandler struct {
	repo repository.PlanRepository
	log  *logger.Logger
}

// NewPlanHandler создает новый обработчик планов
func NewPlanHandler(repo repository.PlanRepository, log *logger.Logger) *PlanHandler {
	return &PlanHandler{
		repo: repo,
		log:  log,
	}
}

// GetPlans возвращает список всех планов
func (h *PlanHandler) GetPlans(c *gin.Context) {
	plans, err := h.repo.GetAll(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to get plans: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get plans"})
		return
	}

	c.JSON(http.StatusOK, plans)
}

// GetPlan возвращает план по ID
func (h *PlanHandler) GetPlan(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid plan ID format"})
		return
	}

	plan, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Plan not found"})
			return
		}
		h.log.Error("Failed to get plan: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get plan"})
		return
	}

	c.JSON(http.StatusOK, plan)
}

// CreatePlan создает новый план
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var plan domain.Plan
	if err := c.ShouldBindJSON(&plan); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	if len(plan.Prices) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Plan must have at least one price"})
		return
	}
	for period, price := range plan.Prices {
		if !period.IsValid() || price < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid plan prices"})
			return
		}
	}

	created, err := h.repo.Create(c.Request.Context(), plan)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "Plan already exists"})
			return
		}
		h.log.Error("Failed to create plan: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create plan"})
		return
	}

	h.log.Info("Created plan %s", created.ID)
	c.JSON(http.StatusCreated, created)
}

// UpdatePlan обновляет существующий план
func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid plan ID format"})
		return
	}

	var plan domain.Plan
	if err := c.ShouldBindJSON(&plan); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	plan.ID = id

	if err := h.repo.Update(c.Request.Context(), plan); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Plan not found"})
			return
		}
		h.log.Error("Failed to update plan: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update plan"})
		return
	}

	c.JSON(http.StatusOK, plan)
}
