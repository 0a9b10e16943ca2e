package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nexfit/billing-service/internal/domain"
	"github.com/nexfit/billing-service/pkg/logger"
)

// PlanRepository интерфейс для работы с тарифными планами
type PlanRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Plan, error)
	GetAll(ctx context.Context) ([]domain.Plan, error)
	Create(ctx context.Context, plan domain.Plan) (domain.Plan, error)
	Update(ctx context.Context, plan domain.Plan) error
}

// InMemoryPlanRepository реализация репозитория планов в памяти
type InMemoryPlanRepository struct {
	plans map[uuid.UUID]domain.Plan
	mutex sync.RWMutex
	log   *logger.Logger
}

// NewInMemoryPlanRepository создает новый репозиторий планов в памяти
func NewInMemoryPlanRepository(log *logger.Logger) *InMemoryPlanRepository {
	return &InMemoryPlanRepository{
		plans: make(map[uuid.UUID]domain.Plan),
		log:   log,
	}
}

// GetByID возвращает план по ID
func (r *InMemoryPlanRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Plan, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	plan, exists := r.plans[id]
	if !exists {
		return domain.Plan{}, ErrNotFound
	}

	return plan, nil
}

// GetAll возвращает все планы
func (r *InMemoryPlanRepository) GetAll(ctx context.Context) ([]domain.Plan, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	plans := make([]domain.Plan, 0, len(r.plans))
	for _, plan := range r.plans {
		plans = append(plans, plan)
	}

	return plans, nil
}

// Create создает новый план
func (r *InMemoryPlanRepository) Create(ctx context.Context, plan domain.Plan) (domain.Plan, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.plans[plan.ID]; exists {
		return domain.Plan{}, ErrDuplicate
	}

	plan.CreatedAt = time.Now()
	plan.UpdatedAt = time.Now()

	r.plans[plan.ID] = plan

	return plan, nil
}

// Update обновляет существующий план
func (r *InMemoryPlanRepository) Update(ctx context.Context, plan domain.Plan) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	existing, exists := r.plans[plan.ID]
	if !exists {
		return ErrNotFound
	}

	plan.CreatedAt = existing.CreatedAt
	plan.UpdatedAt = time.Now()

	r.plans[plan.ID] = plan

	return nil
}
