package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nexfit/billing-service/internal/domain"
	"github.com/nexfit/billing-service/pkg/logger"
)

// CoachRepository интерфейс для работы с тренерами
type CoachRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Coach, error)
	Create(ctx context.Context, coach domain.Coach) (domain.Coach, error)
}

// InMemoryCoachRepository реализация репозитория тренеров в памяти
type InMemoryCoachRepository struct {
	coaches map[uuid.UUID]domain.Coach
	mutex   sync.RWMutex
	log     *logger.Logger
}

// NewInMemoryCoachRepository создает новый репозиторий тренеров в памяти
func NewInMemoryCoachRepository(log *logger.Logger) *InMemoryCoachRepository {
	return &InMemoryCoachRepository{
		coaches: make(map[uuid.UUID]domain.Coach),
		log:     log,
	}
}

// GetByID возвращает тренера по ID
func (r *InMemoryCoachRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Coach, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	coach, exists := r.coaches[id]
	if !exists {
		return domain.Coach{}, ErrNotFound
	}

	return coach, nil
}

// Create создает нового тренера
func (r *InMemoryCoachRepository) Create(ctx context.Context, coach domain.Coach) (domain.Coach, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.coaches[coach.ID]; exists {
		return domain.Coach{}, ErrDuplicate
	}

	coach.CreatedAt = time.Now()
	coach.UpdatedAt = time.Now()

	r.coaches[coach.ID] = coach

	return coach, nil
}
