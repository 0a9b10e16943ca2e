package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nexfit/billing-service/internal/domain"
	"github.com/nexfit/billing-service/pkg/logger"
)

// SubaccountRepository интерфейс для работы с субаккаунтами тренеров.
// Create атомарен по coachId: при конкурентной вставке второй вызов получает
// ErrDuplicate и должен перечитать существующую запись.
type SubaccountRepository interface {
	GetByCoachID(ctx context.Context, coachID uuid.UUID) (domain.CoachSubaccount, error)
	Create(ctx context.Context, sub domain.CoachSubaccount) (domain.CoachSubaccount, error)
	UpdateStatus(ctx context.Context, coachID uuid.UUID, status domain.SubaccountStatus) error
}

// InMemorySubaccountRepository реализация репозитория субаккаунтов в памяти
type InMemorySubaccountRepository struct {
	subaccounts map[uuid.UUID]domain.CoachSubaccount
	mutex       sync.RWMutex
	log         *logger.Logger
}

// NewInMemorySubaccountRepository создает новый репозиторий субаккаунтов в памяти
func NewInMemorySubaccountRepository(log *logger.Logger) *InMemorySubaccountRepository {
	return &InMemorySubaccountRepository{
		subaccounts: make(map[uuid.UUID]domain.CoachSubaccount),
		log:         log,
	}
}

// GetByCoachID возвращает субаккаунт тренера
func (r *InMemorySubaccountRepository) GetByCoachID(ctx context.Context, coachID uuid.UUID) (domain.CoachSubaccount, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	sub, exists := r.subaccounts[coachID]
	if !exists {
		return domain.CoachSubaccount{}, ErrNotFound
	}

	return sub, nil
}

// Create создает субаккаунт; при существующей записи возвращает ErrDuplicate
func (r *InMemorySubaccountRepository) Create(ctx context.Context, sub domain.CoachSubaccount) (domain.CoachSubaccount, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.subaccounts[sub.CoachID]; exists {
		return domain.CoachSubaccount{}, ErrDuplicate
	}

	sub.CreatedAt = time.Now()
	sub.UpdatedAt = time.Now()

	r.subaccounts[sub.CoachID] = sub

	return sub, nil
}

// UpdateStatus обновляет статус субаккаунта
func (r *InMemorySubaccountRepository) UpdateStatus(ctx context.Context, coachID uuid.UUID, status domain.SubaccountStatus) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	sub, exists := r.subaccounts[coachID]
	if !exists {
		return ErrNotFound
	}

	sub.Status = status
	sub.UpdatedAt = time.Now()
	r.subaccounts[coachID] = sub

	return nil
}
