package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nexfit/billing-service/internal/domain"
	"github.com/nexfit/billing-service/pkg/logger"
)

// PaymentRepository интерфейс для работы с платежами.
// TransitionStatus реализует оптимистичный переход только из pending:
// гонка вебхука и поллера применяет переход максимум один раз.
type PaymentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Payment, error)
	GetByExternalID(ctx context.Context, externalID string) (domain.Payment, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Payment, error)
	Create(ctx context.Context, payment domain.Payment) (domain.Payment, error)
	Update(ctx context.Context, payment domain.Payment) error

	// TransitionStatus переводит платеж из pending в to; возвращает false,
	// если платеж уже не в pending
	TransitionStatus(ctx context.Context, id uuid.UUID, to domain.PaymentStatus, paidAt *time.Time) (bool, error)

	// ListPendingOlderThan возвращает платежи, зависшие в pending дольше порога
	ListPendingOlderThan(ctx context.Context, threshold time.Duration) ([]domain.Payment, error)
}

// InMemoryPaymentRepository реализация репозитория платежей в памяти
type InMemoryPaymentRepository struct {
	payments map[uuid.UUID]domain.Payment
	mutex    sync.RWMutex
	log      *logger.Logger
}

// NewInMemoryPaymentRepository создает новый репозиторий платежей в памяти
func NewInMemoryPaymentRepository(log *logger.Logger) *InMemoryPaymentRepository {
	return &InMemoryPaymentRepository{
		payments: make(map[uuid.UUID]domain.Payment),
		log:      log,
	}
}

// GetByID возвращает платеж по ID
func (r *InMemoryPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Payment, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	payment, exists := r.payments[id]
	if !exists {
		return domain.Payment{}, ErrNotFound
	}

	return payment, nil
}

// GetByExternalID возвращает платеж по ID в платежной системе
func (r *InMemoryPaymentRepository) GetByExternalID(ctx context.Context, externalID string) (domain.Payment, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, payment := range r.payments {
		if payment.ExternalPaymentID == externalID {
			return payment, nil
		}
	}

	return domain.Payment{}, ErrNotFound
}

// GetByUserID возвращает платежи пользователя
func (r *InMemoryPaymentRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Payment, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var payments []domain.Payment
	for _, payment := range r.payments {
		if payment.UserID == userID {
			payments = append(payments, payment)
		}
	}

	return payments, nil
}

// Create создает новый платеж
func (r *InMemoryPaymentRepository) Create(ctx context.Context, payment domain.Payment) (domain.Payment, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.payments[payment.ID]; exists {
		return domain.Payment{}, ErrDuplicate
	}

	payment.CreatedAt = time.Now()
	payment.UpdatedAt = time.Now()

	r.payments[payment.ID] = payment

	return payment, nil
}

// Update обновляет существующий платеж
func (r *InMemoryPaymentRepository) Update(ctx context.Context, payment domain.Payment) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	existing, exists := r.payments[payment.ID]
	if !exists {
		return ErrNotFound
	}

	payment.CreatedAt = existing.CreatedAt
	payment.UpdatedAt = time.Now()

	r.payments[payment.ID] = payment

	return nil
}

// TransitionStatus переводит платеж из pending в терминальный статус
func (r *InMemoryPaymentRepository) TransitionStatus(ctx context.Context, id uuid.UUID, to domain.PaymentStatus, paidAt *time.Time) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	payment, exists := r.payments[id]
	if !exists {
		return false, ErrNotFound
	}

	if payment.Status != domain.PaymentStatusPending {
		return false, nil
	}

	payment.Status = to
	payment.PaidAt = paidAt
	payment.UpdatedAt = time.Now()
	r.payments[id] = payment

	return true, nil
}

// ListPendingOlderThan возвращает платежи, зависшие в pending дольше порога
func (r *InMemoryPaymentRepository) ListPendingOlderThan(ctx context.Context, threshold time.Duration) ([]domain.Payment, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	cutoff := time.Now().Add(-threshold)

	var payments []domain.Payment
	for _, payment := range r.payments {
		if payment.Status == domain.PaymentStatusPending && payment.CreatedAt.Before(cutoff) {
			payments = append(payments, payment)
		}
	}

	return payments, nil
}
