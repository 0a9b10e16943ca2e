package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nexfit/billing-service/internal/domain"
	"github.com/nexfit/billing-service/pkg/logger"
)

// CheckoutAttemptRepository интерфейс для работы с попытками checkout.
// InsertOrGet атомарен по ключу идемпотентности: два конкурентных одинаковых
// запроса получают одну и ту же запись, и только один из них — created=true.
type CheckoutAttemptRepository interface {
	// InsertOrGet вставляет попытку или возвращает существующую по ключу
	InsertOrGet(ctx context.Context, attempt domain.CheckoutAttempt) (domain.CheckoutAttempt, bool, error)

	// GetByKey возвращает попытку по ключу идемпотентности
	GetByKey(ctx context.Context, key string) (domain.CheckoutAttempt, error)

	// Resolve привязывает платеж и сохраненный результат к попытке
	Resolve(ctx context.Context, key string, paymentID uuid.UUID, result []byte) error

	// Delete освобождает ключ идемпотентности прерванного оформления,
	// чтобы повтор с тем же ключом начал заново
	Delete(ctx context.Context, key string) error
}

// InMemoryCheckoutAttemptRepository реализация репозитория попыток в памяти.
// Воспроизводит семантику уникального ограничения по ключу, чтобы тесты
// оркестратора проверяли тот же контракт гонки, что и Postgres.
type InMemoryCheckoutAttemptRepository struct {
	attempts map[string]domain.CheckoutAttempt
	mutex    sync.Mutex
	log      *logger.Logger
}

// NewInMemoryCheckoutAttemptRepository создает новый репозиторий попыток в памяти
func NewInMemoryCheckoutAttemptRepository(log *logger.Logger) *InMemoryCheckoutAttemptRepository {
	return &InMemoryCheckoutAttemptRepository{
		attempts: make(map[string]domain.CheckoutAttempt),
		log:      log,
	}
}

// InsertOrGet вставляет попытку или возвращает существующую
func (r *InMemoryCheckoutAttemptRepository) InsertOrGet(ctx context.Context, attempt domain.CheckoutAttempt) (domain.CheckoutAttempt, bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if existing, exists := r.attempts[attempt.IdempotencyKey]; exists {
		return existing, false, nil
	}

	attempt.CreatedAt = time.Now()
	attempt.UpdatedAt = time.Now()

	r.attempts[attempt.IdempotencyKey] = attempt

	return attempt, true, nil
}

// GetByKey возвращает попытку по ключу идемпотентности
func (r *InMemoryCheckoutAttemptRepository) GetByKey(ctx context.Context, key string) (domain.CheckoutAttempt, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	attempt, exists := r.attempts[key]
	if !exists {
		return domain.CheckoutAttempt{}, ErrNotFound
	}

	return attempt, nil
}

// Resolve привязывает платеж и сохраненный результат к попытке
func (r *InMemoryCheckoutAttemptRepository) Resolve(ctx context.Context, key string, paymentID uuid.UUID, result []byte) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	attempt, exists := r.attempts[key]
	if !exists {
		return ErrNotFound
	}

	attempt.PaymentID = &paymentID
	attempt.ResultSnapshot = result
	attempt.UpdatedAt = time.Now()
	r.attempts[key] = attempt

	return nil
}

// Delete освобождает ключ идемпотентности
func (r *InMemoryCheckoutAttemptRepository) Delete(ctx context.Context, key string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.attempts[key]; !exists {
		return ErrNotFound
	}

	delete(r.attempts, key)
	return nil
}
