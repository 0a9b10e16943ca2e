package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nexfit/billing-service/internal/domain"
	"github.com/nexfit/billing-service/pkg/logger"
)

// SplitRepository интерфейс для работы с записями разделения платежей.
// Запись уникальна по paymentId (1:1 с платежом).
type SplitRepository interface {
	GetByPaymentID(ctx context.Context, paymentID uuid.UUID) (domain.SplitRecord, error)
	Create(ctx context.Context, record domain.SplitRecord) (domain.SplitRecord, error)

	// ClaimForSettlement захватывает отложенную запись под выполнение
	// перевода (deferred -> settling); возвращает false, если запись уже
	// захвачена или выполнена другим проходом. Захват делается до вызова
	// платежной системы, чтобы конкурентные проходы не перевели дважды.
	ClaimForSettlement(ctx context.Context, paymentID uuid.UUID) (bool, error)

	// ReleaseClaim возвращает захваченную запись в deferred после
	// неудавшегося перевода
	ReleaseClaim(ctx context.Context, paymentID uuid.UUID) error

	// MarkSettled отмечает захваченный перевод выполненным; возвращает
	// false, если запись не находилась в settling
	MarkSettled(ctx context.Context, paymentID uuid.UUID, externalTransferID string) (bool, error)

	// ListDeferred возвращает записи с отложенным переводом
	ListDeferred(ctx context.Context) ([]domain.SplitRecord, error)
}

// InMemorySplitRepository реализация репозитория разделений в памяти
type InMemorySplitRepository struct {
	records map[uuid.UUID]domain.SplitRecord // ключ — paymentID
	mutex   sync.RWMutex
	log     *logger.Logger
}

// NewInMemorySplitRepository создает новый репозиторий разделений в памяти
func NewInMemorySplitRepository(log *logger.Logger) *InMemorySplitRepository {
	return &InMemorySplitRepository{
		records: make(map[uuid.UUID]domain.SplitRecord),
		log:     log,
	}
}

// GetByPaymentID возвращает запись разделения по ID платежа
func (r *InMemorySplitRepository) GetByPaymentID(ctx context.Context, paymentID uuid.UUID) (domain.SplitRecord, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	record, exists := r.records[paymentID]
	if !exists {
		return domain.SplitRecord{}, ErrNotFound
	}

	return record, nil
}

// Create создает запись разделения; повторная вставка для того же платежа
// возвращает ErrDuplicate
func (r *InMemorySplitRepository) Create(ctx context.Context, record domain.SplitRecord) (domain.SplitRecord, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.records[record.PaymentID]; exists {
		return domain.SplitRecord{}, ErrDuplicate
	}

	record.CreatedAt = time.Now()
	record.UpdatedAt = time.Now()

	r.records[record.PaymentID] = record

	return record, nil
}

// ClaimForSettlement захватывает отложенную запись под выполнение перевода
func (r *InMemorySplitRepository) ClaimForSettlement(ctx context.Context, paymentID uuid.UUID) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	record, exists := r.records[paymentID]
	if !exists {
		return false, ErrNotFound
	}

	if record.TransferStatus != domain.TransferStatusDeferred {
		return false, nil
	}

	record.TransferStatus = domain.TransferStatusSettling
	record.UpdatedAt = time.Now()
	r.records[paymentID] = record

	return true, nil
}

// ReleaseClaim возвращает захваченную запись в deferred
func (r *InMemorySplitRepository) ReleaseClaim(ctx context.Context, paymentID uuid.UUID) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	record, exists := r.records[paymentID]
	if !exists {
		return ErrNotFound
	}

	if record.TransferStatus != domain.TransferStatusSettling {
		return nil
	}

	record.TransferStatus = domain.TransferStatusDeferred
	record.UpdatedAt = time.Now()
	r.records[paymentID] = record

	return nil
}

// MarkSettled отмечает захваченный перевод выполненным
func (r *InMemorySplitRepository) MarkSettled(ctx context.Context, paymentID uuid.UUID, externalTransferID string) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	record, exists := r.records[paymentID]
	if !exists {
		return false, ErrNotFound
	}

	if record.TransferStatus != domain.TransferStatusSettling {
		return false, nil
	}

	record.TransferStatus = domain.TransferStatusSettled
	record.ExternalTransferID = externalTransferID
	record.UpdatedAt = time.Now()
	r.records[paymentID] = record

	return true, nil
}

// ListDeferred возвращает записи с отложенным переводом
func (r *InMemorySplitRepository) ListDeferred(ctx context.Context) ([]domain.SplitRecord, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var records []domain.SplitRecord
	for _, record := range r.records {
		if record.TransferStatus == domain.TransferStatusDeferred {
			records = append(records, record)
		}
	}

	return records, nil
}
