package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nexfit/billing-service/internal/domain"
	"github.com/nexfit/billing-service/internal/repository"
	"github.com/nexfit/billing-service/pkg/logger"
)

// PostgresCheckoutAttemptRepository реализация репозитория попыток checkout
// через PostgreSQL. Уникальное ограничение по idempotency_key закрывает гонку
// двух конкурентных одинаковых запросов: INSERT ... ON CONFLICT DO NOTHING
// плюс перечитывание.
type PostgresCheckoutAttemptRepository struct {
	db  *pgxpool.Pool
	log *logger.Logger
}

// NewPostgresCheckoutAttemptRepository создает новый репозиторий попыток через PostgreSQL
func NewPostgresCheckoutAttemptRepository(db *pgxpool.Pool, log *logger.Logger) *PostgresCheckoutAttemptRepository {
	return &PostgresCheckoutAttemptRepository{
		db:  db,
		log: log,
	}
}

// InsertOrGet вставляет попытку или возвращает существующую по ключу
func (r *PostgresCheckoutAttemptRepository) InsertOrGet(ctx context.Context, attempt domain.CheckoutAttempt) (domain.CheckoutAttempt, bool, error) {
	insert := `
		INSERT INTO checkout_attempts (idempotency_key, user_id, request_snapshot, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (idempotency_key) DO NOTHING
	`

	result, err := r.db.Exec(ctx, insert, attempt.IdempotencyKey, attempt.UserID, attempt.RequestSnapshot)
	if err != nil {
		return domain.CheckoutAttempt{}, false, fmt.Errorf("failed to insert checkout attempt: %w", err)
	}

	created := result.RowsAffected() == 1

	stored, err := r.GetByKey(ctx, attempt.IdempotencyKey)
	if err != nil {
		return domain.CheckoutAttempt{}, false, err
	}

	return stored, created, nil
}

// GetByKey возвращает попытку по ключу идемпотентности
func (r *PostgresCheckoutAttemptRepository) GetByKey(ctx context.Context, key string) (domain.CheckoutAttempt, error) {
	query := `
		SELECT idempotency_key, user_id, request_snapshot, payment_id, result_snapshot, created_at, updated_at
		FROM checkout_attempts
		WHERE idempotency_key = $1
	`

	var attempt domain.CheckoutAttempt
	err := r.db.QueryRow(ctx, query, key).Scan(
		&attempt.IdempotencyKey,
		&attempt.UserID,
		&attempt.RequestSnapshot,
		&attempt.PaymentID,
		&attempt.ResultSnapshot,
		&attempt.CreatedAt,
		&attempt.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CheckoutAttempt{}, repository.ErrNotFound
		}
		return domain.CheckoutAttempt{}, fmt.Errorf("failed to get checkout attempt: %w", err)
	}

	return attempt, nil
}

// Resolve привязывает платеж и сохраненный результат к попытке
func (r *PostgresCheckoutAttemptRepository) Resolve(ctx context.Context, key string, paymentID uuid.UUID, resultSnapshot []byte) error {
	query := `
		UPDATE checkout_attempts
		SET payment_id = $1, result_snapshot = $2, updated_at = now()
		WHERE idempotency_key = $3
	`

	result, err := r.db.Exec(ctx, query, paymentID, resultSnapshot, key)
	if err != nil {
		return fmt.Errorf("failed to resolve checkout attempt: %w", err)
	}

	if result.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete освобождает ключ идемпотентности прерванного оформления
func (r *PostgresCheckoutAttemptRepository) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM checkout_attempts WHERE idempotency_key = $1`

	result, err := r.db.Exec(ctx, query, key)
	if err != nil {
		return fmt.Errorf("failed to delete checkout attempt: %w", err)
	}

	if result.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}
