package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nexfit/billing-service/internal/domain"
	"github.com/nexfit/billing-service/internal/repository"
	"github.com/nexfit/billing-service/pkg/logger"
)

const paymentColumns = `
	id, subscription_id, user_id, amount, method, status, external_payment_id,
	idempotency_key, due_date, paid_at, pix_qr_code, pix_copy_paste,
	bank_slip_url, created_at, updated_at
`

// PostgresPaymentRepository реализация репозитория платежей через PostgreSQL
type PostgresPaymentRepository struct {
	db  *pgxpool.Pool
	log *logger.Logger
}

// NewPostgresPaymentRepository создает новый репозиторий платежей через PostgreSQL
func NewPostgresPaymentRepository(db *pgxpool.Pool, log *logger.Logger) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{
		db:  db,
		log: log,
	}
}

func scanPayment(row pgx.Row) (domain.Payment, error) {
	var p domain.Payment
	err := row.Scan(
		&p.ID,
		&p.SubscriptionID,
		&p.UserID,
		&p.Amount,
		&p.Method,
		&p.Status,
		&p.ExternalPaymentID,
		&p.IdempotencyKey,
		&p.DueDate,
		&p.PaidAt,
		&p.PixQrCode,
		&p.PixCopyPaste,
		&p.BankSlipURL,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

// GetByID возвращает платеж по ID
func (r *PostgresPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	payment, err := scanPayment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Payment{}, repository.ErrNotFound
		}
		return domain.Payment{}, fmt.Errorf("failed to get payment: %w", err)
	}

	return payment, nil
}

// GetByExternalID возвращает платеж по ID в платежной системе
func (r *PostgresPaymentRepository) GetByExternalID(ctx context.Context, externalID string) (domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE external_payment_id = $1`

	payment, err := scanPayment(r.db.QueryRow(ctx, query, externalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Payment{}, repository.ErrNotFound
		}
		return domain.Payment{}, fmt.Errorf("failed to get payment by external id: %w", err)
	}

	return payment, nil
}

// GetByUserID возвращает платежи пользователя
func (r *PostgresPaymentRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, payment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payments: %w", err)
	}

	return payments, nil
}

// Create создает новый платеж
func (r *PostgresPaymentRepository) Create(ctx context.Context, payment domain.Payment) (domain.Payment, error) {
	query := `
		INSERT INTO payments (
			id, subscription_id, user_id, amount, method, status,
			external_payment_id, idempotency_key, due_date, paid_at,
			pix_qr_code, pix_copy_paste, bank_slip_url, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now(), now())
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx,
		query,
		payment.ID,
		payment.SubscriptionID,
		payment.UserID,
		payment.Amount,
		payment.Method,
		payment.Status,
		payment.ExternalPaymentID,
		payment.IdempotencyKey,
		payment.DueDate,
		payment.PaidAt,
		payment.PixQrCode,
		payment.PixCopyPaste,
		payment.BankSlipURL,
	).Scan(&payment.CreatedAt, &payment.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			// Нарушение уникальности
			if pgErr.Code == "23505" {
				return domain.Payment{}, repository.ErrDuplicate
			}
		}
		return domain.Payment{}, fmt.Errorf("failed to create payment: %w", err)
	}

	return payment, nil
}

// Update обновляет существующий платеж
func (r *PostgresPaymentRepository) Update(ctx context.Context, payment domain.Payment) error {
	query := `
		UPDATE payments
		SET subscription_id = $1, status = $2, external_payment_id = $3,
		    paid_at = $4, pix_qr_code = $5, pix_copy_paste = $6,
		    bank_slip_url = $7, updated_at = now()
		WHERE id = $8
	`

	result, err := r.db.Exec(
		ctx,
		query,
		payment.SubscriptionID,
		payment.Status,
		payment.ExternalPaymentID,
		payment.PaidAt,
		payment.PixQrCode,
		payment.PixCopyPaste,
		payment.BankSlipURL,
		payment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// TransitionStatus переводит платеж из pending в to.
// Оптимистичная проверка в WHERE закрывает гонку вебхука и поллера:
// переход применяется максимум один раз.
func (r *PostgresPaymentRepository) TransitionStatus(ctx context.Context, id uuid.UUID, to domain.PaymentStatus, paidAt *time.Time) (bool, error) {
	query := `
		UPDATE payments
		SET status = $1, paid_at = $2, updated_at = now()
		WHERE id = $3 AND status = 'pending'
	`

	result, err := r.db.Exec(ctx, query, to, paidAt, id)
	if err != nil {
		return false, fmt.Errorf("failed to transition payment status: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

// ListPendingOlderThan возвращает платежи, зависшие в pending дольше порога
func (r *PostgresPaymentRepository) ListPendingOlderThan(ctx context.Context, threshold time.Duration) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + `
		FROM payments
		WHERE status = 'pending' AND created_at < $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, time.Now().Add(-threshold))
	if err != nil {
		return nil, fmt.Errorf("failed to query pending payments: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, payment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending payments: %w", err)
	}

	return payments, nil
}
