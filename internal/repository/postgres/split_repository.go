package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nexfit/billing-service/internal/domain"
	"github.com/nexfit/billing-service/internal/repository"
	"github.com/nexfit/billing-service/pkg/logger"
)

const splitColumns = `
	id, payment_id, coach_id, coach_amount, platform_amount, percentage_applied,
	transfer_status, external_transfer_id, created_at, updated_at
`

// PostgresSplitRepository реализация репозитория разделений через PostgreSQL.
// payment_id уникален: одна запись разделения на платеж.
type PostgresSplitRepository struct {
	db  *pgxpool.Pool
	log *logger.Logger
}

// NewPostgresSplitRepository создает новый репозиторий разделений через PostgreSQL
func NewPostgresSplitRepository(db *pgxpool.Pool, log *logger.Logger) *PostgresSplitRepository {
	return &PostgresSplitRepository{
		db:  db,
		log: log,
	}
}

func scanSplit(row pgx.Row) (domain.SplitRecord, error) {
	var s domain.SplitRecord
	err := row.Scan(
		&s.ID,
		&s.PaymentID,
		&s.CoachID,
		&s.CoachAmount,
		&s.PlatformAmount,
		&s.PercentageApplied,
		&s.TransferStatus,
		&s.ExternalTransferID,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	return s, err
}

// GetByPaymentID возвращает запись разделения по ID платежа
func (r *PostgresSplitRepository) GetByPaymentID(ctx context.Context, paymentID uuid.UUID) (domain.SplitRecord, error) {
	query := `SELECT ` + splitColumns + ` FROM split_records WHERE payment_id = $1`

	record, err := scanSplit(r.db.QueryRow(ctx, query, paymentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.SplitRecord{}, repository.ErrNotFound
		}
		return domain.SplitRecord{}, fmt.Errorf("failed to get split record: %w", err)
	}

	return record, nil
}

// Create создает запись разделения
func (r *PostgresSplitRepository) Create(ctx context.Context, record domain.SplitRecord) (domain.SplitRecord, error) {
	query := `
		INSERT INTO split_records (
			id, payment_id, coach_id, coach_amount, platform_amount,
			percentage_applied, transfer_status, external_transfer_id,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx,
		query,
		record.ID,
		record.PaymentID,
		record.CoachID,
		record.CoachAmount,
		record.PlatformAmount,
		record.PercentageApplied,
		record.TransferStatus,
		record.ExternalTransferID,
	).Scan(&record.CreatedAt, &record.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			// Нарушение уникальности по payment_id
			if pgErr.Code == "23505" {
				return domain.SplitRecord{}, repository.ErrDuplicate
			}
		}
		return domain.SplitRecord{}, fmt.Errorf("failed to create split record: %w", err)
	}

	return record, nil
}

// ClaimForSettlement захватывает отложенную запись под выполнение перевода.
// Условный UPDATE гарантирует, что из конкурентных проходов сверки захват
// достанется ровно одному.
func (r *PostgresSplitRepository) ClaimForSettlement(ctx context.Context, paymentID uuid.UUID) (bool, error) {
	query := `
		UPDATE split_records
		SET transfer_status = 'settling', updated_at = now()
		WHERE payment_id = $1 AND transfer_status = 'deferred'
	`

	result, err := r.db.Exec(ctx, query, paymentID)
	if err != nil {
		return false, fmt.Errorf("failed to claim split for settlement: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

// ReleaseClaim возвращает захваченную запись в deferred
func (r *PostgresSplitRepository) ReleaseClaim(ctx context.Context, paymentID uuid.UUID) error {
	query := `
		UPDATE split_records
		SET transfer_status = 'deferred', updated_at = now()
		WHERE payment_id = $1 AND transfer_status = 'settling'
	`

	if _, err := r.db.Exec(ctx, query, paymentID); err != nil {
		return fmt.Errorf("failed to release split claim: %w", err)
	}

	return nil
}

// MarkSettled отмечает захваченный перевод выполненным
func (r *PostgresSplitRepository) MarkSettled(ctx context.Context, paymentID uuid.UUID, externalTransferID string) (bool, error) {
	query := `
		UPDATE split_records
		SET transfer_status = 'settled', external_transfer_id = $1, updated_at = now()
		WHERE payment_id = $2 AND transfer_status = 'settling'
	`

	result, err := r.db.Exec(ctx, query, externalTransferID, paymentID)
	if err != nil {
		return false, fmt.Errorf("failed to mark split settled: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

// ListDeferred возвращает записи с отложенным переводом
func (r *PostgresSplitRepository) ListDeferred(ctx context.Context) ([]domain.SplitRecord, error) {
	query := `SELECT ` + splitColumns + ` FROM split_records WHERE transfer_status = 'deferred' ORDER BY created_at`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query deferred splits: %w", err)
	}
	defer rows.Close()

	var records []domain.SplitRecord
	for rows.Next() {
		record, err := scanSplit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan split record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating split records: %w", err)
	}

	return records, nil
}
