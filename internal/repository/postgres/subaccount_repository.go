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

// PostgresSubaccountRepository реализация репозитория субаккаунтов через
// PostgreSQL. coach_id — первичный ключ, поэтому конкурентное создание
// субаккаунта для одного тренера дает ErrDuplicate второму вызову.
type PostgresSubaccountRepository struct {
	db  *pgxpool.Pool
	log *logger.Logger
}

// NewPostgresSubaccountRepository создает новый репозиторий субаккаунтов через PostgreSQL
func NewPostgresSubaccountRepository(db *pgxpool.Pool, log *logger.Logger) *PostgresSubaccountRepository {
	return &PostgresSubaccountRepository{
		db:  db,
		log: log,
	}
}

// GetByCoachID возвращает субаккаунт тренера
func (r *PostgresSubaccountRepository) GetByCoachID(ctx context.Context, coachID uuid.UUID) (domain.CoachSubaccount, error) {
	query := `
		SELECT coach_id, external_subaccount_id, external_wallet_id, status, created_at, updated_at
		FROM coach_subaccounts
		WHERE coach_id = $1
	`

	var sub domain.CoachSubaccount
	err := r.db.QueryRow(ctx, query, coachID).Scan(
		&sub.CoachID,
		&sub.ExternalSubaccountID,
		&sub.ExternalWalletID,
		&sub.Status,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CoachSubaccount{}, repository.ErrNotFound
		}
		return domain.CoachSubaccount{}, fmt.Errorf("failed to get subaccount: %w", err)
	}

	return sub, nil
}

// Create создает субаккаунт; при существующей записи возвращает ErrDuplicate
func (r *PostgresSubaccountRepository) Create(ctx context.Context, sub domain.CoachSubaccount) (domain.CoachSubaccount, error) {
	query := `
		INSERT INTO coach_subaccounts (coach_id, external_subaccount_id, external_wallet_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx,
		query,
		sub.CoachID,
		sub.ExternalSubaccountID,
		sub.ExternalWalletID,
		sub.Status,
	).Scan(&sub.CreatedAt, &sub.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			// Нарушение уникальности по coach_id
			if pgErr.Code == "23505" {
				return domain.CoachSubaccount{}, repository.ErrDuplicate
			}
		}
		return domain.CoachSubaccount{}, fmt.Errorf("failed to create subaccount: %w", err)
	}

	return sub, nil
}

// UpdateStatus обновляет статус субаккаунта
func (r *PostgresSubaccountRepository) UpdateStatus(ctx context.Context, coachID uuid.UUID, status domain.SubaccountStatus) error {
	query := `
		UPDATE coach_subaccounts
		SET status = $1, updated_at = now()
		WHERE coach_id = $2
	`

	result, err := r.db.Exec(ctx, query, status, coachID)
	if err != nil {
		return fmt.Errorf("failed to update subaccount status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}
