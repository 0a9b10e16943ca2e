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

// PostgresCoachRepository реализация репозитория тренеров через PostgreSQL
type PostgresCoachRepository struct {
	db  *pgxpool.Pool
	log *logger.Logger
}

// NewPostgresCoachRepository создает новый репозиторий тренеров через PostgreSQL
func NewPostgresCoachRepository(db *pgxpool.Pool, log *logger.Logger) *PostgresCoachRepository {
	return &PostgresCoachRepository{
		db:  db,
		log: log,
	}
}

// GetByID возвращает тренера по ID
func (r *PostgresCoachRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Coach, error) {
	query := `
		SELECT id, name, email, tier, created_at, updated_at
		FROM coaches
		WHERE id = $1
	`

	var coach domain.Coach
	err := r.db.QueryRow(ctx, query, id).Scan(
		&coach.ID,
		&coach.Name,
		&coach.Email,
		&coach.Tier,
		&coach.CreatedAt,
		&coach.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Coach{}, repository.ErrNotFound
		}
		return domain.Coach{}, fmt.Errorf("failed to get coach: %w", err)
	}

	return coach, nil
}

// Create создает нового тренера
func (r *PostgresCoachRepository) Create(ctx context.Context, coach domain.Coach) (domain.Coach, error) {
	query := `
		INSERT INTO coaches (id, name, email, tier, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query, coach.ID, coach.Name, coach.Email, coach.Tier).
		Scan(&coach.CreatedAt, &coach.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" {
				return domain.Coach{}, repository.ErrDuplicate
			}
		}
		return domain.Coach{}, fmt.Errorf("failed to create coach: %w", err)
	}

	return coach, nil
}
