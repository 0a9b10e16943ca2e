package postgres

import (
	"context"
	"encoding/json"
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

// PostgresPlanRepository реализация репозитория планов через PostgreSQL.
// Цены по периодам хранятся как JSONB: таблица периодов фиксирована,
// а набор цен у планов разный.
type PostgresPlanRepository struct {
	db  *pgxpool.Pool
	log *logger.Logger
}

// NewPostgresPlanRepository создает новый репозиторий планов через PostgreSQL
func NewPostgresPlanRepository(db *pgxpool.Pool, log *logger.Logger) *PostgresPlanRepository {
	return &PostgresPlanRepository{
		db:  db,
		log: log,
	}
}

func scanPlan(row pgx.Row) (domain.Plan, error) {
	var p domain.Plan
	var pricesBytes []byte
	var modalidadeBytes []byte

	err := row.Scan(
		&p.ID,
		&p.Name,
		&pricesBytes,
		&p.EnrollmentFee,
		&modalidadeBytes,
		&p.Active,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return domain.Plan{}, err
	}

	if len(pricesBytes) > 0 {
		if err := json.Unmarshal(pricesBytes, &p.Prices); err != nil {
			return domain.Plan{}, fmt.Errorf("failed to unmarshal plan prices: %w", err)
		}
	}
	if len(modalidadeBytes) > 0 {
		if err := json.Unmarshal(modalidadeBytes, &p.ModalidadeIDs); err != nil {
			return domain.Plan{}, fmt.Errorf("failed to unmarshal plan modalidades: %w", err)
		}
	}

	return p, nil
}

// GetByID возвращает план по ID
func (r *PostgresPlanRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Plan, error) {
	query := `
		SELECT id, name, prices, enrollment_fee, modalidade_ids, active, created_at, updated_at
		FROM plans
		WHERE id = $1
	`

	plan, err := scanPlan(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Plan{}, repository.ErrNotFound
		}
		return domain.Plan{}, fmt.Errorf("failed to get plan: %w", err)
	}

	return plan, nil
}

// GetAll возвращает все планы
func (r *PostgresPlanRepository) GetAll(ctx context.Context) ([]domain.Plan, error) {
	query := `
		SELECT id, name, prices, enrollment_fee, modalidade_ids, active, created_at, updated_at
		FROM plans
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	defer rows.Close()

	var plans []domain.Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, plan)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plans: %w", err)
	}

	return plans, nil
}

// Create создает новый план
func (r *PostgresPlanRepository) Create(ctx context.Context, plan domain.Plan) (domain.Plan, error) {
	pricesBytes, err := json.Marshal(plan.Prices)
	if err != nil {
		return domain.Plan{}, fmt.Errorf("failed to marshal plan prices: %w", err)
	}
	modalidadeBytes, err := json.Marshal(plan.ModalidadeIDs)
	if err != nil {
		return domain.Plan{}, fmt.Errorf("failed to marshal plan modalidades: %w", err)
	}

	query := `
		INSERT INTO plans (id, name, prices, enrollment_fee, modalidade_ids, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING created_at, updated_at
	`

	err = r.db.QueryRow(
		ctx,
		query,
		plan.ID,
		plan.Name,
		pricesBytes,
		plan.EnrollmentFee,
		modalidadeBytes,
		plan.Active,
	).Scan(&plan.CreatedAt, &plan.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" {
				return domain.Plan{}, repository.ErrDuplicate
			}
		}
		return domain.Plan{}, fmt.Errorf("failed to create plan: %w", err)
	}

	return plan, nil
}

// Update обновляет существующий план
func (r *PostgresPlanRepository) Update(ctx context.Context, plan domain.Plan) error {
	pricesBytes, err := json.Marshal(plan.Prices)
	if err != nil {
		return fmt.Errorf("failed to marshal plan prices: %w", err)
	}
	modalidadeBytes, err := json.Marshal(plan.ModalidadeIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal plan modalidades: %w", err)
	}

	query := `
		UPDATE plans
		SET name = $1, prices = $2, enrollment_fee = $3, modalidade_ids = $4, active = $5, updated_at = now()
		WHERE id = $6
	`

	result, err := r.db.Exec(ctx, query, plan.Name, pricesBytes, plan.EnrollmentFee, modalidadeBytes, plan.Active, plan.ID)
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}

	if result.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}
