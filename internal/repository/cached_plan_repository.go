package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/nexfit/billing-service/internal/domain"
	"github.com/nexfit/billing-service/pkg/logger"
)

// CachedPlanRepository реализует PlanRepository с кешированием.
// Планы читаются при каждом checkout, поэтому промахи дорогие; ошибки кеша
// не фатальны и не прерывают операцию.
type CachedPlanRepository struct {
	repo  PlanRepository
	cache *RedisCacheRepository
	log   *logger.Logger
}

// NewCachedPlanRepository создает новый репозиторий планов с кешированием
func NewCachedPlanRepository(repo PlanRepository, cache *RedisCacheRepository, log *logger.Logger) PlanRepository {
	return &CachedPlanRepository{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// GetByID получает план по ID (сначала из кеша, потом из БД)
func (r *CachedPlanRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Plan, error) {
	cached, err := r.cache.GetCachedPlan(ctx, id)
	if err != nil {
		r.log.Warn("Error getting plan %s from cache: %v", id, err)
		// Продолжаем выполнение при ошибке кеша
	}

	if cached != nil {
		r.log.Debug("Plan %s found in cache", id)
		return *cached, nil
	}

	plan, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Plan{}, err
	}

	if err := r.cache.CachePlan(ctx, &plan); err != nil {
		r.log.Warn("Failed to cache plan %s after fetching: %v", id, err)
	}

	return plan, nil
}

// GetAll возвращает все планы (сначала из кеша, потом из БД)
func (r *CachedPlanRepository) GetAll(ctx context.Context) ([]domain.Plan, error) {
	cached, err := r.cache.GetCachedPlanList(ctx)
	if err != nil {
		r.log.Warn("Error getting plan list from cache: %v", err)
	}

	if cached != nil {
		return cached, nil
	}

	plans, err := r.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	if len(plans) > 0 {
		if err := r.cache.CachePlanList(ctx, plans); err != nil {
			r.log.Warn("Failed to cache plan list: %v", err)
		}
	}

	return plans, nil
}

// Create создает план в БД и кеширует его
func (r *CachedPlanRepository) Create(ctx context.Context, plan domain.Plan) (domain.Plan, error) {
	created, err := r.repo.Create(ctx, plan)
	if err != nil {
		return domain.Plan{}, err
	}

	if err := r.cache.CachePlan(ctx, &created); err != nil {
		r.log.Warn("Failed to cache plan %s after creation: %v", created.ID, err)
	}

	if err := r.cache.InvalidatePlanList(ctx); err != nil {
		r.log.Warn("Failed to invalidate plan list cache: %v", err)
	}

	return created, nil
}

// Update обновляет план в БД и инвалидирует кеш
func (r *CachedPlanRepository) Update(ctx context.Context, plan domain.Plan) error {
	if err := r.repo.Update(ctx, plan); err != nil {
		return err
	}

	if err := r.cache.InvalidatePlan(ctx, plan.ID); err != nil {
		r.log.Warn("Failed to invalidate plan %s cache after update: %v", plan.ID, err)
	}

	if err := r.cache.InvalidatePlanList(ctx); err != nil {
		r.log.Warn("Failed to invalidate plan list cache after update: %v", err)
	}

	return nil
}
