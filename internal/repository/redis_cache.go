package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nexfit/billing-service/internal/domain"
	"github.com/nexfit/billing-service/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	// Префиксы ключей для различных типов данных
	planKeyPrefix    = "plan:"
	planListCacheKey = "plans:all"

	// TTL для кэша
	defaultCacheTTL = 15 * time.Minute
)

// RedisCacheRepository реализует кеширование с использованием Redis
type RedisCacheRepository struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRedisCacheRepository создает новый экземпляр Redis репозитория
func NewRedisCacheRepository(redisAddr, redisPassword string, redisDB int, log *logger.Logger) (*RedisCacheRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})

	// Проверяем соединение с Redis
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis: %v", err)
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info("Connected to Redis successfully at %s", redisAddr)
	return &RedisCacheRepository{
		client: client,
		log:    log,
	}, nil
}

// Close закрывает соединение с Redis
func (r *RedisCacheRepository) Close() error {
	return r.client.Close()
}

// CachePlan кеширует план в Redis
func (r *RedisCacheRepository) CachePlan(ctx context.Context, plan *domain.Plan) error {
	key := planKeyPrefix + plan.ID.String()

	data, err := json.Marshal(plan)
	if err != nil {
		r.log.Error("Failed to marshal plan %s for caching: %v", plan.ID, err)
		return err
	}

	return r.client.Set(ctx, key, data, defaultCacheTTL).Err()
}

// GetCachedPlan возвращает план из кеша; nil без ошибки означает промах
func (r *RedisCacheRepository) GetCachedPlan(ctx context.Context, planID uuid.UUID) (*domain.Plan, error) {
	key := planKeyPrefix + planID.String()

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var plan domain.Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, err
	}

	return &plan, nil
}

// InvalidatePlan удаляет план из кеша
func (r *RedisCacheRepository) InvalidatePlan(ctx context.Context, planID uuid.UUID) error {
	return r.client.Del(ctx, planKeyPrefix+planID.String()).Err()
}

// InvalidatePlanList удаляет список планов из кеша
func (r *RedisCacheRepository) InvalidatePlanList(ctx context.Context) error {
	return r.client.Del(ctx, planListCacheKey).Err()
}

// CachePlanList кеширует список всех планов
func (r *RedisCacheRepository) CachePlanList(ctx context.Context, plans []domain.Plan) error {
	data, err := json.Marshal(plans)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, planListCacheKey, data, defaultCacheTTL).Err()
}

// GetCachedPlanList возвращает список планов из кеша; nil означает промах
func (r *RedisCacheRepository) GetCachedPlanList(ctx context.Context) ([]domain.Plan, error) {
	data, err := r.client.Get(ctx, planListCacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var plans []domain.Plan
	if err := json.Unmarshal(data, &plans); err != nil {
		return nil, err
	}

	return plans, nil
}
