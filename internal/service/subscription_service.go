package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/nexfit/billing-service/internal/domain"
	"github.com/nexfit/billing-service/internal/repository"
	"github.com/nexfit/billing-service/pkg/logger"
)

// ErrSubscriptionNotFound подписка не найдена
var ErrSubscriptionNotFound = errors.New("subscription not found")

// SubscriptionService интерфейс сервиса для работы с подписками
type SubscriptionService interface {
	GetByID(ctx context.Context, id string) (domain.Subscription, error)
	GetByUserID(ctx context.Context, userID string) ([]domain.Subscription, error)
	Cancel(ctx context.Context, id string) (domain.Subscription, error)
}

type subscriptionService struct {
	repo repository.SubscriptionRepository
	log  *logger.Logger
}

// NewSubscriptionService создает новый сервис для работы с подписками
func NewSubscriptionService(repo repository.SubscriptionRepository, log *logger.Logger) SubscriptionService {
	return &subscriptionService{
		repo: repo,
		log:  log,
	}
}

func (s *subscriptionService) GetByID(ctx context.Context, id string) (domain.Subscription, error) {
	s.log.Debug("Getting subscription by ID: %s", id)

	uuidID, err := uuid.Parse(id)
	if err != nil {
		s.log.Warn("Invalid UUID format: %s", id)
		return domain.Subscription{}, repository.ErrInvalidData
	}

	sub, err := s.repo.GetByID(ctx, uuidID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Subscription{}, ErrSubscriptionNotFound
		}
		return domain.Subscription{}, err
	}

	return sub, nil
}

func (s *subscriptionService) GetByUserID(ctx context.Context, userID string) ([]domain.Subscription, error) {
	s.log.Debug("Getting subscriptions by user ID: %s", userID)

	uuidUserID, err := uuid.Parse(userID)
	if err != nil {
		s.log.Warn("Invalid UUID format for user ID: %s", userID)
		return nil, repository.ErrInvalidData
	}

	return s.repo.GetByUserID(ctx, uuidUserID)
}

// Cancel отменяет подписку. Статус cancelled терминальный: повторная отмена
// возвращает подписку без изменений.
func (s *subscriptionService) Cancel(ctx context.Context, id string) (domain.Subscription, error) {
	sub, err := s.GetByID(ctx, id)
	if err != nil {
		return domain.Subscription{}, err
	}

	if sub.Status == domain.SubscriptionStatusCancelled {
		return sub, nil
	}

	sub.Status = domain.SubscriptionStatusCancelled
	if err := s.repo.Update(ctx, sub); err != nil {
		return domain.Subscription{}, err
	}

	s.log.Info("Subscription %s cancelled", sub.ID)
	return sub, nil
}
