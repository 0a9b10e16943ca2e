package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/nexfit/billing-service/internal/domain"
	"github.com/nexfit/billing-service/internal/gateway"
	"github.com/nexfit/billing-service/internal/repository"
	"github.com/nexfit/billing-service/pkg/logger"
)

// PaymentService интерфейс сервиса для работы с платежами
type PaymentService interface {
	GetByID(ctx context.Context, id string) (domain.Payment, error)
	GetByUserID(ctx context.Context, userID string) ([]domain.Payment, error)
	Cancel(ctx context.Context, id string) (domain.Payment, error)
}

type paymentService struct {
	repo    repository.PaymentRepository
	gateway gateway.PaymentGateway
	log     *logger.Logger
}

// NewPaymentService создает новый сервис для работы с платежами
func NewPaymentService(repo repository.PaymentRepository, gw gateway.PaymentGateway, log *logger.Logger) PaymentService {
	return &paymentService{
		repo:    repo,
		gateway: gw,
		log:     log,
	}
}

func (s *paymentService) GetByID(ctx context.Context, id string) (domain.Payment, error) {
	s.log.Debug("Getting payment by ID: %s", id)

	uuidID, err := uuid.Parse(id)
	if err != nil {
		s.log.Warn("Invalid UUID format: %s", id)
		return domain.Payment{}, repository.ErrInvalidData
	}

	payment, err := s.repo.GetByID(ctx, uuidID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Payment{}, domain.ErrPaymentNotFound
		}
		return domain.Payment{}, err
	}

	return payment, nil
}

func (s *paymentService) GetByUserID(ctx context.Context, userID string) ([]domain.Payment, error) {
	s.log.Debug("Getting payments by user ID: %s", userID)

	uuidUserID, err := uuid.Parse(userID)
	if err != nil {
		s.log.Warn("Invalid UUID format for user ID: %s", userID)
		return nil, repository.ErrInvalidData
	}

	return s.repo.GetByUserID(ctx, uuidUserID)
}

// Cancel отменяет еще не оплаченное списание по инициативе пользователя.
// Допустимо только для платежей в статусе pending; карта обрабатывается
// синхронно и отменить ее нельзя.
func (s *paymentService) Cancel(ctx context.Context, id string) (domain.Payment, error) {
	payment, err := s.GetByID(ctx, id)
	if err != nil {
		return domain.Payment{}, err
	}

	if payment.Status != domain.PaymentStatusPending {
		return domain.Payment{}, domain.ErrPaymentNotPending
	}

	if payment.ExternalPaymentID != "" {
		if err := s.gateway.CancelCharge(ctx, payment.ExternalPaymentID); err != nil {
			return domain.Payment{}, err
		}
	}

	cancelled, err := s.repo.TransitionStatus(ctx, payment.ID, domain.PaymentStatusCancelled, nil)
	if err != nil {
		return domain.Payment{}, err
	}
	if !cancelled {
		// Вебхук или поллер успели применить терминальный статус
		return domain.Payment{}, domain.ErrPaymentNotPending
	}

	payment.Status = domain.PaymentStatusCancelled
	s.log.Info("Payment %s cancelled by user", payment.ID)
	return payment, nil
}
