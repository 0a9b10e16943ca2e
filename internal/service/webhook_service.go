package service

import (
	"context"

	"github.com/nexfit/billing-service/internal/domain"
	"github.com/nexfit/billing-service/pkg/logger"
)

// WebhookVerifier проверяет подлинность вебхука платежной системы и
// разбирает его тело
type WebhookVerifier interface {
	VerifyWebhookToken(token string) error
	ParseWebhookEvent(payload []byte) (domain.GatewayWebhookEvent, error)
}

// WebhookService принимает вебхуки платежной системы и передает их в сверку
type WebhookService struct {
	verifier   WebhookVerifier
	reconciler *ReconcilerService
	log        *logger.Logger
}

// NewWebhookService создает новый сервис обработки вебхуков
func NewWebhookService(verifier WebhookVerifier, reconciler *ReconcilerService, log *logger.Logger) *WebhookService {
	return &WebhookService{
		verifier:   verifier,
		reconciler: reconciler,
		log:        log,
	}
}

// Handle проверяет токен, разбирает событие и применяет его к платежу
func (s *WebhookService) Handle(ctx context.Context, token string, payload []byte) (domain.GatewayWebhookEvent, error) {
	if err := s.verifier.VerifyWebhookToken(token); err != nil {
		s.log.Warn("Webhook rejected: invalid token")
		return domain.GatewayWebhookEvent{}, err
	}

	event, err := s.verifier.ParseWebhookEvent(payload)
	if err != nil {
		return domain.GatewayWebhookEvent{}, err
	}

	s.log.Info("Webhook %s for external payment %s reports status %s",
		event.Event, event.ExternalPaymentID, event.Status)

	return event, s.reconciler.Reconcile(ctx, event.ExternalPaymentID, event.Status, event.PaidAt)
}
