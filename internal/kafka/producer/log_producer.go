package producer

import (
	"context"

	"github.com/nexfit/billing-service/internal/domain"
	"github.com/nexfit/billing-service/pkg/logger"
)

// logBillingProducer пишет события в лог вместо Kafka; используется,
// когда Kafka выключена в конфигурации
type logBillingProducer struct {
	log *logger.Logger
}

// NewLogBillingProducer создает продюсер, который только логирует события
func NewLogBillingProducer(log *logger.Logger) BillingProducer {
	return &logBillingProducer{log: log}
}

func (p *logBillingProducer) PublishPaymentConfirmed(ctx context.Context, payment domain.Payment) error {
	p.log.Info("Billing event %s: payment=%s", TopicPaymentConfirmed, payment.ID)
	return nil
}

func (p *logBillingProducer) PublishPaymentFailed(ctx context.Context, payment domain.Payment) error {
	p.log.Info("Billing event %s: payment=%s", TopicPaymentFailed, payment.ID)
	return nil
}

func (p *logBillingProducer) PublishSubscriptionActivated(ctx context.Context, sub domain.Subscription) error {
	p.log.Info("Billing event %s: subscription=%s", TopicSubscriptionActivated, sub.ID)
	return nil
}

func (p *logBillingProducer) PublishSplitSettled(ctx context.Context, record domain.SplitRecord) error {
	p.log.Info("Billing event %s: payment=%s", TopicSplitSettled, record.PaymentID)
	return nil
}

func (p *logBillingProducer) Close() error {
	return nil
}
