package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/nexfit/billing-service/internal/domain"
	"github.com/nexfit/billing-service/pkg/logger"
)

const (
	TopicPaymentConfirmed      = "billing.payment.confirmed"
	TopicPaymentFailed         = "billing.payment.failed"
	TopicSubscriptionActivated = "billing.subscription.activated"
	TopicSplitSettled          = "billing.split.settled"
)

// PaymentEvent представляет событие платежа для Kafka
type PaymentEvent struct {
	ID                string               `json:"id"`
	SubscriptionID    string               `json:"subscription_id,omitempty"`
	UserID            string               `json:"user_id"`
	Amount            int64                `json:"amount"`
	Method            domain.PaymentMethod `json:"method"`
	Status            domain.PaymentStatus `json:"status"`
	ExternalPaymentID string               `json:"external_payment_id,omitempty"`
	PaidAt            *time.Time           `json:"paid_at,omitempty"`
	Timestamp         time.Time            `json:"timestamp"`
}

// SubscriptionEvent представляет событие подписки для Kafka
type SubscriptionEvent struct {
	ID        string                    `json:"id"`
	UserID    string                    `json:"user_id"`
	PlanID    string                    `json:"plan_id"`
	CoachID   string                    `json:"coach_id,omitempty"`
	Status    domain.SubscriptionStatus `json:"status"`
	Period    domain.BillingPeriod      `json:"period"`
	Amount    int64                     `json:"amount"`
	Timestamp time.Time                 `json:"timestamp"`
}

// SplitEvent представляет событие выполненного перевода доли тренеру
type SplitEvent struct {
	PaymentID          string    `json:"payment_id"`
	CoachID            string    `json:"coach_id"`
	CoachAmount        int64     `json:"coach_amount"`
	PlatformAmount     int64     `json:"platform_amount"`
	PercentageApplied  int64     `json:"percentage_applied"`
	ExternalTransferID string    `json:"external_transfer_id"`
	Timestamp          time.Time `json:"timestamp"`
}

// BillingProducer интерфейс для отправки биллинговых событий
type BillingProducer interface {
	PublishPaymentConfirmed(ctx context.Context, payment domain.Payment) error
	PublishPaymentFailed(ctx context.Context, payment domain.Payment) error
	PublishSubscriptionActivated(ctx context.Context, sub domain.Subscription) error
	PublishSplitSettled(ctx context.Context, record domain.SplitRecord) error
	Close() error
}

type kafkaBillingProducer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
}

// NewKafkaBillingProducer создает новый продюсер биллинговых событий
func NewKafkaBillingProducer(producer sarama.SyncProducer, log *logger.Logger) BillingProducer {
	return &kafkaBillingProducer{
		producer: producer,
		log:      log,
	}
}

// PublishPaymentConfirmed публикует событие о подтверждении платежа
func (p *kafkaBillingProducer) PublishPaymentConfirmed(ctx context.Context, payment domain.Payment) error {
	return p.publishPaymentEvent(TopicPaymentConfirmed, payment)
}

// PublishPaymentFailed публикует событие о неудачном платеже
func (p *kafkaBillingProducer) PublishPaymentFailed(ctx context.Context, payment domain.Payment) error {
	return p.publishPaymentEvent(TopicPaymentFailed, payment)
}

// PublishSubscriptionActivated публикует событие об активации подписки
func (p *kafkaBillingProducer) PublishSubscriptionActivated(ctx context.Context, sub domain.Subscription) error {
	event := SubscriptionEvent{
		ID:        sub.ID.String(),
		UserID:    sub.UserID.String(),
		PlanID:    sub.PlanID.String(),
		Status:    sub.Status,
		Period:    sub.Period,
		Amount:    sub.Amount,
		Timestamp: time.Now(),
	}
	if sub.CoachID != nil {
		event.CoachID = sub.CoachID.String()
	}

	return p.publishEvent(TopicSubscriptionActivated, sub.ID.String(), event)
}

// PublishSplitSettled публикует событие о выполненном переводе доли
func (p *kafkaBillingProducer) PublishSplitSettled(ctx context.Context, record domain.SplitRecord) error {
	event := SplitEvent{
		PaymentID:          record.PaymentID.String(),
		CoachAmount:        record.CoachAmount,
		PlatformAmount:     record.PlatformAmount,
		PercentageApplied:  record.PercentageApplied,
		ExternalTransferID: record.ExternalTransferID,
		Timestamp:          time.Now(),
	}
	if record.CoachID != nil {
		event.CoachID = record.CoachID.String()
	}

	return p.publishEvent(TopicSplitSettled, record.PaymentID.String(), event)
}

// publishPaymentEvent публикует событие платежа в Kafka
func (p *kafkaBillingProducer) publishPaymentEvent(topic string, payment domain.Payment) error {
	event := PaymentEvent{
		ID:                payment.ID.String(),
		UserID:            payment.UserID.String(),
		Amount:            payment.Amount,
		Method:            payment.Method,
		Status:            payment.Status,
		ExternalPaymentID: payment.ExternalPaymentID,
		PaidAt:            payment.PaidAt,
		Timestamp:         time.Now(),
	}
	if payment.SubscriptionID != nil {
		event.SubscriptionID = payment.SubscriptionID.String()
	}

	return p.publishEvent(topic, payment.ID.String(), event)
}

// publishEvent сериализует событие и отправляет его в Kafka
func (p *kafkaBillingProducer) publishEvent(topic, key string, event interface{}) error {
	messageValue, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal billing event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(messageValue),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("event_type"),
				Value: []byte(topic),
			},
		},
		Timestamp: time.Now(),
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to publish billing event: %w", err)
	}

	p.log.Info("Published billing event to topic %s: partition=%d offset=%d",
		topic, partition, offset)

	return nil
}

// Close закрывает продюсер
func (p *kafkaBillingProducer) Close() error {
	return p.producer.Close()
}
