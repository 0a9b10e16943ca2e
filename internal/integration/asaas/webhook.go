package asaas

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nexfit/billing-service/internal/domain"
)

// webhookPayload представляет тело webhook-события от Asaas
type webhookPayload struct {
	Event   string `json:"event"`
	Payment struct {
		ID          string `json:"id"`
		Status      string `json:"status"`
		PaymentDate string `json:"paymentDate"`
	} `json:"payment"`
}

// VerifyWebhookToken проверяет токен из заголовка asaas-access-token.
// Сравнение за постоянное время.
func (c *Client) VerifyWebhookToken(token string) error {
	if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(c.webhookToken)) != 1 {
		return domain.ErrInvalidWebhookToken
	}
	return nil
}

// ParseWebhookEvent разбирает webhook-событие Asaas в событие системы
func (c *Client) ParseWebhookEvent(payload []byte) (domain.GatewayWebhookEvent, error) {
	var body webhookPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return domain.GatewayWebhookEvent{}, fmt.Errorf("failed to parse webhook payload: %w", err)
	}

	if body.Payment.ID == "" {
		return domain.GatewayWebhookEvent{}, fmt.Errorf("webhook payload has no payment id")
	}

	event := domain.GatewayWebhookEvent{
		Event:             body.Event,
		ExternalPaymentID: body.Payment.ID,
		Status:            mapPaymentStatus(body.Payment.Status),
	}

	// Некоторые события несут свой статус в имени, а не в payment.status
	switch body.Event {
	case "PAYMENT_CONFIRMED", "PAYMENT_RECEIVED":
		event.Status = domain.PaymentStatusConfirmed
	case "PAYMENT_REFUSED":
		event.Status = domain.PaymentStatusFailed
	case "PAYMENT_DELETED":
		event.Status = domain.PaymentStatusCancelled
	}

	if body.Payment.PaymentDate != "" {
		if paidAt, err := time.Parse("2006-01-02", body.Payment.PaymentDate); err == nil {
			event.PaidAt = &paidAt
		}
	}

	c.log.Debug("Parsed Asaas webhook event %s for payment %s", body.Event, body.Payment.ID)
	return event, nil
}
