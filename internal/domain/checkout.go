package domain

import (
	"time"

	"github.com/google/uuid"
)

// CheckoutAttempt представляет попытку оформления подписки.
// Привязана к ключу идемпотентности: один ключ никогда не порождает
// два внешних списания.
type CheckoutAttempt struct {
	IdempotencyKey  string     `json:"idempotency_key"`
	UserID          uuid.UUID  `json:"user_id"`
	RequestSnapshot []byte     `json:"request_snapshot,omitempty"`
	PaymentID       *uuid.UUID `json:"payment_id,omitempty"`
	// ResultSnapshot сериализованный CheckoutResult; повторный запрос с тем же
	// ключом возвращает его без повторного выполнения шагов
	ResultSnapshot []byte    `json:"result_snapshot,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Resolved проверяет, что попытка уже привязана к платежу
func (a *CheckoutAttempt) Resolved() bool {
	return a.PaymentID != nil
}

// CreditCardData данные кредитной карты, приходят от UI и не сохраняются
type CreditCardData struct {
	HolderName  string `json:"holder_name" binding:"required"`
	Number      string `json:"number" binding:"required"`
	ExpiryMonth int    `json:"expiry_month" binding:"required"`
	ExpiryYear  int    `json:"expiry_year" binding:"required"`
	CVV         string `json:"cvv" binding:"required"`
}

// CheckoutRequest представляет запрос на оформление подписки
type CheckoutRequest struct {
	UserID         string          `json:"user_id" binding:"required,uuid4"`
	PlanID         string          `json:"plan_id" binding:"required,uuid4"`
	ModalidadeID   string          `json:"modalidade_id" binding:"required,uuid4"`
	CoachID        string          `json:"coach_id,omitempty" binding:"omitempty,uuid4"`
	Period         BillingPeriod   `json:"period" binding:"required"`
	PaymentMethod  PaymentMethod   `json:"payment_method" binding:"required"`
	CreditCard     *CreditCardData `json:"credit_card,omitempty"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
	// IsFirstCycle задает, берется ли плата за зачисление
	IsFirstCycle bool `json:"is_first_cycle"`
}

// PriceBreakdown расшифровка суммы для квитанции
type PriceBreakdown struct {
	BasePrice     int64 `json:"base_price"`
	EnrollmentFee int64 `json:"enrollment_fee"`
}

// CheckoutResult представляет результат оформления подписки
type CheckoutResult struct {
	Success      bool           `json:"success"`
	PaymentID    uuid.UUID      `json:"payment_id"`
	Status       PaymentStatus  `json:"status"`
	Amount       int64          `json:"amount"`
	Breakdown    PriceBreakdown `json:"breakdown"`
	DueDate      time.Time      `json:"due_date"`
	PixQrCode    string         `json:"pix_qr_code,omitempty"`
	PixCopyPaste string         `json:"pix_copy_paste,omitempty"`
	BankSlipURL  string         `json:"bank_slip_url,omitempty"`
}

// GatewayWebhookEvent представляет событие вебхука от платежной системы
// после проверки подписи на границе
type GatewayWebhookEvent struct {
	Event             string        `json:"event"`
	ExternalPaymentID string        `json:"external_payment_id"`
	Status            PaymentStatus `json:"status"`
	PaidAt            *time.Time    `json:"paid_at,omitempty"`
}
