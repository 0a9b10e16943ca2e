package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentMethod способ оплаты
type PaymentMethod string

const (
	PaymentMethodPix        PaymentMethod = "pix"
	PaymentMethodBoleto     PaymentMethod = "boleto"
	PaymentMethodCreditCard PaymentMethod = "credit_card"
)

// IsValid проверяет, что способ оплаты поддерживается
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodPix, PaymentMethodBoleto, PaymentMethodCreditCard:
		return true
	}
	return false
}

// PaymentStatus статус платежа.
// Статусы confirmed, failed и cancelled терминальные: после них статус не меняется.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusConfirmed PaymentStatus = "confirmed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// IsTerminal проверяет, что статус терминальный
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusConfirmed || s == PaymentStatusFailed || s == PaymentStatusCancelled
}

// Payment представляет собой модель платежа.
// Amount хранится в центавах, никакой плавающей точки.
type Payment struct {
	ID                uuid.UUID     `json:"id"`
	SubscriptionID    *uuid.UUID    `json:"subscription_id,omitempty"`
	UserID            uuid.UUID     `json:"user_id"`
	Amount            int64         `json:"amount"`
	Method            PaymentMethod `json:"method"`
	Status            PaymentStatus `json:"status"`
	ExternalPaymentID string        `json:"external_payment_id,omitempty"`
	IdempotencyKey    string        `json:"idempotency_key"`
	DueDate           time.Time     `json:"due_date"`
	PaidAt            *time.Time    `json:"paid_at,omitempty"`
	// Платежные реквизиты, зависящие от способа оплаты
	PixQrCode    string    `json:"pix_qr_code,omitempty"`
	PixCopyPaste string    `json:"pix_copy_paste,omitempty"`
	BankSlipURL  string    `json:"bank_slip_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TransferStatus статус перевода доли тренеру
type TransferStatus string

const (
	// TransferStatusNone перевод не требуется (подписка без тренера)
	TransferStatusNone TransferStatus = "none"
	// TransferStatusDeferred перевод отложен до активации субаккаунта и подтверждения платежа
	TransferStatusDeferred TransferStatus = "deferred"
	// TransferStatusSettling перевод захвачен одним из конкурентных проходов
	// сверки; второй проход его не повторит
	TransferStatusSettling TransferStatus = "settling"
	// TransferStatusSettled перевод выполнен в платежной системе
	TransferStatusSettled TransferStatus = "settled"
)

// SplitRecord представляет разделение платежа между платформой и тренером.
// Инвариант: CoachAmount + PlatformAmount == Payment.Amount, остаток округления
// всегда достается платформе.
type SplitRecord struct {
	ID                 uuid.UUID      `json:"id"`
	PaymentID          uuid.UUID      `json:"payment_id"`
	CoachID            *uuid.UUID     `json:"coach_id,omitempty"`
	CoachAmount        int64          `json:"coach_amount"`
	PlatformAmount     int64          `json:"platform_amount"`
	PercentageApplied  int64          `json:"percentage_applied"`
	TransferStatus     TransferStatus `json:"transfer_status"`
	ExternalTransferID string         `json:"external_transfer_id,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}
