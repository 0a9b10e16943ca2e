package gateway

import (
	"context"
	"time"

	"github.com/nexfit/billing-service/internal/domain"
)

// ChargeRequest представляет запрос на создание списания.
// Amount в центавах.
type ChargeRequest struct {
	Amount         int64
	Method         domain.PaymentMethod
	DueDate        time.Time
	Description    string
	IdempotencyKey string

	// Данные плательщика
	PayerID    string
	PayerName  string
	PayerEmail string

	// Данные карты, только для credit_card
	Card *domain.CreditCardData
}

// ChargeResponse представляет ответ на создание списания.
// Для карты статус терминальный сразу (confirmed или failed), для PIX и
// boleto это pending плюс платежные реквизиты.
type ChargeResponse struct {
	ExternalPaymentID string
	Status            domain.PaymentStatus
	PixQrCode         string
	PixCopyPaste      string
	BankSlipURL       string
}

// SubaccountRequest представляет запрос на создание субаккаунта тренера
type SubaccountRequest struct {
	CoachID string
	Name    string
	Email   string
}

// SubaccountResponse представляет созданный субаккаунт
type SubaccountResponse struct {
	ExternalSubaccountID string
	ExternalWalletID     string
	Status               domain.SubaccountStatus
}

// TransferRequest представляет запрос на перевод доли тренеру
type TransferRequest struct {
	ExternalPaymentID string
	WalletID          string
	Amount            int64
}

// TransferResponse представляет результат перевода
type TransferResponse struct {
	ExternalTransferID string
	Status             string
}

// PaymentGateway абстрагирует внешнюю платежную систему.
// Все вызовы — сетевые, медленные и могут завершаться ошибкой; каждый
// принимает context с ограниченным таймаутом.
type PaymentGateway interface {
	// CreateCharge создает списание в платежной системе
	CreateCharge(ctx context.Context, req ChargeRequest) (ChargeResponse, error)

	// CreateSubaccount создает субаккаунт тренера
	CreateSubaccount(ctx context.Context, req SubaccountRequest) (SubaccountResponse, error)

	// CreateSplitTransfer переводит долю тренеру. Вызывается только после
	// подтверждения платежа и активации субаккаунта.
	CreateSplitTransfer(ctx context.Context, req TransferRequest) (TransferResponse, error)

	// QueryStatus возвращает актуальный статус платежа в платежной системе
	QueryStatus(ctx context.Context, externalPaymentID string) (domain.PaymentStatus, error)

	// CancelCharge отменяет еще не оплаченное списание (PIX/boleto)
	CancelCharge(ctx context.Context, externalPaymentID string) error
}
