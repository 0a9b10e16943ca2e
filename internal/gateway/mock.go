package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nexfit/billing-service/internal/domain"
	"github.com/nexfit/billing-service/pkg/logger"
)

// MockGateway детерминированная реализация PaymentGateway для тестов и
// окружений без учетных данных платежной системы.
//
// Поведение: PIX и boleto создаются в статусе pending и переходят в
// confirmed, когда с момента создания прошло SettleAfter (проверяется в
// QueryStatus). Карта разрешается синхронно: номера с суффиксом из
// FailCardSuffixes отклоняются, остальные подтверждаются.
type MockGateway struct {
	// SettleAfter симулируемая задержка подтверждения PIX/boleto
	SettleAfter time.Duration
	// FailCardSuffixes суффиксы номеров карт, которые всегда отклоняются
	FailCardSuffixes []string
	// SubaccountsPendingKYC если true, новые субаккаунты требуют ручного KYC
	SubaccountsPendingKYC bool
	// FailSubaccounts если true, создание субаккаунтов отвечает ошибкой 500
	FailSubaccounts bool
	// TimeoutCharges если true, создание списаний завершается таймаутом,
	// списание в моке не создается
	TimeoutCharges bool

	log *logger.Logger

	mu        sync.Mutex
	charges   map[string]*mockCharge
	transfers map[string]TransferResponse

	// счетчики вызовов для проверки идемпотентности в тестах
	ChargeCalls   int
	TransferCalls int
}

type mockCharge struct {
	status    domain.PaymentStatus
	createdAt time.Time
	method    domain.PaymentMethod
}

// NewMockGateway создает новый мок платежной системы
func NewMockGateway(settleAfter time.Duration, log *logger.Logger) *MockGateway {
	return &MockGateway{
		SettleAfter: settleAfter,
		log:         log,
		charges:     make(map[string]*mockCharge),
		transfers:   make(map[string]TransferResponse),
	}
}

// CreateCharge создает списание в моке
func (g *MockGateway) CreateCharge(ctx context.Context, req ChargeRequest) (ChargeResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.ChargeCalls++

	if g.TimeoutCharges {
		return ChargeResponse{}, domain.NewGatewayTimeout("createCharge", context.DeadlineExceeded)
	}

	externalID := "mock_pay_" + uuid.NewString()
	resp := ChargeResponse{ExternalPaymentID: externalID}

	switch req.Method {
	case domain.PaymentMethodCreditCard:
		if req.Card == nil {
			return ChargeResponse{}, domain.NewGatewayError("createCharge", "invalid_card", "card data missing", 400, nil)
		}
		if g.cardFails(req.Card.Number) {
			resp.Status = domain.PaymentStatusFailed
		} else {
			resp.Status = domain.PaymentStatusConfirmed
		}
	case domain.PaymentMethodPix:
		resp.Status = domain.PaymentStatusPending
		resp.PixQrCode = "data:image/png;base64,mockqr-" + externalID
		resp.PixCopyPaste = fmt.Sprintf("00020126mock%s5204000053039865802BR", externalID)
	case domain.PaymentMethodBoleto:
		resp.Status = domain.PaymentStatusPending
		resp.BankSlipURL = "https://mock.gateway/boleto/" + externalID
	default:
		return ChargeResponse{}, domain.NewGatewayError("createCharge", "unsupported_method", string(req.Method), 400, nil)
	}

	g.charges[externalID] = &mockCharge{
		status:    resp.Status,
		createdAt: time.Now(),
		method:    req.Method,
	}

	g.log.Debug("Mock gateway created charge %s with status %s", externalID, resp.Status)
	return resp, nil
}

// CreateSubaccount создает субаккаунт в моке
func (g *MockGateway) CreateSubaccount(ctx context.Context, req SubaccountRequest) (SubaccountResponse, error) {
	if g.FailSubaccounts {
		return SubaccountResponse{}, domain.NewGatewayError("createSubaccount", "internal", "subaccount creation unavailable", 500, nil)
	}

	status := domain.SubaccountStatusActive
	if g.SubaccountsPendingKYC {
		status = domain.SubaccountStatusPending
	}

	return SubaccountResponse{
		ExternalSubaccountID: "mock_acc_" + uuid.NewString(),
		ExternalWalletID:     "mock_wallet_" + uuid.NewString(),
		Status:               status,
	}, nil
}

// CreateSplitTransfer переводит долю тренеру в моке
func (g *MockGateway) CreateSplitTransfer(ctx context.Context, req TransferRequest) (TransferResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.TransferCalls++

	charge, exists := g.charges[req.ExternalPaymentID]
	if !exists {
		return TransferResponse{}, domain.NewGatewayError("createSplitTransfer", "not_found", "unknown payment", 404, nil)
	}
	if charge.status != domain.PaymentStatusConfirmed {
		return TransferResponse{}, domain.NewGatewayError("createSplitTransfer", "not_confirmed", "payment is not confirmed yet", 409, nil)
	}

	resp := TransferResponse{
		ExternalTransferID: "mock_tr_" + uuid.NewString(),
		Status:             "done",
	}
	g.transfers[req.ExternalPaymentID] = resp

	return resp, nil
}

// QueryStatus возвращает статус платежа в моке.
// Pending PIX/boleto подтверждается, когда прошло SettleAfter.
func (g *MockGateway) QueryStatus(ctx context.Context, externalPaymentID string) (domain.PaymentStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	charge, exists := g.charges[externalPaymentID]
	if !exists {
		return "", domain.NewGatewayError("queryStatus", "not_found", "unknown payment", 404, nil)
	}

	if charge.status == domain.PaymentStatusPending && time.Since(charge.createdAt) >= g.SettleAfter {
		charge.status = domain.PaymentStatusConfirmed
	}

	return charge.status, nil
}

// CancelCharge отменяет еще не оплаченное списание в моке
func (g *MockGateway) CancelCharge(ctx context.Context, externalPaymentID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	charge, exists := g.charges[externalPaymentID]
	if !exists {
		return domain.NewGatewayError("cancelCharge", "not_found", "unknown payment", 404, nil)
	}
	if charge.status != domain.PaymentStatusPending {
		return domain.NewGatewayError("cancelCharge", "not_pending", "only pending charges can be cancelled", 409, nil)
	}

	charge.status = domain.PaymentStatusCancelled
	return nil
}

// SettleNow принудительно подтверждает pending-платеж в моке (для тестов)
func (g *MockGateway) SettleNow(externalPaymentID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if charge, exists := g.charges[externalPaymentID]; exists && charge.status == domain.PaymentStatusPending {
		charge.status = domain.PaymentStatusConfirmed
	}
}

func (g *MockGateway) cardFails(number string) bool {
	for _, suffix := range g.FailCardSuffixes {
		if strings.HasSuffix(number, suffix) {
			return true
		}
	}
	return false
}
