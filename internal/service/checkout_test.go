package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/nexfit/billing-service/internal/domain"
)

func TestCheckout_PixHappyPath(t *testing.T) {
	h := newBillingHarness(t)
	ctx := context.Background()
	modalidadeID := uuid.New()
	plan := h.seedPlan(t, 25000, modalidadeID)

	result, err := h.checkout.Checkout(ctx, checkoutRequest(plan, modalidadeID, domain.PaymentMethodPix))
	if err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}

	if !result.Success {
		t.Error("Success = false, want true")
	}
	if result.Status != domain.PaymentStatusPending {
		t.Errorf("Status = %s, want pending", result.Status)
	}
	if result.Amount != 25000 {
		t.Errorf("Amount = %d, want 25000", result.Amount)
	}
	if result.PixQrCode == "" || result.PixCopyPaste == "" {
		t.Error("PIX artifacts missing from result")
	}

	// Без тренера вся сумма достается платформе
	split, err := h.splits.GetByPaymentID(ctx, result.PaymentID)
	if err != nil {
		t.Fatalf("GetByPaymentID() error = %v", err)
	}
	if split.CoachAmount != 0 || split.PlatformAmount != 25000 {
		t.Errorf("split = %d/%d, want 0/25000", split.CoachAmount, split.PlatformAmount)
	}
	if split.TransferStatus != domain.TransferStatusNone {
		t.Errorf("TransferStatus = %s, want none", split.TransferStatus)
	}

	// Подписка остается pending до подтверждения платежа
	payment, err := h.payments.GetByID(ctx, result.PaymentID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	sub, err := h.subscriptions.GetByID(ctx, *payment.SubscriptionID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if sub.Status != domain.SubscriptionStatusPending {
		t.Errorf("subscription status = %s, want pending", sub.Status)
	}

	// Платежная система подтверждает PIX, поллер применяет статус
	h.gateway.SettleNow(payment.ExternalPaymentID)
	h.reconciler.ReconcilePending(ctx, 0)

	payment, _ = h.payments.GetByID(ctx, result.PaymentID)
	if payment.Status != domain.PaymentStatusConfirmed {
		t.Errorf("payment status = %s, want confirmed", payment.Status)
	}
	if payment.PaidAt == nil {
		t.Error("PaidAt is nil after confirmation")
	}

	sub, _ = h.subscriptions.GetByID(ctx, sub.ID)
	if sub.Status != domain.SubscriptionStatusActive {
		t.Errorf("subscription status = %s, want active", sub.Status)
	}

	if len(h.producer.paymentsConfirmed) != 1 {
		t.Errorf("payment confirmed events = %d, want 1", len(h.producer.paymentsConfirmed))
	}
	if len(h.producer.subscriptionsActivated) != 1 {
		t.Errorf("subscription activated events = %d, want 1", len(h.producer.subscriptionsActivated))
	}
}

func TestCheckout_IdempotentReplay(t *testing.T) {
	h := newBillingHarness(t)
	ctx := context.Background()
	modalidadeID := uuid.New()
	plan := h.seedPlan(t, 25000, modalidadeID)

	req := checkoutRequest(plan, modalidadeID, domain.PaymentMethodPix)
	req.IdempotencyKey = "replay-key-1"

	first, err := h.checkout.Checkout(ctx, req)
	if err != nil {
		t.Fatalf("first Checkout() error = %v", err)
	}

	second, err := h.checkout.Checkout(ctx, req)
	if err != nil {
		t.Fatalf("second Checkout() error = %v", err)
	}

	if second.PaymentID != first.PaymentID {
		t.Errorf("replay returned payment %s, want %s", second.PaymentID, first.PaymentID)
	}
	if second.Status != first.Status || second.Amount != first.Amount ||
		second.PixCopyPaste != first.PixCopyPaste || !second.DueDate.Equal(first.DueDate) {
		t.Errorf("replay result differs: %+v != %+v", second, first)
	}
	if h.gateway.ChargeCalls != 1 {
		t.Errorf("ChargeCalls = %d, want 1", h.gateway.ChargeCalls)
	}

	payments, _ := h.payments.GetByUserID(ctx, uuid.MustParse(req.UserID))
	if len(payments) != 1 {
		t.Errorf("payments created = %d, want 1", len(payments))
	}
}

func TestCheckout_CardConfirmedSynchronously(t *testing.T) {
	h := newBillingHarness(t)
	ctx := context.Background()
	modalidadeID := uuid.New()
	plan := h.seedPlan(t, 40000, modalidadeID)
	coach := h.seedCoach(t, domain.CommissionTierSenior)

	req := checkoutRequest(plan, modalidadeID, domain.PaymentMethodCreditCard)
	req.CoachID = coach.ID.String()
	req.CreditCard = validCard()

	result, err := h.checkout.Checkout(ctx, req)
	if err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}

	if result.Status != domain.PaymentStatusConfirmed {
		t.Errorf("Status = %s, want confirmed", result.Status)
	}

	// Субаккаунт активен сразу, перевод выполняется в этом же запросе
	split, err := h.splits.GetByPaymentID(ctx, result.PaymentID)
	if err != nil {
		t.Fatalf("GetByPaymentID() error = %v", err)
	}
	if split.CoachAmount != 28000 || split.PlatformAmount != 12000 {
		t.Errorf("split = %d/%d, want 28000/12000", split.CoachAmount, split.PlatformAmount)
	}
	if split.TransferStatus != domain.TransferStatusSettled {
		t.Errorf("TransferStatus = %s, want settled", split.TransferStatus)
	}
	if split.ExternalTransferID == "" {
		t.Error("ExternalTransferID is empty after settlement")
	}
	if h.gateway.TransferCalls != 1 {
		t.Errorf("TransferCalls = %d, want 1", h.gateway.TransferCalls)
	}

	// Подтвержденная карта активирует подписку синхронно
	payment, _ := h.payments.GetByID(ctx, result.PaymentID)
	sub, _ := h.subscriptions.GetByID(ctx, *payment.SubscriptionID)
	if sub.Status != domain.SubscriptionStatusActive {
		t.Errorf("subscription status = %s, want active", sub.Status)
	}
}

func TestCheckout_CardDeclined(t *testing.T) {
	h := newBillingHarness(t)
	h.gateway.FailCardSuffixes = []string{"0002"}
	ctx := context.Background()
	modalidadeID := uuid.New()
	plan := h.seedPlan(t, 25000, modalidadeID)

	req := checkoutRequest(plan, modalidadeID, domain.PaymentMethodCreditCard)
	req.IdempotencyKey = "declined-key-1"
	card := validCard()
	card.Number = "4000000000000002"
	req.CreditCard = card

	result, err := h.checkout.Checkout(ctx, req)
	if err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}

	if result.Success {
		t.Error("Success = true, want false")
	}
	if result.Status != domain.PaymentStatusFailed {
		t.Errorf("Status = %s, want failed", result.Status)
	}

	payment, _ := h.payments.GetByID(ctx, result.PaymentID)
	if payment.Status != domain.PaymentStatusFailed {
		t.Errorf("payment status = %s, want failed", payment.Status)
	}
	if len(h.producer.paymentsFailed) != 1 {
		t.Errorf("payment failed events = %d, want 1", len(h.producer.paymentsFailed))
	}

	// Повтор с тем же ключом возвращает сохраненный отказ без нового списания
	replay, err := h.checkout.Checkout(ctx, req)
	if err != nil {
		t.Fatalf("replay Checkout() error = %v", err)
	}
	if replay.PaymentID != result.PaymentID || replay.Status != result.Status || replay.Success {
		t.Errorf("replay result differs: %+v != %+v", replay, result)
	}
	if h.gateway.ChargeCalls != 1 {
		t.Errorf("ChargeCalls = %d, want 1", h.gateway.ChargeCalls)
	}
}

func TestCheckout_InvalidCardRejectedBeforeCharge(t *testing.T) {
	h := newBillingHarness(t)
	ctx := context.Background()
	modalidadeID := uuid.New()
	plan := h.seedPlan(t, 25000, modalidadeID)

	req := checkoutRequest(plan, modalidadeID, domain.PaymentMethodCreditCard)
	card := validCard()
	card.Number = "4539148803436468" // не проходит проверку Луна
	req.CreditCard = card

	_, err := h.checkout.Checkout(ctx, req)
	var violations domain.ValidationErrors
	if !errors.As(err, &violations) {
		t.Fatalf("Checkout() error = %v, want ValidationErrors", err)
	}
	if h.gateway.ChargeCalls != 0 {
		t.Errorf("ChargeCalls = %d, want 0", h.gateway.ChargeCalls)
	}
}

func TestCheckout_ModalidadeNotCovered(t *testing.T) {
	h := newBillingHarness(t)
	ctx := context.Background()
	plan := h.seedPlan(t, 25000, uuid.New())

	req := checkoutRequest(plan, uuid.New(), domain.PaymentMethodPix)

	_, err := h.checkout.Checkout(ctx, req)
	if !errors.Is(err, domain.ErrModalidadeNotCovered) {
		t.Errorf("Checkout() error = %v, want ErrModalidadeNotCovered", err)
	}
	if h.gateway.ChargeCalls != 0 {
		t.Errorf("ChargeCalls = %d, want 0", h.gateway.ChargeCalls)
	}
}

func TestCheckout_UnknownTierRejectedBeforeCharge(t *testing.T) {
	h := newBillingHarness(t)
	ctx := context.Background()
	modalidadeID := uuid.New()
	plan := h.seedPlan(t, 25000, modalidadeID)
	coach := h.seedCoach(t, domain.CommissionTier("master"))

	req := checkoutRequest(plan, modalidadeID, domain.PaymentMethodPix)
	req.CoachID = coach.ID.String()

	_, err := h.checkout.Checkout(ctx, req)
	if !errors.Is(err, domain.ErrUnknownTier) {
		t.Errorf("Checkout() error = %v, want ErrUnknownTier", err)
	}
	if h.gateway.ChargeCalls != 0 {
		t.Errorf("ChargeCalls = %d, want 0", h.gateway.ChargeCalls)
	}
}

func TestCheckout_FirstCycleEnrollmentFee(t *testing.T) {
	h := newBillingHarness(t)
	ctx := context.Background()
	modalidadeID := uuid.New()
	plan := h.seedPlan(t, 39000, modalidadeID)
	coach := h.seedCoach(t, domain.CommissionTierSenior)

	req := checkoutRequest(plan, modalidadeID, domain.PaymentMethodPix)
	req.CoachID = coach.ID.String()
	req.IsFirstCycle = true

	result, err := h.checkout.Checkout(ctx, req)
	if err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}

	if result.Amount != 44000 {
		t.Errorf("Amount = %d, want 44000", result.Amount)
	}
	if result.Breakdown.BasePrice != 39000 || result.Breakdown.EnrollmentFee != 5000 {
		t.Errorf("Breakdown = %+v, want 39000 + 5000", result.Breakdown)
	}

	// Разделение применяется ко всей списанной сумме, включая плату за зачисление
	split, _ := h.splits.GetByPaymentID(ctx, result.PaymentID)
	if split.CoachAmount != 30800 || split.PlatformAmount != 13200 {
		t.Errorf("split = %d/%d, want 30800/13200", split.CoachAmount, split.PlatformAmount)
	}

	// Подписка фиксирует регулярную цену без платы за зачисление
	payment, _ := h.payments.GetByID(ctx, result.PaymentID)
	sub, _ := h.subscriptions.GetByID(ctx, *payment.SubscriptionID)
	if sub.Amount != 39000 {
		t.Errorf("subscription amount = %d, want 39000", sub.Amount)
	}
}

func TestCheckout_ProvisioningFailureAbortsBeforeCharge(t *testing.T) {
	h := newBillingHarness(t)
	h.gateway.FailSubaccounts = true
	ctx := context.Background()
	modalidadeID := uuid.New()
	plan := h.seedPlan(t, 40000, modalidadeID)
	coach := h.seedCoach(t, domain.CommissionTierPleno)

	req := checkoutRequest(plan, modalidadeID, domain.PaymentMethodPix)
	req.CoachID = coach.ID.String()
	req.IdempotencyKey = "prov-fail-key-1"

	_, err := h.checkout.Checkout(ctx, req)
	var provErr *domain.ProvisioningError
	if !errors.As(err, &provErr) {
		t.Fatalf("Checkout() error = %v, want ProvisioningError", err)
	}

	// Без субаккаунта оформление не доходит до списания: ни платежа,
	// ни подписки не создается
	if h.gateway.ChargeCalls != 0 {
		t.Errorf("ChargeCalls = %d, want 0", h.gateway.ChargeCalls)
	}
	payments, _ := h.payments.GetByUserID(ctx, uuid.MustParse(req.UserID))
	if len(payments) != 0 {
		t.Errorf("payments created = %d, want 0", len(payments))
	}
	subs, _ := h.subscriptions.GetByUserID(ctx, uuid.MustParse(req.UserID))
	if len(subs) != 0 {
		t.Errorf("subscriptions created = %d, want 0", len(subs))
	}

	// Ключ освобожден: повтор после восстановления шлюза проходит целиком
	h.gateway.FailSubaccounts = false
	result, err := h.checkout.Checkout(ctx, req)
	if err != nil {
		t.Fatalf("retry Checkout() error = %v", err)
	}
	if result.Status != domain.PaymentStatusPending {
		t.Errorf("retry Status = %s, want pending", result.Status)
	}
	if h.gateway.ChargeCalls != 1 {
		t.Errorf("ChargeCalls after retry = %d, want 1", h.gateway.ChargeCalls)
	}
}

func TestCheckout_GatewayTimeoutLeavesPaymentPending(t *testing.T) {
	h := newBillingHarness(t)
	h.gateway.TimeoutCharges = true
	ctx := context.Background()
	modalidadeID := uuid.New()
	plan := h.seedPlan(t, 25000, modalidadeID)

	req := checkoutRequest(plan, modalidadeID, domain.PaymentMethodPix)
	req.IdempotencyKey = "timeout-key-1"

	result, err := h.checkout.Checkout(ctx, req)
	if err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}

	// Таймаут не трактуется как отказ: платеж остается pending
	if !result.Success {
		t.Error("Success = false, want true")
	}
	if result.Status != domain.PaymentStatusPending {
		t.Errorf("Status = %s, want pending", result.Status)
	}

	payment, err := h.payments.GetByID(ctx, result.PaymentID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if payment.Status != domain.PaymentStatusPending {
		t.Errorf("payment status = %s, want pending", payment.Status)
	}
	if len(h.producer.paymentsFailed) != 0 {
		t.Errorf("payment failed events = %d, want 0", len(h.producer.paymentsFailed))
	}

	// Повтор с тем же ключом возвращает тот же pending-результат и не
	// создает второго списания
	h.gateway.TimeoutCharges = false
	replay, err := h.checkout.Checkout(ctx, req)
	if err != nil {
		t.Fatalf("replay Checkout() error = %v", err)
	}
	if replay.PaymentID != result.PaymentID || replay.Status != domain.PaymentStatusPending {
		t.Errorf("replay result differs: %+v != %+v", replay, result)
	}
	if h.gateway.ChargeCalls != 1 {
		t.Errorf("ChargeCalls = %d, want 1", h.gateway.ChargeCalls)
	}
}

func TestCheckout_DeferredTransferSettledAfterKYC(t *testing.T) {
	h := newBillingHarness(t)
	h.gateway.SubaccountsPendingKYC = true
	ctx := context.Background()
	modalidadeID := uuid.New()
	plan := h.seedPlan(t, 40000, modalidadeID)
	coach := h.seedCoach(t, domain.CommissionTierSenior)

	req := checkoutRequest(plan, modalidadeID, domain.PaymentMethodCreditCard)
	req.CoachID = coach.ID.String()
	req.CreditCard = validCard()

	result, err := h.checkout.Checkout(ctx, req)
	if err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}
	if result.Status != domain.PaymentStatusConfirmed {
		t.Fatalf("Status = %s, want confirmed", result.Status)
	}

	// Субаккаунт еще не прошел KYC: платеж подтвержден, перевод отложен
	split, _ := h.splits.GetByPaymentID(ctx, result.PaymentID)
	if split.TransferStatus != domain.TransferStatusDeferred {
		t.Fatalf("TransferStatus = %s, want deferred", split.TransferStatus)
	}
	if h.gateway.TransferCalls != 0 {
		t.Errorf("TransferCalls = %d, want 0", h.gateway.TransferCalls)
	}

	// Повторный проход без активации ничего не меняет
	h.reconciler.SweepDeferredTransfers(ctx)
	if h.gateway.TransferCalls != 0 {
		t.Errorf("TransferCalls after sweep = %d, want 0", h.gateway.TransferCalls)
	}

	// KYC пройден, следующий проход выполняет перевод ровно один раз
	if err := h.provisioner.Activate(ctx, coach.ID); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	h.reconciler.SweepDeferredTransfers(ctx)
	h.reconciler.SweepDeferredTransfers(ctx)

	split, _ = h.splits.GetByPaymentID(ctx, result.PaymentID)
	if split.TransferStatus != domain.TransferStatusSettled {
		t.Errorf("TransferStatus = %s, want settled", split.TransferStatus)
	}
	if h.gateway.TransferCalls != 1 {
		t.Errorf("TransferCalls = %d, want 1", h.gateway.TransferCalls)
	}
	if len(h.producer.splitsSettled) != 1 {
		t.Errorf("split settled events = %d, want 1", len(h.producer.splitsSettled))
	}
}
