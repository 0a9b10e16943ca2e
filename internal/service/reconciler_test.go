package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nexfit/billing-service/internal/domain"
)

// confirmPixCheckout оформляет PIX-подписку и доводит платеж до confirmed
func confirmPixCheckout(t *testing.T, h *billingHarness) domain.Payment {
	t.Helper()
	ctx := context.Background()

	modalidadeID := uuid.New()
	plan := h.seedPlan(t, 25000, modalidadeID)

	result, err := h.checkout.Checkout(ctx, checkoutRequest(plan, modalidadeID, domain.PaymentMethodPix))
	if err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}

	payment, err := h.payments.GetByID(ctx, result.PaymentID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	now := time.Now()
	if err := h.reconciler.Reconcile(ctx, payment.ExternalPaymentID, domain.PaymentStatusConfirmed, &now); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	payment, _ = h.payments.GetByID(ctx, result.PaymentID)
	return payment
}

func TestReconciler_SameTerminalStatusIsNoOp(t *testing.T) {
	h := newBillingHarness(t)
	ctx := context.Background()
	payment := confirmPixCheckout(t, h)

	now := time.Now()
	if err := h.reconciler.Reconcile(ctx, payment.ExternalPaymentID, domain.PaymentStatusConfirmed, &now); err != nil {
		t.Fatalf("repeated Reconcile() error = %v", err)
	}

	// Повтор не публикует второе событие
	if len(h.producer.paymentsConfirmed) != 1 {
		t.Errorf("payment confirmed events = %d, want 1", len(h.producer.paymentsConfirmed))
	}
}

func TestReconciler_ConflictingTerminalStatus(t *testing.T) {
	h := newBillingHarness(t)
	ctx := context.Background()
	payment := confirmPixCheckout(t, h)

	err := h.reconciler.Reconcile(ctx, payment.ExternalPaymentID, domain.PaymentStatusFailed, nil)

	var conflict *domain.ReconciliationConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("Reconcile() error = %v, want ReconciliationConflict", err)
	}
	if conflict.StoredStatus != domain.PaymentStatusConfirmed {
		t.Errorf("StoredStatus = %s, want confirmed", conflict.StoredStatus)
	}
	if conflict.ReportedStatus != domain.PaymentStatusFailed {
		t.Errorf("ReportedStatus = %s, want failed", conflict.ReportedStatus)
	}

	// Сохраненный статус не изменился
	current, _ := h.payments.GetByID(context.Background(), payment.ID)
	if current.Status != domain.PaymentStatusConfirmed {
		t.Errorf("payment status = %s, want confirmed", current.Status)
	}
}

func TestReconciler_PendingReportIsIgnored(t *testing.T) {
	h := newBillingHarness(t)
	ctx := context.Background()

	modalidadeID := uuid.New()
	plan := h.seedPlan(t, 25000, modalidadeID)
	result, err := h.checkout.Checkout(ctx, checkoutRequest(plan, modalidadeID, domain.PaymentMethodPix))
	if err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}

	payment, _ := h.payments.GetByID(ctx, result.PaymentID)
	if err := h.reconciler.Reconcile(ctx, payment.ExternalPaymentID, domain.PaymentStatusPending, nil); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	current, _ := h.payments.GetByID(ctx, result.PaymentID)
	if current.Status != domain.PaymentStatusPending {
		t.Errorf("payment status = %s, want pending", current.Status)
	}
}

func TestReconciler_UnknownExternalPayment(t *testing.T) {
	h := newBillingHarness(t)

	err := h.reconciler.Reconcile(context.Background(), "pay_ghost", domain.PaymentStatusConfirmed, nil)
	if !errors.Is(err, domain.ErrPaymentNotFound) {
		t.Errorf("Reconcile() error = %v, want ErrPaymentNotFound", err)
	}
}

func TestReconciler_CancelledIsTerminal(t *testing.T) {
	h := newBillingHarness(t)
	ctx := context.Background()

	modalidadeID := uuid.New()
	plan := h.seedPlan(t, 25000, modalidadeID)
	result, err := h.checkout.Checkout(ctx, checkoutRequest(plan, modalidadeID, domain.PaymentMethodPix))
	if err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}

	payment, _ := h.payments.GetByID(ctx, result.PaymentID)
	if err := h.reconciler.Reconcile(ctx, payment.ExternalPaymentID, domain.PaymentStatusCancelled, nil); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	// Запоздавшее подтверждение после отмены — конфликт, статус не меняется
	now := time.Now()
	err = h.reconciler.Reconcile(ctx, payment.ExternalPaymentID, domain.PaymentStatusConfirmed, &now)
	var conflict *domain.ReconciliationConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("Reconcile() error = %v, want ReconciliationConflict", err)
	}

	current, _ := h.payments.GetByID(ctx, result.PaymentID)
	if current.Status != domain.PaymentStatusCancelled {
		t.Errorf("payment status = %s, want cancelled", current.Status)
	}
}

func TestReconciler_ConcurrentSweepsTransferOnce(t *testing.T) {
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

	if err := h.provisioner.Activate(ctx, coach.ID); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	// Вебхук и опрос могут выполнять перевод одновременно; запись
	// захватывается до вызова платежной системы, перевод уходит один раз
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.reconciler.SweepDeferredTransfers(ctx)
		}()
	}
	wg.Wait()

	if h.gateway.TransferCalls != 1 {
		t.Errorf("TransferCalls = %d, want 1", h.gateway.TransferCalls)
	}

	split, _ := h.splits.GetByPaymentID(ctx, result.PaymentID)
	if split.TransferStatus != domain.TransferStatusSettled {
		t.Errorf("TransferStatus = %s, want settled", split.TransferStatus)
	}
	if len(h.producer.splitsSettled) != 1 {
		t.Errorf("split settled events = %d, want 1", len(h.producer.splitsSettled))
	}
}
