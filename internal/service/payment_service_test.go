package service

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/nexfit/billing-service/internal/domain"
	"github.com/nexfit/billing-service/internal/repository"
	"github.com/nexfit/billing-service/pkg/logger"
)

func TestPaymentService_CancelPendingPix(t *testing.T) {
	h := newBillingHarness(t)
	ctx := context.Background()
	log := logger.NewWithOutput(logger.ERROR, io.Discard)
	svc := NewPaymentService(h.payments, h.gateway, log)

	modalidadeID := uuid.New()
	plan := h.seedPlan(t, 25000, modalidadeID)
	result, err := h.checkout.Checkout(ctx, checkoutRequest(plan, modalidadeID, domain.PaymentMethodPix))
	if err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}

	cancelled, err := svc.Cancel(ctx, result.PaymentID.String())
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if cancelled.Status != domain.PaymentStatusCancelled {
		t.Errorf("Status = %s, want cancelled", cancelled.Status)
	}

	// Отмененное списание больше не подтверждается платежной системой
	payment, _ := h.payments.GetByID(ctx, result.PaymentID)
	status, err := h.gateway.QueryStatus(ctx, payment.ExternalPaymentID)
	if err != nil {
		t.Fatalf("QueryStatus() error = %v", err)
	}
	if status != domain.PaymentStatusCancelled {
		t.Errorf("gateway status = %s, want cancelled", status)
	}

	// Повторная отмена отклоняется
	if _, err := svc.Cancel(ctx, result.PaymentID.String()); !errors.Is(err, domain.ErrPaymentNotPending) {
		t.Errorf("repeated Cancel() error = %v, want ErrPaymentNotPending", err)
	}
}

func TestPaymentService_CancelConfirmedRejected(t *testing.T) {
	h := newBillingHarness(t)
	ctx := context.Background()
	log := logger.NewWithOutput(logger.ERROR, io.Discard)
	svc := NewPaymentService(h.payments, h.gateway, log)

	payment := confirmPixCheckout(t, h)

	if _, err := svc.Cancel(ctx, payment.ID.String()); !errors.Is(err, domain.ErrPaymentNotPending) {
		t.Errorf("Cancel() error = %v, want ErrPaymentNotPending", err)
	}
}

func TestPaymentService_GetByID(t *testing.T) {
	h := newBillingHarness(t)
	ctx := context.Background()
	log := logger.NewWithOutput(logger.ERROR, io.Discard)
	svc := NewPaymentService(h.payments, h.gateway, log)

	if _, err := svc.GetByID(ctx, "not-a-uuid"); !errors.Is(err, repository.ErrInvalidData) {
		t.Errorf("GetByID() error = %v, want ErrInvalidData", err)
	}
	if _, err := svc.GetByID(ctx, uuid.NewString()); !errors.Is(err, domain.ErrPaymentNotFound) {
		t.Errorf("GetByID() error = %v, want ErrPaymentNotFound", err)
	}
}
