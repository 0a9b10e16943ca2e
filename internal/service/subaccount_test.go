package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/nexfit/billing-service/internal/domain"
)

func TestSubaccountProvisioner_EnsureIsIdempotent(t *testing.T) {
	h := newBillingHarness(t)
	ctx := context.Background()
	coach := h.seedCoach(t, domain.CommissionTierPleno)

	first, err := h.provisioner.Ensure(ctx, coach)
	if err != nil {
		t.Fatalf("first Ensure() error = %v", err)
	}
	if first.ExternalSubaccountID == "" || first.ExternalWalletID == "" {
		t.Fatal("subaccount has empty external identifiers")
	}

	second, err := h.provisioner.Ensure(ctx, coach)
	if err != nil {
		t.Fatalf("second Ensure() error = %v", err)
	}
	if second.ExternalSubaccountID != first.ExternalSubaccountID {
		t.Errorf("Ensure() created second subaccount: %s != %s",
			second.ExternalSubaccountID, first.ExternalSubaccountID)
	}
}

func TestSubaccountProvisioner_ConcurrentEnsure(t *testing.T) {
	h := newBillingHarness(t)
	ctx := context.Background()
	coach := h.seedCoach(t, domain.CommissionTierSenior)

	const workers = 8
	results := make([]domain.CoachSubaccount, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = h.provisioner.Ensure(ctx, coach)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("Ensure() #%d error = %v", i, errs[i])
		}
		if results[i].ExternalSubaccountID != results[0].ExternalSubaccountID {
			t.Errorf("Ensure() #%d returned different subaccount: %s != %s",
				i, results[i].ExternalSubaccountID, results[0].ExternalSubaccountID)
		}
	}
}

func TestSubaccountProvisioner_PendingKYC(t *testing.T) {
	h := newBillingHarness(t)
	h.gateway.SubaccountsPendingKYC = true
	ctx := context.Background()
	coach := h.seedCoach(t, domain.CommissionTierJunior)

	sub, err := h.provisioner.Ensure(ctx, coach)
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if sub.Status != domain.SubaccountStatusPending {
		t.Errorf("Status = %s, want pending", sub.Status)
	}

	if err := h.provisioner.Activate(ctx, coach.ID); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	sub, err = h.subaccounts.GetByCoachID(ctx, coach.ID)
	if err != nil {
		t.Fatalf("GetByCoachID() error = %v", err)
	}
	if sub.Status != domain.SubaccountStatusActive {
		t.Errorf("Status = %s, want active", sub.Status)
	}
}

func TestCheckout_ConcurrentSameKey(t *testing.T) {
	h := newBillingHarness(t)
	ctx := context.Background()
	modalidadeID := uuid.New()
	plan := h.seedPlan(t, 25000, modalidadeID)

	req := checkoutRequest(plan, modalidadeID, domain.PaymentMethodPix)
	req.IdempotencyKey = "concurrent-key-1"

	const workers = 4
	results := make([]domain.CheckoutResult, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = h.checkout.Checkout(ctx, req)
		}(i)
	}
	wg.Wait()

	// Ровно одно списание; конкуренты получают либо сохраненный результат,
	// либо отказ "уже выполняется"
	if h.gateway.ChargeCalls != 1 {
		t.Errorf("ChargeCalls = %d, want 1", h.gateway.ChargeCalls)
	}

	payments, _ := h.payments.GetByUserID(ctx, uuid.MustParse(req.UserID))
	if len(payments) != 1 {
		t.Errorf("payments created = %d, want 1", len(payments))
	}
}
