package service

import (
	"errors"
	"io"
	"testing"

	"github.com/nexfit/billing-service/internal/domain"
	"github.com/nexfit/billing-service/pkg/logger"
)

func newPricingService(defaultFee int64) *PricingService {
	log := logger.NewWithOutput(logger.ERROR, io.Discard)
	return NewPricingService(PricingConfig{DefaultEnrollmentFee: defaultFee}, log)
}

func TestPricingService_Resolve(t *testing.T) {
	svc := newPricingService(5000)
	planFee := int64(3000)

	plan := domain.Plan{
		Prices: map[domain.BillingPeriod]int64{
			domain.BillingPeriodMonthly:   39000,
			domain.BillingPeriodQuarterly: 105000,
		},
	}
	planWithFee := plan
	planWithFee.EnrollmentFee = &planFee

	tests := []struct {
		name          string
		plan          domain.Plan
		period        domain.BillingPeriod
		isFirstCycle  bool
		wantTotal     int64
		wantBase      int64
		wantEnrollFee int64
	}{
		{"recurring cycle has no enrollment fee", plan, domain.BillingPeriodMonthly, false, 39000, 39000, 0},
		{"first cycle adds default enrollment fee", plan, domain.BillingPeriodMonthly, true, 44000, 39000, 5000},
		{"plan enrollment fee overrides default", planWithFee, domain.BillingPeriodMonthly, true, 42000, 39000, 3000},
		{"quarterly price", plan, domain.BillingPeriodQuarterly, false, 105000, 105000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Resolve(tt.plan, tt.period, tt.isFirstCycle)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got.Total != tt.wantTotal {
				t.Errorf("Total = %d, want %d", got.Total, tt.wantTotal)
			}
			if got.Breakdown.BasePrice != tt.wantBase {
				t.Errorf("BasePrice = %d, want %d", got.Breakdown.BasePrice, tt.wantBase)
			}
			if got.Breakdown.EnrollmentFee != tt.wantEnrollFee {
				t.Errorf("EnrollmentFee = %d, want %d", got.Breakdown.EnrollmentFee, tt.wantEnrollFee)
			}
		})
	}
}

func TestPricingService_PriceNotConfigured(t *testing.T) {
	svc := newPricingService(5000)

	plan := domain.Plan{
		Prices: map[domain.BillingPeriod]int64{
			domain.BillingPeriodMonthly: 39000,
		},
	}

	_, err := svc.Resolve(plan, domain.BillingPeriodYearly, false)
	if !errors.Is(err, domain.ErrPriceNotConfigured) {
		t.Errorf("Resolve() error = %v, want ErrPriceNotConfigured", err)
	}
}

func TestPricingService_ZeroEnrollmentFeeOnPlan(t *testing.T) {
	svc := newPricingService(5000)
	zero := int64(0)

	plan := domain.Plan{
		Prices: map[domain.BillingPeriod]int64{
			domain.BillingPeriodMonthly: 39000,
		},
		EnrollmentFee: &zero,
	}

	// Явный ноль у плана отключает платформенную плату по умолчанию
	got, err := svc.Resolve(plan, domain.BillingPeriodMonthly, true)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Total != 39000 {
		t.Errorf("Total = %d, want 39000", got.Total)
	}
	if got.Breakdown.EnrollmentFee != 0 {
		t.Errorf("EnrollmentFee = %d, want 0", got.Breakdown.EnrollmentFee)
	}
}
