package service

import (
	"errors"
	"testing"

	"github.com/nexfit/billing-service/internal/domain"
)

func TestSplitCalculator_TierPercentages(t *testing.T) {
	calc := NewSplitCalculator(DefaultSplitConfig())

	tests := []struct {
		name           string
		amount         int64
		tier           domain.CommissionTier
		wantCoach      int64
		wantPlatform   int64
		wantPercentage int64
	}{
		{"junior", 10000, domain.CommissionTierJunior, 6000, 4000, 60},
		{"pleno", 10000, domain.CommissionTierPleno, 6500, 3500, 65},
		{"senior", 44000, domain.CommissionTierSenior, 30800, 13200, 70},
		{"especialista", 10000, domain.CommissionTierEspecialista, 7500, 2500, 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calc.Calculate(tt.amount, tt.tier)
			if err != nil {
				t.Fatalf("Calculate() error = %v", err)
			}
			if got.CoachAmount != tt.wantCoach {
				t.Errorf("CoachAmount = %d, want %d", got.CoachAmount, tt.wantCoach)
			}
			if got.PlatformAmount != tt.wantPlatform {
				t.Errorf("PlatformAmount = %d, want %d", got.PlatformAmount, tt.wantPlatform)
			}
			if got.PercentageApplied != tt.wantPercentage {
				t.Errorf("PercentageApplied = %d, want %d", got.PercentageApplied, tt.wantPercentage)
			}
		})
	}
}

func TestSplitCalculator_RoundsCoachShareDown(t *testing.T) {
	calc := NewSplitCalculator(DefaultSplitConfig())

	// 99 * 65% = 64.35, доля тренера округляется вниз, остаток платформе
	got, err := calc.Calculate(99, domain.CommissionTierPleno)
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}
	if got.CoachAmount != 64 {
		t.Errorf("CoachAmount = %d, want 64", got.CoachAmount)
	}
	if got.PlatformAmount != 35 {
		t.Errorf("PlatformAmount = %d, want 35", got.PlatformAmount)
	}
}

func TestSplitCalculator_ConservesTotal(t *testing.T) {
	calc := NewSplitCalculator(DefaultSplitConfig())

	tiers := []domain.CommissionTier{
		domain.CommissionTierJunior,
		domain.CommissionTierPleno,
		domain.CommissionTierSenior,
		domain.CommissionTierEspecialista,
	}

	// Суммы с остатками от деления в обе стороны
	for amount := int64(0); amount < 1000; amount += 7 {
		for _, tier := range tiers {
			got, err := calc.Calculate(amount, tier)
			if err != nil {
				t.Fatalf("Calculate(%d, %s) error = %v", amount, tier, err)
			}
			if got.CoachAmount+got.PlatformAmount != amount {
				t.Fatalf("Calculate(%d, %s): %d + %d != %d",
					amount, tier, got.CoachAmount, got.PlatformAmount, amount)
			}
			if got.CoachAmount < 0 || got.PlatformAmount < 0 {
				t.Fatalf("Calculate(%d, %s): negative share", amount, tier)
			}
		}
	}
}

func TestSplitCalculator_TierMonotonicity(t *testing.T) {
	calc := NewSplitCalculator(DefaultSplitConfig())

	// Уровни в порядке возрастания процента
	tiers := []domain.CommissionTier{
		domain.CommissionTierJunior,
		domain.CommissionTierPleno,
		domain.CommissionTierSenior,
		domain.CommissionTierEspecialista,
	}

	// Для фиксированной суммы более высокий уровень никогда не получает меньше
	amounts := []int64{1, 19, 99, 10000, 44000, 99999}
	for _, amount := range amounts {
		prev := int64(-1)
		for _, tier := range tiers {
			got, err := calc.Calculate(amount, tier)
			if err != nil {
				t.Fatalf("Calculate(%d, %s) error = %v", amount, tier, err)
			}
			if got.CoachAmount < prev {
				t.Errorf("Calculate(%d, %s): CoachAmount %d < %d of lower tier",
					amount, tier, got.CoachAmount, prev)
			}
			prev = got.CoachAmount
		}
	}
}

func TestSplitCalculator_UnknownTier(t *testing.T) {
	calc := NewSplitCalculator(DefaultSplitConfig())

	_, err := calc.Calculate(10000, domain.CommissionTier("master"))
	if !errors.Is(err, domain.ErrUnknownTier) {
		t.Errorf("Calculate() error = %v, want ErrUnknownTier", err)
	}
}

func TestSplitCalculator_WithoutCoach(t *testing.T) {
	calc := NewSplitCalculator(DefaultSplitConfig())

	got := calc.CalculateWithoutCoach(25000)
	if got.CoachAmount != 0 {
		t.Errorf("CoachAmount = %d, want 0", got.CoachAmount)
	}
	if got.PlatformAmount != 25000 {
		t.Errorf("PlatformAmount = %d, want 25000", got.PlatformAmount)
	}
	if got.PercentageApplied != 0 {
		t.Errorf("PercentageApplied = %d, want 0", got.PercentageApplied)
	}
}
