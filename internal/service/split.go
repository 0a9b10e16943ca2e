package service

import (
	"github.com/nexfit/billing-service/internal/domain"
)

// SplitConfig проценты тренеров по уровням комиссии
type SplitConfig struct {
	TierPercentages map[domain.CommissionTier]int64
}

// DefaultSplitConfig возвращает платформенные проценты по умолчанию
func DefaultSplitConfig() SplitConfig {
	return SplitConfig{
		TierPercentages: map[domain.CommissionTier]int64{
			domain.CommissionTierJunior:       60,
			domain.CommissionTierPleno:        65,
			domain.CommissionTierSenior:       70,
			domain.CommissionTierEspecialista: 75,
		},
	}
}

// SplitResult результат разделения платежа между тренером и платформой
type SplitResult struct {
	CoachAmount       int64
	PlatformAmount    int64
	PercentageApplied int64
}

// SplitCalculator делит сумму платежа между тренером и платформой.
// Доля тренера округляется вниз до целого центаво, остаток достается
// платформе, поэтому CoachAmount + PlatformAmount всегда равно сумме платежа.
type SplitCalculator struct {
	cfg SplitConfig
}

// NewSplitCalculator создает новый калькулятор разделения
func NewSplitCalculator(cfg SplitConfig) *SplitCalculator {
	if cfg.TierPercentages == nil {
		cfg = DefaultSplitConfig()
	}
	return &SplitCalculator{cfg: cfg}
}

// Calculate возвращает разделение суммы для тренера с заданным уровнем
func (c *SplitCalculator) Calculate(amount int64, tier domain.CommissionTier) (SplitResult, error) {
	percentage, ok := c.cfg.TierPercentages[tier]
	if !ok {
		return SplitResult{}, domain.ErrUnknownTier
	}

	coachAmount := amount * percentage / 100

	return SplitResult{
		CoachAmount:       coachAmount,
		PlatformAmount:    amount - coachAmount,
		PercentageApplied: percentage,
	}, nil
}

// CalculateWithoutCoach возвращает разделение для платежа без тренера:
// вся сумма достается платформе
func (c *SplitCalculator) CalculateWithoutCoach(amount int64) SplitResult {
	return SplitResult{
		CoachAmount:       0,
		PlatformAmount:    amount,
		PercentageApplied: 0,
	}
}
