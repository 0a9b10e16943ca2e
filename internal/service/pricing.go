package service

import (
	"github.com/nexfit/billing-service/internal/domain"
	"github.com/nexfit/billing-service/pkg/logger"
)

// PricingConfig конфигурация расчета цены
type PricingConfig struct {
	// DefaultEnrollmentFee плата за зачисление в центавах, применяется когда
	// у плана не задано свое значение
	DefaultEnrollmentFee int64
}

// Quote итоговая сумма списания с расшифровкой
type Quote struct {
	Total     int64
	Breakdown domain.PriceBreakdown
}

// PricingService рассчитывает сумму списания по плану, периоду и признаку
// первого цикла. Все суммы в центавах.
type PricingService struct {
	cfg PricingConfig
	log *logger.Logger
}

// NewPricingService создает новый сервис расчета цены
func NewPricingService(cfg PricingConfig, log *logger.Logger) *PricingService {
	return &PricingService{
		cfg: cfg,
		log: log,
	}
}

// Resolve возвращает сумму списания для плана и периода. Плата за зачисление
// добавляется только в первом цикле.
func (s *PricingService) Resolve(plan domain.Plan, period domain.BillingPeriod, isFirstCycle bool) (Quote, error) {
	basePrice, ok := plan.PriceFor(period)
	if !ok {
		s.log.Warn("Plan %s has no price for period %s", plan.ID, period)
		return Quote{}, domain.ErrPriceNotConfigured
	}

	var enrollmentFee int64
	if isFirstCycle {
		enrollmentFee = s.cfg.DefaultEnrollmentFee
		if plan.EnrollmentFee != nil {
			enrollmentFee = *plan.EnrollmentFee
		}
	}

	return Quote{
		Total: basePrice + enrollmentFee,
		Breakdown: domain.PriceBreakdown{
			BasePrice:     basePrice,
			EnrollmentFee: enrollmentFee,
		},
	}, nil
}
