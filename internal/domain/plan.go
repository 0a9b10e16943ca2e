package domain

import (
	"time"

	"github.com/google/uuid"
)

// BillingPeriod период тарификации подписки
type BillingPeriod string

const (
	BillingPeriodWeekly     BillingPeriod = "weekly"
	BillingPeriodBiweekly   BillingPeriod = "biweekly"
	BillingPeriodMonthly    BillingPeriod = "monthly"
	BillingPeriodQuarterly  BillingPeriod = "quarterly"
	BillingPeriodSemiannual BillingPeriod = "semiannual"
	BillingPeriodYearly     BillingPeriod = "yearly"
)

// IsValid проверяет, что период тарификации известен системе
func (p BillingPeriod) IsValid() bool {
	switch p {
	case BillingPeriodWeekly, BillingPeriodBiweekly, BillingPeriodMonthly,
		BillingPeriodQuarterly, BillingPeriodSemiannual, BillingPeriodYearly:
		return true
	}
	return false
}

// AddTo возвращает дату окончания периода, отсчитанную от start
func (p BillingPeriod) AddTo(start time.Time) time.Time {
	switch p {
	case BillingPeriodWeekly:
		return start.AddDate(0, 0, 7)
	case BillingPeriodBiweekly:
		return start.AddDate(0, 0, 14)
	case BillingPeriodMonthly:
		return start.AddDate(0, 1, 0)
	case BillingPeriodQuarterly:
		return start.AddDate(0, 3, 0)
	case BillingPeriodSemiannual:
		return start.AddDate(0, 6, 0)
	case BillingPeriodYearly:
		return start.AddDate(1, 0, 0)
	default:
		return start
	}
}

// Plan представляет собой тарифный план платформы.
// Все суммы хранятся в центавах (минимальных единицах валюты).
type Plan struct {
	ID     uuid.UUID               `json:"id"`
	Name   string                  `json:"name"`
	Prices map[BillingPeriod]int64 `json:"prices"`
	// EnrollmentFee плата за зачисление, взимается только в первом цикле.
	// nil означает платформенное значение по умолчанию.
	EnrollmentFee *int64      `json:"enrollment_fee,omitempty"`
	ModalidadeIDs []uuid.UUID `json:"modalidade_ids"`
	Active        bool        `json:"active"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// PriceFor возвращает цену плана для периода
func (p *Plan) PriceFor(period BillingPeriod) (int64, bool) {
	price, ok := p.Prices[period]
	return price, ok
}

// CoversModalidade проверяет, что план покрывает модальность
func (p *Plan) CoversModalidade(modalidadeID uuid.UUID) bool {
	for _, id := range p.ModalidadeIDs {
		if id == modalidadeID {
			return true
		}
	}
	return false
}

// Modalidade представляет дисциплину тренировок (бег, триатлон и т.д.)
type Modalidade struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
