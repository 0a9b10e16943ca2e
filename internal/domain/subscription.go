package domain

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus статус подписки
type SubscriptionStatus string

const (
	SubscriptionStatusPending   SubscriptionStatus = "pending"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusOnLeave   SubscriptionStatus = "on_leave"
)

// Subscription представляет собой модель подписки.
// Создается в статусе pending вместе с первым платежом и становится active
// только когда первый платеж подтвержден. Amount фиксируется в момент checkout
// и не меняется при последующих изменениях цен плана.
type Subscription struct {
	ID           uuid.UUID          `json:"id"`
	UserID       uuid.UUID          `json:"user_id"`
	PlanID       uuid.UUID          `json:"plan_id"`
	ModalidadeID uuid.UUID          `json:"modalidade_id"`
	CoachID      *uuid.UUID         `json:"coach_id,omitempty"`
	Status       SubscriptionStatus `json:"status"`
	Period       BillingPeriod      `json:"period"`
	StartDate    time.Time          `json:"start_date"`
	EndDate      time.Time          `json:"end_date"`
	Amount       int64              `json:"amount"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}
