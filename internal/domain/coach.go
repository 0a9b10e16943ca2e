package domain

import (
	"time"

	"github.com/google/uuid"
)

// CommissionTier уровень тренера, определяет его процент от платежа
type CommissionTier string

const (
	CommissionTierJunior       CommissionTier = "junior"
	CommissionTierPleno        CommissionTier = "pleno"
	CommissionTierSenior       CommissionTier = "senior"
	CommissionTierEspecialista CommissionTier = "especialista"
)

// Coach представляет независимого тренера платформы
type Coach struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Tier      CommissionTier `json:"tier"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// SubaccountStatus статус субаккаунта тренера в платежной системе
type SubaccountStatus string

const (
	SubaccountStatusPending   SubaccountStatus = "pending"
	SubaccountStatusActive    SubaccountStatus = "active"
	SubaccountStatusSuspended SubaccountStatus = "suspended"
)

// CoachSubaccount представляет субаккаунт тренера в платежной системе.
// Создается лениво при первом checkout, ссылающемся на тренера.
type CoachSubaccount struct {
	CoachID              uuid.UUID        `json:"coach_id"`
	ExternalSubaccountID string           `json:"external_subaccount_id"`
	ExternalWalletID     string           `json:"external_wallet_id"`
	Status               SubaccountStatus `json:"status"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}
