package asaas

import (
	"github.com/nexfit/billing-service/internal/domain"
)

// mapPaymentStatus преобразует статус платежа Asaas в статус системы
func mapPaymentStatus(asaasStatus string) domain.PaymentStatus {
	switch asaasStatus {
	case "CONFIRMED", "RECEIVED", "RECEIVED_IN_CASH":
		return domain.PaymentStatusConfirmed
	case "REFUSED", "CHARGEBACK_REQUESTED", "CHARGEBACK_DISPUTE":
		return domain.PaymentStatusFailed
	case "DELETED", "REFUNDED":
		return domain.PaymentStatusCancelled
	case "PENDING", "AWAITING_RISK_ANALYSIS", "OVERDUE":
		return domain.PaymentStatusPending
	default:
		return domain.PaymentStatusPending
	}
}

// mapSubaccountStatus преобразует статус субаккаунта Asaas в статус системы.
// Пока документы тренера не прошли проверку, субаккаунт остается pending.
func mapSubaccountStatus(generalApproval string) domain.SubaccountStatus {
	switch generalApproval {
	case "APPROVED":
		return domain.SubaccountStatusActive
	case "REJECTED":
		return domain.SubaccountStatusSuspended
	default:
		return domain.SubaccountStatusPending
	}
}
