package domain

import (
	"errors"
	"fmt"
)

// Application errors
var (
	// ErrPriceNotConfigured у плана нет цены для запрошенного периода
	ErrPriceNotConfigured = errors.New("price not configured for period")

	// ErrUnknownTier у тренера нет распознанного уровня комиссии
	ErrUnknownTier = errors.New("unknown commission tier")

	// ErrPlanNotFound план не найден
	ErrPlanNotFound = errors.New("plan not found")

	// ErrCoachNotFound тренер не найден
	ErrCoachNotFound = errors.New("coach not found")

	// ErrModalidadeNotCovered план не покрывает запрошенную модальность
	ErrModalidadeNotCovered = errors.New("plan does not cover modalidade")

	// ErrPaymentNotFound платеж не найден
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrPaymentNotPending операция допустима только для платежа в статусе pending
	ErrPaymentNotPending = errors.New("payment is not pending")

	// ErrInvalidWebhookToken не удалось проверить подпись вебхука
	ErrInvalidWebhookToken = errors.New("invalid webhook token")

	// ErrCardRequired для оплаты картой нужны данные карты
	ErrCardRequired = errors.New("credit card data required")

	// ErrCheckoutInProgress конкурентный запрос с тем же ключом идемпотентности
	// уже выполняется
	ErrCheckoutInProgress = errors.New("checkout already in progress")
)

// ValidationError представляет ошибку валидации одного поля
type ValidationError struct {
	Field   string
	Message string
}

// ValidationErrors представляет набор ошибок валидации.
// Валидатор карты возвращает все нарушенные правила, а не только первое.
type ValidationErrors []ValidationError

// Error реализует интерфейс error
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}

	if len(e) == 1 {
		return fmt.Sprintf("validation failed: %s - %s", e[0].Field, e[0].Message)
	}

	return fmt.Sprintf("validation failed: %d errors", len(e))
}

// Add добавляет ошибку валидации
func (e *ValidationErrors) Add(field, message string) {
	*e = append(*e, ValidationError{Field: field, Message: message})
}

// HasErrors проверяет наличие ошибок
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Fields возвращает список полей с ошибками
func (e ValidationErrors) Fields() []string {
	fields := make([]string, len(e))
	for i, err := range e {
		fields[i] = err.Field
	}
	return fields
}

// GetByField возвращает сообщение об ошибке для указанного поля
func (e ValidationErrors) GetByField(field string) string {
	for _, err := range e {
		if err.Field == field {
			return err.Message
		}
	}
	return ""
}

// GatewayError представляет ошибку платежной системы.
// Ответ с явным отказом отличается от таймаута: таймаут никогда не
// интерпретируется как отказ.
type GatewayError struct {
	Operation   string
	Code        string
	Message     string
	StatusCode  int
	Timeout     bool
	OriginalErr error
}

// Error реализует интерфейс error
func (e *GatewayError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("gateway error [%s/%s]: %s: %v", e.Operation, e.Code, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("gateway error [%s/%s]: %s", e.Operation, e.Code, e.Message)
}

// Unwrap возвращает оригинальную ошибку
func (e *GatewayError) Unwrap() error {
	return e.OriginalErr
}

// NewGatewayError создает новую ошибку платежной системы
func NewGatewayError(operation, code, message string, statusCode int, err error) *GatewayError {
	return &GatewayError{
		Operation:   operation,
		Code:        code,
		Message:     message,
		StatusCode:  statusCode,
		OriginalErr: err,
	}
}

// NewGatewayTimeout создает ошибку таймаута платежной системы
func NewGatewayTimeout(operation string, err error) *GatewayError {
	return &GatewayError{
		Operation:   operation,
		Code:        "timeout",
		Message:     "gateway call timed out",
		Timeout:     true,
		OriginalErr: err,
	}
}

// ProvisioningError представляет ошибку создания субаккаунта тренера.
// Повторяется вызывающей стороной с тем же ключом идемпотентности.
type ProvisioningError struct {
	CoachID     string
	Message     string
	OriginalErr error
}

// Error реализует интерфейс error
func (e *ProvisioningError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("provisioning error for coach %s: %s: %v", e.CoachID, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("provisioning error for coach %s: %s", e.CoachID, e.Message)
}

// Unwrap возвращает оригинальную ошибку
func (e *ProvisioningError) Unwrap() error {
	return e.OriginalErr
}

// NewProvisioningError создает новую ошибку создания субаккаунта
func NewProvisioningError(coachID, message string, err error) *ProvisioningError {
	return &ProvisioningError{
		CoachID:     coachID,
		Message:     message,
		OriginalErr: err,
	}
}

// ReconciliationConflict представляет противоречие терминальных статусов:
// платежная система сообщает один терминальный статус, а у нас уже сохранен
// другой. Сохраненный статус никогда не перезаписывается.
type ReconciliationConflict struct {
	PaymentID      string
	StoredStatus   PaymentStatus
	ReportedStatus PaymentStatus
}

// Error реализует интерфейс error
func (e *ReconciliationConflict) Error() string {
	return fmt.Sprintf("reconciliation conflict for payment %s: stored %s, gateway reported %s",
		e.PaymentID, e.StoredStatus, e.ReportedStatus)
}

// NewReconciliationConflict создает новый конфликт сверки
func NewReconciliationConflict(paymentID string, stored, reported PaymentStatus) *ReconciliationConflict {
	return &ReconciliationConflict{
		PaymentID:      paymentID,
		StoredStatus:   stored,
		ReportedStatus: reported,
	}
}
