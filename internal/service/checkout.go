package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nexfit/billing-service/internal/domain"
	"github.com/nexfit/billing-service/internal/gateway"
	"github.com/nexfit/billing-service/internal/repository"
	"github.com/nexfit/billing-service/pkg/logger"
)

// boletoDueDays срок оплаты boleto с момента выставления
const boletoDueDays = 3

// CheckoutService интерфейс оформления подписки
type CheckoutService interface {
	Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutResult, error)
}

// checkoutService оркестрирует оформление подписки: валидация, расчет цены,
// провижининг субаккаунта тренера, списание в платежной системе и запись
// разделения. Выполнение идемпотентно по ключу: повтор с тем же ключом
// возвращает сохраненный результат и не создает второго платежа.
type checkoutService struct {
	plans         repository.PlanRepository
	coaches       repository.CoachRepository
	payments      repository.PaymentRepository
	splits        repository.SplitRepository
	subscriptions repository.SubscriptionRepository
	attempts      repository.CheckoutAttemptRepository
	provisioner   *SubaccountProvisioner
	pricing       *PricingService
	split         *SplitCalculator
	gateway       gateway.PaymentGateway
	reconciler    *ReconcilerService
	log           *logger.Logger
}

// NewCheckoutService создает новый сервис оформления подписки
func NewCheckoutService(
	plans repository.PlanRepository,
	coaches repository.CoachRepository,
	payments repository.PaymentRepository,
	splits repository.SplitRepository,
	subscriptions repository.SubscriptionRepository,
	attempts repository.CheckoutAttemptRepository,
	provisioner *SubaccountProvisioner,
	pricing *PricingService,
	split *SplitCalculator,
	gw gateway.PaymentGateway,
	reconciler *ReconcilerService,
	log *logger.Logger,
) CheckoutService {
	return &checkoutService{
		plans:         plans,
		coaches:       coaches,
		payments:      payments,
		splits:        splits,
		subscriptions: subscriptions,
		attempts:      attempts,
		provisioner:   provisioner,
		pricing:       pricing,
		split:         split,
		gateway:       gw,
		reconciler:    reconciler,
		log:           log,
	}
}

// checkoutContext проверенные и загруженные данные запроса
type checkoutContext struct {
	userID       uuid.UUID
	modalidadeID uuid.UUID
	plan         domain.Plan
	coach        *domain.Coach
	quote        Quote
	splitResult  SplitResult
}

func (s *checkoutService) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutResult, error) {
	// Детерминированные проверки идут до захвата ключа идемпотентности:
	// отказ валидации не должен блокировать повтор запроса
	checkout, err := s.validate(ctx, req)
	if err != nil {
		return domain.CheckoutResult{}, err
	}

	key := req.IdempotencyKey
	if key == "" {
		key = deriveIdempotencyKey(req.UserID, req.PlanID, time.Now())
	}

	requestSnapshot, err := json.Marshal(req)
	if err != nil {
		return domain.CheckoutResult{}, fmt.Errorf("failed to marshal checkout request: %w", err)
	}

	attempt, created, err := s.attempts.InsertOrGet(ctx, domain.CheckoutAttempt{
		IdempotencyKey:  key,
		UserID:          checkout.userID,
		RequestSnapshot: requestSnapshot,
	})
	if err != nil {
		return domain.CheckoutResult{}, err
	}

	if !created {
		if attempt.Resolved() {
			s.log.Info("Checkout replay for key %s, returning stored result", key)
			var result domain.CheckoutResult
			if err := json.Unmarshal(attempt.ResultSnapshot, &result); err != nil {
				return domain.CheckoutResult{}, fmt.Errorf("failed to unmarshal stored checkout result: %w", err)
			}
			return result, nil
		}
		s.log.Warn("Concurrent checkout for key %s still in progress", key)
		return domain.CheckoutResult{}, domain.ErrCheckoutInProgress
	}

	return s.execute(ctx, req, checkout, key)
}

// validate проверяет запрос и загружает план и тренера
func (s *checkoutService) validate(ctx context.Context, req domain.CheckoutRequest) (checkoutContext, error) {
	var checkout checkoutContext

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return checkout, repository.ErrInvalidData
	}
	planID, err := uuid.Parse(req.PlanID)
	if err != nil {
		return checkout, repository.ErrInvalidData
	}
	modalidadeID, err := uuid.Parse(req.ModalidadeID)
	if err != nil {
		return checkout, repository.ErrInvalidData
	}

	if !req.Period.IsValid() {
		return checkout, repository.ErrInvalidData
	}
	if !req.PaymentMethod.IsValid() {
		return checkout, repository.ErrInvalidData
	}

	if req.PaymentMethod == domain.PaymentMethodCreditCard {
		if req.CreditCard == nil {
			return checkout, domain.ErrCardRequired
		}
		if violations := domain.ValidateCreditCard(*req.CreditCard, time.Now()); violations.HasErrors() {
			return checkout, violations
		}
	}

	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return checkout, domain.ErrPlanNotFound
		}
		return checkout, err
	}
	if !plan.CoversModalidade(modalidadeID) {
		return checkout, domain.ErrModalidadeNotCovered
	}

	quote, err := s.pricing.Resolve(plan, req.Period, req.IsFirstCycle)
	if err != nil {
		return checkout, err
	}

	splitResult := s.split.CalculateWithoutCoach(quote.Total)
	var coach *domain.Coach
	if req.CoachID != "" {
		coachID, err := uuid.Parse(req.CoachID)
		if err != nil {
			return checkout, repository.ErrInvalidData
		}
		loaded, err := s.coaches.GetByID(ctx, coachID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return checkout, domain.ErrCoachNotFound
			}
			return checkout, err
		}
		coach = &loaded

		// Уровень комиссии проверяется до списания, чтобы не брать деньги
		// за подписку, которую нельзя разделить
		splitResult, err = s.split.Calculate(quote.Total, coach.Tier)
		if err != nil {
			return checkout, err
		}
	}

	checkout.userID = userID
	checkout.modalidadeID = modalidadeID
	checkout.plan = plan
	checkout.coach = coach
	checkout.quote = quote
	checkout.splitResult = splitResult
	return checkout, nil
}

// execute выполняет оформление после захвата ключа идемпотентности
func (s *checkoutService) execute(ctx context.Context, req domain.CheckoutRequest, checkout checkoutContext, key string) (domain.CheckoutResult, error) {
	now := time.Now()

	// Субаккаунт тренера создается до списания. Без субаккаунта неизвестно,
	// куда уйдет доля тренера, поэтому жесткий отказ провижининга прерывает
	// оформление до создания подписки и платежа. Ключ освобождается, чтобы
	// повтор с тем же ключом снова прошел провижининг.
	if checkout.coach != nil {
		if _, err := s.provisioner.Ensure(ctx, *checkout.coach); err != nil {
			s.log.Error("Subaccount provisioning failed for coach %s, aborting checkout %s: %v",
				checkout.coach.ID, key, err)
			if derr := s.attempts.Delete(ctx, key); derr != nil {
				s.log.Error("Failed to release idempotency key %s: %v", key, derr)
			}
			return domain.CheckoutResult{}, err
		}
	}

	var coachID *uuid.UUID
	if checkout.coach != nil {
		coachID = &checkout.coach.ID
	}

	sub, err := s.subscriptions.Create(ctx, domain.Subscription{
		ID:           uuid.New(),
		UserID:       checkout.userID,
		PlanID:       checkout.plan.ID,
		ModalidadeID: checkout.modalidadeID,
		CoachID:      coachID,
		Status:       domain.SubscriptionStatusPending,
		Period:       req.Period,
		StartDate:    now,
		EndDate:      req.Period.AddTo(now),
		Amount:       checkout.quote.Breakdown.BasePrice,
	})
	if err != nil {
		return domain.CheckoutResult{}, err
	}

	dueDate := now
	if req.PaymentMethod == domain.PaymentMethodBoleto {
		dueDate = now.AddDate(0, 0, boletoDueDays)
	}

	// Платеж фиксируется до обращения к платежной системе, чтобы сбой
	// между списанием и записью не терял деньги пользователя
	payment, err := s.payments.Create(ctx, domain.Payment{
		ID:             uuid.New(),
		SubscriptionID: &sub.ID,
		UserID:         checkout.userID,
		Amount:         checkout.quote.Total,
		Method:         req.PaymentMethod,
		Status:         domain.PaymentStatusPending,
		IdempotencyKey: key,
		DueDate:        dueDate,
	})
	if err != nil {
		return domain.CheckoutResult{}, err
	}

	transferStatus := domain.TransferStatusNone
	if checkout.coach != nil {
		transferStatus = domain.TransferStatusDeferred
	}
	if _, err := s.splits.Create(ctx, domain.SplitRecord{
		ID:                uuid.New(),
		PaymentID:         payment.ID,
		CoachID:           coachID,
		CoachAmount:       checkout.splitResult.CoachAmount,
		PlatformAmount:    checkout.splitResult.PlatformAmount,
		PercentageApplied: checkout.splitResult.PercentageApplied,
		TransferStatus:    transferStatus,
	}); err != nil {
		return domain.CheckoutResult{}, err
	}

	resp, err := s.gateway.CreateCharge(ctx, gateway.ChargeRequest{
		Amount:         checkout.quote.Total,
		Method:         req.PaymentMethod,
		DueDate:        dueDate,
		Description:    fmt.Sprintf("Assinatura %s (%s)", checkout.plan.Name, req.Period),
		IdempotencyKey: key,
		PayerID:        checkout.userID.String(),
		Card:           req.CreditCard,
	})
	if err != nil {
		// Таймаут не означает отказ: списание могло пройти на стороне
		// платежной системы. Платеж остается pending, его судьбу решает
		// периодическая сверка.
		var gwErr *domain.GatewayError
		if errors.As(err, &gwErr) && gwErr.Timeout {
			s.log.Warn("Gateway charge timed out for checkout %s, payment %s stays pending", key, payment.ID)
			return s.resolve(ctx, key, payment, checkout)
		}

		s.log.Error("Gateway charge rejected for checkout %s: %v", key, err)
		if _, terr := s.payments.TransitionStatus(ctx, payment.ID, domain.PaymentStatusFailed, nil); terr != nil {
			s.log.Error("Failed to mark payment %s as failed: %v", payment.ID, terr)
		}
		payment.Status = domain.PaymentStatusFailed
		return s.resolve(ctx, key, payment, checkout)
	}

	payment.ExternalPaymentID = resp.ExternalPaymentID
	payment.PixQrCode = resp.PixQrCode
	payment.PixCopyPaste = resp.PixCopyPaste
	payment.BankSlipURL = resp.BankSlipURL
	if err := s.payments.Update(ctx, payment); err != nil {
		return domain.CheckoutResult{}, err
	}

	// Для карты платежная система отвечает терминальным статусом сразу;
	// применяем его тем же путем, что и вебхук
	if resp.Status.IsTerminal() {
		paidAt := timePtrIfConfirmed(resp.Status)
		if err := s.reconciler.Apply(ctx, payment, resp.Status, paidAt); err != nil {
			return domain.CheckoutResult{}, err
		}
		payment.Status = resp.Status
		payment.PaidAt = paidAt
	}

	return s.resolve(ctx, key, payment, checkout)
}

// resolve сохраняет результат в попытке и возвращает его
func (s *checkoutService) resolve(ctx context.Context, key string, payment domain.Payment, checkout checkoutContext) (domain.CheckoutResult, error) {
	result := domain.CheckoutResult{
		Success:      payment.Status != domain.PaymentStatusFailed,
		PaymentID:    payment.ID,
		Status:       payment.Status,
		Amount:       payment.Amount,
		Breakdown:    checkout.quote.Breakdown,
		DueDate:      payment.DueDate,
		PixQrCode:    payment.PixQrCode,
		PixCopyPaste: payment.PixCopyPaste,
		BankSlipURL:  payment.BankSlipURL,
	}

	resultSnapshot, err := json.Marshal(result)
	if err != nil {
		return domain.CheckoutResult{}, fmt.Errorf("failed to marshal checkout result: %w", err)
	}

	if err := s.attempts.Resolve(ctx, key, payment.ID, resultSnapshot); err != nil {
		return domain.CheckoutResult{}, err
	}

	s.log.Info("Checkout %s resolved: payment=%s status=%s amount=%d",
		key, payment.ID, payment.Status, payment.Amount)
	return result, nil
}

// deriveIdempotencyKey строит ключ идемпотентности для запросов без
// явного ключа: пользователь, план и часовая корзина времени
func deriveIdempotencyKey(userID, planID string, now time.Time) string {
	return fmt.Sprintf("%s:%s:%s", userID, planID, now.UTC().Format("2006010215"))
}
