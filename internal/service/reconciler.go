package service

import (
	"context"
	"errors"
	"time"

	"github.com/nexfit/billing-service/internal/domain"
	"github.com/nexfit/billing-service/internal/gateway"
	"github.com/nexfit/billing-service/internal/kafka/producer"
	"github.com/nexfit/billing-service/internal/repository"
	"github.com/nexfit/billing-service/pkg/logger"
)

// ReconcilerService приводит статусы платежей в соответствие с платежной
// системой. Источники сверки — вебхуки и поллер зависших pending-платежей;
// оба сходятся в Apply, поэтому гонка между ними применяет переход ровно
// один раз.
type ReconcilerService struct {
	payments      repository.PaymentRepository
	subscriptions repository.SubscriptionRepository
	splits        repository.SplitRepository
	subaccounts   repository.SubaccountRepository
	gateway       gateway.PaymentGateway
	producer      producer.BillingProducer
	log           *logger.Logger
}

// NewReconcilerService создает новый сервис сверки платежей
func NewReconcilerService(
	payments repository.PaymentRepository,
	subscriptions repository.SubscriptionRepository,
	splits repository.SplitRepository,
	subaccounts repository.SubaccountRepository,
	gw gateway.PaymentGateway,
	billingProducer producer.BillingProducer,
	log *logger.Logger,
) *ReconcilerService {
	return &ReconcilerService{
		payments:      payments,
		subscriptions: subscriptions,
		splits:        splits,
		subaccounts:   subaccounts,
		gateway:       gw,
		producer:      billingProducer,
		log:           log,
	}
}

// Reconcile применяет статус, сообщенный платежной системой, к платежу
// по его внешнему идентификатору
func (s *ReconcilerService) Reconcile(ctx context.Context, externalPaymentID string, reported domain.PaymentStatus, paidAt *time.Time) error {
	payment, err := s.payments.GetByExternalID(ctx, externalPaymentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Warn("Reconciliation for unknown external payment %s", externalPaymentID)
			return domain.ErrPaymentNotFound
		}
		return err
	}

	return s.Apply(ctx, payment, reported, paidAt)
}

// Apply применяет сообщенный статус к платежу. Терминальный статус
// монотонен: повтор того же статуса — no-op, другой терминальный статус —
// конфликт, который возвращается вызывающей стороне и не меняет запись.
func (s *ReconcilerService) Apply(ctx context.Context, payment domain.Payment, reported domain.PaymentStatus, paidAt *time.Time) error {
	if reported == domain.PaymentStatusPending {
		return nil
	}

	if payment.Status.IsTerminal() {
		if payment.Status == reported {
			s.log.Debug("Payment %s already %s, reconciliation is a no-op", payment.ID, reported)
			return nil
		}
		conflict := domain.NewReconciliationConflict(payment.ID.String(), payment.Status, reported)
		s.log.Error("Reconciliation conflict: %v", conflict)
		return conflict
	}

	transitioned, err := s.payments.TransitionStatus(ctx, payment.ID, reported, paidAt)
	if err != nil {
		return err
	}
	if !transitioned {
		// Конкурентная сверка успела первой; перечитываем и проверяем,
		// что она применила тот же статус
		current, err := s.payments.GetByID(ctx, payment.ID)
		if err != nil {
			return err
		}
		if current.Status == reported {
			return nil
		}
		conflict := domain.NewReconciliationConflict(payment.ID.String(), current.Status, reported)
		s.log.Error("Reconciliation conflict: %v", conflict)
		return conflict
	}

	payment.Status = reported
	payment.PaidAt = paidAt

	s.log.Info("Payment %s transitioned to %s", payment.ID, reported)

	switch reported {
	case domain.PaymentStatusConfirmed:
		s.publishPaymentEvent(ctx, payment, true)
		if err := s.activateSubscription(ctx, payment); err != nil {
			return err
		}
		return s.settleSplit(ctx, payment)
	case domain.PaymentStatusFailed:
		s.publishPaymentEvent(ctx, payment, false)
	}

	return nil
}

// activateSubscription активирует подписку после первого подтвержденного
// платежа
func (s *ReconcilerService) activateSubscription(ctx context.Context, payment domain.Payment) error {
	if payment.SubscriptionID == nil {
		return nil
	}

	sub, err := s.subscriptions.GetByID(ctx, *payment.SubscriptionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Warn("Payment %s references missing subscription %s", payment.ID, payment.SubscriptionID)
			return nil
		}
		return err
	}

	if sub.Status != domain.SubscriptionStatusPending {
		return nil
	}

	sub.Status = domain.SubscriptionStatusActive
	if err := s.subscriptions.Update(ctx, sub); err != nil {
		return err
	}

	s.log.Info("Subscription %s activated", sub.ID)

	if err := s.producer.PublishSubscriptionActivated(ctx, sub); err != nil {
		s.log.Warn("Failed to publish subscription activated event: %v", err)
	}

	return nil
}

// settleSplit выполняет отложенный перевод доли тренеру. Перевод возможен
// только когда платеж подтвержден и субаккаунт тренера активен; иначе
// запись остается deferred до следующего прохода.
func (s *ReconcilerService) settleSplit(ctx context.Context, payment domain.Payment) error {
	record, err := s.splits.GetByPaymentID(ctx, payment.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}

	if record.TransferStatus != domain.TransferStatusDeferred || record.CoachID == nil {
		return nil
	}

	sub, err := s.subaccounts.GetByCoachID(ctx, *record.CoachID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Info("Split for payment %s stays deferred: coach %s has no subaccount yet", payment.ID, record.CoachID)
			return nil
		}
		return err
	}

	if sub.Status != domain.SubaccountStatusActive {
		s.log.Info("Split for payment %s stays deferred: subaccount of coach %s is %s", payment.ID, record.CoachID, sub.Status)
		return nil
	}

	// Запись захватывается до вызова платежной системы: конкурентные
	// проходы сверки (вебхук и опрос) не должны перевести дважды
	claimed, err := s.splits.ClaimForSettlement(ctx, payment.ID)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	resp, err := s.gateway.CreateSplitTransfer(ctx, gateway.TransferRequest{
		ExternalPaymentID: payment.ExternalPaymentID,
		WalletID:          sub.ExternalWalletID,
		Amount:            record.CoachAmount,
	})
	if err != nil {
		s.log.Error("Failed to transfer split for payment %s: %v", payment.ID, err)
		if rerr := s.splits.ReleaseClaim(ctx, payment.ID); rerr != nil {
			s.log.Error("Failed to release split claim for payment %s: %v", payment.ID, rerr)
		}
		return err
	}

	settled, err := s.splits.MarkSettled(ctx, payment.ID, resp.ExternalTransferID)
	if err != nil {
		return err
	}
	if !settled {
		return nil
	}

	record.TransferStatus = domain.TransferStatusSettled
	record.ExternalTransferID = resp.ExternalTransferID

	s.log.Info("Split for payment %s settled: %d centavos to coach %s", payment.ID, record.CoachAmount, record.CoachID)

	if err := s.producer.PublishSplitSettled(ctx, record); err != nil {
		s.log.Warn("Failed to publish split settled event: %v", err)
	}

	return nil
}

// ReconcilePending опрашивает платежную систему по платежам, зависшим
// в pending дольше порога
func (s *ReconcilerService) ReconcilePending(ctx context.Context, threshold time.Duration) {
	pending, err := s.payments.ListPendingOlderThan(ctx, threshold)
	if err != nil {
		s.log.Error("Failed to list pending payments: %v", err)
		return
	}

	for _, payment := range pending {
		if payment.ExternalPaymentID == "" {
			continue
		}

		status, err := s.gateway.QueryStatus(ctx, payment.ExternalPaymentID)
		if err != nil {
			s.log.Warn("Failed to query status of payment %s: %v", payment.ID, err)
			continue
		}

		if err := s.Apply(ctx, payment, status, timePtrIfConfirmed(status)); err != nil {
			s.log.Error("Failed to reconcile payment %s: %v", payment.ID, err)
		}
	}
}

// SweepDeferredTransfers пытается выполнить отложенные переводы по
// подтвержденным платежам
func (s *ReconcilerService) SweepDeferredTransfers(ctx context.Context) {
	deferred, err := s.splits.ListDeferred(ctx)
	if err != nil {
		s.log.Error("Failed to list deferred splits: %v", err)
		return
	}

	for _, record := range deferred {
		payment, err := s.payments.GetByID(ctx, record.PaymentID)
		if err != nil {
			s.log.Warn("Deferred split references missing payment %s", record.PaymentID)
			continue
		}

		if payment.Status != domain.PaymentStatusConfirmed {
			continue
		}

		if err := s.settleSplit(ctx, payment); err != nil {
			s.log.Error("Failed to settle deferred split for payment %s: %v", payment.ID, err)
		}
	}
}

// RunPolling запускает периодическую сверку до отмены контекста
func (s *ReconcilerService) RunPolling(ctx context.Context, interval, pendingThreshold time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info("Reconciler polling started: interval=%s, threshold=%s", interval, pendingThreshold)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Reconciler polling stopped")
			return
		case <-ticker.C:
			s.ReconcilePending(ctx, pendingThreshold)
			s.SweepDeferredTransfers(ctx)
		}
	}
}

// publishPaymentEvent публикует событие о терминальном статусе платежа
func (s *ReconcilerService) publishPaymentEvent(ctx context.Context, payment domain.Payment, confirmed bool) {
	var err error
	if confirmed {
		err = s.producer.PublishPaymentConfirmed(ctx, payment)
	} else {
		err = s.producer.PublishPaymentFailed(ctx, payment)
	}
	if err != nil {
		s.log.Warn("Failed to publish payment event for %s: %v", payment.ID, err)
	}
}

// timePtrIfConfirmed возвращает текущее время для подтвержденного статуса
func timePtrIfConfirmed(status domain.PaymentStatus) *time.Time {
	if status != domain.PaymentStatusConfirmed {
		return nil
	}
	now := time.Now()
	return &now
}
