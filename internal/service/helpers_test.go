package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nexfit/billing-service/internal/domain"
	"github.com/nexfit/billing-service/internal/gateway"
	"github.com/nexfit/billing-service/internal/repository"
	"github.com/nexfit/billing-service/pkg/logger"
)

// recordingProducer запоминает опубликованные события вместо отправки в Kafka
type recordingProducer struct {
	mu                     sync.Mutex
	paymentsConfirmed      []domain.Payment
	paymentsFailed         []domain.Payment
	subscriptionsActivated []domain.Subscription
	splitsSettled          []domain.SplitRecord
}

func (p *recordingProducer) PublishPaymentConfirmed(ctx context.Context, payment domain.Payment) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paymentsConfirmed = append(p.paymentsConfirmed, payment)
	return nil
}

func (p *recordingProducer) PublishPaymentFailed(ctx context.Context, payment domain.Payment) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paymentsFailed = append(p.paymentsFailed, payment)
	return nil
}

func (p *recordingProducer) PublishSubscriptionActivated(ctx context.Context, sub domain.Subscription) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscriptionsActivated = append(p.subscriptionsActivated, sub)
	return nil
}

func (p *recordingProducer) PublishSplitSettled(ctx context.Context, record domain.SplitRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.splitsSettled = append(p.splitsSettled, record)
	return nil
}

func (p *recordingProducer) Close() error { return nil }

// billingHarness собирает сервисы на репозиториях в памяти и моке
// платежной системы
type billingHarness struct {
	plans         *repository.InMemoryPlanRepository
	coaches       *repository.InMemoryCoachRepository
	payments      *repository.InMemoryPaymentRepository
	splits        *repository.InMemorySplitRepository
	subscriptions *repository.InMemorySubscriptionRepository
	attempts      *repository.InMemoryCheckoutAttemptRepository
	subaccounts   *repository.InMemorySubaccountRepository

	gateway     *gateway.MockGateway
	producer    *recordingProducer
	provisioner *SubaccountProvisioner
	reconciler  *ReconcilerService
	checkout    CheckoutService
}

func newBillingHarness(t *testing.T) *billingHarness {
	t.Helper()

	log := logger.NewWithOutput(logger.ERROR, io.Discard)

	h := &billingHarness{
		plans:         repository.NewInMemoryPlanRepository(log),
		coaches:       repository.NewInMemoryCoachRepository(log),
		payments:      repository.NewInMemoryPaymentRepository(log),
		splits:        repository.NewInMemorySplitRepository(log),
		subscriptions: repository.NewInMemorySubscriptionRepository(log),
		attempts:      repository.NewInMemoryCheckoutAttemptRepository(log),
		subaccounts:   repository.NewInMemorySubaccountRepository(log),
		gateway:       gateway.NewMockGateway(time.Hour, log),
		producer:      &recordingProducer{},
	}

	h.provisioner = NewSubaccountProvisioner(h.subaccounts, h.gateway, log)
	h.reconciler = NewReconcilerService(h.payments, h.subscriptions, h.splits, h.subaccounts, h.gateway, h.producer, log)
	h.checkout = NewCheckoutService(
		h.plans, h.coaches, h.payments, h.splits, h.subscriptions, h.attempts,
		h.provisioner,
		NewPricingService(PricingConfig{DefaultEnrollmentFee: 5000}, log),
		NewSplitCalculator(DefaultSplitConfig()),
		h.gateway,
		h.reconciler,
		log,
	)

	return h
}

// seedPlan создает план с ценой для месячного периода
func (h *billingHarness) seedPlan(t *testing.T, monthlyPrice int64, modalidadeID uuid.UUID) domain.Plan {
	t.Helper()

	plan, err := h.plans.Create(context.Background(), domain.Plan{
		ID:   uuid.New(),
		Name: "Plano Performance",
		Prices: map[domain.BillingPeriod]int64{
			domain.BillingPeriodMonthly: monthlyPrice,
		},
		ModalidadeIDs: []uuid.UUID{modalidadeID},
		Active:        true,
	})
	if err != nil {
		t.Fatalf("seed plan: %v", err)
	}
	return plan
}

// seedCoach создает тренера с заданным уровнем комиссии
func (h *billingHarness) seedCoach(t *testing.T, tier domain.CommissionTier) domain.Coach {
	t.Helper()

	coach, err := h.coaches.Create(context.Background(), domain.Coach{
		ID:    uuid.New(),
		Name:  "Ana Souza",
		Email: "ana@nexfit.com.br",
		Tier:  tier,
	})
	if err != nil {
		t.Fatalf("seed coach: %v", err)
	}
	return coach
}

// checkoutRequest строит корректный запрос оформления
func checkoutRequest(plan domain.Plan, modalidadeID uuid.UUID, method domain.PaymentMethod) domain.CheckoutRequest {
	return domain.CheckoutRequest{
		UserID:        uuid.NewString(),
		PlanID:        plan.ID.String(),
		ModalidadeID:  modalidadeID.String(),
		Period:        domain.BillingPeriodMonthly,
		PaymentMethod: method,
	}
}

// validCard карта с корректным числом Луна и сроком в будущем
func validCard() *domain.CreditCardData {
	return &domain.CreditCardData{
		HolderName:  "ANA SOUZA",
		Number:      "4539148803436467",
		ExpiryMonth: 12,
		ExpiryYear:  2031,
		CVV:         "123",
	}
}
