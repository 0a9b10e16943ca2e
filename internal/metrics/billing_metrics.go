package metrics

import (
	"github.com/nexfit/billing-service/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BillingMetrics интерфейс для метрик биллинга
type BillingMetrics interface {
	IncCheckoutStarted(method string)
	IncCheckoutResult(method, status string)
	IncWebhookReceived(event string)
	IncWebhookRejected()
	IncSplitSettled()
	ObserveChargeAmount(amountCentavos int64, method string)
}

type billingMetrics struct {
	log              *logger.Logger
	checkoutsStarted *prometheus.CounterVec
	checkoutsResult  *prometheus.CounterVec
	webhooksReceived *prometheus.CounterVec
	webhooksRejected prometheus.Counter
	splitsSettled    prometheus.Counter
	chargeAmounts    *prometheus.HistogramVec
}

// NewBillingMetrics создает новые метрики биллинга
func NewBillingMetrics(registry *prometheus.Registry, log *logger.Logger) BillingMetrics {
	checkoutsStarted := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_checkouts_started_total",
			Help: "The total number of started checkouts",
		},
		[]string{"method"},
	)

	checkoutsResult := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_checkouts_result_total",
			Help: "The total number of finished checkouts by payment status",
		},
		[]string{"method", "status"},
	)

	webhooksReceived := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_webhooks_received_total",
			Help: "The total number of received gateway webhooks",
		},
		[]string{"event"},
	)

	webhooksRejected := promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Name: "billing_webhooks_rejected_total",
			Help: "The total number of webhooks rejected by token verification",
		},
	)

	splitsSettled := promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Name: "billing_splits_settled_total",
			Help: "The total number of settled coach split transfers",
		},
	)

	chargeAmounts := promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "billing_charge_amount_centavos",
			Help:    "Charge amounts distribution in centavos",
			Buckets: prometheus.ExponentialBuckets(1000, 4, 7), // 10 BRL .. ~40960 BRL
		},
		[]string{"method"},
	)

	return &billingMetrics{
		log:              log,
		checkoutsStarted: checkoutsStarted,
		checkoutsResult:  checkoutsResult,
		webhooksReceived: webhooksReceived,
		webhooksRejected: webhooksRejected,
		splitsSettled:    splitsSettled,
		chargeAmounts:    chargeAmounts,
	}
}

// IncCheckoutStarted увеличивает счетчик начатых оформлений
func (m *billingMetrics) IncCheckoutStarted(method string) {
	m.checkoutsStarted.WithLabelValues(method).Inc()
}

// IncCheckoutResult увеличивает счетчик завершенных оформлений
func (m *billingMetrics) IncCheckoutResult(method, status string) {
	m.checkoutsResult.WithLabelValues(method, status).Inc()
}

// IncWebhookReceived увеличивает счетчик принятых вебхуков
func (m *billingMetrics) IncWebhookReceived(event string) {
	m.webhooksReceived.WithLabelValues(event).Inc()
}

// IncWebhookRejected увеличивает счетчик отклоненных вебхуков
func (m *billingMetrics) IncWebhookRejected() {
	m.webhooksRejected.Inc()
}

// IncSplitSettled увеличивает счетчик выполненных переводов
func (m *billingMetrics) IncSplitSettled() {
	m.splitsSettled.Inc()
}

// ObserveChargeAmount записывает сумму списания
func (m *billingMetrics) ObserveChargeAmount(amountCentavos int64, method string) {
	m.chargeAmounts.WithLabelValues(method).Observe(float64(amountCentavos))
}
