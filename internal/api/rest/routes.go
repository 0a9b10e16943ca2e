package rest

import (
	"github.com/gin-gonic/gin"
	"github.com/nexfit/billing-service/internal/api/rest/handlers"
	"github.com/nexfit/billing-service/internal/api/rest/middleware"
	"github.com/nexfit/billing-service/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers обработчики, подключаемые к маршрутизатору
type Handlers struct {
	Checkout     *handlers.CheckoutHandler
	Payment      *handlers.PaymentHandler
	Subscription *handlers.SubscriptionHandler
	Plan         *handlers.PlanHandler
	Webhook      *handlers.WebhookHandler
}

// SetupRouter настраивает маршрутизатор Gin с маршрутами и middleware
func SetupRouter(h Handlers, auth *middleware.JWTMiddleware, registry *prometheus.Registry, log *logger.Logger) *gin.Engine {
	r := gin.New()

	r.Use(middleware.LoggerMiddleware(log))
	r.Use(gin.Recovery())

	// Endpoint для проверки работоспособности сервиса
	r.GET("/health", handlers.HealthCheck)

	// Prometheus метрики
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	v1 := r.Group("/api/v1")
	v1.Use(auth.RequireAuth())
	{
		// Оформление подписки
		v1.POST("/checkout", h.Checkout.Checkout)

		// Платежи
		payments := v1.Group("/payments")
		{
			payments.GET("", h.Payment.GetPayments)
			payments.GET("/:id", h.Payment.GetPayment)
			payments.POST("/:id/cancel", h.Payment.CancelPayment)
		}

		// Подписки
		subscriptions := v1.Group("/subscriptions")
		{
			subscriptions.GET("", h.Subscription.GetSubscriptions)
			subscriptions.GET("/:id", h.Subscription.GetSubscription)
			subscriptions.POST("/:id/cancel", h.Subscription.CancelSubscription)
		}

		// Планы
		plans := v1.Group("/plans")
		{
			plans.GET("", h.Plan.GetPlans)
			plans.GET("/:id", h.Plan.GetPlan)
			plans.POST("", h.Plan.CreatePlan)
			plans.PUT("/:id", h.Plan.UpdatePlan)
		}
	}

	// Вебхуки аутентифицируются своим токеном, не JWT
	webhooks := r.Group("/webhooks")
	{
		webhooks.POST("/asaas", h.Webhook.HandleAsaasWebhook)
	}

	return r
}
