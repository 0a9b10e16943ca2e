package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/nexfit/billing-service/config"
	"github.com/nexfit/billing-service/internal/api/rest"
	"github.com/nexfit/billing-service/internal/api/rest/handlers"
	"github.com/nexfit/billing-service/internal/api/rest/middleware"
	"github.com/nexfit/billing-service/internal/domain"
	"github.com/nexfit/billing-service/internal/gateway"
	"github.com/nexfit/billing-service/internal/integration/asaas"
	"github.com/nexfit/billing-service/internal/kafka"
	"github.com/nexfit/billing-service/internal/kafka/producer"
	"github.com/nexfit/billing-service/internal/metrics"
	"github.com/nexfit/billing-service/internal/repository"
	"github.com/nexfit/billing-service/internal/repository/postgres"
	"github.com/nexfit/billing-service/internal/service"
	"github.com/nexfit/billing-service/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
)

var log *logger.Logger

func init() {
	// Загружаем переменные окружения
	if err := godotenv.Load(); err != nil {
		// Пропускаем ошибку, если .env файл не найден
	}

	log = logger.New(logger.ParseLevel(os.Getenv("LOG_LEVEL")))
}

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}

	log = logger.New(logger.ParseLevel(cfg.Logging.Level))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Инициализация Prometheus
	promRegistry := prometheus.NewRegistry()
	billingMetrics := metrics.NewBillingMetrics(promRegistry, log)
	systemMetrics := metrics.NewSystemMetrics(promRegistry, log)

	// Запускаем сбор системных метрик
	systemMetrics.StartRecording(15 * time.Second)
	defer systemMetrics.Stop()

	// Подключение к базе данных
	dbPool, err := postgres.NewConnection(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer dbPool.Close()

	// Репозитории
	planRepo := repository.PlanRepository(postgres.NewPostgresPlanRepository(dbPool, log))
	coachRepo := postgres.NewPostgresCoachRepository(dbPool, log)
	subaccountRepo := postgres.NewPostgresSubaccountRepository(dbPool, log)
	paymentRepo := postgres.NewPostgresPaymentRepository(dbPool, log)
	splitRepo := postgres.NewPostgresSplitRepository(dbPool, log)
	subscriptionRepo := postgres.NewPostgresSubscriptionRepository(dbPool, log)
	attemptRepo := postgres.NewPostgresCheckoutAttemptRepository(dbPool, log)

	// Кэширование планов через Redis
	cache, err := repository.NewRedisCacheRepository(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
	if err != nil {
		log.Warn("Redis unavailable, plan cache disabled: %v", err)
	} else {
		defer cache.Close()
		planRepo = repository.NewCachedPlanRepository(planRepo, cache, log)
	}

	// Инициализация Kafka продюсера
	billingProducer := producer.NewLogBillingProducer(log)
	if cfg.Kafka.Enabled {
		if err := kafka.EnsureTopics(cfg.Kafka.Brokers, log); err != nil {
			log.Fatal("Failed to ensure Kafka topics: %v", err)
		}

		kafkaConfig := kafka.NewConfig(cfg.Kafka.Brokers)
		kafkaProducer, err := sarama.NewSyncProducer(kafkaConfig.Brokers, kafka.NewSaramaConfig(kafkaConfig))
		if err != nil {
			log.Fatal("Failed to create Kafka producer: %v", err)
		}

		billingProducer = producer.NewKafkaBillingProducer(kafkaProducer, log)
	} else {
		log.Warn("Kafka disabled, billing events will only be logged")
	}
	defer billingProducer.Close()

	// Платежная система. Клиент Asaas нужен всегда: он проверяет
	// токен вебхуков даже в режиме мока
	asaasClient := asaas.NewClient(asaas.Config{
		APIKey:       cfg.Asaas.APIKey,
		WebhookToken: cfg.Asaas.WebhookToken,
		Timeout:      cfg.Asaas.Timeout,
		IsSandbox:    cfg.Asaas.IsSandbox,
	}, log)

	var paymentGateway gateway.PaymentGateway = asaasClient
	if cfg.Asaas.UseMock {
		log.Warn("Using mock payment gateway")
		paymentGateway = gateway.NewMockGateway(30*time.Second, log)
	}

	// Сервисы
	provisioner := service.NewSubaccountProvisioner(subaccountRepo, paymentGateway, log)
	pricing := service.NewPricingService(service.PricingConfig{
		DefaultEnrollmentFee: cfg.Billing.DefaultEnrollmentFee,
	}, log)
	splitCalc := service.NewSplitCalculator(service.SplitConfig{
		TierPercentages: map[domain.CommissionTier]int64{
			domain.CommissionTierJunior:       cfg.Billing.TierJuniorPercent,
			domain.CommissionTierPleno:        cfg.Billing.TierPlenoPercent,
			domain.CommissionTierSenior:       cfg.Billing.TierSeniorPercent,
			domain.CommissionTierEspecialista: cfg.Billing.TierEspecialistaPercent,
		},
	})

	reconciler := service.NewReconcilerService(
		paymentRepo, subscriptionRepo, splitRepo, subaccountRepo,
		paymentGateway, billingProducer, log,
	)

	checkoutService := service.NewCheckoutService(
		planRepo, coachRepo, paymentRepo, splitRepo, subscriptionRepo, attemptRepo,
		provisioner, pricing, splitCalc, paymentGateway, reconciler, log,
	)

	paymentService := service.NewPaymentService(paymentRepo, paymentGateway, log)
	subscriptionService := service.NewSubscriptionService(subscriptionRepo, log)
	webhookService := service.NewWebhookService(asaasClient, reconciler, log)

	// Фоновая сверка зависших платежей и отложенных переводов
	go reconciler.RunPolling(ctx, cfg.Billing.ReconcilePollInterval, cfg.Billing.ReconcilePendingAfter)

	// Установка режима Gin
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Настройка маршрутизатора
	jwtMiddleware := middleware.NewJWTMiddleware(cfg.Auth.JWTSecret, cfg.Auth.Enabled, log)
	router := rest.SetupRouter(rest.Handlers{
		Checkout:     handlers.NewCheckoutHandler(checkoutService, billingMetrics, log),
		Payment:      handlers.NewPaymentHandler(paymentService, log),
		Subscription: handlers.NewSubscriptionHandler(subscriptionService, log),
		Plan:         handlers.NewPlanHandler(planRepo, log),
		Webhook:      handlers.NewWebhookHandler(webhookService, billingMetrics, log),
	}, jwtMiddleware, promRegistry, log)

	// Создание и запуск HTTP сервера
	server := rest.NewServer(router, cfg, log)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()

	shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
