package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config структура конфигурации приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Asaas    AsaasConfig
	Billing  BillingConfig
	Auth     AuthConfig
	Logging  LoggingConfig
}

// AuthConfig конфигурация аутентификации API
type AuthConfig struct {
	JWTSecret string
	// Enabled выключает проверку токена в локальной разработке
	Enabled bool
}

// ServerConfig конфигурация HTTP сервера
type ServerConfig struct {
	Port            string
	ReadTimeout     int
	WriteTimeout    int
	IdleTimeout     int
	ShutdownTimeout int
}

// DatabaseConfig конфигурация базы данных
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	// Параметры пула соединений
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// RedisConfig конфигурация Redis
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig конфигурация Kafka
type KafkaConfig struct {
	Brokers []string
	Enabled bool
}

// AsaasConfig конфигурация платежной системы Asaas
type AsaasConfig struct {
	APIKey       string
	WebhookToken string
	IsSandbox    bool
	// UseMock подменяет Asaas детерминированным моком; для окружений
	// без учетных данных платежной системы
	UseMock bool
	Timeout time.Duration
}

// BillingConfig параметры биллинга
type BillingConfig struct {
	// DefaultEnrollmentFee плата за зачисление в центавах
	DefaultEnrollmentFee int64
	// ReconcilePollInterval период опроса платежной системы
	ReconcilePollInterval time.Duration
	// ReconcilePendingAfter порог зависания платежа в pending
	ReconcilePendingAfter time.Duration
	// Tier*Percent доли тренера по уровням комиссии, в процентах
	TierJuniorPercent       int64
	TierPlenoPercent        int64
	TierSeniorPercent       int64
	TierEspecialistaPercent int64
}

// LoggingConfig конфигурация логгера
type LoggingConfig struct {
	Level string
}

// GetDSN возвращает строку подключения к базе данных
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout:    getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:     getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
			ShutdownTimeout: getEnvAsInt("SERVER_SHUTDOWN_TIMEOUT", 30),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Database:        getEnv("DB_NAME", "billing_service"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxConns:        int32(getEnvAsInt("DB_MAX_CONNS", 10)),
			MinConns:        int32(getEnvAsInt("DB_MIN_CONNS", 2)),
			ConnMaxLifetime: time.Duration(getEnvAsInt("DB_CONN_MAX_LIFETIME_MINUTES", 60)) * time.Minute,
			ConnMaxIdleTime: time.Duration(getEnvAsInt("DB_CONN_MAX_IDLE_MINUTES", 30)) * time.Minute,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: []string{getEnv("KAFKA_BROKER", "localhost:9092")},
			Enabled: getEnvAsBool("KAFKA_ENABLED", true),
		},
		Asaas: AsaasConfig{
			APIKey:       getEnv("ASAAS_API_KEY", ""),
			WebhookToken: getEnv("ASAAS_WEBHOOK_TOKEN", ""),
			IsSandbox:    getEnvAsBool("ASAAS_SANDBOX", true),
			UseMock:      getEnvAsBool("ASAAS_USE_MOCK", false),
			Timeout:      time.Duration(getEnvAsInt("ASAAS_TIMEOUT_SECONDS", 15)) * time.Second,
		},
		Billing: BillingConfig{
			DefaultEnrollmentFee:    int64(getEnvAsInt("BILLING_ENROLLMENT_FEE_CENTAVOS", 5000)),
			ReconcilePollInterval:   time.Duration(getEnvAsInt("RECONCILE_POLL_INTERVAL_SECONDS", 60)) * time.Second,
			ReconcilePendingAfter:   time.Duration(getEnvAsInt("RECONCILE_PENDING_AFTER_SECONDS", 300)) * time.Second,
			TierJuniorPercent:       int64(getEnvAsInt("BILLING_TIER_JUNIOR_PERCENT", 60)),
			TierPlenoPercent:        int64(getEnvAsInt("BILLING_TIER_PLENO_PERCENT", 65)),
			TierSeniorPercent:       int64(getEnvAsInt("BILLING_TIER_SENIOR_PERCENT", 70)),
			TierEspecialistaPercent: int64(getEnvAsInt("BILLING_TIER_ESPECIALISTA_PERCENT", 75)),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			Enabled:   getEnvAsBool("AUTH_ENABLED", true),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if cfg.Auth.Enabled && cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required unless AUTH_ENABLED is false")
	}

	if !cfg.Asaas.UseMock && cfg.Asaas.APIKey == "" {
		return nil, fmt.Errorf("ASAAS_API_KEY is required unless ASAAS_USE_MOCK is set")
	}

	return cfg, nil
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt получает значение переменной окружения как int или возвращает значение по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool получает значение переменной окружения как bool или возвращает значение по умолчанию
func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
