package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Logger    LoggerConfig
	RateLimit RateLimitConfig
	Notify    NotifyConfig
	Trips     TripsConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Host         string        `env:"SERVER_HOST,default=0.0.0.0"`
	Port         string        `env:"SERVER_PORT,default=8080"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT,default=15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT,default=15s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT,default=60s"`
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host            string        `env:"DB_HOST,default=localhost"`
	Port            string        `env:"DB_PORT,default=5432"`
	User            string        `env:"DB_USER,default=rydr_user"`
	Password        string        `env:"DB_PASSWORD,default=rydr_password"`
	Database        string        `env:"DB_NAME,default=rydr_db"`
	SSLMode         string        `env:"DB_SSLMODE,default=disable"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS,default=25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS,default=5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME,default=5m"`
	AutoMigrate     bool          `env:"DB_AUTO_MIGRATE,default=true"`
}

// RedisConfig содержит настройки подключения к Redis
// REDIS_ENABLED=false отключает кэширование поездок
type RedisConfig struct {
	Enabled  bool   `env:"REDIS_ENABLED,default=true"`
	Host     string `env:"REDIS_HOST,default=localhost"`
	Port     string `env:"REDIS_PORT,default=6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,default=0"`
}

// JWTConfig содержит настройки проверки токенов сервиса идентификации
type JWTConfig struct {
	SecretKey    string        `env:"JWT_SECRET,default=your-secret-key-change-this-in-production"`
	AccessExpiry time.Duration `env:"JWT_ACCESS_EXPIRY,default=24h"`
}

// CORSConfig содержит настройки CORS
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string

	RawOrigins string `env:"CORS_ALLOWED_ORIGINS,default=*"`
}

// LoggerConfig содержит настройки логирования
type LoggerConfig struct {
	Level  string `env:"LOG_LEVEL,default=info"`
	Format string `env:"LOG_FORMAT,default=json"`  // json или console
	Output string `env:"LOG_OUTPUT,default=stdout"` // stdout или путь к файлу
}

// RateLimitConfig - ограничение частоты запросов к геопоиску (на IP)
type RateLimitConfig struct {
	RequestsPerSecond float64 `env:"RATE_LIMIT_RPS,default=5"`
	Burst             int     `env:"RATE_LIMIT_BURST,default=10"`
}

// NotifyConfig содержит настройки доставки уведомлений
type NotifyConfig struct {
	Driver      string        `env:"NOTIFY_DRIVER,default=log"` // log, fcm, kafka или webhook
	Timeout     time.Duration `env:"NOTIFY_TIMEOUT,default=10s"`
	Concurrency int           `env:"NOTIFY_CONCURRENCY,default=8"`

	FCMCredentialsFile string `env:"FCM_CREDENTIALS_FILE"`

	KafkaBrokers string `env:"KAFKA_BROKERS,default=localhost:9092"`
	KafkaTopic   string `env:"KAFKA_TOPIC,default=rydr.notifications"`

	WebhookURL        string        `env:"NOTIFY_WEBHOOK_URL"`
	WebhookTimeout    time.Duration `env:"NOTIFY_WEBHOOK_TIMEOUT,default=5s"`
	WebhookMaxRetries int           `env:"NOTIFY_WEBHOOK_MAX_RETRIES,default=3"`
}

// TripsConfig содержит правила сервиса поездок
type TripsConfig struct {
	// StatusPolicy: open - статус меняет любой, host - только хост
	StatusPolicy      string        `env:"TRIP_STATUS_POLICY,default=open"`
	NearbyMaxRadiusKm float64       `env:"NEARBY_MAX_RADIUS_KM,default=100"`
	CacheTTL          time.Duration `env:"TRIP_CACHE_TTL,default=5m"`
	NotifyHostOnLeave bool          `env:"NOTIFY_HOST_ON_LEAVE,default=false"`
	NotifyOnCancel    bool          `env:"NOTIFY_ON_CANCEL,default=false"`
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку, если файла нет)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}

	cfg.CORS.AllowedOrigins = splitList(cfg.CORS.RawOrigins)
	cfg.CORS.AllowedMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	cfg.CORS.AllowedHeaders = []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет значения, которые нельзя выразить тегами
func (c *Config) Validate() error {
	switch c.Trips.StatusPolicy {
	case "open", "host":
	default:
		return fmt.Errorf("invalid TRIP_STATUS_POLICY %q: expected open or host", c.Trips.StatusPolicy)
	}

	switch c.Notify.Driver {
	case "log", "kafka":
	case "fcm":
		if c.Notify.FCMCredentialsFile == "" {
			return errors.New("FCM_CREDENTIALS_FILE is required for fcm driver")
		}
	case "webhook":
		if c.Notify.WebhookURL == "" {
			return errors.New("NOTIFY_WEBHOOK_URL is required for webhook driver")
		}
	default:
		return fmt.Errorf("invalid NOTIFY_DRIVER %q", c.Notify.Driver)
	}

	if c.Trips.NearbyMaxRadiusKm <= 0 {
		return errors.New("NEARBY_MAX_RADIUS_KM must be positive")
	}
	if c.Notify.Concurrency < 1 {
		c.Notify.Concurrency = 1
	}

	return nil
}

// DSN возвращает строку подключения к PostgreSQL
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// Address возвращает адрес сервера
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Address возвращает адрес Redis
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Brokers возвращает список Kafka брокеров
func (c *NotifyConfig) Brokers() []string {
	return splitList(c.KafkaBrokers)
}

// splitList разбирает список через запятую, пустые элементы отбрасываются
func splitList(raw string) []string {
	var result []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}
