package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server    ServerConfig
	Worker    WorkerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	MinIO     MinIOConfig
	RabbitMQ  RabbitMQConfig
	Catalog   CatalogConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Lock      LockConfig
}

type ServerConfig struct {
	Port            int           `envconfig:"API_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"API_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"API_WRITE_TIMEOUT" default:"90s"`
	ShutdownTimeout time.Duration `envconfig:"API_SHUTDOWN_TIMEOUT" default:"10s"`
}

type WorkerConfig struct {
	MaxRetries      int           `envconfig:"WORKER_MAX_RETRIES" default:"3"`
	ShutdownTimeout time.Duration `envconfig:"WORKER_SHUTDOWN_TIMEOUT" default:"30s"`
}

type DatabaseConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"movies"`
	Password string `envconfig:"POSTGRES_PASSWORD" default:"movies"`
	DBName   string `envconfig:"POSTGRES_DB" default:"movies"`
	SSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// MinIOConfig configures collection exports. Exports are disabled when Endpoint is empty.
type MinIOConfig struct {
	Endpoint       string        `envconfig:"MINIO_ENDPOINT" default:"localhost:9000"`
	PublicEndpoint string        `envconfig:"MINIO_PUBLIC_ENDPOINT" default:""`
	AccessKey      string        `envconfig:"MINIO_ACCESS_KEY" default:"minioadmin"`
	SecretKey      string        `envconfig:"MINIO_SECRET_KEY" default:"minioadmin"`
	Bucket         string        `envconfig:"MINIO_BUCKET" default:"collection-exports"`
	UseSSL         bool          `envconfig:"MINIO_USE_SSL" default:"false"`
	CreateBucket   bool          `envconfig:"MINIO_CREATE_BUCKET" default:"true"`
	URLExpiry      time.Duration `envconfig:"EXPORT_URL_EXPIRY" default:"15m"`
}

func (c MinIOConfig) Enabled() bool {
	return c.Endpoint != ""
}

// RabbitMQConfig configures the page prefetch queue. Prefetch is disabled when Host is empty.
type RabbitMQConfig struct {
	Host       string        `envconfig:"RABBITMQ_HOST" default:"localhost"`
	Port       int           `envconfig:"RABBITMQ_PORT" default:"5672"`
	User       string        `envconfig:"RABBITMQ_USER" default:"movies"`
	Password   string        `envconfig:"RABBITMQ_PASSWORD" default:"movies"`
	VHost      string        `envconfig:"RABBITMQ_VHOST" default:"/"`
	Queue      string        `envconfig:"RABBITMQ_QUEUE" default:"warm_page_tasks"`
	Prefetch   int           `envconfig:"RABBITMQ_PREFETCH" default:"4"`
	MessageTTL time.Duration `envconfig:"RABBITMQ_MESSAGE_TTL" default:"5m"`
}

func (c RabbitMQConfig) URL() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%d%s",
		c.User, c.Password, c.Host, c.Port, c.VHost,
	)
}

func (c RabbitMQConfig) Enabled() bool {
	return c.Host != ""
}

type CatalogConfig struct {
	URL             string        `envconfig:"CATALOG_URL" required:"true"`
	Username        string        `envconfig:"CATALOG_USERNAME"`
	Password        string        `envconfig:"CATALOG_PASSWORD"`
	Timeout         time.Duration `envconfig:"CATALOG_TIMEOUT" default:"10s"`
	MaxAttempts     int           `envconfig:"CATALOG_MAX_ATTEMPTS" default:"5"`
	BaseDelay       time.Duration `envconfig:"CATALOG_BASE_DELAY" default:"1s"`
	CacheTTL        time.Duration `envconfig:"CATALOG_CACHE_TTL" default:"1h"`
	RequestsPerSec  float64       `envconfig:"CATALOG_RPS" default:"5"`
	Burst           int           `envconfig:"CATALOG_BURST" default:"5"`
	BreakerFailures uint32        `envconfig:"CATALOG_BREAKER_FAILURES" default:"5"`
	BreakerCooldown time.Duration `envconfig:"CATALOG_BREAKER_COOLDOWN" default:"30s"`
}

type AuthConfig struct {
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`
}

type LockConfig struct {
	TTL           time.Duration `envconfig:"COLLECTION_LOCK_TTL" default:"30s"`
	WaitTimeout   time.Duration `envconfig:"COLLECTION_LOCK_WAIT_TIMEOUT" default:"10s"`
	RetryInterval time.Duration `envconfig:"COLLECTION_LOCK_RETRY_INTERVAL" default:"50ms"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
