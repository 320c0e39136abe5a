// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING" env-required:"true"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	RabbitMQ                `yaml:"rabbitmq"`
	Hosting                 `yaml:"hosting"`
	Worker                  `yaml:"worker"`
	Billing                 `yaml:"billing"`
	Rewards                 `yaml:"rewards"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	RateLimit   float64       `yaml:"rate_limit" env-default:"20"`
	RateBurst   int           `yaml:"rate_burst" env-default:"40"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env-default:"localhost:6379"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// JWTToken структура для проверки jwt-токенов
type JWTToken struct {
	JWTSecretKey string `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
}

// RabbitMQ настройки подключения к брокеру событий сборки
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"3s"`
	RabbitMQExchange   string        `yaml:"exchange" env-default:"provisioning"`
}

// Hosting настройки клиента API панели
type Hosting struct {
	HostingURL        string        `yaml:"url" env:"HOSTING_URL"`
	HostingAPIKey     string        `yaml:"api_key" env:"HOSTING_API_KEY"`
	HostingTimeout    time.Duration `yaml:"timeout" env-default:"30s"`
	RequestsPerSecond float64       `yaml:"requests_per_second" env-default:"4"`
	Burst             int           `yaml:"burst" env-default:"8"`
}

// Worker настройки воркера очереди
type Worker struct {
	Interval       time.Duration `yaml:"interval" env-default:"1m"`
	Concurrency    int           `yaml:"concurrency" env-default:"4"`
	MaxAttempts    int           `yaml:"max_attempts" env-default:"3"`
	MaxBackoff     time.Duration `yaml:"max_backoff" env-default:"30s"`
	LogRetention   time.Duration `yaml:"log_retention" env-default:"720h"`
	SweepInterval  time.Duration `yaml:"sweep_interval" env-default:"1h"`
	ExpiryInterval time.Duration `yaml:"expiry_interval" env-default:"15m"`
}

// Billing значения по умолчанию для хранилища настроек
type Billing struct {
	RenewalEnabled      bool          `yaml:"renewal_enabled" env-default:"true"`
	RenewalDays         int           `yaml:"renewal_days" env-default:"7"`
	RenewalCost         int64         `yaml:"renewal_cost" env-default:"100"`
	SuspendGraceDays    int           `yaml:"suspend_grace_days" env-default:"3"`
	ProvisioningEnabled bool          `yaml:"provisioning_enabled" env-default:"true"`
	UsageCacheTTL       time.Duration `yaml:"usage_cache_ttl" env-default:"30s"`
}

// Rewards настройки ссылок-вознаграждений
type Rewards struct {
	RewardAmount int64         `yaml:"amount" env-default:"25"`
	LinkTTL      time.Duration `yaml:"link_ttl" env-default:"24h"`
	// Cooldown минимальный интервал между ссылками одного пользователя,
	// считая и погашенные. 0 отключает ограничение.
	Cooldown time.Duration `yaml:"cooldown" env-default:"24h"`
}

// MustLoad функция для загрузки конфига по пути из CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

// Load читает конфиг из файла, переменные окружения имеют приоритет.
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate проверяет значения, которые влияют на баланс кредитов.
func (c *Config) Validate() error {
	switch {
	case c.RenewalCost < 0:
		return fmt.Errorf("billing.renewal_cost must not be negative, got %d", c.RenewalCost)
	case c.RenewalDays <= 0:
		return fmt.Errorf("billing.renewal_days must be positive, got %d", c.RenewalDays)
	case c.SuspendGraceDays < 0:
		return fmt.Errorf("billing.suspend_grace_days must not be negative, got %d", c.SuspendGraceDays)
	case c.RewardAmount <= 0:
		return fmt.Errorf("rewards.amount must be positive, got %d", c.RewardAmount)
	case c.LinkTTL <= 0:
		return fmt.Errorf("rewards.link_ttl must be positive, got %s", c.LinkTTL)
	case c.Cooldown < 0:
		return fmt.Errorf("rewards.cooldown must not be negative, got %s", c.Cooldown)
	}
	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"Hosting:\n"+
			"  URL: %s\n"+
			"  Timeout: %s\n"+
			"Worker:\n"+
			"  Interval: %s\n"+
			"  Concurrency: %d\n"+
			"Billing:\n"+
			"  RenewalEnabled: %t\n"+
			"  RenewalDays: %d\n"+
			"  RenewalCost: %d\n",
		c.Env,
		c.AddressRedis,
		c.DB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.HostingURL,
		c.HostingTimeout,
		c.Interval,
		c.Concurrency,
		c.RenewalEnabled,
		c.RenewalDays,
		c.RenewalCost,
	)
}
