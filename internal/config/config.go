// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"slices"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string  `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string  `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING" env-required:"true"`
	MigrationsPath          string  `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	AdminIDs                []int64 `yaml:"admin_ids" env:"ADMIN_IDS" env-separator:","`
	WebAppURL               string  `yaml:"webapp_url" env:"WEBAPP_URL" env-default:"https://localhost"`
	Telegram                `yaml:"telegram"`
	ObjectStorage           `yaml:"object_storage"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitMQ                `yaml:"rabbitmq"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	Auth                    `yaml:"auth"`
	Pricing                 `yaml:"pricing"`
	Features                `yaml:"features"`
	Scheduler               `yaml:"scheduler"`
}

// Telegram структура для настройки бота
type Telegram struct {
	BotToken      string `yaml:"bot_token" env:"BOT_TOKEN" env-required:"true"`
	ChannelID     int64  `yaml:"channel_id" env:"CHANNEL_ID" env-required:"true"`
	WebhookURL    string `yaml:"webhook_url" env:"WEBHOOK_URL"`
	WebhookSecret string `yaml:"webhook_secret" env:"WEBHOOK_SECRET"`
	APIURL        string `yaml:"api_url" env:"TELEGRAM_API_URL" env-default:"https://api.telegram.org"`
}

// ObjectStorage структура для настройки S3-совместимого хранилища скриншотов.
// AccessKey и SecretKey образуют одну пару учётных данных S3.
type ObjectStorage struct {
	Endpoint  string `yaml:"endpoint" env:"S3_ENDPOINT" env-required:"true"`
	AccessKey string `yaml:"access_key" env:"S3_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"S3_SECRET_KEY"`
	Bucket    string `yaml:"bucket" env:"S3_BUCKET" env-default:"capturas"`
	UseSSL    bool   `yaml:"use_ssl" env:"S3_USE_SSL" env-default:"true"`
	PublicURL string `yaml:"public_url" env:"S3_PUBLIC_URL"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user" env:"REDIS_USER"`
	DB           int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	MaxRetries   int           `yaml:"max_retries" env:"REDIS_MAX_RETRIES" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env:"REDIS_TIMEOUT" env-default:"3s"`
	SessionTTL   time.Duration `yaml:"session_ttl" env:"REDIS_SESSION_TTL" env-default:"24h"`
}

// RabbitMQ структура для настройки очереди уведомлений.
// Пустой URL означает прямую отправку уведомлений через Telegram.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env:"RABBITMQ_MAX_RETRIES" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env:"RABBITMQ_RETRY_DELAY" env-default:"3s"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env:"HTTP_TIMEOUT" env-default:"30s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	RateLimit   float64       `yaml:"rate_limit" env:"HTTP_RATE_LIMIT" env-default:"20"`
	RateBurst   int           `yaml:"rate_burst" env:"HTTP_RATE_BURST" env-default:"40"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env:"JWT_TOKEN_TTL" env-default:"24h"`
}

// Auth определяет, допускается ли устаревший режим, в котором
// идентификатор из тела запроса считается доказательством личности.
type Auth struct {
	AllowBareIdentifier bool          `yaml:"allow_bare_identifier" env:"AUTH_ALLOW_BARE_IDENTIFIER" env-default:"true"`
	InitDataMaxAge      time.Duration `yaml:"init_data_max_age" env:"AUTH_INIT_DATA_MAX_AGE" env-default:"24h"`
}

// Pricing задаёт канонический прайс. AdjustmentPercent = 0: фиксированные цены.
type Pricing struct {
	AdjustmentPercent int   `yaml:"adjustment_percent" env:"PRICING_ADJUSTMENT_PERCENT" env-default:"0"`
	LedgerAdminID     int64 `yaml:"ledger_admin_id" env:"LEDGER_ADMIN_ID"`
}

// Features включает необязательные подсистемы.
type Features struct {
	Suggestions bool `yaml:"suggestions" env:"FEATURE_SUGGESTIONS" env-default:"true"`
	Commission  bool `yaml:"commission" env:"FEATURE_COMMISSION" env-default:"true"`
}

// Scheduler настраивает напоминания об окончании подписки.
type Scheduler struct {
	Cron         string `yaml:"cron" env:"SCHEDULER_CRON" env-default:"0 0 10 * * *"`
	ReminderDays []int  `yaml:"reminder_days" env:"SCHEDULER_REMINDER_DAYS" env-separator:"," env-default:"5,3,1"`
}

// MustLoad загружает конфиг из файла CONFIG_PATH, если он задан,
// иначе только из переменных окружения (с учётом .env).
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// Load читает конфигурацию и возвращает ошибку вместо завершения процесса.
func Load() (*Config, error) {
	const op = "config.Load"
	_ = godotenv.Load()

	var cfg Config
	configPath := os.Getenv("CONFIG_PATH")
	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: file %s does not exist", op, configPath)
		}
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if cfg.LedgerAdminID == 0 && len(cfg.AdminIDs) > 0 {
		cfg.LedgerAdminID = cfg.AdminIDs[0]
	}
	return &cfg, nil
}

// validate проверяет зависимые друг от друга параметры.
func (c *Config) validate() error {
	if c.WebhookURL != "" && c.WebhookSecret == "" {
		return errors.New("webhook_secret is required when webhook_url is set")
	}
	if !c.AllowBareIdentifier && c.JWTSecretKey == "" {
		return errors.New("jwt_secret_key is required when allow_bare_identifier is disabled")
	}
	return nil
}

// IsAdmin сообщает, входит ли идентификатор в статический список администраторов.
func (c *Config) IsAdmin(id int64) bool {
	return slices.Contains(c.AdminIDs, id)
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"Admins: %d\n"+
			"ChannelID: %d\n"+
			"WebhookURL: %s\n"+
			"ObjectStorage: %s/%s\n"+
			"Redis: %s (db %d)\n"+
			"RabbitMQ enabled: %t\n"+
			"HTTPServer: %s\n"+
			"Features: suggestions=%t commission=%t\n",
		c.Env,
		len(c.AdminIDs),
		c.ChannelID,
		c.WebhookURL,
		c.Endpoint,
		c.Bucket,
		c.AddressRedis,
		c.DB,
		c.RabbitMQURL != "",
		c.AddressHTTP,
		c.Suggestions,
		c.Commission,
	)
}
