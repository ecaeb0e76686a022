package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppHost  string
	HTTPPort string
	GRPCPort string
	AppEnv   string

	JWTSecret     string
	AdminEmail    string
	AdminPassword string

	// StorageDir - каталог для вложений задач
	StorageDir    string
	MigrationsDir string
	TimeZone      string

	RateLimitPerMinute   int
	StoreTimeout         time.Duration
	OverdueCheckInterval time.Duration

	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Database string
		SSLMode  string
	}

	RabbitMQ struct {
		Host     string
		Port     string
		User     string
		Password string
		Queue    string
	}

	Redis struct {
		Addr string
		Key  string
		TTL  time.Duration
	}
}

func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg := &Config{
		AppHost:       getEnv("APP_HOST", "0.0.0.0"),
		HTTPPort:      firstEnv("APP_PORT", "HTTP_PORT", "8080"),
		GRPCPort:      getEnv("GRPC_PORT", "9090"),
		AppEnv:        getEnv("APP_ENV", "development"),
		JWTSecret:     getEnv("JWT_SECRET_KEY", ""),
		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		StorageDir:    getEnv("STORAGE_DIR", "var/attachments"),
		MigrationsDir: getEnv("MIGRATIONS_DIR", "migrations"),
		TimeZone:      getEnv("TZ", "Local"),
	}
	cfg.DB.Host = getEnv("DB_HOST", "localhost")
	cfg.DB.Port = getEnv("DB_PORT", "5432")
	cfg.DB.User = getEnv("DB_USER", "postgres")
	cfg.DB.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.DB.Database = firstEnv("DB_NAME", "DB_DATABASE", "service_tasks")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.RabbitMQ.Host = getEnv("RABBITMQ_HOST", "localhost")
	cfg.RabbitMQ.Port = getEnv("RABBITMQ_PORT", "5672")
	cfg.RabbitMQ.User = getEnv("RABBITMQ_USER", "guest")
	cfg.RabbitMQ.Password = getEnv("RABBITMQ_PASSWORD", "guest")
	cfg.RabbitMQ.Queue = getEnv("RABBITMQ_QUEUE", "task_events")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "")
	cfg.Redis.Key = getEnv("REDIS_DASHBOARD_KEY", "dashboard:latest")

	var err error
	if cfg.RateLimitPerMinute, err = getInt("RATE_LIMIT_PER_MINUTE", 120); err != nil {
		return nil, err
	}
	if cfg.StoreTimeout, err = getDuration("STORE_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.OverdueCheckInterval, err = getDuration("OVERDUE_CHECK_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Redis.TTL, err = getDuration("REDIS_DASHBOARD_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DB.Host == "" || c.DB.Database == "" {
		return errors.New("config: DB_HOST and DB_NAME are required")
	}
	if c.AppEnv == "production" {
		if c.DB.Password == "" {
			return errors.New("config: in production DB_PASSWORD is required")
		}
		if c.JWTSecret == "" {
			return errors.New("config: in production JWT_SECRET_KEY is required")
		}
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return errors.New("config: ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	if c.RateLimitPerMinute <= 0 {
		return errors.New("config: RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.StoreTimeout <= 0 || c.OverdueCheckInterval <= 0 {
		return errors.New("config: STORE_TIMEOUT and OVERDUE_CHECK_INTERVAL must be positive")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("config: TZ: %w", err)
	}
	return nil
}

// Location - часовой пояс для календарных дней аналитики
func (c *Config) Location() (*time.Location, error) {
	if c.TimeZone == "" || c.TimeZone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.TimeZone)
}

func (c *Config) DatabaseURL() string {
	pass := url.QueryEscape(c.DB.Password)
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DB.User, pass, c.DB.Host, c.DB.Port, c.DB.Database, c.DB.SSLMode)
}

func (c *Config) RabbitMQURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		url.QueryEscape(c.RabbitMQ.User), url.QueryEscape(c.RabbitMQ.Password), c.RabbitMQ.Host, c.RabbitMQ.Port)
}

func (c *Config) HTTPAddr() string {
	return c.AppHost + ":" + c.HTTPPort
}

func (c *Config) GRPCAddr() string {
	return c.AppHost + ":" + c.GRPCPort
}

func firstEnv(keysAndDef ...string) string {
	if len(keysAndDef) == 0 {
		return ""
	}
	def := keysAndDef[len(keysAndDef)-1]
	for _, k := range keysAndDef[:len(keysAndDef)-1] {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}
