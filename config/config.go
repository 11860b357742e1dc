package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	HTTP    ServerConfig
	MySQL   MySQLConfig
	Log     LogConfig
	Bkash   GatewayConfig
	Nagad   GatewayConfig
	Refunds RefundsConfig
	Jobs    JobsConfig
}

type AppConfig struct {
	ServiceName string
	APIKey      string
}

type ServerConfig struct {
	Host string
	Port string
}

type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LogConfig struct {
	Level string
}

type GatewayConfig struct {
	BaseURL     string
	Username    string
	Password    string
	AppKey      string
	HTTPTimeout time.Duration
}

type RefundsConfig struct {
	GatewayTimeout       time.Duration
	ProcessingStuckAfter time.Duration
	JobBatchSize         int32
}

type JobsConfig struct {
	SweepProcessingInterval time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	return &Config{
		App: AppConfig{
			ServiceName: getEnv("APP_SERVICE_NAME", "refunds-service"),
			APIKey:      getEnv("APP_API_KEY", ""),
		},
		HTTP: ServerConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnv("HTTP_PORT", "8080"),
		},
		MySQL: MySQLConfig{
			DSN:             mysqlDSN,
			MaxOpenConns:    getIntEnv("MYSQL_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getIntEnv("MYSQL_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getMinutesEnv("MYSQL_CONN_MAX_LIFETIME_MINUTES", 30*time.Minute),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Bkash: GatewayConfig{
			BaseURL:     getEnv("BKASH_BASE_URL", ""),
			Username:    getEnv("BKASH_USERNAME", ""),
			Password:    getEnv("BKASH_PASSWORD", ""),
			AppKey:      getEnv("BKASH_APP_KEY", ""),
			HTTPTimeout: getSecondsEnv("BKASH_HTTP_TIMEOUT_SECONDS", 10*time.Second),
		},
		Nagad: GatewayConfig{
			BaseURL:     getEnv("NAGAD_BASE_URL", ""),
			Username:    getEnv("NAGAD_USERNAME", ""),
			Password:    getEnv("NAGAD_PASSWORD", ""),
			AppKey:      getEnv("NAGAD_APP_KEY", ""),
			HTTPTimeout: getSecondsEnv("NAGAD_HTTP_TIMEOUT_SECONDS", 10*time.Second),
		},
		Refunds: RefundsConfig{
			GatewayTimeout:       getSecondsEnv("REFUNDS_GATEWAY_TIMEOUT_SECONDS", 30*time.Second),
			ProcessingStuckAfter: getMinutesEnv("REFUNDS_PROCESSING_STUCK_AFTER_MINUTES", 30*time.Minute),
			JobBatchSize:         int32(getIntEnv("REFUNDS_JOB_BATCH_SIZE", 100)),
		},
		Jobs: JobsConfig{
			SweepProcessingInterval: getMinutesEnv("REFUNDS_SWEEP_PROCESSING_INTERVAL_MINUTES", 5*time.Minute),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getMinutesEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getSecondsEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
