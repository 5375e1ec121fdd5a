package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Server   ServerConfig
	Auth     AuthConfig
	Raffle   RaffleConfig
	Sweep    SweepConfig
	Queue    QueueConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type ServerConfig struct {
	Port    string
	GinMode string
}

type AuthConfig struct {
	JWTSecret string
	// 付款通知的共用密鑰
	WebhookSecret string
}

// 只在本機開發用過的預設值，正式環境不接受
const insecureJWTSecret = "dev-secret"

var ErrInsecureSecret = errors.New("insecure secret")

// RaffleConfig 抽獎與轉盤的業務參數
type RaffleConfig struct {
	DrawSalt                string
	ReservationMinutes      int
	AdminReservationMinutes int
	SpendThreshold          decimal.Decimal
	SpinsPerThreshold       int
}

// SweepConfig 過期保留清理與自動開獎的觸發頻率
type SweepConfig struct {
	// 多個實例間，懶觸發最少間隔
	GateInterval time.Duration
	// 背景清理間隔；0 表示不啟動
	BackgroundInterval time.Duration
}

type QueueConfig struct {
	// memory、redis，或 sync 表示在請求內直接處理
	Backend    string
	BufferSize int
	// memory 隊列重送的起始延遲，之後每次加倍
	RetryDelay         time.Duration
	ClaimMinIdleTime   time.Duration
	MaxRetryCount      int
	ReadGroupBlockTime time.Duration
}

var AppConfig *Config

func LoadConfig() *Config {
	// .env 不存在時直接使用環境變數
	_ = godotenv.Load()

	AppConfig = &Config{
		Database: GetDatabaseConfig(),
		Redis:    GetRedisConfig(),
		Server:   GetServerConfig(),
		Auth:     GetAuthConfig(),
		Raffle:   GetRaffleConfig(),
		Sweep:    GetSweepConfig(),
		Queue:    GetQueueConfig(),
	}

	return AppConfig
}

// Validate 拒絕空白或預設的密鑰，避免 webhook 與 JWT 在未設定時放行
func (c *Config) Validate() error {
	switch c.Auth.JWTSecret {
	case "", insecureJWTSecret:
		return fmt.Errorf("%w: JWT_SECRET must be set", ErrInsecureSecret)
	}
	if c.Auth.WebhookSecret == "" {
		return fmt.Errorf("%w: WEBHOOK_SECRET must be set", ErrInsecureSecret)
	}
	return nil
}

func LoadTestConfig() *Config {
	testConfig := &DatabaseConfig{
		Host:     getEnv("TEST_DB_HOST", "localhost"),
		Port:     getEnv("TEST_DB_PORT", "5433"), // 測試 DB 用 5433 port
		User:     "postgres",
		Password: "postgres",
		DBName:   "test_db",
		SSLMode:  "disable",
		MaxConns: 25,
		MinConns: 1,
	}

	testRedisConfig := RedisConfig{
		Host:     getEnv("TEST_REDIS_HOST", "localhost"),
		Port:     getEnv("TEST_REDIS_PORT", "6380"), // 測試 Redis 用 6380 port
		Password: "",
		DB:       1,
	}

	return &Config{
		Database: *testConfig,
		Redis:    testRedisConfig,
		Server:   ServerConfig{Port: "8080", GinMode: "test"},
		Auth:     AuthConfig{JWTSecret: "test-secret", WebhookSecret: "test-webhook"},
		Raffle: RaffleConfig{
			DrawSalt:                "test-salt",
			ReservationMinutes:      10,
			AdminReservationMinutes: 30,
			SpendThreshold:          decimal.NewFromInt(200),
			SpinsPerThreshold:       10,
		},
		Sweep: SweepConfig{GateInterval: 0},
		Queue: QueueConfig{Backend: "memory", BufferSize: 16, RetryDelay: 10 * time.Millisecond},
	}
}

func GetDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "postgres"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(getEnvInt("DB_MAX_CONNS", 25)),
		MinConns: int32(getEnvInt("DB_MIN_CONNS", 5)),
	}
}

func GetRedisConfig() RedisConfig {
	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		panic(err)
	}

	return RedisConfig{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       db,
	}
}

func GetServerConfig() ServerConfig {
	return ServerConfig{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "release"),
	}
}

func GetAuthConfig() AuthConfig {
	return AuthConfig{
		JWTSecret:     getEnv("JWT_SECRET", ""),
		WebhookSecret: getEnv("WEBHOOK_SECRET", ""),
	}
}

func GetRaffleConfig() RaffleConfig {
	threshold, err := decimal.NewFromString(getEnv("SPEND_THRESHOLD", "200"))
	if err != nil {
		panic(err)
	}

	return RaffleConfig{
		DrawSalt:                getEnv("DRAW_SALT", "raffle-salt"),
		ReservationMinutes:      getEnvInt("RESERVATION_MINUTES", 10),
		AdminReservationMinutes: getEnvInt("ADMIN_RESERVATION_MINUTES", 30),
		SpendThreshold:          threshold,
		SpinsPerThreshold:       getEnvInt("SPINS_PER_THRESHOLD", 10),
	}
}

func GetSweepConfig() SweepConfig {
	return SweepConfig{
		GateInterval:       getEnvDuration("SWEEP_GATE_INTERVAL", 5*time.Second),
		BackgroundInterval: getEnvDuration("SWEEP_INTERVAL", 0),
	}
}

func GetQueueConfig() QueueConfig {
	return QueueConfig{
		Backend:            getEnv("SETTLEMENT_QUEUE", "sync"),
		BufferSize:         getEnvInt("SETTLEMENT_QUEUE_BUFFER", 256),
		RetryDelay:         getEnvDuration("SETTLEMENT_RETRY_DELAY", time.Second),
		ClaimMinIdleTime:   getEnvDuration("SETTLEMENT_CLAIM_MIN_IDLE", 5*time.Second),
		MaxRetryCount:      getEnvInt("SETTLEMENT_MAX_RETRY", 5),
		ReadGroupBlockTime: getEnvDuration("SETTLEMENT_BLOCK_TIME", 2*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		panic(err)
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		panic(err)
	}
	return d
}
