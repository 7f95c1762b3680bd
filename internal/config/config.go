package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	App      AppConfig
	Gateway  GatewayConfig
	Bonus    BonusConfig
	Betting  BettingConfig
	Poller   PollerConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port string
}

// AppConfig holds application-specific settings
type AppConfig struct {
	JWTSecret string
}

// GatewayConfig holds PIX payment gateway settings
type GatewayConfig struct {
	BaseURL       string
	APIKey        string
	WebhookSecret string
	MinDeposit    decimal.Decimal
}

// BonusConfig holds promotional bonus settings
type BonusConfig struct {
	SignupEnabled       bool
	SignupAmount        decimal.Decimal
	FirstDepositEnabled bool
	FirstDepositPercent decimal.Decimal
	FirstDepositMax     decimal.Decimal
	RolloverMultiplier  decimal.Decimal
	ExpirationDays      int
}

// BettingConfig holds wager limits
type BettingConfig struct {
	MinStake          decimal.Decimal
	MaxPayout         decimal.Decimal
	BonusAutoFallback bool
}

// PollerConfig holds the background reconciliation job settings
type PollerConfig struct {
	Interval   time.Duration
	StaleAfter time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "bicho_platform"),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		App: AppConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Gateway: GatewayConfig{
			BaseURL:       getEnv("GATEWAY_BASE_URL", "https://api.pixprovider.com"),
			APIKey:        getEnv("GATEWAY_API_KEY", ""),
			WebhookSecret: getEnv("GATEWAY_WEBHOOK_SECRET", ""),
			MinDeposit:    getDecimalEnv("GATEWAY_MIN_DEPOSIT", "10.00"),
		},
		Bonus: BonusConfig{
			SignupEnabled:       getBoolEnv("BONUS_SIGNUP_ENABLED", true),
			SignupAmount:        getDecimalEnv("BONUS_SIGNUP_AMOUNT", "10.00"),
			FirstDepositEnabled: getBoolEnv("BONUS_FIRST_DEPOSIT_ENABLED", true),
			FirstDepositPercent: getDecimalEnv("BONUS_FIRST_DEPOSIT_PERCENT", "100"),
			FirstDepositMax:     getDecimalEnv("BONUS_FIRST_DEPOSIT_MAX", "200.00"),
			RolloverMultiplier:  getDecimalEnv("BONUS_ROLLOVER_MULTIPLIER", "3"),
			ExpirationDays:      getIntEnv("BONUS_EXPIRATION_DAYS", 30),
		},
		Betting: BettingConfig{
			MinStake:          getDecimalEnv("BET_MIN_STAKE", "0.50"),
			MaxPayout:         getDecimalEnv("BET_MAX_PAYOUT", "50000.00"),
			BonusAutoFallback: getBoolEnv("BET_BONUS_AUTO_FALLBACK", true),
		},
		Poller: PollerConfig{
			Interval:   getDurationEnv("POLLER_INTERVAL", 2*time.Minute),
			StaleAfter: getDurationEnv("POLLER_STALE_AFTER", 5*time.Minute),
		},
	}

	// Validate required fields
	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if config.Gateway.APIKey == "" || config.Gateway.WebhookSecret == "" {
		return nil, fmt.Errorf("payment gateway credentials are required")
	}

	return config, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDecimalEnv(key, defaultValue string) decimal.Decimal {
	value, err := decimal.NewFromString(getEnv(key, defaultValue))
	if err != nil {
		return decimal.RequireFromString(defaultValue)
	}
	return value
}

func getIntEnv(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getBoolEnv(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}
