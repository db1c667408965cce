package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds application configuration
type Config struct {
	Port                  string
	DBConn                string
	LogLevel              string
	JWTSecret             string
	RatesURL              string
	ReminderCron          string
	ReminderDaysAhead     int
	AdvisorMaxInterestPct decimal.Decimal
	SMTPHost              string
	SMTPPort              string
	SMTPUsername          string
	SMTPPassword          string
	SenderEmail           string
}

// NewConfig loads configuration from the environment, reading an optional
// .env file first
func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	maxInterest, err := decimal.NewFromString(getEnv("ADVISOR_MAX_INTEREST_PCT", "5"))
	if err != nil {
		return nil, fmt.Errorf("ADVISOR_MAX_INTEREST_PCT must be a decimal: %w", err)
	}

	daysAhead, err := strconv.Atoi(getEnv("REMINDER_DAYS_AHEAD", "3"))
	if err != nil {
		return nil, fmt.Errorf("REMINDER_DAYS_AHEAD must be an integer: %w", err)
	}

	cfg := &Config{
		Port:                  getEnv("PORT", "8080"),
		DBConn:                getEnv("DB_CONN", "host=localhost port=5432 user=fintrack password=fintrack dbname=fintrack sslmode=disable"),
		LogLevel:              getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:             getEnv("JWT_SECRET", "secret"),
		RatesURL:              getEnv("RATES_URL", "https://www.sbs.gob.pe/app/pp/SISTIP_PORTAL/Paginas/Publicacion/TipoCambioPromedio.asmx"),
		ReminderCron:          getEnv("REMINDER_CRON", "0 9 * * *"),
		ReminderDaysAhead:     daysAhead,
		AdvisorMaxInterestPct: maxInterest,
		SMTPHost:              getEnv("SMTP_HOST", "localhost"),
		SMTPPort:              getEnv("SMTP_PORT", "587"),
		SMTPUsername:          getEnv("SMTP_USERNAME", ""),
		SMTPPassword:          getEnv("SMTP_PASSWORD", ""),
		SenderEmail:           getEnv("SENDER_EMAIL", "no-reply@fintrack.local"),
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if !cfg.AdvisorMaxInterestPct.IsPositive() {
		return nil, fmt.Errorf("ADVISOR_MAX_INTEREST_PCT must be greater than 0")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
