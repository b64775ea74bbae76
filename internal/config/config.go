package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var defaultTaxRate = decimal.RequireFromString("0.10")

type Config struct {
	Port                  string
	AllowedOrigin         string
	AppEnv                string
	LogLevel              string
	DatabaseURL           string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	OrderCacheTTLSeconds  int
	AuthSecret            string
	AccessTokenTTLMinutes int
	ManagerPIN            string
	TaxRate               decimal.Decimal
	PointsPerDollar       int
	RedemptionRate        int
	CheckoutMaxRetries    int
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	cfg := Config{
		Port:                  getEnv("PORT", "8080"),
		AllowedOrigin:         getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		AppEnv:                getEnv("APP_ENV", "development"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               redisDB,
		OrderCacheTTLSeconds:  getPositiveInt("ORDER_CACHE_TTL_SECONDS", 60),
		AuthSecret:            strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes: getPositiveInt("ACCESS_TOKEN_TTL_MINUTES", 480),
		ManagerPIN:            strings.TrimSpace(os.Getenv("MANAGER_PIN")),
		TaxRate:               getTaxRate(),
		RedemptionRate:        getPositiveInt("REDEMPTION_RATE", 100),
		CheckoutMaxRetries:    getPositiveInt("CHECKOUT_MAX_RETRIES", 3),
	}

	// zero is allowed and disables accrual
	ppd, err := strconv.Atoi(getEnv("POINTS_PER_DOLLAR", "1"))
	if err != nil || ppd < 0 {
		ppd = 1
	}
	cfg.PointsPerDollar = ppd

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func getPositiveInt(key string, fallback int) int {
	val, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil || val < 1 {
		return fallback
	}
	return val
}

func getTaxRate() decimal.Decimal {
	raw := strings.TrimSpace(os.Getenv("TAX_RATE"))
	if raw == "" {
		return defaultTaxRate
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil || rate.IsNegative() {
		return defaultTaxRate
	}
	return rate
}
