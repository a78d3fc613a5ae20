package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	DBUrl                string
	RedisURL             string
	RedisPassword        string
	JWTSecret            string
	DefaultCurrency      string
	MinTransactionAmount decimal.Decimal
	MaxActiveKeys        int
	Port                 string
	Host                 string
	Env                  string
	AllowedOrigins       []string
}

func LoadConfig() Config {
	godotenv.Load()

	minAmountStr := getEnv("MIN_TRANSACTION_AMOUNT")
	minAmount, err := decimal.NewFromString(minAmountStr)
	if err != nil {
		panic("MIN_TRANSACTION_AMOUNT must be a valid decimal amount")
	}

	maxKeys, err := strconv.Atoi(getEnvOr("MAX_ACTIVE_KEYS", "5"))
	if err != nil {
		panic("MAX_ACTIVE_KEYS must be a valid integer")
	}

	return Config{
		DBUrl:                getEnv("DATABASE_URL"),
		RedisURL:             getEnv("REDIS_URL"),
		RedisPassword:        getEnvOr("REDIS_PASSWORD", ""),
		JWTSecret:            getEnv("JWT_SECRET"),
		DefaultCurrency:      getEnvOr("DEFAULT_CURRENCY", "PKR"),
		MinTransactionAmount: minAmount,
		MaxActiveKeys:        maxKeys,
		Port:                 getEnv("PORT"),
		Host:                 getEnv("HOST"),
		Env:                  getEnv("ENV"),
		AllowedOrigins:       strings.Split(getEnv("ALLOWED_ORIGINS"), ","),
	}
}

func getEnv(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	panic(fmt.Sprintf("%s is required", key))
}

func getEnvOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
