package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string
	JWTSecret  string

	// DefaultCourier is used when a checkout request does not name one.
	DefaultCourier string

	// PaymentDeadline is how long an order may sit with a PENDING
	// payment before the sweeper expires it.
	PaymentDeadline time.Duration

	// SweepInterval is how often the stale-payment sweeper runs.
	SweepInterval time.Duration
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:          os.Getenv("DB_HOST"),
		DBUser:          os.Getenv("DB_USER"),
		DBPassword:      os.Getenv("DB_PASSWORD"),
		DBName:          os.Getenv("DB_NAME"),
		DBPort:          os.Getenv("DB_PORT"),
		AppPort:         os.Getenv("APP_PORT"),
		AppEnv:          os.Getenv("APP_ENV"),
		JWTSecret:       os.Getenv("SECRET_KEY"),
		DefaultCourier:  os.Getenv("DEFAULT_COURIER"),
		PaymentDeadline: durationEnv("PAYMENT_DEADLINE_HOURS", 24) * time.Hour,
		SweepInterval:   durationEnv("SWEEP_INTERVAL_MINUTES", 15) * time.Minute,
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	if cfg.DefaultCourier == "" {
		cfg.DefaultCourier = "jne"
	}

	return cfg
}

func durationEnv(key string, fallback int64) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return time.Duration(fallback)
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return time.Duration(fallback)
	}

	return time.Duration(n)
}
