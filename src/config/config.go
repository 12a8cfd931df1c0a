package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

const TIME_PARSE_FORMAT = "2006-01-02 15:04:05 -07:00"

// HoldTTL is how long a hold keeps seats or quantities reserved before the
// sweeper may reclaim them.
func HoldTTL() time.Duration {
	return durationFromEnv("HOLD_TTL_SECONDS", 600*time.Second)
}

// SweepInterval is the period of the expired-hold sweeper.
func SweepInterval() time.Duration {
	return durationFromEnv("SWEEP_INTERVAL_SECONDS", 60*time.Second)
}

// ServiceFeePercent is added on top of the ticket subtotal at checkout.
func ServiceFeePercent() float64 {
	v := os.Getenv("SERVICE_FEE_PERCENT")
	if v == "" {
		return 10
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 10
	}
	return f
}

func durationFromEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}
