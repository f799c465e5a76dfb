package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Env struct {
	AppAddr string
	GinMode string

	DBDSN string

	JWTSecret string

	// Booking / refund policy.
	RefundWindow          time.Duration
	CustomerRefundPercent int
	PendingPaymentTimeout time.Duration

	// Connection governor thresholds.
	MaxConnectionsPerUser int
	MaxRoomJoinsPerUser   int
	AttemptsPerSecond     float64
	AttemptBurst          int
	BlockDuration         time.Duration
	DisconnectGrace       time.Duration

	// Hub housekeeping.
	IdleThreshold time.Duration
	SweepInterval time.Duration
}

func LoadEnv() Env {
	appAddr := strings.TrimSpace(os.Getenv("APP_ADDR"))
	if appAddr == "" {
		appAddr = ":8080"
	}

	return Env{
		AppAddr: appAddr,
		GinMode: strings.TrimSpace(os.Getenv("GIN_MODE")),

		DBDSN: strings.TrimSpace(os.Getenv("DB_DSN")),

		JWTSecret: envString("JWT_SECRET", "super-secret-key-change-me"),

		RefundWindow:          envDuration("REFUND_WINDOW", 48*time.Hour),
		CustomerRefundPercent: envInt("CUSTOMER_REFUND_PERCENT", 90),
		PendingPaymentTimeout: envDuration("PENDING_PAYMENT_TIMEOUT", 15*time.Minute),

		MaxConnectionsPerUser: envInt("MAX_CONNECTIONS_PER_USER", 3),
		MaxRoomJoinsPerUser:   envInt("MAX_ROOM_JOINS_PER_USER", 10),
		AttemptsPerSecond:     envFloat("CONNECT_ATTEMPTS_PER_SECOND", 1),
		AttemptBurst:          envInt("CONNECT_ATTEMPT_BURST", 5),
		BlockDuration:         envDuration("BLOCK_DURATION", 5*time.Minute),
		DisconnectGrace:       envDuration("DISCONNECT_GRACE", 2*time.Second),

		IdleThreshold: envDuration("IDLE_THRESHOLD", 10*time.Minute),
		SweepInterval: envDuration("SWEEP_INTERVAL", time.Minute),
	}
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return def
	}
	return f
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
