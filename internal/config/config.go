package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Text moderation service
	ModerationAPIKey  string
	ModerationAPIURL  string
	ModerationTimeout time.Duration

	// Screening worker
	WorkerEnabled   bool
	WorkerInterval  time.Duration
	WorkerBatchSize int

	// Screening heuristics. Inherited from the original risk model with no
	// documented derivation, so they live here instead of as magic numbers.
	Screening ScreeningConfig

	// Admin
	AdminEmails  string
	AdminUserIDs string
	AdminToken   string

	// Server
	Port        string
	CORSOrigins string
}

// ScreeningConfig holds the risk thresholds and fraud-score weights used by
// the sync checker, the fraud scorer and the rules engine.
type ScreeningConfig struct {
	SyncBlockThreshold  float64
	SyncReviewThreshold float64

	// LargeGoalAmount is in minor currency units; goals above it are "large".
	LargeGoalAmount int64

	FraudSyncWeight           float64
	FraudLargeGoalWeight      float64
	FraudYoungAccountWeight   float64
	FraudMissingContextWeight float64
	FraudLongWindowWeight     float64
	YoungAccountAge           time.Duration
	LongWindowDays            int

	FraudBlockThreshold  float64
	FraudReviewThreshold float64

	RulesBlockThreshold  float64
	RulesReviewThreshold float64
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "screening_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"), 15*time.Minute),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h"), 168*time.Hour),

		ModerationAPIKey:  getEnv("MODERATION_API_KEY", ""),
		ModerationAPIURL:  getEnv("MODERATION_API_URL", "https://api.openai.com/v1/moderations"),
		ModerationTimeout: parseDuration(getEnv("MODERATION_TIMEOUT", "10s"), 10*time.Second),

		WorkerEnabled:   getEnv("SCREENING_WORKER_ENABLED", "true") == "true",
		WorkerInterval:  parseDuration(getEnv("SCREENING_WORKER_INTERVAL", "30s"), 30*time.Second),
		WorkerBatchSize: parseInt(getEnv("SCREENING_WORKER_BATCH_SIZE", "5"), 5),

		Screening: LoadScreeningConfig(),

		AdminEmails:  getEnv("ADMIN_EMAILS", ""),
		AdminUserIDs: getEnv("ADMIN_USER_IDS", ""),
		AdminToken:   getEnv("ADMIN_TOKEN", ""),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
	}
}

func LoadScreeningConfig() ScreeningConfig {
	return ScreeningConfig{
		SyncBlockThreshold:  parseFloat(getEnv("SYNC_BLOCK_THRESHOLD", "0.75"), 0.75),
		SyncReviewThreshold: parseFloat(getEnv("SYNC_REVIEW_THRESHOLD", "0.40"), 0.40),

		LargeGoalAmount: parseInt64(getEnv("LARGE_GOAL_AMOUNT", "1000000"), 1_000_000),

		FraudSyncWeight:           parseFloat(getEnv("FRAUD_SYNC_WEIGHT", "0.40"), 0.40),
		FraudLargeGoalWeight:      parseFloat(getEnv("FRAUD_LARGE_GOAL_WEIGHT", "0.25"), 0.25),
		FraudYoungAccountWeight:   parseFloat(getEnv("FRAUD_YOUNG_ACCOUNT_WEIGHT", "0.20"), 0.20),
		FraudMissingContextWeight: parseFloat(getEnv("FRAUD_MISSING_CONTEXT_WEIGHT", "0.15"), 0.15),
		FraudLongWindowWeight:     parseFloat(getEnv("FRAUD_LONG_WINDOW_WEIGHT", "0.10"), 0.10),
		YoungAccountAge:           parseDuration(getEnv("YOUNG_ACCOUNT_AGE", "336h"), 14*24*time.Hour),
		LongWindowDays:            parseInt(getEnv("LONG_WINDOW_DAYS", "90"), 90),

		FraudBlockThreshold:  parseFloat(getEnv("FRAUD_BLOCK_THRESHOLD", "0.75"), 0.75),
		FraudReviewThreshold: parseFloat(getEnv("FRAUD_REVIEW_THRESHOLD", "0.45"), 0.45),

		RulesBlockThreshold:  parseFloat(getEnv("RULES_BLOCK_THRESHOLD", "0.85"), 0.85),
		RulesReviewThreshold: parseFloat(getEnv("RULES_REVIEW_THRESHOLD", "0.55"), 0.55),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func parseInt64(s string, fallback int64) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func parseFloat(s string, fallback float64) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return f
}
