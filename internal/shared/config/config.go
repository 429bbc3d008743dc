package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for our application
type Config struct {
	// Server configuration
	Port           string
	GinMode        string
	APIVersion     string
	APIPrefix      string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int

	// Database configuration
	Database DatabaseConfig

	// Redis configuration
	Redis RedisConfig

	// Reservation engine configuration
	Booking BookingConfig

	// Kafka configuration
	Kafka KafkaConfig

	// Rate limiting
	RateLimit RateLimitConfig

	// Logging
	LogLevel string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	DSN      string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Addr     string
}

// BookingConfig holds reservation-engine tunables
type BookingConfig struct {
	// Checkout seat hold lifetime and the sweeper that reclaims lapsed holds
	SeatHoldTTL       time.Duration
	HoldSweepInterval time.Duration

	// Payment window after commit and the sweeper that cancels unpaid bookings
	PaymentWindow      time.Duration
	ExpirySweepInterval time.Duration

	// Per-passenger fees in the smallest currency unit
	AdminFee   int64
	ServiceFee int64

	// Booking code generation retry bound on collision
	CodeAttempts int
}

// KafkaConfig holds Kafka producer configuration
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// RateLimitConfig holds per-IP rate limit tunables
type RateLimitConfig struct {
	Enabled         bool
	WindowDuration  time.Duration
	DefaultRequests int
	BrowseRequests  int
	BookingRequests int
	HealthRequests  int
}

// Load loads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		APIVersion:     getEnv("API_VERSION", "v1"),
		APIPrefix:      getEnv("API_PREFIX", "/api"),
		ReadTimeout:    getDurationEnv("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:   getDurationEnv("WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:    getDurationEnv("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes: getIntEnv("MAX_HEADER_BYTES", 1<<20), // 1 MB

		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "shipline_db"),
			User:     getEnv("DB_USER", "shipline_user"),
			Password: getEnv("DB_PASSWORD", "shipline_password"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},

		Booking: BookingConfig{
			SeatHoldTTL:         getDurationEnv("SEAT_HOLD_TTL", 10*time.Minute),
			HoldSweepInterval:   getDurationEnv("HOLD_SWEEP_INTERVAL", 30*time.Second),
			PaymentWindow:       getDurationEnv("PAYMENT_WINDOW", 15*time.Minute),
			ExpirySweepInterval: getDurationEnv("EXPIRY_SWEEP_INTERVAL", 30*time.Second),
			AdminFee:            getInt64Env("ADMIN_FEE", 5000),
			ServiceFee:          getInt64Env("SERVICE_FEE", 10000),
			CodeAttempts:        getIntEnv("BOOKING_CODE_ATTEMPTS", 5),
		},

		Kafka: KafkaConfig{
			Enabled: getBoolEnv("KAFKA_ENABLED", false),
			Brokers: []string{getEnv("KAFKA_BROKER", "localhost:9092")},
			Topic:   getEnv("KAFKA_BOOKING_TOPIC", "booking-events"),
		},

		RateLimit: RateLimitConfig{
			Enabled:         getBoolEnv("RATE_LIMIT_ENABLED", false),
			WindowDuration:  getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),
			DefaultRequests: getIntEnv("RATE_LIMIT_DEFAULT", 100),
			BrowseRequests:  getIntEnv("RATE_LIMIT_BROWSE", 200),
			BookingRequests: getIntEnv("RATE_LIMIT_BOOKING", 30),
			HealthRequests:  getIntEnv("RATE_LIMIT_HEALTH", 300),
		},

		LogLevel: getEnv("LOG_LEVEL", "debug"),
	}

	// Build composite values
	cfg.Database.DSN = buildDatabaseDSN(cfg.Database)
	cfg.Redis.Addr = cfg.Redis.Host + ":" + cfg.Redis.Port

	return cfg
}

// buildDatabaseDSN builds the database connection string
func buildDatabaseDSN(db DatabaseConfig) string {
	return "host=" + db.Host +
		" port=" + db.Port +
		" user=" + db.User +
		" password=" + db.Password +
		" dbname=" + db.Name +
		" sslmode=" + db.SSLMode
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return fallback
}

// getInt64Env gets an int64 environment variable with a fallback value
func getInt64Env(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return fallback
}

// getDurationEnv gets a duration environment variable with a fallback value
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return fallback
}

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GinMode == "debug"
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return ":" + c.Port
}

// GetAPIBasePath returns the API base path
func (c *Config) GetAPIBasePath() string {
	return c.APIPrefix + "/" + c.APIVersion
}
