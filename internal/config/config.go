package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Shared secret expected on the X-Gendei-Service-Secret header for
	// every scheduler-triggered endpoint.
	ServiceSecret string

	DatabaseURL string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	AppointmentsTable      string
	ConversationsTable     string
	ClinicsTable           string
	ClinicCredentialsTable string

	WhatsAppGatewayURL string

	// Grace period a pending appointment gets before an unpaid deposit
	// triggers automatic cancellation.
	PaymentHoldMinutes int

	// Clinic-local zone used when a clinic record carries no timezone.
	DefaultTimezone string

	// Upper bound on a single atomic write group against the store.
	BatchWriteLimit int

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	LeaseTTL      time.Duration

	ArchiveBucket string

	SESFromEmail      string
	SESFromName       string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		ServiceSecret: getEnv("GENDEI_SERVICE_SECRET", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		AppointmentsTable:      getEnv("APPOINTMENTS_TABLE", "appointments"),
		ConversationsTable:     getEnv("CONVERSATIONS_TABLE", "conversations"),
		ClinicsTable:           getEnv("CLINICS_TABLE", "clinics"),
		ClinicCredentialsTable: getEnv("CLINIC_CREDENTIALS_TABLE", "clinic_credentials"),

		WhatsAppGatewayURL: getEnv("WHATSAPP_GATEWAY_URL", ""),

		PaymentHoldMinutes: getEnvAsInt("PAYMENT_HOLD_MINUTES", 15),
		DefaultTimezone:    getEnv("DEFAULT_TIMEZONE", "America/Sao_Paulo"),
		BatchWriteLimit:    getEnvAsInt("BATCH_WRITE_LIMIT", 25),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		LeaseTTL:      getEnvAsDuration("LEASE_TTL", 10*time.Minute),

		ArchiveBucket: getEnv("ARCHIVE_BUCKET", ""),

		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),
		SESFromName:       getEnv("SES_FROM_NAME", "Gendei"),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Gendei"),
	}
}

// HoldDuration returns the payment hold as a time.Duration.
func (c *Config) HoldDuration() time.Duration {
	return time.Duration(c.PaymentHoldMinutes) * time.Minute
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
