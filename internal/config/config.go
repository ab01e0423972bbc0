package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Lead store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSupabase = "supabase"
)

// Email providers.
const (
	EmailResend   = "resend"
	EmailSendGrid = "sendgrid"
	EmailSES      = "ses"
	EmailStub     = "stub"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	PublicBaseURL      string
	LogLevel           string
	LogFormat          string
	CORSAllowedOrigins []string

	// Lead intake
	LeadStore       string
	FallbackPhone   string
	ThankYouPath    string
	MinFillDuration time.Duration

	DatabaseURL        string
	SupabaseURL        string
	SupabaseKey        string
	SupabaseLeadsTable string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int

	AdminJWTSecret string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	LeadQueueURL        string
	LeadArchiveBucket   string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	RateLimitPerMinute int
	RateLimitBurst     int

	// Notification email
	EmailProvider     string
	EmailFromAddress  string
	EmailFromName     string
	OwnerEmails       []string
	CustomerAutoReply bool
	ResendAPIKey      string
	SendGridAPIKey    string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		PublicBaseURL:      getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),

		LeadStore:       strings.ToLower(strings.TrimSpace(getEnv("LEAD_STORE", ""))),
		FallbackPhone:   getEnv("FALLBACK_PHONE", "0435 900 709"),
		ThankYouPath:    getEnv("THANK_YOU_PATH", "/thank-you"),
		MinFillDuration: getEnvAsDuration("MIN_FILL_DURATION", 3*time.Second),

		DatabaseURL:        getEnv("DATABASE_URL", ""),
		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseKey:        getEnv("SUPABASE_SERVICE_ROLE_KEY", getEnv("SUPABASE_ANON_KEY", "")),
		SupabaseLeadsTable: getEnv("SUPABASE_LEADS_TABLE", "leads"),

		OutboxPollInterval: getEnvAsDuration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		OutboxBatchSize:    getEnvAsInt("OUTBOX_BATCH_SIZE", 25),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		AWSRegion:           getEnv("AWS_REGION", "ap-southeast-2"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		LeadQueueURL:        getEnv("LEAD_QUEUE_URL", ""),
		LeadArchiveBucket:   getEnv("LEAD_ARCHIVE_BUCKET", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 5),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 5),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", ""))),
		EmailFromAddress:  getEnv("EMAIL_FROM_ADDRESS", "noreply@callkaidsroofing.com.au"),
		EmailFromName:     getEnv("EMAIL_FROM_NAME", "Call Kaids Roofing"),
		OwnerEmails:       getEnvAsList("OWNER_EMAILS", nil),
		CustomerAutoReply: getEnvAsBool("CUSTOMER_AUTO_REPLY", true),
		ResendAPIKey:      getEnv("RESEND_API_KEY", ""),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
	}

	if cfg.LeadStore == "" {
		cfg.LeadStore = cfg.inferLeadStore()
	}
	if cfg.EmailProvider == "" {
		cfg.EmailProvider = cfg.inferEmailProvider()
	}
	return cfg
}

func (c *Config) inferLeadStore() string {
	switch {
	case c.DatabaseURL != "":
		return StorePostgres
	case c.SupabaseURL != "" && c.SupabaseKey != "":
		return StoreSupabase
	default:
		return StoreMemory
	}
}

func (c *Config) inferEmailProvider() string {
	switch {
	case c.ResendAPIKey != "":
		return EmailResend
	case c.SendGridAPIKey != "":
		return EmailSendGrid
	default:
		return EmailStub
	}
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	var errs []error
	switch c.LeadStore {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("config: LEAD_STORE=postgres requires DATABASE_URL"))
		}
	case StoreSupabase:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			errs = append(errs, errors.New("config: LEAD_STORE=supabase requires SUPABASE_URL and a key"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown LEAD_STORE %q", c.LeadStore))
	}

	switch c.EmailProvider {
	case EmailStub, EmailSES:
	case EmailResend:
		if c.ResendAPIKey == "" {
			errs = append(errs, errors.New("config: EMAIL_PROVIDER=resend requires RESEND_API_KEY"))
		}
	case EmailSendGrid:
		if c.SendGridAPIKey == "" {
			errs = append(errs, errors.New("config: EMAIL_PROVIDER=sendgrid requires SENDGRID_API_KEY"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown EMAIL_PROVIDER %q", c.EmailProvider))
	}

	if c.RateLimitPerMinute < 0 {
		errs = append(errs, errors.New("config: RATE_LIMIT_PER_MINUTE must not be negative"))
	}
	if c.Env == "production" && c.AdminJWTSecret == "" {
		errs = append(errs, errors.New("config: ADMIN_JWT_SECRET is required in production"))
	}
	return errors.Join(errs...)
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

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
