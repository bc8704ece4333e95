package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL        string
	Port               string
	GoEnv              string
	LogLevel           string
	Auth0Domain        string
	Auth0Audience      string
	SessionCookieName  string
	CORSAllowedOrigins []string
	AWSRegion          string
	AWSS3Bucket        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	OpenAIAPIKey       string
	OpenAIModel        string
	OpenAIBaseURL      string
	SendGridAPIKey     string
	SenderEmail        string
	InboundDomain      string
	KafkaBrokers       []string
	KafkaTicketTopic   string
	WebhookRateLimit   float64
	WebhookRateBurst   int
}

var appConfig *Config

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		if err := godotenv.Load(); err != nil {
			// Hosted environments inject variables directly
			log.Debug().Msg("No .env file found, using system environment variables")
		}
	} else {
		log.Info().Str("file", envFile).Msg("Loaded configuration")
	}

	config := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		Port:               getEnv("PORT", "8080"),
		GoEnv:              getEnv("GO_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		Auth0Domain:        getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience:      getEnv("AUTH0_AUDIENCE", ""),
		SessionCookieName:  getEnv("SESSION_COOKIE_NAME", "shopsift_session"),
		CORSAllowedOrigins: ParseList(getEnv("CORS_ALLOWED_ORIGINS", "")),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSS3Bucket:        getEnv("AWS_S3_BUCKET", ""),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:        getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", ""),
		SendGridAPIKey:     getEnv("SENDGRID_API_KEY", ""),
		SenderEmail:        getEnv("SENDER_EMAIL", "support@shopsift.app"),
		InboundDomain:      strings.ToLower(getEnv("INBOUND_DOMAIN", "inbound.shopsift.app")),
		KafkaBrokers:       ParseList(getEnv("KAFKA_BROKERS", "")),
		KafkaTicketTopic:   getEnv("KAFKA_TICKET_TOPIC", "shopsift.tickets"),
		WebhookRateLimit:   getEnvFloat("WEBHOOK_RATE_LIMIT", 20),
		WebhookRateBurst:   getEnvInt("WEBHOOK_RATE_BURST", 40),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	appConfig = config
	return config, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.InboundDomain == "" {
		return fmt.Errorf("INBOUND_DOMAIN is required")
	}
	if c.WebhookRateLimit < 0 {
		return fmt.Errorf("WEBHOOK_RATE_LIMIT must not be negative")
	}
	if c.IsProduction() {
		required := []struct{ key, value string }{
			{"AUTH0_DOMAIN", c.Auth0Domain},
			{"AUTH0_AUDIENCE", c.Auth0Audience},
			{"OPENAI_API_KEY", c.OpenAIAPIKey},
			{"SENDGRID_API_KEY", c.SendGridAPIKey},
		}
		for _, r := range required {
			if r.value == "" {
				return fmt.Errorf("%s is required in production", r.key)
			}
		}
	}
	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// ArchiveEnabled reports whether inbound emails should be archived to S3
func (c *Config) ArchiveEnabled() bool {
	return c.AWSS3Bucket != ""
}

// GetConfig returns the loaded configuration
func GetConfig() *Config {
	return appConfig
}

// SetConfig replaces the loaded configuration (primarily for testing)
func SetConfig(cfg *Config) {
	appConfig = cfg
}

// ParseList splits a comma separated value into trimmed, non-empty items.
func ParseList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring invalid number")
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring invalid integer")
		return defaultValue
	}
	return parsed
}
