package testutil

import (
	"os"
	"testing"

	"github.com/shopsift/shopsift-api/config"
	"github.com/shopsift/shopsift-api/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestInboundDomain is the routing domain used by TestConfig
const TestInboundDomain = "inbound.shopsift.app"

// RequireTestEnvironment ensures that tests are running in the test environment.
// This prevents accidental execution of tests against production or development databases.
// It will fail the test immediately if GO_ENV is not set to "test".
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q. Set GO_ENV=test before running tests.", env)
	}
}

// MustSetTestEnvironment sets GO_ENV to test and fails if it cannot be set.
// Use this in TestMain or suite setup functions.
func MustSetTestEnvironment(t *testing.T) {
	t.Helper()

	if err := os.Setenv("GO_ENV", "test"); err != nil {
		t.Fatalf("Failed to set GO_ENV=test: %v", err)
	}
	if os.Getenv("GO_ENV") != "test" {
		t.Fatal("Failed to verify GO_ENV=test")
	}
}

// TestConfig returns a config suitable for tests and installs it globally
func TestConfig() *config.Config {
	cfg := &config.Config{
		DatabaseURL:       ":memory:",
		Port:              "8080",
		GoEnv:             "test",
		LogLevel:          "error",
		Auth0Domain:       "test.auth0.com",
		Auth0Audience:     "https://api.test.com",
		SessionCookieName: "shopsift_session",
		AWSRegion:         "us-east-1",
		OpenAIModel:       "gpt-4o-mini",
		SenderEmail:       "support@shopsift.app",
		InboundDomain:     TestInboundDomain,
		KafkaTicketTopic:  "shopsift.tickets",
	}
	config.SetConfig(cfg)
	return cfg
}

// SetupTestDB opens a fresh in-memory SQLite database with the schema
// migrated and installs it as the global DB
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// Every pooled connection would get its own empty in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, config.AutoMigrate(db))
	config.SetDB(db)
	return db
}

// SeedMerchant creates a merchant whose routing address is <prefix>@TestInboundDomain
func SeedMerchant(t *testing.T, db *gorm.DB, prefix string) *models.Merchant {
	t.Helper()

	merchant := &models.Merchant{
		Auth0ID:      "auth0|" + prefix,
		Email:        prefix + "@owner.example.com",
		StoreName:    "Sneaker Hub",
		AgentName:    "Jimmy",
		RoutingEmail: prefix + "@" + TestInboundDomain,
		Policy: models.StorePolicy{
			Shipping: "Orders ship within 2 business days.",
			Returns:  "Returns accepted within 30 days.",
			Tone:     models.DefaultBrandTone,
		},
		ResponseLanguage: models.DefaultResponseLanguage,
	}
	require.NoError(t, db.Create(merchant).Error)
	return merchant
}

// SeedTicket creates a ticket with one customer message and optional extra messages
func SeedTicket(t *testing.T, db *gorm.DB, merchant *models.Merchant, customer string, status models.TicketStatus, extra ...models.TicketMessage) *models.Ticket {
	t.Helper()

	ticket := &models.Ticket{
		MerchantID:    merchant.ID,
		CustomerEmail: customer,
		Subject:       "Where's my order",
		Status:        status,
	}
	require.NoError(t, db.Create(ticket).Error)

	messages := append([]models.TicketMessage{{
		SenderType: models.SenderCustomer,
		Body:       "Hi, where is my order?",
	}}, extra...)
	for i := range messages {
		messages[i].TicketID = ticket.ID
		require.NoError(t, db.Create(&messages[i]).Error)
	}
	ticket.Messages = messages
	return ticket
}

// CountMessages returns the number of messages on a ticket by sender
func CountMessages(t *testing.T, db *gorm.DB, ticketID uint, sender models.SenderType) int64 {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(&models.TicketMessage{}).
		Where("ticket_id = ? AND sender_type = ?", ticketID, sender).
		Count(&count).Error)
	return count
}

// FailUpdates makes every UPDATE on db fail with err, leaving reads and inserts untouched
func FailUpdates(t *testing.T, db *gorm.DB, err error) {
	t.Helper()

	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("testutil:fail_updates", func(tx *gorm.DB) {
		_ = tx.AddError(err)
	}))
	t.Cleanup(func() {
		_ = db.Callback().Update().Remove("testutil:fail_updates")
	})
}
