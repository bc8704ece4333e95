package services

import (
	"context"
	"testing"

	"github.com/shopsift/shopsift-api/models"
	"github.com/shopsift/shopsift-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setCategory(t *testing.T, db *gorm.DB, ticket *models.Ticket, category string) {
	t.Helper()
	require.NoError(t, db.Model(ticket).Update("ai_category", category).Error)
}

func TestParseTab(t *testing.T) {
	assert.Equal(t, TabPending, ParseTab(""))
	assert.Equal(t, TabPending, ParseTab("pending"))
	assert.Equal(t, TabPending, ParseTab("bogus"))
	assert.Equal(t, TabResolved, ParseTab("resolved"))
	assert.Equal(t, TabResolved, ParseTab(" Resolved "))
}

func TestTicketServiceListTabs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	merchant := testutil.SeedMerchant(t, db, "support")
	other := testutil.SeedMerchant(t, db, "help")

	pending := testutil.SeedTicket(t, db, merchant, "a@x.com", models.TicketStatusPending)
	triaged := testutil.SeedTicket(t, db, merchant, "b@x.com", models.TicketStatusTriaged,
		models.TicketMessage{SenderType: models.SenderAIDraft, Body: "draft"})
	resolved := testutil.SeedTicket(t, db, merchant, "c@x.com", models.TicketStatusResolved)
	testutil.SeedTicket(t, db, other, "d@x.com", models.TicketStatusPending)

	svc := NewTicketService(db)

	open, err := svc.List(context.Background(), merchant.ID, TabPending)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, triaged.ID, open[0].ID)
	assert.Equal(t, pending.ID, open[1].ID)
	require.Len(t, open[0].Messages, 2)
	assert.Equal(t, models.SenderCustomer, open[0].Messages[0].SenderType)
	assert.Equal(t, models.SenderAIDraft, open[0].Messages[1].SenderType)

	done, err := svc.List(context.Background(), merchant.ID, TabResolved)
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, resolved.ID, done[0].ID)
}

func TestTicketServiceGetScopesByMerchant(t *testing.T) {
	db := testutil.SetupTestDB(t)
	owner := testutil.SeedMerchant(t, db, "support")
	other := testutil.SeedMerchant(t, db, "help")
	ticket := testutil.SeedTicket(t, db, owner, "jane@x.com", models.TicketStatusPending)
	svc := NewTicketService(db)

	got, err := svc.Get(context.Background(), owner.ID, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, got.Messages, 1)

	_, err = svc.Get(context.Background(), other.ID, ticket.ID)
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestTicketServiceSaveDraft(t *testing.T) {
	db := testutil.SetupTestDB(t)
	merchant := testutil.SeedMerchant(t, db, "support")
	ticket := testutil.SeedTicket(t, db, merchant, "jane@x.com", models.TicketStatusTriaged,
		models.TicketMessage{SenderType: models.SenderAIDraft, Body: "AI version"})
	svc := NewTicketService(db)

	draft, err := svc.SaveDraft(context.Background(), merchant.ID, ticket.ID, "Edited version")
	require.NoError(t, err)
	assert.Equal(t, "Edited version", draft.Body)
	assert.Equal(t, int64(1), testutil.CountMessages(t, db, ticket.ID, models.SenderAIDraft))

	got, err := svc.Get(context.Background(), merchant.ID, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "Edited version", got.LiveDraft().Body)
	assert.Equal(t, models.TicketStatusTriaged, got.Status)
}

func TestTicketServiceSaveDraftCreatesDraft(t *testing.T) {
	db := testutil.SetupTestDB(t)
	merchant := testutil.SeedMerchant(t, db, "support")
	ticket := testutil.SeedTicket(t, db, merchant, "jane@x.com", models.TicketStatusPending)

	_, err := NewTicketService(db).SaveDraft(context.Background(), merchant.ID, ticket.ID, "Manual draft")
	require.NoError(t, err)
	assert.Equal(t, int64(1), testutil.CountMessages(t, db, ticket.ID, models.SenderAIDraft))
}

func TestTicketServiceSaveDraftRejects(t *testing.T) {
	db := testutil.SetupTestDB(t)
	merchant := testutil.SeedMerchant(t, db, "support")
	other := testutil.SeedMerchant(t, db, "help")
	open := testutil.SeedTicket(t, db, merchant, "jane@x.com", models.TicketStatusTriaged)
	closed := testutil.SeedTicket(t, db, merchant, "joe@x.com", models.TicketStatusResolved)
	svc := NewTicketService(db)

	_, err := svc.SaveDraft(context.Background(), merchant.ID, open.ID, "  ")
	assert.ErrorIs(t, err, ErrDraftRequired)

	_, err = svc.SaveDraft(context.Background(), merchant.ID, closed.ID, "text")
	assert.ErrorIs(t, err, ErrTicketResolved)

	_, err = svc.SaveDraft(context.Background(), other.ID, open.ID, "text")
	assert.ErrorIs(t, err, ErrTicketNotFound)

	assert.Equal(t, int64(0), testutil.CountMessages(t, db, open.ID, models.SenderAIDraft))
	assert.Equal(t, int64(0), testutil.CountMessages(t, db, closed.ID, models.SenderAIDraft))
}

func TestTicketServiceStats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	merchant := testutil.SeedMerchant(t, db, "support")
	svc := NewTicketService(db)

	stats, err := svc.Stats(context.Background(), merchant.ID)
	require.NoError(t, err)
	assert.Equal(t, &TicketStats{TopCategory: NoActiveCategory}, stats)

	shipping := testutil.SeedTicket(t, db, merchant, "a@x.com", models.TicketStatusTriaged)
	setCategory(t, db, shipping, "Shipping")
	returns := testutil.SeedTicket(t, db, merchant, "b@x.com", models.TicketStatusTriaged)
	setCategory(t, db, returns, "Returns & Refunds")
	testutil.SeedTicket(t, db, merchant, "c@x.com", models.TicketStatusPending)
	closed := testutil.SeedTicket(t, db, merchant, "d@x.com", models.TicketStatusResolved)
	setCategory(t, db, closed, "Billing")
	closed2 := testutil.SeedTicket(t, db, merchant, "e@x.com", models.TicketStatusResolved)
	setCategory(t, db, closed2, "Billing")

	stats, err = svc.Stats(context.Background(), merchant.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.PendingCount)
	assert.Equal(t, int64(2), stats.ResolvedCount)
	// three-way tie at one ticket each, resolved Billing tickets do not count
	assert.Equal(t, "Returns & Refunds", stats.TopCategory)

	another := testutil.SeedTicket(t, db, merchant, "f@x.com", models.TicketStatusTriaged)
	setCategory(t, db, another, "Shipping")

	stats, err = svc.Stats(context.Background(), merchant.ID)
	require.NoError(t, err)
	assert.Equal(t, "Shipping", stats.TopCategory)
}

func TestTicketServiceStatsAllResolved(t *testing.T) {
	db := testutil.SetupTestDB(t)
	merchant := testutil.SeedMerchant(t, db, "support")
	closed := testutil.SeedTicket(t, db, merchant, "a@x.com", models.TicketStatusResolved)
	setCategory(t, db, closed, "Shipping")

	stats, err := NewTicketService(db).Stats(context.Background(), merchant.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.PendingCount)
	assert.Equal(t, int64(1), stats.ResolvedCount)
	assert.Equal(t, NoActiveCategory, stats.TopCategory)
}

func TestTopCategory(t *testing.T) {
	assert.Equal(t, NoActiveCategory, topCategory(nil))
	assert.Equal(t, "Billing", topCategory(map[string]int64{"Shipping": 2, "Billing": 2, "Other": 1}))
	assert.Equal(t, "Uncategorized", topCategory(map[string]int64{"Uncategorized": 3, "Shipping": 1}))
}
