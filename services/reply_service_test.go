package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopsift/shopsift-api/models"
	"github.com/shopsift/shopsift-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSender = "support@shopsift.app"

func TestReplyServiceSendCustomDraft(t *testing.T) {
	db := testutil.SetupTestDB(t)
	merchant := testutil.SeedMerchant(t, db, "support")
	ticket := testutil.SeedTicket(t, db, merchant, "jane@x.com", models.TicketStatusTriaged,
		models.TicketMessage{SenderType: models.SenderAIDraft, Body: "AI wording"})
	mailer := NewMockMailer()
	events := NewMockEventProducer()

	sent, err := NewReplyService(db, mailer, events, testSender).Send(context.Background(), merchant, ticket.ID, "Hi Jane, it ships Monday.")
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusResolved, sent.Status)

	emails := mailer.Sent()
	require.Len(t, emails, 1)
	assert.Equal(t, "jane@x.com", emails[0].To)
	assert.Equal(t, "Jimmy from Sneaker Hub", emails[0].FromName)
	assert.Equal(t, testSender, emails[0].FromEmail)
	assert.Equal(t, "support@inbound.shopsift.app", emails[0].ReplyTo)
	assert.Equal(t, "Re: Where's my order", emails[0].Subject)
	assert.Equal(t, "Hi Jane, it ships Monday.", emails[0].Body)

	var stored models.Ticket
	require.NoError(t, withTimeline(db).First(&stored, ticket.ID).Error)
	assert.Equal(t, models.TicketStatusResolved, stored.Status)
	assert.NotNil(t, stored.ResolvedAt)
	assert.Nil(t, stored.LiveDraft())
	require.NotNil(t, stored.LastReply())
	assert.Equal(t, "Hi Jane, it ships Monday.", stored.LastReply().Body)
	assert.Equal(t, int64(1), testutil.CountMessages(t, db, ticket.ID, models.SenderMerchant))

	assert.Equal(t, []string{EventTicketResolved}, events.EventNames())
}

func TestReplyServiceSendSucceedsWhenRecordingFails(t *testing.T) {
	db := testutil.SetupTestDB(t)
	merchant := testutil.SeedMerchant(t, db, "support")
	ticket := testutil.SeedTicket(t, db, merchant, "jane@x.com", models.TicketStatusTriaged,
		models.TicketMessage{SenderType: models.SenderAIDraft, Body: "AI wording"})
	mailer := NewMockMailer()
	events := NewMockEventProducer()
	testutil.FailUpdates(t, db, errors.New("db down"))

	sent, err := NewReplyService(db, mailer, events, testSender).Send(context.Background(), merchant, ticket.ID, "Edited")
	require.NoError(t, err)
	require.NotNil(t, sent)

	require.Len(t, mailer.Sent(), 1)
	assert.Equal(t, "Edited", mailer.Sent()[0].Body)

	var stored models.Ticket
	require.NoError(t, withTimeline(db).First(&stored, ticket.ID).Error)
	assert.Equal(t, models.TicketStatusTriaged, stored.Status)
	assert.Nil(t, stored.ResolvedAt)
	require.NotNil(t, stored.LiveDraft())
	assert.Equal(t, "AI wording", stored.LiveDraft().Body)
	assert.Empty(t, events.Events())
}

func TestReplyServiceSendUsesLiveDraft(t *testing.T) {
	db := testutil.SetupTestDB(t)
	merchant := testutil.SeedMerchant(t, db, "support")
	ticket := testutil.SeedTicket(t, db, merchant, "jane@x.com", models.TicketStatusTriaged,
		models.TicketMessage{SenderType: models.SenderAIDraft, Body: "Your order ships tomorrow."})
	mailer := NewMockMailer()

	_, err := NewReplyService(db, mailer, nil, testSender).Send(context.Background(), merchant, ticket.ID, "   ")
	require.NoError(t, err)

	require.Len(t, mailer.Sent(), 1)
	assert.Equal(t, "Your order ships tomorrow.", mailer.Sent()[0].Body)
	assert.Equal(t, int64(0), testutil.CountMessages(t, db, ticket.ID, models.SenderAIDraft))
	assert.Equal(t, int64(1), testutil.CountMessages(t, db, ticket.ID, models.SenderMerchant))
}

func TestReplyServiceSendWithoutDraft(t *testing.T) {
	db := testutil.SetupTestDB(t)
	merchant := testutil.SeedMerchant(t, db, "support")
	ticket := testutil.SeedTicket(t, db, merchant, "jane@x.com", models.TicketStatusPending)
	mailer := NewMockMailer()

	_, err := NewReplyService(db, mailer, nil, testSender).Send(context.Background(), merchant, ticket.ID, "")
	assert.ErrorIs(t, err, ErrDraftRequired)
	assert.Empty(t, mailer.Sent())
}

func TestReplyServiceSendOtherMerchantsTicket(t *testing.T) {
	db := testutil.SetupTestDB(t)
	owner := testutil.SeedMerchant(t, db, "support")
	other := testutil.SeedMerchant(t, db, "help")
	ticket := testutil.SeedTicket(t, db, owner, "jane@x.com", models.TicketStatusTriaged)
	mailer := NewMockMailer()

	_, err := NewReplyService(db, mailer, nil, testSender).Send(context.Background(), other, ticket.ID, "Hello")
	assert.ErrorIs(t, err, ErrTicketNotFound)
	assert.Empty(t, mailer.Sent())
}

func TestReplyServiceSendFailureWritesNothing(t *testing.T) {
	tests := []struct {
		name   string
		mailer Mailer
	}{
		{name: "provider error", mailer: &MockMailer{Err: errors.New("503 from provider")}},
		{name: "no mailer", mailer: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			merchant := testutil.SeedMerchant(t, db, "support")
			ticket := testutil.SeedTicket(t, db, merchant, "jane@x.com", models.TicketStatusTriaged,
				models.TicketMessage{SenderType: models.SenderAIDraft, Body: "draft"})
			events := NewMockEventProducer()

			_, err := NewReplyService(db, tt.mailer, events, testSender).Send(context.Background(), merchant, ticket.ID, "Edited")
			assert.ErrorIs(t, err, ErrSendFailed)

			var stored models.Ticket
			require.NoError(t, withTimeline(db).First(&stored, ticket.ID).Error)
			assert.Equal(t, models.TicketStatusTriaged, stored.Status)
			assert.Nil(t, stored.ResolvedAt)
			require.NotNil(t, stored.LiveDraft())
			assert.Equal(t, "draft", stored.LiveDraft().Body)
			assert.Equal(t, int64(0), testutil.CountMessages(t, db, ticket.ID, models.SenderMerchant))
			assert.Empty(t, events.Events())
		})
	}
}

func TestReplyServiceSendResolvedTicket(t *testing.T) {
	db := testutil.SetupTestDB(t)
	merchant := testutil.SeedMerchant(t, db, "support")
	ticket := testutil.SeedTicket(t, db, merchant, "jane@x.com", models.TicketStatusResolved,
		models.TicketMessage{SenderType: models.SenderMerchant, Body: "Already answered"})
	mailer := NewMockMailer()

	_, err := NewReplyService(db, mailer, nil, testSender).Send(context.Background(), merchant, ticket.ID, "Again")
	assert.ErrorIs(t, err, ErrTicketResolved)
	assert.Empty(t, mailer.Sent())
}

func TestReplyServiceKeepsExistingReplyPrefix(t *testing.T) {
	db := testutil.SetupTestDB(t)
	merchant := testutil.SeedMerchant(t, db, "support")
	ticket := testutil.SeedTicket(t, db, merchant, "jane@x.com", models.TicketStatusTriaged)
	require.NoError(t, db.Model(ticket).Update("subject", "RE: Where's my order").Error)
	mailer := NewMockMailer()

	_, err := NewReplyService(db, mailer, nil, testSender).Send(context.Background(), merchant, ticket.ID, "Hi")
	require.NoError(t, err)
	assert.Equal(t, "RE: Where's my order", mailer.Sent()[0].Subject)
}

func TestReplySubject(t *testing.T) {
	assert.Equal(t, "Re: Where's my order", ReplySubject("Where's my order"))
	assert.Equal(t, "Re: Where's my order", ReplySubject("Re: Where's my order"))
	assert.Equal(t, "re: hello", ReplySubject("  re: hello "))
	assert.Equal(t, "Re: ", ReplySubject(""))
}
