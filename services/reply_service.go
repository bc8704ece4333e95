package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopsift/shopsift-api/models"
	"gorm.io/gorm"
)

// ReplyService sends approved drafts and resolves their tickets
type ReplyService struct {
	db          *gorm.DB
	mailer      Mailer
	events      TicketEventProducer
	senderEmail string
}

// NewReplyService creates a reply service. events may be nil.
func NewReplyService(db *gorm.DB, mailer Mailer, events TicketEventProducer, senderEmail string) *ReplyService {
	return &ReplyService{db: db, mailer: mailer, events: events, senderEmail: senderEmail}
}

// Send emails customDraft, or the live draft when customDraft is blank, to the
// ticket's customer and marks the ticket resolved. Once the email is out the
// call succeeds even if recording the result fails.
func (s *ReplyService) Send(ctx context.Context, merchant *models.Merchant, ticketID uint, customDraft string) (*models.Ticket, error) {
	ticket, err := loadOwnedTicket(withTimeline(s.db.WithContext(ctx)), merchant.ID, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.IsResolved() {
		return nil, ErrTicketResolved
	}

	text := strings.TrimSpace(customDraft)
	if text == "" {
		if draft := ticket.LiveDraft(); draft != nil {
			text = strings.TrimSpace(draft.Body)
		}
	}
	if text == "" {
		return nil, ErrDraftRequired
	}

	if s.mailer == nil {
		return nil, fmt.Errorf("%w: no mailer configured", ErrSendFailed)
	}
	err = s.mailer.Send(ctx, OutboundEmail{
		FromName:  merchant.SenderName(),
		FromEmail: s.senderEmail,
		To:        ticket.CustomerEmail,
		ReplyTo:   merchant.RoutingEmail,
		Subject:   ReplySubject(ticket.Subject),
		Body:      text,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	resolvedAt := time.Now()
	if err := s.recordSent(ctx, ticket.ID, text, resolvedAt); err != nil {
		log.Error().Err(err).Uint("ticket_id", ticket.ID).Msg("Reply sent but ticket update failed")
		return ticket, nil
	}

	ticket.Status = models.TicketStatusResolved
	ticket.ResolvedAt = &resolvedAt
	if s.events != nil {
		s.events.PublishTicketEvent(ctx, NewTicketEvent(EventTicketResolved, ticket))
	}

	log.Info().Uint("ticket_id", ticket.ID).Uint("merchant_id", merchant.ID).Msg("Reply sent")
	return ticket, nil
}

// recordSent turns the live draft into the sent reply and resolves the ticket
func (s *ReplyService) recordSent(ctx context.Context, ticketID uint, text string, resolvedAt time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var draft models.TicketMessage
		err := tx.Where("ticket_id = ? AND sender_type = ?", ticketID, models.SenderAIDraft).
			Order("created_at DESC").
			Order("id DESC").
			First(&draft).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			reply := models.TicketMessage{
				TicketID:   ticketID,
				SenderType: models.SenderMerchant,
				Body:       text,
			}
			if err := tx.Create(&reply).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if err := tx.Model(&draft).Updates(map[string]interface{}{
				"body":        text,
				"sender_type": models.SenderMerchant,
			}).Error; err != nil {
				return err
			}
		}

		return tx.Model(&models.Ticket{}).Where("id = ?", ticketID).Updates(map[string]interface{}{
			"status":      models.TicketStatusResolved,
			"resolved_at": resolvedAt,
		}).Error
	})
}
