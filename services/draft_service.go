package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopsift/shopsift-api/models"
	"gorm.io/gorm"
)

// DraftService generates and stores AI drafts for tickets
type DraftService struct {
	db        *gorm.DB
	generator DraftGenerator
}

// NewDraftService creates a draft service. A nil generator makes every
// Generate call fail with ErrDraftGeneration.
func NewDraftService(db *gorm.DB, generator DraftGenerator) *DraftService {
	return &DraftService{db: db, generator: generator}
}

// Generate drafts a reply for the ticket from its full timeline. On success the
// category is set, the live draft is replaced and a pending ticket becomes
// triaged. On failure nothing is written.
func (s *DraftService) Generate(ctx context.Context, ticketID uint) (*DraftResult, error) {
	var ticket models.Ticket
	err := withTimeline(s.db.WithContext(ctx)).Preload("Merchant").First(&ticket, ticketID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ticket: %w", err)
	}
	if ticket.IsResolved() {
		return nil, ErrTicketResolved
	}

	if s.generator == nil {
		return nil, fmt.Errorf("%w: no draft generator configured", ErrDraftGeneration)
	}

	raw, err := s.generator.GenerateDraft(ctx, DraftRequest{
		Merchant: &ticket.Merchant,
		Subject:  ticket.Subject,
		History:  ticket.Messages,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDraftGeneration, err)
	}

	result, err := ParseDraftResponse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDraftGeneration, err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Ticket
		if err := tx.Select("id", "status").First(&current, ticket.ID).Error; err != nil {
			return err
		}
		// A reply may have gone out while the model was running
		if current.IsResolved() {
			return ErrTicketResolved
		}

		updates := map[string]interface{}{"ai_category": result.Category}
		if current.Status == models.TicketStatusPending {
			updates["status"] = models.TicketStatusTriaged
		}
		if err := tx.Model(&models.Ticket{}).Where("id = ?", ticket.ID).Updates(updates).Error; err != nil {
			return err
		}

		_, err := upsertLiveDraft(tx, ticket.ID, result.Draft)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrTicketResolved) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}

	log.Info().
		Uint("ticket_id", ticket.ID).
		Str("category", result.Category).
		Msg("Draft generated")
	return result, nil
}

// upsertLiveDraft overwrites the ticket's live draft or creates one
func upsertLiveDraft(tx *gorm.DB, ticketID uint, body string) (*models.TicketMessage, error) {
	var draft models.TicketMessage
	err := tx.Where("ticket_id = ? AND sender_type = ?", ticketID, models.SenderAIDraft).
		Order("created_at DESC").
		Order("id DESC").
		First(&draft).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		draft = models.TicketMessage{
			TicketID:   ticketID,
			SenderType: models.SenderAIDraft,
			Body:       body,
		}
		if err := tx.Create(&draft).Error; err != nil {
			return nil, err
		}
		return &draft, nil
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Model(&draft).Update("body", body).Error; err != nil {
		return nil, err
	}
	draft.Body = body
	return &draft, nil
}

// withTimeline preloads ticket messages in chronological order
func withTimeline(db *gorm.DB) *gorm.DB {
	return db.Preload("Messages", func(db *gorm.DB) *gorm.DB {
		return db.Order("ticket_messages.created_at ASC").Order("ticket_messages.id ASC")
	})
}
