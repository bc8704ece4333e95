package services

import (
	"context"
	"errors"
	"strings"

	"github.com/shopsift/shopsift-api/models"
	"gorm.io/gorm"
)

const noSubject = "(no subject)"

// InboundRecord is the result of threading one inbound message
type InboundRecord struct {
	Ticket   *models.Ticket
	Message  *models.TicketMessage
	Created  bool
	Reopened bool
}

// ConversationService threads inbound mail into tickets
type ConversationService struct {
	db *gorm.DB
}

// NewConversationService creates a conversation service backed by db
func NewConversationService(db *gorm.DB) *ConversationService {
	return &ConversationService{db: db}
}

// RecordInbound finds the most recent ticket for (merchant, customer) or
// creates one, re-opens it if it was resolved, and appends body as a
// customer message. Repeated deliveries append repeated messages.
func (s *ConversationService) RecordInbound(ctx context.Context, merchantID uint, customerEmail, subject, body string, rawS3Key *string) (*InboundRecord, error) {
	record := &InboundRecord{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ticket models.Ticket
		err := tx.Where("merchant_id = ? AND customer_email = ?", merchantID, customerEmail).
			Order("created_at DESC").
			Order("id DESC").
			First(&ticket).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			subject = strings.TrimSpace(subject)
			if subject == "" {
				subject = noSubject
			}
			ticket = models.Ticket{
				MerchantID:    merchantID,
				CustomerEmail: customerEmail,
				Subject:       subject,
				Status:        models.TicketStatusPending,
			}
			if err := tx.Create(&ticket).Error; err != nil {
				return err
			}
			record.Created = true
		case err != nil:
			return err
		case ticket.IsResolved():
			if err := tx.Model(&ticket).Updates(map[string]interface{}{
				"status":      models.TicketStatusPending,
				"resolved_at": nil,
			}).Error; err != nil {
				return err
			}
			ticket.Status = models.TicketStatusPending
			ticket.ResolvedAt = nil
			record.Reopened = true
		}

		message := models.TicketMessage{
			TicketID:   ticket.ID,
			SenderType: models.SenderCustomer,
			Body:       body,
			RawS3Key:   rawS3Key,
		}
		if err := tx.Create(&message).Error; err != nil {
			return err
		}

		record.Ticket = &ticket
		record.Message = &message
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}
