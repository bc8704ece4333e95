package models

import "time"

type SenderType string

const (
	SenderCustomer SenderType = "customer"
	SenderAIDraft  SenderType = "ai_draft"
	SenderMerchant SenderType = "merchant"
)

// TicketMessage is one entry in a ticket's timeline
type TicketMessage struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	TicketID   uint       `gorm:"not null;index" json:"ticket_id"`
	SenderType SenderType `gorm:"type:varchar(16);not null" json:"sender_type"`
	Body       string     `gorm:"type:text;not null" json:"body"`
	RawS3Key   *string    `json:"-"` // archived inbound payload, customer messages only
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName specifies the table name for the TicketMessage model
func (TicketMessage) TableName() string {
	return "ticket_messages"
}
