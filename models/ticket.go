package models

import "time"

type TicketStatus string

const (
	TicketStatusPending  TicketStatus = "pending"
	TicketStatusTriaged  TicketStatus = "triaged"
	TicketStatusResolved TicketStatus = "resolved"
)

// Valid reports whether s is one of the three ticket states
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusPending, TicketStatusTriaged, TicketStatusResolved:
		return true
	}
	return false
}

// Ticket is one customer conversation thread owned by a merchant
type Ticket struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	MerchantID    uint            `gorm:"not null;index:idx_tickets_merchant_customer,priority:1" json:"merchant_id"`
	Merchant      Merchant        `gorm:"foreignKey:MerchantID" json:"-"`
	CustomerEmail string          `gorm:"not null;index:idx_tickets_merchant_customer,priority:2" json:"customer_email"`
	Subject       string          `gorm:"type:varchar(998);not null" json:"subject"`
	Status        TicketStatus    `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	AICategory    string          `gorm:"column:ai_category;type:varchar(64)" json:"ai_category"`
	Messages      []TicketMessage `gorm:"foreignKey:TicketID" json:"messages,omitempty"`
	ResolvedAt    *time.Time      `json:"resolved_at,omitempty"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the Ticket model
func (Ticket) TableName() string {
	return "tickets"
}

// IsResolved reports whether a reply has been sent for the ticket
func (t *Ticket) IsResolved() bool {
	return t.Status == TicketStatusResolved
}

// LiveDraft returns the unsent AI draft in the loaded timeline, if any.
// Messages must be loaded in chronological order.
func (t *Ticket) LiveDraft() *TicketMessage {
	for i := len(t.Messages) - 1; i >= 0; i-- {
		if t.Messages[i].SenderType == SenderAIDraft {
			return &t.Messages[i]
		}
	}
	return nil
}

// LastReply returns the most recent merchant reply in the loaded timeline, if any.
func (t *Ticket) LastReply() *TicketMessage {
	for i := len(t.Messages) - 1; i >= 0; i-- {
		if t.Messages[i].SenderType == SenderMerchant {
			return &t.Messages[i]
		}
	}
	return nil
}

// CategoryOrDefault returns the AI category label or "Uncategorized"
func (t *Ticket) CategoryOrDefault() string {
	if t.AICategory == "" {
		return "Uncategorized"
	}
	return t.AICategory
}
