package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopsift/shopsift-api/models"
	"github.com/shopsift/shopsift-api/utils"
	"gorm.io/gorm"
)

// InboundEmail is the parsed relay payload
type InboundEmail struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html,omitempty"`
}

// Body returns the plain text body, falling back to the stripped HTML part
func (e InboundEmail) Body() string {
	if text := strings.TrimSpace(e.Text); text != "" {
		return text
	}
	return utils.HTMLToText(e.HTML)
}

// InboundResult describes what processing one inbound email did
type InboundResult struct {
	Merchant *models.Merchant
	Ticket   *models.Ticket
	Created  bool
	Reopened bool
	Draft    *DraftResult
}

// InboundPipeline routes, threads and drafts one inbound email
type InboundPipeline struct {
	resolver      *TenantResolver
	conversations *ConversationService
	drafts        *DraftService
	archive       ArchiveService
	events        TicketEventProducer
}

// NewInboundPipeline wires a pipeline. archive and events may be nil.
func NewInboundPipeline(db *gorm.DB, generator DraftGenerator, archive ArchiveService, events TicketEventProducer) *InboundPipeline {
	return &InboundPipeline{
		resolver:      NewTenantResolver(db),
		conversations: NewConversationService(db),
		drafts:        NewDraftService(db, generator),
		archive:       archive,
		events:        events,
	}
}

// Process runs the whole inbound flow synchronously. The ticket and customer
// message are committed before drafting, so a draft failure still leaves the
// message on record; the error wraps ErrDraftGeneration in that case.
func (p *InboundPipeline) Process(ctx context.Context, email InboundEmail) (*InboundResult, error) {
	customer := utils.ExtractAddress(email.From)
	body := email.Body()
	if customer == "" || strings.TrimSpace(email.To) == "" || body == "" {
		return nil, ErrInvalidInbound
	}

	merchant, err := p.resolver.Resolve(ctx, email.To)
	if err != nil {
		return nil, err
	}

	var rawKey *string
	if p.archive != nil {
		key, err := p.archive.ArchiveInbound(ctx, merchant.ID, email)
		if err != nil {
			log.Warn().Err(err).Uint("merchant_id", merchant.ID).Msg("Failed to archive inbound email")
		} else {
			rawKey = &key
		}
	}

	record, err := p.conversations.RecordInbound(ctx, merchant.ID, customer, email.Subject, body, rawKey)
	if err != nil {
		return nil, fmt.Errorf("failed to record inbound email: %w", err)
	}

	ticket := record.Ticket
	switch {
	case record.Created:
		p.publish(ctx, EventTicketCreated, ticket)
	case record.Reopened:
		p.publish(ctx, EventTicketReopened, ticket)
	}

	result := &InboundResult{
		Merchant: merchant,
		Ticket:   ticket,
		Created:  record.Created,
		Reopened: record.Reopened,
	}

	wasPending := ticket.Status == models.TicketStatusPending
	draft, err := p.drafts.Generate(ctx, ticket.ID)
	if err != nil {
		return result, err
	}
	result.Draft = draft
	ticket.AICategory = draft.Category
	if wasPending {
		ticket.Status = models.TicketStatusTriaged
		p.publish(ctx, EventTicketTriaged, ticket)
	}

	log.Info().
		Uint("merchant_id", merchant.ID).
		Uint("ticket_id", ticket.ID).
		Bool("created", record.Created).
		Bool("reopened", record.Reopened).
		Msg("Inbound email processed")
	return result, nil
}

func (p *InboundPipeline) publish(ctx context.Context, event string, ticket *models.Ticket) {
	if p.events == nil {
		return
	}
	p.events.PublishTicketEvent(ctx, NewTicketEvent(event, ticket))
}
