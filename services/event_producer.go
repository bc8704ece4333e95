package services

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"github.com/shopsift/shopsift-api/models"
)

// Ticket lifecycle event names
const (
	EventTicketCreated  = "ticket.created"
	EventTicketReopened = "ticket.reopened"
	EventTicketTriaged  = "ticket.triaged"
	EventTicketResolved = "ticket.resolved"
)

// TicketEvent is the message published for every ticket transition
type TicketEvent struct {
	Event         string    `json:"event"`
	TicketID      uint      `json:"ticket_id"`
	MerchantID    uint      `json:"merchant_id"`
	CustomerEmail string    `json:"customer_email"`
	Subject       string    `json:"subject"`
	Status        string    `json:"status"`
	Category      string    `json:"category,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NewTicketEvent snapshots ticket into an event
func NewTicketEvent(event string, ticket *models.Ticket) TicketEvent {
	return TicketEvent{
		Event:         event,
		TicketID:      ticket.ID,
		MerchantID:    ticket.MerchantID,
		CustomerEmail: ticket.CustomerEmail,
		Subject:       ticket.Subject,
		Status:        string(ticket.Status),
		Category:      ticket.AICategory,
		OccurredAt:    time.Now().UTC(),
	}
}

// TicketEventProducer publishes ticket events. Publishing never fails the caller.
type TicketEventProducer interface {
	PublishTicketEvent(ctx context.Context, event TicketEvent)
	Close() error
}

// KafkaEventProducer writes ticket events to a Kafka topic. With no brokers
// or topic it does nothing.
type KafkaEventProducer struct {
	writer *kafka.Writer
}

var eventProducerInstance TicketEventProducer = &KafkaEventProducer{}

// NewKafkaEventProducer creates an async producer for topic
func NewKafkaEventProducer(brokers []string, topic string) *KafkaEventProducer {
	if len(brokers) == 0 || topic == "" {
		return &KafkaEventProducer{}
	}
	return &KafkaEventProducer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 10 * time.Millisecond,
			Async:        true,
			Completion: func(messages []kafka.Message, err error) {
				if err != nil {
					log.Warn().Err(err).Int("messages", len(messages)).Msg("Failed to publish ticket events")
				}
			},
		},
	}
}

// GetEventProducer returns the process event producer
func GetEventProducer() TicketEventProducer {
	return eventProducerInstance
}

// SetEventProducer replaces the process event producer
func SetEventProducer(producer TicketEventProducer) {
	eventProducerInstance = producer
}

// PublishTicketEvent enqueues the event keyed by ticket id
func (p *KafkaEventProducer) PublishTicketEvent(ctx context.Context, event TicketEvent) {
	if p.writer == nil {
		return
	}
	body, err := json.Marshal(event)
	if err != nil {
		log.Warn().Err(err).Str("event", event.Event).Msg("Failed to encode ticket event")
		return
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(event.TicketID), 10)),
		Value: body,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.Warn().Err(err).Str("event", event.Event).Uint("ticket_id", event.TicketID).Msg("Failed to publish ticket event")
	}
}

// Close flushes pending events
func (p *KafkaEventProducer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
