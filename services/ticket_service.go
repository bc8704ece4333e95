package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopsift/shopsift-api/models"
	"gorm.io/gorm"
)

// Tab selects which tickets a dashboard feed shows
type Tab string

const (
	TabPending  Tab = "pending"
	TabResolved Tab = "resolved"
)

// NoActiveCategory is reported when there are no unresolved tickets
const NoActiveCategory = "None currently"

// ParseTab maps a query value to a Tab, defaulting to pending
func ParseTab(s string) Tab {
	if Tab(strings.ToLower(strings.TrimSpace(s))) == TabResolved {
		return TabResolved
	}
	return TabPending
}

// TicketStats are the dashboard stat cards
type TicketStats struct {
	PendingCount  int64  `json:"pending_count"`
	ResolvedCount int64  `json:"resolved_count"`
	TopCategory   string `json:"top_category"`
}

// TicketService reads and edits a merchant's tickets
type TicketService struct {
	db *gorm.DB
}

// NewTicketService creates a ticket service backed by db
func NewTicketService(db *gorm.DB) *TicketService {
	return &TicketService{db: db}
}

// List returns the merchant's tickets for tab, newest first, with timelines
func (s *TicketService) List(ctx context.Context, merchantID uint, tab Tab) ([]models.Ticket, error) {
	query := withTimeline(s.db.WithContext(ctx)).Where("merchant_id = ?", merchantID)
	if tab == TabResolved {
		query = query.Where("status = ?", models.TicketStatusResolved)
	} else {
		query = query.Where("status <> ?", models.TicketStatusResolved)
	}

	var tickets []models.Ticket
	if err := query.Order("created_at DESC").Order("id DESC").Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}

// Get returns one ticket with its timeline, scoped to the merchant
func (s *TicketService) Get(ctx context.Context, merchantID, ticketID uint) (*models.Ticket, error) {
	return loadOwnedTicket(withTimeline(s.db.WithContext(ctx)), merchantID, ticketID)
}

// SaveDraft replaces the live draft text without sending it
func (s *TicketService) SaveDraft(ctx context.Context, merchantID, ticketID uint, text string) (*models.TicketMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrDraftRequired
	}

	var draft *models.TicketMessage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ticket, err := loadOwnedTicket(tx, merchantID, ticketID)
		if err != nil {
			return err
		}
		if ticket.IsResolved() {
			return ErrTicketResolved
		}
		draft, err = upsertLiveDraft(tx, ticket.ID, text)
		return err
	})
	if err != nil {
		return nil, err
	}
	return draft, nil
}

// Stats counts the merchant's tickets and finds the busiest unresolved category
func (s *TicketService) Stats(ctx context.Context, merchantID uint) (*TicketStats, error) {
	db := s.db.WithContext(ctx)
	stats := &TicketStats{TopCategory: NoActiveCategory}

	if err := db.Model(&models.Ticket{}).
		Where("merchant_id = ? AND status <> ?", merchantID, models.TicketStatusResolved).
		Count(&stats.PendingCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count pending tickets: %w", err)
	}
	if err := db.Model(&models.Ticket{}).
		Where("merchant_id = ? AND status = ?", merchantID, models.TicketStatusResolved).
		Count(&stats.ResolvedCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count resolved tickets: %w", err)
	}
	if stats.PendingCount == 0 {
		return stats, nil
	}

	var rows []struct {
		AICategory string `gorm:"column:ai_category"`
		Total      int64  `gorm:"column:total"`
	}
	if err := db.Model(&models.Ticket{}).
		Select("COALESCE(ai_category, '') AS ai_category, COUNT(*) AS total").
		Where("merchant_id = ? AND status <> ?", merchantID, models.TicketStatusResolved).
		Group("ai_category").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		label := strings.TrimSpace(row.AICategory)
		if label == "" {
			label = "Uncategorized"
		}
		counts[label] += row.Total
	}
	stats.TopCategory = topCategory(counts)
	return stats, nil
}

// topCategory picks the highest count, breaking ties alphabetically
func topCategory(counts map[string]int64) string {
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	best := NoActiveCategory
	var bestCount int64
	for _, label := range labels {
		if counts[label] > bestCount {
			best, bestCount = label, counts[label]
		}
	}
	return best
}

func loadOwnedTicket(db *gorm.DB, merchantID, ticketID uint) (*models.Ticket, error) {
	var ticket models.Ticket
	err := db.Where("merchant_id = ?", merchantID).First(&ticket, ticketID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ticket: %w", err)
	}
	return &ticket, nil
}
