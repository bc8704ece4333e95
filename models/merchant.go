package models

import (
	"strings"
	"time"
)

// Supported response languages for drafted replies
var ResponseLanguages = []string{"English", "Spanish", "French", "German", "Italian"}

// DefaultResponseLanguage is used when a merchant has not picked a language
const DefaultResponseLanguage = "English"

// DefaultBrandTone is the tone new stores start with
const DefaultBrandTone = "Friendly & Energetic"

// StorePolicy is the merchant's policy context handed to the drafting model
type StorePolicy struct {
	Shipping string `gorm:"column:shipping;type:text" json:"shipping"`
	Returns  string `gorm:"column:returns;type:text" json:"returns"`
	Tone     string `gorm:"column:tone;type:varchar(100)" json:"tone"`
	Notes    string `gorm:"column:notes;type:text" json:"notes"`
}

// Context renders the policy as prompt text, skipping empty sections
func (p StorePolicy) Context() string {
	var b strings.Builder
	write := func(label, value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(value)
	}
	write("Shipping Policy", p.Shipping)
	write("Return Policy", p.Returns)
	write("Additional Notes", p.Notes)
	return b.String()
}

// ToneOrDefault returns the brand tone, falling back to DefaultBrandTone
func (p StorePolicy) ToneOrDefault() string {
	if tone := strings.TrimSpace(p.Tone); tone != "" {
		return tone
	}
	return DefaultBrandTone
}

// Merchant is a tenant store account and the unit of data isolation
type Merchant struct {
	ID               uint        `gorm:"primaryKey" json:"id"`
	Auth0ID          string      `gorm:"uniqueIndex;not null" json:"-"` // subject of the auth provider token
	Email            string      `gorm:"not null" json:"email"`
	StoreName        string      `gorm:"not null" json:"store_name"`
	RoutingEmail     string      `gorm:"uniqueIndex;not null" json:"routing_email"` // always lowercase
	AgentName        string      `gorm:"not null" json:"agent_name"`
	Policy           StorePolicy `gorm:"embedded;embeddedPrefix:policy_" json:"policy"`
	ResponseLanguage string      `gorm:"not null;default:'English'" json:"response_language"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// TableName specifies the table name for the Merchant model
func (Merchant) TableName() string {
	return "merchants"
}

// LanguageOrDefault returns the response language, falling back to English
func (m *Merchant) LanguageOrDefault() string {
	if m.ResponseLanguage == "" {
		return DefaultResponseLanguage
	}
	return m.ResponseLanguage
}

// SenderName is the display name used on outbound replies
func (m *Merchant) SenderName() string {
	return m.AgentName + " from " + m.StoreName
}

// IsSupportedLanguage reports whether lang is one of ResponseLanguages
func IsSupportedLanguage(lang string) bool {
	for _, l := range ResponseLanguages {
		if l == lang {
			return true
		}
	}
	return false
}
