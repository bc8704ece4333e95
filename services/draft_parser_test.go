package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDraftResponse(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantCategory string
		wantDraft    string
	}{
		{
			name:         "plain JSON",
			raw:          `{"category": "Shipping", "draft": "It ships Monday."}`,
			wantCategory: "Shipping",
			wantDraft:    "It ships Monday.",
		},
		{
			name:         "fenced JSON",
			raw:          "```json\n{\"category\": \"Billing\", \"draft\": \"We refunded the charge.\"}\n```",
			wantCategory: "Billing",
			wantDraft:    "We refunded the charge.",
		},
		{
			name:         "JSON wrapped in prose",
			raw:          `Sure! Here is the reply: {"category": "Returns & Refunds", "draft": "Send it back within 30 days."} Let me know.`,
			wantCategory: "Returns & Refunds",
			wantDraft:    "Send it back within 30 days.",
		},
		{
			name:         "trailing comma is repaired",
			raw:          `{"category": "Shipping", "draft": "On its way.",}`,
			wantCategory: "Shipping",
			wantDraft:    "On its way.",
		},
		{
			name:         "blank category becomes Other",
			raw:          `{"category": "  ", "draft": "Thanks for writing in."}`,
			wantCategory: "Other",
			wantDraft:    "Thanks for writing in.",
		},
		{
			name:         "category case is normalized",
			raw:          `{"category": "order status", "draft": "Your order is packed."}`,
			wantCategory: "Order Status",
			wantDraft:    "Your order is packed.",
		},
		{
			name:         "unknown category is kept",
			raw:          `{"category": "Wholesale", "draft": "Our team will reach out."}`,
			wantCategory: "Wholesale",
			wantDraft:    "Our team will reach out.",
		},		{
			name:         "long multibyte category is cut on a rune boundary",
			raw:          `{"category": "` + strings.Repeat("€", 40) + `", "draft": "Merci pour votre message."}`,
			wantCategory: strings.Repeat("€", 21),
			wantDraft:    "Merci pour votre message.",
		},
		{
			name:         "long accented category",
			raw:          `{"category": "` + strings.Repeat("é", 40) + `", "draft": "Gracias."}`,
			wantCategory: strings.Repeat("é", 32),
			wantDraft:    "Gracias.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseDraftResponse(tt.raw)
			require.NoError(t, err)
			assert.True(t, utf8.ValidString(result.Category))
			assert.LessOrEqual(t, len(result.Category), maxCategoryLength)
			assert.Equal(t, tt.wantCategory, result.Category)
			assert.Equal(t, tt.wantDraft, result.Draft)
		})
	}
}

func TestParseDraftResponseErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "no JSON at all", raw: "I'm sorry, I can't help with that."},
		{name: "empty output", raw: ""},
		{name: "missing draft", raw: `{"category": "Shipping"}`},
		{name: "blank draft", raw: `{"category": "Shipping", "draft": "   "}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseDraftResponse(tt.raw)
			assert.ErrorIs(t, err, ErrMalformedDraft)
			assert.Nil(t, result)
		})
	}
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSON(`  {"a":1}  `))
	assert.Equal(t, `{"a":1}`, extractJSON("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":{"b":2}}`, extractJSON(`result: {"a":{"b":2}} done`))
	assert.Equal(t, "", extractJSON("no braces here"))
	assert.Equal(t, "", extractJSON("} backwards {"))
}
