package services

import (
	"fmt"
	"strings"

	"github.com/shopsift/shopsift-api/models"
	"github.com/tmc/langchaingo/llms"
)

// DraftCategories are the labels the model is asked to choose from
var DraftCategories = []string{
	"Order Status",
	"Shipping",
	"Returns & Refunds",
	"Product Question",
	"Billing",
	"Cancellation",
	"Other",
}

// DraftRequest carries everything needed to draft a reply for one ticket
type DraftRequest struct {
	Merchant *models.Merchant
	Subject  string
	History  []models.TicketMessage // chronological
}

// DraftResult is the parsed model output
type DraftResult struct {
	Category string `json:"category"`
	Draft    string `json:"draft"`
}

// BuildSystemPrompt embeds the merchant's identity, policies, tone and language
func BuildSystemPrompt(m *models.Merchant) string {
	policy := m.Policy.Context()
	if policy == "" {
		policy = "No store policies have been provided. Do not promise refunds, discounts or delivery dates."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a customer support agent for the online store %q.\n", m.AgentName, m.StoreName)
	b.WriteString("Answer the customer's latest email using only the store policies below. ")
	b.WriteString("If the policies do not cover the question, say a teammate will follow up.\n\n")
	b.WriteString("Store policies:\n")
	b.WriteString(policy)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Brand tone: %s\n", m.Policy.ToneOrDefault())
	fmt.Fprintf(&b, "Write the reply in %s. Sign it as %s.\n\n", m.LanguageOrDefault(), m.AgentName)
	fmt.Fprintf(&b, "Classify the conversation into exactly one category from: %s.\n", strings.Join(DraftCategories, ", "))
	b.WriteString(`Respond with a single JSON object and nothing else: {"category": "<category>", "draft": "<reply body>"}`)
	return b.String()
}

// BuildDraftMessages turns the ticket timeline into a chat transcript. Customer
// mail becomes human turns, sent replies become assistant turns and unsent
// drafts are left out.
func BuildDraftMessages(req DraftRequest) []llms.MessageContent {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, BuildSystemPrompt(req.Merchant)),
	}

	first := true
	for _, msg := range req.History {
		switch msg.SenderType {
		case models.SenderCustomer:
			body := msg.Body
			if first {
				body = fmt.Sprintf("Subject: %s\n\n%s", req.Subject, msg.Body)
				first = false
			}
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, body))
		case models.SenderMerchant:
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeAI, msg.Body))
		}
	}
	return messages
}
