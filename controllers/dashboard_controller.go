package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/shopsift/shopsift-api/config"
	"github.com/shopsift/shopsift-api/middleware"
	"github.com/shopsift/shopsift-api/models"
	"github.com/shopsift/shopsift-api/services"
)

const defaultSessionMaxAge = 3600

var dashboardNotices = map[string]string{
	"saved":          "Draft saved.",
	"sent":           "Reply sent.",
	"policies_saved": "Policies saved.",
	"settings_saved": "Settings saved.",
}

var dashboardErrors = map[string]string{
	"draft_required": "The draft cannot be empty.",
	"resolved":       "That ticket has already been resolved.",
	"send_failed":    "The reply could not be sent. Please try again.",
}

// ticketView is one ticket as the dashboard shows it
type ticketView struct {
	ID            uint
	Subject       string
	CustomerEmail string
	Category      string
	Status        models.TicketStatus
	CreatedAt     time.Time
	Timeline      []models.TicketMessage
	Resolved      bool
	HasDraft      bool
	Draft         string
	Reply         string
}

func newTicketView(t models.Ticket) ticketView {
	view := ticketView{
		ID:            t.ID,
		Subject:       t.Subject,
		CustomerEmail: t.CustomerEmail,
		Category:      t.CategoryOrDefault(),
		Status:        t.Status,
		CreatedAt:     t.CreatedAt,
		Resolved:      t.IsResolved(),
	}
	for _, msg := range t.Messages {
		if msg.SenderType != models.SenderAIDraft {
			view.Timeline = append(view.Timeline, msg)
		}
	}
	if draft := t.LiveDraft(); draft != nil {
		view.HasDraft = true
		view.Draft = draft.Body
	}
	if reply := t.LastReply(); reply != nil {
		view.Reply = reply.Body
	}
	return view
}

func renderPage(c *gin.Context, status int, name string, data gin.H) {
	if merchant, err := middleware.GetMerchant(c); err == nil {
		data["Merchant"] = merchant
	}
	if _, ok := data["Notice"]; !ok {
		data["Notice"] = dashboardNotices[c.Query("notice")]
	}
	if _, ok := data["Error"]; !ok {
		data["Error"] = dashboardErrors[c.Query("error")]
	}
	c.HTML(status, name, data)
}

func renderMessage(c *gin.Context, status int, title, message string) {
	renderPage(c, status, "message.html", gin.H{"Title": title, "Message": message})
}

func dashboardRedirect(c *gin.Context, key, value string, ticketID uint) {
	target := "/dashboard?" + url.Values{key: {value}}.Encode()
	if ticketID != 0 {
		target += fmt.Sprintf("#ticket-%d", ticketID)
	}
	c.Redirect(http.StatusSeeOther, target)
}

// DashboardPage handles GET /dashboard?tab=pending|resolved
func DashboardPage(c *gin.Context) {
	merchant, err := middleware.GetMerchant(c)
	if err != nil {
		renderMessage(c, http.StatusUnauthorized, "Unauthorized", "Sign in to view your dashboard.")
		return
	}

	ticketService := services.NewTicketService(config.GetDB())
	tab := services.ParseTab(c.Query("tab"))

	tickets, err := ticketService.List(c.Request.Context(), merchant.ID, tab)
	if err != nil {
		log.Error().Err(err).Uint("merchant_id", merchant.ID).Msg("Failed to load tickets")
		renderMessage(c, http.StatusInternalServerError, "Something went wrong", "Your inbox could not be loaded.")
		return
	}
	stats, err := ticketService.Stats(c.Request.Context(), merchant.ID)
	if err != nil {
		log.Error().Err(err).Uint("merchant_id", merchant.ID).Msg("Failed to load stats")
		renderMessage(c, http.StatusInternalServerError, "Something went wrong", "Your inbox could not be loaded.")
		return
	}

	views := make([]ticketView, 0, len(tickets))
	for _, t := range tickets {
		views = append(views, newTicketView(t))
	}

	renderPage(c, http.StatusOK, "dashboard.html", gin.H{
		"Title":   "Inbox",
		"Tab":     string(tab),
		"Tickets": views,
		"Stats":   stats,
	})
}

// DashboardSaveDraft handles POST /dashboard/tickets/:id/draft
func DashboardSaveDraft(c *gin.Context) {
	merchant, err := middleware.GetMerchant(c)
	if err != nil {
		renderMessage(c, http.StatusUnauthorized, "Unauthorized", "Sign in to view your dashboard.")
		return
	}
	ticketID, ok := parseTicketID(c)
	if !ok {
		renderMessage(c, http.StatusBadRequest, "Bad request", "Invalid ticket ID.")
		return
	}

	_, err = services.NewTicketService(config.GetDB()).SaveDraft(c.Request.Context(), merchant.ID, ticketID, c.PostForm("draft"))
	switch {
	case err == nil:
		dashboardRedirect(c, "notice", "saved", ticketID)
	case errors.Is(err, services.ErrDraftRequired):
		dashboardRedirect(c, "error", "draft_required", ticketID)
	case errors.Is(err, services.ErrTicketResolved):
		dashboardRedirect(c, "error", "resolved", ticketID)
	case errors.Is(err, services.ErrTicketNotFound):
		renderMessage(c, http.StatusNotFound, "Not found", "Ticket not found.")
	default:
		log.Error().Err(err).Uint("ticket_id", ticketID).Msg("Failed to save draft")
		renderMessage(c, http.StatusInternalServerError, "Something went wrong", "The draft could not be saved.")
	}
}

// DashboardSendReply handles POST /dashboard/tickets/:id/send
func DashboardSendReply(c *gin.Context) {
	merchant, err := middleware.GetMerchant(c)
	if err != nil {
		renderMessage(c, http.StatusUnauthorized, "Unauthorized", "Sign in to view your dashboard.")
		return
	}
	ticketID, ok := parseTicketID(c)
	if !ok {
		renderMessage(c, http.StatusBadRequest, "Bad request", "Invalid ticket ID.")
		return
	}

	_, err = newReplyService().Send(c.Request.Context(), merchant, ticketID, c.PostForm("draft"))
	switch {
	case err == nil:
		dashboardRedirect(c, "notice", "sent", 0)
	case errors.Is(err, services.ErrDraftRequired):
		dashboardRedirect(c, "error", "draft_required", ticketID)
	case errors.Is(err, services.ErrTicketResolved):
		dashboardRedirect(c, "error", "resolved", ticketID)
	case errors.Is(err, services.ErrTicketNotFound):
		renderMessage(c, http.StatusNotFound, "Not found", "Ticket not found.")
	default:
		log.Error().Err(err).Uint("ticket_id", ticketID).Msg("Error sending reply")
		dashboardRedirect(c, "error", "send_failed", ticketID)
	}
}

// PoliciesPage handles GET /dashboard/policies
func PoliciesPage(c *gin.Context) {
	renderPage(c, http.StatusOK, "policies.html", gin.H{"Title": "Policies"})
}

// UpdatePoliciesForm handles POST /dashboard/policies
func UpdatePoliciesForm(c *gin.Context) {
	merchant, err := middleware.GetMerchant(c)
	if err != nil {
		renderMessage(c, http.StatusUnauthorized, "Unauthorized", "Sign in to view your dashboard.")
		return
	}

	var req PolicyRequest
	if err := c.ShouldBind(&req); err != nil {
		renderPage(c, http.StatusBadRequest, "policies.html", gin.H{"Title": "Policies", "Error": "Invalid form data."})
		return
	}

	if _, err := newMerchantService().UpdatePolicies(c.Request.Context(), merchant.ID, req.toPolicy()); err != nil {
		log.Error().Err(err).Uint("merchant_id", merchant.ID).Msg("Failed to update policies")
		renderPage(c, http.StatusInternalServerError, "policies.html", gin.H{"Title": "Policies", "Error": "Policies could not be saved."})
		return
	}
	c.Redirect(http.StatusSeeOther, "/dashboard/policies?notice=policies_saved")
}

// SettingsPage handles GET /dashboard/settings
func SettingsPage(c *gin.Context) {
	renderPage(c, http.StatusOK, "settings.html", gin.H{
		"Title":     "Settings",
		"Languages": models.ResponseLanguages,
	})
}

// UpdateSettingsForm handles POST /dashboard/settings
func UpdateSettingsForm(c *gin.Context) {
	merchant, err := middleware.GetMerchant(c)
	if err != nil {
		renderMessage(c, http.StatusUnauthorized, "Unauthorized", "Sign in to view your dashboard.")
		return
	}

	var req SettingsRequest
	if err := c.ShouldBind(&req); err != nil {
		renderPage(c, http.StatusBadRequest, "settings.html", gin.H{
			"Title": "Settings", "Languages": models.ResponseLanguages, "Error": "Invalid form data.",
		})
		return
	}

	_, err = newMerchantService().UpdateSettings(c.Request.Context(), merchant.ID, req.toInput())
	switch {
	case err == nil:
		c.Redirect(http.StatusSeeOther, "/dashboard/settings?notice=settings_saved")
	case errors.Is(err, services.ErrInvalidPolicy):
		renderPage(c, http.StatusBadRequest, "settings.html", gin.H{
			"Title": "Settings", "Languages": models.ResponseLanguages, "Error": err.Error(),
		})
	default:
		log.Error().Err(err).Uint("merchant_id", merchant.ID).Msg("Failed to update settings")
		renderPage(c, http.StatusInternalServerError, "settings.html", gin.H{
			"Title": "Settings", "Languages": models.ResponseLanguages, "Error": "Settings could not be saved.",
		})
	}
}

// CreateSession handles POST /dashboard/session. The bearer token that
// authenticated the request is stored in an HttpOnly cookie so the dashboard
// pages can be browsed directly.
func CreateSession(c *gin.Context) {
	token, err := middleware.GetAccessToken(c)
	if err != nil {
		apiError(c, http.StatusUnauthorized, "MISSING_TOKEN", "Access token not found")
		return
	}

	maxAge := defaultSessionMaxAge
	if claims, err := middleware.GetClaims(c); err == nil && claims.RegisteredClaims.Expiry > 0 {
		if remaining := int(claims.RegisteredClaims.Expiry - time.Now().Unix()); remaining > 0 {
			maxAge = remaining
		}
	}

	cfg := config.GetConfig()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.SessionCookieName, token, maxAge, "/", "", cfg.IsProduction(), true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SignOut handles POST /dashboard/signout
func SignOut(c *gin.Context) {
	cfg := config.GetConfig()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.SessionCookieName, "", -1, "/", "", cfg.IsProduction(), true)
	c.HTML(http.StatusOK, "message.html", gin.H{
		"Title":   "Signed out",
		"Message": "You have been signed out of ShopSift.",
	})
}
