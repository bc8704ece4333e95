package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopsift/shopsift-api/config"
	"github.com/shopsift/shopsift-api/services"
)

// UpdateDraftRequest is the body of PUT /api/v1/tickets/:id/draft
type UpdateDraftRequest struct {
	Draft string `json:"draft" binding:"required"`
}

// ListTickets handles GET /api/v1/tickets?tab=pending|resolved
func ListTickets(c *gin.Context) {
	merchant, ok := currentMerchant(c)
	if !ok {
		return
	}

	tab := services.ParseTab(c.Query("tab"))
	tickets, err := services.NewTicketService(config.GetDB()).List(c.Request.Context(), merchant.ID, tab)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"tab":     tab,
			"tickets": tickets,
		},
	})
}

// GetTicket handles GET /api/v1/tickets/:id
func GetTicket(c *gin.Context) {
	merchant, ok := currentMerchant(c)
	if !ok {
		return
	}

	ticketID, ok := parseTicketID(c)
	if !ok {
		apiError(c, http.StatusBadRequest, "INVALID_ID", "Invalid ticket ID")
		return
	}

	ticket, err := services.NewTicketService(config.GetDB()).Get(c.Request.Context(), merchant.ID, ticketID)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    ticket,
	})
}

// UpdateTicketDraft handles PUT /api/v1/tickets/:id/draft - saves an edit without sending
func UpdateTicketDraft(c *gin.Context) {
	merchant, ok := currentMerchant(c)
	if !ok {
		return
	}

	ticketID, ok := parseTicketID(c)
	if !ok {
		apiError(c, http.StatusBadRequest, "INVALID_ID", "Invalid ticket ID")
		return
	}

	var req UpdateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Draft text is required")
		return
	}

	draft, err := services.NewTicketService(config.GetDB()).SaveDraft(c.Request.Context(), merchant.ID, ticketID, req.Draft)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    draft,
	})
}

// GetStats handles GET /api/v1/stats
func GetStats(c *gin.Context) {
	merchant, ok := currentMerchant(c)
	if !ok {
		return
	}

	stats, err := services.NewTicketService(config.GetDB()).Stats(c.Request.Context(), merchant.ID)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
	})
}
