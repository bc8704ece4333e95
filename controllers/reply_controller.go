package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/shopsift/shopsift-api/middleware"
	"github.com/shopsift/shopsift-api/services"
)

// SendReplyRequest is the body of POST /api/send-reply
type SendReplyRequest struct {
	TicketID    uint   `json:"ticketId"`
	CustomDraft string `json:"customDraft"`
}

// SendReply handles POST /api/send-reply - approves and sends a draft
func SendReply(c *gin.Context) {
	merchant, err := middleware.GetMerchant(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req SendReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TicketID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing ticket ID or draft"})
		return
	}

	_, err = newReplyService().Send(c.Request.Context(), merchant, req.TicketID, req.CustomDraft)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDraftRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing ticket ID or draft"})
		case errors.Is(err, services.ErrTicketNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Ticket not found"})
		case errors.Is(err, services.ErrTicketResolved):
			c.JSON(http.StatusConflict, gin.H{"error": "Ticket already resolved"})
		default:
			log.Error().Err(err).Uint("ticket_id", req.TicketID).Msg("Error sending reply")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
