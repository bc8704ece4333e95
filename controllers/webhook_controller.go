package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/shopsift/shopsift-api/config"
	"github.com/shopsift/shopsift-api/services"
)

// IncomingEmail handles POST /api/incoming-email, the inbound parse webhook.
// The relay posts multipart or urlencoded form fields.
func IncomingEmail(c *gin.Context) {
	email := services.InboundEmail{
		From:    c.PostForm("from"),
		To:      c.PostForm("to"),
		Subject: c.PostForm("subject"),
		Text:    c.PostForm("text"),
		HTML:    c.PostForm("html"),
	}

	if strings.TrimSpace(email.From) == "" || strings.TrimSpace(email.To) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing sender or recipient"})
		return
	}

	pipeline := services.NewInboundPipeline(
		config.GetDB(),
		services.GetDraftGenerator(),
		services.GetArchiveService(),
		services.GetEventProducer(),
	)

	result, err := pipeline.Process(c.Request.Context(), email)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInbound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing sender, recipient or body"})
		case errors.Is(err, services.ErrRoutingAddressNotRegistered):
			log.Warn().Str("to", email.To).Msg("Dropping email for unregistered routing address")
			c.JSON(http.StatusNotFound, gin.H{"error": services.ErrRoutingAddressNotRegistered.Error()})
		default:
			event := log.Error().Err(err)
			if result != nil && result.Ticket != nil {
				event = event.Uint("ticket_id", result.Ticket.ID)
			}
			event.Msg("Failed to process inbound email")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"ticket_id": result.Ticket.ID,
	})
}
