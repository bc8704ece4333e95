package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/shopsift/shopsift-api/config"
	"github.com/shopsift/shopsift-api/middleware"
	"github.com/shopsift/shopsift-api/models"
	"github.com/shopsift/shopsift-api/services"
)

// apiError writes the /api/v1 error envelope
func apiError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// serviceError maps a service error onto the /api/v1 envelope
func serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTicketNotFound):
		apiError(c, http.StatusNotFound, "TICKET_NOT_FOUND", "Ticket not found")
	case errors.Is(err, services.ErrMerchantNotFound):
		apiError(c, http.StatusNotFound, "MERCHANT_NOT_FOUND", "No store is registered for this account")
	case errors.Is(err, services.ErrDraftRequired):
		apiError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Draft text is required")
	case errors.Is(err, services.ErrInvalidPolicy):
		apiError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, services.ErrTicketResolved):
		apiError(c, http.StatusConflict, "TICKET_RESOLVED", "Ticket is already resolved")
	case errors.Is(err, services.ErrRoutingAddressTaken):
		apiError(c, http.StatusConflict, "MERCHANT_EXISTS", "That routing address or account is already registered")
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
		apiError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal Server Error")
	}
}

// currentMerchant returns the merchant loaded by middleware.RequireMerchant,
// writing a 401 when it is missing
func currentMerchant(c *gin.Context) (*models.Merchant, bool) {
	merchant, err := middleware.GetMerchant(c)
	if err != nil {
		apiError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not resolve merchant")
		return nil, false
	}
	return merchant, true
}

func parseTicketID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func newReplyService() *services.ReplyService {
	return services.NewReplyService(
		config.GetDB(),
		services.GetMailer(),
		services.GetEventProducer(),
		config.GetConfig().SenderEmail,
	)
}
