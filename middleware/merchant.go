package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/shopsift/shopsift-api/config"
	"github.com/shopsift/shopsift-api/models"
	"github.com/shopsift/shopsift-api/services"
)

const merchantKey = "merchant"

// RequireMerchant loads the merchant owning the authenticated user and stores
// it in the context. Users without a store get a JSON 404.
func RequireMerchant() gin.HandlerFunc {
	return func(c *gin.Context) {
		merchant, status, err := loadMerchant(c)
		if err != nil {
			code := "MERCHANT_NOT_FOUND"
			message := "No store is registered for this account"
			if status == http.StatusUnauthorized {
				code, message = "UNAUTHORIZED", err.Error()
			} else if status == http.StatusInternalServerError {
				code, message = "INTERNAL_ERROR", "Failed to load merchant"
			}
			c.JSON(status, gin.H{
				"success": false,
				"error": gin.H{
					"code":    code,
					"message": message,
				},
			})
			c.Abort()
			return
		}
		c.Set(merchantKey, merchant)
		c.Next()
	}
}

// RequireMerchantPage is RequireMerchant for server-rendered pages
func RequireMerchantPage() gin.HandlerFunc {
	return func(c *gin.Context) {
		merchant, status, err := loadMerchant(c)
		if err != nil {
			message := "No store is registered for this account. Finish signing up to open your dashboard."
			if status == http.StatusInternalServerError {
				message = "Something went wrong loading your store."
			}
			c.Header("Cache-Control", "no-store")
			c.HTML(status, "message.html", gin.H{
				"Title":   http.StatusText(status),
				"Message": message,
			})
			c.Abort()
			return
		}
		c.Set(merchantKey, merchant)
		c.Next()
	}
}

// GetMerchant returns the merchant stored by RequireMerchant
func GetMerchant(c *gin.Context) (*models.Merchant, error) {
	value, exists := c.Get(merchantKey)
	if !exists {
		return nil, &AuthError{Code: "MISSING_MERCHANT", Message: "Merchant not found in context"}
	}
	merchant, ok := value.(*models.Merchant)
	if !ok {
		return nil, &AuthError{Code: "INVALID_MERCHANT", Message: "Merchant is not in the expected format"}
	}
	return merchant, nil
}

func loadMerchant(c *gin.Context) (*models.Merchant, int, error) {
	userID, err := GetUserID(c)
	if err != nil {
		return nil, http.StatusUnauthorized, err
	}

	merchant, err := services.NewMerchantService(config.GetDB(), "").FindByAuth0ID(c.Request.Context(), userID)
	if errors.Is(err, services.ErrMerchantNotFound) {
		return nil, http.StatusNotFound, err
	}
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to load merchant")
		return nil, http.StatusInternalServerError, err
	}
	return merchant, http.StatusOK, nil
}
