package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/shopsift/shopsift-api/config"
	"github.com/shopsift/shopsift-api/middleware"
	"github.com/shopsift/shopsift-api/models"
	"github.com/shopsift/shopsift-api/services"
)

// PolicyRequest carries the store policy fields
type PolicyRequest struct {
	Shipping string `json:"shipping" form:"shipping"`
	Returns  string `json:"returns" form:"returns"`
	Tone     string `json:"tone" form:"tone"`
	Notes    string `json:"notes" form:"notes"`
}

func (r PolicyRequest) toPolicy() models.StorePolicy {
	return models.StorePolicy{Shipping: r.Shipping, Returns: r.Returns, Tone: r.Tone, Notes: r.Notes}
}

// SettingsRequest carries the editable store profile
type SettingsRequest struct {
	StoreName        string `json:"store_name" form:"store_name"`
	AgentName        string `json:"agent_name" form:"agent_name"`
	ResponseLanguage string `json:"response_language" form:"response_language"`
}

func (r SettingsRequest) toInput() services.SettingsInput {
	return services.SettingsInput{StoreName: r.StoreName, AgentName: r.AgentName, ResponseLanguage: r.ResponseLanguage}
}

// CreateMerchantRequest represents the signup form
type CreateMerchantRequest struct {
	StoreName        string        `json:"store_name" binding:"required"`
	AgentName        string        `json:"agent_name" binding:"required"`
	RoutingPrefix    string        `json:"routing_prefix" binding:"required"`
	ResponseLanguage string        `json:"response_language"`
	Policy           PolicyRequest `json:"policy"`
}

func newMerchantService() *services.MerchantService {
	return services.NewMerchantService(config.GetDB(), config.GetConfig().InboundDomain)
}

// CreateMerchant handles POST /api/v1/merchants - opens a store for the
// authenticated user. The account email comes from Auth0's /userinfo.
func CreateMerchant(c *gin.Context) {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		apiError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user ID from token")
		return
	}

	accessToken, err := middleware.GetAccessToken(c)
	if err != nil {
		apiError(c, http.StatusUnauthorized, "MISSING_TOKEN", "Access token not found")
		return
	}

	var req CreateMerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	userInfo, err := services.GetUserInfoProvider().GetUserInfo(c.Request.Context(), accessToken)
	if err != nil {
		log.Error().Err(err).Str("user_id", auth0ID).Msg("Failed to fetch user info")
		apiError(c, http.StatusInternalServerError, "AUTH0_ERROR", "Failed to fetch user information from Auth0")
		return
	}
	if userInfo.Email == "" {
		apiError(c, http.StatusBadRequest, "MISSING_EMAIL", "Email not provided by Auth0")
		return
	}

	merchant, err := newMerchantService().Signup(c.Request.Context(), services.SignupInput{
		Auth0ID:          auth0ID,
		Email:            userInfo.Email,
		StoreName:        req.StoreName,
		AgentName:        req.AgentName,
		RoutingPrefix:    req.RoutingPrefix,
		Policy:           req.Policy.toPolicy(),
		ResponseLanguage: req.ResponseLanguage,
	})
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    merchant,
	})
}

// GetMyMerchant handles GET /api/v1/merchants/me
func GetMyMerchant(c *gin.Context) {
	merchant, ok := currentMerchant(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    merchant,
	})
}

// UpdateMyPolicies handles PUT /api/v1/merchants/me/policies
func UpdateMyPolicies(c *gin.Context) {
	merchant, ok := currentMerchant(c)
	if !ok {
		return
	}

	var req PolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	updated, err := newMerchantService().UpdatePolicies(c.Request.Context(), merchant.ID, req.toPolicy())
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    updated,
	})
}

// UpdateMySettings handles PUT /api/v1/merchants/me/settings
func UpdateMySettings(c *gin.Context) {
	merchant, ok := currentMerchant(c)
	if !ok {
		return
	}

	var req SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	updated, err := newMerchantService().UpdateSettings(c.Request.Context(), merchant.ID, req.toInput())
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    updated,
	})
}
