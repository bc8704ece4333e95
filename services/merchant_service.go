package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopsift/shopsift-api/models"
	"github.com/shopsift/shopsift-api/utils"
	"gorm.io/gorm"
)

// SignupInput is everything needed to open a merchant account
type SignupInput struct {
	Auth0ID          string
	Email            string
	StoreName        string
	AgentName        string
	RoutingPrefix    string
	Policy           models.StorePolicy
	ResponseLanguage string
}

// SettingsInput is the editable store profile
type SettingsInput struct {
	StoreName        string
	AgentName        string
	ResponseLanguage string
}

// MerchantService manages merchant accounts
type MerchantService struct {
	db            *gorm.DB
	inboundDomain string
}

// NewMerchantService creates a merchant service issuing routing addresses on inboundDomain
func NewMerchantService(db *gorm.DB, inboundDomain string) *MerchantService {
	return &MerchantService{db: db, inboundDomain: strings.ToLower(inboundDomain)}
}

// Signup creates the merchant and assigns its routing address
func (s *MerchantService) Signup(ctx context.Context, in SignupInput) (*models.Merchant, error) {
	if in.Auth0ID == "" {
		return nil, fmt.Errorf("%w: missing account id", ErrInvalidPolicy)
	}
	if strings.TrimSpace(in.Email) == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidPolicy)
	}
	prefix, ok := utils.NormalizeRoutingPrefix(in.RoutingPrefix)
	if !ok {
		return nil, fmt.Errorf("%w: routing prefix may only contain a-z, 0-9, '.', '_' and '-'", ErrInvalidPolicy)
	}
	settings, err := validateSettings(SettingsInput{
		StoreName:        in.StoreName,
		AgentName:        in.AgentName,
		ResponseLanguage: in.ResponseLanguage,
	})
	if err != nil {
		return nil, err
	}

	merchant := &models.Merchant{
		Auth0ID:          in.Auth0ID,
		Email:            strings.ToLower(strings.TrimSpace(in.Email)),
		StoreName:        settings.StoreName,
		AgentName:        settings.AgentName,
		RoutingEmail:     utils.RoutingEmail(prefix, s.inboundDomain),
		Policy:           normalizePolicy(in.Policy),
		ResponseLanguage: settings.ResponseLanguage,
	}

	if err := s.db.WithContext(ctx).Create(merchant).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrRoutingAddressTaken
		}
		return nil, fmt.Errorf("failed to create merchant: %w", err)
	}

	log.Info().
		Uint("merchant_id", merchant.ID).
		Str("routing_email", merchant.RoutingEmail).
		Msg("Merchant signed up")
	return merchant, nil
}

// FindByAuth0ID returns the merchant owning the auth subject
func (s *MerchantService) FindByAuth0ID(ctx context.Context, auth0ID string) (*models.Merchant, error) {
	var merchant models.Merchant
	err := s.db.WithContext(ctx).Where("auth0_id = ?", auth0ID).First(&merchant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMerchantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load merchant: %w", err)
	}
	return &merchant, nil
}

// UpdatePolicies replaces the merchant's store policy
func (s *MerchantService) UpdatePolicies(ctx context.Context, merchantID uint, policy models.StorePolicy) (*models.Merchant, error) {
	policy = normalizePolicy(policy)
	err := s.db.WithContext(ctx).Model(&models.Merchant{}).Where("id = ?", merchantID).Updates(map[string]interface{}{
		"policy_shipping": policy.Shipping,
		"policy_returns":  policy.Returns,
		"policy_tone":     policy.Tone,
		"policy_notes":    policy.Notes,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update policies: %w", err)
	}
	return s.find(ctx, merchantID)
}

// UpdateSettings changes the store name, agent name and response language
func (s *MerchantService) UpdateSettings(ctx context.Context, merchantID uint, in SettingsInput) (*models.Merchant, error) {
	settings, err := validateSettings(in)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Model(&models.Merchant{}).Where("id = ?", merchantID).Updates(map[string]interface{}{
		"store_name":        settings.StoreName,
		"agent_name":        settings.AgentName,
		"response_language": settings.ResponseLanguage,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}
	return s.find(ctx, merchantID)
}

func (s *MerchantService) find(ctx context.Context, merchantID uint) (*models.Merchant, error) {
	var merchant models.Merchant
	err := s.db.WithContext(ctx).First(&merchant, merchantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMerchantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load merchant: %w", err)
	}
	return &merchant, nil
}

func validateSettings(in SettingsInput) (SettingsInput, error) {
	in.StoreName = strings.TrimSpace(in.StoreName)
	in.AgentName = strings.TrimSpace(in.AgentName)
	in.ResponseLanguage = strings.TrimSpace(in.ResponseLanguage)

	if in.StoreName == "" {
		return in, fmt.Errorf("%w: store name is required", ErrInvalidPolicy)
	}
	if in.AgentName == "" {
		return in, fmt.Errorf("%w: agent name is required", ErrInvalidPolicy)
	}
	if in.ResponseLanguage == "" {
		in.ResponseLanguage = models.DefaultResponseLanguage
	}
	if !models.IsSupportedLanguage(in.ResponseLanguage) {
		return in, fmt.Errorf("%w: unsupported response language %q", ErrInvalidPolicy, in.ResponseLanguage)
	}
	return in, nil
}

func normalizePolicy(p models.StorePolicy) models.StorePolicy {
	return models.StorePolicy{
		Shipping: strings.TrimSpace(p.Shipping),
		Returns:  strings.TrimSpace(p.Returns),
		Tone:     p.ToneOrDefault(),
		Notes:    strings.TrimSpace(p.Notes),
	}
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
