package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopsift/shopsift-api/models"
	"github.com/shopsift/shopsift-api/utils"
	"gorm.io/gorm"
)

// TenantResolver maps an inbound recipient header to the merchant that owns it
type TenantResolver struct {
	db *gorm.DB
}

// NewTenantResolver creates a resolver backed by db
func NewTenantResolver(db *gorm.DB) *TenantResolver {
	return &TenantResolver{db: db}
}

// Resolve returns the merchant for the first recipient in rawTo whose address
// is a registered routing email.
func (r *TenantResolver) Resolve(ctx context.Context, rawTo string) (*models.Merchant, error) {
	for _, addr := range utils.SplitRecipients(rawTo) {
		var merchant models.Merchant
		err := r.db.WithContext(ctx).Where("routing_email = ?", addr).First(&merchant).Error
		if err == nil {
			return &merchant, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("lookup routing address %q: %w", addr, err)
		}
	}
	return nil, ErrRoutingAddressNotRegistered
}
