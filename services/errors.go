package services

import "errors"

var (
	ErrInvalidInbound              = errors.New("inbound email is missing required fields")
	ErrRoutingAddressNotRegistered = errors.New("routing address not registered")
	ErrMerchantNotFound            = errors.New("merchant not found")
	ErrRoutingAddressTaken         = errors.New("routing address or account already registered")
	ErrInvalidPolicy               = errors.New("invalid merchant settings")
	ErrTicketNotFound              = errors.New("ticket not found")
	ErrTicketResolved              = errors.New("ticket is already resolved")
	ErrDraftRequired               = errors.New("draft text is required")
	ErrDraftGeneration             = errors.New("draft generation failed")
	ErrMalformedDraft              = errors.New("malformed draft response")
	ErrSendFailed                  = errors.New("failed to send reply")
)
