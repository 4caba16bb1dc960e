package domain

import "errors"

var (
	ErrContributionNotFound = errors.New("contribution not found")
	ErrEventNotFound        = errors.New("event not found")
	ErrMissingPageContext   = errors.New("contribution has no contribution page")
	ErrInvoiceMismatch      = errors.New("invoice values do not match between database and notification")
	ErrAmountMismatch       = errors.New("amount values do not match between database and notification")
	ErrNotPending           = errors.New("contribution is not pending")
)
