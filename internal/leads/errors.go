package leads

import "errors"

var (
	// ErrLeadNotFound is returned when a lead is not found
	ErrLeadNotFound = errors.New("lead not found")

	// ErrMissingContact is returned when an upsert carries no identifying field
	ErrMissingContact = errors.New("email, phone or name is required")
)
