package leads

import "errors"

var (
	// ErrDuplicatePhone is returned by repositories when the phone is
	// already registered.
	ErrDuplicatePhone = errors.New("leads: phone already registered")

	// ErrLeadNotFound is returned when no lead matches the lookup.
	ErrLeadNotFound = errors.New("leads: lead not found")
)
