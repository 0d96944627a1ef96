package services

import "errors"

// Service-level errors. Provider-level failures never surface directly: a
// single bad upstream is retried against the next provider, and persistence
// or notification failures are logged without affecting the caller.
var (
	// ErrDataUnavailable means every provider failed and the durable store
	// has no usable record within the freshness window.
	ErrDataUnavailable = errors.New("market data unavailable")

	// ErrInvalidAmount rejects conversion requests with amount <= 0.
	ErrInvalidAmount = errors.New("amount must be greater than 0")

	// ErrInvalidCurrencyCode rejects anything that is not a 3-letter ISO code.
	ErrInvalidCurrencyCode = errors.New("invalid currency code")

	// ErrInvalidDateRange rejects history windows outside 1..365 days.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrNotFound is an alert/budget lookup miss, scoped to the owner.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput rejects malformed create/update payloads.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmailTaken is returned when registering an already-used email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid email or password")
)
