package payments

import "errors"

var (
	// ErrNotFound is returned for an unknown payment id.
	ErrNotFound = errors.New("payments: payment not found")

	// ErrAppointmentNotFound aborts a ledger operation whose appointment
	// does not exist; nothing is written.
	ErrAppointmentNotFound = errors.New("payments: appointment not found")

	// ErrInvalidAmount rejects zero or negative amounts.
	ErrInvalidAmount = errors.New("payments: amount must be positive")

	// ErrMissingFields rejects a payment without an appointment or method.
	ErrMissingFields = errors.New("payments: missing required fields")
)
