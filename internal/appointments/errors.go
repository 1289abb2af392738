package appointments

import "errors"

var (
	// ErrNotFound is returned when an appointment id does not resolve
	ErrNotFound = errors.New("appointment not found")

	// ErrConflict is returned when a slot overlaps another active appointment
	ErrConflict = errors.New("there is already an appointment scheduled during this time")

	// ErrMissingFields is returned when a create request lacks required fields
	ErrMissingFields = errors.New("missing required fields: patientId, patientName, date, time, type")

	// ErrCustomTypeRequired is returned when type "Other" has no description
	ErrCustomTypeRequired = errors.New("custom type description is required when 'Other' is selected")

	// ErrInvalidTransition is returned when a status update is not on the allow-list
	ErrInvalidTransition = errors.New("status transition not allowed")

	// ErrInvalidStatus is returned for an unknown status value
	ErrInvalidStatus = errors.New("unknown appointment status")
)
