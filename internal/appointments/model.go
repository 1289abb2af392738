package appointments

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the scheduling state of an appointment. The set mirrors the
// statuses the clinic front desk works with, including the "To Pay" cart
// state used by the public portal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusTentative Status = "tentative"
	StatusToPay     Status = "To Pay"
	StatusConfirmed Status = "confirmed"
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// PaymentStatus is derived from price and totalPaid, never set directly.
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentHalfPaid PaymentStatus = "half-paid"
	PaymentPaid     PaymentStatus = "paid"
)

// Appointment is one row of the appointments collection.
type Appointment struct {
	ID          string          `json:"id"`
	PatientID   string          `json:"patientId"`
	PatientName string          `json:"patientName"`
	Date        string          `json:"date"` // YYYY-MM-DD
	Time        string          `json:"time"` // HH:MM
	Type        int             `json:"type"` // index into Types
	CustomType  string          `json:"customType,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Doctor      string          `json:"doctor"`
	Duration    int             `json:"duration,omitempty"` // minutes
	Notes       string          `json:"notes,omitempty"`
	ServiceType string          `json:"serviceType,omitempty"`
	Status      Status          `json:"status"`

	PaymentStatus PaymentStatus   `json:"paymentStatus"`
	Balance       decimal.Decimal `json:"balance"`
	TotalPaid     decimal.Decimal `json:"totalPaid"`

	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Deleted   bool       `json:"deleted"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// RecalcPaymentStatus recomputes Balance and PaymentStatus from Price and
// TotalPaid. Every mutation of the payment totals must be followed by this
// call; the branch order is load-bearing for boundary values (overpayment,
// a negative totalPaid after a bad void) and must not be reordered.
func (a *Appointment) RecalcPaymentStatus() {
	a.Balance = a.Price.Sub(a.TotalPaid)
	switch {
	case a.Balance.Sign() <= 0:
		a.PaymentStatus = PaymentPaid
	case a.TotalPaid.IsZero():
		a.PaymentStatus = PaymentUnpaid
	case a.Balance.LessThan(a.Price):
		a.PaymentStatus = PaymentHalfPaid
	default:
		a.PaymentStatus = PaymentUnpaid
	}
}

// allowedTransitions is the operator-facing allow-list. Same-status writes
// are always permitted; the two system transitions (default on create,
// auto-promotion on first payment) are applied outside this table.
var allowedTransitions = map[Status][]Status{
	StatusPending:   {StatusTentative, StatusToPay, StatusConfirmed, StatusScheduled, StatusCancelled},
	StatusTentative: {StatusToPay, StatusConfirmed, StatusScheduled, StatusCompleted, StatusCancelled},
	StatusToPay:     {StatusTentative, StatusConfirmed, StatusScheduled, StatusCompleted, StatusCancelled},
	StatusConfirmed: {StatusTentative, StatusToPay, StatusScheduled, StatusCompleted, StatusCancelled},
	StatusScheduled: {StatusTentative, StatusToPay, StatusConfirmed, StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {StatusScheduled},
}

// CanTransition reports whether an operator may move an appointment from
// one status to another.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// PromoteOnPayment applies the system transition a recorded payment
// triggers: a pending appointment becomes scheduled. Returns true when
// the status changed.
func (a *Appointment) PromoteOnPayment() bool {
	if a.Status == StatusPending {
		a.Status = StatusScheduled
		return true
	}
	return false
}

// ValidStatus reports whether s is one of the known statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusTentative, StatusToPay, StatusConfirmed, StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}
