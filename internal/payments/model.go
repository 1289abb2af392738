package payments

import (
	"time"

	"github.com/shopspring/decimal"
)

// Collection is the payments collection name.
const Collection = "payments"

// StatusCompleted is the only payment status the ledger writes today; the
// field exists so refunds can get their own state later.
const StatusCompleted = "completed"

// Payment is one row of the payments collection. A payment is never
// hard-deleted: voiding soft-deletes the row and reverses its effect on
// the appointment, patient and finance collections.
type Payment struct {
	ID            string          `json:"id"`
	AppointmentID string          `json:"appointmentId"`
	PatientID     string          `json:"patientId"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method"`
	Date          string          `json:"date"` // YYYY-MM-DD
	TransactionID string          `json:"transactionId,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	Deleted       bool            `json:"deleted"`
	DeletedAt     *time.Time      `json:"deletedAt,omitempty"`
}
