package finance

import (
	"time"

	"github.com/shopspring/decimal"
)

// Collection is the finance collection name.
const Collection = "finance"

// Record types. TypePayment is reserved for ledger-emitted rows; manual
// journal entries use income or expense.
const (
	TypeIncome  = "income"
	TypeExpense = "expense"
	TypePayment = "payment"
)

// Record is one row of the finance collection. Rows mirroring a payment
// carry the patient and payment ids so a void can locate them without
// matching on the description text.
type Record struct {
	ID          string          `json:"id"`
	PatientID   string          `json:"patientId,omitempty"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Date        string          `json:"date"` // YYYY-MM-DD
	PaymentID   string          `json:"paymentId,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	Deleted     bool            `json:"deleted"`
	DeletedAt   *time.Time      `json:"deletedAt,omitempty"`
}
