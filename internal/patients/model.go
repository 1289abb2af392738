package patients

import (
	"time"

	"github.com/shopspring/decimal"
)

// Collection is the patients collection name.
const Collection = "patients"

// EmergencyContact is the person the clinic calls when it cannot reach
// the patient.
type EmergencyContact struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship,omitempty"`
}

// Dependent is a family member booked under the patient's account.
type Dependent struct {
	ID           string `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	DateOfBirth  string `json:"dateOfBirth,omitempty"`
	Relationship string `json:"relationship,omitempty"`
}

// Patient is one row of the patients collection. Balance mirrors the sum
// of outstanding appointment balances and is maintained by the payment
// ledger; it can be recomputed from the appointments collection at any
// time.
type Patient struct {
	ID             string            `json:"id"`
	FirstName      string            `json:"firstName"`
	LastName       string            `json:"lastName"`
	Email          string            `json:"email,omitempty"`
	Phone          string            `json:"phone"`
	DateOfBirth    string            `json:"dateOfBirth,omitempty"`
	Gender         string            `json:"gender,omitempty"`
	Address        string            `json:"address,omitempty"`
	MedicalHistory string            `json:"medicalHistory,omitempty"`
	Allergies      string            `json:"allergies,omitempty"`
	Balance        decimal.Decimal   `json:"balance"`
	Password       string            `json:"password,omitempty"`
	Emergency      *EmergencyContact `json:"emergencyContact,omitempty"`
	Dependents     []Dependent       `json:"dependents,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
	Deleted        bool              `json:"deleted"`
	DeletedAt      *time.Time        `json:"deletedAt,omitempty"`
}

// FullName returns the display name used on appointments.
func (p Patient) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
