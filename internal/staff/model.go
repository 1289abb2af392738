package staff

import (
	"time"

	"github.com/shopspring/decimal"
)

// Collection names owned by this package.
const (
	Collection           = "staff"
	FinancialCollection  = "staff_financial_records"
	AttendanceCollection = "staff_attendance"
)

// Member is one row of the staff collection.
type Member struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Role           string          `json:"role"`
	Department     string          `json:"department"`
	Email          string          `json:"email"`
	Phone          string          `json:"phone"`
	HireDate       string          `json:"hireDate"`
	BaseSalary     decimal.Decimal `json:"baseSalary"`
	Status         string          `json:"status"`
	EmploymentType string          `json:"employmentType"`
	Specialization string          `json:"specialization"`
	LicenseNumber  string          `json:"licenseNumber"`
	Password       string          `json:"password,omitempty"`
	ProfilePicture string          `json:"profilePicture,omitempty"`
	Bio            string          `json:"bio,omitempty"`

	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Deleted   bool       `json:"deleted"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// FinancialRecord tracks salary advances, loans and bonuses for a staff
// member. Records start pending and require approval.
type FinancialRecord struct {
	ID                string          `json:"id"`
	StaffID           string          `json:"staffId"`
	StaffName         string          `json:"staffName"`
	Type              string          `json:"type"`
	Amount            decimal.Decimal `json:"amount"`
	Date              string          `json:"date"`
	Status            string          `json:"status"`
	Notes             string          `json:"notes,omitempty"`
	RepaymentSchedule string          `json:"repaymentSchedule,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Deleted   bool      `json:"deleted"`
}

// Attendance is an aggregate attendance row per staff member.
type Attendance struct {
	StaffID       string  `json:"staffId"`
	StaffName     string  `json:"staffName"`
	HoursWorked   float64 `json:"hoursWorked"`
	DaysPresent   int     `json:"daysPresent"`
	DaysAbsent    int     `json:"daysAbsent"`
	OvertimeHours float64 `json:"overtimeHours"`
}
