package staff

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/villahermosa/clinic-platform/internal/storage"
	"github.com/villahermosa/clinic-platform/pkg/logging"
)

var (
	// ErrNotFound is returned when a staff member or record does not resolve
	ErrNotFound = errors.New("staff member not found")

	// ErrMissingFields is returned when a create request lacks required fields
	ErrMissingFields = errors.New("missing required fields: name, role, email")
)

// DefaultPassword is assigned to staff created without an explicit password.
const DefaultPassword = "villahermosa123"

// Service manages the staff, staff_financial_records and staff_attendance
// collections.
type Service struct {
	store  storage.Store
	logger *logging.Logger
}

// NewService constructs a staff service.
func NewService(store storage.Store, logger *logging.Logger) *Service {
	if store == nil {
		panic("staff: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, logger: logger}
}

// Create adds a staff member, hashing the supplied or default password.
func (s *Service) Create(ctx context.Context, in Member, plainPassword string) (*Member, error) {
	if in.Name == "" || in.Role == "" || in.Email == "" {
		return nil, ErrMissingFields
	}

	if plainPassword == "" {
		plainPassword = DefaultPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plainPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("staff: hash password: %w", err)
	}

	now := time.Now().UTC()
	member := in
	member.ID = "staff_" + uuid.NewString()
	member.Password = string(hash)
	if member.Status == "" {
		member.Status = "active"
	}
	member.CreatedAt = now
	member.UpdatedAt = now
	member.Deleted = false

	err = s.store.Update(ctx, func(ctx context.Context) error {
		var members []Member
		if err := s.store.Load(ctx, Collection, &members); err != nil {
			return err
		}
		members = append(members, member)
		return s.store.Save(ctx, Collection, members)
	}, Collection)
	if err != nil {
		return nil, err
	}

	s.logger.Info("staff member created", "id", member.ID, "role", member.Role)
	return &member, nil
}

// List returns non-deleted staff members, passwords stripped.
func (s *Service) List(ctx context.Context) ([]Member, error) {
	var members []Member
	if err := s.store.Load(ctx, Collection, &members); err != nil {
		return nil, err
	}
	out := make([]Member, 0, len(members))
	for _, m := range members {
		if m.Deleted {
			continue
		}
		m.Password = ""
		out = append(out, m)
	}
	return out, nil
}

// Get returns a single staff member by id, password stripped.
func (s *Service) Get(ctx context.Context, id string) (*Member, error) {
	var members []Member
	if err := s.store.Load(ctx, Collection, &members); err != nil {
		return nil, err
	}
	for _, m := range members {
		if m.ID == id && !m.Deleted {
			m.Password = ""
			return &m, nil
		}
	}
	return nil, ErrNotFound
}

// FindByName returns the first non-deleted staff member with the given
// display name. Doctor assignments on appointments reference this name.
func (s *Service) FindByName(ctx context.Context, name string) (*Member, error) {
	var members []Member
	if err := s.store.Load(ctx, Collection, &members); err != nil {
		return nil, err
	}
	for _, m := range members {
		if m.Name == name && !m.Deleted {
			m.Password = ""
			return &m, nil
		}
	}
	return nil, ErrNotFound
}

// FindAdmin returns the first staff member whose role looks administrative,
// falling back to the first staff member on file.
func (s *Service) FindAdmin(ctx context.Context) (*Member, error) {
	var members []Member
	if err := s.store.Load(ctx, Collection, &members); err != nil {
		return nil, err
	}
	var fallback *Member
	for i := range members {
		m := members[i]
		if m.Deleted {
			continue
		}
		if fallback == nil {
			first := m
			fallback = &first
		}
		role := strings.ToLower(m.Role)
		if strings.Contains(role, "manager") || strings.Contains(role, "admin") {
			m.Password = ""
			return &m, nil
		}
	}
	if fallback == nil {
		return nil, ErrNotFound
	}
	fallback.Password = ""
	return fallback, nil
}

// UpdateInput carries the optional fields of a staff update; nil pointers
// leave the stored value untouched.
type UpdateInput struct {
	Name           *string          `json:"name"`
	Role           *string          `json:"role"`
	Department     *string          `json:"department"`
	Email          *string          `json:"email"`
	Phone          *string          `json:"phone"`
	HireDate       *string          `json:"hireDate"`
	BaseSalary     *decimal.Decimal `json:"baseSalary"`
	Status         *string          `json:"status"`
	EmploymentType *string          `json:"employmentType"`
	Specialization *string          `json:"specialization"`
	LicenseNumber  *string          `json:"licenseNumber"`
	ProfilePicture *string          `json:"profilePicture"`
	Bio            *string          `json:"bio"`
}

// Update applies a partial update to a staff member.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Member, error) {
	var updated Member
	err := s.store.Update(ctx, func(ctx context.Context) error {
		var members []Member
		if err := s.store.Load(ctx, Collection, &members); err != nil {
			return err
		}
		for i := range members {
			if members[i].ID != id || members[i].Deleted {
				continue
			}
			applyMemberUpdates(&members[i], in)
			members[i].UpdatedAt = time.Now().UTC()
			updated = members[i]
			return s.store.Save(ctx, Collection, members)
		}
		return ErrNotFound
	}, Collection)
	if err != nil {
		return nil, err
	}
	updated.Password = ""
	return &updated, nil
}

// Delete soft-deletes a staff member.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Update(ctx, func(ctx context.Context) error {
		var members []Member
		if err := s.store.Load(ctx, Collection, &members); err != nil {
			return err
		}
		for i := range members {
			if members[i].ID != id || members[i].Deleted {
				continue
			}
			now := time.Now().UTC()
			members[i].Deleted = true
			members[i].DeletedAt = &now
			members[i].UpdatedAt = now
			return s.store.Save(ctx, Collection, members)
		}
		return ErrNotFound
	}, Collection)
}

func applyMemberUpdates(m *Member, in UpdateInput) {
	if in.Name != nil {
		m.Name = *in.Name
	}
	if in.Role != nil {
		m.Role = *in.Role
	}
	if in.Department != nil {
		m.Department = *in.Department
	}
	if in.Email != nil {
		m.Email = *in.Email
	}
	if in.Phone != nil {
		m.Phone = *in.Phone
	}
	if in.HireDate != nil {
		m.HireDate = *in.HireDate
	}
	if in.BaseSalary != nil {
		m.BaseSalary = *in.BaseSalary
	}
	if in.Status != nil {
		m.Status = *in.Status
	}
	if in.EmploymentType != nil {
		m.EmploymentType = *in.EmploymentType
	}
	if in.Specialization != nil {
		m.Specialization = *in.Specialization
	}
	if in.LicenseNumber != nil {
		m.LicenseNumber = *in.LicenseNumber
	}
	if in.ProfilePicture != nil {
		m.ProfilePicture = *in.ProfilePicture
	}
	if in.Bio != nil {
		m.Bio = *in.Bio
	}
}

// CreateFinancialRecord appends a pending financial record for a staff
// member after verifying the member exists.
func (s *Service) CreateFinancialRecord(ctx context.Context, rec FinancialRecord) (*FinancialRecord, error) {
	if rec.StaffID == "" || rec.Type == "" || rec.Amount.Sign() <= 0 {
		return nil, errors.New("missing required fields: staffId, type, positive amount")
	}

	var created FinancialRecord
	err := s.store.Update(ctx, func(ctx context.Context) error {
		var members []Member
		if err := s.store.Load(ctx, Collection, &members); err != nil {
			return err
		}
		var member *Member
		for i := range members {
			if members[i].ID == rec.StaffID && !members[i].Deleted {
				member = &members[i]
				break
			}
		}
		if member == nil {
			return ErrNotFound
		}

		var records []FinancialRecord
		if err := s.store.Load(ctx, FinancialCollection, &records); err != nil {
			return err
		}
		now := time.Now().UTC()
		created = rec
		created.ID = "sfr_" + uuid.NewString()
		created.StaffName = member.Name
		created.Status = "pending"
		created.CreatedAt = now
		created.UpdatedAt = now
		records = append(records, created)
		return s.store.Save(ctx, FinancialCollection, records)
	}, Collection, FinancialCollection)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// FinancialRecords lists non-deleted financial records, optionally scoped
// to one staff member.
func (s *Service) FinancialRecords(ctx context.Context, staffID string) ([]FinancialRecord, error) {
	var records []FinancialRecord
	if err := s.store.Load(ctx, FinancialCollection, &records); err != nil {
		return nil, err
	}
	out := make([]FinancialRecord, 0, len(records))
	for _, r := range records {
		if r.Deleted {
			continue
		}
		if staffID != "" && r.StaffID != staffID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// ApproveFinancialRecord flips a pending record to approved.
func (s *Service) ApproveFinancialRecord(ctx context.Context, id string) (*FinancialRecord, error) {
	var approved FinancialRecord
	err := s.store.Update(ctx, func(ctx context.Context) error {
		var records []FinancialRecord
		if err := s.store.Load(ctx, FinancialCollection, &records); err != nil {
			return err
		}
		for i := range records {
			if records[i].ID != id || records[i].Deleted {
				continue
			}
			records[i].Status = "approved"
			records[i].UpdatedAt = time.Now().UTC()
			approved = records[i]
			return s.store.Save(ctx, FinancialCollection, records)
		}
		return ErrNotFound
	}, FinancialCollection)
	if err != nil {
		return nil, err
	}
	return &approved, nil
}

// DeleteFinancialRecord soft-deletes a financial record.
func (s *Service) DeleteFinancialRecord(ctx context.Context, id string) error {
	return s.store.Update(ctx, func(ctx context.Context) error {
		var records []FinancialRecord
		if err := s.store.Load(ctx, FinancialCollection, &records); err != nil {
			return err
		}
		for i := range records {
			if records[i].ID != id || records[i].Deleted {
				continue
			}
			records[i].Deleted = true
			records[i].UpdatedAt = time.Now().UTC()
			return s.store.Save(ctx, FinancialCollection, records)
		}
		return ErrNotFound
	}, FinancialCollection)
}

// Attendance returns all attendance aggregates.
func (s *Service) Attendance(ctx context.Context) ([]Attendance, error) {
	var records []Attendance
	if err := s.store.Load(ctx, AttendanceCollection, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// MarkAttendance upserts the attendance aggregate for a staff member.
func (s *Service) MarkAttendance(ctx context.Context, rec Attendance) (*Attendance, error) {
	if rec.StaffID == "" {
		return nil, errors.New("staffId is required")
	}
	err := s.store.Update(ctx, func(ctx context.Context) error {
		var records []Attendance
		if err := s.store.Load(ctx, AttendanceCollection, &records); err != nil {
			return err
		}
		for i := range records {
			if records[i].StaffID == rec.StaffID {
				records[i] = rec
				return s.store.Save(ctx, AttendanceCollection, records)
			}
		}
		records = append(records, rec)
		return s.store.Save(ctx, AttendanceCollection, records)
	}, AttendanceCollection)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
