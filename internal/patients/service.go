package patients

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/villahermosa/clinic-platform/internal/appointments"
	"github.com/villahermosa/clinic-platform/internal/storage"
	"github.com/villahermosa/clinic-platform/pkg/logging"
)

var (
	ErrNotFound      = errors.New("patients: not found")
	ErrMissingFields = errors.New("patients: missing required fields")
	ErrBadPassword   = errors.New("patients: current password does not match")
)

// DefaultPassword is assigned to patient accounts created by staff or by
// the public booking flow; patients change it on first portal login.
const DefaultPassword = "villahermosa123"

// Service manages patient records and the portal credentials attached to
// them.
type Service struct {
	store  storage.Store
	logger *logging.Logger
}

// NewService constructs a patient service.
func NewService(store storage.Store, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, logger: logger}
}

// CreateInput carries the fields accepted when registering a patient.
type CreateInput struct {
	FirstName      string            `json:"firstName"`
	LastName       string            `json:"lastName"`
	Email          string            `json:"email"`
	Phone          string            `json:"phone"`
	DateOfBirth    string            `json:"dateOfBirth"`
	Gender         string            `json:"gender"`
	Address        string            `json:"address"`
	MedicalHistory string            `json:"medicalHistory"`
	Allergies      string            `json:"allergies"`
	Password       string            `json:"password"`
	Emergency      *EmergencyContact `json:"emergencyContact"`
}

// Create registers a patient. An omitted password falls back to the
// clinic default.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Patient, error) {
	if in.FirstName == "" || in.LastName == "" || in.Phone == "" {
		return nil, ErrMissingFields
	}

	password := in.Password
	if password == "" {
		password = DefaultPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	patient := Patient{
		ID:             "patient_" + uuid.NewString(),
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Email:          in.Email,
		Phone:          in.Phone,
		DateOfBirth:    in.DateOfBirth,
		Gender:         in.Gender,
		Address:        in.Address,
		MedicalHistory: in.MedicalHistory,
		Allergies:      in.Allergies,
		Balance:        decimal.Zero,
		Password:       string(hash),
		Emergency:      in.Emergency,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.store.Update(ctx, func(ctx context.Context) error {
		var records []Patient
		if err := s.store.Load(ctx, Collection, &records); err != nil {
			return err
		}
		records = append(records, patient)
		return s.store.Save(ctx, Collection, records)
	}, Collection)
	if err != nil {
		return nil, err
	}

	s.logger.Info("patient created", "id", patient.ID)
	patient.Password = ""
	return &patient, nil
}

// EnsureForBooking resolves the patient behind a public booking, creating
// a record with the default password when no existing patient matches by
// id, phone or email.
func (s *Service) EnsureForBooking(ctx context.Context, in appointments.BookingPatient) (*appointments.PatientRef, error) {
	var ref *appointments.PatientRef
	err := s.store.Update(ctx, func(ctx context.Context) error {
		var records []Patient
		if err := s.store.Load(ctx, Collection, &records); err != nil {
			return err
		}
		for _, p := range records {
			if p.Deleted {
				continue
			}
			if (in.PatientID != "" && p.ID == in.PatientID) ||
				(in.Phone != "" && p.Phone == in.Phone) ||
				(in.Email != "" && p.Email != "" && strings.EqualFold(p.Email, in.Email)) {
				ref = &appointments.PatientRef{ID: p.ID, FirstName: p.FirstName, LastName: p.LastName}
				return nil
			}
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		patient := Patient{
			ID:        "patient_" + uuid.NewString(),
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Email:     in.Email,
			Phone:     in.Phone,
			Balance:   decimal.Zero,
			Password:  string(hash),
			CreatedAt: now,
			UpdatedAt: now,
		}
		records = append(records, patient)
		if err := s.store.Save(ctx, Collection, records); err != nil {
			return err
		}
		s.logger.Info("patient created from public booking", "id", patient.ID)
		ref = &appointments.PatientRef{ID: patient.ID, FirstName: patient.FirstName, LastName: patient.LastName}
		return nil
	}, Collection)
	if err != nil {
		return nil, err
	}
	return ref, nil
}

// List returns non-deleted patients, optionally filtered by a name, phone
// or email search. Password hashes never leave the service.
func (s *Service) List(ctx context.Context, search string) ([]Patient, error) {
	var records []Patient
	if err := s.store.Load(ctx, Collection, &records); err != nil {
		return nil, err
	}
	out := make([]Patient, 0, len(records))
	needle := strings.ToLower(search)
	for _, p := range records {
		if p.Deleted {
			continue
		}
		if needle != "" {
			hay := strings.ToLower(p.FullName() + " " + p.Phone + " " + p.Email)
			if !strings.Contains(hay, needle) {
				continue
			}
		}
		p.Password = ""
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FullName() < out[j].FullName()
	})
	return out, nil
}

// Get returns a patient by id with the password hash stripped.
func (s *Service) Get(ctx context.Context, id string) (*Patient, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Password = ""
	return p, nil
}

func (s *Service) find(ctx context.Context, id string) (*Patient, error) {
	var records []Patient
	if err := s.store.Load(ctx, Collection, &records); err != nil {
		return nil, err
	}
	for _, p := range records {
		if p.ID == id && !p.Deleted {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

// UpdateInput carries a partial patient update; nil pointers leave the
// stored value untouched. Passwords change through ChangePassword only.
type UpdateInput struct {
	FirstName      *string           `json:"firstName"`
	LastName       *string           `json:"lastName"`
	Email          *string           `json:"email"`
	Phone          *string           `json:"phone"`
	DateOfBirth    *string           `json:"dateOfBirth"`
	Gender         *string           `json:"gender"`
	Address        *string           `json:"address"`
	MedicalHistory *string           `json:"medicalHistory"`
	Allergies      *string           `json:"allergies"`
	Emergency      *EmergencyContact `json:"emergencyContact"`
}

// Update applies a partial update to a patient record.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Patient, error) {
	var updated Patient
	err := s.store.Update(ctx, func(ctx context.Context) error {
		var records []Patient
		if err := s.store.Load(ctx, Collection, &records); err != nil {
			return err
		}
		for i := range records {
			if records[i].ID != id || records[i].Deleted {
				continue
			}
			applyPatientUpdates(&records[i], in)
			records[i].UpdatedAt = time.Now().UTC()
			updated = records[i]
			return s.store.Save(ctx, Collection, records)
		}
		return ErrNotFound
	}, Collection)
	if err != nil {
		return nil, err
	}
	updated.Password = ""
	return &updated, nil
}

func applyPatientUpdates(p *Patient, in UpdateInput) {
	if in.FirstName != nil {
		p.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		p.LastName = *in.LastName
	}
	if in.Email != nil {
		p.Email = *in.Email
	}
	if in.Phone != nil {
		p.Phone = *in.Phone
	}
	if in.DateOfBirth != nil {
		p.DateOfBirth = *in.DateOfBirth
	}
	if in.Gender != nil {
		p.Gender = *in.Gender
	}
	if in.Address != nil {
		p.Address = *in.Address
	}
	if in.MedicalHistory != nil {
		p.MedicalHistory = *in.MedicalHistory
	}
	if in.Allergies != nil {
		p.Allergies = *in.Allergies
	}
	if in.Emergency != nil {
		p.Emergency = in.Emergency
	}
}

// Delete soft-deletes a patient.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Update(ctx, func(ctx context.Context) error {
		var records []Patient
		if err := s.store.Load(ctx, Collection, &records); err != nil {
			return err
		}
		for i := range records {
			if records[i].ID != id || records[i].Deleted {
				continue
			}
			now := time.Now().UTC()
			records[i].Deleted = true
			records[i].DeletedAt = &now
			records[i].UpdatedAt = now
			return s.store.Save(ctx, Collection, records)
		}
		return ErrNotFound
	}, Collection)
}

// ChangePassword verifies the current password and stores a bcrypt hash
// of the new one.
func (s *Service) ChangePassword(ctx context.Context, id, current, next string) error {
	if next == "" {
		return ErrMissingFields
	}
	return s.store.Update(ctx, func(ctx context.Context) error {
		var records []Patient
		if err := s.store.Load(ctx, Collection, &records); err != nil {
			return err
		}
		for i := range records {
			if records[i].ID != id || records[i].Deleted {
				continue
			}
			if err := bcrypt.CompareHashAndPassword([]byte(records[i].Password), []byte(current)); err != nil {
				return ErrBadPassword
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			records[i].Password = string(hash)
			records[i].UpdatedAt = time.Now().UTC()
			return s.store.Save(ctx, Collection, records)
		}
		return ErrNotFound
	}, Collection)
}

// Authenticate resolves portal credentials. The identifier matches the
// patient's phone or email; the password is compared against the stored
// bcrypt hash. The returned record has the hash stripped.
func (s *Service) Authenticate(ctx context.Context, identifier, password string) (*Patient, error) {
	if identifier == "" || password == "" {
		return nil, ErrBadPassword
	}
	var records []Patient
	if err := s.store.Load(ctx, Collection, &records); err != nil {
		return nil, err
	}
	for _, p := range records {
		if p.Deleted {
			continue
		}
		if p.Phone != identifier && !strings.EqualFold(p.Email, identifier) {
			continue
		}
		if err := bcrypt.CompareHashAndPassword([]byte(p.Password), []byte(password)); err != nil {
			return nil, ErrBadPassword
		}
		p.Password = ""
		return &p, nil
	}
	return nil, ErrNotFound
}

// AddDependent attaches a family member to a patient account.
func (s *Service) AddDependent(ctx context.Context, patientID string, dep Dependent) (*Patient, error) {
	if dep.FirstName == "" || dep.LastName == "" {
		return nil, ErrMissingFields
	}
	dep.ID = "dependent_" + uuid.NewString()

	var updated Patient
	err := s.store.Update(ctx, func(ctx context.Context) error {
		var records []Patient
		if err := s.store.Load(ctx, Collection, &records); err != nil {
			return err
		}
		for i := range records {
			if records[i].ID != patientID || records[i].Deleted {
				continue
			}
			records[i].Dependents = append(records[i].Dependents, dep)
			records[i].UpdatedAt = time.Now().UTC()
			updated = records[i]
			return s.store.Save(ctx, Collection, records)
		}
		return ErrNotFound
	}, Collection)
	if err != nil {
		return nil, err
	}
	updated.Password = ""
	return &updated, nil
}

// RecomputeBalance rebuilds a patient's balance from the appointments
// collection and stores the result. The ledger keeps the mirror current
// incrementally; this repairs drift after manual data edits.
func (s *Service) RecomputeBalance(ctx context.Context, patientID string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.store.Update(ctx, func(ctx context.Context) error {
		var apts []appointments.Appointment
		if err := s.store.Load(ctx, appointments.Collection, &apts); err != nil {
			return err
		}
		total := decimal.Zero
		for _, apt := range apts {
			if apt.Deleted || apt.PatientID != patientID || apt.Status == appointments.StatusCancelled {
				continue
			}
			total = total.Add(apt.Balance)
		}

		var records []Patient
		if err := s.store.Load(ctx, Collection, &records); err != nil {
			return err
		}
		for i := range records {
			if records[i].ID != patientID || records[i].Deleted {
				continue
			}
			records[i].Balance = total
			records[i].UpdatedAt = time.Now().UTC()
			balance = total
			return s.store.Save(ctx, Collection, records)
		}
		return ErrNotFound
	}, Collection, appointments.Collection)
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}
