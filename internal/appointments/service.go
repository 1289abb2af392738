package appointments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/villahermosa/clinic-platform/internal/notifications"
	"github.com/villahermosa/clinic-platform/internal/observability/metrics"
	"github.com/villahermosa/clinic-platform/internal/storage"
	"github.com/villahermosa/clinic-platform/pkg/logging"
)

// Collection is the appointments collection name.
const Collection = "appointments"

var tracer = otel.Tracer("clinic.internal.appointments")

// Notifier is the notification fan-out the lifecycle emits through.
// notifications.Service satisfies it; tests use a stub.
type Notifier interface {
	Notify(ctx context.Context, userID, title, message string, typ notifications.Type, meta *notifications.Metadata) (*notifications.Notification, error)
	NotifyAdmin(ctx context.Context, title, message string, typ notifications.Type, meta *notifications.Metadata)
	NotifyDoctor(ctx context.Context, doctorName, title, message string, typ notifications.Type, meta *notifications.Metadata)
}

// PatientRef identifies the patient a public booking resolved to.
type PatientRef struct {
	ID        string
	FirstName string
	LastName  string
}

// BookingPatient carries the patient details captured on the public form.
type BookingPatient struct {
	PatientID string
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// PatientDirectory looks up or creates the patient behind a public
// booking. patients.Service satisfies it.
type PatientDirectory interface {
	EnsureForBooking(ctx context.Context, in BookingPatient) (*PatientRef, error)
}

// Service implements the appointment lifecycle: creation, public booking,
// rescheduling with conflict re-check, status transitions and soft delete.
type Service struct {
	store    storage.Store
	patients PatientDirectory
	notifier Notifier
	metrics  *metrics.LedgerMetrics
	logger   *logging.Logger

	staffDuration  int
	publicDuration int
}

// Config carries the service dependencies. Notifier, PatientDirectory and
// Metrics are optional.
type Config struct {
	Store             storage.Store
	Patients          PatientDirectory
	Notifier          Notifier
	Metrics           *metrics.LedgerMetrics
	Logger            *logging.Logger
	StaffDurationMin  int
	PublicDurationMin int
}

// NewService constructs an appointment lifecycle service.
func NewService(cfg Config) *Service {
	if cfg.Store == nil {
		panic("appointments: store required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.StaffDurationMin <= 0 {
		cfg.StaffDurationMin = 60
	}
	if cfg.PublicDurationMin <= 0 {
		cfg.PublicDurationMin = 30
	}
	return &Service{
		store:          cfg.Store,
		patients:       cfg.Patients,
		notifier:       cfg.Notifier,
		metrics:        cfg.Metrics,
		logger:         cfg.Logger,
		staffDuration:  cfg.StaffDurationMin,
		publicDuration: cfg.PublicDurationMin,
	}
}

// CreateInput carries the fields accepted when staff create an appointment.
type CreateInput struct {
	PatientID     string           `json:"patientId"`
	PatientName   string           `json:"patientName"`
	Date          string           `json:"date"`
	Time          string           `json:"time"`
	Type          *int             `json:"type"`
	CustomType    string           `json:"customType"`
	Price         *decimal.Decimal `json:"price"`
	Doctor        string           `json:"doctor"`
	Duration      int              `json:"duration"`
	Notes         string           `json:"notes"`
	Status        Status           `json:"status"`
	PaymentStatus PaymentStatus    `json:"paymentStatus"`
	Balance       *decimal.Decimal `json:"balance"`
}

// Create adds a staff-created appointment; the default status is scheduled.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointments.create")
	defer span.End()

	if in.PatientID == "" || in.PatientName == "" || in.Date == "" || in.Time == "" || in.Type == nil || *in.Type < 0 {
		return nil, ErrMissingFields
	}
	if IsOtherType(*in.Type) && in.CustomType == "" {
		return nil, ErrCustomTypeRequired
	}
	if in.Status != "" && !ValidStatus(in.Status) {
		return nil, ErrInvalidStatus
	}

	duration := in.Duration
	if duration <= 0 {
		duration = s.staffDuration
	}

	basePrice := PriceFor(*in.Type)
	price := basePrice
	if in.Price != nil {
		price = *in.Price
	}

	now := time.Now().UTC()
	apt := Appointment{
		ID:          "apt_" + uuid.NewString(),
		PatientID:   in.PatientID,
		PatientName: in.PatientName,
		Date:        in.Date,
		Time:        in.Time,
		Type:        *in.Type,
		CustomType:  in.CustomType,
		Price:       price,
		Doctor:      in.Doctor,
		Duration:    duration,
		Notes:       in.Notes,
		Status:      StatusScheduled,
		PaymentStatus: PaymentUnpaid,
		Balance:       price,
		TotalPaid:     decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if in.Status != "" {
		apt.Status = in.Status
	}
	if in.PaymentStatus != "" {
		apt.PaymentStatus = in.PaymentStatus
	}
	if in.Balance != nil {
		apt.Balance = *in.Balance
	}

	err := s.store.Update(ctx, func(ctx context.Context) error {
		var existing []Appointment
		if err := s.store.Load(ctx, Collection, &existing); err != nil {
			return err
		}
		if HasConflict(existing, apt.Date, apt.Time, apt.Duration, apt.Doctor, "") {
			s.metrics.ObserveConflict()
			return ErrConflict
		}
		existing = append(existing, apt)
		return s.store.Save(ctx, Collection, existing)
	}, Collection)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.String("clinic.appointment_id", apt.ID))
	s.logger.Info("appointment created", "id", apt.ID, "patient", apt.PatientName, "date", apt.Date, "time", apt.Time)
	s.notifyCreated(ctx, &apt, false)
	return &apt, nil
}

// PublicBookingInput carries a booking from the public portal.
type PublicBookingInput struct {
	PatientID   string `json:"patientId"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Duration    int    `json:"duration"`
	Type        *int   `json:"type"`
	CustomType  string `json:"customType"`
	Doctor      string `json:"doctor"`
	Notes       string `json:"notes"`
	ServiceType string `json:"serviceType"`
}

// BookPublic books an appointment from the public portal. The appointment
// starts pending and unpaid; an unknown caller gets a patient record
// created on the fly.
func (s *Service) BookPublic(ctx context.Context, in PublicBookingInput) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointments.book_public")
	defer span.End()

	if in.FirstName == "" || in.LastName == "" || in.Phone == "" || in.Date == "" || in.Time == "" || in.Type == nil {
		return nil, ErrMissingFields
	}
	if s.patients == nil {
		return nil, fmt.Errorf("appointments: patient directory not configured")
	}

	patient, err := s.patients.EnsureForBooking(ctx, BookingPatient{
		PatientID: in.PatientID,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Phone:     in.Phone,
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	duration := in.Duration
	if duration <= 0 {
		duration = s.publicDuration
	}
	basePrice := PriceFor(*in.Type)

	now := time.Now().UTC()
	apt := Appointment{
		ID:            "apt_" + uuid.NewString(),
		PatientID:     patient.ID,
		PatientName:   strings.TrimSpace(patient.FirstName + " " + patient.LastName),
		Date:          in.Date,
		Time:          in.Time,
		Duration:      duration,
		Type:          *in.Type,
		CustomType:    in.CustomType,
		Price:         basePrice,
		Doctor:        in.Doctor,
		Notes:         in.Notes,
		ServiceType:   in.ServiceType,
		Status:        StatusPending,
		PaymentStatus: PaymentUnpaid,
		Balance:       basePrice,
		TotalPaid:     decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.store.Update(ctx, func(ctx context.Context) error {
		var existing []Appointment
		if err := s.store.Load(ctx, Collection, &existing); err != nil {
			return err
		}
		if HasConflict(existing, apt.Date, apt.Time, apt.Duration, apt.Doctor, "") {
			s.metrics.ObserveConflict()
			return ErrConflict
		}
		existing = append(existing, apt)
		return s.store.Save(ctx, Collection, existing)
	}, Collection)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.logger.Info("public booking created", "id", apt.ID, "patient_id", apt.PatientID)
	s.notifyCreated(ctx, &apt, true)
	if s.notifier != nil {
		s.notifier.Notify(ctx, apt.PatientID,
			"Appointment Request Received",
			fmt.Sprintf("Your request for a %s appointment on %s at %s has been received and is pending confirmation.",
				TypeName(apt.Type, apt.CustomType), apt.Date, apt.Time),
			notifications.TypeAppointment,
			&notifications.Metadata{AppointmentID: apt.ID, CurrentStatus: string(apt.Status)})
	}
	return &apt, nil
}

// Get returns an appointment by id, including soft-deleted rows, matching
// the read semantics of the admin UI.
func (s *Service) Get(ctx context.Context, id string) (*Appointment, error) {
	var records []Appointment
	if err := s.store.Load(ctx, Collection, &records); err != nil {
		return nil, err
	}
	for _, apt := range records {
		if apt.ID == id {
			return &apt, nil
		}
	}
	return nil, ErrNotFound
}

// UpdateInput carries a partial appointment update; nil pointers leave the
// stored value untouched.
type UpdateInput struct {
	PatientID     *string          `json:"patientId"`
	PatientName   *string          `json:"patientName"`
	Date          *string          `json:"date"`
	Time          *string          `json:"time"`
	Type          *int             `json:"type"`
	CustomType    *string          `json:"customType"`
	Price         *decimal.Decimal `json:"price"`
	Doctor        *string          `json:"doctor"`
	Duration      *int             `json:"duration"`
	Notes         *string          `json:"notes"`
	ServiceType   *string          `json:"serviceType"`
	Status        *Status          `json:"status"`
}

// Update applies a partial update. Reschedules re-run the conflict check
// against every other active appointment and abort unchanged on overlap;
// status changes are validated against the transition allow-list.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointments.update")
	defer span.End()
	span.SetAttributes(attribute.String("clinic.appointment_id", id))

	var updated Appointment
	var oldStatus Status
	err := s.store.Update(ctx, func(ctx context.Context) error {
		var records []Appointment
		if err := s.store.Load(ctx, Collection, &records); err != nil {
			return err
		}
		idx := -1
		for i := range records {
			if records[i].ID == id {
				idx = i
				break
			}
		}
		if idx == -1 {
			return ErrNotFound
		}

		candidate := records[idx]
		oldStatus = candidate.Status
		applyUpdates(&candidate, in)

		if in.Status != nil && *in.Status != oldStatus {
			if !ValidStatus(*in.Status) {
				return ErrInvalidStatus
			}
			if !CanTransition(oldStatus, *in.Status) {
				return ErrInvalidTransition
			}
		}

		rescheduled := in.Date != nil || in.Time != nil || in.Duration != nil || in.Doctor != nil
		if rescheduled {
			if HasConflict(records, candidate.Date, candidate.Time, candidate.Duration, candidate.Doctor, id) {
				s.metrics.ObserveConflict()
				return ErrConflict
			}
		}

		candidate.UpdatedAt = time.Now().UTC()
		records[idx] = candidate
		updated = candidate
		return s.store.Save(ctx, Collection, records)
	}, Collection)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if in.Status != nil && *in.Status != oldStatus {
		s.notifyStatusChanged(ctx, &updated)
	}
	return &updated, nil
}

// SoftDelete marks an appointment deleted without removing the row.
func (s *Service) SoftDelete(ctx context.Context, id string) error {
	return s.store.Update(ctx, func(ctx context.Context) error {
		var records []Appointment
		if err := s.store.Load(ctx, Collection, &records); err != nil {
			return err
		}
		for i := range records {
			if records[i].ID != id {
				continue
			}
			now := time.Now().UTC()
			records[i].Deleted = true
			records[i].DeletedAt = &now
			records[i].UpdatedAt = now
			s.logger.Info("appointment soft-deleted", "id", id)
			return s.store.Save(ctx, Collection, records)
		}
		return ErrNotFound
	}, Collection)
}

func applyUpdates(apt *Appointment, in UpdateInput) {
	if in.PatientID != nil {
		apt.PatientID = *in.PatientID
	}
	if in.PatientName != nil {
		apt.PatientName = *in.PatientName
	}
	if in.Date != nil {
		apt.Date = *in.Date
	}
	if in.Time != nil {
		apt.Time = *in.Time
	}
	if in.Type != nil {
		apt.Type = *in.Type
	}
	if in.CustomType != nil {
		apt.CustomType = *in.CustomType
	}
	if in.Price != nil {
		apt.Price = *in.Price
	}
	if in.Doctor != nil {
		apt.Doctor = *in.Doctor
	}
	if in.Duration != nil {
		apt.Duration = *in.Duration
	}
	if in.Notes != nil {
		apt.Notes = *in.Notes
	}
	if in.ServiceType != nil {
		apt.ServiceType = *in.ServiceType
	}
	if in.Status != nil {
		apt.Status = *in.Status
	}
}

func (s *Service) notifyCreated(ctx context.Context, apt *Appointment, public bool) {
	if s.notifier == nil {
		return
	}
	typeName := TypeName(apt.Type, apt.CustomType)

	if !public {
		s.notifier.Notify(ctx, apt.PatientID,
			"Appointment Scheduled",
			fmt.Sprintf("Your appointment for %s is scheduled for %s at %s.", typeName, apt.Date, apt.Time),
			notifications.TypeAppointment,
			&notifications.Metadata{AppointmentID: apt.ID, CurrentStatus: string(apt.Status)})
	}

	isRequest := apt.Status == StatusPending || apt.Status == StatusTentative || apt.Status == StatusToPay
	if apt.PaymentStatus == PaymentUnpaid && !isRequest {
		return
	}

	title := "New Appointment Scheduled"
	message := fmt.Sprintf("%s has a %s appointment for %s on %s at %s.", apt.PatientName, apt.Status, typeName, apt.Date, apt.Time)
	if public {
		title = "New Public Booking"
		message = fmt.Sprintf("%s has booked a %s appointment for %s at %s via the public portal.", apt.PatientName, typeName, apt.Date, apt.Time)
	}
	if isRequest {
		title = strings.Replace(title, "Scheduled", "Request", 1)
		if public {
			title = "New Public Booking Request"
		}
	}

	meta := &notifications.Metadata{
		AppointmentID: apt.ID,
		CurrentStatus: string(apt.Status),
		PatientName:   apt.PatientName,
		IsRequest:     isRequest,
	}
	s.notifier.NotifyAdmin(ctx, title, message, notifications.TypeAppointment, meta)
	s.notifier.NotifyDoctor(ctx, apt.Doctor, title, message, notifications.TypeAppointment, meta)
}

func (s *Service) notifyStatusChanged(ctx context.Context, apt *Appointment) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, apt.PatientID,
		"Appointment Status Updated",
		fmt.Sprintf("Your appointment on %s is now %s.", apt.Date, apt.Status),
		notifications.TypeAppointment,
		&notifications.Metadata{AppointmentID: apt.ID, CurrentStatus: string(apt.Status)})
	s.notifier.NotifyDoctor(ctx, apt.Doctor,
		"Appointment Status Updated",
		fmt.Sprintf("Appointment with %s on %s is now %s.", apt.PatientName, apt.Date, apt.Status),
		notifications.TypeAppointment,
		&notifications.Metadata{AppointmentID: apt.ID, CurrentStatus: string(apt.Status), PatientName: apt.PatientName})
}
