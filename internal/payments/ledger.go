package payments

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/villahermosa/clinic-platform/internal/appointments"
	"github.com/villahermosa/clinic-platform/internal/finance"
	"github.com/villahermosa/clinic-platform/internal/observability/metrics"
	"github.com/villahermosa/clinic-platform/internal/patients"
	"github.com/villahermosa/clinic-platform/internal/storage"
	"github.com/villahermosa/clinic-platform/pkg/logging"
)

var tracer = otel.Tracer("clinic.internal.payments")

// ledgerCollections lists every collection a ledger write may touch. All
// of them are locked together so the appointment aggregate, the patient
// balance mirror and the finance journal move in one step.
var ledgerCollections = []string{
	Collection,
	appointments.Collection,
	patients.Collection,
	finance.Collection,
}

// Ledger applies payments to appointments and keeps the patient balances
// and the finance journal consistent with them.
type Ledger struct {
	store   storage.Store
	guard   *IdempotencyGuard
	metrics *metrics.LedgerMetrics
	logger  *logging.Logger
}

// NewLedger constructs a payment ledger. The idempotency guard and
// metrics are optional.
func NewLedger(store storage.Store, guard *IdempotencyGuard, m *metrics.LedgerMetrics, logger *logging.Logger) *Ledger {
	if logger == nil {
		logger = logging.Default()
	}
	return &Ledger{store: store, guard: guard, metrics: m, logger: logger}
}

// RecordInput carries the fields of a new payment.
type RecordInput struct {
	AppointmentID string          `json:"appointmentId"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method"`
	Date          string          `json:"date"`
	TransactionID string          `json:"transactionId"`
	Notes         string          `json:"notes"`
}

// RecordResult is the outcome of Record. Duplicate is set when the
// transaction id matched an existing payment and nothing was written.
type RecordResult struct {
	Payment   *Payment
	Duplicate bool
	Promoted  bool
}

// Record applies a payment to its appointment: the payment row is
// written, the appointment's totals are recomputed, a pending appointment
// is promoted to scheduled, the patient balance mirror is decremented and
// a payment row is journaled. A repeated transaction id returns the
// original payment without writing anything; a missing appointment aborts
// with nothing written.
func (l *Ledger) Record(ctx context.Context, in RecordInput) (*RecordResult, error) {
	ctx, span := tracer.Start(ctx, "payments.record")
	defer span.End()

	if in.AppointmentID == "" || in.Method == "" {
		return nil, ErrMissingFields
	}
	if in.Amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	// The guard is a fast-path duplicate filter; the scan of the
	// payments collection below stays authoritative.
	reserved := false
	if in.TransactionID != "" && l.guard != nil {
		fresh, err := l.guard.Reserve(ctx, in.TransactionID)
		switch {
		case err != nil:
			l.logger.Warn("idempotency reservation unavailable", "error", err)
		case fresh:
			reserved = true
		default:
			l.logger.Info("duplicate transaction spotted before ledger lock", "transaction_id", in.TransactionID)
		}
	}

	result := &RecordResult{}
	err := l.store.Update(ctx, func(ctx context.Context) error {
		var pays []Payment
		if err := l.store.Load(ctx, Collection, &pays); err != nil {
			return err
		}
		if in.TransactionID != "" {
			for _, p := range pays {
				if p.TransactionID == in.TransactionID && !p.Deleted {
					existing := p
					result.Payment = &existing
					result.Duplicate = true
					return nil
				}
			}
		}

		var apts []appointments.Appointment
		if err := l.store.Load(ctx, appointments.Collection, &apts); err != nil {
			return err
		}
		idx := findAppointment(apts, in.AppointmentID)
		if idx == -1 {
			return ErrAppointmentNotFound
		}

		date := in.Date
		if date == "" {
			date = time.Now().UTC().Format("2006-01-02")
		}
		now := time.Now().UTC()
		payment := Payment{
			ID:            "payment_" + uuid.NewString(),
			AppointmentID: in.AppointmentID,
			PatientID:     apts[idx].PatientID,
			Amount:        in.Amount,
			Method:        in.Method,
			Date:          date,
			TransactionID: in.TransactionID,
			Notes:         in.Notes,
			Status:        StatusCompleted,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		apts[idx].TotalPaid = apts[idx].TotalPaid.Add(in.Amount)
		apts[idx].RecalcPaymentStatus()
		result.Promoted = apts[idx].PromoteOnPayment()
		apts[idx].UpdatedAt = now

		pats, err := l.adjustPatientBalance(ctx, apts[idx].PatientID, in.Amount.Neg())
		if err != nil {
			return err
		}

		fin, err := l.appendJournalRow(ctx, payment, apts[idx].PatientName)
		if err != nil {
			return err
		}

		pays = append(pays, payment)
		if err := l.store.Save(ctx, Collection, pays); err != nil {
			return err
		}
		if err := l.store.Save(ctx, appointments.Collection, apts); err != nil {
			return err
		}
		if pats != nil {
			if err := l.store.Save(ctx, patients.Collection, pats); err != nil {
				return err
			}
		}
		if err := l.store.Save(ctx, finance.Collection, fin); err != nil {
			return err
		}
		result.Payment = &payment
		return nil
	}, ledgerCollections...)
	if err != nil {
		if reserved {
			if relErr := l.guard.Release(ctx, in.TransactionID); relErr != nil {
				l.logger.Warn("could not release transaction reservation", "error", relErr)
			}
		}
		span.RecordError(err)
		l.metrics.ObservePayment("record", "error")
		return nil, err
	}

	if result.Duplicate {
		l.metrics.ObservePayment("record", "duplicate")
		return result, nil
	}

	span.SetAttributes(
		attribute.String("clinic.payment_id", result.Payment.ID),
		attribute.String("clinic.appointment_id", in.AppointmentID),
	)
	l.metrics.ObservePayment("record", "ok")
	l.metrics.ObserveAmount(in.Method, in.Amount.InexactFloat64())
	if result.Promoted {
		l.metrics.ObserveAutoPromotion()
		l.logger.Info("pending appointment promoted by payment", "appointment_id", in.AppointmentID)
	}
	l.logger.Info("payment recorded",
		"id", result.Payment.ID,
		"appointment_id", in.AppointmentID,
		"amount", in.Amount.String(),
		"method", in.Method)
	return result, nil
}

// UpdateInput carries a partial payment update; nil pointers leave the
// stored value untouched.
type UpdateInput struct {
	AppointmentID *string          `json:"appointmentId"`
	Amount        *decimal.Decimal `json:"amount"`
	Method        *string          `json:"method"`
	Date          *string          `json:"date"`
	Notes         *string          `json:"notes"`
}

// Update edits a payment. The old payment is fully reversed and the new
// values are applied, so moving a payment between appointments rebalances
// both of them and both patients' mirrors.
func (l *Ledger) Update(ctx context.Context, id string, in UpdateInput) (*Payment, error) {
	ctx, span := tracer.Start(ctx, "payments.update")
	defer span.End()
	span.SetAttributes(attribute.String("clinic.payment_id", id))

	if in.Amount != nil && in.Amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	var updated Payment
	err := l.store.Update(ctx, func(ctx context.Context) error {
		var pays []Payment
		if err := l.store.Load(ctx, Collection, &pays); err != nil {
			return err
		}
		pi := -1
		for i := range pays {
			if pays[i].ID == id && !pays[i].Deleted {
				pi = i
				break
			}
		}
		if pi == -1 {
			return ErrNotFound
		}
		old := pays[pi]

		newAmount := old.Amount
		if in.Amount != nil {
			newAmount = *in.Amount
		}
		newApptID := old.AppointmentID
		if in.AppointmentID != nil && *in.AppointmentID != "" {
			newApptID = *in.AppointmentID
		}

		var apts []appointments.Appointment
		if err := l.store.Load(ctx, appointments.Collection, &apts); err != nil {
			return err
		}
		newIdx := findAppointment(apts, newApptID)
		if newIdx == -1 {
			return ErrAppointmentNotFound
		}

		now := time.Now().UTC()

		newPatientID := apts[newIdx].PatientID
		oldPatientID := old.PatientID
		if newApptID == old.AppointmentID {
			// Same appointment: one signed delta, no clamp, so a
			// drifted totalPaid moves by exactly the change.
			apts[newIdx].TotalPaid = apts[newIdx].TotalPaid.Add(newAmount.Sub(old.Amount))
		} else {
			// Moving between appointments: fully reverse the old
			// posting, then fully apply the new one. The old
			// appointment may have been deleted since; its totals
			// are left alone in that case.
			if oldIdx := findAppointment(apts, old.AppointmentID); oldIdx != -1 {
				apts[oldIdx].TotalPaid = clampZero(apts[oldIdx].TotalPaid.Sub(old.Amount))
				apts[oldIdx].RecalcPaymentStatus()
				apts[oldIdx].UpdatedAt = now
			}
			apts[newIdx].TotalPaid = apts[newIdx].TotalPaid.Add(newAmount)
		}
		apts[newIdx].RecalcPaymentStatus()
		promoted := apts[newIdx].PromoteOnPayment()
		apts[newIdx].UpdatedAt = now

		var pats []patients.Patient
		if err := l.store.Load(ctx, patients.Collection, &pats); err != nil {
			return err
		}
		creditPatient(pats, oldPatientID, old.Amount)
		creditPatient(pats, newPatientID, newAmount.Neg())

		var fin []finance.Record
		if err := l.store.Load(ctx, finance.Collection, &fin); err != nil {
			return err
		}
		for i := range fin {
			if fin[i].PaymentID != old.ID || fin[i].Deleted {
				continue
			}
			fin[i].PatientID = newPatientID
			fin[i].Amount = newAmount
			if in.Date != nil {
				fin[i].Date = *in.Date
			}
			fin[i].Description = "Payment for appointment - " + apts[newIdx].PatientName
			fin[i].UpdatedAt = now
		}

		pays[pi].AppointmentID = newApptID
		pays[pi].PatientID = newPatientID
		pays[pi].Amount = newAmount
		if in.Method != nil {
			pays[pi].Method = *in.Method
		}
		if in.Date != nil {
			pays[pi].Date = *in.Date
		}
		if in.Notes != nil {
			pays[pi].Notes = *in.Notes
		}
		pays[pi].UpdatedAt = now
		updated = pays[pi]

		if err := l.store.Save(ctx, Collection, pays); err != nil {
			return err
		}
		if err := l.store.Save(ctx, appointments.Collection, apts); err != nil {
			return err
		}
		if err := l.store.Save(ctx, patients.Collection, pats); err != nil {
			return err
		}
		if err := l.store.Save(ctx, finance.Collection, fin); err != nil {
			return err
		}
		if promoted {
			l.metrics.ObserveAutoPromotion()
		}
		return nil
	}, ledgerCollections...)
	if err != nil {
		span.RecordError(err)
		l.metrics.ObservePayment("update", "error")
		return nil, err
	}

	l.metrics.ObservePayment("update", "ok")
	l.logger.Info("payment updated", "id", id)
	return &updated, nil
}

// Void soft-deletes a payment and reverses its effect: the appointment's
// totalPaid is clamped at zero on the way down, the patient balance gets
// the amount back and the journaled payment row is retired.
func (l *Ledger) Void(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "payments.void")
	defer span.End()
	span.SetAttributes(attribute.String("clinic.payment_id", id))

	err := l.store.Update(ctx, func(ctx context.Context) error {
		var pays []Payment
		if err := l.store.Load(ctx, Collection, &pays); err != nil {
			return err
		}
		pi := -1
		for i := range pays {
			if pays[i].ID == id && !pays[i].Deleted {
				pi = i
				break
			}
		}
		if pi == -1 {
			return ErrNotFound
		}
		old := pays[pi]
		now := time.Now().UTC()

		pays[pi].Deleted = true
		pays[pi].DeletedAt = &now
		pays[pi].UpdatedAt = now

		var apts []appointments.Appointment
		if err := l.store.Load(ctx, appointments.Collection, &apts); err != nil {
			return err
		}
		if idx := findAppointment(apts, old.AppointmentID); idx != -1 {
			apts[idx].TotalPaid = clampZero(apts[idx].TotalPaid.Sub(old.Amount))
			apts[idx].RecalcPaymentStatus()
			apts[idx].UpdatedAt = now
		} else {
			l.logger.Warn("voided payment references missing appointment", "payment_id", id, "appointment_id", old.AppointmentID)
		}

		var pats []patients.Patient
		if err := l.store.Load(ctx, patients.Collection, &pats); err != nil {
			return err
		}
		creditPatient(pats, old.PatientID, old.Amount)

		var fin []finance.Record
		if err := l.store.Load(ctx, finance.Collection, &fin); err != nil {
			return err
		}
		for i := range fin {
			if fin[i].PaymentID != old.ID || fin[i].Deleted {
				continue
			}
			fin[i].Deleted = true
			fin[i].DeletedAt = &now
			fin[i].UpdatedAt = now
		}

		if err := l.store.Save(ctx, Collection, pays); err != nil {
			return err
		}
		if err := l.store.Save(ctx, appointments.Collection, apts); err != nil {
			return err
		}
		if err := l.store.Save(ctx, patients.Collection, pats); err != nil {
			return err
		}
		return l.store.Save(ctx, finance.Collection, fin)
	}, ledgerCollections...)
	if err != nil {
		span.RecordError(err)
		l.metrics.ObservePayment("void", "error")
		return err
	}

	l.metrics.ObservePayment("void", "ok")
	l.logger.Info("payment voided", "id", id)
	return nil
}

// ListFilter narrows the payment listing.
type ListFilter struct {
	AppointmentID string
	PatientID     string
	Method        string
	StartDate     string
	EndDate       string
}

// List returns non-voided payments, newest date first.
func (l *Ledger) List(ctx context.Context, filter ListFilter) ([]Payment, error) {
	var pays []Payment
	if err := l.store.Load(ctx, Collection, &pays); err != nil {
		return nil, err
	}
	out := make([]Payment, 0, len(pays))
	for _, p := range pays {
		if p.Deleted {
			continue
		}
		if filter.AppointmentID != "" && p.AppointmentID != filter.AppointmentID {
			continue
		}
		if filter.PatientID != "" && p.PatientID != filter.PatientID {
			continue
		}
		if filter.Method != "" && p.Method != filter.Method {
			continue
		}
		if filter.StartDate != "" && p.Date < filter.StartDate {
			continue
		}
		if filter.EndDate != "" && p.Date > filter.EndDate {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Get returns a payment by id, including voided ones.
func (l *Ledger) Get(ctx context.Context, id string) (*Payment, error) {
	var pays []Payment
	if err := l.store.Load(ctx, Collection, &pays); err != nil {
		return nil, err
	}
	for _, p := range pays {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

// adjustPatientBalance loads the patients collection and applies a delta
// to one patient's balance mirror. A missing patient is skipped and nil
// is returned so the caller does not rewrite the collection.
func (l *Ledger) adjustPatientBalance(ctx context.Context, patientID string, delta decimal.Decimal) ([]patients.Patient, error) {
	var pats []patients.Patient
	if err := l.store.Load(ctx, patients.Collection, &pats); err != nil {
		return nil, err
	}
	if creditPatient(pats, patientID, delta) {
		return pats, nil
	}
	l.logger.Warn("payment for unknown patient, balance mirror skipped", "patient_id", patientID)
	return nil, nil
}

func (l *Ledger) appendJournalRow(ctx context.Context, payment Payment, patientName string) ([]finance.Record, error) {
	var fin []finance.Record
	if err := l.store.Load(ctx, finance.Collection, &fin); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	fin = append(fin, finance.Record{
		ID:          "finance_" + uuid.NewString(),
		PatientID:   payment.PatientID,
		Type:        finance.TypePayment,
		Amount:      payment.Amount,
		Description: "Payment for appointment - " + patientName,
		Category:    "Patient Payment",
		Date:        payment.Date,
		PaymentID:   payment.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	return fin, nil
}

// creditPatient adds delta to a patient's balance. Reports whether the
// patient was found.
func creditPatient(pats []patients.Patient, patientID string, delta decimal.Decimal) bool {
	for i := range pats {
		if pats[i].ID == patientID && !pats[i].Deleted {
			pats[i].Balance = pats[i].Balance.Add(delta)
			pats[i].UpdatedAt = time.Now().UTC()
			return true
		}
	}
	return false
}

func findAppointment(apts []appointments.Appointment, id string) int {
	for i := range apts {
		if apts[i].ID == id && !apts[i].Deleted {
			return i
		}
	}
	return -1
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.Sign() < 0 {
		return decimal.Zero
	}
	return d
}
