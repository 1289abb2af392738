package payments

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villahermosa/clinic-platform/internal/appointments"
	"github.com/villahermosa/clinic-platform/internal/finance"
	"github.com/villahermosa/clinic-platform/internal/patients"
	"github.com/villahermosa/clinic-platform/internal/storage"
)

type ledgerFixture struct {
	store  *storage.MemStore
	ledger *Ledger
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	store := storage.NewMemStore()
	return &ledgerFixture{
		store:  store,
		ledger: NewLedger(store, nil, nil, nil),
	}
}

func (f *ledgerFixture) seedAppointment(t *testing.T, id, patientID string, price int64, status appointments.Status) {
	t.Helper()
	ctx := context.Background()
	var apts []appointments.Appointment
	require.NoError(t, f.store.Load(ctx, appointments.Collection, &apts))
	apt := appointments.Appointment{
		ID:          id,
		PatientID:   patientID,
		PatientName: "Maria Santos",
		Date:        "2026-03-10",
		Time:        "10:00",
		Duration:    60,
		Price:       decimal.NewFromInt(price),
		TotalPaid:   decimal.Zero,
		Status:      status,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	apt.RecalcPaymentStatus()
	apts = append(apts, apt)
	require.NoError(t, f.store.Save(ctx, appointments.Collection, apts))
}

func (f *ledgerFixture) seedPatient(t *testing.T, id string, balance int64) {
	t.Helper()
	ctx := context.Background()
	var pats []patients.Patient
	require.NoError(t, f.store.Load(ctx, patients.Collection, &pats))
	pats = append(pats, patients.Patient{
		ID:        id,
		FirstName: "Maria",
		LastName:  "Santos",
		Phone:     "09171234567",
		Balance:   decimal.NewFromInt(balance),
	})
	require.NoError(t, f.store.Save(ctx, patients.Collection, pats))
}

func (f *ledgerFixture) appointment(t *testing.T, id string) appointments.Appointment {
	t.Helper()
	var apts []appointments.Appointment
	require.NoError(t, f.store.Load(context.Background(), appointments.Collection, &apts))
	for _, apt := range apts {
		if apt.ID == id {
			return apt
		}
	}
	t.Fatalf("appointment %s not found", id)
	return appointments.Appointment{}
}

func (f *ledgerFixture) patient(t *testing.T, id string) patients.Patient {
	t.Helper()
	var pats []patients.Patient
	require.NoError(t, f.store.Load(context.Background(), patients.Collection, &pats))
	for _, p := range pats {
		if p.ID == id {
			return p
		}
	}
	t.Fatalf("patient %s not found", id)
	return patients.Patient{}
}

func (f *ledgerFixture) financeRecords(t *testing.T) []finance.Record {
	t.Helper()
	var fin []finance.Record
	require.NoError(t, f.store.Load(context.Background(), finance.Collection, &fin))
	return fin
}

func dec(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func TestRecordPayment(t *testing.T) {
	f := newLedgerFixture(t)
	f.seedAppointment(t, "apt_1", "patient_1", 1500, appointments.StatusScheduled)
	f.seedPatient(t, "patient_1", 1500)

	result, err := f.ledger.Record(context.Background(), RecordInput{
		AppointmentID: "apt_1",
		Amount:        dec(500),
		Method:        "cash",
		Date:          "2026-03-10",
	})
	require.NoError(t, err)
	require.False(t, result.Duplicate)
	assert.Equal(t, "patient_1", result.Payment.PatientID)
	assert.Equal(t, StatusCompleted, result.Payment.Status)

	apt := f.appointment(t, "apt_1")
	assert.True(t, apt.TotalPaid.Equal(dec(500)))
	assert.True(t, apt.Balance.Equal(dec(1000)), "balance must equal price minus totalPaid")
	assert.Equal(t, appointments.PaymentHalfPaid, apt.PaymentStatus)

	assert.True(t, f.patient(t, "patient_1").Balance.Equal(dec(1000)), "patient mirror decremented")

	fin := f.financeRecords(t)
	require.Len(t, fin, 1)
	assert.Equal(t, finance.TypePayment, fin[0].Type)
	assert.Equal(t, "patient_1", fin[0].PatientID)
	assert.Equal(t, result.Payment.ID, fin[0].PaymentID)
	assert.True(t, fin[0].Amount.Equal(dec(500)))
}

func TestRecordPaymentJournalRowShape(t *testing.T) {
	f := newLedgerFixture(t)
	f.seedAppointment(t, "apt_1", "patient_1", 1500, appointments.StatusScheduled)
	f.seedPatient(t, "patient_1", 1500)

	_, err := f.ledger.Record(context.Background(), RecordInput{
		AppointmentID: "apt_1", Amount: dec(500), Method: "cash", Date: "2026-03-10",
	})
	require.NoError(t, err)

	raw, err := json.Marshal(f.financeRecords(t)[0])
	require.NoError(t, err)
	var row map[string]any
	require.NoError(t, json.Unmarshal(raw, &row))
	assert.Equal(t, "patient_1", row["patientId"])
	assert.Equal(t, "payment", row["type"])
	assert.Equal(t, "2026-03-10", row["date"])
}

func TestRecordPaymentValidation(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	_, err := f.ledger.Record(ctx, RecordInput{Amount: dec(100), Method: "cash"})
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = f.ledger.Record(ctx, RecordInput{AppointmentID: "apt_1", Amount: dec(0), Method: "cash"})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = f.ledger.Record(ctx, RecordInput{AppointmentID: "apt_1", Amount: dec(-50), Method: "cash"})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestRecordPaymentMissingAppointmentAborts(t *testing.T) {
	f := newLedgerFixture(t)
	f.seedPatient(t, "patient_1", 0)

	_, err := f.ledger.Record(context.Background(), RecordInput{
		AppointmentID: "apt_ghost",
		Amount:        dec(500),
		Method:        "cash",
	})
	require.ErrorIs(t, err, ErrAppointmentNotFound)

	// Nothing was written anywhere.
	pays, err := f.ledger.List(context.Background(), ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, pays)
	assert.Empty(t, f.financeRecords(t))
	assert.True(t, f.patient(t, "patient_1").Balance.IsZero())
}

func TestRecordPaymentIdempotentTransactionID(t *testing.T) {
	f := newLedgerFixture(t)
	f.seedAppointment(t, "apt_1", "patient_1", 1500, appointments.StatusScheduled)
	f.seedPatient(t, "patient_1", 1500)

	in := RecordInput{
		AppointmentID: "apt_1",
		Amount:        dec(750),
		Method:        "gcash",
		TransactionID: "txn_abc123",
	}
	first, err := f.ledger.Record(context.Background(), in)
	require.NoError(t, err)

	second, err := f.ledger.Record(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Payment.ID, second.Payment.ID, "the original payment comes back")

	// The retry applied nothing.
	apt := f.appointment(t, "apt_1")
	assert.True(t, apt.TotalPaid.Equal(dec(750)))
	assert.True(t, f.patient(t, "patient_1").Balance.Equal(dec(750)))
	assert.Len(t, f.financeRecords(t), 1)
}

func TestRecordPaymentPromotesPending(t *testing.T) {
	f := newLedgerFixture(t)
	f.seedAppointment(t, "apt_1", "patient_1", 1500, appointments.StatusPending)
	f.seedPatient(t, "patient_1", 1500)

	result, err := f.ledger.Record(context.Background(), RecordInput{
		AppointmentID: "apt_1",
		Amount:        dec(300),
		Method:        "card",
	})
	require.NoError(t, err)
	assert.True(t, result.Promoted)
	assert.Equal(t, appointments.StatusScheduled, f.appointment(t, "apt_1").Status)
}

func TestRecordPaymentUnknownPatientSkipsMirror(t *testing.T) {
	f := newLedgerFixture(t)
	f.seedAppointment(t, "apt_1", "patient_ghost", 1500, appointments.StatusScheduled)

	_, err := f.ledger.Record(context.Background(), RecordInput{
		AppointmentID: "apt_1",
		Amount:        dec(500),
		Method:        "cash",
	})
	require.NoError(t, err, "a missing patient must not block the payment")

	apt := f.appointment(t, "apt_1")
	assert.True(t, apt.TotalPaid.Equal(dec(500)))
	assert.Len(t, f.financeRecords(t), 1)
}

func TestOverpaymentIsPaid(t *testing.T) {
	f := newLedgerFixture(t)
	f.seedAppointment(t, "apt_1", "patient_1", 500, appointments.StatusScheduled)
	f.seedPatient(t, "patient_1", 500)

	_, err := f.ledger.Record(context.Background(), RecordInput{
		AppointmentID: "apt_1",
		Amount:        dec(800),
		Method:        "cash",
	})
	require.NoError(t, err)

	apt := f.appointment(t, "apt_1")
	assert.Equal(t, appointments.PaymentPaid, apt.PaymentStatus)
	assert.True(t, apt.Balance.Equal(dec(-300)), "a negative balance records the credit")
}

func TestVoidReversesPayment(t *testing.T) {
	f := newLedgerFixture(t)
	f.seedAppointment(t, "apt_1", "patient_1", 1500, appointments.StatusScheduled)
	f.seedPatient(t, "patient_1", 1500)
	ctx := context.Background()

	result, err := f.ledger.Record(ctx, RecordInput{
		AppointmentID: "apt_1", Amount: dec(600), Method: "cash",
	})
	require.NoError(t, err)

	require.NoError(t, f.ledger.Void(ctx, result.Payment.ID))

	apt := f.appointment(t, "apt_1")
	assert.True(t, apt.TotalPaid.IsZero())
	assert.True(t, apt.Balance.Equal(dec(1500)))
	assert.Equal(t, appointments.PaymentUnpaid, apt.PaymentStatus)
	assert.True(t, f.patient(t, "patient_1").Balance.Equal(dec(1500)))

	fin := f.financeRecords(t)
	require.Len(t, fin, 1)
	assert.True(t, fin[0].Deleted, "the journaled payment row is retired")

	// Voided payments stay readable but drop out of listings.
	voided, err := f.ledger.Get(ctx, result.Payment.ID)
	require.NoError(t, err)
	assert.True(t, voided.Deleted)
	pays, err := f.ledger.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, pays)

	assert.ErrorIs(t, f.ledger.Void(ctx, result.Payment.ID), ErrNotFound, "a payment voids once")
}

func TestVoidClampsTotalPaidAtZero(t *testing.T) {
	f := newLedgerFixture(t)
	f.seedAppointment(t, "apt_1", "patient_1", 1500, appointments.StatusScheduled)
	f.seedPatient(t, "patient_1", 1500)
	ctx := context.Background()

	result, err := f.ledger.Record(ctx, RecordInput{
		AppointmentID: "apt_1", Amount: dec(600), Method: "cash",
	})
	require.NoError(t, err)

	// Simulate drift: totals were manually edited below the payment.
	var apts []appointments.Appointment
	require.NoError(t, f.store.Load(ctx, appointments.Collection, &apts))
	apts[0].TotalPaid = dec(100)
	apts[0].RecalcPaymentStatus()
	require.NoError(t, f.store.Save(ctx, appointments.Collection, apts))

	require.NoError(t, f.ledger.Void(ctx, result.Payment.ID))

	apt := f.appointment(t, "apt_1")
	assert.True(t, apt.TotalPaid.IsZero(), "reversal clamps at zero instead of going negative")
	assert.Equal(t, appointments.PaymentUnpaid, apt.PaymentStatus)
}

func TestUpdatePaymentAmount(t *testing.T) {
	f := newLedgerFixture(t)
	f.seedAppointment(t, "apt_1", "patient_1", 1500, appointments.StatusScheduled)
	f.seedPatient(t, "patient_1", 1500)
	ctx := context.Background()

	result, err := f.ledger.Record(ctx, RecordInput{
		AppointmentID: "apt_1", Amount: dec(500), Method: "cash",
	})
	require.NoError(t, err)

	newAmount := dec(900)
	updated, err := f.ledger.Update(ctx, result.Payment.ID, UpdateInput{Amount: &newAmount})
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(dec(900)))

	apt := f.appointment(t, "apt_1")
	assert.True(t, apt.TotalPaid.Equal(dec(900)), "old amount reversed, new amount applied")
	assert.True(t, f.patient(t, "patient_1").Balance.Equal(dec(600)))

	fin := f.financeRecords(t)
	require.Len(t, fin, 1)
	assert.True(t, fin[0].Amount.Equal(dec(900)), "the journal row follows the payment")
}

func TestUpdatePaymentAmountAppliesUnclampedDelta(t *testing.T) {
	f := newLedgerFixture(t)
	f.seedAppointment(t, "apt_1", "patient_1", 1500, appointments.StatusScheduled)
	f.seedPatient(t, "patient_1", 1500)
	ctx := context.Background()

	result, err := f.ledger.Record(ctx, RecordInput{
		AppointmentID: "apt_1", Amount: dec(1000), Method: "cash",
	})
	require.NoError(t, err)

	// Drift totalPaid below the recorded amount, as a bad historical
	// void would.
	var apts []appointments.Appointment
	require.NoError(t, f.store.Load(ctx, appointments.Collection, &apts))
	apts[0].TotalPaid = dec(400)
	apts[0].RecalcPaymentStatus()
	require.NoError(t, f.store.Save(ctx, appointments.Collection, apts))

	newAmount := dec(700)
	_, err = f.ledger.Update(ctx, result.Payment.ID, UpdateInput{Amount: &newAmount})
	require.NoError(t, err)

	// One signed delta on the same appointment: 400 + (700 - 1000),
	// not a clamped reversal followed by the new amount.
	apt := f.appointment(t, "apt_1")
	assert.True(t, apt.TotalPaid.Equal(dec(100)), "got %s", apt.TotalPaid)
	assert.Equal(t, appointments.PaymentHalfPaid, apt.PaymentStatus)
}

func TestUpdatePaymentMovesBetweenAppointments(t *testing.T) {
	f := newLedgerFixture(t)
	f.seedAppointment(t, "apt_1", "patient_1", 1500, appointments.StatusScheduled)
	f.seedAppointment(t, "apt_2", "patient_2", 3000, appointments.StatusScheduled)
	f.seedPatient(t, "patient_1", 1500)
	f.seedPatient(t, "patient_2", 3000)
	ctx := context.Background()

	result, err := f.ledger.Record(ctx, RecordInput{
		AppointmentID: "apt_1", Amount: dec(500), Method: "cash",
	})
	require.NoError(t, err)

	target := "apt_2"
	updated, err := f.ledger.Update(ctx, result.Payment.ID, UpdateInput{AppointmentID: &target})
	require.NoError(t, err)
	assert.Equal(t, "apt_2", updated.AppointmentID)
	assert.Equal(t, "patient_2", updated.PatientID)

	// The first appointment and patient are fully restored.
	apt1 := f.appointment(t, "apt_1")
	assert.True(t, apt1.TotalPaid.IsZero())
	assert.Equal(t, appointments.PaymentUnpaid, apt1.PaymentStatus)
	assert.True(t, f.patient(t, "patient_1").Balance.Equal(dec(1500)))

	// The second carries the payment now.
	apt2 := f.appointment(t, "apt_2")
	assert.True(t, apt2.TotalPaid.Equal(dec(500)))
	assert.Equal(t, appointments.PaymentHalfPaid, apt2.PaymentStatus)
	assert.True(t, f.patient(t, "patient_2").Balance.Equal(dec(2500)))

	// The journal row follows the payment to the new patient.
	fin := f.financeRecords(t)
	require.Len(t, fin, 1)
	assert.Equal(t, "patient_2", fin[0].PatientID)
}

func TestUpdatePaymentUnknownTarget(t *testing.T) {
	f := newLedgerFixture(t)
	f.seedAppointment(t, "apt_1", "patient_1", 1500, appointments.StatusScheduled)
	f.seedPatient(t, "patient_1", 1500)
	ctx := context.Background()

	result, err := f.ledger.Record(ctx, RecordInput{
		AppointmentID: "apt_1", Amount: dec(500), Method: "cash",
	})
	require.NoError(t, err)

	target := "apt_ghost"
	_, err = f.ledger.Update(ctx, result.Payment.ID, UpdateInput{AppointmentID: &target})
	assert.ErrorIs(t, err, ErrAppointmentNotFound)

	// The aborted move changed nothing.
	apt := f.appointment(t, "apt_1")
	assert.True(t, apt.TotalPaid.Equal(dec(500)))
}

func TestHalfPaidLifecycle(t *testing.T) {
	f := newLedgerFixture(t)
	f.seedAppointment(t, "apt_1", "patient_1", 1500, appointments.StatusScheduled)
	f.seedPatient(t, "patient_1", 1500)
	ctx := context.Background()

	// First installment: half-paid.
	_, err := f.ledger.Record(ctx, RecordInput{AppointmentID: "apt_1", Amount: dec(750), Method: "cash"})
	require.NoError(t, err)
	assert.Equal(t, appointments.PaymentHalfPaid, f.appointment(t, "apt_1").PaymentStatus)

	// Second installment settles the bill.
	second, err := f.ledger.Record(ctx, RecordInput{AppointmentID: "apt_1", Amount: dec(750), Method: "cash"})
	require.NoError(t, err)
	apt := f.appointment(t, "apt_1")
	assert.Equal(t, appointments.PaymentPaid, apt.PaymentStatus)
	assert.True(t, apt.Balance.IsZero())
	assert.True(t, f.patient(t, "patient_1").Balance.IsZero())

	// Voiding the second installment walks it back to half-paid.
	require.NoError(t, f.ledger.Void(ctx, second.Payment.ID))
	apt = f.appointment(t, "apt_1")
	assert.Equal(t, appointments.PaymentHalfPaid, apt.PaymentStatus)
	assert.True(t, apt.TotalPaid.Equal(dec(750)))
	assert.True(t, apt.Balance.Equal(dec(750)))
	assert.True(t, f.patient(t, "patient_1").Balance.Equal(dec(750)))
}

func TestConcurrentPaymentsSerialize(t *testing.T) {
	f := newLedgerFixture(t)
	f.seedAppointment(t, "apt_1", "patient_1", 5000, appointments.StatusScheduled)
	f.seedPatient(t, "patient_1", 5000)
	ctx := context.Background()

	const workers = 10
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			_, err := f.ledger.Record(ctx, RecordInput{
				AppointmentID: "apt_1", Amount: dec(100), Method: "cash",
			})
			errs <- err
		}()
	}
	for i := 0; i < workers; i++ {
		require.NoError(t, <-errs)
	}

	apt := f.appointment(t, "apt_1")
	assert.True(t, apt.TotalPaid.Equal(dec(1000)), "no payment application may be lost")
	assert.True(t, f.patient(t, "patient_1").Balance.Equal(dec(4000)))
	assert.Len(t, f.financeRecords(t), workers)
}

func TestListFilters(t *testing.T) {
	f := newLedgerFixture(t)
	f.seedAppointment(t, "apt_1", "patient_1", 1500, appointments.StatusScheduled)
	f.seedAppointment(t, "apt_2", "patient_2", 500, appointments.StatusScheduled)
	ctx := context.Background()

	_, err := f.ledger.Record(ctx, RecordInput{AppointmentID: "apt_1", Amount: dec(500), Method: "cash", Date: "2026-03-01"})
	require.NoError(t, err)
	_, err = f.ledger.Record(ctx, RecordInput{AppointmentID: "apt_2", Amount: dec(500), Method: "gcash", Date: "2026-03-05"})
	require.NoError(t, err)

	byMethod, err := f.ledger.List(ctx, ListFilter{Method: "gcash"})
	require.NoError(t, err)
	require.Len(t, byMethod, 1)
	assert.Equal(t, "apt_2", byMethod[0].AppointmentID)

	byAppt, err := f.ledger.List(ctx, ListFilter{AppointmentID: "apt_1"})
	require.NoError(t, err)
	require.Len(t, byAppt, 1)

	byDate, err := f.ledger.List(ctx, ListFilter{StartDate: "2026-03-02", EndDate: "2026-03-31"})
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	assert.Equal(t, "2026-03-05", byDate[0].Date)
}
