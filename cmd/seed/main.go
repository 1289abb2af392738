// Command seed fills a data directory with demo records. It writes
// through the same services the API uses, so derived fields (appointment
// totals, patient balances, the finance journal) come out consistent.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"

	"github.com/villahermosa/clinic-platform/internal/appointments"
	"github.com/villahermosa/clinic-platform/internal/inventory"
	"github.com/villahermosa/clinic-platform/internal/patients"
	"github.com/villahermosa/clinic-platform/internal/payments"
	"github.com/villahermosa/clinic-platform/internal/staff"
	"github.com/villahermosa/clinic-platform/internal/storage"
	"github.com/villahermosa/clinic-platform/pkg/logging"
)

var doctors = []string{"Dr. Villahermosa", "Dr. Cruz", "Dr. Reyes"}

func main() {
	dataDir := flag.String("data", "./data", "data directory to seed")
	patientCount := flag.Int("patients", 20, "number of patients")
	seed := flag.Uint64("seed", 0, "deterministic fake data seed (0 = random)")
	flag.Parse()

	logger := logging.New("info")
	if *seed != 0 {
		gofakeit.Seed(*seed)
	}

	store, err := storage.NewFileStore(*dataDir, logger, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "seed:", err)
		os.Exit(1)
	}

	ctx := context.Background()
	patientService := patients.NewService(store, logger)
	staffService := staff.NewService(store, logger)
	inventoryService := inventory.NewService(store, logger)
	appointmentService := appointments.NewService(appointments.Config{
		Store:    store,
		Patients: patientService,
		Logger:   logger,
	})
	ledger := payments.NewLedger(store, nil, nil, logger)

	for _, name := range doctors {
		if _, err := staffService.Create(ctx, staff.Member{
			Name:       name,
			Role:       "dentist",
			Email:      gofakeit.Email(),
			Phone:      gofakeit.Phone(),
			BaseSalary: decimal.NewFromInt(int64(gofakeit.Number(40, 90) * 1000)),
		}, ""); err != nil {
			logger.Error("seed staff failed", "error", err)
			os.Exit(1)
		}
	}
	if _, err := staffService.Create(ctx, staff.Member{
		Name:  "Clinic Manager",
		Role:  "manager",
		Email: gofakeit.Email(),
		Phone: gofakeit.Phone(),
	}, ""); err != nil {
		logger.Error("seed manager failed", "error", err)
		os.Exit(1)
	}

	supplies := []string{"Gloves", "Composite Resin", "Anesthetic Cartridges", "Fluoride Gel", "Suction Tips"}
	for _, name := range supplies {
		if _, err := inventoryService.Create(ctx, inventory.CreateInput{
			Name:         name,
			Category:     "consumables",
			Quantity:     gofakeit.Number(5, 200),
			Unit:         "box",
			CostPerUnit:  decimal.NewFromInt(int64(gofakeit.Number(50, 900))),
			ReorderLevel: 10,
			Supplier:     gofakeit.Company(),
		}); err != nil {
			logger.Error("seed inventory failed", "error", err)
			os.Exit(1)
		}
	}

	created := 0
	for i := 0; i < *patientCount; i++ {
		patient, err := patientService.Create(ctx, patients.CreateInput{
			FirstName:   gofakeit.FirstName(),
			LastName:    gofakeit.LastName(),
			Email:       gofakeit.Email(),
			Phone:       gofakeit.Phone(),
			DateOfBirth: gofakeit.DateRange(gofakeit.Date().AddDate(-60, 0, 0), gofakeit.Date()).Format("2006-01-02"),
			Gender:      gofakeit.Gender(),
			Address:     gofakeit.Address().Address,
		})
		if err != nil {
			logger.Error("seed patient failed", "error", err)
			os.Exit(1)
		}

		// One or two appointments per patient on disjoint morning slots
		// so the conflict checker never rejects the seed data.
		for j := 0; j < 1+gofakeit.Number(0, 1); j++ {
			typeIdx := gofakeit.Number(0, len(appointments.Types)-2)
			date := fmt.Sprintf("2026-%02d-%02d", gofakeit.Number(1, 12), gofakeit.Number(1, 28))
			slot := fmt.Sprintf("%02d:00", 8+created%10)
			apt, err := appointmentService.Create(ctx, appointments.CreateInput{
				PatientID:   patient.ID,
				PatientName: patient.FullName(),
				Date:        date,
				Time:        slot,
				Type:        &typeIdx,
				Doctor:      doctors[created%len(doctors)],
			})
			if err != nil {
				// A collision between two random slots is not fatal.
				logger.Warn("skipping appointment", "error", err)
				continue
			}
			created++

			// Roughly half the appointments get a payment; some partial.
			if gofakeit.Bool() {
				amount := apt.Price
				if gofakeit.Bool() && apt.Price.GreaterThan(decimal.Zero) {
					amount = apt.Price.Div(decimal.NewFromInt(2))
				}
				if amount.GreaterThan(decimal.Zero) {
					if _, err := ledger.Record(ctx, payments.RecordInput{
						AppointmentID: apt.ID,
						Amount:        amount,
						Method:        gofakeit.RandomString([]string{"cash", "card", "gcash"}),
						Date:          date,
					}); err != nil {
						logger.Error("seed payment failed", "error", err)
						os.Exit(1)
					}
				}
			}
		}
	}

	logger.Info("seed complete",
		"dir", *dataDir,
		"patients", *patientCount,
		"appointments", created,
	)
}
