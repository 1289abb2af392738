package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/villahermosa/clinic-platform/internal/api/router"
	"github.com/villahermosa/clinic-platform/internal/appointments"
	"github.com/villahermosa/clinic-platform/internal/auth"
	appconfig "github.com/villahermosa/clinic-platform/internal/config"
	"github.com/villahermosa/clinic-platform/internal/finance"
	"github.com/villahermosa/clinic-platform/internal/inventory"
	"github.com/villahermosa/clinic-platform/internal/messages"
	"github.com/villahermosa/clinic-platform/internal/notifications"
	"github.com/villahermosa/clinic-platform/internal/notify"
	"github.com/villahermosa/clinic-platform/internal/observability/metrics"
	"github.com/villahermosa/clinic-platform/internal/patients"
	"github.com/villahermosa/clinic-platform/internal/paymentmethods"
	"github.com/villahermosa/clinic-platform/internal/payments"
	"github.com/villahermosa/clinic-platform/internal/staff"
	"github.com/villahermosa/clinic-platform/internal/storage"
	"github.com/villahermosa/clinic-platform/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	registry := prometheus.NewRegistry()
	ledgerMetrics := metrics.NewLedgerMetrics(registry)
	storeMetrics := metrics.NewStoreMetrics(registry)

	store, err := storage.NewFileStore(cfg.DataDir, logger, storeMetrics)
	if err != nil {
		logger.Error("failed to open data directory", "error", err, "dir", cfg.DataDir)
		os.Exit(1)
	}

	var emailSender notify.EmailSender = notify.NewStubEmailSender(logger)
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		emailSender = sg
	}

	var guard *payments.IdempotencyGuard
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis unreachable, running without payment idempotency fast path", "error", err)
		} else {
			guard = payments.NewIdempotencyGuard(client)
			logger.Info("payment idempotency guard enabled", "addr", cfg.RedisAddr)
		}
	}

	// Services
	staffService := staff.NewService(store, logger)
	notificationService := notifications.NewService(store, staffService, emailSender, logger)
	patientService := patients.NewService(store, logger)
	appointmentService := appointments.NewService(appointments.Config{
		Store:             store,
		Patients:          patientService,
		Notifier:          notificationService,
		Metrics:           ledgerMetrics,
		Logger:            logger,
		StaffDurationMin:  cfg.StaffBookingDuration,
		PublicDurationMin: cfg.PublicBookingDuration,
	})
	ledger := payments.NewLedger(store, guard, ledgerMetrics, logger)
	financeService := finance.NewService(store, logger)
	inventoryService := inventory.NewService(store, logger)
	messageService := messages.NewService(emailSender, notificationService, logger)
	methodService := paymentmethods.NewService(store, logger)
	authService := auth.NewService(auth.Config{
		Secret:        cfg.JWTSecret,
		Expiry:        time.Duration(cfg.JWTExpiryHrs) * time.Hour,
		AdminUsername: cfg.AdminUsername,
		AdminPassword: cfg.AdminPassword,
		Patients:      patientService,
		Logger:        logger,
	})

	// Router
	r := router.New(&router.Config{
		Logger:               logger,
		AuthService:          authService,
		AuthHandler:          auth.NewHandler(authService, logger),
		AppointmentsHandler:  appointments.NewHandler(appointmentService, logger),
		PaymentsHandler:      payments.NewHandler(ledger, logger),
		PatientsHandler:      patients.NewHandler(patientService, logger),
		FinanceHandler:       finance.NewHandler(financeService, logger),
		StaffHandler:         staff.NewHandler(staffService, logger),
		InventoryHandler:     inventory.NewHandler(inventoryService, logger),
		MessagesHandler:      messages.NewHandler(messageService, logger),
		NotificationsHandler: notifications.NewHandler(notificationService, logger),
		PaymentMethods:       paymentmethods.NewHandler(methodService, logger),
		MetricsHandler:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins:   cfg.CORSOrigins,
		PublicRatePerSec:     2,
		PublicBurst:          5,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited")
}
