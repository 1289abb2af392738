// Package messages delivers ad-hoc staff messages to a patient: an email
// when an address is on file, mirrored into the portal notifications.
package messages

import (
	"context"
	"errors"
	"strings"

	"github.com/villahermosa/clinic-platform/internal/notifications"
	"github.com/villahermosa/clinic-platform/internal/notify"
	"github.com/villahermosa/clinic-platform/pkg/logging"
)

var (
	ErrMissingMessage = errors.New("messages: message content is required")

	// ErrEmailFailed is returned when no email went out, either because
	// none was configured for the patient or the send failed. A portal
	// notification created along the way is kept.
	ErrEmailFailed = errors.New("messages: email not sent")
)

// Notifier writes the portal copy of a message. notifications.Service
// satisfies it.
type Notifier interface {
	Notify(ctx context.Context, userID, title, message string, typ notifications.Type, meta *notifications.Metadata) (*notifications.Notification, error)
}

// Service sends staff messages to patients.
type Service struct {
	email    notify.EmailSender
	notifier Notifier
	logger   *logging.Logger
}

func NewService(email notify.EmailSender, notifier Notifier, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, notifier: notifier, logger: logger}
}

// SendInput carries the message and the patient's contact details as the
// front desk submits them.
type SendInput struct {
	PatientID    string `json:"patientId"`
	PatientEmail string `json:"patientEmail"`
	PatientPhone string `json:"patientPhone"`
	PatientName  string `json:"patientName"`
	Message      string `json:"message"`
}

// SendResult reports which channels carried the message.
type SendResult struct {
	EmailSent bool
	Notified  bool
}

// Send emails the message when an address is present and mirrors it into
// the patient's portal notifications. SMS is not wired up for local
// numbers yet, so email is the only hard channel: when it does not go
// out, ErrEmailFailed is returned alongside whatever did succeed.
func (s *Service) Send(ctx context.Context, in SendInput) (*SendResult, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, ErrMissingMessage
	}

	result := &SendResult{}

	if in.PatientEmail != "" && s.email != nil {
		err := s.email.Send(ctx, notify.EmailMessage{
			To:      in.PatientEmail,
			ToName:  in.PatientName,
			Subject: "Message from Villahermosa Dental Clinic",
			Body:    message,
		})
		if err != nil {
			s.logger.Warn("message email failed", "to", in.PatientEmail, "error", err)
		} else {
			result.EmailSent = true
		}
	}

	if in.PatientID != "" && s.notifier != nil {
		_, err := s.notifier.Notify(ctx, in.PatientID,
			"New Message from Clinic",
			truncate(message, 100),
			notifications.TypeMessage,
			nil)
		if err != nil {
			s.logger.Warn("portal message notification failed", "patient_id", in.PatientID, "error", err)
		} else {
			result.Notified = true
		}
	}

	if !result.EmailSent {
		return result, ErrEmailFailed
	}
	s.logger.Info("message sent", "patient_id", in.PatientID, "to", in.PatientEmail)
	return result, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
