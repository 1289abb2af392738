package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/villahermosa/clinic-platform/internal/notify"
	"github.com/villahermosa/clinic-platform/internal/staff"
	"github.com/villahermosa/clinic-platform/internal/storage"
	"github.com/villahermosa/clinic-platform/pkg/logging"
)

// ErrNotFound is returned when a notification id does not resolve
var ErrNotFound = errors.New("notification not found")

// Service persists notification records and optionally mirrors them out as
// email. Delivery failures are logged, never surfaced: notifications are a
// secondary effect of the operations that emit them.
type Service struct {
	store  storage.Store
	staff  *staff.Service
	email  notify.EmailSender
	logger *logging.Logger
}

// NewService constructs a notifications service. email may be nil.
func NewService(store storage.Store, staffSvc *staff.Service, email notify.EmailSender, logger *logging.Logger) *Service {
	if store == nil {
		panic("notifications: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, staff: staffSvc, email: email, logger: logger}
}

// Notify appends a notification for a user.
func (s *Service) Notify(ctx context.Context, userID, title, message string, typ Type, meta *Metadata) (*Notification, error) {
	now := time.Now().UTC()
	n := Notification{
		ID:        "notification_" + uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      typ,
		Metadata:  meta,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.store.Update(ctx, func(ctx context.Context) error {
		var records []Notification
		if err := s.store.Load(ctx, Collection, &records); err != nil {
			return err
		}
		records = append(records, n)
		return s.store.Save(ctx, Collection, records)
	}, Collection)
	if err != nil {
		return nil, err
	}

	s.sendEmail(ctx, userID, title, message)
	return &n, nil
}

// NotifyAdmin notifies the clinic manager (or the first staff member on
// file when no administrative role exists).
func (s *Service) NotifyAdmin(ctx context.Context, title, message string, typ Type, meta *Metadata) {
	if s.staff == nil {
		return
	}
	admin, err := s.staff.FindAdmin(ctx)
	if err != nil {
		s.logger.Warn("no admin staff member to notify", "error", err)
		return
	}
	if _, err := s.Notify(ctx, admin.ID, title, message, typ, meta); err != nil {
		s.logger.Error("failed to notify admin", "error", err)
	}
}

// NotifyDoctor notifies the staff member assigned as doctor by display
// name. Unknown doctors are skipped silently.
func (s *Service) NotifyDoctor(ctx context.Context, doctorName, title, message string, typ Type, meta *Metadata) {
	if s.staff == nil || doctorName == "" {
		return
	}
	doctor, err := s.staff.FindByName(ctx, doctorName)
	if err != nil {
		return
	}
	if _, err := s.Notify(ctx, doctor.ID, title, message, typ, meta); err != nil {
		s.logger.Error("failed to notify doctor", "error", err, "doctor", doctorName)
	}
}

// sendEmail mirrors a notification to the user's email when the user
// resolves to a staff member with an address.
func (s *Service) sendEmail(ctx context.Context, userID, title, message string) {
	if s.email == nil || s.staff == nil {
		return
	}
	member, err := s.staff.Get(ctx, userID)
	if err != nil || member.Email == "" {
		return
	}
	msg := notify.EmailMessage{
		To:      member.Email,
		ToName:  member.Name,
		Subject: title,
		Body:    message,
	}
	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Error("notification email failed", "error", err, "user_id", userID)
	}
}

// ListForUser returns non-deleted notifications for a user, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]Notification, error) {
	var records []Notification
	if err := s.store.Load(ctx, Collection, &records); err != nil {
		return nil, err
	}
	out := make([]Notification, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		n := records[i]
		if n.Deleted || (userID != "" && n.UserID != userID) {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// UnreadCount returns the number of unread notifications for a user.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	records, err := s.ListForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, n := range records {
		if !n.IsRead {
			count++
		}
	}
	return count, nil
}

// MarkRead flags a single notification as read.
func (s *Service) MarkRead(ctx context.Context, id string) (*Notification, error) {
	var updated Notification
	err := s.store.Update(ctx, func(ctx context.Context) error {
		var records []Notification
		if err := s.store.Load(ctx, Collection, &records); err != nil {
			return err
		}
		for i := range records {
			if records[i].ID != id || records[i].Deleted {
				continue
			}
			records[i].IsRead = true
			records[i].UpdatedAt = time.Now().UTC()
			updated = records[i]
			return s.store.Save(ctx, Collection, records)
		}
		return ErrNotFound
	}, Collection)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// MarkAllRead flags every notification of a user as read.
func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	return s.store.Update(ctx, func(ctx context.Context) error {
		var records []Notification
		if err := s.store.Load(ctx, Collection, &records); err != nil {
			return err
		}
		now := time.Now().UTC()
		for i := range records {
			if records[i].Deleted || records[i].UserID != userID || records[i].IsRead {
				continue
			}
			records[i].IsRead = true
			records[i].UpdatedAt = now
		}
		return s.store.Save(ctx, Collection, records)
	}, Collection)
}

// Delete soft-deletes a notification.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Update(ctx, func(ctx context.Context) error {
		var records []Notification
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
