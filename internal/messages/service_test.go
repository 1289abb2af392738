package messages

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villahermosa/clinic-platform/internal/notifications"
	"github.com/villahermosa/clinic-platform/internal/notify"
)

type capturingSender struct {
	sent []notify.EmailMessage
	fail bool
}

func (c *capturingSender) Send(_ context.Context, msg notify.EmailMessage) error {
	if c.fail {
		return errors.New("smtp down")
	}
	c.sent = append(c.sent, msg)
	return nil
}

type capturingNotifier struct {
	userIDs []string
	bodies  []string
}

func (c *capturingNotifier) Notify(_ context.Context, userID, _, message string, _ notifications.Type, _ *notifications.Metadata) (*notifications.Notification, error) {
	c.userIDs = append(c.userIDs, userID)
	c.bodies = append(c.bodies, message)
	return &notifications.Notification{}, nil
}

func TestSendEmailAndPortalCopy(t *testing.T) {
	sender := &capturingSender{}
	notifier := &capturingNotifier{}
	svc := NewService(sender, notifier, nil)

	result, err := svc.Send(context.Background(), SendInput{
		PatientID:    "patient_1",
		PatientEmail: "maria@example.com",
		PatientName:  "Maria Santos",
		Message:      "Your crown is ready for fitting.",
	})
	require.NoError(t, err)
	assert.True(t, result.EmailSent)
	assert.True(t, result.Notified)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "maria@example.com", sender.sent[0].To)
	assert.Equal(t, "Message from Villahermosa Dental Clinic", sender.sent[0].Subject)
	assert.Equal(t, "Your crown is ready for fitting.", sender.sent[0].Body)

	require.Len(t, notifier.userIDs, 1)
	assert.Equal(t, "patient_1", notifier.userIDs[0])
	assert.Equal(t, "Your crown is ready for fitting.", notifier.bodies[0])
}

func TestSendRejectsBlankMessage(t *testing.T) {
	svc := NewService(&capturingSender{}, &capturingNotifier{}, nil)

	_, err := svc.Send(context.Background(), SendInput{
		PatientID:    "patient_1",
		PatientEmail: "maria@example.com",
		Message:      "   ",
	})
	assert.ErrorIs(t, err, ErrMissingMessage)
}

func TestSendTruncatesPortalCopy(t *testing.T) {
	notifier := &capturingNotifier{}
	svc := NewService(&capturingSender{}, notifier, nil)

	long := strings.Repeat("a", 150)
	_, err := svc.Send(context.Background(), SendInput{
		PatientID:    "patient_1",
		PatientEmail: "maria@example.com",
		Message:      long,
	})
	require.NoError(t, err)
	require.Len(t, notifier.bodies, 1)
	assert.Len(t, notifier.bodies[0], 100)
	assert.True(t, strings.HasSuffix(notifier.bodies[0], "..."))
}

func TestSendEmailFailureKeepsPortalCopy(t *testing.T) {
	notifier := &capturingNotifier{}
	svc := NewService(&capturingSender{fail: true}, notifier, nil)

	result, err := svc.Send(context.Background(), SendInput{
		PatientID:    "patient_1",
		PatientEmail: "maria@example.com",
		Message:      "Please call the clinic.",
	})
	assert.ErrorIs(t, err, ErrEmailFailed)
	assert.False(t, result.EmailSent)
	assert.True(t, result.Notified)
	assert.Len(t, notifier.userIDs, 1)
}

func TestSendWithoutEmailAddressFails(t *testing.T) {
	sender := &capturingSender{}
	svc := NewService(sender, &capturingNotifier{}, nil)

	result, err := svc.Send(context.Background(), SendInput{
		PatientID: "patient_1",
		Message:   "No address on file.",
	})
	assert.ErrorIs(t, err, ErrEmailFailed)
	assert.False(t, result.EmailSent)
	assert.Empty(t, sender.sent)
}
