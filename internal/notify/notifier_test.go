package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openvol/portal-api/internal/models"
	"github.com/openvol/portal-api/pkg/mailer"
)

type captureMailer struct {
	sent []mailer.Message
	err  error
}

func (m *captureMailer) Send(_ context.Context, msg mailer.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func testSlot() models.Slot {
	return models.Slot{
		Row:      4,
		Event:    "Bake Sale",
		Location: "Community Hall",
		Contact:  "Dana",
		StartAt:  time.Date(2025, 10, 4, 9, 0, 0, 0, time.Local),
		EndAt:    time.Date(2025, 10, 4, 12, 0, 0, 0, time.Local),
		Email:    "pat@example.com",
	}
}

func TestSendConfirmation(t *testing.T) {
	m := &captureMailer{}
	n := New(m, "CUSA", nil)

	err := n.SendConfirmation(context.Background(), "pat@example.com", "Pat", testSlot(), "uid-1")
	require.NoError(t, err)
	require.Len(t, m.sent, 1)

	msg := m.sent[0]
	assert.Equal(t, "pat@example.com", msg.To)
	assert.Contains(t, msg.Subject, "Confirmation: Bake Sale")
	assert.Contains(t, msg.Body, "Hi Pat,")
	assert.Contains(t, msg.Body, "calendar.google.com")
	assert.Contains(t, string(msg.ICS), "UID:uid-1")
}

func TestSendReminderUsesStoredUID(t *testing.T) {
	m := &captureMailer{}
	n := New(m, "CUSA", nil)

	slot := testSlot()
	slot.CalendarUID = "uid-stable"

	require.NoError(t, n.SendReminder(context.Background(), slot, Window24h))
	require.NoError(t, n.SendReminder(context.Background(), slot, Window1h))
	require.Len(t, m.sent, 2)

	assert.Contains(t, m.sent[0].Subject, "24h reminder")
	assert.Contains(t, m.sent[0].Body, "~24 hours")
	assert.Contains(t, m.sent[1].Subject, "1h reminder")
	assert.Contains(t, m.sent[1].Body, "~1 hour")
	assert.Contains(t, string(m.sent[0].ICS), "UID:uid-stable")
	assert.Contains(t, string(m.sent[1].ICS), "UID:uid-stable")
}

func TestSendReminderRejectsUnknownWindow(t *testing.T) {
	m := &captureMailer{}
	n := New(m, "CUSA", nil)

	err := n.SendReminder(context.Background(), testSlot(), Window("6h"))
	require.Error(t, err)
	assert.Empty(t, m.sent)
}
