package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openvol/portal-api/internal/models"
	"github.com/openvol/portal-api/internal/notify"
	"github.com/openvol/portal-api/internal/sheet"
)

type fakeReminderSender struct {
	sent []struct {
		Row    int
		UID    string
		Window notify.Window
	}
	err error
}

func (f *fakeReminderSender) SendReminder(_ context.Context, slot models.Slot, window notify.Window) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, struct {
		Row    int
		UID    string
		Window notify.Window
	}{slot.Row, slot.CalendarUID, window})
	return nil
}

// reservedRow builds a data row already booked by pat@example.com.
func reservedRow(event, date, start, end string) []interface{} {
	return []interface{}{event, "Hall", date, start, end, 3.0, "Dana", "Pat", "Reyes", ""}
}

func seedEmail(t *testing.T, store *sheet.Store, row int) {
	t.Helper()
	sh, err := store.Load()
	require.NoError(t, err)
	require.NoError(t, sh.SetCell(row, sheet.ColEmail, "pat@example.com"))
	require.NoError(t, sh.Save())
	require.NoError(t, sh.Close())
}

func newTestReminderService(store *sheet.Store, sender *fakeReminderSender, now time.Time) *ReminderService {
	svc := NewReminderService(store, sender, nil, nil)
	svc.now = func() time.Time { return now }
	uid := 0
	svc.newUID = func() string {
		uid++
		return "uid-" + string(rune('a'+uid-1))
	}
	return svc
}

func TestSweepSends24hReminderOnce(t *testing.T) {
	now := time.Date(2025, 10, 3, 9, 0, 0, 0, time.Local)
	store := writeSignupSheet(t, [][]interface{}{
		reservedRow("Bake Sale", "2025-10-04", "09:00", "12:00"), // exactly 24h out
	})
	seedEmail(t, store, 4)
	sender := &fakeReminderSender{}
	svc := newTestReminderService(store, sender, now)

	stats, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Sent24h)
	assert.Equal(t, 0, stats.Sent1h)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, notify.Window24h, sender.sent[0].Window)
	assert.NotEmpty(t, sender.sent[0].UID)

	// A second sweep at the same instant must be a no-op.
	stats, err = svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Sent24h)
	require.Len(t, sender.sent, 1)
}

func TestSweepWindowBoundaries(t *testing.T) {
	now := time.Date(2025, 10, 3, 9, 0, 0, 0, time.Local)
	store := writeSignupSheet(t, [][]interface{}{
		reservedRow("Too Far", "2025-10-04", "09:31", "12:00"),    // 24h31m out
		reservedRow("Upper Edge", "2025-10-04", "09:30", "12:00"), // exactly 24h30m out
		reservedRow("Lower Edge", "2025-10-04", "08:30", "12:00"), // exactly 23h30m out
		reservedRow("Too Close", "2025-10-04", "08:29", "12:00"),  // 23h29m out
	})
	for row := 4; row <= 7; row++ {
		seedEmail(t, store, row)
	}
	sender := &fakeReminderSender{}
	svc := newTestReminderService(store, sender, now)

	// Both window edges are inclusive.
	stats, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Sent24h)
	require.Len(t, sender.sent, 2)
	assert.Equal(t, 5, sender.sent[0].Row)
	assert.Equal(t, 6, sender.sent[1].Row)
}

func TestSweepSendsWhenNameCellsBlank(t *testing.T) {
	// An email can be present while the name cells are blank; the sweep
	// keys on the email alone.
	now := time.Date(2025, 10, 3, 9, 0, 0, 0, time.Local)
	store := writeSignupSheet(t, [][]interface{}{
		openRow("Bake Sale", "2025-10-04", "09:00", "12:00"),
	})
	seedEmail(t, store, 4)
	sender := &fakeReminderSender{}
	svc := newTestReminderService(store, sender, now)

	stats, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Scanned)
	assert.Equal(t, 1, stats.Sent24h)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, 4, sender.sent[0].Row)
}

func TestSweep1hWindowIndependent(t *testing.T) {
	now := time.Date(2025, 10, 4, 8, 0, 0, 0, time.Local)
	store := writeSignupSheet(t, [][]interface{}{
		reservedRow("Bake Sale", "2025-10-04", "09:00", "12:00"), // 1h out
	})
	seedEmail(t, store, 4)

	// Mark the 24h reminder as already sent; only the 1h one is due.
	sh, err := store.Load()
	require.NoError(t, err)
	require.NoError(t, sh.SetCell(4, sheet.ColSent24h, true))
	require.NoError(t, sh.Save())
	require.NoError(t, sh.Close())

	sender := &fakeReminderSender{}
	svc := newTestReminderService(store, sender, now)

	stats, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Sent24h)
	assert.Equal(t, 1, stats.Sent1h)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, notify.Window1h, sender.sent[0].Window)
}

func TestSweepMintsAndReusesCalendarUID(t *testing.T) {
	store := writeSignupSheet(t, [][]interface{}{
		reservedRow("Bake Sale", "2025-10-04", "09:00", "12:00"),
	})
	seedEmail(t, store, 4)

	// 24h sweep mints the UID.
	sender := &fakeReminderSender{}
	svc := newTestReminderService(store, sender, time.Date(2025, 10, 3, 9, 0, 0, 0, time.Local))
	_, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	minted := sender.sent[0].UID
	require.NotEmpty(t, minted)

	// 1h sweep, fresh service instance, must reuse the persisted UID.
	sender2 := &fakeReminderSender{}
	svc2 := newTestReminderService(store, sender2, time.Date(2025, 10, 4, 8, 0, 0, 0, time.Local))
	_, err = svc2.Sweep(context.Background())
	require.NoError(t, err)
	require.Len(t, sender2.sent, 1)
	assert.Equal(t, minted, sender2.sent[0].UID)
}

func TestSweepFailureLeavesFlagUnset(t *testing.T) {
	now := time.Date(2025, 10, 3, 9, 0, 0, 0, time.Local)
	store := writeSignupSheet(t, [][]interface{}{
		reservedRow("Bake Sale", "2025-10-04", "09:00", "12:00"),
	})
	seedEmail(t, store, 4)

	failing := &fakeReminderSender{err: assert.AnError}
	svc := newTestReminderService(store, failing, now)

	stats, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Sent24h)
	assert.Equal(t, 1, stats.Failures)

	// Flag stays false so a later sweep retries. The minted UID is still
	// persisted so the retry attaches the same event.
	working := &fakeReminderSender{}
	svc2 := newTestReminderService(store, working, now)
	stats, err = svc2.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Sent24h)
}

func TestSweepIgnoresRowsWithoutEmail(t *testing.T) {
	now := time.Date(2025, 10, 3, 9, 0, 0, 0, time.Local)
	store := writeSignupSheet(t, [][]interface{}{
		reservedRow("No Email", "2025-10-04", "09:00", "12:00"),
		openRow("Open Slot", "2025-10-04", "09:00", "12:00"),
	})
	sender := &fakeReminderSender{}
	svc := newTestReminderService(store, sender, now)

	stats, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Scanned)
	assert.Empty(t, sender.sent)
}
