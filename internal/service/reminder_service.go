package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/openvol/portal-api/internal/models"
	"github.com/openvol/portal-api/internal/notify"
	"github.com/openvol/portal-api/internal/sheet"
)

type reminderSender interface {
	SendReminder(ctx context.Context, slot models.Slot, window notify.Window) error
}

// ReminderService walks the sheet and dispatches 24-hour and 1-hour
// reminder emails for slots carrying a signup email. Each window fires at
// most once per row; the sent flags live in the sheet itself so repeated sweeps
// stay idempotent.
type ReminderService struct {
	store    *sheet.Store
	notifier reminderSender
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
	newUID   func() string
}

func NewReminderService(store *sheet.Store, notifier reminderSender, metrics *MetricsService, logger *zap.Logger) *ReminderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderService{
		store:    store,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
		newUID:   notify.NewInviteUID,
	}
}

// SweepStats summarizes one pass over the sheet.
type SweepStats struct {
	Scanned  int
	Sent24h  int
	Sent1h   int
	Failures int
}

// Sweep scans every slot with a signup email once and sends whichever
// reminders are due. Name cells are not consulted; an email on the row is
// what opts it in. Slots starting 23.5 to 24.5 hours out get the day-before notice,
// 0.5 to 1.5 hours out the final one. A missing calendar UID is minted and
// persisted before sending so the invite attached here matches every later
// email for the same reservation. The sheet is saved once at the end.
func (s *ReminderService) Sweep(ctx context.Context) (SweepStats, error) {
	var stats SweepStats

	sh, err := s.store.Load()
	if err != nil {
		return stats, err
	}
	defer sh.Close()

	now := s.now()
	dirty := false

	for _, slot := range sh.Slots() {
		if slot.Email == "" {
			continue
		}
		stats.Scanned++

		until := slot.StartAt.Sub(now)
		due24 := !slot.Sent24h && until >= 23*time.Hour+30*time.Minute && until <= 24*time.Hour+30*time.Minute
		due1 := !slot.Sent1h && until >= 30*time.Minute && until <= 90*time.Minute
		if !due24 && !due1 {
			continue
		}

		if slot.CalendarUID == "" {
			slot.CalendarUID = s.newUID()
			if err := sh.SetCell(slot.Row, sheet.ColCalendarUID, slot.CalendarUID); err != nil {
				return stats, err
			}
			dirty = true
		}

		if due24 {
			if err := s.send(ctx, sh, slot, notify.Window24h); err != nil {
				stats.Failures++
			} else {
				stats.Sent24h++
				dirty = true
			}
		}
		if due1 {
			if err := s.send(ctx, sh, slot, notify.Window1h); err != nil {
				stats.Failures++
			} else {
				stats.Sent1h++
				dirty = true
			}
		}
	}

	if dirty {
		if err := sh.Save(); err != nil {
			return stats, err
		}
	}
	s.logger.Info("reminder sweep finished",
		zap.Int("scanned", stats.Scanned),
		zap.Int("sent_24h", stats.Sent24h),
		zap.Int("sent_1h", stats.Sent1h),
		zap.Int("failures", stats.Failures))
	return stats, nil
}

func (s *ReminderService) send(ctx context.Context, sh *sheet.Sheet, slot models.Slot, window notify.Window) error {
	if err := s.notifier.SendReminder(ctx, slot, window); err != nil {
		s.logger.Warn("reminder email failed",
			zap.Int("row", slot.Row),
			zap.String("email", slot.Email),
			zap.String("window", string(window)),
			zap.Error(err))
		s.metrics.CountEmailFailure()
		return err
	}
	col := sheet.ColSent24h
	if window == notify.Window1h {
		col = sheet.ColSent1h
	}
	if err := sh.SetCell(slot.Row, col, true); err != nil {
		return err
	}
	s.metrics.CountReminder(string(window))
	return nil
}
