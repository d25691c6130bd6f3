package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/openvol/portal-api/internal/models"
	"github.com/openvol/portal-api/internal/notify"
	"github.com/openvol/portal-api/internal/sheet"
	appErrors "github.com/openvol/portal-api/pkg/errors"
)

const slotListCacheKey = "slots:all"

type confirmationSender interface {
	SendConfirmation(ctx context.Context, to, firstName string, slot models.Slot, uid string) error
}

type slotCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// SlotService is the reservation engine over the signup sheet. Every write
// is a whole-file read-modify-write; there is no isolation against a
// concurrent writer and the last save wins.
type SlotService struct {
	store     *sheet.Store
	notifier  confirmationSender
	cache     slotCache
	cacheTTL  time.Duration
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewSlotService constructs the service. cache may be nil.
func NewSlotService(store *sheet.Store, notifier confirmationSender, cache slotCache, cacheTTL time.Duration, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *SlotService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SlotService{
		store:     store,
		notifier:  notifier,
		cache:     cache,
		cacheTTL:  cacheTTL,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns slots matching the filter, soonest first.
func (s *SlotService) List(ctx context.Context, filter models.SlotFilter) ([]models.Slot, error) {
	slots, err := s.allSlots(ctx)
	if err != nil {
		return nil, err
	}

	now := filter.Now
	if now.IsZero() {
		now = s.now()
	}
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	filtered := make([]models.Slot, 0, len(slots))
	for _, slot := range slots {
		if filter.OwnerEmail != "" {
			if !slot.ReservedBy(filter.OwnerEmail) {
				continue
			}
		} else {
			if filter.UpcomingOnly && slot.StartAt.Before(now) {
				continue
			}
			if !filter.IncludeTaken && slot.Taken() {
				continue
			}
		}
		if search != "" {
			hay := strings.ToLower(slot.Event + " " + slot.Location + " " + slot.Contact)
			if !strings.Contains(hay, search) {
				continue
			}
		}
		filtered = append(filtered, slot)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].StartAt.Before(filtered[j].StartAt)
	})
	return filtered, nil
}

func (s *SlotService) allSlots(ctx context.Context) ([]models.Slot, error) {
	if s.cache != nil {
		var cached []models.Slot
		if err := s.cache.Get(ctx, slotListCacheKey, &cached); err == nil {
			return cached, nil
		} else if !appErrors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("slot cache lookup failed", zap.Error(err))
		}
	}

	started := s.now()
	sh, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	defer sh.Close()
	slots := sh.Slots()
	s.metrics.ObserveSheetOp("list", time.Since(started))

	if s.cache != nil {
		if err := s.cache.Set(ctx, slotListCacheKey, slots, s.cacheTTL); err != nil {
			s.logger.Warn("slot cache store failed", zap.Error(err))
		}
	}
	return slots, nil
}

func (s *SlotService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, slotListCacheKey); err != nil {
		s.logger.Warn("slot cache invalidation failed", zap.Error(err))
	}
}

// ReserveResult reports a successful reservation. EmailError carries a
// confirmation dispatch failure; the reservation itself stands regardless.
type ReserveResult struct {
	Slot       models.Slot
	EmailError error
}

// Reserve books a slot for the user. Fails with ErrSlotTaken when either
// name cell is already non-blank. Both sent-flags reset and any stale
// calendar UID is cleared so a later sweep mints a fresh one.
func (s *SlotService) Reserve(ctx context.Context, row int, user models.JWTClaims) (*ReserveResult, error) {
	started := s.now()
	sh, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	defer sh.Close()

	slot, ok := sh.SlotAt(row)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no slot at that row")
	}
	if slot.Taken() {
		return nil, appErrors.ErrSlotTaken
	}

	email := strings.ToLower(strings.TrimSpace(user.Email))
	reservedAt := s.now()
	writes := []struct {
		col   string
		value interface{}
	}{
		{sheet.ColFirstName, strings.TrimSpace(user.FirstName)},
		{sheet.ColLastName, strings.TrimSpace(user.LastName)},
		{sheet.ColEmail, email},
		{sheet.ColUserID, user.UserID},
		{sheet.ColReservedAt, reservedAt.Format(sheet.TimestampLayout)},
		{sheet.ColSent24h, false},
		{sheet.ColSent1h, false},
		{sheet.ColCalendarUID, ""},
	}
	for _, w := range writes {
		if err := sh.SetCell(row, w.col, w.value); err != nil {
			return nil, err
		}
	}
	if err := sh.Save(); err != nil {
		return nil, err
	}
	s.metrics.ObserveSheetOp("reserve", time.Since(started))
	s.invalidate(ctx)

	slot.FirstName = strings.TrimSpace(user.FirstName)
	slot.LastName = strings.TrimSpace(user.LastName)
	slot.Email = email
	slot.UserID = user.UserID
	slot.ReservedAt = &reservedAt
	slot.Sent24h = false
	slot.Sent1h = false
	slot.CalendarUID = ""

	result := &ReserveResult{Slot: slot}
	if s.notifier != nil {
		// The confirmation invite gets a throwaway UID; the stable one is
		// minted by the first reminder sweep.
		if err := s.notifier.SendConfirmation(ctx, email, slot.FirstName, slot, notify.NewInviteUID()); err != nil {
			s.logger.Warn("confirmation email failed",
				zap.Int("row", row), zap.String("email", email), zap.Error(err))
			s.metrics.CountEmailFailure()
			result.EmailError = err
		}
	}
	return result, nil
}

// Cancel releases the requester's reservation. Only the reserving email may
// cancel, and only while the slot is not marked completed.
func (s *SlotService) Cancel(ctx context.Context, row int, requesterEmail string) error {
	started := s.now()
	sh, err := s.store.Load()
	if err != nil {
		return err
	}
	defer sh.Close()

	slot, ok := sh.SlotAt(row)
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "no slot at that row")
	}
	if !slot.ReservedBy(requesterEmail) {
		return appErrors.ErrNotOwner
	}
	if strings.TrimSpace(slot.Completed) != "" {
		return appErrors.ErrSlotCompleted
	}

	for _, col := range []string{sheet.ColFirstName, sheet.ColLastName, sheet.ColEmail, sheet.ColUserID, sheet.ColReservedAt, sheet.ColCalendarUID} {
		if err := sh.SetCell(row, col, ""); err != nil {
			return err
		}
	}
	for _, col := range []string{sheet.ColSent24h, sheet.ColSent1h} {
		if err := sh.SetCell(row, col, false); err != nil {
			return err
		}
	}
	if err := sh.Save(); err != nil {
		return err
	}
	s.metrics.ObserveSheetOp("cancel", time.Since(started))
	s.invalidate(ctx)
	return nil
}

// AddSlotRequest carries the admin payload for a new sheet row.
type AddSlotRequest struct {
	Event    string  `json:"event" validate:"required"`
	Location string  `json:"location"`
	Date     string  `json:"date" validate:"required,datetime=2006-01-02"`
	Start    string  `json:"start_time" validate:"required,datetime=15:04"`
	End      string  `json:"end_time" validate:"required,datetime=15:04"`
	Hours    float64 `json:"hours" validate:"gte=0"`
	Contact  string  `json:"contact"`
}

// AddSlot appends a new open slot at the first fully-blank row below the
// header, or after the last populated row when none is free.
func (s *SlotService) AddSlot(ctx context.Context, req AddSlotRequest) (*models.Slot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot payload")
	}

	started := s.now()
	sh, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	defer sh.Close()

	row := sh.InsertRowIndex()
	writes := []struct {
		col   string
		value interface{}
	}{
		{sheet.ColEvent, strings.TrimSpace(req.Event)},
		{sheet.ColLocation, strings.TrimSpace(req.Location)},
		{sheet.ColDate, req.Date},
		{sheet.ColStartTime, req.Start},
		{sheet.ColEndTime, req.End},
		{sheet.ColHours, req.Hours},
		{sheet.ColContact, strings.TrimSpace(req.Contact)},
		{sheet.ColFirstName, ""},
		{sheet.ColLastName, ""},
		{sheet.ColCompleted, ""},
		{sheet.ColEmail, ""},
		{sheet.ColUserID, ""},
		{sheet.ColReservedAt, ""},
		{sheet.ColSent24h, false},
		{sheet.ColSent1h, false},
		{sheet.ColCalendarUID, ""},
	}
	for _, w := range writes {
		if err := sh.SetCell(row, w.col, w.value); err != nil {
			return nil, err
		}
	}
	if err := sh.Save(); err != nil {
		return nil, err
	}
	s.metrics.ObserveSheetOp("add", time.Since(started))
	s.invalidate(ctx)

	slot, ok := sh.SlotAt(row)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInternal, "added slot failed to parse back")
	}
	s.logger.Info("slot added", zap.Int("row", row), zap.String("event", slot.Event))
	return &slot, nil
}
