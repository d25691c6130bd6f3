// Package sheet maps the xlsx signup sheet onto typed slot records.
//
// The sheet is the system of record. Every write follows the same
// discipline: load the whole workbook, mutate it in memory, save the whole
// workbook. There is no isolation across processes; the interactive API and
// the reminder sweep may race on the file and the last writer wins. That is
// an accepted trade-off for a low-traffic internal tool.
package sheet

import (
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/openvol/portal-api/internal/models"
	"github.com/openvol/portal-api/pkg/config"
	appErrors "github.com/openvol/portal-api/pkg/errors"
)

// Logical column names. Physical positions are resolved from the header row
// on every load, so columns may be reordered in the spreadsheet freely.
const (
	ColEvent     = "EVENT"
	ColLocation  = "LOCATION"
	ColDate      = "DATE"
	ColStartTime = "START TIME"
	ColEndTime   = "END TIME"
	ColHours     = "HOURS"
	ColContact   = "CONTACT PERSON"
	ColFirstName = "FIRST NAME"
	ColLastName  = "LAST NAME"
	ColCompleted = "COMPLETED"

	ColEmail       = "EMAIL"
	ColUserID      = "USER_ID"
	ColReservedAt  = "RESERVED_AT"
	ColSent24h     = "SENT_24H"
	ColSent1h      = "SENT_1H"
	ColCalendarUID = "GCAL_UID"
)

// requiredColumns must exist in the header row; they come with the sheet.
var requiredColumns = []string{
	ColEvent, ColLocation, ColDate, ColStartTime, ColEndTime,
	ColHours, ColContact, ColFirstName, ColLastName, ColCompleted,
}

// trackingColumns are provisioned by the portal, appended once after the
// last used header cell.
var trackingColumns = []string{
	ColEmail, ColUserID, ColReservedAt, ColSent24h, ColSent1h, ColCalendarUID,
}

// Store opens signup sheets from a fixed location.
type Store struct {
	cfg    config.SheetConfig
	logger *zap.Logger
}

// NewStore constructs a Store.
func NewStore(cfg config.SheetConfig, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{cfg: cfg, logger: logger}
}

// Load opens the workbook, provisions any missing tracking columns and
// resolves the header schema. The returned Sheet holds the whole file in
// memory; callers must Close it.
func (s *Store) Load() (*Sheet, error) {
	f, err := excelize.OpenFile(s.cfg.Path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrSheetLoad.Code, appErrors.ErrSheetLoad.Status, "failed to open signup sheet")
	}

	sh := &Sheet{
		f:         f,
		path:      s.cfg.Path,
		name:      s.cfg.SheetName,
		headerRow: s.cfg.HeaderRow,
		logger:    s.logger,
	}

	if idx, err := f.GetSheetIndex(sh.name); err != nil || idx < 0 {
		_ = f.Close()
		return nil, appErrors.Clone(appErrors.ErrSheetLoad, "worksheet "+sh.name+" not found")
	}

	if err := sh.resolveSchema(); err != nil {
		_ = f.Close()
		return nil, err
	}

	provisioned, err := sh.ensureTrackingColumns()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if provisioned {
		if err := sh.Save(); err != nil {
			_ = f.Close()
			return nil, err
		}
		s.logger.Info("provisioned tracking columns", zap.String("sheet", sh.name))
	}

	return sh, nil
}

// Sheet is one loaded workbook with a resolved header schema.
type Sheet struct {
	f         *excelize.File
	path      string
	name      string
	headerRow int
	cols      map[string]int // logical name -> 1-based column
	maxRow    int
	logger    *zap.Logger
}

// resolveSchema builds the logical-name to physical-column mapping from the
// designated header row and verifies the sheet-supplied columns exist.
func (sh *Sheet) resolveSchema() error {
	rows, err := sh.f.GetRows(sh.name)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrSheetLoad.Code, appErrors.ErrSheetLoad.Status, "failed to read signup sheet rows")
	}
	sh.maxRow = len(rows)

	sh.cols = make(map[string]int)
	if sh.headerRow <= len(rows) {
		for i, v := range rows[sh.headerRow-1] {
			name := strings.ToUpper(strings.TrimSpace(v))
			if name != "" {
				sh.cols[name] = i + 1
			}
		}
	}

	for _, name := range requiredColumns {
		if _, ok := sh.cols[name]; !ok {
			return appErrors.Clone(appErrors.ErrMissingColumn, "signup sheet is missing required column "+name)
		}
	}
	return nil
}

// ensureTrackingColumns appends any missing tracking headers after the last
// used header cell. Idempotent: a second load finds them present and writes
// nothing.
func (sh *Sheet) ensureTrackingColumns() (bool, error) {
	next := 1
	for _, col := range sh.cols {
		if col >= next {
			next = col + 1
		}
	}

	added := false
	for _, name := range trackingColumns {
		if _, ok := sh.cols[name]; ok {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(next, sh.headerRow)
		if err != nil {
			return false, appErrors.Wrap(err, appErrors.ErrSheetLoad.Code, appErrors.ErrSheetLoad.Status, "failed to address header cell")
		}
		if err := sh.f.SetCellValue(sh.name, cell, name); err != nil {
			return false, appErrors.Wrap(err, appErrors.ErrSheetLoad.Code, appErrors.ErrSheetLoad.Status, "failed to write tracking header")
		}
		sh.cols[name] = next
		next++
		added = true
	}
	return added, nil
}

// Cell returns the trimmed string value at (row, logical column).
func (sh *Sheet) Cell(row int, col string) string {
	idx, ok := sh.cols[col]
	if !ok {
		return ""
	}
	cell, err := excelize.CoordinatesToCellName(idx, row)
	if err != nil {
		return ""
	}
	v, err := sh.f.GetCellValue(sh.name, cell)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(v)
}

// SetCell writes a value at (row, logical column).
func (sh *Sheet) SetCell(row int, col string, value interface{}) error {
	idx, ok := sh.cols[col]
	if !ok {
		return appErrors.Clone(appErrors.ErrMissingColumn, "signup sheet is missing column "+col)
	}
	cell, err := excelize.CoordinatesToCellName(idx, row)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrSheetLoad.Code, appErrors.ErrSheetLoad.Status, "failed to address cell")
	}
	if err := sh.f.SetCellValue(sh.name, cell, value); err != nil {
		return appErrors.Wrap(err, appErrors.ErrSheetLoad.Code, appErrors.ErrSheetLoad.Status, "failed to write cell")
	}
	if row > sh.maxRow {
		sh.maxRow = row
	}
	return nil
}

// FirstDataRow returns the first row below the header.
func (sh *Sheet) FirstDataRow() int {
	return sh.headerRow + 1
}

// LastRow returns the highest populated row index.
func (sh *Sheet) LastRow() int {
	return sh.maxRow
}

// InsertRowIndex returns the first fully-blank data row, scanning down from
// the header, or the row after the last populated one.
func (sh *Sheet) InsertRowIndex() int {
	for r := sh.FirstDataRow(); r <= sh.maxRow; r++ {
		if sh.Cell(r, ColEvent) == "" && sh.Cell(r, ColDate) == "" && sh.Cell(r, ColStartTime) == "" {
			return r
		}
	}
	return sh.maxRow + 1
}

// Slots parses every data row into a Slot. Rows without an event name or
// with unparseable date/start/end values are skipped.
func (sh *Sheet) Slots() []models.Slot {
	slots := make([]models.Slot, 0, sh.maxRow)
	for r := sh.FirstDataRow(); r <= sh.maxRow; r++ {
		slot, ok := sh.slotAt(r)
		if !ok {
			continue
		}
		slots = append(slots, slot)
	}
	return slots
}

// SlotAt parses a single row.
func (sh *Sheet) SlotAt(row int) (models.Slot, bool) {
	if row < sh.FirstDataRow() || row > sh.maxRow {
		return models.Slot{}, false
	}
	return sh.slotAt(row)
}

func (sh *Sheet) slotAt(r int) (models.Slot, bool) {
	event := sh.Cell(r, ColEvent)
	if event == "" {
		return models.Slot{}, false
	}

	day, ok := parseDate(sh.Cell(r, ColDate))
	if !ok {
		return models.Slot{}, false
	}
	start, ok := parseClock(sh.Cell(r, ColStartTime))
	if !ok {
		return models.Slot{}, false
	}
	end, ok := parseClock(sh.Cell(r, ColEndTime))
	if !ok {
		return models.Slot{}, false
	}

	startAt := day.Add(start)
	endAt := day.Add(end)
	if !endAt.After(startAt) {
		// overnight shift
		endAt = endAt.AddDate(0, 0, 1)
	}

	slot := models.Slot{
		Row:         r,
		Event:       event,
		Location:    sh.Cell(r, ColLocation),
		Contact:     sh.Cell(r, ColContact),
		StartAt:     startAt,
		EndAt:       endAt,
		Hours:       parseFloat(sh.Cell(r, ColHours)),
		Completed:   sh.Cell(r, ColCompleted),
		FirstName:   sh.Cell(r, ColFirstName),
		LastName:    sh.Cell(r, ColLastName),
		Email:       sh.Cell(r, ColEmail),
		UserID:      sh.Cell(r, ColUserID),
		Sent24h:     parseBool(sh.Cell(r, ColSent24h)),
		Sent1h:      parseBool(sh.Cell(r, ColSent1h)),
		CalendarUID: sh.Cell(r, ColCalendarUID),
	}
	if ts, ok := parseTimestamp(sh.Cell(r, ColReservedAt)); ok {
		slot.ReservedAt = &ts
	}
	return slot, true
}

// Save overwrites the workbook on disk.
func (sh *Sheet) Save() error {
	if err := sh.f.Save(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrSheetLoad.Code, appErrors.ErrSheetLoad.Status, "failed to save signup sheet")
	}
	return nil
}

// Close releases the underlying workbook.
func (sh *Sheet) Close() error {
	return sh.f.Close()
}
