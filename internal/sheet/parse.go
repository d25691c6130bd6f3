package sheet

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Cell formats written by this portal. Reads additionally tolerate the
// formats Excel itself produces for styled date/time cells.
const (
	DateLayout      = "2006-01-02"
	ClockLayout     = "15:04"
	TimestampLayout = "2006-01-02 15:04:05"
)

var dateLayouts = []string{
	DateLayout,
	"1/2/06",
	"01/02/06",
	"1/2/2006",
	"01/02/2006",
	"01-02-06",
	"2-Jan-06",
	"Jan 2, 2006",
	"January 2, 2006",
}

var clockLayouts = []string{
	ClockLayout,
	"15:04:05",
	"3:04 PM",
	"3:04:05 PM",
	"3:04 pm",
}

// parseDate interprets a DATE cell. Numeric values are treated as Excel
// serial dates.
func parseDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local), true
		}
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local), true
		}
	}
	return time.Time{}, false
}

// parseClock interprets a START TIME / END TIME cell as an offset from
// midnight. Numeric values are Excel day fractions.
func parseClock(raw string) (time.Duration, bool) {
	if raw == "" {
		return 0, false
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, true
		}
	}
	if frac, err := strconv.ParseFloat(raw, 64); err == nil && frac >= 0 && frac < 1 {
		return time.Duration(frac * 24 * float64(time.Hour)), true
	}
	return 0, false
}

// parseTimestamp interprets a RESERVED_AT cell.
func parseTimestamp(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{TimestampLayout, time.RFC3339, "1/2/06 15:04"} {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseFloat(raw string) float64 {
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseBool reads the sent-flag cells. Excel renders bool cells as
// TRUE/FALSE; hand-edited sheets sometimes carry 1/0 or yes/no.
func parseBool(raw string) bool {
	switch strings.ToLower(raw) {
	case "true", "1", "yes", "y":
		return true
	default:
		return false
	}
}
