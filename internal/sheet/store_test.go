package sheet

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/openvol/portal-api/pkg/config"
	appErrors "github.com/openvol/portal-api/pkg/errors"
)

const testSheetName = "2025-2026"

var testHeaders = []string{
	ColEvent, ColLocation, ColDate, ColStartTime, ColEndTime,
	ColHours, ColContact, ColFirstName, ColLastName, ColCompleted,
}

// writeFixture builds a workbook with the headers in row 3 and the given
// data rows below, mirroring the production sheet layout.
func writeFixture(t *testing.T, headers []string, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	_, err := f.NewSheet(testSheetName)
	require.NoError(t, err)
	require.NoError(t, f.DeleteSheet("Sheet1"))

	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 3)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(testSheetName, cell, h))
	}
	for ri, row := range rows {
		for ci, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(ci+1, 4+ri)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(testSheetName, cell, v))
		}
	}

	path := filepath.Join(t.TempDir(), "signup.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func testStore(path string) *Store {
	return NewStore(config.SheetConfig{Path: path, SheetName: testSheetName, HeaderRow: 3}, nil)
}

func TestLoadProvisionsTrackingColumnsOnce(t *testing.T) {
	path := writeFixture(t, testHeaders, nil)
	store := testStore(path)

	sh, err := store.Load()
	require.NoError(t, err)
	for _, name := range trackingColumns {
		assert.Contains(t, sh.cols, name)
	}
	require.NoError(t, sh.Close())

	// Second load must find the columns already present and not duplicate
	// any header.
	sh, err = store.Load()
	require.NoError(t, err)
	defer sh.Close()

	rows, err := sh.f.GetRows(testSheetName)
	require.NoError(t, err)
	seen := map[string]int{}
	for _, v := range rows[2] {
		seen[v]++
	}
	for _, name := range trackingColumns {
		assert.Equal(t, 1, seen[name], "header %s duplicated", name)
	}
	assert.Len(t, rows[2], len(testHeaders)+len(trackingColumns))
}

func TestLoadRejectsMissingRequiredColumn(t *testing.T) {
	headers := []string{ColEvent, ColLocation, ColDate, ColStartTime, ColEndTime}
	path := writeFixture(t, headers, nil)

	_, err := testStore(path).Load()
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrMissingColumn))
}

func TestLoadRejectsMissingWorksheet(t *testing.T) {
	path := writeFixture(t, testHeaders, nil)
	store := NewStore(config.SheetConfig{Path: path, SheetName: "2019-2020", HeaderRow: 3}, nil)

	_, err := store.Load()
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrSheetLoad))
}

func TestSlotsParsesAndSkipsRows(t *testing.T) {
	rows := [][]interface{}{
		{"Bake Sale", "Community Hall", "2025-10-04", "09:00", "12:00", 3.0, "Dana", "", "", ""},
		{"", "", "", "", "", nil, "", "", "", ""},
		{"Broken Row", "Hall", "not a date", "09:00", "12:00", nil, "", "", "", ""},
		{"Night Watch", "Gym", "2025-10-04", "22:00", "02:00", 4.0, "Sam", "Pat", "Reyes", ""},
	}
	path := writeFixture(t, testHeaders, rows)

	sh, err := testStore(path).Load()
	require.NoError(t, err)
	defer sh.Close()

	slots := sh.Slots()
	require.Len(t, slots, 2)

	bake := slots[0]
	assert.Equal(t, 4, bake.Row)
	assert.Equal(t, "Bake Sale", bake.Event)
	assert.Equal(t, time.Date(2025, 10, 4, 9, 0, 0, 0, time.Local), bake.StartAt)
	assert.Equal(t, time.Date(2025, 10, 4, 12, 0, 0, 0, time.Local), bake.EndAt)
	assert.InDelta(t, 3.0, bake.Hours, 0.001)
	assert.False(t, bake.Taken())

	night := slots[1]
	assert.Equal(t, 7, night.Row)
	assert.True(t, night.Taken())
	// End before start means the shift crosses midnight.
	assert.Equal(t, time.Date(2025, 10, 5, 2, 0, 0, 0, time.Local), night.EndAt)
}

func TestWhitespaceNamesCountAsOpen(t *testing.T) {
	rows := [][]interface{}{
		{"Setup Crew", "Hall", "2025-11-01", "08:00", "10:00", 2.0, "Dana", "   ", "  ", ""},
	}
	path := writeFixture(t, testHeaders, rows)

	sh, err := testStore(path).Load()
	require.NoError(t, err)
	defer sh.Close()

	slots := sh.Slots()
	require.Len(t, slots, 1)
	assert.False(t, slots[0].Taken())
}

func TestInsertRowIndexFindsFirstGap(t *testing.T) {
	rows := [][]interface{}{
		{"Bake Sale", "Hall", "2025-10-04", "09:00", "12:00", 3.0, "Dana", "", "", ""},
		{"", "", "", "", "", nil, "", "", "", ""},
		{"Night Watch", "Gym", "2025-10-05", "22:00", "02:00", 4.0, "Sam", "", "", ""},
	}
	path := writeFixture(t, testHeaders, rows)

	sh, err := testStore(path).Load()
	require.NoError(t, err)
	defer sh.Close()

	assert.Equal(t, 5, sh.InsertRowIndex())
}

func TestInsertRowIndexAppendsWhenFull(t *testing.T) {
	rows := [][]interface{}{
		{"Bake Sale", "Hall", "2025-10-04", "09:00", "12:00", 3.0, "Dana", "", "", ""},
	}
	path := writeFixture(t, testHeaders, rows)

	sh, err := testStore(path).Load()
	require.NoError(t, err)
	defer sh.Close()

	assert.Equal(t, sh.LastRow()+1, sh.InsertRowIndex())
}

func TestSetCellPersistsAcrossSave(t *testing.T) {
	rows := [][]interface{}{
		{"Bake Sale", "Hall", "2025-10-04", "09:00", "12:00", 3.0, "Dana", "", "", ""},
	}
	path := writeFixture(t, testHeaders, rows)
	store := testStore(path)

	sh, err := store.Load()
	require.NoError(t, err)
	require.NoError(t, sh.SetCell(4, ColFirstName, "Pat"))
	require.NoError(t, sh.SetCell(4, ColLastName, "Reyes"))
	require.NoError(t, sh.SetCell(4, ColEmail, "pat@example.com"))
	require.NoError(t, sh.SetCell(4, ColSent24h, true))
	require.NoError(t, sh.Save())
	require.NoError(t, sh.Close())

	sh, err = store.Load()
	require.NoError(t, err)
	defer sh.Close()

	slot, ok := sh.SlotAt(4)
	require.True(t, ok)
	assert.True(t, slot.Taken())
	assert.Equal(t, "pat@example.com", slot.Email)
	assert.True(t, slot.Sent24h)
	assert.False(t, slot.Sent1h)
}

func TestParseClockFormats(t *testing.T) {
	cases := map[string]time.Duration{
		"09:00":   9 * time.Hour,
		"18:30":   18*time.Hour + 30*time.Minute,
		"3:04 PM": 15*time.Hour + 4*time.Minute,
		"0.5":     12 * time.Hour,
	}
	for raw, want := range cases {
		got, ok := parseClock(raw)
		require.True(t, ok, "parseClock(%q)", raw)
		assert.Equal(t, want, got, "parseClock(%q)", raw)
	}

	_, ok := parseClock("noon")
	assert.False(t, ok)
}

func TestParseDateFormats(t *testing.T) {
	want := time.Date(2025, 10, 4, 0, 0, 0, 0, time.Local)
	for _, raw := range []string{"2025-10-04", "10/04/2025", "Oct 4, 2025"} {
		got, ok := parseDate(raw)
		require.True(t, ok, "parseDate(%q)", raw)
		assert.Equal(t, want, got, "parseDate(%q)", raw)
	}
}
