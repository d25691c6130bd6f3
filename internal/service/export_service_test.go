package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/openvol/portal-api/pkg/errors"
)

func TestRosterCSV(t *testing.T) {
	store := writeSignupSheet(t, [][]interface{}{
		{"Bake Sale", "Hall", "2025-10-04", "09:00", "12:00", 3.0, "Dana", "Pat", "Reyes", ""},
		openRow("Cleanup", "2025-10-06", "08:00", "10:00"),
	})
	slots := NewSlotService(store, &fakeConfirmer{}, nil, 0, nil, nil, nil)
	svc := NewExportService(slots, nil)

	file, err := svc.Roster(context.Background(), "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.True(t, strings.HasSuffix(file.Filename, ".csv"))

	content := string(file.Content)
	lines := strings.Split(strings.TrimSpace(content), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Event")
	assert.Contains(t, content, "Bake Sale")
	assert.Contains(t, content, "reserved")
	assert.Contains(t, content, "open")
}

func TestRosterPDF(t *testing.T) {
	store := writeSignupSheet(t, [][]interface{}{
		openRow("Bake Sale", "2025-10-04", "09:00", "12:00"),
	})
	slots := NewSlotService(store, &fakeConfirmer{}, nil, 0, nil, nil, nil)
	svc := NewExportService(slots, nil)

	file, err := svc.Roster(context.Background(), "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Content), "%PDF"))
}

func TestRosterRejectsUnknownFormat(t *testing.T) {
	store := writeSignupSheet(t, nil)
	slots := NewSlotService(store, &fakeConfirmer{}, nil, 0, nil, nil, nil)
	svc := NewExportService(slots, nil)

	_, err := svc.Roster(context.Background(), "xlsx")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
