package notify

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildInviteRendersFloatingTimes(t *testing.T) {
	start := time.Date(2025, 10, 4, 9, 0, 0, 0, time.Local)
	end := time.Date(2025, 10, 4, 12, 0, 0, 0, time.Local)

	invite, err := BuildInvite("Bake Sale", start, end, "Community Hall", "Bring aprons", "uid-123")
	require.NoError(t, err)

	ics := string(invite.ICS)
	assert.Contains(t, ics, "BEGIN:VCALENDAR")
	assert.Contains(t, ics, "BEGIN:VEVENT")
	assert.Contains(t, ics, "UID:uid-123")
	assert.Contains(t, ics, "SUMMARY:Bake Sale")
	assert.Contains(t, ics, "LOCATION:Community Hall")
	// Floating timestamps carry no Z suffix and no TZID parameter.
	assert.Contains(t, ics, "DTSTART:20251004T090000")
	assert.Contains(t, ics, "DTEND:20251004T120000")
	assert.NotContains(t, ics, "DTSTART;TZID")
	assert.NotContains(t, ics, "20251004T090000Z")
}

func TestBuildInviteStableUIDProducesSameEvent(t *testing.T) {
	start := time.Date(2025, 10, 4, 9, 0, 0, 0, time.Local)
	end := start.Add(3 * time.Hour)

	a, err := BuildInvite("Bake Sale", start, end, "Hall", "d", "uid-42")
	require.NoError(t, err)
	b, err := BuildInvite("Bake Sale", start, end, "Hall", "d", "uid-42")
	require.NoError(t, err)

	assert.Contains(t, string(a.ICS), "UID:uid-42")
	assert.Contains(t, string(b.ICS), "UID:uid-42")
}

func TestGoogleCalendarLink(t *testing.T) {
	start := time.Date(2025, 10, 4, 9, 0, 0, 0, time.Local)
	end := time.Date(2025, 10, 4, 12, 0, 0, 0, time.Local)

	invite, err := BuildInvite("Bake Sale & Raffle", start, end, "Community Hall", "details here", "uid-1")
	require.NoError(t, err)

	u, err := url.Parse(invite.GcalURL)
	require.NoError(t, err)
	assert.Equal(t, "calendar.google.com", u.Host)

	q := u.Query()
	assert.Equal(t, "TEMPLATE", q.Get("action"))
	assert.Equal(t, "Bake Sale & Raffle", q.Get("text"))
	assert.Equal(t, "20251004T090000/20251004T120000", q.Get("dates"))
	assert.Equal(t, "Community Hall", q.Get("location"))

	// Spaces must be percent-encoded, not plus-encoded.
	assert.NotContains(t, invite.GcalURL, "+")
	assert.True(t, strings.Contains(invite.GcalURL, "Bake%20Sale"))
}
