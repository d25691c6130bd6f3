package notify

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/emersion/go-ical"
)

// ICSTimeLayout is the floating (timezone-naive) iCalendar timestamp form.
// Calendar clients interpret it in the viewer's local timezone, which is
// what a single-campus signup sheet wants.
const ICSTimeLayout = "20060102T150405"

// Invite is a calendar invite in both distributable forms.
type Invite struct {
	ICS     []byte
	GcalURL string
}

// BuildInvite renders a VCALENDAR/VEVENT block and the matching one-click
// Google Calendar URL. The UID must be stable per slot so that repeated
// emails update one logical event instead of duplicating it.
func BuildInvite(title string, start, end time.Time, location, description, uid string) (*Invite, error) {
	event := ical.NewComponent(ical.CompEvent)
	event.Props.SetText(ical.PropUID, uid)
	setFloatingTime(event.Props, ical.PropDateTimeStamp, time.Now())
	setFloatingTime(event.Props, ical.PropDateTimeStart, start)
	setFloatingTime(event.Props, ical.PropDateTimeEnd, end)
	event.Props.SetText(ical.PropSummary, title)
	event.Props.SetText(ical.PropLocation, location)
	event.Props.SetText(ical.PropDescription, description)

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//VolunteerPortal//EN")
	cal.Props.SetText(ical.PropCalendarScale, "GREGORIAN")
	cal.Props.SetText(ical.PropMethod, "PUBLISH")
	cal.Children = append(cal.Children, event)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode calendar invite: %w", err)
	}

	return &Invite{
		ICS:     buf.Bytes(),
		GcalURL: googleCalendarLink(title, start, end, location, description),
	}, nil
}

func setFloatingTime(props ical.Props, name string, t time.Time) {
	p := ical.NewProp(name)
	p.Value = t.Format(ICSTimeLayout)
	props.Set(p)
}

// googleCalendarLink builds the render?action=TEMPLATE URL understood by
// Google Calendar's event editor.
func googleCalendarLink(title string, start, end time.Time, location, details string) string {
	dates := start.Format(ICSTimeLayout) + "/" + end.Format(ICSTimeLayout)
	return "https://calendar.google.com/calendar/render?action=TEMPLATE" +
		"&text=" + percentEncode(title) +
		"&dates=" + percentEncode(dates) +
		"&location=" + percentEncode(location) +
		"&details=" + percentEncode(details)
}

// percentEncode escapes a query value using %20 for spaces rather than the
// form-encoding plus sign, which Google Calendar renders literally.
func percentEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
