package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openvol/portal-api/internal/models"
	"github.com/openvol/portal-api/pkg/mailer"
)

// Window identifies which reminder a sweep is sending.
type Window string

const (
	Window24h Window = "24h"
	Window1h  Window = "1h"
)

const whenLayout = "Monday, January 2, 2006 at 3:04 PM"

// Notifier composes and dispatches the portal's outbound email.
type Notifier struct {
	mailer  mailer.Mailer
	orgName string
	logger  *zap.Logger
}

// New constructs a Notifier. orgName appears in subjects and signatures.
func New(m mailer.Mailer, orgName string, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if orgName == "" {
		orgName = "Volunteer Portal"
	}
	return &Notifier{mailer: m, orgName: orgName, logger: logger}
}

// NewInviteUID mints a calendar UID for a slot.
func NewInviteUID() string {
	return uuid.NewString()
}

func (n *Notifier) inviteFor(slot models.Slot, uid string) (*Invite, error) {
	title := fmt.Sprintf("%s (%s)", slot.Event, n.orgName)
	details := fmt.Sprintf("Signed up via %s. Contact: %s", n.orgName, slot.Contact)
	return BuildInvite(title, slot.StartAt, slot.EndAt, slot.Location, details, uid)
}

// SendConfirmation emails the freshly booked member a confirmation with the
// invite attached. Callers treat a failure as a warning, never as a reason
// to roll back the reservation.
func (n *Notifier) SendConfirmation(ctx context.Context, to, firstName string, slot models.Slot, uid string) error {
	invite, err := n.inviteFor(slot, uid)
	if err != nil {
		return err
	}

	body := fmt.Sprintf(
		"Hi %s,\n\n"+
			"You're confirmed for:\n"+
			"Event: %s\n"+
			"Location: %s\n"+
			"When: %s\n\n"+
			"Add to Google Calendar:\n%s\n\n"+
			"You will receive reminders 24 hours and 1 hour before.\n\n"+
			"— %s",
		firstName, slot.Event, slot.Location, slot.StartAt.Format(whenLayout), invite.GcalURL, n.orgName,
	)

	return n.mailer.Send(ctx, mailer.Message{
		To:      to,
		Subject: fmt.Sprintf("Confirmation: %s (%s)", slot.Event, slot.StartAt.Format("Jan 2 3:04 PM")),
		Body:    body,
		ICS:     invite.ICS,
	})
}

// SendReminder emails the 24-hour or 1-hour reminder for a reserved slot.
// The invite reuses the slot's stored calendar UID.
func (n *Notifier) SendReminder(ctx context.Context, slot models.Slot, window Window) error {
	invite, err := n.inviteFor(slot, slot.CalendarUID)
	if err != nil {
		return err
	}

	var horizon string
	switch window {
	case Window24h:
		horizon = "~24 hours"
	case Window1h:
		horizon = "~1 hour"
	default:
		return fmt.Errorf("unknown reminder window %q", window)
	}

	body := fmt.Sprintf(
		"Hi,\n\n"+
			"Reminder: your event is in %s.\n"+
			"Event: %s\n"+
			"When: %s\n"+
			"Location: %s\n\n"+
			"Google Calendar link:\n%s\n\n"+
			"— %s",
		horizon, slot.Event, slot.StartAt.Format(whenLayout), slot.Location, invite.GcalURL, n.orgName,
	)

	return n.mailer.Send(ctx, mailer.Message{
		To:      slot.Email,
		Subject: fmt.Sprintf("%s reminder: %s", window, slot.Event),
		Body:    body,
		ICS:     invite.ICS,
	})
}

// SendTest emails a throwaway invite so an admin can verify SMTP settings.
func (n *Notifier) SendTest(ctx context.Context, to string) error {
	now := time.Now()
	invite, err := BuildInvite(
		fmt.Sprintf("%s Test", n.orgName),
		now.Add(5*time.Minute), now.Add(35*time.Minute),
		n.orgName, "SMTP test", NewInviteUID(),
	)
	if err != nil {
		return err
	}

	return n.mailer.Send(ctx, mailer.Message{
		To:      to,
		Subject: fmt.Sprintf("%s Test Email", n.orgName),
		Body:    "This is a test email from the volunteer portal. If you received this, SMTP is configured correctly.",
		ICS:     invite.ICS,
	})
}
