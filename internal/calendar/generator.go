package calendar

import (
	"strconv"
	"time"
)

// Method is the calendar-level scheduling method.
type Method string

// Scheduling methods understood by calendar clients.
const (
	MethodRequest Method = "REQUEST"
	MethodCancel  Method = "CANCEL"
)

// Contact is a name/email pair rendered as ORGANIZER or ATTENDEE.
type Contact struct {
	Name  string
	Email string
}

// Event is the immutable view of a schedulable item needed for rendering.
type Event struct {
	ID       string
	Name     string
	Start    time.Time
	Duration time.Duration
	Location string
}

// Input carries everything needed to render one invite or update payload.
type Input struct {
	Event       Event
	Description string // raw; newlines are stripped during rendering
	Attendees   []Contact
	// Chair is the acting user the batch is rendered on behalf of. The chair
	// is listed once with ROLE=CHAIR and excluded from the attendee block.
	Chair Contact
	// Organizer is the platform's nominal organizer identity (noreply
	// contact). It is rendered as ORGANIZER on the chair's own copy.
	Organizer Contact
	Sequence  int
	// ChairIsOrganizer selects the organizer contact: true renders the
	// nominal organizer (the chair's own copy), false renders the chair's
	// personal contact (attendee-facing copies).
	ChairIsOrganizer bool
}

// CancelInput carries everything needed to render a cancellation payload.
// The organizer email is passed explicitly because the original attendee
// list may no longer be resolvable once the backing event is deleted.
type CancelInput struct {
	Event          Event
	Description    string
	ChairName      string
	OrganizerEmail string
	Sequence       int
}

// Generator renders calendar-object payloads. The zero value is not usable;
// construct with NewGenerator.
type Generator struct {
	uidDomain string
	now       func() time.Time
}

// NewGenerator creates a Generator that stamps UIDs with the given domain.
func NewGenerator(uidDomain string) *Generator {
	return &Generator{uidDomain: uidDomain, now: time.Now}
}

const prodID = "-//Tutorrio//NONSGML icalsender//EN"

// Invite renders a METHOD:REQUEST payload with a 10-minute display reminder.
func (g *Generator) Invite(in Input) string {
	return g.request(in, true)
}

// Update renders a METHOD:REQUEST payload without the reminder sub-component.
func (g *Generator) Update(in Input) string {
	return g.request(in, false)
}

func (g *Generator) request(in Input, withReminder bool) string {
	stamp := FormatDateTime(g.now())

	organizer := in.Organizer
	if !in.ChairIsOrganizer {
		organizer = in.Chair
	}

	cal := component{name: "VCALENDAR"}
	cal.add("VERSION", "2.0")
	cal.add("PRODID", prodID)
	cal.add("METHOD", string(MethodRequest))

	ev := component{name: "VEVENT"}
	ev.add("UID", g.uid(in.Event.ID))
	ev.add("DTSTAMP", stamp)
	ev.add("DTSTART", FormatDateTime(in.Event.Start))
	ev.add("DTEND", FormatDateTime(in.Event.Start.Add(in.Event.Duration)))
	ev.add("SEQUENCE", strconv.Itoa(in.Sequence))
	ev.add("STATUS", "CONFIRMED")
	ev.addText("SUMMARY", in.Event.Name)
	ev.addText("DESCRIPTION", StripNewlines(in.Description))
	ev.addWithParams("ORGANIZER", []param{{"CN", organizer.Name}},
		"mailto:"+organizer.Email)

	ev.addWithParams("ATTENDEE", attendeeParams(in.Chair.Name, "CHAIR", "ACCEPTED"),
		"mailto:"+in.Chair.Email)
	for _, a := range in.Attendees {
		// The chair is never listed twice.
		if a.Email == in.Chair.Email {
			continue
		}
		ev.addWithParams("ATTENDEE", attendeeParams(a.Name, "REQ-PARTICIPANT", "NEEDS-ACTION"),
			"mailto:"+a.Email)
	}

	ev.add("TRANSP", "OPAQUE")
	ev.addText("LOCATION", in.Event.Location)
	ev.add("LAST-MODIFIED", stamp)

	if withReminder {
		alarm := component{name: "VALARM"}
		alarm.add("TRIGGER", "-PT10M")
		alarm.addText("DESCRIPTION", "Reminder for "+in.Event.Name)
		alarm.add("ACTION", "DISPLAY")
		ev.addChild(alarm)
	}

	cal.addChild(ev)
	return cal.String()
}

// Cancel renders a METHOD:CANCEL payload. The attendee block is intentionally
// absent: cancellations only need to identify the calendar item.
func (g *Generator) Cancel(in CancelInput) string {
	stamp := FormatDateTime(g.now())

	cal := component{name: "VCALENDAR"}
	cal.add("VERSION", "2.0")
	cal.add("PRODID", prodID)
	cal.add("METHOD", string(MethodCancel))

	ev := component{name: "VEVENT"}
	ev.add("UID", g.uid(in.Event.ID))
	ev.add("DTSTAMP", stamp)
	ev.add("DTSTART", FormatDateTime(in.Event.Start))
	ev.add("DTEND", FormatDateTime(in.Event.Start.Add(in.Event.Duration)))
	ev.add("SEQUENCE", strconv.Itoa(in.Sequence))
	ev.add("STATUS", "CANCELLED")
	ev.addText("SUMMARY", in.Event.Name)
	ev.addWithParams("ORGANIZER", []param{{"CN", in.ChairName}},
		"mailto:"+in.OrganizerEmail)
	ev.addText("DESCRIPTION", StripNewlines(in.Description))
	ev.addText("LOCATION", in.Event.Location)
	ev.add("LAST-MODIFIED", stamp)

	cal.addChild(ev)
	return cal.String()
}

func (g *Generator) uid(eventID string) string {
	return eventID + "@" + g.uidDomain
}

func attendeeParams(name, role, partstat string) []param {
	return []param{
		{"CN", name},
		{"ROLE", role},
		{"PARTSTAT", partstat},
		{"RSVP", "TRUE"},
	}
}
