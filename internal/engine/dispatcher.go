package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/tutorrio/icalsender/internal/calendar"
	"github.com/tutorrio/icalsender/internal/directory"
	"github.com/tutorrio/icalsender/internal/metrics"
	"github.com/tutorrio/icalsender/internal/notification"
	"github.com/tutorrio/icalsender/internal/storage"
)

// sendTimeout bounds a single SMTP delivery attempt.
const sendTimeout = 30 * time.Second

// Dispatcher fans a resolved trigger out into personalized messages, one per
// recipient, and hands each to the mail transport. A failure for one
// recipient never blocks the others; every attempt is written to the
// delivery log.
type Dispatcher struct {
	provider notification.Provider
	gen      *calendar.Generator
	log      storage.DeliveryLogStore
	// organizer is the platform's nominal organizer identity (noreply
	// contact) rendered on organizer-perspective copies.
	organizer calendar.Contact
	logger    *slog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(provider notification.Provider, gen *calendar.Generator,
	log storage.DeliveryLogStore, organizer calendar.Contact, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		provider:  provider,
		gen:       gen,
		log:       log,
		organizer: organizer,
		logger:    logger.With("component", "dispatcher"),
	}
}

// DispatchInvites sends fresh invitations for snap to every roster user
// except the chair. When organizerCopy is set, the chair additionally
// receives the organizer-perspective copy, exactly once, regardless of
// whether they appear in the roster.
func (d *Dispatcher) DispatchInvites(ctx context.Context, kind TriggerKind, snap EventSnapshot,
	roster []directory.User, chair directory.User, courseURL string, seq int, organizerCopy bool) {
	d.dispatchRequests(ctx, kind, snap, roster, chair, courseURL, seq, organizerCopy, true, "")
}

// DispatchUpdates sends the update copy of snap to the chair (organizer
// perspective) and to every roster user except the chair (attendee
// perspective), all at the same sequence number. skipEmail names a roster
// member who stays in the rendered attendee block but receives no update
// copy: the just-joined user, whose own message is the fresh invite.
func (d *Dispatcher) DispatchUpdates(ctx context.Context, kind TriggerKind, snap EventSnapshot,
	roster []directory.User, chair directory.User, courseURL string, seq int, skipEmail string) {
	d.dispatchRequests(ctx, kind, snap, roster, chair, courseURL, seq, true, false, skipEmail)
}

func (d *Dispatcher) dispatchRequests(ctx context.Context, kind TriggerKind, snap EventSnapshot,
	roster []directory.User, chair directory.User, courseURL string, seq int,
	organizerCopy, invite bool, skipEmail string) {

	subject := updateSubject(snap.Name, snap.Start)
	if invite {
		subject = inviteSubject(snap.Name, snap.Start)
	}

	attendees := contactsOf(roster)
	chairContact := calendar.Contact{Name: chair.FullName(), Email: chair.Email}

	in := calendar.Input{
		Event:       snap.calendarEvent(),
		Description: snap.Description,
		Attendees:   attendees,
		Chair:       chairContact,
		Organizer:   d.organizer,
		Sequence:    seq,
	}

	if organizerCopy {
		in.ChairIsOrganizer = true
		rcpt := recipientOf(chair, RoleOrganizer)
		d.deliver(ctx, kind, calendar.MethodRequest, OutboundMessage{
			ToAddress:   rcpt.Email,
			ToName:      rcpt.DisplayName,
			SubjectLine: subject,
			BodyHTML:    d.requestBody(rcpt, snap, courseURL, invite),
			Payload:     d.render(in, invite),
		})
	}

	// The attendee-perspective payload does not vary per recipient; render
	// it once for the whole batch.
	in.ChairIsOrganizer = false
	payload := d.render(in, invite)

	for _, u := range roster {
		// The chair only ever receives the organizer-perspective copy.
		if u.Email == chair.Email {
			continue
		}
		if skipEmail != "" && u.Email == skipEmail {
			continue
		}
		rcpt := recipientOf(u, RoleAttendee)
		d.deliver(ctx, kind, calendar.MethodRequest, OutboundMessage{
			ToAddress:   rcpt.Email,
			ToName:      rcpt.DisplayName,
			SubjectLine: subject,
			BodyHTML:    d.requestBody(rcpt, snap, courseURL, invite),
			Payload:     payload,
		})
	}
}

func (d *Dispatcher) render(in calendar.Input, invite bool) string {
	if invite {
		return d.gen.Invite(in)
	}
	return d.gen.Update(in)
}

func (d *Dispatcher) requestBody(rcpt Recipient, snap EventSnapshot, courseURL string, invite bool) string {
	if invite {
		return inviteBody(rcpt.FirstName, snap.Name, snap.Start, courseURL)
	}
	return updateBody(rcpt.FirstName, snap.Name, snap.Start, courseURL)
}

// DispatchCancels sends the cancellation of snap to every roster user except
// the chair, plus the chair's own copy when organizerCopy is set. The
// description is passed explicitly because deleted events can no longer
// provide one.
func (d *Dispatcher) DispatchCancels(ctx context.Context, kind TriggerKind, snap EventSnapshot,
	description string, roster []directory.User, chair directory.User, courseURL string,
	seq int, organizerCopy bool) {

	subject := cancelSubject(snap.Name)

	if organizerCopy {
		rcpt := recipientOf(chair, RoleOrganizer)
		payload := d.gen.Cancel(calendar.CancelInput{
			Event:          snap.calendarEvent(),
			Description:    description,
			ChairName:      chair.FullName(),
			OrganizerEmail: d.organizer.Email,
			Sequence:       seq,
		})
		d.deliver(ctx, kind, calendar.MethodCancel, OutboundMessage{
			ToAddress:   rcpt.Email,
			ToName:      rcpt.DisplayName,
			SubjectLine: subject,
			BodyHTML:    cancelBody(rcpt.FirstName, snap.Name, courseURL),
			Payload:     payload,
		})
	}

	// Attendee copies carry the chair as organizer so clients attribute the
	// cancellation to the person who acted.
	payload := d.gen.Cancel(calendar.CancelInput{
		Event:          snap.calendarEvent(),
		Description:    description,
		ChairName:      chair.FullName(),
		OrganizerEmail: chair.Email,
		Sequence:       seq,
	})

	for _, u := range roster {
		if u.Email == chair.Email {
			continue
		}
		rcpt := recipientOf(u, RoleAttendee)
		d.deliver(ctx, kind, calendar.MethodCancel, OutboundMessage{
			ToAddress:   rcpt.Email,
			ToName:      rcpt.DisplayName,
			SubjectLine: subject,
			BodyHTML:    cancelBody(rcpt.FirstName, snap.Name, courseURL),
			Payload:     payload,
		})
	}
}

// deliver sends one message and records the attempt. Failures are logged and
// counted, never propagated: remaining recipients in the batch still get
// their copy.
func (d *Dispatcher) deliver(ctx context.Context, kind TriggerKind, method calendar.Method, msg OutboundMessage) {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	err := d.provider.Send(sendCtx, notification.Message{
		ToName:   msg.ToName,
		ToAddr:   msg.ToAddress,
		Subject:  msg.SubjectLine,
		HTMLBody: msg.BodyHTML,
		Attachment: &notification.Attachment{
			Filename: notification.AttachmentFilename,
			MIMEType: notification.CalendarMIMEType,
			Content:  []byte(msg.Payload),
		},
	})

	entry := storage.DeliveryLogEntry{
		TriggerKind: string(kind),
		Method:      string(method),
		Recipient:   msg.ToAddress,
		Subject:     msg.SubjectLine,
		Status:      storage.DeliveryStatusSent,
		CreatedAt:   time.Now().UTC(),
	}
	status := "sent"
	if err != nil {
		entry.Status = storage.DeliveryStatusFailed
		entry.ErrorMsg = err.Error()
		status = "failed"
		d.logger.Error("mail delivery failed",
			"recipient", msg.ToAddress, "trigger", kind, "error", err)
	}
	metrics.MessagesTotal.WithLabelValues(string(method), status).Inc()

	if logErr := d.log.LogDelivery(ctx, entry); logErr != nil {
		d.logger.Error("recording delivery failed",
			"recipient", msg.ToAddress, "error", logErr)
	}
}

func contactsOf(users []directory.User) []calendar.Contact {
	contacts := make([]calendar.Contact, 0, len(users))
	for _, u := range users {
		contacts = append(contacts, calendar.Contact{Name: u.FullName(), Email: u.Email})
	}
	return contacts
}
