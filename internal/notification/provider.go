// Package notification provides the outbound mail transport used by the
// fan-out dispatcher to deliver calendar invitations.
package notification

import "context"

// AttachmentFilename is the fixed name of the calendar attachment.
const AttachmentFilename = "invite.ics"

// CalendarMIMEType is the MIME type of the calendar attachment.
const CalendarMIMEType = "text/calendar"

// Attachment is a file attached to an outbound message.
type Attachment struct {
	Filename string
	MIMEType string
	Content  []byte
}

// Message is one personalized email handed to a Provider. Delivery failures
// are logged by the caller, never retried.
type Message struct {
	ToName     string
	ToAddr     string
	Subject    string
	HTMLBody   string
	Attachment *Attachment
}

// Provider is the interface for mail delivery backends.
type Provider interface {
	// Name returns the provider identifier (e.g. "smtp").
	Name() string
	// Send delivers the message using the provider's transport.
	Send(ctx context.Context, msg Message) error
}
