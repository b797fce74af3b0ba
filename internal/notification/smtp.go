package notification

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"

	"github.com/tutorrio/icalsender/internal/config"
)

// SMTPProvider delivers mail via SMTP using the go-mail library. Messages
// are always sent from the platform's noreply address.
type SMTPProvider struct {
	config config.SMTPConfig
}

// NewSMTPProvider creates a new SMTPProvider with the given configuration.
func NewSMTPProvider(cfg config.SMTPConfig) *SMTPProvider {
	return &SMTPProvider{config: cfg}
}

// Name returns the provider identifier.
func (p *SMTPProvider) Name() string { return "smtp" }

// Send delivers msg using the configured SMTP server.
func (p *SMTPProvider) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.From(p.config.FromAddr); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := m.AddToFormat(msg.ToName, msg.ToAddr); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", msg.ToAddr, err)
	}

	m.Subject(msg.Subject)

	// Plain-text fallback for clients that don't render HTML.
	m.SetBodyString(mail.TypeTextPlain, htmlToPlain(msg.HTMLBody))
	m.AddAlternativeString(mail.TypeTextHTML, msg.HTMLBody)

	if att := msg.Attachment; att != nil {
		m.AttachReader(att.Filename, bytes.NewReader(att.Content),
			mail.WithFileContentType(mail.ContentType(att.MIMEType)))
	}

	c, err := mail.NewClient(p.config.Host,
		mail.WithPort(p.config.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(p.config.Username),
		mail.WithPassword(p.config.Password),
		mail.WithTLSPolicy(tlsPolicyFromEncryption(p.config.Encryption)),
	)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}

	return c.DialAndSendWithContext(ctx, m)
}

// htmlToPlain converts the simple <br>-separated bodies this engine produces
// into plain text.
func htmlToPlain(html string) string {
	return strings.NewReplacer("<br><br>", "\n\n", "<br>", "\n").Replace(html)
}

// tlsPolicyFromEncryption converts the encryption string to a go-mail TLSPolicy.
func tlsPolicyFromEncryption(enc string) mail.TLSPolicy {
	switch enc {
	case "ssl_tls":
		return mail.TLSMandatory
	case "starttls":
		return mail.TLSOpportunistic
	default:
		return mail.NoTLS
	}
}
