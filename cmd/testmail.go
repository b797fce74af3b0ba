package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tutorrio/icalsender/internal/calendar"
	"github.com/tutorrio/icalsender/internal/config"
	"github.com/tutorrio/icalsender/internal/notification"
)

var testmailCmd = &cobra.Command{
	Use:   "testmail",
	Short: "Send a probe email using the configured SMTP settings",
	Long: "Send a test message with a minimal calendar attachment to verify " +
		"SMTP connectivity and credentials.",
	RunE: runTestmail,
}

func init() {
	testmailCmd.Flags().String("to", "", "recipient address (required)")
	_ = testmailCmd.MarkFlagRequired("to")
}

func runTestmail(cmd *cobra.Command, _ []string) error {
	to, _ := cmd.Flags().GetString("to")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	gen := calendar.NewGenerator(cfg.UIDDomain)
	payload := gen.Invite(calendar.Input{
		Event: calendar.Event{
			ID:       "testmail",
			Name:     "icalsender test event",
			Start:    time.Now().UTC().Add(time.Hour),
			Duration: 30 * time.Minute,
		},
		Description: "Probe event sent by the icalsender testmail command.",
		Chair:       calendar.Contact{Name: cfg.OrganizerLabel, Email: cfg.SMTP.FromAddr},
		Organizer:   calendar.Contact{Name: cfg.OrganizerLabel, Email: cfg.SMTP.FromAddr},
		Attendees:   []calendar.Contact{{Name: to, Email: to}},
	})

	provider := notification.NewSMTPProvider(cfg.SMTP)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err = provider.Send(ctx, notification.Message{
		ToName:   to,
		ToAddr:   to,
		Subject:  "icalsender test message",
		HTMLBody: "Hello,<br><br>This is a test message from icalsender. Your SMTP settings work.",
		Attachment: &notification.Attachment{
			Filename: notification.AttachmentFilename,
			MIMEType: notification.CalendarMIMEType,
			Content:  []byte(payload),
		},
	})
	if err != nil {
		return fmt.Errorf("sending test message: %w", err)
	}

	fmt.Printf("Test message sent to %s via %s:%d\n", to, cfg.SMTP.Host, cfg.SMTP.Port)
	return nil
}
