package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tutorrio/icalsender/internal/build"
)

var rootCmd = &cobra.Command{
	Use:     "icalsender",
	Short:   "Calendar invite notifications for LMS events",
	Version: build.String(),
	Long: "icalsender keeps users' personal calendars in sync with LMS course " +
		"events by emailing iCalendar invites, updates and cancellations.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(testmailCmd)
}
