package engine

import (
	"fmt"
	"time"
)

// eventDateLayout mirrors the platform's human-readable date format.
const eventDateLayout = "Monday, 2 January 2006, 3:04 PM"

func formatEventDate(t time.Time) string {
	return t.UTC().Format(eventDateLayout)
}

func inviteSubject(eventName string, start time.Time) string {
	return fmt.Sprintf("New LMS Event %s on %s", eventName, formatEventDate(start))
}

func updateSubject(eventName string, start time.Time) string {
	return fmt.Sprintf("Update LMS Event %s on %s", eventName, formatEventDate(start))
}

func cancelSubject(eventName string) string {
	return fmt.Sprintf("Cancelling LMS event %s", eventName)
}

func inviteBody(firstName, eventName string, start time.Time, courseURL string) string {
	return fmt.Sprintf("Hello %s,<br><br>"+
		"You have an event or training coming up: '%s' scheduled on %s for course %s.<br>"+
		"Please add this invite to your calendar to stay in the loop.<br><br>"+
		"Regards,<br>Your LMS",
		firstName, eventName, formatEventDate(start), courseURL)
}

func updateBody(firstName, eventName string, start time.Time, courseURL string) string {
	return fmt.Sprintf("Hello %s,<br><br>"+
		"Your event or training has been updated: '%s' scheduled on %s for course %s.<br><br>"+
		"Regards,<br>Your LMS",
		firstName, eventName, formatEventDate(start), courseURL)
}

func cancelBody(firstName, eventName, courseURL string) string {
	return fmt.Sprintf("Hello %s,<br><br>"+
		"One of your calendar events has been cancelled: '%s' for course %s.<br><br>"+
		"Regards,<br>Your LMS",
		firstName, eventName, courseURL)
}

// cancelDescription is the description rendered into cancellation payloads
// for deleted events, where the original description is no longer available.
func cancelDescription(eventName, courseName string) string {
	return fmt.Sprintf("Cancelling LMS Event %s for %s", eventName, courseName)
}
