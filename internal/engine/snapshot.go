package engine

import (
	"time"

	"github.com/tutorrio/icalsender/internal/calendar"
	"github.com/tutorrio/icalsender/internal/directory"
)

// Classification is the actionable grouping of an event's type. Only course
// and group events produce notifications.
type Classification int

// Event classifications.
const (
	ClassOther Classification = iota
	ClassCourse
	ClassGroup
)

// classify maps the platform's raw event type to a Classification.
func classify(eventType string) Classification {
	switch eventType {
	case directory.EventTypeCourse:
		return ClassCourse
	case directory.EventTypeGroup:
		return ClassGroup
	default:
		return ClassOther
	}
}

// EventSnapshot is the immutable view of a schedulable item at trigger time.
// Built once per trigger from the directory record (or, for deletions, from
// the trigger payload plus the sequence store's cached name) and discarded
// when the trigger finishes.
type EventSnapshot struct {
	ID          string
	Name        string
	Description string
	Start       time.Time
	Duration    time.Duration
	Location    string
	CourseID    string
	GroupID     string
	Class       Classification
}

// newSnapshot builds an EventSnapshot from a raw directory event record.
func newSnapshot(e *directory.Event) EventSnapshot {
	return EventSnapshot{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Start:       time.Unix(e.TimeStart, 0).UTC(),
		Duration:    time.Duration(e.TimeDuration) * time.Second,
		Location:    e.Location,
		CourseID:    e.CourseID,
		GroupID:     e.GroupID,
		Class:       classify(e.EventType),
	}
}

// calendarEvent converts the snapshot to the generator's event view.
func (s EventSnapshot) calendarEvent() calendar.Event {
	return calendar.Event{
		ID:       s.ID,
		Name:     s.Name,
		Start:    s.Start,
		Duration: s.Duration,
		Location: s.Location,
	}
}

// Role distinguishes the organizer-perspective copy from attendee copies.
type Role string

// Recipient roles.
const (
	RoleOrganizer Role = "organizer"
	RoleAttendee  Role = "attendee"
)

// Recipient is one resolved message target. Derived per trigger from
// membership data, never persisted.
type Recipient struct {
	DisplayName string
	FirstName   string
	Email       string
	Role        Role
}

// recipientOf derives a Recipient from a directory user.
func recipientOf(u directory.User, role Role) Recipient {
	return Recipient{
		DisplayName: u.FullName(),
		FirstName:   u.FirstName,
		Email:       u.Email,
		Role:        role,
	}
}

// OutboundMessage is the unit handed to the mail transport: one personalized
// message per (recipient, trigger).
type OutboundMessage struct {
	ToAddress   string
	ToName      string
	SubjectLine string
	BodyHTML    string
	Payload     string
}
