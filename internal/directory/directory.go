// Package directory provides access to the host platform's membership and
// event data: users, courses, enrolments, cohorts, groups, and calendar
// events. The engine only reads through the Reader interface; the HTTP API
// and the seed loader use the write methods.
package directory

import "context"

// User is a platform account.
type User struct {
	ID        string `json:"id" yaml:"id"`
	FirstName string `json:"first_name" yaml:"first_name"`
	LastName  string `json:"last_name" yaml:"last_name"`
	Email     string `json:"email" yaml:"email"`
}

// FullName returns the display name used in attendee lines and greetings.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Course is a course context users enrol into.
type Course struct {
	ID       string `json:"id" yaml:"id"`
	FullName string `json:"full_name" yaml:"full_name"`
}

// Cohort is a site-wide user collection that can be synced into courses.
type Cohort struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Group is a sub-grouping of a course's enrolled users.
type Group struct {
	ID       string `json:"id" yaml:"id"`
	CourseID string `json:"course_id" yaml:"course_id"`
	Name     string `json:"name" yaml:"name"`
}

// Event classifications as stored by the platform. Only course and group
// events are actionable for calendar notifications.
const (
	EventTypeCourse   = "course"
	EventTypeGroup    = "group"
	EventTypeSite     = "site"
	EventTypeCategory = "category"
	EventTypeUser     = "user"
)

// Event is the raw calendar event record as stored by the platform.
// TimeStart is a UTC epoch second; TimeDuration is in seconds.
type Event struct {
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	Description  string `json:"description"`
	TimeStart    int64  `json:"time_start"`
	TimeDuration int64  `json:"time_duration"`
	Location     string `json:"location"`
	EventType    string `json:"event_type"`
	CourseID     string `json:"course_id" yaml:"course_id"`
	GroupID      string `json:"group_id"`
}

// Reader is the read-only view the notification engine consumes.
// Missing records are reported as storage.ErrNotFound.
type Reader interface {
	UserByID(ctx context.Context, id string) (*User, error)
	Course(ctx context.Context, id string) (*Course, error)
	EventByID(ctx context.Context, id string) (*Event, error)
	// EventsForCourse returns the course-classified events of a course.
	EventsForCourse(ctx context.Context, courseID string) ([]Event, error)
	// EventsForGroup returns the group-classified events scoped to both the
	// course and the group.
	EventsForGroup(ctx context.Context, courseID, groupID string) ([]Event, error)
	EnrolledUsers(ctx context.Context, courseID string) ([]User, error)
	GroupMembers(ctx context.Context, groupID string) ([]User, error)
	CohortMembers(ctx context.Context, cohortID string) ([]User, error)
}

// Store is the full read/write directory interface.
type Store interface {
	Reader

	GroupByID(ctx context.Context, id string) (*Group, error)

	CreateUser(ctx context.Context, u User) error
	CreateCourse(ctx context.Context, c Course) error
	CreateCohort(ctx context.Context, c Cohort) error
	CreateGroup(ctx context.Context, g Group) error
	CreateEvent(ctx context.Context, e Event) error
	UpdateEvent(ctx context.Context, e Event) error
	DeleteEvent(ctx context.Context, id string) error

	Enrol(ctx context.Context, courseID, userID string) error
	Unenrol(ctx context.Context, courseID, userID string) error
	AddGroupMember(ctx context.Context, groupID, userID string) error
	RemoveGroupMember(ctx context.Context, groupID, userID string) error
	AddCohortMember(ctx context.Context, cohortID, userID string) error
}
