package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tutorrio/icalsender/internal/storage"
)

// SQLiteStore implements Store backed by the shared SQLite database.
// All writes are idempotent (ON CONFLICT DO NOTHING / upsert) so the seed
// loader can be re-run safely.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore returns a new SQLiteStore.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// UserByID returns the user with the given id, or storage.ErrNotFound.
func (s *SQLiteStore) UserByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, first_name, last_name, email FROM users WHERE id = ?", id,
	).Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying user %q: %w", id, err)
	}
	return &u, nil
}

// Course returns the course with the given id, or storage.ErrNotFound.
func (s *SQLiteStore) Course(ctx context.Context, id string) (*Course, error) {
	var c Course
	err := s.db.QueryRowContext(ctx,
		"SELECT id, full_name FROM courses WHERE id = ?", id,
	).Scan(&c.ID, &c.FullName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("course %q: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying course %q: %w", id, err)
	}
	return &c, nil
}

// GroupByID returns the group with the given id, or storage.ErrNotFound.
func (s *SQLiteStore) GroupByID(ctx context.Context, id string) (*Group, error) {
	var g Group
	err := s.db.QueryRowContext(ctx,
		"SELECT id, course_id, name FROM course_groups WHERE id = ?", id,
	).Scan(&g.ID, &g.CourseID, &g.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %q: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying group %q: %w", id, err)
	}
	return &g, nil
}

const eventColumns = "id, name, description, time_start, time_duration, location, event_type, course_id, group_id"

func scanEvent(row interface{ Scan(...any) error }) (Event, error) {
	var e Event
	err := row.Scan(&e.ID, &e.Name, &e.Description, &e.TimeStart, &e.TimeDuration,
		&e.Location, &e.EventType, &e.CourseID, &e.GroupID)
	return e, err
}

// EventByID returns the event with the given id, or storage.ErrNotFound.
func (s *SQLiteStore) EventByID(ctx context.Context, id string) (*Event, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE id = ?", id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("event %q: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying event %q: %w", id, err)
	}
	return &e, nil
}

// EventsForCourse returns all course-classified events of a course.
func (s *SQLiteStore) EventsForCourse(ctx context.Context, courseID string) ([]Event, error) {
	return s.queryEvents(ctx,
		"SELECT "+eventColumns+" FROM events WHERE course_id = ? AND event_type = ?",
		courseID, EventTypeCourse)
}

// EventsForGroup returns all group-classified events scoped to both the
// course and the group.
func (s *SQLiteStore) EventsForGroup(ctx context.Context, courseID, groupID string) ([]Event, error) {
	return s.queryEvents(ctx,
		"SELECT "+eventColumns+" FROM events WHERE course_id = ? AND event_type = ? AND group_id = ?",
		courseID, EventTypeGroup, groupID)
}

func (s *SQLiteStore) queryEvents(ctx context.Context, query string, args ...any) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning event row: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating event rows: %w", err)
	}
	return events, nil
}

// EnrolledUsers returns all users enrolled in the course, ordered by email
// for deterministic fan-out.
func (s *SQLiteStore) EnrolledUsers(ctx context.Context, courseID string) ([]User, error) {
	return s.queryUsers(ctx, `
		SELECT u.id, u.first_name, u.last_name, u.email
		FROM users u
		JOIN enrolments e ON e.user_id = u.id
		WHERE e.course_id = ?
		ORDER BY u.email`, courseID)
}

// GroupMembers returns all members of the group.
func (s *SQLiteStore) GroupMembers(ctx context.Context, groupID string) ([]User, error) {
	return s.queryUsers(ctx, `
		SELECT u.id, u.first_name, u.last_name, u.email
		FROM users u
		JOIN group_members g ON g.user_id = u.id
		WHERE g.group_id = ?
		ORDER BY u.email`, groupID)
}

// CohortMembers returns all members of the cohort.
func (s *SQLiteStore) CohortMembers(ctx context.Context, cohortID string) ([]User, error) {
	return s.queryUsers(ctx, `
		SELECT u.id, u.first_name, u.last_name, u.email
		FROM users u
		JOIN cohort_members c ON c.user_id = u.id
		WHERE c.cohort_id = ?
		ORDER BY u.email`, cohortID)
}

func (s *SQLiteStore) queryUsers(ctx context.Context, query string, args ...any) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email); err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}
	return users, nil
}

// CreateUser inserts a user. Existing ids are left untouched.
func (s *SQLiteStore) CreateUser(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, first_name, last_name, email)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		u.ID, u.FirstName, u.LastName, u.Email)
	if err != nil {
		return fmt.Errorf("inserting user %q: %w", u.ID, err)
	}
	return nil
}

// CreateCourse inserts a course. Existing ids are left untouched.
func (s *SQLiteStore) CreateCourse(ctx context.Context, c Course) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO courses (id, full_name)
		VALUES (?, ?)
		ON CONFLICT (id) DO NOTHING`,
		c.ID, c.FullName)
	if err != nil {
		return fmt.Errorf("inserting course %q: %w", c.ID, err)
	}
	return nil
}

// CreateCohort inserts a cohort. Existing ids are left untouched.
func (s *SQLiteStore) CreateCohort(ctx context.Context, c Cohort) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cohorts (id, name)
		VALUES (?, ?)
		ON CONFLICT (id) DO NOTHING`,
		c.ID, c.Name)
	if err != nil {
		return fmt.Errorf("inserting cohort %q: %w", c.ID, err)
	}
	return nil
}

// CreateGroup inserts a group. Existing ids are left untouched.
func (s *SQLiteStore) CreateGroup(ctx context.Context, g Group) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO course_groups (id, course_id, name)
		VALUES (?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		g.ID, g.CourseID, g.Name)
	if err != nil {
		return fmt.Errorf("inserting group %q: %w", g.ID, err)
	}
	return nil
}

// CreateEvent inserts a calendar event record.
func (s *SQLiteStore) CreateEvent(ctx context.Context, e Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (id, name, description, time_start, time_duration, location, event_type, course_id, group_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		e.ID, e.Name, e.Description, e.TimeStart, e.TimeDuration,
		e.Location, e.EventType, e.CourseID, e.GroupID)
	if err != nil {
		return fmt.Errorf("inserting event %q: %w", e.ID, err)
	}
	return nil
}

// UpdateEvent replaces the stored event record. Returns storage.ErrNotFound
// if the event does not exist.
func (s *SQLiteStore) UpdateEvent(ctx context.Context, e Event) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE events
		SET name = ?, description = ?, time_start = ?, time_duration = ?, location = ?, event_type = ?, course_id = ?, group_id = ?
		WHERE id = ?`,
		e.Name, e.Description, e.TimeStart, e.TimeDuration,
		e.Location, e.EventType, e.CourseID, e.GroupID, e.ID)
	if err != nil {
		return fmt.Errorf("updating event %q: %w", e.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating event %q: %w", e.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("event %q: %w", e.ID, storage.ErrNotFound)
	}
	return nil
}

// DeleteEvent removes the event record. Absent ids are a no-op.
func (s *SQLiteStore) DeleteEvent(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting event %q: %w", id, err)
	}
	return nil
}

// Enrol adds a user to a course roster. Re-enrolling is a no-op.
func (s *SQLiteStore) Enrol(ctx context.Context, courseID, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO enrolments (course_id, user_id)
		VALUES (?, ?)
		ON CONFLICT (course_id, user_id) DO NOTHING`,
		courseID, userID)
	if err != nil {
		return fmt.Errorf("enrolling user %q in course %q: %w", userID, courseID, err)
	}
	return nil
}

// Unenrol removes a user from a course roster.
func (s *SQLiteStore) Unenrol(ctx context.Context, courseID, userID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM enrolments WHERE course_id = ? AND user_id = ?", courseID, userID)
	if err != nil {
		return fmt.Errorf("unenrolling user %q from course %q: %w", userID, courseID, err)
	}
	return nil
}

// AddGroupMember adds a user to a group. Re-adding is a no-op.
func (s *SQLiteStore) AddGroupMember(ctx context.Context, groupID, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO group_members (group_id, user_id)
		VALUES (?, ?)
		ON CONFLICT (group_id, user_id) DO NOTHING`,
		groupID, userID)
	if err != nil {
		return fmt.Errorf("adding user %q to group %q: %w", userID, groupID, err)
	}
	return nil
}

// RemoveGroupMember removes a user from a group.
func (s *SQLiteStore) RemoveGroupMember(ctx context.Context, groupID, userID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM group_members WHERE group_id = ? AND user_id = ?", groupID, userID)
	if err != nil {
		return fmt.Errorf("removing user %q from group %q: %w", userID, groupID, err)
	}
	return nil
}

// AddCohortMember adds a user to a cohort. Re-adding is a no-op.
func (s *SQLiteStore) AddCohortMember(ctx context.Context, cohortID, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cohort_members (cohort_id, user_id)
		VALUES (?, ?)
		ON CONFLICT (cohort_id, user_id) DO NOTHING`,
		cohortID, userID)
	if err != nil {
		return fmt.Errorf("adding user %q to cohort %q: %w", userID, cohortID, err)
	}
	return nil
}
