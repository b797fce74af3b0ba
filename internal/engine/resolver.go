package engine

import (
	"context"
	"fmt"

	"github.com/tutorrio/icalsender/internal/directory"
)

// Resolver determines, for a given trigger, which calendar events are in
// scope and which users are affected.
type Resolver struct {
	dir directory.Reader
}

// NewResolver creates a Resolver over the given directory.
func NewResolver(dir directory.Reader) *Resolver {
	return &Resolver{dir: dir}
}

// MembershipScope is the resolution of a join/leave trigger: the calendar
// events whose notification targets changed, and the affected roster. An
// empty Events slice means there is nothing to do, not an error.
type MembershipScope struct {
	Events []directory.Event
	Roster []directory.User
}

// ResolveMembership resolves a join/leave trigger. Course-scoped triggers
// match the course's course-classified events against the full course
// roster; group-scoped triggers match the group's events against the group
// membership.
func (r *Resolver) ResolveMembership(ctx context.Context, t Trigger) (*MembershipScope, error) {
	var (
		scope MembershipScope
		err   error
	)
	switch t.Kind {
	case TriggerUserJoinedCourse, TriggerUserLeftCourse:
		if scope.Events, err = r.dir.EventsForCourse(ctx, t.CourseID); err != nil {
			return nil, err
		}
		if scope.Roster, err = r.dir.EnrolledUsers(ctx, t.CourseID); err != nil {
			return nil, err
		}
	case TriggerUserJoinedGroup, TriggerUserLeftGroup:
		if scope.Events, err = r.dir.EventsForGroup(ctx, t.CourseID, t.GroupID); err != nil {
			return nil, err
		}
		if scope.Roster, err = r.dir.GroupMembers(ctx, t.GroupID); err != nil {
			return nil, err
		}
	default:
		return nil, &UnsupportedTriggerError{Kind: t.Kind, Reason: "not a membership trigger"}
	}
	return &scope, nil
}

// ResolveEventRoster resolves the affected users of a created/updated event
// from the event's own classification. The second return value is false when
// the classification is not actionable (site, category, user) and the trigger
// is then dropped without error.
func (r *Resolver) ResolveEventRoster(ctx context.Context, snap EventSnapshot) ([]directory.User, bool, error) {
	switch snap.Class {
	case ClassCourse:
		if snap.CourseID == "" {
			return nil, false, fmt.Errorf("course event %q has no course id", snap.ID)
		}
		roster, err := r.dir.EnrolledUsers(ctx, snap.CourseID)
		return roster, true, err
	case ClassGroup:
		if snap.CourseID == "" || snap.GroupID == "" {
			return nil, false, fmt.Errorf("group event %q missing course or group id", snap.ID)
		}
		roster, err := r.dir.GroupMembers(ctx, snap.GroupID)
		return roster, true, err
	default:
		return nil, false, nil
	}
}

// ResolveDeletion resolves the recipients of a deletion cancel. Group
// membership of a deleted event cannot be reliably re-derived, so deletions
// always fan out to the owning course's full roster.
func (r *Resolver) ResolveDeletion(ctx context.Context, courseID string) ([]directory.User, error) {
	return r.dir.EnrolledUsers(ctx, courseID)
}
