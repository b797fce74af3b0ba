package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tutorrio/icalsender/internal/directory"
	"github.com/tutorrio/icalsender/internal/metrics"
	"github.com/tutorrio/icalsender/internal/storage"
)

// errNothingToDo marks a trigger that resolved to an empty scope: no
// matching events, an inert classification, or a deletion for an event that
// was never announced. Not an error condition.
var errNothingToDo = errors.New("nothing to do")

// Coordinator is the top-level state machine. Each trigger runs to
// completion as one unit of work; the coordinator is the only component that
// mutates the sequence store, and does so exactly once per
// created/updated/deleted trigger, before dispatch.
type Coordinator struct {
	dir        directory.Reader
	seq        storage.SequenceStore
	resolver   *Resolver
	dispatcher *Dispatcher
	courseURL  func(courseID string) string
	logger     *slog.Logger
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(dir directory.Reader, seq storage.SequenceStore, dispatcher *Dispatcher,
	courseURL func(courseID string) string, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		dir:        dir,
		seq:        seq,
		resolver:   NewResolver(dir),
		dispatcher: dispatcher,
		courseURL:  courseURL,
		logger:     logger.With("component", "coordinator"),
	}
}

// Handle processes one lifecycle trigger. The host's event delivery is
// fire-and-forget, so no failure is ever surfaced back: everything is
// terminal-and-logged here.
func (c *Coordinator) Handle(ctx context.Context, t Trigger) {
	err := c.process(ctx, t)

	var unsupported *UnsupportedTriggerError
	switch {
	case err == nil:
		metrics.TriggersTotal.WithLabelValues(string(t.Kind), "handled").Inc()
	case errors.Is(err, errNothingToDo):
		c.logger.Debug("trigger resolved to empty scope", "trigger", t.Kind)
		metrics.TriggersTotal.WithLabelValues(string(t.Kind), "skipped").Inc()
	case errors.As(err, &unsupported):
		c.logger.Debug("unsupported trigger dropped", "trigger", t.Kind, "error", err)
		metrics.TriggersTotal.WithLabelValues(string(t.Kind), "skipped").Inc()
	case errors.Is(err, storage.ErrNotFound):
		c.logger.Warn("trigger aborted, referenced record not found",
			"trigger", t.Kind, "error", err)
		metrics.TriggersTotal.WithLabelValues(string(t.Kind), "error").Inc()
	default:
		c.logger.Error("trigger processing failed", "trigger", t.Kind, "error", err)
		metrics.TriggersTotal.WithLabelValues(string(t.Kind), "error").Inc()
	}
}

// process routes the trigger through its kind-specific handler. The switch
// is exhaustive over the declared kinds; anything else is unsupported.
func (c *Coordinator) process(ctx context.Context, t Trigger) error {
	switch t.Kind {
	case TriggerUserJoinedCourse, TriggerUserJoinedGroup:
		return c.handleJoin(ctx, t)
	case TriggerUserLeftCourse, TriggerUserLeftGroup:
		return c.handleLeave(ctx, t)
	case TriggerEventCreated:
		return c.handleCreated(ctx, t)
	case TriggerEventUpdated:
		return c.handleUpdated(ctx, t)
	case TriggerEventDeleted:
		return c.handleDeleted(ctx, t)
	default:
		return &UnsupportedTriggerError{Kind: t.Kind}
	}
}

// handleJoin sends the new member a fresh invite for every existing matching
// event and broadcasts an update to the rest of the roster so their attendee
// list stays current. Membership changes are not content changes: the
// current sequence number is used, never bumped.
func (c *Coordinator) handleJoin(ctx context.Context, t Trigger) error {
	actor, err := c.dir.UserByID(ctx, t.ActorID)
	if err != nil {
		return err
	}
	member, err := c.dir.UserByID(ctx, t.UserID)
	if err != nil {
		return err
	}

	scope, err := c.resolver.ResolveMembership(ctx, t)
	if err != nil {
		return err
	}
	if len(scope.Events) == 0 {
		return errNothingToDo
	}

	url := c.courseURL(t.CourseID)
	for i := range scope.Events {
		snap := newSnapshot(&scope.Events[i])
		seq, err := c.currentSequence(ctx, snap.ID)
		if err != nil {
			return err
		}
		c.dispatcher.DispatchInvites(ctx, t.Kind, snap,
			[]directory.User{*member}, *actor, url, seq, false)
		c.dispatcher.DispatchUpdates(ctx, t.Kind, snap,
			scope.Roster, *actor, url, seq, member.Email)
	}
	return nil
}

// handleLeave sends the departing member a cancellation scoped to themself
// and broadcasts an update to the remaining roster, again at the current
// sequence number.
func (c *Coordinator) handleLeave(ctx context.Context, t Trigger) error {
	actor, err := c.dir.UserByID(ctx, t.ActorID)
	if err != nil {
		return err
	}
	member, err := c.dir.UserByID(ctx, t.UserID)
	if err != nil {
		return err
	}

	scope, err := c.resolver.ResolveMembership(ctx, t)
	if err != nil {
		return err
	}
	if len(scope.Events) == 0 {
		return errNothingToDo
	}

	url := c.courseURL(t.CourseID)
	for i := range scope.Events {
		snap := newSnapshot(&scope.Events[i])
		seq, err := c.currentSequence(ctx, snap.ID)
		if err != nil {
			return err
		}
		c.dispatcher.DispatchCancels(ctx, t.Kind, snap, snap.Description,
			[]directory.User{*member}, *actor, url, seq, false)
		c.dispatcher.DispatchUpdates(ctx, t.Kind, snap,
			scope.Roster, *actor, url, seq, "")
	}
	return nil
}

// handleCreated invites every affected user at sequence 0 and creates the
// sequence record (idempotent) before dispatch.
func (c *Coordinator) handleCreated(ctx context.Context, t Trigger) error {
	actor, err := c.dir.UserByID(ctx, t.ActorID)
	if err != nil {
		return err
	}
	ev, err := c.dir.EventByID(ctx, t.EventID)
	if err != nil {
		return err
	}
	snap := newSnapshot(ev)

	roster, actionable, err := c.resolver.ResolveEventRoster(ctx, snap)
	if err != nil {
		return err
	}
	if !actionable {
		return errNothingToDo
	}
	if snap.Class == ClassGroup && len(roster) == 0 {
		return errNothingToDo
	}

	if err := c.seq.Create(ctx, snap.ID, snap.Name); err != nil {
		return err
	}
	c.dispatcher.DispatchInvites(ctx, t.Kind, snap, roster, *actor,
		c.courseURL(snap.CourseID), 0, true)
	return nil
}

// handleUpdated bumps the sequence by exactly one and sends everyone,
// including the organizer, the update payload. An update for an event with
// no prior record behaves like a first announcement: the record is created
// at sequence 0 instead of bumping from nothing.
func (c *Coordinator) handleUpdated(ctx context.Context, t Trigger) error {
	actor, err := c.dir.UserByID(ctx, t.ActorID)
	if err != nil {
		return err
	}
	ev, err := c.dir.EventByID(ctx, t.EventID)
	if err != nil {
		return err
	}
	snap := newSnapshot(ev)

	roster, actionable, err := c.resolver.ResolveEventRoster(ctx, snap)
	if err != nil {
		return err
	}
	if !actionable {
		return errNothingToDo
	}
	if snap.Class == ClassGroup && len(roster) == 0 {
		return errNothingToDo
	}

	var seq int
	_, err = c.seq.Get(ctx, snap.ID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		if err := c.seq.Create(ctx, snap.ID, snap.Name); err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		if seq, err = c.seq.Bump(ctx, snap.ID); err != nil {
			return err
		}
	}

	c.dispatcher.DispatchUpdates(ctx, t.Kind, snap, roster, *actor,
		c.courseURL(snap.CourseID), seq, "")
	return nil
}

// handleDeleted only fires when a sequence record exists; otherwise nothing
// was ever announced and there is nothing to cancel. The cancel fans out to
// the owning course's full roster, after which the record is removed and the
// identity may be reused from sequence 0.
func (c *Coordinator) handleDeleted(ctx context.Context, t Trigger) error {
	actor, err := c.dir.UserByID(ctx, t.ActorID)
	if err != nil {
		return err
	}

	name, err := c.seq.NameOf(ctx, t.EventID)
	if errors.Is(err, storage.ErrNotFound) {
		return errNothingToDo
	}
	if err != nil {
		return err
	}

	seq, err := c.seq.Bump(ctx, t.EventID)
	if err != nil {
		return err
	}

	course, err := c.dir.Course(ctx, t.CourseID)
	if err != nil {
		return err
	}
	roster, err := c.resolver.ResolveDeletion(ctx, t.CourseID)
	if err != nil {
		return err
	}

	deleted := t.Deleted
	if deleted == nil {
		deleted = &DeletedEvent{}
	}
	snap := EventSnapshot{
		ID:       t.EventID,
		Name:     name,
		Start:    time.Unix(deleted.TimeStart, 0).UTC(),
		Duration: time.Duration(deleted.TimeDuration) * time.Second,
		// Location is gone with the backing record; rendered empty.
		CourseID: t.CourseID,
		Class:    ClassCourse,
	}

	c.dispatcher.DispatchCancels(ctx, t.Kind, snap,
		cancelDescription(name, course.FullName), roster, *actor,
		c.courseURL(t.CourseID), seq, true)

	return c.seq.Remove(ctx, t.EventID)
}

// currentSequence reads the event's sequence without mutating it. Events
// that never produced a record are treated as sequence 0.
func (c *Coordinator) currentSequence(ctx context.Context, eventID string) (int, error) {
	rec, err := c.seq.Get(ctx, eventID)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return rec.Sequence, nil
}
