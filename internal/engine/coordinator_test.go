package engine

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorrio/icalsender/internal/calendar"
	"github.com/tutorrio/icalsender/internal/directory"
	"github.com/tutorrio/icalsender/internal/notification"
	"github.com/tutorrio/icalsender/internal/storage"
)

// capturingProvider records every message instead of talking SMTP. Sends to
// addresses listed in fail return that error without recording.
type capturingProvider struct {
	mu   sync.Mutex
	sent []notification.Message
	fail map[string]error
}

func (p *capturingProvider) Name() string { return "capture" }

func (p *capturingProvider) Send(_ context.Context, m notification.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err, ok := p.fail[m.ToAddr]; ok {
		return err
	}
	p.sent = append(p.sent, m)
	return nil
}

func (p *capturingProvider) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = nil
}

func (p *capturingProvider) recipients() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	addrs := make([]string, 0, len(p.sent))
	for _, m := range p.sent {
		addrs = append(addrs, m.ToAddr)
	}
	sort.Strings(addrs)
	return addrs
}

func (p *capturingProvider) messageTo(t *testing.T, addr string) notification.Message {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, m := range p.sent {
		if m.ToAddr == addr {
			return m
		}
	}
	t.Fatalf("no message sent to %s", addr)
	return notification.Message{}
}

type engineFixture struct {
	dir        *directory.SQLiteStore
	seq        storage.SequenceStore
	deliveries storage.DeliveryLogStore
	provider   *capturingProvider
	dispatcher *Dispatcher
	coord      *Coordinator
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	db, err := storage.NewSQLiteDB(filepath.Join(t.TempDir(), "engine.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	dir := directory.NewSQLiteStore(db)
	seq := storage.NewSQLiteSequenceStore(db)
	deliveries := storage.NewSQLiteDeliveryLogStore(db)
	provider := &capturingProvider{fail: map[string]error{}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	dispatcher := NewDispatcher(provider, calendar.NewGenerator("learn.com"), deliveries,
		calendar.Contact{Name: "LMS Organizer", Email: "noreply@learn.com"}, logger)

	courseURL := func(id string) string {
		return "https://lms.example.com/course/view?id=" + id
	}

	return &engineFixture{
		dir:        dir,
		seq:        seq,
		deliveries: deliveries,
		provider:   provider,
		dispatcher: dispatcher,
		coord:      NewCoordinator(dir, seq, dispatcher, courseURL, logger),
	}
}

var (
	fixtureChair = directory.User{ID: "u-chair", FirstName: "Tamara", LastName: "Whitt", Email: "tamara@learn.com"}
	fixtureAlice = directory.User{ID: "u-alice", FirstName: "Alice", LastName: "Nguyen", Email: "alice@learn.com"}
	fixtureBob   = directory.User{ID: "u-bob", FirstName: "Bob", LastName: "Okafor", Email: "bob@learn.com"}
	fixtureCarol = directory.User{ID: "u-carol", FirstName: "Carol", LastName: "Ivanova", Email: "carol@learn.com"}
)

// seedCourse creates the course c1 with chair, alice and bob enrolled, and
// carol registered but not yet enrolled.
func (f *engineFixture) seedCourse(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	for _, u := range []directory.User{fixtureChair, fixtureAlice, fixtureBob, fixtureCarol} {
		require.NoError(t, f.dir.CreateUser(ctx, u))
	}
	require.NoError(t, f.dir.CreateCourse(ctx, directory.Course{ID: "c1", FullName: "Go Fundamentals"}))
	for _, id := range []string{fixtureChair.ID, fixtureAlice.ID, fixtureBob.ID} {
		require.NoError(t, f.dir.Enrol(ctx, "c1", id))
	}
}

func (f *engineFixture) seedEvent(t *testing.T) directory.Event {
	t.Helper()
	ev := directory.Event{
		ID:           "ev1",
		Name:         "Sprint Review",
		Description:  "Quarterly sprint review",
		TimeStart:    1774965600, // 2026-03-31 14:00 UTC
		TimeDuration: 3600,
		Location:     "Room 4",
		EventType:    directory.EventTypeCourse,
		CourseID:     "c1",
	}
	require.NoError(t, f.dir.CreateEvent(context.Background(), ev))
	return ev
}

func TestCoordinatorEventLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	f.seedCourse(t)
	f.seedEvent(t)

	t.Run("creation invites the full roster at sequence zero", func(t *testing.T) {
		f.coord.Handle(ctx, Trigger{
			Kind: TriggerEventCreated, ActorID: fixtureChair.ID,
			CourseID: "c1", EventID: "ev1",
		})

		assert.Equal(t,
			[]string{fixtureAlice.Email, fixtureBob.Email, fixtureChair.Email},
			f.provider.recipients())

		organizer := f.provider.messageTo(t, fixtureChair.Email)
		assert.Contains(t, organizer.Subject, "New LMS Event Sprint Review")
		payload := string(organizer.Attachment.Content)
		assert.Contains(t, payload, "METHOD:REQUEST")
		assert.Contains(t, payload, "SEQUENCE:0")
		assert.Contains(t, payload, "BEGIN:VALARM")
		assert.Contains(t, payload, "UID:ev1@learn.com")
		assert.Contains(t, payload, "ORGANIZER;CN=LMS Organizer:mailto:noreply@learn.com")

		attendee := f.provider.messageTo(t, fixtureAlice.Email)
		attendeePayload := string(attendee.Attachment.Content)
		assert.Contains(t, attendeePayload, "ORGANIZER;CN=Tamara Whitt:mailto:tamara@learn.com")
		// The chair never appears as a plain attendee in their own copy.
		assert.NotContains(t, payload, "ROLE=REQ-PARTICIPANT;PARTSTAT=NEEDS-ACTION;RSVP=TRUE:mailto:tamara@learn.com")

		rec, err := f.seq.Get(ctx, "ev1")
		require.NoError(t, err)
		assert.Equal(t, 0, rec.Sequence)
	})

	t.Run("repeated creation stays at sequence zero", func(t *testing.T) {
		f.provider.reset()
		f.coord.Handle(ctx, Trigger{
			Kind: TriggerEventCreated, ActorID: fixtureChair.ID,
			CourseID: "c1", EventID: "ev1",
		})

		rec, err := f.seq.Get(ctx, "ev1")
		require.NoError(t, err)
		assert.Equal(t, 0, rec.Sequence)
		payload := string(f.provider.messageTo(t, fixtureAlice.Email).Attachment.Content)
		assert.Contains(t, payload, "SEQUENCE:0")
	})

	t.Run("update bumps the sequence once", func(t *testing.T) {
		f.provider.reset()
		f.coord.Handle(ctx, Trigger{
			Kind: TriggerEventUpdated, ActorID: fixtureChair.ID,
			CourseID: "c1", EventID: "ev1",
		})

		assert.Equal(t,
			[]string{fixtureAlice.Email, fixtureBob.Email, fixtureChair.Email},
			f.provider.recipients())

		msg := f.provider.messageTo(t, fixtureBob.Email)
		assert.Contains(t, msg.Subject, "Update LMS Event Sprint Review")
		payload := string(msg.Attachment.Content)
		assert.Contains(t, payload, "SEQUENCE:1")
		assert.NotContains(t, payload, "BEGIN:VALARM")
	})

	t.Run("joining sends a fresh invite at the current sequence", func(t *testing.T) {
		require.NoError(t, f.dir.Enrol(ctx, "c1", fixtureCarol.ID))
		f.provider.reset()
		f.coord.Handle(ctx, Trigger{
			Kind: TriggerUserJoinedCourse, ActorID: fixtureChair.ID,
			UserID: fixtureCarol.ID, CourseID: "c1",
		})

		invite := f.provider.messageTo(t, fixtureCarol.Email)
		assert.Contains(t, invite.Subject, "New LMS Event Sprint Review")
		invitePayload := string(invite.Attachment.Content)
		assert.Contains(t, invitePayload, "SEQUENCE:1")
		assert.Contains(t, invitePayload, "BEGIN:VALARM")

		// One invite to the joiner, one update per existing roster member.
		assert.Equal(t,
			[]string{fixtureAlice.Email, fixtureBob.Email, fixtureCarol.Email, fixtureChair.Email},
			f.provider.recipients())
		update := f.provider.messageTo(t, fixtureAlice.Email)
		assert.Contains(t, update.Subject, "Update LMS Event")
		// The broadcast attendee list now includes the joiner.
		assert.Contains(t, string(update.Attachment.Content), "mailto:carol@learn.com")

		// Membership changes never advance the sequence.
		rec, err := f.seq.Get(ctx, "ev1")
		require.NoError(t, err)
		assert.Equal(t, 1, rec.Sequence)
	})

	t.Run("leaving cancels for the departed user only", func(t *testing.T) {
		require.NoError(t, f.dir.Unenrol(ctx, "c1", fixtureAlice.ID))
		f.provider.reset()
		f.coord.Handle(ctx, Trigger{
			Kind: TriggerUserLeftCourse, ActorID: fixtureChair.ID,
			UserID: fixtureAlice.ID, CourseID: "c1",
		})

		cancel := f.provider.messageTo(t, fixtureAlice.Email)
		assert.Contains(t, cancel.Subject, "Cancelling LMS event Sprint Review")
		cancelPayload := string(cancel.Attachment.Content)
		assert.Contains(t, cancelPayload, "METHOD:CANCEL")
		assert.Contains(t, cancelPayload, "SEQUENCE:1")
		assert.Contains(t, cancelPayload, "STATUS:CANCELLED")
		// Attendee-perspective cancels name the acting chair as organizer.
		assert.Contains(t, cancelPayload, "mailto:tamara@learn.com")

		// Remaining members get an update reflecting the shrunk roster.
		update := f.provider.messageTo(t, fixtureBob.Email)
		assert.NotContains(t, string(update.Attachment.Content), "mailto:alice@learn.com")

		rec, err := f.seq.Get(ctx, "ev1")
		require.NoError(t, err)
		assert.Equal(t, 1, rec.Sequence)
	})

	t.Run("deletion cancels at a bumped sequence and frees the identity", func(t *testing.T) {
		ev, err := f.dir.EventByID(ctx, "ev1")
		require.NoError(t, err)
		require.NoError(t, f.dir.DeleteEvent(ctx, "ev1"))

		f.provider.reset()
		f.coord.Handle(ctx, Trigger{
			Kind: TriggerEventDeleted, ActorID: fixtureChair.ID,
			CourseID: "c1", EventID: "ev1",
			Deleted: &DeletedEvent{TimeStart: ev.TimeStart, TimeDuration: ev.TimeDuration},
		})

		assert.Equal(t,
			[]string{fixtureBob.Email, fixtureCarol.Email, fixtureChair.Email},
			f.provider.recipients())

		payload := string(f.provider.messageTo(t, fixtureBob.Email).Attachment.Content)
		assert.Contains(t, payload, "METHOD:CANCEL")
		assert.Contains(t, payload, "SEQUENCE:2")
		assert.Contains(t, payload, "Cancelling LMS Event Sprint Review for Go Fundamentals")

		_, err = f.seq.Get(ctx, "ev1")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("deleting an unannounced event sends nothing", func(t *testing.T) {
		f.provider.reset()
		f.coord.Handle(ctx, Trigger{
			Kind: TriggerEventDeleted, ActorID: fixtureChair.ID,
			CourseID: "c1", EventID: "ev1",
			Deleted: &DeletedEvent{},
		})
		assert.Empty(t, f.provider.recipients())
	})
}

func TestCoordinatorUpdateWithoutRecord(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	f.seedCourse(t)
	f.seedEvent(t)

	f.coord.Handle(ctx, Trigger{
		Kind: TriggerEventUpdated, ActorID: fixtureChair.ID,
		CourseID: "c1", EventID: "ev1",
	})

	rec, err := f.seq.Get(ctx, "ev1")
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Sequence)

	payload := string(f.provider.messageTo(t, fixtureAlice.Email).Attachment.Content)
	assert.Contains(t, payload, "SEQUENCE:0")
}

func TestCoordinatorIgnoresNonActionableEvents(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	f.seedCourse(t)
	require.NoError(t, f.dir.CreateEvent(ctx, directory.Event{
		ID: "ev-site", Name: "Maintenance Window",
		TimeStart: 1774965600, EventType: directory.EventTypeSite,
	}))

	f.coord.Handle(ctx, Trigger{
		Kind: TriggerEventCreated, ActorID: fixtureChair.ID, EventID: "ev-site",
	})

	assert.Empty(t, f.provider.recipients())
	_, err := f.seq.Get(ctx, "ev-site")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCoordinatorGroupEventWithEmptyGroup(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	f.seedCourse(t)
	require.NoError(t, f.dir.CreateGroup(ctx, directory.Group{ID: "g1", CourseID: "c1", Name: "Cohort A"}))
	require.NoError(t, f.dir.CreateEvent(ctx, directory.Event{
		ID: "ev-g", Name: "Standup", TimeStart: 1774965600,
		EventType: directory.EventTypeGroup, CourseID: "c1", GroupID: "g1",
	}))

	f.coord.Handle(ctx, Trigger{
		Kind: TriggerEventCreated, ActorID: fixtureChair.ID,
		CourseID: "c1", EventID: "ev-g",
	})

	assert.Empty(t, f.provider.recipients())
}

func TestCoordinatorGroupScopedMembership(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	f.seedCourse(t)
	require.NoError(t, f.dir.CreateGroup(ctx, directory.Group{ID: "g1", CourseID: "c1", Name: "Cohort A"}))
	require.NoError(t, f.dir.AddGroupMember(ctx, "g1", fixtureAlice.ID))
	require.NoError(t, f.dir.CreateEvent(ctx, directory.Event{
		ID: "ev-g", Name: "Standup", TimeStart: 1774965600, TimeDuration: 900,
		EventType: directory.EventTypeGroup, CourseID: "c1", GroupID: "g1",
	}))

	f.coord.Handle(ctx, Trigger{
		Kind: TriggerEventCreated, ActorID: fixtureChair.ID,
		CourseID: "c1", EventID: "ev-g",
	})
	// Only the group member and the organizer copy, not the whole course.
	assert.Equal(t,
		[]string{fixtureAlice.Email, fixtureChair.Email},
		f.provider.recipients())

	require.NoError(t, f.dir.AddGroupMember(ctx, "g1", fixtureBob.ID))
	f.provider.reset()
	f.coord.Handle(ctx, Trigger{
		Kind: TriggerUserJoinedGroup, ActorID: fixtureChair.ID,
		UserID: fixtureBob.ID, CourseID: "c1", GroupID: "g1",
	})
	assert.Equal(t,
		[]string{fixtureAlice.Email, fixtureBob.Email, fixtureChair.Email},
		f.provider.recipients())
}

func TestCoordinatorUnsupportedKind(t *testing.T) {
	f := newEngineFixture(t)
	f.seedCourse(t)

	f.coord.Handle(context.Background(), Trigger{Kind: "role_assigned", ActorID: fixtureChair.ID})

	assert.Empty(t, f.provider.recipients())
}

func TestCoordinatorUnknownActorAborts(t *testing.T) {
	f := newEngineFixture(t)
	f.seedCourse(t)
	f.seedEvent(t)

	f.coord.Handle(context.Background(), Trigger{
		Kind: TriggerEventCreated, ActorID: "u-ghost", CourseID: "c1", EventID: "ev1",
	})

	assert.Empty(t, f.provider.recipients())
	_, err := f.seq.Get(context.Background(), "ev1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
