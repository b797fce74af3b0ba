package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tutorrio/icalsender/internal/calendar"
	"github.com/tutorrio/icalsender/internal/directory"
	"github.com/tutorrio/icalsender/internal/notification"
	notifmocks "github.com/tutorrio/icalsender/internal/notification/mocks"
	"github.com/tutorrio/icalsender/internal/storage"
	storagemocks "github.com/tutorrio/icalsender/internal/storage/mocks"
)

func testSnapshot() EventSnapshot {
	return EventSnapshot{
		ID:       "ev9",
		Name:     "Office Hours",
		Start:    time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC),
		Duration: 30 * time.Minute,
		CourseID: "c1",
		Class:    ClassCourse,
	}
}

func TestDispatcherChairReceivesSingleCopy(t *testing.T) {
	f := newEngineFixture(t)
	roster := []directory.User{fixtureChair, fixtureAlice}

	f.dispatcher.DispatchInvites(context.Background(), TriggerEventCreated,
		testSnapshot(), roster, fixtureChair, "https://lms.example.com/c1", 0, true)

	// Exactly one message per person even though the chair is also enrolled.
	assert.Equal(t, []string{fixtureAlice.Email, fixtureChair.Email}, f.provider.recipients())

	chairPayload := string(f.provider.messageTo(t, fixtureChair.Email).Attachment.Content)
	assert.Contains(t, chairPayload, "ROLE=CHAIR")
	assert.NotContains(t, chairPayload,
		"ROLE=REQ-PARTICIPANT;PARTSTAT=NEEDS-ACTION;RSVP=TRUE:mailto:"+fixtureChair.Email)
}

func TestDispatcherSkipEmailStaysInAttendeeBlock(t *testing.T) {
	f := newEngineFixture(t)
	roster := []directory.User{fixtureChair, fixtureAlice, fixtureCarol}

	f.dispatcher.DispatchUpdates(context.Background(), TriggerUserJoinedCourse,
		testSnapshot(), roster, fixtureChair, "https://lms.example.com/c1", 2, fixtureCarol.Email)

	assert.Equal(t, []string{fixtureAlice.Email, fixtureChair.Email}, f.provider.recipients())
	payload := string(f.provider.messageTo(t, fixtureAlice.Email).Attachment.Content)
	assert.Contains(t, payload, "mailto:"+fixtureCarol.Email)
	assert.Contains(t, payload, "SEQUENCE:2")
}

func TestDispatcherFailureDoesNotBlockBatch(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	f.provider.fail[fixtureAlice.Email] = errors.New("mailbox unavailable")

	roster := []directory.User{fixtureAlice, fixtureBob}
	f.dispatcher.DispatchInvites(ctx, TriggerEventCreated,
		testSnapshot(), roster, fixtureChair, "https://lms.example.com/c1", 0, false)

	assert.Equal(t, []string{fixtureBob.Email}, f.provider.recipients())

	// Both attempts land in the delivery log, the failed one with its error.
	entries, err := f.deliveries.ListDeliveries(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byRecipient := map[string]storage.DeliveryLogEntry{}
	for _, e := range entries {
		byRecipient[e.Recipient] = e
	}
	assert.Equal(t, storage.DeliveryStatusFailed, byRecipient[fixtureAlice.Email].Status)
	assert.Contains(t, byRecipient[fixtureAlice.Email].ErrorMsg, "mailbox unavailable")
	assert.Equal(t, storage.DeliveryStatusSent, byRecipient[fixtureBob.Email].Status)
}

func TestDispatcherAttachesCalendarPayload(t *testing.T) {
	provider := &notifmocks.MockProvider{}
	deliveries := &storagemocks.MockDeliveryLogStore{}
	deliveries.On("LogDelivery", mock.Anything, mock.Anything).Return(nil)
	provider.On("Send", mock.Anything, mock.MatchedBy(func(m notification.Message) bool {
		return m.Attachment != nil &&
			m.Attachment.Filename == notification.AttachmentFilename &&
			m.Attachment.MIMEType == notification.CalendarMIMEType &&
			strings.Contains(string(m.Attachment.Content), "BEGIN:VCALENDAR")
	})).Return(nil)

	d := NewDispatcher(provider, calendar.NewGenerator("learn.com"), deliveries,
		calendar.Contact{Name: "LMS Organizer", Email: "noreply@learn.com"},
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	d.DispatchInvites(context.Background(), TriggerEventCreated, testSnapshot(),
		[]directory.User{fixtureAlice}, fixtureChair, "https://lms.example.com/c1", 0, false)

	provider.AssertExpectations(t)
	deliveries.AssertExpectations(t)
}

func TestDispatcherCancelPerspectives(t *testing.T) {
	f := newEngineFixture(t)
	roster := []directory.User{fixtureAlice}

	f.dispatcher.DispatchCancels(context.Background(), TriggerEventDeleted,
		testSnapshot(), "Cancelling LMS Event Office Hours for Go Fundamentals",
		roster, fixtureChair, "https://lms.example.com/c1", 3, true)

	chairPayload := string(f.provider.messageTo(t, fixtureChair.Email).Attachment.Content)
	assert.Contains(t, chairPayload, "mailto:noreply@learn.com")

	attendeePayload := string(f.provider.messageTo(t, fixtureAlice.Email).Attachment.Content)
	assert.Contains(t, attendeePayload, "mailto:"+fixtureChair.Email)
	assert.Contains(t, attendeePayload, "SEQUENCE:3")
	assert.NotContains(t, attendeePayload, "ATTENDEE")
}
