package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorrio/icalsender/internal/directory"
)

func TestResolverMembershipScopes(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	f.seedCourse(t)
	f.seedEvent(t)
	require.NoError(t, f.dir.CreateGroup(ctx, directory.Group{ID: "g1", CourseID: "c1", Name: "Cohort A"}))
	require.NoError(t, f.dir.AddGroupMember(ctx, "g1", fixtureAlice.ID))
	require.NoError(t, f.dir.CreateEvent(ctx, directory.Event{
		ID: "ev-g", Name: "Standup", TimeStart: 1774965600,
		EventType: directory.EventTypeGroup, CourseID: "c1", GroupID: "g1",
	}))

	r := NewResolver(f.dir)

	t.Run("course scope", func(t *testing.T) {
		scope, err := r.ResolveMembership(ctx, Trigger{
			Kind: TriggerUserJoinedCourse, UserID: fixtureAlice.ID, CourseID: "c1",
		})
		require.NoError(t, err)
		require.Len(t, scope.Events, 1)
		assert.Equal(t, "ev1", scope.Events[0].ID)
		assert.Len(t, scope.Roster, 3)
	})

	t.Run("group scope", func(t *testing.T) {
		scope, err := r.ResolveMembership(ctx, Trigger{
			Kind: TriggerUserJoinedGroup, UserID: fixtureAlice.ID, CourseID: "c1", GroupID: "g1",
		})
		require.NoError(t, err)
		require.Len(t, scope.Events, 1)
		assert.Equal(t, "ev-g", scope.Events[0].ID)
		require.Len(t, scope.Roster, 1)
		assert.Equal(t, fixtureAlice.Email, scope.Roster[0].Email)
	})

	t.Run("non-membership kind", func(t *testing.T) {
		_, err := r.ResolveMembership(ctx, Trigger{Kind: TriggerEventCreated})
		var unsupported *UnsupportedTriggerError
		assert.ErrorAs(t, err, &unsupported)
	})
}

func TestResolverEventRoster(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	f.seedCourse(t)
	r := NewResolver(f.dir)

	t.Run("course event resolves enrolled users", func(t *testing.T) {
		roster, actionable, err := r.ResolveEventRoster(ctx, EventSnapshot{
			ID: "x", CourseID: "c1", Class: ClassCourse,
		})
		require.NoError(t, err)
		assert.True(t, actionable)
		assert.Len(t, roster, 3)
	})

	t.Run("site event is inert", func(t *testing.T) {
		_, actionable, err := r.ResolveEventRoster(ctx, EventSnapshot{ID: "x", Class: ClassOther})
		require.NoError(t, err)
		assert.False(t, actionable)
	})
}

func TestClassify(t *testing.T) {
	assert.Equal(t, ClassCourse, classify(directory.EventTypeCourse))
	assert.Equal(t, ClassGroup, classify(directory.EventTypeGroup))
	assert.Equal(t, ClassOther, classify(directory.EventTypeSite))
	assert.Equal(t, ClassOther, classify(directory.EventTypeUser))
	assert.Equal(t, ClassOther, classify(""))
}
