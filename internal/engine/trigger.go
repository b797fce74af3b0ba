// Package engine implements the calendar notification engine: resolving who
// is affected by a lifecycle trigger, rendering the right calendar payload
// for each recipient, and fanning the personalized messages out through the
// mail transport while keeping per-event sequence numbers consistent.
package engine

// TriggerKind tags the lifecycle trigger variants. The coordinator matches
// exhaustively; unknown kinds are rejected, never processed partially.
type TriggerKind string

// Lifecycle trigger kinds delivered by the host platform.
const (
	TriggerUserJoinedCourse TriggerKind = "user_joined_course"
	TriggerUserJoinedGroup  TriggerKind = "user_joined_group"
	TriggerUserLeftCourse   TriggerKind = "user_left_course"
	TriggerUserLeftGroup    TriggerKind = "user_left_group"
	TriggerEventCreated     TriggerKind = "event_created"
	TriggerEventUpdated     TriggerKind = "event_updated"
	TriggerEventDeleted     TriggerKind = "event_deleted"
)

// DeletedEvent is what the trigger source still knows about a deleted event:
// the backing record is already gone, so start and duration ride on the
// trigger itself. The display name comes from the sequence store's cache.
type DeletedEvent struct {
	TimeStart    int64 `json:"time_start"`
	TimeDuration int64 `json:"time_duration"`
}

// Trigger is one lifecycle notification from the host platform. ActorID is
// the acting user the message batch is rendered on behalf of, threaded
// explicitly, never ambient.
type Trigger struct {
	Kind    TriggerKind `json:"kind"`
	ActorID string      `json:"actor_id"`
	// UserID is the joining/departing member for membership triggers.
	UserID   string `json:"user_id,omitempty"`
	CourseID string `json:"course_id,omitempty"`
	GroupID  string `json:"group_id,omitempty"`
	EventID  string `json:"event_id,omitempty"`
	// Deleted is set only for TriggerEventDeleted.
	Deleted *DeletedEvent `json:"deleted,omitempty"`
}
