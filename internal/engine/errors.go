package engine

import "fmt"

// UnsupportedTriggerError marks a trigger the engine does not handle:
// an unknown kind or an event classification outside course/group. The
// coordinator logs it and drops the trigger; it is never surfaced to the
// trigger source.
type UnsupportedTriggerError struct {
	Kind   TriggerKind
	Reason string
}

func (e *UnsupportedTriggerError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported trigger %q: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("unsupported trigger %q", e.Kind)
}
