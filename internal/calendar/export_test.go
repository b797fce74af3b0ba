package calendar

import "time"

// SetNow overrides the wall clock used for DTSTAMP/LAST-MODIFIED in tests.
func (g *Generator) SetNow(now func() time.Time) {
	g.now = now
}
