// Package reset decides when the daily routines start over.
package reset

import (
	"time"

	"github.com/dukerupert/mobilityquest/internal/persist"
	"github.com/dukerupert/mobilityquest/internal/profile"
)

// Policy remembers the calendar date of the last reset. The in-memory date
// is authoritative; storage only seeds it.
type Policy struct {
	blobs *persist.Blobs
	loc   *time.Location
	last  string
}

func NewPolicy(blobs *persist.Blobs, loc *time.Location) *Policy {
	if loc == nil {
		loc = time.Local
	}
	p := &Policy{blobs: blobs, loc: loc}
	p.Reload()
	return p
}

// Reload re-reads the stored reset date, after storage was replaced.
func (p *Policy) Reload() {
	p.last = persist.Load(p.blobs, persist.KeyLastReset, "")
}

// Check reports whether now falls on a different calendar date than the last
// reset. When it does, today is stored as the new reset date and the caller
// must clear the routines.
func (p *Policy) Check(now time.Time) bool {
	today := profile.DateKey(now, p.loc)
	if p.last == today {
		return false
	}
	p.last = today
	p.blobs.Save(persist.KeyLastReset, today)
	return true
}

// LastReset returns the date of the last reset, or "" if none.
func (p *Policy) LastReset() string {
	return p.last
}
