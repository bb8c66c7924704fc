package push

import (
	"fmt"
	"time"

	"github.com/dukerupert/mobilityquest/internal/model"
)

const (
	clockLayout = "15:04"
	dateLayout  = "2006-01-02"
)

// ParseClock parses an "HH:MM" time of day into minutes after midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ReminderDue reports whether a reminder scheduled at the time of day at
// should fire now: the time has passed today and lastShown is not today.
// now must already be in the user's location.
func ReminderDue(at string, lastShown *string, now time.Time) bool {
	minutes, err := ParseClock(at)
	if err != nil {
		return false
	}
	if now.Hour()*60+now.Minute() < minutes {
		return false
	}
	return lastShown == nil || *lastShown != now.Format(dateLayout)
}

// ReminderPayload builds the notification shown for routine type t.
func ReminderPayload(t model.RoutineType) Payload {
	if t == model.RoutineNight {
		return Payload{
			Title: "Night Routine",
			Body:  "Wind down with your night mobility routine 🌙",
			URL:   "/?routine=night",
			Tag:   "reminder-night",
		}
	}
	return Payload{
		Title: "Morning Routine",
		Body:  "Time for your morning mobility routine ☀️",
		URL:   "/?routine=morning",
		Tag:   "reminder-morning",
	}
}
