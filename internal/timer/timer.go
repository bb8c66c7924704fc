// Package timer implements the exercise countdown. It has no clock of its
// own: whoever drives it calls Tick once per elapsed second.
package timer

import (
	"github.com/google/uuid"

	"github.com/dukerupert/mobilityquest/internal/model"
)

// Event describes what a single tick changed.
type Event struct {
	Applied      bool
	SideSwitched bool
	Completed    bool
}

// Timer counts down one exercise at a time. Starting a new exercise replaces
// any countdown in progress. The zero value is an idle timer.
type Timer struct {
	active   bool
	session  string
	rtype    model.RoutineType
	index    int
	exercise model.Exercise

	remaining     int
	side          model.Side
	sideRemaining int
	playing       bool
	finished      bool
}

// LeftHalf returns the seconds spent on the left side of a bilateral exercise.
// Odd durations give the extra second to the right side.
func LeftHalf(duration int) int {
	return duration / 2
}

// RightHalf returns the seconds spent on the right side of a bilateral exercise.
func RightHalf(duration int) int {
	return duration - LeftHalf(duration)
}

// Start loads the exercise at index of r and leaves the timer paused, ready to
// play. It reports false and leaves the timer untouched if index is out of range.
func (t *Timer) Start(r model.Routine, index int) bool {
	if index < 0 || index >= len(r.Exercises) {
		return false
	}
	t.active = true
	t.session = uuid.NewString()
	t.rtype = r.Type
	t.index = index
	t.exercise = r.Exercises[index]
	t.rewind()
	return true
}

func (t *Timer) rewind() {
	t.remaining = t.exercise.Duration
	if t.exercise.IsSided {
		t.side = model.SideLeft
		t.sideRemaining = LeftHalf(t.exercise.Duration)
	} else {
		t.side = model.SideBoth
		t.sideRemaining = 0
	}
	t.playing = false
	t.finished = false
}

// Tick advances a playing timer by one second.
func (t *Timer) Tick() Event {
	if !t.active || !t.playing || t.finished {
		return Event{}
	}

	ev := Event{Applied: true}
	t.remaining--
	if t.exercise.IsSided {
		if t.sideRemaining > 0 {
			t.sideRemaining--
		}
		if t.side == model.SideLeft && t.sideRemaining == 0 && t.remaining > 0 {
			t.side = model.SideRight
			t.sideRemaining = RightHalf(t.exercise.Duration)
			ev.SideSwitched = true
		}
	}

	if t.remaining <= 0 {
		t.remaining = 0
		t.playing = false
		t.finished = true
		ev.Completed = true
	}
	return ev
}

// Pause stops ticks from being applied. Remaining time is kept.
func (t *Timer) Pause() {
	t.playing = false
}

// Resume lets ticks be applied again. It does nothing when no exercise is
// loaded or the countdown already finished.
func (t *Timer) Resume() {
	if t.active && !t.finished {
		t.playing = true
	}
}

// Toggle flips between playing and paused.
func (t *Timer) Toggle() {
	if t.playing {
		t.Pause()
	} else {
		t.Resume()
	}
}

// Reset restores the loaded exercise's initial time and side, and pauses.
func (t *Timer) Reset() {
	if t.active {
		t.rewind()
	}
}

// Close discards the countdown.
func (t *Timer) Close() {
	*t = Timer{}
}

// Active reports whether an exercise is loaded.
func (t *Timer) Active() bool {
	return t.active
}

// Playing reports whether ticks are currently applied.
func (t *Timer) Playing() bool {
	return t.playing
}

// Position returns the routine type and exercise index that is loaded.
func (t *Timer) Position() (model.RoutineType, int) {
	return t.rtype, t.index
}

// Snapshot returns the current state, or nil when idle.
func (t *Timer) Snapshot() *model.TimerSnapshot {
	if !t.active {
		return nil
	}
	return &model.TimerSnapshot{
		SessionID:         t.session,
		RoutineType:       t.rtype,
		ExerciseIndex:     t.index,
		ExerciseID:        t.exercise.ID,
		Duration:          t.exercise.Duration,
		TimeRemaining:     t.remaining,
		Side:              t.side,
		SideTimeRemaining: t.sideRemaining,
		Playing:           t.playing,
		Finished:          t.finished,
	}
}
