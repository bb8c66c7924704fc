package routine

import (
	"github.com/dukerupert/mobilityquest/internal/model"
)

// Store holds the morning and night routines for the lifetime of the app.
type Store struct {
	morning model.Routine
	night   model.Routine
}

func NewStore(set model.RoutineSet) *Store {
	return &Store{morning: set.Morning.Clone(), night: set.Night.Clone()}
}

// Get returns a copy of the routine of type t.
func (s *Store) Get(t model.RoutineType) model.Routine {
	if t == model.RoutineNight {
		return s.night.Clone()
	}
	return s.morning.Clone()
}

// Set returns the routines in their persisted shape.
func (s *Store) Set() model.RoutineSet {
	return model.RoutineSet{Morning: s.morning.Clone(), Night: s.night.Clone()}
}

// MarkComplete marks one exercise complete. It reports whether the flag changed.
func (s *Store) MarkComplete(t model.RoutineType, index int) bool {
	r, changed := MarkComplete(s.get(t), index)
	if changed {
		s.put(t, r)
	}
	return changed
}

// ResetDaily clears the completion flags of both routines.
func (s *Store) ResetDaily() {
	s.morning = ResetDaily(s.morning)
	s.night = ResetDaily(s.night)
}

// TotalCompleted returns the number of completed exercises across both routines.
func (s *Store) TotalCompleted() int {
	return CompletedCount(s.morning) + CompletedCount(s.night)
}

func (s *Store) get(t model.RoutineType) model.Routine {
	if t == model.RoutineNight {
		return s.night
	}
	return s.morning
}

func (s *Store) put(t model.RoutineType, r model.Routine) {
	if t == model.RoutineNight {
		s.night = r
	} else {
		s.morning = r
	}
}
