package quest

import (
	"time"

	"github.com/dukerupert/mobilityquest/internal/achievement"
	"github.com/dukerupert/mobilityquest/internal/model"
	"github.com/dukerupert/mobilityquest/internal/persist"
	"github.com/dukerupert/mobilityquest/internal/profile"
	"github.com/dukerupert/mobilityquest/internal/routine"
	"github.com/dukerupert/mobilityquest/internal/timer"
)

// StartExercise loads the exercise at index of routine t into the timer,
// replacing any countdown in progress. The timer starts paused. It returns
// false for an unknown routine or an index out of range.
func (s *Service) StartExercise(t model.RoutineType, index int) (*model.TimerSnapshot, bool) {
	if !t.Valid() {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.timer.Start(s.routines.Get(t), index) {
		return s.timer.Snapshot(), false
	}
	s.recorder.TimerActive(true)
	snap := s.timer.Snapshot()
	s.publishTimer(ActionStarted, snap)
	return snap, true
}

// Timer returns the active countdown, or nil.
func (s *Service) Timer() *model.TimerSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer.Snapshot()
}

// Pause stops the countdown without losing remaining time.
func (s *Service) Pause() *model.TimerSnapshot {
	return s.timerOp(ActionChanged, (*timer.Timer).Pause)
}

// Resume continues a paused countdown.
func (s *Service) Resume() *model.TimerSnapshot {
	return s.timerOp(ActionChanged, (*timer.Timer).Resume)
}

// TogglePlay flips between playing and paused.
func (s *Service) TogglePlay() *model.TimerSnapshot {
	return s.timerOp(ActionChanged, (*timer.Timer).Toggle)
}

// ResetTimer rewinds the loaded exercise and pauses.
func (s *Service) ResetTimer() *model.TimerSnapshot {
	return s.timerOp(ActionChanged, (*timer.Timer).Reset)
}

// CloseTimer abandons the countdown. Nothing is recorded.
func (s *Service) CloseTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.timer.Active() {
		return
	}
	s.timer.Close()
	s.recorder.TimerActive(false)
	s.publish(Event{Entity: EntityTimer, Action: ActionClosed})
}

func (s *Service) timerOp(action string, op func(*timer.Timer)) *model.TimerSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.timer.Active() {
		return nil
	}
	op(&s.timer)
	snap := s.timer.Snapshot()
	s.publishTimer(action, snap)
	return snap
}

func (s *Service) publishTimer(action string, snap *model.TimerSnapshot) {
	if snap == nil {
		return
	}
	s.publish(Event{Entity: EntityTimer, Action: action, ID: snap.ExerciseID, Extra: map[string]any{
		"timer": snap,
	}})
}

// Tick advances the countdown by one second. When the countdown reaches
// zero the exercise is completed, points are awarded and the timer moves on
// to the next incomplete exercise.
func (s *Service) Tick() timer.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev := s.timer.Tick()
	if !ev.Applied {
		return ev
	}
	s.publishTimer(ActionTick, s.timer.Snapshot())
	if ev.Completed {
		t, index := s.timer.Position()
		s.completeExercise(t, index, s.now())
	}
	return ev
}

func (s *Service) completeExercise(t model.RoutineType, index int, now time.Time) {
	changed := s.routines.MarkComplete(t, index)
	r := s.routines.Get(t)

	if changed {
		before := s.profile
		s.profile = profile.AwardPoints(s.profile, profile.PointsPerExercise)
		s.profile.TotalExercisesCompleted++
		s.recorder.ExerciseCompleted(string(t))
		s.recorder.ProfileChanged(s.profile.Streak, s.profile.Level)

		ex := r.Exercises[index]
		s.logger.Info("exercise completed", "routine", t, "exercise", ex.ID, "points", s.profile.TotalPoints)
		s.publish(Event{Entity: EntityExercise, Action: ActionCompleted, ID: ex.ID, Extra: map[string]any{
			"routine":  t,
			"index":    index,
			"points":   profile.PointsPerExercise,
			"progress": routine.Progress(r),
		}})
		if profile.LeveledUp(before, s.profile) {
			s.publish(Event{Entity: EntityProfile, Action: ActionLevelUp, Extra: map[string]any{
				"level": s.profile.Level,
			}})
		}
	}

	s.evaluateAchievements(now)
	s.blobs.Save(persist.KeyRoutines, s.routines.Set())
	s.blobs.Save(persist.KeyProfile, s.profile)

	if routine.AllComplete(r) {
		if changed {
			s.completeRoutine(r, now)
		}
		s.timer.Close()
		s.recorder.TimerActive(false)
		s.publish(Event{Entity: EntityTimer, Action: ActionClosed})
		return
	}

	next := routine.NextIncomplete(r, index)
	s.timer.Start(r, next)
	s.publishTimer(ActionStarted, s.timer.Snapshot())
}

func (s *Service) completeRoutine(r model.Routine, now time.Time) {
	ids := routine.CompletedIDs(r)
	rec := model.CompletionRecord{
		RoutineID:   r.ID,
		ExerciseIDs: ids,
		Points:      len(ids) * profile.PointsPerExercise,
		CompletedAt: now.UTC(),
	}
	s.completions = append([]model.CompletionRecord{rec}, s.completions...)
	s.daily = profile.AddDailyCompletion(s.daily, profile.DateKey(now, s.loc))

	s.profile.TotalRoutinesCompleted++
	s.profile = profile.ApplyStreak(s.profile, profile.RecomputeStreak(s.completions, now.In(s.loc)))
	s.evaluateAchievements(now)

	s.blobs.Save(persist.KeyCompletions, s.completions)
	s.blobs.Save(persist.KeyDailyCompletions, s.daily)
	s.blobs.Save(persist.KeyProfile, s.profile)

	s.recorder.RoutineCompleted(string(r.Type))
	s.recorder.ProfileChanged(s.profile.Streak, s.profile.Level)
	s.logger.Info("routine completed", "routine", r.ID, "streak", s.profile.Streak)
	s.publish(Event{Entity: EntityRoutine, Action: ActionCompleted, ID: r.ID, Extra: map[string]any{
		"points": rec.Points,
		"streak": s.profile.Streak,
	}})
}

func (s *Service) progress(now time.Time) achievement.Progress {
	today := now.In(s.loc)
	return achievement.Progress{
		TotalExercises: s.profile.TotalExercisesCompleted,
		Streak:         s.profile.Streak,
		MorningStreak:  profile.RecomputeRoutineStreak(s.completions, model.RoutineMorning, today),
		NightStreak:    profile.RecomputeRoutineStreak(s.completions, model.RoutineNight, today),
		Level:          s.profile.Level,
		PerfectDay:     profile.HasPerfectDay(s.completions, s.loc),
	}
}

func (s *Service) evaluateAchievements(now time.Time) {
	updated, unlocked := achievement.Evaluate(s.progress(now), s.achievements)
	s.achievements = updated
	if len(unlocked) == 0 {
		return
	}
	s.blobs.Save(persist.KeyAchievements, s.achievements)
	for _, a := range unlocked {
		s.recorder.AchievementUnlocked()
		s.logger.Info("achievement unlocked", "achievement", a.ID, "name", a.Name)
		s.publish(Event{Entity: EntityAchievement, Action: ActionUnlocked, ID: a.ID, Extra: map[string]any{
			"name": a.Name,
			"icon": a.Icon,
		}})
	}
}
