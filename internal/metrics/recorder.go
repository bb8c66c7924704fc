package metrics

// The methods below let a Manager record tracker activity.

func (m *Manager) ExerciseCompleted(routine string) {
	m.CounterExercisesCompleted.WithLabelValues(routine).Inc()
}

func (m *Manager) RoutineCompleted(routine string) {
	m.CounterRoutinesCompleted.WithLabelValues(routine).Inc()
}

func (m *Manager) AchievementUnlocked() {
	m.CounterAchievementsUnlocked.Inc()
}

func (m *Manager) DailyReset() {
	m.CounterDailyResets.Inc()
}

func (m *Manager) ProfileChanged(streak, level int) {
	m.GaugeStreak.Set(float64(streak))
	m.GaugeLevel.Set(float64(level))
}

func (m *Manager) TimerActive(active bool) {
	if active {
		m.GaugeTimerActive.Set(1)
	} else {
		m.GaugeTimerActive.Set(0)
	}
}

// PersistenceFailed counts a swallowed storage failure.
func (m *Manager) PersistenceFailed(op, key string, err error) {
	m.CounterPersistenceFailures.WithLabelValues(op).Inc()
}

// ReminderSent counts a delivered routine reminder.
func (m *Manager) ReminderSent(routine string) {
	m.CounterRemindersSent.WithLabelValues(routine).Inc()
}
