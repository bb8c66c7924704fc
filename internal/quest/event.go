package quest

// Entities and actions published by the service.
const (
	EntityTimer       = "timer"
	EntityExercise    = "exercise"
	EntityRoutine     = "routine"
	EntityRoutines    = "routines"
	EntityAchievement = "achievement"
	EntityProfile     = "profile"
	EntityProgress    = "progress"
	EntitySettings    = "settings"

	ActionTick      = "tick"
	ActionStarted   = "started"
	ActionChanged   = "changed"
	ActionClosed    = "closed"
	ActionCompleted = "completed"
	ActionUnlocked  = "unlocked"
	ActionLevelUp   = "level_up"
	ActionReset     = "reset"
	ActionUpdated   = "updated"
	ActionRestored  = "restored"
)

// Event is a state change pushed to connected clients.
type Event struct {
	Entity string
	Action string
	ID     string
	Extra  map[string]any
}

// Publisher receives every event. It is called with the service lock held
// and must not call back into the service.
type Publisher func(Event)

// Recorder receives counts for metrics. Every method must be safe to call
// with the service lock held.
type Recorder interface {
	ExerciseCompleted(routine string)
	RoutineCompleted(routine string)
	AchievementUnlocked()
	DailyReset()
	ProfileChanged(streak, level int)
	TimerActive(active bool)
}

type nopRecorder struct{}

func (nopRecorder) ExerciseCompleted(string) {}
func (nopRecorder) RoutineCompleted(string)  {}
func (nopRecorder) AchievementUnlocked()     {}
func (nopRecorder) DailyReset()              {}
func (nopRecorder) ProfileChanged(int, int)  {}
func (nopRecorder) TimerActive(bool)         {}
