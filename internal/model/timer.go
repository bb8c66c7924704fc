package model

// Side is the body side an exercise is currently being performed on.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
	SideBoth  Side = "both"
)

// TimerSnapshot is a read-only view of the active exercise countdown.
type TimerSnapshot struct {
	SessionID         string      `json:"sessionId"`
	RoutineType       RoutineType `json:"routineType"`
	ExerciseIndex     int         `json:"exerciseIndex"`
	ExerciseID        string      `json:"exerciseId"`
	Duration          int         `json:"duration"`
	TimeRemaining     int         `json:"timeRemaining"`
	Side              Side        `json:"side"`
	SideTimeRemaining int         `json:"sideTimeRemaining"`
	Playing           bool        `json:"playing"`
	Finished          bool        `json:"finished"`
}
