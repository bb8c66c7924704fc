package model

// RoutineType identifies one of the two daily routines.
type RoutineType string

const (
	RoutineMorning RoutineType = "morning"
	RoutineNight   RoutineType = "night"
)

// RoutineTypes lists the routine types in display order.
var RoutineTypes = []RoutineType{RoutineMorning, RoutineNight}

// Valid reports whether t is a known routine type.
func (t RoutineType) Valid() bool {
	return t == RoutineMorning || t == RoutineNight
}

type Exercise struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	Duration         int    `json:"duration"`
	Order            int    `json:"order"`
	Completed        bool   `json:"completed"`
	IsSided          bool   `json:"isSided,omitempty"`
	SideInstructions string `json:"sideInstructions,omitempty"`
}

type Routine struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Type          RoutineType `json:"type"`
	TotalDuration int         `json:"totalDuration"`
	Exercises     []Exercise  `json:"exercises"`
}

// Clone returns a copy of r that shares no exercise storage with it.
func (r Routine) Clone() Routine {
	c := r
	c.Exercises = make([]Exercise, len(r.Exercises))
	copy(c.Exercises, r.Exercises)
	return c
}

// RoutineSet is the persisted shape of both routines.
type RoutineSet struct {
	Morning Routine `json:"morning"`
	Night   Routine `json:"night"`
}
