package model

import "time"

// CompletionRecord is one finished routine in the completion log.
type CompletionRecord struct {
	RoutineID   string    `json:"routineId"`
	ExerciseIDs []string  `json:"exerciseIds"`
	Points      int       `json:"points"`
	CompletedAt time.Time `json:"completedAt"`
}
