package model

type UserProfile struct {
	TotalPoints             int `json:"totalPoints"`
	Level                   int `json:"level"`
	Streak                  int `json:"streak"`
	LongestStreak           int `json:"longestStreak"`
	TotalRoutinesCompleted  int `json:"totalRoutinesCompleted"`
	TotalExercisesCompleted int `json:"totalExercisesCompleted"`
}

// NewUserProfile returns the profile of a user who has not done anything yet.
func NewUserProfile() UserProfile {
	return UserProfile{Level: 1}
}
