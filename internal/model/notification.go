package model

// NotificationSettings holds the reminder time of day ("15:04") per routine.
type NotificationSettings struct {
	Enabled     bool   `json:"enabled"`
	MorningTime string `json:"morningTime"`
	NightTime   string `json:"nightTime"`
}

// TimeFor returns the reminder time configured for t.
func (s NotificationSettings) TimeFor(t RoutineType) string {
	if t == RoutineNight {
		return s.NightTime
	}
	return s.MorningTime
}

// NotificationState records the last calendar date ("2006-01-02") a reminder
// was shown for each routine.
type NotificationState struct {
	MorningLastShown *string `json:"morningLastShown"`
	NightLastShown   *string `json:"nightLastShown"`
}

// LastShown returns the last reminder date for t, or nil if never shown.
func (s NotificationState) LastShown(t RoutineType) *string {
	if t == RoutineNight {
		return s.NightLastShown
	}
	return s.MorningLastShown
}

// WithShown returns a copy of s with the reminder for t marked as shown on date.
func (s NotificationState) WithShown(t RoutineType, date string) NotificationState {
	d := date
	if t == RoutineNight {
		s.NightLastShown = &d
	} else {
		s.MorningLastShown = &d
	}
	return s
}
