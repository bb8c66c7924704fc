package profile

import (
	"strings"
	"time"

	"github.com/dukerupert/mobilityquest/internal/model"
)

const (
	// PointsPerExercise is awarded for every completed exercise.
	PointsPerExercise = 10
	// PointsPerLevel is the number of points between two levels.
	PointsPerLevel = 100

	// maxStreakScan bounds the backward day-by-day scan.
	maxStreakScan = 365

	dateLayout = "2006-01-02"
)

// Level returns the level reached with totalPoints.
func Level(totalPoints int) int {
	if totalPoints < 0 {
		totalPoints = 0
	}
	return totalPoints/PointsPerLevel + 1
}

// LevelProgress returns how far totalPoints is into the current level, in percent.
func LevelProgress(totalPoints int) int {
	if totalPoints < 0 {
		return 0
	}
	return (totalPoints % PointsPerLevel) * 100 / PointsPerLevel
}

// AwardPoints returns p with amount added to its total and the level recomputed.
func AwardPoints(p model.UserProfile, amount int) model.UserProfile {
	p.TotalPoints += amount
	p.Level = Level(p.TotalPoints)
	return p
}

// LeveledUp reports whether going from before to after crossed a level boundary.
func LeveledUp(before, after model.UserProfile) bool {
	return Level(after.TotalPoints) > Level(before.TotalPoints)
}

// ApplyStreak returns p with its current streak set to streak. The longest
// streak never decreases.
func ApplyStreak(p model.UserProfile, streak int) model.UserProfile {
	p.Streak = streak
	if streak > p.LongestStreak {
		p.LongestStreak = streak
	}
	return p
}

// Normalize repairs a profile read from storage: level is derived from points
// and the longest streak is at least the current one.
func Normalize(p model.UserProfile) model.UserProfile {
	if p.TotalPoints < 0 {
		p.TotalPoints = 0
	}
	p.Level = Level(p.TotalPoints)
	return ApplyStreak(p, p.Streak)
}

// DateKey returns the calendar date of t in loc as "2006-01-02".
func DateKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(dateLayout)
}

// RoutineTypeOf derives the routine type from a routine identifier prefix.
func RoutineTypeOf(routineID string) (model.RoutineType, bool) {
	for _, t := range model.RoutineTypes {
		if strings.HasPrefix(routineID, string(t)) {
			return t, true
		}
	}
	return "", false
}

// CompletionDates returns the set of calendar dates (in today's location)
// with at least one completion.
func CompletionDates(log []model.CompletionRecord, loc *time.Location) map[string]bool {
	dates := make(map[string]bool, len(log))
	for _, rec := range log {
		dates[DateKey(rec.CompletedAt, loc)] = true
	}
	return dates
}

func routineDates(log []model.CompletionRecord, t model.RoutineType, loc *time.Location) map[string]bool {
	dates := make(map[string]bool)
	for _, rec := range log {
		if rt, ok := RoutineTypeOf(rec.RoutineID); ok && rt == t {
			dates[DateKey(rec.CompletedAt, loc)] = true
		}
	}
	return dates
}

// RecomputeStreak counts consecutive days with a completion, ending today or,
// when today has none yet, yesterday.
func RecomputeStreak(log []model.CompletionRecord, today time.Time) int {
	return streakFrom(CompletionDates(log, today.Location()), today)
}

// RecomputeRoutineStreak is RecomputeStreak restricted to completions of
// routines of type t.
func RecomputeRoutineStreak(log []model.CompletionRecord, t model.RoutineType, today time.Time) int {
	return streakFrom(routineDates(log, t, today.Location()), today)
}

func streakFrom(dates map[string]bool, today time.Time) int {
	day := startOfDay(today)
	if !dates[day.Format(dateLayout)] {
		day = day.AddDate(0, 0, -1)
		if !dates[day.Format(dateLayout)] {
			return 0
		}
	}

	streak := 0
	for streak < maxStreakScan && dates[day.Format(dateLayout)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// HasPerfectDay reports whether some calendar date has both a morning and a
// night completion.
func HasPerfectDay(log []model.CompletionRecord, loc *time.Location) bool {
	morning := routineDates(log, model.RoutineMorning, loc)
	for d := range routineDates(log, model.RoutineNight, loc) {
		if morning[d] {
			return true
		}
	}
	return false
}

// AddDailyCompletion appends date to dates unless it is already present.
func AddDailyCompletion(dates []string, date string) []string {
	for _, d := range dates {
		if d == date {
			return dates
		}
	}
	return append(dates, date)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
