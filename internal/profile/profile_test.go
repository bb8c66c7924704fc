package profile

import (
	"testing"
	"time"

	"github.com/dukerupert/mobilityquest/internal/model"
)

var today = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

func rec(routineID string, daysAgo int) model.CompletionRecord {
	return model.CompletionRecord{
		RoutineID:   routineID,
		CompletedAt: today.AddDate(0, 0, -daysAgo),
	}
}

func TestLevel(t *testing.T) {
	cases := map[int]int{0: 1, 10: 1, 99: 1, 100: 2, 150: 2, 999: 10, 1000: 11}
	for points, want := range cases {
		if got := Level(points); got != want {
			t.Errorf("Level(%d) = %d, want %d", points, got, want)
		}
	}
}

func TestLevelMonotonic(t *testing.T) {
	prev := Level(0)
	for points := 0; points <= 5000; points += PointsPerExercise {
		got := Level(points)
		if got < prev {
			t.Fatalf("level dropped from %d to %d at %d points", prev, got, points)
		}
		if want := points/100 + 1; got != want {
			t.Fatalf("Level(%d) = %d, want %d", points, got, want)
		}
		prev = got
	}
}

func TestAwardPoints(t *testing.T) {
	p := model.NewUserProfile()
	p.TotalPoints = 95

	before := p
	p = AwardPoints(p, PointsPerExercise)
	if p.TotalPoints != 105 {
		t.Errorf("total = %d, want 105", p.TotalPoints)
	}
	if p.Level != 2 {
		t.Errorf("level = %d, want 2", p.Level)
	}
	if !LeveledUp(before, p) {
		t.Error("expected level up")
	}
	if LevelProgress(p.TotalPoints) != 5 {
		t.Errorf("progress = %d, want 5", LevelProgress(p.TotalPoints))
	}
}

func TestRecomputeStreakConsecutive(t *testing.T) {
	log := []model.CompletionRecord{rec("morning-1", 0), rec("night-1", 1), rec("morning-1", 2)}
	if got := RecomputeStreak(log, today); got != 3 {
		t.Errorf("streak = %d, want 3", got)
	}
}

func TestRecomputeStreakGap(t *testing.T) {
	log := []model.CompletionRecord{rec("morning-1", 0), rec("morning-1", 2)}
	if got := RecomputeStreak(log, today); got != 1 {
		t.Errorf("streak = %d, want 1", got)
	}
}

func TestRecomputeStreakStartsYesterday(t *testing.T) {
	log := []model.CompletionRecord{rec("morning-1", 1), rec("morning-1", 2), rec("night-1", 4)}
	if got := RecomputeStreak(log, today); got != 2 {
		t.Errorf("streak = %d, want 2", got)
	}
}

func TestRecomputeStreakBroken(t *testing.T) {
	log := []model.CompletionRecord{rec("morning-1", 2), rec("morning-1", 3)}
	if got := RecomputeStreak(log, today); got != 0 {
		t.Errorf("streak = %d, want 0", got)
	}
	if got := RecomputeStreak(nil, today); got != 0 {
		t.Errorf("empty log streak = %d, want 0", got)
	}
}

func TestRecomputeStreakDeduplicatesDays(t *testing.T) {
	log := []model.CompletionRecord{rec("morning-1", 0), rec("night-1", 0), rec("morning-1", 1)}
	if got := RecomputeStreak(log, today); got != 2 {
		t.Errorf("streak = %d, want 2", got)
	}
}

func TestRecomputeStreakIdempotent(t *testing.T) {
	log := []model.CompletionRecord{rec("morning-1", 0), rec("night-1", 1)}
	first := RecomputeStreak(log, today)
	second := RecomputeStreak(log, today)
	if first != second {
		t.Errorf("streak changed between calls: %d then %d", first, second)
	}
}

func TestRecomputeStreakCapped(t *testing.T) {
	var log []model.CompletionRecord
	for i := 0; i < 400; i++ {
		log = append(log, rec("morning-1", i))
	}
	if got := RecomputeStreak(log, today); got != maxStreakScan {
		t.Errorf("streak = %d, want %d", got, maxStreakScan)
	}
}

func TestRecomputeStreakUsesLocalCalendarDay(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*60*60)
	localToday := time.Date(2026, 3, 10, 20, 0, 0, 0, loc)
	// 2026-03-11 02:00 UTC is still 2026-03-10 in UTC-8.
	log := []model.CompletionRecord{{RoutineID: "night-1", CompletedAt: time.Date(2026, 3, 11, 2, 0, 0, 0, time.UTC)}}
	if got := RecomputeStreak(log, localToday); got != 1 {
		t.Errorf("streak = %d, want 1", got)
	}
}

func TestRecomputeRoutineStreak(t *testing.T) {
	log := []model.CompletionRecord{
		rec("morning-1", 0), rec("morning-1", 1), rec("morning-1", 2),
		rec("night-1", 0), rec("night-1", 2),
	}
	if got := RecomputeRoutineStreak(log, model.RoutineMorning, today); got != 3 {
		t.Errorf("morning streak = %d, want 3", got)
	}
	if got := RecomputeRoutineStreak(log, model.RoutineNight, today); got != 1 {
		t.Errorf("night streak = %d, want 1", got)
	}
}

func TestApplyStreakKeepsLongest(t *testing.T) {
	p := model.NewUserProfile()
	p = ApplyStreak(p, 5)
	if p.LongestStreak != 5 {
		t.Errorf("longest = %d, want 5", p.LongestStreak)
	}
	p = ApplyStreak(p, 0)
	if p.Streak != 0 {
		t.Errorf("streak = %d, want 0", p.Streak)
	}
	if p.LongestStreak != 5 {
		t.Errorf("longest = %d, want 5 after streak broke", p.LongestStreak)
	}
}

func TestNormalize(t *testing.T) {
	p := Normalize(model.UserProfile{TotalPoints: 250, Level: 99, Streak: 4, LongestStreak: 2})
	if p.Level != 3 {
		t.Errorf("level = %d, want 3", p.Level)
	}
	if p.LongestStreak != 4 {
		t.Errorf("longest = %d, want 4", p.LongestStreak)
	}
}

func TestHasPerfectDay(t *testing.T) {
	log := []model.CompletionRecord{rec("morning-1", 0), rec("night-1", 1)}
	if HasPerfectDay(log, time.UTC) {
		t.Error("no single day has both routines")
	}
	log = append(log, rec("morning-1", 1))
	if !HasPerfectDay(log, time.UTC) {
		t.Error("expected perfect day")
	}
}

func TestRoutineTypeOf(t *testing.T) {
	if rt, ok := RoutineTypeOf("night-1"); !ok || rt != model.RoutineNight {
		t.Errorf("RoutineTypeOf(night-1) = %q, %v", rt, ok)
	}
	if _, ok := RoutineTypeOf("afternoon-1"); ok {
		t.Error("unknown prefix should not match")
	}
}

func TestAddDailyCompletion(t *testing.T) {
	dates := AddDailyCompletion(nil, "2026-03-10")
	dates = AddDailyCompletion(dates, "2026-03-10")
	dates = AddDailyCompletion(dates, "2026-03-11")
	if len(dates) != 2 {
		t.Errorf("dates = %v, want 2 entries", dates)
	}
}
