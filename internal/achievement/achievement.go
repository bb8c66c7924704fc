// Package achievement decides which achievements a user has earned.
package achievement

import (
	"github.com/dukerupert/mobilityquest/internal/model"
)

// Progress is everything the unlock rules look at.
type Progress struct {
	TotalExercises int
	Streak         int
	MorningStreak  int
	NightStreak    int
	Level          int
	PerfectDay     bool
}

type rule func(Progress) bool

var rules = map[string]rule{
	"a1": func(p Progress) bool { return p.TotalExercises >= 1 },
	"a2": func(p Progress) bool { return p.MorningStreak >= 3 },
	"a3": func(p Progress) bool { return p.NightStreak >= 3 },
	"a4": func(p Progress) bool { return p.Streak >= 7 },
	"a5": func(p Progress) bool { return p.PerfectDay },
	"a6": func(p Progress) bool { return p.TotalExercises >= 100 },
	"a7": func(p Progress) bool { return p.Level >= 10 },
	"a8": func(p Progress) bool { return p.Streak >= 30 },
}

// Evaluate returns a copy of achievements where every locked achievement whose
// threshold is met is unlocked, plus the ones unlocked by this pass. Unlocked
// achievements are never re-evaluated, and achievements without a rule stay
// as they are.
func Evaluate(p Progress, achievements []model.Achievement) ([]model.Achievement, []model.Achievement) {
	out := make([]model.Achievement, len(achievements))
	var unlocked []model.Achievement
	for i, a := range achievements {
		if !a.Unlocked {
			if r, ok := rules[a.ID]; ok && r(p) {
				a.Unlocked = true
				unlocked = append(unlocked, a)
			}
		}
		out[i] = a
	}
	return out, unlocked
}

// Overlay copies unlock flags from persisted onto defs, matching by id.
// Definitions always come from defs.
func Overlay(defs, persisted []model.Achievement) []model.Achievement {
	done := make(map[string]bool, len(persisted))
	for _, a := range persisted {
		if a.Unlocked {
			done[a.ID] = true
		}
	}
	out := make([]model.Achievement, len(defs))
	for i, a := range defs {
		a.Unlocked = done[a.ID]
		out[i] = a
	}
	return out
}

// CountUnlocked returns the number of unlocked achievements.
func CountUnlocked(achievements []model.Achievement) int {
	n := 0
	for _, a := range achievements {
		if a.Unlocked {
			n++
		}
	}
	return n
}
