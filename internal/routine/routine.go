package routine

import (
	"github.com/dukerupert/mobilityquest/internal/model"
)

// MarkComplete returns r with the exercise at index marked complete, and
// whether anything changed. An out-of-range index or an already completed
// exercise leaves r as it is.
func MarkComplete(r model.Routine, index int) (model.Routine, bool) {
	if index < 0 || index >= len(r.Exercises) {
		return r, false
	}
	if r.Exercises[index].Completed {
		return r, false
	}
	out := r.Clone()
	out.Exercises[index].Completed = true
	return out, true
}

// ResetDaily returns r with every completion flag cleared. Definitions and
// order are preserved.
func ResetDaily(r model.Routine) model.Routine {
	out := r.Clone()
	for i := range out.Exercises {
		out.Exercises[i].Completed = false
	}
	return out
}

// AllComplete reports whether every exercise in r is complete.
func AllComplete(r model.Routine) bool {
	if len(r.Exercises) == 0 {
		return false
	}
	for _, e := range r.Exercises {
		if !e.Completed {
			return false
		}
	}
	return true
}

// CompletedCount returns the number of completed exercises in r.
func CompletedCount(r model.Routine) int {
	n := 0
	for _, e := range r.Exercises {
		if e.Completed {
			n++
		}
	}
	return n
}

// CompletedIDs returns the ids of the completed exercises in routine order.
func CompletedIDs(r model.Routine) []string {
	ids := make([]string, 0, len(r.Exercises))
	for _, e := range r.Exercises {
		if e.Completed {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// Progress returns the completed share of r as a whole percentage.
func Progress(r model.Routine) int {
	if len(r.Exercises) == 0 {
		return 0
	}
	return CompletedCount(r) * 100 / len(r.Exercises)
}

// NextIncomplete returns the index of the first incomplete exercise after
// index, wrapping around to the start. It returns -1 when all are complete.
func NextIncomplete(r model.Routine, index int) int {
	n := len(r.Exercises)
	for step := 1; step <= n; step++ {
		i := (index + step) % n
		if i < 0 {
			i += n
		}
		if !r.Exercises[i].Completed {
			return i
		}
	}
	return -1
}

// Overlay copies completion flags from persisted onto def, matching exercises
// by id. Everything else comes from def, so stored copies can never change an
// exercise definition or its order.
func Overlay(def, persisted model.Routine) model.Routine {
	done := make(map[string]bool, len(persisted.Exercises))
	for _, e := range persisted.Exercises {
		if e.Completed {
			done[e.ID] = true
		}
	}
	out := def.Clone()
	for i := range out.Exercises {
		out.Exercises[i].Completed = done[out.Exercises[i].ID]
	}
	return out
}
