package routine

import (
	"testing"

	"github.com/dukerupert/mobilityquest/internal/catalog"
	"github.com/dukerupert/mobilityquest/internal/model"
)

func testRoutine() model.Routine {
	return model.Routine{
		ID:   "morning-1",
		Type: model.RoutineMorning,
		Exercises: []model.Exercise{
			{ID: "m1", Duration: 60, Order: 1},
			{ID: "m2", Duration: 60, Order: 2, IsSided: true},
			{ID: "m3", Duration: 90, Order: 3},
		},
	}
}

func TestMarkComplete(t *testing.T) {
	r := testRoutine()

	got, changed := MarkComplete(r, 1)
	if !changed {
		t.Fatal("expected change")
	}
	if !got.Exercises[1].Completed {
		t.Error("exercise 1 should be complete")
	}
	if r.Exercises[1].Completed {
		t.Error("input routine must not be mutated")
	}
}

func TestMarkCompleteIdempotent(t *testing.T) {
	r, _ := MarkComplete(testRoutine(), 0)

	again, changed := MarkComplete(r, 0)
	if changed {
		t.Error("marking a completed exercise again should be a no-op")
	}
	if !again.Exercises[0].Completed {
		t.Error("exercise should stay complete")
	}
}

func TestMarkCompleteOutOfRange(t *testing.T) {
	r := testRoutine()
	for _, idx := range []int{-1, 3, 100} {
		got, changed := MarkComplete(r, idx)
		if changed {
			t.Errorf("index %d: expected no change", idx)
		}
		if CompletedCount(got) != 0 {
			t.Errorf("index %d: completed = %d, want 0", idx, CompletedCount(got))
		}
	}
}

func TestResetDailyPreservesDefinitions(t *testing.T) {
	r := testRoutine()
	r, _ = MarkComplete(r, 0)
	r, _ = MarkComplete(r, 2)

	reset := ResetDaily(r)
	if CompletedCount(reset) != 0 {
		t.Errorf("completed = %d, want 0", CompletedCount(reset))
	}
	for i, e := range reset.Exercises {
		if e.ID != r.Exercises[i].ID || e.Duration != r.Exercises[i].Duration || e.Order != r.Exercises[i].Order {
			t.Errorf("exercise %d changed: %+v", i, e)
		}
	}
	if CompletedCount(r) != 2 {
		t.Error("input routine must not be mutated")
	}
}

func TestAllCompleteAndIDs(t *testing.T) {
	r := testRoutine()
	if AllComplete(r) {
		t.Error("fresh routine should not be complete")
	}
	for i := range r.Exercises {
		r, _ = MarkComplete(r, i)
	}
	if !AllComplete(r) {
		t.Error("expected routine to be complete")
	}
	ids := CompletedIDs(r)
	if len(ids) != 3 || ids[0] != "m1" || ids[2] != "m3" {
		t.Errorf("ids = %v, want [m1 m2 m3]", ids)
	}
	if Progress(r) != 100 {
		t.Errorf("progress = %d, want 100", Progress(r))
	}
}

func TestNextIncomplete(t *testing.T) {
	r := testRoutine()
	if got := NextIncomplete(r, 0); got != 1 {
		t.Errorf("next after 0 = %d, want 1", got)
	}
	r, _ = MarkComplete(r, 0)
	if got := NextIncomplete(r, 2); got != 1 {
		t.Errorf("next after 2 = %d, want 1 (wrap)", got)
	}
	r, _ = MarkComplete(r, 1)
	r, _ = MarkComplete(r, 2)
	if got := NextIncomplete(r, 0); got != -1 {
		t.Errorf("next in complete routine = %d, want -1", got)
	}
}

func TestOverlay(t *testing.T) {
	def := testRoutine()
	persisted := testRoutine()
	persisted.Exercises[1].Completed = true
	persisted.Exercises[1].Duration = 5
	persisted.Exercises = append(persisted.Exercises, model.Exercise{ID: "gone", Completed: true})

	got := Overlay(def, persisted)
	if len(got.Exercises) != 3 {
		t.Fatalf("exercises = %d, want 3", len(got.Exercises))
	}
	if !got.Exercises[1].Completed {
		t.Error("m2 completion should be carried over")
	}
	if got.Exercises[1].Duration != 60 {
		t.Errorf("m2 duration = %d, want definition value 60", got.Exercises[1].Duration)
	}
}

func TestStore(t *testing.T) {
	s := NewStore(catalog.MustDefault().Routines())

	if !s.MarkComplete(model.RoutineNight, 0) {
		t.Fatal("expected change")
	}
	if s.MarkComplete(model.RoutineNight, 0) {
		t.Error("second mark should not change anything")
	}
	if s.MarkComplete(model.RoutineMorning, 42) {
		t.Error("out of range should not change anything")
	}
	if got := s.TotalCompleted(); got != 1 {
		t.Errorf("total completed = %d, want 1", got)
	}

	n := s.Get(model.RoutineNight)
	n.Exercises[1].Completed = true
	if s.TotalCompleted() != 1 {
		t.Error("Get must return a copy")
	}

	s.ResetDaily()
	if s.TotalCompleted() != 0 {
		t.Errorf("total after reset = %d, want 0", s.TotalCompleted())
	}
}
