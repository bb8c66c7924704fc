package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dukerupert/mobilityquest/internal/model"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}

	morning := c.Routine(model.RoutineMorning)
	if morning.ID != "morning-1" {
		t.Errorf("morning id = %q, want %q", morning.ID, "morning-1")
	}
	if len(morning.Exercises) != 7 {
		t.Fatalf("morning exercises = %d, want 7", len(morning.Exercises))
	}
	for i, e := range morning.Exercises {
		if e.Order != i+1 {
			t.Errorf("exercise %s order = %d, want %d", e.ID, e.Order, i+1)
		}
		if e.Completed {
			t.Errorf("exercise %s should start incomplete", e.ID)
		}
	}
	if !morning.Exercises[1].IsSided {
		t.Error("Thread the Needle should be sided")
	}
	if !strings.Contains(morning.Exercises[6].Description, `"W" shape`) {
		t.Errorf("wall slides description = %q", morning.Exercises[6].Description)
	}

	night := c.Routine(model.RoutineNight)
	if night.Type != model.RoutineNight {
		t.Errorf("night type = %q, want %q", night.Type, model.RoutineNight)
	}
	if night.Exercises[0].Duration != 180 {
		t.Errorf("n1 duration = %d, want 180", night.Exercises[0].Duration)
	}

	achievements := c.Achievements()
	if len(achievements) != 8 {
		t.Fatalf("achievements = %d, want 8", len(achievements))
	}
	for _, a := range achievements {
		if a.Unlocked {
			t.Errorf("achievement %s should start locked", a.ID)
		}
	}
}

func TestRoutineReturnsCopy(t *testing.T) {
	c := MustDefault()

	r := c.Routine(model.RoutineMorning)
	r.Exercises[0].Completed = true

	again := c.Routine(model.RoutineMorning)
	if again.Exercises[0].Completed {
		t.Error("mutating a returned routine must not change the catalog")
	}
}

func TestParseRejectsMissingRoutine(t *testing.T) {
	_, err := Parse(`
[[routine]]
id = "morning-1"
type = "morning"
  [[routine.exercise]]
  id = "m1"
  duration = 60
`)
	if err == nil {
		t.Fatal("expected error for catalog without a night routine")
	}
}

func TestParseRejectsDuplicateExercise(t *testing.T) {
	_, err := Parse(`
[[routine]]
id = "morning-1"
type = "morning"
  [[routine.exercise]]
  id = "x"
  duration = 60
[[routine]]
id = "night-1"
type = "night"
  [[routine.exercise]]
  id = "x"
  duration = 60
`)
	if err == nil {
		t.Fatal("expected error for duplicate exercise id")
	}
}

func TestParseRejectsIDWithoutTypePrefix(t *testing.T) {
	_, err := Parse(`
[[routine]]
id = "night-1"
type = "morning"
  [[routine.exercise]]
  id = "m1"
  duration = 60
[[routine]]
id = "night-2"
type = "night"
  [[routine.exercise]]
  id = "n1"
  duration = 60
`)
	if err == nil {
		t.Fatal("expected error for routine id not starting with its type")
	}
}

func TestParseRejectsBadDuration(t *testing.T) {
	_, err := Parse(`
[[routine]]
id = "morning-1"
type = "morning"
  [[routine.exercise]]
  id = "m1"
  duration = 0
[[routine]]
id = "night-1"
type = "night"
  [[routine.exercise]]
  id = "n1"
  duration = 60
`)
	if err == nil {
		t.Fatal("expected error for zero duration")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.toml")
	data := `
[[routine]]
id = "morning-short"
name = "Quick Morning"
type = "morning"
total_duration = 2
  [[routine.exercise]]
  id = "q1"
  name = "Stretch"
  duration = 30
  sided = true

[[routine]]
id = "night-short"
name = "Quick Night"
type = "night"
total_duration = 1
  [[routine.exercise]]
  id = "q2"
  name = "Breathe"
  duration = 60

[[achievement]]
id = "a1"
name = "First Steps"
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	r := c.Routine(model.RoutineMorning)
	if r.Name != "Quick Morning" {
		t.Errorf("name = %q, want %q", r.Name, "Quick Morning")
	}
	if !r.Exercises[0].IsSided {
		t.Error("q1 should be sided")
	}
	if got := len(c.Achievements()); got != 1 {
		t.Errorf("achievements = %d, want 1", got)
	}
}

func TestLoadEmptyPathUsesDefault(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Routine(model.RoutineNight).ID != "night-1" {
		t.Error("expected built-in night routine")
	}
}
