// Package catalog holds the static routine and achievement definitions the
// tracker is seeded with.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/dukerupert/mobilityquest/internal/model"
)

//go:embed default.toml
var defaultTOML string

type exerciseDef struct {
	ID               string `toml:"id"`
	Name             string `toml:"name"`
	Description      string `toml:"description"`
	Duration         int    `toml:"duration"`
	Sided            bool   `toml:"sided"`
	SideInstructions string `toml:"side_instructions"`
}

type routineDef struct {
	ID            string        `toml:"id"`
	Name          string        `toml:"name"`
	Type          string        `toml:"type"`
	TotalDuration int           `toml:"total_duration"`
	Exercises     []exerciseDef `toml:"exercise"`
}

type achievementDef struct {
	ID          string `toml:"id"`
	Name        string `toml:"name"`
	Description string `toml:"description"`
	Icon        string `toml:"icon"`
	Points      int    `toml:"points"`
}

type file struct {
	Routines     []routineDef     `toml:"routine"`
	Achievements []achievementDef `toml:"achievement"`
}

// Catalog is an immutable set of routine and achievement definitions.
type Catalog struct {
	routines     map[model.RoutineType]model.Routine
	achievements []model.Achievement
}

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	return Parse(defaultTOML)
}

// MustDefault is Default for callers that cannot recover from a broken build.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(fmt.Sprintf("catalog: built-in definitions: %v", err))
	}
	return c
}

// Load reads a catalog from a TOML file. An empty path yields the built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	var f file
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	return build(f)
}

// Parse reads a catalog from TOML text.
func Parse(data string) (*Catalog, error) {
	var f file
	if _, err := toml.Decode(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return build(f)
}

func build(f file) (*Catalog, error) {
	c := &Catalog{routines: make(map[model.RoutineType]model.Routine)}
	seen := make(map[string]bool)

	for _, rd := range f.Routines {
		t := model.RoutineType(rd.Type)
		if !t.Valid() {
			return nil, fmt.Errorf("routine %q: unknown type %q", rd.ID, rd.Type)
		}
		if !strings.HasPrefix(rd.ID, rd.Type) {
			return nil, fmt.Errorf("routine %q: id must start with its type %q", rd.ID, rd.Type)
		}
		if _, dup := c.routines[t]; dup {
			return nil, fmt.Errorf("routine %q: more than one %s routine", rd.ID, t)
		}
		if len(rd.Exercises) == 0 {
			return nil, fmt.Errorf("routine %q: no exercises", rd.ID)
		}

		r := model.Routine{
			ID:            rd.ID,
			Name:          rd.Name,
			Type:          t,
			TotalDuration: rd.TotalDuration,
			Exercises:     make([]model.Exercise, 0, len(rd.Exercises)),
		}
		for i, ed := range rd.Exercises {
			if ed.ID == "" {
				return nil, fmt.Errorf("routine %q: exercise %d has no id", rd.ID, i+1)
			}
			if seen[ed.ID] {
				return nil, fmt.Errorf("routine %q: duplicate exercise id %q", rd.ID, ed.ID)
			}
			if ed.Duration <= 0 {
				return nil, fmt.Errorf("exercise %q: duration must be > 0", ed.ID)
			}
			seen[ed.ID] = true
			r.Exercises = append(r.Exercises, model.Exercise{
				ID:               ed.ID,
				Name:             ed.Name,
				Description:      ed.Description,
				Duration:         ed.Duration,
				Order:            i + 1,
				IsSided:          ed.Sided,
				SideInstructions: ed.SideInstructions,
			})
		}
		c.routines[t] = r
	}

	for _, t := range model.RoutineTypes {
		if _, ok := c.routines[t]; !ok {
			return nil, fmt.Errorf("missing %s routine", t)
		}
	}

	ids := make(map[string]bool)
	for _, ad := range f.Achievements {
		if ad.ID == "" {
			return nil, errors.New("achievement without id")
		}
		if ids[ad.ID] {
			return nil, fmt.Errorf("duplicate achievement id %q", ad.ID)
		}
		ids[ad.ID] = true
		c.achievements = append(c.achievements, model.Achievement{
			ID:          ad.ID,
			Name:        ad.Name,
			Description: ad.Description,
			Icon:        ad.Icon,
			Points:      ad.Points,
		})
	}

	return c, nil
}

// Routine returns a fresh copy of the routine of type t with no exercise completed.
func (c *Catalog) Routine(t model.RoutineType) model.Routine {
	return c.routines[t].Clone()
}

// Routines returns fresh copies of both routines.
func (c *Catalog) Routines() model.RoutineSet {
	return model.RoutineSet{
		Morning: c.Routine(model.RoutineMorning),
		Night:   c.Routine(model.RoutineNight),
	}
}

// Achievements returns the achievement definitions, all locked.
func (c *Catalog) Achievements() []model.Achievement {
	out := make([]model.Achievement, len(c.achievements))
	copy(out, c.achievements)
	return out
}
