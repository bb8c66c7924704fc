// Package quest is the running tracker: it owns the routines, profile,
// achievements and exercise timer, and sequences every change through
// completion and persistence in a fixed order.
package quest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/dukerupert/mobilityquest/internal/achievement"
	"github.com/dukerupert/mobilityquest/internal/catalog"
	"github.com/dukerupert/mobilityquest/internal/model"
	"github.com/dukerupert/mobilityquest/internal/persist"
	"github.com/dukerupert/mobilityquest/internal/profile"
	"github.com/dukerupert/mobilityquest/internal/reset"
	"github.com/dukerupert/mobilityquest/internal/routine"
	"github.com/dukerupert/mobilityquest/internal/timer"
)

// DefaultNotificationSettings are used until the user saves their own.
var DefaultNotificationSettings = model.NotificationSettings{
	Enabled:     false,
	MorningTime: "07:00",
	NightTime:   "21:00",
}

// Options configures a Service.
type Options struct {
	Catalog  *catalog.Catalog
	Blobs    *persist.Blobs
	Location *time.Location
	Now      func() time.Time
	Logger   *slog.Logger
	Publish  Publisher
	Recorder Recorder
}

// Service is the single application instance. All methods are safe for
// concurrent use and serialize on one lock.
type Service struct {
	mu sync.Mutex

	catalog  *catalog.Catalog
	blobs    *persist.Blobs
	policy   *reset.Policy
	loc      *time.Location
	now      func() time.Time
	logger   *slog.Logger
	publish  Publisher
	recorder Recorder

	routines     *routine.Store
	profile      model.UserProfile
	achievements []model.Achievement
	completions  []model.CompletionRecord
	daily        []string
	settings     model.NotificationSettings
	notifState   model.NotificationState
	timer        timer.Timer
}

// New creates a Service seeded with catalog defaults. Call Load to read
// persisted state.
func New(opts Options) *Service {
	if opts.Catalog == nil {
		opts.Catalog = catalog.MustDefault()
	}
	if opts.Blobs == nil {
		opts.Blobs = persist.NewBlobs(persist.NewMemoryGateway(), opts.Logger, nil)
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Publish == nil {
		opts.Publish = func(Event) {}
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}

	s := &Service{
		catalog:  opts.Catalog,
		blobs:    opts.Blobs,
		policy:   reset.NewPolicy(opts.Blobs, opts.Location),
		loc:      opts.Location,
		now:      opts.Now,
		logger:   opts.Logger.With("component", "quest"),
		publish:  opts.Publish,
		recorder: opts.Recorder,
	}
	s.seed()
	return s
}

func (s *Service) seed() {
	s.routines = routine.NewStore(s.catalog.Routines())
	s.profile = model.NewUserProfile()
	s.achievements = s.catalog.Achievements()
	s.completions = []model.CompletionRecord{}
	s.daily = []string{}
	s.settings = DefaultNotificationSettings
	s.notifState = model.NotificationState{}
	s.timer.Close()
}

// Load reads persisted state over the catalog defaults, recomputes the
// streak from the completion log and applies the daily reset.
func (s *Service) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
}

func (s *Service) load() {
	s.seed()

	defaults := s.catalog.Routines()
	stored := persist.Load(s.blobs, persist.KeyRoutines, defaults)
	s.routines = routine.NewStore(model.RoutineSet{
		Morning: routine.Overlay(defaults.Morning, stored.Morning),
		Night:   routine.Overlay(defaults.Night, stored.Night),
	})

	s.profile = profile.Normalize(persist.Load(s.blobs, persist.KeyProfile, model.NewUserProfile()))
	s.achievements = achievement.Overlay(
		s.catalog.Achievements(),
		persist.Load(s.blobs, persist.KeyAchievements, []model.Achievement{}),
	)
	s.completions = nonNil(persist.Load(s.blobs, persist.KeyCompletions, []model.CompletionRecord{}))
	s.daily = nonNil(persist.Load(s.blobs, persist.KeyDailyCompletions, []string{}))
	s.settings = persist.Load(s.blobs, persist.KeyNotifications, DefaultNotificationSettings)
	s.notifState = persist.Load(s.blobs, persist.KeyNotificationState, model.NotificationState{})

	now := s.now().In(s.loc)
	s.profile = profile.ApplyStreak(s.profile, profile.RecomputeStreak(s.completions, now))
	s.blobs.Save(persist.KeyProfile, s.profile)
	s.recorder.ProfileChanged(s.profile.Streak, s.profile.Level)

	s.policy.Reload()
	s.checkDailyReset(now)

	s.logger.Info("state loaded",
		"points", s.profile.TotalPoints,
		"level", s.profile.Level,
		"streak", s.profile.Streak,
		"completions", len(s.completions),
	)
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

// State is a point-in-time view of everything the client renders.
type State struct {
	Routines        model.RoutineSet           `json:"routines"`
	Progress        map[model.RoutineType]int  `json:"progress"`
	Profile         model.UserProfile          `json:"profile"`
	LevelProgress   int                        `json:"levelProgress"`
	Achievements    []model.Achievement        `json:"achievements"`
	UnlockedCount   int                        `json:"unlockedCount"`
	Timer           *model.TimerSnapshot       `json:"timer"`
	Notifications   model.NotificationSettings `json:"notifications"`
	LastReset       string                     `json:"lastReset"`
	CompletionCount int                        `json:"completionCount"`
}

// State returns the current state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.routines.Set()
	return State{
		Routines: set,
		Progress: map[model.RoutineType]int{
			model.RoutineMorning: routine.Progress(set.Morning),
			model.RoutineNight:   routine.Progress(set.Night),
		},
		Profile:         s.profile,
		LevelProgress:   profile.LevelProgress(s.profile.TotalPoints),
		Achievements:    s.achievementsCopy(),
		UnlockedCount:   achievement.CountUnlocked(s.achievements),
		Timer:           s.timer.Snapshot(),
		Notifications:   s.settings,
		LastReset:       s.policy.LastReset(),
		CompletionCount: len(s.completions),
	}
}

// Routine returns the routine of type t.
func (s *Service) Routine(t model.RoutineType) model.Routine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.routines.Get(t)
}

// Profile returns the user profile.
func (s *Service) Profile() model.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// Achievements returns the achievements in catalog order.
func (s *Service) Achievements() []model.Achievement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.achievementsCopy()
}

func (s *Service) achievementsCopy() []model.Achievement {
	out := make([]model.Achievement, len(s.achievements))
	copy(out, s.achievements)
	return out
}

// Completions returns up to limit records of the completion log, newest
// first. A limit of zero or less returns the whole log.
func (s *Service) Completions(limit int) []model.CompletionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.completions)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]model.CompletionRecord, n)
	copy(out, s.completions[:n])
	return out
}

// DailyCompletions returns the dates on which a routine was completed.
func (s *Service) DailyCompletions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.daily))
	copy(out, s.daily)
	return out
}

// CheckDailyReset clears both routines when the calendar date changed since
// the last reset. It reports whether a reset happened.
func (s *Service) CheckDailyReset() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkDailyReset(s.now())
}

func (s *Service) checkDailyReset(now time.Time) bool {
	if !s.policy.Check(now) {
		return false
	}
	s.routines.ResetDaily()
	s.blobs.Save(persist.KeyRoutines, s.routines.Set())

	// The streak may have lapsed overnight.
	s.profile = profile.ApplyStreak(s.profile, profile.RecomputeStreak(s.completions, now.In(s.loc)))
	s.blobs.Save(persist.KeyProfile, s.profile)

	s.recorder.DailyReset()
	s.recorder.ProfileChanged(s.profile.Streak, s.profile.Level)
	s.logger.Info("daily reset", "date", profile.DateKey(now, s.loc))
	s.publish(Event{Entity: EntityRoutines, Action: ActionReset, Extra: map[string]any{
		"date": profile.DateKey(now, s.loc),
	}})
	return true
}

// ResetProgress removes every persisted key and restores the defaults.
// The returned error combines every key that could not be removed; the
// in-memory state is reset regardless.
func (s *Service) ResetProgress() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	for _, key := range persist.AllKeys {
		err = multierr.Append(err, s.blobs.Remove(key))
	}
	s.seed()
	s.policy.Reload()
	s.recorder.TimerActive(false)
	s.recorder.ProfileChanged(s.profile.Streak, s.profile.Level)
	s.logger.Info("progress reset", "failed_keys", len(multierr.Errors(err)))
	s.publish(Event{Entity: EntityProgress, Action: ActionReset})
	if err != nil {
		return fmt.Errorf("reset progress: %w", err)
	}
	return nil
}

// NotificationSettings returns the reminder settings.
func (s *Service) NotificationSettings() model.NotificationSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// UpdateNotificationSettings validates and stores new reminder settings.
func (s *Service) UpdateNotificationSettings(settings model.NotificationSettings) error {
	for _, v := range []string{settings.MorningTime, settings.NightTime} {
		if _, err := time.Parse("15:04", v); err != nil {
			return fmt.Errorf("invalid time of day %q", v)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	s.blobs.Save(persist.KeyNotifications, settings)
	s.publish(Event{Entity: EntitySettings, Action: ActionUpdated})
	return nil
}

// NotificationState returns the last dates reminders were shown.
func (s *Service) NotificationState() model.NotificationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notifState
}

// MarkReminderShown records that the reminder for t was shown on date.
func (s *Service) MarkReminderShown(t model.RoutineType, date string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifState = s.notifState.WithShown(t, date)
	s.blobs.Save(persist.KeyNotificationState, s.notifState)
}

// Snapshot returns every persisted blob, for backups.
func (s *Service) Snapshot() (map[string]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return persist.ReadAll(s.blobs.Gateway())
}

// Restore replaces the persisted state with blobs and reloads. Unknown keys
// are ignored. On failure storage and the running state are left unchanged.
func (s *Service) Restore(blobs map[string]json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := persist.ReplaceAll(s.blobs.Gateway(), blobs); err != nil {
		return fmt.Errorf("restore: %w", err)
	}

	s.load()
	s.recorder.TimerActive(false)
	s.publish(Event{Entity: EntityProgress, Action: ActionRestored})
	return nil
}
