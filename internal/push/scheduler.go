package push

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dukerupert/mobilityquest/internal/loop"
	"github.com/dukerupert/mobilityquest/internal/model"
)

// Subscriptions lists and prunes push subscriptions.
type Subscriptions interface {
	List() ([]model.PushSubscription, error)
	DeleteByEndpoint(endpoint string) error
}

// Reminders is the state the scheduler reads and updates.
type Reminders interface {
	NotificationSettings() model.NotificationSettings
	NotificationState() model.NotificationState
	MarkReminderShown(t model.RoutineType, date string)
}

// Scheduler periodically checks whether a routine reminder is due.
type Scheduler struct {
	sender    Sender
	subs      Subscriptions
	reminders Reminders
	loc       *time.Location
	logger    *slog.Logger
	runner    *loop.Runner
	onSent    func(t model.RoutineType, delivered int)
}

// NewScheduler creates a reminder scheduler that wakes every interval.
func NewScheduler(sender Sender, subs Subscriptions, reminders Reminders, loc *time.Location, interval time.Duration, logger *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		sender:    sender,
		subs:      subs,
		reminders: reminders,
		loc:       loc,
		logger:    logger.With("component", "push_scheduler"),
	}
	s.runner = loop.New("reminders", interval, logger, func(ctx context.Context, now time.Time) {
		s.Check(ctx, now)
	})
	return s
}

// OnSent registers a callback invoked after a reminder was delivered.
func (s *Scheduler) OnSent(fn func(t model.RoutineType, delivered int)) {
	s.onSent = fn
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.runner.Start(ctx)
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.runner.Stop()
}

// Check sends every reminder that is due at now.
func (s *Scheduler) Check(ctx context.Context, now time.Time) {
	settings := s.reminders.NotificationSettings()
	if !settings.Enabled {
		return
	}
	now = now.In(s.loc)
	state := s.reminders.NotificationState()

	for _, t := range model.RoutineTypes {
		if !ReminderDue(settings.TimeFor(t), state.LastShown(t), now) {
			continue
		}
		delivered := s.deliver(ctx, ReminderPayload(t))
		if delivered == 0 {
			continue
		}
		s.reminders.MarkReminderShown(t, now.Format(dateLayout))
		s.logger.Info("reminder sent", "routine", t, "delivered", delivered)
		if s.onSent != nil {
			s.onSent(t, delivered)
		}
	}
}

// deliver sends payload to every subscription and returns the number of
// successful deliveries. Expired subscriptions are removed.
func (s *Scheduler) deliver(ctx context.Context, payload Payload) int {
	subs, err := s.subs.List()
	if err != nil {
		s.logger.Error("list subscriptions", "error", err)
		return 0
	}

	delivered := 0
	for _, sub := range subs {
		if err := s.sender.Send(ctx, &sub, payload); err != nil {
			if errors.Is(err, ErrExpired) {
				if err := s.subs.DeleteByEndpoint(sub.Endpoint); err != nil {
					s.logger.Error("delete expired subscription", "error", err)
				}
				continue
			}
			s.logger.Warn("send reminder", "endpoint", sub.Endpoint, "error", err)
			continue
		}
		delivered++
	}
	return delivered
}

// Broadcast sends payload to every subscription and returns the number of
// successful deliveries.
func (s *Scheduler) Broadcast(ctx context.Context, payload Payload) int {
	return s.deliver(ctx, payload)
}
