package push

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/mobilityquest/internal/model"
)

type fakeSender struct {
	mu       sync.Mutex
	sent     []Payload
	failWith map[string]error
}

func (f *fakeSender) Send(ctx context.Context, sub *model.PushSubscription, payload Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failWith[sub.Endpoint]; err != nil {
		return err
	}
	f.sent = append(f.sent, payload)
	return nil
}

type fakeSubs struct {
	subs    []model.PushSubscription
	deleted []string
}

func (f *fakeSubs) List() ([]model.PushSubscription, error) {
	return f.subs, nil
}

func (f *fakeSubs) DeleteByEndpoint(endpoint string) error {
	f.deleted = append(f.deleted, endpoint)
	kept := f.subs[:0:0]
	for _, sub := range f.subs {
		if sub.Endpoint != endpoint {
			kept = append(kept, sub)
		}
	}
	f.subs = kept
	return nil
}

type fakeReminders struct {
	settings model.NotificationSettings
	state    model.NotificationState
}

func (f *fakeReminders) NotificationSettings() model.NotificationSettings { return f.settings }
func (f *fakeReminders) NotificationState() model.NotificationState       { return f.state }
func (f *fakeReminders) MarkReminderShown(t model.RoutineType, date string) {
	f.state = f.state.WithShown(t, date)
}

func newTestScheduler(subs []model.PushSubscription) (*Scheduler, *fakeSender, *fakeSubs, *fakeReminders) {
	sender := &fakeSender{}
	fs := &fakeSubs{subs: subs}
	rem := &fakeReminders{settings: model.NotificationSettings{
		Enabled:     true,
		MorningTime: "08:00",
		NightTime:   "21:00",
	}}
	return NewScheduler(sender, fs, rem, time.UTC, time.Minute, nil), sender, fs, rem
}

func TestSchedulerSendsMorningOncePerDay(t *testing.T) {
	s, sender, _, rem := newTestScheduler([]model.PushSubscription{{ID: 1, Endpoint: "https://push.example.com/1"}})
	now := time.Date(2026, 3, 10, 8, 5, 0, 0, time.UTC)

	s.Check(context.Background(), now)
	s.Check(context.Background(), now.Add(time.Minute))

	if len(sender.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(sender.sent))
	}
	if sender.sent[0].Tag != "reminder-morning" {
		t.Errorf("tag = %q, want %q", sender.sent[0].Tag, "reminder-morning")
	}
	if got := rem.state.MorningLastShown; got == nil || *got != "2026-03-10" {
		t.Errorf("morning last shown = %v, want 2026-03-10", got)
	}
	if rem.state.NightLastShown != nil {
		t.Error("night reminder should not be marked shown")
	}
}

func TestSchedulerDisabled(t *testing.T) {
	s, sender, _, rem := newTestScheduler([]model.PushSubscription{{ID: 1, Endpoint: "https://push.example.com/1"}})
	rem.settings.Enabled = false

	s.Check(context.Background(), time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC))
	if len(sender.sent) != 0 {
		t.Errorf("sent = %d, want 0 when disabled", len(sender.sent))
	}
}

func TestSchedulerNoSubscriptionsRetries(t *testing.T) {
	s, sender, fs, rem := newTestScheduler(nil)
	now := time.Date(2026, 3, 10, 8, 5, 0, 0, time.UTC)

	s.Check(context.Background(), now)
	if rem.state.MorningLastShown != nil {
		t.Fatal("reminder without subscribers must not be marked shown")
	}

	fs.subs = []model.PushSubscription{{ID: 1, Endpoint: "https://push.example.com/1"}}
	s.Check(context.Background(), now.Add(time.Minute))
	if len(sender.sent) != 1 {
		t.Errorf("sent = %d, want 1 once a subscriber exists", len(sender.sent))
	}
}

func TestSchedulerPrunesExpired(t *testing.T) {
	s, sender, fs, rem := newTestScheduler([]model.PushSubscription{
		{ID: 1, Endpoint: "https://push.example.com/gone"},
		{ID: 2, Endpoint: "https://push.example.com/ok"},
	})
	sender.failWith = map[string]error{"https://push.example.com/gone": ErrExpired}

	var notified int
	s.OnSent(func(t model.RoutineType, delivered int) { notified = delivered })

	s.Check(context.Background(), time.Date(2026, 3, 10, 21, 30, 0, 0, time.UTC))

	if len(fs.deleted) != 1 || fs.deleted[0] != "https://push.example.com/gone" {
		t.Errorf("deleted = %v", fs.deleted)
	}
	if notified != 1 {
		t.Errorf("delivered = %d, want 1", notified)
	}
	if len(fs.subs) != 1 || fs.subs[0].Endpoint != "https://push.example.com/ok" {
		t.Errorf("remaining subs = %v", fs.subs)
	}
	if rem.state.NightLastShown == nil {
		t.Error("night reminder should be marked shown")
	}
}

func TestSchedulerAllFailuresRetry(t *testing.T) {
	s, sender, _, rem := newTestScheduler([]model.PushSubscription{{ID: 1, Endpoint: "https://push.example.com/1"}})
	sender.failWith = map[string]error{"https://push.example.com/1": errors.New("503")}

	s.Check(context.Background(), time.Date(2026, 3, 10, 8, 5, 0, 0, time.UTC))
	if rem.state.MorningLastShown != nil {
		t.Error("failed delivery should not mark reminder shown")
	}
}

func TestSchedulerUsesLocation(t *testing.T) {
	sender := &fakeSender{}
	rem := &fakeReminders{settings: model.NotificationSettings{Enabled: true, MorningTime: "08:00", NightTime: "21:00"}}
	loc := time.FixedZone("UTC+2", 2*60*60)
	s := NewScheduler(sender, &fakeSubs{subs: []model.PushSubscription{{Endpoint: "e"}}}, rem, loc, time.Minute, nil)

	// 06:30 UTC is 08:30 in UTC+2.
	s.Check(context.Background(), time.Date(2026, 3, 10, 6, 30, 0, 0, time.UTC))
	if len(sender.sent) != 1 {
		t.Errorf("sent = %d, want 1", len(sender.sent))
	}
}
