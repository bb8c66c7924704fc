// Package persist defines the key/value capability all tracker state is
// stored through, and typed helpers that never fail the caller.
package persist

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
)

// Keys of the persisted blobs.
const (
	KeyRoutines          = "mobility-quest-routines"
	KeyProfile           = "mobility-quest-profile"
	KeyAchievements      = "mobility-quest-achievements"
	KeyCompletions       = "mobility-quest-completions"
	KeyDailyCompletions  = "mobility-quest-daily-completions"
	KeyNotifications     = "mobility-quest-notifications"
	KeyNotificationState = "mobility-quest-notification-state"
	KeyLastReset         = "mobility-quest-last-reset"
)

// AllKeys lists every key the tracker owns.
var AllKeys = []string{
	KeyRoutines,
	KeyProfile,
	KeyAchievements,
	KeyCompletions,
	KeyDailyCompletions,
	KeyNotifications,
	KeyNotificationState,
	KeyLastReset,
}

// ErrNotFound is returned by Get when a key has no value.
var ErrNotFound = errors.New("key not found")

// Gateway reads, writes and removes named JSON blobs.
type Gateway interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Remove(key string) error
}

// FailureFunc is told about every read or write that was swallowed.
type FailureFunc func(op, key string, err error)

// Blobs wraps a Gateway with typed, fire-and-forget access: failures are
// logged and reported, and reads fall back to the supplied default.
type Blobs struct {
	gw        Gateway
	logger    *slog.Logger
	onFailure FailureFunc
}

func NewBlobs(gw Gateway, logger *slog.Logger, onFailure FailureFunc) *Blobs {
	if logger == nil {
		logger = slog.Default()
	}
	return &Blobs{gw: gw, logger: logger, onFailure: onFailure}
}

// Gateway returns the underlying gateway.
func (b *Blobs) Gateway() Gateway {
	return b.gw
}

func (b *Blobs) fail(op, key string, err error) {
	b.logger.Error("persistence "+op+" failed", "key", key, "error", err)
	if b.onFailure != nil {
		b.onFailure(op, key, err)
	}
}

// Load decodes key into a value of type T, returning def when the key is
// missing, unreadable or corrupt.
func Load[T any](b *Blobs, key string, def T) T {
	data, err := b.gw.Get(key)
	if errors.Is(err, ErrNotFound) {
		return def
	}
	if err != nil {
		b.fail("read", key, err)
		return def
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		b.fail("decode", key, err)
		return def
	}
	return v
}

// Save encodes v and writes it under key. Failures are logged, not returned.
func (b *Blobs) Save(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		b.fail("encode", key, err)
		return
	}
	if err := b.gw.Set(key, data); err != nil {
		b.fail("write", key, err)
	}
}

// Remove deletes key. Failures are logged and returned so callers that clear
// many keys can report them together.
func (b *Blobs) Remove(key string) error {
	if err := b.gw.Remove(key); err != nil {
		b.fail("remove", key, err)
		return err
	}
	return nil
}

// MemoryGateway is an in-process Gateway.
type MemoryGateway struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{data: make(map[string][]byte)}
}

func (m *MemoryGateway) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemoryGateway) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = v
	return nil
}

func (m *MemoryGateway) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Len returns the number of stored keys.
func (m *MemoryGateway) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
