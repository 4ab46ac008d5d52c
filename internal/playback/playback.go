// Package playback tracks the most recent playback snapshot per viewing
// context so detection and filtering decisions can be timestamp-aware.
package playback

import (
	"math"
	"sync"
	"time"

	"scenefilter/internal/services"
)

// StalenessWindow is how long a snapshot remains usable after its last
// update.
const StalenessWindow = 15 * time.Second

// Snapshot is a point-in-time view of a playback surface.
type Snapshot struct {
	MovieID      string  `json:"movie_id"`
	CurrentTime  float64 `json:"current_time"`
	Duration     float64 `json:"duration"`
	Paused       bool    `json:"paused"`
	PlaybackRate float64 `json:"playback_rate"`
}

type entry struct {
	snapshot  Snapshot
	updatedAt time.Time
}

// Tracker holds the latest snapshot for each active viewing context.
// Contexts are identified by opaque IDs, typically uuids minted by the
// daemon when a playback session registers.
type Tracker struct {
	mu      sync.Mutex
	entries map[string]entry
	clock   func() time.Time
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		entries: make(map[string]entry),
		clock:   time.Now,
	}
}

// NewTrackerWithClock returns a tracker with an injected time source.
func NewTrackerWithClock(clock func() time.Time) *Tracker {
	tracker := NewTracker()
	if clock != nil {
		tracker.clock = clock
	}
	return tracker
}

// Update records a snapshot for a context. Snapshots with non-finite
// times or a non-positive duration are rejected.
func (t *Tracker) Update(contextID string, snap Snapshot) error {
	if contextID == "" {
		return services.Wrap(services.ErrValidation, "playback", "update", "context id is required", nil)
	}
	if !isFinite(snap.CurrentTime) || snap.CurrentTime < 0 {
		return services.Wrap(services.ErrValidation, "playback", "update", "current time must be a non-negative finite number", nil)
	}
	if !isFinite(snap.Duration) || snap.Duration <= 0 {
		return services.Wrap(services.ErrValidation, "playback", "update", "duration must be a positive finite number", nil)
	}
	if !isFinite(snap.PlaybackRate) || snap.PlaybackRate <= 0 {
		snap.PlaybackRate = 1.0
	}

	t.mu.Lock()
	t.entries[contextID] = entry{snapshot: snap, updatedAt: t.clock()}
	t.mu.Unlock()
	return nil
}

// Get returns the latest snapshot for a context. A snapshot older than
// the staleness window is treated as absent.
func (t *Tracker) Get(contextID string) (Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	stored, ok := t.entries[contextID]
	if !ok {
		return Snapshot{}, services.Wrap(services.ErrNotFound, "playback", "get", "no snapshot for context", nil)
	}
	if t.clock().Sub(stored.updatedAt) > StalenessWindow {
		delete(t.entries, contextID)
		return Snapshot{}, services.Wrap(services.ErrNotFound, "playback", "get", "snapshot stale", nil)
	}
	return stored.snapshot, nil
}

// Drop forgets a context. Dropping an unknown context is a no-op.
func (t *Tracker) Drop(contextID string) {
	t.mu.Lock()
	delete(t.entries, contextID)
	t.mu.Unlock()
}

// Active returns the context IDs with a fresh snapshot.
func (t *Tracker) Active() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock()
	ids := make([]string, 0, len(t.entries))
	for id, stored := range t.entries {
		if now.Sub(stored.updatedAt) <= StalenessWindow {
			ids = append(ids, id)
		}
	}
	return ids
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
