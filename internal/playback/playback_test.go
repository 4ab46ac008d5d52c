package playback_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"scenefilter/internal/playback"
	"scenefilter/internal/services"
)

func TestUpdateAndGet(t *testing.T) {
	tracker := playback.NewTracker()
	id := uuid.NewString()

	snap := playback.Snapshot{MovieID: "tt0000001", CurrentTime: 42.5, Duration: 5400, PlaybackRate: 1.0}
	if err := tracker.Update(id, snap); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := tracker.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != snap {
		t.Fatalf("snapshot mismatch: got %#v want %#v", got, snap)
	}
}

func TestUpdateRejectsInvalidSnapshots(t *testing.T) {
	tracker := playback.NewTracker()
	id := uuid.NewString()

	cases := []struct {
		name string
		snap playback.Snapshot
	}{
		{"nan time", playback.Snapshot{CurrentTime: math.NaN(), Duration: 100}},
		{"infinite time", playback.Snapshot{CurrentTime: math.Inf(1), Duration: 100}},
		{"negative time", playback.Snapshot{CurrentTime: -1, Duration: 100}},
		{"zero duration", playback.Snapshot{CurrentTime: 10, Duration: 0}},
		{"nan duration", playback.Snapshot{CurrentTime: 10, Duration: math.NaN()}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tracker.Update(id, tc.snap)
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	if err := tracker.Update("", playback.Snapshot{CurrentTime: 10, Duration: 100}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty context id, got %v", err)
	}
}

func TestUpdateDefaultsPlaybackRate(t *testing.T) {
	tracker := playback.NewTracker()
	id := uuid.NewString()

	if err := tracker.Update(id, playback.Snapshot{CurrentTime: 10, Duration: 100}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := tracker.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.PlaybackRate != 1.0 {
		t.Fatalf("expected default playback rate 1.0, got %v", got.PlaybackRate)
	}
}

func TestGetStaleSnapshot(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tracker := playback.NewTrackerWithClock(func() time.Time { return now })
	id := uuid.NewString()

	if err := tracker.Update(id, playback.Snapshot{CurrentTime: 10, Duration: 100, PlaybackRate: 1}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	now = now.Add(playback.StalenessWindow + time.Second)
	if _, err := tracker.Get(id); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found for stale snapshot, got %v", err)
	}

	// A fresh update revives the context.
	if err := tracker.Update(id, playback.Snapshot{CurrentTime: 20, Duration: 100, PlaybackRate: 1}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := tracker.Get(id); err != nil {
		t.Fatalf("Get after revival: %v", err)
	}
}

func TestDropAndActive(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tracker := playback.NewTrackerWithClock(func() time.Time { return now })

	first := uuid.NewString()
	second := uuid.NewString()
	for _, id := range []string{first, second} {
		if err := tracker.Update(id, playback.Snapshot{CurrentTime: 1, Duration: 100, PlaybackRate: 1}); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	if got := tracker.Active(); len(got) != 2 {
		t.Fatalf("expected 2 active contexts, got %d", len(got))
	}

	tracker.Drop(first)
	if _, err := tracker.Get(first); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found after drop, got %v", err)
	}
	if got := tracker.Active(); len(got) != 1 {
		t.Fatalf("expected 1 active context, got %d", len(got))
	}

	tracker.Drop(first) // unknown drop is a no-op
}
