package detector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"scenefilter/internal/config"
	"scenefilter/internal/playback"
	"scenefilter/internal/segment"
)

type stubProbe struct {
	mu        sync.Mutex
	snap      playback.Snapshot
	playing   bool
	bins      []byte
	haveAudio bool
	cues      []string
	frame     Frame
	frameErr  error
	closes    int
}

func (p *stubProbe) Playback() (playback.Snapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap, p.playing
}

func (p *stubProbe) AudioSpectrum() ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bins, p.haveAudio
}

func (p *stubProbe) ActiveCues() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cues
}

func (p *stubProbe) Frame() (Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frame, p.frameErr
}

func (p *stubProbe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closes++
	return nil
}

func (p *stubProbe) set(fn func(*stubProbe)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p)
}

func closeTo(got, want float64) bool {
	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-6
}

func uniformBins(level byte, count int) []byte {
	bins := make([]byte, count)
	for i := range bins {
		bins[i] = level
	}
	return bins
}

func uniformFrame(value byte) Frame {
	pixels := make([]byte, 64*36*4)
	for i := range pixels {
		pixels[i] = value
	}
	return Frame{Width: 64, Height: 36, Pixels: pixels}
}

func newTestDetector(t *testing.T, probe *stubProbe, now *time.Time, collect *[]segment.Segment) *Detector {
	t.Helper()
	cfg := config.Default().Detector
	var mu sync.Mutex
	return New(cfg, probe, func(segs []segment.Segment) {
		mu.Lock()
		*collect = append(*collect, segs...)
		mu.Unlock()
	}, WithClock(func() time.Time { return *now }))
}

func TestAudioChannelWarmupAndSpike(t *testing.T) {
	channel := newAudioChannel(1.55, 55, 8)

	// Loud input during warmup never fires.
	for i := 0; i < 7; i++ {
		if _, spike := channel.observe(uniformBins(200, 512)); spike {
			t.Fatalf("spike during warmup at sample %d", i)
		}
	}

	// Settle the average at a quiet level.
	for i := 0; i < 100; i++ {
		channel.observe(uniformBins(30, 512))
	}

	level, spike := channel.observe(uniformBins(120, 512))
	if !spike {
		t.Fatalf("expected spike for level %.1f over settled average %.1f", level, channel.average)
	}

	// The same jump below the absolute floor does not fire.
	quiet := newAudioChannel(1.55, 55, 8)
	for i := 0; i < 100; i++ {
		quiet.observe(uniformBins(10, 512))
	}
	if _, spike := quiet.observe(uniformBins(40, 512)); spike {
		t.Fatal("spike below absolute floor")
	}
}

func TestSubtitleChannelPriorityAndCooldown(t *testing.T) {
	channel := newSubtitleChannel(1200 * time.Millisecond)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	category, hit := channel.observe([]string{"They kissed as she stood TOPLESS by the window"}, now)
	if !hit || category != segment.TypeNudity {
		t.Fatalf("expected nudity to outrank sexual, got %q hit=%v", category, hit)
	}

	// Within cooldown nothing fires.
	if _, hit := channel.observe([]string{"an erotic scene"}, now.Add(800*time.Millisecond)); hit {
		t.Fatal("hit during cooldown")
	}

	category, hit = channel.observe([]string{"An Erotic Scene"}, now.Add(2*time.Second))
	if !hit || category != segment.TypeSexual {
		t.Fatalf("expected folded-case sexual match, got %q hit=%v", category, hit)
	}

	if _, hit := channel.observe([]string{"they walked to the store"}, now.Add(10*time.Second)); hit {
		t.Fatal("hit on neutral text")
	}
}

func TestVisualChannelCutAndPermanentDisable(t *testing.T) {
	channel := newVisualChannel(0.32)

	if _, cut := channel.observe(uniformFrame(100), nil); cut {
		t.Fatal("cut with no previous frame")
	}
	if _, cut := channel.observe(uniformFrame(110), nil); cut {
		t.Fatal("cut on a small change")
	}
	delta, cut := channel.observe(uniformFrame(250), nil)
	if !cut {
		t.Fatalf("expected cut, delta %.3f", delta)
	}

	channel.observe(Frame{}, errors.New("capture denied"))
	if !channel.blocked {
		t.Fatal("channel not disabled after capture error")
	}
	if _, cut := channel.observe(uniformFrame(0), nil); cut {
		t.Fatal("cut after permanent disable")
	}
}

func TestFuseSubtitlePriority(t *testing.T) {
	buffer := newSignalBuffer(5 * time.Second)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	buffer.add(signal{kind: signalAudio, playTime: 11.8, observed: now})
	buffer.add(signal{kind: signalVisual, playTime: 12.1, observed: now})
	buffer.add(signal{kind: signalSubtitle, playTime: 12.0, observed: now, category: segment.TypeNudity})

	cand, ok := buffer.fuse(12.0, 2.2)
	if !ok {
		t.Fatal("expected a fused candidate")
	}
	if !closeTo(cand.start, 11.6) || !closeTo(cand.end, 16.2) {
		t.Fatalf("expected envelope [11.6, 16.2], got [%.3f, %.3f]", cand.start, cand.end)
	}
	if cand.category != segment.TypeNudity || cand.confidence != 64 {
		t.Fatalf("expected nudity at confidence 64, got %q at %d", cand.category, cand.confidence)
	}
}

func TestFusePairedAndSingleSignals(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	buffer := newSignalBuffer(5 * time.Second)
	buffer.add(signal{kind: signalAudio, playTime: 30.0, observed: now})
	if _, ok := buffer.fuse(30.0, 2.2); ok {
		t.Fatal("audio alone fused")
	}

	buffer.add(signal{kind: signalVisual, playTime: 31.5, observed: now})
	cand, ok := buffer.fuse(30.0, 2.2)
	if !ok {
		t.Fatal("expected audio+visual fusion")
	}
	if !closeTo(cand.start, 29.7) || !closeTo(cand.end, 32.4) {
		t.Fatalf("expected envelope [29.7, 32.4], got [%.3f, %.3f]", cand.start, cand.end)
	}
	if cand.category != segment.TypeSexual || cand.confidence != 48 {
		t.Fatalf("expected sexual at confidence 48, got %q at %d", cand.category, cand.confidence)
	}

	// Signals outside the fusion window do not pair.
	if _, ok := buffer.fuse(40.0, 2.2); ok {
		t.Fatal("fused from distant signals")
	}
}

func TestSignalBufferExpiry(t *testing.T) {
	buffer := newSignalBuffer(5 * time.Second)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	buffer.add(signal{kind: signalAudio, playTime: 10, observed: now})
	buffer.add(signal{kind: signalVisual, playTime: 10, observed: now})
	buffer.prune(now.Add(6 * time.Second))
	if _, ok := buffer.fuse(10, 2.2); ok {
		t.Fatal("fused from expired signals")
	}
}

func TestEmitterDedupAndCap(t *testing.T) {
	recent := newEmitter(3)

	first := segment.Segment{Start: 10, End: 16, Type: segment.TypeSexual}
	if !recent.record(first) {
		t.Fatal("first emission rejected")
	}
	if recent.record(segment.Segment{Start: 11.2, End: 17.1, Type: segment.TypeSexual}) {
		t.Fatal("near-duplicate within tolerance accepted")
	}
	if !recent.record(segment.Segment{Start: 11.2, End: 17.1, Type: segment.TypeNudity}) {
		t.Fatal("different category rejected")
	}
	if !recent.record(segment.Segment{Start: 50, End: 56, Type: segment.TypeSexual}) {
		t.Fatal("distant emission rejected")
	}

	// The cap evicts the oldest entry, which becomes emittable again.
	if !recent.record(segment.Segment{Start: 90, End: 96, Type: segment.TypeSexual}) {
		t.Fatal("emission past cap rejected")
	}
	if !recent.record(first) {
		t.Fatal("evicted span still deduplicated")
	}
}

func TestSampleEmitsFromSubtitleHit(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	probe := &stubProbe{
		snap:    playback.Snapshot{MovieID: "tt0000001", CurrentTime: 12.0, Duration: 5400, PlaybackRate: 1},
		playing: true,
		cues:    []string{"a nude scene follows"},
	}
	var collected []segment.Segment
	d := newTestDetector(t, probe, &now, &collected)

	seg, ok := d.sample()
	if !ok {
		t.Fatal("expected an emission")
	}
	if seg.Start != 11.6 || seg.End != 16.2 {
		t.Fatalf("expected [11.6, 16.2], got [%.3f, %.3f]", seg.Start, seg.End)
	}
	if seg.Type != segment.TypeNudity || seg.ConfidenceScore != 64 {
		t.Fatalf("unexpected emission %#v", seg)
	}
	if seg.SourceType != segment.SourceLocalAI || !seg.Unverified {
		t.Fatalf("expected unverified heuristic provenance, got %#v", seg)
	}

	// The same moment does not emit twice.
	now = now.Add(2 * time.Second)
	if _, ok := d.sample(); ok {
		t.Fatal("duplicate emission for the same scene")
	}
}

func TestSamplePausedAndMissingPlayback(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	probe := &stubProbe{cues: []string{"a nude scene"}}
	var collected []segment.Segment
	d := newTestDetector(t, probe, &now, &collected)

	if _, ok := d.sample(); ok {
		t.Fatal("emission with no active playback")
	}

	probe.set(func(p *stubProbe) {
		p.playing = true
		p.snap = playback.Snapshot{CurrentTime: 12, Duration: 100, Paused: true, PlaybackRate: 1}
	})
	if _, ok := d.sample(); ok {
		t.Fatal("emission while paused")
	}
}

func TestSampleSeekJumpGuards(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	probe := &stubProbe{
		snap:    playback.Snapshot{CurrentTime: 10.0, Duration: 5400, PlaybackRate: 1},
		playing: true,
	}
	var collected []segment.Segment
	d := newTestDetector(t, probe, &now, &collected)

	if _, ok := d.sample(); ok {
		t.Fatal("unexpected emission")
	}

	// Jump far beyond the seek threshold, with a cue that would otherwise
	// emit.
	now = now.Add(1200 * time.Millisecond)
	probe.set(func(p *stubProbe) {
		p.snap.CurrentTime = 600.0
		p.cues = []string{"a nude scene"}
	})
	if _, ok := d.sample(); ok {
		t.Fatal("emission on the seek sample itself")
	}

	// Still inside the seek guard window.
	now = now.Add(1200 * time.Millisecond)
	probe.set(func(p *stubProbe) { p.snap.CurrentTime = 601.2 })
	if _, ok := d.sample(); ok {
		t.Fatal("emission during seek guard")
	}

	// After the guard expires the cue emits. The subtitle cooldown has
	// long passed by then.
	now = now.Add(5 * time.Second)
	probe.set(func(p *stubProbe) { p.snap.CurrentTime = 603.0 })
	if _, ok := d.sample(); !ok {
		t.Fatal("no emission after guard expiry")
	}
}

func TestNoteInteractionSuppressesEmission(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	probe := &stubProbe{
		snap:    playback.Snapshot{CurrentTime: 20.0, Duration: 5400, PlaybackRate: 1},
		playing: true,
		cues:    []string{"a nude scene"},
	}
	var collected []segment.Segment
	d := newTestDetector(t, probe, &now, &collected)

	d.NoteInteraction()
	if _, ok := d.sample(); ok {
		t.Fatal("emission during interaction guard")
	}

	now = now.Add(3 * time.Second)
	probe.set(func(p *stubProbe) { p.snap.CurrentTime = 21.5 })
	if _, ok := d.sample(); !ok {
		t.Fatal("no emission after interaction guard expiry")
	}
}

func TestStartStopLifecycle(t *testing.T) {
	probe := &stubProbe{}
	cfg := config.Default().Detector
	cfg.SampleIntervalMs = 5
	d := New(cfg, probe, nil)

	if d.State() != StateStopped {
		t.Fatalf("expected stopped, got %q", d.State())
	}

	ctx := context.Background()
	d.Start(ctx)
	d.Start(ctx) // second start is a no-op
	if d.State() != StateRunning {
		t.Fatalf("expected running, got %q", d.State())
	}

	d.Stop()
	if d.State() != StateStopped {
		t.Fatalf("expected stopped after Stop, got %q", d.State())
	}
	if probe.closes != 1 {
		t.Fatalf("expected one probe close, got %d", probe.closes)
	}

	d.Stop() // second stop is a no-op
	if probe.closes != 1 {
		t.Fatalf("stop on a stopped detector closed the probe again, closes=%d", probe.closes)
	}

	// Restart works after a full stop.
	d.Start(ctx)
	if d.State() != StateRunning {
		t.Fatalf("expected running after restart, got %q", d.State())
	}
	d.Stop()
}
