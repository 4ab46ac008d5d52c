package detector

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"scenefilter/internal/config"
	"scenefilter/internal/logging"
	"scenefilter/internal/segment"
)

// State describes the detector lifecycle.
type State string

const (
	// StateStopped means no sampling loop is running.
	StateStopped State = "stopped"
	// StateRunning means the sampling loop is active.
	StateRunning State = "running"
	// StateSuppressed means the loop is active but a guard window is
	// holding back emissions.
	StateSuppressed State = "suppressed"
)

// Emitted confidence bounds for heuristic candidates.
const (
	minEmitConfidence = 10
	maxEmitConfidence = 80
)

// heuristicSourceLabel is the provenance label stamped on emitted
// segments.
const heuristicSourceLabel = "local-ai"

// Detector runs the heuristic detection loop over a Probe. Emitted
// candidate segments are delivered to the OnSegments callback from the
// sampling goroutine.
type Detector struct {
	cfg        config.Detector
	probe      Probe
	onSegments func([]segment.Segment)
	logger     *slog.Logger
	clock      func() time.Time

	mu           sync.Mutex
	running      bool
	cancel       context.CancelFunc
	done         chan struct{}
	guardUntil   time.Time
	lastPlayTime float64
	hasLastTime  bool

	audio    *audioChannel
	captions *subtitleChannel
	visual   *visualChannel
	buffer   *signalBuffer
	recent   *emitter
}

// Option customizes Detector construction.
type Option func(*Detector)

// WithLogger attaches a logger to the detector.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		if logger != nil {
			d.logger = logger.With(slog.String(logging.FieldComponent, "detector"))
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(d *Detector) {
		if clock != nil {
			d.clock = clock
		}
	}
}

// New constructs a detector over the given probe. onSegments receives each
// newly emitted candidate; a nil callback discards emissions.
func New(cfg config.Detector, probe Probe, onSegments func([]segment.Segment), opts ...Option) *Detector {
	if onSegments == nil {
		onSegments = func([]segment.Segment) {}
	}
	d := &Detector{
		cfg:        cfg,
		probe:      probe,
		onSegments: onSegments,
		logger:     logging.NewNop(),
		clock:      time.Now,
		audio:      newAudioChannel(cfg.AudioSpikeRatio, cfg.AudioFloor, cfg.AudioWarmupSamples),
		captions:   newSubtitleChannel(time.Duration(cfg.SubtitleCooldownMs) * time.Millisecond),
		visual:     newVisualChannel(cfg.VisualDeltaThreshold),
		buffer:     newSignalBuffer(time.Duration(cfg.SignalWindowSeconds * float64(time.Second))),
		recent:     newEmitter(cfg.MaxCandidates),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start launches the sampling loop. Starting a running detector is a
// no-op.
func (d *Detector) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})
	d.running = true

	interval := time.Duration(d.cfg.SampleIntervalMs) * time.Millisecond
	go d.run(loopCtx, interval, d.done)

	d.logger.Info("detector started", slog.Int("sample_interval_ms", d.cfg.SampleIntervalMs))
}

// Stop halts the sampling loop, releases the probe, and clears all signal
// and emission state. Stopping a stopped detector is a no-op.
func (d *Detector) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	cancel := d.cancel
	done := d.done
	d.running = false
	d.cancel = nil
	d.done = nil
	d.mu.Unlock()

	cancel()
	<-done

	d.mu.Lock()
	d.audio.reset()
	d.captions.reset()
	d.visual.reset()
	d.buffer.reset()
	d.recent.reset()
	d.guardUntil = time.Time{}
	d.hasLastTime = false
	d.mu.Unlock()

	if err := d.probe.Close(); err != nil {
		d.logger.Warn("probe close failed", slog.String("error", err.Error()))
	}
	d.logger.Info("detector stopped")
}

// State reports the current lifecycle state.
func (d *Detector) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return StateStopped
	}
	if d.clock().Before(d.guardUntil) {
		return StateSuppressed
	}
	return StateRunning
}

// NoteInteraction freezes emissions for the explicit interaction guard
// window. Callers report seeks, rate changes, and other deliberate user
// actions that make nearby signals unreliable.
func (d *Detector) NoteInteraction() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.guard(time.Duration(d.cfg.InteractionGuardMs) * time.Millisecond)
}

// guard extends the suppression window. Caller holds d.mu.
func (d *Detector) guard(duration time.Duration) {
	until := d.clock().Add(duration)
	if until.After(d.guardUntil) {
		d.guardUntil = until
	}
}

func (d *Detector) run(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if emitted, ok := d.sample(); ok {
				d.onSegments([]segment.Segment{emitted})
			}
		}
	}
}

// sample runs one detection pass and returns a newly emitted segment, if
// any. Sampling continues while a guard window is active so channel state
// keeps warming, but fusion and emission are skipped.
func (d *Detector) sample() (segment.Segment, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock()

	snap, ok := d.probe.Playback()
	if !ok || snap.Paused {
		return segment.Segment{}, false
	}
	playTime := snap.CurrentTime
	if math.IsNaN(playTime) || math.IsInf(playTime, 0) {
		return segment.Segment{}, false
	}

	if d.hasLastTime && abs(playTime-d.lastPlayTime) > d.cfg.SeekJumpSeconds {
		d.guard(time.Duration(d.cfg.SeekGuardMs) * time.Millisecond)
		d.lastPlayTime = playTime
		return segment.Segment{}, false
	}
	d.lastPlayTime = playTime
	d.hasLastTime = true

	if bins, haveAudio := d.probe.AudioSpectrum(); haveAudio {
		if _, spike := d.audio.observe(bins); spike {
			d.buffer.add(signal{kind: signalAudio, playTime: playTime, observed: now})
		}
	}

	if category, hit := d.captions.observe(d.probe.ActiveCues(), now); hit {
		d.buffer.add(signal{kind: signalSubtitle, playTime: playTime, observed: now, category: category})
	}

	if !d.visual.blocked {
		frame, err := d.probe.Frame()
		if err != nil {
			d.logger.Warn("frame capture failed, visual channel disabled", slog.String("error", err.Error()))
		}
		if _, cut := d.visual.observe(frame, err); cut {
			d.buffer.add(signal{kind: signalVisual, playTime: playTime, observed: now})
		}
	}

	d.buffer.prune(now)

	if now.Before(d.guardUntil) {
		return segment.Segment{}, false
	}

	cand, fused := d.buffer.fuse(playTime, d.cfg.FusionWindowSeconds)
	if !fused {
		return segment.Segment{}, false
	}
	return d.emit(cand)
}

// emit normalizes a fused candidate into a heuristic segment and runs it
// through recent-emission dedup. Caller holds d.mu.
func (d *Detector) emit(cand candidate) (segment.Segment, bool) {
	start := cand.start
	if start < 0 {
		start = 0
	}
	confidence := cand.confidence
	if confidence < minEmitConfidence {
		confidence = minEmitConfidence
	}
	if confidence > maxEmitConfidence {
		confidence = maxEmitConfidence
	}

	seg, err := segment.Parse(segment.Raw{
		Start:           start,
		End:             cand.end,
		Type:            string(cand.category),
		Source:          heuristicSourceLabel,
		SourceType:      string(segment.SourceLocalAI),
		ConfidenceScore: confidence,
		Unverified:      true,
	}, segment.Defaults{})
	if err != nil {
		return segment.Segment{}, false
	}

	if !d.recent.record(seg) {
		return segment.Segment{}, false
	}

	d.logger.Debug("candidate emitted",
		slog.String("type", string(seg.Type)),
		slog.Float64("start", seg.Start),
		slog.Float64("end", seg.End),
		slog.Int("confidence", seg.ConfidenceScore))
	return seg, true
}
