package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"scenefilter/internal/api"
	"scenefilter/internal/config"
	"scenefilter/internal/detector"
	"scenefilter/internal/logging"
	"scenefilter/internal/playback"
	"scenefilter/internal/segment"
	"scenefilter/internal/segmentdb"
	"scenefilter/internal/store"
)

// Daemon owns the background services and enforces single-instance
// execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.Store
	catalog *segmentdb.Service
	tracker *playback.Tracker

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc

	api *apiServer

	mu        sync.Mutex
	detectors map[string]*detector.Detector
}

// Status represents daemon runtime information.
type Status struct {
	Running        bool
	PID            int
	DatabasePath   string
	LockFilePath   string
	CatalogSource  string
	ActiveContexts int
	ActiveDetector int
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, catalog *segmentdb.Service, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil || catalog == nil {
		return nil, errors.New("daemon requires config, store, and catalog")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := cfg.LockFilePath()
	d := &Daemon{
		cfg:       cfg,
		logger:    logger.With(slog.String(logging.FieldComponent, "daemon")),
		store:     st,
		catalog:   catalog,
		tracker:   playback.NewTracker(),
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
		detectors: make(map[string]*detector.Detector),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock and launches the API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another scenefilter daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.api.start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return err
	}

	d.running.Store(true)
	d.logger.Info("scenefilter daemon started", slog.String("lock", d.lockPath))
	return nil
}

// Stop halts detectors and the API server and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.mu.Lock()
	active := make([]*detector.Detector, 0, len(d.detectors))
	for _, det := range d.detectors {
		active = append(active, det)
	}
	d.detectors = make(map[string]*detector.Detector)
	d.mu.Unlock()
	for _, det := range active {
		det.Stop()
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", slog.String("error", err.Error()))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("scenefilter daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// APIAddr returns the bound API listener address, or empty when not
// serving.
func (d *Daemon) APIAddr() string {
	return d.api.addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	d.mu.Lock()
	detectors := len(d.detectors)
	d.mu.Unlock()
	return Status{
		Running:        d.running.Load(),
		PID:            os.Getpid(),
		DatabasePath:   d.cfg.DatabasePath(),
		LockFilePath:   d.lockPath,
		CatalogSource:  d.catalog.Source(),
		ActiveContexts: len(d.tracker.Active()),
		ActiveDetector: detectors,
	}
}

func (d *Daemon) deps() api.Deps {
	return api.Deps{
		Config:  d.cfg,
		Store:   d.store,
		Catalog: d.catalog,
		Logger:  d.logger,
	}
}

// NewContext mints a viewing-context identifier for a playback session.
func (d *Daemon) NewContext() string {
	return uuid.NewString()
}

// UpdatePlayback records a playback snapshot for a context.
func (d *Daemon) UpdatePlayback(contextID string, snap playback.Snapshot) error {
	return d.tracker.Update(contextID, snap)
}

// PlaybackSnapshot returns the latest fresh snapshot for a context.
func (d *Daemon) PlaybackSnapshot(contextID string) (playback.Snapshot, error) {
	return d.tracker.Get(contextID)
}

// DropContext forgets a context and stops its detector, if any.
func (d *Daemon) DropContext(contextID string) {
	d.mu.Lock()
	det := d.detectors[contextID]
	delete(d.detectors, contextID)
	d.mu.Unlock()
	if det != nil {
		det.Stop()
	}
	d.tracker.Drop(contextID)
}

// NoteInteraction reports a deliberate user interaction on a context so
// its detector suppresses emissions briefly.
func (d *Daemon) NoteInteraction(contextID string) {
	d.mu.Lock()
	det := d.detectors[contextID]
	d.mu.Unlock()
	if det != nil {
		det.NoteInteraction()
	}
}

// AttachDetector starts a heuristic detector over the probe for a viewing
// context. Emitted candidates flow into the movie the probe reports at
// emission time. A context can hold at most one detector.
func (d *Daemon) AttachDetector(contextID string, probe detector.Probe) error {
	if !d.cfg.Detector.Enabled {
		return errors.New("detector is disabled in configuration")
	}
	if !d.running.Load() {
		return errors.New("daemon is not running")
	}

	d.mu.Lock()
	if _, exists := d.detectors[contextID]; exists {
		d.mu.Unlock()
		return fmt.Errorf("context %s already has a detector", contextID)
	}
	d.mu.Unlock()

	det := detector.New(d.cfg.Detector, probe, func(segs []segment.Segment) {
		d.storeCandidates(probe, segs)
	}, detector.WithLogger(d.logger))

	d.mu.Lock()
	d.detectors[contextID] = det
	d.mu.Unlock()

	det.Start(d.ctx)
	d.logger.Info("detector attached", slog.String(logging.FieldContextID, contextID))
	return nil
}

func (d *Daemon) storeCandidates(probe detector.Probe, segs []segment.Segment) {
	snap, ok := probe.Playback()
	if !ok || snap.MovieID == "" {
		return
	}

	raws := make([]segment.Raw, 0, len(segs))
	for _, seg := range segs {
		raws = append(raws, segment.FromSegment(seg))
	}
	if _, err := api.ContributeHeuristicSegments(d.ctx, d.deps(), snap.MovieID, raws); err != nil {
		d.logger.Warn("failed to store heuristic candidates",
			slog.String(logging.FieldMovieID, snap.MovieID),
			slog.String("error", err.Error()))
	}
}
