package segmentdb

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"scenefilter/internal/config"
	"scenefilter/internal/logging"
	"scenefilter/internal/segment"
	"scenefilter/internal/services"
)

// SourceNone is reported before any catalog has been loaded.
const SourceNone = "none"

// SourceBundled labels segments served from the bundled catalog file.
const SourceBundled = "local-bundled"

const fetchTimeout = 15 * time.Second

// maxCatalogBytes bounds catalog downloads; mirrors are untrusted.
const maxCatalogBytes = 16 << 20

// Service serves per-movie catalog segments with TTL caching.
type Service struct {
	cfg    *config.Config
	logger *slog.Logger
	client *http.Client
	clock  func() time.Time

	mu          sync.Mutex
	bundled     *cacheEntry
	community   *cacheEntry
	sourceLabel string
}

type cacheEntry struct {
	records  map[string]Record
	label    string
	loadedAt time.Time
}

// Option customizes Service construction.
type Option func(*Service)

// WithHTTPClient overrides the HTTP client used for community fetches.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) {
		if client != nil {
			s.client = client
		}
	}
}

// WithClock overrides the time source used for TTL checks.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New constructs a catalog service.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	svc := &Service{
		cfg:         cfg,
		logger:      logger.With(slog.String(logging.FieldComponent, "segmentdb")),
		client:      &http.Client{Timeout: fetchTimeout},
		clock:       time.Now,
		sourceLabel: SourceNone,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Source reports which catalog served the most recent read.
func (s *Service) Source() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sourceLabel
}

// RefreshCommunity drops the cached community catalog so the next read
// re-fetches.
func (s *Service) RefreshCommunity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.community = nil
}

// RemoteSegments returns the catalog segments for a movie, community first
// when sync is enabled, falling back to the bundled catalog. Segments are
// parsed with community-tier defaults; the movie being absent from every
// catalog is an empty result, not an error.
func (s *Service) RemoteSegments(ctx context.Context, movieID string, communityEnabled bool) ([]segment.Segment, error) {
	movieID = strings.TrimSpace(movieID)
	if movieID == "" {
		return []segment.Segment{}, nil
	}

	if communityEnabled {
		if records, label := s.communityRecords(ctx); records != nil {
			if match, ok := records[movieID]; ok && len(match.Segments) > 0 {
				s.setSource(label)
				return segment.ParseMany(match.Segments, segment.Defaults{
					SourceType: segment.SourceCommunity,
					Source:     label,
				}), nil
			}
		}
	}

	records, err := s.bundledRecords()
	if err != nil {
		return nil, err
	}
	s.setSource(SourceBundled)
	match, ok := records[movieID]
	if !ok {
		return []segment.Segment{}, nil
	}
	return segment.ParseMany(match.Segments, segment.Defaults{
		SourceType: segment.SourceCommunity,
		Source:     SourceBundled,
	}), nil
}

func (s *Service) setSource(label string) {
	s.mu.Lock()
	s.sourceLabel = label
	s.mu.Unlock()
}

func (s *Service) ttl() time.Duration {
	return time.Duration(s.cfg.Community.CacheTTLMinutes) * time.Minute
}

func (s *Service) bundledRecords() (map[string]Record, error) {
	s.mu.Lock()
	if s.bundled != nil && s.clock().Sub(s.bundled.loadedAt) < s.ttl() {
		records := s.bundled.records
		s.mu.Unlock()
		return records, nil
	}
	s.mu.Unlock()

	data, err := os.ReadFile(s.cfg.Paths.BundledDBPath)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "segmentdb", "load bundled catalog", s.cfg.Paths.BundledDBPath, err)
	}
	records, err := normalizeRecords(data)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "segmentdb", "parse bundled catalog", s.cfg.Paths.BundledDBPath, err)
	}

	s.mu.Lock()
	s.bundled = &cacheEntry{records: records, label: SourceBundled, loadedAt: s.clock()}
	s.mu.Unlock()
	return records, nil
}

// communityRecords returns the community catalog, or nil when every mirror
// is unavailable or empty. Mirror failures are degraded-mode, not errors.
func (s *Service) communityRecords(ctx context.Context) (map[string]Record, string) {
	s.mu.Lock()
	if s.community != nil && s.clock().Sub(s.community.loadedAt) < s.ttl() {
		entry := s.community
		s.mu.Unlock()
		return entry.records, entry.label
	}
	s.mu.Unlock()

	for _, source := range s.cfg.Community.Sources {
		records, err := s.fetchCatalog(ctx, source)
		if err != nil {
			s.logger.Warn("community source unavailable",
				slog.String("source", source),
				slog.String("error", err.Error()))
			continue
		}
		if len(records) == 0 {
			continue
		}
		label := sourceName(source)
		s.mu.Lock()
		s.community = &cacheEntry{records: records, label: label, loadedAt: s.clock()}
		s.mu.Unlock()
		return records, label
	}
	return nil, ""
}

func (s *Service) fetchCatalog(ctx context.Context, rawURL string) (map[string]Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-store")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return normalizeRecords(data)
}

// sourceName derives a stable label from a mirror URL for provenance
// display.
func sourceName(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return "community"
	}
	return "community-" + parsed.Hostname()
}
