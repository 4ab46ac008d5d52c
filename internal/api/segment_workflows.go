package api

import (
	"context"
	"log/slog"
	"strings"

	"scenefilter/internal/autoapply"
	"scenefilter/internal/config"
	"scenefilter/internal/logging"
	"scenefilter/internal/reconcile"
	"scenefilter/internal/segment"
	"scenefilter/internal/segmentdb"
	"scenefilter/internal/services"
	"scenefilter/internal/store"
	"scenefilter/internal/trust"
)

// Deps bundles the collaborators every workflow needs.
type Deps struct {
	Config  *config.Config
	Store   *store.Store
	Catalog *segmentdb.Service
	Logger  *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return logging.NewNop()
	}
	return d.Logger
}

func (d Deps) autoState() autoapply.State {
	mode, _ := autoapply.ParseMode(d.Config.Filter.SafeMode)
	return autoapply.State{
		Mode:                mode,
		ConfidenceThreshold: d.Config.Filter.ConfidenceThreshold,
	}
}

func (d Deps) filterState() FilterState {
	filter := d.Config.Filter
	actions := make(map[string]string, len(filter.CategoryActions))
	for category, action := range filter.CategoryActions {
		actions[category] = action
	}
	return FilterState{
		Enabled:             filter.Enabled,
		SafeMode:            filter.SafeMode,
		ConfidenceThreshold: filter.ConfidenceThreshold,
		AdaptiveMode:        filter.AdaptiveMode,
		AudioOnlyMode:       filter.AudioOnlyMode,
		PreviewBeforeSkip:   filter.PreviewBeforeSkip,
		AutoSkipDelaySec:    filter.AutoSkipDelaySec,
		DebugMode:           filter.DebugMode,
		CommunitySync:       d.Config.Community.SyncEnabled,
		CategoryActions:     actions,
	}
}

// mergedSegments assembles the three tiers for a movie and runs them
// through dedup and trust scoring. An empty movie ID yields an empty set.
func mergedSegments(ctx context.Context, deps Deps, movieID string) ([]trust.Scored, error) {
	if movieID == "" {
		return []trust.Scored{}, nil
	}

	remote, err := deps.Catalog.RemoteSegments(ctx, movieID, deps.Config.Community.SyncEnabled)
	if err != nil {
		return nil, err
	}
	user, err := deps.Store.Segments(ctx, store.TierManual, movieID)
	if err != nil {
		return nil, err
	}
	ai, err := deps.Store.Segments(ctx, store.TierLocalAI, movieID)
	if err != nil {
		return nil, err
	}
	return reconcile.Merge(remote, user, ai), nil
}

// StatePayload builds the full state view for a movie.
func StatePayload(ctx context.Context, deps Deps, movieID string) (StateResponse, error) {
	movieID = strings.TrimSpace(movieID)

	merged, err := mergedSegments(ctx, deps, movieID)
	if err != nil {
		return StateResponse{}, err
	}

	state := deps.autoState()
	return StateResponse{
		State:        deps.filterState(),
		MovieID:      movieID,
		Segments:     merged,
		AutoSegments: autoapply.Filter(merged, state),
		Source:       deps.Catalog.Source(),
		Threshold:    autoapply.Threshold(state),
	}, nil
}

// AddUserSegment stores a manual annotation and returns the refreshed
// merged view.
func AddUserSegment(ctx context.Context, deps Deps, movieID string, raw segment.Raw) (MutationResponse, error) {
	movieID = strings.TrimSpace(movieID)
	if movieID == "" {
		return MutationResponse{}, services.Wrap(services.ErrValidation, "api", "add segment", "no movie selected", nil)
	}

	if _, err := deps.Store.AddUserSegment(ctx, movieID, raw); err != nil {
		return MutationResponse{}, err
	}
	deps.logger().Info("user segment added", slog.String(logging.FieldMovieID, movieID))
	return mutationResponse(ctx, deps, movieID)
}

// RemoveUserSegment deletes the manual annotation at index and returns the
// refreshed merged view.
func RemoveUserSegment(ctx context.Context, deps Deps, movieID string, index int) (MutationResponse, error) {
	movieID = strings.TrimSpace(movieID)
	if movieID == "" {
		return MutationResponse{}, services.Wrap(services.ErrValidation, "api", "remove segment", "no movie selected", nil)
	}

	if _, err := deps.Store.RemoveUserSegment(ctx, movieID, index); err != nil {
		return MutationResponse{}, err
	}
	deps.logger().Info("user segment removed",
		slog.String(logging.FieldMovieID, movieID),
		slog.Int("index", index))
	return mutationResponse(ctx, deps, movieID)
}

func mutationResponse(ctx context.Context, deps Deps, movieID string) (MutationResponse, error) {
	merged, err := mergedSegments(ctx, deps, movieID)
	if err != nil {
		return MutationResponse{}, err
	}
	return MutationResponse{
		MovieID:      movieID,
		Segments:     merged,
		AutoSegments: autoapply.Filter(merged, deps.autoState()),
		Source:       deps.Catalog.Source(),
	}, nil
}

// ContributeHeuristicSegments folds detector candidates into the
// heuristic tier.
func ContributeHeuristicSegments(ctx context.Context, deps Deps, movieID string, raws []segment.Raw) (ContributionResponse, error) {
	movieID = strings.TrimSpace(movieID)
	if movieID == "" {
		return ContributionResponse{}, services.Wrap(services.ErrValidation, "api", "contribute segments", "no movie selected", nil)
	}

	added, err := deps.Store.AddHeuristicSegments(ctx, movieID, raws)
	if err != nil {
		return ContributionResponse{}, err
	}
	if added > 0 {
		deps.logger().Info("heuristic segments stored",
			slog.String(logging.FieldMovieID, movieID),
			slog.Int("added", added))
	}
	return ContributionResponse{MovieID: movieID, Added: added}, nil
}

// ExportLocalDB snapshots the locally owned tiers.
func ExportLocalDB(ctx context.Context, deps Deps) (store.Payload, error) {
	return deps.Store.Export(ctx)
}

// ImportLocalDB merges an export document into the local tiers.
func ImportLocalDB(ctx context.Context, deps Deps, payload store.ImportPayload, policy reconcile.Policy) (ImportResponse, error) {
	summary, err := deps.Store.Import(ctx, payload, policy)
	if err != nil {
		return ImportResponse{}, err
	}
	deps.logger().Info("local database imported",
		slog.String("policy", string(summary.Policy)),
		slog.Int("movies", summary.Movies),
		slog.Int("added", summary.Added),
		slog.Int("replaced", summary.Replaced),
		slog.Int("skipped", summary.Skipped))
	return ImportResponse{Summary: summary}, nil
}

// LocalSegmentsForMovie lists the locally owned segments for one movie,
// manual annotations first.
func LocalSegmentsForMovie(ctx context.Context, deps Deps, movieID string) (LocalSegmentsResponse, error) {
	movieID = strings.TrimSpace(movieID)
	if movieID == "" {
		return LocalSegmentsResponse{}, services.Wrap(services.ErrValidation, "api", "local segments", "movie id is required", nil)
	}

	user, err := deps.Store.Segments(ctx, store.TierManual, movieID)
	if err != nil {
		return LocalSegmentsResponse{}, err
	}
	ai, err := deps.Store.Segments(ctx, store.TierLocalAI, movieID)
	if err != nil {
		return LocalSegmentsResponse{}, err
	}

	combined := make([]segment.Segment, 0, len(user)+len(ai))
	combined = append(combined, user...)
	combined = append(combined, ai...)
	return LocalSegmentsResponse{MovieID: movieID, Segments: combined}, nil
}

// RefreshCommunity invalidates the community catalog cache and reloads it
// for the given movie context, reporting the resulting source label.
func RefreshCommunity(ctx context.Context, deps Deps, movieID string) (string, error) {
	deps.Catalog.RefreshCommunity()
	if _, err := deps.Catalog.RemoteSegments(ctx, strings.TrimSpace(movieID), deps.Config.Community.SyncEnabled); err != nil {
		return "", err
	}
	return deps.Catalog.Source(), nil
}
