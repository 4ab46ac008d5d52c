package store

import (
	"context"
	"time"

	"scenefilter/internal/reconcile"
	"scenefilter/internal/segment"
)

// PayloadSchema tags export documents so imports can be sanity checked by
// callers and future schema revisions stay distinguishable.
const PayloadSchema = "scenefilter.localdb.v2"

// Payload is the round-trippable export document for the locally owned
// segment tiers.
type Payload struct {
	Schema                   string                       `json:"schema"`
	ExportedAt               string                       `json:"exportedAt"`
	UserSegmentsByMovieID    map[string][]segment.Segment `json:"userSegmentsByMovieId"`
	LocalAISegmentsByMovieID map[string][]segment.Segment `json:"localAiSegmentsByMovieId"`
}

// ImportPayload mirrors Payload with untyped segment records, as received
// from external documents.
type ImportPayload struct {
	Schema                   string                   `json:"schema"`
	ExportedAt               string                   `json:"exportedAt"`
	UserSegmentsByMovieID    map[string][]segment.Raw `json:"userSegmentsByMovieId"`
	LocalAISegmentsByMovieID map[string][]segment.Raw `json:"localAiSegmentsByMovieId"`
}

// ImportSummary reports what an import pass did.
type ImportSummary struct {
	Policy   reconcile.Policy `json:"policy"`
	Movies   int              `json:"movies"`
	Added    int              `json:"added"`
	Replaced int              `json:"replaced"`
	Skipped  int              `json:"skipped"`
}

// Export snapshots both local tiers into a portable document.
func (s *Store) Export(ctx context.Context) (Payload, error) {
	userMap, err := s.SegmentMap(ctx, TierManual)
	if err != nil {
		return Payload{}, err
	}
	aiMap, err := s.SegmentMap(ctx, TierLocalAI)
	if err != nil {
		return Payload{}, err
	}
	return Payload{
		Schema:                   PayloadSchema,
		ExportedAt:               time.Now().UTC().Format(time.RFC3339),
		UserSegmentsByMovieID:    userMap,
		LocalAISegmentsByMovieID: aiMap,
	}, nil
}

// Import merges an export document into the stored tiers under the given
// conflict policy. Invalid records inside the document are dropped by the
// parse boundary; the summary counts only segments that reached the merge.
func (s *Store) Import(ctx context.Context, payload ImportPayload, policy reconcile.Policy) (ImportSummary, error) {
	importedUser := segment.SanitizeMap(payload.UserSegmentsByMovieID, TierDefaults(TierManual))
	importedAI := segment.SanitizeMap(payload.LocalAISegmentsByMovieID, TierDefaults(TierLocalAI))

	summary := ImportSummary{Policy: policy}

	currentUser, err := s.SegmentMap(ctx, TierManual)
	if err != nil {
		return ImportSummary{}, err
	}
	currentAI, err := s.SegmentMap(ctx, TierLocalAI)
	if err != nil {
		return ImportSummary{}, err
	}

	movieIDs := unionKeys(currentUser, importedUser, currentAI, importedAI)
	summary.Movies = len(movieIDs)

	for _, movieID := range movieIDs {
		userResult := reconcile.MergeInto(currentUser[movieID], importedUser[movieID], policy)
		aiResult := reconcile.MergeInto(currentAI[movieID], importedAI[movieID], policy)
		summary.Added += userResult.Added + aiResult.Added
		summary.Replaced += userResult.Replaced + aiResult.Replaced
		summary.Skipped += userResult.Skipped + aiResult.Skipped

		if err := s.replaceCollection(ctx, TierManual, movieID, userResult.Segments); err != nil {
			return ImportSummary{}, err
		}
		if err := s.replaceCollection(ctx, TierLocalAI, movieID, aiResult.Segments); err != nil {
			return ImportSummary{}, err
		}
	}

	return summary, nil
}

func (s *Store) replaceCollection(ctx context.Context, tier Tier, movieID string, segs []segment.Segment) error {
	return s.withCollection(ctx, tier, movieID, func([]segment.Segment) ([]segment.Segment, error) {
		return segs, nil
	})
}

func unionKeys(maps ...map[string][]segment.Segment) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, m := range maps {
		for key := range m {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}
	return keys
}
