package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"scenefilter/internal/reconcile"
	"scenefilter/internal/segment"
	"scenefilter/internal/services"
)

// Tier names a locally persisted segment collection.
type Tier string

const (
	TierManual  Tier = "manual"
	TierLocalAI Tier = "local_ai"
)

// heuristicRetention bounds the local_ai tier per movie. The detector keeps
// contributing over a viewing session; only the most recent candidates are
// kept.
const heuristicRetention = 300

// TierDefaults returns the parse defaults applied to records in a tier.
func TierDefaults(tier Tier) segment.Defaults {
	switch tier {
	case TierLocalAI:
		return segment.Defaults{SourceType: segment.SourceLocalAI, Source: "local-ai", Unverified: true}
	default:
		return segment.Defaults{SourceType: segment.SourceManual, Source: "local-user"}
	}
}

// Segments returns the stored collection for one movie and tier. Unknown
// movies yield an empty slice.
func (s *Store) Segments(ctx context.Context, tier Tier, movieID string) ([]segment.Segment, error) {
	movieID = strings.TrimSpace(movieID)
	if movieID == "" {
		return nil, services.Wrap(services.ErrValidation, "store", "segments", "movie id is required", nil)
	}

	row := s.db.QueryRowContext(ctx,
		"SELECT payload FROM segment_collections WHERE movie_id = ? AND tier = ?",
		movieID, string(tier))

	var payload string
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []segment.Segment{}, nil
		}
		return nil, services.Wrap(services.ErrTransient, "store", "segments", "query collection", err)
	}
	return decodeCollection(payload, tier)
}

// SegmentMap returns every stored movie collection for a tier.
func (s *Store) SegmentMap(ctx context.Context, tier Tier) (map[string][]segment.Segment, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT movie_id, payload FROM segment_collections WHERE tier = ?", string(tier))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "store", "segment map", "query collections", err)
	}
	defer rows.Close()

	out := make(map[string][]segment.Segment)
	for rows.Next() {
		var movieID, payload string
		if err := rows.Scan(&movieID, &payload); err != nil {
			return nil, services.Wrap(services.ErrTransient, "store", "segment map", "scan collection", err)
		}
		segs, err := decodeCollection(payload, tier)
		if err != nil {
			return nil, err
		}
		if len(segs) > 0 {
			out[movieID] = segs
		}
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrTransient, "store", "segment map", "iterate collections", err)
	}
	return out, nil
}

// AddUserSegment validates and appends a manual annotation. Re-submitting
// an annotation equal to a stored one is a validation failure so the caller
// can tell the user instead of silently dropping it.
func (s *Store) AddUserSegment(ctx context.Context, movieID string, raw segment.Raw) ([]segment.Segment, error) {
	movieID = strings.TrimSpace(movieID)
	if movieID == "" {
		return nil, services.Wrap(services.ErrValidation, "store", "add segment", "movie id is required", nil)
	}

	seg, err := segment.Parse(raw, TierDefaults(TierManual))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "store", "add segment", "invalid segment range or type", err)
	}

	var result []segment.Segment
	err = s.withCollection(ctx, TierManual, movieID, func(current []segment.Segment) ([]segment.Segment, error) {
		for _, existing := range current {
			if segment.Equal(existing, seg) {
				return nil, services.Wrap(services.ErrValidation, "store", "add segment", "segment already exists", nil)
			}
		}
		next := append(append([]segment.Segment(nil), current...), seg)
		segment.Sort(next)
		result = next
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveUserSegment deletes the manual annotation at index within the
// movie's sorted collection.
func (s *Store) RemoveUserSegment(ctx context.Context, movieID string, index int) ([]segment.Segment, error) {
	movieID = strings.TrimSpace(movieID)
	if movieID == "" {
		return nil, services.Wrap(services.ErrValidation, "store", "remove segment", "movie id is required", nil)
	}
	if index < 0 {
		return nil, services.Wrap(services.ErrValidation, "store", "remove segment", "invalid segment index", nil)
	}

	var result []segment.Segment
	err := s.withCollection(ctx, TierManual, movieID, func(current []segment.Segment) ([]segment.Segment, error) {
		if index >= len(current) {
			return nil, services.Wrap(services.ErrNotFound, "store", "remove segment",
				fmt.Sprintf("segment index %d out of range (%d stored)", index, len(current)), nil)
		}
		next := append(append([]segment.Segment(nil), current[:index]...), current[index+1:]...)
		result = next
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AddHeuristicSegments folds detector candidates into the local_ai tier.
// Candidates conflicting with stored ones are skipped (prefer-existing) and
// the tier is trimmed to the most recent entries. The added count reflects
// candidates that actually landed.
func (s *Store) AddHeuristicSegments(ctx context.Context, movieID string, raws []segment.Raw) (int, error) {
	movieID = strings.TrimSpace(movieID)
	if movieID == "" {
		return 0, services.Wrap(services.ErrValidation, "store", "add heuristic segments", "movie id is required", nil)
	}

	incoming := segment.ParseMany(raws, TierDefaults(TierLocalAI))
	if len(incoming) == 0 {
		return 0, nil
	}

	added := 0
	err := s.withCollection(ctx, TierLocalAI, movieID, func(current []segment.Segment) ([]segment.Segment, error) {
		result := reconcile.MergeInto(current, incoming, reconcile.PreferExisting)
		added = result.Added
		next := result.Segments
		if len(next) > heuristicRetention {
			next = next[len(next)-heuristicRetention:]
		}
		return next, nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

// withCollection runs a read-modify-write cycle for one (movie, tier) row
// inside a transaction. Returning an error from mutate aborts the write.
func (s *Store) withCollection(ctx context.Context, tier Tier, movieID string, mutate func([]segment.Segment) ([]segment.Segment, error)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return services.Wrap(services.ErrTransient, "store", "mutate collection", "begin tx", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var payload string
	current := []segment.Segment{}
	row := tx.QueryRowContext(ctx,
		"SELECT payload FROM segment_collections WHERE movie_id = ? AND tier = ?",
		movieID, string(tier))
	if err := row.Scan(&payload); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return services.Wrap(services.ErrTransient, "store", "mutate collection", "query collection", err)
		}
	} else {
		current, err = decodeCollection(payload, tier)
		if err != nil {
			return err
		}
	}

	next, err := mutate(current)
	if err != nil {
		return err
	}

	if err := writeCollection(ctx, tx, tier, movieID, next); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return services.Wrap(services.ErrTransient, "store", "mutate collection", "commit", err)
	}
	return nil
}

func writeCollection(ctx context.Context, tx *sql.Tx, tier Tier, movieID string, segs []segment.Segment) error {
	if len(segs) == 0 {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM segment_collections WHERE movie_id = ? AND tier = ?",
			movieID, string(tier)); err != nil {
			return services.Wrap(services.ErrTransient, "store", "write collection", "delete empty collection", err)
		}
		return nil
	}

	encoded, err := json.Marshal(segs)
	if err != nil {
		return services.Wrap(services.ErrTransient, "store", "write collection", "encode collection", err)
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO segment_collections (movie_id, tier, payload, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (movie_id, tier) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		movieID, string(tier), string(encoded), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return services.Wrap(services.ErrTransient, "store", "write collection", "upsert collection", err)
	}
	return nil
}

// decodeCollection re-validates a stored blob through the segment parser.
// Records that no longer validate are dropped, not fatal.
func decodeCollection(payload string, tier Tier) ([]segment.Segment, error) {
	var raws []segment.Raw
	if err := json.Unmarshal([]byte(payload), &raws); err != nil {
		return nil, services.Wrap(services.ErrTransient, "store", "decode collection", "corrupt payload", err)
	}
	segs := segment.ParseMany(raws, TierDefaults(tier))
	segment.Sort(segs)
	return segs, nil
}
