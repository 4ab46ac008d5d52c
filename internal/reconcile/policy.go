package reconcile

import (
	"strings"

	"scenefilter/internal/segment"
)

// Policy controls how MergeInto resolves temporal conflicts between an
// incoming segment and the existing collection.
type Policy string

const (
	// PreferExisting skips any incoming segment that conflicts.
	PreferExisting Policy = "prefer-existing"
	// PreferImported removes conflicting existing segments before adding.
	PreferImported Policy = "prefer-imported"
	// KeepBoth ignores conflicts; overlapping intervals persist side by
	// side. Downstream consumers tolerate overlapping candidates.
	KeepBoth Policy = "keep-both"
)

// ParsePolicy interprets a raw policy string. Unrecognized values fall back
// to PreferExisting so third-party import payloads degrade instead of
// failing; callers that want strictness check ok themselves.
func ParsePolicy(raw string) (Policy, bool) {
	switch Policy(strings.ToLower(strings.TrimSpace(raw))) {
	case PreferExisting:
		return PreferExisting, true
	case PreferImported:
		return PreferImported, true
	case KeepBoth:
		return KeepBoth, true
	default:
		return PreferExisting, false
	}
}

// Result summarizes a MergeInto pass for caller-visible reporting.
type Result struct {
	Segments []segment.Segment
	Added    int
	Replaced int
	Skipped  int
}

// MergeInto folds incoming segments into an existing collection.
//
// An incoming segment equal to an existing one (same type, times within the
// jitter tolerance) is always skipped: it is the same annotation
// re-submitted. Otherwise conflicts (same type, overlapping interval) are
// resolved per the policy. The returned collection is re-sorted.
func MergeInto(existing, incoming []segment.Segment, policy Policy) Result {
	base := make([]segment.Segment, len(existing))
	copy(base, existing)

	result := Result{}
	for _, seg := range incoming {
		if containsEqual(base, seg) {
			result.Skipped++
			continue
		}

		conflicts := conflictIndexes(base, seg)
		if policy == PreferExisting && len(conflicts) > 0 {
			result.Skipped++
			continue
		}
		if policy == PreferImported && len(conflicts) > 0 {
			for i := len(conflicts) - 1; i >= 0; i-- {
				base = append(base[:conflicts[i]], base[conflicts[i]+1:]...)
				result.Replaced++
			}
		}

		base = append(base, seg)
		result.Added++
	}

	segment.Sort(base)
	result.Segments = base
	return result
}

func containsEqual(segs []segment.Segment, seg segment.Segment) bool {
	for _, existing := range segs {
		if segment.Equal(existing, seg) {
			return true
		}
	}
	return false
}

func conflictIndexes(segs []segment.Segment, seg segment.Segment) []int {
	var indexes []int
	for i, existing := range segs {
		if segment.Conflict(existing, seg) {
			indexes = append(indexes, i)
		}
	}
	return indexes
}
