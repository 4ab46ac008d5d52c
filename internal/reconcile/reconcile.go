package reconcile

import (
	"sort"

	"scenefilter/internal/segment"
	"scenefilter/internal/trust"
)

// Merge reconciles the three segment sources for a movie into the sorted,
// trust-filtered view. Concatenation order is the collision priority: on an
// exact segment-key collision the remote copy wins over the user copy,
// which wins over the heuristic copy.
func Merge(remote, user, ai []segment.Segment) []trust.Scored {
	all := make([]segment.Segment, 0, len(remote)+len(user)+len(ai))
	all = append(all, remote...)
	all = append(all, user...)
	all = append(all, ai...)

	seen := make(map[string]struct{}, len(all))
	deduped := make([]segment.Segment, 0, len(all))
	for _, seg := range all {
		key := seg.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, seg)
	}

	scored := trust.Apply(deduped)
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Start != scored[j].Start {
			return scored[i].Start < scored[j].Start
		}
		return scored[i].End < scored[j].End
	})
	return scored
}
