// Package reconcile merges segments arriving from multiple provenance tiers
// into the single per-movie view the playback layer consumes.
//
// Merge handles the read path: concatenate remote, user, and heuristic
// segments in priority order, deduplicate by segment key (first occurrence
// wins, so remote beats user beats heuristic on exact-key collisions),
// apply trust scoring, drop ignored segments, and sort. MergeInto handles
// the write path for bulk imports and detector contributions, resolving
// temporal conflicts under an explicit policy and reporting what it did.
package reconcile
