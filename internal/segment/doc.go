// Package segment defines the canonical scene-segment model shared by every
// producer and consumer in the filter pipeline.
//
// Raw segment records arrive from four sources of very different quality:
// the bundled database, the community database, user annotations, and the
// local heuristic detector. Parse is the single validation boundary: it
// coerces and bounds every field, rounds times to millisecond precision so
// later equality and merge comparisons are stable, and rejects records whose
// range or category is unusable. Everything downstream (trust scoring,
// reconciliation, auto-apply gating) assumes it only ever sees parsed
// segments.
//
// Identity is deliberately split into two predicates: Key identifies the
// exact annotation (type, rounded times, provenance) and drives dedup, while
// Equal and Conflict compare intervals with the tolerances the merge layer
// needs.
package segment
