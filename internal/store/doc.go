// Package store persists per-movie segment collections in SQLite.
//
// Two tiers of locally owned segments are stored: manual annotations the
// user entered, and local_ai candidates contributed by the heuristic
// detector. Each (movie, tier) pair maps to one JSON blob row; mutations
// are read-modify-write inside a transaction with last-writer-wins
// semantics between concurrent contexts. Blobs are re-validated through the
// segment parser on every read, so corrupt or legacy rows degrade to the
// valid subset instead of failing the movie.
//
// The heuristic tier is garbage-bounded: only the most recent candidates
// per movie are retained, since the detector grows that tier without bound
// over a viewing session.
package store
