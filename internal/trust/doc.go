// Package trust computes effective confidence scores and ignore decisions
// for segments based on their provenance and community feedback counters.
//
// Scoring is two-stage: an additive/subtractive adjustment of the stored
// prior, then a categorical veto. The veto exists so a single strong
// negative signal (abuse reports, heavy downvoting) can override an
// otherwise plausible score without the arithmetic having to reach zero
// through many small penalties. Scores are derived fresh on every
// reconciliation and never persisted; they depend on mutable counters.
package trust
