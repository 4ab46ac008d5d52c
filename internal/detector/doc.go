// Package detector implements the heuristic scene detector. It samples a
// playback capture surface on a fixed cadence, feeds three signal channels
// (audio loudness spikes, caption keyword hits, visual scene cuts), and
// fuses co-occurring signals into unverified candidate segments for the
// heuristic tier of the local database.
package detector
