package detector

import (
	"time"

	"scenefilter/internal/segment"
)

type signalKind string

const (
	signalAudio    signalKind = "audio"
	signalSubtitle signalKind = "subtitle"
	signalVisual   signalKind = "visual"
)

type signal struct {
	kind     signalKind
	playTime float64
	observed time.Time
	category segment.Type
}

// signalBuffer is the rolling window of raw channel observations that
// fusion draws from. Entries expire on wall-clock age, not playback time,
// so paused playback does not keep stale signals alive.
type signalBuffer struct {
	signals []signal
	window  time.Duration
}

func newSignalBuffer(window time.Duration) *signalBuffer {
	return &signalBuffer{window: window}
}

func (b *signalBuffer) add(sig signal) {
	b.signals = append(b.signals, sig)
	b.prune(sig.observed)
}

func (b *signalBuffer) prune(now time.Time) {
	cutoff := now.Add(-b.window)
	kept := b.signals[:0]
	for _, sig := range b.signals {
		if !sig.observed.Before(cutoff) {
			kept = append(kept, sig)
		}
	}
	b.signals = kept
}

func (b *signalBuffer) reset() {
	b.signals = nil
}

// candidate is a fused detection ready for emission.
type candidate struct {
	start      float64
	end        float64
	category   segment.Type
	confidence int
}

// Fusion envelope constants. A caption hit is strong evidence on its own
// and covers the spoken line plus the scene it introduces; the
// audio-plus-visual pairing is weaker and gets a tighter envelope and a
// lower confidence.
const (
	subtitleLeadSeconds  = 0.4
	subtitleTrailSeconds = 4.2
	subtitleConfidence   = 64

	pairedLeadSeconds  = 0.3
	pairedTrailSeconds = 2.4
	pairedConfidence   = 48
)

// fuse inspects signals near the given playback time and produces at most
// one candidate. Caption hits win outright; otherwise an audio spike and a
// visual cut must co-occur.
func (b *signalBuffer) fuse(playTime, fusionWindow float64) (candidate, bool) {
	var hasAudio, hasVisual bool
	var subtitleCategory segment.Type

	for _, sig := range b.signals {
		if abs(sig.playTime-playTime) > fusionWindow {
			continue
		}
		switch sig.kind {
		case signalSubtitle:
			if subtitleCategory == "" {
				subtitleCategory = sig.category
			}
		case signalAudio:
			hasAudio = true
		case signalVisual:
			hasVisual = true
		}
	}

	if subtitleCategory != "" {
		return candidate{
			start:      playTime - subtitleLeadSeconds,
			end:        playTime + subtitleTrailSeconds,
			category:   subtitleCategory,
			confidence: subtitleConfidence,
		}, true
	}
	if hasAudio && hasVisual {
		return candidate{
			start:      playTime - pairedLeadSeconds,
			end:        playTime + pairedTrailSeconds,
			category:   segment.TypeSexual,
			confidence: pairedConfidence,
		}, true
	}
	return candidate{}, false
}
