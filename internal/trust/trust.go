package trust

import "scenefilter/internal/segment"

// Community scoring adjustments. Confirmations and net votes raise the
// score inside hard caps; reports subtract steeply; segments with little
// feedback carry a cold-start penalty so unproven community data is
// down-weighted before reports can accumulate.
const (
	confirmationBonus    = 3
	confirmationBonusCap = 15
	voteBonus            = 2
	voteBonusCap         = 20
	reportPenalty        = 12
	reportPenaltyCap     = 60
	fewConfirmPenalty    = 12
	fewVotesPenalty      = 8
	localAIPenalty       = 5

	// reportVetoCount is the report count at which a segment is forced to
	// zero and excluded outright, regardless of every other signal.
	reportVetoCount = 3
)

// Scored annotates a segment with its derived trust fields.
type Scored struct {
	segment.Segment

	SegmentID           string `json:"segment_id"`
	EffectiveConfidence int    `json:"effective_confidence"`
	IgnoredByTrust      bool   `json:"ignored_by_trust"`
}

// Score computes the effective confidence and the ignore decision for one
// segment. It is deterministic and independent of any other segment.
func Score(seg segment.Segment) (int, bool) {
	score := seg.ConfidenceScore

	if seg.SourceType == segment.SourceCommunity {
		score += minInt(seg.Confirmations*confirmationBonus, confirmationBonusCap)
		score += minInt((seg.VotesUp-seg.VotesDown)*voteBonus, voteBonusCap)
		score -= minInt(seg.Reports*reportPenalty, reportPenaltyCap)
		if seg.Confirmations < 2 {
			score -= fewConfirmPenalty
		}
		if seg.VotesUp+seg.VotesDown < 2 {
			score -= fewVotesPenalty
		}
	}

	if seg.SourceType == segment.SourceLocalAI {
		score -= localAIPenalty
	}

	if seg.Reports >= reportVetoCount {
		score = 0
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, ignored(seg)
}

func ignored(seg segment.Segment) bool {
	if seg.Reports >= reportVetoCount {
		return true
	}
	// Net-negative community consensus: clearly more downvotes than upvotes.
	if seg.SourceType == segment.SourceCommunity && seg.VotesDown > seg.VotesUp+2 {
		return true
	}
	return false
}

// Apply scores every segment and returns the surviving set, dropping those
// the trust policy ignores. Input order is preserved.
func Apply(segs []segment.Segment) []Scored {
	out := make([]Scored, 0, len(segs))
	for _, seg := range segs {
		effective, skip := Score(seg)
		if skip {
			continue
		}
		out = append(out, Scored{
			Segment:             seg,
			SegmentID:           seg.Key(),
			EffectiveConfidence: effective,
		})
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
