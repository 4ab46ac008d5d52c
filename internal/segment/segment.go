package segment

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Type categorizes the sensitive content a segment marks.
type Type string

const (
	TypeSexual Type = "sexual"
	TypeNudity Type = "nudity"
)

var allTypes = []Type{TypeSexual, TypeNudity}

// ParseType validates a raw category string.
func ParseType(raw string) (Type, bool) {
	value := Type(strings.ToLower(strings.TrimSpace(raw)))
	for _, t := range allTypes {
		if value == t {
			return t, true
		}
	}
	return "", false
}

// Types returns the known segment categories.
func Types() []Type {
	out := make([]Type, len(allTypes))
	copy(out, allTypes)
	return out
}

// SourceType identifies the provenance tier a segment came from. The tier
// determines the default confidence prior and how the trust engine treats
// the segment's feedback counters.
type SourceType string

const (
	SourceManual    SourceType = "manual"
	SourceCommunity SourceType = "community"
	SourceLocalAI   SourceType = "local_ai"
	SourceBundled   SourceType = "bundled"
)

var sourceTypeSet = map[SourceType]struct{}{
	SourceManual:    {},
	SourceCommunity: {},
	SourceLocalAI:   {},
	SourceBundled:   {},
}

// ParseSourceType validates a raw provenance string.
func ParseSourceType(raw string) (SourceType, bool) {
	value := SourceType(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := sourceTypeSet[value]; ok {
		return value, true
	}
	return "", false
}

// DefaultConfidence returns the confidence prior for segments that arrive
// without an explicit score.
func (s SourceType) DefaultConfidence() int {
	switch s {
	case SourceCommunity:
		return 80
	case SourceLocalAI:
		return 45
	default:
		return 95
	}
}

// Counter bounds. Counters are clamped, never rejected, so a single abusive
// or corrupted field cannot take an otherwise valid segment down with it.
const (
	MaxConfirmations = 1000
	MaxVotes         = 100000
	MaxReports       = 100000
	MaxReliability   = 5
)

// Segment is a validated, typed time interval marking sensitive content.
// Start and End carry fractional seconds rounded to millisecond precision.
type Segment struct {
	Start             float64    `json:"start"`
	End               float64    `json:"end"`
	Type              Type       `json:"type"`
	Source            string     `json:"source"`
	SourceType        SourceType `json:"source_type"`
	ConfidenceScore   int        `json:"confidence_score"`
	Confirmations     int        `json:"confirmations"`
	VotesUp           int        `json:"votes_up"`
	VotesDown         int        `json:"votes_down"`
	Reports           int        `json:"reports"`
	ReliabilityWeight int        `json:"reliability_weight"`
	Unverified        bool       `json:"unverified"`
}

// Key returns the deterministic dedup identity for the segment. Two
// annotations with the same key are the same submission regardless of their
// mutable counters.
func (s Segment) Key() string {
	return fmt.Sprintf("%s|%.3f|%.3f|%s", s.Type, s.Start, s.End, s.SourceType)
}

// Duration returns the interval length in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// equalTolerance treats sub-frame jitter between two submissions of the same
// annotation as identity.
const equalTolerance = 0.01

// Equal reports whether two segments are the same annotation: same category
// with start and end within the jitter tolerance. Provenance and counters do
// not participate.
func Equal(a, b Segment) bool {
	return a.Type == b.Type &&
		math.Abs(a.Start-b.Start) < equalTolerance &&
		math.Abs(a.End-b.End) < equalTolerance
}

// Conflict reports whether two same-type segments compete for the same
// screen time, i.e. their intervals strictly overlap. This is intentionally
// a different predicate from Equal: equality asks "is this a re-submission",
// conflict asks "do these intervals collide".
func Conflict(a, b Segment) bool {
	if a.Type != b.Type {
		return false
	}
	return a.Start < b.End && b.Start < a.End
}

// Sort orders segments by (start, end) ascending in place. Every merge and
// sanitize operation re-establishes this ordering before returning.
func Sort(segs []Segment) {
	sort.SliceStable(segs, func(i, j int) bool {
		if segs[i].Start != segs[j].Start {
			return segs[i].Start < segs[j].Start
		}
		return segs[i].End < segs[j].End
	})
}
