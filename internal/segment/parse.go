package segment

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"
)

// Raw is an untyped segment record as it appears in bundled JSON feeds,
// community payloads, and import documents. Field types are deliberately
// loose; Parse is the only place that interprets them.
type Raw struct {
	Start             any `json:"start"`
	End               any `json:"end"`
	Type              any `json:"type"`
	Source            any `json:"source"`
	SourceType        any `json:"source_type"`
	ConfidenceScore   any `json:"confidence_score"`
	Confirmations     any `json:"confirmations"`
	VotesUp           any `json:"votes_up"`
	VotesDown         any `json:"votes_down"`
	Reports           any `json:"reports"`
	ReliabilityWeight any `json:"reliability_weight"`
	Unverified        any `json:"unverified"`
}

// FromSegment converts a parsed segment back into its raw form, primarily
// for building export documents and test fixtures.
func FromSegment(s Segment) Raw {
	return Raw{
		Start:             s.Start,
		End:               s.End,
		Type:              string(s.Type),
		Source:            s.Source,
		SourceType:        string(s.SourceType),
		ConfidenceScore:   s.ConfidenceScore,
		Confirmations:     s.Confirmations,
		VotesUp:           s.VotesUp,
		VotesDown:         s.VotesDown,
		Reports:           s.Reports,
		ReliabilityWeight: s.ReliabilityWeight,
		Unverified:        s.Unverified,
	}
}

// Defaults supplies provenance fields applied when a raw record omits them.
type Defaults struct {
	SourceType SourceType
	Source     string
	Unverified bool
}

// ErrInvalidSegment marks records rejected by Parse.
var ErrInvalidSegment = errors.New("invalid segment")

// Parse validates and normalizes a single raw record.
//
// Rejections are limited to unusable ranges (non-finite times or end <=
// start) and unknown categories. Out-of-range counters are clamped, never
// fatal. Start and End are rounded to millisecond precision so equality and
// merge comparisons are stable against floating-point jitter.
func Parse(raw Raw, defaults Defaults) (Segment, error) {
	start, startOK := toFinite(raw.Start)
	end, endOK := toFinite(raw.End)
	if !startOK || !endOK {
		return Segment{}, fmt.Errorf("%w: non-numeric range", ErrInvalidSegment)
	}
	if end <= start {
		return Segment{}, fmt.Errorf("%w: end %.3f not after start %.3f", ErrInvalidSegment, end, start)
	}

	segType, ok := ParseType(cast.ToString(raw.Type))
	if !ok {
		return Segment{}, fmt.Errorf("%w: unknown type %q", ErrInvalidSegment, cast.ToString(raw.Type))
	}

	sourceType, ok := ParseSourceType(cast.ToString(raw.SourceType))
	if !ok {
		sourceType = defaults.SourceType
		if sourceType == "" {
			sourceType = SourceManual
		}
	}

	source := strings.TrimSpace(cast.ToString(raw.Source))
	if source == "" {
		source = defaults.Source
	}
	if source == "" {
		source = string(sourceType)
	}

	confidence := sourceType.DefaultConfidence()
	if value, valueOK := toFinite(raw.ConfidenceScore); valueOK {
		confidence = int(math.Round(value))
	}

	seg := Segment{
		Start:             round3(start),
		End:               round3(end),
		Type:              segType,
		Source:            source,
		SourceType:        sourceType,
		ConfidenceScore:   clampInt(confidence, 0, 100),
		Confirmations:     clampInt(toCount(raw.Confirmations), 0, MaxConfirmations),
		VotesUp:           clampInt(toCount(raw.VotesUp), 0, MaxVotes),
		VotesDown:         clampInt(toCount(raw.VotesDown), 0, MaxVotes),
		Reports:           clampInt(toCount(raw.Reports), 0, MaxReports),
		ReliabilityWeight: clampInt(toCountDefault(raw.ReliabilityWeight, 1), 0, MaxReliability),
		Unverified:        cast.ToBool(raw.Unverified) || defaults.Unverified,
	}
	// Heuristic output is unverified by definition, whatever the record says.
	if seg.SourceType == SourceLocalAI {
		seg.Unverified = true
	}
	return seg, nil
}

// ParseMany returns the subsequence of raws that validate, in input order.
// Invalid records are dropped silently: bulk feeds are noisy by nature and
// partial success is the expected outcome.
func ParseMany(raws []Raw, defaults Defaults) []Segment {
	out := make([]Segment, 0, len(raws))
	for _, raw := range raws {
		seg, err := Parse(raw, defaults)
		if err != nil {
			continue
		}
		out = append(out, seg)
	}
	return out
}

// SanitizeMap normalizes a persisted movie-to-raw-segments mapping. Blank
// movie keys and movies whose segments all fail validation are dropped, and
// every surviving list comes back sorted.
func SanitizeMap(raw map[string][]Raw, defaults Defaults) map[string][]Segment {
	out := make(map[string][]Segment, len(raw))
	for movieID, raws := range raw {
		if strings.TrimSpace(movieID) == "" {
			continue
		}
		segs := ParseMany(raws, defaults)
		if len(segs) == 0 {
			continue
		}
		Sort(segs)
		out[movieID] = segs
	}
	return out
}

func toFinite(value any) (float64, bool) {
	if value == nil {
		return 0, false
	}
	parsed, err := cast.ToFloat64E(value)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return 0, false
	}
	return parsed, true
}

func toCount(value any) int {
	return toCountDefault(value, 0)
}

func toCountDefault(value any, fallback int) int {
	parsed, ok := toFinite(value)
	if !ok {
		return fallback
	}
	return int(math.Round(parsed))
}

func clampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func round3(value float64) float64 {
	return math.Round(value*1000) / 1000
}
