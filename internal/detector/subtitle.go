package detector

import (
	"strings"
	"time"

	"golang.org/x/text/cases"

	"scenefilter/internal/segment"
)

// Keyword sets matched against folded caption text. Nudity terms outrank
// the broader sexual set when a cue matches both.
var (
	nudityTerms = []string{"nudity", "nude", "topless", "breast", "genital", "strip"}
	sexualTerms = []string{"sex", "sexual", "kiss", "bed", "naked", "erotic", "intercourse"}
)

// subtitleChannel matches active caption cues against keyword sets. A
// cooldown between hits keeps multi-line cues from firing repeatedly for
// the same on-screen moment.
type subtitleChannel struct {
	folder   cases.Caser
	cooldown time.Duration
	lastHit  time.Time
}

func newSubtitleChannel(cooldown time.Duration) *subtitleChannel {
	return &subtitleChannel{
		folder:   cases.Fold(),
		cooldown: cooldown,
	}
}

// observe scans the active cues and reports the matched category, if any.
func (s *subtitleChannel) observe(cues []string, now time.Time) (segment.Type, bool) {
	if len(cues) == 0 {
		return "", false
	}
	if !s.lastHit.IsZero() && now.Sub(s.lastHit) < s.cooldown {
		return "", false
	}

	for _, cue := range cues {
		folded := s.folder.String(cue)
		if folded == "" {
			continue
		}
		if containsAny(folded, nudityTerms) {
			s.lastHit = now
			return segment.TypeNudity, true
		}
		if containsAny(folded, sexualTerms) {
			s.lastHit = now
			return segment.TypeSexual, true
		}
	}
	return "", false
}

func (s *subtitleChannel) reset() {
	s.lastHit = time.Time{}
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
