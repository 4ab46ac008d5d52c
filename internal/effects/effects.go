// Package effects resolves the playback action to take for a segment from
// the per-category configuration and the viewing-mode toggles.
package effects

import (
	"strings"

	"scenefilter/internal/segment"
	"scenefilter/internal/trust"
)

// Action is the playback effect applied over a segment's interval.
type Action string

const (
	ActionNone  Action = "none"
	ActionSkip  Action = "skip"
	ActionBlur  Action = "blur"
	ActionMute  Action = "mute"
	ActionSpeed Action = "speed"
)

var actionSet = map[Action]struct{}{
	ActionNone:  {},
	ActionSkip:  {},
	ActionBlur:  {},
	ActionMute:  {},
	ActionSpeed: {},
}

// ParseAction validates a raw action string.
func ParseAction(raw string) (Action, bool) {
	action := Action(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := actionSet[action]; ok {
		return action, true
	}
	return "", false
}

// DefaultActions returns the per-category defaults.
func DefaultActions() map[segment.Type]Action {
	return map[segment.Type]Action{
		segment.TypeSexual: ActionSkip,
		segment.TypeNudity: ActionBlur,
	}
}

// Options carries the viewing-mode toggles that modify the configured
// action.
type Options struct {
	// AudioOnlyMode downgrades visual effects: blur becomes mute.
	AudioOnlyMode bool
	// AdaptiveMode slows short segments instead of skipping them, so brief
	// moments do not cause a visible jump.
	AdaptiveMode bool
}

// adaptiveSkipCutoff is the duration below which adaptive mode converts a
// skip into a slowdown.
const adaptiveSkipCutoff = 3.0

// ForSegment resolves the effective action for one segment.
func ForSegment(seg segment.Segment, actions map[segment.Type]Action, opts Options) Action {
	action, ok := actions[seg.Type]
	if !ok {
		action = ActionNone
	}

	if opts.AudioOnlyMode && action == ActionBlur {
		action = ActionMute
	}
	if opts.AdaptiveMode && action == ActionSkip {
		if d := seg.Duration(); d > 0 && d < adaptiveSkipCutoff {
			action = ActionSpeed
		}
	}
	return action
}

// MarkerSegments selects which segments the timeline markers should show:
// every reconciled segment when debugging, otherwise only the auto-apply
// set.
func MarkerSegments(debug bool, all, auto []trust.Scored) []trust.Scored {
	if debug {
		return all
	}
	return auto
}
