package autoapply

import (
	"strings"

	"scenefilter/internal/trust"
)

// Mode names a floor on auto-apply aggressiveness. A lower floor means a
// lower bar to auto-apply, so STRICT filters most aggressively while OFF
// disables automatic effects entirely.
type Mode string

const (
	ModeOff    Mode = "OFF"
	ModeLight  Mode = "LIGHT"
	ModeMedium Mode = "MEDIUM"
	ModeStrict Mode = "STRICT"
)

// OffSentinel sits above the maximum effective confidence so that no
// segment can ever reach it.
const OffSentinel = 101

var modeFloors = map[Mode]int{
	ModeOff:    OffSentinel,
	ModeLight:  85,
	ModeMedium: 70,
	ModeStrict: 45,
}

// ParseMode validates a raw safety-mode string.
func ParseMode(raw string) (Mode, bool) {
	mode := Mode(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := modeFloors[mode]; ok {
		return mode, true
	}
	return "", false
}

// Modes returns the known safety modes from most to least permissive.
func Modes() []Mode {
	return []Mode{ModeOff, ModeLight, ModeMedium, ModeStrict}
}

// Floor returns the mode's floor threshold.
func (m Mode) Floor() int {
	if floor, ok := modeFloors[m]; ok {
		return floor
	}
	return modeFloors[ModeMedium]
}

// State carries the two inputs the gate needs.
type State struct {
	Mode                Mode
	ConfidenceThreshold int
}

// Threshold resolves the effective auto-apply threshold for the state. In
// OFF mode it returns the sentinel regardless of the user threshold.
func Threshold(state State) int {
	if state.Mode == ModeOff {
		return OffSentinel
	}
	floor := state.Mode.Floor()
	user := state.ConfidenceThreshold
	if user < 0 {
		user = 0
	}
	if user > 100 {
		user = 100
	}
	if user > floor {
		return user
	}
	return floor
}

// Filter returns the subset of scored segments eligible for automatic
// effects. OFF mode always yields an empty set.
func Filter(segs []trust.Scored, state State) []trust.Scored {
	if state.Mode == ModeOff {
		return []trust.Scored{}
	}
	threshold := Threshold(state)
	out := make([]trust.Scored, 0, len(segs))
	for _, seg := range segs {
		if seg.EffectiveConfidence >= threshold {
			out = append(out, seg)
		}
	}
	return out
}
