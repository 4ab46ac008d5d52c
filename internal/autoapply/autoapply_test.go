package autoapply_test

import (
	"testing"

	"scenefilter/internal/autoapply"
	"scenefilter/internal/segment"
	"scenefilter/internal/trust"
)

func scored(confidence int) trust.Scored {
	return trust.Scored{
		Segment:             segment.Segment{Start: 1, End: 2, Type: segment.TypeSexual},
		EffectiveConfidence: confidence,
	}
}

func TestParseMode(t *testing.T) {
	cases := []struct {
		raw  string
		want autoapply.Mode
		ok   bool
	}{
		{"off", autoapply.ModeOff, true},
		{"LIGHT", autoapply.ModeLight, true},
		{" medium ", autoapply.ModeMedium, true},
		{"strict", autoapply.ModeStrict, true},
		{"paranoid", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := autoapply.ParseMode(tc.raw)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ParseMode(%q) = (%v, %v), want (%v, %v)", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}

func TestThresholdOffIsSentinel(t *testing.T) {
	for _, user := range []int{0, 50, 100} {
		state := autoapply.State{Mode: autoapply.ModeOff, ConfidenceThreshold: user}
		if got := autoapply.Threshold(state); got != autoapply.OffSentinel {
			t.Fatalf("OFF threshold with user=%d: got %d, want %d", user, got, autoapply.OffSentinel)
		}
	}
}

func TestThresholdUserCanOnlyRaiseBar(t *testing.T) {
	cases := []struct {
		mode autoapply.Mode
		user int
		want int
	}{
		{autoapply.ModeLight, 0, 85},
		{autoapply.ModeLight, 95, 95},
		{autoapply.ModeMedium, 40, 70},
		{autoapply.ModeMedium, 88, 88},
		{autoapply.ModeStrict, 10, 45},
		{autoapply.ModeStrict, 45, 45},
		{autoapply.ModeStrict, 200, 100},
	}
	for _, tc := range cases {
		state := autoapply.State{Mode: tc.mode, ConfidenceThreshold: tc.user}
		if got := autoapply.Threshold(state); got != tc.want {
			t.Fatalf("Threshold(%s, %d) = %d, want %d", tc.mode, tc.user, got, tc.want)
		}
	}
}

func TestFilterOffAlwaysEmpty(t *testing.T) {
	segs := []trust.Scored{scored(100), scored(90)}
	out := autoapply.Filter(segs, autoapply.State{Mode: autoapply.ModeOff, ConfidenceThreshold: 0})
	if len(out) != 0 {
		t.Fatalf("OFF mode must return empty set, got %d", len(out))
	}
}

func TestFilterByEffectiveConfidence(t *testing.T) {
	segs := []trust.Scored{scored(44), scored(45), scored(70), scored(100)}
	state := autoapply.State{Mode: autoapply.ModeStrict, ConfidenceThreshold: 0}
	out := autoapply.Filter(segs, state)
	if len(out) != 3 {
		t.Fatalf("expected 3 segments at strict floor 45, got %d", len(out))
	}
	for _, seg := range out {
		if seg.EffectiveConfidence < 45 {
			t.Fatalf("segment below threshold leaked: %+v", seg)
		}
	}
}
