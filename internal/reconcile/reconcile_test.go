package reconcile_test

import (
	"testing"

	"scenefilter/internal/reconcile"
	"scenefilter/internal/segment"
)

func seg(start, end float64, st segment.SourceType) segment.Segment {
	return segment.Segment{
		Start:           start,
		End:             end,
		Type:            segment.TypeSexual,
		SourceType:      st,
		ConfidenceScore: st.DefaultConfidence(),
	}
}

func TestMergeDedupsByKeyWithSourcePriority(t *testing.T) {
	// Identical key requires identical source type, so craft remote and
	// user copies that collide on the manual key.
	remote := seg(10, 20, segment.SourceManual)
	remote.Source = "community-raw"
	user := seg(10, 20, segment.SourceManual)
	user.Source = "local-user"

	out := reconcile.Merge([]segment.Segment{remote}, []segment.Segment{user}, nil)
	if len(out) != 1 {
		t.Fatalf("expected 1 segment after dedup, got %d", len(out))
	}
	if out[0].Source != "community-raw" {
		t.Fatalf("first occurrence (remote) should win, got source %q", out[0].Source)
	}
}

func TestMergeIdempotent(t *testing.T) {
	remote := []segment.Segment{seg(10, 20, segment.SourceCommunity), seg(30, 44, segment.SourceCommunity)}
	user := []segment.Segment{seg(5, 8, segment.SourceManual)}
	ai := []segment.Segment{seg(50, 55, segment.SourceLocalAI)}

	first := reconcile.Merge(remote, user, ai)
	second := reconcile.Merge(remote, user, ai)
	if len(first) != len(second) {
		t.Fatalf("merge not idempotent: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].SegmentID != second[i].SegmentID || first[i].EffectiveConfidence != second[i].EffectiveConfidence {
			t.Fatalf("merge not idempotent at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestMergeDropsIgnoredAndSorts(t *testing.T) {
	vetoed := seg(1, 3, segment.SourceCommunity)
	vetoed.Reports = 5

	out := reconcile.Merge(
		[]segment.Segment{vetoed, seg(30, 40, segment.SourceCommunity)},
		[]segment.Segment{seg(10, 12, segment.SourceManual)},
		nil,
	)
	if len(out) != 2 {
		t.Fatalf("expected vetoed segment dropped, got %d segments", len(out))
	}
	if out[0].Start != 10 || out[1].Start != 30 {
		t.Fatalf("output not sorted: %+v", out)
	}
}

func TestParsePolicy(t *testing.T) {
	cases := []struct {
		raw  string
		want reconcile.Policy
		ok   bool
	}{
		{"prefer-existing", reconcile.PreferExisting, true},
		{"PREFER-IMPORTED", reconcile.PreferImported, true},
		{" keep-both ", reconcile.KeepBoth, true},
		{"overwrite", reconcile.PreferExisting, false},
		{"", reconcile.PreferExisting, false},
	}
	for _, tc := range cases {
		got, ok := reconcile.ParsePolicy(tc.raw)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ParsePolicy(%q) = (%v, %v), want (%v, %v)", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}

func TestMergeIntoPreferExistingSkipsConflicts(t *testing.T) {
	existing := []segment.Segment{seg(10, 20, segment.SourceManual)}
	incoming := []segment.Segment{
		seg(12, 18, segment.SourceManual),
		seg(15, 25, segment.SourceManual),
	}

	result := reconcile.MergeInto(existing, incoming, reconcile.PreferExisting)
	if result.Added != 0 || result.Replaced != 0 || result.Skipped != len(incoming) {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if len(result.Segments) != 1 {
		t.Fatalf("existing set should be untouched, got %+v", result.Segments)
	}
}

func TestMergeIntoPreferImportedReplacesAllConflicts(t *testing.T) {
	existing := []segment.Segment{
		seg(10, 15, segment.SourceManual),
		seg(14, 22, segment.SourceManual),
		seg(21, 30, segment.SourceManual),
		seg(100, 110, segment.SourceManual),
	}
	incoming := []segment.Segment{seg(12, 25, segment.SourceManual)}

	result := reconcile.MergeInto(existing, incoming, reconcile.PreferImported)
	if result.Replaced != 3 || result.Added != 1 || result.Skipped != 0 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if len(result.Segments) != 2 {
		t.Fatalf("expected incoming plus untouched segment, got %+v", result.Segments)
	}
	if result.Segments[0].Start != 12 || result.Segments[1].Start != 100 {
		t.Fatalf("output not sorted: %+v", result.Segments)
	}
}

func TestMergeIntoKeepBothRetainsOverlaps(t *testing.T) {
	existing := []segment.Segment{seg(10, 20, segment.SourceManual)}
	incoming := []segment.Segment{seg(15, 25, segment.SourceManual)}

	result := reconcile.MergeInto(existing, incoming, reconcile.KeepBoth)
	if result.Added != 1 || result.Replaced != 0 || result.Skipped != 0 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if len(result.Segments) != 2 {
		t.Fatalf("both overlapping intervals should persist, got %+v", result.Segments)
	}
}

func TestMergeIntoSkipsEqualResubmissions(t *testing.T) {
	existing := []segment.Segment{seg(10, 20, segment.SourceManual)}
	resubmitted := seg(10.004, 19.998, segment.SourceManual)

	// Equality wins over conflict handling in every policy.
	for _, policy := range []reconcile.Policy{reconcile.PreferExisting, reconcile.PreferImported, reconcile.KeepBoth} {
		result := reconcile.MergeInto(existing, []segment.Segment{resubmitted}, policy)
		if result.Skipped != 1 || result.Added != 0 || result.Replaced != 0 {
			t.Fatalf("policy %s: expected equal segment skipped, got %+v", policy, result)
		}
	}
}

func TestMergeIntoDoesNotMutateInput(t *testing.T) {
	existing := []segment.Segment{seg(10, 15, segment.SourceManual), seg(20, 25, segment.SourceManual)}
	incoming := []segment.Segment{seg(12, 22, segment.SourceManual)}

	_ = reconcile.MergeInto(existing, incoming, reconcile.PreferImported)
	if existing[0].Start != 10 || existing[1].Start != 20 {
		t.Fatalf("input slice mutated: %+v", existing)
	}
}
