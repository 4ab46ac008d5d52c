package store_test

import (
	"context"
	"encoding/json"
	"testing"

	"scenefilter/internal/reconcile"
	"scenefilter/internal/segment"
	"scenefilter/internal/store"
	"scenefilter/internal/testsupport"
)

func seedStore(t *testing.T, st *store.Store) int {
	t.Helper()
	ctx := context.Background()
	total := 0
	for _, add := range []struct {
		movie string
		raw   segment.Raw
	}{
		{"tt1", rawSeg(10, 20, "sexual")},
		{"tt1", rawSeg(30, 40, "nudity")},
		{"tt2", rawSeg(5, 9, "sexual")},
	} {
		if _, err := st.AddUserSegment(ctx, add.movie, add.raw); err != nil {
			t.Fatalf("seed AddUserSegment: %v", err)
		}
		total++
	}
	if added, err := st.AddHeuristicSegments(ctx, "tt1", []segment.Raw{rawSeg(100, 104, "sexual")}); err != nil || added != 1 {
		t.Fatalf("seed AddHeuristicSegments: added=%d err=%v", added, err)
	}
	return total + 1
}

func TestExportCarriesSchemaAndTiers(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	seedStore(t, st)

	payload, err := st.Export(context.Background())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if payload.Schema != store.PayloadSchema {
		t.Fatalf("schema = %q, want %q", payload.Schema, store.PayloadSchema)
	}
	if payload.ExportedAt == "" {
		t.Fatal("exportedAt must be set")
	}
	if len(payload.UserSegmentsByMovieID) != 2 || len(payload.LocalAISegmentsByMovieID) != 1 {
		t.Fatalf("unexpected tier maps: %+v", payload)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	total := seedStore(t, st)
	ctx := context.Background()

	payload, err := st.Export(ctx)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	// Round-trip through JSON exactly as an external document would.
	encoded, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	var incoming store.ImportPayload
	if err := json.Unmarshal(encoded, &incoming); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}

	summary, err := st.Import(ctx, incoming, reconcile.PreferExisting)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if summary.Added != 0 || summary.Replaced != 0 {
		t.Fatalf("identity import must not change anything: %+v", summary)
	}
	if summary.Skipped != total {
		t.Fatalf("expected all %d existing segments skipped, got %d", total, summary.Skipped)
	}
}

func TestImportPreferImportedReplacesConflicts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := st.AddUserSegment(ctx, "tt1", rawSeg(10, 20, "sexual")); err != nil {
		t.Fatalf("AddUserSegment failed: %v", err)
	}

	incoming := store.ImportPayload{
		UserSegmentsByMovieID: map[string][]segment.Raw{
			"tt1": {rawSeg(12, 25, "sexual")},
		},
	}
	summary, err := st.Import(ctx, incoming, reconcile.PreferImported)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if summary.Replaced != 1 || summary.Added != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	segs, err := st.Segments(ctx, store.TierManual, "tt1")
	if err != nil {
		t.Fatalf("Segments failed: %v", err)
	}
	if len(segs) != 1 || segs[0].Start != 12 || segs[0].End != 25 {
		t.Fatalf("imported segment should have replaced stored one: %+v", segs)
	}
}

func TestImportDropsInvalidRecordsSilently(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	incoming := store.ImportPayload{
		UserSegmentsByMovieID: map[string][]segment.Raw{
			"tt1": {
				rawSeg(10, 20, "sexual"),
				rawSeg(9, 3, "sexual"),
				rawSeg(1, 2, "violence"),
			},
		},
	}
	summary, err := st.Import(ctx, incoming, reconcile.KeepBoth)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if summary.Added != 1 || summary.Skipped != 0 {
		t.Fatalf("only the valid record should land: %+v", summary)
	}
}
