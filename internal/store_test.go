package internal

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "cache", "sessions.db"))
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testRecord(path, night string) SessionRecord {
	total := 0.85
	return SessionRecord{
		ImagingPath:        path,
		ImagingModTime:     time.Date(2024, 3, 15, 3, 0, 0, 0, time.UTC),
		GuidingPath:        "/logs/PHD2_GuideLog_2024-03-14_215812.txt",
		Target:             "NGC 7000",
		Night:              night,
		Exposures:          24,
		IntegrationSeconds: 2880,
		RMSTotal:           &total,
	}
}

func TestStoreUpsertAndLookup(t *testing.T) {
	store := openTestStore(t)
	rec := testRecord("/logs/20240314-215500.log", "2024-03-14")

	if err := store.Upsert(rec); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, ok, err := store.Lookup(rec.ImagingPath, rec.ImagingModTime)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected a cache hit")
	}
	if got.Target != "NGC 7000" || got.Exposures != 24 {
		t.Errorf("Unexpected record: %+v", got)
	}
	if got.RMSTotal == nil || *got.RMSTotal != 0.85 {
		t.Errorf("Expected RMS total 0.85, got %v", got.RMSTotal)
	}
	if got.RMSRA != nil {
		t.Errorf("Expected nil RMS RA to survive storage, got %v", got.RMSRA)
	}
	if !got.ImagingModTime.Equal(rec.ImagingModTime) {
		t.Errorf("Expected mtime %v, got %v", rec.ImagingModTime, got.ImagingModTime)
	}
}

func TestStoreLookupStaleModTime(t *testing.T) {
	store := openTestStore(t)
	rec := testRecord("/logs/20240314-215500.log", "2024-03-14")
	if err := store.Upsert(rec); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	// A changed file means a stale cache entry, reported as a miss.
	_, ok, err := store.Lookup(rec.ImagingPath, rec.ImagingModTime.Add(time.Second))
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if ok {
		t.Error("Expected a miss for a modified file")
	}
}

func TestStoreLookupUnknownPath(t *testing.T) {
	store := openTestStore(t)
	_, ok, err := store.Lookup("/logs/never-seen.log", time.Now())
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if ok {
		t.Error("Expected a miss for an unknown path")
	}
}

func TestStoreUpsertReplaces(t *testing.T) {
	store := openTestStore(t)
	rec := testRecord("/logs/20240314-215500.log", "2024-03-14")
	if err := store.Upsert(rec); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	rec.Target = "M31"
	rec.Exposures = 30
	if err := store.Upsert(rec); err != nil {
		t.Fatalf("Second upsert failed: %v", err)
	}

	records, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record after replace, got %d", len(records))
	}
	if records[0].Target != "M31" || records[0].Exposures != 30 {
		t.Errorf("Expected the replacement to win, got %+v", records[0])
	}
}

func TestStoreListNewestFirst(t *testing.T) {
	store := openTestStore(t)
	for _, rec := range []SessionRecord{
		testRecord("/logs/20240314-215500.log", "2024-03-14"),
		testRecord("/logs/20240320-214000.log", "2024-03-20"),
		testRecord("/logs/20240301-220000.log", "2024-03-01"),
	} {
		if err := store.Upsert(rec); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	records, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	if records[0].Night != "2024-03-20" || records[2].Night != "2024-03-01" {
		t.Errorf("Expected newest night first, got %s .. %s", records[0].Night, records[2].Night)
	}
}

func TestStoreClear(t *testing.T) {
	store := openTestStore(t)
	if err := store.Upsert(testRecord("/logs/20240314-215500.log", "2024-03-14")); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	records, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected an empty cache, got %d records", len(records))
	}
}
