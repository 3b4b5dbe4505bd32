package store

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *SQLite {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "timetable.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() failed: %v", err)
	}
	// idempotent
	if err := db.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("second EnsureSchema() failed: %v", err)
	}
	return db
}

func TestSQLite_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	run := Run{ID: "run-1", StartedAt: time.Now(), Status: RunRunning}
	if err := db.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun() failed: %v", err)
	}
	if err := db.SaveResult(ctx, run.ID, "PATCO_Timetable", sampleResult()); err != nil {
		t.Fatalf("SaveResult() failed: %v", err)
	}

	keys, err := db.Keys(ctx, "PATCO_Timetable")
	if err != nil {
		t.Fatalf("Keys() failed: %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"weekday_eastbound", "weekday_westbound"}) {
		t.Errorf("Keys() = %v", keys)
	}

	table, err := db.Table(ctx, "PATCO_Timetable", "weekday_westbound")
	if err != nil {
		t.Fatalf("Table() failed: %v", err)
	}
	want := sampleResult()["weekday_westbound"]
	if !reflect.DeepEqual(table, want) {
		t.Errorf("Table() = %+v, want %+v", table, want)
	}

	result, err := db.Result(ctx, "PATCO_Timetable")
	if err != nil || result.TableCount() != 2 {
		t.Errorf("Result() = %v, %v; want 2 tables", result, err)
	}
}

func TestSQLite_SaveResultReplaces(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	db.SaveRun(ctx, Run{ID: "r1", StartedAt: time.Now(), Status: RunRunning})

	if err := db.SaveResult(ctx, "r1", "TW_2026-02-04", sampleResult()); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveResult(ctx, "r1", "TW_2026-02-04", specialResult()); err != nil {
		t.Fatalf("second SaveResult() failed: %v", err)
	}

	keys, _ := db.Keys(ctx, "TW_2026-02-04")
	if !reflect.DeepEqual(keys, []string{"saturday_eastbound", "schedule_westbound"}) {
		t.Errorf("Keys() after replace = %v", keys)
	}
	if _, err := db.Table(ctx, "TW_2026-02-04", "weekday_westbound"); !errors.Is(err, ErrNotFound) {
		t.Errorf("replaced table still present: %v", err)
	}
}

func TestSQLite_Documents(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	db.SaveRun(ctx, Run{ID: "r1", StartedAt: time.Now(), Status: RunRunning})
	db.SaveResult(ctx, "r1", "a_doc", sampleResult())

	docs, err := db.Documents(ctx)
	if err != nil {
		t.Fatalf("Documents() failed: %v", err)
	}
	if len(docs) != 1 || docs[0].Name != "a_doc" || docs[0].Tables != 2 || docs[0].RunID != "r1" {
		t.Errorf("Documents() = %+v", docs)
	}
	if docs[0].UpdatedAt.IsZero() {
		t.Error("Documents() has no update time")
	}

	pruned, err := db.PruneDocuments(ctx, map[string]bool{})
	if err != nil || pruned != 1 {
		t.Errorf("PruneDocuments() = %d, %v; want 1, nil", pruned, err)
	}
	if _, err := db.Keys(ctx, "a_doc"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Keys() after prune error = %v, want ErrNotFound", err)
	}
}

func TestSQLite_UnknownRunRejected(t *testing.T) {
	db := openTestDB(t)
	if err := db.SaveResult(context.Background(), "missing-run", "doc", sampleResult()); err == nil {
		t.Error("SaveResult() with an unknown run should fail the foreign key")
	}
}

func TestSQLite_LatestRun(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if _, err := db.LatestRun(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("LatestRun() on an empty db error = %v, want ErrNotFound", err)
	}

	start := time.Now().Add(-time.Minute)
	db.SaveRun(ctx, Run{ID: "old", StartedAt: start.Add(-time.Hour), Status: RunSucceeded})
	db.SaveRun(ctx, Run{ID: "new", StartedAt: start, Status: RunRunning})
	db.SaveRun(ctx, Run{ID: "new", StartedAt: start, FinishedAt: start.Add(time.Second), Status: RunSucceeded, Documents: 2, Tables: 8, Warnings: 3})

	run, err := db.LatestRun(ctx)
	if err != nil {
		t.Fatalf("LatestRun() failed: %v", err)
	}
	if run.ID != "new" || run.Status != RunSucceeded || run.Tables != 8 || run.FinishedAt.IsZero() {
		t.Errorf("LatestRun() = %+v", run)
	}
}
