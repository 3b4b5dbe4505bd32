package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tsawler/timetable/config"
	"github.com/tsawler/timetable/fetch"
	"github.com/tsawler/timetable/internal/pdftest"
	"github.com/tsawler/timetable/model"
	"github.com/tsawler/timetable/store"
	"github.com/tsawler/timetable/tables"
)

var (
	westXs = []float64{50, 90, 130, 170, 210}
	eastXs = []float64{350, 390, 430, 470, 510}
)

func standardPDF() []byte {
	weekday := pdftest.Merge(
		pdftest.Row(60, []float64{50, 110, 160}, "MONDAY", "THROUGH", "FRIDAY"),
		pdftest.Row(450, westXs, "5:00A", "5:02A", "5:04A", "5:06A", "5:09A"),
		pdftest.Row(450, eastXs, "6:00A", "6:03A", "6:05A", "6:08A", "6:10A"),
	)
	weekend := pdftest.Merge(
		pdftest.Row(60, []float64{50, 300}, "SATURDAY", "SUNDAY"),
		pdftest.Row(200, westXs, "8:00A", "8:02A", "8:04A", "8:06A", "8:08A"),
		pdftest.Row(600, eastXs, "9:00P", "9:02P", "9:04P", "9:06P", "9:08P"),
	)
	return pdftest.Build(612, 792, weekday, weekend)
}

func specialPDF() []byte {
	return pdftest.Build(612, 792, pdftest.Merge(
		pdftest.Row(200, westXs, "1:00P", "1:02P", "1:04P", "1:06P", "1:08P"),
		pdftest.Row(200, eastXs, "2:00P", "2:02P", "2:04P", "2:06P", "2:08P"),
	))
}

type fakeFetcher struct {
	links     []fetch.Link
	linksErr  error
	files     map[string][]byte
	downloads []string
}

func (f *fakeFetcher) Links(ctx context.Context, pageURL string) ([]fetch.Link, error) {
	return f.links, f.linksErr
}

func (f *fakeFetcher) Download(ctx context.Context, link fetch.Link, dest string, skipExisting bool) (bool, error) {
	if skipExisting {
		if _, err := os.Stat(dest); err == nil {
			return false, nil
		}
	}
	body, ok := f.files[link.Filename]
	if !ok {
		return false, errors.New("unexpected status: 404 Not Found")
	}
	f.downloads = append(f.downloads, link.Filename)
	return true, os.WriteFile(dest, body, 0644)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		SchedulesURL:      "http://example.test/schedules.asp",
		MaxAge:            7 * 24 * time.Hour,
		DataDir:           dir,
		Tables:            tables.DefaultConfig(),
		StandardPDFDir:    filepath.Join(dir, "pdf", "standard"),
		SpecialPDFDir:     filepath.Join(dir, "pdf", "special"),
		CSVDir:            filepath.Join(dir, "csv"),
		BundlePath:        filepath.Join(dir, "bundle.json"),
		StandardStatePath: filepath.Join(dir, "standard.json"),
	}
	cfg.Tables.MinRowTokens = 3
	return cfg
}

func testLinks() []fetch.Link {
	return []fetch.Link{
		{URL: "http://example.test/pdf/PATCO_Timetable_2026.pdf", Filename: "PATCO_Timetable_2026.pdf", Name: "Timetable", Kind: fetch.KindStandard},
		{URL: "http://example.test/pdf/Holiday.pdf", Filename: "Holiday.pdf", Name: "Holiday", Kind: fetch.KindSpecial},
	}
}

type fixture struct {
	cfg      *config.Config
	fetcher  *fakeFetcher
	db       *store.SQLite
	standard *fetch.StandardStore
	pipeline *Pipeline
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testConfig(t)

	db, err := store.OpenSQLite(filepath.Join(cfg.DataDir, "timetable.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() failed: %v", err)
	}

	fetcher := &fakeFetcher{
		links: testLinks(),
		files: map[string][]byte{
			"PATCO_Timetable_2026.pdf": standardPDF(),
			"Holiday.pdf":              specialPDF(),
		},
	}
	standard := fetch.NewStandardStore(cfg.StandardStatePath, cfg.StandardPDFDir, "http://example.test/pdf/", "http://example.test/pdf/default.pdf")
	if _, err := standard.Load(); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	p, err := New(cfg, fetcher, db, standard, prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	p.Now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	return &fixture{cfg: cfg, fetcher: fetcher, db: db, standard: standard, pipeline: p}
}

func TestRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	report, err := f.pipeline.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh() failed: %v", err)
	}

	if report.Links != 2 || report.Downloaded != 2 {
		t.Errorf("Links, Downloaded = %d, %d, want 2, 2", report.Links, report.Downloaded)
	}
	if report.Documents != 2 {
		t.Errorf("Documents = %d, want 2 (failed: %v)", report.Documents, report.Failed)
	}
	// weekday in both directions, saturday westbound, sunday eastbound and two special tables
	if report.Tables != 6 {
		t.Errorf("Tables = %d, want 6", report.Tables)
	}
	if report.StandardURL != "http://example.test/pdf/PATCO_Timetable_2026.pdf" {
		t.Errorf("StandardURL = %q", report.StandardURL)
	}

	for _, name := range []string{
		"PATCO_Timetable_2026_weekday_westbound.csv",
		"PATCO_Timetable_2026_saturday_westbound.csv",
		"Holiday_schedule_eastbound.csv",
	} {
		if _, err := os.Stat(filepath.Join(f.cfg.CSVDir, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}

	data, err := os.ReadFile(f.cfg.BundlePath)
	if err != nil {
		t.Fatalf("failed to read bundle: %v", err)
	}
	var bundle struct {
		StandardURL string `json:"standard_url"`
		Schedules   struct {
			Standard map[string]map[string][][]string `json:"standard"`
			Special  map[string]map[string]any        `json:"special"`
		} `json:"schedules"`
	}
	if err := json.Unmarshal(data, &bundle); err != nil {
		t.Fatalf("failed to parse bundle: %v", err)
	}
	if bundle.StandardURL != report.StandardURL {
		t.Errorf("bundle standard_url = %q, want %q", bundle.StandardURL, report.StandardURL)
	}
	weekday := bundle.Schedules.Standard[tables.Westbound][tables.SectionWeekday]
	if len(weekday) != 2 || weekday[1][0] != "5:00A" {
		t.Errorf("standard westbound weekday = %v", weekday)
	}
	holiday, ok := bundle.Schedules.Special["Holiday"]
	if !ok {
		t.Fatalf("special schedules = %v, want Holiday", bundle.Schedules.Special)
	}
	if holiday["url"] != "http://example.test/pdf/Holiday.pdf" {
		t.Errorf("Holiday url = %v", holiday["url"])
	}

	docs, err := f.db.Documents(ctx)
	if err != nil {
		t.Fatalf("Documents() failed: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("Documents() = %v, want 2 documents", docs)
	}

	run, err := f.db.LatestRun(ctx)
	if err != nil {
		t.Fatalf("LatestRun() failed: %v", err)
	}
	if run.ID != report.RunID || run.Status != store.RunSucceeded || run.Tables != 6 {
		t.Errorf("LatestRun() = %+v", run)
	}

	if got := f.standard.Current().Filename; got != "PATCO_Timetable_2026.pdf" {
		t.Errorf("standard filename = %q", got)
	}

	m := f.pipeline.metrics
	if got := testutil.ToFloat64(m.documents); got != 2 {
		t.Errorf("documents metric = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.refreshes.With(prometheus.Labels{"result": "success"})); got != 1 {
		t.Errorf("successful refreshes = %v, want 1", got)
	}
}

func TestRefresh_LinksUnavailable(t *testing.T) {
	f := newFixture(t)
	f.fetcher.linksErr = errors.New("connection refused")

	if err := os.MkdirAll(f.cfg.StandardPDFDir, 0755); err != nil {
		t.Fatal(err)
	}
	cached := filepath.Join(f.cfg.StandardPDFDir, "PATCO_Timetable_2025.pdf")
	if err := os.WriteFile(cached, standardPDF(), 0644); err != nil {
		t.Fatal(err)
	}

	report, err := f.pipeline.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() failed: %v", err)
	}
	if report.Links != 0 || report.Documents != 1 {
		t.Errorf("Links, Documents = %d, %d, want 0, 1", report.Links, report.Documents)
	}
	if len(f.fetcher.downloads) != 0 {
		t.Errorf("downloads = %v, want none", f.fetcher.downloads)
	}
}

func TestRefresh_ObsoleteStandard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := os.MkdirAll(f.cfg.StandardPDFDir, 0755); err != nil {
		t.Fatal(err)
	}
	old := filepath.Join(f.cfg.StandardPDFDir, "PATCO_Timetable_2025.pdf")
	if err := os.WriteFile(old, standardPDF(), 0644); err != nil {
		t.Fatal(err)
	}
	if err := f.db.SaveRun(ctx, store.Run{ID: "previous", StartedAt: time.Now(), Status: store.RunSucceeded}); err != nil {
		t.Fatal(err)
	}
	table := model.NewScheduleTable(tables.SectionWeekday, tables.Westbound, []string{"Lindenwold"})
	table.Rows = append(table.Rows, []string{"5:00A"})
	if err := f.db.SaveResult(ctx, "previous", "PATCO_Timetable_2025", tables.Result{table.Key: table}); err != nil {
		t.Fatal(err)
	}

	if _, err := f.pipeline.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() failed: %v", err)
	}

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Errorf("obsolete standard PDF still present (err = %v)", err)
	}
	if _, err := f.db.Keys(ctx, "PATCO_Timetable_2025"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Keys() for pruned document error = %v, want ErrNotFound", err)
	}
}

func TestRefresh_BadPDF(t *testing.T) {
	f := newFixture(t)
	f.fetcher.files["Holiday.pdf"] = []byte("not a pdf")

	report, err := f.pipeline.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() failed: %v", err)
	}
	if !reflect.DeepEqual(report.Failed, []string{"Holiday.pdf"}) {
		t.Errorf("Failed = %v, want [Holiday.pdf]", report.Failed)
	}
	if report.Documents != 1 {
		t.Errorf("Documents = %d, want 1", report.Documents)
	}
}

func TestRefresh_CorruptPDF(t *testing.T) {
	f := newFixture(t)
	f.fetcher.files["Holiday.pdf"] = bytes.Replace(specialPDF(), []byte("2 0 obj"), []byte("2 0 xxx"), 1)

	report, err := f.pipeline.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() failed: %v", err)
	}
	if !reflect.DeepEqual(report.Failed, []string{"Holiday.pdf"}) {
		t.Errorf("Failed = %v, want [Holiday.pdf]", report.Failed)
	}
	if report.Documents != 1 {
		t.Errorf("Documents = %d, want 1", report.Documents)
	}
}

func TestRefresh_RenamedDirections(t *testing.T) {
	f := newFixture(t)
	cal := &f.cfg.Tables
	cal.LeftDirection = "outbound"
	cal.RightDirection = "inbound"
	cal.Stations = map[string][]string{
		"outbound": {"Lindenwold", "Ashland", "Woodcrest", "Haddonfield", "Westmont"},
		"inbound":  {"Westmont", "Haddonfield", "Woodcrest", "Ashland", "Lindenwold"},
	}

	if _, err := f.pipeline.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() failed: %v", err)
	}

	data, err := os.ReadFile(f.cfg.BundlePath)
	if err != nil {
		t.Fatalf("failed to read bundle: %v", err)
	}
	var bundle struct {
		Stations  store.Stations `json:"stations"`
		Schedules struct {
			Standard map[string]map[string][][]string `json:"standard"`
		} `json:"schedules"`
	}
	if err := json.Unmarshal(data, &bundle); err != nil {
		t.Fatalf("failed to parse bundle: %v", err)
	}
	if !reflect.DeepEqual(bundle.Stations.Westbound, cal.Stations["outbound"]) {
		t.Errorf("stations.westbound = %v, want %v", bundle.Stations.Westbound, cal.Stations["outbound"])
	}
	if !reflect.DeepEqual(bundle.Stations.Eastbound, cal.Stations["inbound"]) {
		t.Errorf("stations.eastbound = %v, want %v", bundle.Stations.Eastbound, cal.Stations["inbound"])
	}
	if _, ok := bundle.Schedules.Standard["outbound"]; !ok {
		t.Errorf("standard schedules = %v, want an outbound direction", bundle.Schedules.Standard)
	}
}

func TestExtractToCSV_CorruptPDF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Broken.pdf")
	if err := os.WriteFile(path, bytes.Replace(specialPDF(), []byte("2 0 obj"), []byte("2 0 xxx"), 1), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := ExtractToCSV(path, filepath.Join(dir, "csv"), tables.DefaultConfig(), false); err == nil {
		t.Error("ExtractToCSV() of a corrupt PDF should fail")
	}
}

func TestRefresh_ExpiredSpecial(t *testing.T) {
	f := newFixture(t)
	f.fetcher.links = testLinks()[:1]

	if err := os.MkdirAll(f.cfg.SpecialPDFDir, 0755); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(f.cfg.SpecialPDFDir, "Snow.pdf")
	if err := os.WriteFile(stale, specialPDF(), 0644); err != nil {
		t.Fatal(err)
	}
	past := f.pipeline.Now().Add(-30 * 24 * time.Hour)
	if err := os.Chtimes(stale, past, past); err != nil {
		t.Fatal(err)
	}

	report, err := f.pipeline.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() failed: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Errorf("expired special PDF still present (err = %v)", err)
	}
	if report.Documents != 1 {
		t.Errorf("Documents = %d, want 1", report.Documents)
	}
}

func TestExtractToCSV_Cache(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "Holiday.pdf")
	if err := os.WriteFile(path, specialPDF(), 0644); err != nil {
		t.Fatal(err)
	}

	first, err := ExtractToCSV(path, cfg.CSVDir, cfg.Tables, true)
	if err != nil {
		t.Fatalf("ExtractToCSV() failed: %v", err)
	}
	if first.Cached || len(first.Paths) != 2 {
		t.Fatalf("first extraction = %+v", first)
	}

	second, err := ExtractToCSV(path, cfg.CSVDir, cfg.Tables, true)
	if err != nil {
		t.Fatalf("ExtractToCSV() failed: %v", err)
	}
	if !second.Cached {
		t.Error("second extraction should come from the CSV cache")
	}
	if !reflect.DeepEqual(second.Result.Keys(), first.Result.Keys()) {
		t.Errorf("cached keys = %v, want %v", second.Result.Keys(), first.Result.Keys())
	}
	if got, want := second.Tables()[0].Rows, first.Tables()[0].Rows; !reflect.DeepEqual(got, want) {
		t.Errorf("cached rows = %v, want %v", got, want)
	}
}

func TestDocumentName(t *testing.T) {
	if got := DocumentName("/tmp/x/PATCO_Timetable_2026.pdf"); got != "PATCO_Timetable_2026" {
		t.Errorf("DocumentName() = %q", got)
	}
}

func TestNew_DuplicateRegistration(t *testing.T) {
	cfg := testConfig(t)
	reg := prometheus.NewRegistry()
	if _, err := New(cfg, &fakeFetcher{}, nil, nil, reg); err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if _, err := New(cfg, &fakeFetcher{}, nil, nil, reg); err == nil {
		t.Error("expected error registering metrics twice")
	}
}

func TestRun(t *testing.T) {
	f := newFixture(t)

	if err := f.pipeline.Run(context.Background(), 0); err == nil {
		t.Error("expected error for zero interval")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := f.pipeline.Run(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}
