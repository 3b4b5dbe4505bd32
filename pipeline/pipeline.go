// Package pipeline runs the refresh cycle: download the current PDFs,
// reconstruct their tables, and publish them as CSV files, database rows
// and a JSON bundle.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tsawler/timetable/config"
	"github.com/tsawler/timetable/fetch"
	"github.com/tsawler/timetable/store"
	"github.com/tsawler/timetable/tables"
)

// Fetcher discovers and downloads timetable PDFs
type Fetcher interface {
	Links(ctx context.Context, pageURL string) ([]fetch.Link, error)
	Download(ctx context.Context, link fetch.Link, dest string, skipExisting bool) (bool, error)
}

// Store persists refresh runs and their tables
type Store interface {
	SaveRun(ctx context.Context, run store.Run) error
	SaveResult(ctx context.Context, runID, document string, result tables.Result) error
	PruneDocuments(ctx context.Context, keep map[string]bool) (int, error)
}

// Report summarizes one refresh
type Report struct {
	RunID       string
	Links       int
	Downloaded  int
	Documents   int
	Tables      int
	Warnings    int
	Failed      []string // PDFs that could not be extracted
	StandardURL string
	Duration    time.Duration
}

// Pipeline refreshes the published timetables
type Pipeline struct {
	cfg      *config.Config
	fetcher  Fetcher
	store    Store
	standard *fetch.StandardStore
	metrics  *metrics

	// Now is used for timestamps and cache expiry
	Now func() time.Time
}

// New creates a pipeline. Metrics are registered on reg unless it is nil.
func New(cfg *config.Config, fetcher Fetcher, st Store, standard *fetch.StandardStore, reg prometheus.Registerer) (*Pipeline, error) {
	m, err := newMetrics(reg)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	return &Pipeline{
		cfg:      cfg,
		fetcher:  fetcher,
		store:    st,
		standard: standard,
		metrics:  m,
		Now:      time.Now,
	}, nil
}

// Refresh runs one complete cycle. Failing to reach the schedules page or
// to extract a single PDF is logged and the cycle continues with what is
// cached; failing to persist the outcome is an error.
func (p *Pipeline) Refresh(ctx context.Context) (report Report, err error) {
	start := p.Now()
	defer func() {
		report.Duration = p.Now().Sub(start)
		p.metrics.duration.Observe(report.Duration.Seconds())

		result := "success"
		if err != nil {
			result = "failure"
		}
		p.metrics.refreshes.With(prometheus.Labels{"result": result}).Inc()
	}()

	for _, dir := range []string{p.cfg.StandardPDFDir, p.cfg.SpecialPDFDir, p.cfg.CSVDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return report, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	report.RunID = uuid.NewString()
	run := store.Run{
		ID:        report.RunID,
		StartedAt: start.UTC(),
		Status:    store.RunRunning,
	}
	if err := p.store.SaveRun(ctx, run); err != nil {
		return report, err
	}

	docs, err := p.refresh(ctx, &report)

	run.FinishedAt = p.Now().UTC()
	run.Documents = report.Documents
	run.Tables = report.Tables
	run.Warnings = report.Warnings
	run.Status = store.RunSucceeded
	if err != nil {
		run.Status = store.RunFailed
	}
	if saveErr := p.store.SaveRun(ctx, run); saveErr != nil && err == nil {
		err = saveErr
	}
	if err != nil {
		return report, err
	}

	log.Printf("Refresh %s: %d documents, %d tables, %d warnings", report.RunID, len(docs), report.Tables, report.Warnings)
	return report, nil
}

func (p *Pipeline) refresh(ctx context.Context, report *Report) (map[string]tables.Result, error) {
	now := p.Now()

	if n, err := fetch.CleanupOlderThan(p.cfg.SpecialPDFDir, "*.pdf", p.cfg.MaxAge, now); err != nil {
		log.Printf("Warning: failed to clean up special PDFs: %v", err)
	} else if n > 0 {
		log.Printf("Removed %d special PDFs older than %s", n, p.cfg.MaxAge)
	}

	specialURLs, err := p.download(ctx, report)
	if err != nil {
		return nil, err
	}
	report.StandardURL = p.standard.Current().URL

	if _, err := store.ClearCSV(p.cfg.CSVDir); err != nil {
		return nil, err
	}

	docs := make(map[string]tables.Result)
	for _, dir := range []string{p.cfg.StandardPDFDir, p.cfg.SpecialPDFDir} {
		matches, err := filepath.Glob(filepath.Join(dir, "*.pdf"))
		if err != nil {
			return nil, err
		}
		sort.Strings(matches)

		for _, path := range matches {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			ex, err := ExtractToCSV(path, p.cfg.CSVDir, p.cfg.Tables, false)
			if err != nil {
				log.Printf("Warning: %v", err)
				report.Failed = append(report.Failed, filepath.Base(path))
				continue
			}
			for _, w := range ex.Warnings {
				log.Printf("%s: %s", ex.Document, w)
				p.metrics.warnings.With(prometheus.Labels{"kind": w.Kind.String()}).Inc()
			}

			if err := p.store.SaveResult(ctx, report.RunID, ex.Document, ex.Result); err != nil {
				return nil, err
			}

			docs[ex.Document] = ex.Result
			report.Documents++
			report.Tables += ex.Result.TableCount()
			report.Warnings += len(ex.Warnings)
			p.metrics.documents.Inc()
			p.metrics.tables.Add(float64(ex.Result.TableCount()))
		}
	}

	keep := make(map[string]bool, len(docs))
	for name := range docs {
		keep[name] = true
	}
	if _, err := p.store.PruneDocuments(ctx, keep); err != nil {
		return nil, err
	}

	std := p.standard.Current()
	bundle := store.BuildBundle(docs, store.BundleOptions{
		StandardPrefix: std.Prefix(),
		StandardURL:    std.URL,
		SpecialURLs:    specialURLs,
		Stations: store.Stations{
			Westbound: p.cfg.Tables.StationsFor(p.cfg.Tables.LeftDirection),
			Eastbound: p.cfg.Tables.StationsFor(p.cfg.Tables.RightDirection),
		},
		Now: now.UTC(),
	})
	if err := store.WriteBundle(p.cfg.BundlePath, bundle); err != nil {
		return nil, err
	}

	return docs, nil
}

// download fetches the linked PDFs into the cache and returns the URL of
// each special PDF by document name. Standard PDFs no longer linked are
// removed and the newest standard link becomes the current standard.
func (p *Pipeline) download(ctx context.Context, report *Report) (map[string]string, error) {
	specialURLs := make(map[string]string)

	links, err := p.fetcher.Links(ctx, p.cfg.SchedulesURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("Warning: failed to fetch schedule links, using cached PDFs: %v", err)
		return specialURLs, nil
	}
	report.Links = len(links)

	keep := make(map[string]bool)
	var standard *fetch.Link
	for i, link := range links {
		dir := p.cfg.SpecialPDFDir
		if link.Kind == fetch.KindStandard {
			dir = p.cfg.StandardPDFDir
			keep[link.Filename] = true
			standard = &links[i]
		} else {
			specialURLs[DocumentName(link.Filename)] = link.URL
		}

		// the standard timetable is revised in place, special notices are not
		changed, err := p.fetcher.Download(ctx, link, filepath.Join(dir, link.Filename), link.Kind != fetch.KindStandard)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("Warning: failed to download %s: %v", link.URL, err)
			continue
		}
		if changed {
			report.Downloaded++
		}
	}

	if len(keep) > 0 {
		if n, err := fetch.RemoveObsolete(p.cfg.StandardPDFDir, keep); err != nil {
			log.Printf("Warning: failed to remove obsolete standard PDFs: %v", err)
		} else if n > 0 {
			log.Printf("Removed %d obsolete standard PDFs", n)
		}
	}

	if standard != nil {
		err := p.standard.Update(fetch.Standard{
			URL:       standard.URL,
			Filename:  standard.Filename,
			UpdatedAt: p.Now().UTC(),
		})
		if err != nil {
			return nil, err
		}
	}

	return specialURLs, nil
}

// Run refreshes immediately and then every interval until ctx is done.
// Failed refreshes are logged and retried at the next tick.
func (p *Pipeline) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("invalid refresh interval %s", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := p.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("Error: refresh failed: %v", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
