// Command timetabled keeps the PATCO timetables current and serves them
// over HTTP.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tsawler/timetable/config"
	"github.com/tsawler/timetable/fetch"
	"github.com/tsawler/timetable/pipeline"
	"github.com/tsawler/timetable/server"
	"github.com/tsawler/timetable/store"
)

func main() {
	log.Println("Starting timetable service...")

	cfg, err := config.Load(".env", ".env.local")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Printf("Config loaded: refresh_interval=%v, max_age=%v, data_dir=%s", cfg.RefreshInterval, cfg.MaxAge, cfg.DataDir)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	log.Printf("Opening SQLite database: %s", cfg.DatabasePath)
	db, err := store.OpenSQLite(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("Failed to ensure database schema: %v", err)
	}

	standard := fetch.NewStandardStore(cfg.StandardStatePath, cfg.StandardPDFDir, cfg.PDFBaseURL, cfg.DefaultStandardURL)
	if std, err := standard.Load(); err != nil {
		log.Printf("Warning: failed to load standard timetable state: %v", err)
	} else if std.URL != "" {
		log.Printf("Standard timetable: %s", std.URL)
	}

	client := fetch.NewClient(cfg.HTTPTimeout)
	client.MaxBytes = cfg.MaxDownloadBytes
	p, err := pipeline.New(cfg, client, db, standard, prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("Failed to create pipeline: %v", err)
	}

	handler, err := server.New(server.Options{
		Repository:     db,
		Standard:       standard,
		BundlePath:     cfg.BundlePath,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	refreshDone := make(chan struct{})
	go func() {
		defer close(refreshDone)
		if err := p.Run(ctx, cfg.RefreshInterval); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Refresh loop stopped: %v", err)
		}
	}()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("API server starting on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	<-refreshDone
	log.Println("Goodbye!")
}
