package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tsawler/timetable/model"
	"github.com/tsawler/timetable/tables"
)

// ErrNotFound is returned when a document, table or run does not exist.
var ErrNotFound = errors.New("not found")

// schemaSQL is embedded from schema.sql
//
//go:embed schema.sql
var schemaSQL string

// Run status values
const (
	RunRunning   = "running"
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// Run records one extraction pass
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Status     string    `json:"status"`
	Documents  int       `json:"documents"`
	Tables     int       `json:"tables"`
	Warnings   int       `json:"warnings"`
}

// DocumentInfo summarizes the stored tables of one document
type DocumentInfo struct {
	Name      string    `json:"name"`
	Tables    int       `json:"tables"`
	RunID     string    `json:"run_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SQLite wraps a SQLite database connection with write serialization
type SQLite struct {
	conn    *sql.DB
	writeMu sync.Mutex
}

// OpenSQLite opens the database at path, creating it when missing
func OpenSQLite(path string) (*SQLite, error) {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite has a single writer; one connection plus writeMu avoids
	// nested transaction errors.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Connected to SQLite database: %s", path)
	return &SQLite{conn: conn}, nil
}

// Close closes the database connection
func (s *SQLite) Close() error {
	return s.conn.Close()
}

// EnsureSchema creates the tables if they don't exist.
func (s *SQLite) EnsureSchema(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.conn.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveRun inserts or updates a run
func (s *SQLite) SaveRun(ctx context.Context, run Run) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, status, documents, tables, warnings)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			finished_at = excluded.finished_at,
			status = excluded.status,
			documents = excluded.documents,
			tables = excluded.tables,
			warnings = excluded.warnings
	`, run.ID, formatTime(run.StartedAt), nullTime(run.FinishedAt), run.Status, run.Documents, run.Tables, run.Warnings)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return nil
}

// LatestRun returns the most recently started run
func (s *SQLite) LatestRun(ctx context.Context) (Run, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, status, documents, tables, warnings
		FROM runs
		ORDER BY started_at DESC
		LIMIT 1
	`)

	var run Run
	var started string
	var finished sql.NullString
	err := row.Scan(&run.ID, &started, &finished, &run.Status, &run.Documents, &run.Tables, &run.Warnings)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	if err != nil {
		return Run{}, fmt.Errorf("failed to query runs: %w", err)
	}

	run.StartedAt = parseTime(started)
	if finished.Valid {
		run.FinishedAt = parseTime(finished.String)
	}
	return run, nil
}

// SaveResult replaces every stored table of document with result.
func (s *SQLite) SaveResult(ctx context.Context, runID, document string, result tables.Result) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_tables WHERE document = ?`, document); err != nil {
		return fmt.Errorf("failed to clear %s: %w", document, err)
	}

	tableStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO schedule_tables (document, table_key, section, direction, stations, run_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare table insert: %w", err)
	}
	defer tableStmt.Close()

	rowStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO schedule_rows (document, table_key, row_index, cells)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare row insert: %w", err)
	}
	defer rowStmt.Close()

	now := formatTime(time.Now())
	for _, key := range result.Keys() {
		table := result[key]
		stations, err := json.Marshal(table.Stations)
		if err != nil {
			return err
		}
		if _, err := tableStmt.ExecContext(ctx, document, key, table.Section, table.Direction, string(stations), runID, now); err != nil {
			return fmt.Errorf("failed to insert table %s/%s: %w", document, key, err)
		}

		for i, row := range table.Rows {
			cells, err := json.Marshal(row)
			if err != nil {
				return err
			}
			if _, err := rowStmt.ExecContext(ctx, document, key, i, string(cells)); err != nil {
				return fmt.Errorf("failed to insert row %d of %s/%s: %w", i, document, key, err)
			}
		}
	}

	return tx.Commit()
}

// PruneDocuments deletes the tables of every document not in keep.
func (s *SQLite) PruneDocuments(ctx context.Context, keep map[string]bool) (int, error) {
	docs, err := s.Documents(ctx)
	if err != nil {
		return 0, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	pruned := 0
	for _, doc := range docs {
		if keep[doc.Name] {
			continue
		}
		if _, err := s.conn.ExecContext(ctx, `DELETE FROM schedule_tables WHERE document = ?`, doc.Name); err != nil {
			return pruned, fmt.Errorf("failed to delete %s: %w", doc.Name, err)
		}
		pruned++
	}
	return pruned, nil
}

// Documents lists the stored documents in name order
func (s *SQLite) Documents(ctx context.Context) ([]DocumentInfo, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT document, COUNT(*), MAX(run_id), MAX(updated_at)
		FROM schedule_tables
		GROUP BY document
		ORDER BY document
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	docs := []DocumentInfo{}
	for rows.Next() {
		var d DocumentInfo
		var updated string
		if err := rows.Scan(&d.Name, &d.Tables, &d.RunID, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		d.UpdatedAt = parseTime(updated)
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Keys returns the table keys of a document in sorted order
func (s *SQLite) Keys(ctx context.Context, document string) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT table_key FROM schedule_tables WHERE document = ? ORDER BY table_key
	`, document)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, ErrNotFound
	}
	return keys, nil
}

// Table loads one table of a document
func (s *SQLite) Table(ctx context.Context, document, key string) (*model.ScheduleTable, error) {
	var section, direction, stationsJSON string
	err := s.conn.QueryRowContext(ctx, `
		SELECT section, direction, stations FROM schedule_tables WHERE document = ? AND table_key = ?
	`, document, key).Scan(&section, &direction, &stationsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query table %s/%s: %w", document, key, err)
	}

	var stations []string
	if err := json.Unmarshal([]byte(stationsJSON), &stations); err != nil {
		return nil, fmt.Errorf("corrupt stations of %s/%s: %w", document, key, err)
	}
	table := model.NewScheduleTable(section, direction, stations)
	table.Key = key

	rows, err := s.conn.QueryContext(ctx, `
		SELECT cells FROM schedule_rows WHERE document = ? AND table_key = ? ORDER BY row_index
	`, document, key)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows of %s/%s: %w", document, key, err)
	}
	defer rows.Close()

	for rows.Next() {
		var cellsJSON string
		if err := rows.Scan(&cellsJSON); err != nil {
			return nil, err
		}
		var cells []string
		if err := json.Unmarshal([]byte(cellsJSON), &cells); err != nil {
			return nil, fmt.Errorf("corrupt row of %s/%s: %w", document, key, err)
		}
		if err := table.AppendRow(cells); err != nil {
			return nil, fmt.Errorf("corrupt row of %s/%s: %w", document, key, err)
		}
	}
	return table, rows.Err()
}

// Result loads every table of a document
func (s *SQLite) Result(ctx context.Context, document string) (tables.Result, error) {
	keys, err := s.Keys(ctx, document)
	if err != nil {
		return nil, err
	}
	result := make(tables.Result, len(keys))
	for _, key := range keys {
		table, err := s.Table(ctx, document, key)
		if err != nil {
			return nil, err
		}
		result[key] = table
	}
	return result, nil
}

// timeLayout has fixed-width fractions so stored times sort as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return formatTime(t)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
