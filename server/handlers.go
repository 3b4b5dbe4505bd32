package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tsawler/timetable/fetch"
	"github.com/tsawler/timetable/model"
	"github.com/tsawler/timetable/store"
)

// Repository defines the read operations the API needs
type Repository interface {
	Documents(ctx context.Context) ([]store.DocumentInfo, error)
	Keys(ctx context.Context, document string) ([]string, error)
	Table(ctx context.Context, document, key string) (*model.ScheduleTable, error)
	LatestRun(ctx context.Context) (store.Run, error)
}

type handler struct {
	repo       Repository
	standard   *fetch.StandardStore
	bundlePath string
}

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// DocumentsResponse is the JSON response for GET /api/documents
type DocumentsResponse struct {
	Documents []store.DocumentInfo `json:"documents"`
	Count     int                  `json:"count"`
}

// TablesResponse is the JSON response for GET /api/documents/{document}/tables
type TablesResponse struct {
	Document string   `json:"document"`
	Tables   []string `json:"tables"`
}

// TableResponse is the JSON response for a single table
type TableResponse struct {
	Document  string     `json:"document"`
	Key       string     `json:"key"`
	Section   string     `json:"section"`
	Direction string     `json:"direction"`
	Stations  []string   `json:"stations"`
	Rows      [][]string `json:"rows"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string, err error, details map[string]interface{}) {
	if err != nil {
		if details == nil {
			details = make(map[string]interface{})
		}
		details["internal"] = err.Error()
	}
	writeJSON(w, status, ErrorResponse{Error: message, Details: details})
}

// health reports database connectivity and the last refresh
func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	run, err := h.repo.LatestRun(ctx)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "error",
			"database":  "disconnected",
			"timestamp": time.Now().UTC(),
			"error":     err.Error(),
		})
		return
	}

	body := map[string]interface{}{
		"status":    "ok",
		"database":  "connected",
		"timestamp": time.Now().UTC(),
	}
	if err == nil {
		body["last_run"] = run
	}
	writeJSON(w, http.StatusOK, body)
}

// documents handles GET /api/documents
func (h *handler) documents(w http.ResponseWriter, r *http.Request) {
	docs, err := h.repo.Documents(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve documents", err, nil)
		return
	}
	if docs == nil {
		docs = []store.DocumentInfo{}
	}
	writeJSON(w, http.StatusOK, DocumentsResponse{Documents: docs, Count: len(docs)})
}

// tables handles GET /api/documents/{document}/tables
func (h *handler) tables(w http.ResponseWriter, r *http.Request) {
	document := chi.URLParam(r, "document")

	keys, err := h.repo.Keys(r.Context(), document)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Document not found", nil, map[string]interface{}{"document": document})
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve tables", err, map[string]interface{}{"document": document})
		return
	}

	writeJSON(w, http.StatusOK, TablesResponse{Document: document, Tables: keys})
}

// StationResponse is the JSON response for one station of a table
type StationResponse struct {
	Document string   `json:"document"`
	Key      string   `json:"key"`
	Station  string   `json:"station"`
	Times    []string `json:"times"`
}

// table handles GET /api/documents/{document}/tables/{key}. The format
// query parameter selects csv or markdown instead of JSON; the station
// parameter narrows the response to one column.
func (h *handler) table(w http.ResponseWriter, r *http.Request) {
	document := chi.URLParam(r, "document")
	key := chi.URLParam(r, "key")
	details := map[string]interface{}{"document": document, "key": key}

	table, err := h.repo.Table(r.Context(), document, key)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Table not found", nil, details)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve table", err, details)
		return
	}

	if station := r.URL.Query().Get("station"); station != "" {
		times, ok := table.Column(station)
		if !ok {
			details["station"] = station
			writeError(w, http.StatusNotFound, "Station not found", nil, details)
			return
		}
		writeJSON(w, http.StatusOK, StationResponse{Document: document, Key: table.Key, Station: station, Times: times})
		return
	}

	switch r.URL.Query().Get("format") {
	case "csv":
		out, err := table.ToCSV()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to encode table", err, details)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+store.CSVName(document, key)+`"`)
		w.Write([]byte(out))
	case "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write([]byte(table.ToMarkdown()))
	case "", "json":
		writeJSON(w, http.StatusOK, TableResponse{
			Document:  document,
			Key:       table.Key,
			Section:   table.Section,
			Direction: table.Direction,
			Stations:  table.Stations,
			Rows:      table.Rows,
		})
	default:
		writeError(w, http.StatusBadRequest, "Unsupported format", nil, map[string]interface{}{"format": r.URL.Query().Get("format")})
	}
}

// currentStandard handles GET /api/standard
func (h *handler) currentStandard(w http.ResponseWriter, r *http.Request) {
	if h.standard == nil || h.standard.Current().URL == "" {
		writeError(w, http.StatusNotFound, "No standard timetable known", nil, nil)
		return
	}
	writeJSON(w, http.StatusOK, h.standard.Current())
}

// bundle handles GET /api/bundle
func (h *handler) bundle(w http.ResponseWriter, r *http.Request) {
	if _, err := os.Stat(h.bundlePath); err != nil {
		writeError(w, http.StatusNotFound, "Bundle not generated yet", nil, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=300")
	http.ServeFile(w, r, h.bundlePath)
}
